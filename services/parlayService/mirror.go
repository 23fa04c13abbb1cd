package parlayService

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"parlayTracker/models"
	"path/filepath"
)

// MirrorState is the document the mirror keeps: the slip list plus the server ids
// that were removed locally but not yet deleted remotely.
type MirrorState struct {
	Slips   []models.Slip `json:"slips"`
	Removed []string      `json:"removed,omitempty"`
}

// Mirror is the local best-effort copy of the slip list.
type Mirror interface {
	Load() (MirrorState, error)
	Save(state MirrorState) error
}

// FileMirror keeps the state as one JSON document on disk.
type FileMirror struct {
	Path string
}

func NewFileMirror(path string) *FileMirror {
	return &FileMirror{Path: path}
}

// Load reads the mirror. A missing or empty file is an empty state, and a file
// holding a bare slip array is read as slips with nothing removed.
func (m *FileMirror) Load() (MirrorState, error) {
	state := MirrorState{Slips: []models.Slip{}}

	data, err := os.ReadFile(m.Path)
	if errors.Is(err, os.ErrNotExist) {
		return state, nil
	}
	if err != nil {
		return MirrorState{}, fmt.Errorf("error reading mirror: %v", err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return state, nil
	}
	if data[0] == '[' {
		err = json.Unmarshal(data, &state.Slips)
	} else {
		err = json.Unmarshal(data, &state)
	}
	if err != nil {
		return MirrorState{}, fmt.Errorf("error parsing mirror: %v", err)
	}
	if state.Slips == nil {
		state.Slips = []models.Slip{}
	}
	return state, nil
}

// Save replaces the file through a temp file and rename so readers never see a
// partial document.
func (m *FileMirror) Save(state MirrorState) error {
	if state.Slips == nil {
		state.Slips = []models.Slip{}
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding mirror: %v", err)
	}

	dir := filepath.Dir(m.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating mirror directory: %v", err)
	}

	tmp, err := os.CreateTemp(dir, ".slips-*.json")
	if err != nil {
		return fmt.Errorf("error creating mirror temp file: %v", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("error writing mirror: %v", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("error writing mirror: %v", err)
	}
	if err := os.Rename(tmpName, m.Path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("error replacing mirror: %v", err)
	}
	return nil
}
