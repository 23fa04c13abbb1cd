package parlayService

import (
	"context"
	"errors"
	"fmt"
	"log"
	"parlayTracker/models"
	"parlayTracker/services/common"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrSlipNotFound     = errors.New("slip not found")
	ErrStoreUnavailable = errors.New("backing store not configured")
)

// Store is the app's view of locked slips, newest first. The remote store is the
// owner of record; the mirror is rewritten after every local change. Server ids
// removed locally stay in removed until the remote delete goes through, and server
// rows carrying them are ignored.
type Store struct {
	mu       sync.RWMutex
	slips    []models.Slip
	removed  map[string]bool
	remote   RemoteStore
	mirror   Mirror
	reporter *common.ErrorReporter
	now      func() time.Time
}

// NewStore seeds the local view from the mirror. An unreadable mirror is reported
// and the store starts empty.
func NewStore(remote RemoteStore, mirror Mirror, reporter *common.ErrorReporter) *Store {
	s := &Store{
		slips:    []models.Slip{},
		removed:  map[string]bool{},
		remote:   remote,
		mirror:   mirror,
		reporter: reporter,
		now:      func() time.Time { return time.Now().UTC() },
	}

	if mirror != nil {
		state, err := mirror.Load()
		if err != nil {
			reporter.Report("parlayService.NewStore", err)
		} else {
			s.slips = state.Slips
			for _, id := range state.Removed {
				s.removed[id] = true
			}
			log.Printf("Loaded %d slips from mirror", len(state.Slips))
		}
	}
	return s
}

// IsServerID reports whether id was assigned by the backing store rather than
// generated locally from a millisecond timestamp.
func IsServerID(id string) bool {
	if len(id) <= 8 {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return true
		}
	}
	return false
}

// Lock turns picks into a new open slip. Nothing is created for an empty set. When
// the backing store rejects the write the slip is kept locally under a local id.
func (s *Store) Lock(ctx context.Context, stake decimal.Decimal, picks []models.Pick) *models.Slip {
	if len(picks) == 0 {
		return nil
	}

	draft := models.Slip{
		Picks:        append([]models.Pick(nil), picks...),
		Amount:       common.NonNegative(stake),
		Status:       models.SlipOpen,
		CreatedAt:    s.now(),
		ResultAmount: decimal.Zero,
	}

	slip := draft
	if s.remote != nil {
		saved, err := s.remote.CreateParlay(ctx, draft)
		if err != nil {
			s.reporter.Report("parlayService.Lock", err)
		} else {
			slip = saved
		}
	}

	s.mu.Lock()
	if slip.ID == "" {
		slip.ID = s.localIDLocked()
	}
	s.slips = append([]models.Slip{slip}, s.slips...)
	s.persistLocked()
	s.mu.Unlock()

	return &slip
}

// localIDLocked picks an unused millisecond id. The caller holds the write lock
// until the slip carrying it is inserted.
func (s *Store) localIDLocked() string {
	ms := s.now().UnixMilli()
	for {
		id := strconv.FormatInt(ms, 10)
		if s.indexLocked(id) < 0 {
			return id
		}
		ms++
	}
}

// List refreshes the local view from the backing store. On a read failure the
// local view is returned together with the error.
func (s *Store) List(ctx context.Context) ([]models.Slip, error) {
	if s.remote == nil {
		return s.Snapshot(), nil
	}

	server, err := s.remote.ListParlays(ctx)
	if err != nil {
		s.reporter.Report("parlayService.List", err)
		return s.Snapshot(), err
	}

	s.mu.Lock()
	s.slips = Reconcile(s.withoutRemovedLocked(server), s.slips)
	s.persistLocked()
	out := copySlips(s.slips)
	s.mu.Unlock()

	return out, nil
}

// Reconcile merges server rows with locally known slips by id. Local fields win
// where they are set, and slips the server does not know are kept in front.
func Reconcile(server []models.Slip, local []models.Slip) []models.Slip {
	localByID := make(map[string]models.Slip, len(local))
	for _, l := range local {
		localByID[l.ID] = l
	}
	serverIDs := make(map[string]bool, len(server))
	for _, sv := range server {
		serverIDs[sv.ID] = true
	}

	merged := make([]models.Slip, 0, len(server)+len(local))
	for _, l := range local {
		if !serverIDs[l.ID] {
			merged = append(merged, l)
		}
	}
	for _, sv := range server {
		if l, ok := localByID[sv.ID]; ok {
			sv = overlay(sv, l)
		}
		merged = append(merged, sv)
	}
	return merged
}

func overlay(base models.Slip, local models.Slip) models.Slip {
	if len(local.Picks) > 0 {
		base.Picks = local.Picks
	}
	if !local.Amount.IsZero() {
		base.Amount = local.Amount
	}
	if local.Status != "" {
		base.Status = local.Status
	}
	if !local.CreatedAt.IsZero() {
		base.CreatedAt = local.CreatedAt
	}
	if !local.ResultAmount.IsZero() {
		base.ResultAmount = local.ResultAmount
	}
	if local.SettledAt != nil {
		base.SettledAt = local.SettledAt
	}
	return base
}

// Remove drops the slip locally first. Server rows are then deleted; a failed
// remote delete is reported, the slip stays removed locally and the delete is
// retried by RetryRemovals.
func (s *Store) Remove(ctx context.Context, id string) error {
	serverID := IsServerID(id)

	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx >= 0 {
		s.slips = append(s.slips[:idx], s.slips[idx+1:]...)
	}
	if serverID {
		s.removed[id] = true
	}
	if idx >= 0 || serverID {
		s.persistLocked()
	}
	s.mu.Unlock()

	if !serverID {
		if idx < 0 {
			return ErrSlipNotFound
		}
		return nil
	}

	if s.remote != nil {
		if err := s.remote.DeleteParlay(ctx, id); err != nil {
			s.reporter.Report("parlayService.Remove", err)
		} else {
			s.forgetRemoved(id)
		}
	}
	return nil
}

// PendingRemovals lists server ids still waiting for their remote delete.
func (s *Store) PendingRemovals() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.removedLocked()
}

// RetryRemovals re-sends remote deletes that failed earlier. It returns how many
// went through.
func (s *Store) RetryRemovals(ctx context.Context) (int, error) {
	if s.remote == nil {
		return 0, ErrStoreUnavailable
	}

	deleted := 0
	var errs []error
	for _, id := range s.PendingRemovals() {
		if err := s.remote.DeleteParlay(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("slip %s: %v", id, err))
			continue
		}
		s.forgetRemoved(id)
		deleted++
	}

	err := errors.Join(errs...)
	if err != nil {
		s.reporter.Report("parlayService.RetryRemovals", err)
	}
	return deleted, err
}

func (s *Store) forgetRemoved(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removed[id] {
		delete(s.removed, id)
		s.persistLocked()
	}
}

func (s *Store) withoutRemovedLocked(server []models.Slip) []models.Slip {
	if len(s.removed) == 0 {
		return server
	}
	kept := make([]models.Slip, 0, len(server))
	for _, sv := range server {
		if !s.removed[sv.ID] {
			kept = append(kept, sv)
		}
	}
	return kept
}

func (s *Store) removedLocked() []string {
	ids := make([]string, 0, len(s.removed))
	for id := range s.removed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SetStatus updates a slip's outcome locally. Terminal statuses stamp settledAt.
func (s *Store) SetStatus(id string, status models.SlipStatus, resultAmount decimal.Decimal) (models.Slip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return models.Slip{}, ErrSlipNotFound
	}

	slip := s.slips[idx]
	slip.Status = status
	slip.ResultAmount = resultAmount
	if slip.Settled() {
		settledAt := s.now()
		slip.SettledAt = &settledAt
	} else {
		slip.SettledAt = nil
	}
	s.slips[idx] = slip
	s.persistLocked()

	return slip, nil
}

func (s *Store) Get(id string) (models.Slip, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return models.Slip{}, false
	}
	return s.slips[idx], true
}

// Snapshot returns a copy of every known slip.
func (s *Store) Snapshot() []models.Slip {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySlips(s.slips)
}

// ByStatus filters the local view. An empty status returns everything.
func (s *Store) ByStatus(status models.SlipStatus) []models.Slip {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Slip{}
	for _, slip := range s.slips {
		if status == "" || slip.Status == status {
			out = append(out, slip)
		}
	}
	return out
}

func (s *Store) Open() []models.Slip {
	return s.ByStatus(models.SlipOpen)
}

// SyncLocal pushes open local-only slips to the backing store and swaps in their
// server ids. It returns how many were synced.
func (s *Store) SyncLocal(ctx context.Context) (int, error) {
	if s.remote == nil {
		return 0, ErrStoreUnavailable
	}

	var pending []models.Slip
	for _, slip := range s.Open() {
		if !IsServerID(slip.ID) {
			pending = append(pending, slip)
		}
	}

	synced := 0
	var errs []error
	for _, slip := range pending {
		saved, err := s.remote.CreateParlay(ctx, slip)
		if err != nil {
			errs = append(errs, fmt.Errorf("slip %s: %v", slip.ID, err))
			continue
		}
		if s.ReplaceWithServer(slip.ID, saved) {
			synced++
			continue
		}

		// Removed locally while the write was in flight.
		if err := s.remote.DeleteParlay(ctx, saved.ID); err != nil {
			s.mu.Lock()
			s.removed[saved.ID] = true
			s.persistLocked()
			s.mu.Unlock()
			errs = append(errs, fmt.Errorf("slip %s: %v", saved.ID, err))
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		s.reporter.Report("parlayService.SyncLocal", err)
	}
	return synced, err
}

// ReplaceWithServer swaps a local slip for its server copy, keeping its position.
func (s *Store) ReplaceWithServer(localID string, server models.Slip) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(localID)
	if idx < 0 {
		return false
	}
	local := s.slips[idx]
	server = overlay(server, local)
	s.slips[idx] = server
	s.persistLocked()
	return true
}

func (s *Store) indexLocked(id string) int {
	for i, slip := range s.slips {
		if slip.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) persistLocked() {
	if s.mirror == nil {
		return
	}
	state := MirrorState{Slips: s.slips, Removed: s.removedLocked()}
	if err := s.mirror.Save(state); err != nil {
		s.reporter.Report("parlayService.mirror", err)
	}
}

func copySlips(slips []models.Slip) []models.Slip {
	out := make([]models.Slip, len(slips))
	copy(out, slips)
	return out
}
