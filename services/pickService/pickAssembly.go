package pickService

import (
	"parlayTracker/models"
	"sync"
)

// Assembly holds the picks of the parlay being built, in the order they were added.
type Assembly struct {
	mu    sync.RWMutex
	picks []models.Pick
}

func NewAssembly() *Assembly {
	return &Assembly{}
}

// Add appends the pick, or replaces an existing pick for the same game in place.
func (a *Assembly) Add(pick models.Pick) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for idx, p := range a.picks {
		if p.GameID == pick.GameID {
			a.picks[idx] = pick
			return
		}
	}
	a.picks = append(a.picks, pick)
}

func (a *Assembly) Remove(gameID int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	kept := a.picks[:0]
	for _, p := range a.picks {
		if p.GameID != gameID {
			kept = append(kept, p)
		}
	}
	a.picks = kept
}

func (a *Assembly) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.picks = nil
}

// Picks returns a copy of the current picks.
func (a *Assembly) Picks() []models.Pick {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]models.Pick, len(a.picks))
	copy(out, a.picks)
	return out
}

func (a *Assembly) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.picks)
}

// Take returns the current picks and clears the set in one step.
func (a *Assembly) Take() []models.Pick {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := a.picks
	a.picks = nil
	return out
}
