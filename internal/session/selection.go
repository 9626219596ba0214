package session

import (
	"sync"

	"github.com/seureview/content-engine/internal/models"
)

// Selection is one user's product-selection state in the search wizard.
// Exactly one of "single product selected" or "pair chosen for
// comparison" is active at a time.
type Selection struct {
	mu          sync.Mutex
	compareMode bool
	single      *models.ProductOption
	pair        []models.ProductOption
}

// SetCompareMode toggles comparison mode. Switching in either direction
// clears any in-progress comparison pair, so a later selection starts a
// fresh pair.
func (s *Selection) SetCompareMode(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.compareMode = enabled
	s.pair = nil
	if enabled {
		s.single = nil
	}
}

// Select records a product choice. In compare mode it returns the
// completed pair once two products are chosen (and resets for the next
// pair); otherwise it records the single selection.
func (s *Selection) Select(p models.ProductOption) (pair []models.ProductOption, complete bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.compareMode {
		s.single = &p
		return nil, false
	}

	s.pair = append(s.pair, p)
	if len(s.pair) < 2 {
		return nil, false
	}
	pair = s.pair
	s.pair = nil
	return pair, true
}

// Current returns the single selection, if any.
func (s *Selection) Current() *models.ProductOption {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.single
}

// CompareMode reports whether comparison mode is on.
func (s *Selection) CompareMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compareMode
}

// PendingPair returns how many products are waiting in the current pair.
func (s *Selection) PendingPair() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pair)
}

// Selections tracks per-user selection state.
type Selections struct {
	mu    sync.Mutex
	users map[string]*Selection
}

func NewSelections() *Selections {
	return &Selections{users: make(map[string]*Selection)}
}

// ForUser returns the selection state for a user, creating it on first
// use.
func (s *Selections) ForUser(userID string) *Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel, ok := s.users[userID]
	if !ok {
		sel = &Selection{}
		s.users[userID] = sel
	}
	return sel
}
