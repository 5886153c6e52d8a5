package state

import (
	"errors"
	"sort"
	"sync"

	"github.com/fekuna/omnipos-pharmacy/internal/logger"
	"github.com/fekuna/omnipos-pharmacy/internal/metrics"
	"github.com/fekuna/omnipos-pharmacy/internal/model"
	"go.uber.org/zap"
)

// Wildcard is the only key sent to listeners after undo or redo: a full
// snapshot swap does not say which parts of the state changed.
const Wildcard = "*"

const (
	KeyPage     = "currentPage"
	KeyProducts = "products"
	KeySales    = "sales"
	KeySettings = "settings"
)

type Change struct {
	Keys []string
}

// Touches reports whether key changed, treating Wildcard as every key.
func (c Change) Touches(key string) bool {
	for _, k := range c.Keys {
		if k == key || k == Wildcard {
			return true
		}
	}
	return false
}

// Listener receives a private copy of the state after a change.
type Listener func(change Change, st *model.AppState)

// Store is the single owner of the live AppState. It is created by the
// composition root and handed to every use case that reads or mutates state.
type Store struct {
	mu        sync.Mutex
	live      *model.AppState
	history   *History
	listeners map[int]Listener
	nextID    int
	logger    logger.ZapLogger
}

func NewStore(initial *model.AppState, maxLength int, log logger.ZapLogger) *Store {
	if initial == nil {
		initial = model.NewAppState()
	}
	return &Store{
		live:      initial.Clone(),
		history:   NewHistory(maxLength),
		listeners: map[int]Listener{},
		logger:    log,
	}
}

// Snapshot returns a deep copy of the live state.
func (s *Store) Snapshot() *model.AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live.Clone()
}

// View runs fn against the live state under the store lock. fn must not
// retain or modify st.
func (s *Store) View(fn func(st *model.AppState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.live)
}

func (s *Store) saveLocked() error {
	if err := s.history.Push(s.live); err != nil {
		s.logger.Warn("history snapshot skipped", zap.Error(err))
		return err
	}
	s.observeDepth()
	return nil
}

// Update snapshots the live state, then applies fn to a working copy. The
// copy replaces the live state only if fn succeeds, so a failing mutation
// leaves both state and history untouched.
func (s *Store) Update(fn func(st *model.AppState) error, keys ...string) error {
	return s.mutate(fn, true, keys)
}

// Apply mutates like Update but records no history. It is meant for data
// refreshes that are not user actions, such as reloading from the gateway.
func (s *Store) Apply(fn func(st *model.AppState) error, keys ...string) error {
	return s.mutate(fn, false, keys)
}

func (s *Store) mutate(fn func(st *model.AppState) error, record bool, keys []string) error {
	s.mu.Lock()
	working := s.live.Clone()
	if err := fn(working); err != nil {
		s.mu.Unlock()
		return err
	}
	if record {
		_ = s.saveLocked()
	}
	s.live = working
	notify, st := s.listenersLocked(), s.live.Clone()
	s.mu.Unlock()

	s.dispatch(notify, Change{Keys: keys}, st)
	return nil
}

// Undo restores the previous snapshot. It returns false when there is
// nothing to undo or the snapshot could not be restored; the live state is
// unchanged in both cases.
func (s *Store) Undo() bool {
	return s.travel(s.history.Undo, "undo")
}

func (s *Store) Redo() bool {
	return s.travel(s.history.Redo, "redo")
}

func (s *Store) travel(step func(*model.AppState) (*model.AppState, error), op string) bool {
	s.mu.Lock()
	next, err := step(s.live)
	if err != nil {
		s.mu.Unlock()
		if errors.Is(err, ErrCorruptSnapshot) {
			s.logger.Error("discarded unusable snapshot", zap.String("op", op), zap.Error(err))
		} else {
			s.logger.Debug("history step is a no-op", zap.String("op", op), zap.Error(err))
		}
		return false
	}
	s.live = next
	s.observeDepth()
	notify, st := s.listenersLocked(), s.live.Clone()
	s.mu.Unlock()

	s.dispatch(notify, Change{Keys: []string{Wildcard}}, st)
	return true
}

func (s *Store) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanUndo()
}

func (s *Store) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanRedo()
}

// Depth reports the number of undo and redo entries.
func (s *Store) Depth() (past, future int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Depth()
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) listenersLocked() []Listener {
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]Listener, len(ids))
	for i, id := range ids {
		out[i] = s.listeners[id]
	}
	return out
}

// dispatch runs outside the lock so listeners may read the store.
func (s *Store) dispatch(ls []Listener, change Change, st *model.AppState) {
	for _, l := range ls {
		l(change, st.Clone())
	}
}

func (s *Store) observeDepth() {
	past, future := s.history.Depth()
	metrics.HistoryDepth.WithLabelValues("past").Set(float64(past))
	metrics.HistoryDepth.WithLabelValues("future").Set(float64(future))
}
