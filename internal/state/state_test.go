package state

import (
	"errors"
	"fmt"
	"testing"

	"github.com/fekuna/omnipos-pharmacy/internal/logger"
	"github.com/fekuna/omnipos-pharmacy/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withPage(page string) *model.AppState {
	st := model.NewAppState()
	st.CurrentPage = page
	return st
}

func TestHistoryBoundEvictsOldestFirst(t *testing.T) {
	h := NewHistory(50)
	for i := 0; i < 60; i++ {
		require.NoError(t, h.Push(withPage(fmt.Sprintf("p%d", i))))
	}
	past, _ := h.Depth()
	assert.Equal(t, 50, past)

	// Unwinding everything ends at the oldest surviving entry, p10.
	current := withPage("live")
	var last *model.AppState
	for h.CanUndo() {
		var err error
		last, err = h.Undo(current)
		require.NoError(t, err)
		current = last
	}
	assert.Equal(t, "p10", last.CurrentPage)
}

func TestHistoryDefaultsMaxLength(t *testing.T) {
	assert.Equal(t, DefaultMaxLength, NewHistory(0).MaxLength())
}

func TestHistoryPushClearsFuture(t *testing.T) {
	h := NewHistory(5)
	require.NoError(t, h.Push(withPage("a")))
	_, err := h.Undo(withPage("b"))
	require.NoError(t, err)
	assert.True(t, h.CanRedo())

	require.NoError(t, h.Push(withPage("c")))
	assert.False(t, h.CanRedo())
}

func TestHistoryEmptyStacks(t *testing.T) {
	h := NewHistory(5)
	_, err := h.Undo(withPage("x"))
	assert.ErrorIs(t, err, ErrNothingToUndo)
	_, err = h.Redo(withPage("x"))
	assert.ErrorIs(t, err, ErrNothingToRedo)
	assert.ErrorIs(t, h.Push(nil), ErrNilState)
}

func TestHistorySnapshotsAreIndependent(t *testing.T) {
	h := NewHistory(5)
	live := withPage("inventory")
	live.Products = []model.Product{{ID: "p1", QuantityInStock: 5}}
	require.NoError(t, h.Push(live))

	live.Products[0].QuantityInStock = 0
	live.CurrentPage = "sales"

	restored, err := h.Undo(live)
	require.NoError(t, err)
	assert.Equal(t, 5, restored.Products[0].QuantityInStock)
	assert.Equal(t, "inventory", restored.CurrentPage)
}

func TestHistoryCorruptSnapshotIsDiscarded(t *testing.T) {
	h := NewHistory(5)
	require.NoError(t, h.Push(withPage("good")))
	bad := withPage("stale")
	bad.SchemaVersion = model.StateSchemaVersion + 1
	require.NoError(t, h.Push(bad))

	_, err := h.Undo(withPage("live"))
	assert.ErrorIs(t, err, ErrCorruptSnapshot)
	assert.False(t, h.CanRedo(), "live state must not be moved to redo on failure")

	restored, err := h.Undo(withPage("live"))
	require.NoError(t, err)
	assert.Equal(t, "good", restored.CurrentPage)
}

func newStore() *Store {
	return NewStore(withPage("dashboard"), 50, logger.NewNop())
}

func setPage(page string) func(*model.AppState) error {
	return func(st *model.AppState) error {
		st.CurrentPage = page
		return nil
	}
}

func TestStoreUndoRedoRoundTrip(t *testing.T) {
	s := newStore()
	initial := s.Snapshot()

	const n = 7
	for i := 0; i < n; i++ {
		require.NoError(t, s.Update(func(st *model.AppState) error {
			st.CurrentPage = fmt.Sprintf("page-%d", i)
			st.Products = append(st.Products, model.Product{ID: fmt.Sprint(i), QuantityInStock: i})
			return nil
		}, KeyPage, KeyProducts))
	}
	final := s.Snapshot()

	for i := 0; i < n; i++ {
		require.True(t, s.Undo())
	}
	assert.Equal(t, initial, s.Snapshot())
	assert.False(t, s.CanUndo())
	assert.False(t, s.Undo())

	for i := 0; i < n; i++ {
		require.True(t, s.Redo())
	}
	assert.Equal(t, final, s.Snapshot())
	assert.False(t, s.CanRedo())
}

func TestStoreFailedUpdateLeavesStateAndHistory(t *testing.T) {
	s := newStore()
	boom := errors.New("boom")

	err := s.Update(func(st *model.AppState) error {
		st.CurrentPage = "half-done"
		return boom
	}, KeyPage)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "dashboard", s.Snapshot().CurrentPage)
	assert.False(t, s.CanUndo())
}

func TestStoreApplyRecordsNoHistory(t *testing.T) {
	s := newStore()
	require.NoError(t, s.Apply(setPage("reports"), KeyPage))
	assert.Equal(t, "reports", s.Snapshot().CurrentPage)
	assert.False(t, s.CanUndo())
}

func TestStoreListenersGetKeysThenWildcard(t *testing.T) {
	s := newStore()
	var changes []Change
	var pages []string
	unsubscribe := s.Subscribe(func(c Change, st *model.AppState) {
		changes = append(changes, c)
		pages = append(pages, st.CurrentPage)
		st.CurrentPage = "mutated by listener"
	})

	require.NoError(t, s.Update(setPage("sales"), KeyPage))
	require.True(t, s.Undo())
	require.True(t, s.Redo())

	require.Len(t, changes, 3)
	assert.Equal(t, []string{KeyPage}, changes[0].Keys)
	assert.True(t, changes[0].Touches(KeyPage))
	assert.False(t, changes[0].Touches(KeyProducts))
	assert.Equal(t, []string{Wildcard}, changes[1].Keys)
	assert.True(t, changes[1].Touches(KeyProducts))
	assert.Equal(t, []string{"sales", "dashboard", "sales"}, pages)
	assert.Equal(t, "sales", s.Snapshot().CurrentPage, "listeners work on copies")

	unsubscribe()
	require.NoError(t, s.Update(setPage("settings"), KeyPage))
	assert.Len(t, changes, 3)
}

func TestStoreSnapshotIsACopy(t *testing.T) {
	s := newStore()
	snap := s.Snapshot()
	snap.CurrentPage = "elsewhere"
	assert.Equal(t, "dashboard", s.Snapshot().CurrentPage)
}

func TestStoreHistoryIsBounded(t *testing.T) {
	s := NewStore(nil, 3, logger.NewNop())
	for i := 0; i < 10; i++ {
		require.NoError(t, s.Update(setPage(fmt.Sprint(i)), KeyPage))
	}
	past, future := s.Depth()
	assert.Equal(t, 3, past)
	assert.Equal(t, 0, future)
}
