// Package state owns the till's in-memory application state and its
// undo/redo history.
//
// History stores full deep copies of AppState rather than inverse
// operations. Each push costs O(size of state), so AppState must stay small:
// current page, product and sale lists, settings.
package state

import (
	"errors"

	"github.com/fekuna/omnipos-pharmacy/internal/model"
)

const DefaultMaxLength = 50

var (
	ErrNilState        = errors.New("state is nil")
	ErrNothingToUndo   = errors.New("nothing to undo")
	ErrNothingToRedo   = errors.New("nothing to redo")
	ErrCorruptSnapshot = errors.New("snapshot is corrupt or from another schema version")
)

// History is a pair of bounded stacks. It is not safe for concurrent use;
// Store serializes access to it.
type History struct {
	past   []*model.AppState
	future []*model.AppState
	max    int
}

func NewHistory(maxLength int) *History {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	return &History{max: maxLength}
}

// Push records a copy of current and invalidates the redo stack. The oldest
// entry is evicted once the past stack exceeds the maximum length.
func (h *History) Push(current *model.AppState) error {
	if current == nil {
		return ErrNilState
	}
	h.past = pushBounded(h.past, current.Clone(), h.max)
	h.future = nil
	return nil
}

// Undo returns the most recent past snapshot and moves current onto the
// redo stack. On error nothing the caller can observe has changed, except
// that a corrupt snapshot is dropped so the next Undo can proceed.
func (h *History) Undo(current *model.AppState) (*model.AppState, error) {
	return h.step(&h.past, &h.future, current, ErrNothingToUndo)
}

func (h *History) Redo(current *model.AppState) (*model.AppState, error) {
	return h.step(&h.future, &h.past, current, ErrNothingToRedo)
}

func (h *History) step(from, to *[]*model.AppState, current *model.AppState, empty error) (*model.AppState, error) {
	if len(*from) == 0 {
		return nil, empty
	}
	if current == nil {
		return nil, ErrNilState
	}

	last := len(*from) - 1
	snap := (*from)[last]
	*from = (*from)[:last]

	if !valid(snap) {
		return nil, ErrCorruptSnapshot
	}

	*to = pushBounded(*to, current.Clone(), h.max)
	return snap.Clone(), nil
}

func (h *History) CanUndo() bool { return len(h.past) > 0 }
func (h *History) CanRedo() bool { return len(h.future) > 0 }

// Depth reports the sizes of the past and future stacks.
func (h *History) Depth() (past, future int) { return len(h.past), len(h.future) }

func (h *History) MaxLength() int { return h.max }

func pushBounded(stack []*model.AppState, s *model.AppState, max int) []*model.AppState {
	stack = append(stack, s)
	if over := len(stack) - max; over > 0 {
		// Copy down so evicted snapshots are released.
		n := copy(stack, stack[over:])
		for i := n; i < len(stack); i++ {
			stack[i] = nil
		}
		stack = stack[:n]
	}
	return stack
}

func valid(s *model.AppState) bool {
	return s != nil && s.SchemaVersion == model.StateSchemaVersion
}
