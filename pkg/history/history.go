// Package history implements snapshot-based undo and redo.
package history

import "reflect"

// DefaultLimit is the default depth of each stack.
const DefaultLimit = 32

// Engine keeps bounded undo and redo stacks of snapshots of type S.
//
// Snapshots are taken with the capture function and applied with the
// restore function; the engine never looks inside them except to compare
// two for equality. Callers commit before a mutation, so the undo stack
// always holds pre-mutation states.
type Engine[S any] struct {
	capture func() S
	restore func(S)
	equal   func(a, b S) bool
	limit   int

	undo []S
	redo []S
}

// Option configures an Engine.
type Option[S any] func(*Engine[S])

// WithLimit bounds both stacks to n entries (n <= 0 means DefaultLimit).
func WithLimit[S any](n int) Option[S] {
	return func(e *Engine[S]) {
		if n > 0 {
			e.limit = n
		}
	}
}

// WithEqual replaces reflect.DeepEqual as the snapshot comparison.
func WithEqual[S any](eq func(a, b S) bool) Option[S] {
	return func(e *Engine[S]) {
		if eq != nil {
			e.equal = eq
		}
	}
}

// New creates an engine over the given snapshot functions.
func New[S any](capture func() S, restore func(S), opts ...Option[S]) *Engine[S] {
	e := &Engine[S]{
		capture: capture,
		restore: restore,
		equal:   func(a, b S) bool { return reflect.DeepEqual(a, b) },
		limit:   DefaultLimit,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CommitIfChanged pushes the current state onto the undo stack unless it
// equals the most recent entry. A new commit invalidates the redo stack.
// It reports whether a step was recorded.
func (e *Engine[S]) CommitIfChanged() bool {
	if !e.push(e.capture()) {
		return false
	}
	e.redo = nil
	return true
}

func (e *Engine[S]) push(state S) bool {
	if n := len(e.undo); n > 0 && e.equal(e.undo[n-1], state) {
		return false
	}
	e.undo = pushBounded(e.undo, state, e.limit)
	return true
}

// Undo restores the most recent undo entry, saving the current state for
// Redo. It reports false when there is nothing to undo.
func (e *Engine[S]) Undo() bool {
	if len(e.undo) == 0 {
		return false
	}
	e.redo = pushBounded(e.redo, e.capture(), e.limit)
	state := e.undo[len(e.undo)-1]
	e.undo = e.undo[:len(e.undo)-1]
	e.restore(state)
	return true
}

// Redo is the mirror of Undo.
func (e *Engine[S]) Redo() bool {
	if len(e.redo) == 0 {
		return false
	}
	e.push(e.capture())
	state := e.redo[len(e.redo)-1]
	e.redo = e.redo[:len(e.redo)-1]
	e.restore(state)
	return true
}

// CanUndo reports whether Undo would do anything.
func (e *Engine[S]) CanUndo() bool { return len(e.undo) > 0 }

// CanRedo reports whether Redo would do anything.
func (e *Engine[S]) CanRedo() bool { return len(e.redo) > 0 }

// Depths returns the sizes of the undo and redo stacks.
func (e *Engine[S]) Depths() (undo, redo int) {
	return len(e.undo), len(e.redo)
}

// Limit returns the stack bound.
func (e *Engine[S]) Limit() int { return e.limit }

// Reset empties both stacks.
func (e *Engine[S]) Reset() {
	e.undo = nil
	e.redo = nil
}

// pushBounded appends v, dropping the oldest entries beyond limit.
func pushBounded[S any](stack []S, v S, limit int) []S {
	if len(stack) >= limit {
		stack = append(stack[:0:0], stack[len(stack)-limit+1:]...)
	}
	return append(stack, v)
}
