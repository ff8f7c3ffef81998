// Package state holds the client's confirmed view of the remote
// collection: the ordered todos and the last stats snapshot.
//
// Nothing here talks to the network. Callers apply only results that a
// successful server response returned; a failed call applies nothing,
// so the state always reflects the last confirmed values. All access
// happens from the single event-processing context, so there is no
// locking.
package state

import "todoq/internal/model"

// State is the in-memory mirror of the server-side collection.
type State struct {
	todos    []model.Todo
	stats    model.Stats
	hasStats bool

	// Per-id sequence numbers guard against out-of-order responses
	// when the user fires overlapping mutations on the same todo. A
	// response older than the last applied one for its id is dropped.
	issued  map[int64]uint64
	applied map[int64]uint64
}

// New returns an empty state.
func New() *State {
	return &State{
		issued:  make(map[int64]uint64),
		applied: make(map[int64]uint64),
	}
}

// Begin reserves the next sequence number for a mutation targeting id.
// Call it before issuing the request and hand the number back to the
// matching Apply method with the response.
func (s *State) Begin(id int64) uint64 {
	s.issued[id]++
	return s.issued[id]
}

// ReplaceAll swaps in a full listing in server order.
func (s *State) ReplaceAll(todos []model.Todo) {
	s.todos = append(s.todos[:0:0], todos...)
}

// ApplyCreate appends a server-confirmed new todo.
func (s *State) ApplyCreate(todo model.Todo) {
	s.todos = append(s.todos, todo)
}

// ApplyUpdate replaces the todo with a matching id in place, keeping
// collection order. It reports whether the result was applied: stale
// responses (older sequence) and unknown ids are dropped.
func (s *State) ApplyUpdate(seq uint64, todo model.Todo) bool {
	if seq < s.applied[todo.ID] {
		return false
	}
	for i := range s.todos {
		if s.todos[i].ID == todo.ID {
			s.todos[i] = todo
			s.applied[todo.ID] = seq
			return true
		}
	}
	return false
}

// ApplyDelete removes the todo with the given id. Stale responses and
// unknown ids are dropped.
func (s *State) ApplyDelete(seq uint64, id int64) bool {
	if seq < s.applied[id] {
		return false
	}
	for i := range s.todos {
		if s.todos[i].ID == id {
			s.todos = append(s.todos[:i], s.todos[i+1:]...)
			s.applied[id] = seq
			return true
		}
	}
	return false
}

// SetStats records a fresh server-computed snapshot.
func (s *State) SetStats(st model.Stats) {
	s.stats = st
	s.hasStats = true
}

// Stats returns the last confirmed snapshot; ok is false before the
// first successful stats call and after Reset.
func (s *State) Stats() (st model.Stats, ok bool) {
	return s.stats, s.hasStats
}

// Todos returns a copy of the collection in its confirmed order.
func (s *State) Todos() []model.Todo {
	return append([]model.Todo(nil), s.todos...)
}

// Len returns the number of todos.
func (s *State) Len() int { return len(s.todos) }

// Reset wipes everything back to the empty, absent-stats state.
func (s *State) Reset() {
	s.todos = nil
	s.stats = model.Stats{}
	s.hasStats = false
	s.issued = make(map[int64]uint64)
	s.applied = make(map[int64]uint64)
}
