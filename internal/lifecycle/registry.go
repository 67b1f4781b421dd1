// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

package lifecycle

import (
	"fmt"
	"sort"
	"time"
)

// Registry maps entry ids to their State. It performs no I/O and is not safe
// for concurrent use; the Controller owns it.
type Registry struct {
	states map[string]State
	seq    uint64

	// retired keeps the last generation of removed ids so a re-added entry
	// never reuses a generation an old report may still carry.
	retired map[string]uint64
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		states:  make(map[string]State),
		retired: make(map[string]uint64),
	}
}

// Len returns the number of tracked entries.
func (r *Registry) Len() int {
	return len(r.states)
}

// Get returns the state for id.
func (r *Registry) Get(id string) (State, bool) {
	s, ok := r.states[id]
	return s, ok
}

// Ensure returns the state for id, creating an unloaded one on first reference.
func (r *Registry) Ensure(id string, idleTimeout time.Duration) State {
	if s, ok := r.states[id]; ok {
		return s
	}
	r.seq++
	s := State{
		ID:          id,
		Status:      StatusUnloaded,
		IdleTimeout: idleTimeout,
		Generation:  r.retired[id],
		seq:         r.seq,
	}
	delete(r.retired, id)
	r.states[id] = s
	return s
}

// Apply runs a transition on id. On error the stored state is unchanged and the
// current state is returned with the error.
func (r *Registry) Apply(id string, transition func(State) (State, error)) (State, error) {
	cur, ok := r.states[id]
	if !ok {
		return State{ID: id, Status: StatusUnloaded}, fmt.Errorf("%w: %q is not registered", ErrUnknownEntry, id)
	}
	next, err := transition(cur)
	if err != nil {
		return cur, err
	}
	next.ID = cur.ID
	next.seq = cur.seq
	r.states[id] = next
	return next, nil
}

// Update replaces the state of id with fn(state). It is for transitions that
// cannot fail. Missing ids are ignored.
func (r *Registry) Update(id string, fn func(State) State) (State, bool) {
	cur, ok := r.states[id]
	if !ok {
		return State{}, false
	}
	next := fn(cur)
	next.ID = cur.ID
	next.seq = cur.seq
	r.states[id] = next
	return next, true
}

// SetIdleTimeout updates the resolved idle timeout of id.
func (r *Registry) SetIdleTimeout(id string, d time.Duration) {
	r.Update(id, func(s State) State {
		s.IdleTimeout = d
		return s
	})
}

// Remove discards the state of id. Its generation is remembered.
func (r *Registry) Remove(id string) {
	s, ok := r.states[id]
	if !ok {
		return
	}
	r.retired[id] = s.Generation
	delete(r.states, id)
}

// States returns a copy of every state in registration order.
func (r *Registry) States() []State {
	out := make([]State, 0, len(r.states))
	for _, s := range r.states {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}
