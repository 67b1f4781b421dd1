// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

package lifecycle

// Selection holds the active entry and the pool of mounted entries.
// The pool keeps the order in which entries were mounted.
type Selection struct {
	activeID string
	loaded   []string
	index    map[string]int
}

// NewSelection creates an empty Selection.
func NewSelection() *Selection {
	return &Selection{index: make(map[string]int)}
}

// ActiveID returns the active entry id, or "" when nothing is active.
func (s *Selection) ActiveID() string {
	return s.activeID
}

// IsLoaded reports whether id is in the pool.
func (s *Selection) IsLoaded(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Len returns the pool size.
func (s *Selection) Len() int {
	return len(s.loaded)
}

// LoadedIDs returns a copy of the pool in mount order.
func (s *Selection) LoadedIDs() []string {
	out := make([]string, len(s.loaded))
	copy(out, s.loaded)
	return out
}

// View returns an immutable copy for projections.
func (s *Selection) View() SelectionView {
	return SelectionView{ActiveID: s.activeID, LoadedIDs: s.LoadedIDs()}
}

func (s *Selection) add(id string) {
	if _, ok := s.index[id]; ok {
		return
	}
	s.index[id] = len(s.loaded)
	s.loaded = append(s.loaded, id)
}

func (s *Selection) remove(id string) {
	i, ok := s.index[id]
	if !ok {
		return
	}
	s.loaded = append(s.loaded[:i], s.loaded[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.loaded); j++ {
		s.index[s.loaded[j]] = j
	}
	if s.activeID == id {
		s.activeID = ""
	}
}

// setActive makes id active. Callers add id to the pool first.
func (s *Selection) setActive(id string) {
	s.activeID = id
}

func (s *Selection) clearActive() {
	s.activeID = ""
}

// SelectionView is a read-only snapshot of a Selection.
type SelectionView struct {
	ActiveID  string   `json:"active_id,omitempty"`
	LoadedIDs []string `json:"loaded_ids"`
}

// Contains reports whether id is in the pool.
func (v SelectionView) Contains(id string) bool {
	for _, l := range v.LoadedIDs {
		if l == id {
			return true
		}
	}
	return false
}
