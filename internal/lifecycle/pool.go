// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

package lifecycle

import (
	"sort"
	"time"
)

// EvictionReason says why the pool manager picked an entry.
type EvictionReason string

const (
	EvictionIdle     EvictionReason = "idle"
	EvictionCapacity EvictionReason = "capacity"
	EvictionRemoved  EvictionReason = "removed"
)

// Eviction is one eviction decision.
type Eviction struct {
	ID     string
	Reason EvictionReason
}

// PoolManager decides which mounted entries must be unloaded.
//
// Idle eviction applies to loaded entries with a positive idle timeout that
// has fully elapsed. When a capacity is set and the pool is still too large,
// the least recently active loaded entries go next, oldest first, ties broken
// by registration order. Loading entries are never evicted for capacity, and
// the active entry is never evicted at all.
type PoolManager struct {
	capacity int
}

// NewPoolManager creates a PoolManager. A capacity of 0 or less means unbounded.
func NewPoolManager(capacity int) *PoolManager {
	if capacity < 0 {
		capacity = 0
	}
	return &PoolManager{capacity: capacity}
}

// Capacity returns the configured bound (0 = unbounded).
func (p *PoolManager) Capacity() int {
	return p.capacity
}

// OverCapacity reports whether a pool of size n exceeds the bound.
func (p *PoolManager) OverCapacity(n int) bool {
	return p.capacity > 0 && n > p.capacity
}

// SelectEvictionCandidates returns the entries to evict at now, idle evictions
// first, each group ordered least recently active first.
func (p *PoolManager) SelectEvictionCandidates(reg *Registry, sel *Selection, now time.Time) []Eviction {
	active := sel.ActiveID()

	var idle, rest []State
	for _, id := range sel.LoadedIDs() {
		if id == active {
			continue
		}
		st, ok := reg.Get(id)
		if !ok || st.Status != StatusLoaded {
			continue
		}
		if st.IdleTimeout > 0 && st.IdleFor(now) >= st.IdleTimeout {
			idle = append(idle, st)
			continue
		}
		rest = append(rest, st)
	}

	sortLeastRecentlyActive(idle)
	out := make([]Eviction, 0, len(idle))
	for _, st := range idle {
		out = append(out, Eviction{ID: st.ID, Reason: EvictionIdle})
	}

	if p.capacity == 0 {
		return out
	}
	excess := sel.Len() - len(idle) - p.capacity
	if excess <= 0 {
		return out
	}

	sortLeastRecentlyActive(rest)
	for _, st := range rest {
		if excess == 0 {
			break
		}
		out = append(out, Eviction{ID: st.ID, Reason: EvictionCapacity})
		excess--
	}
	return out
}

func sortLeastRecentlyActive(states []State) {
	sort.SliceStable(states, func(i, j int) bool {
		if !states[i].LastActivityAt.Equal(states[j].LastActivityAt) {
			return states[i].LastActivityAt.Before(states[j].LastActivityAt)
		}
		return states[i].seq < states[j].seq
	})
}
