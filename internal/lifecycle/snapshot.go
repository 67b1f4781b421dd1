// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

package lifecycle

import "time"

// EntryView is the projection of one catalog entry consumed by menu and
// content renderers.
type EntryView struct {
	ID             string     `json:"id"`
	Status         Status     `json:"status"`
	Error          string     `json:"error,omitempty"`
	RetryCount     int        `json:"retry_count"`
	Generation     uint64     `json:"generation"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`
	IdleTimeoutMs  int64      `json:"idle_timeout_ms"`
	Visible        bool       `json:"visible"`
	Mounted        bool       `json:"mounted"`
	// Address is set for mounted entries: the address they are mounted at.
	Address string `json:"address,omitempty"`
}

// Snapshot is a consistent projection of a Controller.
type Snapshot struct {
	SessionID    string       `json:"session_id,omitempty"`
	Viewport     ViewportMode `json:"viewport"`
	ActiveID     string       `json:"active_id,omitempty"`
	LoadedIDs    []string     `json:"loaded_ids"`
	PoolCapacity int          `json:"pool_capacity"`
	Entries      []EntryView  `json:"entries"`
	TakenAt      time.Time    `json:"taken_at"`

	// Seq is the Seq of the last intent reflected in the snapshot.
	Seq uint64 `json:"seq"`
}

// Entry returns the view of id.
func (s Snapshot) Entry(id string) (EntryView, bool) {
	for _, e := range s.Entries {
		if e.ID == id {
			return e, true
		}
	}
	return EntryView{}, false
}

// Snapshot projects every catalog entry in catalog order. Entries never
// referenced report unloaded.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	view := c.selection.View()
	snap := Snapshot{
		SessionID:    c.sessionID,
		Viewport:     c.viewport,
		ActiveID:     view.ActiveID,
		LoadedIDs:    view.LoadedIDs,
		PoolCapacity: c.pool.Capacity(),
		TakenAt:      c.clock.Now(),
		Seq:          c.intentSeq,
	}

	ids := c.catalog.EntryIDs()
	snap.Entries = make([]EntryView, 0, len(ids))
	for _, id := range ids {
		entry, _ := c.catalog.Entry(id)
		ev := EntryView{
			ID:            id,
			Status:        StatusUnloaded,
			IdleTimeoutMs: c.catalog.IdleTimeout(entry).Milliseconds(),
			Visible:       IsVisible(id, view, c.viewport),
			Mounted:       view.Contains(id),
		}
		if st, ok := c.registry.Get(id); ok {
			ev.Status = st.Status
			ev.Error = st.Error
			ev.RetryCount = st.RetryCount
			ev.Generation = st.Generation
			if !st.LastActivityAt.IsZero() {
				t := st.LastActivityAt
				ev.LastActivityAt = &t
			}
		}
		if ev.Mounted {
			ev.Address = ResolveAddress(entry, c.viewport)
		}
		snap.Entries = append(snap.Entries, ev)
	}
	return snap
}
