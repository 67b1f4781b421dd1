// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

package models

import "time"

// URLEntry is one configured external dashboard.
type URLEntry struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Icon      string `json:"icon,omitempty"`
	URL       string `json:"url"`
	MobileURL string `json:"mobile_url,omitempty"`

	// IdleTimeout overrides the catalog default when set. Zero disables
	// automatic unloading for the entry.
	IdleTimeout *time.Duration `json:"-"`
}

// URLGroup is an ordered, named group of entries. Order matters for menus only.
type URLGroup struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Entries []URLEntry `json:"entries"`
}

// Catalog is the immutable set of groups a session works against.
// Entry ids are unique across groups.
type Catalog struct {
	DefaultIdleTimeout time.Duration
	Groups             []URLGroup

	index map[string]URLEntry
	order []string
}

// NewCatalog builds a Catalog and its entry index. When an id repeats, the
// first occurrence wins; loaders are expected to reject duplicates earlier.
func NewCatalog(defaultIdleTimeout time.Duration, groups []URLGroup) *Catalog {
	c := &Catalog{
		DefaultIdleTimeout: defaultIdleTimeout,
		Groups:             groups,
		index:              make(map[string]URLEntry),
	}
	for _, g := range groups {
		for _, e := range g.Entries {
			if _, dup := c.index[e.ID]; dup {
				continue
			}
			c.index[e.ID] = e
			c.order = append(c.order, e.ID)
		}
	}
	return c
}

// EmptyCatalog returns a catalog with no entries.
func EmptyCatalog() *Catalog {
	return NewCatalog(0, nil)
}

// Entry looks up an entry by id.
func (c *Catalog) Entry(id string) (URLEntry, bool) {
	if c == nil {
		return URLEntry{}, false
	}
	e, ok := c.index[id]
	return e, ok
}

// Has reports whether id is configured.
func (c *Catalog) Has(id string) bool {
	_, ok := c.Entry(id)
	return ok
}

// EntryIDs returns every entry id, flattened in group order.
func (c *Catalog) EntryIDs() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// IdleTimeout resolves the effective idle timeout of e.
func (c *Catalog) IdleTimeout(e URLEntry) time.Duration {
	if e.IdleTimeout != nil {
		return *e.IdleTimeout
	}
	if c == nil {
		return 0
	}
	return c.DefaultIdleTimeout
}
