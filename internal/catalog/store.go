// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

package catalog

import (
	"sync"
	"sync/atomic"

	"github.com/tomtom215/framedeck/internal/models"
)

// Subscriber receives every catalog that replaces the current one.
type Subscriber interface {
	SetCatalog(*models.Catalog)
}

// SubscriberFunc adapts a function to Subscriber.
type SubscriberFunc func(*models.Catalog)

// SetCatalog calls f.
func (f SubscriberFunc) SetCatalog(c *models.Catalog) {
	f(c)
}

// Store holds the current catalog. Reads are lock-free.
type Store struct {
	current atomic.Pointer[models.Catalog]

	mu          sync.Mutex
	subscribers []Subscriber
}

// NewStore creates a Store holding initial, or an empty catalog when nil.
func NewStore(initial *models.Catalog) *Store {
	if initial == nil {
		initial = models.EmptyCatalog()
	}
	s := &Store{}
	s.current.Store(initial)
	return s
}

// Current returns the catalog in effect.
func (s *Store) Current() *models.Catalog {
	return s.current.Load()
}

// Subscribe registers sub for future replacements.
func (s *Store) Subscribe(sub Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, sub)
}

// Replace installs c and notifies subscribers in registration order.
// Replacements are serialized so subscribers observe them in order.
func (s *Store) Replace(c *models.Catalog) {
	if c == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Store(c)
	for _, sub := range s.subscribers {
		sub.SetCatalog(c)
	}
}
