// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

package preferences

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/framedeck/internal/logging"
	"github.com/tomtom215/framedeck/internal/metrics"
)

// ErrPreferenceNotFound is returned when a user has no stored preferences.
var ErrPreferenceNotFound = errors.New("preferences not found")

// AnonymousUser keys preferences when authentication is disabled.
const AnonymousUser = "anonymous"

const keyPrefix = "pref:"

// Preferences are the durable per-user settings.
type Preferences struct {
	UserID       string    `json:"user_id"`
	LastActiveID string    `json:"last_active_id,omitempty" validate:"omitempty,entryid"`
	Viewport     string    `json:"viewport,omitempty" validate:"omitempty,oneof=desktop mobile"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Store reads and writes preferences.
type Store interface {
	Get(ctx context.Context, userID string) (*Preferences, error)
	Put(ctx context.Context, p *Preferences) error
	SetLastActive(ctx context.Context, userID, entryID string) error
	SetViewport(ctx context.Context, userID, mode string) error
	Close() error
}

// BadgerStore implements Store on BadgerDB.
type BadgerStore struct {
	db  *badger.DB
	now func() time.Time
}

// Open opens (or creates) the store at path. An empty path opens an
// in-memory database, which is what tests and throwaway deployments use.
func Open(path string, syncWrites bool) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts = opts.WithSyncWrites(syncWrites).WithLogger(badgerLogger{})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open preference store: %w", err)
	}
	return &BadgerStore{db: db, now: time.Now}, nil
}

// Get returns the preferences of userID.
func (s *BadgerStore) Get(_ context.Context, userID string) (*Preferences, error) {
	var p Preferences
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(userID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrPreferenceNotFound
		}
		if err != nil {
			return fmt.Errorf("get preferences: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &p)
		})
	})
	if !errors.Is(err, ErrPreferenceNotFound) {
		metrics.RecordPreferenceOperation("get", err)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Put replaces the stored preferences of p.UserID.
func (s *BadgerStore) Put(_ context.Context, p *Preferences) error {
	if p.UserID == "" {
		return errors.New("preferences: empty user id")
	}
	p.UpdatedAt = s.now().UTC()
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(p.UserID), data)
	})
	metrics.RecordPreferenceOperation("put", err)
	if err != nil {
		return fmt.Errorf("put preferences: %w", err)
	}
	return nil
}

// Update applies fn to the user's preferences inside one transaction,
// starting from an empty record when none exists.
func (s *BadgerStore) Update(_ context.Context, userID string, fn func(*Preferences)) error {
	if userID == "" {
		return errors.New("preferences: empty user id")
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		p := Preferences{UserID: userID}
		item, err := txn.Get(key(userID))
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
		case err != nil:
			return err
		default:
			if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &p) }); err != nil {
				return err
			}
		}
		fn(&p)
		p.UserID = userID
		p.UpdatedAt = s.now().UTC()
		data, err := json.Marshal(&p)
		if err != nil {
			return err
		}
		return txn.Set(key(userID), data)
	})
	metrics.RecordPreferenceOperation("update", err)
	if err != nil {
		return fmt.Errorf("update preferences: %w", err)
	}
	return nil
}

// SetLastActive records entryID as the user's last active entry.
func (s *BadgerStore) SetLastActive(ctx context.Context, userID, entryID string) error {
	return s.Update(ctx, userID, func(p *Preferences) { p.LastActiveID = entryID })
}

// SetViewport records the user's preferred viewport mode.
func (s *BadgerStore) SetViewport(ctx context.Context, userID, mode string) error {
	return s.Update(ctx, userID, func(p *Preferences) { p.Viewport = mode })
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func key(userID string) []byte {
	return []byte(keyPrefix + userID)
}

// badgerLogger routes badger's internal logging through zerolog. Info and
// debug chatter is demoted to debug.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	l := logging.WithComponent("badger")
	l.Error().Msgf(format, args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	l := logging.WithComponent("badger")
	l.Warn().Msgf(format, args...)
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	l := logging.WithComponent("badger")
	l.Debug().Msgf(format, args...)
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	l := logging.WithComponent("badger")
	l.Debug().Msgf(format, args...)
}
