// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/knadh/koanf/providers/file"
	"github.com/rs/zerolog"

	"github.com/tomtom215/framedeck/internal/logging"
	"github.com/tomtom215/framedeck/internal/metrics"
)

// DefaultDebounce is how long the watcher waits after the last change
// before reloading.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reloads the catalog file into a Store whenever it changes.
// It implements suture.Service.
type Watcher struct {
	path     string
	store    *Store
	logger   zerolog.Logger
	debounce time.Duration

	reload chan struct{}
}

// NewWatcher creates a Watcher for path feeding store.
func NewWatcher(path string, store *Store) *Watcher {
	return &Watcher{
		path:     path,
		store:    store,
		logger:   logging.WithComponent("catalog").With().Str("path", path).Logger(),
		debounce: DefaultDebounce,
		reload:   make(chan struct{}, 1),
	}
}

// SetDebounce changes the quiet period. It must be called before Serve.
func (w *Watcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.debounce = d
	}
}

// Reload loads the file once. On failure the current catalog is kept.
func (w *Watcher) Reload() error {
	c, err := Load(w.path)
	if err != nil {
		metrics.RecordCatalogReload(0, err)
		w.logger.Error().Err(err).Msg("Catalog reload rejected, keeping previous catalog")
		return err
	}
	metrics.RecordCatalogReload(c.Len(), nil)
	w.store.Replace(c)
	w.logger.Info().Int("entries", c.Len()).Int("groups", len(c.Groups)).Msg("Catalog reloaded")
	return nil
}

// Serve watches the file until ctx is done. Changes are reloaded once the
// file has been quiet for the debounce period, so an editor that truncates
// and rewrites produces a single reload. A watch error ends Serve so the
// supervisor restarts it with a fresh watch.
func (w *Watcher) Serve(ctx context.Context) error {
	provider := file.Provider(w.path)
	watchErr := make(chan error, 1)

	err := provider.Watch(func(_ interface{}, err error) {
		if err != nil {
			select {
			case watchErr <- err:
			default:
			}
			return
		}
		w.Trigger()
	})
	if err != nil {
		return fmt.Errorf("watch catalog %s: %w", w.path, err)
	}
	defer func() {
		if err := provider.Unwatch(); err != nil {
			w.logger.Debug().Err(err).Msg("Unwatch failed")
		}
	}()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	w.logger.Info().Dur("debounce", w.debounce).Msg("Watching catalog for changes")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-watchErr:
			return fmt.Errorf("catalog watch: %w", err)
		case <-w.reload:
			timer.Reset(w.debounce)
		case <-timer.C:
			_ = w.Reload() //nolint:errcheck // logged and counted by Reload
		}
	}
}

// Trigger schedules a reload without blocking.
func (w *Watcher) Trigger() {
	select {
	case w.reload <- struct{}{}:
	default:
	}
}

// String implements fmt.Stringer for suture logging.
func (w *Watcher) String() string {
	return "catalog-watcher"
}
