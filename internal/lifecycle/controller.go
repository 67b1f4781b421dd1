// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

package lifecycle

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/framedeck/internal/logging"
	"github.com/tomtom215/framedeck/internal/metrics"
	"github.com/tomtom215/framedeck/internal/models"
)

// Config configures a Controller.
type Config struct {
	// SessionID is attached to log lines.
	SessionID string

	// PoolCapacity bounds the number of mounted entries. 0 means unbounded.
	PoolCapacity int

	// Viewport selects desktop or mobile addresses. Defaults to desktop.
	Viewport ViewportMode

	// InitialActiveID is selected on construction when it names a catalog
	// entry (a deep link or the user's last visited entry). Unknown ids are
	// ignored.
	InitialActiveID string

	// Strict makes references to ids outside the catalog panic instead of
	// returning ErrUnknownEntry. Used in development builds.
	Strict bool

	// Clock defaults to SystemClock.
	Clock Clock

	// Sink defaults to DiscardIntents.
	Sink IntentSink
}

// Controller owns the Registry and Selection of one dashboard session and
// serializes every operation on them. All methods are safe for concurrent use.
type Controller struct {
	mu sync.Mutex

	catalog   *models.Catalog
	registry  *Registry
	selection *Selection
	pool      *PoolManager
	clock     Clock
	sink      IntentSink
	viewport  ViewportMode
	strict    bool
	sessionID string

	// loadStarted records when the current attempt of each loading entry began.
	loadStarted map[string]time.Time

	// intentSeq is the Seq of the last emitted intent.
	intentSeq uint64

	logger zerolog.Logger
}

// NewController creates a Controller over catalog.
func NewController(catalog *models.Catalog, cfg Config) *Controller {
	if catalog == nil {
		catalog = models.EmptyCatalog()
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Sink == nil {
		cfg.Sink = DiscardIntents
	}
	if cfg.Viewport == "" {
		cfg.Viewport = ViewportDesktop
	}

	c := &Controller{
		catalog:     catalog,
		registry:    NewRegistry(),
		selection:   NewSelection(),
		pool:        NewPoolManager(cfg.PoolCapacity),
		clock:       cfg.Clock,
		sink:        cfg.Sink,
		viewport:    cfg.Viewport,
		strict:      cfg.Strict,
		sessionID:   cfg.SessionID,
		loadStarted: make(map[string]time.Time),
		logger:      logging.WithComponent("lifecycle").With().Str("session_id", cfg.SessionID).Logger(),
	}

	if cfg.InitialActiveID != "" && catalog.Has(cfg.InitialActiveID) {
		c.mu.Lock()
		c.selectLocked(cfg.InitialActiveID)
		c.mu.Unlock()
	}
	return c
}

// SelectURL makes id the active entry, loading it first when it is unloaded
// or failed. The previous active entry is hidden, not unmounted.
func (c *Controller) SelectURL(id string) (State, error) {
	return c.guarded(OpSelect, id, c.strict, c.selectURLLocked)
}

func (c *Controller) selectURLLocked(id string) (State, error) {
	return c.selectLocked(id), nil
}

func (c *Controller) selectLocked(id string) State {
	prev := c.selection.ActiveID()
	st := c.ensureLocked(id)

	mounted := false
	if st.Status == StatusUnloaded || st.Status == StatusError {
		if _, err := c.loadLocked(id); err == nil {
			mounted = true
		}
	}

	c.selection.setActive(id)
	st, _ = c.registry.Update(id, func(s State) State {
		return ApplySelected(s, c.clock.Now())
	})
	recordTransition(OpSelect, nil)

	var intents []Intent
	if prev != "" && prev != id && c.selection.IsLoaded(prev) {
		intents = append(intents, Intent{Kind: IntentHide, ID: prev})
	}
	if prev != id || mounted {
		intents = append(intents, Intent{Kind: IntentShow, ID: id})
	}
	c.emitLocked(intents...)

	c.enforceCapacityLocked()

	c.logger.Debug().Str("entry_id", id).Str("previous_id", prev).Str("status", string(st.Status)).Msg("Entry selected")
	st, _ = c.registry.Get(id)
	return st
}

// LoadURL mounts id when it is unloaded or failed. Loading and loaded entries
// are left alone.
func (c *Controller) LoadURL(id string) (State, error) {
	return c.guarded(OpLoadRequested, id, c.strict, c.loadURLLocked)
}

func (c *Controller) loadURLLocked(id string) (State, error) {
	st := c.ensureLocked(id)
	if st.Status == StatusLoading || st.Status == StatusLoaded {
		return st, nil
	}

	st, err := c.loadLocked(id)
	if err != nil {
		return st, err
	}
	c.enforceCapacityLocked()
	st, _ = c.registry.Get(id)
	return st, nil
}

// loadLocked applies the load request, adds id to the pool and emits the mount.
func (c *Controller) loadLocked(id string) (State, error) {
	st, err := c.registry.Apply(id, ApplyLoadRequested)
	recordTransition(OpLoadRequested, err)
	if err != nil {
		return st, err
	}
	c.mountLocked(st)
	return st, nil
}

// ReportLoaded records a successful load. Reports for untracked entries,
// entries that are no longer loading or superseded generations are ignored and
// applied is false. Generation 0 means the current attempt.
func (c *Controller) ReportLoaded(id string, generation uint64) (st State, applied bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur, ok := c.currentAttemptLocked(id, generation)
	if !ok {
		return cur, false
	}

	now := c.clock.Now()
	st, err := c.registry.Apply(id, func(s State) (State, error) {
		return ApplyLoadSucceeded(s, now)
	})
	recordTransition(OpLoadSucceeded, err)
	if err != nil {
		return st, false
	}
	c.observeLoadLocked(id, "success", now)
	c.logger.Debug().Str("entry_id", id).Uint64("generation", st.Generation).Msg("Entry loaded")
	return st, true
}

// ReportLoadError records a failed load. It never retries. Stale reports are
// ignored as in ReportLoaded.
func (c *Controller) ReportLoadError(id string, generation uint64, message string) (st State, applied bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur, ok := c.currentAttemptLocked(id, generation)
	if !ok {
		return cur, false
	}

	st, err := c.registry.Apply(id, func(s State) (State, error) {
		return ApplyLoadFailed(s, message)
	})
	recordTransition(OpLoadFailed, err)
	if err != nil {
		return st, false
	}
	c.observeLoadLocked(id, "error", c.clock.Now())
	c.logger.Info().Str("entry_id", id).Uint64("generation", st.Generation).Str("error", st.Error).Msg("Entry failed to load")
	return st, true
}

// currentAttemptLocked reports whether a load report for id and generation
// refers to the attempt in flight. Stale reports are counted and logged.
func (c *Controller) currentAttemptLocked(id string, generation uint64) (State, bool) {
	st, ok := c.registry.Get(id)
	switch {
	case !ok:
		c.staleLocked(id, generation, "untracked")
		return State{ID: id, Status: StatusUnloaded}, false
	case st.Status != StatusLoading:
		c.staleLocked(id, generation, "not_loading")
		return st, false
	case generation != 0 && generation != st.Generation:
		c.staleLocked(id, generation, "superseded")
		return st, false
	}
	return st, true
}

func (c *Controller) staleLocked(id string, generation uint64, reason string) {
	metrics.LifecycleStaleReports.WithLabelValues(reason).Inc()
	c.logger.Debug().Str("entry_id", id).Uint64("generation", generation).Str("reason", reason).Msg("Ignoring stale load report")
}

// RetryURL re-attempts a failed load.
func (c *Controller) RetryURL(id string) (State, error) {
	return c.guarded(OpRetry, id, c.strict, c.retryURLLocked)
}

func (c *Controller) retryURLLocked(id string) (State, error) {
	c.ensureLocked(id)
	st, err := c.registry.Apply(id, ApplyRetry)
	recordTransition(OpRetry, err)
	if err != nil {
		return st, err
	}
	c.mountLocked(st)
	c.logger.Debug().Str("entry_id", id).Int("retry_count", st.RetryCount).Msg("Retrying entry")
	return st, nil
}

// UnloadURL unmounts id. Unloading the active entry is rejected; use
// ForceUnloadURL or select another entry first. A load in flight is canceled
// and its late report will be ignored.
func (c *Controller) UnloadURL(id string) (State, error) {
	return c.guarded(OpUnload, id, c.strict, c.unloadURLLocked)
}

func (c *Controller) unloadURLLocked(id string) (State, error) {
	st := c.ensureLocked(id)
	if id == c.selection.ActiveID() {
		err := &PreconditionViolation{Op: OpUnload, ID: id, Status: st.Status, Reason: "entry is active"}
		recordTransition(OpUnload, err)
		return st, err
	}
	return c.unloadLocked(id)
}

// ForceUnloadURL unmounts id even when it is active, clearing the active id.
func (c *Controller) ForceUnloadURL(id string) (State, error) {
	return c.guarded(OpUnload, id, c.strict, c.forceUnloadURLLocked)
}

func (c *Controller) forceUnloadURLLocked(id string) (State, error) {
	c.ensureLocked(id)
	return c.unloadLocked(id)
}

// unloadLocked drives id to unloaded through unloading. Removing id from the
// pool also clears the active id when it matches.
func (c *Controller) unloadLocked(id string) (State, error) {
	cur, _ := c.registry.Get(id)

	var err error
	if cur.Status == StatusLoading {
		_, err = c.registry.Apply(id, ApplyLoadCanceled)
		recordTransition(OpLoadCanceled, err)
	} else {
		_, err = c.registry.Apply(id, ApplyUnloadRequested)
		recordTransition(OpUnloadRequested, err)
	}
	if err != nil {
		return cur, err
	}

	st, err := c.registry.Apply(id, ApplyUnloaded)
	recordTransition(OpUnloaded, err)
	if err != nil {
		// unloading only leaves through ApplyUnloaded; reaching here is a bug.
		return st, err
	}

	delete(c.loadStarted, id)
	c.selection.remove(id)
	c.emitLocked(Intent{Kind: IntentUnmount, ID: id})
	c.logger.Debug().Str("entry_id", id).Str("from", string(cur.Status)).Msg("Entry unloaded")
	return st, nil
}

// ResetURL unmounts and remounts id in one step from any status. No
// intermediate unloaded status is visible and reports for the previous
// attempt become stale.
func (c *Controller) ResetURL(id string) (State, error) {
	return c.guarded(OpReset, id, c.strict, c.resetURLLocked)
}

func (c *Controller) resetURLLocked(id string) (State, error) {
	prev := c.ensureLocked(id)
	st, _ := c.registry.Update(id, ApplyReset)
	recordTransition(OpReset, nil)

	if prev.Mounted() {
		c.emitLocked(Intent{Kind: IntentUnmount, ID: id})
	}
	c.mountLocked(st)
	if id == c.selection.ActiveID() {
		c.emitLocked(Intent{Kind: IntentShow, ID: id})
	}
	c.enforceCapacityLocked()

	c.logger.Debug().Str("entry_id", id).Str("from", string(prev.Status)).Uint64("generation", st.Generation).Msg("Entry reset")
	st, _ = c.registry.Get(id)
	return st, nil
}

// ReportActivity stamps user interaction inside a mounted entry. Activity for
// entries that are not mounted is ignored.
func (c *Controller) ReportActivity(id string) (State, error) {
	return c.guarded(OpActivity, id, c.strict, c.reportActivityLocked)
}

func (c *Controller) reportActivityLocked(id string) (State, error) {
	st, ok := c.registry.Get(id)
	if !ok {
		return State{ID: id, Status: StatusUnloaded}, nil
	}
	if !c.selection.IsLoaded(id) {
		return st, nil
	}
	st, _ = c.registry.Update(id, func(s State) State {
		return ApplyActivity(s, c.clock.Now())
	})
	return st, nil
}

// Tick runs an eviction sweep at now and unloads every candidate.
func (c *Controller) Tick(now time.Time) []Eviction {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.sweepLocked(now)
}

func (c *Controller) sweepLocked(now time.Time) []Eviction {
	evictions := c.pool.SelectEvictionCandidates(c.registry, c.selection, now)
	for _, ev := range evictions {
		if _, err := c.unloadLocked(ev.ID); err != nil {
			c.logger.Warn().Err(err).Str("entry_id", ev.ID).Msg("Eviction rejected")
			continue
		}
		metrics.LifecycleEvictions.WithLabelValues(string(ev.Reason)).Inc()
		c.logger.Debug().Str("entry_id", ev.ID).Str("reason", string(ev.Reason)).Msg("Entry evicted")
	}
	return evictions
}

// enforceCapacityLocked sweeps immediately when a load pushed the pool over
// capacity.
func (c *Controller) enforceCapacityLocked() {
	if c.pool.OverCapacity(c.selection.Len()) {
		c.sweepLocked(c.clock.Now())
	}
}

// SetViewport switches the viewport mode. Mounted entries whose address
// changes with the mode are remounted at the new address.
func (c *Controller) SetViewport(mode ViewportMode) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if mode == c.viewport {
		return
	}
	old := c.viewport
	c.viewport = mode
	c.remountMovedLocked(c.catalog, old)
	c.logger.Debug().Str("viewport", string(mode)).Msg("Viewport changed")
}

// SetCatalog swaps the catalog. Entries no longer configured are unmounted
// and their state is discarded; remaining entries pick up new idle timeouts
// and are remounted if their address changed.
func (c *Controller) SetCatalog(catalog *models.Catalog) {
	if catalog == nil {
		catalog = models.EmptyCatalog()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	oldCatalog := c.catalog
	c.catalog = catalog

	for _, st := range c.registry.States() {
		entry, ok := catalog.Entry(st.ID)
		if !ok {
			if c.selection.IsLoaded(st.ID) {
				c.selection.remove(st.ID)
				c.emitLocked(Intent{Kind: IntentUnmount, ID: st.ID})
				metrics.LifecycleEvictions.WithLabelValues(string(EvictionRemoved)).Inc()
			}
			delete(c.loadStarted, st.ID)
			c.registry.Remove(st.ID)
			c.logger.Info().Str("entry_id", st.ID).Msg("Entry removed from catalog")
			continue
		}
		c.registry.SetIdleTimeout(st.ID, catalog.IdleTimeout(entry))
	}

	c.remountMovedLocked(oldCatalog, c.viewport)
}

// remountMovedLocked resets mounted entries whose address under the current
// catalog and viewport differs from the one under oldCatalog and oldMode.
func (c *Controller) remountMovedLocked(oldCatalog *models.Catalog, oldMode ViewportMode) {
	for _, id := range c.selection.LoadedIDs() {
		newEntry, ok := c.catalog.Entry(id)
		if !ok {
			continue
		}
		oldEntry, ok := oldCatalog.Entry(id)
		if ok && ResolveAddress(oldEntry, oldMode) == ResolveAddress(newEntry, c.viewport) {
			continue
		}
		st, _ := c.registry.Update(id, ApplyReset)
		c.emitLocked(Intent{Kind: IntentUnmount, ID: id})
		c.mountLocked(st)
		if id == c.selection.ActiveID() {
			c.emitLocked(Intent{Kind: IntentShow, ID: id})
		}
	}
}

// mountLocked adds st to the pool and emits its mount intent.
func (c *Controller) mountLocked(st State) {
	entry, _ := c.catalog.Entry(st.ID)
	c.selection.add(st.ID)
	c.loadStarted[st.ID] = c.clock.Now()
	c.emitLocked(Intent{
		Kind:       IntentMount,
		ID:         st.ID,
		Address:    ResolveAddress(entry, c.viewport),
		Generation: st.Generation,
	})
}

func (c *Controller) observeLoadLocked(id, outcome string, now time.Time) {
	started, ok := c.loadStarted[id]
	if !ok {
		return
	}
	delete(c.loadStarted, id)
	metrics.LifecycleLoadDuration.WithLabelValues(outcome).Observe(now.Sub(started).Seconds())
}

func (c *Controller) emitLocked(intents ...Intent) {
	if len(intents) == 0 {
		return
	}
	for i := range intents {
		c.intentSeq++
		intents[i].Seq = c.intentSeq
		metrics.LifecycleIntents.WithLabelValues(string(intents[i].Kind)).Inc()
	}
	c.sink.Emit(intents)
}

// ensureLocked registers id with its effective idle timeout on first reference.
func (c *Controller) ensureLocked(id string) State {
	entry, _ := c.catalog.Entry(id)
	return c.registry.Ensure(id, c.catalog.IdleTimeout(entry))
}

// guarded runs fn under the controller lock once id is known to be in the
// catalog. The catalog check and the operation see the same catalog.
func (c *Controller) guarded(op Operation, id string, strict bool, fn func(id string) (State, error)) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkKnownLocked(op, id, strict); err != nil {
		return State{ID: id, Status: StatusUnloaded}, err
	}
	return fn(id)
}

// checkKnownLocked rejects ids that are not in the catalog. With strict set
// it panics, since such a reference is a programming error.
func (c *Controller) checkKnownLocked(op Operation, id string, strict bool) error {
	if c.catalog.Has(id) {
		return nil
	}
	err := fmt.Errorf("%w: %s %q", ErrUnknownEntry, op, id)
	if strict {
		panic(err.Error())
	}
	recordTransition(op, err)
	c.logger.Warn().Str("entry_id", id).Str("op", string(op)).Msg("Operation on unknown entry ignored")
	return err
}

// Status returns the status of id. Untracked ids report unloaded.
func (c *Controller) Status(id string) Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	if st, ok := c.registry.Get(id); ok {
		return st.Status
	}
	return StatusUnloaded
}

// State returns the tracked state of id.
func (c *Controller) State(id string) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.registry.Get(id)
}

// IsVisible reports whether id is the active entry.
func (c *Controller) IsVisible(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return IsVisible(id, c.selection.View(), c.viewport)
}

// ActiveID returns the active entry id, or "".
func (c *Controller) ActiveID() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.selection.ActiveID()
}

// LoadedIDs returns the mounted entries in mount order.
func (c *Controller) LoadedIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.selection.LoadedIDs()
}

// Viewport returns the current viewport mode.
func (c *Controller) Viewport() ViewportMode {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.viewport
}

// Catalog returns the catalog in use.
func (c *Controller) Catalog() *models.Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.catalog
}

// MountedCount returns the pool size.
func (c *Controller) MountedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.selection.Len()
}

func recordTransition(op Operation, err error) {
	result := metrics.ResultOK
	switch {
	case err == nil:
	case errors.Is(err, ErrUnknownEntry):
		result = metrics.ResultUnknown
	default:
		result = metrics.ResultRejected
	}
	metrics.RecordLifecycleTransition(string(op), result)
}

// IsPreconditionViolation reports whether err is a rejected transition.
func IsPreconditionViolation(err error) bool {
	return errors.Is(err, ErrPreconditionViolation)
}
