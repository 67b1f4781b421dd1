// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

// Package lifecycle manages the embedded-document lifecycle behind a dashboard
// session: which catalog entries have a live iframe, which one is in the
// foreground, and when pooled iframes are unloaded.
//
// # Components
//
//   - Clock: the source of "now" used for idle accounting (SystemClock, ManualClock)
//   - Registry: entry id -> State, mutated only through pure Apply* transitions
//   - Selection: the active entry and the ordered set of mounted entries
//   - PoolManager: picks eviction candidates (idle timeout, optional capacity)
//   - Controller: the single owner of Registry and Selection; applies
//     transitions and emits Intents for the presentation layer
//   - IsVisible / ResolveAddress: read-only projections
//
// # State Machine
//
//	unloaded --load--> loading --loaded--> loaded --unload--> unloading --> unloaded
//	                      |                                       ^
//	                      +--error--> error --retry--> loading    |
//	                                    +-------unload------------+
//
// Any transition requested from a status outside its precondition set is
// rejected with a *PreconditionViolation and leaves the state untouched.
//
// # Concurrency
//
// Controller serializes every operation behind one mutex. Transitions read and
// write lastActivityAt/status together and must never interleave. Intents are
// emitted while the lock is held so a session observes them in transition
// order; an IntentSink must not block and must not call back into the
// Controller.
//
// # Presentation Contract
//
// Intents are mount(id, address, generation), unmount(id), show(id) and
// hide(id). A hidden entry stays mounted at zero size so its in-page state
// survives. A presentation layer that cannot keep a hidden document alive must
// treat hide as unmount and show as a fresh mount; the pool then only saves
// network round trips, not scroll or form state.
//
// Load outcomes come back as ReportLoaded/ReportLoadError carrying the
// generation from the mount intent. Reports for an older generation are
// dropped, which stops a slow load from resurrecting an entry the user already
// navigated away from or reset.
package lifecycle
