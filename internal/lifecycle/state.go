// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

package lifecycle

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle status of a single entry.
type Status string

const (
	StatusUnloaded  Status = "unloaded"
	StatusLoading   Status = "loading"
	StatusLoaded    Status = "loaded"
	StatusError     Status = "error"
	StatusUnloading Status = "unloading"
)

// Operation names a transition. It is used in violations, logs and metrics.
type Operation string

const (
	OpLoadRequested   Operation = "load_requested"
	OpLoadSucceeded   Operation = "load_succeeded"
	OpLoadFailed      Operation = "load_failed"
	OpLoadCanceled    Operation = "load_canceled"
	OpUnloadRequested Operation = "unload_requested"
	OpUnloaded        Operation = "unloaded"
	OpRetry           Operation = "retry"
	OpReset           Operation = "reset"
	OpSelect          Operation = "select"
	OpUnload          Operation = "unload"
	OpActivity        Operation = "activity"
)

// DefaultLoadErrorMessage is stored when a load failure is reported without a message.
const DefaultLoadErrorMessage = "failed to load"

// State is the runtime lifecycle state of one catalog entry.
// It is never persisted.
type State struct {
	ID             string        `json:"id"`
	Status         Status        `json:"status"`
	Error          string        `json:"error,omitempty"`
	LastActivityAt time.Time     `json:"last_activity_at"`
	RetryCount     int           `json:"retry_count"`
	IdleTimeout    time.Duration `json:"-"`
	// Generation identifies the current load attempt. It increases on every
	// transition into loading.
	Generation uint64 `json:"generation"`

	// seq is the registration order, used to break lastActivityAt ties.
	seq uint64
}

// Mounted reports whether the status implies a live embedded document.
func (s State) Mounted() bool {
	return s.Status == StatusLoading || s.Status == StatusLoaded || s.Status == StatusError
}

// IdleFor returns how long the entry has been idle at now.
func (s State) IdleFor(now time.Time) time.Duration {
	return now.Sub(s.LastActivityAt)
}

// ErrPreconditionViolation is matched by every *PreconditionViolation.
var ErrPreconditionViolation = errors.New("lifecycle precondition violation")

// ErrUnknownEntry is returned for ids that are not in the session catalog.
var ErrUnknownEntry = errors.New("unknown catalog entry")

// PreconditionViolation reports a transition requested from an incompatible
// status. The state it refers to is unchanged.
type PreconditionViolation struct {
	Op      Operation
	ID      string
	Status  Status
	Allowed []Status
	Reason  string
}

func (e *PreconditionViolation) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s on %q rejected", e.Op, e.ID)
	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
		return b.String()
	}
	fmt.Fprintf(&b, ": status %s", e.Status)
	if len(e.Allowed) > 0 {
		allowed := make([]string, len(e.Allowed))
		for i, s := range e.Allowed {
			allowed[i] = string(s)
		}
		fmt.Fprintf(&b, " not in {%s}", strings.Join(allowed, ","))
	}
	return b.String()
}

// Is lets errors.Is(err, ErrPreconditionViolation) match.
func (e *PreconditionViolation) Is(target error) bool {
	return target == ErrPreconditionViolation
}

func requireStatus(s State, op Operation, allowed ...Status) error {
	for _, a := range allowed {
		if s.Status == a {
			return nil
		}
	}
	return &PreconditionViolation{Op: op, ID: s.ID, Status: s.Status, Allowed: allowed}
}

// ApplyLoadRequested moves an unloaded or failed entry to loading and starts a
// new generation.
func ApplyLoadRequested(s State) (State, error) {
	if err := requireStatus(s, OpLoadRequested, StatusUnloaded, StatusError); err != nil {
		return s, err
	}
	s.Status = StatusLoading
	s.Error = ""
	s.Generation++
	return s, nil
}

// ApplyLoadSucceeded marks a loading entry loaded.
func ApplyLoadSucceeded(s State, now time.Time) (State, error) {
	if err := requireStatus(s, OpLoadSucceeded, StatusLoading); err != nil {
		return s, err
	}
	s.Status = StatusLoaded
	s.LastActivityAt = now
	s.RetryCount = 0
	return s, nil
}

// ApplyLoadFailed records a load failure.
func ApplyLoadFailed(s State, message string) (State, error) {
	if err := requireStatus(s, OpLoadFailed, StatusLoading); err != nil {
		return s, err
	}
	if message == "" {
		message = DefaultLoadErrorMessage
	}
	s.Status = StatusError
	s.Error = message
	return s, nil
}

// ApplyLoadCanceled abandons an in-flight load. Reports for the abandoned
// generation become stale.
func ApplyLoadCanceled(s State) (State, error) {
	if err := requireStatus(s, OpLoadCanceled, StatusLoading); err != nil {
		return s, err
	}
	s.Status = StatusUnloading
	return s, nil
}

// ApplyUnloadRequested starts unloading a loaded or failed entry.
func ApplyUnloadRequested(s State) (State, error) {
	if err := requireStatus(s, OpUnloadRequested, StatusLoaded, StatusError); err != nil {
		return s, err
	}
	s.Status = StatusUnloading
	s.Error = ""
	return s, nil
}

// ApplyUnloaded resolves the transient unloading status.
func ApplyUnloaded(s State) (State, error) {
	if err := requireStatus(s, OpUnloaded, StatusUnloading); err != nil {
		return s, err
	}
	s.Status = StatusUnloaded
	s.Error = ""
	return s, nil
}

// ApplySelected stamps the entry as active at now. Status is untouched.
func ApplySelected(s State, now time.Time) State {
	s.LastActivityAt = now
	return s
}

// ApplyActivity stamps user interaction inside the entry at now.
func ApplyActivity(s State, now time.Time) State {
	s.LastActivityAt = now
	return s
}

// ApplyRetry re-enters loading from error and counts the attempt.
func ApplyRetry(s State) (State, error) {
	if err := requireStatus(s, OpRetry, StatusError); err != nil {
		return s, err
	}
	s.RetryCount++
	s.Status = StatusLoading
	s.Error = ""
	s.Generation++
	return s, nil
}

// ApplyReset restarts the load from any status in one step, so no
// intermediate unloaded status is ever observed.
func ApplyReset(s State) State {
	s.Status = StatusLoading
	s.Error = ""
	s.Generation++
	return s
}
