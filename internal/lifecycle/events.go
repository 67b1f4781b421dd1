// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

package lifecycle

import (
	"errors"
	"fmt"
)

// EventType names an inbound event.
type EventType string

const (
	EventSelect      EventType = "select"
	EventLoad        EventType = "load"
	EventLoaded      EventType = "loaded"
	EventLoadError   EventType = "load_error"
	EventRetry       EventType = "retry"
	EventUnload      EventType = "unload"
	EventForceUnload EventType = "force_unload"
	EventReset       EventType = "reset"
	EventActivity    EventType = "activity"
	EventViewport    EventType = "viewport"
)

// ErrInvalidEvent is returned by Dispatch for malformed events.
var ErrInvalidEvent = errors.New("invalid lifecycle event")

// Event is an inbound message for a Controller: a user action, a report from
// the presentation layer or a viewport change.
type Event struct {
	Type       EventType    `json:"type" validate:"required,oneof=select load loaded load_error retry unload force_unload reset activity viewport"`
	ID         string       `json:"id,omitempty" validate:"omitempty,max=128"`
	Generation uint64       `json:"generation,omitempty"`
	Message    string       `json:"message,omitempty" validate:"max=1024"`
	Viewport   ViewportMode `json:"viewport,omitempty" validate:"omitempty,oneof=desktop mobile"`
}

// DispatchResult is the outcome of Dispatch. Stale is set when a report was
// ignored because it referred to an untracked entry or superseded attempt.
type DispatchResult struct {
	State State `json:"state"`
	Stale bool  `json:"stale,omitempty"`
}

// Dispatch routes an event to the matching controller operation. Events come
// from clients, so an id outside the catalog is returned as ErrUnknownEntry
// even in strict mode; a reload may remove an entry between the client's
// view and the event.
func (c *Controller) Dispatch(ev Event) (DispatchResult, error) {
	if ev.Type != EventViewport && ev.ID == "" {
		return DispatchResult{}, fmt.Errorf("%w: %s requires an id", ErrInvalidEvent, ev.Type)
	}

	var (
		op Operation
		fn func(id string) (State, error)
	)
	switch ev.Type {
	case EventSelect:
		op, fn = OpSelect, c.selectURLLocked
	case EventLoad:
		op, fn = OpLoadRequested, c.loadURLLocked
	case EventLoaded:
		s, applied := c.ReportLoaded(ev.ID, ev.Generation)
		return DispatchResult{State: s, Stale: !applied}, nil
	case EventLoadError:
		s, applied := c.ReportLoadError(ev.ID, ev.Generation, ev.Message)
		return DispatchResult{State: s, Stale: !applied}, nil
	case EventRetry:
		op, fn = OpRetry, c.retryURLLocked
	case EventUnload:
		op, fn = OpUnload, c.unloadURLLocked
	case EventForceUnload:
		op, fn = OpUnload, c.forceUnloadURLLocked
	case EventReset:
		op, fn = OpReset, c.resetURLLocked
	case EventActivity:
		op, fn = OpActivity, c.reportActivityLocked
	case EventViewport:
		mode, perr := ParseViewportMode(string(ev.Viewport))
		if perr != nil {
			return DispatchResult{}, fmt.Errorf("%w: %v", ErrInvalidEvent, perr)
		}
		c.SetViewport(mode)
		return DispatchResult{}, nil
	default:
		return DispatchResult{}, fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, ev.Type)
	}

	st, err := c.guarded(op, ev.ID, false, fn)
	return DispatchResult{State: st}, err
}
