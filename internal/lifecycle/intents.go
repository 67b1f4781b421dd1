// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

package lifecycle

// IntentKind is a side effect the presentation layer must perform.
type IntentKind string

const (
	IntentMount   IntentKind = "mount"
	IntentUnmount IntentKind = "unmount"
	IntentShow    IntentKind = "show"
	IntentHide    IntentKind = "hide"
)

// Intent is a request to the presentation layer. Mount intents carry the
// resolved address and the generation the presentation must echo back when it
// reports the outcome.
//
// Seq numbers a controller's intents from 1 in emission order. A Snapshot
// with Seq n already reflects every intent up to n.
type Intent struct {
	Kind       IntentKind `json:"kind"`
	ID         string     `json:"id"`
	Address    string     `json:"address,omitempty"`
	Generation uint64     `json:"generation,omitempty"`
	Seq        uint64     `json:"seq"`
}

// IntentSink receives intents in the order they were produced.
// Emit is called with the controller lock held; it must not block and must not
// call back into the controller.
type IntentSink interface {
	Emit(intents []Intent)
}

// IntentSinkFunc adapts a function to IntentSink.
type IntentSinkFunc func(intents []Intent)

// Emit implements IntentSink.
func (f IntentSinkFunc) Emit(intents []Intent) {
	f(intents)
}

type discardSink struct{}

func (discardSink) Emit([]Intent) {}

// DiscardIntents drops every intent.
var DiscardIntents IntentSink = discardSink{}
