// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TokenValidations counts bearer token checks.
	// Labels:
	//   - outcome: "accepted", "rejected", "missing"
	TokenValidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "framedeck_auth_token_validations_total",
			Help: "Total number of bearer token validations by outcome",
		},
		[]string{"outcome"},
	)
)

// Token validation outcomes.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeMissing  = "missing"
)

// RecordTokenValidation increments the counter for outcome.
func RecordTokenValidation(outcome string) {
	TokenValidations.WithLabelValues(outcome).Inc()
}
