// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

package session

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/framedeck/internal/lifecycle"
	"github.com/tomtom215/framedeck/internal/logging"
	"github.com/tomtom215/framedeck/internal/metrics"
)

// Sweeper is the activity clock. Every interval it ticks all sessions and
// reaps idle ones. It implements suture.Service.
type Sweeper struct {
	manager  *Manager
	interval time.Duration
	clock    lifecycle.Clock
	logger   zerolog.Logger
}

// NewSweeper creates a Sweeper. clock may be nil for the system clock.
func NewSweeper(manager *Manager, interval time.Duration, clock lifecycle.Clock) *Sweeper {
	if clock == nil {
		clock = lifecycle.SystemClock{}
	}
	return &Sweeper{
		manager:  manager,
		interval: interval,
		clock:    clock,
		logger:   logging.WithComponent("sweeper"),
	}
}

// Serve ticks until ctx is done.
func (s *Sweeper) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.interval).Msg("Activity clock started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep runs one pass.
func (s *Sweeper) Sweep() SweepResult {
	start := time.Now()
	now := s.clock.Now()

	res := s.manager.Tick(now)
	reaped := s.manager.ReapIdle(now)

	metrics.SweepDuration.Observe(time.Since(start).Seconds())
	if res.Evictions > 0 || len(reaped) > 0 {
		s.logger.Debug().
			Int("sessions", res.Sessions).
			Int("evictions", res.Evictions).
			Int("mounted", res.Mounted).
			Int("reaped", len(reaped)).
			Msg("Sweep")
	}
	return res
}

// String implements fmt.Stringer for suture logging.
func (s *Sweeper) String() string {
	return "activity-clock"
}
