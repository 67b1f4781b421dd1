// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

package logging

import (
	"strings"

	"github.com/rs/zerolog"
)

// SecurityEvent is an authentication outcome worth auditing.
type SecurityEvent struct {
	Event     string // token_accepted, token_rejected, ws_upgrade_rejected
	UserID    string
	IPAddress string
	UserAgent string
	Path      string
	Success   bool
	Reason    string
}

// SecurityLogger logs authentication events with identifiers masked.
type SecurityLogger struct {
	logger zerolog.Logger
}

// NewSecurityLogger creates a security logger on the global logger.
func NewSecurityLogger() *SecurityLogger {
	return &SecurityLogger{logger: WithComponent("auth")}
}

// NewSecurityLoggerWithLogger creates a security logger on a custom logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewSecurityLoggerWithLogger(logger zerolog.Logger) *SecurityLogger {
	return &SecurityLogger{logger: logger.With().Str("component", "auth").Logger()}
}

// LogEvent writes ev. Failures log at warn so they stand out from the
// steady stream of accepted tokens, which log at debug.
func (l *SecurityLogger) LogEvent(ev *SecurityEvent) {
	var e *zerolog.Event
	if ev.Success {
		e = l.logger.Debug().Str("status", "success")
	} else {
		e = l.logger.Warn().Str("status", "failed")
	}
	e = e.Str("event", ev.Event)

	if ev.UserID != "" {
		e = e.Str("user_id", SanitizeUserID(ev.UserID))
	}
	if ev.IPAddress != "" {
		e = e.Str("ip", ev.IPAddress)
	}
	if ev.UserAgent != "" {
		e = e.Str("user_agent", truncateString(ev.UserAgent, 100))
	}
	if ev.Path != "" {
		e = e.Str("path", ev.Path)
	}
	if ev.Reason != "" && !ev.Success {
		e = e.Str("reason", SanitizeError(ev.Reason))
	}
	e.Msg("")
}

// LogTokenRejected records a bearer token that failed verification.
func (l *SecurityLogger) LogTokenRejected(ip, userAgent, path, reason string) {
	l.LogEvent(&SecurityEvent{
		Event:     "token_rejected",
		IPAddress: ip,
		UserAgent: userAgent,
		Path:      path,
		Reason:    reason,
	})
}

// LogTokenAccepted records a verified bearer token.
func (l *SecurityLogger) LogTokenAccepted(userID, ip, path string) {
	l.LogEvent(&SecurityEvent{
		Event:     "token_accepted",
		UserID:    userID,
		IPAddress: ip,
		Path:      path,
		Success:   true,
	})
}

// SanitizeToken masks a token, keeping the first and last 4 characters.
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SanitizeUserID masks a user ID.
// Example: "user-12345678" -> "user...5678"
func SanitizeUserID(userID string) string {
	if userID == "" {
		return ""
	}
	if len(userID) <= 8 {
		return "***"
	}
	return userID[:4] + "..." + userID[len(userID)-4:]
}

var sensitiveErrorPatterns = []string{
	"password",
	"secret",
	"bearer",
	"authorization",
	"cookie",
}

// SanitizeError replaces messages that may echo credentials and truncates
// the rest.
func SanitizeError(err string) string {
	lower := strings.ToLower(err)
	for _, p := range sensitiveErrorPatterns {
		if strings.Contains(lower, p) {
			return "authentication error"
		}
	}
	return truncateString(err, 200)
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
