// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

package auth

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/framedeck/internal/config"
	"github.com/tomtom215/framedeck/internal/logging"
	"github.com/tomtom215/framedeck/internal/models"
)

type contextKey string

// ClaimsContextKey holds the verified *Claims on the request context.
const ClaimsContextKey contextKey = "claims"

// Auth modes.
const (
	ModeNone = "none"
	ModeJWT  = "jwt"
)

var (
	errMissingToken  = errors.New("unauthorized: missing token")
	errInvalidHeader = errors.New("unauthorized: invalid authorization header")
)

// Middleware enforces bearer token authentication.
type Middleware struct {
	jwtManager *JWTManager
	authMode   string
	security   *logging.SecurityLogger
}

// NewMiddleware creates the authentication middleware for cfg.AuthMode.
func NewMiddleware(cfg *config.SecurityConfig) (*Middleware, error) {
	m := &Middleware{
		authMode: cfg.AuthMode,
		security: logging.NewSecurityLogger(),
	}
	if cfg.AuthMode == ModeJWT {
		jm, err := NewJWTManager(cfg)
		if err != nil {
			return nil, err
		}
		m.jwtManager = jm
	}
	return m, nil
}

// Mode returns the configured auth mode.
func (m *Middleware) Mode() string {
	return m.authMode
}

// Authenticate is chi-compatible middleware. In jwt mode it rejects requests
// without a valid token and stores the claims and user id on the context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.authMode == ModeNone {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractToken(r)
		if err != nil {
			RecordTokenValidation(OutcomeMissing)
			m.security.LogTokenRejected(clientIP(r), r.UserAgent(), r.URL.Path, err.Error())
			writeUnauthorized(w, err.Error())
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			RecordTokenValidation(OutcomeRejected)
			m.security.LogTokenRejected(clientIP(r), r.UserAgent(), r.URL.Path, err.Error())
			writeUnauthorized(w, "Unauthorized: invalid token")
			return
		}

		RecordTokenValidation(OutcomeAccepted)
		m.security.LogTokenAccepted(claims.UserID(), clientIP(r), r.URL.Path)

		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		ctx = logging.ContextWithUserID(ctx, claims.UserID())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClaimsFromContext returns the verified claims, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(ClaimsContextKey).(*Claims)
	return c, ok
}

// extractToken reads the bearer token from the Authorization header, the
// token cookie, or the token query parameter. Browsers cannot set headers on
// a WebSocket upgrade, so the query form exists for /ws.
func extractToken(r *http.Request) (string, error) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", errInvalidHeader
		}
		return strings.TrimSpace(parts[1]), nil
	}
	if cookie, err := r.Cookie("token"); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token, nil
	}
	return "", errMissingToken
}

// SecurityHeaders adds security headers to all responses. The portal embeds
// arbitrary dashboards, so frame-src stays open while the portal itself
// refuses to be framed.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy",
			"default-src 'self'; frame-src *; connect-src 'self' wss: ws:; img-src 'self' data: https:; frame-ancestors 'none'; base-uri 'self'")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if r.Header.Get("X-Forwarded-Proto") == "https" || r.TLS != nil {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP returns the host part of RemoteAddr. chi's RealIP middleware has
// already rewritten it from proxy headers when the router uses it.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	body := models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
		Error:    &models.APIError{Code: "UNAUTHORIZED", Message: message},
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="framedeck"`)
	w.WriteHeader(http.StatusUnauthorized)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Warn().Err(err).Msg("Failed to write unauthorized response")
	}
}
