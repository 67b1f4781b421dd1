// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

package session

import (
	"errors"
	"net/http"

	"github.com/tomtom215/framedeck/internal/lifecycle"
	"github.com/tomtom215/framedeck/internal/models"
	"github.com/tomtom215/framedeck/internal/validation"
)

// ErrorResponse maps an error returned by the Manager to an HTTP status and
// API error. The websocket client sends the same API error in its error
// frames, so both transports report failures identically.
func ErrorResponse(err error) (int, *models.APIError) {
	var verr *validation.RequestValidationError
	if errors.As(err, &verr) {
		e := verr.ToAPIError()
		return http.StatusBadRequest, &models.APIError{Code: e.Code, Message: e.Message, Details: e.Details}
	}

	var pv *lifecycle.PreconditionViolation
	if errors.As(err, &pv) {
		details := map[string]interface{}{
			"operation": string(pv.Op),
			"id":        pv.ID,
			"status":    string(pv.Status),
		}
		if len(pv.Allowed) > 0 {
			allowed := make([]string, len(pv.Allowed))
			for i, s := range pv.Allowed {
				allowed[i] = string(s)
			}
			details["allowed"] = allowed
		}
		return http.StatusConflict, &models.APIError{Code: "PRECONDITION_VIOLATION", Message: pv.Error(), Details: details}
	}

	switch {
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound, &models.APIError{Code: "NOT_FOUND", Message: "Session not found"}
	case errors.Is(err, lifecycle.ErrUnknownEntry):
		return http.StatusNotFound, &models.APIError{Code: "NOT_FOUND", Message: err.Error()}
	case errors.Is(err, lifecycle.ErrInvalidEvent):
		return http.StatusBadRequest, &models.APIError{Code: "VALIDATION_ERROR", Message: err.Error()}
	case errors.Is(err, ErrSessionLimit):
		return http.StatusServiceUnavailable, &models.APIError{Code: "SESSION_LIMIT", Message: "Too many open sessions, try again later"}
	default:
		return http.StatusInternalServerError, &models.APIError{Code: "INTERNAL_ERROR", Message: "Internal server error"}
	}
}
