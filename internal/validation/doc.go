// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared process-wide; it caches struct
// metadata and is safe for concurrent use. Field names in messages follow
// the json (or yaml) tag, so API clients and catalog authors see the names
// they wrote.
//
// # Usage
//
//	type viewportRequest struct {
//	    Mode string `json:"mode" validate:"required,oneof=desktop mobile"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError() // Code: VALIDATION_ERROR
//	    ...
//	}
//
// The catalog loader validates URL entries with the custom entryid and
// duration tags next to the built-in http_url and unique.
package validation
