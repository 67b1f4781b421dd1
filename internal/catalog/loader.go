// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

package catalog

import (
	"errors"
	"fmt"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/framedeck/internal/models"
	"github.com/tomtom215/framedeck/internal/validation"
)

// DefaultIdleTimeout applies when the file does not set default_idle_timeout.
const DefaultIdleTimeout = 5 * time.Minute

// ErrInvalidCatalog wraps every parse and validation failure.
var ErrInvalidCatalog = errors.New("invalid catalog")

type entryFile struct {
	ID          string `koanf:"id" validate:"required,entryid"`
	Title       string `koanf:"title" validate:"required,max=128"`
	Icon        string `koanf:"icon" validate:"max=512"`
	URL         string `koanf:"url" validate:"required,http_url"`
	MobileURL   string `koanf:"mobile_url" validate:"omitempty,http_url"`
	IdleTimeout string `koanf:"idle_timeout" validate:"omitempty,duration"`
}

type groupFile struct {
	ID      string      `koanf:"id" validate:"required,entryid"`
	Name    string      `koanf:"name" validate:"required,max=128"`
	Entries []entryFile `koanf:"entries" validate:"dive"`
}

type catalogFile struct {
	DefaultIdleTimeout string      `koanf:"default_idle_timeout" validate:"omitempty,duration"`
	Groups             []groupFile `koanf:"groups" validate:"required,min=1,unique=ID,dive"`
}

// Load reads, validates and indexes the catalog at path.
func Load(path string) (*models.Catalog, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrInvalidCatalog, path, err)
	}

	var raw catalogFile
	if err := k.UnmarshalWithConf("", &raw, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrInvalidCatalog, path, err)
	}
	return build(&raw)
}

// build validates raw and converts it to a models.Catalog.
func build(raw *catalogFile) (*models.Catalog, error) {
	if verr := validation.ValidateStruct(raw); verr != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCatalog, verr.Error())
	}

	defaultIdle := DefaultIdleTimeout
	if raw.DefaultIdleTimeout != "" {
		// Already checked by the duration tag.
		defaultIdle, _ = time.ParseDuration(raw.DefaultIdleTimeout)
	}

	// Entry ids are unique across groups: lifecycle state is keyed by entry id alone.
	seen := make(map[string]string)
	groups := make([]models.URLGroup, 0, len(raw.Groups))
	for _, g := range raw.Groups {
		group := models.URLGroup{ID: g.ID, Name: g.Name, Entries: make([]models.URLEntry, 0, len(g.Entries))}
		for _, e := range g.Entries {
			if other, dup := seen[e.ID]; dup {
				return nil, fmt.Errorf("%w: entry id %q appears in groups %q and %q", ErrInvalidCatalog, e.ID, other, g.ID)
			}
			seen[e.ID] = g.ID

			entry := models.URLEntry{
				ID:        e.ID,
				Title:     e.Title,
				Icon:      e.Icon,
				URL:       e.URL,
				MobileURL: e.MobileURL,
			}
			if e.IdleTimeout != "" {
				d, _ := time.ParseDuration(e.IdleTimeout)
				entry.IdleTimeout = &d
			}
			group.Entries = append(group.Entries, entry)
		}
		groups = append(groups, group)
	}
	// A truncated file mid-write must not wipe every open dashboard.
	if len(seen) == 0 {
		return nil, fmt.Errorf("%w: catalog has no entries", ErrInvalidCatalog)
	}

	return models.NewCatalog(defaultIdle, groups), nil
}
