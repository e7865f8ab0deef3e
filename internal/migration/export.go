// Copyright (c) 2026 ToeiRei
// Certmigrate - managed certificate configuration migration
// This source code is licensed under the MIT license found in the LICENSE file.

// Package migration implements the import/export engine: building and
// loading packages, planning an import as a list of action steps and
// applying those steps to a live store.
package migration

import (
	"context"
	"fmt"

	"github.com/toeirei/certmigrate/buildvars"
	"github.com/toeirei/certmigrate/internal/db"
	"github.com/toeirei/certmigrate/internal/logging"
	"github.com/toeirei/certmigrate/internal/model"
)

// BuildPackage exports the certificates selected by filter, together with
// every entity they reference, into a new package. Entities appear in the
// store's natural order with each dependency placed before its first
// dependent. The result depends only on the store state, filter and
// settings (plus the clock for ExportDate).
func BuildPackage(ctx context.Context, store db.Reader, filter model.ManagedCertificateFilter, settings model.ExportSettings) (*model.Package, error) {
	certs, err := store.ListManagedCertificates(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}

	pkg := &model.Package{
		FormatVersion: model.CurrentFormatVersion,
		SourceName:    settings.SourceName,
		ExportDate:    defaultClock.Now().UTC(),
		AppVersion:    buildvars.VersionOrDefault("dev"),
		Content:       []model.PackageEntry{},
	}

	seen := make(map[model.EntityRef]bool)
	add := func(e model.Entity) error {
		entry, err := exportEntry(e, settings)
		if err != nil {
			return err
		}
		pkg.Content = append(pkg.Content, entry)
		seen[model.RefOf(e)] = true
		return nil
	}

	selected := 0
	for _, c := range certs {
		if !filter.Matches(c) {
			continue
		}
		if c.Disabled && !settings.IncludeDisabled {
			continue
		}
		if filter.MaxResults > 0 && selected >= filter.MaxResults {
			break
		}
		selected++

		for _, ref := range c.References() {
			if seen[ref] {
				continue
			}
			dep, err := store.GetEntity(ctx, ref)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", ref, err)
			}
			if dep == nil {
				logging.Warnf("export: %s references %s which does not exist; exporting without it", model.RefOf(c), ref)
				continue
			}
			if err := add(dep); err != nil {
				return nil, err
			}
		}
		if err := add(c); err != nil {
			return nil, err
		}
	}

	ui, err := store.GetUISettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("read ui settings: %w", err)
	}
	pkg.UITheme = ui.UITheme

	logging.Debugf("export: %d certificate(s), %d entities from %q", selected, len(pkg.Content), pkg.SourceName)
	return pkg, nil
}

func exportEntry(e model.Entity, settings model.ExportSettings) (model.PackageEntry, error) {
	if settings.Anonymize {
		e = anonymize(e)
	}
	stripped, sealed, err := sealSecrets(e, settings.IncludeSecrets, settings.EncryptionSecret)
	if err != nil {
		return model.PackageEntry{}, err
	}
	return model.PackageEntry{Kind: e.Kind(), Entity: stripped, Secrets: sealed}, nil
}

// anonymize removes contact details.
func anonymize(e model.Entity) model.Entity {
	switch v := e.Clone().(type) {
	case model.CAAccount:
		v.Email = ""
		return v
	case model.NotificationTarget:
		v.Endpoint = ""
		return v
	case model.ManagedCertificate:
		v.Comments = ""
		return v
	default:
		return v
	}
}
