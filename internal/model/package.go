// Copyright (c) 2026 ToeiRei
// Certmigrate - managed certificate configuration migration
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	// CurrentFormatVersion is written by this build.
	CurrentFormatVersion = 2
	// MinFormatVersion is the oldest package format that can still be read.
	// Version 1 packages never carried sealed secrets.
	MinFormatVersion = 1
)

// Package is a portable, versioned snapshot of exported configuration. A
// package is created by export and only read afterwards.
type Package struct {
	FormatVersion int            `json:"format_version"`
	SourceName    string         `json:"source_name"`
	ExportDate    time.Time      `json:"export_date"`
	AppVersion    string         `json:"app_version,omitempty"`
	UITheme       string         `json:"ui_theme,omitempty"`
	Content       []PackageEntry `json:"content"`
}

// Count returns the number of entries of the given kind.
func (p *Package) Count(kind EntityKind) int {
	n := 0
	for _, e := range p.Content {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// PackageEntry is one exported entity. Secret field values never appear in
// the entity itself; when exported they are sealed into Secrets, keyed by
// the Go field name.
type PackageEntry struct {
	Kind    EntityKind
	Entity  Entity
	Secrets map[string]string
}

type packageEntryJSON struct {
	Kind    EntityKind        `json:"kind"`
	Item    json.RawMessage   `json:"item"`
	Secrets map[string]string `json:"secrets,omitempty"`
}

// MarshalJSON writes the entry as {"kind", "item", "secrets"}.
func (e PackageEntry) MarshalJSON() ([]byte, error) {
	item, err := json.Marshal(e.Entity)
	if err != nil {
		return nil, err
	}
	return json.Marshal(packageEntryJSON{Kind: e.Kind, Item: item, Secrets: e.Secrets})
}

// UnmarshalJSON decodes the item into the concrete type named by kind.
func (e *PackageEntry) UnmarshalJSON(data []byte) error {
	var raw packageEntryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw.Item) == 0 {
		return fmt.Errorf("entry of kind %q has no item", raw.Kind)
	}
	var (
		ent Entity
		err error
	)
	switch raw.Kind {
	case KindCAAccount:
		var v CAAccount
		err = json.Unmarshal(raw.Item, &v)
		ent = v
	case KindCredential:
		var v StoredCredential
		err = json.Unmarshal(raw.Item, &v)
		ent = v
	case KindNotificationTarget:
		var v NotificationTarget
		err = json.Unmarshal(raw.Item, &v)
		ent = v
	case KindManagedCertificate:
		var v ManagedCertificate
		err = json.Unmarshal(raw.Item, &v)
		ent = v
	default:
		return fmt.Errorf("unknown entity kind %q", raw.Kind)
	}
	if err != nil {
		return fmt.Errorf("decode %s: %w", raw.Kind, err)
	}
	*e = PackageEntry{Kind: raw.Kind, Entity: ent, Secrets: raw.Secrets}
	return nil
}
