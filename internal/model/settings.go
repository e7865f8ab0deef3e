// Copyright (c) 2026 ToeiRei
// Certmigrate - managed certificate configuration migration
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import (
	"fmt"
	"strings"
)

// ConflictPolicy decides what an import does with an entity that already
// exists in the live store with different content.
type ConflictPolicy string

const (
	// PolicySkip leaves the live entity untouched.
	PolicySkip ConflictPolicy = "skip"
	// PolicyOverwrite replaces every differing field with the imported value.
	PolicyOverwrite ConflictPolicy = "overwrite"
	// PolicyMerge only fills fields that are empty on the live side.
	PolicyMerge ConflictPolicy = "merge"
)

// ParseConflictPolicy converts user input into a ConflictPolicy.
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch p := ConflictPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicySkip, PolicyOverwrite, PolicyMerge:
		return p, nil
	default:
		return "", fmt.Errorf("unknown conflict policy %q (expected skip, overwrite or merge)", s)
	}
}

// ImportSettings controls matching and overwrite decisions for one import.
// A fresh value is created per invocation and not changed while it runs.
type ImportSettings struct {
	// DefaultPolicy applies to every kind without an entry in Policies.
	// The zero value behaves like PolicySkip.
	DefaultPolicy ConflictPolicy
	Policies      map[EntityKind]ConflictPolicy
	// ImportSecrets opens sealed secrets with EncryptionSecret. When false
	// secret fields are left as they are on the live side.
	ImportSecrets    bool
	EncryptionSecret string
	// StorePathOverride replaces the store path of every imported
	// certificate, retargeting the package at a different scope.
	StorePathOverride string
}

// PolicyFor returns the conflict policy for kind.
func (s ImportSettings) PolicyFor(kind EntityKind) ConflictPolicy {
	if p, ok := s.Policies[kind]; ok && p != "" {
		return p
	}
	if s.DefaultPolicy != "" {
		return s.DefaultPolicy
	}
	return PolicySkip
}

// ExportSettings controls filtering and inclusion decisions for one export.
type ExportSettings struct {
	// SourceName identifies the exporting installation in the package.
	SourceName string
	// IncludeSecrets seals secret fields into the package using
	// EncryptionSecret. Without it secrets are stripped.
	IncludeSecrets   bool
	EncryptionSecret string
	// IncludeDisabled also exports certificates that are disabled.
	IncludeDisabled bool
	// Anonymize removes contact details (account emails, notification
	// endpoints, comments) from the exported entities.
	Anonymize bool
}
