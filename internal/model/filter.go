// Copyright (c) 2026 ToeiRei
// Certmigrate - managed certificate configuration migration
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import (
	"path"
	"strings"
	"time"
)

// ManagedCertificateFilter selects the managed certificates (and through
// them, their dependent configuration) that qualify for export. The zero
// value matches everything; populated fields combine with AND.
type ManagedCertificateFilter struct {
	// Keyword is a glob when it contains any of "*?[", otherwise a
	// case-insensitive substring. It is tested against the name and every
	// domain.
	Keyword string `json:"keyword,omitempty"`
	// StorePath matches the certificate store path exactly (case-insensitive).
	StorePath string `json:"store_path,omitempty"`
	// IDs restricts the selection to the given identities.
	IDs []string `json:"ids,omitempty"`
	// IncludeOnlyExpiring keeps only certificates with a known expiry
	// before ExpiringBefore.
	IncludeOnlyExpiring bool      `json:"include_only_expiring,omitempty"`
	ExpiringBefore      time.Time `json:"expiring_before,omitempty"`
	// MaxResults caps the number of selected certificates. It is applied by
	// the exporter, not by Matches. Zero means unlimited.
	MaxResults int `json:"max_results,omitempty"`
}

// ExpiringWithin returns a copy of f that only keeps certificates expiring
// within d of now.
func (f ManagedCertificateFilter) ExpiringWithin(now time.Time, d time.Duration) ManagedCertificateFilter {
	f.IncludeOnlyExpiring = true
	f.ExpiringBefore = now.Add(d)
	return f
}

// Matches reports whether c passes the filter. It has no side effects.
func (f ManagedCertificateFilter) Matches(c ManagedCertificate) bool {
	if f.Keyword != "" && !matchKeyword(f.Keyword, c) {
		return false
	}
	if f.StorePath != "" && !strings.EqualFold(f.StorePath, c.StorePath) {
		return false
	}
	if len(f.IDs) > 0 && !containsString(f.IDs, c.ID) {
		return false
	}
	if f.IncludeOnlyExpiring {
		if c.DateExpiry.IsZero() || !c.DateExpiry.Before(f.ExpiringBefore) {
			return false
		}
	}
	return true
}

// IsEmpty reports whether no selection field is populated.
func (f ManagedCertificateFilter) IsEmpty() bool {
	return f.Keyword == "" && f.StorePath == "" && len(f.IDs) == 0 && !f.IncludeOnlyExpiring && f.MaxResults == 0
}

func matchKeyword(keyword string, c ManagedCertificate) bool {
	candidates := append([]string{c.Name}, c.Domains...)
	if strings.ContainsAny(keyword, "*?[") {
		pattern := strings.ToLower(keyword)
		for _, s := range candidates {
			// A malformed pattern matches nothing.
			if ok, err := path.Match(pattern, strings.ToLower(s)); err == nil && ok {
				return true
			}
		}
		return false
	}
	kw := strings.ToLower(keyword)
	for _, s := range candidates {
		if strings.Contains(strings.ToLower(s), kw) {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
