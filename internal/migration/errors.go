// Copyright (c) 2026 ToeiRei
// Certmigrate - managed certificate configuration migration
// This source code is licensed under the MIT license found in the LICENSE file.

package migration

import (
	"fmt"
	"time"

	"github.com/toeirei/certmigrate/internal/model"
)

// DecodeError reports a malformed package. Nothing of the package is usable.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "malformed package: " + e.Err.Error() }
func (e *DecodeError) Unwrap() error { return e.Err }

// UnsupportedVersionError reports a package whose format version this build
// cannot read.
type UnsupportedVersionError struct {
	Version   int
	Supported int
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("package format version %d is not supported (supported: %d to %d)", e.Version, model.MinFormatVersion, e.Supported)
}

// ConflictError is returned when a mutating import is started while another
// one holds the store's import lock. The import has not started.
type ConflictError struct {
	Holder string
	Since  time.Time
	Err    error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("another import is running (held by %s since %s)", e.Holder, e.Since.Format(time.RFC3339))
}

func (e *ConflictError) Unwrap() error { return e.Err }
