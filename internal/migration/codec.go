// Copyright (c) 2026 ToeiRei
// Certmigrate - managed certificate configuration migration
// This source code is licensed under the MIT license found in the LICENSE file.

package migration

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/klauspost/compress/zstd"
	"github.com/toeirei/certmigrate/internal/model"
)

// zstdMagic starts every zstd frame.
var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

var validate = validator.New()

// EncodeOptions controls the byte form of a package.
type EncodeOptions struct {
	// Compress wraps the JSON document in a zstd frame.
	Compress bool
	// Indent pretty-prints the JSON document.
	Indent bool
}

// EncodePackage returns the byte form of pkg.
func EncodePackage(pkg *model.Package, opts EncodeOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := WritePackage(&buf, pkg, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WritePackage streams the byte form of pkg to w.
func WritePackage(w io.Writer, pkg *model.Package, opts EncodeOptions) error {
	if pkg == nil {
		return errors.New("encode package: nil package")
	}
	out := w
	var zw *zstd.Encoder
	if opts.Compress {
		var err error
		zw, err = zstd.NewWriter(w)
		if err != nil {
			return fmt.Errorf("create zstd writer: %w", err)
		}
		out = zw
	}
	enc := json.NewEncoder(out)
	if opts.Indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(pkg); err != nil {
		if zw != nil {
			_ = zw.Close()
		}
		return fmt.Errorf("encode package: %w", err)
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			return fmt.Errorf("close zstd writer: %w", err)
		}
	}
	return nil
}

// LoadPackage parses plain or zstd-compressed package bytes. It returns
// *DecodeError for malformed input and *UnsupportedVersionError for format
// versions outside the supported range; on error no package is returned.
func LoadPackage(data []byte) (*model.Package, error) {
	if bytes.HasPrefix(data, zstdMagic) {
		zr, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("create zstd reader: %w", err)
		}
		plain, err := zr.DecodeAll(data, nil)
		zr.Close()
		if err != nil {
			return nil, &DecodeError{Err: fmt.Errorf("decompress: %w", err)}
		}
		data = plain
	}

	// The version is checked before the content so that packages from newer
	// builds report their version rather than a decode failure.
	var head struct {
		FormatVersion *int `json:"format_version"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if head.FormatVersion == nil {
		return nil, &DecodeError{Err: errors.New("missing format_version")}
	}
	if v := *head.FormatVersion; v > model.CurrentFormatVersion || v < model.MinFormatVersion {
		return nil, &UnsupportedVersionError{Version: v, Supported: model.CurrentFormatVersion}
	}

	var pkg model.Package
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if err := checkPackage(&pkg); err != nil {
		return nil, &DecodeError{Err: err}
	}
	return &pkg, nil
}

func checkPackage(pkg *model.Package) error {
	seen := make(map[model.EntityRef]bool, len(pkg.Content))
	for i, entry := range pkg.Content {
		ref := model.RefOf(entry.Entity)
		if seen[ref] {
			return fmt.Errorf("entry %d: duplicate entity %s", i, ref)
		}
		seen[ref] = true
		if err := validate.Struct(entry.Entity); err != nil {
			return fmt.Errorf("entry %d (%s): %w", i, ref, err)
		}
		if len(entry.Secrets) > 0 && pkg.FormatVersion < 2 {
			return fmt.Errorf("entry %d (%s): format version %d cannot carry secrets", i, ref, pkg.FormatVersion)
		}
		for field := range entry.Secrets {
			if !isSecretField(entry.Entity, field) {
				return fmt.Errorf("entry %d (%s): %q is not a secret field", i, ref, field)
			}
		}
	}
	return nil
}
