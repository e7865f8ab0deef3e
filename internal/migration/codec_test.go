package migration_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/toeirei/certmigrate/internal/migration"
	"github.com/toeirei/certmigrate/internal/model"
)

func TestEncodeLoadPlainAndCompressed(t *testing.T) {
	pkg := newPackage(caAccount(), certificate("c1", "shop"))
	pkg.AppVersion = "1.0.0"
	pkg.UITheme = "dark"

	for _, opts := range []migration.EncodeOptions{{}, {Indent: true}, {Compress: true}, {Compress: true, Indent: true}} {
		data, err := migration.EncodePackage(pkg, opts)
		if err != nil {
			t.Fatalf("EncodePackage(%+v) failed: %v", opts, err)
		}
		if opts.Compress == (len(data) > 0 && data[0] == '{') {
			t.Fatalf("unexpected framing for %+v: %q", opts, data[:8])
		}
		got, err := migration.LoadPackage(data)
		if err != nil {
			t.Fatalf("LoadPackage(%+v) failed: %v", opts, err)
		}
		if got.SourceName != "install-A" || got.AppVersion != "1.0.0" || got.UITheme != "dark" || !got.ExportDate.Equal(exportTime) {
			t.Fatalf("metadata mismatch: %+v", got)
		}
		if len(got.Content) != 2 || got.Content[1].Kind != model.KindManagedCertificate {
			t.Fatalf("content mismatch: %+v", got.Content)
		}
		cert := got.Content[1].Entity.(model.ManagedCertificate)
		if cert.Domains[0] != "shop.example.com" || cert.CAAccountID != "a1" {
			t.Fatalf("certificate mismatch: %+v", cert)
		}
	}
}

func TestWritePackageStreams(t *testing.T) {
	var buf bytes.Buffer
	if err := migration.WritePackage(&buf, newPackage(credential()), migration.EncodeOptions{Indent: true}); err != nil {
		t.Fatalf("WritePackage failed: %v", err)
	}
	if !strings.Contains(buf.String(), "\n  \"format_version\": 2") {
		t.Fatalf("expected indented json, got %s", buf.String())
	}
	if err := migration.WritePackage(&buf, nil, migration.EncodeOptions{}); err == nil {
		t.Fatalf("expected error for nil package")
	}
}

func TestLoadPackageUnsupportedVersion(t *testing.T) {
	for _, v := range []string{"3", "0"} {
		_, err := migration.LoadPackage([]byte(`{"format_version":` + v + `,"source_name":"x","content":[{"kind":"spaceship","item":{}}]}`))
		var uv *migration.UnsupportedVersionError
		if !errors.As(err, &uv) {
			t.Fatalf("version %s: expected UnsupportedVersionError, got %T %v", v, err, err)
		}
		if uv.Supported != model.CurrentFormatVersion {
			t.Fatalf("unexpected supported version: %d", uv.Supported)
		}
	}
}

func TestLoadPackageDecodeErrors(t *testing.T) {
	cases := map[string]string{
		"not json":          `this is not a package`,
		"missing version":   `{"source_name":"x","content":[]}`,
		"unknown kind":      `{"format_version":2,"content":[{"kind":"dns_zone","item":{"id":"z"}}]}`,
		"wrong field type":  `{"format_version":2,"content":[{"kind":"managed_certificate","item":{"id":"c1","name":"x","domains":"a.example.com"}}]}`,
		"validation":        `{"format_version":2,"content":[{"kind":"managed_certificate","item":{"id":"c1","name":"x","domains":[]}}]}`,
		"missing identity":  `{"format_version":2,"content":[{"kind":"credential","item":{"title":"t","provider_type":"p"}}]}`,
		"bad email":         `{"format_version":2,"content":[{"kind":"ca_account","item":{"id":"a","title":"t","ca_name":"c","email":"nope"}}]}`,
		"duplicate entity":  `{"format_version":2,"content":[{"kind":"credential","item":{"id":"k","title":"t","provider_type":"p"}},{"kind":"credential","item":{"id":"k","title":"t","provider_type":"p"}}]}`,
		"v1 with secrets":   `{"format_version":1,"content":[{"kind":"credential","item":{"id":"k","title":"t","provider_type":"p"},"secrets":{"Secret":"v1:x"}}]}`,
		"non secret sealed": `{"format_version":2,"content":[{"kind":"credential","item":{"id":"k","title":"t","provider_type":"p"},"secrets":{"Title":"v1:x"}}]}`,
		"corrupt zstd":      "\x28\xb5\x2f\xfd garbage",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			pkg, err := migration.LoadPackage([]byte(input))
			var de *migration.DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("expected DecodeError, got %T %v", err, err)
			}
			if pkg != nil {
				t.Fatalf("expected no package on failure")
			}
		})
	}
}

func TestLoadPackageAcceptsVersionOne(t *testing.T) {
	pkg, err := migration.LoadPackage([]byte(`{"format_version":1,"source_name":"old","content":[{"kind":"notification_target","item":{"id":"n","title":"t","target_type":"email"}}]}`))
	if err != nil {
		t.Fatalf("LoadPackage failed: %v", err)
	}
	if pkg.FormatVersion != 1 || len(pkg.Content) != 1 {
		t.Fatalf("unexpected package: %+v", pkg)
	}
}
