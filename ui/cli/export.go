// Copyright (c) 2026 ToeiRei
// Certmigrate - managed certificate configuration migration
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/toeirei/certmigrate/internal/db"
	"github.com/toeirei/certmigrate/internal/i18n"
	"github.com/toeirei/certmigrate/internal/logging"
	"github.com/toeirei/certmigrate/internal/migration"
	"github.com/toeirei/certmigrate/internal/model"
)

type exportOptions struct {
	name            string
	storePath       string
	ids             []string
	max             int
	expiringWithin  time.Duration
	includeDisabled bool
	includeSecrets  bool
	passphrase      string
	anonymize       bool
	compress        bool
	sourceName      string
}

// now is the wall clock used for default file names and expiry filters.
var now = time.Now

func newExportCmd() *cobra.Command {
	var opts exportOptions
	cmd := &cobra.Command{
		Use:   "export [output-file]",
		Short: "Export managed certificates and their dependencies to a package",
		Long: `Exports the selected managed certificates, and every CA account, stored
credential and notification target they reference, into a JSON package.

If no output file is given, 'certmigrate_export_YYYYMMDD.json' is used. With
--compress the package is Zstandard-compressed and '.zst' is appended. Use
'-' to write the package to standard output.

Secrets are only exported with --include-secrets; they are sealed with the
passphrase and never written in clear text.

Examples:
  # Export everything
  certmigrate export

  # Export certificates for one store path, expiring within 30 days
  certmigrate export --store-path /srv/iis --expiring-within 720h shop.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.name, "name", "", "Only certificates whose name or domains match (substring or glob)")
	f.StringVar(&opts.storePath, "store-path", "", "Only certificates with this store path")
	f.StringArrayVar(&opts.ids, "id", nil, "Only the certificate with this id (repeatable)")
	f.IntVar(&opts.max, "max", 0, "Maximum number of certificates to export (0 means unlimited)")
	f.DurationVar(&opts.expiringWithin, "expiring-within", 0, "Only certificates expiring within this duration")
	f.BoolVar(&opts.includeDisabled, "include-disabled", false, "Also export disabled certificates")
	f.BoolVar(&opts.includeSecrets, "include-secrets", false, "Seal secrets into the package (requires a passphrase)")
	f.StringVar(&opts.passphrase, "passphrase", "", "Passphrase used to seal secrets (or CERTMIGRATE_PASSPHRASE)")
	f.BoolVar(&opts.anonymize, "anonymize", false, "Remove contact details (emails, endpoints, comments)")
	f.BoolVar(&opts.compress, "compress", false, "Compress the package with zstd")
	f.StringVar(&opts.sourceName, "source-name", "", "Name identifying this installation (defaults to source.name)")
	return cmd
}

func runExport(cmd *cobra.Command, args []string, opts exportOptions) error {
	if opts.max < 0 {
		return errors.New(i18n.T("export.cli_error_filter", "--max must not be negative"))
	}

	settings := model.ExportSettings{
		SourceName:      opts.sourceName,
		IncludeSecrets:  opts.includeSecrets,
		IncludeDisabled: opts.includeDisabled,
		Anonymize:       opts.anonymize,
	}
	if settings.SourceName == "" {
		settings.SourceName = appConfig.Source.Name
	}
	if opts.includeSecrets {
		pass, err := readPassphrase(cmd, opts.passphrase)
		if err != nil {
			return err
		}
		if pass == "" {
			return errors.New(i18n.T("export.passphrase_required"))
		}
		settings.EncryptionSecret = pass
	}

	filter := model.ManagedCertificateFilter{
		Keyword:    opts.name,
		StorePath:  opts.storePath,
		IDs:        opts.ids,
		MaxResults: opts.max,
	}
	if opts.expiringWithin > 0 {
		filter = filter.ExpiringWithin(now(), opts.expiringWithin)
	}
	if filter.IsEmpty() {
		logging.Debugf("export: no filter given, exporting every certificate")
	}

	outputFile := exportFileName(args, opts.compress)
	out := cmd.OutOrStdout()
	status := out
	if outputFile == "-" {
		status = cmd.ErrOrStderr()
	}
	_, _ = fmt.Fprintln(status, i18n.T("export.cli_starting"))

	var pkg *model.Package
	err := withStore(func(store *db.BunStore) error {
		var err error
		pkg, err = migration.BuildPackage(cmd.Context(), store, filter, settings)
		return err
	})
	if err != nil {
		return errors.New(i18n.T("export.cli_error_build", err))
	}

	enc := migration.EncodeOptions{Compress: opts.compress, Indent: true}
	if outputFile == "-" {
		if err := migration.WritePackage(out, pkg, enc); err != nil {
			return errors.New(i18n.T("export.cli_error_write", err))
		}
	} else if err := writePackageFile(outputFile, pkg, enc); err != nil {
		return errors.New(i18n.T("export.cli_error_write", err))
	}

	certs := pkg.Count(model.KindManagedCertificate)
	logging.Debugf("export: wrote %d entries to %s", len(pkg.Content), outputFile)
	_, _ = fmt.Fprintln(status, i18n.T("export.cli_summary", certs, len(pkg.Content)-certs, pkg.SourceName))
	_, _ = fmt.Fprintln(status, i18n.T("export.cli_success", outputFile))
	return nil
}

// exportFileName picks the output path. Compressed packages always end in
// ".zst".
func exportFileName(args []string, compress bool) string {
	name := fmt.Sprintf("certmigrate_export_%s.json", now().Format("20060102"))
	if len(args) > 0 && args[0] != "" {
		name = args[0]
	}
	if name == "-" {
		return name
	}
	if compress && !strings.HasSuffix(name, ".zst") {
		name += ".zst"
	}
	return name
}

func writePackageFile(path string, pkg *model.Package, opts migration.EncodeOptions) (err error) {
	// 0600: the package may carry sealed secrets and contact details.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("could not create file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return migration.WritePackage(f, pkg, opts)
}

// readPackageFile reads a package from path, or from stdin for "-".
func readPackageFile(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}
