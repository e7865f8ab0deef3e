// Copyright (c) 2026 ToeiRei
// Certmigrate - managed certificate configuration migration
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/toeirei/certmigrate/internal/db"
	"github.com/toeirei/certmigrate/internal/i18n"
	"github.com/toeirei/certmigrate/internal/logging"
	"github.com/toeirei/certmigrate/internal/migration"
	"github.com/toeirei/certmigrate/internal/model"
	"github.com/toeirei/certmigrate/internal/report"
)

type importOptions struct {
	policy        string
	policyFor     []string
	importSecrets bool
	passphrase    string
	storePath     string
	apply         bool
	yes           bool
	markdown      string
}

// errImportNotReady is returned when --apply meets a preview with errors.
var errImportNotReady = errors.New("import preview contains errors")

func newImportCmd() *cobra.Command {
	var opts importOptions
	cmd := &cobra.Command{
		Use:   "import <package-file>",
		Short: "Preview and optionally apply an exported package",
		Long: `Loads a package written by 'certmigrate export' and shows what importing it
would change: which entities are created, updated, skipped or cannot be
imported. Nothing is written unless --apply is given, the preview has no
errors and the import is confirmed (or --yes is passed).

Existing entities follow the conflict policy: 'skip' (default) keeps them,
'overwrite' replaces differing fields and 'merge' only fills fields that are
empty. Policies can be set per kind with --policy-for, e.g.
--policy-for ca_account=overwrite.

Use '-' to read the package from standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.policy, "policy", "", "Conflict policy for existing entities: skip, overwrite or merge (defaults to import.policy)")
	f.StringArrayVar(&opts.policyFor, "policy-for", nil, "Conflict policy for one kind, as kind=policy (repeatable)")
	f.BoolVar(&opts.importSecrets, "import-secrets", false, "Open sealed secrets from the package (requires a passphrase)")
	f.StringVar(&opts.passphrase, "passphrase", "", "Passphrase used to open sealed secrets (or CERTMIGRATE_PASSPHRASE)")
	f.StringVar(&opts.storePath, "store-path", "", "Replace the store path of every imported certificate")
	f.BoolVar(&opts.apply, "apply", false, "Perform the import after a successful preview")
	f.BoolVarP(&opts.yes, "yes", "y", false, "Do not ask for confirmation")
	f.StringVar(&opts.markdown, "markdown", "", "Also write the report as markdown to this file")
	return cmd
}

// importSettingsFrom builds the settings for one run from flags and config.
func importSettingsFrom(cmd *cobra.Command, opts importOptions) (model.ImportSettings, error) {
	policy := opts.policy
	if policy == "" {
		policy = appConfig.Import.Policy
	}
	settings := model.ImportSettings{StorePathOverride: opts.storePath}
	if policy != "" {
		p, err := model.ParseConflictPolicy(policy)
		if err != nil {
			return settings, errors.New(i18n.T("import.cli_error_policy", err))
		}
		settings.DefaultPolicy = p
	}
	policies, err := parsePolicyFor(opts.policyFor)
	if err != nil {
		return settings, errors.New(i18n.T("import.cli_error_policy", err))
	}
	settings.Policies = policies

	if opts.importSecrets {
		pass, err := readPassphrase(cmd, opts.passphrase)
		if err != nil {
			return settings, err
		}
		if pass == "" {
			return settings, errors.New(i18n.T("passphrase.required_import"))
		}
		settings.ImportSecrets = true
		settings.EncryptionSecret = pass
	}
	return settings, nil
}

// parsePolicyFor parses repeated kind=policy values.
func parsePolicyFor(values []string) (map[model.EntityKind]model.ConflictPolicy, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make(map[model.EntityKind]model.ConflictPolicy, len(values))
	for _, v := range values {
		kind, policy, ok := strings.Cut(v, "=")
		if !ok {
			return nil, fmt.Errorf("expected kind=policy, got %q", v)
		}
		k := model.EntityKind(strings.ToLower(strings.TrimSpace(kind)))
		if !k.Valid() {
			return nil, fmt.Errorf("unknown kind %q", kind)
		}
		p, err := model.ParseConflictPolicy(policy)
		if err != nil {
			return nil, err
		}
		out[k] = p
	}
	return out, nil
}

func runImport(cmd *cobra.Command, path string, opts importOptions) error {
	data, err := readPackageFile(cmd, path)
	if err != nil {
		return errors.New(i18n.T("import.cli_error_read", err))
	}
	pkg, err := migration.LoadPackage(data)
	if err != nil {
		return errors.New(i18n.T("import.cli_error_load", err))
	}
	settings, err := importSettingsFrom(cmd, opts)
	if err != nil {
		return err
	}

	return withStore(func(store *db.BunStore) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		ui, err := store.GetUISettings(ctx)
		if err != nil {
			logging.Warnf("reading UI settings: %v", err)
		}
		theme := report.ThemeFor(ui)
		intro := report.ImportIntro(pkg)

		steps, ready, err := migration.Plan(ctx, pkg, store, settings, true)
		if err != nil {
			return errors.New(i18n.T("import.cli_error_plan", err))
		}
		rep := report.BuildReport(report.PreviewTitle(true), intro, steps)
		_, _ = fmt.Fprint(out, report.Terminal(rep, theme))

		if !opts.apply {
			if err := writeMarkdown(cmd, opts.markdown, rep); err != nil {
				return err
			}
			if ready {
				_, _ = fmt.Fprintln(out, "\n"+i18n.T("import.ready"))
			} else {
				_, _ = fmt.Fprintln(out, "\n"+i18n.T("import.not_ready"))
			}
			return nil
		}

		if !ready {
			_ = writeMarkdown(cmd, opts.markdown, rep)
			_, _ = fmt.Fprintln(out, "\n"+i18n.T("import.not_ready"))
			return errImportNotReady
		}

		if !opts.yes {
			if !stdinIsTerminal() {
				return errors.New(i18n.T("import.non_interactive"))
			}
			_, _ = fmt.Fprintln(out)
			if !isYes(promptForConfirmation(cmd, i18n.T("import.confirm"))) {
				_, _ = fmt.Fprintln(out, i18n.T("import.aborted"))
				return nil
			}
		}

		results, ok, err := migration.Plan(ctx, pkg, store, settings, false)
		if err != nil {
			var conflict *migration.ConflictError
			if errors.As(err, &conflict) {
				return errors.New(i18n.T("import.busy", err))
			}
			return errors.New(i18n.T("import.cli_error_plan", err))
		}
		rep = report.BuildReport(report.PreviewTitle(false), intro, results)
		_, _ = fmt.Fprint(out, "\n"+report.Terminal(rep, theme))
		if err := writeMarkdown(cmd, opts.markdown, rep); err != nil {
			return err
		}

		counts := model.CountByCategory(results)
		logging.Infof("import from %q finished: %d step(s), %d error(s), %d cancelled", pkg.SourceName, len(results), counts[model.CategoryError], counts[model.CategoryCancelled])
		if !ok {
			_, _ = fmt.Fprintln(out, "\n"+i18n.T("import.completed_with_errors"))
			return errors.New(i18n.T("import.completed_with_errors"))
		}
		_, _ = fmt.Fprintln(out, "\n"+i18n.T("import.success"))
		return nil
	})
}

func writeMarkdown(cmd *cobra.Command, path string, rep report.Report) error {
	if path == "" {
		return nil
	}
	if err := os.WriteFile(path, []byte(report.Markdown(rep)), 0o644); err != nil {
		return fmt.Errorf("write markdown report: %w", err)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), i18n.T("import.markdown_written", path))
	return nil
}
