// Copyright (c) 2026 ToeiRei
// Certmigrate - managed certificate configuration migration
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the command-line interface for Certmigrate using the Cobra
// library. It defines the root command, the persistent flags shared by every
// subcommand and the service setup that runs before them.

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/toeirei/certmigrate/buildvars"
	"github.com/toeirei/certmigrate/internal/config"
	"github.com/toeirei/certmigrate/internal/db"
	"github.com/toeirei/certmigrate/internal/i18n"
	"github.com/toeirei/certmigrate/internal/logging"
	"golang.org/x/term"
)

const modulePath = "github.com/toeirei/certmigrate"

var cfgFile string
var verbose bool

var appConfig config.Config

// openStore connects to the configured database. Tests replace it to share
// a store between invocations.
var openStore = func(c config.Config) (*db.BunStore, error) {
	store, err := db.NewStoreFromDSN(c.Database.Type, c.Database.Dsn)
	if err != nil {
		return nil, err
	}
	if c.Import.LockStaleAfter > 0 {
		store.SetLockStaleAfter(c.Import.LockStaleAfter)
	}
	return store, nil
}

// stdinIsTerminal reports whether prompts can be shown.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func setupDefaultServices(cmd *cobra.Command, args []string) error {
	optionalConfigPath, err := getConfigPathFromCli(cmd)
	if err != nil {
		return err
	}

	logging.SetDebug(verbose)
	db.SetDebug(verbose)

	defaults := config.Defaults()
	appConfig, err = config.LoadConfig[config.Config](cmd, defaults, optionalConfigPath)
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		// First run: persist the defaults so users have a file to edit.
		if optionalConfigPath == nil {
			if writeErr := config.WriteConfigFile(&appConfig, false); writeErr != nil {
				logging.Warnf("could not write default config file: %v", writeErr)
			} else if path, pathErr := config.GetConfigPath(false); pathErr == nil {
				logging.Debugf("%s", i18n.T("config.wrote_default", path))
			}
		}
	} else if err != nil {
		return errors.New(i18n.T("config.error_load", err))
	}

	// Empty values in a config file fall back to the defaults.
	if appConfig.Database.Type == "" {
		appConfig.Database.Type = defaults["database.type"].(string)
	}
	if appConfig.Database.Dsn == "" {
		appConfig.Database.Dsn = defaults["database.dsn"].(string)
	}
	if appConfig.Language == "" {
		appConfig.Language = defaults["language"].(string)
	}
	if appConfig.Source.Name == "" {
		appConfig.Source.Name = defaults["source.name"].(string)
	}

	i18n.Init(appConfig.Language)
	logging.Debugf("config: database %s, language %s, source %q", appConfig.Database.Type, appConfig.Language, appConfig.Source.Name)
	return nil
}

func getConfigPathFromCli(cmd *cobra.Command) (*string, error) {
	// Only proceed if the user has explicitly set the --config flag.
	if !cmd.Flags().Changed("config") {
		return nil, nil
	}
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("could not read --config flag: %w", err)
	}
	if path == "" {
		return nil, nil
	}
	// Make sure the user-provided file exists to avoid unwanted behavior.
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file specified via --config flag not found or is not accessible: %w", err)
	}
	return &path, nil
}

// withStore opens the configured store for the duration of fn.
func withStore(fn func(store *db.BunStore) error) error {
	store, err := openStore(appConfig)
	if err != nil {
		return errors.New(i18n.T("config.error_init_db", err))
	}
	logging.Debugf("using %s database", store.DBType())
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logging.Warnf("closing database: %v", cerr)
		}
	}()
	return fn(store)
}

// Execute runs the CLI entrypoint. Interrupts cancel the command's context,
// so an import stops between steps instead of mid-write.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd creates and configures a new root cobra command.
// This function is used to create the main application command as well as
// fresh instances for isolated testing.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "certmigrate",
		Short: "Certmigrate moves managed certificate configuration between installations.",
		Long: `Certmigrate exports managed certificates together with the CA accounts,
stored credentials and notification targets they depend on into a portable
package, and imports such a package into another installation.

Every import is previewed first. Nothing is written until the preview is
free of errors and the import is confirmed.`,
		SilenceUsage:      true,
		PersistentPreRunE: setupDefaultServices,
	}
	cmd.Version = compositeVersion()

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output (debug logging)")
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file")
	cmd.PersistentFlags().String("language", "en", `Output language ("en", "de")`)
	cmd.PersistentFlags().String("database.type", "sqlite", "Database type (sqlite, postgres, mysql)")
	cmd.PersistentFlags().String("database.dsn", "./certmigrate.db", "Database connection string (DSN)")

	cmd.AddCommand(
		newExportCmd(),
		newImportCmd(),
		newThemeCmd(),
		newDBMaintainCmd(),
		newVersionCmd(),
	)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			v, c, d := resolveBuildVersion(nil)
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, i18n.T("version.line", v))
			_, _ = fmt.Fprintf(out, "commit: %s\n", c)
			if d != "" {
				_, _ = fmt.Fprintf(out, "built: %s\n", d)
			}
		},
	}
}

func compositeVersion() string {
	v, c, d := resolveBuildVersion(nil)
	out := v
	if c != "" && c != "dev" {
		out += " (" + c + ")"
	}
	if d != "" {
		out += " built: " + d
	}
	return out
}

// resolveBuildVersion computes the best-available version, commit and build
// date for the running binary. If info is nil, it reads build info from the
// runtime.
func resolveBuildVersion(info *debug.BuildInfo) (versionOut, commitOut, dateOut string) {
	resolvedVersion := buildvars.VersionOrDefault("dev")
	resolvedCommit := buildvars.GitCommit
	if resolvedCommit == "" {
		resolvedCommit = "dev"
	}
	resolvedDate := buildvars.BuildDate

	if info == nil {
		if local, ok := debug.ReadBuildInfo(); ok {
			info = local
		}
	}

	if info != nil {
		if resolvedVersion == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
			resolvedVersion = info.Main.Version
		}
		// Some build paths only record our version as a dependency.
		if resolvedVersion == "dev" {
			for _, dep := range info.Deps {
				if dep != nil && dep.Path == modulePath && dep.Version != "" {
					resolvedVersion = dep.Version
					break
				}
			}
		}
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if s.Value != "" && resolvedCommit == "dev" {
					resolvedCommit = s.Value
				}
			case "vcs.time":
				if s.Value != "" && resolvedDate == "" {
					resolvedDate = s.Value
				}
			}
		}
	}

	// As a last resort show the commit to aid support.
	if resolvedVersion == "dev" && resolvedCommit != "dev" && resolvedCommit != "" {
		resolvedVersion = resolvedCommit
	}
	return resolvedVersion, resolvedCommit, resolvedDate
}
