// Copyright (c) 2026 ToeiRei
// Certmigrate - managed certificate configuration migration
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/toeirei/certmigrate/internal/db"
	"github.com/toeirei/certmigrate/internal/i18n"
)

func newThemeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "theme [light|dark]",
		Short: "Show or set the stored UI theme",
		Long: `Without an argument prints the UI theme stored in the database. With an
argument stores it. The theme travels with exported packages and selects the
palette used for import reports.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(store *db.BunStore) error {
				ctx := cmd.Context()
				settings, err := store.GetUISettings(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(args) == 0 {
					current := settings.UITheme
					if current == "" {
						current = "light"
					}
					_, _ = fmt.Fprintln(out, i18n.T("theme.current", current))
					return nil
				}
				name := strings.ToLower(strings.TrimSpace(args[0]))
				if name != "light" && name != "dark" {
					return errors.New(i18n.T("theme.invalid", args[0]))
				}
				settings.UITheme = name
				if err := store.SaveUISettings(ctx, settings); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(out, i18n.T("theme.updated", name))
				return nil
			})
		},
	}
}
