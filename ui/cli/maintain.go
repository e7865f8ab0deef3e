// Copyright (c) 2026 ToeiRei
// Certmigrate - managed certificate configuration migration
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/toeirei/certmigrate/internal/db"
	"github.com/toeirei/certmigrate/internal/i18n"
)

// runDBMaintenance is a package-level variable so tests can stub it.
var runDBMaintenance = db.RunDBMaintenance

func newDBMaintainCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "db-maintain",
		Short: "Run database maintenance (VACUUM/OPTIMIZE) for the configured DB",
		Long:  `Runs engine-specific maintenance tasks (VACUUM, OPTIMIZE TABLE, PRAGMA optimize).`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, i18n.T("maintain.starting", appConfig.Database.Type))
			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			if err := runDBMaintenance(ctx, appConfig.Database.Type, appConfig.Database.Dsn); err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					return errors.New(i18n.T("maintain.timeout", timeout))
				}
				return errors.New(i18n.T("maintain.failed", err))
			}
			_, _ = fmt.Fprintln(out, i18n.T("maintain.success"))
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Timeout for maintenance (0 means no timeout)")
	return cmd
}
