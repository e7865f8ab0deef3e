// Copyright (c) 2026 ToeiRei
// Certmigrate - managed certificate configuration migration
// This source code is licensed under the MIT license found in the LICENSE file.

// debug_export seeds an in-memory installation, exports it and previews the
// package against a second, empty installation. It prints the package and
// the preview so the export and planning paths can be inspected end to end
// without touching a real database.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/toeirei/certmigrate/internal/db"
	"github.com/toeirei/certmigrate/internal/i18n"
	"github.com/toeirei/certmigrate/internal/migration"
	"github.com/toeirei/certmigrate/internal/model"
	"github.com/toeirei/certmigrate/internal/report"
)

func main() {
	if err := run(context.Background(), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "debug_export: %v\n", err)
		os.Exit(1)
	}
}

func demoEntities() []model.Entity {
	return []model.Entity{
		model.CAAccount{ID: "acct-le", Title: "Let's Encrypt", CAName: "letsencrypt", Email: "ops@example.com"},
		model.StoredCredential{ID: "cred-dns", Title: "DNS API token", ProviderType: "cloudflare"},
		model.NotificationTarget{ID: "notify-ops", Title: "Ops mailbox", TargetType: "email", Endpoint: "ops@example.com", OnlyOnError: true},
		model.ManagedCertificate{
			ID: "cert-shop", Name: "shop", Domains: []string{"shop.example.com", "www.shop.example.com"},
			StorePath: "/stores/web", CAAccountID: "acct-le", CredentialID: "cred-dns", NotificationTargetID: "notify-ops",
			RenewalIntervalDays: 30, DateExpiry: time.Now().AddDate(0, 0, 20).UTC().Truncate(time.Second),
		},
		model.ManagedCertificate{
			ID: "cert-mail", Name: "mail", Domains: []string{"mail.example.com"},
			StorePath: "/stores/mail", CAAccountID: "acct-le", RenewalIntervalDays: 60,
		},
		model.ManagedCertificate{ID: "cert-old", Name: "legacy", Domains: []string{"old.example.com"}, Disabled: true},
	}
}

func openMemoryStore(name string) (*db.BunStore, error) {
	return db.NewStoreFromDSN("sqlite", fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano()))
}

func run(ctx context.Context, out io.Writer) error {
	i18n.Init("en")

	source, err := openMemoryStore("debug_source")
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer func() { _ = source.Close() }()
	for _, e := range demoEntities() {
		if err := source.CreateEntity(ctx, e); err != nil {
			return fmt.Errorf("seed %s: %w", model.RefOf(e), err)
		}
	}
	certs, err := source.ListManagedCertificates(ctx, model.ManagedCertificateFilter{})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "source certificates: %d\n", len(certs))
	for _, c := range certs {
		fmt.Fprintf(out, "certificate: %s\n", c)
	}

	pkg, err := migration.BuildPackage(ctx, source, model.ManagedCertificateFilter{}, model.ExportSettings{SourceName: "debug-source"})
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	fmt.Fprintf(out, "package entries: %d\n", len(pkg.Content))
	if err := migration.WritePackage(out, pkg, migration.EncodeOptions{Indent: true}); err != nil {
		return err
	}

	target, err := openMemoryStore("debug_target")
	if err != nil {
		return fmt.Errorf("open target: %w", err)
	}
	defer func() { _ = target.Close() }()
	steps, ready, err := migration.Plan(ctx, pkg, target, model.ImportSettings{}, true)
	if err != nil {
		return fmt.Errorf("plan: %w", err)
	}
	fmt.Fprintf(out, "preview steps: %d (ready %t)\n", len(steps), ready)
	fmt.Fprint(out, report.Markdown(report.BuildReport(report.PreviewTitle(true), report.ImportIntro(pkg), steps)))
	return nil
}
