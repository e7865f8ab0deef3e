package migration_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/toeirei/certmigrate/internal/db"
	"github.com/toeirei/certmigrate/internal/migration"
	"github.com/toeirei/certmigrate/internal/model"
)

var exportTime = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func useFixedClock(t *testing.T) {
	t.Helper()
	migration.SetClock(fixedClock{t: exportTime})
	t.Cleanup(migration.ResetClock)
}

// newStore opens an in-memory sqlite store private to the calling test.
func newStore(t *testing.T) *db.BunStore {
	t.Helper()
	s, err := db.NewStoreFromDSN("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("NewStoreFromDSN failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seed(t *testing.T, s db.Store, entities ...model.Entity) {
	t.Helper()
	for _, e := range entities {
		if err := s.CreateEntity(context.Background(), e); err != nil {
			t.Fatalf("seed %s: %v", model.RefOf(e), err)
		}
	}
}

func mustGet(t *testing.T, s db.Reader, ref model.EntityRef) model.Entity {
	t.Helper()
	e, err := s.GetEntity(context.Background(), ref)
	if err != nil {
		t.Fatalf("GetEntity(%s) failed: %v", ref, err)
	}
	return e
}

func entry(e model.Entity) model.PackageEntry {
	return model.PackageEntry{Kind: e.Kind(), Entity: e}
}

func newPackage(entities ...model.Entity) *model.Package {
	pkg := &model.Package{
		FormatVersion: model.CurrentFormatVersion,
		SourceName:    "install-A",
		ExportDate:    exportTime,
	}
	for _, e := range entities {
		pkg.Content = append(pkg.Content, entry(e))
	}
	return pkg
}

func findStep(t *testing.T, steps []model.ActionStep, id string) model.ActionStep {
	t.Helper()
	for _, s := range steps {
		if s.ID == id {
			return s
		}
	}
	t.Fatalf("no step with id %q in %+v", id, steps)
	return model.ActionStep{}
}

// countingStore records every write that reaches the wrapped store.
type countingStore struct {
	db.Store
	mu     sync.Mutex
	writes int
}

func (s *countingStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *countingStore) CreateEntity(ctx context.Context, e model.Entity) error {
	s.mu.Lock()
	s.writes++
	s.mu.Unlock()
	return s.Store.CreateEntity(ctx, e)
}

func (s *countingStore) UpdateEntity(ctx context.Context, e model.Entity) error {
	s.mu.Lock()
	s.writes++
	s.mu.Unlock()
	return s.Store.UpdateEntity(ctx, e)
}

func (s *countingStore) SaveUISettings(ctx context.Context, u model.UISettings) error {
	s.mu.Lock()
	s.writes++
	s.mu.Unlock()
	return s.Store.SaveUISettings(ctx, u)
}

var errDiskFull = errors.New("disk full")

// failingStore rejects writes for the listed identities.
type failingStore struct {
	db.Store
	fail map[string]bool
}

func (s *failingStore) CreateEntity(ctx context.Context, e model.Entity) error {
	if s.fail[e.Identity()] {
		return errDiskFull
	}
	return s.Store.CreateEntity(ctx, e)
}

func (s *failingStore) UpdateEntity(ctx context.Context, e model.Entity) error {
	if s.fail[e.Identity()] {
		return errDiskFull
	}
	return s.Store.UpdateEntity(ctx, e)
}

// cancellingStore cancels the run right after its first successful write.
type cancellingStore struct {
	db.Store
	cancel context.CancelFunc
}

func (s *cancellingStore) CreateEntity(ctx context.Context, e model.Entity) error {
	err := s.Store.CreateEntity(ctx, e)
	s.cancel()
	return err
}

// Fixture entities.

func caAccount() model.CAAccount {
	return model.CAAccount{ID: "a1", Title: "Let's Encrypt", CAName: "letsencrypt", Email: "ops@example.com"}
}

func credential() model.StoredCredential {
	return model.StoredCredential{ID: "k1", Title: "DNS token", ProviderType: "cloudflare"}
}

func notificationTarget() model.NotificationTarget {
	return model.NotificationTarget{ID: "n1", Title: "Ops", TargetType: "email", Endpoint: "ops@example.com"}
}

func certificate(id, name string) model.ManagedCertificate {
	return model.ManagedCertificate{
		ID:                   id,
		Name:                 name,
		Domains:              []string{name + ".example.com"},
		StorePath:            "/stores/web",
		CAAccountID:          "a1",
		CredentialID:         "k1",
		NotificationTargetID: "n1",
		RenewalIntervalDays:  30,
	}
}
