package migration_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/toeirei/certmigrate/internal/migration"
	"github.com/toeirei/certmigrate/internal/model"
)

func TestApplyPreviewedPlan(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	pkg := newPackage(caAccount(), credential(), notificationTarget(), certificate("c1", "shop"))

	preview, ready, err := migration.Plan(ctx, pkg, s, model.ImportSettings{}, true)
	if err != nil || !ready {
		t.Fatalf("preview failed: %v ready=%v", err, ready)
	}
	snapshot := model.CopySteps(preview)

	result, err := migration.Apply(ctx, preview, s)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if !reflect.DeepEqual(preview, snapshot) {
		t.Fatalf("Apply modified its input")
	}
	if !model.AllSucceeded(result) || len(result) != len(preview) {
		t.Fatalf("unexpected result: %+v", result)
	}
	for i := range result {
		if result[i].ID != preview[i].ID {
			t.Fatalf("step identity changed at %d: %q vs %q", i, result[i].ID, preview[i].ID)
		}
	}
	if mustGet(t, s, model.EntityRef{Kind: model.KindManagedCertificate, ID: "c1"}) == nil {
		t.Fatalf("certificate not created")
	}

	// The plan is not re-derived: applying it again fails on the existing rows.
	again, err := migration.Apply(ctx, preview, s)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if model.AllSucceeded(again) {
		t.Fatalf("expected duplicate creates to fail")
	}
}

func TestApplyNilStore(t *testing.T) {
	steps := []model.ActionStep{{ID: "ca_account/a1", Category: model.CategoryCreateCAAccount}}
	if _, err := migration.Apply(context.Background(), steps, nil); err == nil {
		t.Fatalf("expected error for nil store")
	}
}

func TestApplyPropagatesFailures(t *testing.T) {
	base := newStore(t)
	ctx := context.Background()
	independent := model.NotificationTarget{ID: "n9", Title: "other", TargetType: "webhook"}
	pkg := newPackage(caAccount(), credential(), notificationTarget(), certificate("c1", "shop"), independent)

	preview, _, err := migration.Plan(ctx, pkg, base, model.ImportSettings{}, true)
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	s := &failingStore{Store: base, fail: map[string]bool{"k1": true}}
	result, err := migration.Apply(ctx, preview, s)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	cred := findStep(t, result, "credential/k1")
	if !cred.HasError || cred.Description != "create failed: disk full" {
		t.Fatalf("unexpected failed step: %+v", cred)
	}
	cert := findStep(t, result, "managed_certificate/c1")
	if cert.Category != model.CategoryError || cert.Description != "dependency credential/k1 failed to import" {
		t.Fatalf("dependent not blocked: %+v", cert)
	}
	if mustGet(t, base, model.EntityRef{Kind: model.KindManagedCertificate, ID: "c1"}) != nil {
		t.Fatalf("blocked certificate was written")
	}
	if mustGet(t, base, model.RefOf(caAccount())) == nil || mustGet(t, base, model.RefOf(independent)) == nil {
		t.Fatalf("independent steps must be applied")
	}
}

func TestApplyPassesThroughNonMutatingSteps(t *testing.T) {
	s := newStore(t)
	steps := []model.ActionStep{
		{ID: "x/info", Title: "info", Category: model.CategoryInfo},
		{ID: "x/skip", Title: "skip", Category: model.CategorySkipExisting, Description: "kept"},
		{ID: "x/err", Title: "err", Category: model.CategoryError, HasError: true, Description: "broken"},
	}
	result, err := migration.Apply(context.Background(), steps, s)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if !reflect.DeepEqual(result, steps) {
		t.Fatalf("non-mutating steps changed: %+v", result)
	}
}

func TestApplyCancelledBetweenSteps(t *testing.T) {
	base := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	first := model.NotificationTarget{ID: "n1", Title: "one", TargetType: "webhook"}
	second := model.NotificationTarget{ID: "n2", Title: "two", TargetType: "webhook"}

	preview, _, err := migration.Plan(context.Background(), newPackage(first, second), base, model.ImportSettings{}, true)
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	result, err := migration.Apply(ctx, preview, &cancellingStore{Store: base, cancel: cancel})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if result[0].HasError || mustGet(t, base, model.RefOf(first)) == nil {
		t.Fatalf("first step should stay applied: %+v", result[0])
	}
	if result[1].Category != model.CategoryCancelled || !result[1].HasError || result[1].Description == "" {
		t.Fatalf("second step should be cancelled: %+v", result[1])
	}
	if mustGet(t, base, model.RefOf(second)) != nil {
		t.Fatalf("cancelled step was written")
	}
}

func TestApplyConflictWhileLocked(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	release, err := s.AcquireImportLock(ctx, "someone-else")
	if err != nil {
		t.Fatalf("AcquireImportLock failed: %v", err)
	}
	defer func() { _ = release(ctx) }()

	_, err = migration.Apply(ctx, nil, s)
	var ce *migration.ConflictError
	if !errors.As(err, &ce) || ce.Holder != "someone-else" {
		t.Fatalf("expected ConflictError, got %v", err)
	}
}
