// Copyright (c) 2026 ToeiRei
// Certmigrate - managed certificate configuration migration
// This source code is licensed under the MIT license found in the LICENSE file.

package migration

import (
	"context"
	"errors"
	"fmt"

	"github.com/toeirei/certmigrate/internal/db"
	"github.com/toeirei/certmigrate/internal/logging"
	"github.com/toeirei/certmigrate/internal/model"
)

// Plan computes the steps that importing pkg into store would take, in
// package order with dependencies planned before their dependents.
//
// With dryRun the store is only read, so previews may run concurrently and
// repeat with identical results. Without dryRun each step is executed right
// after it is planned, under the store's import lock; a concurrent mutating
// import yields *ConflictError before anything is planned.
//
// ready is true iff no step at any depth has an error. Per-entity failures
// are reported in the steps; the error return is for structural problems.
func Plan(ctx context.Context, pkg *model.Package, store db.Store, settings model.ImportSettings, dryRun bool) ([]model.ActionStep, bool, error) {
	if pkg == nil {
		return nil, false, errors.New("plan import: nil package")
	}
	if store == nil {
		return nil, false, errors.New("plan import: nil store")
	}

	p := &planner{
		ctx:      ctx,
		pkg:      pkg,
		store:    store,
		settings: settings,
		entries:  make(map[model.EntityRef]model.PackageEntry, len(pkg.Content)),
		outcome:  make(map[string]bool),
		visiting: make(map[string]bool),
	}
	for _, e := range pkg.Content {
		if e.Entity == nil {
			return nil, false, fmt.Errorf("plan import: entry of kind %q has no entity", e.Kind)
		}
		ref := model.RefOf(e.Entity)
		if _, dup := p.entries[ref]; !dup {
			p.entries[ref] = e
		}
	}

	if !dryRun {
		release, err := acquireImportLock(ctx, store)
		if err != nil {
			return nil, false, err
		}
		defer release()
		p.writer = store
	}

	for _, e := range pkg.Content {
		p.planEntry(e)
	}

	ready := model.AllSucceeded(p.steps)
	logging.Debugf("import: planned %d step(s) from %q (dry run %t, ready %t)", len(p.steps), pkg.SourceName, dryRun, ready)
	return p.steps, ready, nil
}

type planner struct {
	ctx      context.Context
	pkg      *model.Package
	store    db.Reader
	writer   db.Writer // nil while previewing
	settings model.ImportSettings

	entries  map[model.EntityRef]model.PackageEntry
	steps    []model.ActionStep
	outcome  map[string]bool // step ID -> planned without error
	visiting map[string]bool
}

// planEntry plans entry once, after its dependencies, and reports whether
// its step succeeded.
func (p *planner) planEntry(entry model.PackageEntry) bool {
	ref := model.RefOf(entry.Entity)
	id := ref.String()
	if ok, done := p.outcome[id]; done {
		return ok
	}
	p.visiting[id] = true
	defer delete(p.visiting, id)

	var dependsOn []string
	blocked := ""
	for _, dep := range entry.Entity.References() {
		depID := dep.String()
		depEntry, inPackage := p.entries[dep]
		if inPackage {
			dependsOn = append(dependsOn, depID)
		}
		if blocked != "" {
			continue
		}
		switch {
		case inPackage && p.visiting[depID]:
			blocked = fmt.Sprintf("dependency %s failed to import: dependency cycle", depID)
		case inPackage:
			if !p.planEntry(depEntry) {
				blocked = fmt.Sprintf("dependency %s failed to import", depID)
			}
		default:
			live, err := p.store.GetEntity(p.ctx, dep)
			if err != nil {
				blocked = fmt.Sprintf("dependency %s failed to import: %v", depID, err)
			} else if live == nil {
				blocked = fmt.Sprintf("dependency %s failed to import: not in package or store", depID)
			}
		}
	}

	step := p.buildStep(entry, ref, blocked)
	step.DependsOn = dependsOn
	p.execute(&step)

	p.steps = append(p.steps, step)
	p.outcome[id] = !step.HasError
	return !step.HasError
}

func (p *planner) buildStep(entry model.PackageEntry, ref model.EntityRef, blocked string) model.ActionStep {
	label := ref.Kind.Label()
	name := entry.Entity.DisplayName()
	target := ref
	step := model.ActionStep{
		ID:     ref.String(),
		Title:  fmt.Sprintf("%s: %s", label, name),
		Target: &target,
	}

	if err := p.ctx.Err(); err != nil {
		step.Category = model.CategoryCancelled
		step.Fail(fmt.Sprintf("not processed: %v", err))
		return step
	}
	if blocked != "" {
		step.Category = model.CategoryError
		step.Fail(blocked)
		return step
	}

	incoming, err := p.prepare(entry)
	if err != nil {
		step.Category = model.CategoryError
		step.Fail(fmt.Sprintf("cannot import secrets: %v", err))
		return step
	}

	live, err := p.store.GetEntity(p.ctx, ref)
	if err != nil {
		step.Category = model.CategoryError
		step.Fail(fmt.Sprintf("cannot read existing %s: %v", label, err))
		return step
	}

	if live == nil {
		step.Category = model.CreateCategory(ref.Kind)
		step.Title = fmt.Sprintf("Create %s: %s", label, name)
		step.Pending = incoming
		return step
	}

	incoming = keepLiveSecrets(live, incoming)
	differences := len(Diff(live, incoming))
	if differences == 0 {
		step.Category = model.CategoryInfo
		step.Description = "Already up to date"
		return step
	}

	policy := p.settings.PolicyFor(ref.Kind)
	if policy == model.PolicySkip {
		step.Category = model.CategorySkipExisting
		step.Title = fmt.Sprintf("Skip existing %s: %s", label, name)
		step.Description = fmt.Sprintf("%d field(s) differ; existing configuration kept", differences)
		return step
	}

	pending, changes := Resolve(policy, live, incoming)
	if len(changes) == 0 {
		step.Category = model.CategoryInfo
		step.Description = "No empty fields to fill; existing configuration kept"
		return step
	}

	step.Category = model.UpdateCategory(ref.Kind)
	step.Title = fmt.Sprintf("Update %s: %s", label, name)
	step.Pending = pending
	for _, c := range changes {
		step.Substeps = append(step.Substeps, model.ActionStep{
			ID:          step.ID + "#" + c.Field,
			Title:       c.Label,
			Description: c.Description(),
			Category:    step.Category,
		})
	}
	return step
}

// prepare returns the entity as it would be written: secrets opened when
// requested and the certificate store path retargeted.
func (p *planner) prepare(entry model.PackageEntry) (model.Entity, error) {
	e := entry.Entity.Clone()
	if p.settings.ImportSecrets && len(entry.Secrets) > 0 {
		opened, err := openSecrets(e, entry.Secrets, p.settings.EncryptionSecret)
		if err != nil {
			return nil, err
		}
		e = opened
	}
	if c, ok := e.(model.ManagedCertificate); ok && p.settings.StorePathOverride != "" {
		c.StorePath = p.settings.StorePathOverride
		e = c
	}
	return e, nil
}

// execute writes a mutating step when the planner runs for real.
func (p *planner) execute(step *model.ActionStep) {
	if p.writer == nil || step.HasError || !step.Category.Mutates() {
		return
	}
	if err := writeStep(p.ctx, p.writer, *step); err != nil {
		step.Fail(err.Error())
	}
}

// writeStep persists the pending entity of a create or update step.
func writeStep(ctx context.Context, w db.Writer, step model.ActionStep) error {
	if step.Pending == nil {
		return fmt.Errorf("step %s has nothing to write", step.ID)
	}
	if step.Category.IsCreate() {
		if err := w.CreateEntity(ctx, step.Pending); err != nil {
			return fmt.Errorf("create failed: %w", err)
		}
		return nil
	}
	if err := w.UpdateEntity(ctx, step.Pending); err != nil {
		return fmt.Errorf("update failed: %w", err)
	}
	return nil
}
