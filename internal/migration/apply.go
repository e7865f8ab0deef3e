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

// Apply executes a previously planned list of steps in order without
// re-deriving it. The input is not modified; the returned copy carries the
// outcome of every step with step IDs unchanged.
//
// A failed write marks its step with the cause. Steps depending on a failed
// step are marked failed without being attempted. Each entity write is
// atomic but the run as a whole is not: steps applied before a failure or
// cancellation stay applied, and unexecuted steps become Cancelled.
func Apply(ctx context.Context, steps []model.ActionStep, store db.Store) ([]model.ActionStep, error) {
	if store == nil {
		return nil, errors.New("apply import: nil store")
	}
	release, err := acquireImportLock(ctx, store)
	if err != nil {
		return nil, err
	}
	defer release()

	out := model.CopySteps(steps)
	failed := make(map[string]bool)
	applied := 0
	for i := range out {
		s := &out[i]
		if err := ctx.Err(); err != nil {
			if s.Category.Mutates() && !s.HasError {
				s.Category = model.CategoryCancelled
				s.Fail(fmt.Sprintf("not applied: %v", err))
			}
			failed[s.ID] = true
			continue
		}
		if s.HasError {
			failed[s.ID] = true
			continue
		}
		if dep := firstFailed(s.DependsOn, failed); dep != "" {
			s.Category = model.CategoryError
			s.Fail(fmt.Sprintf("dependency %s failed to import", dep))
			failed[s.ID] = true
			continue
		}
		if !s.Category.Mutates() {
			continue
		}
		if err := writeStep(ctx, store, *s); err != nil {
			s.Fail(err.Error())
			failed[s.ID] = true
			continue
		}
		applied++
	}
	logging.Debugf("import: applied %d of %d step(s)", applied, len(out))
	return out, nil
}

func firstFailed(ids []string, failed map[string]bool) string {
	for _, id := range ids {
		if failed[id] {
			return id
		}
	}
	return ""
}
