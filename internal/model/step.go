// Copyright (c) 2026 ToeiRei
// Certmigrate - managed certificate configuration migration
// This source code is licensed under the MIT license found in the LICENSE file.

package model

// StepCategory classifies an ActionStep.
type StepCategory string

const (
	CategoryCreateCertificate        StepCategory = "CreateCertificate"
	CategoryUpdateCertificate        StepCategory = "UpdateCertificate"
	CategoryCreateCAAccount          StepCategory = "CreateCAAccount"
	CategoryUpdateCAAccount          StepCategory = "UpdateCAAccount"
	CategoryCreateCredential         StepCategory = "CreateCredential"
	CategoryUpdateCredential         StepCategory = "UpdateCredential"
	CategoryCreateNotificationTarget StepCategory = "CreateNotificationTarget"
	CategoryUpdateNotificationTarget StepCategory = "UpdateNotificationTarget"
	CategorySkipExisting             StepCategory = "SkipExisting"
	CategoryInfo                     StepCategory = "Info"
	CategoryError                    StepCategory = "Error"
	CategoryCancelled                StepCategory = "Cancelled"
)

// CreateCategory returns the create category for kind.
func CreateCategory(kind EntityKind) StepCategory {
	switch kind {
	case KindCAAccount:
		return CategoryCreateCAAccount
	case KindCredential:
		return CategoryCreateCredential
	case KindNotificationTarget:
		return CategoryCreateNotificationTarget
	default:
		return CategoryCreateCertificate
	}
}

// UpdateCategory returns the update category for kind.
func UpdateCategory(kind EntityKind) StepCategory {
	switch kind {
	case KindCAAccount:
		return CategoryUpdateCAAccount
	case KindCredential:
		return CategoryUpdateCredential
	case KindNotificationTarget:
		return CategoryUpdateNotificationTarget
	default:
		return CategoryUpdateCertificate
	}
}

// IsCreate reports whether c creates an entity.
func (c StepCategory) IsCreate() bool {
	switch c {
	case CategoryCreateCertificate, CategoryCreateCAAccount, CategoryCreateCredential, CategoryCreateNotificationTarget:
		return true
	}
	return false
}

// IsUpdate reports whether c updates an entity.
func (c StepCategory) IsUpdate() bool {
	switch c {
	case CategoryUpdateCertificate, CategoryUpdateCAAccount, CategoryUpdateCredential, CategoryUpdateNotificationTarget:
		return true
	}
	return false
}

// Mutates reports whether a step of this category writes to the store.
func (c StepCategory) Mutates() bool {
	return c.IsCreate() || c.IsUpdate()
}

// ActionStep is the unit of reportable change. The same tree shape is used
// for top-level steps and their substeps.
type ActionStep struct {
	// ID is stable within a planning run and identical between a preview
	// and the run that commits it.
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Category    StepCategory `json:"category"`
	// HasError steps always carry a Description explaining the failure.
	HasError bool         `json:"has_error"`
	Substeps []ActionStep `json:"substeps,omitempty"`

	// Target is the entity the step acts on.
	Target *EntityRef `json:"target,omitempty"`
	// DependsOn holds the IDs of steps this step depends on.
	DependsOn []string `json:"depends_on,omitempty"`
	// Pending is the entity state a create or update step writes.
	Pending Entity `json:"-"`
}

// Fail marks the step as failed with the given reason.
func (s *ActionStep) Fail(reason string) {
	s.HasError = true
	s.Description = reason
}

// Copy returns a deep copy of the step tree. Pending entities are cloned.
func (s ActionStep) Copy() ActionStep {
	out := s
	if s.Target != nil {
		t := *s.Target
		out.Target = &t
	}
	if s.DependsOn != nil {
		out.DependsOn = append([]string(nil), s.DependsOn...)
	}
	if s.Pending != nil {
		out.Pending = s.Pending.Clone()
	}
	if s.Substeps != nil {
		out.Substeps = CopySteps(s.Substeps)
	}
	return out
}

// CopySteps deep-copies a list of steps.
func CopySteps(steps []ActionStep) []ActionStep {
	if steps == nil {
		return nil
	}
	out := make([]ActionStep, len(steps))
	for i, s := range steps {
		out[i] = s.Copy()
	}
	return out
}

// AllSucceeded reports whether no step at any depth has an error. It is the
// gate that decides whether a previewed import may be committed.
func AllSucceeded(steps []ActionStep) bool {
	for _, s := range steps {
		if s.HasError || !AllSucceeded(s.Substeps) {
			return false
		}
	}
	return true
}

// CountByCategory tallies top-level steps per category.
func CountByCategory(steps []ActionStep) map[StepCategory]int {
	out := make(map[StepCategory]int)
	for _, s := range steps {
		out[s.Category]++
	}
	return out
}
