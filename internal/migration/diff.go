// Copyright (c) 2026 ToeiRei
// Certmigrate - managed certificate configuration migration
// This source code is licensed under the MIT license found in the LICENSE file.

package migration

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/toeirei/certmigrate/internal/model"
	"github.com/toeirei/certmigrate/internal/security"
)

const emptyValue = "(empty)"

// FieldChange is one differing field between a live and an incoming entity.
type FieldChange struct {
	// Field is the Go field name; Label its display name.
	Field string
	Label string
	// Old and New are display renderings. Secret values are redacted.
	Old string
	New string
	// LiveEmpty and IncomingEmpty record whether either side had no value.
	LiveEmpty     bool
	IncomingEmpty bool
	Secret        bool
}

// Description renders the change as "<field>: <old> -> <new>".
func (c FieldChange) Description() string {
	return fmt.Sprintf("%s: %s -> %s", c.Label, c.Old, c.New)
}

// Diff compares two entities of the same kind field by field in declaration
// order. Fields tagged migrate:"-" are ignored. Diff is pure.
func Diff(live, incoming model.Entity) []FieldChange {
	lv, iv := reflect.ValueOf(live), reflect.ValueOf(incoming)
	if lv.Type() != iv.Type() {
		return nil
	}
	var changes []FieldChange
	for _, f := range fieldsOf(lv.Type()) {
		a, b := lv.Field(f.Index), iv.Field(f.Index)
		if equalValues(a, b, f.Secret) {
			continue
		}
		changes = append(changes, FieldChange{
			Field:         f.Name,
			Label:         f.Label,
			Old:           formatValue(a, f.Secret),
			New:           formatValue(b, f.Secret),
			LiveEmpty:     isEmptyValue(a),
			IncomingEmpty: isEmptyValue(b),
			Secret:        f.Secret,
		})
	}
	return changes
}

// Resolve applies policy to the differences between live and incoming. It
// returns the changes the policy accepts and the entity state that results
// from applying them to live. With PolicySkip nothing is accepted.
func Resolve(policy model.ConflictPolicy, live, incoming model.Entity) (model.Entity, []FieldChange) {
	var accepted []FieldChange
	for _, c := range Diff(live, incoming) {
		switch policy {
		case model.PolicyOverwrite:
			accepted = append(accepted, c)
		case model.PolicyMerge:
			if c.LiveEmpty && !c.IncomingEmpty {
				accepted = append(accepted, c)
			}
		}
	}
	if len(accepted) == 0 {
		return live, nil
	}
	return applyChanges(live, incoming, accepted), accepted
}

// applyChanges copies the changed fields from incoming onto a copy of live.
func applyChanges(live, incoming model.Entity, changes []FieldChange) model.Entity {
	out := editable(live)
	src := reflect.ValueOf(incoming.Clone())
	for _, c := range changes {
		out.FieldByName(c.Field).Set(src.FieldByName(c.Field))
	}
	return out.Interface().(model.Entity)
}

func equalValues(a, b reflect.Value, secret bool) bool {
	if isEmptyValue(a) && isEmptyValue(b) {
		return true
	}
	if secret {
		return a.Convert(secretType).Interface().(security.Secret).Equal(b.Convert(secretType).Interface().(security.Secret))
	}
	return reflect.DeepEqual(a.Interface(), b.Interface())
}

func formatValue(v reflect.Value, secret bool) string {
	switch v.Kind() {
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.Int, reflect.Int64, reflect.Int32:
		return strconv.FormatInt(v.Int(), 10)
	}
	if isEmptyValue(v) {
		return emptyValue
	}
	if secret {
		return security.Secret(nil).String()
	}
	switch x := v.Interface().(type) {
	case string:
		return x
	case []string:
		return strings.Join(x, ", ")
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}
