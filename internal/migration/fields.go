// Copyright (c) 2026 ToeiRei
// Certmigrate - managed certificate configuration migration
// This source code is licensed under the MIT license found in the LICENSE file.

package migration

import (
	"reflect"
	"strings"
	"sync"

	"github.com/toeirei/certmigrate/internal/model"
)

// fieldSpec describes one diffable field as declared by its `migrate` tag.
type fieldSpec struct {
	Index  int
	Name   string
	Label  string
	Secret bool
}

var fieldCache sync.Map // reflect.Type -> []fieldSpec

// fieldsOf returns the diffable fields of t in declaration order.
func fieldsOf(t reflect.Type) []fieldSpec {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.([]fieldSpec)
	}
	var specs []fieldSpec
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag, ok := f.Tag.Lookup("migrate")
		if !ok || tag == "-" || !f.IsExported() {
			continue
		}
		label, opts, _ := strings.Cut(tag, ",")
		if label == "" {
			label = f.Name
		}
		specs = append(specs, fieldSpec{Index: i, Name: f.Name, Label: label, Secret: opts == "secret"})
	}
	fieldCache.Store(t, specs)
	return specs
}

// editable returns an addressable copy of e's struct value.
func editable(e model.Entity) reflect.Value {
	v := reflect.ValueOf(e.Clone())
	cp := reflect.New(v.Type()).Elem()
	cp.Set(v)
	return cp
}

func isSecretField(e model.Entity, name string) bool {
	for _, f := range fieldsOf(reflect.TypeOf(e)) {
		if f.Name == name {
			return f.Secret
		}
	}
	return false
}

// isEmptyValue treats nil and zero-length collections alike. A bool is
// never empty: false is a setting, not a missing value.
func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Bool:
		return false
	case reflect.Slice, reflect.Map, reflect.String, reflect.Array:
		return v.Len() == 0
	default:
		return v.IsZero()
	}
}
