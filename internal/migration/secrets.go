// Copyright (c) 2026 ToeiRei
// Certmigrate - managed certificate configuration migration
// This source code is licensed under the MIT license found in the LICENSE file.

package migration

import (
	"fmt"
	"reflect"

	"github.com/toeirei/certmigrate/internal/model"
	"github.com/toeirei/certmigrate/internal/security"
)

var secretType = reflect.TypeOf(security.Secret(nil))

// sealSecrets returns e with every secret field cleared. When include is set
// non-empty secrets are sealed with passphrase and returned keyed by field
// name.
func sealSecrets(e model.Entity, include bool, passphrase string) (model.Entity, map[string]string, error) {
	v := editable(e)
	var sealed map[string]string
	for _, f := range fieldsOf(v.Type()) {
		if !f.Secret {
			continue
		}
		fv := v.Field(f.Index)
		if include && !isEmptyValue(fv) {
			s, err := security.Seal(passphrase, fv.Convert(secretType).Interface().(security.Secret))
			if err != nil {
				return nil, nil, fmt.Errorf("seal %s of %s: %w", f.Label, model.RefOf(e), err)
			}
			if sealed == nil {
				sealed = make(map[string]string)
			}
			sealed[f.Name] = s
		}
		fv.Set(reflect.Zero(fv.Type()))
	}
	return v.Interface().(model.Entity), sealed, nil
}

// openSecrets returns e with the sealed values opened into their fields.
func openSecrets(e model.Entity, sealed map[string]string, passphrase string) (model.Entity, error) {
	v := editable(e)
	for _, f := range fieldsOf(v.Type()) {
		s, ok := sealed[f.Name]
		if !f.Secret || !ok {
			continue
		}
		plain, err := security.Open(passphrase, s)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Label, err)
		}
		v.Field(f.Index).Set(reflect.ValueOf(plain).Convert(v.Field(f.Index).Type()))
	}
	return v.Interface().(model.Entity), nil
}

// keepLiveSecrets copies live secret values into incoming wherever incoming
// carries none, so that an import without secrets never clears them.
func keepLiveSecrets(live, incoming model.Entity) model.Entity {
	v := editable(incoming)
	lv := reflect.ValueOf(live.Clone())
	if lv.Type() != v.Type() {
		return incoming
	}
	for _, f := range fieldsOf(v.Type()) {
		if f.Secret && isEmptyValue(v.Field(f.Index)) {
			v.Field(f.Index).Set(lv.Field(f.Index))
		}
	}
	return v.Interface().(model.Entity)
}
