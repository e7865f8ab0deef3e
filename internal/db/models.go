// Copyright (c) 2026 ToeiRei
// Certmigrate - managed certificate configuration migration
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"fmt"
	"strings"
	"time"

	"github.com/toeirei/certmigrate/internal/model"
	"github.com/toeirei/certmigrate/internal/security"
	"github.com/uptrace/bun"
)

// CAAccountModel maps the ca_accounts table for Bun queries. Seq only
// records insertion order, which is the store's natural order.
type CAAccountModel struct {
	bun.BaseModel `bun:"table:ca_accounts"`
	Seq           int64           `bun:"seq,pk,autoincrement"`
	ID            string          `bun:"id,notnull"`
	Title         string          `bun:"title"`
	CAName        string          `bun:"ca_name"`
	Email         string          `bun:"email"`
	AccountURI    string          `bun:"account_uri"`
	IsStaging     bool            `bun:"is_staging"`
	AccountKey    security.Secret `bun:"account_key"`
}

// StoredCredentialModel maps the stored_credentials table.
type StoredCredentialModel struct {
	bun.BaseModel `bun:"table:stored_credentials"`
	Seq           int64           `bun:"seq,pk,autoincrement"`
	ID            string          `bun:"id,notnull"`
	Title         string          `bun:"title"`
	ProviderType  string          `bun:"provider_type"`
	Secret        security.Secret `bun:"secret"`
}

// NotificationTargetModel maps the notification_targets table.
type NotificationTargetModel struct {
	bun.BaseModel `bun:"table:notification_targets"`
	Seq           int64  `bun:"seq,pk,autoincrement"`
	ID            string `bun:"id,notnull"`
	Title         string `bun:"title"`
	TargetType    string `bun:"target_type"`
	Endpoint      string `bun:"endpoint"`
	OnlyOnError   bool   `bun:"only_on_error"`
}

// ManagedCertificateModel maps the managed_certificates table. Domains are
// stored comma separated.
type ManagedCertificateModel struct {
	bun.BaseModel        `bun:"table:managed_certificates"`
	Seq                  int64     `bun:"seq,pk,autoincrement"`
	ID                   string    `bun:"id,notnull"`
	Name                 string    `bun:"name"`
	Domains              string    `bun:"domains"`
	StorePath            string    `bun:"store_path"`
	CAAccountID          string    `bun:"ca_account_id"`
	CredentialID         string    `bun:"credential_id"`
	NotificationTargetID string    `bun:"notification_target_id"`
	RenewalIntervalDays  int       `bun:"renewal_interval_days"`
	Disabled             bool      `bun:"disabled"`
	Comments             string    `bun:"comments"`
	DateExpiry           time.Time `bun:"date_expiry,nullzero"`
}

// UISettingModel is one name/value row of the ui_settings table.
type UISettingModel struct {
	bun.BaseModel `bun:"table:ui_settings"`
	Name          string `bun:"name,pk"`
	Value         string `bun:"value"`
}

// ImportLockModel is the row that marks a running import.
type ImportLockModel struct {
	bun.BaseModel `bun:"table:import_locks"`
	Name          string    `bun:"name,pk"`
	Holder        string    `bun:"holder,notnull"`
	Token         string    `bun:"token,notnull"`
	AcquiredAt    time.Time `bun:"acquired_at,notnull"`
}

func caAccountModelToModel(m CAAccountModel) model.CAAccount {
	return model.CAAccount{
		ID:         m.ID,
		Title:      m.Title,
		CAName:     m.CAName,
		Email:      m.Email,
		AccountURI: m.AccountURI,
		IsStaging:  m.IsStaging,
		AccountKey: m.AccountKey,
	}
}

func storedCredentialModelToModel(m StoredCredentialModel) model.StoredCredential {
	return model.StoredCredential{ID: m.ID, Title: m.Title, ProviderType: m.ProviderType, Secret: m.Secret}
}

func notificationTargetModelToModel(m NotificationTargetModel) model.NotificationTarget {
	return model.NotificationTarget{ID: m.ID, Title: m.Title, TargetType: m.TargetType, Endpoint: m.Endpoint, OnlyOnError: m.OnlyOnError}
}

func managedCertificateModelToModel(m ManagedCertificateModel) model.ManagedCertificate {
	c := model.ManagedCertificate{
		ID:                   m.ID,
		Name:                 m.Name,
		StorePath:            m.StorePath,
		CAAccountID:          m.CAAccountID,
		CredentialID:         m.CredentialID,
		NotificationTargetID: m.NotificationTargetID,
		RenewalIntervalDays:  m.RenewalIntervalDays,
		Disabled:             m.Disabled,
		Comments:             m.Comments,
		DateExpiry:           m.DateExpiry,
	}
	if m.Domains != "" {
		c.Domains = strings.Split(m.Domains, ",")
	}
	return c
}

// rowFor converts an entity into a pointer to its Bun row model.
func rowFor(e model.Entity) (interface{}, error) {
	switch v := e.(type) {
	case model.CAAccount:
		return &CAAccountModel{
			ID:         v.ID,
			Title:      v.Title,
			CAName:     v.CAName,
			Email:      v.Email,
			AccountURI: v.AccountURI,
			IsStaging:  v.IsStaging,
			AccountKey: v.AccountKey,
		}, nil
	case model.StoredCredential:
		return &StoredCredentialModel{ID: v.ID, Title: v.Title, ProviderType: v.ProviderType, Secret: v.Secret}, nil
	case model.NotificationTarget:
		return &NotificationTargetModel{ID: v.ID, Title: v.Title, TargetType: v.TargetType, Endpoint: v.Endpoint, OnlyOnError: v.OnlyOnError}, nil
	case model.ManagedCertificate:
		return &ManagedCertificateModel{
			ID:                   v.ID,
			Name:                 v.Name,
			Domains:              strings.Join(v.Domains, ","),
			StorePath:            v.StorePath,
			CAAccountID:          v.CAAccountID,
			CredentialID:         v.CredentialID,
			NotificationTargetID: v.NotificationTargetID,
			RenewalIntervalDays:  v.RenewalIntervalDays,
			Disabled:             v.Disabled,
			Comments:             v.Comments,
			DateExpiry:           v.DateExpiry,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported entity type %T", e)
	}
}

// emptyRowFor returns a zero row model for kind, ready to be scanned into.
func emptyRowFor(kind model.EntityKind) (interface{}, error) {
	switch kind {
	case model.KindCAAccount:
		return &CAAccountModel{}, nil
	case model.KindCredential:
		return &StoredCredentialModel{}, nil
	case model.KindNotificationTarget:
		return &NotificationTargetModel{}, nil
	case model.KindManagedCertificate:
		return &ManagedCertificateModel{}, nil
	default:
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
}

// rowToEntity is the inverse of rowFor.
func rowToEntity(row interface{}) model.Entity {
	switch r := row.(type) {
	case *CAAccountModel:
		return caAccountModelToModel(*r)
	case *StoredCredentialModel:
		return storedCredentialModelToModel(*r)
	case *NotificationTargetModel:
		return notificationTargetModelToModel(*r)
	case *ManagedCertificateModel:
		return managedCertificateModelToModel(*r)
	default:
		return nil
	}
}
