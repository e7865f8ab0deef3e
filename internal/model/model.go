// Copyright (c) 2026 ToeiRei
// Certmigrate - managed certificate configuration migration
// This source code is licensed under the MIT license found in the LICENSE file.

// package model defines the configuration entities that can be moved between
// installations, together with the package, settings and action step types
// used by the import/export engine.
package model // import "github.com/toeirei/certmigrate/internal/model"

import (
	"fmt"
	"strings"
	"time"

	"github.com/toeirei/certmigrate/internal/security"
)

// EntityKind names a class of exportable configuration objects.
type EntityKind string

const (
	KindCAAccount          EntityKind = "ca_account"
	KindCredential         EntityKind = "credential"
	KindNotificationTarget EntityKind = "notification_target"
	KindManagedCertificate EntityKind = "managed_certificate"
)

// Kinds lists every known entity kind in dependency order: referenced
// objects come before the certificates that reference them.
var Kinds = []EntityKind{KindCAAccount, KindCredential, KindNotificationTarget, KindManagedCertificate}

// Valid reports whether k is one of the known kinds.
func (k EntityKind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Label returns the human readable name of the kind.
func (k EntityKind) Label() string {
	switch k {
	case KindCAAccount:
		return "Certificate Authority Account"
	case KindCredential:
		return "Stored Credential"
	case KindNotificationTarget:
		return "Notification Target"
	case KindManagedCertificate:
		return "Managed Certificate"
	default:
		return string(k)
	}
}

// EntityRef identifies an entity by kind and stable identity key.
type EntityRef struct {
	Kind EntityKind `json:"kind"`
	ID   string     `json:"id"`
}

// String returns the "<kind>/<id>" form, which is also used as step ID.
func (r EntityRef) String() string {
	return string(r.Kind) + "/" + r.ID
}

// Entity is implemented by every exportable configuration object.
type Entity interface {
	Kind() EntityKind
	// Identity is the stable key used to match entities across
	// installations. It is never the display name.
	Identity() string
	DisplayName() string
	// References lists the entities this one depends on.
	References() []EntityRef
	Clone() Entity
}

// RefOf returns the reference for e.
func RefOf(e Entity) EntityRef {
	return EntityRef{Kind: e.Kind(), ID: e.Identity()}
}

// CAAccount is an account registered with a certification authority.
type CAAccount struct {
	ID         string          `json:"id" validate:"required" migrate:"-"`
	Title      string          `json:"title" validate:"required" migrate:"Title"`
	CAName     string          `json:"ca_name" validate:"required" migrate:"Certificate Authority"`
	Email      string          `json:"email,omitempty" validate:"omitempty,email" migrate:"Email"`
	AccountURI string          `json:"account_uri,omitempty" migrate:"Account URI"`
	IsStaging  bool            `json:"is_staging" migrate:"Staging"`
	AccountKey security.Secret `json:"account_key,omitempty" migrate:"Account Key,secret"`
}

func (a CAAccount) Kind() EntityKind        { return KindCAAccount }
func (a CAAccount) Identity() string        { return a.ID }
func (a CAAccount) DisplayName() string     { return a.Title }
func (a CAAccount) References() []EntityRef { return nil }

// Clone returns a deep copy.
func (a CAAccount) Clone() Entity {
	a.AccountKey = cloneSecret(a.AccountKey)
	return a
}

// StoredCredential is a named secret used for domain validation or deployment.
type StoredCredential struct {
	ID           string          `json:"id" validate:"required" migrate:"-"`
	Title        string          `json:"title" validate:"required" migrate:"Title"`
	ProviderType string          `json:"provider_type" validate:"required" migrate:"Provider"`
	Secret       security.Secret `json:"secret,omitempty" migrate:"Secret,secret"`
}

func (c StoredCredential) Kind() EntityKind        { return KindCredential }
func (c StoredCredential) Identity() string        { return c.ID }
func (c StoredCredential) DisplayName() string     { return c.Title }
func (c StoredCredential) References() []EntityRef { return nil }

// Clone returns a deep copy.
func (c StoredCredential) Clone() Entity {
	c.Secret = cloneSecret(c.Secret)
	return c
}

// NotificationTarget receives renewal and failure notifications.
type NotificationTarget struct {
	ID          string `json:"id" validate:"required" migrate:"-"`
	Title       string `json:"title" validate:"required" migrate:"Title"`
	TargetType  string `json:"target_type" validate:"required" migrate:"Type"`
	Endpoint    string `json:"endpoint,omitempty" migrate:"Endpoint"`
	OnlyOnError bool   `json:"only_on_error" migrate:"Only On Error"`
}

func (n NotificationTarget) Kind() EntityKind        { return KindNotificationTarget }
func (n NotificationTarget) Identity() string        { return n.ID }
func (n NotificationTarget) DisplayName() string     { return n.Title }
func (n NotificationTarget) References() []EntityRef { return nil }

// Clone returns a copy; NotificationTarget holds no reference types.
func (n NotificationTarget) Clone() Entity { return n }

// ManagedCertificate is the definition of a certificate the installation
// keeps issued and renewed.
type ManagedCertificate struct {
	ID                   string    `json:"id" validate:"required" migrate:"-"`
	Name                 string    `json:"name" validate:"required" migrate:"Name"`
	Domains              []string  `json:"domains" validate:"required,min=1,dive,required" migrate:"Domains"`
	StorePath            string    `json:"store_path,omitempty" migrate:"Store Path"`
	CAAccountID          string    `json:"ca_account_id,omitempty" migrate:"CA Account"`
	CredentialID         string    `json:"credential_id,omitempty" migrate:"Credential"`
	NotificationTargetID string    `json:"notification_target_id,omitempty" migrate:"Notification Target"`
	RenewalIntervalDays  int       `json:"renewal_interval_days" validate:"gte=0" migrate:"Renewal Interval (days)"`
	Disabled             bool      `json:"disabled" migrate:"Disabled"`
	Comments             string    `json:"comments,omitempty" migrate:"Comments"`
	DateExpiry           time.Time `json:"date_expiry,omitempty" migrate:"-"`
}

func (m ManagedCertificate) Kind() EntityKind    { return KindManagedCertificate }
func (m ManagedCertificate) Identity() string    { return m.ID }
func (m ManagedCertificate) DisplayName() string { return m.Name }

// References returns the CA account, credential and notification target the
// certificate names, in that order. Empty IDs are not references.
func (m ManagedCertificate) References() []EntityRef {
	var refs []EntityRef
	if m.CAAccountID != "" {
		refs = append(refs, EntityRef{Kind: KindCAAccount, ID: m.CAAccountID})
	}
	if m.CredentialID != "" {
		refs = append(refs, EntityRef{Kind: KindCredential, ID: m.CredentialID})
	}
	if m.NotificationTargetID != "" {
		refs = append(refs, EntityRef{Kind: KindNotificationTarget, ID: m.NotificationTargetID})
	}
	return refs
}

// Clone returns a deep copy.
func (m ManagedCertificate) Clone() Entity {
	if m.Domains != nil {
		m.Domains = append([]string(nil), m.Domains...)
	}
	return m
}

// String returns the name with the primary domain, e.g. "shop (shop.example.com)".
func (m ManagedCertificate) String() string {
	if len(m.Domains) == 0 {
		return m.Name
	}
	return fmt.Sprintf("%s (%s)", m.Name, strings.Join(m.Domains, ", "))
}

// UISettings holds display preferences of an installation. They travel with
// a package as metadata only and never influence import logic.
type UISettings struct {
	UITheme string `json:"ui_theme,omitempty"`
	Culture string `json:"culture,omitempty"`
}

// IsDark reports whether the dark theme is selected.
func (s UISettings) IsDark() bool {
	return strings.EqualFold(s.UITheme, "dark")
}

func cloneSecret(s security.Secret) security.Secret {
	if s == nil {
		return nil
	}
	return security.Secret(s.Bytes())
}
