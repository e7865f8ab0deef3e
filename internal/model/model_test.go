package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/toeirei/certmigrate/internal/security"
)

func TestEntityRefString(t *testing.T) {
	r := EntityRef{Kind: KindManagedCertificate, ID: "c1"}
	if got := r.String(); got != "managed_certificate/c1" {
		t.Errorf("unexpected EntityRef.String(): %q", got)
	}
}

func TestManagedCertificateReferencesSkipsEmpty(t *testing.T) {
	c := ManagedCertificate{ID: "c1", CAAccountID: "a1", NotificationTargetID: "n1"}
	refs := c.References()
	if len(refs) != 2 {
		t.Fatalf("expected 2 references, got %d", len(refs))
	}
	if refs[0] != (EntityRef{Kind: KindCAAccount, ID: "a1"}) || refs[1] != (EntityRef{Kind: KindNotificationTarget, ID: "n1"}) {
		t.Fatalf("unexpected references: %+v", refs)
	}
}

func TestManagedCertificateString(t *testing.T) {
	c := ManagedCertificate{Name: "shop", Domains: []string{"shop.example.com", "www.shop.example.com"}}
	want := "shop (shop.example.com, www.shop.example.com)"
	if got := c.String(); got != want {
		t.Errorf("unexpected String(): got %q want %q", got, want)
	}
	if got := (ManagedCertificate{Name: "bare"}).String(); got != "bare" {
		t.Errorf("unexpected String() without domains: %q", got)
	}
}

func TestCloneIsDeep(t *testing.T) {
	c := ManagedCertificate{ID: "c1", Domains: []string{"a.example.com"}}
	cl := c.Clone().(ManagedCertificate)
	cl.Domains[0] = "changed"
	if c.Domains[0] != "a.example.com" {
		t.Fatalf("clone shares domains slice")
	}

	a := CAAccount{ID: "a1", AccountKey: security.FromString("key")}
	ac := a.Clone().(CAAccount)
	ac.AccountKey[0] = 'X'
	if !a.AccountKey.Equal(security.FromString("key")) {
		t.Fatalf("clone shares account key bytes")
	}
}

func TestFilterMatches(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := ManagedCertificate{
		ID:         "c1",
		Name:       "Shop",
		Domains:    []string{"shop.example.com"},
		StorePath:  "/Stores/Web",
		DateExpiry: now.Add(10 * 24 * time.Hour),
	}

	cases := []struct {
		name string
		f    ManagedCertificateFilter
		want bool
	}{
		{"empty matches", ManagedCertificateFilter{}, true},
		{"substring case insensitive", ManagedCertificateFilter{Keyword: "SHOP"}, true},
		{"substring on domain", ManagedCertificateFilter{Keyword: "example.com"}, true},
		{"substring miss", ManagedCertificateFilter{Keyword: "mail"}, false},
		{"glob on domain", ManagedCertificateFilter{Keyword: "*.example.com"}, true},
		{"glob miss", ManagedCertificateFilter{Keyword: "*.example.org"}, false},
		{"malformed glob", ManagedCertificateFilter{Keyword: "[shop"}, false},
		{"store path equal fold", ManagedCertificateFilter{StorePath: "/stores/web"}, true},
		{"store path miss", ManagedCertificateFilter{StorePath: "/stores/mail"}, false},
		{"id listed", ManagedCertificateFilter{IDs: []string{"x", "c1"}}, true},
		{"id not listed", ManagedCertificateFilter{IDs: []string{"x"}}, false},
		{"expiring within window", ManagedCertificateFilter{}.ExpiringWithin(now, 30*24*time.Hour), true},
		{"expiring outside window", ManagedCertificateFilter{}.ExpiringWithin(now, 5*24*time.Hour), false},
		{"combined AND", ManagedCertificateFilter{Keyword: "shop", StorePath: "/other"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.f.Matches(c); got != tc.want {
				t.Fatalf("Matches() = %v, want %v", got, tc.want)
			}
		})
	}

	noExpiry := c
	noExpiry.DateExpiry = time.Time{}
	if (ManagedCertificateFilter{}).ExpiringWithin(now, time.Hour).Matches(noExpiry) {
		t.Fatalf("certificate without known expiry must not match an expiring filter")
	}
}

func TestFilterIsEmpty(t *testing.T) {
	if !(ManagedCertificateFilter{}).IsEmpty() {
		t.Fatalf("zero filter should be empty")
	}
	if (ManagedCertificateFilter{MaxResults: 3}).IsEmpty() {
		t.Fatalf("filter with MaxResults should not be empty")
	}
}

func TestParseConflictPolicy(t *testing.T) {
	for in, want := range map[string]ConflictPolicy{"skip": PolicySkip, " Overwrite ": PolicyOverwrite, "MERGE": PolicyMerge} {
		got, err := ParseConflictPolicy(in)
		if err != nil || got != want {
			t.Fatalf("ParseConflictPolicy(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseConflictPolicy("replace"); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}

func TestPolicyFor(t *testing.T) {
	var s ImportSettings
	if s.PolicyFor(KindCAAccount) != PolicySkip {
		t.Fatalf("zero settings should default to skip")
	}
	s.DefaultPolicy = PolicyMerge
	s.Policies = map[EntityKind]ConflictPolicy{KindManagedCertificate: PolicyOverwrite}
	if s.PolicyFor(KindCAAccount) != PolicyMerge {
		t.Fatalf("expected default policy for unlisted kind")
	}
	if s.PolicyFor(KindManagedCertificate) != PolicyOverwrite {
		t.Fatalf("expected per-kind policy")
	}
}

func TestPackageEntryJSON(t *testing.T) {
	pkg := Package{
		FormatVersion: CurrentFormatVersion,
		SourceName:    "install-A",
		Content: []PackageEntry{
			{Kind: KindCAAccount, Entity: CAAccount{ID: "a1", Title: "LE", CAName: "letsencrypt", AccountKey: security.FromString("k")}, Secrets: map[string]string{"AccountKey": "v1:sealed"}},
			{Kind: KindManagedCertificate, Entity: ManagedCertificate{ID: "c1", Name: "shop", Domains: []string{"shop.example.com"}, CAAccountID: "a1"}},
		},
	}
	data, err := json.Marshal(pkg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Package
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(back.Content) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(back.Content))
	}
	acc, ok := back.Content[0].Entity.(CAAccount)
	if !ok {
		t.Fatalf("expected CAAccount, got %T", back.Content[0].Entity)
	}
	if acc.AccountKey != nil {
		t.Fatalf("secret must not travel in the clear")
	}
	if back.Content[0].Secrets["AccountKey"] != "v1:sealed" {
		t.Fatalf("sealed secret lost: %+v", back.Content[0].Secrets)
	}
	if back.Count(KindManagedCertificate) != 1 {
		t.Fatalf("certificate entry lost")
	}
	if back.Count(KindCAAccount) != 1 {
		t.Fatalf("unexpected count")
	}
}

func TestPackageEntryUnknownKind(t *testing.T) {
	var e PackageEntry
	if err := json.Unmarshal([]byte(`{"kind":"dns_zone","item":{}}`), &e); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
	if err := json.Unmarshal([]byte(`{"kind":"credential"}`), &e); err == nil {
		t.Fatalf("expected error for missing item")
	}
}

func TestAllSucceededIsRecursive(t *testing.T) {
	steps := []ActionStep{{ID: "a", Substeps: []ActionStep{{ID: "a#x"}}}}
	if !AllSucceeded(steps) {
		t.Fatalf("expected success")
	}
	steps[0].Substeps[0].Fail("boom")
	if AllSucceeded(steps) {
		t.Fatalf("nested failure must fail the gate")
	}
}

func TestStepCopyIsDeep(t *testing.T) {
	s := ActionStep{
		ID:        "managed_certificate/c1",
		Target:    &EntityRef{Kind: KindManagedCertificate, ID: "c1"},
		DependsOn: []string{"ca_account/a1"},
		Pending:   ManagedCertificate{ID: "c1", Domains: []string{"a"}},
		Substeps:  []ActionStep{{ID: "managed_certificate/c1#Name"}},
	}
	cp := s.Copy()
	cp.Target.ID = "other"
	cp.DependsOn[0] = "other"
	cp.Substeps[0].ID = "other"
	cp.Pending.(ManagedCertificate).Domains[0] = "other"
	if s.Target.ID != "c1" || s.DependsOn[0] != "ca_account/a1" || s.Substeps[0].ID != "managed_certificate/c1#Name" {
		t.Fatalf("copy shares state with original: %+v", s)
	}
	if s.Pending.(ManagedCertificate).Domains[0] != "a" {
		t.Fatalf("copy shares pending entity")
	}
}

func TestCategoryHelpers(t *testing.T) {
	for _, k := range Kinds {
		if !CreateCategory(k).IsCreate() || !UpdateCategory(k).IsUpdate() {
			t.Fatalf("category helpers inconsistent for %s", k)
		}
	}
	if CategorySkipExisting.Mutates() || CategoryInfo.Mutates() || CategoryError.Mutates() {
		t.Fatalf("non-mutating category reported as mutating")
	}
	counts := CountByCategory([]ActionStep{{Category: CategoryInfo}, {Category: CategoryInfo}, {Category: CategoryError}})
	if counts[CategoryInfo] != 2 || counts[CategoryError] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}
