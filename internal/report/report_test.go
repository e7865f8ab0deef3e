package report

import (
	"strings"
	"testing"
	"time"

	"github.com/toeirei/certmigrate/internal/i18n"
	"github.com/toeirei/certmigrate/internal/model"
)

func sampleSteps() []model.ActionStep {
	return []model.ActionStep{
		{
			ID:       "managed_certificate:c1",
			Title:    "Update Managed Certificate: shop",
			Category: model.CategoryUpdateCertificate,
			Substeps: []model.ActionStep{
				{ID: "managed_certificate:c1#Table", Description: "a | b | c"},
				{ID: "managed_certificate:c1#Same", Description: "- same"},
				{ID: "managed_certificate:c1#Block", Description: "\nline one\nline two"},
				{ID: "managed_certificate:c1#Empty", Title: "Comments"},
			},
		},
		{
			ID:          "ca_account:a1",
			Title:       "Skip existing CA Account: prod",
			Description: "2 field(s) differ; existing configuration kept",
			Category:    model.CategorySkipExisting,
		},
	}
}

func TestBuildReport_DispatchesSubsteps(t *testing.T) {
	r := BuildReport("Import Preview", "intro", sampleSteps())
	if len(r.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(r.Sections))
	}
	items := r.Sections[0].Items
	want := []struct {
		kind ItemKind
		text string
	}{
		{TableRow, "a | b | c"},
		{ListItem, "- same"},
		{Verbatim, "\nline one\nline two"},
		{ListItem, "Comments"},
	}
	if len(items) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(items))
	}
	for i, w := range want {
		if items[i].Kind != w.kind || items[i].Text != w.text {
			t.Fatalf("item %d: got %s %q, want %s %q", i, items[i].Kind, items[i].Text, w.kind, w.text)
		}
	}
	if r.Sections[1].Description != "2 field(s) differ; existing configuration kept" || len(r.Sections[1].Items) != 0 {
		t.Fatalf("unexpected second section: %+v", r.Sections[1])
	}
	if !r.Ready() {
		t.Fatalf("expected report without errors to be ready")
	}
}

func TestBuildReport_NestedSubstepsAndErrors(t *testing.T) {
	steps := []model.ActionStep{{
		Title: "Create Managed Certificate: x",
		Substeps: []model.ActionStep{{
			Title: "outer",
			Substeps: []model.ActionStep{
				{Title: "inner", Description: "dependency a1 failed to import", HasError: true},
			},
		}},
	}}
	r := BuildReport("t", "", steps)
	items := r.Sections[0].Items
	if len(items) != 2 || items[0].Depth != 0 || items[1].Depth != 1 {
		t.Fatalf("unexpected nesting: %+v", items)
	}
	if !items[1].HasError || r.Ready() {
		t.Fatalf("expected nested error to make the report not ready")
	}
}

func TestBuildReport_EmptySteps(t *testing.T) {
	r := BuildReport("Import Results", "", nil)
	if len(r.Sections) != 0 || !r.Ready() {
		t.Fatalf("unexpected report: %+v", r)
	}
}

func TestMarkdown_Layout(t *testing.T) {
	r := BuildReport("Import Preview", "Importing from source: install-A exported Friday, 16 October 2026", sampleSteps())
	got := Markdown(r)
	want := "# Import Preview\n" +
		"_______\n" +
		"Importing from source: install-A exported Friday, 16 October 2026\n" +
		"______\n" +
		"\n## Update Managed Certificate: shop\n" +
		"a | b | c\n" +
		" - - same\n" +
		"\nline one\nline two\n" +
		" - Comments\n" +
		"\n## Skip existing CA Account: prod\n" +
		"2 field(s) differ; existing configuration kept\n"
	if got != want {
		t.Fatalf("unexpected markdown:\n%s\nwant:\n%s", got, want)
	}
}

func TestMarkdown_IndentsNestedItems(t *testing.T) {
	r := Report{Sections: []Section{{
		Title: "s",
		Items: []Item{{Kind: ListItem, Text: "inner", Depth: 2}},
	}}}
	if !strings.Contains(Markdown(r), "\n     - inner\n") {
		t.Fatalf("expected nested item indentation, got %q", Markdown(r))
	}
}

func TestImportIntro(t *testing.T) {
	i18n.Init("en")
	pkg := &model.Package{
		SourceName: "install-A",
		ExportDate: time.Date(2026, time.October, 16, 9, 30, 0, 0, time.UTC),
	}
	got := ImportIntro(pkg)
	if got != "Importing from source: install-A exported Friday, 16 October 2026" {
		t.Fatalf("unexpected intro %q", got)
	}
	if ImportIntro(nil) != "" {
		t.Fatalf("expected empty intro for nil package")
	}
}

func TestPreviewTitle(t *testing.T) {
	i18n.Init("en")
	if PreviewTitle(true) != "Import Preview" || PreviewTitle(false) != "Import Results" {
		t.Fatalf("unexpected titles %q / %q", PreviewTitle(true), PreviewTitle(false))
	}
}

func TestTerminal_ContainsContent(t *testing.T) {
	r := BuildReport("Import Preview", "intro line", sampleSteps())
	for _, theme := range []Theme{LightTheme, DarkTheme} {
		out := Terminal(r, theme)
		for _, want := range []string{"Import Preview", "intro line", "Update Managed Certificate: shop", "a | b | c", "- same", "line one\nline two", "Comments"} {
			if !strings.Contains(out, want) {
				t.Fatalf("%s theme output missing %q:\n%s", theme.Name, want, out)
			}
		}
	}
}

func TestThemeFor(t *testing.T) {
	if ThemeFor(model.UISettings{UITheme: "Dark"}).Name != "dark" {
		t.Fatalf("expected dark theme")
	}
	if ThemeFor(model.UISettings{UITheme: "light"}).Name != "light" || ThemeFor(model.UISettings{}).Name != "light" {
		t.Fatalf("expected light theme by default")
	}
}
