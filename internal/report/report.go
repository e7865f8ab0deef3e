// Copyright (c) 2026 ToeiRei
// Certmigrate - managed certificate configuration migration
// This source code is licensed under the MIT license found in the LICENSE file.

// Package report turns a list of action steps into a structured report that
// presentation layers render as markdown or styled terminal output. The
// report keeps the step tree order; nothing is sorted or merged.
package report

import (
	"strings"

	"github.com/toeirei/certmigrate/internal/i18n"
	"github.com/toeirei/certmigrate/internal/model"
)

// LongDateLayout renders the export date in intros.
const LongDateLayout = "Monday, 2 January 2006"

// ItemKind says how a substep line is rendered.
type ItemKind int

const (
	// ListItem is a bullet point.
	ListItem ItemKind = iota
	// TableRow is a pipe delimited row emitted verbatim.
	TableRow
	// Verbatim is a block of preformatted text emitted as-is.
	Verbatim
)

func (k ItemKind) String() string {
	switch k {
	case TableRow:
		return "table-row"
	case Verbatim:
		return "verbatim"
	default:
		return "list-item"
	}
}

// Item is one rendered substep.
type Item struct {
	Kind ItemKind
	Text string
	// Depth is 0 for direct substeps of a section and grows by one per
	// nesting level.
	Depth    int
	HasError bool
}

// Section is one top-level step.
type Section struct {
	Title       string
	Description string
	Category    model.StepCategory
	HasError    bool
	Items       []Item
}

// Report is the renderable form of a step list.
type Report struct {
	Title    string
	Intro    string
	Sections []Section
}

// Ready reports whether no section or item carries an error.
func (r Report) Ready() bool {
	for _, s := range r.Sections {
		if s.HasError {
			return false
		}
		for _, it := range s.Items {
			if it.HasError {
				return false
			}
		}
	}
	return true
}

// BuildReport creates a report with one section per top-level step.
func BuildReport(title, intro string, steps []model.ActionStep) Report {
	r := Report{Title: title, Intro: intro}
	for _, s := range steps {
		sec := Section{
			Title:       s.Title,
			Description: s.Description,
			Category:    s.Category,
			HasError:    s.HasError,
		}
		sec.Items = appendItems(sec.Items, s.Substeps, 0)
		r.Sections = append(r.Sections, sec)
	}
	return r
}

func appendItems(items []Item, steps []model.ActionStep, depth int) []Item {
	for _, s := range steps {
		items = append(items, itemFor(s, depth))
		items = appendItems(items, s.Substeps, depth+1)
	}
	return items
}

func itemFor(s model.ActionStep, depth int) Item {
	it := Item{Depth: depth, HasError: s.HasError}
	switch {
	case s.Description == "":
		it.Kind, it.Text = ListItem, s.Title
	case strings.Contains(s.Description, "|"):
		it.Kind, it.Text = TableRow, s.Description
	case startsWithLineBreak(s.Description):
		it.Kind, it.Text = Verbatim, s.Description
	default:
		it.Kind, it.Text = ListItem, s.Description
	}
	return it
}

func startsWithLineBreak(s string) bool {
	return strings.HasPrefix(s, "\n") || strings.HasPrefix(s, "\r\n")
}

// PreviewTitle returns the localized report title for a preview or a
// committed run.
func PreviewTitle(dryRun bool) string {
	if dryRun {
		return i18n.T("import.preview_title")
	}
	return i18n.T("import.results_title")
}

// ImportIntro describes where a package came from.
func ImportIntro(pkg *model.Package) string {
	if pkg == nil {
		return ""
	}
	return i18n.T("import.intro", pkg.SourceName, pkg.ExportDate.Format(LongDateLayout))
}
