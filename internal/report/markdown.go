// Copyright (c) 2026 ToeiRei
// Certmigrate - managed certificate configuration migration
// This source code is licensed under the MIT license found in the LICENSE file.

package report

import (
	"strings"
)

const (
	titleRule = "_______"
	introRule = "______"
)

// Markdown renders r as a markdown document. Table rows and verbatim blocks
// are written unchanged so pipe tables survive a markdown renderer.
func Markdown(r Report) string {
	var sb strings.Builder

	if r.Title != "" {
		sb.WriteString("# " + r.Title + "\n" + titleRule + "\n")
	}
	if r.Intro != "" {
		sb.WriteString(r.Intro + "\n" + introRule + "\n")
	}

	for _, s := range r.Sections {
		sb.WriteString("\n## " + s.Title + "\n")
		if s.Description != "" {
			sb.WriteString(s.Description + "\n")
		}
		for _, it := range s.Items {
			sb.WriteString(markdownItem(it) + "\n")
		}
	}
	return sb.String()
}

func markdownItem(it Item) string {
	switch it.Kind {
	case TableRow, Verbatim:
		return it.Text
	default:
		return strings.Repeat("  ", it.Depth) + " - " + it.Text
	}
}
