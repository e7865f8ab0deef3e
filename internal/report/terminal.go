// Copyright (c) 2026 ToeiRei
// Certmigrate - managed certificate configuration migration
// This source code is licensed under the MIT license found in the LICENSE file.

package report

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/toeirei/certmigrate/internal/model"
)

// Theme is the palette used for terminal output.
type Theme struct {
	Name    string
	Title   lipgloss.Color
	Muted   lipgloss.Color
	Create  lipgloss.Color
	Update  lipgloss.Color
	Error   lipgloss.Color
	Neutral lipgloss.Color
}

var (
	// LightTheme is used unless the stored UI theme is dark.
	LightTheme = Theme{
		Name:    "light",
		Title:   lipgloss.Color("25"),
		Muted:   lipgloss.Color("243"),
		Create:  lipgloss.Color("28"),
		Update:  lipgloss.Color("130"),
		Error:   lipgloss.Color("160"),
		Neutral: lipgloss.Color("236"),
	}
	// DarkTheme mirrors LightTheme for dark backgrounds.
	DarkTheme = Theme{
		Name:    "dark",
		Title:   lipgloss.Color("117"),
		Muted:   lipgloss.Color("245"),
		Create:  lipgloss.Color("114"),
		Update:  lipgloss.Color("221"),
		Error:   lipgloss.Color("203"),
		Neutral: lipgloss.Color("252"),
	}
)

// ThemeFor picks the palette for a stored UI theme name.
func ThemeFor(ui model.UISettings) Theme {
	if ui.IsDark() {
		return DarkTheme
	}
	return LightTheme
}

func (t Theme) sectionColor(s Section) lipgloss.Color {
	switch {
	case s.HasError:
		return t.Error
	case s.Category.IsCreate():
		return t.Create
	case s.Category.IsUpdate():
		return t.Update
	case s.Category == model.CategorySkipExisting, s.Category == model.CategoryInfo:
		return t.Muted
	default:
		return t.Neutral
	}
}

// Terminal renders r for a terminal. Colors degrade to plain text when the
// output is not a color capable terminal.
func Terminal(r Report, t Theme) string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(t.Title)
	ruleStyle := lipgloss.NewStyle().Foreground(t.Muted)
	introStyle := lipgloss.NewStyle().Italic(true).Foreground(t.Neutral)

	var sb strings.Builder
	if r.Title != "" {
		sb.WriteString(titleStyle.Render(r.Title) + "\n")
		sb.WriteString(ruleStyle.Render(strings.Repeat("─", lipgloss.Width(r.Title))) + "\n")
	}
	if r.Intro != "" {
		sb.WriteString(introStyle.Render(r.Intro) + "\n")
	}

	for _, s := range r.Sections {
		head := lipgloss.NewStyle().Bold(true).Foreground(t.sectionColor(s))
		sb.WriteString("\n" + head.Render(s.Title) + "\n")
		if s.Description != "" {
			desc := lipgloss.NewStyle().Foreground(t.Neutral)
			if s.HasError {
				desc = desc.Foreground(t.Error)
			}
			sb.WriteString(desc.Render(s.Description) + "\n")
		}
		for _, it := range s.Items {
			sb.WriteString(terminalItem(it, t) + "\n")
		}
	}
	return sb.String()
}

func terminalItem(it Item, t Theme) string {
	color := t.Neutral
	if it.HasError {
		color = t.Error
	}
	switch it.Kind {
	case TableRow:
		return lipgloss.NewStyle().Foreground(color).Render(it.Text)
	case Verbatim:
		// Preformatted text keeps its own layout.
		return strings.TrimLeft(it.Text, "\r\n")
	default:
		bullet := lipgloss.NewStyle().Foreground(t.Muted).Render("•")
		return strings.Repeat("  ", it.Depth+1) + bullet + " " + lipgloss.NewStyle().Foreground(color).Render(it.Text)
	}
}
