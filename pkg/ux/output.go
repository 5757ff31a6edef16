// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ux provides terminal output styling for the rrt CLI.
package ux

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Aleutian color palette - deep ocean teals and arctic waters
var (
	ColorTealBright  = lipgloss.Color("#2CD7C7") // Bright teal - highlights, success
	ColorTealPrimary = lipgloss.Color("#20B9B4") // Primary teal - main brand color
	ColorTealDeep    = lipgloss.Color("#16858E") // Deep teal - borders, accents
	ColorDeepSea     = lipgloss.Color("#104855") // Deep sea blue
	ColorSlate       = lipgloss.Color("#2C4A54") // Slate - muted text, borders

	ColorSuccess = lipgloss.Color("#2CD7C7")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
)

// Styles provides pre-configured lipgloss styles
var Styles = struct {
	Title   lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style

	Box      lipgloss.Style
	ErrorBox lipgloss.Style

	// Maze cells
	Wall   lipgloss.Style
	Floor  lipgloss.Style
	Path   lipgloss.Style
	Start  lipgloss.Style
	Finish lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(ColorTealBright),
	Bold:    lipgloss.NewStyle().Bold(true),
	Muted:   lipgloss.NewStyle().Foreground(ColorSlate),
	Success: lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning: lipgloss.NewStyle().Foreground(ColorWarning),
	Error:   lipgloss.NewStyle().Foreground(ColorError),

	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorTealDeep).
		Padding(0, 1),
	ErrorBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorError).
		Padding(0, 1),

	Wall:   lipgloss.NewStyle().Foreground(ColorDeepSea),
	Floor:  lipgloss.NewStyle().Foreground(ColorSlate),
	Path:   lipgloss.NewStyle().Foreground(ColorTealPrimary).Bold(true),
	Start:  lipgloss.NewStyle().Foreground(ColorWarning).Bold(true),
	Finish: lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true),
}

// Icon provides themed status icons
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconPending Icon = "○"
	IconArrow   Icon = "→"
)

// Render returns the icon with appropriate styling
func (i Icon) Render() string {
	switch i {
	case IconSuccess:
		return Styles.Success.Render(string(i))
	case IconWarning:
		return Styles.Warning.Render(string(i))
	case IconError:
		return Styles.Error.Render(string(i))
	case IconPending:
		return Styles.Muted.Render(string(i))
	default:
		return string(i)
	}
}

// Printer writes CLI output at one Level.
//
// Thread Safety: NOT safe for concurrent use.
type Printer struct {
	w     io.Writer
	level Level
}

// NewPrinter creates a printer writing to w.
func NewPrinter(w io.Writer, level Level) *Printer {
	return &Printer{w: w, level: level}
}

// Level returns the printer's output level.
func (p *Printer) Level() Level {
	return p.level
}

// Styled reports whether the printer emits colour.
func (p *Printer) Styled() bool {
	return p.level == LevelStyled
}

// Render applies style when the printer is styled.
func (p *Printer) Render(style lipgloss.Style, text string) string {
	if !p.Styled() {
		return text
	}
	return style.Render(text)
}

// Title prints a styled title
func (p *Printer) Title(text string) {
	if p.level == LevelMachine {
		return
	}
	fmt.Fprintln(p.w, p.Render(Styles.Title, text))
}

// Success prints a success message with checkmark
func (p *Printer) Success(text string) {
	switch p.level {
	case LevelMachine:
		fmt.Fprintf(p.w, "OK: %s\n", text)
	case LevelPlain:
		fmt.Fprintf(p.w, "%s %s\n", IconSuccess, text)
	default:
		fmt.Fprintf(p.w, "%s %s\n", IconSuccess.Render(), Styles.Success.Render(text))
	}
}

// Warning prints a warning message
func (p *Printer) Warning(text string) {
	switch p.level {
	case LevelMachine:
		fmt.Fprintf(p.w, "WARN: %s\n", text)
	case LevelPlain:
		fmt.Fprintf(p.w, "%s %s\n", IconWarning, text)
	default:
		fmt.Fprintf(p.w, "%s %s\n", IconWarning.Render(), Styles.Warning.Render(text))
	}
}

// Error prints an error message
func (p *Printer) Error(text string) {
	switch p.level {
	case LevelMachine:
		fmt.Fprintf(p.w, "ERROR: %s\n", text)
	case LevelPlain:
		fmt.Fprintf(p.w, "%s %s\n", IconError, text)
	default:
		fmt.Fprintf(p.w, "%s %s\n", IconError.Render(), Styles.Error.Render(text))
	}
}

// Field prints a key/value line.
func (p *Printer) Field(key string, value any) {
	switch p.level {
	case LevelMachine:
		fmt.Fprintf(p.w, "%s=%v\n", key, value)
	default:
		fmt.Fprintf(p.w, "%s %s %v\n", p.Render(Styles.Muted, "│"), p.Render(Styles.Bold, key+":"), value)
	}
}

// Box prints text in a rounded box
func (p *Printer) Box(title, content string) {
	switch p.level {
	case LevelMachine:
		fmt.Fprintf(p.w, "%s:\n%s\n", title, content)
	case LevelPlain:
		fmt.Fprintf(p.w, "%s\n%s\n%s\n", title, strings.Repeat("-", len(title)), content)
	default:
		fmt.Fprintln(p.w, Styles.Box.Render(Styles.Title.Render(title)+"\n"+content))
	}
}

// Table prints rows as aligned columns. The first row is the header.
func (p *Printer) Table(rows [][]string) {
	if len(rows) == 0 {
		return
	}
	if p.level == LevelMachine {
		for _, row := range rows[1:] {
			fmt.Fprintln(p.w, strings.Join(row, "\t"))
		}
		return
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	for r, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			if i < len(widths) {
				cell += strings.Repeat(" ", widths[i]-len(cell))
			}
			cells[i] = cell
		}
		line := strings.TrimRight(strings.Join(cells, "  "), " ")
		if r == 0 {
			line = p.Render(Styles.Bold, line)
		}
		fmt.Fprintln(p.w, line)
	}
}
