// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"bytes"
	"strings"
	"testing"
)

func TestIcon_Render(t *testing.T) {
	for _, icon := range []Icon{IconSuccess, IconWarning, IconError, IconPending, IconArrow} {
		if got := icon.Render(); !strings.Contains(got, string(icon)) {
			t.Errorf("Render(%q) = %q, missing icon", icon, got)
		}
	}
}

func TestPrinter_MachineLevel(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, LevelMachine)

	p.Title("ignored")
	p.Success("done")
	p.Warning("careful")
	p.Error("broken")
	p.Field("nodes", 12)

	want := "OK: done\nWARN: careful\nERROR: broken\nnodes=12\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestPrinter_PlainLevelHasNoEscapes(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, LevelPlain)

	p.Title("Run")
	p.Success("planned")
	p.Box("Maze", "###")
	p.Table([][]string{{"ID", "OUTCOME"}, {"a", "path_planned"}})

	out := buf.String()
	if strings.Contains(out, "\x1b[") {
		t.Errorf("plain output contains ANSI escapes: %q", out)
	}
	for _, want := range []string{"Run\n", "✓ planned", "Maze\n----\n###", "ID  OUTCOME", "a   path_planned"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrinter_Render(t *testing.T) {
	plain := NewPrinter(&bytes.Buffer{}, LevelPlain)
	if got := plain.Render(Styles.Path, "x"); got != "x" {
		t.Errorf("plain Render = %q, want x", got)
	}
	if plain.Styled() {
		t.Error("plain printer reports styled")
	}
	if !NewPrinter(&bytes.Buffer{}, LevelStyled).Styled() {
		t.Error("styled printer reports unstyled")
	}
}

func TestPrinter_TableMachine(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf, LevelMachine).Table([][]string{{"ID", "KIND"}, {"1", "a"}, {"2", "b"}})
	if got, want := buf.String(), "1\ta\n2\tb\n"; got != want {
		t.Errorf("Table = %q, want %q", got, want)
	}
}
