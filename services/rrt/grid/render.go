// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package grid

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/AleutianAI/AleutianRRT/pkg/ux"
)

// PathMark is drawn on open cells of a path.
const PathMark = '.'

// Render draws g with path overlaid. Start and finish keep their markers.
// With styled set, cells are coloured with the ux maze styles.
func Render(g *Grid, path []Coord, styled bool) string {
	onPath := make(map[Coord]bool, len(path))
	for _, c := range path {
		onPath[c] = true
	}

	var b strings.Builder
	for r := 0; r < g.height; r++ {
		if r > 0 {
			b.WriteByte('\n')
		}
		for c := 0; c < g.width; c++ {
			cell := Coord{r, c}
			ch := g.cells[r][c]
			style := ux.Styles.Floor
			switch {
			case cell == g.start:
				ch, style = Start, ux.Styles.Start
			case cell == g.finish:
				ch, style = Finish, ux.Styles.Finish
			case ch == Wall:
				style = ux.Styles.Wall
			case onPath[cell]:
				ch, style = PathMark, ux.Styles.Path
			}
			writeCell(&b, ch, style, styled)
		}
	}
	return b.String()
}

func writeCell(b *strings.Builder, ch byte, style lipgloss.Style, styled bool) {
	if !styled {
		b.WriteByte(ch)
		return
	}
	b.WriteString(style.Render(string(ch)))
}
