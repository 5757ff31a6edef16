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
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Level defines how rich CLI output is.
type Level string

const (
	// LevelStyled enables colors, icons and boxes.
	LevelStyled Level = "styled"

	// LevelPlain keeps icons and layout but drops colour.
	LevelPlain Level = "plain"

	// LevelMachine outputs plain key/value text suitable for scripting.
	LevelMachine Level = "machine"

	// LevelAuto picks styled for terminals and plain otherwise.
	LevelAuto Level = "auto"
)

// ParseLevel parses a level name, case-insensitively. Empty means auto.
func ParseLevel(s string) (Level, error) {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case "", LevelAuto:
		return LevelAuto, nil
	case LevelStyled:
		return LevelStyled, nil
	case LevelPlain:
		return LevelPlain, nil
	case LevelMachine:
		return LevelMachine, nil
	default:
		return "", fmt.Errorf("unknown output level %q (want auto, styled, plain or machine)", s)
	}
}

// Resolve turns LevelAuto into a concrete level for w, honouring NO_COLOR.
func Resolve(level Level, w io.Writer) Level {
	if level != LevelAuto {
		return level
	}
	if os.Getenv("NO_COLOR") != "" {
		return LevelPlain
	}
	if IsTerminal(w) {
		return LevelStyled
	}
	return LevelPlain
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
