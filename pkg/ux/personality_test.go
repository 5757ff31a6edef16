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
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"", LevelAuto, false},
		{"auto", LevelAuto, false},
		{"Styled", LevelStyled, false},
		{" plain ", LevelPlain, false},
		{"machine", LevelMachine, false},
		{"loud", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	var buf bytes.Buffer
	if got := Resolve(LevelMachine, &buf); got != LevelMachine {
		t.Errorf("Resolve(machine) = %q", got)
	}
	if got := Resolve(LevelAuto, &buf); got != LevelPlain {
		t.Errorf("Resolve(auto, buffer) = %q, want plain", got)
	}
	if IsTerminal(&buf) {
		t.Error("buffer reported as terminal")
	}
}
