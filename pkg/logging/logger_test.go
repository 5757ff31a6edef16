// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func fixedNow() time.Time {
	return time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
}

func TestNew_TextOutput(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Level: slog.LevelWarn, Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer log.Close()

	log.Slog().Info("hidden")
	log.Slog().Warn("shown", "k", "v")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record written at warn level: %q", out)
	}
	if !strings.Contains(out, "msg=shown") || !strings.Contains(out, "k=v") {
		t.Errorf("missing warn record: %q", out)
	}
	if log.Path() != "" {
		t.Errorf("Path() = %q, want empty without LogDir", log.Path())
	}
}

func TestNew_JSONWithService(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Level: slog.LevelInfo, JSON: true, Output: &buf, Service: "rrt-test"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	log.Slog().Info("hello")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if rec["service"] != "rrt-test" {
		t.Errorf("service = %v, want rrt-test", rec["service"])
	}
	if rec["msg"] != "hello" {
		t.Errorf("msg = %v, want hello", rec["msg"])
	}
}

func TestNew_FileAndOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	var buf bytes.Buffer
	log, err := New(Config{
		Level:   slog.LevelDebug,
		Output:  &buf,
		LogDir:  dir,
		Service: "planner",
		Now:     fixedNow,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	want := filepath.Join(dir, "planner_2025-03-04.log")
	if log.Path() != want {
		t.Errorf("Path() = %q, want %q", log.Path(), want)
	}

	log.Slog().With("run", 7).Debug("both")
	if err := log.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := log.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	if !strings.Contains(buf.String(), "msg=both") {
		t.Errorf("output missing record: %q", buf.String())
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &rec); err != nil {
		t.Fatalf("log file is not JSON: %v (%q)", err, data)
	}
	if rec["msg"] != "both" || rec["run"] != float64(7) || rec["service"] != "planner" {
		t.Errorf("unexpected file record: %v", rec)
	}
}

func TestNew_QuietWithoutFile(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Quiet: true, Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	log.Slog().Error("dropped")
	if buf.Len() != 0 {
		t.Errorf("quiet logger wrote %q", buf.String())
	}
}

func TestNew_BadLogDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := New(Config{LogDir: filepath.Join(file, "sub")}); err == nil {
		t.Error("New() with a file as log dir parent: want error")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	tests := []struct {
		in, want string
	}{
		{"~/.rrt/logs", filepath.Join(home, ".rrt/logs")},
		{"/var/log", "/var/log"},
		{"relative/path", "relative/path"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := expandPath(tt.in); got != tt.want {
			t.Errorf("expandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
