package main

// Notes:
// - printUsage/printConvertUsage/printCleanUsage: we test that required
//   strings are present. Exact formatting is not tested.
// - runHelp: we test routing and the exit code for unknown topics.

import (
	"bytes"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestPrintUsage - Usage text content
// ---------------------------------------------------------------------------

func TestPrintUsage(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		print    func(w *bytes.Buffer)
		required []string
	}{
		{
			name:     "main",
			print:    func(w *bytes.Buffer) { printUsage(w) },
			required: []string{"Usage: convert", "Commands:", "clean", "version", "help"},
		},
		{
			name:  "convert",
			print: func(w *bytes.Buffer) { printConvertUsage(w) },
			required: []string{
				"<input.md> [output]", "--engine", "--browser", "--scale",
				"--timeout", "--clean", "--config", envConfig, "Exit codes:",
			},
		},
		{
			name:     "clean",
			print:    func(w *bytes.Buffer) { printCleanUsage(w) },
			required: []string{"Usage: convert clean", "--config", "--quiet"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			tt.print(&buf)
			for _, s := range tt.required {
				if !strings.Contains(buf.String(), s) {
					t.Errorf("output should contain %q", s)
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRunHelp - Help topic routing
// ---------------------------------------------------------------------------

func TestRunHelp(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{"no topic", nil, ExitSuccess, "Commands:", ""},
		{"convert", []string{"convert"}, ExitSuccess, "--engine", ""},
		{"clean", []string{"clean"}, ExitSuccess, "Usage: convert clean", ""},
		{"version", []string{"version"}, ExitSuccess, "Usage: convert version", ""},
		{"help", []string{"help"}, ExitSuccess, "Usage: convert help", ""},
		{"unknown", []string{"publish"}, ExitUsage, "", "Unknown command: publish"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var stdout, stderr bytes.Buffer
			deps := &Dependencies{Stdout: &stdout, Stderr: &stderr}

			if code := runHelp(tt.args, deps); code != tt.wantCode {
				t.Errorf("runHelp() = %d, want %d", code, tt.wantCode)
			}
			if tt.wantStdout != "" && !strings.Contains(stdout.String(), tt.wantStdout) {
				t.Errorf("stdout = %q, want it to contain %q", stdout.String(), tt.wantStdout)
			}
			if tt.wantStderr != "" && !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want it to contain %q", stderr.String(), tt.wantStderr)
			}
		})
	}
}
