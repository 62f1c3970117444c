package main

// Notes:
// - runMain: we drive the CLI with a fake converter, so no pandoc or browser
//   is started. Tests calling runMain are not parallel because initLogging
//   points the shared logger at each test's stderr buffer.
// - applyFlags/buildOptions: we test config overrides and that the options
//   build a real Converter (construction launches nothing).
// - loadConfig and buildOptions log at debug level through the shared
//   logger, so their tests are not parallel either.
// - hintFor: we test which errors get a hint. Hint wording lives in
//   internal/hints.

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	mermaid2pdf "github.com/alnah/go-mermaid2pdf"
	"github.com/alnah/go-mermaid2pdf/internal/config"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - Fake converter
// ---------------------------------------------------------------------------

type fakeConverter struct {
	result   *mermaid2pdf.Result
	err      error
	removed  bool
	cleanErr error
	htmlDir  string

	input        mermaid2pdf.Input
	convertCalls int
	cleanCalls   int
	closed       bool
}

func (f *fakeConverter) Convert(_ context.Context, input mermaid2pdf.Input) (*mermaid2pdf.Result, error) {
	f.convertCalls++
	f.input = input
	if f.err != nil {
		failed := &mermaid2pdf.Result{Stage: mermaid2pdf.StageFailed, FailedAt: mermaid2pdf.StageConverted}
		return failed, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &mermaid2pdf.Result{
		Stage:   mermaid2pdf.StageDone,
		PDFPath: filepath.Join("/out/pdf", strings.TrimSuffix(filepath.Base(input.InputPath), ".md")+".pdf"),
	}, nil
}

func (f *fakeConverter) HTMLDir() (string, error) { return f.htmlDir, nil }

func (f *fakeConverter) Clean() (bool, error) {
	f.cleanCalls++
	return f.removed, f.cleanErr
}

func (f *fakeConverter) Close() error {
	f.closed = true
	return nil
}

type testEnv struct {
	deps      *Dependencies
	stdout    *bytes.Buffer
	stderr    *bytes.Buffer
	conv      *fakeConverter
	factoryOK bool
	optCount  int
	env       map[string]string
}

func newTestEnv(conv *fakeConverter) *testEnv {
	te := &testEnv{
		stdout:    &bytes.Buffer{},
		stderr:    &bytes.Buffer{},
		conv:      conv,
		factoryOK: true,
		env:       map[string]string{},
	}
	te.deps = &Dependencies{
		Now:    func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
		Stdout: te.stdout,
		Stderr: te.stderr,
		Getenv: func(k string) string { return te.env[k] },
		NewConverter: func(opts ...mermaid2pdf.Option) (converter, error) {
			te.optCount = len(opts)
			if !te.factoryOK {
				return nil, fmt.Errorf("%w: %q", mermaid2pdf.ErrInvalidBrowser, "netscape")
			}
			return te.conv, nil
		},
	}
	return te
}

func (te *testEnv) run(args ...string) int {
	return runMain(append([]string{"convert"}, args...), te.deps)
}

// ---------------------------------------------------------------------------
// TestRunMain_Commands - Dispatch of commands and usage errors
// ---------------------------------------------------------------------------

func TestRunMain_Commands(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{"no arguments", nil, ExitUsage, "", "missing input file"},
		{"version", []string{"version"}, ExitSuccess, "convert " + Version, ""},
		{"version flag", []string{"--version"}, ExitSuccess, "convert " + Version, ""},
		{"help", []string{"help"}, ExitSuccess, "Commands:", ""},
		{"help flag", []string{"-h"}, ExitSuccess, "Commands:", ""},
		{"help topic", []string{"help", "clean"}, ExitSuccess, "Usage: convert clean", ""},
		{"convert help flag", []string{"doc.md", "--help"}, ExitSuccess, "--engine", ""},
		{"flags without input", []string{"-q"}, ExitUsage, "", "missing input file"},
		{"too many arguments", []string{"a.md", "b", "c"}, ExitUsage, "", `unexpected argument "c"`},
		{"unknown flag", []string{"a.md", "--toc"}, ExitUsage, "", "Usage: convert"},
		{"clean with arguments", []string{"clean", "html"}, ExitUsage, "", "clean takes no arguments"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			te := newTestEnv(&fakeConverter{})

			if code := te.run(tt.args...); code != tt.wantCode {
				t.Errorf("exit code = %d, want %d (stderr: %s)", code, tt.wantCode, te.stderr)
			}
			if tt.wantStdout != "" && !strings.Contains(te.stdout.String(), tt.wantStdout) {
				t.Errorf("stdout = %q, want it to contain %q", te.stdout, tt.wantStdout)
			}
			if tt.wantStderr != "" && !strings.Contains(te.stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want it to contain %q", te.stderr, tt.wantStderr)
			}
			if te.conv.convertCalls != 0 {
				t.Error("converter should not run")
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRunMain_Convert - Conversion outcomes and exit codes
// ---------------------------------------------------------------------------

func TestRunMain_Convert(t *testing.T) {
	t.Run("success prints the PDF path", func(t *testing.T) {
		te := newTestEnv(&fakeConverter{})

		if code := te.run("docs/guide.md"); code != ExitSuccess {
			t.Fatalf("exit code = %d, want %d (stderr: %s)", code, ExitSuccess, te.stderr)
		}
		if got := te.stdout.String(); got != "docs/guide.md -> /out/pdf/guide.pdf\n" {
			t.Errorf("stdout = %q", got)
		}
		if te.conv.input.InputPath != "docs/guide.md" || te.conv.input.OutputName != "" || te.conv.input.Clean {
			t.Errorf("input = %+v", te.conv.input)
		}
		if !te.conv.closed {
			t.Error("converter should be closed")
		}
		if te.optCount == 0 {
			t.Error("converter should receive options")
		}
	})

	t.Run("output name and clean flag", func(t *testing.T) {
		te := newTestEnv(&fakeConverter{})

		if code := te.run("guide.md", "manual", "--clean"); code != ExitSuccess {
			t.Fatalf("exit code = %d, want %d", code, ExitSuccess)
		}
		if te.conv.input.OutputName != "manual" || !te.conv.input.Clean {
			t.Errorf("input = %+v, want OutputName manual and Clean", te.conv.input)
		}
	})

	t.Run("quiet suppresses stdout", func(t *testing.T) {
		te := newTestEnv(&fakeConverter{})

		if code := te.run("guide.md", "-q"); code != ExitSuccess {
			t.Fatalf("exit code = %d, want %d", code, ExitSuccess)
		}
		if te.stdout.Len() != 0 {
			t.Errorf("stdout = %q, want empty", te.stdout)
		}
	})

	failures := []struct {
		name     string
		err      error
		wantCode int
		wantHint string
	}{
		{"input not found", fmt.Errorf("%w: missing.md", mermaid2pdf.ErrInputNotFound), ExitUsage, ""},
		{"pandoc missing", fmt.Errorf("converting to HTML: %w", mermaid2pdf.ErrConverterNotFound), ExitConversion, "install pandoc"},
		{"pandoc failed", mermaid2pdf.ErrHTMLConversion, ExitConversion, ""},
		{"diagram error", mermaid2pdf.ErrDiagramRender, ExitConversion, "mermaid.live"},
		{"write html", mermaid2pdf.ErrWriteHTML, ExitIO, ""},
		{"browser connect", mermaid2pdf.ErrBrowserConnect, ExitBrowser, ""},
		{"page load timeout", fmt.Errorf("%w: %w", mermaid2pdf.ErrPageLoad, context.DeadlineExceeded), ExitBrowser, "--timeout"},
	}

	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			te := newTestEnv(&fakeConverter{err: tt.err})

			if code := te.run("guide.md"); code != tt.wantCode {
				t.Errorf("exit code = %d, want %d", code, tt.wantCode)
			}
			if te.stdout.Len() != 0 {
				t.Errorf("stdout = %q, want empty on failure", te.stdout)
			}
			if !strings.Contains(te.stderr.String(), "conversion failed") {
				t.Errorf("stderr = %q, want failure message", te.stderr)
			}
			if tt.wantHint != "" && !strings.Contains(te.stderr.String(), tt.wantHint) {
				t.Errorf("stderr = %q, want hint containing %q", te.stderr, tt.wantHint)
			}
			if !te.conv.closed {
				t.Error("converter should be closed after a failure")
			}
		})
	}

	t.Run("converter construction fails", func(t *testing.T) {
		te := newTestEnv(&fakeConverter{})
		te.factoryOK = false

		if code := te.run("guide.md"); code != ExitUsage {
			t.Errorf("exit code = %d, want %d", code, ExitUsage)
		}
		if te.conv.convertCalls != 0 {
			t.Error("converter should not run")
		}
	})

	t.Run("invalid flag values stop before conversion", func(t *testing.T) {
		for _, args := range [][]string{
			{"guide.md", "--scale", "0"},
			{"guide.md", "--scale", "NaN"},
			{"guide.md", "--scale", "+Inf"},
			{"guide.md", "--timeout", "0s"},
			{"guide.md", "--engine", "markdown-it"},
			{"guide.md", "--browser", "firefox"},
			{"guide.md", "--page-size", "a3"},
			{"guide.md", "--margin", "150"},
		} {
			te := newTestEnv(&fakeConverter{})

			if code := te.run(args...); code != ExitUsage {
				t.Errorf("%v: exit code = %d, want %d", args, code, ExitUsage)
			}
			if te.optCount != 0 || te.conv.convertCalls != 0 {
				t.Errorf("%v: converter should not be created", args)
			}
		}
	})

	t.Run("missing config", func(t *testing.T) {
		te := newTestEnv(&fakeConverter{})

		code := te.run("guide.md", "-c", filepath.Join(t.TempDir(), "absent.yaml"))
		if code != ExitUsage {
			t.Errorf("exit code = %d, want %d", code, ExitUsage)
		}
		if !strings.Contains(te.stderr.String(), "--config") {
			t.Errorf("stderr = %q, want config hint", te.stderr)
		}
	})
}

// ---------------------------------------------------------------------------
// TestRunMain_Clean - Clean command messages
// ---------------------------------------------------------------------------

func TestRunMain_Clean(t *testing.T) {
	tests := []struct {
		name       string
		conv       *fakeConverter
		args       []string
		wantCode   int
		wantStdout string
	}{
		{"nothing to clean", &fakeConverter{}, nil, ExitSuccess, "No generated files found to clean.\n"},
		{"removed", &fakeConverter{removed: true, htmlDir: "/work/html"}, nil, ExitSuccess, "Removed /work/html\n"},
		{"quiet", &fakeConverter{removed: true, htmlDir: "/work/html"}, []string{"-q"}, ExitSuccess, ""},
		{"failure", &fakeConverter{cleanErr: mermaid2pdf.ErrClean}, nil, ExitIO, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			te := newTestEnv(tt.conv)

			code := te.run(append([]string{"clean"}, tt.args...)...)
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d", code, tt.wantCode)
			}
			if got := te.stdout.String(); got != tt.wantStdout {
				t.Errorf("stdout = %q, want %q", got, tt.wantStdout)
			}
			if tt.conv.cleanCalls != 1 {
				t.Errorf("Clean called %d times, want 1", tt.conv.cleanCalls)
			}
			if tt.conv.convertCalls != 0 {
				t.Error("clean should not convert")
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestInputFromArgs - Positional argument mapping
// ---------------------------------------------------------------------------

func TestInputFromArgs(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		args    []string
		clean   bool
		want    mermaid2pdf.Input
		wantErr bool
	}{
		{"input only", []string{"a.md"}, false, mermaid2pdf.Input{InputPath: "a.md"}, false},
		{"input and output", []string{"a.md", "out"}, true, mermaid2pdf.Input{InputPath: "a.md", OutputName: "out", Clean: true}, false},
		{"missing", nil, false, mermaid2pdf.Input{}, true},
		{"too many", []string{"a.md", "b", "c"}, false, mermaid2pdf.Input{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := inputFromArgs(tt.args, tt.clean)
			if tt.wantErr {
				if !errors.Is(err, ErrUsage) {
					t.Errorf("error = %v, want ErrUsage", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("input = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestLoadConfig - Config selection
// ---------------------------------------------------------------------------

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "work.yaml")
	data := "browser:\n  engine: chromedp\nnormalize:\n  scale: 2\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("defaults without a name", func(t *testing.T) {
		deps := &Dependencies{Getenv: func(string) string { return "" }}
		cfg, err := loadConfig("", deps)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Browser.Engine != config.BrowserRod {
			t.Errorf("browser = %q, want default", cfg.Browser.Engine)
		}
	})

	t.Run("explicit path", func(t *testing.T) {
		cfg, err := loadConfig(path, &Dependencies{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Browser.Engine != config.BrowserChromedp || cfg.Normalize.Scale != 2 {
			t.Errorf("browser/scale = %q/%g", cfg.Browser.Engine, cfg.Normalize.Scale)
		}
	})

	t.Run("environment variable", func(t *testing.T) {
		deps := &Dependencies{Getenv: func(k string) string {
			if k == envConfig {
				return path
			}
			return ""
		}}
		cfg, err := loadConfig("", deps)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Browser.Engine != config.BrowserChromedp {
			t.Errorf("browser = %q, want chromedp from %s", cfg.Browser.Engine, envConfig)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loadConfig(filepath.Join(dir, "absent.yaml"), &Dependencies{})
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("error = %v, want ErrConfigNotFound", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestApplyFlags - Command-line overrides
// ---------------------------------------------------------------------------

func TestApplyFlags(t *testing.T) {
	t.Parallel()

	t.Run("only changed flags override", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		cfg.Browser.Engine = config.BrowserChromedp
		f, _, err := parseConvertFlags([]string{"a.md", "--scale", "3", "-t", "1m", "-p", "LETTER"})
		if err != nil {
			t.Fatal(err)
		}

		if err := applyFlags(cfg, f); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Normalize.Scale != 3 {
			t.Errorf("scale = %g, want 3", cfg.Normalize.Scale)
		}
		if cfg.Browser.Timeout != "1m0s" {
			t.Errorf("timeout = %q, want 1m0s", cfg.Browser.Timeout)
		}
		if cfg.PDF.PageSize != "letter" {
			t.Errorf("page size = %q, want letter", cfg.PDF.PageSize)
		}
		if cfg.Browser.Engine != config.BrowserChromedp {
			t.Errorf("browser = %q, config value should survive", cfg.Browser.Engine)
		}
	})

	t.Run("invalid override", func(t *testing.T) {
		t.Parallel()

		f, _, err := parseConvertFlags([]string{"a.md", "--engine", "word"})
		if err != nil {
			t.Fatal(err)
		}
		err = applyFlags(config.DefaultConfig(), f)
		if !errors.Is(err, config.ErrInvalidValue) {
			t.Errorf("error = %v, want ErrInvalidValue", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestBuildOptions - Options build a working Converter
// ---------------------------------------------------------------------------

func TestBuildOptions(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"defaults", func(*config.Config) {}},
		{"goldmark and chromedp", func(c *config.Config) {
			c.Converter.Engine = config.EngineGoldmark
			c.Browser.Engine = config.BrowserChromedp
		}},
		{"custom layout", func(c *config.Config) {
			c.Output.BaseDir = "/tmp/out"
			c.PDF.PageSize = "legal"
			c.PDF.MarginMM = 5
			c.Browser.SettleDelay = "0s"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.mutate(cfg)

			opts, err := buildOptions(cfg)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			conv, err := mermaid2pdf.NewConverter(opts...)
			if err != nil {
				t.Fatalf("NewConverter() error: %v", err)
			}
			if err := conv.Close(); err != nil {
				t.Errorf("Close() error: %v", err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestHintFor - Hints attached to conversion errors
// ---------------------------------------------------------------------------

func TestHintFor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      error
		wantHint bool
	}{
		{"converter not found", mermaid2pdf.ErrConverterNotFound, true},
		{"diagram render", mermaid2pdf.ErrDiagramRender, true},
		{"deadline", fmt.Errorf("%w: %w", mermaid2pdf.ErrPageLoad, context.DeadlineExceeded), true},
		{"output dir", mermaid2pdf.ErrOutputDir, true},
		{"write pdf", mermaid2pdf.ErrWritePDF, false},
		{"html conversion", mermaid2pdf.ErrHTMLConversion, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := hintFor(tt.err, config.DefaultConfig())
			if (got != "") != tt.wantHint {
				t.Errorf("hintFor(%v) = %q, want hint: %v", tt.err, got, tt.wantHint)
			}
			if got != "" && !strings.HasPrefix(got, "\n  hint: ") {
				t.Errorf("hint %q lacks the hint prefix", got)
			}
		})
	}
}
