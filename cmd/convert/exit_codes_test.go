package main

// Notes:
// - exitCodeFor: we test the sentinel errors of the root and config packages,
//   plus wrapped errors to verify the errors.Is chain.
// - Unknown errors fall back to the conversion exit code.

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	mermaid2pdf "github.com/alnah/go-mermaid2pdf"
	"github.com/alnah/go-mermaid2pdf/internal/config"
)

// ---------------------------------------------------------------------------
// TestExitCodeFor - Error to exit code mapping
// ---------------------------------------------------------------------------

func TestExitCodeFor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, ExitSuccess},

		// Usage (exit 1)
		{"usage", ErrUsage, ExitUsage},
		{"invalid input", mermaid2pdf.ErrInvalidInput, ExitUsage},
		{"input not found", mermaid2pdf.ErrInputNotFound, ExitUsage},
		{"invalid output name", mermaid2pdf.ErrInvalidOutputName, ExitUsage},
		{"invalid browser", mermaid2pdf.ErrInvalidBrowser, ExitUsage},
		{"invalid page size", mermaid2pdf.ErrInvalidPageSize, ExitUsage},
		{"invalid margin", mermaid2pdf.ErrInvalidMargin, ExitUsage},
		{"config not found", config.ErrConfigNotFound, ExitUsage},
		{"empty config name", config.ErrEmptyConfigName, ExitUsage},
		{"config parse", config.ErrConfigParse, ExitUsage},
		{"invalid config value", config.ErrInvalidValue, ExitUsage},
		{"wrapped input not found", fmt.Errorf("resolving: %w", mermaid2pdf.ErrInputNotFound), ExitUsage},

		// Conversion (exit 2)
		{"html conversion", mermaid2pdf.ErrHTMLConversion, ExitConversion},
		{"converter not found", mermaid2pdf.ErrConverterNotFound, ExitConversion},
		{"diagram render", mermaid2pdf.ErrDiagramRender, ExitConversion},
		{"canceled", context.Canceled, ExitConversion},
		{"unknown error", errors.New("something unexpected"), ExitConversion},

		// I/O (exit 3)
		{"output dir", mermaid2pdf.ErrOutputDir, ExitIO},
		{"read html", mermaid2pdf.ErrReadHTML, ExitIO},
		{"write html", mermaid2pdf.ErrWriteHTML, ExitIO},
		{"write pdf", mermaid2pdf.ErrWritePDF, ExitIO},
		{"clean", mermaid2pdf.ErrClean, ExitIO},
		{"permission denied", os.ErrPermission, ExitIO},
		{"wrapped write pdf", fmt.Errorf("saving: %w", mermaid2pdf.ErrWritePDF), ExitIO},

		// Browser (exit 4)
		{"browser connect", mermaid2pdf.ErrBrowserConnect, ExitBrowser},
		{"page create", mermaid2pdf.ErrPageCreate, ExitBrowser},
		{"page load", mermaid2pdf.ErrPageLoad, ExitBrowser},
		{"pdf generation", mermaid2pdf.ErrPDFGeneration, ExitBrowser},
		{"wrapped page load", fmt.Errorf("%w: %v", mermaid2pdf.ErrPageLoad, context.DeadlineExceeded), ExitBrowser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestExitCodes_Distinct - Each failure class has its own code
// ---------------------------------------------------------------------------

func TestExitCodes_Distinct(t *testing.T) {
	t.Parallel()

	codes := []int{ExitSuccess, ExitUsage, ExitConversion, ExitIO, ExitBrowser}
	seen := make(map[int]bool)
	for _, c := range codes {
		if seen[c] {
			t.Errorf("exit code %d is used twice", c)
		}
		seen[c] = true
		if c < 0 || c >= 126 {
			t.Errorf("exit code %d outside 0-125", c)
		}
	}
}
