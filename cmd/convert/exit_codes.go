package main

import (
	"errors"
	"os"

	mermaid2pdf "github.com/alnah/go-mermaid2pdf"
	"github.com/alnah/go-mermaid2pdf/internal/config"
)

// Exit codes for the convert CLI.
const (
	ExitSuccess    = 0 // PDF written, or command completed
	ExitUsage      = 1 // Missing or invalid arguments, input not found, bad config
	ExitConversion = 2 // Markdown to HTML failed, or any other failure
	ExitIO         = 3 // Reading or writing generated files
	ExitBrowser    = 4 // Browser launch, page load or PDF printing
)

// exitCodeFor returns the exit code for an error.
// It uses errors.Is, so callers must wrap with fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Usage errors (exit 1)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, mermaid2pdf.ErrInvalidInput) ||
		errors.Is(err, mermaid2pdf.ErrInputNotFound) ||
		errors.Is(err, mermaid2pdf.ErrInvalidOutputName) ||
		errors.Is(err, mermaid2pdf.ErrInvalidBrowser) ||
		errors.Is(err, mermaid2pdf.ErrInvalidPageSize) ||
		errors.Is(err, mermaid2pdf.ErrInvalidMargin) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrInvalidValue) {
		return ExitUsage
	}

	// Browser errors (exit 4)
	if errors.Is(err, mermaid2pdf.ErrBrowserConnect) ||
		errors.Is(err, mermaid2pdf.ErrPageCreate) ||
		errors.Is(err, mermaid2pdf.ErrPageLoad) ||
		errors.Is(err, mermaid2pdf.ErrPDFGeneration) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, mermaid2pdf.ErrOutputDir) ||
		errors.Is(err, mermaid2pdf.ErrReadHTML) ||
		errors.Is(err, mermaid2pdf.ErrWriteHTML) ||
		errors.Is(err, mermaid2pdf.ErrWritePDF) ||
		errors.Is(err, mermaid2pdf.ErrClean) ||
		errors.Is(err, os.ErrPermission) {
		return ExitIO
	}

	return ExitConversion
}
