package mermaid2pdf

import (
	"errors"

	"github.com/alnah/go-mermaid2pdf/internal/pipeline"
)

// Sentinel errors for library operations.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrInputNotFound     = errors.New("input file not found")
	ErrInvalidOutputName = errors.New("invalid output name")
	ErrOutputDir         = errors.New("failed to create output directory")
	ErrInvalidBrowser    = errors.New("unknown browser engine")
	ErrInvalidPageSize   = errors.New("invalid page size")
	ErrInvalidMargin     = errors.New("invalid margin")

	// HTML stage errors, shared with the converter implementations.
	ErrHTMLConversion    = pipeline.ErrHTMLConversion
	ErrConverterNotFound = pipeline.ErrConverterNotFound
	ErrDiagramRender     = pipeline.ErrDiagramRender
	ErrReadHTML          = errors.New("failed to read HTML file")
	ErrWriteHTML         = errors.New("failed to write HTML file")

	// PDF stage errors.
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrPDFGeneration  = errors.New("PDF generation failed")
	ErrWritePDF       = errors.New("failed to write PDF file")

	ErrClean = errors.New("failed to remove generated files")
)
