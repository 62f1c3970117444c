package pipeline

import "errors"

// Sentinel errors for pipeline stages.
var (
	ErrEmptyPath         = errors.New("path cannot be empty")
	ErrHTMLConversion    = errors.New("HTML conversion failed")
	ErrConverterNotFound = errors.New("document converter not found")
	ErrDiagramRender     = errors.New("diagram rendering failed")
)
