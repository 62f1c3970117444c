package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Stylesheet identifiers.
const (
	StylesheetStyle  = "mermaid-styles"
	StylesheetFile   = StylesheetStyle + ".css"
	DocumentTemplate = "document"
)

const stylesheetPermissions = 0o644

// WriteStylesheet writes the diagram stylesheet into dir unless a file with
// that name already exists. It reports whether the file was written.
// An existing stylesheet is never overwritten.
func WriteStylesheet(dir string) (bool, error) {
	path := filepath.Join(dir, StylesheetFile)

	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("%w: %v", ErrStylesheetWrite, err)
	}

	css, err := LoadStyle(StylesheetStyle)
	if err != nil {
		return false, err
	}

	// #nosec G306 -- stylesheet is loaded by the browser, must be readable
	if err := os.WriteFile(path, []byte(css), stylesheetPermissions); err != nil {
		return false, fmt.Errorf("%w: %v", ErrStylesheetWrite, err)
	}

	return true, nil
}
