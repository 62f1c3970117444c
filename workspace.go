package mermaid2pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-mermaid2pdf/internal/assets"
	"github.com/alnah/go-mermaid2pdf/internal/fileutil"
)

// stylesheetHref is how generated HTML links the stylesheet written next to it.
const stylesheetHref = assets.StylesheetFile

const (
	htmlExt = ".html"
	pdfExt  = ".pdf"

	dirPermissions  = 0o755
	filePermissions = 0o644
)

// Paths holds the resolved locations of one conversion.
type Paths struct {
	Input   string // absolute Markdown path
	HTMLDir string
	PDFDir  string
	HTML    string // HTMLDir/<name>.html
	PDF     string // PDFDir/<name>.pdf
}

// ResolvePaths validates inputPath and derives the output locations.
//
// With an explicit outputName, ".html" is appended unless already present.
// Otherwise the input base name gets its extension replaced by ".html".
// The PDF shares the HTML base name. htmlDir and pdfDir are joined to
// baseDir unless absolute.
func ResolvePaths(baseDir, htmlDir, pdfDir, inputPath, outputName string) (Paths, error) {
	if strings.TrimSpace(inputPath) == "" {
		return Paths{}, fmt.Errorf("%w: input path is required", ErrInvalidInput)
	}

	info, err := os.Stat(inputPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Paths{}, fmt.Errorf("%w: %s", ErrInputNotFound, inputPath)
		}
		return Paths{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !info.Mode().IsRegular() {
		return Paths{}, fmt.Errorf("%w: %s is not a regular file", ErrInvalidInput, inputPath)
	}

	htmlName, err := htmlFileName(inputPath, outputName)
	if err != nil {
		return Paths{}, err
	}

	absInput, err := filepath.Abs(inputPath)
	if err != nil {
		return Paths{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return Paths{}, fmt.Errorf("%w: %v", ErrOutputDir, err)
	}

	p := Paths{
		Input:   absInput,
		HTMLDir: underBase(absBase, htmlDir),
		PDFDir:  underBase(absBase, pdfDir),
	}
	p.HTML = filepath.Join(p.HTMLDir, htmlName)
	p.PDF = filepath.Join(p.PDFDir, strings.TrimSuffix(htmlName, htmlExt)+pdfExt)
	return p, nil
}

// htmlFileName applies the output naming rules.
func htmlFileName(inputPath, outputName string) (string, error) {
	if outputName == "" {
		return fileutil.TrimExt(inputPath) + htmlExt, nil
	}

	if fileutil.IsFilePath(outputName) || outputName == "." || outputName == ".." {
		return "", fmt.Errorf("%w: %q must be a file name, not a path", ErrInvalidOutputName, outputName)
	}
	if outputName == htmlExt {
		return "", fmt.Errorf("%w: %q has no base name", ErrInvalidOutputName, outputName)
	}
	if strings.HasSuffix(outputName, htmlExt) {
		return outputName, nil
	}
	return outputName + htmlExt, nil
}

func underBase(base, dir string) string {
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(base, dir)
}

// ensureDirs creates the HTML and PDF directories and writes the shared
// stylesheet into the HTML directory when missing. It reports whether the
// stylesheet was written.
func ensureDirs(p Paths) (bool, error) {
	for _, dir := range []string{p.HTMLDir, p.PDFDir} {
		if err := os.MkdirAll(dir, dirPermissions); err != nil {
			return false, fmt.Errorf("%w: %v", ErrOutputDir, err)
		}
	}

	wrote, err := assets.WriteStylesheet(p.HTMLDir)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrOutputDir, err)
	}
	return wrote, nil
}

// Clean removes htmlDir and everything in it. It reports whether there was
// anything to remove; a missing directory is not an error, so calling it
// twice is safe.
func Clean(htmlDir string) (bool, error) {
	if htmlDir == "" {
		return false, fmt.Errorf("%w: empty directory", ErrClean)
	}

	if _, err := os.Lstat(htmlDir); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrClean, err)
	}
	if !fileutil.DirExists(htmlDir) {
		return false, fmt.Errorf("%w: %s is not a directory", ErrClean, htmlDir)
	}

	if err := os.RemoveAll(htmlDir); err != nil {
		return false, fmt.Errorf("%w: %v", ErrClean, err)
	}
	return true, nil
}
