package mermaid2pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/reconquest/karma-go"
	"github.com/reconquest/pkg/log"

	"github.com/alnah/go-mermaid2pdf/internal/fileutil"
	"github.com/alnah/go-mermaid2pdf/internal/pipeline"
)

// Converter runs the Markdown to PDF pipeline for one file at a time.
// Create with NewConverter, call Convert, and Close when done.
// A Converter is not safe for concurrent use.
type Converter struct {
	cfg           converterConfig
	htmlConverter pipeline.HTMLConverter
	renderer      pdfRenderer
}

// NewConverter creates a Converter. Without options it converts with pandoc
// and mermaid-filter, prints with go-rod on A4 with 20mm margins, and writes
// into ./html and ./pdf.
func NewConverter(opts ...Option) (*Converter, error) {
	c := &Converter{
		cfg: converterConfig{
			baseDir:     ".",
			htmlDir:     "html",
			pdfDir:      "pdf",
			timeout:     defaultTimeout,
			settleDelay: defaultSettleDelay,
			scale:       1,
			browser:     BrowserRod,
			page:        DefaultPageSettings(),
			engineName:  "pandoc",
		},
		htmlConverter: newPandocConverter(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if err := c.cfg.page.Validate(); err != nil {
		return nil, err
	}

	if c.renderer == nil {
		settings := browserSettings{
			bin:       c.cfg.browserBin,
			noSandbox: c.cfg.noSandbox,
			timeout:   c.cfg.timeout,
		}
		switch c.cfg.browser {
		case BrowserRod:
			c.renderer = newRodRenderer(settings)
		case BrowserChromedp:
			c.renderer = newChromedpRenderer(settings)
		default:
			return nil, fmt.Errorf("%w: %q (must be %s or %s)", ErrInvalidBrowser, c.cfg.browser, BrowserRod, BrowserChromedp)
		}
	}

	return c, nil
}

// HTMLDir returns the absolute HTML output directory.
func (c *Converter) HTMLDir() (string, error) {
	base, err := filepath.Abs(c.cfg.baseDir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOutputDir, err)
	}
	return underBase(base, c.cfg.htmlDir), nil
}

// Clean removes the HTML output directory. See the package-level Clean.
func (c *Converter) Clean() (bool, error) {
	dir, err := c.HTMLDir()
	if err != nil {
		return false, err
	}
	return Clean(dir)
}

// Close releases the browser and the diagram engine, if started.
func (c *Converter) Close() error {
	var errs []error
	if c.renderer != nil {
		errs = append(errs, c.renderer.Close())
	}
	if c.cfg.diagramClose != nil {
		errs = append(errs, c.cfg.diagramClose())
	}
	return errors.Join(errs...)
}

// Convert runs the pipeline for input. The returned Result is never nil: on
// error its Stage is StageFailed and FailedAt names the stage that failed.
// Nothing is rendered after a failed stage.
func (c *Converter) Convert(ctx context.Context, input Input) (result *Result, err error) {
	result = &Result{Stage: StageIdle}
	running := StagePathsResolved

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
		if err != nil {
			result.FailedAt = running
			result.Stage = StageFailed
			log.Debugf(karma.Describe("stage", running), "conversion failed")
		}
	}()

	// Resolve paths and prepare directories.
	paths, err := ResolvePaths(c.cfg.baseDir, c.cfg.htmlDir, c.cfg.pdfDir, input.InputPath, input.OutputName)
	if err != nil {
		return result, err
	}
	wroteCSS, err := ensureDirs(paths)
	if err != nil {
		return result, err
	}
	result.HTMLPath = paths.HTML
	result.PDFPath = paths.PDF
	result.Stage = StagePathsResolved

	facts := karma.Describe("input", paths.Input).Describe("engine", c.cfg.engineName)
	if wroteCSS {
		log.Debugf(karma.Describe("dir", paths.HTMLDir), "stylesheet written")
	}

	// Markdown to HTML.
	running = StageConverted
	log.Infof(facts, "converting %s to HTML", filepath.Base(paths.Input))
	started := time.Now()
	if err := c.htmlConverter.ConvertFile(ctx, paths.Input, paths.HTML); err != nil {
		return result, wrapConversionError(err)
	}
	log.Infof(nil, "%s conversion complete: %s", c.cfg.engineName, paths.HTML)
	log.Debugf(facts, "HTML conversion took %s", time.Since(started).Round(time.Millisecond))
	result.Stage = StageConverted

	// Diagram normalization.
	running = StageNormalized
	diagrams, err := c.normalize(paths)
	if err != nil {
		return result, err
	}
	result.Diagrams = diagrams
	if diagrams > 0 {
		log.Infof(nil, "adjusted %d SVG diagram(s)", diagrams)
	}
	result.Stage = StageNormalized

	// HTML to PDF.
	running = StageRendered
	if err := c.render(ctx, paths); err != nil {
		return result, err
	}
	log.Infof(nil, "PDF generated: %s", paths.PDF)
	result.Stage = StageRendered

	// Cleanup.
	running = StageDone
	if input.Clean {
		removed, err := Clean(paths.HTMLDir)
		if err != nil {
			return result, err
		}
		result.Cleaned = removed
		log.Infof(karma.Describe("dir", paths.HTMLDir), "cleaned generated HTML files")
	}
	result.Stage = StageDone

	return result, nil
}

// normalize rescales diagrams in the HTML file and makes relative references
// absolute. The file is rewritten only when something changed.
func (c *Converter) normalize(paths Paths) (int, error) {
	data, err := os.ReadFile(paths.HTML) // #nosec G304 -- path built by ResolvePaths
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrReadHTML, err)
	}

	doc, err := pipeline.ParseDocument(string(data))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrReadHTML, err)
	}

	diagrams := pipeline.NormalizeDiagrams(doc, c.cfg.scale)

	rewritten := 0
	if c.cfg.rewritePaths {
		rewritten, err = pipeline.RewriteRelativePaths(doc, filepath.Dir(paths.Input))
		if err != nil {
			return 0, fmt.Errorf("%w: rewriting paths: %v", ErrWriteHTML, err)
		}
		if rewritten > 0 {
			log.Debugf(nil, "rewrote %d relative path(s)", rewritten)
		}
	}

	if diagrams == 0 && rewritten == 0 {
		return 0, nil
	}

	out, err := pipeline.RenderDocument(doc)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrWriteHTML, err)
	}
	if err := fileutil.WriteFileAtomic(paths.HTML, []byte(out), filePermissions); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrWriteHTML, err)
	}
	return diagrams, nil
}

// render prints the HTML file to the PDF path within the configured timeout.
func (c *Converter) render(ctx context.Context, paths Paths) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.timeout)
	defer cancel()

	log.Debugf(
		karma.Describe("browser", c.cfg.browser).Describe("timeout", c.cfg.timeout),
		"rendering %s", paths.HTML,
	)

	pdf, err := c.renderer.RenderFromFile(ctx, paths.HTML, c.cfg.page.pdfOptions(c.cfg.settleDelay))
	if err != nil {
		return err
	}

	if err := fileutil.WriteFileAtomic(paths.PDF, pdf, filePermissions); err != nil {
		return fmt.Errorf("%w: %v", ErrWritePDF, err)
	}
	return nil
}

// wrapConversionError tags converter errors that carry no HTML stage sentinel.
func wrapConversionError(err error) error {
	switch {
	case errors.Is(err, ErrHTMLConversion),
		errors.Is(err, ErrConverterNotFound),
		errors.Is(err, ErrDiagramRender):
		return fmt.Errorf("converting to HTML: %w", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrHTMLConversion, err)
	}
}
