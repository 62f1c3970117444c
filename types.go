package mermaid2pdf

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/alnah/go-mermaid2pdf/internal/config"
	"github.com/alnah/go-mermaid2pdf/internal/pipeline"
)

// Input describes one conversion.
type Input struct {
	InputPath  string // Markdown file, required
	OutputName string // HTML/PDF base name; empty derives it from InputPath
	Clean      bool   // remove the HTML directory once the PDF is written
}

// Stage is a step of the conversion state machine. Stages only move forward:
// Idle, PathsResolved, Converted, Normalized, Rendered, Done. Failed ends a
// run from any step.
type Stage int

const (
	StageIdle Stage = iota
	StagePathsResolved
	StageConverted
	StageNormalized
	StageRendered
	StageDone
	StageFailed
)

var stageNames = [...]string{
	StageIdle:          "idle",
	StagePathsResolved: "paths-resolved",
	StageConverted:     "converted",
	StageNormalized:    "normalized",
	StageRendered:      "rendered",
	StageDone:          "done",
	StageFailed:        "failed",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// Result reports what a conversion produced.
type Result struct {
	Stage    Stage  // last stage reached, StageFailed on error
	FailedAt Stage  // stage that was running when the error occurred
	HTMLPath string // generated HTML, removed when Input.Clean is set
	PDFPath  string
	Diagrams int  // SVG diagrams normalized
	Cleaned  bool // HTML directory removed after rendering
}

// Browser engines.
const (
	BrowserRod      = "rod"
	BrowserChromedp = "chromedp"
)

// PageSettings defines the printed page.
type PageSettings struct {
	Size     string  // "a4" (default), "letter", "legal"
	MarginMM float64 // applied to all four sides
}

// DefaultPageSettings returns A4 with 20mm margins.
func DefaultPageSettings() PageSettings {
	return PageSettings{Size: "a4", MarginMM: defaultMarginMM}
}

// Validate checks the page size and margin range.
func (p PageSettings) Validate() error {
	if _, ok := config.PageSizes[strings.ToLower(p.Size)]; !ok {
		return fmt.Errorf("%w: %q (must be a4, letter or legal)", ErrInvalidPageSize, p.Size)
	}
	if !(p.MarginMM >= 0 && p.MarginMM <= maxMarginMM) {
		return fmt.Errorf("%w: %gmm (must be between 0 and %d)", ErrInvalidMargin, p.MarginMM, maxMarginMM)
	}
	return nil
}

// pdfOptions converts p into renderer options.
func (p PageSettings) pdfOptions(settle time.Duration) *pdfOptions {
	size := config.PageSizes[strings.ToLower(p.Size)]
	return &pdfOptions{
		PaperWidth:   size.Width,
		PaperHeight:  size.Height,
		MarginInches: p.MarginMM / mmPerInch,
		SettleDelay:  settle,
	}
}

const (
	defaultTimeout     = 30 * time.Second
	defaultSettleDelay = 2 * time.Second
	defaultMarginMM    = 20
	maxMarginMM        = 100
	mmPerInch          = 25.4
)

// Option configures a Converter.
type Option func(*Converter)

// converterConfig holds internal configuration for Converter.
type converterConfig struct {
	baseDir      string
	htmlDir      string
	pdfDir       string
	timeout      time.Duration
	settleDelay  time.Duration
	scale        float64
	rewritePaths bool
	browser      string
	browserBin   string
	noSandbox    bool
	page         PageSettings
	engineName   string
	diagramClose func() error
}

// WithTimeout bounds the browser stage of each conversion.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("mermaid2pdf: WithTimeout duration must be positive")
	}
	return func(c *Converter) {
		c.cfg.timeout = d
	}
}

// WithSettleDelay bounds the wait for diagrams and fonts before printing.
// Zero skips the wait.
func WithSettleDelay(d time.Duration) Option {
	if d < 0 {
		panic("mermaid2pdf: WithSettleDelay duration must not be negative")
	}
	return func(c *Converter) {
		c.cfg.settleDelay = d
	}
}

// WithScale sets the SVG normalization factor. Panics unless f is positive
// and finite.
func WithScale(f float64) Option {
	if !(f > 0) || math.IsInf(f, 0) {
		panic("mermaid2pdf: WithScale factor must be positive")
	}
	return func(c *Converter) {
		c.cfg.scale = f
	}
}

// WithOutputDirs sets where generated files go: htmlDir and pdfDir are
// joined to baseDir unless absolute. Empty values keep the defaults
// (".", "html", "pdf").
func WithOutputDirs(baseDir, htmlDir, pdfDir string) Option {
	return func(c *Converter) {
		if baseDir != "" {
			c.cfg.baseDir = baseDir
		}
		if htmlDir != "" {
			c.cfg.htmlDir = htmlDir
		}
		if pdfDir != "" {
			c.cfg.pdfDir = pdfDir
		}
	}
}

// WithHTMLConverter replaces the default pandoc converter. name is used in
// log lines only.
func WithHTMLConverter(name string, conv pipeline.HTMLConverter) Option {
	return func(c *Converter) {
		c.htmlConverter = conv
		c.cfg.engineName = name
	}
}

// WithGoldmark converts Markdown in-process, rendering Mermaid blocks with
// an embedded mermaid.js engine instead of pandoc and mermaid-filter.
func WithGoldmark() Option {
	return func(c *Converter) {
		diagrams := pipeline.NewMermaidRenderer()
		conv := pipeline.NewGoldmarkConverter(diagrams)
		conv.Stylesheet = stylesheetHref
		c.htmlConverter = conv
		c.cfg.engineName = "goldmark"
		c.cfg.diagramClose = diagrams.Close
	}
}

// WithBrowser selects the PDF engine: BrowserRod (default) or BrowserChromedp.
func WithBrowser(engine string) Option {
	return func(c *Converter) {
		c.cfg.browser = engine
	}
}

// WithBrowserBin sets the Chrome/Chromium executable. Empty auto-detects.
func WithBrowserBin(path string) Option {
	return func(c *Converter) {
		c.cfg.browserBin = path
	}
}

// WithNoSandbox disables the Chrome sandbox, required in most containers.
func WithNoSandbox(disable bool) Option {
	return func(c *Converter) {
		c.cfg.noSandbox = disable
	}
}

// WithPage sets the printed page size and margins.
func WithPage(p PageSettings) Option {
	return func(c *Converter) {
		c.cfg.page = p
	}
}

// WithRewriteRelativePaths turns relative img/a references in the HTML into
// file:// URLs resolved against the Markdown directory. Off by default: the
// HTML is then only rewritten when it contains diagrams.
func WithRewriteRelativePaths(rewrite bool) Option {
	return func(c *Converter) {
		c.cfg.rewritePaths = rewrite
	}
}

// withRenderer injects a PDF renderer (tests).
func withRenderer(r pdfRenderer) Option {
	return func(c *Converter) {
		c.renderer = r
	}
}

// MermaidOptions configures mermaid-filter for the pandoc engine.
type MermaidOptions struct {
	Format     string  // "svg" (default) or "png"
	Width      int     // diagram width in pixels (default 1600)
	Scale      float64 // raster scale factor (default 10)
	Theme      string  // optional mermaid theme
	Background string  // optional background color
}

// PandocOptions configures the pandoc engine.
type PandocOptions struct {
	Binary    string   // default "pandoc"
	Filter    string   // default "mermaid-filter"
	ExtraPath []string // prepended to PATH for pandoc and its filter
	Mermaid   MermaidOptions
}

// WithPandoc configures the default pandoc engine. Zero fields keep defaults.
func WithPandoc(opts PandocOptions) Option {
	return func(c *Converter) {
		conv := newPandocConverter()
		if opts.Binary != "" {
			conv.Binary = opts.Binary
		}
		if opts.Filter != "" {
			conv.Filter = opts.Filter
		}
		conv.ExtraPath = opts.ExtraPath

		m := opts.Mermaid
		if m.Format != "" {
			conv.Mermaid.Format = m.Format
		}
		if m.Width > 0 {
			conv.Mermaid.Width = m.Width
		}
		if m.Scale > 0 {
			conv.Mermaid.Scale = m.Scale
		}
		conv.Mermaid.Theme = m.Theme
		conv.Mermaid.Background = m.Background

		c.htmlConverter = conv
		c.cfg.engineName = "pandoc"
		c.cfg.diagramClose = nil
	}
}

// newPandocConverter returns the default engine linking the shared stylesheet.
func newPandocConverter() *pipeline.PandocConverter {
	conv := pipeline.NewPandocConverter()
	conv.Stylesheet = stylesheetHref
	return conv
}
