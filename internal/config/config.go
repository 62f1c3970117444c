// Package config loads and validates the YAML configuration of the converter.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-mermaid2pdf/internal/fileutil"
	"github.com/alnah/go-mermaid2pdf/internal/yamlutil"
)

// AppName names the per-user config directory (~/.config/<AppName>/).
const AppName = "go-mermaid2pdf"

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Converter engines.
const (
	EnginePandoc   = "pandoc"
	EngineGoldmark = "goldmark"
)

// Browser engines.
const (
	BrowserRod      = "rod"
	BrowserChromedp = "chromedp"
)

// Config holds all configuration for one conversion run.
type Config struct {
	Output    OutputConfig    `yaml:"output"`
	Converter ConverterConfig `yaml:"converter"`
	Normalize NormalizeConfig `yaml:"normalize"`
	Browser   BrowserConfig   `yaml:"browser"`
	PDF       PDFConfig       `yaml:"pdf"`
}

// OutputConfig defines where generated files go.
type OutputConfig struct {
	BaseDir string `yaml:"baseDir"` // parent of htmlDir and pdfDir (default ".")
	HTMLDir string `yaml:"htmlDir"` // relative to baseDir (default "html")
	PDFDir  string `yaml:"pdfDir"`  // relative to baseDir (default "pdf")
}

// ConverterConfig selects and configures the Markdown to HTML engine.
type ConverterConfig struct {
	Engine  string        `yaml:"engine"` // "pandoc" or "goldmark"
	Pandoc  PandocConfig  `yaml:"pandoc"`
	Mermaid MermaidConfig `yaml:"mermaid"`
}

// PandocConfig configures the pandoc executable.
type PandocConfig struct {
	Binary    string   `yaml:"binary"`
	Filter    string   `yaml:"filter"`
	ExtraPath []string `yaml:"extraPath"` // prepended to the child PATH
}

// MermaidConfig configures diagram rendering by mermaid-filter.
type MermaidConfig struct {
	Format     string  `yaml:"format"` // "svg" or "png"
	Width      int     `yaml:"width"`
	Scale      float64 `yaml:"scale"`
	Theme      string  `yaml:"theme"`
	Background string  `yaml:"background"`
}

// NormalizeConfig configures SVG normalization.
type NormalizeConfig struct {
	Scale float64 `yaml:"scale"`
	// RewriteRelativePaths turns relative img/a paths into file:// URLs.
	RewriteRelativePaths bool `yaml:"rewriteRelativePaths"`
}

// BrowserConfig configures the headless browser used for printing.
type BrowserConfig struct {
	Engine      string `yaml:"engine"` // "rod" or "chromedp"
	Bin         string `yaml:"bin"`    // empty = auto-detect
	NoSandbox   bool   `yaml:"noSandbox"`
	Timeout     string `yaml:"timeout"`     // Go duration, e.g. "30s"
	SettleDelay string `yaml:"settleDelay"` // upper bound of the settle wait
}

// PDFConfig defines print settings.
type PDFConfig struct {
	PageSize string  `yaml:"pageSize"` // "a4", "letter", "legal"
	MarginMM float64 `yaml:"marginMM"` // 0 uses the default
}

// DefaultConfig returns the settings the converter uses without a config file.
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{BaseDir: ".", HTMLDir: "html", PDFDir: "pdf"},
		Converter: ConverterConfig{
			Engine: EnginePandoc,
			Pandoc: PandocConfig{Binary: "pandoc", Filter: "mermaid-filter"},
			Mermaid: MermaidConfig{
				Format: "svg",
				Width:  1600,
				Scale:  10,
			},
		},
		Normalize: NormalizeConfig{Scale: 1},
		Browser: BrowserConfig{
			Engine:      BrowserRod,
			Timeout:     "30s",
			SettleDelay: "2s",
		},
		PDF: PDFConfig{PageSize: "a4", MarginMM: 20},
	}
}

// Validate checks enumerations, numeric ranges and durations.
func (c *Config) Validate() error {
	switch c.Converter.Engine {
	case EnginePandoc, EngineGoldmark:
	default:
		return invalid("converter.engine", "%q (must be pandoc or goldmark)", c.Converter.Engine)
	}

	switch c.Converter.Mermaid.Format {
	case "", "svg", "png":
	default:
		return invalid("converter.mermaid.format", "%q (must be svg or png)", c.Converter.Mermaid.Format)
	}
	if c.Converter.Mermaid.Width < 0 {
		return invalid("converter.mermaid.width", "must not be negative, got %d", c.Converter.Mermaid.Width)
	}
	if !(c.Converter.Mermaid.Scale >= 0) || math.IsInf(c.Converter.Mermaid.Scale, 0) {
		return invalid("converter.mermaid.scale", "must be a non-negative number, got %g", c.Converter.Mermaid.Scale)
	}

	if !(c.Normalize.Scale > 0) || math.IsInf(c.Normalize.Scale, 0) {
		return invalid("normalize.scale", "must be positive, got %g", c.Normalize.Scale)
	}

	switch c.Browser.Engine {
	case BrowserRod, BrowserChromedp:
	default:
		return invalid("browser.engine", "%q (must be rod or chromedp)", c.Browser.Engine)
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}
	if _, err := c.SettleDelay(); err != nil {
		return err
	}

	if _, ok := PageSizes[strings.ToLower(c.PDF.PageSize)]; !ok {
		return invalid("pdf.pageSize", "%q (must be a4, letter or legal)", c.PDF.PageSize)
	}
	if !(c.PDF.MarginMM >= 0 && c.PDF.MarginMM <= 100) {
		return invalid("pdf.marginMM", "must be between 0 and 100, got %g", c.PDF.MarginMM)
	}

	if c.Output.HTMLDir == "" || c.Output.PDFDir == "" {
		return invalid("output", "htmlDir and pdfDir are required")
	}

	return nil
}

// Timeout returns browser.timeout as a positive duration.
func (c *Config) Timeout() (time.Duration, error) {
	return parsePositiveDuration("browser.timeout", c.Browser.Timeout)
}

// SettleDelay returns browser.settleDelay. Empty or "0s" disables the wait.
func (c *Config) SettleDelay() (time.Duration, error) {
	if c.Browser.SettleDelay == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Browser.SettleDelay)
	if err != nil || d < 0 {
		return 0, invalid("browser.settleDelay", "%q is not a duration", c.Browser.SettleDelay)
	}
	return d, nil
}

// PageSize is a paper size in inches.
type PageSize struct {
	Width, Height float64
}

// PageSizes lists the supported paper sizes. The converter prints with
// these dimensions.
var PageSizes = map[string]PageSize{
	"a4":     {Width: 8.27, Height: 11.69},
	"letter": {Width: 8.5, Height: 11},
	"legal":  {Width: 8.5, Height: 14},
}

func parsePositiveDuration(field, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, invalid(field, "%q is not a duration", value)
	}
	if d <= 0 {
		return 0, invalid(field, "must be positive, got %s", d)
	}
	return d, nil
}

func invalid(field, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidValue, field, fmt.Sprintf(format, args...))
}

// LoadConfig loads configuration from a file path or config name. Keys left
// out of the file, or set to their zero value, take the DefaultConfig value,
// so a file only needs the keys it changes.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's searched in the current directory then ~/.config/go-mermaid2pdf/.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		if configPath, err = resolveConfigPath(nameOrPath); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yamlutil.DecodeStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigParse, configPath, err)
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ApplyDefaults fills every zero-valued field from DefaultConfig.
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()

	setString(&c.Output.BaseDir, d.Output.BaseDir)
	setString(&c.Output.HTMLDir, d.Output.HTMLDir)
	setString(&c.Output.PDFDir, d.Output.PDFDir)

	setString(&c.Converter.Engine, d.Converter.Engine)
	setString(&c.Converter.Pandoc.Binary, d.Converter.Pandoc.Binary)
	setString(&c.Converter.Pandoc.Filter, d.Converter.Pandoc.Filter)
	setString(&c.Converter.Mermaid.Format, d.Converter.Mermaid.Format)
	if c.Converter.Mermaid.Width == 0 {
		c.Converter.Mermaid.Width = d.Converter.Mermaid.Width
	}
	if c.Converter.Mermaid.Scale == 0 {
		c.Converter.Mermaid.Scale = d.Converter.Mermaid.Scale
	}

	if c.Normalize.Scale == 0 {
		c.Normalize.Scale = d.Normalize.Scale
	}

	setString(&c.Browser.Engine, d.Browser.Engine)
	setString(&c.Browser.Timeout, d.Browser.Timeout)
	setString(&c.Browser.SettleDelay, d.Browser.SettleDelay)

	setString(&c.PDF.PageSize, d.PDF.PageSize)
	if c.PDF.MarginMM == 0 {
		c.PDF.MarginMM = d.PDF.MarginMM
	}
}

func setString(field *string, fallback string) {
	if *field == "" {
		*field = fallback
	}
}

// SearchPaths returns the candidate files for a config name, in lookup order.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(dir, AppName, name+ext))
		}
	}
	return paths
}

func resolveConfigPath(name string) (string, error) {
	tried := SearchPaths(name)
	for _, p := range tried {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}
