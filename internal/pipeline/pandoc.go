package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Defaults for the pandoc engine.
const (
	DefaultPandocBinary  = "pandoc"
	DefaultMermaidFilter = "mermaid-filter"
	DefaultDiagramFormat = "svg"
	DefaultDiagramWidth  = 1600
	DefaultDiagramScale  = 10
)

// MermaidFilterConfig configures mermaid-filter for a single pandoc run.
// It reaches the filter through the child process environment only.
type MermaidFilterConfig struct {
	Format     string  // "svg" or "png"
	Width      int     // diagram width in pixels
	Scale      float64 // raster scale factor
	Theme      string  // optional mermaid theme
	Background string  // optional background color
}

// DefaultMermaidFilterConfig returns large SVG output suited to print.
func DefaultMermaidFilterConfig() MermaidFilterConfig {
	return MermaidFilterConfig{
		Format: DefaultDiagramFormat,
		Width:  DefaultDiagramWidth,
		Scale:  DefaultDiagramScale,
	}
}

// Environ returns the MERMAID_FILTER_* variables for c. Empty and zero
// fields are omitted so the filter falls back to its own defaults.
func (c MermaidFilterConfig) Environ() []string {
	var env []string
	if c.Format != "" {
		env = append(env, "MERMAID_FILTER_FORMAT="+c.Format)
	}
	if c.Width > 0 {
		env = append(env, "MERMAID_FILTER_WIDTH="+strconv.Itoa(c.Width))
	}
	if c.Scale > 0 {
		env = append(env, "MERMAID_FILTER_SCALE="+strconv.FormatFloat(c.Scale, 'f', -1, 64))
	}
	if c.Theme != "" {
		env = append(env, "MERMAID_FILTER_THEME="+c.Theme)
	}
	if c.Background != "" {
		env = append(env, "MERMAID_FILTER_BACKGROUND="+c.Background)
	}
	return env
}

// HTMLConverter turns a Markdown file into a standalone HTML file.
type HTMLConverter interface {
	ConvertFile(ctx context.Context, inputPath, outputPath string) error
}

// PandocConverter converts Markdown to HTML by invoking the Pandoc CLI with
// the mermaid-filter, which replaces mermaid code blocks by rendered diagrams.
type PandocConverter struct {
	Runner CommandRunner
	Binary string
	Filter string
	// Stylesheet is linked from the produced HTML. Empty links nothing.
	Stylesheet string
	Mermaid    MermaidFilterConfig
	// ExtraPath is prepended to the child PATH, e.g. node_modules/.bin.
	ExtraPath []string
	// Environ supplies the base child environment. Nil uses os.Environ.
	Environ func() []string
}

// Compile-time interface check.
var _ HTMLConverter = (*PandocConverter)(nil)

// NewPandocConverter creates a PandocConverter with a real command runner
// and the default mermaid-filter settings.
func NewPandocConverter() *PandocConverter {
	return &PandocConverter{
		Runner:  &ExecRunner{},
		Binary:  DefaultPandocBinary,
		Filter:  DefaultMermaidFilter,
		Mermaid: DefaultMermaidFilterConfig(),
	}
}

// ConvertFile runs pandoc on inputPath and writes standalone HTML to outputPath.
func (c *PandocConverter) ConvertFile(ctx context.Context, inputPath, outputPath string) error {
	if inputPath == "" || outputPath == "" {
		return ErrEmptyPath
	}

	_, stderr, err := c.Runner.Run(ctx, Command{
		Name: c.binary(),
		Args: c.args(inputPath, outputPath),
		Env:  c.environ(),
	})
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return fmt.Errorf("%w: %s: %v", ErrConverterNotFound, c.binary(), err)
		}
		if msg := strings.TrimSpace(stderr); msg != "" {
			return fmt.Errorf("%w: %s: %v", ErrHTMLConversion, msg, err)
		}
		return fmt.Errorf("%w: %v", ErrHTMLConversion, err)
	}

	return nil
}

func (c *PandocConverter) binary() string {
	if c.Binary == "" {
		return DefaultPandocBinary
	}
	return c.Binary
}

// args builds: -F <filter> --standalone --metadata pagetitle=<name> [-c <css>] <in> -o <out>
func (c *PandocConverter) args(inputPath, outputPath string) []string {
	filter := c.Filter
	if filter == "" {
		filter = DefaultMermaidFilter
	}

	title := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	args := []string{"-F", filter, "--standalone", "--metadata", "pagetitle=" + title}
	if c.Stylesheet != "" {
		args = append(args, "-c", c.Stylesheet)
	}
	return append(args, inputPath, "-o", outputPath)
}

// environ builds the child environment: base environment, ExtraPath in
// front of PATH, then the mermaid-filter settings.
func (c *PandocConverter) environ() []string {
	base := os.Environ
	if c.Environ != nil {
		base = c.Environ
	}
	env := append([]string(nil), base()...)

	if len(c.ExtraPath) > 0 {
		env = prependPath(env, c.ExtraPath)
	}

	return append(env, c.Mermaid.Environ()...)
}

// prependPath puts dirs in front of the PATH entry of env, adding one if missing.
func prependPath(env, dirs []string) []string {
	extra := strings.Join(dirs, string(os.PathListSeparator))
	for i, kv := range env {
		if rest, ok := strings.CutPrefix(kv, "PATH="); ok {
			if rest == "" {
				env[i] = "PATH=" + extra
			} else {
				env[i] = "PATH=" + extra + string(os.PathListSeparator) + rest
			}
			return env
		}
	}
	return append(env, "PATH="+extra)
}
