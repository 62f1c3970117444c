package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/reconquest/karma-go"
	"github.com/reconquest/pkg/log"
	flag "github.com/spf13/pflag"

	mermaid2pdf "github.com/alnah/go-mermaid2pdf"
	"github.com/alnah/go-mermaid2pdf/internal/config"
	"github.com/alnah/go-mermaid2pdf/internal/fileutil"
	"github.com/alnah/go-mermaid2pdf/internal/hints"
)

// ErrUsage reports missing or unexpected command-line arguments.
var ErrUsage = errors.New("usage error")

// envConfig names the variable holding a default --config value.
const envConfig = "MERMAID2PDF_CONFIG"

// runMain dispatches args (including the program name) and returns the exit code.
// A first argument naming a command runs it; anything else is a conversion.
func runMain(args []string, deps *Dependencies) int {
	if len(args) < 2 {
		fmt.Fprintln(deps.Stderr, "Error: missing input file")
		printUsage(deps.Stderr)
		return ExitUsage
	}

	ctx, stop := notifyContext(context.Background())
	defer stop()

	switch args[1] {
	case "help", "-h", "--help":
		return runHelp(args[2:], deps)
	case "version", "--version":
		fmt.Fprintf(deps.Stdout, "convert %s\n", Version)
		return ExitSuccess
	case "clean":
		return runClean(args[2:], deps)
	default:
		return runConvert(ctx, args[1:], deps)
	}
}

// runConvert converts one Markdown file.
func runConvert(ctx context.Context, args []string, deps *Dependencies) int {
	flags, positional, err := parseConvertFlags(args)
	if errors.Is(err, flag.ErrHelp) {
		printConvertUsage(deps.Stdout)
		return ExitSuccess
	}
	if err != nil {
		return usageError(deps, err, printConvertUsage)
	}
	initLogging(deps.Stderr, flags.common.verbose, flags.common.quiet)

	input, err := inputFromArgs(positional, flags.clean)
	if err != nil {
		return usageError(deps, err, printConvertUsage)
	}

	cfg, err := loadConfig(flags.common.config, deps)
	if err != nil {
		return reportError("conversion", err, hintForConfig(err, flags.common.config, deps))
	}
	if err := applyFlags(cfg, flags); err != nil {
		return reportError("conversion", err, "")
	}

	opts, err := buildOptions(cfg)
	if err != nil {
		return reportError("conversion", err, "")
	}

	conv, err := deps.NewConverter(opts...)
	if err != nil {
		return reportError("conversion", err, "")
	}
	defer func() {
		if err := conv.Close(); err != nil {
			log.Warningf(err, "closing converter")
		}
	}()

	started := deps.Now()
	result, err := conv.Convert(ctx, input)
	if err != nil {
		if result != nil {
			log.Debugf(karma.Describe("stage", result.FailedAt), "stopped")
		}
		return reportError("conversion", err, hintFor(err, cfg))
	}

	log.Debugf(
		karma.Describe("diagrams", result.Diagrams).Describe("cleaned", result.Cleaned),
		"finished in %s", deps.Now().Sub(started).Round(time.Millisecond),
	)
	if !flags.common.quiet {
		fmt.Fprintf(deps.Stdout, "%s -> %s\n", input.InputPath, result.PDFPath)
	}
	return ExitSuccess
}

// runClean removes the HTML directory of the configured layout.
func runClean(args []string, deps *Dependencies) int {
	flags, positional, err := parseCleanFlags(args)
	if errors.Is(err, flag.ErrHelp) {
		printCleanUsage(deps.Stdout)
		return ExitSuccess
	}
	if err == nil && len(positional) > 0 {
		err = fmt.Errorf("%w: clean takes no arguments, got %q", ErrUsage, positional[0])
	}
	if err != nil {
		return usageError(deps, err, printCleanUsage)
	}
	initLogging(deps.Stderr, flags.verbose, flags.quiet)

	cfg, err := loadConfig(flags.config, deps)
	if err != nil {
		return reportError("clean", err, hintForConfig(err, flags.config, deps))
	}

	conv, err := deps.NewConverter(mermaid2pdf.WithOutputDirs(
		cfg.Output.BaseDir, cfg.Output.HTMLDir, cfg.Output.PDFDir,
	))
	if err != nil {
		return reportError("clean", err, "")
	}
	defer func() { _ = conv.Close() }()

	removed, err := conv.Clean()
	if err != nil {
		return reportError("clean", err, "")
	}

	if flags.quiet {
		return ExitSuccess
	}
	if !removed {
		fmt.Fprintln(deps.Stdout, "No generated files found to clean.")
		return ExitSuccess
	}
	dir, err := conv.HTMLDir()
	if err != nil {
		dir = cfg.Output.HTMLDir
	}
	fmt.Fprintf(deps.Stdout, "Removed %s\n", dir)
	return ExitSuccess
}

// inputFromArgs maps <input> [output] to a conversion input.
func inputFromArgs(args []string, clean bool) (mermaid2pdf.Input, error) {
	switch len(args) {
	case 0:
		return mermaid2pdf.Input{}, fmt.Errorf("%w: missing input file", ErrUsage)
	case 1, 2:
	default:
		return mermaid2pdf.Input{}, fmt.Errorf("%w: unexpected argument %q", ErrUsage, args[2])
	}

	input := mermaid2pdf.Input{InputPath: args[0], Clean: clean}
	if len(args) == 2 {
		input.OutputName = args[1]
	}
	return input, nil
}

// loadConfig returns the named config, the one in MERMAID2PDF_CONFIG, or the defaults.
func loadConfig(name string, deps *Dependencies) (*config.Config, error) {
	if name == "" && deps.Getenv != nil {
		name = deps.Getenv(envConfig)
	}
	if name == "" {
		return config.DefaultConfig(), nil
	}

	cfg, err := config.LoadConfig(name)
	if err != nil {
		return nil, err
	}
	log.Debugf(karma.Describe("config", name), "configuration loaded")
	return cfg, nil
}

// applyFlags overrides cfg with the flags given on the command line.
func applyFlags(cfg *config.Config, f *convertFlags) error {
	if f.changed["engine"] {
		cfg.Converter.Engine = strings.ToLower(f.engine)
	}
	if f.changed["browser"] {
		cfg.Browser.Engine = strings.ToLower(f.browser)
	}
	if f.changed["browser-bin"] {
		cfg.Browser.Bin = f.browserBin
	}
	if f.changed["no-sandbox"] {
		cfg.Browser.NoSandbox = f.noSandbox
	}
	if f.changed["scale"] {
		cfg.Normalize.Scale = f.scale
	}
	if f.changed["timeout"] {
		cfg.Browser.Timeout = f.timeout.String()
	}
	if f.changed["settle"] {
		cfg.Browser.SettleDelay = f.settleDelay.String()
	}
	if f.changed["page-size"] {
		cfg.PDF.PageSize = strings.ToLower(f.pageSize)
	}
	if f.changed["margin"] {
		cfg.PDF.MarginMM = f.marginMM
	}
	if f.changed["output-dir"] {
		cfg.Output.BaseDir = f.outputDir
	}
	if f.changed["rewrite-paths"] {
		cfg.Normalize.RewriteRelativePaths = f.rewritePaths
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}

// buildOptions maps a validated config to converter options.
func buildOptions(cfg *config.Config) ([]mermaid2pdf.Option, error) {
	timeout, err := cfg.Timeout()
	if err != nil {
		return nil, err
	}
	settle, err := cfg.SettleDelay()
	if err != nil {
		return nil, err
	}

	opts := []mermaid2pdf.Option{
		mermaid2pdf.WithOutputDirs(cfg.Output.BaseDir, cfg.Output.HTMLDir, cfg.Output.PDFDir),
		mermaid2pdf.WithBrowser(cfg.Browser.Engine),
		mermaid2pdf.WithBrowserBin(cfg.Browser.Bin),
		mermaid2pdf.WithNoSandbox(cfg.Browser.NoSandbox),
		mermaid2pdf.WithTimeout(timeout),
		mermaid2pdf.WithSettleDelay(settle),
		mermaid2pdf.WithScale(cfg.Normalize.Scale),
		mermaid2pdf.WithRewriteRelativePaths(cfg.Normalize.RewriteRelativePaths),
		mermaid2pdf.WithPage(mermaid2pdf.PageSettings{
			Size:     cfg.PDF.PageSize,
			MarginMM: cfg.PDF.MarginMM,
		}),
	}

	switch cfg.Converter.Engine {
	case config.EngineGoldmark:
		opts = append(opts, mermaid2pdf.WithGoldmark())
	default:
		m := cfg.Converter.Mermaid
		opts = append(opts, mermaid2pdf.WithPandoc(mermaid2pdf.PandocOptions{
			Binary:    cfg.Converter.Pandoc.Binary,
			Filter:    cfg.Converter.Pandoc.Filter,
			ExtraPath: cfg.Converter.Pandoc.ExtraPath,
			Mermaid: mermaid2pdf.MermaidOptions{
				Format:     m.Format,
				Width:      m.Width,
				Scale:      m.Scale,
				Theme:      m.Theme,
				Background: m.Background,
			},
		}))
	}

	log.Debugf(
		karma.Describe("engine", cfg.Converter.Engine).
			Describe("browser", cfg.Browser.Engine).
			Describe("scale", cfg.Normalize.Scale).
			Describe("timeout", timeout),
		"converter options ready",
	)
	return opts, nil
}

// usageError prints err and the command usage to stderr.
func usageError(deps *Dependencies, err error, usage func(w io.Writer)) int {
	fmt.Fprintf(deps.Stderr, "Error: %v\n\n", err)
	usage(deps.Stderr)
	return ExitUsage
}

// reportError logs err followed by hint and returns its exit code.
func reportError(action string, err error, hint string) int {
	log.Errorf(err, "%s failed%s", action, hint)
	return exitCodeFor(err)
}

// hintForConfig returns the lookup hint when a named config is missing.
func hintForConfig(err error, name string, deps *Dependencies) string {
	if !errors.Is(err, config.ErrConfigNotFound) {
		return ""
	}
	if name == "" && deps.Getenv != nil {
		name = deps.Getenv(envConfig)
	}
	if fileutil.IsFilePath(name) {
		return hints.ForConfigNotFound(nil)
	}
	return hints.ForConfigNotFound(config.SearchPaths(name))
}

// hintFor returns the hint text for a conversion error, or "" when none applies.
func hintFor(err error, cfg *config.Config) string {
	switch {
	case errors.Is(err, mermaid2pdf.ErrConverterNotFound):
		return hints.ForConverterNotFound(cfg.Converter.Pandoc.Binary)
	case errors.Is(err, mermaid2pdf.ErrDiagramRender):
		return hints.ForDiagramRender()
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, mermaid2pdf.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, mermaid2pdf.ErrOutputDir):
		return hints.ForOutputDirectory()
	}
	return ""
}
