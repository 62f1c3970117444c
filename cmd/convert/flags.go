package main

import (
	"io"
	"time"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// convertFlags holds all flags for the convert command.
type convertFlags struct {
	common       commonFlags
	clean        bool
	engine       string
	browser      string
	browserBin   string
	noSandbox    bool
	scale        float64
	timeout      time.Duration
	settleDelay  time.Duration
	pageSize     string
	marginMM     float64
	outputDir    string
	rewritePaths bool

	// changed records flags given on the command line, which override config.
	changed map[string]bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug output and timings")
}

// parseConvertFlags parses convert command flags and returns positional args.
// -h and --help return flag.ErrHelp.
func parseConvertFlags(args []string) (*convertFlags, []string, error) {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	f := &convertFlags{}

	fs.BoolVar(&f.clean, "clean", false, "remove the HTML directory after the PDF is written")
	fs.StringVar(&f.engine, "engine", "", "Markdown converter: pandoc, goldmark")
	fs.StringVar(&f.browser, "browser", "", "PDF engine: rod, chromedp")
	fs.StringVar(&f.browserBin, "browser-bin", "", "Chrome/Chromium executable")
	fs.BoolVar(&f.noSandbox, "no-sandbox", false, "disable the Chrome sandbox")
	fs.Float64Var(&f.scale, "scale", 0, "SVG normalization factor")
	fs.DurationVarP(&f.timeout, "timeout", "t", 0, "PDF generation timeout (e.g., 30s, 2m)")
	fs.DurationVar(&f.settleDelay, "settle", 0, "max wait for diagrams and fonts before printing")
	fs.StringVarP(&f.pageSize, "page-size", "p", "", "page size: a4, letter, legal")
	fs.Float64Var(&f.marginMM, "margin", 0, "page margin in millimeters (0-100)")
	fs.StringVarP(&f.outputDir, "output-dir", "o", "", "base directory for html/ and pdf/")
	fs.BoolVar(&f.rewritePaths, "rewrite-paths", false, "resolve relative image and link paths against the input directory")
	addCommonFlags(fs, &f.common)

	fs.Usage = func() {}

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	f.changed = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { f.changed[fl.Name] = true })

	return f, fs.Args(), nil
}

// parseCleanFlags parses clean command flags.
func parseCleanFlags(args []string) (*commonFlags, []string, error) {
	fs := flag.NewFlagSet("clean", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	f := &commonFlags{}
	addCommonFlags(fs, f)

	fs.Usage = func() {}

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}
