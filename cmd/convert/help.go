package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: convert <input.md> [output] [flags]")
	fmt.Fprintln(w, "       convert <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert a Markdown file with Mermaid diagrams to HTML and PDF.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  clean      Remove the generated HTML directory")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'convert help convert' for conversion flags.")
}

// printConvertUsage prints usage for a conversion.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: convert <input.md> [output] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert Markdown to html/<name>.html, then print it to pdf/<name>.pdf.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input.md   Markdown file to convert")
	fmt.Fprintln(w, "  output     Output base name (default: input name; .html is appended)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Conversion:")
	fmt.Fprintln(w, "      --engine <s>          Markdown converter: pandoc, goldmark")
	fmt.Fprintln(w, "      --scale <f>           SVG normalization factor (default 1)")
	fmt.Fprintln(w, "      --rewrite-paths       Resolve relative image and link paths to file:// URLs")
	fmt.Fprintln(w, "      --clean               Remove the HTML directory after the PDF is written")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Browser:")
	fmt.Fprintln(w, "      --browser <s>         PDF engine: rod, chromedp")
	fmt.Fprintln(w, "      --browser-bin <path>  Chrome/Chromium executable")
	fmt.Fprintln(w, "      --no-sandbox          Disable the Chrome sandbox (Docker/CI)")
	fmt.Fprintln(w, "  -t, --timeout <d>         PDF generation timeout (default 30s)")
	fmt.Fprintln(w, "      --settle <d>          Max wait for diagrams and fonts (default 2s)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Page:")
	fmt.Fprintln(w, "  -p, --page-size <s>       Page size: a4, letter, legal")
	fmt.Fprintln(w, "      --margin <f>          Margin in millimeters (0-100)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output-dir <path>   Base directory for html/ and pdf/")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug output and timings")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  "+envConfig+"         Config file used when --config is not given")
	fmt.Fprintln(w, "  ROD_BROWSER_BIN           Chrome/Chromium executable")
	fmt.Fprintln(w, "  ROD_NO_SANDBOX=1          Disable the Chrome sandbox")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Exit codes:")
	fmt.Fprintln(w, "  0 success, 1 usage, 2 conversion, 3 file I/O, 4 browser")
}

// printCleanUsage prints usage for the clean command.
func printCleanUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: convert clean [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Remove the generated HTML directory and its stylesheet.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug output")
}

// runHelp prints help for a specific command.
func runHelp(args []string, deps *Dependencies) int {
	if len(args) == 0 {
		printUsage(deps.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "convert":
		printConvertUsage(deps.Stdout)
	case "clean":
		printCleanUsage(deps.Stdout)
	case "version":
		fmt.Fprintln(deps.Stdout, "Usage: convert version")
		fmt.Fprintln(deps.Stdout)
		fmt.Fprintln(deps.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(deps.Stdout, "Usage: convert help [command]")
		fmt.Fprintln(deps.Stdout)
		fmt.Fprintln(deps.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(deps.Stderr, "Unknown command: %s\n", args[0])
		printUsage(deps.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
