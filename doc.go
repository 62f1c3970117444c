// Package mermaid2pdf converts Markdown documents containing Mermaid diagrams
// to print-ready PDF.
//
// # Quick Start
//
//	conv, err := mermaid2pdf.NewConverter()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conv.Close()
//
//	result, err := conv.Convert(ctx, mermaid2pdf.Input{InputPath: "design.md"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.PDFPath) // pdf/design.pdf
//
// # Conversion Pipeline
//
// Each conversion moves through these stages, reported by Result.Stage:
//
//  1. paths-resolved: input validated, html/ and pdf/ created, the shared
//     mermaid-styles.css written into html/ if missing
//  2. converted: Markdown to standalone HTML, diagrams rendered as inline SVG
//     (pandoc with mermaid-filter, or goldmark with an embedded mermaid.js)
//  3. normalized: every <svg> made responsive and its geometry rescaled;
//     relative image and link paths made absolute
//  4. rendered: HTML printed to PDF by headless Chrome
//  5. done: html/ removed when Input.Clean is set
//
// A failing stage ends the run with StageFailed; later stages do not run.
//
// # Configuration
//
//	conv, err := mermaid2pdf.NewConverter(
//	    mermaid2pdf.WithGoldmark(),
//	    mermaid2pdf.WithBrowser(mermaid2pdf.BrowserChromedp),
//	    mermaid2pdf.WithPage(mermaid2pdf.PageSettings{Size: "letter", MarginMM: 15}),
//	    mermaid2pdf.WithTimeout(time.Minute),
//	)
//
// # Diagram Completion
//
// Before printing, the renderer waits up to the settle delay (2s by default)
// for the page to set window.diagramsRendered = true, or for the document and
// its web fonts to finish loading. Pages that never signal are printed once
// the delay expires.
//
// # Browser Requirements
//
// PDF generation requires Chrome/Chromium. With the default rod engine a
// managed Chromium is downloaded on first run (~/.cache/rod/browser/). Set
// ROD_BROWSER_BIN or use WithBrowserBin to choose a binary, and ROD_NO_SANDBOX=1
// or WithNoSandbox in containers and CI.
package mermaid2pdf
