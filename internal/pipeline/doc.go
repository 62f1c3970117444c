// Package pipeline implements the Markdown-to-HTML half of the conversion:
//   - Markdown to HTML via pandoc and mermaid-filter (PandocConverter)
//   - Markdown to HTML in-process via goldmark and mermaid.go (GoldmarkConverter)
//   - SVG diagram normalization for print (NormalizeDiagrams)
//   - relative path rewriting for HTML written away from its source
//
// PDF generation is handled by the root mermaid2pdf package using a
// headless browser. This package only produces and rewrites HTML.
package pipeline
