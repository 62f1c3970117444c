package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	"github.com/alnah/go-mermaid2pdf/internal/assets"
)

// DefaultHighlightStyle is the chroma style used for code blocks.
const DefaultHighlightStyle = "github"

// mermaidLanguage is the fence info string that marks a diagram block.
const mermaidLanguage = "mermaid"

// diagramRendererPriority wins over the default HTML renderer (1000).
const diagramRendererPriority = 100

const htmlPermissions = 0o644

// GoldmarkConverter converts Markdown to HTML in-process with goldmark.
// Mermaid fences are rendered to inline SVG by Diagrams; other fences get
// chroma syntax highlighting.
type GoldmarkConverter struct {
	Diagrams DiagramRenderer
	// Stylesheet is linked from the produced HTML. Empty links nothing.
	Stylesheet string
	// HighlightStyle names a chroma style. Empty uses DefaultHighlightStyle.
	HighlightStyle string
}

// Compile-time interface check.
var _ HTMLConverter = (*GoldmarkConverter)(nil)

// NewGoldmarkConverter creates a GoldmarkConverter rendering diagrams with d.
func NewGoldmarkConverter(d DiagramRenderer) *GoldmarkConverter {
	return &GoldmarkConverter{Diagrams: d, HighlightStyle: DefaultHighlightStyle}
}

// ConvertFile reads Markdown from inputPath and writes a standalone HTML
// document to outputPath.
func (c *GoldmarkConverter) ConvertFile(ctx context.Context, inputPath, outputPath string) error {
	if inputPath == "" || outputPath == "" {
		return ErrEmptyPath
	}

	source, err := os.ReadFile(inputPath) // #nosec G304 -- input path is user-provided
	if err != nil {
		return fmt.Errorf("%w: reading markdown: %v", ErrHTMLConversion, err)
	}

	body, err := c.ToHTML(ctx, source)
	if err != nil {
		return err
	}

	title := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	page, err := c.wrapDocument(title, body)
	if err != nil {
		return err
	}

	// #nosec G306 -- HTML output is opened by the browser
	if err := os.WriteFile(outputPath, []byte(page), htmlPermissions); err != nil {
		return fmt.Errorf("%w: writing HTML: %v", ErrHTMLConversion, err)
	}
	return nil
}

// ToHTML converts Markdown to an HTML fragment.
func (c *GoldmarkConverter) ToHTML(ctx context.Context, source []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := c.newMarkdown(ctx).Convert(source, &buf); err != nil {
		if errors.Is(err, ErrDiagramRender) || errors.Is(err, context.Canceled) ||
			errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrHTMLConversion, err)
	}
	return buf.String(), nil
}

// newMarkdown builds a goldmark instance bound to ctx, so diagram rendering
// is cancelled with the conversion.
func (c *GoldmarkConverter) newMarkdown(ctx context.Context) goldmark.Markdown {
	blocks := &fencedBlockRenderer{
		ctx:      ctx,
		diagrams: c.Diagrams,
		fallback: highlightedCodeBlock(c.highlightStyle()),
	}

	return goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,      // Tables, strikethrough, autolinks, task lists
			extension.Footnote, // [^1] footnotes
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			renderer.WithNodeRenderers(util.Prioritized(blocks, diagramRendererPriority)),
			html.WithXHTML(),
		),
	)
}

func (c *GoldmarkConverter) highlightStyle() string {
	if c.HighlightStyle == "" {
		return DefaultHighlightStyle
	}
	return c.HighlightStyle
}

// documentData feeds the document template.
type documentData struct {
	Title        string
	Stylesheet   string
	HighlightCSS template.CSS
	Body         template.HTML
}

// wrapDocument embeds body in the standalone document template.
func (c *GoldmarkConverter) wrapDocument(title, body string) (string, error) {
	tmplText, err := assets.LoadTemplate(assets.DocumentTemplate)
	if err != nil {
		return "", err
	}

	tmpl, err := template.New(assets.DocumentTemplate).Parse(tmplText)
	if err != nil {
		return "", fmt.Errorf("%w: parsing document template: %v", ErrHTMLConversion, err)
	}

	css, err := highlightCSS(c.highlightStyle())
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, documentData{
		Title:        title,
		Stylesheet:   c.Stylesheet,
		HighlightCSS: template.CSS(css),   // #nosec G203 -- generated by chroma
		Body:         template.HTML(body), // #nosec G203 -- produced by goldmark without raw HTML
	})
	if err != nil {
		return "", fmt.Errorf("%w: executing document template: %v", ErrHTMLConversion, err)
	}
	return buf.String(), nil
}

// highlightCSS returns the chroma class rules for style.
func highlightCSS(style string) (string, error) {
	var buf bytes.Buffer
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	if err := formatter.WriteCSS(&buf, styles.Get(style)); err != nil {
		return "", fmt.Errorf("%w: writing highlight CSS: %v", ErrHTMLConversion, err)
	}
	return buf.String(), nil
}

// fencedBlockRenderer renders mermaid fences through a DiagramRenderer and
// hands every other fence to fallback.
type fencedBlockRenderer struct {
	ctx      context.Context
	diagrams DiagramRenderer
	fallback renderer.NodeRendererFunc
}

// RegisterFuncs implements renderer.NodeRenderer.
func (r *fencedBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCodeBlock)
}

func (r *fencedBlockRenderer) renderFencedCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*ast.FencedCodeBlock)

	lang := strings.ToLower(strings.TrimSpace(string(n.Language(source))))
	if lang != mermaidLanguage || r.diagrams == nil {
		return r.fallback(w, source, node, entering)
	}
	if !entering {
		return ast.WalkContinue, nil
	}

	var code bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		code.Write(seg.Value(source))
	}

	svg, err := r.diagrams.Render(r.ctx, code.String())
	if err != nil {
		if errors.Is(err, ErrDiagramRender) {
			return ast.WalkStop, err
		}
		return ast.WalkStop, fmt.Errorf("%w: %w", ErrDiagramRender, err)
	}

	_, _ = w.WriteString(`<div class="mermaid">`)
	_, _ = w.WriteString(svg)
	_, _ = w.WriteString("</div>\n")
	return ast.WalkSkipChildren, nil
}

// highlightedCodeBlock extracts the fenced code block renderer of
// goldmark-highlighting, configured with CSS classes.
func highlightedCodeBlock(style string) renderer.NodeRendererFunc {
	capture := &rendererCapture{kind: ast.KindFencedCodeBlock}
	highlighting.NewHTMLRenderer(
		highlighting.WithStyle(style),
		highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
	).RegisterFuncs(capture)

	if capture.fn == nil {
		html.NewRenderer().RegisterFuncs(capture)
	}
	return capture.fn
}

// rendererCapture records the render function registered for one node kind.
type rendererCapture struct {
	kind ast.NodeKind
	fn   renderer.NodeRendererFunc
}

// Register implements renderer.NodeRendererFuncRegisterer.
func (c *rendererCapture) Register(kind ast.NodeKind, fn renderer.NodeRendererFunc) {
	if kind == c.kind {
		c.fn = fn
	}
}
