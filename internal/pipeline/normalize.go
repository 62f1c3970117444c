package pipeline

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/alnah/go-mermaid2pdf/internal/svgscale"
)

// DiagramStyle is the responsive layout given to every diagram root:
// 90% of the container width, natural aspect ratio, centered.
const DiagramStyle = "width:90%;height:auto;display:block;margin:auto;"

// shapeSelector lists the SVG shape elements whose geometry is rescaled.
const shapeSelector = "rect, circle, ellipse, polygon, line, path"

// shapeAttributes are the geometric attributes rescaled on shape elements.
var shapeAttributes = []string{
	"x", "y", "cx", "cy", "rx", "ry", "r",
	"width", "height", "x1", "y1", "x2", "y2", "stroke-width",
}

// ParseDocument parses HTML with the HTML5 algorithm. Malformed markup is
// recovered by the parser, never rejected.
func ParseDocument(htmlContent string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return doc, nil
}

// RenderDocument serializes the whole document, doctype included.
func RenderDocument(doc *goquery.Document) (string, error) {
	var buf strings.Builder
	for _, n := range doc.Nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("rendering HTML: %w", err)
		}
	}
	return buf.String(), nil
}

// NormalizeHTML parses htmlContent, applies NormalizeDiagrams and renders the
// result. It returns the number of diagrams processed; when that number is
// zero the returned HTML is the input, untouched.
func NormalizeHTML(htmlContent string, factor float64) (string, int, error) {
	doc, err := ParseDocument(htmlContent)
	if err != nil {
		return "", 0, err
	}

	count := NormalizeDiagrams(doc, factor)
	if count == 0 {
		return htmlContent, 0, nil
	}

	out, err := RenderDocument(doc)
	if err != nil {
		return "", 0, err
	}
	return out, count, nil
}

// NormalizeDiagrams rewrites every <svg> element of doc, in document order,
// so diagrams scale with the page instead of their intrinsic size:
//
//  1. width and height attributes are removed;
//  2. style is replaced by DiagramStyle;
//  3. font-size on descendant <text> (attribute and inline style) is scaled;
//  4. geometry and stroke-width on descendant shapes are scaled;
//  5. the viewBox width and height are divided by factor.
//
// Values that do not parse are left as they are. Nested <svg> elements are
// diagrams too, so their descendants are scaled once per enclosing root.
// Returns the number of diagrams processed.
func NormalizeDiagrams(doc *goquery.Document, factor float64) int {
	count := 0

	doc.Find("svg").Each(func(_ int, svg *goquery.Selection) {
		count++

		svg.RemoveAttr("width")
		svg.RemoveAttr("height")
		svg.SetAttr("style", DiagramStyle)

		svg.Find("text").Each(func(_ int, text *goquery.Selection) {
			scaleAttr(text, "font-size", factor)
			scaleInlineStyle(text, "font-size", factor)
		})

		svg.Find(shapeSelector).Each(func(_ int, shape *goquery.Selection) {
			for _, attr := range shapeAttributes {
				scaleAttr(shape, attr, factor)
			}
			scaleInlineStyle(shape, "stroke-width", factor)
		})

		if vb, ok := svg.Attr("viewBox"); ok && vb != "" {
			svg.SetAttr("viewBox", svgscale.ScaleViewBox(vb, factor))
		}
	})

	return count
}

// scaleAttr rescales a non-empty attribute in place.
func scaleAttr(s *goquery.Selection, name string, factor float64) {
	v, ok := s.Attr(name)
	if !ok || v == "" {
		return
	}
	s.SetAttr(name, svgscale.ScaleDimension(v, factor))
}

// scaleInlineStyle rescales property inside the style attribute when the
// attribute mentions it.
func scaleInlineStyle(s *goquery.Selection, property string, factor float64) {
	style, ok := s.Attr("style")
	if !ok || !strings.Contains(style, property) {
		return
	}
	s.SetAttr("style", svgscale.ScaleStyleProperty(style, property, factor))
}
