// Package svgscale rescales SVG dimension values, inline style properties
// and viewBox declarations.
//
// Every function is total: input that does not match the expected numeric
// grammar is returned unchanged instead of producing an error.
package svgscale

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// dimensionPattern matches "<number><unit>" such as "12px", "3.5" or "10%".
var dimensionPattern = regexp.MustCompile(`(?i)^([0-9.]+)([a-z%]*)$`)

// viewBoxTokens is the number of values in a valid viewBox declaration.
const viewBoxTokens = 4

// ScaleDimension multiplies the numeric part of value by factor and keeps
// its unit suffix. Values that are empty, non-numeric or whose number does
// not parse (".", "1.2.3") are returned unchanged.
func ScaleDimension(value string, factor float64) string {
	if value == "" {
		return value
	}

	m := dimensionPattern.FindStringSubmatch(value)
	if m == nil {
		return value
	}

	num, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return value
	}

	return formatNumber(num*factor) + m[2]
}

// ScaleStyleProperty rewrites every "<property>: <n>px" occurrence in style
// to "<property>: <n*factor>px". The property name is matched
// case-insensitively; all other declarations are left byte-identical.
//
// This is not a CSS parser. Styles come from the diagram renderer and only
// ever carry simple declarations.
func ScaleStyleProperty(style, property string, factor float64) string {
	if style == "" || property == "" {
		return style
	}

	re := stylePropertyPattern(property)
	return re.ReplaceAllStringFunc(style, func(match string) string {
		sub := re.FindStringSubmatch(match)
		num, err := strconv.ParseFloat(sub[1], 64)
		if err != nil {
			return match
		}
		return property + ": " + formatNumber(num*factor) + "px"
	})
}

// ScaleViewBox divides the width and height of a "x y w h" viewBox by factor,
// compensating for the forward scaling applied to child attributes.
// The x and y tokens are kept verbatim. Declarations that are not exactly
// four finite numeric tokens ("NaN" and "Inf" are not numbers here), and a
// zero factor, leave the input unchanged.
func ScaleViewBox(viewBox string, factor float64) string {
	if factor == 0 {
		return viewBox
	}

	parts := strings.Fields(viewBox)
	if len(parts) != viewBoxTokens {
		return viewBox
	}

	nums := make([]float64, viewBoxTokens)
	for i, p := range parts {
		n, err := strconv.ParseFloat(p, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return viewBox
		}
		nums[i] = n
	}

	return strings.Join([]string{
		parts[0],
		parts[1],
		formatNumber(nums[2] / factor),
		formatNumber(nums[3] / factor),
	}, " ")
}

// stylePropertyPattern builds the matcher for one property name.
func stylePropertyPattern(property string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + regexp.QuoteMeta(property) + `\s*:\s*([0-9.]+)px`)
}

// formatNumber renders f with the shortest representation that round-trips
// ("20" rather than "20.000000").
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
