package builtin

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	textPolicy = sync.OnceValue(bluemonday.StrictPolicy)
	iconPolicy = sync.OnceValue(newIconPolicy)
)

// sanitizeText strips every tag from schema-provided text and returns plain
// text. Renderers escape it again on output.
func sanitizeText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(textPolicy().Sanitize(trimmed)))
}

// sanitizeIcon keeps a safe subset of inline SVG from the "icon" UI option.
// The result is trusted markup.
func sanitizeIcon(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(iconPolicy().Sanitize(trimmed))
}

func newIconPolicy() *bluemonday.Policy {
	policy := bluemonday.StrictPolicy()
	policy.AllowElements("svg", "g", "path", "circle", "rect", "line", "polyline", "polygon", "ellipse", "title")

	policy.AllowAttrs(
		"xmlns", "viewBox", "width", "height", "fill", "stroke",
		"stroke-width", "stroke-linecap", "stroke-linejoin", "aria-hidden",
		"role", "focusable", "class",
	).OnElements("svg")

	for _, el := range []string{"path", "circle", "rect", "line", "polyline", "polygon", "ellipse"} {
		policy.AllowAttrs(
			"d", "cx", "cy", "r", "x", "y", "x1", "y1", "x2", "y2",
			"points", "rx", "ry", "fill", "stroke", "stroke-width",
			"stroke-linecap", "stroke-linejoin", "class",
		).OnElements(el)
	}
	policy.AllowAttrs("class").OnElements("g")
	return policy
}
