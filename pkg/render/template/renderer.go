// Package template defines the template engine seam the markup renderers
// build on. The contract follows the github.com/goliatone/go-template
// engine so hosts can hand in an engine they already run.
package template

import "io"

// TemplateRenderer renders named templates or inline template source.
type TemplateRenderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
	GlobalContext(data any) error
}
