package render

import (
	"context"

	"github.com/goliatone/go-formkit/pkg/capability"
)

// Renderer turns a generated node tree into bytes (HTML, JSON, ...). Hosts
// pick renderers by name from a Registry.
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, node capability.Node, options RenderOptions) ([]byte, error)
}
