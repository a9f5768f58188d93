package formkit

import (
	"io/fs"

	"github.com/goliatone/go-formkit/pkg/render/html"
)

// EmbeddedTemplates exposes the bundled HTML renderer templates so callers
// can reuse or extend them without importing the renderer package directly.
func EmbeddedTemplates() fs.FS {
	return html.TemplatesFS()
}
