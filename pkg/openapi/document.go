package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formkit/pkg/schema"
)

// Document is a parsed OpenAPI document with its references resolved.
type Document struct {
	location string
	spec     *openapi3.T
}

// Option configures Load.
type Option func(*options)

type options struct {
	validate bool
	location string
}

// WithValidation runs kin-openapi document validation after loading.
// Example values are not validated.
func WithValidation() Option {
	return func(o *options) {
		o.validate = true
	}
}

// WithLocation records where the document came from, for error messages.
func WithLocation(location string) Option {
	return func(o *options) {
		o.location = strings.TrimSpace(location)
	}
}

// Load parses a JSON or YAML OpenAPI document. External references are not
// followed.
func Load(ctx context.Context, data []byte, opts ...Option) (*Document, error) {
	if ctx == nil {
		return nil, errors.New("openapi: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}
	cfg := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	loader := openapi3.NewLoader()
	loader.Context = ctx
	loader.IsExternalRefsAllowed = false

	spec, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("openapi: load %s: %w", describe(cfg.location), err)
	}
	if cfg.validate {
		if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi: validate %s: %w", describe(cfg.location), err)
		}
	}
	return &Document{location: cfg.location, spec: spec}, nil
}

// LoadSource fetches src with loader and parses it.
func LoadSource(ctx context.Context, loader *schema.Loader, src schema.Source, opts ...Option) (*Document, error) {
	if loader == nil {
		return nil, errors.New("openapi: loader is required")
	}
	raw, err := loader.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	opts = append([]Option{WithLocation(raw.Location())}, opts...)
	return Load(ctx, raw.Raw(), opts...)
}

func describe(location string) string {
	if location == "" {
		return "document"
	}
	return location
}

// Location returns where the document was loaded from, if known.
func (d *Document) Location() string {
	if d == nil {
		return ""
	}
	return d.location
}

// Title returns info.title.
func (d *Document) Title() string {
	if d == nil || d.spec == nil || d.spec.Info == nil {
		return ""
	}
	return d.spec.Info.Title
}

// Components lists the component schema names in lexical order.
func (d *Document) Components() []string {
	if d == nil || d.spec == nil || d.spec.Components == nil {
		return nil
	}
	names := make([]string, 0, len(d.spec.Components.Schemas))
	for name := range d.spec.Components.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Operation is an operation that accepts a JSON request body.
type Operation struct {
	ID      string
	Method  string
	Path    string
	Summary string
}

// Operations lists operations with a JSON request body, sorted by id.
func (d *Document) Operations() []Operation {
	if d == nil || d.spec == nil || d.spec.Paths == nil {
		return nil
	}
	var out []Operation
	for path, item := range d.spec.Paths.Map() {
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			if op == nil || op.OperationID == "" || requestSchema(op) == nil {
				continue
			}
			out = append(out, Operation{
				ID:      op.OperationID,
				Method:  strings.ToUpper(method),
				Path:    path,
				Summary: op.Summary,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (d *Document) operation(id string) (*openapi3.Operation, bool) {
	if d == nil || d.spec == nil || d.spec.Paths == nil {
		return nil, false
	}
	for _, item := range d.spec.Paths.Map() {
		if item == nil {
			continue
		}
		for _, op := range item.Operations() {
			if op != nil && op.OperationID == id {
				return op, true
			}
		}
	}
	return nil, false
}

func requestSchema(op *openapi3.Operation) *openapi3.SchemaRef {
	if op == nil || op.RequestBody == nil || op.RequestBody.Value == nil {
		return nil
	}
	content := op.RequestBody.Value.Content
	for _, mime := range []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"} {
		if media := content.Get(mime); media != nil && media.Schema != nil {
			return media.Schema
		}
	}
	return nil
}
