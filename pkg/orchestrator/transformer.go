package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/goliatone/go-formkit/pkg/schema"
)

// Transformer rewrites the form schema before plugin preprocessing runs.
// Implementations receive a private copy and return the schema to use.
type Transformer interface {
	Transform(ctx context.Context, field schema.Field) (schema.Field, error)
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, field schema.Field) (schema.Field, error)

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, field schema.Field) (schema.Field, error) {
	if fn == nil {
		return field, nil
	}
	return fn(ctx, field)
}

// JSONPresetTransformer applies declarative patches loaded from JSON. Field
// paths are dotted property names; "items" steps into an array's item
// schema:
//
//	{
//	  "uiOptions": {"layout": "grid"},
//	  "fields": {
//	    "owner.email": {"title": "Contact email", "placeholder": "you@example.com"},
//	    "tags.items":  {"description": "One tag per entry"}
//	  }
//	}
type JSONPresetTransformer struct {
	document presetDocument
}

type presetDocument struct {
	UIOptions map[string]any         `json:"uiOptions"`
	Fields    map[string]presetPatch `json:"fields"`
}

type presetPatch struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Placeholder string         `json:"placeholder"`
	Format      string         `json:"format"`
	Required    *bool          `json:"required"`
	UIOptions   map[string]any `json:"uiOptions"`
}

// NewJSONPresetTransformer constructs a transformer from raw JSON bytes.
func NewJSONPresetTransformer(data []byte) (*JSONPresetTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("json preset transformer: document is empty")
	}
	var document presetDocument
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("json preset transformer: parse document: %w", err)
	}
	return &JSONPresetTransformer{document: document}, nil
}

// NewJSONPresetTransformerFromFS loads a preset document from fsys.
func NewJSONPresetTransformerFromFS(fsys fs.FS, path string) (*JSONPresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("json preset transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("json preset transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("json preset transformer: read %s: %w", path, err)
	}
	return NewJSONPresetTransformer(data)
}

// Transform applies the patches. An unknown field path is an error.
func (t *JSONPresetTransformer) Transform(ctx context.Context, field schema.Field) (schema.Field, error) {
	if err := ctx.Err(); err != nil {
		return schema.Field{}, err
	}
	for key, value := range t.document.UIOptions {
		field = field.WithUIOption(key, value)
	}

	paths := make([]string, 0, len(t.document.Fields))
	for path := range t.document.Fields {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return schema.Field{}, err
		}
		updated, ok := patchAt(field, strings.Split(path, "."), t.document.Fields[path])
		if !ok {
			return schema.Field{}, fmt.Errorf("json preset transformer: field %q not found", path)
		}
		field = updated
	}
	return field, nil
}

func patchAt(field schema.Field, segments []string, patch presetPatch) (schema.Field, bool) {
	if len(segments) == 0 {
		return applyPatch(field, patch), true
	}
	head, rest := segments[0], segments[1:]
	if head == "items" && field.Type == schema.TypeArray {
		if field.Items == nil {
			return field, false
		}
		item, ok := patchAt(*field.Items, rest, patch)
		if !ok {
			return field, false
		}
		field.Items = &item
		return field, true
	}
	child, ok := field.Properties.Get(head)
	if !ok {
		return field, false
	}
	child, ok = patchAt(child, rest, patch)
	if !ok {
		return field, false
	}
	field.Properties = field.Properties.With(head, child)
	return field, true
}

func applyPatch(field schema.Field, patch presetPatch) schema.Field {
	if patch.Title != "" {
		field.Title = patch.Title
	}
	if patch.Description != "" {
		field.Description = patch.Description
	}
	if patch.Format != "" {
		field.Format = patch.Format
	}
	if patch.Required != nil {
		field.Required = *patch.Required
	}
	if patch.Placeholder != "" {
		field = field.WithUIOption("placeholder", patch.Placeholder)
	}
	for key, value := range patch.UIOptions {
		field = field.WithUIOption(key, value)
	}
	return field
}
