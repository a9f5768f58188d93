package openapi

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formkit/pkg/schema"
)

// ErrNotFound is returned when a component or operation does not exist.
var ErrNotFound = errors.New("openapi: not found")

// Extension keys understood by the converter.
const (
	// OrderExtension on a property sets its position; properties without it
	// follow in name order.
	OrderExtension = "x-order"
	// UIExtension carries UI options for the field.
	UIExtension = "x-ui"
	// EnumLabelsExtension carries display labels parallel to enum.
	EnumLabelsExtension = "x-enumLabels"
)

// Component converts the named component schema into a Field.
func Component(doc *Document, name string) (schema.Field, error) {
	if doc == nil || doc.spec == nil || doc.spec.Components == nil {
		return schema.Field{}, fmt.Errorf("component %q: %w", name, ErrNotFound)
	}
	ref, ok := doc.spec.Components.Schemas[name]
	if !ok || ref == nil {
		return schema.Field{}, fmt.Errorf("component %q: %w", name, ErrNotFound)
	}
	field := convertSchema(ref, nil)
	if field.Title == "" {
		field.Title = name
	}
	return field, nil
}

// RequestBody converts the JSON request body of the operation with the
// given operationId.
func RequestBody(doc *Document, operationID string) (schema.Field, error) {
	op, ok := doc.operation(operationID)
	if !ok {
		return schema.Field{}, fmt.Errorf("operation %q: %w", operationID, ErrNotFound)
	}
	ref := requestSchema(op)
	if ref == nil {
		return schema.Field{}, fmt.Errorf("operation %q request body: %w", operationID, ErrNotFound)
	}
	field := convertSchema(ref, nil)
	if field.Title == "" {
		field.Title = op.Summary
	}
	if field.Description == "" {
		field.Description = op.Description
	}
	return field, nil
}

// convertSchema maps a kin-openapi schema onto a Field. stack holds the
// schemas being converted so recursive references stop at the first repeat.
func convertSchema(ref *openapi3.SchemaRef, stack []*openapi3.Schema) schema.Field {
	if ref == nil || ref.Value == nil {
		return schema.Field{}
	}
	src := ref.Value
	for _, seen := range stack {
		if seen == src {
			return schema.Field{
				Type:       schema.Type(firstSchemaType(src.Type)),
				Title:      src.Title,
				Extensions: map[string]any{"x-recursive-ref": ref.Ref},
			}
		}
	}
	stack = append(stack, src)

	field := schema.Field{
		Type:        schema.Type(firstSchemaType(src.Type)),
		Format:      src.Format,
		Title:       src.Title,
		Description: src.Description,
		Default:     src.Default,
		Pattern:     src.Pattern,
	}
	if len(src.Enum) > 0 {
		field.Enum = append([]any(nil), src.Enum...)
	}
	if src.Min != nil {
		field.Minimum = schema.Float(*src.Min)
	}
	if src.Max != nil {
		field.Maximum = schema.Float(*src.Max)
	}
	if src.MinLength != 0 {
		field.MinLength = schema.Int(clampInt(src.MinLength))
	}
	if src.MaxLength != nil {
		field.MaxLength = schema.Int(clampInt(*src.MaxLength))
	}
	if src.Items != nil {
		items := convertSchema(src.Items, stack)
		field.Items = &items
	}

	properties := src.Properties
	required := src.Required
	for _, part := range src.AllOf {
		if part == nil || part.Value == nil {
			continue
		}
		if field.Type == "" {
			field.Type = schema.Type(firstSchemaType(part.Value.Type))
		}
		properties = mergeSchemas(properties, part.Value.Properties)
		required = append(append([]string(nil), required...), part.Value.Required...)
	}
	if field.Type == "" && len(properties) > 0 {
		field.Type = schema.TypeObject
	}
	if len(properties) > 0 {
		field.Properties = convertProperties(properties, required, stack)
	}

	applyExtensions(&field, src.Extensions)
	return field
}

func convertProperties(props openapi3.Schemas, required []string, stack []*openapi3.Schema) schema.Properties {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.SliceStable(names, func(i, j int) bool {
		oi, iok := propertyOrder(props[names[i]])
		oj, jok := propertyOrder(props[names[j]])
		switch {
		case iok && jok && oi != oj:
			return oi < oj
		case iok != jok:
			return iok
		default:
			return names[i] < names[j]
		}
	})

	requiredSet := make(map[string]struct{}, len(required))
	for _, name := range required {
		requiredSet[name] = struct{}{}
	}

	out := make(schema.Properties, 0, len(names))
	for _, name := range names {
		child := convertSchema(props[name], stack)
		if _, ok := requiredSet[name]; ok {
			child.Required = true
		}
		out = append(out, schema.Property{Name: name, Field: child})
	}
	return out
}

func propertyOrder(ref *openapi3.SchemaRef) (float64, bool) {
	if ref == nil || ref.Value == nil {
		return 0, false
	}
	raw, ok := ref.Value.Extensions[OrderExtension]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func mergeSchemas(base, extra openapi3.Schemas) openapi3.Schemas {
	if len(extra) == 0 {
		return base
	}
	out := make(openapi3.Schemas, len(base)+len(extra))
	for name, ref := range base {
		out[name] = ref
	}
	for name, ref := range extra {
		if _, exists := out[name]; !exists {
			out[name] = ref
		}
	}
	return out
}

func applyExtensions(field *schema.Field, raw map[string]any) {
	for key, value := range raw {
		switch key {
		case OrderExtension:
			continue
		case UIExtension:
			if opts, ok := value.(map[string]any); ok {
				for name, option := range opts {
					*field = field.WithUIOption(name, option)
				}
			}
		case EnumLabelsExtension:
			if labels, ok := value.([]any); ok {
				field.EnumLabels = make([]string, 0, len(labels))
				for _, label := range labels {
					field.EnumLabels = append(field.EnumLabels, fmt.Sprint(label))
				}
			}
		default:
			if !strings.HasPrefix(key, "x-") {
				continue
			}
			if field.Extensions == nil {
				field.Extensions = make(map[string]any)
			}
			field.Extensions[key] = value
		}
	}
}

func firstSchemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	for _, candidate := range types.Slice() {
		if candidate != "null" {
			return candidate
		}
	}
	return ""
}

func clampInt(v uint64) int {
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(v)
}
