package schema

import "encoding/json"

// Type is the field kind. The built-in kinds cover JSON values; plugins may
// introduce their own type names.
type Type string

const (
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeInteger Type = "integer"
	TypeBoolean Type = "boolean"
	TypeObject  Type = "object"
	TypeArray   Type = "array"
)

// Common format identifiers understood by the bundled generators and the
// validation engine.
const (
	FormatEmail    = "email"
	FormatPassword = "password"
	FormatTextarea = "textarea"
	FormatColor    = "color"
	FormatDate     = "date"
	FormatURL      = "url"
)

// Field describes one value in a form: its shape, constraints and UI hints.
type Field struct {
	Type        Type           `json:"type"`
	Format      string         `json:"format,omitempty"`
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	Default     any            `json:"default,omitempty"`
	Required    bool           `json:"required,omitempty"`
	Properties  Properties     `json:"properties,omitempty"`
	Items       *Field         `json:"items,omitempty"`
	Enum        []any          `json:"enum,omitempty"`
	EnumLabels  []string       `json:"enumLabels,omitempty"`
	MinLength   *int           `json:"minLength,omitempty"`
	MaxLength   *int           `json:"maxLength,omitempty"`
	Pattern     string         `json:"pattern,omitempty"`
	Minimum     *float64       `json:"minimum,omitempty"`
	Maximum     *float64       `json:"maximum,omitempty"`
	UIOptions   map[string]any `json:"uiOptions,omitempty"`
	Extensions  map[string]any `json:"-"`
}

// IsContainer reports whether the field nests other fields.
func (f Field) IsContainer() bool {
	return f.Type == TypeObject || f.Type == TypeArray
}

// Label returns the title when present, falling back to the supplied name.
func (f Field) Label(name string) string {
	if f.Title != "" {
		return f.Title
	}
	return name
}

// UIOption returns a UI hint by key.
func (f Field) UIOption(key string) (any, bool) {
	if f.UIOptions == nil {
		return nil, false
	}
	value, ok := f.UIOptions[key]
	return value, ok
}

// UIString returns a UI hint as a string, or "" when absent or not a string.
func (f Field) UIString(key string) string {
	value, ok := f.UIOption(key)
	if !ok {
		return ""
	}
	str, _ := value.(string)
	return str
}

// UIInt returns a numeric UI hint as an int. Decoded JSON numbers arrive as
// float64 and are truncated.
func (f Field) UIInt(key string) (int, bool) {
	value, ok := f.UIOption(key)
	if !ok {
		return 0, false
	}
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	}
	return 0, false
}

// Extension returns a plugin-specific key from the extension bag.
func (f Field) Extension(key string) (any, bool) {
	if f.Extensions == nil {
		return nil, false
	}
	value, ok := f.Extensions[key]
	return value, ok
}

// EnumLabel returns the display label for the enum entry at idx. When labels
// are missing or mismatched the value itself is used.
func (f Field) EnumLabel(idx int) string {
	if idx < 0 || idx >= len(f.Enum) {
		return ""
	}
	if len(f.EnumLabels) == len(f.Enum) && f.EnumLabels[idx] != "" {
		return f.EnumLabels[idx]
	}
	return stringify(f.Enum[idx])
}

// Clone returns a deep copy of the field.
func (f Field) Clone() Field {
	out := f
	out.Default = CloneValue(f.Default)
	out.Properties = f.Properties.Clone()
	if f.Items != nil {
		items := f.Items.Clone()
		out.Items = &items
	}
	if f.Enum != nil {
		out.Enum = make([]any, len(f.Enum))
		for idx, value := range f.Enum {
			out.Enum[idx] = CloneValue(value)
		}
	}
	if f.EnumLabels != nil {
		out.EnumLabels = append([]string(nil), f.EnumLabels...)
	}
	out.MinLength = cloneInt(f.MinLength)
	out.MaxLength = cloneInt(f.MaxLength)
	out.Minimum = cloneFloat(f.Minimum)
	out.Maximum = cloneFloat(f.Maximum)
	out.UIOptions = cloneMap(f.UIOptions)
	out.Extensions = cloneMap(f.Extensions)
	return out
}

// WithUIOption returns a copy of the field with the UI hint set.
func (f Field) WithUIOption(key string, value any) Field {
	out := f
	out.UIOptions = cloneMap(f.UIOptions)
	if out.UIOptions == nil {
		out.UIOptions = make(map[string]any, 1)
	}
	out.UIOptions[key] = value
	return out
}

// Walk visits the field and every nested field depth first. The path holds
// property names, and "[]" for array items.
func (f Field) Walk(fn func(path []string, field Field) bool) {
	walk(nil, f, fn)
}

func walk(path []string, field Field, fn func([]string, Field) bool) bool {
	if !fn(path, field) {
		return false
	}
	switch field.Type {
	case TypeObject:
		for _, prop := range field.Properties {
			if !walk(appendPath(path, prop.Name), prop.Field, fn) {
				return false
			}
		}
	case TypeArray:
		if field.Items != nil {
			return walk(appendPath(path, "[]"), *field.Items, fn)
		}
	}
	return true
}

func appendPath(path []string, segment string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, segment)
}

// Int returns a pointer to v, handy for MinLength/MaxLength literals.
func Int(v int) *int { return &v }

// Float returns a pointer to v, handy for Minimum/Maximum literals.
func Float(v float64) *float64 { return &v }

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	value := *v
	return &value
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	value := *v
	return &value
}
