package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Property is one named entry of an object field.
type Property struct {
	Name  string
	Field Field
}

// Properties is the ordered name → Field mapping of an object field. Order is
// the declaration order of the source document and drives generation order.
type Properties []Property

// Get returns the property by name.
func (p Properties) Get(name string) (Field, bool) {
	for _, prop := range p {
		if prop.Name == name {
			return prop.Field, true
		}
	}
	return Field{}, false
}

// Names lists property names in order.
func (p Properties) Names() []string {
	if len(p) == 0 {
		return nil
	}
	names := make([]string, len(p))
	for idx, prop := range p {
		names[idx] = prop.Name
	}
	return names
}

// With returns a copy where name maps to field. Existing entries keep their
// position; new entries are appended.
func (p Properties) With(name string, field Field) Properties {
	out := make(Properties, len(p), len(p)+1)
	copy(out, p)
	for idx := range out {
		if out[idx].Name == name {
			out[idx].Field = field
			return out
		}
	}
	return append(out, Property{Name: name, Field: field})
}

// Clone deep-copies every property.
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	out := make(Properties, len(p))
	for idx, prop := range p {
		out[idx] = Property{Name: prop.Name, Field: prop.Field.Clone()}
	}
	return out
}

// MarshalJSON writes the properties as a JSON object in declaration order.
func (p Properties) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for idx, prop := range p {
		if idx > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(prop.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(prop.Field)
		if err != nil {
			return nil, fmt.Errorf("schema: marshal property %q: %w", prop.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keeping the key order.
func (p *Properties) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("schema: decode properties: %w", err)
	}
	if tok == nil {
		*p = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("schema: properties must be an object")
	}

	var out Properties
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("schema: decode properties: %w", err)
		}
		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("schema: unexpected property key %v", keyTok)
		}
		var field Field
		if err := dec.Decode(&field); err != nil {
			return fmt.Errorf("schema: decode property %q: %w", name, err)
		}
		out = append(out, Property{Name: name, Field: field})
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("schema: decode properties: %w", err)
	}
	*p = out
	return nil
}

// UnmarshalYAML reads a YAML mapping keeping the key order.
func (p *Properties) UnmarshalYAML(node *yaml.Node) error {
	data, err := yamlNodeToJSON(node)
	if err != nil {
		return err
	}
	return p.UnmarshalJSON(data)
}
