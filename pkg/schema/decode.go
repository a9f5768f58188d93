package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

var errEmptyDocument = errors.New("schema: document is empty")

// ParseJSON decodes a JSON document into a Field.
func ParseJSON(data []byte) (Field, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Field{}, errEmptyDocument
	}
	var field Field
	if err := json.Unmarshal(data, &field); err != nil {
		return Field{}, err
	}
	return field, nil
}

// ParseYAML decodes a YAML document into a Field. Mapping order is kept.
func ParseYAML(data []byte) (Field, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Field{}, errEmptyDocument
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return Field{}, fmt.Errorf("schema: parse yaml: %w", err)
	}
	var field Field
	if err := field.UnmarshalYAML(&node); err != nil {
		return Field{}, err
	}
	return field, nil
}

type fieldAlias Field

// MarshalJSON emits the field with extension keys inlined next to the
// standard keys.
func (f Field) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(fieldAlias(f))
	if err != nil {
		return nil, err
	}
	if len(f.Extensions) == 0 {
		return data, nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	for key, value := range f.Extensions {
		if _, exists := raw[key]; exists {
			continue
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("schema: marshal extension %q: %w", key, err)
		}
		raw[key] = encoded
	}
	return json.Marshal(raw)
}

// UnmarshalJSON decodes a field, accepting JSON Schema spellings for
// required lists, type unions and enum labels.
func (f *Field) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("schema: decode field: %w", err)
	}

	var (
		out           Field
		requiredNames []string
	)
	for key, value := range raw {
		var err error
		switch key {
		case "type":
			out.Type, err = decodeType(value)
		case "format":
			err = json.Unmarshal(value, &out.Format)
		case "title":
			err = json.Unmarshal(value, &out.Title)
		case "description":
			err = json.Unmarshal(value, &out.Description)
		case "pattern":
			err = json.Unmarshal(value, &out.Pattern)
		case "default":
			err = json.Unmarshal(value, &out.Default)
		case "required":
			out.Required, requiredNames, err = decodeRequired(value)
		case "properties":
			err = json.Unmarshal(value, &out.Properties)
		case "items":
			var items Field
			if err = json.Unmarshal(value, &items); err == nil {
				out.Items = &items
			}
		case "enum":
			err = json.Unmarshal(value, &out.Enum)
		case "enumLabels", "enumNames", "x-enumLabels":
			err = json.Unmarshal(value, &out.EnumLabels)
		case "minLength":
			out.MinLength, err = decodeInt(value)
		case "maxLength":
			out.MaxLength, err = decodeInt(value)
		case "minimum":
			out.Minimum, err = decodeFloat(value)
		case "maximum":
			out.Maximum, err = decodeFloat(value)
		case "uiOptions", "ui:options", "x-ui":
			var opts map[string]any
			if err = json.Unmarshal(value, &opts); err == nil {
				out.UIOptions = mergeOptions(out.UIOptions, opts)
			}
		default:
			if strings.HasPrefix(key, "$") {
				continue
			}
			var ext any
			if err = json.Unmarshal(value, &ext); err == nil {
				if out.Extensions == nil {
					out.Extensions = make(map[string]any)
				}
				out.Extensions[key] = ext
			}
		}
		if err != nil {
			return fmt.Errorf("schema: decode %q: %w", key, err)
		}
	}

	for _, name := range requiredNames {
		prop, ok := out.Properties.Get(name)
		if !ok {
			continue
		}
		prop.Required = true
		out.Properties = out.Properties.With(name, prop)
	}

	*f = out
	return nil
}

// UnmarshalYAML decodes a YAML node by way of its ordered JSON form.
func (f *Field) UnmarshalYAML(node *yaml.Node) error {
	data, err := yamlNodeToJSON(node)
	if err != nil {
		return err
	}
	return f.UnmarshalJSON(data)
}

func decodeType(raw json.RawMessage) (Type, error) {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return Type(single), nil
	}
	var union []string
	if err := json.Unmarshal(raw, &union); err != nil {
		return "", err
	}
	for _, candidate := range union {
		if candidate != "null" {
			return Type(candidate), nil
		}
	}
	return "", nil
}

func decodeRequired(raw json.RawMessage) (bool, []string, error) {
	var flag bool
	if err := json.Unmarshal(raw, &flag); err == nil {
		return flag, nil, nil
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return false, nil, errors.New("required must be a boolean or a list of property names")
	}
	return false, names, nil
}

func decodeInt(raw json.RawMessage) (*int, error) {
	var value float64
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, err
	}
	out := int(value)
	return &out, nil
}

func decodeFloat(raw json.RawMessage) (*float64, error) {
	var value float64
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, err
	}
	return &value, nil
}

func mergeOptions(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for key, value := range src {
		dst[key] = value
	}
	return dst
}

func yamlNodeToJSON(node *yaml.Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeYAMLNode(&buf, node); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeYAMLNode(buf *bytes.Buffer, node *yaml.Node) error {
	if node == nil {
		buf.WriteString("null")
		return nil
	}
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			buf.WriteString("null")
			return nil
		}
		return writeYAMLNode(buf, node.Content[0])
	case yaml.AliasNode:
		return writeYAMLNode(buf, node.Alias)
	case yaml.MappingNode:
		buf.WriteByte('{')
		for idx := 0; idx+1 < len(node.Content); idx += 2 {
			if idx > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(node.Content[idx].Value)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeYAMLNode(buf, node.Content[idx+1]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case yaml.SequenceNode:
		buf.WriteByte('[')
		for idx, child := range node.Content {
			if idx > 0 {
				buf.WriteByte(',')
			}
			if err := writeYAMLNode(buf, child); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case yaml.ScalarNode:
		var value any
		if err := node.Decode(&value); err != nil {
			return fmt.Errorf("schema: decode yaml scalar at line %d: %w", node.Line, err)
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("schema: encode yaml scalar at line %d: %w", node.Line, err)
		}
		buf.Write(encoded)
	default:
		return fmt.Errorf("schema: unsupported yaml node kind %d", node.Kind)
	}
	return nil
}
