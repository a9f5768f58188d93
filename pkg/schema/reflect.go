package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// FromStruct reflects a Go struct into a Field. Struct tags follow the
// invopop/jsonschema conventions (`jsonschema:"title=...,enum=..."`), and
// properties keep the struct field order.
func FromStruct(v any) (Field, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct: true,
		DoNotReference: true,
	}
	reflected := reflector.Reflect(v)

	data, err := json.Marshal(reflected)
	if err != nil {
		return Field{}, fmt.Errorf("schema: marshal reflected schema: %w", err)
	}
	field, err := ParseJSON(data)
	if err != nil {
		return Field{}, fmt.Errorf("schema: decode reflected schema: %w", err)
	}
	delete(field.Extensions, "additionalProperties")
	if len(field.Extensions) == 0 {
		field.Extensions = nil
	}
	return field, nil
}

// MustFromStruct is FromStruct that panics on failure. Useful for
// package-level config schema declarations.
func MustFromStruct(v any) Field {
	field, err := FromStruct(v)
	if err != nil {
		panic(err)
	}
	return field
}
