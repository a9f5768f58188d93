package capability

import (
	"context"

	"github.com/goliatone/go-formkit/pkg/schema"
)

// Name identifies a capability in the registry's capability index.
type Name string

const (
	NamePlugin          Name = "plugin"
	NameConfigurable    Name = "configurable"
	NameSchemaGenerator Name = "schema-generator"
	NameSchemaOverride  Name = "schema-override"
)

// Plugin is the base contract every plugin implements. Initialize and
// Cleanup may block; the registry waits for them without holding its lock.
type Plugin interface {
	Metadata() Metadata
	Initialize(ctx context.Context) error
	Cleanup(ctx context.Context) error
}

// Base provides no-op lifecycle hooks for plugins that do not need them.
type Base struct{}

// Initialize does nothing.
func (Base) Initialize(context.Context) error { return nil }

// Cleanup does nothing.
func (Base) Cleanup(context.Context) error { return nil }

// Configurable plugins describe their configuration with a schema.Field and
// accept values that match it.
type Configurable interface {
	Plugin
	ConfigSchema() schema.Field
	DefaultConfig() map[string]any
	Configure(values map[string]any) error
}

// SchemaGenerator plugins contribute generators. Generators is called on
// every generation pass, so the returned list may depend on plugin state.
type SchemaGenerator interface {
	Plugin
	Generators() []Contribution
}

// SchemaPreprocessor is the optional schema transform hook of a
// SchemaGenerator. It receives the previous plugin's output.
type SchemaPreprocessor interface {
	PreprocessSchema(field schema.Field) (schema.Field, error)
}

// ComponentPostprocessor is the optional node transform hook of a
// SchemaGenerator. Implementations return a new node instead of mutating
// the one they receive.
type ComponentPostprocessor interface {
	PostprocessComponent(node Node, field schema.Field, ctx *Context) (Node, error)
}

// SchemaOverride plugins replace the component for individual fields,
// independently of the generator pipeline.
type SchemaOverride interface {
	Plugin
	OverridableTypes() []schema.Type
	CanOverride(fieldType schema.Type, field schema.Field) bool
	OverrideComponent(fieldType schema.Type, field schema.Field) GenerateFunc
}

// Declarer lets a plugin advertise extra capability names beyond the ones
// derived from its interfaces.
type Declarer interface {
	Capabilities() []Name
}

// Implements reports whether p supports the named capability.
func Implements(p Plugin, name Name) bool {
	if p == nil {
		return false
	}
	switch name {
	case NamePlugin:
		return true
	case NameConfigurable:
		_, ok := p.(Configurable)
		return ok
	case NameSchemaGenerator:
		_, ok := p.(SchemaGenerator)
		return ok
	case NameSchemaOverride:
		_, ok := p.(SchemaOverride)
		return ok
	}
	if declarer, ok := p.(Declarer); ok {
		for _, declared := range declarer.Capabilities() {
			if declared == name {
				return true
			}
		}
	}
	return false
}

// Declared lists every capability p supports: the base capability, the
// interface-derived ones and any extra declared names, without duplicates.
func Declared(p Plugin) []Name {
	if p == nil {
		return nil
	}
	names := []Name{NamePlugin}
	for _, name := range []Name{NameConfigurable, NameSchemaGenerator, NameSchemaOverride} {
		if Implements(p, name) {
			names = append(names, name)
		}
	}
	if declarer, ok := p.(Declarer); ok {
		for _, extra := range declarer.Capabilities() {
			if extra == "" || containsName(names, extra) {
				continue
			}
			names = append(names, extra)
		}
	}
	return names
}

func containsName(names []Name, target Name) bool {
	for _, name := range names {
		if name == target {
			return true
		}
	}
	return false
}
