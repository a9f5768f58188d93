// Package visibility hides fields whose "visibleIf" UI option evaluates to
// false for the current form value. Hidden wrappers get the hidden flag and
// their named controls are disabled so browsers leave them out of the
// submission. The rule is also copied to a data-visible-if prop for client
// side re-evaluation.
package visibility

import (
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formkit/pkg/capability"
	"github.com/goliatone/go-formkit/pkg/schema"
	"github.com/goliatone/go-formkit/pkg/ui"
)

// ID is the registry id of the visibility plugin.
const ID = "formkit.visibility"

// OptionKey is the UI option holding a field's rule.
const OptionKey = "visibleIf"

// Option configures the plugin.
type Option func(*Plugin)

// WithExtras exposes host values to rules as "extras.<key>".
func WithExtras(extras map[string]any) Option {
	return func(p *Plugin) {
		p.extras = maps.Clone(extras)
	}
}

// Plugin is the visibility plugin.
type Plugin struct {
	capability.Base

	mu     sync.RWMutex
	extras map[string]any
	rules  map[string]*Rule
}

// New constructs the plugin.
func New(options ...Option) *Plugin {
	p := &Plugin{rules: make(map[string]*Rule)}
	for _, opt := range options {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Metadata implements capability.Plugin.
func (p *Plugin) Metadata() capability.Metadata {
	return capability.Metadata{
		ID:          ID,
		Name:        "Conditional visibility",
		Description: "Hides fields whose visibleIf rule does not hold for the current value.",
		Version:     "1.0.0",
		Tags:        []string{"visibility", "conditional"},
	}
}

// SetExtras replaces the extras seen by rules.
func (p *Plugin) SetExtras(extras map[string]any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.extras = maps.Clone(extras)
}

// Generators implements capability.SchemaGenerator. The plugin only
// decorates.
func (p *Plugin) Generators() []capability.Contribution {
	return nil
}

// PreprocessSchema compiles every rule so syntax errors fail generation
// instead of silently showing the field.
func (p *Plugin) PreprocessSchema(field schema.Field) (schema.Field, error) {
	var err error
	field.Walk(func(path []string, f schema.Field) bool {
		source := f.UIString(OptionKey)
		if source == "" {
			return true
		}
		if _, compileErr := p.compile(source); compileErr != nil {
			err = fmt.Errorf("visibility rule at %s: %w", strings.Join(path, "."), compileErr)
			return false
		}
		return true
	})
	return field, err
}

// PostprocessComponent evaluates the rules once the whole tree exists, at
// the root, where the context value is the complete form value.
func (p *Plugin) PostprocessComponent(node capability.Node, field schema.Field, ctx *capability.Context) (capability.Node, error) {
	element, ok := node.(ui.Element)
	if !ok || ctx.Depth() != 0 {
		return node, nil
	}
	hidden, rules, err := p.evaluate(field, ctx.Value)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return node, nil
	}
	return mark(element, hidden, rules), nil
}

// Hidden returns the paths of the fields hidden for value, rendered as
// "a.b[0]". Rules on array items apply to every item.
func (p *Plugin) Hidden(field schema.Field, value any) ([]string, error) {
	hidden, _, err := p.evaluate(field, value)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(hidden))
	for path := range hidden {
		out = append(out, path)
	}
	sort.Strings(out)
	return out, nil
}

// evaluate returns the hidden paths and the rule source of every path
// carrying a rule.
func (p *Plugin) evaluate(field schema.Field, value any) (map[string]bool, map[string]string, error) {
	p.mu.RLock()
	scope := Scope{Values: value, Extras: p.extras}
	p.mu.RUnlock()

	hidden := make(map[string]bool)
	rules := make(map[string]string)
	var visit func(f schema.Field, path []string, current any) error
	visit = func(f schema.Field, path []string, current any) error {
		if source := f.UIString(OptionKey); source != "" && len(path) > 0 {
			rule, err := p.compile(source)
			if err != nil {
				return fmt.Errorf("visibility rule at %s: %w", describe(field, path), err)
			}
			key := capability.JoinPath(path, schema.IndexMask(field, path))
			rules[key] = rule.String()
			if !rule.Eval(scope) {
				hidden[key] = true
				return nil
			}
		}
		switch f.Type {
		case schema.TypeObject:
			for _, prop := range f.Properties {
				child, _ := schema.ValueAt(current, []string{prop.Name})
				if err := visit(prop.Field, appendPath(path, prop.Name), child); err != nil {
					return err
				}
			}
		case schema.TypeArray:
			items, _ := current.([]any)
			if f.Items == nil {
				return nil
			}
			for idx, item := range items {
				if err := visit(*f.Items, appendPath(path, fmt.Sprint(idx)), item); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := visit(field, nil, value); err != nil {
		return nil, nil, err
	}
	return hidden, rules, nil
}

func (p *Plugin) compile(source string) (*Rule, error) {
	p.mu.RLock()
	rule, ok := p.rules[source]
	p.mu.RUnlock()
	if ok {
		return rule, nil
	}
	rule, err := Compile(source)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.rules[source] = rule
	p.mu.Unlock()
	return rule, nil
}

var wrapperKinds = map[string]bool{
	ui.KindField:    true,
	ui.KindFieldset: true,
	ui.KindList:     true,
}

func mark(element ui.Element, hidden map[string]bool, rules map[string]string) ui.Element {
	if wrapperKinds[element.Kind] && element.Path != "" {
		if rule, ok := rules[element.Path]; ok {
			element = element.WithProp("data-visible-if", rule)
		}
		if hidden[element.Path] {
			return disable(element.WithProp("hidden", true))
		}
	}
	return element.MapChildren(func(child ui.Element) ui.Element {
		return mark(child, hidden, rules)
	})
}

func disable(element ui.Element) ui.Element {
	if _, named := element.Prop("name"); named {
		element = element.WithProp("disabled", true)
	}
	return element.MapChildren(disable)
}

func describe(root schema.Field, path []string) string {
	if len(path) == 0 {
		return "root"
	}
	return capability.JoinPath(path, schema.IndexMask(root, path))
}

func appendPath(path []string, segment string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, segment)
}
