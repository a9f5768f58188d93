// Package ui defines Element, the immutable render node produced by the
// bundled plugins. Hosts that bring their own generators may use any node
// type; the engine treats nodes as opaque values.
package ui

import (
	"sort"
	"strings"
)

// Element kinds produced by the builtin plugin.
const (
	KindForm        = "form"
	KindInput       = "input"
	KindTextarea    = "textarea"
	KindSelect      = "select"
	KindOption      = "option"
	KindCheckbox    = "checkbox"
	KindFieldset    = "fieldset"
	KindList        = "list"
	KindField       = "field"
	KindLabel       = "label"
	KindHelp        = "help"
	KindError       = "error"
	KindPlaceholder = "placeholder"
)

// Element is a node in a render tree. The With* methods return modified
// copies; an Element is never changed after construction, so subtrees can be
// shared between trees safely.
type Element struct {
	Kind     string
	Path     string
	Props    map[string]any
	Classes  []string
	Text     string
	Children []Element
}

// New constructs an element of kind.
func New(kind string) Element {
	return Element{Kind: kind}
}

// Prop returns a property value.
func (e Element) Prop(key string) (any, bool) {
	value, ok := e.Props[key]
	return value, ok
}

// PropString returns a string property or "".
func (e Element) PropString(key string) string {
	value, _ := e.Props[key].(string)
	return value
}

// WithProp returns a copy with key set to value.
func (e Element) WithProp(key string, value any) Element {
	props := make(map[string]any, len(e.Props)+1)
	for k, v := range e.Props {
		props[k] = v
	}
	props[key] = value
	e.Props = props
	return e
}

// WithProps returns a copy with every entry of values set.
func (e Element) WithProps(values map[string]any) Element {
	if len(values) == 0 {
		return e
	}
	props := make(map[string]any, len(e.Props)+len(values))
	for k, v := range e.Props {
		props[k] = v
	}
	for k, v := range values {
		props[k] = v
	}
	e.Props = props
	return e
}

// WithClass returns a copy with the class names appended, skipping blanks and
// names already present.
func (e Element) WithClass(names ...string) Element {
	classes := append([]string(nil), e.Classes...)
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || contains(classes, name) {
			continue
		}
		classes = append(classes, name)
	}
	e.Classes = classes
	return e
}

// HasClass reports whether name is one of the element classes.
func (e Element) HasClass(name string) bool {
	return contains(e.Classes, name)
}

// WithText returns a copy with the text content replaced.
func (e Element) WithText(text string) Element {
	e.Text = text
	return e
}

// WithPath returns a copy bound to a dotted field path.
func (e Element) WithPath(path string) Element {
	e.Path = path
	return e
}

// WithChildren returns a copy with children appended.
func (e Element) WithChildren(children ...Element) Element {
	out := make([]Element, 0, len(e.Children)+len(children))
	out = append(out, e.Children...)
	out = append(out, children...)
	e.Children = out
	return e
}

// MapChildren returns a copy whose children are replaced by fn's results.
func (e Element) MapChildren(fn func(Element) Element) Element {
	if len(e.Children) == 0 {
		return e
	}
	out := make([]Element, len(e.Children))
	for idx, child := range e.Children {
		out[idx] = fn(child)
	}
	e.Children = out
	return e
}

// Find returns the first element in depth-first order for which match
// returns true.
func (e Element) Find(match func(Element) bool) (Element, bool) {
	if match(e) {
		return e, true
	}
	for _, child := range e.Children {
		if found, ok := child.Find(match); ok {
			return found, true
		}
	}
	return Element{}, false
}

// FindPath returns the element bound to path.
func (e Element) FindPath(path string) (Element, bool) {
	return e.Find(func(candidate Element) bool { return candidate.Path == path })
}

// SortedPropKeys returns the property keys in lexical order.
func (e Element) SortedPropKeys() []string {
	keys := make([]string, 0, len(e.Props))
	for key := range e.Props {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func contains(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
