// Package generator picks the contribution that renders a schema field.
package generator

import (
	"fmt"
	"sort"

	"github.com/goliatone/go-formkit/pkg/capability"
	"github.com/goliatone/go-formkit/pkg/schema"
	"github.com/goliatone/go-formkit/pkg/ui"
)

// FindMatching returns the contribution that should render field. Candidates
// must accept the field (type or wildcard, format, predicate). The highest
// priority wins; among equal priorities the earliest contribution wins, so
// with contributions collected in registration order the first registered
// plugin takes ties.
func FindMatching(contributions []capability.Contribution, field schema.Field) (capability.Contribution, bool) {
	candidates := make([]capability.Contribution, 0, len(contributions))
	for _, contribution := range contributions {
		if contribution.Accepts(field) {
			candidates = append(candidates, contribution)
		}
	}
	if len(candidates) == 0 {
		return capability.Contribution{}, false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority > candidates[j].Priority
	})
	return candidates[0], true
}

// Collect asks every plugin for its current contributions and concatenates
// them in plugin order. Contributions are never cached between passes.
func Collect(plugins []capability.SchemaGenerator) []capability.Contribution {
	var out []capability.Contribution
	for _, p := range plugins {
		if p == nil {
			continue
		}
		out = append(out, p.Generators()...)
	}
	return out
}

// UnsupportedFieldError describes a field no contribution could render. It is
// recorded on the placeholder element rather than returned.
type UnsupportedFieldError struct {
	Path   string
	Type   schema.Type
	Format string
}

func (e *UnsupportedFieldError) Error() string {
	target := string(e.Type)
	if e.Format != "" {
		target += "/" + e.Format
	}
	if e.Path == "" {
		return fmt.Sprintf("unsupported field type %q", target)
	}
	return fmt.Sprintf("unsupported field type %q at %s", target, e.Path)
}

// PropError is the element property holding the *UnsupportedFieldError.
const PropError = "error"

// Placeholder builds the visible element shown in place of an unsupported
// field at the position described by ctx.
func Placeholder(field schema.Field, ctx *capability.Context) ui.Element {
	err := &UnsupportedFieldError{
		Path:   ctx.PathString(),
		Type:   field.Type,
		Format: field.Format,
	}
	label := field.Title
	if label == "" {
		label = ctx.Name()
	}
	text := "Unsupported field type: " + string(field.Type)
	if label != "" {
		text = label + ": " + text
	}
	return ui.New(ui.KindPlaceholder).
		WithPath(err.Path).
		WithClass("formkit-unsupported").
		WithProps(map[string]any{
			PropError: err,
			"type":    string(field.Type),
			"format":  field.Format,
		}).
		WithText(text)
}

// PlaceholderError extracts the error recorded on a placeholder node.
func PlaceholderError(node capability.Node) (*UnsupportedFieldError, bool) {
	element, ok := node.(ui.Element)
	if !ok || element.Kind != ui.KindPlaceholder {
		return nil, false
	}
	err, ok := element.Props[PropError].(*UnsupportedFieldError)
	return err, ok
}
