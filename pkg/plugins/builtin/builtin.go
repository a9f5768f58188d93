// Package builtin provides the default generator plugin. It renders every
// standard field type as a ui.Element tree: text-like inputs, selects for
// enums, checkboxes, fieldsets for objects and lists for arrays.
package builtin

import (
	"fmt"
	"strconv"

	"github.com/goliatone/go-formkit/pkg/capability"
	"github.com/goliatone/go-formkit/pkg/schema"
	"github.com/goliatone/go-formkit/pkg/ui"
)

// ID is the registry id of the builtin plugin.
const ID = "formkit.builtin"

// Contribution priorities. Format-specific generators beat the plain type
// generator; enums beat both.
const (
	PriorityType   = 0
	PriorityFormat = 10
	PriorityEnum   = 20
)

// Option configures the plugin.
type Option func(*Plugin)

// WithClassPrefix changes the prefix of generated class names (default
// "formkit").
func WithClassPrefix(prefix string) Option {
	return func(p *Plugin) {
		if prefix != "" {
			p.prefix = prefix
		}
	}
}

// Plugin is the builtin generator plugin.
type Plugin struct {
	capability.Base
	prefix string
}

// New constructs the builtin plugin.
func New(options ...Option) *Plugin {
	p := &Plugin{prefix: "formkit"}
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
		Name:        "Builtin generators",
		Description: "Default generators for the standard schema types.",
		Version:     "1.0.0",
		Tags:        []string{"builtin", "generator"},
	}
}

// Generators implements capability.SchemaGenerator.
func (p *Plugin) Generators() []capability.Contribution {
	return []capability.Contribution{
		{Name: "text", Type: schema.TypeString, Priority: PriorityType, Generate: p.input("text")},
		{Name: "email", Type: schema.TypeString, Format: schema.FormatEmail, Priority: PriorityFormat, Generate: p.input("email")},
		{Name: "password", Type: schema.TypeString, Format: schema.FormatPassword, Priority: PriorityFormat, Generate: p.input("password")},
		{Name: "url", Type: schema.TypeString, Format: schema.FormatURL, Priority: PriorityFormat, Generate: p.input("url")},
		{Name: "date", Type: schema.TypeString, Format: schema.FormatDate, Priority: PriorityFormat, Generate: p.input("date")},
		{Name: "color", Type: schema.TypeString, Format: schema.FormatColor, Priority: PriorityFormat, Generate: p.input("color")},
		{Name: "textarea", Type: schema.TypeString, Format: schema.FormatTextarea, Priority: PriorityFormat, Generate: p.textarea},
		{Name: "select", Type: capability.AnyType, Match: hasEnum, Priority: PriorityEnum, Generate: p.selectField},
		{Name: "number", Type: schema.TypeNumber, Priority: PriorityType, Generate: p.input("number")},
		{Name: "integer", Type: schema.TypeInteger, Priority: PriorityType, Generate: p.input("number")},
		{Name: "checkbox", Type: schema.TypeBoolean, Priority: PriorityType, Generate: p.checkbox},
		{Name: "fieldset", Type: schema.TypeObject, Priority: PriorityType, Generate: p.fieldset},
		{Name: "list", Type: schema.TypeArray, Priority: PriorityType, Generate: p.list},
	}
}

func hasEnum(field schema.Field) bool {
	return len(field.Enum) > 0
}

func (p *Plugin) class(suffix string) string {
	return p.prefix + "-" + suffix
}

func (p *Plugin) input(inputType string) capability.GenerateFunc {
	return func(field schema.Field, ctx *capability.Context) (capability.Node, error) {
		control := p.control(ui.KindInput, field, ctx).
			WithProp("type", inputType).
			WithClass(p.class("input"), p.class("input--"+inputType))

		if ctx.Value != nil {
			control = control.WithProp("value", ctx.Value)
		}
		if placeholder := sanitizeText(field.UIString("placeholder")); placeholder != "" {
			control = control.WithProp("placeholder", placeholder)
		}
		if field.MinLength != nil {
			control = control.WithProp("minlength", *field.MinLength)
		}
		if field.MaxLength != nil {
			control = control.WithProp("maxlength", *field.MaxLength)
		}
		if field.Pattern != "" {
			control = control.WithProp("pattern", field.Pattern)
		}
		if field.Minimum != nil {
			control = control.WithProp("min", *field.Minimum)
		}
		if field.Maximum != nil {
			control = control.WithProp("max", *field.Maximum)
		}
		if field.Type == schema.TypeInteger {
			control = control.WithProp("step", 1)
		}
		return p.wrap(field, ctx, control), nil
	}
}

func (p *Plugin) textarea(field schema.Field, ctx *capability.Context) (capability.Node, error) {
	control := p.control(ui.KindTextarea, field, ctx).WithClass(p.class("textarea"))
	if text, ok := ctx.Value.(string); ok {
		control = control.WithText(text)
	}
	if rows, ok := field.UIInt("rows"); ok {
		control = control.WithProp("rows", rows)
	}
	if placeholder := sanitizeText(field.UIString("placeholder")); placeholder != "" {
		control = control.WithProp("placeholder", placeholder)
	}
	return p.wrap(field, ctx, control), nil
}

func (p *Plugin) selectField(field schema.Field, ctx *capability.Context) (capability.Node, error) {
	control := p.control(ui.KindSelect, field, ctx).WithClass(p.class("select"))
	options := make([]ui.Element, 0, len(field.Enum)+1)
	if !field.Required {
		options = append(options, ui.New(ui.KindOption).WithProp("value", "").WithText(""))
	}
	for idx, value := range field.Enum {
		option := ui.New(ui.KindOption).
			WithProp("value", fmt.Sprint(value)).
			WithText(sanitizeText(field.EnumLabel(idx)))
		if sameValue(ctx.Value, value) {
			option = option.WithProp("selected", true)
		}
		options = append(options, option)
	}
	return p.wrap(field, ctx, control.WithChildren(options...)), nil
}

func (p *Plugin) checkbox(field schema.Field, ctx *capability.Context) (capability.Node, error) {
	checked, _ := ctx.Value.(bool)
	control := p.control(ui.KindCheckbox, field, ctx).
		WithClass(p.class("checkbox")).
		WithProp("checked", checked)
	return p.wrap(field, ctx, control), nil
}

func (p *Plugin) fieldset(field schema.Field, ctx *capability.Context) (capability.Node, error) {
	kind := ui.KindFieldset
	if ctx.Depth() == 0 {
		kind = ui.KindForm
	}
	element := ui.New(kind).
		WithPath(ctx.PathString()).
		WithClass(p.class(kind)).
		WithProp("id", ctx.InputID())
	if title := sanitizeText(field.Label(ctx.Name())); title != "" {
		element = element.WithProp("legend", title)
	}
	if help := sanitizeText(field.Description); help != "" {
		element = element.WithChildren(ui.New(ui.KindHelp).WithClass(p.class("help")).WithText(help))
	}
	for _, prop := range field.Properties {
		child, err := ctx.GenerateChild(prop.Name, prop.Field)
		if err != nil {
			return nil, err
		}
		element = element.WithChildren(asElement(child))
	}
	if ctx.Depth() == 0 {
		element = element.WithChildren(p.errorList(ctx.Errors)...)
	}
	return element, nil
}

func (p *Plugin) list(field schema.Field, ctx *capability.Context) (capability.Node, error) {
	element := ui.New(ui.KindList).
		WithPath(ctx.PathString()).
		WithClass(p.class("list")).
		WithProp("id", ctx.InputID())
	if title := sanitizeText(field.Label(ctx.Name())); title != "" {
		element = element.WithProp("legend", title)
	}
	items, _ := ctx.Value.([]any)
	element = element.WithProp("count", len(items))
	if field.Items == nil {
		return element, nil
	}
	for idx := range items {
		child, err := ctx.GenerateChild(strconv.Itoa(idx), *field.Items)
		if err != nil {
			return nil, err
		}
		element = element.WithChildren(asElement(child))
	}
	return element, nil
}

// control builds the shared attributes of a leaf control.
func (p *Plugin) control(kind string, field schema.Field, ctx *capability.Context) ui.Element {
	control := ui.New(kind).
		WithPath(ctx.PathString()).
		WithProps(map[string]any{
			"id":   ctx.InputID(),
			"name": ctx.PathString(),
		})
	if field.Required {
		control = control.WithProp("required", true)
	}
	if disabled, ok := field.UIOption("disabled"); ok && disabled == true {
		control = control.WithProp("disabled", true)
	}
	if len(ctx.Errors) > 0 {
		control = control.WithProp("aria-invalid", true)
	}
	return control
}

// wrap places a control inside a field element with its label, help text
// and errors.
func (p *Plugin) wrap(field schema.Field, ctx *capability.Context, control ui.Element) ui.Element {
	wrapper := ui.New(ui.KindField).
		WithPath(ctx.PathString()).
		WithClass(p.class("field"), p.class("field--"+control.Kind))

	if label := sanitizeText(field.Label(ctx.Name())); label != "" {
		labelElement := ui.New(ui.KindLabel).
			WithClass(p.class("label")).
			WithProp("for", ctx.InputID()).
			WithText(label)
		if icon := sanitizeIcon(field.UIString("icon")); icon != "" {
			labelElement = labelElement.WithProp("icon", icon)
		}
		wrapper = wrapper.WithChildren(labelElement)
	}
	wrapper = wrapper.WithChildren(control)
	if help := sanitizeText(field.Description); help != "" {
		wrapper = wrapper.WithChildren(ui.New(ui.KindHelp).WithClass(p.class("help")).WithText(help))
	}
	return wrapper.WithChildren(p.errorList(ctx.Errors)...)
}

func (p *Plugin) errorList(errs []string) []ui.Element {
	out := make([]ui.Element, 0, len(errs))
	for _, err := range errs {
		out = append(out, ui.New(ui.KindError).WithClass(p.class("error")).WithText(sanitizeText(err)))
	}
	return out
}

// asElement converts a child node produced by another plugin. Foreign nodes
// are carried in the "node" property of an empty element.
func asElement(node capability.Node) ui.Element {
	if element, ok := node.(ui.Element); ok {
		return element
	}
	return ui.New("foreign").WithProp("node", node)
}

func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}
