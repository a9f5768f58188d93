// Package html renders ui.Element trees to HTML through the gotemplate
// engine. All text and attribute values are escaped; only sanitized icon
// markup from label elements is emitted verbatim.
package html

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-formkit/pkg/capability"
	"github.com/goliatone/go-formkit/pkg/render"
	"github.com/goliatone/go-formkit/pkg/render/template/gotemplate"
	"github.com/goliatone/go-formkit/pkg/ui"
)

// Name is the registry name of the renderer.
const Name = "html"

//go:embed templates/*.html
var embeddedTemplates embed.FS

// Template names, without the ".html" extension. Custom template sets
// must provide all three.
const (
	templateElement = "element"
	templateVoid    = "void"
	templateAttrs   = "attrs"
	extension       = ".html"
)

// TemplatesFS exposes the bundled templates so callers can copy and extend
// them before passing the result to WithTemplates.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return embeddedTemplates
	}
	return sub
}

// Option configures the renderer.
type Option func(*config)

type config struct {
	templates fs.FS
	funcs     map[string]any
	iconClass string
}

// WithTemplates replaces the bundled templates. files must contain
// element.html, void.html and attrs.html at its root.
func WithTemplates(files fs.FS) Option {
	return func(cfg *config) {
		if files != nil {
			cfg.templates = files
		}
	}
}

// WithTemplateFuncs exposes helpers to custom templates. Filter functions
// register as pongo2 filters, other functions as globals.
func WithTemplateFuncs(funcs map[string]any) Option {
	return func(cfg *config) {
		if len(funcs) == 0 {
			return
		}
		if cfg.funcs == nil {
			cfg.funcs = make(map[string]any, len(funcs))
		}
		for name, fn := range funcs {
			cfg.funcs[name] = fn
		}
	}
}

// WithIconClass sets the class of the span wrapping label icons.
func WithIconClass(class string) Option {
	return func(cfg *config) {
		if class = strings.TrimSpace(class); class != "" {
			cfg.iconClass = class
		}
	}
}

// Renderer implements render.Renderer for ui.Element trees.
type Renderer struct {
	engine    *gotemplate.Engine
	iconClass string
}

var _ render.Renderer = (*Renderer)(nil)

// New compiles the templates.
func New(options ...Option) (*Renderer, error) {
	cfg := config{iconClass: "formkit-icon"}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.templates == nil {
		cfg.templates = TemplatesFS()
	}

	engine, err := gotemplate.New(
		gotemplate.WithFS(cfg.templates),
		gotemplate.WithExtension(extension),
		gotemplate.WithTemplateFunc(cfg.funcs),
	)
	if err != nil {
		return nil, fmt.Errorf("html renderer: %w", err)
	}
	for _, name := range []string{templateElement, templateVoid, templateAttrs} {
		if _, err := engine.Template(name + extension); err != nil {
			return nil, fmt.Errorf("html renderer: compile %s: %w", name, err)
		}
	}
	return &Renderer{engine: engine, iconClass: cfg.iconClass}, nil
}

// Name implements render.Renderer.
func (r *Renderer) Name() string { return Name }

// ContentType implements render.Renderer.
func (r *Renderer) ContentType() string { return "text/html; charset=utf-8" }

// Render implements render.Renderer. node must be a ui.Element.
func (r *Renderer) Render(ctx context.Context, node capability.Node, options render.RenderOptions) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("html renderer: context is required")
	}
	root, ok := node.(ui.Element)
	if !ok {
		return nil, fmt.Errorf("html renderer: unsupported node %T", node)
	}
	root = applyErrors(root, options)
	if root.Kind == ui.KindForm {
		root = decorateForm(root, options)
	}

	var b strings.Builder
	if err := r.renderElement(ctx, &b, root); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

func (r *Renderer) renderElement(ctx context.Context, b *strings.Builder, element ui.Element) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tag, ok := tags[element.Kind]
	if !ok {
		// Nodes of other render technologies have no HTML form.
		return nil
	}

	data := pongo2.Context{
		"tag":   tag.name,
		"attrs": attributes(element, tag),
	}
	if tag.void {
		if _, err := r.engine.RenderTemplate(templateVoid, data, b); err != nil {
			return fmt.Errorf("html renderer: %s at %q: %w", element.Kind, element.Path, err)
		}
		return nil
	}

	var children strings.Builder
	for _, child := range element.Children {
		if err := r.renderElement(ctx, &children, child); err != nil {
			return err
		}
	}
	data["text"] = element.Text
	data["children"] = pongo2.AsSafeValue(children.String())
	if legend := element.PropString("legend"); legend != "" && tag.legend != "" {
		data["legend"] = legend
		data["legendTag"] = tag.legend
	}
	if icon := element.PropString("icon"); icon != "" && element.Kind == ui.KindLabel {
		data["icon"] = pongo2.AsSafeValue(icon)
		data["iconClass"] = r.iconClass
	}

	if _, err := r.engine.RenderTemplate(templateElement, data, b); err != nil {
		return fmt.Errorf("html renderer: %s at %q: %w", element.Kind, element.Path, err)
	}
	return nil
}

type tagSpec struct {
	name   string
	void   bool
	legend string
	fixed  []attribute
}

var tags = map[string]tagSpec{
	ui.KindForm:        {name: "form", legend: "h2", fixed: []attribute{{Name: "novalidate", Flag: true}}},
	ui.KindFieldset:    {name: "fieldset", legend: "legend"},
	ui.KindList:        {name: "fieldset", legend: "legend"},
	ui.KindField:       {name: "div"},
	ui.KindInput:       {name: "input", void: true},
	ui.KindCheckbox:    {name: "input", void: true, fixed: []attribute{{Name: "type", Value: "checkbox"}}},
	ui.KindTextarea:    {name: "textarea"},
	ui.KindSelect:      {name: "select"},
	ui.KindOption:      {name: "option"},
	ui.KindLabel:       {name: "label"},
	ui.KindHelp:        {name: "p"},
	ui.KindError:       {name: "p", fixed: []attribute{{Name: "role", Value: "alert"}}},
	ui.KindPlaceholder: {name: "div"},
}

type attribute struct {
	Name  string
	Value string
	Flag  bool
}

// attributeProps lists the element props emitted as HTML attributes, in
// output order.
var attributeProps = []string{
	"id", "name", "type", "value", "placeholder", "min", "max", "minlength",
	"maxlength", "pattern", "step", "rows", "for", "action", "method", "style",
	"data-visible-if", "required", "disabled", "checked", "selected", "hidden",
	"aria-invalid",
}

var flagProps = map[string]bool{
	"required": true,
	"disabled": true,
	"checked":  true,
	"selected": true,
	"hidden":   true,
}

func attributes(element ui.Element, tag tagSpec) []attribute {
	attrs := append([]attribute(nil), tag.fixed...)
	if len(element.Classes) > 0 {
		attrs = append(attrs, attribute{Name: "class", Value: strings.Join(element.Classes, " ")})
	}
	if element.Path != "" {
		attrs = append(attrs, attribute{Name: "data-path", Value: element.Path})
	}
	for _, key := range attributeProps {
		value, ok := element.Prop(key)
		if !ok || value == nil {
			continue
		}
		if element.Kind == ui.KindCheckbox && key == "type" {
			continue
		}
		if flagProps[key] {
			if value == true {
				attrs = append(attrs, attribute{Name: key, Flag: true})
			}
			continue
		}
		attrs = append(attrs, attribute{Name: key, Value: formatValue(value)})
	}
	return attrs
}

func formatValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	default:
		return fmt.Sprint(v)
	}
}

// applyErrors appends server-side messages to the field elements they
// belong to and form-level messages to the root.
func applyErrors(root ui.Element, options render.RenderOptions) ui.Element {
	if len(options.Errors) == 0 {
		return root
	}
	var visit func(ui.Element) ui.Element
	visit = func(element ui.Element) ui.Element {
		element = element.MapChildren(visit)
		if element.Kind != ui.KindField {
			return element
		}
		return appendErrors(element, options.FieldErrors(element.Path))
	}
	root = visit(root)
	return appendErrors(root, options.FieldErrors(""))
}

func appendErrors(element ui.Element, messages []string) ui.Element {
	existing := make(map[string]struct{})
	for _, child := range element.Children {
		if child.Kind == ui.KindError {
			existing[child.Text] = struct{}{}
		}
	}
	for _, msg := range messages {
		if _, dup := existing[msg]; dup {
			continue
		}
		existing[msg] = struct{}{}
		element = element.WithChildren(ui.New(ui.KindError).WithClass("formkit-error", "formkit-error--server").WithText(msg))
	}
	return element
}

// decorateForm sets the action and method and adds hidden inputs. Verbs
// browsers cannot submit are sent as POST with a _method override.
func decorateForm(form ui.Element, options render.RenderOptions) ui.Element {
	hidden := options.Hidden
	if action := strings.TrimSpace(options.Action); action != "" {
		form = form.WithProp("action", action)
	}
	if method := strings.ToUpper(strings.TrimSpace(options.Method)); method != "" {
		switch method {
		case "GET", "POST":
			form = form.WithProp("method", strings.ToLower(method))
		default:
			form = form.WithProp("method", "post")
			hidden = render.MergeHiddenFields(hidden, render.Hidden("_method", method))
		}
	}
	for _, field := range render.SortedHiddenFields(hidden) {
		form = form.WithChildren(ui.New(ui.KindInput).WithProps(map[string]any{
			"type":  "hidden",
			"name":  field.Name,
			"value": field.Value,
		}))
	}
	return form
}
