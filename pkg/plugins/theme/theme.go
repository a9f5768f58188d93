// Package theme decorates generated forms with go-theme design tokens. It
// fills missing titles, tags elements with theme and density classes,
// exposes tokens and CSS variables on the root node and overrides colour
// fields with a swatch picker built from the theme palette.
package theme

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	gotheme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formkit/pkg/capability"
	"github.com/goliatone/go-formkit/pkg/schema"
	"github.com/goliatone/go-formkit/pkg/ui"
)

// ID is the registry id of the theme plugin.
const ID = "formkit.theme"

// Density values accepted by Config.
const (
	DensityCompact     = "compact"
	DensityComfortable = "comfortable"
)

// Config is the plugin configuration. Its schema is reflected from the
// struct tags.
type Config struct {
	Theme            string `json:"theme,omitempty" jsonschema:"title=Theme"`
	Variant          string `json:"variant,omitempty" jsonschema:"title=Variant"`
	Density          string `json:"density" jsonschema:"title=Density,enum=compact,enum=comfortable"`
	ShowDescriptions bool   `json:"showDescriptions,omitempty" jsonschema:"title=Show descriptions"`
}

var configSchema = sync.OnceValue(func() schema.Field {
	return schema.MustFromStruct(&Config{})
})

// Option configures the plugin.
type Option func(*Plugin)

// WithSelector sets the go-theme selector used to resolve the configured
// theme and variant.
func WithSelector(selector gotheme.ThemeSelector) Option {
	return func(p *Plugin) {
		p.selector = selector
	}
}

// WithClassPrefix changes the prefix of the classes the plugin adds
// (default "formkit").
func WithClassPrefix(prefix string) Option {
	return func(p *Plugin) {
		if prefix != "" {
			p.prefix = prefix
		}
	}
}

// WithConfig sets the initial configuration.
func WithConfig(cfg Config) Option {
	return func(p *Plugin) {
		p.cfg = cfg
	}
}

// Plugin is the theme plugin.
type Plugin struct {
	selector gotheme.ThemeSelector
	prefix   string

	mu      sync.RWMutex
	cfg     Config
	tokens  map[string]string
	theme   string
	variant string
}

// New constructs the theme plugin.
func New(options ...Option) *Plugin {
	p := &Plugin{
		prefix: "formkit",
		cfg:    Config{Density: DensityComfortable, ShowDescriptions: true},
	}
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
		Name:        "Theme",
		Description: "Applies go-theme tokens, density classes and colour swatches.",
		Version:     "1.0.0",
		Tags:        []string{"theme", "presentation"},
	}
}

// Initialize resolves the configured theme.
func (p *Plugin) Initialize(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resolveLocked()
}

// Cleanup drops the resolved theme.
func (p *Plugin) Cleanup(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokens = nil
	p.theme, p.variant = "", ""
	return nil
}

// ConfigSchema implements capability.Configurable.
func (p *Plugin) ConfigSchema() schema.Field {
	return configSchema()
}

// DefaultConfig implements capability.Configurable.
func (p *Plugin) DefaultConfig() map[string]any {
	return map[string]any{
		"density":          DensityComfortable,
		"showDescriptions": true,
	}
}

// Configure decodes values into Config and re-resolves the theme. The
// previous configuration stays in place when resolution fails.
func (p *Plugin) Configure(values map[string]any) error {
	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(values); err != nil {
		return fmt.Errorf("theme: decode config: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	previous := p.cfg
	p.cfg = cfg
	if err := p.resolveLocked(); err != nil {
		p.cfg = previous
		return err
	}
	return nil
}

// Config returns the active configuration.
func (p *Plugin) Config() Config {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg
}

// Tokens returns a copy of the resolved design tokens, variant tokens
// overriding base ones.
func (p *Plugin) Tokens() map[string]string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]string, len(p.tokens))
	for key, value := range p.tokens {
		out[key] = value
	}
	return out
}

func (p *Plugin) resolveLocked() error {
	p.tokens = nil
	p.theme, p.variant = p.cfg.Theme, p.cfg.Variant
	if p.selector == nil || p.cfg.Theme == "" {
		return nil
	}
	selection, err := p.selector.Select(p.cfg.Theme, p.cfg.Variant)
	if err != nil {
		return fmt.Errorf("theme: select %q: %w", p.cfg.Theme, err)
	}
	if selection == nil {
		return fmt.Errorf("theme: selector returned no selection for %q", p.cfg.Theme)
	}
	if selection.Theme != "" {
		p.theme = selection.Theme
	}
	if selection.Variant != "" {
		p.variant = selection.Variant
	}
	p.tokens = mergeTokens(selection.Manifest, p.variant)
	return nil
}

func mergeTokens(manifest *gotheme.Manifest, variant string) map[string]string {
	tokens := make(map[string]string)
	if manifest == nil {
		return tokens
	}
	for key, value := range manifest.Tokens {
		tokens[key] = value
	}
	if v, ok := manifest.Variants[variant]; ok {
		for key, value := range v.Tokens {
			tokens[key] = value
		}
	}
	return tokens
}

// Generators implements capability.SchemaGenerator. The plugin takes part
// in generation only through its pre and post processing hooks.
func (p *Plugin) Generators() []capability.Contribution {
	return nil
}

// PreprocessSchema fills missing titles from property names and drops
// descriptions when they are switched off.
func (p *Plugin) PreprocessSchema(field schema.Field) (schema.Field, error) {
	show := p.Config().ShowDescriptions
	return decorate(field.Clone(), show), nil
}

func decorate(field schema.Field, showDescriptions bool) schema.Field {
	if !showDescriptions {
		field.Description = ""
	}
	for idx, prop := range field.Properties {
		child := decorate(prop.Field, showDescriptions)
		if child.Title == "" {
			child.Title = Humanize(prop.Name)
		}
		field.Properties[idx].Field = child
	}
	if field.Items != nil {
		item := decorate(*field.Items, showDescriptions)
		field.Items = &item
	}
	return field
}

// Humanize turns a property name such as "firstName" or "first_name" into
// "First name".
func Humanize(name string) string {
	var words []string
	var current []rune
	flush := func() {
		if len(current) > 0 {
			words = append(words, strings.ToLower(string(current)))
			current = current[:0]
		}
	}
	runes := []rune(name)
	for idx, r := range runes {
		switch {
		case r == '_' || r == '-' || unicode.IsSpace(r):
			flush()
		case unicode.IsUpper(r) && idx > 0 && !unicode.IsUpper(runes[idx-1]):
			flush()
			current = append(current, r)
		default:
			current = append(current, r)
		}
	}
	flush()
	if len(words) == 0 {
		return ""
	}
	first := []rune(words[0])
	first[0] = unicode.ToUpper(first[0])
	words[0] = string(first)
	return strings.Join(words, " ")
}

// PostprocessComponent adds theme classes, tokens and CSS variables to the
// root element and density classes to field wrappers. Nodes that are not
// ui.Element pass through unchanged.
func (p *Plugin) PostprocessComponent(node capability.Node, _ schema.Field, ctx *capability.Context) (capability.Node, error) {
	element, ok := node.(ui.Element)
	if !ok {
		return node, nil
	}

	p.mu.RLock()
	density, name, variant := p.cfg.Density, p.theme, p.variant
	tokens := p.tokens
	p.mu.RUnlock()

	if density != "" && (element.Kind == ui.KindField || ctx.Depth() == 0) {
		element = element.WithClass(p.prefix + "-density-" + density)
	}
	if ctx.Depth() != 0 || name == "" {
		return element, nil
	}

	element = element.WithClass(p.prefix + "-theme-" + name)
	if variant != "" {
		element = element.WithClass(p.prefix + "-theme-" + name + "--" + variant)
	}
	if len(tokens) == 0 {
		return element, nil
	}
	copied := make(map[string]string, len(tokens))
	vars := make(map[string]string, len(tokens))
	for key, value := range tokens {
		copied[key] = value
		vars[CSSVar(key)] = value
	}
	return element.WithProps(map[string]any{
		"tokens":  copied,
		"cssVars": vars,
		"style":   Style(vars),
	}), nil
}

// CSSVar converts a token name into a CSS custom property name.
func CSSVar(token string) string {
	name := strings.NewReplacer(".", "-", "_", "-", " ", "-").Replace(strings.TrimSpace(token))
	return "--" + strings.TrimPrefix(name, "--")
}

// Style renders CSS variables as an inline style declaration with keys in
// lexical order.
func Style(vars map[string]string) string {
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var b strings.Builder
	for idx, key := range keys {
		if idx > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s: %s;", key, vars[key])
	}
	return b.String()
}

// OverridableTypes implements capability.SchemaOverride.
func (p *Plugin) OverridableTypes() []schema.Type {
	return []schema.Type{schema.TypeString}
}

// CanOverride claims colour fields.
func (p *Plugin) CanOverride(fieldType schema.Type, field schema.Field) bool {
	return fieldType == schema.TypeString && field.Format == schema.FormatColor
}

// OverrideComponent renders a colour input with the theme palette as
// swatches.
func (p *Plugin) OverrideComponent(schema.Type, schema.Field) capability.GenerateFunc {
	return p.colorPicker
}

func (p *Plugin) colorPicker(field schema.Field, ctx *capability.Context) (capability.Node, error) {
	value, _ := ctx.Value.(string)
	control := ui.New(ui.KindInput).
		WithPath(ctx.PathString()).
		WithClass(p.prefix+"-input", p.prefix+"-input--color").
		WithProps(map[string]any{
			"id":   ctx.InputID(),
			"name": ctx.PathString(),
			"type": "color",
		})
	if value != "" {
		control = control.WithProp("value", value)
	}
	if field.Required {
		control = control.WithProp("required", true)
	}

	wrapper := ui.New(ui.KindField).
		WithPath(ctx.PathString()).
		WithClass(p.prefix+"-field", p.prefix+"-field--swatches")
	if label := field.Label(ctx.Name()); label != "" {
		wrapper = wrapper.WithChildren(ui.New(ui.KindLabel).
			WithClass(p.prefix+"-label").
			WithProp("for", ctx.InputID()).
			WithText(label))
	}
	wrapper = wrapper.WithChildren(control)

	if swatches := p.swatches(value); len(swatches) > 0 {
		wrapper = wrapper.WithChildren(ui.New(ui.KindList).
			WithClass(p.prefix + "-swatches").
			WithChildren(swatches...))
	}
	for _, msg := range ctx.Errors {
		wrapper = wrapper.WithChildren(ui.New(ui.KindError).WithClass(p.prefix + "-error").WithText(msg))
	}
	return wrapper, nil
}

func (p *Plugin) swatches(current string) []ui.Element {
	tokens := p.Tokens()
	names := make([]string, 0, len(tokens))
	for name, value := range tokens {
		if strings.HasPrefix(value, "#") {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	out := make([]ui.Element, 0, len(names))
	for _, name := range names {
		option := ui.New(ui.KindOption).
			WithClass(p.prefix+"-swatch").
			WithProps(map[string]any{"value": tokens[name], "token": name}).
			WithText(name)
		if strings.EqualFold(tokens[name], current) {
			option = option.WithProp("selected", true)
		}
		out = append(out, option)
	}
	return out
}
