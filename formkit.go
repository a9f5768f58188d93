// Package formkit is the quick-start facade over the form engine. It wires
// the bundled builtin and theme plugins into a registry, builds forms from
// schema files or OpenAPI documents and renders them to HTML.
//
//	reg, err := formkit.NewRegistry(ctx)
//	form, err := formkit.NewForm(reg, field)
//	markup, err := formkit.RenderHTML(ctx, form, formkit.RenderOptions{Action: "/signup"})
package formkit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	gotheme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formkit/pkg/openapi"
	"github.com/goliatone/go-formkit/pkg/orchestrator"
	"github.com/goliatone/go-formkit/pkg/plugin"
	"github.com/goliatone/go-formkit/pkg/plugins/builtin"
	"github.com/goliatone/go-formkit/pkg/plugins/theme"
	"github.com/goliatone/go-formkit/pkg/plugins/timezone"
	"github.com/goliatone/go-formkit/pkg/plugins/visibility"
	"github.com/goliatone/go-formkit/pkg/render"
	"github.com/goliatone/go-formkit/pkg/render/html"
	"github.com/goliatone/go-formkit/pkg/schema"
)

// RenderOptions aliases render.RenderOptions for callers that only import
// the root package.
type RenderOptions = render.RenderOptions

// Field aliases schema.Field.
type Field = schema.Field

// Option configures NewRegistry.
type Option func(*config)

type config struct {
	logger      *slog.Logger
	appVersion  string
	classPrefix string
	selector    gotheme.ThemeSelector
	themeConfig *theme.Config
	visibility  *visibility.Plugin
	timezones   []string
	withZones   bool
	plugins     []plugin.Plugin
}

// WithLogger sets the registry logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithAppVersion enables plugin version compatibility checks.
func WithAppVersion(version string) Option {
	return func(cfg *config) {
		cfg.appVersion = version
	}
}

// WithClassPrefix changes the class prefix of both bundled plugins.
func WithClassPrefix(prefix string) Option {
	return func(cfg *config) {
		cfg.classPrefix = prefix
	}
}

// WithThemeSelector passes a go-theme selector to the theme plugin.
func WithThemeSelector(selector gotheme.ThemeSelector) Option {
	return func(cfg *config) {
		cfg.selector = selector
	}
}

// WithThemeConfig applies cfg to the theme plugin after registration.
func WithThemeConfig(themeConfig theme.Config) Option {
	return func(cfg *config) {
		cfg.themeConfig = &themeConfig
	}
}

// WithVisibility registers the visibility plugin so fields with a visibleIf
// rule are hidden when it does not hold. extras are exposed to rules as
// "extras.<key>".
func WithVisibility(extras map[string]any) Option {
	return func(cfg *config) {
		cfg.visibility = visibility.New(visibility.WithExtras(extras))
	}
}

// WithTimezones registers the timezone plugin, offering the zones within
// regions (all zones when empty) to fields with the timezone format.
func WithTimezones(regions ...string) Option {
	return func(cfg *config) {
		cfg.withZones = true
		cfg.timezones = regions
	}
}

// WithPlugins registers extra plugins after the bundled ones.
func WithPlugins(plugins ...plugin.Plugin) Option {
	return func(cfg *config) {
		cfg.plugins = append(cfg.plugins, plugins...)
	}
}

// NewRegistry builds a registry with the builtin and theme plugins active.
func NewRegistry(ctx context.Context, options ...Option) (*plugin.Registry, error) {
	cfg := config{}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	var regOpts []plugin.Option
	if cfg.logger != nil {
		regOpts = append(regOpts, plugin.WithLogger(cfg.logger))
	}
	if cfg.appVersion != "" {
		regOpts = append(regOpts, plugin.WithAppVersion(cfg.appVersion))
	}
	reg := plugin.New(regOpts...)
	if err := Install(ctx, reg, options...); err != nil {
		return nil, err
	}
	return reg, nil
}

// Install registers the bundled plugins, then any extra plugins, into reg.
func Install(ctx context.Context, reg *plugin.Registry, options ...Option) error {
	if reg == nil {
		return errors.New("formkit: registry is required")
	}
	cfg := config{}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	themeOpts := []theme.Option{theme.WithClassPrefix(cfg.classPrefix)}
	if cfg.selector != nil {
		themeOpts = append(themeOpts, theme.WithSelector(cfg.selector))
	}
	plugins := []plugin.Plugin{
		builtin.New(builtin.WithClassPrefix(cfg.classPrefix)),
		theme.New(themeOpts...),
	}
	if cfg.visibility != nil {
		plugins = append(plugins, cfg.visibility)
	}
	if cfg.withZones {
		zones, err := timezone.New(timezone.WithRegions(cfg.timezones...))
		if err != nil {
			return err
		}
		plugins = append(plugins, zones)
	}
	plugins = append(plugins, cfg.plugins...)
	for _, p := range plugins {
		if err := reg.Register(ctx, p); err != nil {
			return fmt.Errorf("formkit: register %s: %w", p.Metadata().ID, err)
		}
	}

	if cfg.themeConfig != nil {
		values := map[string]any{
			"theme":            cfg.themeConfig.Theme,
			"variant":          cfg.themeConfig.Variant,
			"density":          cfg.themeConfig.Density,
			"showDescriptions": cfg.themeConfig.ShowDescriptions,
		}
		if values["density"] == "" {
			values["density"] = theme.DensityComfortable
		}
		if err := reg.Configure(ctx, theme.ID, values); err != nil {
			return fmt.Errorf("formkit: configure theme: %w", err)
		}
	}
	return nil
}

// NewForm constructs a form bound to reg with server-side overrides enabled.
// When the timezone plugin is active its validator is attached too.
func NewForm(reg *plugin.Registry, field schema.Field, options ...orchestrator.Option) (*orchestrator.Form, error) {
	if reg == nil {
		return nil, errors.New("formkit: registry is required")
	}
	defaults := []orchestrator.Option{
		orchestrator.WithRegistry(reg),
		orchestrator.WithSchemaOverrides(),
	}
	if registration, err := reg.Get(timezone.ID); err == nil && registration.Status == plugin.StatusActive {
		if zones, ok := registration.Plugin.(*timezone.Plugin); ok {
			defaults = append(defaults, orchestrator.WithValidator(zones.Validator()))
		}
	}
	options = append(defaults, options...)
	return orchestrator.New(field, options...), nil
}

// LoadPreset reads a JSON preset document (see
// orchestrator.JSONPresetTransformer) from path and returns the form option
// applying it before plugin preprocessing.
func LoadPreset(path string) (orchestrator.Option, error) {
	dir, name := filepath.Split(filepath.Clean(path))
	if dir == "" {
		dir = "."
	}
	transformer, err := orchestrator.NewJSONPresetTransformerFromFS(os.DirFS(dir), name)
	if err != nil {
		return nil, fmt.Errorf("formkit: load preset: %w", err)
	}
	return orchestrator.WithSchemaTransformer(transformer), nil
}

// LoadSchema loads a JSON or YAML schema from a file path or http(s) URL.
func LoadSchema(ctx context.Context, location string, options ...schema.LoaderOption) (schema.Field, error) {
	src, err := schema.SourceFor(location)
	if err != nil {
		return schema.Field{}, err
	}
	return schema.NewLoader(options...).LoadField(ctx, src)
}

// LoadOpenAPI loads an OpenAPI document from a file path or http(s) URL.
func LoadOpenAPI(ctx context.Context, location string, options ...schema.LoaderOption) (*openapi.Document, error) {
	src, err := schema.SourceFor(location)
	if err != nil {
		return nil, err
	}
	return openapi.LoadSource(ctx, schema.NewLoader(options...), src)
}

// RenderHTML generates form and renders it with the bundled HTML renderer.
func RenderHTML(ctx context.Context, form *orchestrator.Form, options RenderOptions) ([]byte, error) {
	if form == nil {
		return nil, errors.New("formkit: form is required")
	}
	node, err := form.Generate(ctx)
	if err != nil {
		return nil, err
	}
	renderer, err := html.New()
	if err != nil {
		return nil, err
	}
	return renderer.Render(ctx, node, options)
}
