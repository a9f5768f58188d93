// Package timezone turns string fields with the "timezone" format into a
// select of IANA zones and validates submitted zones against the same list.
//
// The offered zones can be narrowed globally with the "regions" setting or
// per field with the "timezoneRegions" UI option:
//
//	tz:
//	  type: string
//	  format: timezone
//	  uiOptions:
//	    timezoneRegions: [Europe, Atlantic]
package timezone

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/go-viper/mapstructure/v2"

	"github.com/goliatone/go-formkit/pkg/capability"
	"github.com/goliatone/go-formkit/pkg/schema"
	"github.com/goliatone/go-formkit/pkg/validation"
)

// ID is the registry id of the timezone plugin.
const ID = "formkit.timezone"

// Format marks string fields holding a zone name.
const Format = "timezone"

// RegionsOption is the UI option narrowing the zones of one field.
const RegionsOption = "timezoneRegions"

// MessageUnknown is reported for values outside the zone list.
const MessageUnknown = "Unknown time zone"

// Config is the plugin configuration.
type Config struct {
	Regions []string `json:"regions,omitempty" jsonschema:"title=Regions,description=Zone prefixes offered by default such as Europe or America"`
}

var configSchema = sync.OnceValue(func() schema.Field {
	return schema.MustFromStruct(&Config{})
})

// Option configures the plugin.
type Option func(*Plugin)

// WithZones replaces the bundled zone list.
func WithZones(zones []string) Option {
	return func(p *Plugin) {
		p.zones = slices.Clone(zones)
		slices.Sort(p.zones)
	}
}

// WithRegions sets the initial regions.
func WithRegions(regions ...string) Option {
	return func(p *Plugin) {
		p.cfg.Regions = slices.Clone(regions)
	}
}

// Plugin is the timezone plugin.
type Plugin struct {
	capability.Base

	mu    sync.RWMutex
	cfg   Config
	zones []string
}

// New constructs the plugin. It fails only when the bundled zone list
// cannot be read.
func New(options ...Option) (*Plugin, error) {
	p := &Plugin{}
	for _, opt := range options {
		if opt != nil {
			opt(p)
		}
	}
	if p.zones == nil {
		zones, err := DefaultZones()
		if err != nil {
			return nil, fmt.Errorf("timezone: load zones: %w", err)
		}
		p.zones = zones
	}
	return p, nil
}

// Metadata implements capability.Plugin.
func (p *Plugin) Metadata() capability.Metadata {
	return capability.Metadata{
		ID:          ID,
		Name:        "Time zones",
		Description: "Offers IANA time zones for fields with the timezone format.",
		Version:     "1.0.0",
		Tags:        []string{"timezone", "select"},
	}
}

// ConfigSchema implements capability.Configurable.
func (p *Plugin) ConfigSchema() schema.Field {
	return configSchema()
}

// DefaultConfig implements capability.Configurable.
func (p *Plugin) DefaultConfig() map[string]any {
	return map[string]any{"regions": []any{}}
}

// Configure implements capability.Configurable.
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
		return fmt.Errorf("timezone: decode config: %w", err)
	}
	p.mu.Lock()
	p.cfg = cfg
	p.mu.Unlock()
	return nil
}

// Config returns the active configuration.
func (p *Plugin) Config() Config {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Config{Regions: slices.Clone(p.cfg.Regions)}
}

// Generators implements capability.SchemaGenerator. Zone fields are
// rendered by whichever plugin renders enums.
func (p *Plugin) Generators() []capability.Contribution {
	return nil
}

// PreprocessSchema gives every zone field without its own enum the list of
// zones it accepts.
func (p *Plugin) PreprocessSchema(field schema.Field) (schema.Field, error) {
	return p.expand(field.Clone()), nil
}

func (p *Plugin) expand(field schema.Field) schema.Field {
	if isZoneField(field) && len(field.Enum) == 0 {
		zones := p.Zones(regionsOf(field))
		field.Enum = make([]any, len(zones))
		field.EnumLabels = make([]string, len(zones))
		for idx, zone := range zones {
			field.Enum[idx] = zone
			field.EnumLabels[idx] = Label(zone)
		}
	}
	for idx, prop := range field.Properties {
		field.Properties[idx].Field = p.expand(prop.Field)
	}
	if field.Items != nil {
		item := p.expand(*field.Items)
		field.Items = &item
	}
	return field
}

// Zones returns the known zones within regions, or within the configured
// regions when none are given.
func (p *Plugin) Zones(regions []string) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(regions) == 0 {
		regions = p.cfg.Regions
	}
	var out []string
	for _, zone := range p.zones {
		if inRegions(zone, regions) {
			out = append(out, zone)
		}
	}
	return out
}

// Search looks zones up for typeahead style pickers.
func (p *Plugin) Search(query string, limit int) []string {
	return Search(p.Zones(nil), query, limit)
}

// Validator reports zone fields whose value is not a known zone within
// the field's regions. Messages follow the nesting prefixes of
// validation.Validate.
func (p *Plugin) Validator() validation.Validator {
	return func(value any, field schema.Field) []string {
		return p.check(value, field, "")
	}
}

func (p *Plugin) check(value any, field schema.Field, prefix string) []string {
	switch {
	case isZoneField(field):
		zone, ok := value.(string)
		if !ok || zone == "" {
			return nil
		}
		if _, found := slices.BinarySearch(p.Zones(regionsOf(field)), zone); !found {
			return []string{prefix + MessageUnknown}
		}
		return nil
	case field.Type == schema.TypeObject:
		var errs []string
		for _, prop := range field.Properties {
			child, _ := schema.ValueAt(value, []string{prop.Name})
			errs = append(errs, p.check(child, prop.Field, prefix+prop.Name+": ")...)
		}
		return errs
	case field.Type == schema.TypeArray && field.Items != nil:
		items, _ := value.([]any)
		var errs []string
		for idx, item := range items {
			errs = append(errs, p.check(item, *field.Items, fmt.Sprintf("%s[%d]: ", prefix, idx))...)
		}
		return errs
	}
	return nil
}

func isZoneField(field schema.Field) bool {
	return field.Type == schema.TypeString && strings.EqualFold(field.Format, Format)
}

func regionsOf(field schema.Field) []string {
	raw, ok := field.UIOption(RegionsOption)
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case string:
		return strings.Split(v, ",")
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
