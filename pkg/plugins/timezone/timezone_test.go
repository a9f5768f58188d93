package timezone_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/pkg/orchestrator"
	"github.com/goliatone/go-formkit/pkg/plugin"
	"github.com/goliatone/go-formkit/pkg/plugins/builtin"
	"github.com/goliatone/go-formkit/pkg/plugins/timezone"
	"github.com/goliatone/go-formkit/pkg/schema"
	"github.com/goliatone/go-formkit/pkg/ui"
)

var zones = []string{"America/New_York", "Europe/Lisbon", "Europe/London", "Asia/Tokyo", "UTC"}

func newPlugin(t *testing.T, options ...timezone.Option) *timezone.Plugin {
	t.Helper()
	p, err := timezone.New(append([]timezone.Option{timezone.WithZones(zones)}, options...)...)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return p
}

func meetingSchema() schema.Field {
	return schema.Field{
		Type: schema.TypeObject,
		Properties: schema.Properties{
			{Name: "zone", Field: schema.Field{Type: schema.TypeString, Format: timezone.Format}},
			{Name: "office", Field: schema.Field{
				Type:      schema.TypeString,
				Format:    timezone.Format,
				UIOptions: map[string]any{timezone.RegionsOption: []any{"Europe"}},
			}},
			{Name: "stops", Field: schema.Field{
				Type:  schema.TypeArray,
				Items: &schema.Field{Type: schema.TypeString, Format: timezone.Format},
			}},
		},
	}
}

func TestLoadZones(t *testing.T) {
	got, err := timezone.LoadZones(strings.NewReader("# zones\nUTC\n\nEurope/Paris\n  UTC  \nAsia/Tokyo\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []string{"Asia/Tokyo", "Europe/Paris", "UTC"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("zones mismatch (-want +got):\n%s", diff)
	}
	if _, err := timezone.LoadZones(nil); err == nil {
		t.Fatalf("expected error for nil reader")
	}
}

func TestDefaultZones(t *testing.T) {
	got, err := timezone.DefaultZones()
	if err != nil {
		t.Fatalf("default zones: %v", err)
	}
	for _, zone := range []string{"UTC", "Europe/Lisbon", "America/New_York"} {
		if !contains(got, zone) {
			t.Fatalf("bundled list should include %s", zone)
		}
	}
	got[0] = "mutated"
	again, _ := timezone.DefaultZones()
	if again[0] == "mutated" {
		t.Fatalf("DefaultZones must return a copy")
	}
}

func TestSearch(t *testing.T) {
	all := []string{"America/New_York", "Europe/Lisbon", "Europe/London", "Asia/Tokyo", "UTC"}
	cases := []struct {
		query string
		limit int
		want  []string
	}{
		{query: "lon", limit: 10, want: []string{"Europe/London"}},
		{query: "eu", limit: 10, want: []string{"Europe/Lisbon", "Europe/London"}},
		{query: "to", limit: 10, want: []string{"Asia/Tokyo"}},
		{query: "o", limit: 2, want: []string{"America/New_York", "Asia/Tokyo"}},
		{query: "u", limit: 10, want: []string{"UTC", "Europe/Lisbon", "Europe/London"}},
		{query: " ", limit: 10, want: nil},
		{query: "lon", limit: 0, want: nil},
	}
	for _, tc := range cases {
		got := timezone.Search(all, tc.query, tc.limit)
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("Search(%q, %d) mismatch (-want +got):\n%s", tc.query, tc.limit, diff)
		}
	}
}

func TestLabel(t *testing.T) {
	if got := timezone.Label("America/New_York"); got != "America / New York" {
		t.Fatalf("label = %q", got)
	}
}

func TestPreprocessSchema_AddsZoneEnums(t *testing.T) {
	p := newPlugin(t)
	field := meetingSchema()
	processed, err := p.PreprocessSchema(field)
	if err != nil {
		t.Fatalf("preprocess: %v", err)
	}

	zone, _ := processed.Properties.Get("zone")
	if diff := cmp.Diff([]any{"America/New_York", "Asia/Tokyo", "Europe/Lisbon", "Europe/London", "UTC"}, zone.Enum); diff != "" {
		t.Fatalf("zone enum mismatch (-want +got):\n%s", diff)
	}
	if zone.EnumLabels[0] != "America / New York" {
		t.Fatalf("labels should be humanized, got %q", zone.EnumLabels[0])
	}
	office, _ := processed.Properties.Get("office")
	if diff := cmp.Diff([]any{"Europe/Lisbon", "Europe/London"}, office.Enum); diff != "" {
		t.Fatalf("office enum mismatch (-want +got):\n%s", diff)
	}
	stops, _ := processed.Properties.Get("stops")
	if len(stops.Items.Enum) != len(zones) {
		t.Fatalf("array items should be expanded, got %v", stops.Items.Enum)
	}
	if original, _ := field.Properties.Get("zone"); original.Enum != nil {
		t.Fatalf("input schema was mutated")
	}
}

func TestConfigure_NarrowsRegions(t *testing.T) {
	ctx := context.Background()
	p := newPlugin(t)
	reg := plugin.New()
	if err := reg.Register(ctx, p); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Configure(ctx, timezone.ID, map[string]any{"regions": []any{"Asia", "America"}}); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if diff := cmp.Diff([]string{"America/New_York", "Asia/Tokyo"}, p.Zones(nil)); diff != "" {
		t.Fatalf("zones mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Asia/Tokyo"}, p.Search("tok", 5)); diff != "" {
		t.Fatalf("search mismatch (-want +got):\n%s", diff)
	}
	if err := reg.Configure(ctx, timezone.ID, map[string]any{"zones": "x"}); err == nil {
		t.Fatalf("unknown keys should be rejected")
	}
	if diff := cmp.Diff(timezone.Config{Regions: []string{"Asia", "America"}}, p.Config()); diff != "" {
		t.Fatalf("rejected config must not be applied (-want +got):\n%s", diff)
	}
}

func TestValidator(t *testing.T) {
	p := newPlugin(t)
	value := map[string]any{
		"zone":   "Mars/Olympus",
		"office": "Asia/Tokyo",
		"stops":  []any{"UTC", "Moon/Base"},
	}
	got := p.Validator()(value, meetingSchema())
	want := []string{
		"zone: " + timezone.MessageUnknown,
		"office: " + timezone.MessageUnknown,
		"stops: [1]: " + timezone.MessageUnknown,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}

	ok := map[string]any{"zone": "UTC", "office": "Europe/London"}
	if errs := p.Validator()(ok, meetingSchema()); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestGenerate_RendersZoneSelect(t *testing.T) {
	ctx := context.Background()
	p := newPlugin(t)
	reg := plugin.New()
	if err := reg.Register(ctx, builtin.New()); err != nil {
		t.Fatalf("register builtin: %v", err)
	}
	if err := reg.Register(ctx, p); err != nil {
		t.Fatalf("register timezone: %v", err)
	}
	form := orchestrator.New(meetingSchema(),
		orchestrator.WithRegistry(reg),
		orchestrator.WithInitialValue(map[string]any{"office": "Europe/London"}),
		orchestrator.WithValidator(p.Validator()),
	)
	node, err := form.Generate(ctx)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	root, ok := node.(ui.Element)
	if !ok {
		t.Fatalf("expected ui.Element, got %T", node)
	}
	office, ok := root.Find(func(e ui.Element) bool {
		return e.Kind == ui.KindSelect && e.Path == "office"
	})
	if !ok {
		t.Fatalf("office should render as a select")
	}
	selected, ok := office.Find(func(e ui.Element) bool {
		v, _ := e.Prop("selected")
		return e.Kind == ui.KindOption && v == true
	})
	if !ok || selected.Text != "Europe / London" {
		t.Fatalf("London should be selected, got %+v", selected)
	}

	if err := form.SetFieldValue([]string{"zone"}, "Nowhere/Land"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if form.Submit() {
		t.Fatalf("unknown zone must fail submit")
	}
	if diff := cmp.Diff([]string{"zone: " + timezone.MessageUnknown}, form.Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
