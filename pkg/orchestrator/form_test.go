package orchestrator_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/pkg/capability"
	"github.com/goliatone/go-formkit/pkg/generator"
	"github.com/goliatone/go-formkit/pkg/orchestrator"
	"github.com/goliatone/go-formkit/pkg/plugin"
	"github.com/goliatone/go-formkit/pkg/schema"
)

func nameSchema() schema.Field {
	return schema.Field{
		Type: schema.TypeObject,
		Properties: schema.Properties{
			{Name: "name", Field: schema.Field{Type: schema.TypeString, Required: true}},
		},
	}
}

func newRegistry(t *testing.T, plugins ...plugin.Plugin) *plugin.Registry {
	t.Helper()
	reg := plugin.New()
	for _, p := range plugins {
		if err := reg.Register(context.Background(), p); err != nil {
			t.Fatalf("register %s: %v", p.Metadata().ID, err)
		}
	}
	return reg
}

func TestForm_SubmitFlow(t *testing.T) {
	var submitted []any
	form := orchestrator.New(nameSchema(),
		orchestrator.WithRegistry(plugin.New()),
		orchestrator.WithOnSubmit(func(value any) { submitted = append(submitted, value) }),
	)

	if diff := cmp.Diff(map[string]any{"name": ""}, form.Value()); diff != "" {
		t.Fatalf("default value mismatch (-want +got):\n%s", diff)
	}
	if form.Touched() || form.Dirty() {
		t.Fatalf("fresh form should be pristine")
	}

	if form.Submit() {
		t.Fatalf("submit with an empty required field should be rejected")
	}
	if diff := cmp.Diff([]string{"name: This field is required"}, form.Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if len(submitted) != 0 {
		t.Fatalf("submit callback must not run, got %v", submitted)
	}

	if err := form.SetFieldValue([]string{"name"}, "x"); err != nil {
		t.Fatalf("set field: %v", err)
	}
	if len(form.Errors()) != 0 {
		t.Fatalf("touched form should re-validate on change, got %v", form.Errors())
	}
	if !form.Submit() {
		t.Fatalf("valid submit rejected: %v", form.Errors())
	}
	if diff := cmp.Diff([]any{map[string]any{"name": "x"}}, submitted); diff != "" {
		t.Fatalf("submitted mismatch (-want +got):\n%s", diff)
	}
	if !form.Dirty() {
		t.Fatalf("form should be dirty after a change")
	}
}

func TestForm_ValidationWaitsForTouch(t *testing.T) {
	var changes int
	form := orchestrator.New(nameSchema(),
		orchestrator.WithRegistry(plugin.New()),
		orchestrator.WithInitialValue(map[string]any{"name": "Ada"}),
		orchestrator.WithOnChange(func(any) { changes++ }),
	)

	form.SetValue(map[string]any{"name": ""})
	if changes != 1 {
		t.Fatalf("expected change callback, got %d calls", changes)
	}
	if len(form.Errors()) != 0 {
		t.Fatalf("untouched form should not validate on change, got %v", form.Errors())
	}

	form.MarkTouched()
	if len(form.Errors()) != 1 {
		t.Fatalf("expected one error after touch, got %v", form.Errors())
	}

	form.Reset()
	if form.Touched() || len(form.Errors()) != 0 || form.Dirty() {
		t.Fatalf("reset should restore a pristine form")
	}
}

func TestForm_CustomValidatorAppends(t *testing.T) {
	reserved := func(value any, _ schema.Field) []string {
		if m, ok := value.(map[string]any); ok && m["name"] == "admin" {
			return []string{"name: Reserved"}
		}
		return nil
	}
	form := orchestrator.New(nameSchema(),
		orchestrator.WithRegistry(plugin.New()),
		orchestrator.WithInitialValue(map[string]any{"name": "admin"}),
		orchestrator.WithValidator(reserved),
		orchestrator.WithTouched(),
	)
	if diff := cmp.Diff([]string{"name: Reserved"}, form.Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

// tracePlugin records the pipeline order through strings.
type tracePlugin struct {
	capability.Base
	id         string
	contribute bool
}

func (p tracePlugin) Metadata() capability.Metadata {
	return capability.Metadata{ID: p.id, Name: p.id, Version: "1.0.0"}
}

func (p tracePlugin) Generators() []capability.Contribution {
	if !p.contribute {
		return nil
	}
	return []capability.Contribution{{
		Name: "raw",
		Type: capability.AnyType,
		Generate: func(field schema.Field, ctx *capability.Context) (capability.Node, error) {
			return "raw[" + field.Title + "]", nil
		},
	}}
}

func (p tracePlugin) PreprocessSchema(field schema.Field) (schema.Field, error) {
	field.Title += p.id
	return field, nil
}

func (p tracePlugin) PostprocessComponent(node capability.Node, _ schema.Field, _ *capability.Context) (capability.Node, error) {
	return fmt.Sprintf("%s(%v)", p.id, node), nil
}

func TestForm_PipelineOrdering(t *testing.T) {
	reg := newRegistry(t,
		tracePlugin{id: "A", contribute: true},
		tracePlugin{id: "B"},
	)
	form := orchestrator.New(schema.Field{Type: schema.TypeString, Title: "x"}, orchestrator.WithRegistry(reg))

	prepared, err := form.PreparedSchema(context.Background())
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if prepared.Title != "xAB" {
		t.Fatalf("preprocess should fold A then B, got %q", prepared.Title)
	}

	node, err := form.Generate(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if node != "B(A(raw[xAB]))" {
		t.Fatalf("postprocess should fold A then B, got %v", node)
	}
	if form.Schema().Title != "x" {
		t.Fatalf("form schema must not be mutated by preprocessing")
	}
}

// treePlugin renders objects as "{child,child}" and leaves as "path=value".
type treePlugin struct {
	capability.Base
}

func (treePlugin) Metadata() capability.Metadata {
	return capability.Metadata{ID: "tree", Name: "Tree", Version: "1.0.0"}
}

func (treePlugin) Generators() []capability.Contribution {
	return []capability.Contribution{
		{
			Name: "object",
			Type: schema.TypeObject,
			Generate: func(field schema.Field, ctx *capability.Context) (capability.Node, error) {
				parts := make([]string, 0, len(field.Properties))
				for _, prop := range field.Properties {
					child, err := ctx.GenerateChild(prop.Name, prop.Field)
					if err != nil {
						return nil, err
					}
					parts = append(parts, fmt.Sprint(child))
				}
				return "{" + strings.Join(parts, ",") + "}", nil
			},
		},
		{
			Name: "string",
			Type: schema.TypeString,
			Generate: func(field schema.Field, ctx *capability.Context) (capability.Node, error) {
				return fmt.Sprintf("%s=%v%v", ctx.PathString(), ctx.Value, ctx.Errors), nil
			},
		},
		{
			Name: "fails",
			Type: "explode",
			Generate: func(schema.Field, *capability.Context) (capability.Node, error) {
				return nil, errors.New("kaboom")
			},
		},
	}
}

func TestForm_GenerateRecursesAndMarksUnsupported(t *testing.T) {
	field := schema.Field{
		Type: schema.TypeObject,
		Properties: schema.Properties{
			{Name: "owner", Field: schema.Field{Type: schema.TypeObject, Properties: schema.Properties{
				{Name: "email", Field: schema.Field{Type: schema.TypeString, Format: "email"}},
			}}},
			{Name: "score", Field: schema.Field{Type: "rating"}},
		},
	}
	reg := newRegistry(t, treePlugin{})
	form := orchestrator.New(field,
		orchestrator.WithRegistry(reg),
		orchestrator.WithInitialValue(map[string]any{"owner": map[string]any{"email": "bad"}}),
		orchestrator.WithTouched(),
	)

	node, err := form.Generate(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	got := fmt.Sprint(node)
	if !strings.HasPrefix(got, "{{owner.email=bad[Invalid email address]},") {
		t.Fatalf("unexpected tree %q", got)
	}

	field.Properties = field.Properties.With("score", schema.Field{Type: "explode"})
	form = orchestrator.New(field, orchestrator.WithRegistry(reg))
	if _, err := form.Generate(context.Background()); err == nil || !strings.Contains(err.Error(), "kaboom") {
		t.Fatalf("generator errors should abort the pass, got %v", err)
	}
}

func TestForm_PlaceholderForUnsupportedField(t *testing.T) {
	form := orchestrator.New(schema.Field{Type: "rating"}, orchestrator.WithRegistry(newRegistry(t, treePlugin{})))
	node, err := form.Generate(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, ok := generator.PlaceholderError(node); !ok {
		t.Fatalf("expected placeholder node, got %#v", node)
	}
}

func TestForm_OnChangeFromContextWritesAtPath(t *testing.T) {
	var captured *capability.Context
	capture := captureGenerator{fn: func(ctx *capability.Context) { captured = ctx }}
	form := orchestrator.New(nameSchema(), orchestrator.WithRegistry(newRegistry(t, treePlugin{}, capture)))

	if _, err := form.Generate(context.Background()); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if captured == nil {
		t.Fatalf("capture generator not invoked")
	}
	captured.OnChange("Grace")
	if diff := cmp.Diff(map[string]any{"name": "Grace"}, form.Value()); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}
}

func TestForm_NumericPropertyNamesKeepTheirErrors(t *testing.T) {
	field := schema.Field{
		Type: schema.TypeObject,
		Properties: schema.Properties{
			{Name: "2024", Field: schema.Field{Type: schema.TypeString, Required: true}},
		},
	}
	captured := map[string]*capability.Context{}
	capture := captureGenerator{fn: func(ctx *capability.Context) { captured[ctx.PathString()] = ctx }}
	form := orchestrator.New(field, orchestrator.WithRegistry(newRegistry(t, treePlugin{}, capture)))

	if form.Submit() {
		t.Fatalf("submit with an empty required field should be rejected")
	}
	if diff := cmp.Diff([]string{"2024: This field is required"}, form.Errors()); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
	if _, err := form.Generate(context.Background()); err != nil {
		t.Fatalf("generate: %v", err)
	}

	year, ok := captured["2024"]
	if !ok {
		t.Fatalf("no context captured at 2024, got %v", captured)
	}
	if diff := cmp.Diff([]string{"This field is required"}, year.Errors); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]bool{false}, year.Indexes); diff != "" {
		t.Fatalf("indexes mismatch (-want +got):\n%s", diff)
	}

	year.OnChange("leap")
	if diff := cmp.Diff(map[string]any{"2024": "leap"}, form.Value()); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}
	if len(form.Errors()) != 0 {
		t.Fatalf("errors should clear once the field is set, got %v", form.Errors())
	}
}

func TestForm_SetFieldValueCreatesDeclaredContainers(t *testing.T) {
	field := schema.Field{
		Type: schema.TypeObject,
		Properties: schema.Properties{
			{Name: "years", Field: schema.Field{Type: schema.TypeObject, Properties: schema.Properties{
				{Name: "0", Field: schema.Field{Type: schema.TypeString}},
			}}},
			{Name: "tags", Field: schema.Field{Type: schema.TypeArray, Items: &schema.Field{Type: schema.TypeString}}},
		},
	}
	form := orchestrator.New(field, orchestrator.WithRegistry(plugin.New()), orchestrator.WithInitialValue(map[string]any{}))

	if err := form.SetFieldValue([]string{"years", "0"}, "zero"); err != nil {
		t.Fatalf("set years: %v", err)
	}
	if err := form.SetFieldValue([]string{"tags", "0"}, "first"); err != nil {
		t.Fatalf("set tags: %v", err)
	}
	want := map[string]any{
		"years": map[string]any{"0": "zero"},
		"tags":  []any{"first"},
	}
	if diff := cmp.Diff(want, form.Value()); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}
}

type captureGenerator struct {
	capability.Base
	fn func(*capability.Context)
}

func (captureGenerator) Metadata() capability.Metadata {
	return capability.Metadata{ID: "capture", Name: "Capture", Version: "1.0.0"}
}

func (c captureGenerator) Generators() []capability.Contribution {
	return []capability.Contribution{{
		Name:     "capture-string",
		Type:     schema.TypeString,
		Priority: 10,
		Generate: func(_ schema.Field, ctx *capability.Context) (capability.Node, error) {
			c.fn(ctx)
			return "captured", nil
		},
	}}
}

type colorOverride struct {
	capability.Base
}

func (colorOverride) Metadata() capability.Metadata {
	return capability.Metadata{ID: "color", Name: "Color", Version: "1.0.0"}
}

func (colorOverride) OverridableTypes() []schema.Type { return []schema.Type{schema.TypeString} }

func (colorOverride) CanOverride(_ schema.Type, field schema.Field) bool {
	return field.Format == schema.FormatColor
}

func (colorOverride) OverrideComponent(schema.Type, schema.Field) capability.GenerateFunc {
	return func(schema.Field, *capability.Context) (capability.Node, error) { return "swatch", nil }
}

func TestForm_SchemaOverridesAreOptIn(t *testing.T) {
	reg := newRegistry(t, treePlugin{}, colorOverride{})
	field := schema.Field{Type: schema.TypeString, Format: schema.FormatColor}

	node, err := orchestrator.New(field, orchestrator.WithRegistry(reg)).Generate(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if node == "swatch" {
		t.Fatalf("override should not apply without WithSchemaOverrides")
	}

	node, err = orchestrator.New(field, orchestrator.WithRegistry(reg), orchestrator.WithSchemaOverrides()).Generate(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if node != "swatch" {
		t.Fatalf("expected override node, got %v", node)
	}
}

func TestJSONPresetTransformer(t *testing.T) {
	field := schema.Field{
		Type: schema.TypeObject,
		Properties: schema.Properties{
			{Name: "owner", Field: schema.Field{Type: schema.TypeObject, Properties: schema.Properties{
				{Name: "email", Field: schema.Field{Type: schema.TypeString}},
			}}},
			{Name: "tags", Field: schema.Field{Type: schema.TypeArray, Items: &schema.Field{Type: schema.TypeString}}},
		},
	}
	preset, err := orchestrator.NewJSONPresetTransformer([]byte(`{
		"uiOptions": {"layout": "grid"},
		"fields": {
			"owner.email": {"title": "Contact", "placeholder": "you@example.com", "required": true},
			"tags.items": {"description": "One tag"}
		}
	}`))
	if err != nil {
		t.Fatalf("preset: %v", err)
	}
	form := orchestrator.New(field,
		orchestrator.WithRegistry(plugin.New()),
		orchestrator.WithSchemaTransformer(preset),
	)
	prepared, err := form.PreparedSchema(context.Background())
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}

	owner, _ := prepared.Properties.Get("owner")
	email, _ := owner.Properties.Get("email")
	if email.Title != "Contact" || !email.Required || email.UIString("placeholder") != "you@example.com" {
		t.Fatalf("email patch not applied: %+v", email)
	}
	tags, _ := prepared.Properties.Get("tags")
	if tags.Items.Description != "One tag" {
		t.Fatalf("items patch not applied: %+v", tags.Items)
	}
	if prepared.UIString("layout") != "grid" {
		t.Fatalf("root ui options not applied")
	}

	missing, _ := orchestrator.NewJSONPresetTransformer([]byte(`{"fields": {"nope": {"title": "x"}}}`))
	_, err = orchestrator.New(field, orchestrator.WithRegistry(plugin.New()), orchestrator.WithSchemaTransformer(missing)).
		PreparedSchema(context.Background())
	if err == nil {
		t.Fatalf("expected unknown path error")
	}
}
