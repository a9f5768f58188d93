package builtin_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/pkg/orchestrator"
	"github.com/goliatone/go-formkit/pkg/plugin"
	"github.com/goliatone/go-formkit/pkg/plugins/builtin"
	"github.com/goliatone/go-formkit/pkg/schema"
	"github.com/goliatone/go-formkit/pkg/ui"
)

const signupYAML = `
type: object
title: Signup
properties:
  name:
    type: string
    title: "<b>Full</b> name"
    required: true
  email:
    type: string
    format: email
    ui:options:
      placeholder: you@example.com
  plan:
    type: string
    enum: [free, pro]
    enumLabels: [Free, Pro]
  bio:
    type: string
    format: textarea
    ui:options:
      rows: 4
  newsletter:
    type: boolean
  tags:
    type: array
    items:
      type: string
  age:
    type: integer
    minimum: 18
`

func newForm(t *testing.T, options ...orchestrator.Option) *orchestrator.Form {
	t.Helper()
	field, err := schema.ParseYAML([]byte(signupYAML))
	if err != nil {
		t.Fatalf("parse schema: %v", err)
	}
	reg := plugin.New()
	if err := reg.Register(context.Background(), builtin.New()); err != nil {
		t.Fatalf("register: %v", err)
	}
	options = append([]orchestrator.Option{orchestrator.WithRegistry(reg)}, options...)
	return orchestrator.New(field, options...)
}

func generate(t *testing.T, form *orchestrator.Form) ui.Element {
	t.Helper()
	node, err := form.Generate(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	element, ok := node.(ui.Element)
	if !ok {
		t.Fatalf("expected ui.Element, got %T", node)
	}
	return element
}

func control(t *testing.T, tree ui.Element, path string) ui.Element {
	t.Helper()
	found, ok := tree.Find(func(e ui.Element) bool {
		return e.Path == path && e.Kind != ui.KindField
	})
	if !ok {
		t.Fatalf("no control for %q", path)
	}
	return found
}

func TestBuiltin_GeneratesEveryStandardType(t *testing.T) {
	form := newForm(t, orchestrator.WithInitialValue(map[string]any{
		"name": "Ada",
		"plan": "pro",
		"tags": []any{"math", "engines"},
	}))
	tree := generate(t, form)

	if tree.Kind != ui.KindForm || tree.PropString("legend") != "Signup" {
		t.Fatalf("unexpected root %s %q", tree.Kind, tree.PropString("legend"))
	}

	name := control(t, tree, "name")
	if name.PropString("type") != "text" || name.Props["value"] != "Ada" || name.Props["required"] != true {
		t.Fatalf("unexpected name control %+v", name.Props)
	}
	label, _ := tree.Find(func(e ui.Element) bool { return e.Kind == ui.KindLabel && e.PropString("for") == "name" })
	if label.Text != "Full name" {
		t.Fatalf("label should be sanitized, got %q", label.Text)
	}

	email := control(t, tree, "email")
	if email.PropString("type") != "email" || email.PropString("placeholder") != "you@example.com" {
		t.Fatalf("unexpected email control %+v", email.Props)
	}

	plan := control(t, tree, "plan")
	if plan.Kind != ui.KindSelect {
		t.Fatalf("enum should render a select, got %s", plan.Kind)
	}
	var options []string
	for _, option := range plan.Children {
		options = append(options, option.Text)
	}
	if diff := cmp.Diff([]string{"", "Free", "Pro"}, options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	if plan.Children[2].Props["selected"] != true {
		t.Fatalf("current value should be selected")
	}

	if bio := control(t, tree, "bio"); bio.Kind != ui.KindTextarea || bio.Props["rows"] != 4 {
		t.Fatalf("unexpected bio control %s %+v", bio.Kind, bio.Props)
	}
	if box := control(t, tree, "newsletter"); box.Kind != ui.KindCheckbox || box.Props["checked"] != false {
		t.Fatalf("unexpected newsletter control %+v", box)
	}
	if age := control(t, tree, "age"); age.PropString("type") != "number" || age.Props["step"] != 1 {
		t.Fatalf("unexpected age control %+v", age.Props)
	}

	tags := control(t, tree, "tags")
	if tags.Kind != ui.KindList || len(tags.Children) != 2 {
		t.Fatalf("expected list with two items, got %s with %d children", tags.Kind, len(tags.Children))
	}
	if second := control(t, tree, "tags[1]"); second.Props["value"] != "engines" || second.PropString("id") != "tags-1" {
		t.Fatalf("unexpected array item %+v", second.Props)
	}
}

func TestBuiltin_ShowsErrorsAfterSubmit(t *testing.T) {
	form := newForm(t)
	if form.Submit() {
		t.Fatalf("empty name should block submit")
	}
	tree := generate(t, form)

	field, ok := tree.Find(func(e ui.Element) bool { return e.Kind == ui.KindField && e.Path == "name" })
	if !ok {
		t.Fatalf("name field missing")
	}
	errorElement, ok := field.Find(func(e ui.Element) bool { return e.Kind == ui.KindError })
	if !ok || errorElement.Text != "This field is required" {
		t.Fatalf("expected required error under name, got %+v", errorElement)
	}
	if control(t, tree, "name").Props["aria-invalid"] != true {
		t.Fatalf("invalid control should be flagged")
	}
}

func TestBuiltin_IconIsSanitized(t *testing.T) {
	field := schema.Field{
		Type:      schema.TypeString,
		Title:     "Search",
		UIOptions: map[string]any{"icon": `<svg viewBox="0 0 1 1" onload="alert(1)"><path d="M0 0"/><script>x</script></svg>`},
	}
	reg := plugin.New()
	if err := reg.Register(context.Background(), builtin.New(builtin.WithClassPrefix("fk"))); err != nil {
		t.Fatalf("register: %v", err)
	}
	tree := generate(t, orchestrator.New(field, orchestrator.WithRegistry(reg)))

	if !tree.HasClass("fk-field") {
		t.Fatalf("class prefix not applied: %v", tree.Classes)
	}
	label, _ := tree.Find(func(e ui.Element) bool { return e.Kind == ui.KindLabel })
	icon := label.PropString("icon")
	if icon == "" {
		t.Fatalf("icon dropped entirely")
	}
	for _, banned := range []string{"onload", "<script"} {
		if strings.Contains(icon, banned) {
			t.Fatalf("icon kept %q: %s", banned, icon)
		}
	}
}
