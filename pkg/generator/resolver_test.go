package generator

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/pkg/capability"
	"github.com/goliatone/go-formkit/pkg/schema"
)

func named(name string) capability.GenerateFunc {
	return func(schema.Field, *capability.Context) (capability.Node, error) { return name, nil }
}

func TestFindMatching_PriorityAndFormat(t *testing.T) {
	contributions := []capability.Contribution{
		{Name: "text", Type: schema.TypeString, Priority: 1, Generate: named("text")},
		{Name: "email", Type: schema.TypeString, Format: "email", Priority: 2, Generate: named("email")},
	}

	got, ok := FindMatching(contributions, schema.Field{Type: schema.TypeString, Format: "email"})
	if !ok || got.Name != "email" {
		t.Fatalf("email field: want email contribution, got %q (ok=%v)", got.Name, ok)
	}
	got, ok = FindMatching(contributions, schema.Field{Type: schema.TypeString})
	if !ok || got.Name != "text" {
		t.Fatalf("plain field: want text contribution, got %q (ok=%v)", got.Name, ok)
	}
}

func TestFindMatching_TiesKeepContributionOrder(t *testing.T) {
	contributions := []capability.Contribution{
		{Name: "wildcard-low", Type: capability.AnyType, Priority: 0, Generate: named("low")},
		{Name: "first", Type: schema.TypeString, Priority: 5, Generate: named("first")},
		{Name: "second", Type: schema.TypeString, Priority: 5, Generate: named("second")},
	}
	for i := 0; i < 20; i++ {
		got, ok := FindMatching(contributions, schema.Field{Type: schema.TypeString})
		if !ok || got.Name != "first" {
			t.Fatalf("run %d: want first, got %q", i, got.Name)
		}
	}
	got, _ := FindMatching(contributions, schema.Field{Type: "rating"})
	if got.Name != "wildcard-low" {
		t.Fatalf("custom type should fall back to wildcard, got %q", got.Name)
	}
}

func TestFindMatching_NoMatch(t *testing.T) {
	if _, ok := FindMatching(nil, schema.Field{Type: schema.TypeString}); ok {
		t.Fatalf("expected no match")
	}
}

type staticGenerator struct {
	capability.Base
	id    string
	calls *int
}

func (g staticGenerator) Metadata() capability.Metadata {
	return capability.Metadata{ID: g.id, Name: g.id, Version: "1.0.0"}
}

func (g staticGenerator) Generators() []capability.Contribution {
	*g.calls++
	return []capability.Contribution{{Name: g.id, Type: capability.AnyType, Generate: named(g.id)}}
}

func TestCollect_RequeriesEveryPass(t *testing.T) {
	var calls int
	plugins := []capability.SchemaGenerator{
		staticGenerator{id: "a", calls: &calls},
		staticGenerator{id: "b", calls: &calls},
	}

	first := Collect(plugins)
	Collect(plugins)

	var names []string
	for _, c := range first {
		names = append(names, c.Name)
	}
	if diff := cmp.Diff([]string{"a", "b"}, names); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if calls != 4 {
		t.Fatalf("expected contributions to be requested on every pass, got %d calls", calls)
	}
}

func TestPlaceholder(t *testing.T) {
	node := Placeholder(schema.Field{Type: "rating", Title: "Score"}, &capability.Context{Path: []string{"review", "score"}})
	err, ok := PlaceholderError(node)
	if !ok {
		t.Fatalf("placeholder should carry an UnsupportedFieldError")
	}
	if err.Path != "review.score" || err.Type != "rating" {
		t.Fatalf("unexpected error %+v", err)
	}
	if node.Text != "Score: Unsupported field type: rating" {
		t.Fatalf("unexpected text %q", node.Text)
	}

	item := Placeholder(schema.Field{Type: "rating"}, &capability.Context{Path: []string{"scores", "2"}, Indexes: []bool{false, true}})
	if err, _ := PlaceholderError(item); err.Path != "scores[2]" {
		t.Fatalf("unexpected item path %q", err.Path)
	}
	if item.Text != "2: Unsupported field type: rating" {
		t.Fatalf("unexpected item text %q", item.Text)
	}
}
