package ui

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestElement_WithMethodsCopy(t *testing.T) {
	base := New(KindInput).WithProp("type", "text").WithClass("input")
	shared := New(KindLabel).WithText("Name")
	parent := New(KindField).WithChildren(shared)

	changed := base.WithProp("type", "email").WithClass("input", "input--email", " ")
	if base.PropString("type") != "text" {
		t.Fatalf("WithProp mutated the original")
	}
	if diff := cmp.Diff([]string{"input"}, base.Classes); diff != "" {
		t.Fatalf("WithClass mutated the original (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"input", "input--email"}, changed.Classes); diff != "" {
		t.Fatalf("classes mismatch (-want +got):\n%s", diff)
	}

	relabeled := parent.MapChildren(func(child Element) Element { return child.WithText("Full name") })
	if parent.Children[0].Text != "Name" || shared.Text != "Name" {
		t.Fatalf("MapChildren mutated a shared child")
	}
	if relabeled.Children[0].Text != "Full name" {
		t.Fatalf("MapChildren did not apply, got %q", relabeled.Children[0].Text)
	}
}

func TestElement_FindPath(t *testing.T) {
	tree := New(KindFieldset).WithPath("owner").WithChildren(
		New(KindInput).WithPath("owner.name"),
		New(KindList).WithPath("owner.tags").WithChildren(New(KindInput).WithPath("owner.tags[0]")),
	)

	found, ok := tree.FindPath("owner.tags[0]")
	if !ok || found.Kind != KindInput {
		t.Fatalf("expected nested input, got %+v (ok=%v)", found, ok)
	}
	if _, ok := tree.FindPath("missing"); ok {
		t.Fatalf("unexpected match for missing path")
	}
}
