package theme_test

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/pkg/plugin"
	"github.com/goliatone/go-formkit/pkg/plugins/theme"
)

const acmeManifest = `
name: acme
version: 1.0.0
tokens:
  brand: "#123456"
  accent: "#ff8800"
variants:
  dark:
    tokens:
      brand: "#654321"
`

func TestLoadManifests(t *testing.T) {
	files := fstest.MapFS{
		"themes/acme.yaml":  {Data: []byte(acmeManifest)},
		"themes/plain.yml":  {Data: []byte("name: plain\n")},
		"themes/README.md":  {Data: []byte("ignored")},
		"themes/nested/x.y": {Data: []byte("ignored")},
	}
	selector, err := theme.LoadManifests(files, "themes")
	if err != nil {
		t.Fatalf("load manifests: %v", err)
	}
	if diff := cmp.Diff([]string{"acme", "plain"}, selector.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}

	selection, err := selector.Select("acme", "dark")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if selection.Manifest.Variants["dark"].Tokens["brand"] != "#654321" {
		t.Fatalf("variant tokens not decoded: %+v", selection.Manifest.Variants)
	}
	if _, err := selector.Select("acme", "sepia"); !errors.Is(err, theme.ErrThemeNotFound) {
		t.Fatalf("expected ErrThemeNotFound for unknown variant, got %v", err)
	}
	if _, err := selector.Select("nope", ""); !errors.Is(err, theme.ErrThemeNotFound) {
		t.Fatalf("expected ErrThemeNotFound for unknown theme, got %v", err)
	}
}

func TestManifestSelector_RejectsDuplicatesAndNamelessManifests(t *testing.T) {
	if _, err := theme.ParseManifest([]byte("version: 1\n")); err == nil {
		t.Fatalf("expected error for manifest without name")
	}
	manifest, err := theme.ParseManifest([]byte(acmeManifest))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := theme.NewManifestSelector(manifest, manifest); err == nil {
		t.Fatalf("expected duplicate manifest error")
	}
}

func TestManifestSelector_DrivesThemePlugin(t *testing.T) {
	manifest, err := theme.ParseManifest([]byte(acmeManifest))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	selector, err := theme.NewManifestSelector(manifest)
	if err != nil {
		t.Fatalf("selector: %v", err)
	}

	reg := plugin.New()
	p := theme.New(theme.WithSelector(selector))
	if err := reg.Register(context.Background(), p); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Configure(context.Background(), theme.ID, map[string]any{"theme": "acme", "variant": "dark", "density": "compact"}); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if got := p.Tokens()["brand"]; got != "#654321" {
		t.Fatalf("brand token: want #654321, got %s", got)
	}
}
