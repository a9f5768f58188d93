package schema

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func TestLoader_FSAndFile(t *testing.T) {
	files := fstest.MapFS{
		"signup.yaml": {Data: []byte("type: object\nproperties:\n  name:\n    type: string\n")},
	}
	loader := NewLoader(WithFileSystem(files))

	field, err := loader.LoadField(context.Background(), SourceFromFS("signup.yaml"))
	if err != nil {
		t.Fatalf("load fs: %v", err)
	}
	if _, ok := field.Properties.Get("name"); !ok {
		t.Fatalf("expected name property, got %+v", field.Properties.Names())
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "contact.json")
	if err := os.WriteFile(path, []byte(`{"type":"string","format":"email"}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	src, err := SourceFor(path)
	if err != nil {
		t.Fatalf("source: %v", err)
	}
	if src.Kind() != SourceKindFile {
		t.Fatalf("expected file source, got %q", src.Kind())
	}
	field, err = loader.LoadField(context.Background(), src)
	if err != nil {
		t.Fatalf("load file: %v", err)
	}
	if field.Format != FormatEmail {
		t.Fatalf("unexpected format %q", field.Format)
	}
}

func TestLoader_HTTPRequiresOptIn(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"type":"boolean","title":"Agree"}`))
	}))
	defer server.Close()

	src, err := SourceFor(server.URL + "/schemas/agree")
	if err != nil {
		t.Fatalf("source: %v", err)
	}
	if src.Kind() != SourceKindURL {
		t.Fatalf("expected url source, got %q", src.Kind())
	}

	if _, err := NewLoader().Load(context.Background(), src); err == nil {
		t.Fatalf("expected http to be disabled by default")
	}

	field, err := NewLoader(WithHTTPClient(server.Client())).LoadField(context.Background(), src)
	if err != nil {
		t.Fatalf("load url: %v", err)
	}
	if field.Type != TypeBoolean || field.Title != "Agree" {
		t.Fatalf("unexpected field %+v", field)
	}
}
