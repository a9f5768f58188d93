package theme

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	gotheme "github.com/goliatone/go-theme"
	"gopkg.in/yaml.v3"
)

// ErrThemeNotFound is returned by ManifestSelector for unknown themes or
// variants.
var ErrThemeNotFound = errors.New("theme: not found")

// ManifestSelector resolves selections from an in-memory set of manifests.
type ManifestSelector struct {
	mu        sync.RWMutex
	manifests map[string]*gotheme.Manifest
}

var _ gotheme.ThemeSelector = (*ManifestSelector)(nil)

// NewManifestSelector constructs a selector holding manifests.
func NewManifestSelector(manifests ...*gotheme.Manifest) (*ManifestSelector, error) {
	s := &ManifestSelector{manifests: make(map[string]*gotheme.Manifest)}
	for _, manifest := range manifests {
		if err := s.Add(manifest); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add registers a manifest. Names must be unique.
func (s *ManifestSelector) Add(manifest *gotheme.Manifest) error {
	if manifest == nil || strings.TrimSpace(manifest.Name) == "" {
		return errors.New("theme: manifest name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.manifests[manifest.Name]; exists {
		return fmt.Errorf("theme: manifest %q already registered", manifest.Name)
	}
	s.manifests[manifest.Name] = manifest
	return nil
}

// Names lists the registered themes in lexical order.
func (s *ManifestSelector) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.manifests))
	for name := range s.manifests {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Select implements gotheme.ThemeSelector. Query options are ignored.
func (s *ManifestSelector) Select(name, variant string, _ ...gotheme.QueryOption) (*gotheme.Selection, error) {
	s.mu.RLock()
	manifest, ok := s.manifests[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("theme %q: %w", name, ErrThemeNotFound)
	}
	if variant != "" {
		if _, ok := manifest.Variants[variant]; !ok {
			return nil, fmt.Errorf("theme %q variant %q: %w", name, variant, ErrThemeNotFound)
		}
	}
	return &gotheme.Selection{Theme: name, Variant: variant, Manifest: manifest}, nil
}

type manifestFile struct {
	Name     string                         `yaml:"name"`
	Version  string                         `yaml:"version"`
	Tokens   map[string]string              `yaml:"tokens"`
	Variants map[string]manifestVariantFile `yaml:"variants"`
}

type manifestVariantFile struct {
	Tokens map[string]string `yaml:"tokens"`
}

// ParseManifest decodes a YAML manifest holding a name, a version, tokens
// and per-variant token overrides.
func ParseManifest(data []byte) (*gotheme.Manifest, error) {
	var file manifestFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("theme: decode manifest: %w", err)
	}
	if strings.TrimSpace(file.Name) == "" {
		return nil, errors.New("theme: manifest name is required")
	}
	manifest := &gotheme.Manifest{
		Name:    file.Name,
		Version: file.Version,
		Tokens:  file.Tokens,
	}
	if len(file.Variants) > 0 {
		manifest.Variants = make(map[string]gotheme.Variant, len(file.Variants))
		for name, variant := range file.Variants {
			manifest.Variants[name] = gotheme.Variant{Tokens: variant.Tokens}
		}
	}
	return manifest, nil
}

// LoadManifests parses every .yaml and .yml file directly under dir.
func LoadManifests(fsys fs.FS, dir string) (*ManifestSelector, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("theme: read %s: %w", dir, err)
	}
	selector, _ := NewManifestSelector()
	for _, entry := range entries {
		ext := strings.ToLower(path.Ext(entry.Name()))
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		name := path.Join(dir, entry.Name())
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("theme: read %s: %w", name, err)
		}
		manifest, err := ParseManifest(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if err := selector.Add(manifest); err != nil {
			return nil, err
		}
	}
	return selector, nil
}
