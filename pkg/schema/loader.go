package schema

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// Store holds schemas loaded from a filesystem keyed by their file stem
// ("forms/signup.yaml" → "forms/signup").
type Store struct {
	fields map[string]Field
}

// LoadFS walks the provided filesystem and parses every JSON/YAML schema
// file. A nil filesystem yields an empty store.
func LoadFS(fsys fs.FS) (*Store, error) {
	store := &Store{fields: make(map[string]Field)}
	if fsys == nil {
		return store, nil
	}

	err := fs.WalkDir(fsys, ".", func(p string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isSchemaFile(p) {
			return nil
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("schema: read %s: %w", p, err)
		}

		field, err := ParseFile(p, data)
		if err != nil {
			return fmt.Errorf("schema: parse %s: %w", p, err)
		}

		key := strings.TrimSuffix(p, path.Ext(p))
		if _, exists := store.fields[key]; exists {
			return fmt.Errorf("schema: duplicate schema %q (file %s)", key, p)
		}
		store.fields[key] = field
		return nil
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// ParseFile decodes data using the parser matching the file extension.
func ParseFile(name string, data []byte) (Field, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	case ".json":
		return ParseJSON(data)
	default:
		return Field{}, fmt.Errorf("schema: unsupported file extension %q", path.Ext(name))
	}
}

// Get returns a clone of the schema stored under key.
func (s *Store) Get(key string) (Field, bool) {
	if s == nil {
		return Field{}, false
	}
	field, ok := s.fields[key]
	if !ok {
		return Field{}, false
	}
	return field.Clone(), true
}

// Keys returns the sorted schema keys.
func (s *Store) Keys() []string {
	if s == nil {
		return nil
	}
	keys := make([]string, 0, len(s.fields))
	for key := range s.fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Empty reports whether the store has no schemas.
func (s *Store) Empty() bool {
	return s == nil || len(s.fields) == 0
}

func isSchemaFile(p string) bool {
	switch strings.ToLower(path.Ext(p)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
