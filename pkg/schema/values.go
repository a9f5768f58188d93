package schema

import (
	"fmt"
	"strconv"
)

// DefaultValue computes the initial value for a field: the declared default
// when present, otherwise the empty value for its type. Objects are built
// from their properties so nested defaults are populated.
func DefaultValue(field Field) any {
	if field.Default != nil {
		return CloneValue(field.Default)
	}
	switch field.Type {
	case TypeString:
		return ""
	case TypeNumber:
		return float64(0)
	case TypeInteger:
		return 0
	case TypeBoolean:
		return false
	case TypeObject:
		out := make(map[string]any, len(field.Properties))
		for _, prop := range field.Properties {
			out[prop.Name] = DefaultValue(prop.Field)
		}
		return out
	case TypeArray:
		return []any{}
	default:
		return nil
	}
}

// CloneValue deep-copies JSON-like values (maps, slices and scalars). Other
// values are returned as is.
func CloneValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return cloneMap(v)
	case []any:
		out := make([]any, len(v))
		for idx, item := range v {
			out[idx] = CloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), v...)
	default:
		return v
	}
}

// ValueAt resolves a path of property names and array indexes against a
// JSON-like value.
func ValueAt(value any, path []string) (any, bool) {
	current := value
	for _, segment := range path {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// SetValueAt returns a copy of root with the value at path replaced.
// Intermediate maps are created for missing segments and arrays are grown
// when an index points one past the end.
func SetValueAt(root any, path []string, value any) (any, error) {
	return setValueAt(root, path, nil, value)
}

// SetFieldValueAt is SetValueAt guided by field: a missing container is
// created as an array where field expects one and as an object elsewhere,
// so numeric property names stay map keys.
func SetFieldValueAt(field Field, root any, path []string, value any) (any, error) {
	return setValueAt(root, path, IndexMask(field, path), value)
}

// IndexMask walks field along path and flags the segments that address
// array items. Segments below the known schema are flagged false.
func IndexMask(field Field, path []string) []bool {
	mask := make([]bool, len(path))
	current := &field
	for idx, segment := range path {
		if current == nil {
			break
		}
		switch current.Type {
		case TypeArray:
			mask[idx] = true
			current = current.Items
		case TypeObject:
			child, ok := current.Properties.Get(segment)
			if !ok {
				current = nil
				continue
			}
			current = &child
		default:
			current = nil
		}
	}
	return mask
}

func setValueAt(root any, path []string, mask []bool, value any) (any, error) {
	if len(path) == 0 {
		return CloneValue(value), nil
	}
	segment := path[0]
	var rest []bool
	if len(mask) > 0 {
		rest = mask[1:]
	}
	switch node := root.(type) {
	case nil:
		child, err := setValueAt(nil, path[1:], rest, value)
		if err != nil {
			return nil, err
		}
		if len(mask) > 0 && mask[0] {
			if idx, err := strconv.Atoi(segment); err != nil || idx != 0 {
				return nil, fmt.Errorf("schema: index %q out of range", segment)
			}
			return []any{child}, nil
		}
		return map[string]any{segment: child}, nil
	case map[string]any:
		out := cloneMap(node)
		child, err := setValueAt(out[segment], path[1:], rest, value)
		if err != nil {
			return nil, err
		}
		out[segment] = child
		return out, nil
	case []any:
		idx, err := strconv.Atoi(segment)
		if err != nil || idx < 0 || idx > len(node) {
			return nil, fmt.Errorf("schema: index %q out of range", segment)
		}
		out := CloneValue(node).([]any)
		var current any
		if idx < len(out) {
			current = out[idx]
		}
		child, err := setValueAt(current, path[1:], rest, value)
		if err != nil {
			return nil, err
		}
		if idx == len(out) {
			out = append(out, child)
		} else {
			out[idx] = child
		}
		return out, nil
	default:
		return nil, fmt.Errorf("schema: cannot descend into %T at %q", root, segment)
	}
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = CloneValue(value)
	}
	return out
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
