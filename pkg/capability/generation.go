package capability

import (
	"strings"

	"github.com/goliatone/go-formkit/pkg/schema"
)

// Node is render output produced by a generator. The engine never inspects
// it beyond handing it to post-processors and back to the host.
type Node any

// AnyType is the wildcard Contribution type matching every field type.
const AnyType schema.Type = "*"

// GenerateFunc turns a field into a render node.
type GenerateFunc func(field schema.Field, ctx *Context) (Node, error)

// Matcher is an optional extra predicate a Contribution applies to a field.
type Matcher func(field schema.Field) bool

// Contribution is one generator a plugin offers. Type (or AnyType) and
// Format narrow the fields it handles, Match refines further and Priority
// decides between several matching contributions.
type Contribution struct {
	Name     string
	Type     schema.Type
	Format   string
	Match    Matcher
	Priority int
	Generate GenerateFunc
}

// Accepts reports whether the contribution can generate field.
func (c Contribution) Accepts(field schema.Field) bool {
	if c.Generate == nil {
		return false
	}
	if c.Type != AnyType && c.Type != field.Type {
		return false
	}
	if c.Format != "" && c.Format != field.Format {
		return false
	}
	if c.Match != nil && !c.Match(field) {
		return false
	}
	return true
}

// Context is built for every node of a generation pass.
type Context struct {
	// Path holds property names and array indexes from the root. Indexes are
	// decimal strings.
	Path []string
	// Indexes flags the Path segments that address array items. Property
	// names that look numeric are not flagged.
	Indexes []bool
	// Value is a copy of the current value at Path.
	Value any
	// OnChange writes a new value at Path.
	OnChange func(value any)
	// Errors holds validation errors at or below Path with the path prefix
	// removed. Empty until the form has been touched.
	Errors []string
	// GenerateChild generates the nested field reached through segment.
	GenerateChild func(segment string, field schema.Field) (Node, error)
	// Plugins lists the active generator plugins in registration order.
	Plugins []SchemaGenerator
}

// Name returns the last path segment, or "" at the root.
func (c *Context) Name() string {
	if c == nil || len(c.Path) == 0 {
		return ""
	}
	return c.Path[len(c.Path)-1]
}

// Depth is the number of path segments.
func (c *Context) Depth() int {
	if c == nil {
		return 0
	}
	return len(c.Path)
}

// PathString renders the path with dots for properties and brackets for
// indexes, e.g. "owner.tags[1]".
func (c *Context) PathString() string {
	if c == nil {
		return ""
	}
	return JoinPath(c.Path, c.Indexes)
}

// InputID derives a stable DOM-friendly identifier from the path.
func (c *Context) InputID() string {
	if c == nil || len(c.Path) == 0 {
		return "root"
	}
	return strings.Join(c.Path, "-")
}

// JoinPath renders path segments as "a.b[0].c". Segment i is bracketed
// when indexes[i] is set.
func JoinPath(path []string, indexes []bool) string {
	var b strings.Builder
	for idx, segment := range path {
		if idx < len(indexes) && indexes[idx] {
			b.WriteByte('[')
			b.WriteString(segment)
			b.WriteByte(']')
			continue
		}
		if idx > 0 {
			b.WriteByte('.')
		}
		b.WriteString(segment)
	}
	return b.String()
}

// IsIndex reports whether a textual path segment can address an array
// item. Callers holding a schema decide with schema.IndexMask instead.
func IsIndex(segment string) bool {
	if segment == "" {
		return false
	}
	for _, r := range segment {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
