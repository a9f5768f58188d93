package schema

import (
	"errors"
	"mime"
	"net/url"
	"path"
	"strings"
)

// Document is a raw schema payload together with its origin.
type Document struct {
	source      Source
	raw         []byte
	contentType string
}

// NewDocument validates the inputs and copies raw.
func NewDocument(src Source, raw []byte) (Document, error) {
	if src == nil {
		return Document{}, errors.New("schema: source is required")
	}
	if len(raw) == 0 {
		return Document{}, errors.New("schema: raw document is empty")
	}
	return Document{source: src, raw: append([]byte(nil), raw...)}, nil
}

// Source returns the origin of the document.
func (d Document) Source() Source { return d.source }

// Raw returns a copy of the payload.
func (d Document) Raw() []byte { return append([]byte(nil), d.raw...) }

// Location returns the origin identifier.
func (d Document) Location() string {
	if d.source == nil {
		return ""
	}
	return d.source.Location()
}

// Field decodes the payload. The file extension decides the decoder; a URL
// without one falls back to the response content type and then to YAML, which
// also accepts JSON.
func (d Document) Field() (Field, error) {
	name := d.Location()
	if d.source != nil && d.source.Kind() == SourceKindURL {
		if parsed, err := url.Parse(name); err == nil {
			name = parsed.Path
		}
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".json":
		return ParseJSON(d.raw)
	case ".yaml", ".yml":
		return ParseYAML(d.raw)
	}
	if media, _, err := mime.ParseMediaType(d.contentType); err == nil && strings.HasSuffix(media, "json") {
		return ParseJSON(d.raw)
	}
	return ParseYAML(d.raw)
}
