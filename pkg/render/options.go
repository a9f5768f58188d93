package render

// RenderOptions carry per-request data renderers apply on top of the
// generated tree without touching the form.
type RenderOptions struct {
	// Action and Method are set on the root form element when non-empty.
	Action string
	Method string
	// Errors holds server-side messages keyed by element path
	// ("owner.tags[1]"). The empty key holds form-level messages. See
	// MapErrorPayload for turning raw payloads into this shape.
	Errors map[string][]string
	// Hidden fields are emitted as hidden inputs inside the root form.
	Hidden map[string]string
}

// FieldErrors returns the messages recorded for path.
func (o RenderOptions) FieldErrors(path string) []string {
	if len(o.Errors) == 0 {
		return nil
	}
	return o.Errors[path]
}

// WithMapping returns a copy of o with the mapping's field and form errors
// merged into Errors.
func (o RenderOptions) WithMapping(mapping ErrorMapping) RenderOptions {
	merged := make(map[string][]string, len(o.Errors)+len(mapping.Fields)+1)
	for path, messages := range o.Errors {
		merged[path] = append([]string(nil), messages...)
	}
	for path, messages := range mapping.Fields {
		merged[path] = normalizeMessages(append(merged[path], messages...))
	}
	if len(mapping.Form) > 0 {
		merged[""] = MergeFormErrors(merged[""], mapping.Form...)
	}
	o.Errors = merged
	return o
}
