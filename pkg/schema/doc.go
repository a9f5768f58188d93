// Package schema defines the recursive Field model that drives form
// generation and validation. A Field describes the shape of a value (type,
// format, nested properties or items), its constraints (required, enum,
// length, pattern, numeric bounds) and free-form UI hints consumed only by
// generators. Fields are plain data: the engine never mutates a caller's
// Field and works on clones instead.
//
// Two structural invariants are documented rather than enforced:
// Properties is only meaningful when Type is object, Items only when Type is
// array, and when EnumLabels is present it must have the same length as Enum.
//
// Fields decode from JSON and YAML documents. Property order follows the
// source document, both the per-field boolean `required` and the JSON Schema
// style `required: [names]` list are accepted, and unknown keys are kept in
// Extensions so plugins can read their own namespaced keys.
package schema
