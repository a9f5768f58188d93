// Package orchestrator drives a form: it owns the current value, the touched
// flag and the validation errors, and turns the schema into a render tree by
// running the active generator plugins of a plugin.Registry.
//
// Generation folds every plugin's PreprocessSchema over the schema in
// registration order, generates the tree recursively with the best matching
// contribution for each field, and folds every plugin's PostprocessComponent
// over each generated node in the same order.
package orchestrator
