package orchestrator

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/goliatone/go-formkit/pkg/plugin"
	"github.com/goliatone/go-formkit/pkg/schema"
	"github.com/goliatone/go-formkit/pkg/validation"
)

// Option customises a Form.
type Option func(*Form)

// WithRegistry sets the registry whose active plugins generate the form.
// Defaults to plugin.Default().
func WithRegistry(registry *plugin.Registry) Option {
	return func(f *Form) {
		if registry != nil {
			f.registry = registry
		}
	}
}

// WithInitialValue seeds the form value. Without it the schema default or
// the type's empty value is used.
func WithInitialValue(value any) Option {
	return func(f *Form) {
		f.initial = schema.CloneValue(value)
		f.hasInitial = true
	}
}

// WithValidator appends a custom validator. Built-in validation always runs
// first.
func WithValidator(validator validation.Validator) Option {
	return func(f *Form) {
		if validator != nil {
			f.validators = append(f.validators, validator)
		}
	}
}

// WithOnChange registers a callback invoked with a copy of the value after
// every change.
func WithOnChange(fn func(value any)) Option {
	return func(f *Form) {
		f.onChange = fn
	}
}

// WithOnSubmit registers the callback invoked by a successful Submit.
func WithOnSubmit(fn func(value any)) Option {
	return func(f *Form) {
		f.onSubmit = fn
	}
}

// WithTouched starts the form touched so every change is validated.
func WithTouched() Option {
	return func(f *Form) {
		f.touched = true
	}
}

// WithSchemaOverrides lets active SchemaOverride plugins replace the
// component of fields they claim before generator resolution runs.
func WithSchemaOverrides() Option {
	return func(f *Form) {
		f.overrides = true
	}
}

// WithSchemaTransformer runs t over the schema before plugin preprocessing.
func WithSchemaTransformer(t Transformer) Option {
	return func(f *Form) {
		if t != nil {
			f.transformers = append(f.transformers, t)
		}
	}
}

// WithLogger sets the logger used for generation diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Form) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// Form holds the state of one form instance. Its methods are safe for
// concurrent use; callbacks run outside the internal lock.
type Form struct {
	field        schema.Field
	registry     *plugin.Registry
	validators   []validation.Validator
	transformers []Transformer
	onChange     func(value any)
	onSubmit     func(value any)
	overrides    bool
	logger       *slog.Logger

	initial    any
	hasInitial bool

	mu      sync.Mutex
	value   any
	errors  []string
	touched bool
}

// New constructs a form for field.
func New(field schema.Field, options ...Option) *Form {
	f := &Form{
		field:  field.Clone(),
		logger: slog.Default(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(f)
		}
	}
	if f.registry == nil {
		f.registry = plugin.Default()
	}
	if !f.hasInitial {
		f.initial = schema.DefaultValue(f.field)
	}
	f.value = schema.CloneValue(f.initial)
	if f.touched {
		f.errors = f.runValidation(f.value)
	}
	return f
}

// Schema returns a copy of the form schema.
func (f *Form) Schema() schema.Field {
	return f.field.Clone()
}

// Registry returns the registry used for generation.
func (f *Form) Registry() *plugin.Registry {
	return f.registry
}

// Value returns a copy of the current value.
func (f *Form) Value() any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return schema.CloneValue(f.value)
}

// Errors returns the current validation errors. The list stays empty until
// the form is touched or Validate is called.
func (f *Form) Errors() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.errors...)
}

// Touched reports whether the form was touched.
func (f *Form) Touched() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.touched
}

// Dirty reports whether the value differs from the initial value.
func (f *Form) Dirty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !reflect.DeepEqual(f.value, f.initial)
}

// SetValue replaces the whole value. The change callback always runs; the
// form is re-validated only once touched.
func (f *Form) SetValue(value any) {
	f.mu.Lock()
	f.value = schema.CloneValue(value)
	if f.touched {
		f.errors = f.runValidation(f.value)
	}
	snapshot := schema.CloneValue(f.value)
	f.mu.Unlock()

	if f.onChange != nil {
		f.onChange(snapshot)
	}
}

// SetFieldValue replaces the value at path, creating the intermediate
// objects and arrays the schema declares. It behaves like SetValue
// otherwise.
func (f *Form) SetFieldValue(path []string, value any) error {
	f.mu.Lock()
	updated, err := schema.SetFieldValueAt(f.field, f.value, path, value)
	if err != nil {
		f.mu.Unlock()
		return fmt.Errorf("orchestrator: set field value: %w", err)
	}
	f.value = updated
	if f.touched {
		f.errors = f.runValidation(f.value)
	}
	snapshot := schema.CloneValue(f.value)
	f.mu.Unlock()

	if f.onChange != nil {
		f.onChange(snapshot)
	}
	return nil
}

// MarkTouched marks the form touched and validates it.
func (f *Form) MarkTouched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = true
	f.errors = f.runValidation(f.value)
	return append([]string(nil), f.errors...)
}

// Validate runs validation, stores the result and returns it. It does not
// change the touched flag.
func (f *Form) Validate() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = f.runValidation(f.value)
	return append([]string(nil), f.errors...)
}

// Submit marks the form touched and validates it. The submit callback runs
// with a copy of the value only when there are no errors; the return value
// reports whether it ran.
func (f *Form) Submit() bool {
	f.mu.Lock()
	f.touched = true
	f.errors = f.runValidation(f.value)
	ok := len(f.errors) == 0
	snapshot := schema.CloneValue(f.value)
	f.mu.Unlock()

	if !ok {
		return false
	}
	if f.onSubmit != nil {
		f.onSubmit(snapshot)
	}
	return true
}

// Reset restores the initial value and clears the touched flag and errors.
func (f *Form) Reset() {
	f.mu.Lock()
	f.value = schema.CloneValue(f.initial)
	f.touched = false
	f.errors = nil
	snapshot := schema.CloneValue(f.value)
	f.mu.Unlock()

	if f.onChange != nil {
		f.onChange(snapshot)
	}
}

func (f *Form) runValidation(value any) []string {
	return validation.Run(value, f.field, f.validators...)
}

// snapshot returns copies of the value and errors used for one generation
// pass.
func (f *Form) snapshot() (any, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return schema.CloneValue(f.value), append([]string(nil), f.errors...)
}
