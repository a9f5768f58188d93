// Package prompt fills a form interactively. Fill walks the prepared
// schema depth first, asks one question per leaf field and writes every
// answer through Form.SetFieldValue so validation and change callbacks run
// as they would for any other host.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/goliatone/go-formkit/pkg/capability"
	"github.com/goliatone/go-formkit/pkg/orchestrator"
	"github.com/goliatone/go-formkit/pkg/schema"
	"github.com/goliatone/go-formkit/pkg/validation"
)

// noneOption is the select entry that clears an optional enum.
const noneOption = "(none)"

// Option configures Fill.
type Option func(*filler)

// WithMaxAttempts caps how often an invalid answer is re-asked (default 3).
func WithMaxAttempts(n int) Option {
	return func(f *filler) {
		if n > 0 {
			f.maxAttempts = n
		}
	}
}

// WithLogger sets the logger used for skipped fields.
func WithLogger(logger *slog.Logger) Option {
	return func(f *filler) {
		if logger != nil {
			f.logger = logger
		}
	}
}

type filler struct {
	form        *orchestrator.Form
	root        schema.Field
	driver      Driver
	maxAttempts int
	logger      *slog.Logger
}

// Fill prompts for every leaf field of form. Arrays are grown one item at a
// time while the user confirms. Fill does not submit the form.
func Fill(ctx context.Context, form *orchestrator.Form, driver Driver, options ...Option) error {
	if form == nil || driver == nil {
		return errors.New("prompt: form and driver are required")
	}
	f := &filler{form: form, driver: driver, maxAttempts: 3, logger: slog.Default()}
	for _, opt := range options {
		if opt != nil {
			opt(f)
		}
	}

	field, err := form.PreparedSchema(ctx)
	if err != nil {
		return err
	}
	f.root = field
	return f.fill(ctx, field, nil)
}

func (f *filler) fill(ctx context.Context, field schema.Field, path []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch field.Type {
	case schema.TypeObject:
		if len(path) > 0 {
			if err := f.driver.Info(ctx, f.heading(field, path)); err != nil {
				return err
			}
		}
		for _, prop := range field.Properties {
			if err := f.fill(ctx, prop.Field, appendPath(path, prop.Name)); err != nil {
				return err
			}
		}
		return nil
	case schema.TypeArray:
		return f.fillArray(ctx, field, path)
	}

	value, ok, err := f.ask(ctx, field, path)
	if err != nil || !ok {
		return err
	}
	return f.form.SetFieldValue(path, value)
}

func (f *filler) fillArray(ctx context.Context, field schema.Field, path []string) error {
	if field.Items == nil {
		return nil
	}
	current, _ := schema.ValueAt(f.form.Value(), path)
	items, _ := current.([]any)
	if items == nil {
		if err := f.form.SetFieldValue(path, []any{}); err != nil {
			return err
		}
	}
	for idx := len(items); ; idx++ {
		more, err := f.driver.Confirm(ctx, ConfirmConfig{
			Message: fmt.Sprintf("Add an item to %s?", f.label(field, path)),
		})
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
		itemPath := appendPath(path, strconv.Itoa(idx))
		if field.Items.Type == schema.TypeObject {
			if err := f.form.SetFieldValue(itemPath, map[string]any{}); err != nil {
				return err
			}
		}
		if err := f.fill(ctx, *field.Items, itemPath); err != nil {
			return err
		}
	}
}

// ask prompts for one leaf. The second result is false when the field was
// skipped.
func (f *filler) ask(ctx context.Context, field schema.Field, path []string) (any, bool, error) {
	current, _ := schema.ValueAt(f.form.Value(), path)
	message := f.label(field, path)
	if field.Required {
		message += " *"
	}

	if len(field.Enum) > 0 {
		value, err := f.askEnum(ctx, field, message, current)
		return value, err == nil, err
	}

	switch field.Type {
	case schema.TypeBoolean:
		def, _ := current.(bool)
		answer, err := f.driver.Confirm(ctx, ConfirmConfig{Message: message, Default: def, Help: field.Description})
		return answer, err == nil, err
	case schema.TypeString, schema.TypeNumber, schema.TypeInteger:
	default:
		f.logger.Debug("prompt skipped unsupported field", "path", f.describe(path), "type", field.Type)
		return nil, false, f.driver.Info(ctx, fmt.Sprintf("Skipping %s: unsupported type %q", f.describe(path), field.Type))
	}

	check := func(text string) error {
		if errs := validation.Validate(convert(field, text), field); len(errs) > 0 {
			return errors.New(strings.Join(errs, "; "))
		}
		return nil
	}
	def := ""
	if current != nil {
		def = fmt.Sprint(current)
	}

	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		var (
			text string
			err  error
		)
		switch {
		case field.Format == schema.FormatPassword:
			text, err = f.driver.Password(ctx, InputConfig{Message: message, Help: field.Description, Validator: check})
		case field.Format == schema.FormatTextarea:
			text, err = f.driver.TextArea(ctx, TextAreaConfig{Message: message, Default: def, Help: field.Description})
		default:
			text, err = f.driver.Input(ctx, InputConfig{Message: message, Default: def, Help: field.Description, Validator: check})
		}
		if err != nil {
			return nil, false, err
		}
		problem := check(text)
		if problem == nil {
			return convert(field, text), true, nil
		}
		if err := f.driver.Info(ctx, fmt.Sprintf("%s: %v", message, problem)); err != nil {
			return nil, false, err
		}
	}
	return nil, false, fmt.Errorf("%w: %s", ErrTooManyAttempts, f.describe(path))
}

func (f *filler) askEnum(ctx context.Context, field schema.Field, message string, current any) (any, error) {
	options := make([]string, 0, len(field.Enum)+1)
	offset := 0
	if !field.Required {
		options = append(options, noneOption)
		offset = 1
	}
	def := 0
	for idx, value := range field.Enum {
		options = append(options, field.EnumLabel(idx))
		if current != nil && fmt.Sprint(current) == fmt.Sprint(value) {
			def = idx + offset
		}
	}
	choice, err := f.driver.Select(ctx, SelectConfig{Message: message, Options: options, DefaultIndex: def, Help: field.Description})
	if err != nil {
		return nil, err
	}
	if choice < offset || choice-offset >= len(field.Enum) {
		return nil, nil
	}
	return field.Enum[choice-offset], nil
}

// convert turns an answer into the field's value type. Unparseable numbers
// stay strings so validation reports the type mismatch; blank optional
// numbers become nil.
func convert(field schema.Field, text string) any {
	trimmed := strings.TrimSpace(text)
	switch field.Type {
	case schema.TypeInteger:
		if trimmed == "" {
			return nil
		}
		if n, err := strconv.Atoi(trimmed); err == nil {
			return n
		}
		return trimmed
	case schema.TypeNumber:
		if trimmed == "" {
			return nil
		}
		if n, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return n
		}
		return trimmed
	default:
		return text
	}
}

func (f *filler) label(field schema.Field, path []string) string {
	if len(path) == 0 {
		return field.Label("")
	}
	if schema.IndexMask(f.root, path)[len(path)-1] {
		return field.Label(f.describe(path))
	}
	return field.Label(path[len(path)-1])
}

func (f *filler) heading(field schema.Field, path []string) string {
	return "== " + f.label(field, path) + " =="
}

func (f *filler) describe(path []string) string {
	return capability.JoinPath(path, schema.IndexMask(f.root, path))
}

func appendPath(path []string, segment string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, segment)
}
