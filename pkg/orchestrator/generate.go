package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-formkit/pkg/capability"
	"github.com/goliatone/go-formkit/pkg/generator"
	"github.com/goliatone/go-formkit/pkg/schema"
	"github.com/goliatone/go-formkit/pkg/validation"
)

// Generate builds the render tree for the current value. Fields without a
// matching contribution render as generator.Placeholder nodes; any error
// returned by a plugin hook aborts the pass.
func (f *Form) Generate(ctx context.Context) (capability.Node, error) {
	if ctx == nil {
		return nil, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	plugins := f.registry.Generators()
	field, err := f.prepare(ctx, plugins)
	if err != nil {
		return nil, err
	}

	value, errs := f.snapshot()
	p := &pass{
		ctx:           ctx,
		form:          f,
		plugins:       plugins,
		contributions: generator.Collect(plugins),
		value:         value,
		errors:        errs,
	}
	if f.overrides {
		p.overrides = f.registry.Overrides()
	}
	return p.generate(field, nil, nil)
}

// PreparedSchema returns the schema after the form transformers and every
// active plugin's PreprocessSchema, folded in registration order.
func (f *Form) PreparedSchema(ctx context.Context) (schema.Field, error) {
	return f.prepare(ctx, f.registry.Generators())
}

func (f *Form) prepare(ctx context.Context, plugins []capability.SchemaGenerator) (schema.Field, error) {
	field := f.field.Clone()
	for _, t := range f.transformers {
		transformed, err := t.Transform(ctx, field)
		if err != nil {
			return schema.Field{}, fmt.Errorf("orchestrator: transform schema: %w", err)
		}
		field = transformed
	}
	for _, p := range plugins {
		pre, ok := p.(capability.SchemaPreprocessor)
		if !ok {
			continue
		}
		processed, err := pre.PreprocessSchema(field.Clone())
		if err != nil {
			return schema.Field{}, fmt.Errorf("orchestrator: preprocess schema (%s): %w", p.Metadata().ID, err)
		}
		field = processed
	}
	return field, nil
}

type pass struct {
	ctx           context.Context
	form          *Form
	plugins       []capability.SchemaGenerator
	contributions []capability.Contribution
	overrides     []capability.SchemaOverride
	value         any
	errors        []string
}

// generate renders field at path. indexes flags the path segments that
// address array items; a child segment is an index exactly when its parent
// field is an array.
func (p *pass) generate(field schema.Field, path []string, indexes []bool) (capability.Node, error) {
	if err := p.ctx.Err(); err != nil {
		return nil, err
	}

	current, _ := schema.ValueAt(p.value, path)
	gctx := &capability.Context{
		Path:    append([]string(nil), path...),
		Indexes: append([]bool(nil), indexes...),
		Value:   schema.CloneValue(current),
		Errors:  validation.ErrorsFor(p.errors, path, indexes),
		Plugins: p.plugins,
	}
	gctx.OnChange = func(value any) {
		if err := p.form.SetFieldValue(path, value); err != nil {
			p.form.logger.Warn("form change rejected", "path", gctx.PathString(), "error", err)
		}
	}
	gctx.GenerateChild = func(segment string, child schema.Field) (capability.Node, error) {
		childPath := make([]string, len(path), len(path)+1)
		copy(childPath, path)
		childIndexes := make([]bool, len(indexes), len(indexes)+1)
		copy(childIndexes, indexes)
		return p.generate(child, append(childPath, segment), append(childIndexes, field.Type == schema.TypeArray))
	}

	generate, unsupported := p.resolve(field)
	var (
		node capability.Node
		err  error
	)
	if unsupported {
		node = generator.Placeholder(field, gctx)
		p.form.logger.Debug("no generator for field", "path", gctx.PathString(), "type", field.Type, "format", field.Format)
	} else {
		node, err = generate(field, gctx)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: generate %s: %w", describePath(gctx), err)
		}
	}

	for _, gp := range p.plugins {
		post, ok := gp.(capability.ComponentPostprocessor)
		if !ok {
			continue
		}
		processed, err := post.PostprocessComponent(node, field, gctx)
		if err != nil {
			if unsupported {
				p.form.logger.Warn("postprocess of placeholder failed", "plugin", gp.Metadata().ID, "path", gctx.PathString(), "error", err)
				continue
			}
			return nil, fmt.Errorf("orchestrator: postprocess %s (%s): %w", describePath(gctx), gp.Metadata().ID, err)
		}
		node = processed
	}
	return node, nil
}

// resolve picks the override or contribution for field. The second result is
// true when nothing can render it.
func (p *pass) resolve(field schema.Field) (capability.GenerateFunc, bool) {
	for _, override := range p.overrides {
		if !claims(override, field) {
			continue
		}
		if fn := override.OverrideComponent(field.Type, field); fn != nil {
			return fn, false
		}
	}
	contribution, ok := generator.FindMatching(p.contributions, field)
	if !ok {
		return nil, true
	}
	return contribution.Generate, false
}

func claims(override capability.SchemaOverride, field schema.Field) bool {
	for _, t := range override.OverridableTypes() {
		if t == field.Type || t == capability.AnyType {
			return override.CanOverride(field.Type, field)
		}
	}
	return false
}

func describePath(gctx *capability.Context) string {
	if gctx.Depth() == 0 {
		return "root"
	}
	return gctx.PathString()
}
