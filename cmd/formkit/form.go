package main

import (
	"context"
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formkit"
	"github.com/goliatone/go-formkit/pkg/openapi"
	"github.com/goliatone/go-formkit/pkg/orchestrator"
	"github.com/goliatone/go-formkit/pkg/schema"
)

// addSchemaFlags registers the flags shared by commands that load a form.
func addSchemaFlags(cmd *cobra.Command) {
	cmd.Flags().String("operation", "", "treat the schema as an OpenAPI document and use this operation's request body")
	cmd.Flags().String("component", "", "treat the schema as an OpenAPI document and use this component schema")
	cmd.Flags().String("values", "", "JSON or YAML file with the initial value")
	cmd.Flags().String("preset", "", "JSON preset file patching titles, placeholders and UI options")
}

// loadField resolves the schema named by location and the OpenAPI flags.
func (a *app) loadField(ctx context.Context, cmd *cobra.Command, location string) (schema.Field, error) {
	loaderOpts := []schema.LoaderOption{schema.WithHTTPFallback(a.cfg.HTTPTimeout)}
	operation, _ := cmd.Flags().GetString("operation")
	component, _ := cmd.Flags().GetString("component")

	if operation == "" && component == "" {
		field, err := formkit.LoadSchema(ctx, location, loaderOpts...)
		if err != nil {
			return schema.Field{}, oops.Code("cli.schema.load").With("location", location).Wrapf(err, "loading schema")
		}
		return field, nil
	}

	doc, err := formkit.LoadOpenAPI(ctx, location, loaderOpts...)
	if err != nil {
		return schema.Field{}, oops.Code("cli.openapi.load").With("location", location).Wrapf(err, "loading OpenAPI document")
	}
	if operation != "" {
		field, err := openapi.RequestBody(doc, operation)
		if err != nil {
			return schema.Field{}, oops.Code("cli.openapi.operation").With("operation", operation).Wrapf(err, "resolving request body")
		}
		return field, nil
	}
	field, err := openapi.Component(doc, component)
	if err != nil {
		return schema.Field{}, oops.Code("cli.openapi.component").With("component", component).Wrapf(err, "resolving component")
	}
	return field, nil
}

// loadForm builds a form for location with the configured registry and the
// optional --values and --preset files.
func (a *app) loadForm(cmd *cobra.Command, location string, options ...orchestrator.Option) (*orchestrator.Form, error) {
	ctx := cmd.Context()
	field, err := a.loadField(ctx, cmd, location)
	if err != nil {
		return nil, err
	}
	reg, err := a.registry(ctx)
	if err != nil {
		return nil, err
	}

	if path, _ := cmd.Flags().GetString("values"); path != "" {
		value, err := readValue(path)
		if err != nil {
			return nil, err
		}
		options = append(options, orchestrator.WithInitialValue(value))
	}
	if path, _ := cmd.Flags().GetString("preset"); path != "" {
		preset, err := formkit.LoadPreset(path)
		if err != nil {
			return nil, oops.Code("cli.preset.load").With("path", path).Wrapf(err, "loading preset")
		}
		options = append(options, preset)
	}
	options = append(options, orchestrator.WithLogger(a.logger))
	return formkit.NewForm(reg, field, options...)
}

// readValue decodes a JSON or YAML document. YAML is a superset of JSON so
// one decoder covers both.
func readValue(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.Code("cli.values.read").With("path", path).Wrapf(err, "reading values")
	}
	var value any
	if err := yaml.Unmarshal(data, &value); err != nil {
		return nil, oops.Code("cli.values.decode").With("path", path).Wrapf(err, "decoding values")
	}
	return value, nil
}
