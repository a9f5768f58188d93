package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formkit/pkg/capability"
	"github.com/goliatone/go-formkit/pkg/plugin"
	"github.com/goliatone/go-formkit/pkg/prompt"
	"github.com/goliatone/go-formkit/pkg/render"
	"github.com/goliatone/go-formkit/pkg/render/html"
	"github.com/goliatone/go-formkit/pkg/schema"
)

func (a *app) renderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <schema>",
		Short: "Render a schema as an HTML form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := a.loadForm(cmd, args[0])
			if err != nil {
				return err
			}
			if touched, _ := cmd.Flags().GetBool("validate"); touched {
				form.MarkTouched()
			}
			node, err := form.Generate(cmd.Context())
			if err != nil {
				return err
			}

			options, err := renderOptions(cmd, form.Schema())
			if err != nil {
				return err
			}
			renderer, err := html.New()
			if err != nil {
				return err
			}
			renderers, err := render.NewRegistry(renderer)
			if err != nil {
				return err
			}
			name, _ := cmd.Flags().GetString("renderer")
			out, contentType, err := renderers.Render(cmd.Context(), name, node, options)
			if err != nil {
				return err
			}
			a.logger.Debug("rendered form", "renderer", name, "content_type", contentType, "bytes", len(out))
			return writeOutput(cmd, out)
		},
	}
	addSchemaFlags(cmd)
	cmd.Flags().String("renderer", html.Name, "renderer name")
	cmd.Flags().String("action", "", "form action URL")
	cmd.Flags().String("method", "post", "form method; verbs other than GET and POST use a _method field")
	cmd.Flags().StringToString("hidden", nil, "extra hidden inputs (name=value)")
	cmd.Flags().String("csrf", "", "CSRF token rendered as a _csrf hidden input")
	cmd.Flags().String("errors", "", "JSON or YAML file mapping field paths to server error messages")
	cmd.Flags().Bool("validate", false, "validate the initial value and show its errors")
	cmd.Flags().StringP("output", "o", "", "output file (stdout if empty)")
	return cmd
}

func renderOptions(cmd *cobra.Command, field schema.Field) (render.RenderOptions, error) {
	action, _ := cmd.Flags().GetString("action")
	method, _ := cmd.Flags().GetString("method")
	hidden, _ := cmd.Flags().GetStringToString("hidden")
	var extra []render.HiddenField
	if token, _ := cmd.Flags().GetString("csrf"); token != "" {
		extra = append(extra, render.CSRFToken("_csrf", token))
	}
	options := render.RenderOptions{
		Action: action,
		Method: method,
		Hidden: render.MergeHiddenFields(hidden, extra...),
	}

	path, _ := cmd.Flags().GetString("errors")
	if path == "" {
		return options, nil
	}
	raw, err := readValue(path)
	if err != nil {
		return render.RenderOptions{}, err
	}
	payload, err := errorPayload(raw)
	if err != nil {
		return render.RenderOptions{}, oops.Code("cli.errors.decode").With("path", path).Wrapf(err, "decoding errors")
	}
	return options.WithMapping(render.MapErrorPayload(field, payload)), nil
}

// errorPayload accepts both "path: message" and "path: [messages]".
func errorPayload(raw any) (map[string][]string, error) {
	entries, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a mapping, got %T", raw)
	}
	out := make(map[string][]string, len(entries))
	for key, value := range entries {
		switch v := value.(type) {
		case string:
			out[key] = []string{v}
		case []any:
			for _, item := range v {
				out[key] = append(out[key], fmt.Sprint(item))
			}
		default:
			return nil, fmt.Errorf("%s: expected a string or a list, got %T", key, value)
		}
	}
	return out, nil
}

func (a *app) validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <schema>",
		Short: "Validate a value against a schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := a.loadForm(cmd, args[0])
			if err != nil {
				return err
			}
			errs := form.Validate()
			out := cmd.OutOrStdout()
			if len(errs) == 0 {
				_, err := fmt.Fprintln(out, "valid")
				return err
			}
			for _, msg := range errs {
				if _, err := fmt.Fprintln(out, msg); err != nil {
					return err
				}
			}
			return oops.Code("cli.validate.invalid").With("errors", len(errs)).Errorf("%d validation error(s)", len(errs))
		},
	}
	addSchemaFlags(cmd)
	return cmd
}

func (a *app) fillCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fill <schema>",
		Short: "Fill a form interactively and print the submitted value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := a.loadForm(cmd, args[0])
			if err != nil {
				return err
			}
			attempts, _ := cmd.Flags().GetInt("max-attempts")
			if err := prompt.Fill(cmd.Context(), form, a.newDriver(cmd),
				prompt.WithMaxAttempts(attempts),
				prompt.WithLogger(a.logger),
			); err != nil {
				return err
			}
			if !form.Submit() {
				return oops.Code("cli.fill.invalid").Errorf("form is invalid: %s", strings.Join(form.Errors(), "; "))
			}

			format, _ := cmd.Flags().GetString("format")
			data, err := encodeValue(form.Value(), format)
			if err != nil {
				return err
			}
			return writeOutput(cmd, data)
		},
	}
	addSchemaFlags(cmd)
	cmd.Flags().Int("max-attempts", 3, "how often an invalid answer is asked again")
	cmd.Flags().String("format", "json", "output format (json or yaml)")
	cmd.Flags().StringP("output", "o", "", "output file (stdout if empty)")
	return cmd
}

func encodeValue(value any, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "json":
		data, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case "yaml", "yml":
		return yaml.Marshal(value)
	default:
		return nil, oops.Code("cli.fill.format").Errorf("unsupported format %q", format)
	}
}

func (a *app) pluginsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "List the bundled plugins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := a.registry(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tVERSION\tSTATUS\tCAPABILITIES")
			for _, registration := range reg.All() {
				meta := registration.Metadata()
				names := make([]string, 0, len(registration.Capabilities))
				for _, c := range registration.Capabilities {
					names = append(names, string(c))
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", meta.ID, meta.Version, registration.Status, strings.Join(names, ","))
			}
			return w.Flush()
		},
	}
	cmd.AddCommand(a.pluginSchemaCmd())
	return cmd
}

func (a *app) pluginSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema <id>",
		Short: "Print a plugin's configuration schema and current values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry(cmd.Context())
			if err != nil {
				return err
			}
			registration, err := reg.Get(args[0])
			if err != nil {
				return err
			}
			configurable, ok := registration.Plugin.(capability.Configurable)
			if !ok {
				return oops.Code(string(plugin.CodeConfigureUnsupported)).Wrapf(plugin.ErrNotConfigurable, "plugin %q", args[0])
			}
			data, err := json.MarshalIndent(map[string]any{
				"schema": configurable.ConfigSchema(),
				"config": registration.Config,
			}, "", "  ")
			if err != nil {
				return err
			}
			return writeOutput(cmd, append(data, '\n'))
		},
	}
}

func writeOutput(cmd *cobra.Command, data []byte) error {
	path, _ := cmd.Flags().GetString("output")
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return oops.Code("cli.output.write").With("path", path).Wrapf(err, "writing output")
	}
	_, err := fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", path)
	return err
}
