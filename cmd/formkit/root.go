package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/goliatone/go-formkit"
	"github.com/goliatone/go-formkit/pkg/plugin"
	"github.com/goliatone/go-formkit/pkg/plugins/theme"
	"github.com/goliatone/go-formkit/pkg/prompt"
)

// app carries state shared by the subcommands of one root command.
type app struct {
	v      *viper.Viper
	cfg    Config
	logger *slog.Logger

	// newDriver builds the prompt driver used by fill.
	newDriver func(cmd *cobra.Command) prompt.Driver
}

// NewRootCmd creates the formkit command with every subcommand registered.
func NewRootCmd() *cobra.Command {
	a := &app{
		v:      viper.New(),
		logger: slog.Default(),
		newDriver: func(*cobra.Command) prompt.Driver {
			return prompt.NewSurveyDriver()
		},
	}
	return a.rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "formkit",
		Short:         "Schema-driven form generation and validation",
		Long:          "formkit renders JSON/YAML schemas and OpenAPI request bodies as HTML forms, validates values against them and fills them interactively.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringP("config", "c", "", "path to config file (default ./formkit.yaml)")
	flags.String("env-file", ".env", "dotenv file loaded before reading FORMKIT_* variables")
	flags.String("theme", "", "theme name resolved from --themes-dir")
	flags.String("variant", "", "theme variant")
	flags.String("density", "", "form density (compact or comfortable)")
	flags.String("themes-dir", "", "directory holding theme manifests (*.yaml)")
	flags.String("class-prefix", "", "prefix for generated CSS classes")
	flags.StringToString("extra", nil, "values exposed to visibleIf rules as extras.<key> (key=value)")
	flags.BoolP("verbose", "v", false, "enable debug logging")

	root.AddCommand(
		a.renderCmd(),
		a.validateCmd(),
		a.fillCmd(),
		a.pluginsCmd(),
	)
	return root
}

var flagKeys = map[string]string{
	"theme":        "theme.name",
	"variant":      "theme.variant",
	"density":      "theme.density",
	"themes-dir":   "theme.dir",
	"class-prefix": "class_prefix",
	"verbose":      "verbose",
}

// init applies the configuration precedence and builds the logger.
func (a *app) init(cmd *cobra.Command) error {
	if envFile, _ := cmd.Flags().GetString("env-file"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return oops.Code("cli.config.env_file").Wrapf(err, "loading %s", envFile)
		}
	}

	v := a.v
	SetDefaults(v)
	SetupEnv(v)

	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return oops.Code("cli.config.read").Wrapf(err, "reading config file")
		}
	} else {
		v.SetConfigName("formkit")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return oops.Code("cli.config.read").Wrapf(err, "reading config")
			}
		}
	}

	for name, key := range flagKeys {
		flag := cmd.Flags().Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return oops.Code("cli.setup").Wrapf(err, "binding %s flag", name)
		}
	}

	cfg, err := FromViper(v)
	if err != nil {
		return oops.Code("cli.config.decode").Wrapf(err, "decoding config")
	}
	if extra, _ := cmd.Flags().GetStringToString("extra"); len(extra) > 0 {
		if cfg.Extras == nil {
			cfg.Extras = make(map[string]any, len(extra))
		}
		for key, value := range extra {
			cfg.Extras[key] = value
		}
	}
	a.cfg = cfg

	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

// registry builds the plugin registry for one invocation.
func (a *app) registry(ctx context.Context) (*plugin.Registry, error) {
	options := []formkit.Option{
		formkit.WithLogger(a.logger),
		formkit.WithClassPrefix(a.cfg.ClassPrefix),
		formkit.WithThemeConfig(theme.Config{
			Theme:            a.cfg.Theme.Name,
			Variant:          a.cfg.Theme.Variant,
			Density:          a.cfg.Theme.Density,
			ShowDescriptions: a.cfg.Theme.ShowDescriptions,
		}),
		formkit.WithVisibility(a.cfg.Extras),
		formkit.WithTimezones(a.cfg.TimezoneRegions...),
	}
	if dir := a.cfg.Theme.Dir; dir != "" {
		selector, err := theme.LoadManifests(os.DirFS(dir), ".")
		if err != nil {
			return nil, oops.Code("cli.theme.load").With("dir", dir).Wrapf(err, "loading themes")
		}
		a.logger.Debug("loaded theme manifests", "dir", dir, "themes", selector.Names())
		options = append(options, formkit.WithThemeSelector(selector))
	}
	return formkit.NewRegistry(ctx, options...)
}
