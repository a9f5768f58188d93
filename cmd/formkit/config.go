package main

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the CLI configuration. Precedence is flag, then FORMKIT_* env,
// then formkit.yaml, then defaults.
type Config struct {
	Theme       ThemeConfig   `mapstructure:"theme"`
	ClassPrefix string        `mapstructure:"class_prefix"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	Verbose     bool          `mapstructure:"verbose"`

	// TimezoneRegions narrows the zones offered to timezone fields.
	TimezoneRegions []string `mapstructure:"timezone_regions"`

	// Extras are the host values visibleIf rules see as "extras.<key>".
	Extras map[string]any `mapstructure:"extras"`
}

// ThemeConfig selects the theme applied by the theme plugin.
type ThemeConfig struct {
	Name             string `mapstructure:"name"`
	Variant          string `mapstructure:"variant"`
	Density          string `mapstructure:"density"`
	ShowDescriptions bool   `mapstructure:"show_descriptions"`
	Dir              string `mapstructure:"dir"`
}

// SetDefaults registers every key so env overrides apply even without a
// config file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("theme.name", "")
	v.SetDefault("theme.variant", "")
	v.SetDefault("theme.density", "comfortable")
	v.SetDefault("theme.show_descriptions", true)
	v.SetDefault("theme.dir", "")
	v.SetDefault("class_prefix", "formkit")
	v.SetDefault("http_timeout", 10*time.Second)
	v.SetDefault("timezone_regions", []string{})
	v.SetDefault("verbose", false)
}

// SetupEnv maps FORMKIT_THEME_NAME style variables onto keys.
func SetupEnv(v *viper.Viper) {
	v.SetEnvPrefix("FORMKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// FromViper decodes the resolved configuration.
func FromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	cfg.ClassPrefix = strings.TrimSpace(cfg.ClassPrefix)
	return cfg, nil
}
