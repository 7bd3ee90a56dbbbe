// Package config loads fabric application settings from defaults, an
// optional YAML file, an optional .env file and FABRIC_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/phanxgames/fabric"
	"github.com/phanxgames/fabric/internal/logger"
)

// DefaultEnvPrefix prefixes environment overrides, e.g. FABRIC_WINDOW_WIDTH.
const DefaultEnvPrefix = "FABRIC"

// Config is the application configuration.
type Config struct {
	Window  WindowConfig  `mapstructure:"window"`
	Render  RenderConfig  `mapstructure:"render"`
	Log     logger.Config `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// WindowConfig configures the window opened by fabric.Run.
type WindowConfig struct {
	Title     string `mapstructure:"title" validate:"required"`
	Width     int    `mapstructure:"width" validate:"gt=0,lte=16384"`
	Height    int    `mapstructure:"height" validate:"gt=0,lte=16384"`
	Resizable bool   `mapstructure:"resizable"`
}

// RenderConfig configures the scene renderer.
type RenderConfig struct {
	// ClearColor is RGBA in [0, 1].
	ClearColor []float64 `mapstructure:"clear_color" validate:"len=4,dive,gte=0,lte=1"`
	Ambient    float64   `mapstructure:"ambient" validate:"gte=0,lte=1"`
	ShowFPS    bool      `mapstructure:"show_fps"`
	Debug      bool      `mapstructure:"debug"`
	// ScreenshotDir receives scripted and requested screen captures.
	ScreenshotDir string `mapstructure:"screenshot_dir" validate:"required"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Addr      string `mapstructure:"addr" validate:"omitempty,hostname_port"`
	Namespace string `mapstructure:"namespace" validate:"required"`
}

// Color returns the clear color.
func (r RenderConfig) Color() fabric.Color {
	if len(r.ClearColor) != 4 {
		return fabric.ColorBlack
	}
	return fabric.Color{R: r.ClearColor[0], G: r.ClearColor[1], B: r.ClearColor[2], A: r.ClearColor[3]}
}

// RunConfig converts the window settings for fabric.Run.
func (c *Config) RunConfig() fabric.RunConfig {
	return fabric.RunConfig{
		Title:     c.Window.Title,
		Width:     c.Window.Width,
		Height:    c.Window.Height,
		Resizable: c.Window.Resizable,
		ShowFPS:   c.Render.ShowFPS,

		ScreenshotDir: c.Render.ScreenshotDir,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct constraints and the logging section.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return errors.New("config: metrics.addr is required when metrics are enabled")
	}
	return nil
}

type options struct {
	configFile string
	envFile    string
	envPrefix  string
}

// Option configures Load.
type Option func(*options)

// WithConfigFile reads a YAML config file. A missing file is an error.
func WithConfigFile(path string) Option {
	return func(o *options) { o.configFile = path }
}

// WithEnvFile loads a .env file into the process environment before
// resolving overrides. A missing file is ignored. Variables already set in
// the environment win.
func WithEnvFile(path string) Option {
	return func(o *options) { o.envFile = path }
}

// WithEnvPrefix replaces DefaultEnvPrefix.
func WithEnvPrefix(prefix string) Option {
	return func(o *options) { o.envPrefix = prefix }
}

// Load resolves the configuration in order of increasing precedence:
// defaults, config file, environment (including the .env file).
func Load(opts ...Option) (*Config, error) {
	o := options{envPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		opt(&o)
	}

	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load env file %s: %w", o.envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	if o.configFile != "" {
		v.SetConfigFile(o.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", o.configFile, err)
		}
	}

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.Log.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("window.title", "fabric")
	v.SetDefault("window.width", 1280)
	v.SetDefault("window.height", 720)
	v.SetDefault("window.resizable", true)

	v.SetDefault("render.clear_color", []float64{0, 0, 0, 1})
	v.SetDefault("render.ambient", 0.6)
	v.SetDefault("render.show_fps", false)
	v.SetDefault("render.debug", false)
	v.SetDefault("render.screenshot_dir", fabric.DefaultScreenshotDir)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", logger.FormatConsole)
	v.SetDefault("log.output", "stderr")
	v.SetDefault("log.no_color", false)
	v.SetDefault("log.timestamp", true)
	v.SetDefault("log.caller", false)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9090")
	v.SetDefault("metrics.namespace", "fabric")
}
