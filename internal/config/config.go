// Package config provides configuration management for pgsplay using Viper.
// It supports configuration from files, environment variables, flags and defaults.
package config

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Default configuration values.
const (
	defaultFrameInterval = 16 * time.Millisecond
	defaultMaxLines      = 4096
	defaultMaxWidth      = 4096
	defaultFFmpegBinary  = "ffmpeg"

	// EnvPrefix prefixes every environment variable, e.g. PGSPLAY_LOGGING_LEVEL.
	EnvPrefix = "PGSPLAY"

	ExtractMethodNative = "native"
	ExtractMethodFFmpeg = "ffmpeg"
)

// Config holds all configuration for the application.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Render  RenderConfig  `mapstructure:"render"`
	Decoder DecoderConfig `mapstructure:"decoder"`
	Extract ExtractConfig `mapstructure:"extract"`
}

// LoggingConfig holds logger configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`  // debug, info, warn, error
	Format     string `mapstructure:"format"` // json, text
	AddSource  bool   `mapstructure:"add_source"`
	TimeFormat string `mapstructure:"time_format"`
}

// RenderConfig holds overlay renderer configuration.
type RenderConfig struct {
	FrameInterval time.Duration `mapstructure:"frame_interval"`
	Smoothing     bool          `mapstructure:"smoothing"`
}

// DecoderConfig bounds the resources one subtitle object may use.
type DecoderConfig struct {
	MaxLines int `mapstructure:"max_lines"`
	MaxWidth int `mapstructure:"max_width"`
}

// ExtractConfig selects how subtitle streams are pulled out of containers.
type ExtractConfig struct {
	Method       string `mapstructure:"method"` // native, ffmpeg
	FFmpegBinary string `mapstructure:"ffmpeg_binary"`
}

// FlagBindings maps configuration keys to command line flag names.
var FlagBindings = map[string]string{
	"logging.level":         "log-level",
	"logging.format":        "log-format",
	"extract.method":        "method",
	"extract.ffmpeg_binary": "ffmpeg",
}

// Load reads configuration from file, environment variables and flags, in increasing
// order of precedence. Environment variables use underscores for nesting, for example
// PGSPLAY_RENDER_FRAME_INTERVAL=33ms. Flags are optional.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(".pgsplay")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key, name := range FlagBindings {
			if flag := flags.Lookup(name); flag != nil {
				if bindErr := v.BindPFlag(key, flag); bindErr != nil {
					return nil, errors.Wrapf(bindErr, "binding flag --%s", name)
				}
			}
		}
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, errors.Wrap(err, "reading config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshaling config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "validating config")
	}

	return &cfg, nil
}

// SetDefaults configures default values for all configuration options.
func SetDefaults(v *viper.Viper) {
	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Render defaults
	v.SetDefault("render.frame_interval", defaultFrameInterval)
	v.SetDefault("render.smoothing", true)

	// Decoder defaults
	v.SetDefault("decoder.max_lines", defaultMaxLines)
	v.SetDefault("decoder.max_width", defaultMaxWidth)

	// Extraction defaults
	v.SetDefault("extract.method", ExtractMethodNative)
	v.SetDefault("extract.ffmpeg_binary", defaultFFmpegBinary)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return errors.New("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return errors.New("logging.format must be one of: json, text")
	}

	if c.Render.FrameInterval <= 0 {
		return errors.New("render.frame_interval must be positive")
	}

	if c.Decoder.MaxLines < 1 {
		return errors.New("decoder.max_lines must be at least 1")
	}
	if c.Decoder.MaxWidth < 1 {
		return errors.New("decoder.max_width must be at least 1")
	}

	switch c.Extract.Method {
	case ExtractMethodNative:
	case ExtractMethodFFmpeg:
		if c.Extract.FFmpegBinary == "" {
			return errors.New("extract.ffmpeg_binary is required for the ffmpeg method")
		}
	default:
		return errors.Newf("extract.method must be one of: %s, %s", ExtractMethodNative, ExtractMethodFFmpeg)
	}

	return nil
}
