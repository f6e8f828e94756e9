// Package config loads render-probe settings from a yaml file, RENDER_BRIDGE_*
// environment variables and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/sink"
)

// EnvPrefix is prepended to every environment key (RENDER_BRIDGE_MAX_BUFFERS, ...)
const EnvPrefix = "RENDER_BRIDGE"

type Elements struct {
	Download  string `mapstructure:"download"`
	Convert   string `mapstructure:"convert"`
	GLSinkBin string `mapstructure:"glsinkbin"`
	Upload    string `mapstructure:"upload"`
	AppSink   string `mapstructure:"appsink"`
}

type Config struct {
	Elements             Elements `mapstructure:"elements"`
	AppSinkName          string   `mapstructure:"appsink_name"`
	SinkBinName          string   `mapstructure:"sink_bin_name"`
	MaxBuffers           uint     `mapstructure:"max_buffers"`
	Drop                 bool     `mapstructure:"drop"`
	Sync                 bool     `mapstructure:"sync"`
	MetricsAddr          string   `mapstructure:"metrics_addr"`
	StatsIntervalSeconds int      `mapstructure:"stats_interval_seconds"`
	LogLevel             string   `mapstructure:"log_level"`
}

func Default() *Config {
	el := sink.DefaultElements()
	return &Config{
		Elements: Elements{
			Download:  el.Download,
			Convert:   el.Convert,
			GLSinkBin: el.GLSinkBin,
			Upload:    el.Upload,
			AppSink:   el.AppSink,
		},
		AppSinkName:          "render-bridge-appsink",
		SinkBinName:          "render-bridge-sink",
		MaxBuffers:           1,
		Drop:                 true,
		Sync:                 true,
		StatsIntervalSeconds: 5,
		LogLevel:             "info",
	}
}

// Load reads cfgFile, or render-bridge.yaml from the working directory when
// cfgFile is empty. A missing default file is not an error.
func Load(cfgFile string) (*Config, error) {
	return load(viper.New(), cfgFile)
}

func load(v *viper.Viper, cfgFile string) (*Config, error) {
	cfg := Default()
	setDefaults(v, cfg)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("render-bridge")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// AutomaticEnv only resolves keys viper already knows, so every field gets a
// default.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("elements.download", cfg.Elements.Download)
	v.SetDefault("elements.convert", cfg.Elements.Convert)
	v.SetDefault("elements.glsinkbin", cfg.Elements.GLSinkBin)
	v.SetDefault("elements.upload", cfg.Elements.Upload)
	v.SetDefault("elements.appsink", cfg.Elements.AppSink)
	v.SetDefault("appsink_name", cfg.AppSinkName)
	v.SetDefault("sink_bin_name", cfg.SinkBinName)
	v.SetDefault("max_buffers", cfg.MaxBuffers)
	v.SetDefault("drop", cfg.Drop)
	v.SetDefault("sync", cfg.Sync)
	v.SetDefault("metrics_addr", cfg.MetricsAddr)
	v.SetDefault("stats_interval_seconds", cfg.StatsIntervalSeconds)
	v.SetDefault("log_level", cfg.LogLevel)
}

// SinkElements returns the factory names for the sink builder.
func (c *Config) SinkElements() sink.Elements {
	return sink.Elements{
		Download:  c.Elements.Download,
		Convert:   c.Elements.Convert,
		GLSinkBin: c.Elements.GLSinkBin,
		Upload:    c.Elements.Upload,
		AppSink:   c.Elements.AppSink,
	}
}

var validLogLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

// Validate returns every problem found.
func (c *Config) Validate() []error {
	var errs []error

	if err := c.SinkElements().Validate(sink.PathCPU); err != nil {
		errs = append(errs, err)
	}
	if c.MaxBuffers == 0 {
		errs = append(errs, fmt.Errorf("max_buffers must be at least 1"))
	}
	if c.StatsIntervalSeconds < 0 {
		errs = append(errs, fmt.Errorf("stats_interval_seconds must not be negative, got %d", c.StatsIntervalSeconds))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel))
	}
	return errs
}
