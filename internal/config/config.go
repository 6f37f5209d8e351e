// Package config loads runtime configuration from a YAML file with
// environment-variable overrides, and supports hot reload of the
// logging level.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

const (
	defaultConfigPath = "configs/config.yaml"
	envPrefix         = "mockserver"
)

// Config aggregates all runtime configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds the HTTP server and account seed settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	AccessToken     string        `mapstructure:"access_token"`
	AccountID       string        `mapstructure:"account_id"`
	AccountCapital  float64       `mapstructure:"account_capital"`
	CaseDir         string        `mapstructure:"case_dir"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level            string   `mapstructure:"level"`
	Encoding         string   `mapstructure:"encoding"`
	Development      bool     `mapstructure:"development"`
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// Load reads the config file at path (default configs/config.yaml),
// applies defaults and environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	v := newViper(path)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("config file %q not found: %w", v.ConfigFileUsed(), err)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	return unmarshal(v)
}

// Watch re-reads the config file on filesystem changes and calls
// onChange with each valid new snapshot. Invalid snapshots are
// dropped; the previous configuration stays in effect.
func Watch(path string, onChange func(*Config), onError func(error)) error {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	v.OnConfigChange(func(evt fsnotify.Event) {
		cfg, err := unmarshal(v)
		if err != nil {
			if onError != nil {
				onError(fmt.Errorf("config reload %s: %w", evt.Name, err))
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

func newViper(path string) *viper.Viper {
	v := viper.New()

	if path == "" {
		path = defaultConfigPath
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 9500)
	v.SetDefault("server.access_token", "")
	v.SetDefault("server.account_id", "")
	v.SetDefault("server.account_capital", 1_000_000)
	v.SetDefault("server.case_dir", "cases")
	v.SetDefault("server.read_timeout", "5s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.encoding", "console")
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.output_paths", []string{"stdout"})
	v.SetDefault("logging.error_output_paths", []string{"stderr"})
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	var errs error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = multierr.Append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.AccessToken == "" {
		errs = multierr.Append(errs, errors.New("server.access_token is required"))
	}
	if c.Server.AccountID == "" {
		errs = multierr.Append(errs, errors.New("server.account_id is required"))
	}
	if c.Server.AccountCapital < 0 {
		errs = multierr.Append(errs, fmt.Errorf("server.account_capital %f is negative", c.Server.AccountCapital))
	}
	if c.Server.CaseDir == "" {
		errs = multierr.Append(errs, errors.New("server.case_dir is required"))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = multierr.Append(errs, fmt.Errorf("logging.level %q must be one of: debug, info, warn, error", c.Logging.Level))
	}
	switch c.Logging.Encoding {
	case "console", "json":
	default:
		errs = multierr.Append(errs, fmt.Errorf("logging.encoding %q must be console or json", c.Logging.Encoding))
	}

	return errs
}
