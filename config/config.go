// Package config loads omnifilter settings from an optional file and
// OMNIFILTER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/omniql-engine/omnifilter/engine/convert"
	"github.com/omniql-engine/omnifilter/mapping"
)

// EnvPrefix is the environment variable prefix: OMNIFILTER_LOG_LEVEL -> log.level.
const EnvPrefix = "OMNIFILTER_"

// Config holds every setting of the library and CLI.
type Config struct {
	Database    string    `mapstructure:"database"`     // one of mapping.SupportedDatabases
	DSN         string    `mapstructure:"dsn"`          // data source for the CLI query command
	Schema      string    `mapstructure:"schema"`       // schema file path
	Timezone    string    `mapstructure:"timezone"`     // zone for offset-less dates
	DateFormats []string  `mapstructure:"date_formats"` // extra Go layouts after the defaults
	Tenant      string    `mapstructure:"tenant"`       // Redis key tenant
	Log         LogConfig `mapstructure:"log"`
}

// LogConfig configures the logger package.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // DEBUG, INFO, WARN, ERROR
	Format string `mapstructure:"format"` // json, text
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Database: "PostgreSQL",
		Timezone: "UTC",
		Log:      LogConfig{Level: "INFO", Format: "text"},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("database", d.Database)
	v.SetDefault("timezone", d.Timezone)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Load reads path (if not empty) and then the environment. Environment
// variables override the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		}
	}

	// AutomaticEnv does not feed Unmarshal for keys viper has never seen,
	// so walk the environment instead.
	for _, env := range os.Environ() {
		key, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		prop := strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		if prop == "date_formats" {
			v.Set(prop, strings.Split(value, ";"))
			continue
		}
		if strings.HasPrefix(prop, "log_") {
			prop = "log." + strings.TrimPrefix(prop, "log_")
		}
		v.Set(prop, value)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the database name and the timezone.
func (c *Config) Validate() error {
	if !mapping.IsSupportedDatabase(c.Database) {
		return fmt.Errorf("unsupported database type: %s (supported: %v)", c.Database, mapping.SupportedDatabases)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone; empty means UTC.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Conversions builds the conversion service these settings describe.
func (c *Config) Conversions() (*convert.Service, error) {
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	return convert.New(convert.WithLocation(loc), convert.WithDateFormats(c.DateFormats...)), nil
}
