// Package config loads CLI configuration from an optional psrdb.yaml.
package config

import (
	"os"

	"github.com/spf13/viper"

	"github.com/psrenergy/psrdb/core/errors"
)

// Config holds the CLI's settings. Every field has a working default, so
// a config file is optional.
type Config struct {
	Database string `mapstructure:"database"`

	Schema struct {
		Dir string `mapstructure:"dir"`
	} `mapstructure:"schema"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	return cfg
}

// Load reads the config file at path. An empty path probes ./psrdb.yaml
// and falls back to defaults when it does not exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		path = "psrdb.yaml"
	}
	if _, err := os.Stat(path); err != nil {
		if explicit {
			return nil, errors.Wrapf(err, "config file %s", path)
		}
		return Default(), nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config %s", path)
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config %s", path)
	}
	return cfg, nil
}
