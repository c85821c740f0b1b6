// Package config loads the bootstrap configuration every task recognizes
// through its --config option.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the settings the entity manager and tasks bootstrap from.
type Config struct {
	// DatabasePath is the sqlite database file, or ":memory:".
	DatabasePath string `mapstructure:"database_path"`
	// MappingsDir is the directory of YAML entity mapping files.
	MappingsDir string `mapstructure:"mappings_dir"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		DatabasePath: "~/.local/share/marrow/marrow.db",
		MappingsDir:  "./mappings",
		LogLevel:     "info",
	}
}

// Load reads the configuration. When path is non-empty it names the file to
// read and must exist. When empty, config.yaml is searched for under
// ~/.config/marrow; a missing file yields defaults. MARROW_* environment
// variables override file values either way.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	def := Default()
	v.SetDefault("database_path", def.DatabasePath)
	v.SetDefault("mappings_dir", def.MappingsDir)
	v.SetDefault("log_level", def.LogLevel)

	v.SetEnvPrefix("MARROW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to find home directory: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, ".config", "marrow"))
		v.SetConfigName("config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			// No config file, defaults plus environment apply.
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.ExpandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that all config values are usable.
func (c *Config) Validate() error {
	var errs []error

	if c.DatabasePath == "" {
		errs = append(errs, errors.New("database_path must be non-empty"))
	}
	if c.MappingsDir == "" {
		errs = append(errs, errors.New("mappings_dir must be non-empty"))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", c.LogLevel))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ExpandPaths expands ~ to the home directory in all path fields.
func (c *Config) ExpandPaths() error {
	var err error

	if c.DatabasePath != ":memory:" {
		c.DatabasePath, err = expandPath(c.DatabasePath)
		if err != nil {
			return fmt.Errorf("failed to expand database_path: %w", err)
		}
	}

	c.MappingsDir, err = expandPath(c.MappingsDir)
	if err != nil {
		return fmt.Errorf("failed to expand mappings_dir: %w", err)
	}
	return nil
}

// expandPath expands a leading ~ to the user's home directory and cleans
// the result.
func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[1:])
	}
	return filepath.Clean(path), nil
}
