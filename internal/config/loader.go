package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
	"gitlab.com/tozd/go/errors"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir string
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string) Loader {
	return &loader{
		rootDir: rootDir,
	}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (CSGRAPH_*)
// 2. Config file (.csgraph.yaml or .csgraph.yml in the root directory)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".csgraph")
	v.SetConfigType("yaml")
	v.AddConfigPath(l.rootDir)

	// e.g. CSGRAPH_QUERY_DEPTH
	v.SetEnvPrefix("CSGRAPH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for _, key := range []string{
		"database.path",
		"database.index",
		"database.max_line_length",
		"query.depth",
		"query.workers",
		"query.cache_size",
		"query.format",
		"log.level",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, errors.Errorf("bind %s: %w", key, err)
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing file means defaults + env
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, errors.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("database.path", defaults.Database.Path)
	v.SetDefault("database.index", defaults.Database.Index)
	v.SetDefault("database.max_line_length", defaults.Database.MaxLineLength)

	v.SetDefault("query.depth", defaults.Query.Depth)
	v.SetDefault("query.workers", defaults.Query.Workers)
	v.SetDefault("query.cache_size", defaults.Query.CacheSize)
	v.SetDefault("query.format", defaults.Query.Format)

	v.SetDefault("log.level", defaults.Log.Level)
}

// LoadConfig loads configuration rooted at the current working directory.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}
