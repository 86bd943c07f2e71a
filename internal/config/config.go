package config

import "github.com/zheng/csgraph/internal/cscope"

// Config represents the complete csgraph configuration.
// It can be loaded from .csgraph.yaml with environment variable overrides.
type Config struct {
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	Query    QueryConfig    `yaml:"query" mapstructure:"query"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// DatabaseConfig locates the cscope database and its SQLite index.
type DatabaseConfig struct {
	Path          string `yaml:"path" mapstructure:"path"`                       // cscope.out
	Index         string `yaml:"index" mapstructure:"index"`                     // SQLite index file
	MaxLineLength int    `yaml:"max_line_length" mapstructure:"max_line_length"` // longest accepted record
}

// QueryConfig tunes traversals.
type QueryConfig struct {
	Depth     int    `yaml:"depth" mapstructure:"depth"`
	Workers   int    `yaml:"workers" mapstructure:"workers"`       // 0 = GOMAXPROCS
	CacheSize int    `yaml:"cache_size" mapstructure:"cache_size"` // memoised caller lists, 0 disables
	Format    string `yaml:"format" mapstructure:"format"`         // dot, mermaid, tree or json
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"` // debug, info, warn or error
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:          "cscope.out",
			Index:         ".csgraph.db",
			MaxLineLength: cscope.DefaultMaxLineLength,
		},
		Query: QueryConfig{
			Depth:     2,
			Workers:   0,
			CacheSize: 1024,
			Format:    "dot",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
