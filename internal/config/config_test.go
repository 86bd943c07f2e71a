package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()

	require.NoError(t, Validate(cfg))
	assert.Equal(t, "cscope.out", cfg.Database.Path)
	assert.Equal(t, ".csgraph.db", cfg.Database.Index)
	assert.Equal(t, 1024, cfg.Database.MaxLineLength)
	assert.Equal(t, 2, cfg.Query.Depth)
	assert.Equal(t, 0, cfg.Query.Workers)
	assert.Equal(t, 1024, cfg.Query.CacheSize)
	assert.Equal(t, "dot", cfg.Query.Format)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_NoConfigFile(t *testing.T) {
	cfg, err := NewLoader(t.TempDir()).Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `
database:
  path: build/cscope.out
query:
  depth: 4
  format: tree
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".csgraph.yaml"), []byte(content), 0o644))

	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)

	assert.Equal(t, "build/cscope.out", cfg.Database.Path)
	assert.Equal(t, 4, cfg.Query.Depth)
	assert.Equal(t, "tree", cfg.Query.Format)
	// untouched keys keep their defaults
	assert.Equal(t, ".csgraph.db", cfg.Database.Index)
	assert.Equal(t, 1024, cfg.Query.CacheSize)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".csgraph.yaml"), []byte("query:\n  depth: 4\n"), 0o644))

	t.Setenv("CSGRAPH_QUERY_DEPTH", "7")
	t.Setenv("CSGRAPH_LOG_LEVEL", "debug")

	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Query.Depth)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".csgraph.yaml"), []byte("query: [depth\n"), 0o644))

	_, err := NewLoader(dir).Load()
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".csgraph.yaml"), []byte("query:\n  depth: -1\n"), 0o644))

	_, err := NewLoader(dir).Load()
	assert.ErrorIs(t, err, ErrInvalidDepth)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"empty path", func(c *Config) { c.Database.Path = " " }, ErrEmptyPath},
		{"empty index", func(c *Config) { c.Database.Index = "" }, ErrEmptyPath},
		{"zero line length", func(c *Config) { c.Database.MaxLineLength = 0 }, ErrInvalidLineLength},
		{"negative depth", func(c *Config) { c.Query.Depth = -2 }, ErrInvalidDepth},
		{"negative workers", func(c *Config) { c.Query.Workers = -1 }, ErrInvalidWorkers},
		{"negative cache", func(c *Config) { c.Query.CacheSize = -1 }, ErrInvalidCacheSize},
		{"unknown format", func(c *Config) { c.Query.Format = "svg" }, ErrInvalidFormat},
		{"unknown level", func(c *Config) { c.Log.Level = "trace" }, ErrInvalidLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.ErrorIs(t, Validate(cfg), tt.want)
		})
	}
}

func TestValidate_ReportsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Query.Depth = -1
	cfg.Log.Level = "loud"

	err := Validate(cfg)
	assert.ErrorIs(t, err, ErrInvalidDepth)
	assert.ErrorIs(t, err, ErrInvalidLevel)
}

func TestValidate_FormatIsCaseInsensitive(t *testing.T) {
	cfg := Default()
	cfg.Query.Format = "Mermaid"
	assert.NoError(t, Validate(cfg))
}
