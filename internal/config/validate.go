package config

import (
	"slices"
	"strings"

	"gitlab.com/tozd/go/errors"
)

var (
	ErrEmptyPath         = errors.Base("empty path")
	ErrInvalidLineLength = errors.Base("invalid max line length")
	ErrInvalidDepth      = errors.Base("invalid depth")
	ErrInvalidWorkers    = errors.Base("invalid worker count")
	ErrInvalidCacheSize  = errors.Base("invalid cache size")
	ErrInvalidFormat     = errors.Base("invalid output format")
	ErrInvalidLevel      = errors.Base("invalid log level")
)

// Formats lists the accepted query.format values
var Formats = []string{"dot", "mermaid", "tree", "json"}

// Levels lists the accepted log.level values
var Levels = []string{"debug", "info", "warn", "error"}

// Validate checks that the configuration is usable. All problems are reported together.
func Validate(cfg *Config) error {
	var errs []error

	if strings.TrimSpace(cfg.Database.Path) == "" {
		errs = append(errs, errors.Errorf("%w: database.path is required", ErrEmptyPath))
	}
	if strings.TrimSpace(cfg.Database.Index) == "" {
		errs = append(errs, errors.Errorf("%w: database.index is required", ErrEmptyPath))
	}
	if cfg.Database.MaxLineLength <= 0 {
		errs = append(errs, errors.Errorf("%w: must be positive, got %d", ErrInvalidLineLength, cfg.Database.MaxLineLength))
	}

	if cfg.Query.Depth < 0 {
		errs = append(errs, errors.Errorf("%w: must not be negative, got %d", ErrInvalidDepth, cfg.Query.Depth))
	}
	if cfg.Query.Workers < 0 {
		errs = append(errs, errors.Errorf("%w: must not be negative, got %d", ErrInvalidWorkers, cfg.Query.Workers))
	}
	if cfg.Query.CacheSize < 0 {
		errs = append(errs, errors.Errorf("%w: must not be negative, got %d", ErrInvalidCacheSize, cfg.Query.CacheSize))
	}
	if !slices.Contains(Formats, strings.ToLower(cfg.Query.Format)) {
		errs = append(errs, errors.Errorf("%w: must be one of %s, got '%s'", ErrInvalidFormat, strings.Join(Formats, ", "), cfg.Query.Format))
	}

	if !slices.Contains(Levels, strings.ToLower(cfg.Log.Level)) {
		errs = append(errs, errors.Errorf("%w: must be one of %s, got '%s'", ErrInvalidLevel, strings.Join(Levels, ", "), cfg.Log.Level))
	}

	return errors.Join(errs...)
}
