//go:build !unix

package cscope

import (
	"context"
	"os"

	slogctx "github.com/veqryn/slog-context"
	"gitlab.com/tozd/go/errors"
)

// Load reads the database at path into memory and parses it
func Load(ctx context.Context, path string, opts ...Option) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("read cscope database: %w", err)
	}

	slogctx.Debug(ctx, "read cscope database", "path", path, "size", len(data))
	return Parse(ctx, data, opts...)
}
