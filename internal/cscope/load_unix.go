//go:build unix

package cscope

import (
	"context"
	"os"

	slogctx "github.com/veqryn/slog-context"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sys/unix"
)

// Load maps the database at path read-only, parses it and unmaps it again
func Load(ctx context.Context, path string, opts ...Option) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Errorf("open cscope database: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, errors.Errorf("stat cscope database: %w", err)
	}
	if info.Size() == 0 {
		return Parse(ctx, nil, opts...)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(info.Size()), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return nil, errors.Errorf("map cscope database: %w", err)
	}
	defer func() {
		if err := unix.Munmap(data); err != nil {
			slogctx.Warn(ctx, "unmapping cscope database", "path", path, "error", err)
		}
	}()

	slogctx.Debug(ctx, "mapped cscope database", "path", path, "size", info.Size())
	return Parse(ctx, data, opts...)
}
