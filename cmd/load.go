package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
	slogctx "github.com/veqryn/slog-context"
	"gitlab.com/tozd/go/errors"

	"github.com/zheng/csgraph/internal/cscope"
	"github.com/zheng/csgraph/internal/graph"
	"github.com/zheng/csgraph/internal/storage"
)

// loadStore reads the symbol store from the cscope database, or from the
// SQLite index with --use-index
func (g *globals) loadStore(ctx context.Context) (*cscope.Store, error) {
	if g.useIndex {
		db, err := storage.Open(ctx, g.index)
		if err != nil {
			return nil, err
		}
		defer db.Close()

		store, err := db.LoadStore(ctx)
		if err != nil {
			return nil, errors.Errorf("load index %s: %w", g.index, err)
		}
		slogctx.Debug(ctx, "loaded symbols from index", "index", g.index)
		return store, nil
	}

	store, err := cscope.Load(ctx, g.cscope, cscope.WithMaxLineLength(g.cfg.Database.MaxLineLength))
	if err != nil {
		return nil, errors.Errorf("load %s: %w", g.cscope, err)
	}
	return store, nil
}

// loadGraph loads the store and builds its call graph, showing a spinner on stderr
func (g *globals) loadGraph(ctx context.Context, stderr io.Writer) (*graph.Database, error) {
	start := time.Now()

	store, err := g.loadStore(ctx)
	if err != nil {
		return nil, err
	}

	spinner := g.newSpinner(stderr, "Building call graph")
	db := graph.FromStore(store, graph.WithProgress(func(defs int) {
		spinner.Describe(fmt.Sprintf("Building call graph (%d definitions)", defs))
		_ = spinner.Add(1)
	}))
	_ = spinner.Finish()

	slogctx.Info(ctx, "call graph ready",
		"functions", db.Len(),
		"edges", db.EdgeCount(),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return db, nil
}

// newTraverser prepares a traverser configured from query.workers and query.cache_size
func (g *globals) newTraverser(db *graph.Database) (*graph.Traverser, error) {
	return graph.NewTraverser(db,
		graph.WithWorkers(g.cfg.Query.Workers),
		graph.WithCacheSize(g.cfg.Query.CacheSize),
	)
}

func (g *globals) newSpinner(w io.Writer, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetVisibility(!g.quiet),
	)
}
