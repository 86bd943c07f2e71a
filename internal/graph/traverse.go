package graph

import (
	"context"
	"runtime"
	"slices"
	"strings"

	"github.com/maypok86/otter"
	slogctx "github.com/veqryn/slog-context"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// Direction selects which way a traversal follows call edges
type Direction int

const (
	Callees Direction = iota
	Callers
)

func (d Direction) String() string {
	if d == Callers {
		return "callers"
	}
	return "callees"
}

// ErrInvalidDirection is returned by ParseDirection for unknown names
var ErrInvalidDirection = errors.Base("invalid direction")

// ParseDirection maps "callers" or "callees" to a Direction
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "callees":
		return Callees, nil
	case "callers":
		return Callers, nil
	}
	return 0, errors.Errorf("%w: %q", ErrInvalidDirection, s)
}

// Edge is one emitted call: From calls To. Depth is the BFS level (1 for
// edges touching the start function) that produced it.
type Edge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Depth int    `json:"depth"`
}

// TreeNode is one step of a traversal, shaped as a call tree
type TreeNode struct {
	Name     string      `json:"name"`
	Depth    int         `json:"depth"`
	Children []*TreeNode `json:"children,omitempty"`
}

const (
	// DefaultCacheSize bounds how many caller lists a Traverser remembers
	DefaultCacheSize = 1024
	// minParallelScan is the smallest key count worth splitting across workers
	minParallelScan = 4096
)

// TraverserOption configures NewTraverser
type TraverserOption func(*traverserOptions)

type traverserOptions struct {
	workers   int
	cacheSize int
}

// WithWorkers sets how many goroutines share a callers scan. Values below 1
// mean GOMAXPROCS.
func WithWorkers(n int) TraverserOption {
	return func(o *traverserOptions) {
		o.workers = n
	}
}

// WithCacheSize sets how many caller lists are memoised. 0 disables the cache.
func WithCacheSize(n int) TraverserOption {
	return func(o *traverserOptions) {
		o.cacheSize = n
	}
}

// Traverser answers callers/callees queries over one Database.
// It is safe for concurrent use.
type Traverser struct {
	db      *Database
	workers int
	cache   otter.Cache[string, []string]
	cached  bool
}

// NewTraverser prepares a Traverser for db
func NewTraverser(db *Database, opts ...TraverserOption) (*Traverser, error) {
	o := traverserOptions{cacheSize: DefaultCacheSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		o.workers = runtime.GOMAXPROCS(0)
	}

	t := &Traverser{db: db, workers: o.workers}
	if o.cacheSize > 0 {
		cache, err := otter.MustBuilder[string, []string](o.cacheSize).Build()
		if err != nil {
			return nil, errors.Errorf("build caller cache: %w", err)
		}
		t.cache = cache
		t.cached = true
	}
	return t, nil
}

// Close releases the caller cache
func (t *Traverser) Close() {
	if t.cached {
		t.cache.Close()
	}
}

// Query returns every edge reachable from name within maxDepth levels in
// the given direction, in BFS order. No visited set is kept: a function
// reached along several paths is expanded once per path, and only the depth
// bound stops cycles. maxDepth <= 0 yields no edges.
func (t *Traverser) Query(ctx context.Context, name string, dir Direction, maxDepth int) ([]Edge, error) {
	var edges []Edge
	err := t.walk(ctx, name, dir, maxDepth, func(e Edge, _ *TreeNode) *TreeNode {
		edges = append(edges, e)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slogctx.Debug(ctx, "traversal done", "function", name, "direction", dir, "depth", maxDepth, "edges", len(edges))
	return edges, nil
}

// Tree runs the same traversal as Query and returns the direct neighbours
// of name as roots, each carrying the subtree reached through it
func (t *Traverser) Tree(ctx context.Context, name string, dir Direction, maxDepth int) ([]*TreeNode, error) {
	var roots []*TreeNode
	err := t.walk(ctx, name, dir, maxDepth, func(e Edge, parent *TreeNode) *TreeNode {
		node := &TreeNode{Name: e.To, Depth: e.Depth}
		if dir == Callers {
			node.Name = e.From
		}
		if parent == nil {
			roots = append(roots, node)
		} else {
			parent.Children = append(parent.Children, node)
		}
		return node
	})
	if err != nil {
		return nil, err
	}
	return roots, nil
}

type workItem struct {
	name      string
	remaining int
	level     int
	node      *TreeNode
}

// walk drives the BFS work queue. visit is called for every emitted edge
// with the tree node of the expanded function and returns the node for
// the neighbour.
func (t *Traverser) walk(ctx context.Context, name string, dir Direction, maxDepth int, visit func(Edge, *TreeNode) *TreeNode) error {
	if maxDepth <= 0 {
		return nil
	}

	queue := []workItem{{name: name, remaining: maxDepth, level: 1}}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		item := queue[0]
		queue = queue[1:]

		next, err := t.neighbours(ctx, item.name, dir)
		if err != nil {
			return err
		}

		for _, n := range next {
			e := Edge{From: item.name, To: n, Depth: item.level}
			if dir == Callers {
				e = Edge{From: n, To: item.name, Depth: item.level}
			}
			child := visit(e, item.node)
			if item.remaining > 1 {
				queue = append(queue, workItem{
					name:      n,
					remaining: item.remaining - 1,
					level:     item.level + 1,
					node:      child,
				})
			}
		}
	}
	return nil
}

func (t *Traverser) neighbours(ctx context.Context, name string, dir Direction) ([]string, error) {
	if dir == Callees {
		return t.db.callees[name], nil
	}
	return t.callers(ctx, name)
}

// Callers returns every defined function whose callees contain name, in
// key order
func (t *Traverser) Callers(ctx context.Context, name string) ([]string, error) {
	callers, err := t.callers(ctx, name)
	if err != nil {
		return nil, err
	}
	return slices.Clone(callers), nil
}

// callers returns the memoised slice, which must not be modified
func (t *Traverser) callers(ctx context.Context, name string) ([]string, error) {
	if t.cached {
		if callers, ok := t.cache.Get(name); ok {
			return callers, nil
		}
	}

	callers, err := t.scanCallers(ctx, name)
	if err != nil {
		return nil, err
	}

	if t.cached {
		t.cache.Set(name, callers)
	}
	return callers, nil
}

// scanCallers checks every key of the database. Large databases are split
// into contiguous chunks, one per worker, and the results are joined in
// chunk order so the output matches a sequential scan.
func (t *Traverser) scanCallers(ctx context.Context, name string) ([]string, error) {
	keys := t.db.names
	if t.workers <= 1 || len(keys) < minParallelScan {
		return t.scanChunk(ctx, keys, name)
	}

	size := (len(keys) + t.workers - 1) / t.workers
	chunks := make([][]string, 0, t.workers)
	for lo := 0; lo < len(keys); lo += size {
		chunks = append(chunks, keys[lo:min(lo+size, len(keys))])
	}

	results := make([][]string, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		g.Go(func() error {
			found, err := t.scanChunk(gctx, chunk, name)
			results[i] = found
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var callers []string
	for _, found := range results {
		callers = append(callers, found...)
	}
	return callers, nil
}

func (t *Traverser) scanChunk(ctx context.Context, keys []string, name string) ([]string, error) {
	var found []string
	for i, k := range keys {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if slices.Contains(t.db.callees[k], name) {
			found = append(found, k)
		}
	}
	return found, nil
}

// Query runs a single uncached traversal over db
func Query(ctx context.Context, db *Database, name string, dir Direction, maxDepth int) ([]Edge, error) {
	t, err := NewTraverser(db, WithCacheSize(0))
	if err != nil {
		return nil, err
	}
	defer t.Close()
	return t.Query(ctx, name, dir, maxDepth)
}
