package graph

import (
	"context"
	"fmt"
	"slices"

	"github.com/zheng/csgraph/internal/cscope"
)

// progressInterval is how many definitions are added between progress callbacks
const progressInterval = 1000

// Database maps each defined function name to the distinct names it calls,
// in the order the calls were first recorded. It is read-only once built.
type Database struct {
	names     []string            // keys in insertion order
	callees   map[string][]string // function -> callees
	locations map[string]Location // first definition
}

// Location is where a function is defined
type Location struct {
	File string `json:"file"`
	Line int    `json:"line"`
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// BuildOption configures FromStore
type BuildOption func(*builder)

// WithProgress registers fn to be called with the running number of
// definitions processed, every 1000 definitions
func WithProgress(fn func(defs int)) BuildOption {
	return func(b *builder) {
		b.progress = fn
	}
}

// builder accumulates definitions into a Database
type builder struct {
	db       *Database
	edgeSet  map[edgeKey]struct{}
	defs     int
	progress func(int)
}

type edgeKey struct{ from, to string }

// FromStore builds the call graph from every definition in the store.
// Definitions sharing a name (e.g. static functions in different files) are
// merged into one node.
func FromStore(s *cscope.Store, opts ...BuildOption) *Database {
	b := &builder{
		db: &Database{
			callees:   make(map[string][]string),
			locations: make(map[string]Location),
		},
		edgeSet: make(map[edgeKey]struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}

	for _, f := range s.Files {
		for _, fn := range f.Functions {
			b.add(f, fn)
		}
	}
	return b.db
}

// Load parses a cscope database and builds its call graph
func Load(ctx context.Context, data []byte, opts ...cscope.Option) (*Database, error) {
	s, err := cscope.Parse(ctx, data, opts...)
	if err != nil {
		return nil, err
	}
	return FromStore(s), nil
}

func (b *builder) add(f *cscope.File, fn *cscope.Function) {
	if _, ok := b.db.callees[fn.Name]; !ok {
		b.db.names = append(b.db.names, fn.Name)
		// Functions without calls still need a key
		b.db.callees[fn.Name] = []string{}
		b.db.locations[fn.Name] = Location{File: f.Name, Line: fn.Line}
	}

	for _, call := range fn.Calls {
		key := edgeKey{fn.Name, call.Name}
		if _, dup := b.edgeSet[key]; dup {
			continue
		}
		b.edgeSet[key] = struct{}{}
		b.db.callees[fn.Name] = append(b.db.callees[fn.Name], call.Name)
	}

	b.defs++
	if b.progress != nil && b.defs%progressInterval == 0 {
		b.progress(b.defs)
	}
}

// Callees returns the direct callees of name and whether name is a defined function
func (db *Database) Callees(name string) ([]string, bool) {
	callees, ok := db.callees[name]
	return slices.Clone(callees), ok
}

// Has reports whether name has at least one recorded definition
func (db *Database) Has(name string) bool {
	_, ok := db.callees[name]
	return ok
}

// Names returns the defined functions in the order they were first seen
func (db *Database) Names() []string {
	return slices.Clone(db.names)
}

// Len returns the number of defined functions
func (db *Database) Len() int {
	return len(db.names)
}

// Location returns where name was first defined
func (db *Database) Location(name string) (Location, bool) {
	loc, ok := db.locations[name]
	return loc, ok
}

// EdgeCount returns the number of distinct call edges
func (db *Database) EdgeCount() int {
	n := 0
	for _, callees := range db.callees {
		n += len(callees)
	}
	return n
}
