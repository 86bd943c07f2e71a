package graph

import (
	"io"
	"slices"

	dgraph "github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"
	"gitlab.com/tozd/go/errors"
)

// Directed copies the database into a dominikbraun graph. Called functions
// without a definition become vertices too.
func (db *Database) Directed() (dgraph.Graph[string, string], error) {
	g := dgraph.New(dgraph.StringHash, dgraph.Directed())

	addVertex := func(name string) error {
		if err := g.AddVertex(name); err != nil && !errors.Is(err, dgraph.ErrVertexAlreadyExists) {
			return errors.Errorf("add vertex %q: %w", name, err)
		}
		return nil
	}

	for _, name := range db.names {
		if err := addVertex(name); err != nil {
			return nil, err
		}
		for _, callee := range db.callees[name] {
			if err := addVertex(callee); err != nil {
				return nil, err
			}
		}
	}

	for _, name := range db.names {
		for _, callee := range db.callees[name] {
			if err := g.AddEdge(name, callee); err != nil && !errors.Is(err, dgraph.ErrEdgeAlreadyExists) {
				return nil, errors.Errorf("add edge %q -> %q: %w", name, callee, err)
			}
		}
	}
	return g, nil
}

// Cycles returns each group of functions that reach each other through
// calls, including functions that call themselves. Members are sorted and
// groups are ordered by their first member.
func (db *Database) Cycles() ([][]string, error) {
	g, err := db.Directed()
	if err != nil {
		return nil, err
	}

	sccs, err := dgraph.StronglyConnectedComponents(g)
	if err != nil {
		return nil, errors.Errorf("strongly connected components: %w", err)
	}

	var cycles [][]string
	for _, scc := range sccs {
		if len(scc) == 1 && !slices.Contains(db.callees[scc[0]], scc[0]) {
			continue
		}
		slices.Sort(scc)
		cycles = append(cycles, scc)
	}
	slices.SortFunc(cycles, func(a, b []string) int {
		return slices.Compare(a, b)
	})
	return cycles, nil
}

// WriteDOT renders the whole call graph in DOT
func (db *Database) WriteDOT(w io.Writer) error {
	g, err := db.Directed()
	if err != nil {
		return err
	}
	if err := draw.DOT(g, w); err != nil {
		return errors.Errorf("render call graph: %w", err)
	}
	return nil
}
