package display

import (
	"bufio"
	"fmt"
	"io"

	"gitlab.com/tozd/go/errors"

	"github.com/zheng/csgraph/internal/graph"
)

// Title names a traversal the way the digraph header does
func Title(name string, dir graph.Direction) string {
	if dir == graph.Callers {
		return "Callers to " + name
	}
	return "Callees of " + name
}

// WriteDigraph writes edges as a DOT digraph:
//
//	digraph "Callees of main" {
//	    main -> helper
//	}
func WriteDigraph(w io.Writer, name string, dir graph.Direction, edges []graph.Edge) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "digraph \"%s\" {\n", Title(name, dir))
	for _, e := range edges {
		fmt.Fprintf(bw, "    %s -> %s\n", e.From, e.To)
	}
	bw.WriteString("}\n")

	if err := bw.Flush(); err != nil {
		return errors.Errorf("write digraph: %w", err)
	}
	return nil
}
