package display

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"gitlab.com/tozd/go/errors"

	"github.com/zheng/csgraph/internal/graph"
)

// WriteMermaid writes edges as a mermaid flowchart inside a fenced block.
// Repeated edges are written once since mermaid would draw them twice.
func WriteMermaid(w io.Writer, name string, dir graph.Direction, edges []graph.Edge) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "```mermaid\n---\ntitle: %s\n---\nflowchart LR\n", Title(name, dir))

	declared := make(map[string]bool)
	declare := func(n string) {
		if declared[n] {
			return
		}
		declared[n] = true
		fmt.Fprintf(bw, "    %s[\"%s\"]\n", NodeID(n), n)
	}
	declare(name)

	seen := make(map[graph.Edge]bool)
	for _, e := range edges {
		declare(e.From)
		declare(e.To)

		key := graph.Edge{From: e.From, To: e.To}
		if seen[key] {
			continue
		}
		seen[key] = true
		fmt.Fprintf(bw, "    %s --> %s\n", NodeID(e.From), NodeID(e.To))
	}
	bw.WriteString("```\n")

	if err := bw.Flush(); err != nil {
		return errors.Errorf("write mermaid: %w", err)
	}
	return nil
}

// NodeID turns a function name into a valid mermaid node id
func NodeID(name string) string {
	var sb strings.Builder
	sb.WriteString("n_")
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}
