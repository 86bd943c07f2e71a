package cmd

import (
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/zheng/csgraph/internal/display"
	"github.com/zheng/csgraph/internal/graph"
)

func graphCmd(g *globals) *cobra.Command {
	var (
		function   string
		outputFile string
		depth      int
		callers    bool
		callees    bool
	)

	cmd := &cobra.Command{
		Use:   "graph -f <function>",
		Short: "Print the callers and/or callees of a function as a DOT digraph",
		Long: `Print a DOT digraph of the functions calling (-x) or called by (-y)
a function, up to the given depth. Without -x or -y callees are printed;
with both, the callers digraph comes first.

Example:
  csgraph graph -c cscope.out -f main -d 3 -o main.dot`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if function == "" {
				return errors.New("a function name is required (-f)")
			}
			depth, err := g.resolveDepth(cmd, "depth", depth)
			if err != nil {
				return err
			}

			var dirs []graph.Direction
			if callers {
				dirs = append(dirs, graph.Callers)
			}
			if callees || !callers {
				dirs = append(dirs, graph.Callees)
			}

			db, err := g.loadGraph(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			tr, err := g.newTraverser(db)
			if err != nil {
				return err
			}
			defer tr.Close()

			w, closeOut, err := openOutput(cmd, outputFile)
			if err != nil {
				return err
			}
			defer closeOut()

			for _, dir := range dirs {
				edges, err := tr.Query(ctx, function, dir, depth)
				if err != nil {
					return errors.Errorf("query %s of %s: %w", dir, function, err)
				}
				if err := display.WriteDigraph(w, function, dir, edges); err != nil {
					return err
				}
			}
			return closeOut()
		},
	}

	cmd.Flags().StringVarP(&function, "function", "f", "", "function to graph")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default stdout)")
	cmd.Flags().IntVarP(&depth, "depth", "d", 2, "maximum call depth")
	cmd.Flags().BoolVarP(&callers, "callers", "x", false, "print the callers of the function")
	cmd.Flags().BoolVarP(&callees, "callees", "y", false, "print the callees of the function")

	return cmd
}
