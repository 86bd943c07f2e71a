package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/zheng/csgraph/internal/display"
	"github.com/zheng/csgraph/internal/graph"
)

func callersCmd(g *globals) *cobra.Command {
	return queryCmd(g, graph.Callers, "callers <function>", "Show the functions that transitively call a function")
}

func calleesCmd(g *globals) *cobra.Command {
	return queryCmd(g, graph.Callees, "callees <function>", "Show the functions a function transitively calls")
}

// queryResult is the JSON form of a traversal
type queryResult struct {
	Function  string       `json:"function"`
	Direction string       `json:"direction"`
	Depth     int          `json:"depth"`
	Edges     []graph.Edge `json:"edges"`
}

func queryCmd(g *globals, dir graph.Direction, use, short string) *cobra.Command {
	var (
		depth      int
		format     string
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			funcName := args[0]

			depth, err := g.resolveDepth(cmd, "depth", depth)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("format") {
				format = g.cfg.Query.Format
			}
			format = strings.ToLower(format)

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

			switch format {
			case "tree":
				tree, err := tr.Tree(ctx, funcName, dir, depth)
				if err != nil {
					return errors.Errorf("query %s of %s: %w", dir, funcName, err)
				}
				locate := display.DatabaseLocator(db)

				target := funcName
				if loc := locate(funcName); loc != "" {
					target += "  " + loc
				}
				fmt.Fprintf(w, "%s\n\n", target)
				if len(tree) == 0 {
					fmt.Fprintf(w, "%s\n└── (none)\n", display.Title(funcName, dir))
				} else {
					fmt.Fprintf(w, "%s (depth %d)\n", display.Title(funcName, dir), depth)
					fmt.Fprint(w, display.FormatCallTree(tree, locate))
				}

			case "dot", "mermaid", "json":
				edges, err := tr.Query(ctx, funcName, dir, depth)
				if err != nil {
					return errors.Errorf("query %s of %s: %w", dir, funcName, err)
				}
				switch format {
				case "dot":
					err = display.WriteDigraph(w, funcName, dir, edges)
				case "mermaid":
					err = display.WriteMermaid(w, funcName, dir, edges)
				default:
					if edges == nil {
						edges = []graph.Edge{}
					}
					err = outputJSON(w, queryResult{Function: funcName, Direction: dir.String(), Depth: depth, Edges: edges})
				}
				if err != nil {
					return err
				}

			default:
				return errors.Errorf("unknown format %q (dot, mermaid, tree or json)", format)
			}

			return closeOut()
		},
	}

	cmd.Flags().IntVar(&depth, "depth", 2, "maximum call depth (default from config)")
	cmd.Flags().StringVar(&format, "format", "dot", "output format: dot, mermaid, tree or json")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default stdout)")

	return cmd
}
