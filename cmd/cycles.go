package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func cyclesCmd(g *globals) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "cycles",
		Short: "List groups of mutually recursive functions",
		Long: `Report every strongly connected component of the call graph that forms a
cycle: recursive functions and groups of functions that call each other.
Traversals stop at their depth limit on these cycles.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := g.loadGraph(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			cycles, err := db.Cycles()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if jsonOutput {
				if cycles == nil {
					cycles = [][]string{}
				}
				return outputJSON(w, cycles)
			}
			if len(cycles) == 0 {
				fmt.Fprintln(w, "No recursion found")
				return nil
			}
			for _, c := range cycles {
				fmt.Fprintln(w, strings.Join(c, " -> "))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}
