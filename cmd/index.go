package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zheng/csgraph/internal/cscope"
	"github.com/zheng/csgraph/internal/storage"
)

func indexCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Store the parsed cscope database in the SQLite index",
		Long: `Parse the cscope database once and save its files, definitions and calls
into the SQLite index. Later commands read it with --use-index, and list
queries it directly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			start := time.Now()

			store, err := cscope.Load(ctx, g.cscope, cscope.WithMaxLineLength(g.cfg.Database.MaxLineLength))
			if err != nil {
				return err
			}

			db, err := storage.Open(ctx, g.index)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.SaveStore(ctx, store, g.cscope); err != nil {
				return err
			}

			st, err := db.GetStats(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %s into %s: %d files, %d functions, %d calls (%v)\n",
				g.cscope, g.index, st.Files, st.Functions, st.Calls, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}

func listCmd(g *globals) *cobra.Command {
	var (
		limit      int
		pattern    string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List indexed functions",
		Long: `List the functions stored in the SQLite index with their location and
the number of calls they make. Run "csgraph index" first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, err := storage.Open(ctx, g.index)
			if err != nil {
				return err
			}
			defer db.Close()

			var rows []storage.FunctionRow
			if pattern != "" {
				rows, err = db.FindFunctionsByPattern(ctx, pattern)
				if err == nil && limit > 0 && len(rows) > limit {
					rows = rows[:limit]
				}
			} else {
				rows, err = db.GetAllFunctions(ctx, limit)
			}
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if jsonOutput {
				if rows == nil {
					rows = []storage.FunctionRow{}
				}
				return outputJSON(w, rows)
			}
			if len(rows) == 0 {
				fmt.Fprintln(w, "No functions found")
				return nil
			}
			for _, r := range rows {
				fmt.Fprintf(w, "%-40s %s:%d  (%d calls)\n", r.Name, r.File, r.Line, r.Calls)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of rows (0 for all)")
	cmd.Flags().StringVar(&pattern, "pattern", "", "only names containing this text")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	return cmd
}
