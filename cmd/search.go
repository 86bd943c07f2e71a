package cmd

import (
	"fmt"
	"slices"

	"github.com/gobwas/glob"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

type searchResult struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

func searchCmd(g *globals) *cobra.Command {
	var (
		jsonOutput bool
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "search <pattern>",
		Short: "Find defined functions whose name matches a glob pattern",
		Long: `Match defined function names against a glob pattern (* ? [abc] {a,b}).

Example:
  csgraph search 'parse_*'
  csgraph search '*{alloc,free}*' --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			pattern, err := glob.Compile(args[0])
			if err != nil {
				return errors.Errorf("invalid pattern %q: %w", args[0], err)
			}

			db, err := g.loadGraph(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			names := db.Names()
			slices.Sort(names)

			results := []searchResult{}
			for _, name := range names {
				if !pattern.Match(name) {
					continue
				}
				r := searchResult{Name: name}
				if loc, ok := db.Location(name); ok {
					r.Location = loc.String()
				}
				results = append(results, r)
				if limit > 0 && len(results) >= limit {
					break
				}
			}

			w := cmd.OutOrStdout()
			if jsonOutput {
				return outputJSON(w, results)
			}
			if len(results) == 0 {
				fmt.Fprintf(w, "No functions match %q\n", args[0])
				return nil
			}
			for _, r := range results {
				fmt.Fprintf(w, "%-40s %s\n", r.Name, r.Location)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of matches (0 for all)")

	return cmd
}
