package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	slogctx "github.com/veqryn/slog-context"
	"gitlab.com/tozd/go/errors"

	"github.com/zheng/csgraph/internal/impact"
)

func impactCmd(g *globals) *cobra.Command {
	var (
		upstreamDepth   int
		downstreamDepth int
		format          string
	)

	cmd := &cobra.Command{
		Use:   "impact <function>",
		Short: "Analyze which functions a change to a function may affect",
		Long: `List the distinct direct and indirect callers and callees of a function.
The name may be a glob pattern matching exactly one defined function.

Example:
  csgraph impact parse_args --upstream-depth 4
  csgraph impact 'parse_*' --format markdown`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			up, err := g.resolveDepth(cmd, "upstream-depth", upstreamDepth)
			if err != nil {
				return err
			}
			down, err := g.resolveDepth(cmd, "downstream-depth", downstreamDepth)
			if err != nil {
				return err
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

			report, err := impact.NewAnalyzer(db, tr).AnalyzeImpact(ctx, args[0], up, down)
			if err != nil {
				return err
			}
			slogctx.Debug(ctx, "impact analyzed", "summary", report.Summary())

			w := cmd.OutOrStdout()
			switch format {
			case "json":
				return outputJSON(w, report)
			case "markdown":
				fmt.Fprint(w, report.FormatMarkdown())
			case "text":
				fmt.Fprint(w, report.FormatTree())
			default:
				return errors.Errorf("unknown format %q (text, json or markdown)", format)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&upstreamDepth, "upstream-depth", 2, "caller depth (default from config)")
	cmd.Flags().IntVar(&downstreamDepth, "downstream-depth", 2, "callee depth (default from config)")
	cmd.Flags().StringVar(&format, "format", "text", "output format: text, json or markdown")

	return cmd
}
