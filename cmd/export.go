package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zheng/csgraph/internal/export"
)

func exportCmd(g *globals) *cobra.Command {
	var (
		outputFile   string
		projectName  string
		noMermaid    bool
		diagramLimit int
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a Markdown overview of the call graph",
		Long: `Write a Markdown document listing every file's functions with their
callers and callees, a diagram of the most called functions and a change
impact table.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := g.loadGraph(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			opts := export.DefaultExportOptions()
			opts.IncludeMermaid = !noMermaid
			opts.DiagramLimit = diagramLimit
			if projectName != "" {
				opts.ProjectName = projectName
			}

			w, closeOut, err := openOutput(cmd, outputFile)
			if err != nil {
				return err
			}
			defer closeOut()

			if err := export.NewExporter(db).Export(w, opts); err != nil {
				return err
			}
			if outputFile != "" && outputFile != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d functions to %s\n", db.Len(), outputFile)
			}
			return closeOut()
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&projectName, "project", "", "project name used in the title")
	cmd.Flags().BoolVar(&noMermaid, "no-mermaid", false, "omit the Mermaid diagram")
	cmd.Flags().IntVar(&diagramLimit, "diagram-limit", 20, "most called functions drawn in the diagram")

	return cmd
}
