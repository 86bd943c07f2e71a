package cmd

import (
	"github.com/spf13/cobra"
)

func dumpCmd(g *globals) *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Write the whole call graph as DOT",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := g.loadGraph(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			w, closeOut, err := openOutput(cmd, outputFile)
			if err != nil {
				return err
			}
			defer closeOut()

			if err := db.WriteDOT(w); err != nil {
				return err
			}
			return closeOut()
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default stdout)")
	return cmd
}
