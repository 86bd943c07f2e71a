package cmd

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// openOutput returns the command's stdout for "" or "-", otherwise a created file
func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, errors.Errorf("create output file: %w", err)
	}
	return f, f.Close, nil
}

// resolveDepth returns the --depth flag when set, otherwise query.depth
func (g *globals) resolveDepth(cmd *cobra.Command, name string, depth int) (int, error) {
	if !cmd.Flags().Changed(name) {
		depth = g.cfg.Query.Depth
	}
	if depth < 0 {
		return 0, errors.Errorf("--%s must not be negative, got %d", name, depth)
	}
	return depth, nil
}
