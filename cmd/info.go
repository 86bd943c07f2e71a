package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/zheng/csgraph/internal/storage"
)

func infoCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Describe the cscope database and its index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w := cmd.OutOrStdout()

			store, err := g.loadStore(ctx)
			if err != nil {
				return err
			}
			h := store.Header
			st := store.Stats()

			fmt.Fprintf(w, "Database:   %s", g.cscope)
			if fi, err := os.Stat(g.cscope); err == nil {
				fmt.Fprintf(w, " (%s)", humanize.Bytes(uint64(fi.Size())))
			}
			fmt.Fprintln(w)
			fmt.Fprintf(w, "Version:    %d\n", h.Version)
			fmt.Fprintf(w, "Directory:  %s\n", h.Dir)

			var opts []string
			if h.Compressed {
				opts = append(opts, "compressed")
			}
			if h.PrefixMatch {
				opts = append(opts, "truncated symbols")
			}
			if h.InvertedIndex {
				opts = append(opts, fmt.Sprintf("inverted index (%s symbols)", humanize.Comma(int64(h.InvertedSymbols))))
			}
			if len(opts) > 0 {
				fmt.Fprintf(w, "Options:    %s\n", strings.Join(opts, ", "))
			}

			fmt.Fprintf(w, "Files:      %s\n", humanize.Comma(int64(st.Files)))
			fmt.Fprintf(w, "Functions:  %s\n", humanize.Comma(int64(st.Functions)))
			fmt.Fprintf(w, "Calls:      %s\n", humanize.Comma(int64(st.Calls)))
			fmt.Fprintf(w, "Sources:    %d listed, %d include dirs, %d view paths\n",
				len(store.Trailer.Sources), len(store.Trailer.Includes), len(store.Trailer.ViewPaths))

			if _, err := os.Stat(g.index); err != nil {
				fmt.Fprintf(w, "Index:      %s (not built)\n", g.index)
				return nil
			}
			db, err := storage.Open(ctx, g.index)
			if err != nil {
				return err
			}
			defer db.Close()

			info, err := db.GetInfo(ctx)
			if errors.Is(err, storage.ErrNotIndexed) {
				fmt.Fprintf(w, "Index:      %s (empty)\n", g.index)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "Index:      %s (from %s, %s)\n", g.index, info.Source, humanize.Time(info.IndexedAt))
			return nil
		},
	}
}
