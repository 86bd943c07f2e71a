package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	slogctx "github.com/veqryn/slog-context"

	"github.com/zheng/csgraph/internal/cscope"
	"github.com/zheng/csgraph/internal/watcher"
)

func watchCmd(g *globals) *cobra.Command {
	var debounceMs int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-index the cscope database whenever it changes",
		Long: `Index the cscope database, then keep the SQLite index current by
re-indexing every time cscope rewrites the database.

Example:
  csgraph watch                  # watch ./cscope.out
  csgraph watch --debounce 1000  # wait 1s after the last change`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			errOut := cmd.ErrOrStderr()

			stamp := func() string { return time.Now().Format("15:04:05") }

			w, err := watcher.New(
				g.cscope,
				g.index,
				watcher.WithDebounceDelay(time.Duration(debounceMs)*time.Millisecond),
				watcher.WithParseOptions(cscope.WithMaxLineLength(g.cfg.Database.MaxLineLength)),
				watcher.WithOnRebuildStart(func() {
					fmt.Fprintf(out, "[%s] database changed, re-indexing...\n", stamp())
				}),
				watcher.WithOnRebuildDone(func(st cscope.Stats, duration time.Duration) {
					fmt.Fprintf(out, "[%s] indexed %s functions, %s calls (%v)\n",
						stamp(), humanize.Comma(int64(st.Functions)), humanize.Comma(int64(st.Calls)), duration.Round(time.Millisecond))
				}),
				watcher.WithOnError(func(err error) {
					fmt.Fprintf(errOut, "[%s] error: %v\n", stamp(), err)
				}),
			)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Watching %s\n", g.cscope)
			fmt.Fprintf(out, "Index:    %s\n", g.index)
			fmt.Fprintf(out, "Debounce: %dms\n", debounceMs)

			// Start from a current index; a missing database is picked up when created
			if st, err := w.Rebuild(ctx); err != nil {
				slogctx.Warn(ctx, "initial index failed", "err", err)
			} else {
				fmt.Fprintf(out, "[%s] indexed %s functions, %s calls\n",
					stamp(), humanize.Comma(int64(st.Functions)), humanize.Comma(int64(st.Calls)))
			}

			w.Start(ctx)
			fmt.Fprintln(out, "Press Ctrl+C to stop")

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			select {
			case <-sigCh:
			case <-ctx.Done():
			}

			fmt.Fprintln(out, "\nStopping...")
			return w.Stop()
		},
	}

	cmd.Flags().IntVar(&debounceMs, "debounce", 500, "debounce delay in milliseconds")

	return cmd
}
