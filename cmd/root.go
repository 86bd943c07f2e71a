package cmd

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	slogctx "github.com/veqryn/slog-context"
	"gitlab.com/tozd/go/errors"

	"github.com/zheng/csgraph/internal/config"
	"github.com/zheng/csgraph/internal/logging"
)

// globals holds the persistent flags merged over the loaded configuration
type globals struct {
	cscope   string
	index    string
	useIndex bool
	logLevel string
	quiet    bool

	cfg *config.Config
}

// NewRootCmd builds the csgraph command tree
func NewRootCmd() *cobra.Command {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:   "csgraph",
		Short: "Call graphs from cscope databases",
		Long: `csgraph reads a cscope cross-reference database (cscope.out), rebuilds
the static call graph and answers who calls a function and what it calls.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.init(cmd)
		},
	}

	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&g.cscope, "cscope", "c", "", "cscope database path (default from config: cscope.out)")
	pf.StringVar(&g.index, "index", "", "SQLite index path (default from config: .csgraph.db)")
	pf.BoolVar(&g.useIndex, "use-index", false, "read symbols from the SQLite index instead of the cscope database")
	pf.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.BoolVarP(&g.quiet, "quiet", "q", false, "only log warnings and hide progress")

	RegisterCommands(rootCmd, g)
	return rootCmd
}

// RegisterCommands adds all subcommands to the root command
func RegisterCommands(rootCmd *cobra.Command, g *globals) {
	rootCmd.AddCommand(graphCmd(g))
	rootCmd.AddCommand(callersCmd(g))
	rootCmd.AddCommand(calleesCmd(g))
	rootCmd.AddCommand(impactCmd(g))
	rootCmd.AddCommand(infoCmd(g))
	rootCmd.AddCommand(searchCmd(g))
	rootCmd.AddCommand(indexCmd(g))
	rootCmd.AddCommand(listCmd(g))
	rootCmd.AddCommand(watchCmd(g))
	rootCmd.AddCommand(cyclesCmd(g))
	rootCmd.AddCommand(dumpCmd(g))
	rootCmd.AddCommand(exportCmd(g))
}

// Execute runs the command line with args
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	rootCmd := NewRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	return rootCmd.ExecuteContext(ctx)
}

// init loads the configuration, lets explicitly set flags win and installs the logger
func (g *globals) init(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	g.cfg = cfg

	flags := cmd.Flags()
	if !flags.Changed("cscope") {
		g.cscope = cfg.Database.Path
	}
	if !flags.Changed("index") {
		g.index = cfg.Database.Index
	}
	if !flags.Changed("log-level") {
		g.logLevel = cfg.Log.Level
	}

	level, err := logging.ParseLevel(g.logLevel)
	if err != nil {
		return errors.Errorf("--log-level: %w", err)
	}
	if g.quiet && level < logging.QuietLevel {
		level = logging.QuietLevel
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logging.Setup(ctx, cmd.ErrOrStderr(), level)
	ctx = slogctx.With(ctx, "cmd", cmd.Name())
	cmd.SetContext(ctx)
	return nil
}
