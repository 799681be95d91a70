// Command linlog loads a linear logic program and answers queries against it.
//
//	linlog query -p pantry.yaml "bake(bread)"
//	linlog query -p family.yaml --all --explain "ancestor(alice, Who)"
//	linlog check -p pantry.yaml
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cognicore/linlog/pkg/linlog"
	"github.com/cognicore/linlog/pkg/linlog/config"
	"github.com/cognicore/linlog/pkg/linlog/solution"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type cli struct {
	verbose     bool
	programPath string
	configPath  string

	all     bool
	explain bool
	htmlOut string
	traceDB string

	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "linlog",
		Short:         "Linear logic resolution over resource-aware knowledge bases",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := zap.NewProductionConfig()
			cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
			if c.verbose {
				cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			c.logger, err = cfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVarP(&c.programPath, "program", "p", "", "Program file (YAML)")
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "Runtime config file (YAML)")

	query := &cobra.Command{
		Use:   "query GOALS",
		Short: "Prove a comma-separated goal list",
		Long: `Proves GOALS against the program.

By default the query runs once with forward resolution and prints the first
solution, or false. With --all every solution is enumerated by backtracking
and the knowledge base is left untouched.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runQuery(cmd.Context(), cmd.OutOrStdout(), strings.Join(args, " "))
		},
	}
	query.Flags().BoolVar(&c.all, "all", false, "Enumerate all solutions by backtracking")
	query.Flags().BoolVar(&c.explain, "explain", false, "Print the resolution trace")
	query.Flags().StringVar(&c.htmlOut, "html", "", "Write the resolution trace as HTML to this file")
	query.Flags().StringVar(&c.traceDB, "trace-db", "", "Append the resolution trace to this SQLite database")

	check := &cobra.Command{
		Use:   "check",
		Short: "Load a program and report its contents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCheck(cmd.Context(), cmd.OutOrStdout())
		},
	}

	root.AddCommand(query, check)
	return root
}

func (c *cli) open(ctx context.Context, tracing bool) (*linlog.Runtime, error) {
	if c.programPath == "" {
		return nil, fmt.Errorf("--program required")
	}
	loader := config.Loader{ConfigPath: c.configPath, ProgramPath: c.programPath}
	comp, err := loader.Load()
	if err != nil {
		return nil, err
	}

	if tracing {
		comp.Config.Trace.Enabled = true
	}
	if c.traceDB != "" {
		comp.Config.Trace.Store = config.StoreSQLite
		comp.Config.Trace.DSN = c.traceDB
	}
	return linlog.Open(ctx, comp, c.logger)
}

func (c *cli) runQuery(ctx context.Context, out io.Writer, query string) error {
	tracing := c.explain || c.htmlOut != "" || c.traceDB != ""
	rt, err := c.open(ctx, tracing)
	if err != nil {
		return err
	}
	defer rt.Close()

	if c.all {
		set, err := rt.Enumerate(query)
		if err != nil {
			return err
		}
		printSet(out, rt, set)
	} else {
		sol, ok, err := rt.Prove(query)
		if err != nil {
			return err
		}
		if ok {
			printSolution(out, rt.FormatSolution(sol))
		} else {
			color.New(color.FgRed).Fprintln(out, "false")
		}
	}

	tr := rt.Tracker()
	if tr == nil {
		return nil
	}
	run := tr.Current()
	if c.explain {
		fmt.Fprint(out, tr.Explain(run))
	}
	if c.htmlOut != "" {
		if err := writeHTML(c.htmlOut, rt, run); err != nil {
			return err
		}
	}
	if err := rt.FlushTrace(ctx); err != nil {
		return err
	}
	c.logger.Info("trace stored", zap.String("run", run), zap.String("db", c.traceDB))
	return nil
}

func writeHTML(path string, rt *linlog.Runtime, run string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := rt.Tracker().RenderHTML(f, run); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printSet(out io.Writer, rt *linlog.Runtime, set *solution.Set) {
	if set.Len() == 0 {
		color.New(color.FgRed).Fprintln(out, "false")
		return
	}
	for _, sol := range set.Solutions() {
		printSolution(out, rt.FormatSolution(sol))
	}
	if set.Truncated() {
		color.New(color.FgYellow).Fprintf(out, "... more solutions omitted (max_solutions=%d)\n", rt.Engine().Options().MaxSolutions)
	}
}

func printSolution(out io.Writer, s string) {
	if s == "true" {
		color.New(color.FgGreen).Fprintln(out, s)
		return
	}
	color.New(color.FgGreen, color.Bold).Fprintln(out, s)
}

func (c *cli) runCheck(ctx context.Context, out io.Writer) error {
	rt, err := c.open(ctx, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	st := rt.Stats()
	color.New(color.FgGreen).Fprint(out, "ok")
	fmt.Fprintf(out, ": %d resources, %d rules, %d types, %d unions\n", st.Resources, st.Clauses, st.Types, st.Unions)
	return nil
}
