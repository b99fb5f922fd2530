package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/harris/internal/config"
	"github.com/JonMunkholm/harris/internal/core"
	"github.com/JonMunkholm/harris/internal/logging"
	"github.com/JonMunkholm/harris/internal/matrix"
)

type rootOptions struct {
	logLevel string
	levels   string
}

type viewFlags struct {
	open       []string
	redundancy bool
	filter     string
	columns    []string
}

func (f *viewFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.open, "open", nil, "facts to expand, comma separated")
	cmd.Flags().StringVar(&f.filter, "filter", "", "keep relations touching units matching these terms")
	cmd.Flags().StringSliceVar(&f.columns, "columns", nil, "columns the filter looks at")
}

func (f *viewFlags) options(cmd *cobra.Command) matrix.ViewOptions {
	opts := matrix.ViewOptions{
		Redundancy: f.redundancy,
		Filter:     matrix.Filter{Terms: f.filter, Columns: f.columns},
	}
	if cmd.Flags().Changed("open") {
		opts.Open = f.open
		if opts.Open == nil {
			opts.Open = []string{}
		}
	}
	return opts
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "harrisctl",
		Short:         "Validate and inspect Harris matrix datasets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), opts.logLevel, "text"))
		},
	}
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&opts.levels, "levels", "", "level strategy: bfs or longest (default from ENGINE_LEVEL_STRATEGY)")

	root.AddCommand(
		newValidateCmd(opts),
		newExportCmd(opts),
		newGraphCmd(opts),
		newResolveCmd(opts),
	)
	return root
}

// loadService imports path into a fresh in-memory service configured from
// the environment.
func loadService(ctx context.Context, opts *rootOptions, path string) (*core.Service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	engine := cfg.Engine.Options()
	if opts.levels != "" {
		strategy, err := matrix.ParseLevelStrategy(opts.levels)
		if err != nil {
			return nil, err
		}
		engine.LevelStrategy = strategy
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	svc := core.NewService(core.Config{
		Engine:        engine,
		MaxImportSize: cfg.Import.MaxFileSize,
	})
	if _, err := svc.Import(ctx, f); err != nil {
		return nil, err
	}
	return svc, nil
}

// describe renders err with its support code and, for validation
// failures, the offending units, rows and cycles.
func describe(err error) string {
	var b strings.Builder
	b.WriteString(core.FormatUserError(err))
	var verr *matrix.ValidationError
	if errors.As(err, &verr) {
		if len(verr.Units) > 0 {
			fmt.Fprintf(&b, "\n  units: %s", strings.Join(verr.Units, ", "))
		}
		if len(verr.Rows) > 0 {
			rows := make([]string, len(verr.Rows))
			for i, r := range verr.Rows {
				// Header is line 1.
				rows[i] = fmt.Sprint(r + 2)
			}
			fmt.Fprintf(&b, "\n  lines: %s", strings.Join(rows, ", "))
		}
		for _, c := range verr.Cycles {
			fmt.Fprintf(&b, "\n  cycle: %s -> %s", strings.Join(c, " -> "), c[0])
		}
		if verr.Detail != "" {
			fmt.Fprintf(&b, "\n  detail: %s", verr.Detail)
		}
	}
	return b.String()
}

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE...",
		Short: "Check datasets against every import rule",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reports := make([]string, len(args))
			failures := make([]error, len(args))

			var g errgroup.Group
			g.SetLimit(runtime.GOMAXPROCS(0))
			for i, path := range args {
				g.Go(func() error {
					svc, err := loadService(cmd.Context(), opts, path)
					if err != nil {
						failures[i] = fmt.Errorf("%s: %s", path, describe(err))
						return nil
					}
					reports[i] = fmt.Sprintf("%s: ok: %d units", path, svc.Status().Units)
					return nil
				})
			}
			_ = g.Wait()

			for _, r := range reports {
				if r != "" {
					fmt.Fprintln(cmd.OutOrStdout(), r)
				}
			}
			return errors.Join(failures...)
		},
	}
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		filtered bool
		flags    viewFlags
	)
	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Write the dataset, or only its visible part, as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := loadService(cmd.Context(), opts, args[0])
			if err != nil {
				return errors.New(describe(err))
			}
			if !filtered {
				return svc.Export(cmd.OutOrStdout())
			}
			if err := svc.FilteredExport(cmd.Context(), cmd.OutOrStdout(), flags.options(cmd)); err != nil {
				return errors.New(describe(err))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&filtered, "filtered", false, "export only the units drawn in the view")
	flags.register(cmd)
	return cmd
}

func newGraphCmd(opts *rootOptions) *cobra.Command {
	var (
		flags  viewFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "graph FILE",
		Short: "Print the layered display graph and the Harris matrix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := loadService(cmd.Context(), opts, args[0])
			if err != nil {
				return errors.New(describe(err))
			}
			vo := flags.options(cmd)

			out, err := svc.Frame(cmd.Context(), vo)
			if err != nil {
				return errors.New(describe(err))
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			printGraph(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&flags.redundancy, "redundancy", false, "keep transitively implied relations")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of text")
	flags.register(cmd)
	return cmd
}

// printGraph writes one line per level, then the edges and the matrix.
func printGraph(w io.Writer, out core.Frame) {
	v := out.Graph
	byLevel := map[int][]string{}
	maxLevel := -1
	for _, n := range v.Nodes {
		byLevel[n.Level] = append(byLevel[n.Level], n.Code)
		maxLevel = max(maxLevel, n.Level)
	}
	fmt.Fprintf(w, "levels (%s):\n", v.Strategy)
	for l := 0; l <= maxLevel; l++ {
		codes := byLevel[l]
		sort.Strings(codes)
		fmt.Fprintf(w, "  %d: %s\n", l, strings.Join(codes, " "))
	}

	fmt.Fprintln(w, "relations:")
	for _, e := range v.Edges {
		fmt.Fprintf(w, "  %s -> %s\n", e.From, e.To)
	}
	if len(v.Equivalences) > 0 {
		fmt.Fprintln(w, "equivalences:")
		for _, e := range v.Equivalences {
			fmt.Fprintf(w, "  %s == %s\n", e.From, e.To)
		}
	}
	if len(v.NotDrawn) > 0 {
		fmt.Fprintf(w, "not drawn: %s\n", strings.Join(v.NotDrawn, " "))
	}
	if len(v.FilteredOut) > 0 {
		fmt.Fprintf(w, "filtered out: %s\n", strings.Join(v.FilteredOut, " "))
	}

	fmt.Fprintln(w, "matrix:")
	fmt.Fprintf(w, "  %s\n", strings.Join(out.Matrix.Codes, " "))
	for i, row := range out.Matrix.Cells {
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = fmt.Sprint(c)
		}
		fmt.Fprintf(w, "  %s %s\n", out.Matrix.Codes[i], strings.Join(cells, " "))
	}
}

func newResolveCmd(opts *rootOptions) *cobra.Command {
	var open []string
	cmd := &cobra.Command{
		Use:   "resolve FILE CODE",
		Short: "Print the node a unit is drawn as when facts are expanded",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := loadService(cmd.Context(), opts, args[0])
			if err != nil {
				return errors.New(describe(err))
			}
			if open == nil {
				open = []string{}
			}
			visible, err := svc.ResolveVisibleCode(open, args[1])
			if err != nil {
				return errors.New(describe(err))
			}
			fmt.Fprintln(cmd.OutOrStdout(), visible)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&open, "open", nil, "facts to expand, comma separated")
	return cmd
}
