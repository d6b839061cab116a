package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ahrav/go-schulze/infrastructure/render"
)

const (
	formatText = "text"
	formatJSON = "json"
)

type evaluateOptions struct {
	format   string
	dotPath  string
	svgPath  string
	redis    string
	matrices bool
	reduce   bool
	detailed bool
}

func newEvaluateCmd() *cobra.Command {
	var opts evaluateOptions

	cmd := &cobra.Command{
		Use:   "evaluate FILE",
		Short: "Evaluate an election file",
		Long: `Evaluate loads a YAML, JSON or TOML election file, runs its pipeline
and prints the resulting tiers, winners first.`,
		Example: `  schulze evaluate election.yaml
  schulze evaluate election.toml --format json
  schulze evaluate election.yaml --matrices --svg ranking.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", formatText, "output format: text or json")
	cmd.Flags().StringVar(&opts.dotPath, "dot", "", "write the beats graph as Graphviz DOT to this path")
	cmd.Flags().StringVar(&opts.svgPath, "svg", "", "write the beats graph as SVG to this path")
	cmd.Flags().StringVar(&opts.redis, "redis", "", "Redis address for caching outcomes (host:port)")
	cmd.Flags().BoolVar(&opts.matrices, "matrices", false, "also print the defeat and path-strength matrices")
	cmd.Flags().BoolVar(&opts.reduce, "reduce", true, "omit transitively implied edges from the graph")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show rank and wins in graph nodes")

	return cmd
}

func runEvaluate(cmd *cobra.Command, path string, opts evaluateOptions) error {
	if opts.format != formatText && opts.format != formatJSON {
		return fmt.Errorf("unknown format %q (want %s or %s)", opts.format, formatText, formatJSON)
	}

	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	svc, err := newServices(ctx, servicesOptions{redisAddr: opts.redis})
	if err != nil {
		return err
	}
	defer svc.Close()

	prog := newProgress(logger)
	election, err := svc.loader.LoadFromFile(ctx, path)
	if err != nil {
		return err
	}
	logger.Debug("loaded election", "name", election.Name, "hash", election.Hash[:12],
		"candidates", len(election.Candidates), "ballots", len(election.Ballots))

	outcome, err := svc.engine.Evaluate(ctx, election)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Evaluated %s", election.Name))

	out := cmd.OutOrStdout()
	switch opts.format {
	case formatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(outcome); err != nil {
			return fmt.Errorf("encode outcome: %w", err)
		}
	default:
		printOutcome(out, outcome, len(election.Ballots))
		if opts.matrices {
			fmt.Fprintln(out)
			printMatrix(out, "Defeats d[i][j]", outcome.Result.Defeats(), outcome.Candidates)
			fmt.Fprintln(out)
			printMatrix(out, "Path strengths p[i][j]", outcome.Result.Paths(), outcome.Candidates)
		}
	}

	if opts.dotPath == "" && opts.svgPath == "" {
		return nil
	}

	dot := render.ToDOT(outcome.Result, outcome.Candidates, render.Options{
		Detailed: opts.detailed,
		Reduce:   opts.reduce,
	})
	if opts.dotPath != "" {
		if err := os.WriteFile(opts.dotPath, []byte(dot), 0o644); err != nil {
			return fmt.Errorf("write DOT: %w", err)
		}
		logger.Info("Wrote DOT", "path", opts.dotPath)
	}
	if opts.svgPath != "" {
		svg, err := render.RenderSVG(ctx, dot)
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.svgPath, svg, 0o644); err != nil {
			return fmt.Errorf("write SVG: %w", err)
		}
		logger.Info("Wrote SVG", "path", opts.svgPath)
	}
	return nil
}
