package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

type benchOptions struct {
	start      string
	goal       string
	algorithm  string
	heuristic  string
	iterations int
	jsonOutput bool
}

func (a *App) newBenchCmd() *cobra.Command {
	opts := &benchOptions{}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Repeat one solve on the backend and report timings",
		Long: `Run the same search many times in the backend process and print the
aggregate timing. The backend bypasses its result cache for benchmarks,
so every iteration does the full search.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBench(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.start, "start", "s", "", "start board, 16 cells row-major (required)")
	cmd.Flags().StringVarP(&opts.goal, "goal", "g", "", "goal board, 16 cells row-major (required)")
	cmd.Flags().StringVarP(&opts.algorithm, "algorithm", "a", "", "search algorithm: astar or bfs (backend default if empty)")
	cmd.Flags().StringVar(&opts.heuristic, "heuristic", "", "scoring heuristic: index or manhattan (backend default if empty)")
	cmd.Flags().IntVarP(&opts.iterations, "iterations", "n", 0, "iterations to run (backend default if 0)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "output the raw response as JSON")

	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("goal")

	return cmd
}

func (a *App) runBench(opts *benchOptions) error {
	req := benchRequest{
		solveRequest: solveRequest{
			Start:     opts.start,
			Goal:      opts.goal,
			Algorithm: opts.algorithm,
			Heuristic: opts.heuristic,
		},
		Iterations: opts.iterations,
	}
	var resp benchResponse
	if err := a.client.postJSON("/api/bench", req, &resp); err != nil {
		return err
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	fmt.Fprintf(a.stdout, "its: %d total: %.3fms avg: %.4fms\n", resp.Iterations, resp.TotalMs, resp.AvgMs)
	if resp.Found {
		fmt.Fprintf(a.stdout, "solution: %d moves, %d states expanded per run\n", resp.MoveCount, resp.Stats.Expanded)
	} else {
		fmt.Fprintf(a.stdout, "no solution, %d states expanded per run\n", resp.Stats.Expanded)
	}
	return nil
}
