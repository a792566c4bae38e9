package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

type solveOptions struct {
	start      string
	goal       string
	algorithm  string
	heuristic  string
	showPath   bool
	jsonOutput bool
}

func (a *App) newSolveCmd() *cobra.Command {
	opts := &solveOptions{}

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve one start/goal pair through the backend",
		Long: `Submit a single solve request and print the resulting move sequence.

Examples:
  # Slide the agent to the far corner past two blocks
  bench-runner solve -s "a   *    b c    " -g "abc*            "

  # Breadth-first instead of the default algorithm, with the full path
  bench-runner solve -a bfs --path -s "*abc            " -g "abc*            "`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSolve(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.start, "start", "s", "", "start board, 16 cells row-major (required)")
	cmd.Flags().StringVarP(&opts.goal, "goal", "g", "", "goal board, 16 cells row-major (required)")
	cmd.Flags().StringVarP(&opts.algorithm, "algorithm", "a", "", "search algorithm: astar or bfs (backend default if empty)")
	cmd.Flags().StringVar(&opts.heuristic, "heuristic", "", "scoring heuristic: index or manhattan (backend default if empty)")
	cmd.Flags().BoolVar(&opts.showPath, "path", false, "print every board along the solution")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "output the raw response as JSON")

	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("goal")

	return cmd
}

func (a *App) runSolve(opts *solveOptions) error {
	req := solveRequest{
		Start:       opts.start,
		Goal:        opts.goal,
		Algorithm:   opts.algorithm,
		Heuristic:   opts.heuristic,
		IncludePath: opts.showPath,
	}
	var resp solveResponse
	if err := a.client.postJSON("/api/solve", req, &resp); err != nil {
		return err
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	if !resp.Found {
		fmt.Fprintf(a.stdout, "no solution (%s/%s, expanded %d states in %.3fms)\n",
			resp.Algorithm, resp.Heuristic, resp.Stats.Expanded, resp.Stats.ElapsedMs)
		return nil
	}

	suffix := ""
	if resp.Cached {
		suffix = ", cached"
	}
	fmt.Fprintf(a.stdout, "solved in %d moves (%s/%s, expanded %d, %.3fms%s)\n",
		resp.MoveCount, resp.Algorithm, resp.Heuristic, resp.Stats.Expanded, resp.Stats.ElapsedMs, suffix)
	if len(resp.Moves) > 0 {
		fmt.Fprintf(a.stdout, "moves: %s\n", strings.Join(resp.Moves, " "))
	}
	if opts.showPath {
		for i, board := range resp.Path {
			fmt.Fprintf(a.stdout, "step %d\n%s\n", i, renderBoard(board))
		}
	}
	return nil
}
