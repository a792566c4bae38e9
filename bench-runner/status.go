package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

type statusOptions struct {
	jsonOutput bool
}

func (a *App) newStatusCmd() *cobra.Command {
	opts := &statusOptions{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show backend cache and job queue state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runStatus(opts)
		},
	}

	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "output the raw response as JSON")

	return cmd
}

func (a *App) runStatus(opts *statusOptions) error {
	var resp statusResponse
	if err := a.client.getJSON("/api/status", &resp); err != nil {
		return err
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	uptime := time.Duration(resp.UptimeMs) * time.Millisecond
	fmt.Fprintf(a.stdout, "backend %s (up %s)\n", a.backend, uptime.Round(time.Second))
	fmt.Fprintf(a.stdout, "  cache: %d/%d entries (%.1f%% used)\n",
		resp.Cache.Count, resp.Cache.Capacity, resp.Cache.Usage*100)
	state := "running"
	if resp.Queue.Paused {
		state = "paused"
	}
	fmt.Fprintf(a.stdout, "  queue: %d pending, %d workers, %s\n",
		resp.Queue.Pending, resp.Queue.Workers, state)
	return nil
}
