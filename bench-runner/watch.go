package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

type watchOptions struct {
	events int
	raw    bool
}

func (a *App) newWatchCmd() *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream live job and search progress from the backend",
		Long: `Subscribe to the backend's progress WebSocket and print events as they
arrive: jobs entering the queue, searches starting, periodic expansion
counters and completions. Runs until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWatch(cmd.Context(), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.events, "events", "n", 0, "stop after this many events (0 streams until interrupted)")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "print raw JSON frames")

	return cmd
}

func (a *App) runWatch(ctx context.Context, opts *watchOptions) error {
	wsURL, err := progressSocketURL(a.backend)
	if err != nil {
		return err
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial %s -> %d: %w", wsURL, resp.StatusCode, err)
		}
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	fmt.Fprintf(a.stdout, "watching %s\n", wsURL)
	seen := 0
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		if opts.raw {
			fmt.Fprintln(a.stdout, string(message))
		} else {
			line, ok := formatProgressLine(message)
			if !ok {
				continue
			}
			fmt.Fprintln(a.stdout, line)
		}
		seen++
		if opts.events > 0 && seen >= opts.events {
			return nil
		}
	}
}

// progressSocketURL turns the backend base URL into the progress WebSocket
// endpoint.
func progressSocketURL(backend string) (string, error) {
	u, err := url.Parse(backend)
	if err != nil {
		return "", fmt.Errorf("parse backend URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported backend scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/progress"
	return u.String(), nil
}

// formatProgressLine renders one WebSocket frame as a log-style line.
// Heartbeat pings and frames without a known shape report ok false.
func formatProgressLine(message []byte) (string, bool) {
	var envelope wsEnvelope
	if err := json.Unmarshal(message, &envelope); err != nil {
		return "", false
	}
	if envelope.Type != "progress" {
		return "", false
	}
	var event progressEventDTO
	if err := json.Unmarshal(envelope.Payload, &event); err != nil {
		return "", false
	}

	ts := time.UnixMilli(event.UpdatedAt).Format("15:04:05.000")
	switch {
	case event.Event == "snapshot":
		return fmt.Sprintf("%s snapshot: %d jobs pending", ts, event.TotalInQueue), true
	case event.Job != nil && event.Progress != nil:
		return fmt.Sprintf("%s %s job=%s %s expanded=%d generated=%d frontier=%d best=%d elapsed=%dms",
			ts, event.Event, shortID(event.Job.ID), event.Progress.Algorithm,
			event.Progress.Expanded, event.Progress.Generated,
			event.Progress.Frontier, event.Progress.BestScore, event.Progress.ElapsedMs), true
	case event.Job != nil:
		extra := ""
		if event.Job.Found != nil {
			if *event.Job.Found {
				extra = fmt.Sprintf(" found moves=%d", event.Job.MoveCount)
			} else {
				extra = " no solution"
			}
		}
		return fmt.Sprintf("%s %s job=%s %s/%s hits=%d queue=%d%s",
			ts, event.Event, shortID(event.Job.ID), event.Job.Algorithm,
			event.Job.Heuristic, event.Job.Hits, event.TotalInQueue, extra), true
	default:
		return fmt.Sprintf("%s %s queue=%d", ts, event.Event, event.TotalInQueue), true
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
