package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Wire types mirrored from the backend API. Only the fields the commands
// read are listed.

type solveRequest struct {
	Start       string `json:"start"`
	Goal        string `json:"goal"`
	Algorithm   string `json:"algorithm,omitempty"`
	Heuristic   string `json:"heuristic,omitempty"`
	IncludePath bool   `json:"include_path,omitempty"`
}

type benchRequest struct {
	solveRequest
	Iterations int `json:"iterations"`
}

type searchStatsDTO struct {
	Expanded     int64   `json:"expanded"`
	Generated    int64   `json:"generated"`
	OffGrid      int64   `json:"off_grid_rejects"`
	CycleRejects int64   `json:"cycle_rejects"`
	MaxFrontier  int     `json:"max_frontier"`
	ElapsedMs    float64 `json:"elapsed_ms"`
}

type solveResponse struct {
	Found     bool           `json:"found"`
	Cached    bool           `json:"cached"`
	Algorithm string         `json:"algorithm"`
	Heuristic string         `json:"heuristic"`
	Moves     []string       `json:"moves"`
	MoveCount int            `json:"move_count"`
	Path      []string       `json:"path,omitempty"`
	Stats     searchStatsDTO `json:"stats"`
}

type benchResponse struct {
	Iterations int            `json:"iterations"`
	TotalMs    float64        `json:"total_ms"`
	AvgMs      float64        `json:"avg_ms"`
	Found      bool           `json:"found"`
	MoveCount  int            `json:"move_count"`
	Stats      searchStatsDTO `json:"stats"`
}

type cacheStatusDTO struct {
	Count    int     `json:"count"`
	Capacity int     `json:"capacity"`
	Usage    float64 `json:"usage"`
	Full     bool    `json:"full"`
}

type queueStatusDTO struct {
	Pending int  `json:"pending"`
	Paused  bool `json:"paused"`
	Workers int  `json:"workers"`
}

type statusResponse struct {
	Config   map[string]any `json:"config"`
	Cache    cacheStatusDTO `json:"cache"`
	Queue    queueStatusDTO `json:"queue"`
	UptimeMs int64          `json:"uptime_ms"`
}

type wsEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type jobEventDTO struct {
	ID        string `json:"id"`
	State     string `json:"state"`
	Algorithm string `json:"algorithm"`
	Heuristic string `json:"heuristic"`
	Start     string `json:"start"`
	Goal      string `json:"goal"`
	Hits      int    `json:"hits"`
	Found     *bool  `json:"found,omitempty"`
	MoveCount int    `json:"move_count"`
}

type searchProgressDTO struct {
	Algorithm string `json:"algorithm"`
	Expanded  int64  `json:"expanded"`
	Generated int64  `json:"generated"`
	Frontier  int    `json:"frontier"`
	BestScore int    `json:"best_score"`
	ElapsedMs int64  `json:"elapsed_ms"`
	Final     bool   `json:"final"`
}

type progressEventDTO struct {
	Event        string             `json:"event"`
	Job          *jobEventDTO       `json:"job,omitempty"`
	Progress     *searchProgressDTO `json:"progress,omitempty"`
	TotalInQueue int                `json:"total_in_queue"`
	UpdatedAt    int64              `json:"updated_at_ms"`
}

type solverClient struct {
	client  *http.Client
	baseURL string
}

func newSolverClient(baseURL string) *solverClient {
	return &solverClient{
		// Exhaustive searches can run for a while; be generous.
		client:  &http.Client{Timeout: 10 * time.Minute},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (c *solverClient) getJSON(path string, out any) error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("GET %s -> %d: %s", path, resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *solverClient) postJSON(path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("POST %s -> %d: %s", path, resp.StatusCode, string(respBody))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// renderBoard lays a 16-character board string out as a grid, matching the
// backend's log rendering. Anything that is not 16 characters passes
// through untouched.
func renderBoard(board string) string {
	if len(board) != 16 {
		return board
	}
	var sb strings.Builder
	for y := 0; y < 4; y++ {
		sb.WriteByte('|')
		for x := 0; x < 4; x++ {
			sb.WriteByte(board[y*4+x])
			if x < 3 {
				sb.WriteByte(' ')
			}
		}
		sb.WriteByte('|')
		if y < 3 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
