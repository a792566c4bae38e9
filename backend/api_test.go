package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T) (*httptest.Server, *solveBacklog) {
	t.Helper()
	cache := NewSolveCache(256, 2)
	hub := NewProgressHub()
	backlog := newSolveBacklog(cache, hub)
	done := make(chan struct{})
	go hub.Run(done)
	server := httptest.NewServer(newRouter(cache, hub, backlog, time.Now()))
	t.Cleanup(func() {
		server.Close()
		close(done)
	})
	return server, backlog
}

func doJSON(t *testing.T, method, url string, payload any, out any) int {
	t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func TestAPIPing(t *testing.T) {
	server, _ := newTestServer(t)
	var out map[string]bool
	if status := doJSON(t, http.MethodGet, server.URL+"/api/ping", nil, &out); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if !out["ok"] {
		t.Fatalf("expected ok response, got %v", out)
	}
}

func TestAPISolve(t *testing.T) {
	server, _ := newTestServer(t)
	payload := SolveRequest{Start: "a   *    b c    ", Goal: "abc*            "}

	var first solveResponse
	if status := doJSON(t, http.MethodPost, server.URL+"/api/solve", payload, &first); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if !first.Found || first.Cached {
		t.Fatalf("expected a fresh solution, got %+v", first)
	}
	if first.Algorithm != AlgorithmAStar || first.Heuristic != HeuristicIndex {
		t.Fatalf("expected config defaults, got %q/%q", first.Algorithm, first.Heuristic)
	}
	if first.MoveCount == 0 || first.MoveCount != len(first.Moves) {
		t.Fatalf("expected a consistent move list, got %d/%d", first.MoveCount, len(first.Moves))
	}
	if first.Stats.Expanded == 0 {
		t.Fatalf("expected search stats")
	}

	var second solveResponse
	doJSON(t, http.MethodPost, server.URL+"/api/solve", payload, &second)
	if !second.Cached {
		t.Fatalf("expected the repeat to be served from the cache")
	}
	if second.MoveCount != first.MoveCount {
		t.Fatalf("expected identical cached moves, got %d want %d", second.MoveCount, first.MoveCount)
	}
}

func TestAPISolveRejectsBadRequests(t *testing.T) {
	server, _ := newTestServer(t)

	var out map[string]string
	status := doJSON(t, http.MethodPost, server.URL+"/api/solve", SolveRequest{Start: "x", Goal: "a*              "}, &out)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for a bad board, got %d", status)
	}
	if out["error"] == "" {
		t.Fatalf("expected an error message")
	}

	status = doJSON(t, http.MethodPost, server.URL+"/api/solve",
		SolveRequest{Start: "*a              ", Goal: "a*              ", Algorithm: "dijkstra"}, &out)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for an unknown algorithm, got %d", status)
	}
}

func TestAPISolveIncludesPathOnRequest(t *testing.T) {
	server, _ := newTestServer(t)
	payload := SolveRequest{Start: "*a              ", Goal: "a*              ", IncludePath: true}

	var out solveResponse
	doJSON(t, http.MethodPost, server.URL+"/api/solve", payload, &out)
	if !out.Found {
		t.Fatalf("expected a solution")
	}
	if len(out.Path) != out.MoveCount+1 {
		t.Fatalf("expected %d boards, got %d", out.MoveCount+1, len(out.Path))
	}
	if out.Path[0] != payload.Start {
		t.Fatalf("expected the path to begin at the start board")
	}
	if out.Path[len(out.Path)-1] != payload.Goal {
		t.Fatalf("expected the path to end at the goal board")
	}
}

func TestAPIBench(t *testing.T) {
	server, _ := newTestServer(t)

	var out benchResponse
	payload := benchRequest{
		SolveRequest: SolveRequest{Start: "*a              ", Goal: "a*              "},
		Iterations:   5,
	}
	if status := doJSON(t, http.MethodPost, server.URL+"/api/bench", payload, &out); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if out.Iterations != 5 {
		t.Fatalf("expected 5 iterations, got %d", out.Iterations)
	}
	if !out.Found || out.MoveCount != 1 {
		t.Fatalf("expected a one-move solution, got %+v", out)
	}
	if out.AvgMs < 0 || out.TotalMs < 0 {
		t.Fatalf("expected non-negative timings, got %+v", out)
	}
}

func TestAPIBenchClampsIterations(t *testing.T) {
	saved := GetConfig()
	defer configStore.Update(saved)
	config := saved
	config.BenchMaxIterations = 3
	configStore.Update(config)

	server, _ := newTestServer(t)
	var out benchResponse
	payload := benchRequest{
		SolveRequest: SolveRequest{Start: "*a              ", Goal: "a*              "},
		Iterations:   50,
	}
	doJSON(t, http.MethodPost, server.URL+"/api/bench", payload, &out)
	if out.Iterations != 3 {
		t.Fatalf("expected the cap to clamp to 3 iterations, got %d", out.Iterations)
	}
}

func TestAPIJobsLifecycle(t *testing.T) {
	server, backlog := newTestServer(t)
	payload := SolveRequest{Start: "a   *    b c    ", Goal: "abc*            "}

	var created jobDTO
	if status := doJSON(t, http.MethodPost, server.URL+"/api/jobs", payload, &created); status != http.StatusAccepted {
		t.Fatalf("expected 202 for a new job, got %d", status)
	}
	if created.ID == "" || created.State != string(JobStatePending) {
		t.Fatalf("expected a pending job, got %+v", created)
	}

	var repeat jobDTO
	if status := doJSON(t, http.MethodPost, server.URL+"/api/jobs", payload, &repeat); status != http.StatusOK {
		t.Fatalf("expected 200 for a deduplicated job, got %d", status)
	}
	if repeat.ID != created.ID || repeat.Hits != 1 {
		t.Fatalf("expected the same job with a hit, got %+v", repeat)
	}

	var list jobsResponse
	doJSON(t, http.MethodGet, server.URL+"/api/jobs", nil, &list)
	if len(list.Items) != 1 || list.Pending != 1 {
		t.Fatalf("expected one pending job, got %+v", list)
	}

	// Run the job the way a worker would.
	job, ok := backlog.nextJob()
	if !ok {
		t.Fatalf("expected a claimable job")
	}
	backlog.runJob(job)

	var detail jobDetailResponse
	doJSON(t, http.MethodGet, server.URL+"/api/jobs/"+created.ID+"?include_path=true", nil, &detail)
	if detail.State != string(JobStateDone) {
		t.Fatalf("expected a done job, got %q", detail.State)
	}
	if detail.Found == nil || !*detail.Found {
		t.Fatalf("expected the job to report a solution")
	}
	if len(detail.Moves) == 0 || len(detail.Path) != len(detail.Moves)+1 {
		t.Fatalf("expected moves and a path, got %d moves and %d boards", len(detail.Moves), len(detail.Path))
	}

	var deleted map[string]any
	if status := doJSON(t, http.MethodDelete, server.URL+"/api/jobs/"+created.ID, nil, &deleted); status != http.StatusOK {
		t.Fatalf("expected 200 for deleting a done job, got %d", status)
	}
	if status := doJSON(t, http.MethodGet, server.URL+"/api/jobs/"+created.ID, nil, nil); status != http.StatusNotFound {
		t.Fatalf("expected 404 after deletion, got %d", status)
	}
}

func TestAPIJobsRejectsRunningDeletion(t *testing.T) {
	server, backlog := newTestServer(t)
	var created jobDTO
	doJSON(t, http.MethodPost, server.URL+"/api/jobs",
		SolveRequest{Start: "*a              ", Goal: "a*              "}, &created)
	if _, ok := backlog.nextJob(); !ok {
		t.Fatalf("expected a claimable job")
	}

	if status := doJSON(t, http.MethodDelete, server.URL+"/api/jobs/"+created.ID, nil, nil); status != http.StatusConflict {
		t.Fatalf("expected 409 for a running job, got %d", status)
	}
}

func TestAPIJobsRejectsWhenFull(t *testing.T) {
	saved := GetConfig()
	defer configStore.Update(saved)
	config := saved
	config.JobQueueLimit = 1
	configStore.Update(config)

	server, _ := newTestServer(t)
	doJSON(t, http.MethodPost, server.URL+"/api/jobs",
		SolveRequest{Start: "*a              ", Goal: "a*              "}, nil)
	status := doJSON(t, http.MethodPost, server.URL+"/api/jobs",
		SolveRequest{Start: "*b              ", Goal: "b*              "}, nil)
	if status != http.StatusTooManyRequests {
		t.Fatalf("expected 429 when the queue is full, got %d", status)
	}
}

func TestAPIJobsPauseResume(t *testing.T) {
	server, backlog := newTestServer(t)

	doJSON(t, http.MethodPost, server.URL+"/api/jobs/pause", nil, nil)
	if !backlog.Paused() {
		t.Fatalf("expected the queue to be paused")
	}
	var list jobsResponse
	doJSON(t, http.MethodGet, server.URL+"/api/jobs", nil, &list)
	if !list.Paused {
		t.Fatalf("expected the listing to report the pause")
	}

	doJSON(t, http.MethodPost, server.URL+"/api/jobs/resume", nil, nil)
	if backlog.Paused() {
		t.Fatalf("expected the queue to be resumed")
	}
}

func TestAPICacheEndpoints(t *testing.T) {
	server, _ := newTestServer(t)
	payload := SolveRequest{Start: "*a              ", Goal: "a*              "}
	doJSON(t, http.MethodPost, server.URL+"/api/solve", payload, nil)

	var status cacheStatusResponse
	doJSON(t, http.MethodGet, server.URL+"/api/cache", nil, &status)
	if status.Count != 1 {
		t.Fatalf("expected one cached entry, got %d", status.Count)
	}
	if status.Capacity == 0 || status.Usage <= 0 {
		t.Fatalf("expected usage to be reported, got %+v", status)
	}

	var entries cacheEntriesResponse
	doJSON(t, http.MethodGet, server.URL+"/api/cache/entries", nil, &entries)
	if entries.Total != 1 || len(entries.Items) != 1 {
		t.Fatalf("expected one entry, got %+v", entries)
	}
	entry := entries.Items[0]
	if !strings.HasPrefix(entry.Key, "0x") {
		t.Fatalf("expected a hex key, got %q", entry.Key)
	}
	if entry.Algorithm != AlgorithmAStar || !entry.Found || entry.MoveCount != 1 {
		t.Fatalf("unexpected entry %+v", entry)
	}

	var deleted map[string]any
	doJSON(t, http.MethodDelete, server.URL+"/api/cache/entries/"+entry.Key, nil, &deleted)
	if del, _ := deleted["deleted"].(bool); !del {
		t.Fatalf("expected the entry to be deleted, got %v", deleted)
	}
	doJSON(t, http.MethodGet, server.URL+"/api/cache", nil, &status)
	if status.Count != 0 {
		t.Fatalf("expected an empty cache after deletion, got %d", status.Count)
	}

	doJSON(t, http.MethodPost, server.URL+"/api/solve", payload, nil)
	doJSON(t, http.MethodDelete, server.URL+"/api/cache", nil, nil)
	doJSON(t, http.MethodGet, server.URL+"/api/cache", nil, &status)
	if status.Count != 0 {
		t.Fatalf("expected clear to empty the cache, got %d", status.Count)
	}
}

func TestAPICacheRejectsBadEntryKey(t *testing.T) {
	server, _ := newTestServer(t)
	if status := doJSON(t, http.MethodDelete, server.URL+"/api/cache/entries/not-a-key", nil, nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for a bad key, got %d", status)
	}
}

func TestAPIConfigRoundTrip(t *testing.T) {
	saved := GetConfig()
	defer configStore.Update(saved)

	server, _ := newTestServer(t)
	var current Config
	doJSON(t, http.MethodGet, server.URL+"/api/config", nil, &current)
	if current.DefaultAlgorithm != AlgorithmAStar {
		t.Fatalf("expected the default algorithm, got %q", current.DefaultAlgorithm)
	}

	var updated Config
	status := doJSON(t, http.MethodPost, server.URL+"/api/config",
		map[string]string{"default_algorithm": AlgorithmBreadthFirst}, &updated)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if updated.DefaultAlgorithm != AlgorithmBreadthFirst {
		t.Fatalf("expected the update to apply, got %q", updated.DefaultAlgorithm)
	}
	// Keys absent from the payload keep their values.
	if updated.ListenAddr != saved.ListenAddr {
		t.Fatalf("expected untouched keys to survive, got %q", updated.ListenAddr)
	}

	status = doJSON(t, http.MethodPost, server.URL+"/api/config",
		map[string]string{"default_algorithm": "dijkstra"}, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for an unknown algorithm, got %d", status)
	}
}

func TestAPIStatus(t *testing.T) {
	server, _ := newTestServer(t)
	var out StatusResponse
	if status := doJSON(t, http.MethodGet, server.URL+"/api/status", nil, &out); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if out.Queue.Workers < 1 {
		t.Fatalf("expected at least one worker, got %d", out.Queue.Workers)
	}
	if out.Cache.Capacity == 0 {
		t.Fatalf("expected cache capacity to be reported")
	}
	if out.Config.DefaultAlgorithm == "" {
		t.Fatalf("expected the config to be included")
	}
	if out.UptimeMs < 0 {
		t.Fatalf("expected a sane uptime, got %d", out.UptimeMs)
	}
}

func TestWSProgressStream(t *testing.T) {
	server, backlog := newTestServer(t)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/progress"

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	readPayload := func() progressPayload {
		t.Helper()
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("bad frame: %v", err)
		}
		if msg.Type != "progress" {
			t.Fatalf("expected a progress frame, got %q", msg.Type)
		}
		var payload progressPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			t.Fatalf("bad payload: %v", err)
		}
		return payload
	}

	snapshot := readPayload()
	if snapshot.Event != "snapshot" {
		t.Fatalf("expected the snapshot first, got %q", snapshot.Event)
	}
	if snapshot.UpdatedAt == 0 {
		t.Fatalf("expected a timestamp on the snapshot")
	}

	if _, _, err := backlog.Enqueue(mustResolve(t, SolveRequest{Start: "*a              ", Goal: "a*              "})); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	added := readPayload()
	if added.Event != "job_added" {
		t.Fatalf("expected a job_added event, got %q", added.Event)
	}
	if added.Job == nil || added.Job.State != string(JobStatePending) {
		t.Fatalf("expected the pending job in the event, got %+v", added.Job)
	}
	if added.TotalInQueue != 1 {
		t.Fatalf("expected one queued job, got %d", added.TotalInQueue)
	}
}
