package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type StatusResponse struct {
	Config   Config              `json:"config"`
	Cache    cacheStatusResponse `json:"cache"`
	Queue    queueStatusResponse `json:"queue"`
	UptimeMs int64               `json:"uptime_ms"`
}

type queueStatusResponse struct {
	Pending int  `json:"pending"`
	Paused  bool `json:"paused"`
	Workers int  `json:"workers"`
}

type solveResponse struct {
	Found     bool        `json:"found"`
	Cached    bool        `json:"cached"`
	Algorithm string      `json:"algorithm"`
	Heuristic string      `json:"heuristic"`
	Moves     []string    `json:"moves"`
	MoveCount int         `json:"move_count"`
	Path      []string    `json:"path,omitempty"`
	Stats     SearchStats `json:"stats"`
}

type benchRequest struct {
	SolveRequest
	Iterations int `json:"iterations"`
}

type benchResponse struct {
	Iterations int         `json:"iterations"`
	TotalMs    float64     `json:"total_ms"`
	AvgMs      float64     `json:"avg_ms"`
	Found      bool        `json:"found"`
	MoveCount  int         `json:"move_count"`
	Stats      SearchStats `json:"stats"`
}

type jobDTO struct {
	ID          string       `json:"id"`
	State       string       `json:"state"`
	Start       string       `json:"start"`
	Goal        string       `json:"goal"`
	Algorithm   string       `json:"algorithm"`
	Heuristic   string       `json:"heuristic"`
	Hits        int          `json:"hits"`
	CreatedAtMs int64        `json:"created_at_ms"`
	StartedAtMs int64        `json:"started_at_ms,omitempty"`
	Found       *bool        `json:"found,omitempty"`
	Cached      *bool        `json:"cached,omitempty"`
	MoveCount   int          `json:"move_count,omitempty"`
	Stats       *SearchStats `json:"stats,omitempty"`
}

type jobsResponse struct {
	Items   []jobDTO `json:"items"`
	Pending int      `json:"pending"`
	Paused  bool     `json:"paused"`
}

type jobDetailResponse struct {
	jobDTO
	Moves []string `json:"moves,omitempty"`
	Path  []string `json:"path,omitempty"`
}

type cacheStatusResponse struct {
	Count      int     `json:"count"`
	Capacity   int     `json:"capacity"`
	Usage      float64 `json:"usage"`
	Full       bool    `json:"full"`
	Generation uint32  `json:"generation"`
}

type cacheEntryDTO struct {
	Key         string `json:"key"`
	Algorithm   string `json:"algorithm"`
	Heuristic   string `json:"heuristic"`
	Found       bool   `json:"found"`
	MoveCount   int    `json:"move_count"`
	Expanded    int64  `json:"expanded"`
	Hits        uint32 `json:"hits"`
	GenWritten  uint32 `json:"gen_written"`
	GenLastUsed uint32 `json:"gen_last_used"`
}

type cacheEntriesResponse struct {
	Items  []cacheEntryDTO `json:"items"`
	Offset int             `json:"offset"`
	Limit  int             `json:"limit"`
	Total  int             `json:"total"`
}

const benchDefaultIterations = 1000

func main() {
	config := loadServerConfig()
	initLogger(config.LogLevel, config.LogFormat)
	configStore.Update(config)

	cache := NewSolveCache(uint64(config.CacheSize), config.CacheBuckets)
	hub := NewProgressHub()
	backlog := newSolveBacklog(cache, hub)
	started := time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx.Done())
	startJobWorkers(backlog, ctx.Done())

	r := newRouter(cache, hub, backlog, started)

	server := &http.Server{
		Addr:    config.ListenAddr,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
		close(serverErrCh)
	}()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	logs().Info().Str("component", "server").Str("addr", config.ListenAddr).Msg("solver listening")
	select {
	case <-sigCtx.Done():
		logs().Info().Str("component", "server").Msg("shutdown signal received")
	case err, ok := <-serverErrCh:
		if ok {
			logs().Error().Str("component", "server").Err(err).Msg("server error")
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logs().Error().Str("component", "server").Err(err).Msg("graceful shutdown failed")
		if closeErr := server.Close(); closeErr != nil && !errors.Is(closeErr, http.ErrServerClosed) {
			logs().Error().Str("component", "server").Err(closeErr).Msg("forced close failed")
		}
	}
	cancel()
}

func newRouter(cache *SolveCache, hub *ProgressHub, backlog *solveBacklog, started time.Time) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	r.Get("/api/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, StatusResponse{
			Config:   GetConfig(),
			Cache:    cacheStatus(cache),
			Queue:    queueStatus(backlog),
			UptimeMs: time.Since(started).Milliseconds(),
		})
	})

	r.Get("/api/config", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, GetConfig())
	})

	r.Post("/api/config", func(w http.ResponseWriter, r *http.Request) {
		updated := GetConfig()
		if err := json.NewDecoder(r.Body).Decode(&updated); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		if _, err := normalizeAlgorithm(updated.DefaultAlgorithm, ""); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		if _, err := normalizeHeuristic(updated.DefaultHeuristic, ""); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		configStore.Update(updated)
		writeJSON(w, http.StatusOK, GetConfig())
	})

	r.Post("/api/solve", func(w http.ResponseWriter, r *http.Request) {
		var payload SolveRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		spec, err := payload.resolve(GetConfig())
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		outcome := solveWithCache(cache, spec, SearchOptions{})
		logs().Info().Str("component", "solve").Str("algorithm", spec.Algorithm).
			Bool("found", outcome.Found).Bool("cached", outcome.Cached).
			Int("moves", len(outcome.Moves)).Int64("expanded", outcome.Stats.Expanded).
			Msg("solve finished")
		writeJSON(w, http.StatusOK, buildSolveResponse(spec, outcome, payload.IncludePath))
	})

	r.Post("/api/bench", func(w http.ResponseWriter, r *http.Request) {
		var payload benchRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		config := GetConfig()
		spec, err := payload.resolve(config)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		iterations := payload.Iterations
		if iterations <= 0 {
			iterations = benchDefaultIterations
		}
		if config.BenchMaxIterations > 0 && iterations > config.BenchMaxIterations {
			iterations = config.BenchMaxIterations
		}
		out := runBench(spec, iterations)
		logs().Info().Str("component", "bench").Str("algorithm", spec.Algorithm).
			Int("iterations", out.Iterations).Int64("total_ms", out.TotalElapsed.Milliseconds()).
			Msg("bench finished")
		writeJSON(w, http.StatusOK, benchResponse{
			Iterations: out.Iterations,
			TotalMs:    float64(out.TotalElapsed.Microseconds()) / 1000.0,
			AvgMs:      out.AvgMs,
			Found:      out.Found,
			MoveCount:  out.MoveCount,
			Stats:      out.Stats,
		})
	})

	r.Post("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		var payload SolveRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		spec, err := payload.resolve(GetConfig())
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		snap, created, err := backlog.Enqueue(spec)
		if err != nil {
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": err.Error()})
			return
		}
		status := http.StatusOK
		if created {
			status = http.StatusAccepted
		}
		writeJSON(w, status, jobToDTO(snap))
	})

	r.Get("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		snaps := backlog.Jobs()
		items := make([]jobDTO, 0, len(snaps))
		for _, snap := range snaps {
			items = append(items, jobToDTO(snap))
		}
		writeJSON(w, http.StatusOK, jobsResponse{
			Items:   items,
			Pending: backlog.PendingLen(),
			Paused:  backlog.Paused(),
		})
	})

	r.Get("/api/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		snap, ok := backlog.Job(chi.URLParam(r, "id"))
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
			return
		}
		includePath, _ := strconv.ParseBool(r.URL.Query().Get("include_path"))
		writeJSON(w, http.StatusOK, jobDetail(snap, includePath))
	})

	r.Delete("/api/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		switch err := backlog.Drop(id); {
		case errors.Is(err, errJobNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
		case errors.Is(err, errJobRunning):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "job is running"})
		default:
			writeJSON(w, http.StatusOK, map[string]any{"deleted": true, "id": id})
		}
	})

	r.Post("/api/jobs/pause", func(w http.ResponseWriter, r *http.Request) {
		backlog.Pause()
		writeJSON(w, http.StatusOK, map[string]bool{"paused": true})
	})

	r.Post("/api/jobs/resume", func(w http.ResponseWriter, r *http.Request) {
		backlog.Resume()
		writeJSON(w, http.StatusOK, map[string]bool{"paused": false})
	})

	r.Get("/api/cache", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, cacheStatus(cache))
	})
	r.Delete("/api/cache", func(w http.ResponseWriter, r *http.Request) {
		cache.Clear()
		writeJSON(w, http.StatusOK, map[string]any{"cleared": true})
	})
	r.Get("/api/cache/entries", func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 {
			limit = 10
		}
		if limit > 100 {
			limit = 100
		}
		if offset < 0 {
			offset = 0
		}
		writeJSON(w, http.StatusOK, cacheEntries(cache, offset, limit))
	})
	r.Delete("/api/cache/entries/{key}", func(w http.ResponseWriter, r *http.Request) {
		key, err := parseCacheKey(chi.URLParam(r, "key"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid key"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"deleted": cache.DeleteByKey(key),
			"key":     formatCacheKey(key),
		})
	})

	r.Get("/ws/progress", func(w http.ResponseWriter, r *http.Request) {
		serveProgressWS(hub, backlog, w, r)
	})

	return r
}

// loadServerConfig reads the YAML config named by SOLVER_CONFIG and applies
// the SOLVER_* environment overrides on top.
func loadServerConfig() Config {
	path := getenv("SOLVER_CONFIG", "config.yaml")
	config, err := LoadConfigFile(path)
	if err != nil {
		initLogger(config.LogLevel, config.LogFormat)
		logs().Error().Str("component", "config").Err(err).Msg("config load failed")
		os.Exit(1)
	}
	config.ListenAddr = getenv("SOLVER_ADDR", config.ListenAddr)
	config.LogLevel = getenv("SOLVER_LOG_LEVEL", config.LogLevel)
	config.LogFormat = getenv("SOLVER_LOG_FORMAT", config.LogFormat)
	config.JobWorkers = getenvInt("SOLVER_JOB_WORKERS", config.JobWorkers)
	config.CacheSize = getenvInt("SOLVER_CACHE_SIZE", config.CacheSize)
	return config
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		began := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logs().Debug().Str("component", "http").Str("method", r.Method).
			Str("path", r.URL.Path).Int("status", ww.Status()).
			Int64("duration_ms", time.Since(began).Milliseconds()).Msg("request")
	})
}

func buildSolveResponse(spec solveSpec, outcome SolveOutcome, includePath bool) solveResponse {
	resp := solveResponse{
		Found:     outcome.Found,
		Cached:    outcome.Cached,
		Algorithm: spec.Algorithm,
		Heuristic: spec.Heuristic,
		Moves:     movesToStrings(outcome.Moves),
		MoveCount: len(outcome.Moves),
		Stats:     outcome.Stats,
	}
	if includePath && outcome.Found {
		resp.Path = boardsToStrings(ReplayMoves(spec.Start, outcome.Moves))
	}
	return resp
}

func jobToDTO(snap JobSnapshot) jobDTO {
	dto := jobDTO{
		ID:          snap.ID,
		State:       string(snap.State),
		Start:       snap.Start.String(),
		Goal:        snap.Goal.String(),
		Algorithm:   snap.Algorithm,
		Heuristic:   snap.Heuristic,
		Hits:        snap.Hits,
		CreatedAtMs: snap.CreatedAtMs,
		StartedAtMs: snap.StartedAtMs,
	}
	if snap.Outcome != nil {
		found := snap.Outcome.Found
		cached := snap.Outcome.Cached
		stats := snap.Outcome.Stats
		dto.Found = &found
		dto.Cached = &cached
		dto.MoveCount = len(snap.Outcome.Moves)
		dto.Stats = &stats
	}
	return dto
}

func jobDetail(snap JobSnapshot, includePath bool) jobDetailResponse {
	detail := jobDetailResponse{jobDTO: jobToDTO(snap)}
	if snap.Outcome == nil {
		return detail
	}
	detail.Moves = movesToStrings(snap.Outcome.Moves)
	if includePath && snap.Outcome.Found {
		detail.Path = boardsToStrings(ReplayMoves(snap.Start, snap.Outcome.Moves))
	}
	return detail
}

func queueStatus(backlog *solveBacklog) queueStatusResponse {
	return queueStatusResponse{
		Pending: backlog.PendingLen(),
		Paused:  backlog.Paused(),
		Workers: jobWorkerCount(GetConfig(), runtime.NumCPU()),
	}
}

func cacheStatus(cache *SolveCache) cacheStatusResponse {
	count := cache.Count()
	capacity := cache.Capacity()
	usage := 0.0
	full := false
	if capacity > 0 {
		usage = float64(count) / float64(capacity)
		full = count >= capacity
	}
	return cacheStatusResponse{
		Count:      count,
		Capacity:   capacity,
		Usage:      usage,
		Full:       full,
		Generation: cache.Generation(),
	}
}

func cacheEntries(cache *SolveCache, offset, limit int) cacheEntriesResponse {
	entries, total := cache.TopEntriesByHits(offset, limit)
	items := make([]cacheEntryDTO, 0, len(entries))
	for _, entry := range entries {
		items = append(items, cacheEntryToDTO(entry))
	}
	return cacheEntriesResponse{Items: items, Offset: offset, Limit: limit, Total: total}
}

func cacheEntryToDTO(entry SolveEntry) cacheEntryDTO {
	return cacheEntryDTO{
		Key:         formatCacheKey(entry.Key),
		Algorithm:   entry.Algorithm,
		Heuristic:   entry.Heuristic,
		Found:       entry.Found,
		MoveCount:   len(entry.Moves),
		Expanded:    entry.Stats.Expanded,
		Hits:        entry.Hits,
		GenWritten:  entry.GenWritten,
		GenLastUsed: entry.GenLastUsed,
	}
}

func formatCacheKey(key uint64) string {
	return "0x" + strconv.FormatUint(key, 16)
}

func parseCacheKey(raw string) (uint64, error) {
	if raw == "" {
		return 0, errors.New("empty")
	}
	return strconv.ParseUint(raw, 0, 64)
}

func movesToStrings(moves []Move) []string {
	out := make([]string, 0, len(moves))
	for _, move := range moves {
		out = append(out, move.String())
	}
	return out
}

func boardsToStrings(boards []Board) []string {
	out := make([]string, 0, len(boards))
	for _, board := range boards {
		out = append(out, board.String())
	}
	return out
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func mustMarshal(v any) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
