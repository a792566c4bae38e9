package main

import (
	"fmt"
	"time"
)

// SolveRequest is the wire form of a solve order, shared by the synchronous
// solve endpoint, the bench endpoint and the job queue.
type SolveRequest struct {
	Start       string `json:"start"`
	Goal        string `json:"goal"`
	Algorithm   string `json:"algorithm,omitempty"`
	Heuristic   string `json:"heuristic,omitempty"`
	IncludePath bool   `json:"include_path,omitempty"`
}

// solveSpec is a validated SolveRequest with config defaults applied.
type solveSpec struct {
	Start     Board
	Goal      Board
	Algorithm string
	Heuristic string
}

func (r SolveRequest) resolve(config Config) (solveSpec, error) {
	start, err := ParseBoard(r.Start)
	if err != nil {
		return solveSpec{}, fmt.Errorf("start board: %w", err)
	}
	goal, err := ParseBoard(r.Goal)
	if err != nil {
		return solveSpec{}, fmt.Errorf("goal board: %w", err)
	}
	algorithm, err := normalizeAlgorithm(r.Algorithm, config.DefaultAlgorithm)
	if err != nil {
		return solveSpec{}, err
	}
	heuristic, err := normalizeHeuristic(r.Heuristic, config.DefaultHeuristic)
	if err != nil {
		return solveSpec{}, err
	}
	return solveSpec{Start: start, Goal: goal, Algorithm: algorithm, Heuristic: heuristic}, nil
}

func normalizeAlgorithm(name, fallback string) (string, error) {
	if name == "" {
		name = fallback
	}
	switch name {
	case AlgorithmAStar, AlgorithmBreadthFirst:
		return name, nil
	default:
		return "", fmt.Errorf("unknown algorithm %q", name)
	}
}

func normalizeHeuristic(name, fallback string) (string, error) {
	if name == "" {
		name = fallback
	}
	switch name {
	case HeuristicIndex, HeuristicManhattan:
		return name, nil
	default:
		return "", fmt.Errorf("unknown heuristic %q", name)
	}
}

// SolveOutcome is a completed solve in replayable form. Paths are never
// stored; they are rebuilt from Moves on demand.
type SolveOutcome struct {
	Found  bool
	Moves  []Move
	Stats  SearchStats
	Cached bool
}

// solveWithCache answers a solve order from the result cache when possible
// and records fresh results for the next caller. Searches on a 4x4 grid are
// deterministic, so a cached outcome is exactly what a rerun would produce.
func solveWithCache(cache *SolveCache, spec solveSpec, opts SearchOptions) SolveOutcome {
	cache.NextGeneration()
	key := SolveRequestKey(spec.Start, spec.Goal, spec.Algorithm, spec.Heuristic)
	if entry, ok := cache.Probe(key); ok {
		return SolveOutcome{Found: entry.Found, Moves: entry.Moves, Stats: entry.Stats, Cached: true}
	}
	opts.Scorer = ScorerFor(spec.Heuristic)
	result := Solve(spec.Start, spec.Goal, spec.Algorithm, opts)
	outcome := SolveOutcome{Found: result.Found, Moves: PathMoves(result.Goal), Stats: result.Stats}
	cache.Store(SolveEntry{
		Key:       key,
		Algorithm: spec.Algorithm,
		Heuristic: spec.Heuristic,
		Found:     outcome.Found,
		Moves:     outcome.Moves,
		Stats:     outcome.Stats,
	})
	return outcome
}

// BenchOutcome aggregates repeated solves of one spec. Per-run stats are
// identical across iterations, so only the last run's are kept.
type BenchOutcome struct {
	Iterations   int
	TotalElapsed time.Duration
	AvgMs        float64
	Found        bool
	MoveCount    int
	Stats        SearchStats
}

// runBench repeats the same search without touching the cache, which would
// otherwise turn every iteration after the first into a lookup.
func runBench(spec solveSpec, iterations int) BenchOutcome {
	opts := SearchOptions{Scorer: ScorerFor(spec.Heuristic)}
	began := time.Now()
	var last SearchResult
	for i := 0; i < iterations; i++ {
		last = Solve(spec.Start, spec.Goal, spec.Algorithm, opts)
	}
	elapsed := time.Since(began)
	out := BenchOutcome{
		Iterations:   iterations,
		TotalElapsed: elapsed,
		Found:        last.Found,
		Stats:        last.Stats,
	}
	if iterations > 0 {
		out.AvgMs = elapsed.Seconds() * 1000 / float64(iterations)
		out.MoveCount = len(PathMoves(last.Goal))
	}
	return out
}
