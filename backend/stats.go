package main

import "time"

// Algorithm names accepted by the config and the solve API.
const (
	AlgorithmAStar        = "astar"
	AlgorithmBreadthFirst = "bfs"
)

// SearchStats counts the work one search performed.
type SearchStats struct {
	Expanded     int64         `json:"expanded"`
	Generated    int64         `json:"generated"`
	OffGrid      int64         `json:"off_grid_rejects"`
	CycleRejects int64         `json:"cycle_rejects"`
	MaxFrontier  int           `json:"max_frontier"`
	Elapsed      time.Duration `json:"-"`
	ElapsedMs    float64       `json:"elapsed_ms"`
}

func (s *SearchStats) finish(start time.Time) {
	s.Elapsed = time.Since(start)
	s.ElapsedMs = float64(s.Elapsed.Microseconds()) / 1000.0
}

func (s *SearchStats) countReject(outcome moveOutcome) {
	switch outcome {
	case moveOffGrid:
		s.OffGrid++
	case moveCycle:
		s.CycleRejects++
	}
}

func (s *SearchStats) trackFrontier(size int) {
	if size > s.MaxFrontier {
		s.MaxFrontier = size
	}
}

// SearchProgress is a point-in-time snapshot handed to OnProgress observers.
type SearchProgress struct {
	Algorithm string        `json:"algorithm"`
	Expanded  int64         `json:"expanded"`
	Generated int64         `json:"generated"`
	Frontier  int           `json:"frontier"`
	BestScore int           `json:"best_score"`
	Elapsed   time.Duration `json:"-"`
	ElapsedMs int64         `json:"elapsed_ms"`
	Final     bool          `json:"final"`
}

// SearchOptions tunes a search without changing its contract. The zero value
// runs the search to completion with the default scorer and no observation.
//
// OnProgress is called synchronously every ProgressEvery expansions and once
// more when the search ends. It observes only: a search cannot be cancelled
// from the outside and always runs until it finds the goal or exhausts the
// reachable space.
type SearchOptions struct {
	Scorer        ScoreFunc
	OnProgress    func(SearchProgress)
	ProgressEvery int64
}

func (o SearchOptions) scorer() ScoreFunc {
	if o.Scorer != nil {
		return o.Scorer
	}
	return ScoreIndexDistance
}

func (o SearchOptions) reportProgress(p SearchProgress) {
	if o.OnProgress == nil {
		return
	}
	if p.Final || (o.ProgressEvery > 0 && p.Expanded%o.ProgressEvery == 0) {
		o.OnProgress(p)
	}
}

// SearchResult is the outcome of one search. Found false means the reachable
// space was exhausted without meeting the goal; it is a result, not an error.
type SearchResult struct {
	Goal  *PuzzleState
	Found bool
	Stats SearchStats
}

// Solve runs the named algorithm on a start/goal pair.
func Solve(start, goal Board, algorithm string, opts SearchOptions) SearchResult {
	if algorithm == AlgorithmBreadthFirst {
		return BreadthFirstSearch(start, goal, opts)
	}
	return AStarSearch(start, goal, opts)
}
