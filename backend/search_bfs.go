package main

import "time"

// BreadthFirstSearch explores outward from start one move at a time and
// returns the first state whose board equals goal. The frontier is a FIFO
// queue and successors are goal-checked as they are generated, so the first
// match carries a minimal number of moves. Exhausting the frontier without
// a match reports Found false; Goal is nil in that case.
func BreadthFirstSearch(start, goal Board, opts SearchOptions) SearchResult {
	began := time.Now()
	var stats SearchStats

	root := NewRootState(start)
	if root.Board == goal {
		stats.finish(began)
		reportFinal(opts, AlgorithmBreadthFirst, &stats, 0, 0)
		return SearchResult{Goal: root, Found: true, Stats: stats}
	}

	frontier := []*PuzzleState{root}
	stats.MaxFrontier = 1
	for len(frontier) > 0 {
		state := frontier[0]
		frontier = frontier[1:]
		stats.Expanded++
		for _, move := range allMoves {
			next, outcome := tryMove(state, move)
			if next == nil {
				stats.countReject(outcome)
				continue
			}
			stats.Generated++
			if next.Board == goal {
				stats.finish(began)
				reportFinal(opts, AlgorithmBreadthFirst, &stats, len(frontier), 0)
				return SearchResult{Goal: next, Found: true, Stats: stats}
			}
			frontier = append(frontier, next)
			stats.trackFrontier(len(frontier))
		}
		opts.reportProgress(SearchProgress{
			Algorithm: AlgorithmBreadthFirst,
			Expanded:  stats.Expanded,
			Generated: stats.Generated,
			Frontier:  len(frontier),
			Elapsed:   time.Since(began),
			ElapsedMs: time.Since(began).Milliseconds(),
		})
	}

	stats.finish(began)
	reportFinal(opts, AlgorithmBreadthFirst, &stats, 0, 0)
	return SearchResult{Found: false, Stats: stats}
}

func reportFinal(opts SearchOptions, algorithm string, stats *SearchStats, frontier, bestScore int) {
	opts.reportProgress(SearchProgress{
		Algorithm: algorithm,
		Expanded:  stats.Expanded,
		Generated: stats.Generated,
		Frontier:  frontier,
		BestScore: bestScore,
		Elapsed:   stats.Elapsed,
		ElapsedMs: stats.Elapsed.Milliseconds(),
		Final:     true,
	})
}
