package main

import (
	"container/heap"
	"time"
)

// scoredState pairs a frontier state with its heuristic score. seq breaks
// score ties by insertion order, which keeps pop order deterministic.
type scoredState struct {
	state *PuzzleState
	score int
	seq   uint64
}

type frontierHeap []scoredState

func (h frontierHeap) Len() int { return len(h) }

func (h frontierHeap) Less(i, j int) bool {
	if h[i].score != h[j].score {
		return h[i].score < h[j].score
	}
	return h[i].seq < h[j].seq
}

func (h frontierHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *frontierHeap) Push(x any) {
	*h = append(*h, x.(scoredState))
}

func (h *frontierHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = scoredState{}
	*h = old[:n-1]
	return item
}

// AStarSearch expands the frontier state with the lowest heuristic score
// first. Successors are goal-checked as they are generated; non-goal
// successors are scored and pushed. There is no per-path cost term and no
// closed set, so the search is greedy: it tends to reach the goal after far
// fewer expansions than breadth-first, but the path it returns is not
// guaranteed to be the shortest.
func AStarSearch(start, goal Board, opts SearchOptions) SearchResult {
	began := time.Now()
	var stats SearchStats
	score := opts.scorer()

	root := NewRootState(start)
	if root.Board == goal {
		stats.finish(began)
		reportFinal(opts, AlgorithmAStar, &stats, 0, 0)
		return SearchResult{Goal: root, Found: true, Stats: stats}
	}

	var seq uint64
	frontier := frontierHeap{{state: root, score: score(start, goal)}}
	stats.MaxFrontier = 1
	for frontier.Len() > 0 {
		best := heap.Pop(&frontier).(scoredState)
		stats.Expanded++
		for _, move := range allMoves {
			next, outcome := tryMove(best.state, move)
			if next == nil {
				stats.countReject(outcome)
				continue
			}
			stats.Generated++
			if next.Board == goal {
				stats.finish(began)
				reportFinal(opts, AlgorithmAStar, &stats, frontier.Len(), best.score)
				return SearchResult{Goal: next, Found: true, Stats: stats}
			}
			seq++
			heap.Push(&frontier, scoredState{state: next, score: score(next.Board, goal), seq: seq})
			stats.trackFrontier(frontier.Len())
		}
		opts.reportProgress(SearchProgress{
			Algorithm: AlgorithmAStar,
			Expanded:  stats.Expanded,
			Generated: stats.Generated,
			Frontier:  frontier.Len(),
			BestScore: best.score,
			Elapsed:   time.Since(began),
			ElapsedMs: time.Since(began).Milliseconds(),
		})
	}

	stats.finish(began)
	reportFinal(opts, AlgorithmAStar, &stats, 0, 0)
	return SearchResult{Found: false, Stats: stats}
}
