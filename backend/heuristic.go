package main

// Heuristic names accepted by the config and the solve API.
const (
	HeuristicIndex     = "index"
	HeuristicManhattan = "manhattan"
)

// ScoreFunc estimates how far a board is from the goal. Zero means equal.
type ScoreFunc func(board, goal Board) int

// ScorerFor maps a heuristic name to its scorer. Unknown names fall back to
// the flat-index scorer.
func ScorerFor(name string) ScoreFunc {
	if name == HeuristicManhattan {
		return ScoreManhattan
	}
	return ScoreIndexDistance
}

// ScoreIndexDistance sums, over every goal cell whose symbol is misplaced,
// the flat-index distance between where the symbol sits and where it
// belongs. Blanks and the agent count like any other symbol, with the first
// occurrence standing in for all duplicates. A symbol absent from the board
// scores as if it sat one past the last cell.
//
// Flat-index distance treats index 3 and index 4 as neighbors even though
// they sit on opposite edges, so this is a coarser estimate than the
// row/column scorer below. It is the default.
func ScoreIndexDistance(board, goal Board) int {
	score := 0
	for i := 0; i < BoardCells; i++ {
		c := goal[i]
		if board[i] == c {
			continue
		}
		p := board.IndexOf(c)
		if p < 0 {
			p = BoardCells
		}
		score += absInt(p - i)
	}
	return score
}

// ScoreManhattan is the row/column variant of ScoreIndexDistance: the
// distance between two cells is the sum of their row and column offsets.
func ScoreManhattan(board, goal Board) int {
	score := 0
	for i := 0; i < BoardCells; i++ {
		c := goal[i]
		if board[i] == c {
			continue
		}
		p := board.IndexOf(c)
		if p < 0 {
			score += 2 * (BoardSize - 1)
			continue
		}
		score += absInt(p%BoardSize-i%BoardSize) + absInt(p/BoardSize-i/BoardSize)
	}
	return score
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
