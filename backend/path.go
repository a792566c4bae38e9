package main

// ReconstructPath walks predecessor links from the goal state back to the
// root and returns the boards in playing order, start first. A nil state
// yields an empty path.
func ReconstructPath(goal *PuzzleState) []Board {
	if goal == nil {
		return nil
	}
	var path []Board
	for s := goal; s != nil; s = s.Parent {
		path = append(path, s.Board)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// PathMoves derives the move sequence of a solution from the agent's
// position in consecutive boards.
func PathMoves(goal *PuzzleState) []Move {
	path := ReconstructPath(goal)
	if len(path) < 2 {
		return nil
	}
	moves := make([]Move, 0, len(path)-1)
	for i := 1; i < len(path); i++ {
		moves = append(moves, moveBetween(path[i-1], path[i]))
	}
	return moves
}

// ReplayMoves applies a move sequence to start and returns every board
// visited, start included. Replay stops at the first illegal move; cached
// sequences were recorded from legal paths, so a short result signals a
// corrupted entry rather than a puzzle condition.
func ReplayMoves(start Board, moves []Move) []Board {
	boards := make([]Board, 0, len(moves)+1)
	boards = append(boards, start)
	current := start
	for _, move := range moves {
		next, ok := current.Apply(move)
		if !ok {
			break
		}
		current = next
		boards = append(boards, current)
	}
	return boards
}

func moveBetween(from, to Board) Move {
	switch to.AgentIndex() - from.AgentIndex() {
	case -1:
		return MoveLeft
	case 1:
		return MoveRight
	case -BoardSize:
		return MoveUp
	case BoardSize:
		return MoveDown
	default:
		return MoveUnknown
	}
}
