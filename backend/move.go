package main

// Move is one of the four cardinal directions the agent can slide in.
// MoveUnknown is the zero value; TryMove rejects it like an off-grid move,
// so an uninitialized Move can never corrupt a search.
type Move int

const (
	MoveUnknown Move = iota
	MoveLeft
	MoveUp
	MoveRight
	MoveDown
)

// allMoves fixes the successor generation order.
var allMoves = [...]Move{MoveLeft, MoveUp, MoveRight, MoveDown}

func (m Move) String() string {
	switch m {
	case MoveLeft:
		return "left"
	case MoveUp:
		return "up"
	case MoveRight:
		return "right"
	case MoveDown:
		return "down"
	default:
		return "unknown"
	}
}

func ParseMove(s string) Move {
	switch s {
	case "left":
		return MoveLeft
	case "up":
		return MoveUp
	case "right":
		return MoveRight
	case "down":
		return MoveDown
	default:
		return MoveUnknown
	}
}

// moveTarget resolves the flat index the agent at index would slide to,
// or ok false when the move leaves the grid.
func moveTarget(index int, move Move) (int, bool) {
	x := index % BoardSize
	y := index / BoardSize
	switch move {
	case MoveLeft:
		if x == 0 {
			return 0, false
		}
		return index - 1, true
	case MoveRight:
		if x == BoardSize-1 {
			return 0, false
		}
		return index + 1, true
	case MoveUp:
		if y == 0 {
			return 0, false
		}
		return index - BoardSize, true
	case MoveDown:
		if y == BoardSize-1 {
			return 0, false
		}
		return index + BoardSize, true
	default:
		return 0, false
	}
}

// Apply slides the agent one cell without any history bookkeeping. Used to
// replay cached move sequences into board paths.
func (b Board) Apply(move Move) (Board, bool) {
	index := b.AgentIndex()
	target, ok := moveTarget(index, move)
	if !ok {
		return b, false
	}
	b[index], b[target] = b[target], b[index]
	return b, true
}

type moveOutcome int

const (
	moveOK moveOutcome = iota
	moveOffGrid
	moveCycle
)

// TryMove slides the agent one cell in the given direction and returns the
// resulting state, or nil when the move is off-grid or revisits an ancestor
// board on this branch. Both rejections are ordinary outcomes, not errors.
func TryMove(state *PuzzleState, move Move) *PuzzleState {
	next, _ := tryMove(state, move)
	return next
}

// tryMove is TryMove with the reject reason, for searcher statistics.
//
// The cycle walk compares cached hashes only, starting at the expanded
// state's parent: the agent always changes cells, so the expanded state
// itself cannot reappear, but its parent is exactly the board an undo move
// would recreate. The walk covers this branch alone; the same board reached
// on a different branch is generated again.
func tryMove(state *PuzzleState, move Move) (*PuzzleState, moveOutcome) {
	index := state.Board.AgentIndex()
	target, ok := moveTarget(index, move)
	if !ok {
		return nil, moveOffGrid
	}
	hash := zobrist.SwapHash(state.Hash, state.Board, index, target)
	for anc := state.Parent; anc != nil; anc = anc.Parent {
		if anc.Hash == hash {
			return nil, moveCycle
		}
	}
	board := state.Board
	board[index], board[target] = board[target], board[index]
	return newChildState(state, board, hash), moveOK
}
