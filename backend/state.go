package main

// PuzzleState is one node in a search tree: a board, its hash computed once
// at construction, and a link to the state it was generated from. States are
// never mutated after construction; sibling branches share ancestors through
// the Parent pointer and the tree stays alive as long as any leaf does.
type PuzzleState struct {
	Board  Board
	Hash   uint64
	Parent *PuzzleState
}

// NewRootState wraps a starting board. Roots have no parent.
func NewRootState(board Board) *PuzzleState {
	return &PuzzleState{Board: board, Hash: ComputeHash(board)}
}

func newChildState(parent *PuzzleState, board Board, hash uint64) *PuzzleState {
	return &PuzzleState{Board: board, Hash: hash, Parent: parent}
}

// Depth counts moves from the root. The root is at depth 0.
func (s *PuzzleState) Depth() int {
	depth := 0
	for anc := s.Parent; anc != nil; anc = anc.Parent {
		depth++
	}
	return depth
}
