package main

// Zobrist keys for every (cell index, symbol) pair. The table is generated
// from a fixed seed, so hashes are stable across runs and across processes.
// Blank cells contribute nothing: two boards with the same block and agent
// placement have the same blanks, so skipping them loses no information.

const symbolSpace = 256

type ZobristTable struct {
	keys [BoardCells * symbolSpace]uint64
}

var zobrist = newZobristTable()

func newZobristTable() *ZobristTable {
	rng := splitmix64{state: uint64(0x9e3779b97f4a7c15) ^ uint64(BoardCells)}
	table := &ZobristTable{}
	for i := range table.keys {
		table.keys[i] = rng.next()
	}
	return table
}

func (z *ZobristTable) key(index int, symbol byte) uint64 {
	return z.keys[index*symbolSpace+int(symbol)]
}

// ComputeHash returns the zobrist hash of a board. Collisions are possible;
// callers that need certainty compare boards directly.
func ComputeHash(board Board) uint64 {
	var hash uint64
	for i := 0; i < BoardCells; i++ {
		if board[i] == BlankCell {
			continue
		}
		hash ^= zobrist.key(i, board[i])
	}
	return hash
}

// SwapHash updates hash for the two cells exchanged by a move, avoiding a
// full recompute. i holds the agent before the swap, j the cell it moves to.
func (z *ZobristTable) SwapHash(hash uint64, board Board, i, j int) uint64 {
	if board[i] != BlankCell {
		hash ^= z.key(i, board[i])
		hash ^= z.key(j, board[i])
	}
	if board[j] != BlankCell {
		hash ^= z.key(j, board[j])
		hash ^= z.key(i, board[j])
	}
	return hash
}

type splitmix64 struct {
	state uint64
}

func (s *splitmix64) next() uint64 {
	s.state += 0x9e3779b97f4a7c15
	z := s.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
