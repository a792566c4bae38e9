package main

import (
	"fmt"
	"strings"
)

const (
	// BoardSize is the edge length of the grid. Moves and indices assume
	// row-major layout: index = y*BoardSize + x.
	BoardSize  = 4
	BoardCells = BoardSize * BoardSize

	AgentCell = '*'
	BlankCell = ' '
)

// Board is one arrangement of the 16-cell grid. It is a value type: assigning
// or passing a Board copies it, so successor states never alias their parents.
type Board [BoardCells]byte

// ParseBoard validates a 16-character literal and returns the board it
// describes. Validation is the caller's concern; search code assumes boards
// it receives are well formed.
func ParseBoard(literal string) (Board, error) {
	var b Board
	if len(literal) != BoardCells {
		return b, fmt.Errorf("board literal must be %d characters, got %d", BoardCells, len(literal))
	}
	agents := 0
	var seen [256]bool
	for i := 0; i < BoardCells; i++ {
		c := literal[i]
		switch c {
		case AgentCell:
			agents++
		case BlankCell:
		default:
			if seen[c] {
				return b, fmt.Errorf("duplicate block label %q", c)
			}
			seen[c] = true
		}
		b[i] = c
	}
	if agents != 1 {
		return b, fmt.Errorf("board must contain exactly one %q, got %d", AgentCell, agents)
	}
	return b, nil
}

func (b Board) At(x, y int) byte {
	return b[y*BoardSize+x]
}

// AgentIndex returns the flat index of the agent cell, or -1 if the board
// carries none. Parsed boards always have exactly one.
func (b Board) AgentIndex() int {
	for i, c := range b {
		if c == AgentCell {
			return i
		}
	}
	return -1
}

// IndexOf returns the first flat index holding symbol c, or -1.
func (b Board) IndexOf(c byte) int {
	for i := 0; i < BoardCells; i++ {
		if b[i] == c {
			return i
		}
	}
	return -1
}

// String renders the board as its 16-character literal.
func (b Board) String() string {
	return string(b[:])
}

// Rows renders the board as four 4-character rows, top to bottom.
func (b Board) Rows() []string {
	rows := make([]string, BoardSize)
	for y := 0; y < BoardSize; y++ {
		rows[y] = string(b[y*BoardSize : (y+1)*BoardSize])
	}
	return rows
}

// Grid renders the board with cell separators for human-readable logs.
func (b Board) Grid() string {
	var sb strings.Builder
	for y := 0; y < BoardSize; y++ {
		sb.WriteByte('|')
		for x := 0; x < BoardSize; x++ {
			sb.WriteByte(b.At(x, y))
			if x < BoardSize-1 {
				sb.WriteByte(' ')
			}
		}
		sb.WriteByte('|')
		if y < BoardSize-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func (b Board) CountBlanks() int {
	count := 0
	for _, c := range b {
		if c == BlankCell {
			count++
		}
	}
	return count
}
