package engine

import (
	mg "duckchess/duckmg"
)

// PVLine carries the principal variation found below a node.
type PVLine struct {
	Moves []mg.Move
}

// Clear truncates the line.
func (pv *PVLine) Clear() {
	pv.Moves = pv.Moves[:0]
}

// Update sets the line to move followed by the child's line.
func (pv *PVLine) Update(move mg.Move, child PVLine) {
	pv.Moves = pv.Moves[:0]
	pv.Moves = append(pv.Moves, move)
	pv.Moves = append(pv.Moves, child.Moves...)
}

// Clone returns an independent copy of the line.
func (pv PVLine) Clone() PVLine {
	out := PVLine{Moves: make([]mg.Move, len(pv.Moves))}
	copy(out.Moves, pv.Moves)
	return out
}

// GetPVMove returns the first move of the line, or the zero move if empty.
func (pv PVLine) GetPVMove() mg.Move {
	if len(pv.Moves) == 0 {
		return mg.Move(0)
	}
	return pv.Moves[0]
}
