package engine

import (
	mg "duckchess/duckmg"
)

// KillerStruct keeps two quiet refutation moves per ply.
type KillerStruct struct {
	KillerMoves [MaxDepth + 1][2]mg.Move
}

// InsertKiller records a quiet move that caused a beta cutoff at the ply.
func InsertKiller(move mg.Move, ply int16, k *KillerStruct) {
	if move != k.KillerMoves[ply][0] {
		k.KillerMoves[ply][1] = k.KillerMoves[ply][0]
		k.KillerMoves[ply][0] = move
	}
}

// IsKiller reports whether the move is one of the ply's killers.
func IsKiller(move mg.Move, ply int16, k *KillerStruct) bool {
	return k.KillerMoves[ply][0] == move || k.KillerMoves[ply][1] == move
}

// ClearKillers resets the killer move table.
func (k *KillerStruct) ClearKillers() {
	var nilMove mg.Move
	for ply := 0; ply < MaxDepth+1; ply++ {
		k.KillerMoves[ply][0] = nilMove
		k.KillerMoves[ply][1] = nilMove
	}
}
