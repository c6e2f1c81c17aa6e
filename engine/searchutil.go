package engine

import (
	"fmt"
	"math"
	"math/bits"

	mg "duckchess/duckmg"
)

// MaxDepth bounds the search ply; the per-ply stack arrays are sized by it.
const MaxDepth = 128

var nodesChecked uint64
var seldepth int16

// LMR holds precomputed late-move reductions indexed by [depth][moveIndex].
var LMR = [MaxDepth + 1][100]int8{}

var counterMove [2][64][64]mg.Move
var historyMove [2][64][64]int
var historyMaxVal = 10000 // keep below the capture/killer ordering offsets

// InitLMRTable fills the reduction table with
// floor(0.75 + ln(depth) * ln(moveIndex) / 2.25), clamped to the remaining depth.
func InitLMRTable() {
	for d := 1; d <= MaxDepth; d++ {
		for m := 1; m < 100; m++ {
			r := int(0.75 + math.Log(float64(d))*math.Log(float64(m))/2.25)
			if r > d-2 {
				r = d - 2
			}
			if r < 0 {
				r = 0
			}
			LMR[d][m] = int8(r)
		}
	}
}

// Clamp restricts f to the inclusive range [low, high].
func Clamp(f, low, high int8) int8 {
	if f < low {
		return low
	}
	if f > high {
		return high
	}
	return f
}

// Min returns the smaller of x or y.
func Min(x, y int) int {
	if x < y {
		return x
	}
	return y
}

// Max returns the larger of x or y.
func Max(x, y int) int {
	if x > y {
		return x
	}
	return y
}

// abs32 returns the absolute value of x.
func abs32(x int32) int32 {
	if x < 0 {
		return -x
	}
	return x
}

/*
HISTORY / COUNTER MOVES
If a quiet move was a cut-node (above beta), we keep track of two things:
the move that refuted the previous move (a counter move), and a historical
score used for move ordering later.
*/
func storeCounter(side mg.Color, prevMove mg.Move, move mg.Move) {
	counterMove[side][prevMove.From()][prevMove.To()] = move
}

// incrementHistoryScore rewards a quiet move that caused a beta cutoff.
func incrementHistoryScore(side mg.Color, move mg.Move, depth int8) {
	historyMove[side][move.From()][move.To()] += int(depth) * int(depth)
	if historyMove[side][move.From()][move.To()] >= historyMaxVal {
		ageHistoryTable(side)
	}
}

// decrementHistoryScoreBy punishes quiet moves that were searched before the
// cutoff move and failed to produce one.
func decrementHistoryScoreBy(side mg.Color, move mg.Move, depth int8) {
	h := &historyMove[side][move.From()][move.To()]
	*h -= int(depth) * int(depth)
	if *h < 0 {
		*h = 0
	}
}

// ageHistoryTable halves the values in the history table for a side.
func ageHistoryTable(side mg.Color) {
	for sq1 := 0; sq1 < 64; sq1++ {
		for sq2 := 0; sq2 < 64; sq2++ {
			historyMove[side][sq1][sq2] /= 2
		}
	}
}

// ClearHistoryTable zeroes both sides' history tables.
func ClearHistoryTable() {
	for side := 0; side < 2; side++ {
		for sq1 := 0; sq1 < 64; sq1++ {
			for sq2 := 0; sq2 < 64; sq2++ {
				historyMove[side][sq1][sq2] = 0
			}
		}
	}
}

// hasMinorOrMajorPiece counts non-pawn, non-king pieces per side; null-move
// pruning is disabled for a side with none (zugzwang guard).
func hasMinorOrMajorPiece(b *mg.Board) (wCount int, bCount int) {
	w := b.WhiteBitboards()
	bl := b.BlackBitboards()
	wCount = bits.OnesCount64(w.Bishops | w.Knights | w.Rooks | w.Queens)
	bCount = bits.OnesCount64(bl.Bishops | bl.Knights | bl.Rooks | bl.Queens)
	return wCount, bCount
}

func getPVLineString(pvLine PVLine) string {
	theMoves := ""
	for _, move := range pvLine.Moves {
		theMoves += " "
		theMoves += move.String()
	}
	return theMoves
}

// getMateOrCPScore formats the UCI score field: "cp N" for normal scores,
// "mate N" in full moves when the score encodes a forced mate.
func getMateOrCPScore(score int32) string {
	if score > mateThreshold {
		pliesToMate := int(MateScore - score)
		if pliesToMate < 0 {
			pliesToMate = 0
		}
		return fmt.Sprintf("mate %d", (pliesToMate+1)/2)
	}
	if score < -mateThreshold {
		pliesToMate := int(MateScore + score)
		if pliesToMate < 0 {
			pliesToMate = 0
		}
		return fmt.Sprintf("mate %d", -(pliesToMate+1)/2)
	}
	return fmt.Sprintf("cp %d", score)
}

// ResetForNewGame clears the tables that persist across searches.
func ResetForNewGame() {
	TT.clearTT()
	stateStack = stateStack[:0]
	KillerMoveTable.ClearKillers()
	ClearHistoryTable()
	var nilMove mg.Move
	for i := 0; i < 64; i++ {
		for z := 0; z < 64; z++ {
			counterMove[0][i][z] = nilMove
			counterMove[1][i][z] = nilMove
		}
	}
	prevSearchScore = 0
}
