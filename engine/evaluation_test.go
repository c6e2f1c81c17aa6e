package engine

import (
	"testing"

	mg "duckchess/duckmg"
)

func evalFEN(t *testing.T, fen string) int32 {
	t.Helper()
	b, err := mg.ParseFEN(fen)
	if err != nil {
		t.Fatal(err)
	}
	return evaluatePST(b)
}

func TestStartPositionNearBalanced(t *testing.T) {
	score := evalFEN(t, mg.FENStartPos)
	if score < -50 || score > 50 {
		t.Fatalf("start position eval = %d, want near 0", score)
	}
}

func TestEvalSymmetricUnderSideToMove(t *testing.T) {
	// A mirror-symmetric position scores the same for either side to move:
	// the material/PSQT terms cancel and both get the same tempo bonus.
	w := evalFEN(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	b := evalFEN(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR b KQkq - 0 1")
	if w != b {
		t.Fatalf("mirror-symmetric position evaluates %d (white) vs %d (black)", w, b)
	}
}

func TestMaterialAdvantageDominates(t *testing.T) {
	// White is up a queen.
	score := evalFEN(t, "rnb1kbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	if score < 700 {
		t.Fatalf("queen-up eval = %d, want clearly winning", score)
	}
	// Same position with Black to move is clearly losing for the mover.
	score = evalFEN(t, "rnb1kbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR b KQkq - 0 1")
	if score > -700 {
		t.Fatalf("queen-down eval = %d, want clearly losing", score)
	}
}

func TestEvalFiniteAndBounded(t *testing.T) {
	fens := []string{
		mg.FENStartPos,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"4k3/8/4K3/8/8/8/8/6Q1 w - - 0 1",
		"7k/8/6K1/8/8/8/8/6Q1 w - - 0 1",
	}
	for _, fen := range fens {
		score := evalFEN(t, fen)
		if score < -3000 || score > 3000 {
			t.Errorf("%s: eval %d outside +-3000", fen, score)
		}
	}
}

func TestPhaseInterpolation(t *testing.T) {
	b, _ := mg.ParseFEN(mg.FENStartPos)
	if got := getPiecePhase(b); got != TotalPhase {
		t.Fatalf("start position phase = %d, want %d", got, TotalPhase)
	}
	endgame, _ := mg.ParseFEN("4k3/8/4K3/8/8/8/8/8 w - - 0 1")
	if got := getPiecePhase(endgame); got != 0 {
		t.Fatalf("bare kings phase = %d, want 0", got)
	}
}
