package duckchess_test

import (
	"testing"

	mg "duckchess/duckmg"
)

func mustParse(t *testing.T, fen string) *mg.Board {
	t.Helper()
	board, err := mg.ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q) failed: %v", fen, err)
	}
	return board
}

func TestPerftInitialPosition(t *testing.T) {
	board := mustParse(t, mg.FENStartPos)
	for depth, want := range map[int]uint64{1: 20, 2: 400, 3: 8902, 4: 197281} {
		if got := mg.Perft(board, depth); got != want {
			t.Fatalf("startpos depth %d: got %d want %d", depth, got, want)
		}
	}
}

func TestPerftInitialDepth5(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping depth 5 perft in short mode")
	}
	board := mustParse(t, mg.FENStartPos)
	if got := mg.Perft(board, 5); got != 4865609 {
		t.Fatalf("startpos depth 5: got %d want %d", got, 4865609)
	}
}

func TestPerftKiwipete(t *testing.T) {
	board := mustParse(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	if got := mg.Perft(board, 1); got != 48 {
		for _, m := range board.GenerateMoves() {
			t.Logf("  %s flag=%d", m.String(), m.Flag())
		}
		t.Fatalf("Kiwipete depth 1: got %d want %d", got, 48)
	}
	if got := mg.Perft(board, 2); got != 2039 {
		t.Fatalf("Kiwipete depth 2: got %d want %d", got, 2039)
	}
	if got := mg.Perft(board, 3); got != 97862 {
		t.Fatalf("Kiwipete depth 3: got %d want %d", got, 97862)
	}
	if testing.Short() {
		t.Skip("skipping depth 4 perft in short mode")
	}
	if got := mg.Perft(board, 4); got != 4085603 {
		t.Fatalf("Kiwipete depth 4: got %d want %d", got, 4085603)
	}
}

func TestPerft_Position3(t *testing.T) {
	board := mustParse(t, "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1")
	if got := mg.Perft(board, 1); got != 14 {
		t.Fatalf("Pos3 d1: got %d want %d", got, 14)
	}
	if got := mg.Perft(board, 2); got != 191 {
		t.Fatalf("Pos3 d2: got %d want %d", got, 191)
	}
	if got := mg.Perft(board, 3); got != 2812 {
		t.Fatalf("Pos3 d3: got %d want %d", got, 2812)
	}
	if got := mg.Perft(board, 4); got != 43238 {
		t.Fatalf("Pos3 d4: got %d want %d", got, 43238)
	}
}

func TestPerft_Position4(t *testing.T) {
	board := mustParse(t, "r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1")
	if got := mg.Perft(board, 1); got != 6 {
		for _, m := range board.GenerateMoves() {
			t.Logf("  %s flag=%d", m.String(), m.Flag())
		}
		t.Fatalf("Pos4 d1: got %d want %d", got, 6)
	}
	if got := mg.Perft(board, 2); got != 264 {
		t.Fatalf("Pos4 d2: got %d want %d", got, 264)
	}
	if got := mg.Perft(board, 3); got != 9467 {
		t.Fatalf("Pos4 d3: got %d want %d", got, 9467)
	}
}

func TestPerft_Position5(t *testing.T) {
	board := mustParse(t, "rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 0 1")
	if got := mg.Perft(board, 1); got != 44 {
		t.Fatalf("Pos5 d1: got %d want %d", got, 44)
	}
	if got := mg.Perft(board, 2); got != 1486 {
		t.Fatalf("Pos5 d2: got %d want %d", got, 1486)
	}
	if got := mg.Perft(board, 3); got != 62379 {
		t.Fatalf("Pos5 d3: got %d want %d", got, 62379)
	}
}

func TestPerft_Position6(t *testing.T) {
	board := mustParse(t, "r4rk1/1pp1qppp/p1np1n2/2b1p1B1/2B1P1b1/P1NP1N2/1PP1QPPP/R4RK1 w - - 0 10")
	if got := mg.Perft(board, 1); got != 46 {
		t.Fatalf("Pos6 d1: got %d want %d", got, 46)
	}
	if got := mg.Perft(board, 2); got != 2079 {
		t.Fatalf("Pos6 d2: got %d want %d", got, 2079)
	}
	if got := mg.Perft(board, 3); got != 89890 {
		t.Fatalf("Pos6 d3: got %d want %d", got, 89890)
	}
}

func TestPerftEnPassantPosition(t *testing.T) {
	board := mustParse(t, "k7/8/8/3pP3/8/8/8/7K w - d6 0 2")
	if got := mg.Perft(board, 1); got != 5 {
		t.Fatalf("EP depth 1: got %d want %d", got, 5)
	}
	if got := mg.Perft(board, 2); got != 19 {
		t.Fatalf("EP depth 2: got %d want %d", got, 19)
	}
}

func TestPerftPromotionPosition(t *testing.T) {
	board := mustParse(t, "1n5k/P7/8/8/8/8/8/7K w - - 0 1")
	if got := mg.Perft(board, 1); got != 11 {
		t.Fatalf("Promotion depth 1: got %d want %d", got, 11)
	}
}

func TestPerftDivideSumsToPerft(t *testing.T) {
	board := mustParse(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	split := mg.PerftDivide(board, 3)
	var total uint64
	for _, n := range split {
		total += n
	}
	if want := mg.Perft(board, 3); total != want {
		t.Fatalf("divide sum %d != perft %d", total, want)
	}
}
