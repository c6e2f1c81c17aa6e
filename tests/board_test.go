package duckchess_test

import (
	"strings"
	"testing"

	mg "duckchess/duckmg"
)

func TestFENRoundTrip(t *testing.T) {
	fens := []string{
		mg.FENStartPos,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 0 1",
		"k7/8/8/3pP3/8/8/8/7K w - d6 0 2",
		"4k3/8/4K3/8/8/8/8/6Q1 w - - 0 1",
	}
	for _, fen := range fens {
		board := mustParse(t, fen)
		if got := board.ToFEN(); got != fen {
			t.Errorf("round trip: parse(%q).ToFEN() = %q", fen, got)
		}
	}
}

func TestFENErrorsNameTheField(t *testing.T) {
	cases := []struct {
		fen     string
		wantSub string
	}{
		{"", "fields"},
		{"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP w KQkq -", "ranks"},
		{"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPX/RNBQKBNR w KQkq -", "piece"},
		{"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq -", "side to move"},
		{"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w XQkq -", "castling"},
		{"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq z9", "en passant"},
		{"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - x 1", "halfmove"},
		{"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 zero", "fullmove"},
	}
	for _, tc := range cases {
		_, err := mg.ParseFEN(tc.fen)
		if err == nil {
			t.Errorf("ParseFEN(%q) accepted malformed input", tc.fen)
			continue
		}
		if !strings.Contains(err.Error(), tc.wantSub) {
			t.Errorf("ParseFEN(%q) error %q does not mention %q", tc.fen, err, tc.wantSub)
		}
	}
}

// Two move orders reaching the same position must produce the same key.
func TestZobristTranspositionEquality(t *testing.T) {
	a := mustParse(t, mg.FENStartPos)
	applyMoves(t, a, "g1f3", "g8f6", "b1c3", "b8c6")

	b := mustParse(t, mg.FENStartPos)
	applyMoves(t, b, "b1c3", "b8c6", "g1f3", "g8f6")

	if a.Hash() != b.Hash() {
		t.Fatalf("transposed positions disagree: %x vs %x", a.Hash(), b.Hash())
	}
	if a.Hash() != a.ComputeZobrist() {
		t.Fatal("incremental key differs from recomputed key")
	}
}

func TestZobristDiffersOnStateFields(t *testing.T) {
	base := mustParse(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	noCastle := mustParse(t, "r3k2r/8/8/8/8/8/8/R3K2R w - - 0 1")
	blackToMove := mustParse(t, "r3k2r/8/8/8/8/8/8/R3K2R b KQkq - 0 1")

	if base.Hash() == noCastle.Hash() {
		t.Error("castling rights not hashed")
	}
	if base.Hash() == blackToMove.Hash() {
		t.Error("side to move not hashed")
	}
}

func TestValidateDetectsConsistency(t *testing.T) {
	b := mustParse(t, mg.FENStartPos)
	if !b.Validate() {
		t.Fatal("start position reported inconsistent")
	}
	applyMoves(t, b, "e2e4", "e7e5", "g1f3")
	if !b.Validate() {
		t.Fatal("position after moves reported inconsistent")
	}
}

func TestStatusQueries(t *testing.T) {
	mate := mustParse(t, "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3")
	if !mate.InCheckmate() {
		t.Error("fool's mate position not detected as checkmate")
	}

	stale := mustParse(t, "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	if !stale.InStalemate() {
		t.Error("stalemate position not detected")
	}

	fifty := mustParse(t, "7k/8/6K1/8/8/8/8/6Q1 w - - 100 80")
	if !fifty.IsDrawBy50() {
		t.Error("halfmove clock 100 not reported as a 50-move draw")
	}
}

func applyMoves(t *testing.T, b *mg.Board, moves ...string) {
	t.Helper()
	for _, moveStr := range moves {
		m := findMove(t, b, moveStr)
		if ok, _ := b.MakeMove(m); !ok {
			t.Fatalf("move %s rejected", moveStr)
		}
	}
}
