package engine

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	mg "duckchess/duckmg"
)

// writeBook serializes entries in the on-disk polyglot layout.
func writeBook(t *testing.T, entries []BookEntry) string {
	t.Helper()
	buf := make([]byte, 0, len(entries)*bookEntrySize)
	for _, e := range entries {
		var rec [bookEntrySize]byte
		binary.BigEndian.PutUint64(rec[0:], e.Key)
		binary.BigEndian.PutUint16(rec[8:], e.Move)
		binary.BigEndian.PutUint16(rec[10:], e.Weight)
		binary.BigEndian.PutUint32(rec[12:], e.Learn)
		buf = append(buf, rec[:]...)
	}
	path := filepath.Join(t.TempDir(), "book.bin")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// packMove encodes a move in polyglot's bit layout.
func packMove(fromFile, fromRank, toFile, toRank, promo int) uint16 {
	return uint16(toFile | toRank<<3 | fromFile<<6 | fromRank<<9 | promo<<12)
}

func TestBookProbeReturnsHighestWeight(t *testing.T) {
	b, _ := mg.ParseFEN(mg.FENStartPos)
	key := PolyglotHash(b)

	e2e4 := packMove(4, 1, 4, 3, 0)
	d2d4 := packMove(3, 1, 3, 3, 0)
	path := writeBook(t, []BookEntry{
		{Key: key, Move: d2d4, Weight: 10},
		{Key: key, Move: e2e4, Weight: 90},
		{Key: ^key, Move: e2e4, Weight: 1000}, // different position, must not match
	})

	book, err := LoadBook(path)
	if err != nil {
		t.Fatal(err)
	}
	if book.Len() != 3 {
		t.Fatalf("book has %d entries, want 3", book.Len())
	}

	move, ok := book.Probe(b)
	if !ok {
		t.Fatal("start position not found in book")
	}
	if move.String() != "e2e4" {
		t.Fatalf("probe returned %s, want e2e4", move.String())
	}
}

func TestBookProbeMissReturnsFalse(t *testing.T) {
	b, _ := mg.ParseFEN("4k3/8/4K3/8/8/8/8/6Q1 w - - 0 1")
	path := writeBook(t, []BookEntry{{Key: 0x1234, Move: packMove(4, 1, 4, 3, 0), Weight: 1}})
	book, err := LoadBook(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := book.Probe(b); ok {
		t.Fatal("probe hit for a position not in the book")
	}
}

func TestBookRejectsTruncatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.bin")
	if err := os.WriteFile(path, make([]byte, bookEntrySize+3), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadBook(path); err == nil {
		t.Fatal("truncated book accepted")
	}
}

func TestPolyglotHashDistinguishesState(t *testing.T) {
	a, _ := mg.ParseFEN("r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	b, _ := mg.ParseFEN("r3k2r/8/8/8/8/8/8/R3K2R w - - 0 1")
	c, _ := mg.ParseFEN("r3k2r/8/8/8/8/8/8/R3K2R b KQkq - 0 1")
	if PolyglotHash(a) == PolyglotHash(b) {
		t.Error("castling rights not hashed")
	}
	if PolyglotHash(a) == PolyglotHash(c) {
		t.Error("side to move not hashed")
	}
}

func TestCastlingMoveDecoding(t *testing.T) {
	b, _ := mg.ParseFEN("4k3/8/8/8/8/8/8/4K2R w K - 0 1")
	// Polyglot encodes white O-O as e1h1.
	if got := decodePolyglotMove(packMove(4, 0, 7, 0, 0), b); got != "e1g1" {
		t.Fatalf("e1h1 decoded to %s, want e1g1", got)
	}
}
