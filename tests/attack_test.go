package duckchess_test

import (
	"testing"

	mg "duckchess/duckmg"

	"golang.org/x/exp/rand"
)

func TestIsSquareAttacked(t *testing.T) {
	b := mustParse(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")

	cases := []struct {
		sq   mg.Square
		by   mg.Color
		want bool
	}{
		{21, mg.White, true},  // f3 queen's square defended by the g2 pawn
		{28, mg.Black, true},  // e4 pawn attacked by the f6 knight
		{0, mg.Black, false},  // a1 rook square untouched by black
		{56, mg.White, false}, // a8 untouched by white
	}
	for _, tc := range cases {
		if got := b.IsSquareAttacked(tc.sq, tc.by); got != tc.want {
			t.Errorf("IsSquareAttacked(%d, %v) = %v, want %v", tc.sq, tc.by, got, tc.want)
		}
	}
}

// The magic lookup must agree with straightforward ray walking for any
// occupancy. Random sparse and dense occupancies exercise every table.
func TestMagicTablesMatchRayWalk(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))

	rookRef := func(sq int, occ uint64) uint64 {
		return slowSlider(sq, occ, [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}})
	}
	bishopRef := func(sq int, occ uint64) uint64 {
		return slowSlider(sq, occ, [][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}})
	}

	for iter := 0; iter < 2000; iter++ {
		occ := rnd.Uint64() & rnd.Uint64() // sparse
		if iter%3 == 0 {
			occ = rnd.Uint64() | rnd.Uint64() // dense
		}
		sq := int(rnd.Uint32() % 64)

		if got, want := mg.RookAttacks(sq, occ), rookRef(sq, occ); got != want {
			t.Fatalf("RookAttacks(%d, %x) = %x, want %x", sq, occ, got, want)
		}
		if got, want := mg.BishopAttacks(sq, occ), bishopRef(sq, occ); got != want {
			t.Fatalf("BishopAttacks(%d, %x) = %x, want %x", sq, occ, got, want)
		}
		if got, want := mg.QueenAttacks(sq, occ), rookRef(sq, occ)|bishopRef(sq, occ); got != want {
			t.Fatalf("QueenAttacks(%d, %x) = %x, want %x", sq, occ, got, want)
		}
	}
}

// slowSlider is an independent reference: step square by square until blocked.
func slowSlider(sq int, occ uint64, dirs [][2]int) uint64 {
	var attacks uint64
	rank, file := sq/8, sq%8
	for _, d := range dirs {
		r, f := rank+d[0], file+d[1]
		for r >= 0 && r < 8 && f >= 0 && f < 8 {
			bit := uint64(1) << uint(r*8+f)
			attacks |= bit
			if occ&bit != 0 {
				break
			}
			r += d[0]
			f += d[1]
		}
	}
	return attacks
}

func TestLeaperTables(t *testing.T) {
	// Knight on d4 (27) reaches 8 squares; on a1 (0) only 2.
	if got := mg.KnightAttackBB(27); popcount(got) != 8 {
		t.Errorf("knight on d4 attacks %d squares, want 8", popcount(got))
	}
	if got := mg.KnightAttackBB(0); popcount(got) != 2 {
		t.Errorf("knight on a1 attacks %d squares, want 2", popcount(got))
	}
	if got := mg.KingAttackBB(27); popcount(got) != 8 {
		t.Errorf("king on d4 attacks %d squares, want 8", popcount(got))
	}
	if got := mg.KingAttackBB(63); popcount(got) != 3 {
		t.Errorf("king on h8 attacks %d squares, want 3", popcount(got))
	}
	// White pawn on e4 (28) attacks d5 and f5.
	if got := mg.PawnAttackBB(mg.White, 28); got != (1<<35)|(1<<37) {
		t.Errorf("white pawn on e4 attack mask %x", got)
	}
}

func popcount(x uint64) int {
	n := 0
	for ; x != 0; x &= x - 1 {
		n++
	}
	return n
}
