package duckmg

import (
	"math/bits"

	"golang.org/x/exp/rand"
)

// magicEntry holds one square's magic lookup data: the relevant-occupancy
// mask (edges excluded), the magic multiplier, the shift, and the attack
// table indexed by ((occ & mask) * magic) >> shift.
type magicEntry struct {
	mask  uint64
	magic uint64
	shift uint
	table []uint64
}

var rookMagics [64]magicEntry
var bishopMagics [64]magicEntry

// RookAttacks returns the rook attack bitboard from sq for the given occupancy.
func RookAttacks(sq int, occ uint64) uint64 {
	m := &rookMagics[sq]
	return m.table[((occ&m.mask)*m.magic)>>m.shift]
}

// BishopAttacks returns the bishop attack bitboard from sq for the given occupancy.
func BishopAttacks(sq int, occ uint64) uint64 {
	m := &bishopMagics[sq]
	return m.table[((occ&m.mask)*m.magic)>>m.shift]
}

// QueenAttacks combines rook and bishop attacks.
func QueenAttacks(sq int, occ uint64) uint64 {
	return RookAttacks(sq, occ) | BishopAttacks(sq, occ)
}

// CalculateRookMoveBitboard is an exported alias kept for drivers and tests.
func CalculateRookMoveBitboard(square uint8, occupancy uint64) uint64 {
	return RookAttacks(int(square), occupancy)
}

// CalculateBishopMoveBitboard is an exported alias kept for drivers and tests.
func CalculateBishopMoveBitboard(square uint8, occupancy uint64) uint64 {
	return BishopAttacks(int(square), occupancy)
}

// initMagics builds masks and attack tables for every square. The magic
// multipliers are found by a seeded sparse-random search, so the same
// constants come out on every run.
func initMagics() {
	rnd := rand.New(rand.NewSource(0xB055))

	for sq := 0; sq < 64; sq++ {
		file := sq % 8
		rank := sq / 8

		// Rook mask excludes the board edges in each direction.
		var rm uint64
		for r := rank + 1; r < 7; r++ {
			rm |= 1 << uint(r*8+file)
		}
		for r := rank - 1; r > 0; r-- {
			rm |= 1 << uint(r*8+file)
		}
		for f := file + 1; f < 7; f++ {
			rm |= 1 << uint(rank*8+f)
		}
		for f := file - 1; f > 0; f-- {
			rm |= 1 << uint(rank*8+f)
		}

		// Bishop mask excludes all edges.
		var bm uint64
		for r, f := rank+1, file+1; r < 7 && f < 7; r, f = r+1, f+1 {
			bm |= 1 << uint(r*8+f)
		}
		for r, f := rank+1, file-1; r < 7 && f > 0; r, f = r+1, f-1 {
			bm |= 1 << uint(r*8+f)
		}
		for r, f := rank-1, file+1; r > 0 && f < 7; r, f = r-1, f+1 {
			bm |= 1 << uint(r*8+f)
		}
		for r, f := rank-1, file-1; r > 0 && f > 0; r, f = r-1, f-1 {
			bm |= 1 << uint(r*8+f)
		}

		findMagic(&rookMagics[sq], sq, rm, rookAttacksSlow, rnd)
		findMagic(&bishopMagics[sq], sq, bm, bishopAttacksSlow, rnd)
	}
}

// findMagic fills in one magicEntry by enumerating every blocker subset of the
// mask and trying sparse random multipliers until the table is collision-free.
func findMagic(m *magicEntry, sq int, mask uint64, slow func(int, uint64) uint64, rnd *rand.Rand) {
	n := bits.OnesCount64(mask)
	size := 1 << uint(n)
	m.mask = mask
	m.shift = uint(64 - n)

	// Enumerate all subsets of the mask (Carry-Rippler) with their reference
	// attack sets.
	occs := make([]uint64, 0, size)
	refs := make([]uint64, 0, size)
	sub := uint64(0)
	for {
		occs = append(occs, sub)
		refs = append(refs, slow(sq, sub))
		sub = (sub - mask) & mask
		if sub == 0 {
			break
		}
	}

	table := make([]uint64, size)
	used := make([]bool, size)
	for {
		magic := rnd.Uint64() & rnd.Uint64() & rnd.Uint64()
		// Cheap rejection: the mapping must spread the mask's high bits.
		if bits.OnesCount64((mask*magic)&0xFF00000000000000) < 6 {
			continue
		}

		for i := range used {
			used[i] = false
		}
		good := true
		for i, occ := range occs {
			idx := (occ * magic) >> m.shift
			if used[idx] && table[idx] != refs[i] {
				good = false
				break
			}
			table[idx] = refs[i]
			used[idx] = true
		}
		if good {
			m.magic = magic
			m.table = table
			return
		}
	}
}
