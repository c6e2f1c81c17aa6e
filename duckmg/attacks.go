package duckmg

import "math/bits"

// Precomputed attack masks for knights and kings from each square.
var knightMoves [64]uint64
var kingMoves [64]uint64

// Pawn attack masks: pawnAttacks[color][sq] gives bitboard of squares that a pawn of 'color' attacks from 'sq'.
var pawnAttacks [2][64]uint64

// Precomputed rays for sliders. For each square and direction, the bitboard of
// squares in that ray (excluding the origin square).
// Rook directions: 0=N, 1=S, 2=E, 3=W
var rookRays [64][4]uint64

// Bishop directions: 0=NE, 1=NW, 2=SE, 3=SW
var bishopRays [64][4]uint64

// Precomputed union of all rook and bishop rays from each square (for quick king-ray tests)
var kingRaysUnion [64]uint64

func init() {
	initAttackTables()
	initRays()
	initMagics()
}

// initAttackTables precomputes move attack bitboards for knights, kings, and pawn captures.
func initAttackTables() {
	knightOffsets := [8][2]int{
		{2, 1}, {2, -1}, {-2, 1}, {-2, -1},
		{1, 2}, {1, -2}, {-1, 2}, {-1, -2},
	}
	kingOffsets := [8][2]int{
		{1, 0}, {-1, 0}, {0, 1}, {0, -1},
		{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
	}
	for sq := 0; sq < 64; sq++ {
		file := sq % 8
		rank := sq / 8
		var nMask, kMask uint64
		for i := 0; i < 8; i++ {
			if rf, ff := rank+knightOffsets[i][0], file+knightOffsets[i][1]; rf >= 0 && rf < 8 && ff >= 0 && ff < 8 {
				nMask |= uint64(1) << (rf*8 + ff)
			}
			if rf, ff := rank+kingOffsets[i][0], file+kingOffsets[i][1]; rf >= 0 && rf < 8 && ff >= 0 && ff < 8 {
				kMask |= uint64(1) << (rf*8 + ff)
			}
		}
		knightMoves[sq] = nMask
		kingMoves[sq] = kMask

		// White pawn attacks (moves upward)
		if rank < 7 {
			if file > 0 {
				pawnAttacks[White][sq] |= uint64(1) << ((rank+1)*8 + file - 1)
			}
			if file < 7 {
				pawnAttacks[White][sq] |= uint64(1) << ((rank+1)*8 + file + 1)
			}
		}

		// Black pawn attacks (moves downward)
		if rank > 0 {
			if file > 0 {
				pawnAttacks[Black][sq] |= uint64(1) << ((rank-1)*8 + file - 1)
			}
			if file < 7 {
				pawnAttacks[Black][sq] |= uint64(1) << ((rank-1)*8 + file + 1)
			}
		}
	}
}

// initRays precomputes directional rays for rook and bishop lines.
func initRays() {
	for sq := 0; sq < 64; sq++ {
		file := sq % 8
		rank := sq / 8

		// Rook rays

		// N
		var ray uint64
		for r := rank + 1; r < 8; r++ {
			ray |= 1 << uint(r*8+file)
		}
		rookRays[sq][0] = ray

		// S
		ray = 0
		for r := rank - 1; r >= 0; r-- {
			ray |= 1 << uint(r*8+file)
		}
		rookRays[sq][1] = ray

		// E
		ray = 0
		for f := file + 1; f < 8; f++ {
			ray |= 1 << uint(rank*8+f)
		}
		rookRays[sq][2] = ray

		// W
		ray = 0
		for f := file - 1; f >= 0; f-- {
			ray |= 1 << uint(rank*8+f)
		}
		rookRays[sq][3] = ray

		// Bishop rays

		// NE
		ray = 0
		for r, f := rank+1, file+1; r < 8 && f < 8; r, f = r+1, f+1 {
			ray |= 1 << uint(r*8+f)
		}
		bishopRays[sq][0] = ray

		// NW
		ray = 0
		for r, f := rank+1, file-1; r < 8 && f >= 0; r, f = r+1, f-1 {
			ray |= 1 << uint(r*8+f)
		}
		bishopRays[sq][1] = ray

		// SE
		ray = 0
		for r, f := rank-1, file+1; r >= 0 && f < 8; r, f = r-1, f+1 {
			ray |= 1 << uint(r*8+f)
		}
		bishopRays[sq][2] = ray

		// SW
		ray = 0
		for r, f := rank-1, file-1; r >= 0 && f >= 0; r, f = r-1, f-1 {
			ray |= 1 << uint(r*8+f)
		}
		bishopRays[sq][3] = ray

		kingRaysUnion[sq] =
			rookRays[sq][0] | rookRays[sq][1] | rookRays[sq][2] | rookRays[sq][3] |
				bishopRays[sq][0] | bishopRays[sq][1] | bishopRays[sq][2] | bishopRays[sq][3]
	}
}

// rookAttacksSlow returns rook attacks from sq given occupancy by walking rays.
// Used to seed the magic tables; the hot path uses RookAttacks.
func rookAttacksSlow(sq int, occ uint64) uint64 {
	var attacks uint64

	// N (increasing indices)
	ray := rookRays[sq][0]
	if blockers := ray & occ; blockers != 0 {
		first := bits.TrailingZeros64(blockers)
		ray &^= rookRays[first][0]
	}
	attacks |= ray

	// S (decreasing indices)
	ray = rookRays[sq][1]
	if blockers := ray & occ; blockers != 0 {
		first := 63 - bits.LeadingZeros64(blockers)
		ray &^= rookRays[first][1]
	}
	attacks |= ray

	// E (increasing)
	ray = rookRays[sq][2]
	if blockers := ray & occ; blockers != 0 {
		first := bits.TrailingZeros64(blockers)
		ray &^= rookRays[first][2]
	}
	attacks |= ray

	// W (decreasing)
	ray = rookRays[sq][3]
	if blockers := ray & occ; blockers != 0 {
		first := 63 - bits.LeadingZeros64(blockers)
		ray &^= rookRays[first][3]
	}
	attacks |= ray

	return attacks
}

// bishopAttacksSlow returns bishop attacks from sq given occupancy by walking rays.
func bishopAttacksSlow(sq int, occ uint64) uint64 {
	var attacks uint64

	// NE (increasing)
	ray := bishopRays[sq][0]
	if blockers := ray & occ; blockers != 0 {
		first := bits.TrailingZeros64(blockers)
		ray &^= bishopRays[first][0]
	}
	attacks |= ray

	// NW (increasing)
	ray = bishopRays[sq][1]
	if blockers := ray & occ; blockers != 0 {
		first := bits.TrailingZeros64(blockers)
		ray &^= bishopRays[first][1]
	}
	attacks |= ray

	// SE (decreasing)
	ray = bishopRays[sq][2]
	if blockers := ray & occ; blockers != 0 {
		first := 63 - bits.LeadingZeros64(blockers)
		ray &^= bishopRays[first][2]
	}
	attacks |= ray

	// SW (decreasing)
	ray = bishopRays[sq][3]
	if blockers := ray & occ; blockers != 0 {
		first := 63 - bits.LeadingZeros64(blockers)
		ray &^= bishopRays[first][3]
	}
	attacks |= ray

	return attacks
}

// ==========================
// Attack queries
// ==========================

// IsSquareAttacked reports whether the given square is attacked by the given color.
func (b *Board) IsSquareAttacked(sq Square, by Color) bool {
	return b.isSquareAttackedWithOcc(int(sq), by, b.AllOccupancy())
}

// isSquareAttackedWithOcc reports whether 'by' attacks square s under the
// given occupancy. Attacker sets are masked by occ so callers can simulate
// removed pieces (en passant, king moves) without ghost attackers.
func (b *Board) isSquareAttackedWithOcc(s int, by Color, occ uint64) bool {
	byIdx := int(by)

	// Pawn attacks via reverse mask (fewer branches)
	if by == White {
		if (pawnAttacks[Black][s] & b.pawns[byIdx] & occ) != 0 {
			return true
		}
	} else {
		if (pawnAttacks[White][s] & b.pawns[byIdx] & occ) != 0 {
			return true
		}
	}

	// Knights
	if knightMoves[s]&b.knights[byIdx]&occ != 0 {
		return true
	}

	// Kings
	if kingMoves[s]&b.kings[byIdx]&occ != 0 {
		return true
	}

	// Sliders via the magic tables
	if RookAttacks(s, occ)&(b.rooks[byIdx]|b.queens[byIdx])&occ != 0 {
		return true
	}
	if BishopAttacks(s, occ)&(b.bishops[byIdx]|b.queens[byIdx])&occ != 0 {
		return true
	}

	return false
}

// InCheck reports whether the specified color's king is currently in check.
func (b *Board) InCheck(color Color) bool {
	kingBB := b.kings[int(color)]
	if kingBB == 0 {
		return false
	}
	ks := bits.TrailingZeros64(kingBB)
	return b.IsSquareAttacked(Square(ks), 1-color)
}

// OurKingInCheck reports whether the side to move is in check.
func (b *Board) OurKingInCheck() bool { return b.InCheck(b.sideToMove) }

// PawnAttackBB returns the squares a pawn of the given color attacks from sq.
func PawnAttackBB(c Color, sq int) uint64 { return pawnAttacks[c][sq] }

// KnightAttackBB returns the knight attack mask from sq.
func KnightAttackBB(sq int) uint64 { return knightMoves[sq] }

// KingAttackBB returns the king attack mask from sq.
func KingAttackBB(sq int) uint64 { return kingMoves[sq] }

// computeCheckAndPins computes check state and pin masks for the side to move.
// Returns:
// - inCheck: whether king is in check
// - doubleCheck: whether there are two or more checkers
// - checkMask: if single check, the set of squares that non-king moves may move to (block or capture)
// - pinLine: for each square (index), a mask of squares along the pin line the piece is allowed to move to; 0 means not pinned
func (b *Board) computeCheckAndPins(side Color, occ uint64) (inCheck bool, doubleCheck bool, checkMask uint64, pinLine [64]uint64) {
	us := int(side)
	them := 1 - us

	kingBB := b.kings[us]
	if kingBB == 0 {
		return false, false, 0, pinLine
	}
	ksq := bits.TrailingZeros64(kingBB)

	// Compute checkers
	var checkers uint64

	// Pawn attackers (reverse lookup: our color's table from the king square)
	checkers |= pawnAttacks[side][ksq] & b.pawns[them]

	// Knights
	checkers |= knightMoves[ksq] & b.knights[them]

	// Bishops/Queens along diagonals
	checkers |= BishopAttacks(ksq, occ) & (b.bishops[them] | b.queens[them])

	// Rooks/Queens along ranks/files
	checkers |= RookAttacks(ksq, occ) & (b.rooks[them] | b.queens[them])

	inCheck = checkers != 0
	doubleCheck = inCheck && (checkers&(checkers-1)) != 0

	// If single check, compute mask of squares that block or capture the checker
	if inCheck && !doubleCheck {
		c := bits.TrailingZeros64(checkers)
		cp := b.pieces[c]
		cbb := uint64(1) << uint(c)

		switch typeOf(cp) {
		case 4: // rook
			for d := 0; d < 4; d++ {
				if (rookRays[ksq][d] & cbb) != 0 {
					checkMask = rookRays[ksq][d] &^ rookRays[c][d]
					break
				}
			}
		case 3: // bishop
			for d := 0; d < 4; d++ {
				if (bishopRays[ksq][d] & cbb) != 0 {
					checkMask = bishopRays[ksq][d] &^ bishopRays[c][d]
					break
				}
			}
		case 5: // queen, along either line kind
			for d := 0; d < 4; d++ {
				if (rookRays[ksq][d] & cbb) != 0 {
					checkMask = rookRays[ksq][d] &^ rookRays[c][d]
					break
				}
				if (bishopRays[ksq][d] & cbb) != 0 {
					checkMask = bishopRays[ksq][d] &^ bishopRays[c][d]
					break
				}
			}
		default: // pawn or knight: capture is the only option
			checkMask = cbb
		}
	}

	// Compute pins: for each ray from king, if the first piece is ours and the
	// first piece beyond it is an aligned opponent slider, mark the pin line.

	// Rook-like directions
	for d := 0; d < 4; d++ {
		ray := rookRays[ksq][d]
		blockers := ray & occ
		if blockers == 0 {
			continue
		}

		var first int
		if d == 0 || d == 2 { // N, E increasing
			first = bits.TrailingZeros64(blockers)
		} else { // S, W decreasing
			first = 63 - bits.LeadingZeros64(blockers)
		}

		firstBB := uint64(1) << uint(first)
		if (firstBB & b.occupancy[us]) == 0 {
			continue
		}

		beyond := rookRays[first][d] & occ
		if beyond == 0 {
			continue
		}

		var next int
		if d == 0 || d == 2 {
			next = bits.TrailingZeros64(beyond)
		} else {
			next = 63 - bits.LeadingZeros64(beyond)
		}

		p := b.pieces[next]
		if (typeOf(p) == 4 || typeOf(p) == 5) && colorOf(p) != side {
			pinLine[first] = rookRays[ksq][d] &^ rookRays[next][d]
		}
	}

	// Bishop-like directions
	for d := 0; d < 4; d++ {
		ray := bishopRays[ksq][d]
		blockers := ray & occ
		if blockers == 0 {
			continue
		}

		var first int
		if d == 0 || d == 1 { // NE, NW increasing
			first = bits.TrailingZeros64(blockers)
		} else { // SE, SW decreasing
			first = 63 - bits.LeadingZeros64(blockers)
		}

		firstBB := uint64(1) << uint(first)
		if (firstBB & b.occupancy[us]) == 0 {
			continue
		}

		beyond := bishopRays[first][d] & occ
		if beyond == 0 {
			continue
		}

		var next int
		if d == 0 || d == 1 {
			next = bits.TrailingZeros64(beyond)
		} else {
			next = 63 - bits.LeadingZeros64(beyond)
		}

		p := b.pieces[next]
		if (typeOf(p) == 3 || typeOf(p) == 5) && colorOf(p) != side {
			pinLine[first] = bishopRays[ksq][d] &^ bishopRays[next][d]
		}
	}

	return inCheck, doubleCheck, checkMask, pinLine
}
