package engine

import (
	"math/bits"

	mg "duckchess/duckmg"
)

// SeePieceValue gives the static exchange values indexed by PieceType.
var SeePieceValue = [7]int{
	mg.PieceTypePawn:   100,
	mg.PieceTypeKnight: 300,
	mg.PieceTypeBishop: 300,
	mg.PieceTypeRook:   500,
	mg.PieceTypeQueen:  900,
	mg.PieceTypeKing:   5000,
}

// attackersTo collects every piece of either side that attacks sq under the
// given occupancy. Sliders are recomputed against occ so removed pieces open
// their x-ray lines.
func attackersTo(b *mg.Board, sq int, occ uint64) uint64 {
	w := b.WhiteBitboards()
	bl := b.BlackBitboards()

	att := mg.PawnAttackBB(mg.Black, sq) & w.Pawns
	att |= mg.PawnAttackBB(mg.White, sq) & bl.Pawns
	att |= mg.KnightAttackBB(sq) & (w.Knights | bl.Knights)
	att |= mg.KingAttackBB(sq) & (w.Kings | bl.Kings)
	att |= mg.RookAttacks(sq, occ) & (w.Rooks | w.Queens | bl.Rooks | bl.Queens)
	att |= mg.BishopAttacks(sq, occ) & (w.Bishops | w.Queens | bl.Bishops | bl.Queens)
	return att & occ
}

// leastValuableAttacker picks the cheapest attacker of the given side from
// the attacker set, returning its single-bit board and piece type.
func leastValuableAttacker(b *mg.Board, attadef uint64, side mg.Color) (uint64, mg.PieceType) {
	bbs := b.Bitboards(side)
	for _, cand := range [...]struct {
		pieces uint64
		pt     mg.PieceType
	}{
		{bbs.Pawns, mg.PieceTypePawn},
		{bbs.Knights, mg.PieceTypeKnight},
		{bbs.Bishops, mg.PieceTypeBishop},
		{bbs.Rooks, mg.PieceTypeRook},
		{bbs.Queens, mg.PieceTypeQueen},
		{bbs.Kings, mg.PieceTypeKing},
	} {
		if subset := attadef & cand.pieces; subset != 0 {
			return uint64(1) << uint(bits.TrailingZeros64(subset)), cand.pt
		}
	}
	return 0, mg.PieceTypeNone
}

// see runs a static exchange evaluation of the capture sequence on the move's
// destination square. Positive means the capture wins material against best
// replies; negative means it loses the exchange.
func see(b *mg.Board, move mg.Move) int {
	toSq := int(move.To())
	fromSq := int(move.From())

	attacker := b.PieceAt(move.From()).Type()
	target := victimType(b, move)
	if target == mg.PieceTypeNone {
		target = mg.PieceTypePawn
	}

	var gain [32]int
	d := 0
	gain[0] = SeePieceValue[target]

	occ := b.AllOccupancy()
	occ &^= uint64(1) << uint(fromSq)
	if move.IsEnPassant() {
		if b.SideToMove() == mg.White {
			occ &^= uint64(1) << uint(toSq-8)
		} else {
			occ &^= uint64(1) << uint(toSq+8)
		}
	}

	w := b.WhiteBitboards()
	bl := b.BlackBitboards()
	rq := w.Rooks | w.Queens | bl.Rooks | bl.Queens
	bq := w.Bishops | w.Queens | bl.Bishops | bl.Queens

	attadef := attackersTo(b, toSq, occ)
	side := 1 - b.SideToMove()
	curAttacker := attacker

	for {
		d++
		gain[d] = SeePieceValue[curAttacker] - gain[d-1]
		if Max(-gain[d-1], gain[d]) < 0 {
			break
		}

		fromSet, pt := leastValuableAttacker(b, attadef&occ, side)
		if fromSet == 0 {
			break
		}
		occ &^= fromSet
		// Removing the attacker may open an x-ray behind it.
		attadef |= (mg.RookAttacks(toSq, occ) & rq) | (mg.BishopAttacks(toSq, occ) & bq)
		attadef &= occ
		curAttacker = pt
		side = 1 - side
	}

	for d--; d > 0; d-- {
		gain[d-1] = -Max(-gain[d-1], gain[d])
	}
	return gain[0]
}
