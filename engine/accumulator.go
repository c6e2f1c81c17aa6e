package engine

import (
	"math/bits"

	mg "duckchess/duckmg"
)

// Accumulator carries the first-layer activations for both perspectives.
// It is updated incrementally as moves are made and unmade; computed is
// false when the contents must be refreshed from the board before use.
type Accumulator struct {
	white    [nnueHidden1]int16
	black    [nnueHidden1]int16
	computed bool
}

// The per-ply accumulator stack mirrors the search's make/unmake stack:
// making a move copies the top and patches it, unmaking pops.
var accStack [MaxDepth + 8]Accumulator
var accTop int

// resetAccumulatorStack rebuilds the stack bottom for a fresh root position.
func resetAccumulatorStack(b *mg.Board) {
	accTop = 0
	if nnueNet != nil {
		accStack[0].Refresh(b, nnueNet)
	} else {
		accStack[0].computed = false
	}
}

func currentAccumulator() *Accumulator { return &accStack[accTop] }

func pushAccumulator() {
	accStack[accTop+1] = accStack[accTop]
	accTop++
}

func popAccumulator() {
	if accTop > 0 {
		accTop--
	}
}

// Refresh recomputes both perspectives from scratch by iterating the set bits
// of every piece bitboard.
func (a *Accumulator) Refresh(b *mg.Board, net *Network) {
	copy(a.white[:], net.inputBiases)
	copy(a.black[:], net.inputBiases)

	for c := mg.White; c <= mg.Black; c++ {
		bbs := b.Bitboards(c)
		for pt, pieceBB := range [...]uint64{
			mg.PieceTypePawn:   bbs.Pawns,
			mg.PieceTypeKnight: bbs.Knights,
			mg.PieceTypeBishop: bbs.Bishops,
			mg.PieceTypeRook:   bbs.Rooks,
			mg.PieceTypeQueen:  bbs.Queens,
			mg.PieceTypeKing:   bbs.Kings,
		} {
			piece := mg.PieceFromType(c, mg.PieceType(pt))
			for pieceBB != 0 {
				sq := bits.TrailingZeros64(pieceBB)
				pieceBB &= pieceBB - 1
				a.addFeature(net, piece, sq)
			}
		}
	}
	a.computed = true
}

// addFeature adds one feature column to both perspectives.
func (a *Accumulator) addFeature(net *Network, p mg.Piece, sq int) {
	wIdx := featureIndex(p, sq, mg.White) * nnueHidden1
	bIdx := featureIndex(p, sq, mg.Black) * nnueHidden1
	wCol := net.inputWeights[wIdx : wIdx+nnueHidden1]
	bCol := net.inputWeights[bIdx : bIdx+nnueHidden1]
	for i := 0; i < nnueHidden1; i++ {
		a.white[i] += wCol[i]
		a.black[i] += bCol[i]
	}
}

// subFeature removes one feature column from both perspectives.
func (a *Accumulator) subFeature(net *Network, p mg.Piece, sq int) {
	wIdx := featureIndex(p, sq, mg.White) * nnueHidden1
	bIdx := featureIndex(p, sq, mg.Black) * nnueHidden1
	wCol := net.inputWeights[wIdx : wIdx+nnueHidden1]
	bCol := net.inputWeights[bIdx : bIdx+nnueHidden1]
	for i := 0; i < nnueHidden1; i++ {
		a.white[i] -= wCol[i]
		a.black[i] -= bCol[i]
	}
}

// ApplyMove patches the accumulator for a move that has already been made on
// the board. King moves invalidate the accumulator instead; the next
// evaluation refreshes it from scratch.
func (a *Accumulator) ApplyMove(b *mg.Board, m mg.Move, st mg.MoveState, net *Network) {
	if !a.computed {
		return
	}
	mover := mg.Color(1 - b.SideToMove()) // side that just moved
	from := int(m.From())
	to := int(m.To())
	pieceAfter := b.PieceAt(m.To())

	if pieceAfter.Type() == mg.PieceTypeKing {
		a.computed = false
		return
	}

	pieceBefore := pieceAfter
	if m.IsPromotion() {
		pieceBefore = mg.PieceFromType(mover, mg.PieceTypePawn)
	}

	a.subFeature(net, pieceBefore, from)
	a.addFeature(net, pieceAfter, to)

	if captured := st.Captured(); captured != mg.NoPiece {
		capSq := to
		if m.IsEnPassant() {
			if mover == mg.White {
				capSq = to - 8
			} else {
				capSq = to + 8
			}
		}
		a.subFeature(net, captured, capSq)
	}
	// Castling is a king move, handled by the refresh path above.
}
