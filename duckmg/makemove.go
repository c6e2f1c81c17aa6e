package duckmg

import "math/bits"

// MoveState holds the minimal state needed to undo a move.
type MoveState struct {
	move          Move
	captured      Piece
	prevCastling  CastlingRights
	prevEnPassant Square
	prevHalfmove  int
	prevFullmove  int
	prevZobrist   uint64
}

// Move returns the move this state undoes.
func (st MoveState) Move() Move { return st.move }

// Captured returns the piece taken by the move, or NoPiece.
func (st MoveState) Captured() Piece { return st.captured }

// NullState stores the minimal information needed to undo a null move.
type NullState struct {
	prevEnPassant Square
	prevHalfmove  int
	prevFullmove  int
	prevZobrist   uint64
	prevSide      Color
}

// MakeMove applies a move to the board. It returns ok=false, restoring the
// original position, if a king move, an en-passant capture, or a move from a
// square on one of the king's rays leaves the mover's king attacked. Other
// moves are not checked, so a move that ignores an existing check is accepted.
// The generator only emits legal moves, so the rejection path guards against
// corrupted input rather than normal traffic.
func (b *Board) MakeMove(m Move) (ok bool, st MoveState) {
	from := m.From()
	to := m.To()
	moved := b.pieces[int(from)]
	flag := m.Flag()

	st.move = m
	st.prevCastling = b.castlingRights
	st.prevEnPassant = b.enPassantSquare
	st.prevHalfmove = b.halfmoveClock
	st.prevFullmove = b.fullmoveNumber
	st.prevZobrist = b.zobristKey
	st.captured = NoPiece

	// Remove previous en passant from Zobrist if present
	if b.enPassantSquare != NoSquare {
		b.zobristKey ^= zobristEnPassant[int(b.enPassantSquare%8)]
	}
	b.enPassantSquare = NoSquare

	us := int(b.sideToMove)
	them := 1 - us
	fromBB := uint64(1) << uint(from)
	toBB := uint64(1) << uint(to)

	// Handle capture (including en passant)
	if flag == FlagEnPassant {
		// Captured pawn is behind 'to'
		var capSq Square
		var capPiece Piece
		if b.sideToMove == White {
			capSq = to - 8
			capPiece = BlackPawn
		} else {
			capSq = to + 8
			capPiece = WhitePawn
		}
		st.captured = capPiece
		capBB := uint64(1) << uint(capSq)
		b.pieces[int(capSq)] = NoPiece
		b.occupancy[them] &^= capBB
		b.pawns[them] &^= capBB
		b.zobristKey ^= zobristPiece[capPiece][int(capSq)]
	} else if m.IsCapture() {
		captured := b.pieces[int(to)]
		st.captured = captured
		b.pieces[int(to)] = NoPiece
		b.occupancy[them] &^= toBB
		switch typeOf(captured) {
		case 1:
			b.pawns[them] &^= toBB
		case 2:
			b.knights[them] &^= toBB
		case 3:
			b.bishops[them] &^= toBB
		case 4:
			b.rooks[them] &^= toBB
		case 5:
			b.queens[them] &^= toBB
		case 6:
			b.kings[them] &^= toBB
		}
		b.zobristKey ^= zobristPiece[captured][int(to)]
	}

	// Move the piece (or promote)
	if m.IsPromotion() {
		promo := PieceFromType(b.sideToMove, m.PromotionPieceType())
		// Remove pawn at from
		b.pieces[int(from)] = NoPiece
		b.occupancy[us] &^= fromBB
		b.pawns[us] &^= fromBB
		b.zobristKey ^= zobristPiece[moved][int(from)]
		// Add promoted piece at to
		b.pieces[int(to)] = promo
		b.occupancy[us] |= toBB
		switch typeOf(promo) {
		case 2:
			b.knights[us] |= toBB
		case 3:
			b.bishops[us] |= toBB
		case 4:
			b.rooks[us] |= toBB
		case 5:
			b.queens[us] |= toBB
		}
		b.zobristKey ^= zobristPiece[promo][int(to)]
	} else {
		// Plain move of the piece from -> to
		b.pieces[int(from)] = NoPiece
		b.pieces[int(to)] = moved
		b.occupancy[us] ^= (fromBB | toBB)
		switch typeOf(moved) {
		case 1:
			b.pawns[us] ^= (fromBB | toBB)
		case 2:
			b.knights[us] ^= (fromBB | toBB)
		case 3:
			b.bishops[us] ^= (fromBB | toBB)
		case 4:
			b.rooks[us] ^= (fromBB | toBB)
		case 5:
			b.queens[us] ^= (fromBB | toBB)
		case 6:
			b.kings[us] ^= (fromBB | toBB)
		}
		b.zobristKey ^= zobristPiece[moved][int(from)]
		b.zobristKey ^= zobristPiece[moved][int(to)]
	}

	// Castling rook movement
	if m.IsCastle() {
		rFrom, rTo := castleRookSquares(b.sideToMove, flag)
		rook := WhiteRook
		if b.sideToMove == Black {
			rook = BlackRook
		}
		rb := uint64(1) << uint(rFrom)
		nb := uint64(1) << uint(rTo)
		b.pieces[int(rFrom)] = NoPiece
		b.pieces[int(rTo)] = rook
		b.occupancy[us] ^= (rb | nb)
		b.rooks[us] ^= (rb | nb)
		b.zobristKey ^= zobristPiece[rook][int(rFrom)]
		b.zobristKey ^= zobristPiece[rook][int(rTo)]
	}

	// Update castling rights
	newCR := b.castlingRights
	switch moved {
	case WhiteKing:
		newCR &^= (CastlingWhiteK | CastlingWhiteQ)
	case BlackKing:
		newCR &^= (CastlingBlackK | CastlingBlackQ)
	case WhiteRook:
		if from == 0 {
			newCR &^= CastlingWhiteQ
		} else if from == 7 {
			newCR &^= CastlingWhiteK
		}
	case BlackRook:
		if from == 56 {
			newCR &^= CastlingBlackQ
		} else if from == 63 {
			newCR &^= CastlingBlackK
		}
	}
	// A rook captured on its original square removes the right too
	if st.captured != NoPiece && typeOf(st.captured) == 4 {
		switch to {
		case 0:
			newCR &^= CastlingWhiteQ
		case 7:
			newCR &^= CastlingWhiteK
		case 56:
			newCR &^= CastlingBlackQ
		case 63:
			newCR &^= CastlingBlackK
		}
	}
	if newCR != b.castlingRights {
		b.zobristKey ^= zobristCastle[int(b.castlingRights)]
		b.zobristKey ^= zobristCastle[int(newCR)]
		b.castlingRights = newCR
	}

	// Set en passant square on a double pawn push
	if flag == FlagDoublePush {
		var ep Square
		if b.sideToMove == White {
			ep = from + 8
		} else {
			ep = from - 8
		}
		b.enPassantSquare = ep
		b.zobristKey ^= zobristEnPassant[int(ep%8)]
	}

	// Toggle side to move (+ Zobrist) before the legality check so Unmake can
	// rely on the toggled state.
	b.sideToMove = 1 - b.sideToMove
	b.zobristKey ^= zobristSide

	// Reject a move that leaves the mover in check. Gated to king moves,
	// en passant, and pieces leaving a king ray (potential discovered check).
	moverColor := 1 - b.sideToMove
	occ := b.occupancy[0] | b.occupancy[1]
	kingBB := b.kings[int(moverColor)]
	if kingBB == 0 {
		b.UnmakeMove(m, st)
		return false, st
	}
	ks := bits.TrailingZeros64(kingBB)
	needCheck := true
	if typeOf(moved) != 6 && flag != FlagEnPassant {
		if ((kingRaysUnion[ks] >> uint(from)) & 1) == 0 {
			needCheck = false
		}
	}
	if needCheck && b.isSquareAttackedWithOcc(ks, 1-moverColor, occ) {
		b.UnmakeMove(m, st)
		return false, st
	}

	// Halfmove clock resets on a pawn move or capture
	if typeOf(moved) == 1 || st.captured != NoPiece {
		b.halfmoveClock = 0
	} else {
		b.halfmoveClock++
	}

	// Fullmove number increments after a legal Black move
	if moverColor == Black {
		b.fullmoveNumber++
	}

	return true, st
}

// UnmakeMove undoes a previously made move, restoring board state exactly.
func (b *Board) UnmakeMove(m Move, st MoveState) {
	// Toggle side back
	b.sideToMove = 1 - b.sideToMove
	b.zobristKey ^= zobristSide

	from := m.From()
	to := m.To()
	flag := m.Flag()
	moved := b.pieces[int(to)]

	us := int(b.sideToMove)
	them := 1 - us

	// Undo castling rook movement
	if m.IsCastle() {
		rFrom, rTo := castleRookSquares(b.sideToMove, flag)
		rook := WhiteRook
		if b.sideToMove == Black {
			rook = BlackRook
		}
		rb := uint64(1) << uint(rFrom)
		nb := uint64(1) << uint(rTo)
		b.pieces[int(rTo)] = NoPiece
		b.pieces[int(rFrom)] = rook
		b.occupancy[us] ^= (rb | nb)
		b.rooks[us] ^= (rb | nb)
	}

	// Move piece back (handle promotion)
	fromBB := uint64(1) << uint(from)
	toBB := uint64(1) << uint(to)
	b.pieces[int(to)] = NoPiece
	if m.IsPromotion() {
		// Place the pawn back at from, remove the promoted piece from to
		pawn := WhitePawn
		if b.sideToMove == Black {
			pawn = BlackPawn
		}
		b.pieces[int(from)] = pawn
		b.occupancy[us] ^= (fromBB | toBB)
		switch typeOf(moved) {
		case 2:
			b.knights[us] &^= toBB
		case 3:
			b.bishops[us] &^= toBB
		case 4:
			b.rooks[us] &^= toBB
		case 5:
			b.queens[us] &^= toBB
		}
		b.pawns[us] |= fromBB
	} else {
		b.pieces[int(from)] = moved
		b.occupancy[us] ^= (fromBB | toBB)
		switch typeOf(moved) {
		case 1:
			b.pawns[us] ^= (fromBB | toBB)
		case 2:
			b.knights[us] ^= (fromBB | toBB)
		case 3:
			b.bishops[us] ^= (fromBB | toBB)
		case 4:
			b.rooks[us] ^= (fromBB | toBB)
		case 5:
			b.queens[us] ^= (fromBB | toBB)
		case 6:
			b.kings[us] ^= (fromBB | toBB)
		}
	}

	// Restore captured piece
	if st.captured != NoPiece {
		if flag == FlagEnPassant {
			var capSq Square
			if b.sideToMove == White {
				capSq = to - 8
			} else {
				capSq = to + 8
			}
			capBB := uint64(1) << uint(capSq)
			b.pieces[int(capSq)] = st.captured
			b.occupancy[them] |= capBB
			// Only pawns can be captured en passant
			b.pawns[them] |= capBB
		} else {
			b.pieces[int(to)] = st.captured
			b.occupancy[them] |= toBB
			switch typeOf(st.captured) {
			case 1:
				b.pawns[them] |= toBB
			case 2:
				b.knights[them] |= toBB
			case 3:
				b.bishops[them] |= toBB
			case 4:
				b.rooks[them] |= toBB
			case 5:
				b.queens[them] |= toBB
			case 6:
				b.kings[them] |= toBB
			}
		}
	}

	// Restore clocks, EP, castling rights
	b.castlingRights = st.prevCastling
	b.enPassantSquare = st.prevEnPassant
	b.halfmoveClock = st.prevHalfmove
	b.fullmoveNumber = st.prevFullmove

	// Exact Zobrist restoration, bit for bit
	b.zobristKey = st.prevZobrist
}

// MakeNullMove performs a null move: it switches the side to move without
// moving any piece. It clears any en passant square, updates the zobrist
// side/en-passant keys, and advances the clocks as a reversible quiet
// half-move. The returned state restores via UnmakeNullMove.
func (b *Board) MakeNullMove() (st NullState) {
	st.prevEnPassant = b.enPassantSquare
	st.prevHalfmove = b.halfmoveClock
	st.prevFullmove = b.fullmoveNumber
	st.prevZobrist = b.zobristKey
	st.prevSide = b.sideToMove

	if b.enPassantSquare != NoSquare {
		b.zobristKey ^= zobristEnPassant[int(b.enPassantSquare%8)]
	}
	b.enPassantSquare = NoSquare

	b.halfmoveClock++

	b.sideToMove = 1 - b.sideToMove
	b.zobristKey ^= zobristSide

	if st.prevSide == Black {
		b.fullmoveNumber++
	}
	return st
}

// UnmakeNullMove restores the board to the state prior to MakeNullMove.
func (b *Board) UnmakeNullMove(st NullState) {
	b.enPassantSquare = st.prevEnPassant
	b.halfmoveClock = st.prevHalfmove
	b.fullmoveNumber = st.prevFullmove
	b.sideToMove = st.prevSide
	b.zobristKey = st.prevZobrist
}
