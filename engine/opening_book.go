package engine

import (
	"encoding/binary"
	"fmt"
	"os"
	"sort"

	mg "duckchess/duckmg"
)

// Polyglot-format opening book support. A .bin book is a sorted array of
// 16-byte big-endian entries: position key, packed move, weight, learn value.

// BookEntry is one decoded book record.
type BookEntry struct {
	Key    uint64
	Move   uint16
	Weight uint16
	Learn  uint32
}

// Book holds the fully loaded, key-sorted entry list.
type Book struct {
	entries []BookEntry
}

const bookEntrySize = 16

// LoadBook reads a polyglot .bin file into memory.
func LoadBook(path string) (*Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data)%bookEntrySize != 0 {
		return nil, fmt.Errorf("book %s: size %d is not a multiple of %d", path, len(data), bookEntrySize)
	}
	entries := make([]BookEntry, len(data)/bookEntrySize)
	for i := range entries {
		off := i * bookEntrySize
		entries[i] = BookEntry{
			Key:    binary.BigEndian.Uint64(data[off:]),
			Move:   binary.BigEndian.Uint16(data[off+8:]),
			Weight: binary.BigEndian.Uint16(data[off+10:]),
			Learn:  binary.BigEndian.Uint32(data[off+12:]),
		}
	}
	// Books are key-sorted on disk; re-sort defensively so Probe can binary search.
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return &Book{entries: entries}, nil
}

// Len returns the number of entries in the book.
func (bk *Book) Len() int { return len(bk.entries) }

// Probe looks the position up and returns the highest-weighted book move
// matched against the board's legal moves.
func (bk *Book) Probe(b *mg.Board) (mg.Move, bool) {
	key := PolyglotHash(b)
	i := sort.Search(len(bk.entries), func(i int) bool { return bk.entries[i].Key >= key })

	var best *BookEntry
	for ; i < len(bk.entries) && bk.entries[i].Key == key; i++ {
		if best == nil || bk.entries[i].Weight > best.Weight {
			best = &bk.entries[i]
		}
	}
	if best == nil {
		return 0, false
	}

	moveStr := decodePolyglotMove(best.Move, b)
	for _, m := range b.GenerateLegalMoves() {
		if m.String() == moveStr {
			return m, true
		}
	}
	return 0, false
}

// decodePolyglotMove unpacks a book move into long algebraic notation.
// Polyglot encodes castling as king-takes-rook (e1h1); translate to the
// standard king-two-squares form when the mover is a king on its home square.
func decodePolyglotMove(pm uint16, b *mg.Board) string {
	toFile := int(pm & 7)
	toRank := int((pm >> 3) & 7)
	fromFile := int((pm >> 6) & 7)
	fromRank := int((pm >> 9) & 7)
	promo := int((pm >> 12) & 7)

	from := mg.Square(fromRank*8 + fromFile)
	to := mg.Square(toRank*8 + toFile)

	if b.PieceAt(from).Type() == mg.PieceTypeKing {
		switch {
		case from == 4 && to == 7:
			to = 6
		case from == 4 && to == 0:
			to = 2
		case from == 60 && to == 63:
			to = 62
		case from == 60 && to == 56:
			to = 58
		}
	}

	s := []byte{
		'a' + byte(from%8), '1' + byte(from/8),
		'a' + byte(to%8), '1' + byte(to/8),
	}
	switch promo {
	case 1:
		s = append(s, 'n')
	case 2:
		s = append(s, 'b')
	case 3:
		s = append(s, 'r')
	case 4:
		s = append(s, 'q')
	}
	return string(s)
}

// Polyglot hashing tables, generated by the book builder's PRNG so the same
// keys come out on both sides of the pipeline.
var (
	polyglotPieces     [12][64]uint64
	polyglotCastling   [4]uint64
	polyglotEnPassant  [8]uint64
	polyglotSideToMove uint64
)

func init() {
	initPolyglotKeys()
}

func initPolyglotKeys() {
	var s uint64 = 0x37b4a4b3f0d1c0d0
	rng := func() uint64 {
		s ^= s >> 12
		s ^= s << 25
		s ^= s >> 27
		return s * 0x2545F4914F6CDD1D
	}

	for piece := 0; piece < 12; piece++ {
		for sq := 0; sq < 64; sq++ {
			polyglotPieces[piece][sq] = rng()
		}
	}
	for i := 0; i < 4; i++ {
		polyglotCastling[i] = rng()
	}
	for i := 0; i < 8; i++ {
		polyglotEnPassant[i] = rng()
	}
	polyglotSideToMove = rng()
}

// PolyglotHash computes the book hash key for the position.
// Piece kind ordering follows the polyglot convention, black and white
// interleaved per type: bp, wP, bN, wN, bB, wB, bR, wR, bQ, wQ, bK, wK.
func PolyglotHash(b *mg.Board) uint64 {
	var hash uint64

	for sq := mg.Square(0); sq < 64; sq++ {
		p := b.PieceAt(sq)
		if p == mg.NoPiece {
			continue
		}
		kind := 2 * (int(p.Type()) - 1)
		if p.Color() == mg.White {
			kind++
		}
		hash ^= polyglotPieces[kind][sq]
	}

	cr := b.CastlingRightsMask()
	if cr&mg.CastlingWhiteK != 0 {
		hash ^= polyglotCastling[0]
	}
	if cr&mg.CastlingWhiteQ != 0 {
		hash ^= polyglotCastling[1]
	}
	if cr&mg.CastlingBlackK != 0 {
		hash ^= polyglotCastling[2]
	}
	if cr&mg.CastlingBlackQ != 0 {
		hash ^= polyglotCastling[3]
	}

	// En passant counts only when a pawn can actually capture.
	if ep := b.EnPassantSquare(); ep != mg.NoSquare {
		stm := b.SideToMove()
		// The squares from which a pawn of the side to move attacks the
		// en-passant square are the opposite color's attack table entries.
		capturers := mg.PawnAttackBB(1-stm, int(ep))
		if capturers&b.Bitboards(stm).Pawns != 0 {
			hash ^= polyglotEnPassant[int(ep%8)]
		}
	}

	if b.SideToMove() == mg.White {
		hash ^= polyglotSideToMove
	}

	return hash
}
