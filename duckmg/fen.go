package duckmg

import (
	"fmt"
	"strconv"
	"strings"
)

// FENStartPos is the FEN string for the standard initial chess position.
const FENStartPos = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// pieceFromChar converts a FEN character to the corresponding Piece constant.
func pieceFromChar(ch rune) Piece {
	switch ch {
	case 'P':
		return WhitePawn
	case 'N':
		return WhiteKnight
	case 'B':
		return WhiteBishop
	case 'R':
		return WhiteRook
	case 'Q':
		return WhiteQueen
	case 'K':
		return WhiteKing
	case 'p':
		return BlackPawn
	case 'n':
		return BlackKnight
	case 'b':
		return BlackBishop
	case 'r':
		return BlackRook
	case 'q':
		return BlackQueen
	case 'k':
		return BlackKing
	default:
		return NoPiece
	}
}

// charFromPiece converts a Piece constant to its FEN character representation.
func charFromPiece(p Piece) rune {
	switch p {
	case WhitePawn:
		return 'P'
	case WhiteKnight:
		return 'N'
	case WhiteBishop:
		return 'B'
	case WhiteRook:
		return 'R'
	case WhiteQueen:
		return 'Q'
	case WhiteKing:
		return 'K'
	case BlackPawn:
		return 'p'
	case BlackKnight:
		return 'n'
	case BlackBishop:
		return 'b'
	case BlackRook:
		return 'r'
	case BlackQueen:
		return 'q'
	case BlackKing:
		return 'k'
	default:
		return '?' // should not happen for valid pieces
	}
}

// ParseFEN parses a FEN string and returns a new Board set up to that position.
// Errors name the offending field so a UCI driver can report what was wrong.
func ParseFEN(fen string) (*Board, error) {
	fields := strings.Fields(fen)
	if len(fields) < 4 {
		return nil, fmt.Errorf("invalid FEN: got %d fields, need at least 4", len(fields))
	}

	board := &Board{}
	board.enPassantSquare = NoSquare
	board.fullmoveNumber = 1

	// 1. Piece placement
	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return nil, fmt.Errorf("invalid FEN piece placement: %d ranks, need 8", len(ranks))
	}

	for i, rankStr := range ranks {
		if len(rankStr) == 0 {
			return nil, fmt.Errorf("invalid FEN piece placement: rank %d is empty", 8-i)
		}
		rankIndex := 7 - i
		file := 0
		for _, ch := range rankStr {
			if ch >= '1' && ch <= '8' {
				file += int(ch - '0')
			} else {
				piece := pieceFromChar(ch)
				if piece == NoPiece {
					return nil, fmt.Errorf("invalid FEN piece placement: unrecognized piece %q", ch)
				}
				if file >= 8 {
					return nil, fmt.Errorf("invalid FEN piece placement: rank %d overflows 8 files", 8-i)
				}
				board.addPiece(Square(rankIndex*8+file), piece)
				file++
			}
		}
		if file != 8 {
			return nil, fmt.Errorf("invalid FEN piece placement: rank %d covers %d files", 8-i, file)
		}
	}

	// 2. Side to move
	switch fields[1] {
	case "w":
		board.sideToMove = White
	case "b":
		board.sideToMove = Black
	default:
		return nil, fmt.Errorf("invalid FEN side to move: %q (want \"w\" or \"b\")", fields[1])
	}

	// 3. Castling rights
	board.castlingRights = 0
	if fields[2] != "-" {
		for _, ch := range fields[2] {
			switch ch {
			case 'K':
				board.castlingRights |= CastlingWhiteK
			case 'Q':
				board.castlingRights |= CastlingWhiteQ
			case 'k':
				board.castlingRights |= CastlingBlackK
			case 'q':
				board.castlingRights |= CastlingBlackQ
			default:
				return nil, fmt.Errorf("invalid FEN castling rights: %q", fields[2])
			}
		}
	}

	// 4. En passant target square
	if fields[3] != "-" {
		if len(fields[3]) != 2 {
			return nil, fmt.Errorf("invalid FEN en passant square: %q", fields[3])
		}
		fileChar := fields[3][0]
		rankChar := fields[3][1]
		if fileChar < 'a' || fileChar > 'h' || rankChar < '1' || rankChar > '8' {
			return nil, fmt.Errorf("invalid FEN en passant square: %q out of range", fields[3])
		}
		board.enPassantSquare = Square(int(rankChar-'1')*8 + int(fileChar-'a'))
	}

	// 5. Halfmove clock
	if len(fields) > 4 {
		halfmove, err := strconv.Atoi(fields[4])
		if err != nil || halfmove < 0 {
			return nil, fmt.Errorf("invalid FEN halfmove clock: %q", fields[4])
		}
		board.halfmoveClock = halfmove
	}

	// 6. Fullmove number
	if len(fields) > 5 {
		fullmove, err := strconv.Atoi(fields[5])
		if err != nil || fullmove < 1 {
			return nil, fmt.Errorf("invalid FEN fullmove number: %q", fields[5])
		}
		board.fullmoveNumber = fullmove
	}

	// addPiece already folded piece keys in; fold in the remaining terms by
	// recomputing once.
	board.zobristKey = board.ComputeZobrist()
	return board, nil
}

// ToFEN produces the FEN string representation of the board's current state.
func (b *Board) ToFEN() string {
	var sb strings.Builder

	// 1. Piece placement
	for rank := 7; rank >= 0; rank-- {
		emptyCount := 0
		for file := 0; file < 8; file++ {
			p := b.pieces[rank*8+file]
			if p == NoPiece {
				emptyCount++
			} else {
				if emptyCount > 0 {
					sb.WriteByte('0' + byte(emptyCount))
					emptyCount = 0
				}
				sb.WriteRune(charFromPiece(p))
			}
		}
		if emptyCount > 0 {
			sb.WriteByte('0' + byte(emptyCount))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}
	sb.WriteByte(' ')

	// 2. Side to move
	if b.sideToMove == White {
		sb.WriteByte('w')
	} else {
		sb.WriteByte('b')
	}
	sb.WriteByte(' ')

	// 3. Castling rights
	if b.castlingRights == 0 {
		sb.WriteByte('-')
	} else {
		if b.castlingRights&CastlingWhiteK != 0 {
			sb.WriteByte('K')
		}
		if b.castlingRights&CastlingWhiteQ != 0 {
			sb.WriteByte('Q')
		}
		if b.castlingRights&CastlingBlackK != 0 {
			sb.WriteByte('k')
		}
		if b.castlingRights&CastlingBlackQ != 0 {
			sb.WriteByte('q')
		}
	}
	sb.WriteByte(' ')

	// 4. En passant square
	if b.enPassantSquare != NoSquare {
		sb.WriteByte('a' + byte(b.enPassantSquare%8))
		sb.WriteByte('1' + byte(b.enPassantSquare/8))
	} else {
		sb.WriteByte('-')
	}
	sb.WriteByte(' ')

	// 5. Halfmove clock
	sb.WriteString(strconv.Itoa(b.halfmoveClock))
	sb.WriteByte(' ')

	// 6. Fullmove number
	sb.WriteString(strconv.Itoa(b.fullmoveNumber))
	return sb.String()
}
