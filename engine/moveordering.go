package engine

import (
	mg "duckchess/duckmg"
)

type scoredMove struct {
	move  mg.Move
	score uint16
}

type moveList struct {
	moves []scoredMove
}

// Most Valuable Victim - Least Valuable Aggressor; used to score & sort captures
var mvvLva [7][7]uint16 = [7][7]uint16{
	{0, 0, 0, 0, 0, 0, 0},
	{0, 14, 13, 12, 11, 10, 0}, // victim Pawn
	{0, 24, 23, 22, 21, 20, 0}, // victim Knight
	{0, 34, 33, 32, 31, 30, 0}, // victim Bishop
	{0, 44, 43, 42, 41, 40, 0}, // victim Rook
	{0, 54, 53, 52, 51, 50, 0}, // victim Queen
	{0, 0, 0, 0, 0, 0, 0},      // victim King
}

/*
	Move ordering offsets.
	- The TT/PV move goes first: it either guides us down the best path or
	  lets us fail high as early as possible.
	- Promotions and winning captures come next so tactical shots are never
	  buried behind quiet shuffling.
	- Killers and counters outrank plain history; history scores are capped
	  below the killer offset so the tiers stay separated.
	- Captures that lose material by SEE drop to the bottom tier.
*/
var pvOffset uint16 = 30000
var promotionOffset uint16 = 25000
var captureOffset uint16 = 17000
var killerOffset uint16 = 12000
var counterOffset uint16 = 11000

// victimType returns the colorless type of the piece taken by a capture move.
func victimType(b *mg.Board, move mg.Move) mg.PieceType {
	if move.IsEnPassant() {
		return mg.PieceTypePawn
	}
	return b.PieceAt(move.To()).Type()
}

// orderNextMove swaps the best-scored remaining move into position currIndex.
func orderNextMove(currIndex uint8, moves *moveList) {
	bestIndex := currIndex
	bestScore := moves.moves[bestIndex].score

	for index := bestIndex + 1; index < uint8(len(moves.moves)); index++ {
		if moves.moves[index].score > bestScore {
			bestIndex = index
			bestScore = moves.moves[index].score
		}
	}

	moves.moves[currIndex], moves.moves[bestIndex] = moves.moves[bestIndex], moves.moves[currIndex]
}

// scoreMovesList scores a full legal move list for the main search:
// TT move, then promotions, then captures (MVV-LVA, SEE >= 0 preferred),
// then killers, counters and history-scored quiets.
func scoreMovesList(b *mg.Board, moves []mg.Move, ply int16, ttMove mg.Move, prevMove mg.Move) (movesList moveList) {
	side := b.SideToMove()

	movesList.moves = make([]scoredMove, len(moves))
	for i := 0; i < len(moves); i++ {
		move := moves[i]
		var moveEval uint16

		switch {
		case move == ttMove && ttMove != 0:
			moveEval = pvOffset + 1500
		case move.IsPromotion():
			moveEval = promotionOffset + uint16(pieceValueEG[move.PromotionPieceType()])
		case move.IsCapture():
			victim := victimType(b, move)
			attacker := b.PieceAt(move.From()).Type()
			if see(b, move) >= 0 {
				moveEval = captureOffset + mvvLva[victim][attacker]
			} else {
				moveEval = mvvLva[victim][attacker]
			}
		case KillerMoveTable.KillerMoves[ply][0] == move:
			moveEval = killerOffset + 200
		case KillerMoveTable.KillerMoves[ply][1] == move:
			moveEval = killerOffset
		case prevMove != 0 && counterMove[side][prevMove.From()][prevMove.To()] == move:
			moveEval = counterOffset
		default:
			moveEval = uint16(historyMove[side][move.From()][move.To()])
		}

		movesList.moves[i].move = move
		movesList.moves[i].score = moveEval
	}
	return movesList
}

// scoreMovesListCaptures scores the quiescence move list (captures and
// promotions) by MVV-LVA with the TT move first.
func scoreMovesListCaptures(b *mg.Board, moves []mg.Move, ttMove mg.Move) (movesList moveList, anyCaptures bool) {
	movesList.moves = make([]scoredMove, 0, len(moves))

	for i := 0; i < len(moves); i++ {
		move := moves[i]
		isPromotion := move.IsPromotion()
		if !move.IsCapture() && !isPromotion {
			continue
		}

		var moveEval uint16
		if move == ttMove && ttMove != 0 {
			moveEval = captureOffset + 256
		} else if isPromotion {
			moveEval = captureOffset + 75
		} else {
			victim := victimType(b, move)
			attacker := b.PieceAt(move.From()).Type()
			moveEval = mvvLva[victim][attacker]
		}

		movesList.moves = append(movesList.moves, scoredMove{move: move, score: moveEval})
	}

	return movesList, len(movesList.moves) > 0
}
