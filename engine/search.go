package engine

import (
	"fmt"
	"sync/atomic"
	"time"

	mg "duckchess/duckmg"
)

// =============================================================================
// SCORE CONSTANTS
// =============================================================================
const (
	InfScore  int32 = 32500
	MateScore int32 = 32000
	DrawScore int32 = 0

	// Scores beyond this encode a forced mate (MateScore - pliesToMate).
	mateThreshold = MateScore - 2*MaxDepth
)

var KillerMoveTable KillerStruct

var TT TransTable

// globalStop is the cancellation flag; an external reader may set it while
// the search runs. The search polls it at the node-count check interval.
var globalStop atomic.Bool
var searchShouldStop bool

// =============================================================================
// PRUNING PARAMETERS
// =============================================================================
var FutilityMargins = [8]int32{0, 120, 220, 320, 420, 520, 620, 720}
var LateMovePruningMargins = [9]int{0, 3, 5, 9, 14, 20, 27, 35, 44}

var NullMoveMinDepth int8 = 3
var LMRMoveLimit = 3
var DeltaMargin int32 = 200
var QuiescenceSeeMargin = 100

var aspirationWindowSize int32 = 35
var aspirationMinDepth uint8 = 4
var prevSearchScore int32

// nodeCheckMask gates how often the time controller and stop flag are polled.
const nodeCheckMask = 4095

// Limits bounds one search invocation.
type Limits struct {
	Depth    int
	Nodes    uint64
	MoveTime time.Duration
	Infinite bool
}

var searchNodeLimit uint64
var activeController TimeController = infiniteTime{}

// Stop requests cancellation of the running search.
func Stop() { globalStop.Store(true) }

// StartSearch runs iterative deepening on the board under the given limits
// and emits info lines to the listener. It returns the best move found by the
// last completed iteration.
func StartSearch(board *mg.Board, limits Limits, tc TimeController, listener InfoListener) mg.Move {
	ensureStateStackSynced(board)
	resetAccumulatorStack(board)

	if !TT.isInitialized {
		TT.init()
	}
	TT.NewSearch()

	globalStop.Store(false)
	searchShouldStop = false
	nodesChecked = 0
	seldepth = 0
	searchNodeLimit = limits.Nodes
	if tc == nil {
		tc = infiniteTime{}
	}
	activeController = tc

	depth := uint8(MaxDepth - 1)
	if limits.Depth > 0 && limits.Depth < MaxDepth {
		depth = uint8(limits.Depth)
	}

	_, bestMove := rootsearch(board, depth, listener)

	if PrintCutStats {
		dumpCutStats(listener)
		resetCutStats()
	}

	// The stop flag is consumed by the search that it cancelled.
	globalStop.Store(false)

	return bestMove
}

func rootsearch(b *mg.Board, depth uint8, listener InfoListener) (int32, mg.Move) {
	var alpha = -InfScore
	var beta = InfScore
	var bestScore = -InfScore
	rootIndex := len(stateStack) - 1

	var nullMove mg.Move
	var bestMove mg.Move
	var pvLine PVLine
	var prevPVLine PVLine
	var mateFound bool

	currentWindow := aspirationWindowSize
	retrying := false
	startTime := time.Now()

	for i := uint8(1); i <= depth; i++ {
		if i > 1 && !retrying && activeController.SoftExceeded() {
			break
		}

		// Aspiration window around the previous score, from shallow-ish depth
		// on. A retry after a fail keeps the re-centered window it already set.
		if !retrying {
			if i >= aspirationMinDepth {
				alpha = prevSearchScore - currentWindow
				beta = prevSearchScore + currentWindow
			} else {
				alpha = -InfScore
				beta = InfScore
			}
		}
		retrying = false

		pvLine.Clear()
		mateFound = false

		score := alphabeta(b, alpha, beta, int8(i), 0, &pvLine, nullMove, false, false, 0, rootIndex)

		if searchShouldStop || globalStop.Load() {
			// The aborted iteration is discarded unless no earlier one finished.
			if len(prevPVLine.Moves) == 0 && len(pvLine.Moves) > 0 {
				bestScore = score
				prevSearchScore = bestScore
				prevPVLine = pvLine.Clone()
			}
			break
		}

		// Fail low/high: widen geometrically around the failing score and
		// retry the same depth, up to a full-width window.
		if score <= alpha || score >= beta {
			currentWindow *= 2
			if currentWindow >= InfScore {
				alpha = -InfScore
				beta = InfScore
			} else {
				alpha = score - currentWindow
				beta = score + currentWindow
			}
			retrying = true
			i--
			continue
		}

		bestScore = score
		prevSearchScore = bestScore
		prevPVLine = pvLine.Clone()
		currentWindow = aspirationWindowSize

		if (score > mateThreshold || score < -mateThreshold) && len(pvLine.Moves) > 0 {
			mateFound = true
		}

		timeSpent := time.Since(startTime).Milliseconds()
		if timeSpent == 0 {
			timeSpent = 1
		}
		nps := nodesChecked * 1000 / uint64(timeSpent)

		listener.Info(fmt.Sprintf(
			"info depth %d seldepth %d score %s nodes %d nps %d time %d hashfull %d pv%s",
			i, seldepth, getMateOrCPScore(score), nodesChecked, nps, timeSpent,
			TT.Hashfull(), getPVLineString(pvLine),
		))

		if mateFound {
			break
		}
	}

	searchShouldStop = false
	bestMove = prevPVLine.GetPVMove()
	return bestScore, bestMove
}

func alphabeta(b *mg.Board, alpha int32, beta int32, depth int8, ply int16, pvLine *PVLine, prevMove mg.Move, didNull bool, isExtended bool, excludedMove mg.Move, rootIndex int) int32 {
	nodesChecked++

	if nodesChecked&nodeCheckMask == 0 {
		if activeController.HardExceeded() || globalStop.Load() ||
			(searchNodeLimit > 0 && nodesChecked >= searchNodeLimit) {
			searchShouldStop = true
		}
	}

	if ply >= MaxDepth {
		return Evaluation(b)
	}

	if searchShouldStop {
		return 0
	}

	var bestMove mg.Move
	var childPVLine = PVLine{}
	var isPVNode = (beta - alpha) > 1
	var isRoot = ply == 0

	// Draw detection
	if !isRoot {
		if isDraw(rootIndex) {
			return DrawScore
		}
		if alpha < DrawScore && upcomingRepetition(rootIndex) {
			alpha = DrawScore
		}

		// Mate-distance pruning: even a forced mate here cannot beat a
		// shorter one already found closer to the root.
		if alpha < -MateScore+int32(ply) {
			alpha = -MateScore + int32(ply)
		}
		if beta > MateScore-int32(ply)-1 {
			beta = MateScore - int32(ply) - 1
		}
		if alpha >= beta {
			return alpha
		}
	}

	inCheck := b.OurKingInCheck()

	// Check extension
	if inCheck {
		depth++
	}

	// Quiescence at leaf nodes
	if depth <= 0 {
		return quiescence(b, alpha, beta, ply, rootIndex)
	}

	posHash := b.Hash()

	/*
		TRANSPOSITION TABLE LOOKUP
	*/
	ttEntry, ttHit := TT.ProbeEntry(posHash)
	usable, ttScore := TT.useEntry(ttEntry, posHash, depth, alpha, beta, ply, excludedMove)

	if usable && !isRoot && !isPVNode {
		cutStats.TTCutoffs++
		return ttScore
	}

	var ttMove mg.Move
	if ttHit {
		ttMove = ttEntry.Move
		bestMove = ttMove
	}

	var staticScore int32
	if usable {
		staticScore = int32(ttEntry.Score)
	} else {
		staticScore = Evaluation(b)
	}

	improving := false
	if ply >= 2 && !inCheck {
		improving = staticScore > alpha
	}

	wCount, bCount := hasMinorOrMajorPiece(b)
	sideHasPieces := (b.SideToMove() == mg.White && wCount > 0) || (b.SideToMove() == mg.Black && bCount > 0)

	/*
		NULL MOVE PRUNING
		Hand the opponent a free move; if the reduced search still fails high
		the position is good enough to cut. Skipped in check, in PV nodes, and
		without non-pawn material (zugzwang).
	*/
	if !inCheck && !isPVNode && !didNull && sideHasPieces && depth >= NullMoveMinDepth &&
		staticScore >= beta && excludedMove == 0 && !isRoot {
		st := b.MakeNullMove()
		pushState(b)

		R := 2 + depth/6
		if R > depth-1 {
			R = depth - 1
		}

		score := -alphabeta(b, -beta, -beta+1, depth-1-R, ply+1, &childPVLine, 0, true, isExtended, 0, rootIndex)

		popState()
		b.UnmakeNullMove(st)

		if score >= beta && score < mateThreshold {
			cutStats.NullMoveCutoffs++
			return score
		}
	}

	/*
		SINGULAR EXTENSION
		If the TT move beats every alternative by a margin at reduced depth,
		it is singular; extend it one ply.
	*/
	var singularExtension bool
	if !isPVNode && !isRoot && !inCheck && !didNull && !isExtended && depth >= 8 &&
		ttMove != 0 && excludedMove == 0 && ttEntry.Flag == ExactFlag && ttEntry.Depth >= depth-3 {
		ttValue := int32(ttEntry.Score)
		if ttValue < mateThreshold && ttValue > -mateThreshold {
			margin := int32(50 + 10*int32(depth))
			scoreToBeat := ttValue - margin
			R := int8(3) + depth/4
			if R > depth-1 {
				R = depth - 1
			}
			var verificationPV PVLine
			scoreSingular := alphabeta(b, scoreToBeat-1, scoreToBeat, depth-1-R, ply, &verificationPV, prevMove, didNull, true, ttMove, rootIndex)
			if scoreSingular < scoreToBeat {
				singularExtension = true
			}
		}
	}

	// Generate and score moves
	allMoves := b.GenerateLegalMoves()

	// Checkmate/stalemate
	if len(allMoves) == 0 {
		if inCheck {
			return -MateScore + int32(ply)
		}
		return DrawScore
	}

	var bestScore = -InfScore
	var moveList = scoreMovesList(b, allMoves, ply, ttMove, prevMove)
	var ttFlag int8 = AlphaFlag
	legalMoves := 0

	// Quiet moves tried before a cutoff get a history malus
	quietMovesTried := make([]mg.Move, 0, 16)

	for index := uint8(0); index < uint8(len(moveList.moves)); index++ {
		orderNextMove(index, &moveList)
		move := moveList.moves[index].move

		if move == excludedMove {
			continue
		}

		isCapture := move.IsCapture()
		moveGivesCheck := b.GivesCheck(move)
		isPromotion := move.IsPromotion()
		tactical := isCapture || moveGivesCheck || isPromotion
		legalMoves++

		/*
			LATE MOVE PRUNING
			Skip quiet moves late in the list at low depths.
		*/
		if depth <= 8 && !isPVNode && !tactical && !isRoot && legalMoves > 1 {
			lmpMargin := LateMovePruningMargins[Min(int(depth), len(LateMovePruningMargins)-1)]
			if !improving {
				lmpMargin = lmpMargin * 2 / 3
			}
			if lmpMargin > 0 && legalMoves > lmpMargin {
				continue
			}
		}

		/*
			FUTILITY PRUNING
			At shallow depth, quiet moves whose static eval plus a margin
			cannot reach alpha are skipped.
		*/
		if depth <= 7 && depth >= 1 && !isPVNode && !isRoot && !tactical && !inCheck && legalMoves > 1 && abs32(alpha) < mateThreshold {
			futilityMargin := FutilityMargins[depth]
			if !improving {
				futilityMargin -= 50
			}
			if staticScore+futilityMargin <= alpha {
				continue
			}
		}

		if !isCapture {
			quietMovesTried = append(quietMovesTried, move)
		}

		unapply, ok := applyMoveWithState(b, move)
		if !ok {
			legalMoves--
			continue
		}

		extendMove := move == ttMove && singularExtension
		nextExtended := isExtended || extendMove

		var score int32
		if legalMoves == 1 {
			// First move: full-depth, full-window search
			nextDepth := calculateSearchDepth(depth-1, 0, extendMove)
			score = -alphabeta(b, -beta, -alpha, nextDepth, ply+1, &childPVLine, move, false, nextExtended, 0, rootIndex)
		} else {
			/*
				LATE MOVE REDUCTIONS
				Late, quiet, non-checking moves get a reduced-depth first look.
			*/
			var reduct int8
			if depth >= 3 && legalMoves >= LMRMoveLimit && !tactical && !isPVNode {
				reduct = computeLMRReduction(depth, legalMoves, historyMove[b.SideToMove()][move.From()][move.To()], IsKiller(move, ply, &KillerMoveTable))
			}

			score = searchMoveWithPVS(b, depth-1, reduct, alpha, beta, ply, extendMove, nextExtended, rootIndex, move, &childPVLine)
		}

		unapply()

		if score > bestScore {
			bestScore = score
			bestMove = move
		}

		// Beta cutoff
		if score >= beta {
			cutStats.BetaCutoffs++
			ttFlag = BetaFlag
			if !isCapture {
				InsertKiller(move, ply, &KillerMoveTable)
				storeCounter(b.SideToMove(), prevMove, move)
				incrementHistoryScore(b.SideToMove(), move, depth)
				for _, failedMove := range quietMovesTried {
					if failedMove != move {
						decrementHistoryScoreBy(b.SideToMove(), failedMove, depth)
					}
				}
			}
			break
		}

		// Alpha improvement
		if score > alpha {
			alpha = score
			ttFlag = ExactFlag
			pvLine.Update(move, childPVLine)
			if !isCapture {
				incrementHistoryScore(b.SideToMove(), move, depth)
			}
		}
		childPVLine.Clear()
	}

	if legalMoves == 0 && excludedMove != 0 {
		// Every legal move was the excluded one; treat as a fail low.
		return alpha
	}

	if !searchShouldStop && !globalStop.Load() && excludedMove == 0 {
		TT.storeEntry(posHash, depth, ply, bestMove, bestScore, ttFlag)
	}

	return bestScore
}

func quiescence(b *mg.Board, alpha int32, beta int32, ply int16, rootIndex int) int32 {
	nodesChecked++

	if ply > seldepth {
		seldepth = ply
	}

	if nodesChecked&nodeCheckMask == 0 {
		if activeController.HardExceeded() || globalStop.Load() ||
			(searchNodeLimit > 0 && nodesChecked >= searchNodeLimit) {
			searchShouldStop = true
		}
	}

	if searchShouldStop {
		return 0
	}

	if ply >= MaxDepth {
		return Evaluation(b)
	}

	inCheck := b.OurKingInCheck()

	standpat := Evaluation(b)

	// Stand-pat pruning (not when in check)
	if !inCheck {
		if standpat >= beta {
			cutStats.QStandPatCutoffs++
			return standpat
		}
		if standpat > alpha {
			alpha = standpat
		}
	}

	var bestScore int32
	if inCheck {
		bestScore = -InfScore // must escape check
	} else {
		bestScore = standpat
	}

	// All moves when in check, otherwise captures and promotions
	var moves moveList
	if inCheck {
		legal := b.GenerateLegalMoves()
		if len(legal) == 0 {
			return -MateScore + int32(ply)
		}
		moves = scoreMovesList(b, legal, ply, 0, 0)
	} else {
		moves, _ = scoreMovesListCaptures(b, b.GenerateCaptures(), 0)
	}

	for index := uint8(0); index < uint8(len(moves.moves)); index++ {
		orderNextMove(index, &moves)
		move := moves.moves[index].move

		if !inCheck {
			// SEE pruning: skip clearly losing captures
			if see(b, move) < -QuiescenceSeeMargin {
				cutStats.SEEPrunes++
				continue
			}

			/*
				DELTA PRUNING
				If the captured material plus a safety margin still cannot
				raise alpha, the capture is hopeless.
			*/
			moveGain := int32(0)
			if move.IsCapture() {
				moveGain = int32(pieceValueMG[victimType(b, move)])
			}
			if promo := move.PromotionPieceType(); promo != mg.PieceTypeNone {
				moveGain += int32(pieceValueMG[promo] - pieceValueMG[mg.PieceTypePawn])
			}
			if standpat+moveGain+DeltaMargin < alpha {
				cutStats.DeltaPrunes++
				continue
			}
		}

		unapply, ok := applyMoveWithState(b, move)
		if !ok {
			continue
		}

		score := -quiescence(b, -beta, -alpha, ply+1, rootIndex)
		unapply()

		if score > bestScore {
			bestScore = score
		}

		if score >= beta {
			cutStats.QBetaCutoffs++
			return score
		}

		if score > alpha {
			alpha = score
		}
	}

	return bestScore
}

// computeLMRReduction reads the precomputed reduction for (depth, moveCount)
// and adjusts it by the move's history: well-scoring quiets get reduced less,
// killers get a small discount.
func computeLMRReduction(depth int8, legalMoves int, historyScore int, isKillerMove bool) int8 {
	d := int(depth)
	if d > MaxDepth {
		d = MaxDepth
	}
	m := legalMoves
	if m >= len(LMR[d]) {
		m = len(LMR[d]) - 1
	}
	r := LMR[d][m]

	if r > 0 && historyScore > historyMaxVal/2 {
		r--
	}
	if r > 0 && isKillerMove {
		r--
	}
	return Clamp(r, 0, depth-1)
}

// calculateSearchDepth computes the search depth for a move, accounting for reductions and extensions.
func calculateSearchDepth(baseDepth int8, reduction int8, extendMove bool) int8 {
	depth := baseDepth - reduction
	if extendMove && reduction == 0 {
		depth++
	}
	return depth
}

// searchMoveWithPVS performs a Principal Variation Search for a move.
// The standard 3-stage pattern:
// 1. Search with reduced depth using a null window
// 2. If a reduction was applied and the score beats alpha, re-search at full depth, null window
// 3. If the score lands inside (alpha, beta), re-search with the full window
func searchMoveWithPVS(b *mg.Board, baseDepth int8, reduction int8,
	alpha int32, beta int32, ply int16, extendMove bool, nextExtended bool,
	rootIndex int, move mg.Move, childPVLine *PVLine) int32 {

	nextDepth := calculateSearchDepth(baseDepth, reduction, extendMove)
	score := -alphabeta(b, -(alpha + 1), -alpha, nextDepth, ply+1, childPVLine, move, false, nextExtended, 0, rootIndex)

	if score > alpha && reduction > 0 {
		nextDepth = calculateSearchDepth(baseDepth, 0, extendMove)
		score = -alphabeta(b, -(alpha + 1), -alpha, nextDepth, ply+1, childPVLine, move, false, nextExtended, 0, rootIndex)
	}

	if score > alpha && score < beta {
		nextDepth = calculateSearchDepth(baseDepth, 0, extendMove)
		score = -alphabeta(b, -beta, -alpha, nextDepth, ply+1, childPVLine, move, false, nextExtended, 0, rootIndex)
	}

	return score
}

// applyMoveWithState makes the move and keeps the repetition stack and the
// NNUE accumulator stack in step with the board. The returned closure undoes
// all three.
func applyMoveWithState(b *mg.Board, move mg.Move) (func(), bool) {
	ok, st := b.MakeMove(move)
	if !ok {
		return nil, false
	}
	pushState(b)
	useNNUE := nnueNet != nil
	if useNNUE {
		pushAccumulator()
		currentAccumulator().ApplyMove(b, move, st, nnueNet)
	}
	return func() {
		if useNNUE {
			popAccumulator()
		}
		popState()
		b.UnmakeMove(move, st)
	}, true
}
