package engine

import (
	"fmt"
	"time"

	mg "duckchess/duckmg"
)

// InfoListener receives UCI info lines from the search. The UCI layer
// provides a stdout implementation; tests provide capturing ones.
type InfoListener interface {
	Info(line string)
}

// InfoWriterFunc adapts a function to the InfoListener interface.
type InfoWriterFunc func(line string)

func (f InfoWriterFunc) Info(line string) { f(line) }

// nnueNet is the active network; nil selects the PST fallback. The choice is
// made once at load time.
var nnueNet *Network

// Options carries the configurable engine parameters set via "setoption".
type Options struct {
	HashMB   int
	Threads  int
	OwnBook  bool
	BookPath string
	NNUEPath string
}

// Engine binds the board, the shared search tables, the evaluator and the
// opening book behind the handle the UCI layer drives.
type Engine struct {
	board    *mg.Board
	book     *Book
	options  Options
	listener InfoListener

	// Move history for repetition detection across "position ... moves"
	moveStack []mg.MoveState
	keyHist   []uint64
}

// NewEngine creates an engine at the start position with default options.
func NewEngine(listener InfoListener) *Engine {
	if listener == nil {
		listener = InfoWriterFunc(func(string) {})
	}
	board, _ := mg.ParseFEN(mg.FENStartPos)
	e := &Engine{
		board:    board,
		options:  Options{HashMB: DefaultTTSize, Threads: 1},
		listener: listener,
	}
	InitLMRTable()
	ResetStateTracking(board)
	return e
}

// Board exposes the current position.
func (e *Engine) Board() *mg.Board { return e.board }

// NewGame clears the transposition table and the search heuristics.
func (e *Engine) NewGame() {
	ResetForNewGame()
	board, _ := mg.ParseFEN(mg.FENStartPos)
	e.board = board
	e.moveStack = e.moveStack[:0]
	e.keyHist = e.keyHist[:0]
	ResetStateTracking(board)
}

// SetPosition resets the board from a FEN (or the start position when fen is
// empty) and applies the given moves. The position is validated fully before
// being committed: an illegal or unparseable move leaves the engine on the
// previous position and returns an error naming the offending token.
func (e *Engine) SetPosition(fen string, moves []string) error {
	if fen == "" {
		fen = mg.FENStartPos
	}
	board, err := mg.ParseFEN(fen)
	if err != nil {
		return err
	}

	var stack []mg.MoveState
	var hist []uint64
	ResetStateTracking(board)
	for _, moveStr := range moves {
		move, ferr := findLegalMove(board, moveStr)
		if ferr != nil {
			// Roll back: the engine keeps its previous position.
			ResetStateTracking(e.board)
			return fmt.Errorf("position command: %w", ferr)
		}
		if !board.PushMove(move, &stack, &hist) {
			ResetStateTracking(e.board)
			return fmt.Errorf("position command: move %s is illegal", moveStr)
		}
		RecordState(board)
	}

	e.board = board
	e.moveStack = stack
	e.keyHist = hist
	return nil
}

// findLegalMove matches a long-algebraic move string against the board's
// legal moves.
func findLegalMove(b *mg.Board, moveStr string) (mg.Move, error) {
	parsed, err := mg.ParseMove(moveStr)
	if err != nil {
		return 0, fmt.Errorf("move %s: %w", moveStr, err)
	}
	for _, m := range b.GenerateLegalMoves() {
		if m.From() == parsed.From() && m.To() == parsed.To() &&
			m.PromotionPieceType() == parsed.PromotionPieceType() {
			return m, nil
		}
	}
	return 0, fmt.Errorf("move %s is not legal in this position", moveStr)
}

// SetOption applies one "setoption" pair. Unknown names are reported through
// the listener and ignored.
func (e *Engine) SetOption(name, value string) {
	switch name {
	case "hash":
		var mb int
		if _, err := fmt.Sscanf(value, "%d", &mb); err != nil || mb <= 0 {
			e.listener.Info(fmt.Sprintf("info string error: invalid Hash value %q", value))
			return
		}
		if !TT.Resize(mb) {
			e.listener.Info(fmt.Sprintf("info string error: could not resize hash to %d MB, keeping previous table", mb))
			return
		}
		e.options.HashMB = mb
	case "threads":
		// Single-threaded design; accept only 1.
		if value != "1" {
			e.listener.Info("info string Threads is fixed at 1")
		}
	case "ownbook":
		e.options.OwnBook = value == "true"
	case "bookpath":
		e.options.BookPath = value
		book, err := LoadBook(value)
		if err != nil {
			e.listener.Info(fmt.Sprintf("info string error: opening book: %v", err))
			return
		}
		e.book = book
	case "nnuefile":
		e.options.NNUEPath = value
		net, err := LoadNetwork(value)
		if err != nil {
			e.listener.Info(fmt.Sprintf("info string warning: NNUE load failed (%v), using piece-square fallback", err))
			nnueNet = nil
			return
		}
		nnueNet = net
		e.listener.Info(fmt.Sprintf("info string NNUE network loaded from %s", value))
	default:
		e.listener.Info(fmt.Sprintf("info string Unknown option %q", name))
	}
}

// GoLimits describes one "go" command after clock resolution.
type GoLimits struct {
	Depth     int
	Nodes     uint64
	MoveTime  time.Duration
	WTime     int
	BTime     int
	WInc      int
	BInc      int
	MovesToGo int
	Infinite  bool
}

// Go runs a search under the given limits and returns the best move in long
// algebraic notation. It runs synchronously; Stop (from another goroutine)
// or the hard time limit unwinds it, and the best move of the last completed
// iteration is returned.
func (e *Engine) Go(limits GoLimits) string {
	// Book probe comes first when enabled.
	if e.options.OwnBook && e.book != nil {
		if move, ok := e.book.Probe(e.board); ok {
			return move.String()
		}
	}

	var tc TimeController = infiniteTime{}
	switch {
	case limits.Infinite || limits.Depth > 0 || limits.Nodes > 0:
		// bounded by depth/nodes/stop only
	case limits.MoveTime > 0:
		th := &TimeHandler{}
		th.StartMoveTime(limits.MoveTime)
		tc = th
	default:
		remaining, increment := limits.WTime, limits.WInc
		if e.board.SideToMove() == mg.Black {
			remaining, increment = limits.BTime, limits.BInc
		}
		if remaining <= 0 {
			remaining = 300000
		}
		th := &TimeHandler{}
		th.StartClock(e.board, remaining, increment)
		tc = th
	}

	best := StartSearch(e.board, Limits{
		Depth:    limits.Depth,
		Nodes:    limits.Nodes,
		MoveTime: limits.MoveTime,
		Infinite: limits.Infinite,
	}, tc, e.listener)

	if best == 0 {
		// Never return an empty move while any legal one exists.
		if legal := e.board.GenerateLegalMoves(); len(legal) > 0 {
			best = legal[0]
		} else {
			return "0000"
		}
	}
	return best.String()
}

// Stop requests cancellation of the running search.
func (e *Engine) Stop() {
	Stop()
}
