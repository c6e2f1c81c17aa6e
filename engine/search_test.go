package engine

import (
	"strings"
	"testing"
	"time"

	mg "duckchess/duckmg"
)

type captureListener struct {
	lines []string
}

func (c *captureListener) Info(line string) { c.lines = append(c.lines, line) }

func newTestEngine(t *testing.T) (*Engine, *captureListener) {
	t.Helper()
	listener := &captureListener{}
	e := NewEngine(listener)
	e.NewGame()
	return e, listener
}

func TestMateInOne(t *testing.T) {
	e, listener := newTestEngine(t)
	if err := e.SetPosition("4k3/8/4K3/8/8/8/8/6Q1 w - - 0 1", nil); err != nil {
		t.Fatal(err)
	}
	best := e.Go(GoLimits{Depth: 4})

	// The best move must deliver mate on the spot.
	m := mustFindLegal(t, e.Board(), best)
	ok, _ := e.Board().MakeMove(m)
	if !ok {
		t.Fatalf("bestmove %s not applicable", best)
	}
	if !e.Board().InCheckmate() {
		t.Fatalf("bestmove %s does not mate (fen %s)", best, e.Board().ToFEN())
	}

	// The final info line must announce mate 1.
	last := ""
	for _, line := range listener.lines {
		if strings.Contains(line, " score ") {
			last = line
		}
	}
	if !strings.Contains(last, "score mate 1") {
		t.Fatalf("expected 'score mate 1' in info, got %q", last)
	}
}

func TestFindsBackRankMate(t *testing.T) {
	e, listener := newTestEngine(t)
	if err := e.SetPosition("6k1/4Rppp/8/8/8/8/5PPP/3Q2K1 w - - 0 1", nil); err != nil {
		t.Fatal(err)
	}
	_ = e.Go(GoLimits{Depth: 6})

	sawMate := false
	for _, line := range listener.lines {
		if strings.Contains(line, "score mate ") && !strings.Contains(line, "mate -") {
			sawMate = true
		}
	}
	if !sawMate {
		t.Fatalf("no mate score reported; info lines: %v", listener.lines)
	}
}

func TestAvoidsStalemateWithWinningMaterial(t *testing.T) {
	// White has king + queen vs bare king; any reasonable move wins but
	// several queen moves stalemate immediately.
	e, _ := newTestEngine(t)
	if err := e.SetPosition("7k/8/6K1/8/8/8/8/6Q1 w - - 0 1", nil); err != nil {
		t.Fatal(err)
	}
	best := e.Go(GoLimits{Depth: 6})
	m := mustFindLegal(t, e.Board(), best)
	ok, st := e.Board().MakeMove(m)
	if !ok {
		t.Fatalf("bestmove %s not applicable", best)
	}
	if e.Board().InStalemate() {
		t.Fatalf("engine stalemated with a won position via %s", best)
	}
	e.Board().UnmakeMove(m, st)
}

func TestMoveTimeReturnsWithinBound(t *testing.T) {
	e, _ := newTestEngine(t)
	if err := e.SetPosition("", nil); err != nil {
		t.Fatal(err)
	}
	start := time.Now()
	best := e.Go(GoLimits{MoveTime: 100 * time.Millisecond})
	elapsed := time.Since(start)

	if best == "" || best == "0000" {
		t.Fatalf("no bestmove emitted, got %q", best)
	}
	if elapsed > 400*time.Millisecond {
		t.Fatalf("go movetime 100 took %v", elapsed)
	}
}

func TestNodeLimitStopsSearch(t *testing.T) {
	e, _ := newTestEngine(t)
	if err := e.SetPosition("", nil); err != nil {
		t.Fatal(err)
	}
	best := e.Go(GoLimits{Nodes: 20000})
	if best == "" || best == "0000" {
		t.Fatalf("no bestmove under node limit, got %q", best)
	}
	// The poll interval allows up to one mask-width of overshoot, plus the
	// calls made while unwinding; the bound leaves two mask-widths of slack.
	if nodesChecked > 20000+2*(nodeCheckMask+1) {
		t.Fatalf("node limit 20000 overshot to %d", nodesChecked)
	}
}

func TestStopFlagAbortsSearch(t *testing.T) {
	e, _ := newTestEngine(t)
	if err := e.SetPosition("", nil); err != nil {
		t.Fatal(err)
	}
	done := make(chan string, 1)
	go func() {
		done <- e.Go(GoLimits{Infinite: true})
	}()
	time.Sleep(50 * time.Millisecond)
	e.Stop()

	select {
	case best := <-done:
		if best == "" {
			t.Fatal("stop produced no bestmove")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("search did not stop within 2s of the stop flag")
	}
}

func TestSearchAfterRepetitionHistory(t *testing.T) {
	e, _ := newTestEngine(t)
	// Shuffle knights back and forth twice so the root position repeats;
	// the search must stay stable with repetition detection active.
	moves := []string{
		"g1f3", "g8f6", "f3g1", "f6g8",
		"g1f3", "g8f6", "f3g1", "f6g8",
	}
	if err := e.SetPosition("", moves); err != nil {
		t.Fatal(err)
	}
	best := e.Go(GoLimits{Depth: 4})
	mustFindLegal(t, e.Board(), best)
}

func TestSetPositionRejectsIllegalMoveAndRollsBack(t *testing.T) {
	e, _ := newTestEngine(t)
	if err := e.SetPosition("", []string{"e2e4"}); err != nil {
		t.Fatal(err)
	}
	fenBefore := e.Board().ToFEN()

	err := e.SetPosition("", []string{"e2e4", "e7e5", "e4e5"})
	if err == nil {
		t.Fatal("illegal move e4e5 accepted")
	}
	if got := e.Board().ToFEN(); got != fenBefore {
		t.Fatalf("board changed after rejected position: %s", got)
	}
}

func TestInfoLineFormat(t *testing.T) {
	e, listener := newTestEngine(t)
	if err := e.SetPosition("", nil); err != nil {
		t.Fatal(err)
	}
	_ = e.Go(GoLimits{Depth: 3})

	if len(listener.lines) == 0 {
		t.Fatal("no info lines emitted")
	}
	line := listener.lines[len(listener.lines)-1]
	for _, field := range []string{"info depth ", " seldepth ", " score ", " nodes ", " nps ", " time ", " hashfull ", " pv "} {
		if !strings.Contains(line, field) {
			t.Errorf("info line %q missing %q", line, field)
		}
	}
}

func mustFindLegal(t *testing.T, b *mg.Board, moveStr string) mg.Move {
	t.Helper()
	for _, m := range b.GenerateLegalMoves() {
		if m.String() == moveStr {
			return m
		}
	}
	t.Fatalf("move %q is not legal in %s", moveStr, b.ToFEN())
	return 0
}
