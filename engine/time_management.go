package engine

import (
	"time"

	mg "duckchess/duckmg"
)

// TimeController is polled by the search. SoftExceeded stops the search
// between iterations; HardExceeded aborts the current iteration and discards
// its partial result.
type TimeController interface {
	SoftExceeded() bool
	HardExceeded() bool
}

// infiniteTime is the controller for depth/node/infinite searches: it never fires.
type infiniteTime struct{}

func (infiniteTime) SoftExceeded() bool { return false }
func (infiniteTime) HardExceeded() bool { return false }

// TimeHandler is the default wall-clock controller. The soft deadline is the
// budget for this move; the hard deadline allows the in-flight iteration to
// run on a little before it is cut.
type TimeHandler struct {
	softDeadline time.Time
	hardDeadline time.Time
}

// engine-side safety knobs
const (
	overheadMs    = 30   // reserve for UCI/IO jitter
	minMoveMs     = 5    // never less than this
	maxFrac       = 0.7  // never spend >70% of remaining time
	panicThreshMs = 1000 // below this, survive on the increment
	panicFrac     = 0.90 // use 90% of inc in panic
	hardFactor    = 3    // hard deadline = soft budget * hardFactor
)

// StartMoveTime sets a fixed budget, as for "go movetime N".
func (th *TimeHandler) StartMoveTime(moveTime time.Duration) {
	now := time.Now()
	th.softDeadline = now.Add(moveTime - overheadMs*time.Millisecond)
	th.hardDeadline = now.Add(moveTime)
}

// StartClock derives a budget from the game clock. With an increment it is the
// remaining time divided by an estimate of the moves left, plus the increment
// (below one second left, 90% of the increment); without one it is a fortieth
// of the remaining time.
func (th *TimeHandler) StartClock(b *mg.Board, remaining, increment int) {
	movesLeft := estimateMovesRemaining(getPiecePhase(b))

	var moveTime int
	if increment > 0 {
		if remaining < panicThreshMs {
			moveTime = int(float64(increment) * panicFrac)
		} else {
			moveTime = remaining/movesLeft + increment
		}
	} else {
		moveTime = remaining / 40
	}

	if moveTime < minMoveMs {
		moveTime = minMoveMs
	}
	if moveTime > int(float64(remaining)*maxFrac) {
		moveTime = int(float64(remaining) * maxFrac)
	}
	if moveTime > remaining-overheadMs {
		moveTime = remaining - overheadMs
	}
	if moveTime < minMoveMs {
		moveTime = minMoveMs
	}

	now := time.Now()
	th.softDeadline = now.Add(time.Duration(moveTime) * time.Millisecond)

	hard := moveTime * hardFactor
	if hard > remaining-overheadMs {
		hard = remaining - overheadMs
	}
	if hard < moveTime {
		hard = moveTime
	}
	th.hardDeadline = now.Add(time.Duration(hard) * time.Millisecond)
}

func (th *TimeHandler) SoftExceeded() bool { return time.Now().After(th.softDeadline) }
func (th *TimeHandler) HardExceeded() bool { return time.Now().After(th.hardDeadline) }

// estimateMovesRemaining interpolates between 20 (endgame) and 45
// (opening/middlegame) by piece phase.
func estimateMovesRemaining(phase int) int {
	return (phase*25)/TotalPhase + 20
}
