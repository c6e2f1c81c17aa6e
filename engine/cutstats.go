package engine

import "fmt"

// CutStatistics collects counts for each pruning/cutoff mechanism.
type CutStatistics struct {
	TTCutoffs        uint64
	NullMoveCutoffs  uint64
	BetaCutoffs      uint64
	QStandPatCutoffs uint64
	QBetaCutoffs     uint64
	DeltaPrunes      uint64
	SEEPrunes        uint64
}

var cutStats CutStatistics

// PrintCutStats controls whether the engine dumps the cut statistics once the
// current search finishes. It is off by default; no UCI command sets it.
var PrintCutStats bool

func resetCutStats() {
	cutStats = CutStatistics{}
}

func dumpCutStats(listener InfoListener) {
	listener.Info("info string Cut statistics:")
	listener.Info(fmt.Sprintf("info string   TT cutoffs: %d", cutStats.TTCutoffs))
	listener.Info(fmt.Sprintf("info string   Null-move cutoffs: %d", cutStats.NullMoveCutoffs))
	listener.Info(fmt.Sprintf("info string   Beta cutoffs: %d", cutStats.BetaCutoffs))
	listener.Info(fmt.Sprintf("info string   QStandPat cutoffs: %d", cutStats.QStandPatCutoffs))
	listener.Info(fmt.Sprintf("info string   QBeta cutoffs: %d", cutStats.QBetaCutoffs))
	listener.Info(fmt.Sprintf("info string   Delta prunes: %d", cutStats.DeltaPrunes))
	listener.Info(fmt.Sprintf("info string   SEE prunes: %d", cutStats.SEEPrunes))
}
