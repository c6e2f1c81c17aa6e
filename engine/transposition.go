package engine

import (
	"math/bits"
	"unsafe"

	mg "duckchess/duckmg"
)

const (
	// Bound flags
	AlphaFlag = iota // upper bound: score never exceeded alpha
	BetaFlag         // lower bound: beta cutoff
	ExactFlag        // exact score inside the window

	// Default table size in MB
	DefaultTTSize = 64
	clusterSize   = 4

	// Unusable score marker returned by failed probes
	UnusableScore int32 = -32750
)

type TransTable struct {
	isInitialized bool
	entries       []TTEntry
	clusterCount  uint64
	generation    uint8
	sizeMB        int
}

// TTEntry is one stored search result. Scores for mates are normalized to
// distance-from-node before storing and re-adjusted by ply on probe.
type TTEntry struct {
	Hash       uint64
	Move       mg.Move
	Score      int16
	Depth      int8
	Flag       int8
	Generation uint8
}

func (tt *TransTable) clearTT() {
	tt.entries = nil
	tt.isInitialized = false
	tt.clusterCount = 0
	tt.generation = 0
}

// init allocates the table for the configured size (DefaultTTSize when unset).
// The cluster count is rounded down to a power of two so indexing is a mask.
func (tt *TransTable) init() {
	if tt.sizeMB <= 0 {
		tt.sizeMB = DefaultTTSize
	}
	entrySize := uint64(unsafe.Sizeof(TTEntry{}))
	totalBytes := uint64(tt.sizeMB) * 1024 * 1024
	clusterCount := totalBytes / (entrySize * clusterSize)
	if clusterCount == 0 {
		clusterCount = 1
	}
	// Round down to a power of two
	clusterCount = uint64(1) << (63 - bits.LeadingZeros64(clusterCount))
	tt.clusterCount = clusterCount
	tt.entries = make([]TTEntry, clusterCount*clusterSize)
	tt.generation = 0
	tt.isInitialized = true
}

// Resize reallocates the table for the given size in MB. On allocation
// failure the previous table is kept and false is returned.
func (tt *TransTable) Resize(sizeMB int) (ok bool) {
	if sizeMB <= 0 {
		return false
	}
	prev := *tt
	defer func() {
		if recover() != nil {
			*tt = prev
			ok = false
		}
	}()
	tt.sizeMB = sizeMB
	tt.init()
	if tt.entries == nil {
		*tt = prev
		return false
	}
	return true
}

// NewSearch advances the generation counter; older entries lose replacement
// priority.
func (tt *TransTable) NewSearch() {
	tt.generation++
}

// ProbeEntry looks up the cluster for the hash and returns a matching entry.
func (tt *TransTable) ProbeEntry(hash uint64) (entry *TTEntry, found bool) {
	if tt.clusterCount == 0 {
		return nil, false
	}
	base := int((hash & (tt.clusterCount - 1)) * clusterSize)
	for i := 0; i < clusterSize; i++ {
		next := &tt.entries[base+i]
		if next.Hash == hash {
			return next, true
		}
	}
	return nil, false
}

// useEntry decides whether a probed entry produces a cutoff for the given
// depth and window, re-adjusting mate scores by the probing node's ply.
func (tt *TransTable) useEntry(ttEntry *TTEntry, hash uint64, depth int8, alpha int32, beta int32, ply int16, excludedMove mg.Move) (usable bool, score int32) {
	score = UnusableScore
	if ttEntry == nil || ttEntry.Hash != hash {
		return false, score
	}
	if excludedMove != 0 && ttEntry.Move == excludedMove {
		return false, score
	}
	if ttEntry.Depth < depth {
		return false, score
	}
	norm := int32(ttEntry.Score)
	if norm > mateThreshold {
		norm -= int32(ply)
	} else if norm < -mateThreshold {
		norm += int32(ply)
	}
	switch ttEntry.Flag {
	case ExactFlag:
		return true, norm
	case AlphaFlag:
		if norm <= alpha {
			return true, norm
		}
	case BetaFlag:
		if norm >= beta {
			return true, norm
		}
	}
	return false, score
}

// storeEntry writes a search result into the hash's cluster. Same-key entries
// are overwritten; otherwise an empty slot is used, then the entry with the
// lowest (generation, depth) priority is evicted.
func (tt *TransTable) storeEntry(hash uint64, depth int8, ply int16, move mg.Move, score int32, flag int8) {
	if tt.clusterCount == 0 {
		return
	}
	base := int((hash & (tt.clusterCount - 1)) * clusterSize)

	// Normalize mate scores to distance from this node
	if score > mateThreshold {
		score += int32(ply)
	} else if score < -mateThreshold {
		score -= int32(ply)
	}

	targetIdx := -1

	// Prefer updating an existing entry for the same position
	for i := 0; i < clusterSize; i++ {
		if tt.entries[base+i].Hash == hash {
			targetIdx = base + i
			break
		}
	}

	// Next look for an empty slot
	if targetIdx == -1 {
		for i := 0; i < clusterSize; i++ {
			if tt.entries[base+i].Hash == 0 {
				targetIdx = base + i
				break
			}
		}
	}

	// Otherwise evict the entry with the lowest (generation, depth)
	if targetIdx == -1 {
		targetIdx = base
		worst := replacePriority(&tt.entries[base], tt.generation)
		for i := 1; i < clusterSize; i++ {
			if p := replacePriority(&tt.entries[base+i], tt.generation); p < worst {
				worst = p
				targetIdx = base + i
			}
		}
	}

	entry := &tt.entries[targetIdx]
	entry.Hash = hash
	entry.Depth = depth
	entry.Move = move
	entry.Flag = flag
	entry.Score = int16(score)
	entry.Generation = tt.generation
}

// replacePriority scores an entry for eviction: stale generations sort below
// current ones, then shallower depths go first.
func replacePriority(e *TTEntry, generation uint8) int {
	age := int(generation - e.Generation)
	return -age*256 + int(e.Depth)
}

// Hashfull samples the table and reports fill in per mille, as expected by
// the UCI "hashfull" info field.
func (tt *TransTable) Hashfull() int {
	if len(tt.entries) == 0 {
		return 0
	}
	sample := 1000
	if sample > len(tt.entries) {
		sample = len(tt.entries)
	}
	used := 0
	for i := 0; i < sample; i++ {
		if tt.entries[i].Hash != 0 {
			used++
		}
	}
	return used * 1000 / sample
}
