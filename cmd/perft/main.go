package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	mg "duckchess/duckmg"
)

// perft runner: counts leaf nodes of the legal move tree for a position,
// optionally printing the per-root-move split for debugging.
//
// usage: perft <depth> [fen] [divide]
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: perft <depth> [fen] [divide]")
		os.Exit(2)
	}
	depth, err := strconv.Atoi(os.Args[1])
	if err != nil || depth < 0 {
		fmt.Fprintf(os.Stderr, "bad depth %q\n", os.Args[1])
		os.Exit(2)
	}

	fen := mg.FENStartPos
	divide := false
	for _, arg := range os.Args[2:] {
		if arg == "divide" {
			divide = true
		} else {
			fen = arg
		}
	}

	board, err := mg.ParseFEN(fen)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if divide {
		split := mg.PerftDivide(board, depth)
		keys := make([]string, 0, len(split))
		byMove := make(map[string]uint64, len(split))
		var total uint64
		for m, n := range split {
			keys = append(keys, m.String())
			byMove[m.String()] = n
			total += n
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("%s: %d\n", k, byMove[k])
		}
		fmt.Printf("total: %d\n", total)
		return
	}

	fmt.Println(mg.Perft(board, depth))
}
