package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"duckchess/engine"
)

type stdoutListener struct{}

func (stdoutListener) Info(line string) { fmt.Println(line) }

func main() {
	uciLoop()
}

func uciLoop() {
	scanner := bufio.NewScanner(os.Stdin)
	eng := engine.NewEngine(stdoutListener{})
	searching := make(chan struct{}, 1)

	for scanner.Scan() {
		line := scanner.Text()
		tokens := strings.Fields(line)
		if len(tokens) == 0 { // ignore blank lines
			continue
		}
		switch strings.ToLower(tokens[0]) {
		case "uci":
			fmt.Println("id name DuckChess")
			fmt.Println("id author DuckChess developers")
			fmt.Println("option name Hash type spin default 64 min 1 max 4096")
			fmt.Println("option name Threads type spin default 1 min 1 max 1")
			fmt.Println("option name OwnBook type check default false")
			fmt.Println("option name BookPath type string default <empty>")
			fmt.Println("option name NNUEFile type string default <empty>")
			fmt.Println("uciok")
		case "isready":
			fmt.Println("readyok")
		case "ucinewgame":
			eng.NewGame()
		case "quit":
			return
		case "stop":
			eng.Stop()
		case "position":
			handlePosition(eng, line)
		case "go":
			limits, err := parseGoLimits(line)
			if err != nil {
				fmt.Println("info string error:", err)
				continue
			}
			// Search runs in its own goroutine so the reader stays free to
			// accept "stop".
			select {
			case searching <- struct{}{}:
				go func() {
					best := eng.Go(limits)
					fmt.Println("bestmove", best)
					<-searching
				}()
			default:
				fmt.Println("info string error: search already running")
			}
		case "setoption":
			handleSetOption(eng, tokens)
		default:
			fmt.Println("info string Unknown command:", line)
		}
	}
}

func handlePosition(eng *engine.Engine, line string) {
	tokens := strings.Fields(line)[1:]
	if len(tokens) == 0 {
		fmt.Println("info string error: malformed position command")
		return
	}

	var fen string
	var moves []string

	switch strings.ToLower(tokens[0]) {
	case "startpos":
		tokens = tokens[1:]
	case "fen":
		tokens = tokens[1:]
		var fenFields []string
		for len(tokens) > 0 && strings.ToLower(tokens[0]) != "moves" {
			fenFields = append(fenFields, tokens[0])
			tokens = tokens[1:]
		}
		if len(fenFields) == 0 {
			fmt.Println("info string error: position fen without a FEN string")
			return
		}
		fen = strings.Join(fenFields, " ")
	default:
		fmt.Println("info string error: invalid position subcommand", tokens[0])
		return
	}

	if len(tokens) > 0 && strings.ToLower(tokens[0]) == "moves" {
		moves = tokens[1:]
	}

	if err := eng.SetPosition(fen, moves); err != nil {
		fmt.Println("info string error:", err)
	}
}

func parseGoLimits(line string) (engine.GoLimits, error) {
	var limits engine.GoLimits
	tokens := strings.Fields(line)[1:]

	nextInt := func(i int, name string) (int, error) {
		if i+1 >= len(tokens) {
			return 0, fmt.Errorf("go %s: missing value", name)
		}
		v, err := strconv.Atoi(tokens[i+1])
		if err != nil {
			return 0, fmt.Errorf("go %s: %q is not a number", name, tokens[i+1])
		}
		return v, nil
	}

	for i := 0; i < len(tokens); i++ {
		var v int
		var err error
		switch strings.ToLower(tokens[i]) {
		case "infinite":
			limits.Infinite = true
			continue
		case "depth":
			v, err = nextInt(i, "depth")
			limits.Depth = v
		case "nodes":
			v, err = nextInt(i, "nodes")
			limits.Nodes = uint64(v)
		case "movetime":
			v, err = nextInt(i, "movetime")
			limits.MoveTime = time.Duration(v) * time.Millisecond
		case "wtime":
			v, err = nextInt(i, "wtime")
			limits.WTime = v
		case "btime":
			v, err = nextInt(i, "btime")
			limits.BTime = v
		case "winc":
			v, err = nextInt(i, "winc")
			limits.WInc = v
		case "binc":
			v, err = nextInt(i, "binc")
			limits.BInc = v
		case "movestogo":
			v, err = nextInt(i, "movestogo")
			limits.MovesToGo = v
		default:
			fmt.Println("info string Unknown go subcommand", tokens[i])
			continue
		}
		if err != nil {
			return limits, err
		}
		i++
	}
	return limits, nil
}

func handleSetOption(eng *engine.Engine, tokens []string) {
	// setoption name <id> [value <x>]
	var name, value string
	mode := ""
	for _, tok := range tokens[1:] {
		switch strings.ToLower(tok) {
		case "name":
			mode = "name"
		case "value":
			mode = "value"
		default:
			if mode == "name" {
				if name != "" {
					name += " "
				}
				name += tok
			} else if mode == "value" {
				if value != "" {
					value += " "
				}
				value += tok
			}
		}
	}
	if name == "" {
		fmt.Println("info string error: setoption without a name")
		return
	}
	eng.SetOption(strings.ToLower(name), value)
}
