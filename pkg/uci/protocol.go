package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/meridian-engine/meridian/pkg/common"
)

type Engine interface {
	Prepare()
	Clear()
	Stop()
	PonderHit()
	Search(ctx context.Context, searchParams common.SearchParams) common.SearchInfo
}

type Protocol struct {
	name         string
	author       string
	version      string
	options      []Option
	engine       Engine
	positions    []common.Position
	thinking     bool
	engineOutput chan common.SearchInfo
	cancel       context.CancelFunc

	UseSearchLog      bool
	SearchLogFilename string
	Chess960          bool
}

func New(name, author, version string, engine Engine, options []Option) *Protocol {
	var initPosition, err = common.NewPositionFromFEN(common.InitialPositionFen)
	if err != nil {
		panic(err)
	}
	var p = &Protocol{
		name:              name,
		author:            author,
		version:           version,
		engine:            engine,
		positions:         []common.Position{initPosition},
		SearchLogFilename: "SearchLog.txt",
	}
	p.options = append([]Option{
		&BoolOption{Name: "Use Search Log", Value: &p.UseSearchLog},
		&StringOption{Name: "Search Log Filename", Value: &p.SearchLogFilename},
		&BoolOption{Name: "UCI_Chess960", Value: &p.Chess960},
	}, options...)
	return p
}

func (uci *Protocol) Run(logger *log.Logger) {
	var commands = make(chan string)

	go func() {
		defer close(commands)
		readCommands(commands)
	}()

	var searchResult common.SearchInfo
	for {
		select {
		case si, ok := <-uci.engineOutput:
			if ok {
				fmt.Println(searchInfoToUci(si))
				uci.writeSearchLog(searchInfoToUci(si))
				searchResult = si
			} else {
				uci.printBestMove(searchResult)
				uci.thinking = false
				uci.cancel = nil
				uci.engineOutput = nil
				searchResult = common.SearchInfo{}
			}
		case commandLine, ok := <-commands:
			if !ok {
				// quit: abort any running search before leaving
				if uci.thinking {
					uci.engine.Stop()
					if uci.cancel != nil {
						uci.cancel()
					}
				}
				return
			}
			var err = uci.handle(commandLine)
			if err != nil {
				logger.Println(err)
			}
		}
	}
}

func (uci *Protocol) printBestMove(searchResult common.SearchInfo) {
	if len(searchResult.MainLine) == 0 {
		fmt.Println("bestmove (none)")
		return
	}
	if searchResult.PonderMove != common.MoveEmpty {
		fmt.Printf("bestmove %v ponder %v\n",
			searchResult.MainLine[0], searchResult.PonderMove)
	} else {
		fmt.Printf("bestmove %v\n", searchResult.MainLine[0])
	}
	uci.writeSearchLog(fmt.Sprintf("Best move: %v nodes: %v",
		searchResult.MainLine[0], searchResult.Nodes))
}

func readCommands(commands chan<- string) {
	var scanner = bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		var commandLine = scanner.Text()
		if commandLine == "quit" {
			return
		}
		if commandLine != "" {
			commands <- commandLine
		}
	}
}

func (uci *Protocol) handle(commandLine string) error {
	var fields = strings.Fields(commandLine)
	if len(fields) == 0 {
		return nil
	}
	var commandName = fields[0]
	fields = fields[1:]

	if uci.thinking {
		switch commandName {
		case "stop":
			uci.engine.Stop()
			uci.cancel()
			return nil
		case "ponderhit":
			uci.engine.PonderHit()
			return nil
		}
		return errors.New("search still run")
	}

	var h func(fields []string) error

	switch commandName {
	case "uci":
		h = uci.uciCommand
	case "setoption":
		h = uci.setOptionCommand
	case "isready":
		h = uci.isReadyCommand
	case "position":
		h = uci.positionCommand
	case "go":
		h = uci.goCommand
	case "ucinewgame":
		h = uci.uciNewGameCommand
	case "ponderhit":
		h = uci.ponderhitCommand
	case "perft":
		h = uci.perftCommand
	case "d":
		h = uci.printCommand
	case "key":
		h = uci.keyCommand
	}

	if h == nil {
		return fmt.Errorf("Unknown command: %v", commandLine)
	}

	return h(fields)
}

func (uci *Protocol) uciCommand(fields []string) error {
	fmt.Printf("id name %s %s\n", uci.name, uci.version)
	fmt.Printf("id author %s\n", uci.author)
	for _, option := range uci.options {
		fmt.Println(option.UciString())
	}
	fmt.Println("uciok")
	return nil
}

// setoption name <id> [value <x>]; option names may contain spaces.
func (uci *Protocol) setOptionCommand(fields []string) error {
	if len(fields) < 2 || fields[0] != "name" {
		return errors.New("invalid setoption arguments")
	}
	var valueIndex = -1
	for i, f := range fields {
		if f == "value" {
			valueIndex = i
			break
		}
	}
	var name, value string
	if valueIndex == -1 {
		name = strings.Join(fields[1:], " ")
		value = "true" // buttons and checks without a value
	} else {
		name = strings.Join(fields[1:valueIndex], " ")
		value = strings.Join(fields[valueIndex+1:], " ")
	}
	for _, option := range uci.options {
		if strings.EqualFold(option.UciName(), name) {
			return option.Set(value)
		}
	}
	return fmt.Errorf("No such option: %v", name)
}

func (uci *Protocol) isReadyCommand(fields []string) error {
	uci.engine.Prepare()
	fmt.Println("readyok")
	return nil
}

func (uci *Protocol) positionCommand(fields []string) error {
	var args = fields
	var token = args[0]
	var fen string
	var movesIndex = findIndexString(args, "moves")
	if token == "startpos" {
		fen = common.InitialPositionFen
	} else if token == "fen" {
		if movesIndex == -1 {
			fen = strings.Join(args[1:], " ")
		} else {
			fen = strings.Join(args[1:movesIndex], " ")
		}
	} else {
		return errors.New("unknown position command")
	}
	var p, err = common.NewPositionFromFEN(fen)
	if err != nil {
		return err
	}
	var positions = []common.Position{p}
	if movesIndex >= 0 && movesIndex+1 < len(args) {
		for _, smove := range args[movesIndex+1:] {
			var newPos, ok = positions[len(positions)-1].MakeMoveLAN(smove)
			if !ok {
				return errors.New("parse move failed")
			}
			positions = append(positions, newPos)
		}
	}
	uci.positions = positions
	return nil
}

func (uci *Protocol) goCommand(fields []string) error {
	var limits = uci.parseLimits(fields)
	var ctx, cancel = context.WithCancel(context.TODO())
	uci.cancel = cancel
	uci.thinking = true
	uci.engineOutput = make(chan common.SearchInfo, 3)

	if uci.UseSearchLog {
		var p = &uci.positions[len(uci.positions)-1]
		uci.writeSearchLog(fmt.Sprintf("Searching: %v infinite: %v ponder: %v",
			p.String(), limits.Infinite, limits.Ponder))
	}

	go func() {
		var searchResult = uci.engine.Search(ctx, common.SearchParams{
			Positions: uci.positions,
			Limits:    limits,
			Progress: func(si common.SearchInfo) {
				select {
				case uci.engineOutput <- si:
				default:
				}
			},
		})
		uci.engineOutput <- searchResult
		close(uci.engineOutput)
	}()
	return nil
}

func (uci *Protocol) uciNewGameCommand(fields []string) error {
	uci.engine.Clear()
	return nil
}

func (uci *Protocol) ponderhitCommand(fields []string) error {
	uci.engine.PonderHit()
	return nil
}

func (uci *Protocol) perftCommand(fields []string) error {
	if len(fields) == 0 {
		return errors.New("perft depth missing")
	}
	var depth, err = strconv.Atoi(fields[0])
	if err != nil {
		return err
	}
	var p = &uci.positions[len(uci.positions)-1]
	var start = time.Now()
	var nodes = common.Perft(p, depth)
	var elapsed = time.Since(start)
	fmt.Printf("Nodes %v\n", nodes)
	fmt.Printf("Time (ms) %v\n", elapsed.Milliseconds())
	fmt.Printf("Nodes/second %v\n", int64(float64(nodes)/(elapsed.Seconds()+0.001)))
	return nil
}

func (uci *Protocol) printCommand(fields []string) error {
	fmt.Println(uci.positions[len(uci.positions)-1].String())
	return nil
}

func (uci *Protocol) keyCommand(fields []string) error {
	fmt.Printf("key: %x\n", uci.positions[len(uci.positions)-1].Key)
	return nil
}

func (uci *Protocol) writeSearchLog(line string) {
	if !uci.UseSearchLog || uci.SearchLogFilename == "" {
		return
	}
	var file, err = os.OpenFile(uci.SearchLogFilename,
		os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer file.Close()
	var logger = log.New(file, "", log.LstdFlags)
	logger.Println(line)
}

func searchInfoToUci(si common.SearchInfo) string {
	var sb = &strings.Builder{}
	fmt.Fprintf(sb, "info depth %v", si.Depth)
	if si.SelDepth > 0 {
		fmt.Fprintf(sb, " seldepth %v", si.SelDepth)
	}
	if si.MultiPV > 0 {
		fmt.Fprintf(sb, " multipv %v", si.MultiPV)
	}
	if si.Score.Mate != 0 {
		fmt.Fprintf(sb, " score mate %v", si.Score.Mate)
	} else {
		fmt.Fprintf(sb, " score cp %v", si.Score.Centipawns)
	}
	if si.Bound == common.BoundLower {
		fmt.Fprintf(sb, " lowerbound")
	} else if si.Bound == common.BoundUpper {
		fmt.Fprintf(sb, " upperbound")
	}
	var timeMs = si.Time.Milliseconds()
	var nps = si.Nodes * 1000 / (timeMs + 1)
	fmt.Fprintf(sb, " nodes %v nps %v time %v", si.Nodes, nps, timeMs)
	if len(si.MainLine) != 0 {
		fmt.Fprintf(sb, " pv")
		for _, move := range si.MainLine {
			sb.WriteString(" ")
			sb.WriteString(move.String())
		}
	}
	return sb.String()
}

func (uci *Protocol) parseLimits(args []string) (result common.LimitsType) {
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "ponder":
			result.Ponder = true
		case "wtime":
			result.WhiteTime, _ = strconv.Atoi(args[i+1])
			i++
		case "btime":
			result.BlackTime, _ = strconv.Atoi(args[i+1])
			i++
		case "winc":
			result.WhiteIncrement, _ = strconv.Atoi(args[i+1])
			i++
		case "binc":
			result.BlackIncrement, _ = strconv.Atoi(args[i+1])
			i++
		case "movestogo":
			result.MovesToGo, _ = strconv.Atoi(args[i+1])
			i++
		case "depth":
			result.Depth, _ = strconv.Atoi(args[i+1])
			i++
		case "nodes":
			result.Nodes, _ = strconv.Atoi(args[i+1])
			i++
		case "mate":
			result.Mate, _ = strconv.Atoi(args[i+1])
			i++
		case "movetime":
			result.MoveTime, _ = strconv.Atoi(args[i+1])
			i++
		case "infinite":
			result.Infinite = true
		case "searchmoves":
			var p = &uci.positions[len(uci.positions)-1]
			for i++; i < len(args); i++ {
				if m := p.ParseMoveLAN(args[i]); m != common.MoveEmpty {
					result.SearchMoves = append(result.SearchMoves, m)
				}
			}
		}
	}
	return
}

func findIndexString(slice []string, value string) int {
	for p, v := range slice {
		if v == value {
			return p
		}
	}
	return -1
}
