package main

import (
	"flag"
	"fmt"
	"log"
	"runtime"
	"time"

	"github.com/dylhunn/dragontoothmg"
	"golang.org/x/sync/errgroup"

	"github.com/meridian-engine/meridian/pkg/common"
)

var (
	fen   = flag.String("fen", common.InitialPositionFen, "position to count")
	depth = flag.Int("depth", 5, "perft depth")
	check = flag.Bool("check", false, "cross-check against dragontoothmg")
)

func main() {
	flag.Parse()

	var p, err = common.NewPositionFromFEN(*fen)
	if err != nil {
		log.Fatal(err)
	}

	var start = time.Now()
	var nodes = parallelPerft(&p, *depth)
	var elapsed = time.Since(start)

	fmt.Printf("Nodes %v\n", nodes)
	fmt.Printf("Time (ms) %v\n", elapsed.Milliseconds())
	fmt.Printf("Nodes/second %v\n", int64(float64(nodes)/(elapsed.Seconds()+0.001)))

	if *check {
		var board = dragontoothmg.ParseFen(*fen)
		var reference = dragontoothmg.Perft(&board, *depth)
		if reference != nodes {
			log.Fatalf("mismatch: dragontoothmg counts %v", reference)
		}
		fmt.Println("dragontoothmg agrees")
	}
}

// parallelPerft fans the root moves out over the CPUs.
func parallelPerft(p *common.Position, depth int) int64 {
	if depth <= 1 {
		return common.Perft(p, depth)
	}
	var moves = p.GenerateLegalMoves()
	var results = make([]int64, len(moves))
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, m := range moves {
		i, m := i, m
		g.Go(func() error {
			var child common.Position
			p.MakeMove(m, &child)
			results[i] = common.Perft(&child, depth-1)
			return nil
		})
	}
	g.Wait()
	var sum int64
	for _, r := range results {
		sum += r
	}
	return sum
}
