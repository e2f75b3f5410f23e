package engine

import (
	"context"
	"testing"
	"time"

	. "github.com/meridian-engine/meridian/pkg/common"
)

func searchFEN(t *testing.T, fen string, depth, threads int) SearchInfo {
	t.Helper()
	var p, err = NewPositionFromFEN(fen)
	if err != nil {
		t.Fatal(err)
	}
	var e = NewEngine()
	e.Threads = threads
	e.SkillSeed = 1
	e.Prepare()
	return e.Search(context.Background(), SearchParams{
		Positions: []Position{p},
		Limits:    LimitsType{Depth: depth},
	})
}

func TestMateInOne(t *testing.T) {
	var si = searchFEN(t, "6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1", 3, 1)
	if len(si.MainLine) == 0 || si.MainLine[0].String() != "a1a8" {
		t.Fatalf("bestmove: got %v, want a1a8", si.MainLine)
	}
	if si.Score.Mate != 1 {
		t.Errorf("score: got %+v, want mate 1", si.Score)
	}
}

func TestMateInTwo(t *testing.T) {
	// KR vs K: 1. Kb6 Kb8 2. Rg8#
	var si = searchFEN(t, "k7/6R1/2K5/8/8/8/8/8 w - - 0 1", 6, 1)
	if si.Score.Mate != 2 {
		t.Errorf("score: got %+v, want mate 2", si.Score)
	}
}

func TestStalemate(t *testing.T) {
	var si = searchFEN(t, "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", 1, 1)
	if len(si.MainLine) != 0 {
		t.Errorf("bestmove: got %v, want none", si.MainLine)
	}
	if si.Score.Centipawns != 0 || si.Score.Mate != 0 {
		t.Errorf("score: got %+v, want cp 0", si.Score)
	}
}

func TestMatedAtRoot(t *testing.T) {
	// fool's mate, white to move is checkmated
	var si = searchFEN(t, "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3", 1, 1)
	if len(si.MainLine) != 0 {
		t.Errorf("bestmove: got %v, want none", si.MainLine)
	}
}

func TestSearchSanity(t *testing.T) {
	var si = searchFEN(t, InitialPositionFen, 6, 1)
	if len(si.MainLine) == 0 {
		t.Fatal("no best move")
	}
	if si.Score.Mate != 0 {
		t.Errorf("startpos is not a mate: %+v", si.Score)
	}
	if si.Score.Centipawns < -100 || si.Score.Centipawns > 150 {
		t.Errorf("implausible startpos score %+v", si.Score)
	}
	if si.Nodes == 0 {
		t.Error("no nodes counted")
	}
}

func TestDeterministicSingleThread(t *testing.T) {
	const fen = "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"
	var first = searchFEN(t, fen, 5, 1)
	var second = searchFEN(t, fen, 5, 1)
	if first.Nodes != second.Nodes {
		t.Errorf("node counts differ: %v vs %v", first.Nodes, second.Nodes)
	}
	if len(first.MainLine) == 0 || len(second.MainLine) == 0 ||
		first.MainLine[0] != second.MainLine[0] {
		t.Errorf("best moves differ: %v vs %v", first.MainLine, second.MainLine)
	}
}

func TestStopPropagation(t *testing.T) {
	var p, _ = NewPositionFromFEN(InitialPositionFen)
	var e = NewEngine()
	e.Prepare()

	var done = make(chan SearchInfo, 1)
	go func() {
		done <- e.Search(context.Background(), SearchParams{
			Positions: []Position{p},
			Limits:    LimitsType{Infinite: true},
		})
	}()

	time.Sleep(100 * time.Millisecond)
	e.Stop()

	select {
	case si := <-done:
		if len(si.MainLine) == 0 {
			t.Error("no best move after stop")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("search did not stop")
	}
}

func TestContextCancel(t *testing.T) {
	var p, _ = NewPositionFromFEN(InitialPositionFen)
	var e = NewEngine()
	e.Prepare()
	var ctx, cancel = context.WithCancel(context.Background())

	var done = make(chan SearchInfo, 1)
	go func() {
		done <- e.Search(ctx, SearchParams{
			Positions: []Position{p},
			Limits:    LimitsType{Infinite: true},
		})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("search ignored context cancellation")
	}
}

func TestSplitJoin(t *testing.T) {
	var p, err = NewPositionFromFEN("r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	var e = NewEngine()
	e.Threads = 2
	e.MinSplitDepth = 4
	e.Prepare()

	var si = e.Search(context.Background(), SearchParams{
		Positions: []Position{p},
		Limits:    LimitsType{Depth: 7},
	})

	if len(si.MainLine) == 0 {
		t.Fatal("no best move")
	}
	var slaveNodes int64
	for i, w := range e.workers {
		if w.curSp.Load() != nil {
			t.Errorf("worker %v still attached to a split point", i)
		}
		if n := w.activeSplitPoints; n != 0 {
			t.Errorf("worker %v has %v live split points", i, n)
		}
		if i > 0 {
			slaveNodes += w.nodes
		}
	}
	if slaveNodes == 0 {
		t.Error("no split happened: slave searched zero nodes")
	}
	for _, w := range e.workers {
		for s := range w.splitPointsBuf {
			if !w.splitPointsBuf[s].allSlavesFinished() {
				t.Errorf("worker %v split point %v has slave bits set", w.index, s)
			}
		}
	}
}

func TestRepetitionDetection(t *testing.T) {
	var e = NewEngine()
	e.Prepare()
	var w = e.workers[0]

	var moves = []string{"g1f3", "g8f6", "f3g1", "f6g8"}
	var p, _ = NewPositionFromFEN(InitialPositionFen)
	w.stack[0].position = p
	var cur = p
	for i, lan := range moves {
		var next, ok = cur.MakeMoveLAN(lan)
		if !ok {
			t.Fatal("bad move", lan)
		}
		w.stack[i+1].position = next
		cur = next
	}
	e.historyKeys = map[uint64]int{}

	// the knight dance repeats the opening position within the stack
	if !w.isDraw(4) {
		t.Error("stack repetition not detected")
	}

	// two earlier occurrences in the game history also draw
	var mid = w.stack[2].position // after g1f3 g8f6, LastMove set, Rule50 > 0
	w.stack[0].position = mid
	w.stack[1].position = w.stack[4].position
	e.historyKeys = map[uint64]int{w.stack[1].position.Key: 2}
	if !w.isDraw(1) {
		t.Error("game history repetition not detected")
	}
}

func TestFiftyMoveAndMaterialDraw(t *testing.T) {
	var p, _ = NewPositionFromFEN("8/8/4k3/8/4K3/8/8/8 w - - 0 1")
	if !isDrawnByRule(&p) {
		t.Error("bare kings not drawn")
	}
	var q, _ = NewPositionFromFEN("8/8/4k3/8/4K3/8/8/7N w - - 0 1")
	if !isDrawnByRule(&q) {
		t.Error("king and knight not drawn")
	}
	var r, _ = NewPositionFromFEN("8/8/4k3/4p3/4K3/8/8/8 w - - 0 1")
	if isDrawnByRule(&r) {
		t.Error("pawn ending called drawn")
	}
	var s, _ = NewPositionFromFEN("8/8/4k3/8/4K3/8/8/R7 w - - 120 90")
	if !isDrawnByRule(&s) {
		t.Error("fifty-move rule not applied")
	}
}
