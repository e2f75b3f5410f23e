package common

import (
	"testing"

	"github.com/dylhunn/dragontoothmg"
)

var perftTests = []struct {
	fen   string
	nodes []int64 // depth 1, 2, ...
}{
	{
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		[]int64{20, 400, 8902, 197281, 4865609},
	},
	{
		// Kiwipete
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		[]int64{48, 2039, 97862, 4085603},
	},
	{
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		[]int64{14, 191, 2812, 43238, 674624},
	},
	{
		"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
		[]int64{6, 264, 9467, 422333},
	},
	{
		"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
		[]int64{44, 1486, 62379, 2103487},
	},
	{
		"r4rk1/1pp1qppp/p1np1n2/2b1p1B1/2B1P1b1/P1NP1N2/1PP1QPPP/R4RK1 w - - 0 10",
		[]int64{46, 2079, 89890, 3894594},
	},
}

func TestPerft(t *testing.T) {
	for _, test := range perftTests {
		var p, err = NewPositionFromFEN(test.fen)
		if err != nil {
			t.Fatal(err)
		}
		for depth, expected := range test.nodes {
			if got := Perft(&p, depth+1); got != expected {
				t.Errorf("%v depth %v: got %v, want %v",
					test.fen, depth+1, got, expected)
			}
		}
	}
}

// The same counts from an independent generator guard against shared blind
// spots in the fixture table.
func TestPerftCrossCheck(t *testing.T) {
	const depth = 3
	for _, test := range perftTests {
		var p, err = NewPositionFromFEN(test.fen)
		if err != nil {
			t.Fatal(err)
		}
		var board = dragontoothmg.ParseFen(test.fen)
		var want = dragontoothmg.Perft(&board, depth)
		if got := Perft(&p, depth); got != want {
			t.Errorf("%v: got %v, dragontoothmg counts %v", test.fen, got, want)
		}
	}
}

func BenchmarkPerft(b *testing.B) {
	var p, err = NewPositionFromFEN(InitialPositionFen)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Perft(&p, 4)
	}
}
