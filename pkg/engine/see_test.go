package engine

import (
	"testing"

	. "github.com/meridian-engine/meridian/pkg/common"
)

// classic swap-algorithm positions; expectations in coarse SEE units
// (pawn 1, minor 4, rook 6, queen 12)
func TestSeeGE(t *testing.T) {
	var tests = []struct {
		fen       string
		lan       string
		atLeast   int
		lessThan  int
	}{
		// Rxe5 wins exactly a pawn
		{"1k1r4/1pp4p/p7/4p3/8/P5P1/1PP4P/2K1R3 w - - 0 1", "e1e5", 1, 2},
		// Nxe5 wins a pawn but loses the knight to ...Nxe5
		{"1k1r3q/1ppn3p/p4b2/4p3/8/P2N2P1/1PP1R1BP/2K1Q3 w - - 0 1", "d3e5", -3, -2},
		// undefended pawn grab
		{"7k/8/8/p7/8/8/8/R6K w - - 0 1", "a1a5", 1, 2},
		// quiet move to a defended square loses the rook
		{"7k/8/4p3/8/3R4/8/8/7K w - - 0 1", "d4d5", -6, -5},
	}
	for _, test := range tests {
		var p, err = NewPositionFromFEN(test.fen)
		if err != nil {
			t.Fatal(err)
		}
		var move = p.ParseMoveLAN(test.lan)
		if move == MoveEmpty {
			t.Fatalf("%v: move %v not found", test.fen, test.lan)
		}
		if !SeeGE(&p, move, test.atLeast) {
			t.Errorf("%v %v: SEE < %v", test.fen, test.lan, test.atLeast)
		}
		if SeeGE(&p, move, test.lessThan) {
			t.Errorf("%v %v: SEE >= %v", test.fen, test.lan, test.lessThan)
		}
	}
}

func TestSeeSign(t *testing.T) {
	var p, err = NewPositionFromFEN("1k1r4/1pp4p/p7/4p3/8/P5P1/1PP4P/2K1R3 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	var move = p.ParseMoveLAN("e1e5")
	if !seeSignGE(&p, move) {
		t.Error("winning capture flagged as losing")
	}
}
