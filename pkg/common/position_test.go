package common

import (
	"strings"
	"testing"
)

func TestFENRoundTrip(t *testing.T) {
	for _, test := range perftTests {
		var p, err = NewPositionFromFEN(test.fen)
		if err != nil {
			t.Fatal(err)
		}
		// the move counters are not preserved exactly; compare the rest
		var want = strings.Join(strings.Fields(test.fen)[:4], " ")
		var got = strings.Join(strings.Fields(p.String())[:4], " ")
		if got != want {
			t.Errorf("round trip: got %v, want %v", got, want)
		}
	}
}

func TestMakeMoveLAN(t *testing.T) {
	var p, err = NewPositionFromFEN(InitialPositionFen)
	if err != nil {
		t.Fatal(err)
	}
	var next, ok = p.MakeMoveLAN("e2e4")
	if !ok {
		t.Fatal("e2e4 rejected")
	}
	if next.EpSquare != SquareE3 {
		t.Errorf("en passant square: got %v", SquareName(next.EpSquare))
	}
	if _, ok = p.MakeMoveLAN("e2e5"); ok {
		t.Error("e2e5 accepted")
	}
}

func TestMirrorPosition(t *testing.T) {
	for _, test := range perftTests {
		var p, err = NewPositionFromFEN(test.fen)
		if err != nil {
			t.Fatal(err)
		}
		var m = MirrorPosition(&p)
		var back = MirrorPosition(&m)
		if back.Key != p.Key {
			t.Errorf("double mirror changed %v", test.fen)
		}
		if Perft(&p, 2) != Perft(&m, 2) {
			t.Errorf("mirror changed the move tree of %v", test.fen)
		}
	}
}

func TestCheckersMaintained(t *testing.T) {
	var p, err = NewPositionFromFEN("rnbqkbnr/pppp1ppp/8/4p3/6P1/5P2/PPPPP2P/RNBQKBNR b KQkq - 0 2")
	if err != nil {
		t.Fatal(err)
	}
	var next, ok = p.MakeMoveLAN("d8h4")
	if !ok {
		t.Fatal("d8h4 rejected")
	}
	if !next.IsCheck() {
		t.Error("queen check not detected")
	}
	if next.GenerateLegalMoves() != nil {
		t.Error("fool's mate should have no legal moves")
	}
}
