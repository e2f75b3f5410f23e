package engine

import (
	"testing"

	. "github.com/meridian-engine/meridian/pkg/common"
)

func TestValueToFromTT(t *testing.T) {
	var values = []int{
		valueMate, valueMate - 1, valueMate - 42, valueMateInMaxPly,
		-valueMate, -valueMate + 1, -valueMate + 42, valueMatedInMax,
		0, 17, -250, valueKnownWin,
	}
	for _, v := range values {
		for ply := 0; ply <= maxPly; ply++ {
			if got := valueFromTT(valueToTT(v, ply), ply); got != v {
				t.Fatalf("round trip v=%v ply=%v: got %v", v, ply, got)
			}
		}
	}
}

func TestTransTableRoundTrip(t *testing.T) {
	var tt = newTransTable(4)
	var key = uint64(0x123456789abcdef0)
	var move = Move(SquareE2 ^ (SquareE4 << 6) ^ (Pawn << 12))

	tt.Update(key, 10, 250, boundExact, move, 120, 30)

	var entry, ok = tt.Read(key)
	if !ok {
		t.Fatal("entry lost")
	}
	if entry.Move() != move || int(entry.value) != 250 ||
		int(entry.depth) != 10 || entry.bound != boundExact ||
		int(entry.staticEval) != 120 || int(entry.evalMargin) != 30 {
		t.Errorf("entry mangled: %+v", entry)
	}

	if _, ok := tt.Read(key ^ exclusionKey); ok {
		t.Error("exclusion key aliases the real key")
	}
}

func TestTransTableReplacement(t *testing.T) {
	var tt = newTransTable(4)
	var key = uint64(0xfeedface12345678)

	tt.Update(key, 12, 100, boundLower, MoveEmpty, 0, 0)
	// a much shallower entry must not displace it
	tt.Update(key, 2, -100, boundUpper, MoveEmpty, 0, 0)

	var entry, ok = tt.Read(key)
	if !ok {
		t.Fatal("entry lost")
	}
	if int(entry.depth) != 12 || int(entry.value) != 100 {
		t.Errorf("shallow overwrite happened: %+v", entry)
	}
}

func TestCanReturnTT(t *testing.T) {
	var entry = transEntry{value: 150, depth: 8, bound: boundLower}

	// deep enough lower bound above beta cuts
	if !canReturnTT(&entry, 6, 100, 3) {
		t.Error("lower bound cut rejected")
	}
	// beta above the bound: no cut
	if canReturnTT(&entry, 6, 200, 3) {
		t.Error("cut above the bound")
	}
	// insufficient depth: no cut
	if canReturnTT(&entry, 12, 100, 3) {
		t.Error("cut from a shallow entry")
	}

	var upper = transEntry{value: -50, depth: 8, bound: boundUpper}
	if !canReturnTT(&upper, 6, 0, 3) {
		t.Error("upper bound cut rejected")
	}
	if canReturnTT(&upper, 6, -100, 3) {
		t.Error("upper bound cut below the bound")
	}

	// eval-only entries never cut
	var evalOnly = transEntry{value: valueNone, depth: depthNone, bound: boundNone}
	if canReturnTT(&evalOnly, 0, 0, 0) {
		t.Error("eval-only entry cut")
	}
}

func TestRefineEval(t *testing.T) {
	var lower = transEntry{value: 300, depth: 4, bound: boundLower}
	if got := refineEval(&lower, 100, 0); got != 300 {
		t.Errorf("lower refine: got %v", got)
	}
	if got := refineEval(&lower, 400, 0); got != 400 {
		t.Errorf("lower refine against direction: got %v", got)
	}
	var upper = transEntry{value: -300, depth: 4, bound: boundUpper}
	if got := refineEval(&upper, 100, 0); got != -300 {
		t.Errorf("upper refine: got %v", got)
	}
}
