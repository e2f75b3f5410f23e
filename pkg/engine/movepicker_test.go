package engine

import (
	"testing"

	. "github.com/meridian-engine/meridian/pkg/common"
)

func collectMoves(mp *movePicker) []Move {
	var result []Move
	for {
		var m = mp.Next()
		if m == MoveEmpty {
			return result
		}
		result = append(result, m)
	}
}

func TestMovePickerStages(t *testing.T) {
	// Rxd5 loses the rook to exd5; g2g3 is an arbitrary hash move
	var p, err = NewPositionFromFEN("6k1/4pppp/4p3/3p4/8/8/5PPP/3R2K1 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	var e = NewEngine()
	e.Prepare()
	var w = e.workers[0]
	w.stack[0].position = p

	var ttMove = p.ParseMoveLAN("g2g3")
	var mp = movePicker{worker: w, height: 0, ttMove: ttMove}
	var moves = collectMoves(&mp)

	if len(moves) == 0 {
		t.Fatal("no moves")
	}
	if moves[0] != ttMove {
		t.Errorf("hash move not first: got %v", moves[0])
	}

	var badCapture = p.ParseMoveLAN("d1d5")
	if moves[len(moves)-1] != badCapture {
		t.Errorf("losing capture not last: got %v", moves[len(moves)-1])
	}

	// no duplicates, all pseudo-legal moves present exactly once
	var seen = map[Move]int{}
	for _, m := range moves {
		seen[m]++
	}
	for m, n := range seen {
		if n != 1 {
			t.Errorf("move %v yielded %v times", m, n)
		}
	}
	var buffer [MaxMoves]OrderedMove
	if want := len(p.GenerateMoves(buffer[:])); len(moves) != want {
		t.Errorf("yielded %v of %v moves", len(moves), want)
	}
}

func TestMovePickerGoodCapturesBeforeQuiets(t *testing.T) {
	// Rxa5 wins a clean pawn and must come before every quiet move
	var p, err = NewPositionFromFEN("6k1/5ppp/8/p7/8/8/5PPP/R5K1 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	var e = NewEngine()
	e.Prepare()
	var w = e.workers[0]
	w.stack[0].position = p

	var mp = movePicker{worker: w, height: 0}
	var moves = collectMoves(&mp)

	var capture = p.ParseMoveLAN("a1a5")
	for i, m := range moves {
		if m == capture {
			if i != 0 {
				t.Errorf("winning capture at index %v", i)
			}
			break
		}
	}
}

func TestQSPickerTacticalOnly(t *testing.T) {
	var p, err = NewPositionFromFEN("6k1/5ppp/8/p7/8/8/5PPP/R5K1 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	var e = NewEngine()
	e.Prepare()
	var w = e.workers[0]
	w.stack[0].position = p

	var mp = movePickerQS{worker: w, height: 0, genChecks: false}
	for {
		var m = mp.Next()
		if m == MoveEmpty {
			break
		}
		if !isCaptureOrPromotion(m) {
			t.Errorf("quiet move %v from quiescence picker", m)
		}
	}
}
