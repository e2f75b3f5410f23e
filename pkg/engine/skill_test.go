package engine

import (
	"testing"

	. "github.com/meridian-engine/meridian/pkg/common"
)

func fabricatedRootMoves() []rootMove {
	var moves = []string{"e2e4", "d2d4", "g1f3", "c2c4"}
	var p, _ = NewPositionFromFEN(InitialPositionFen)
	var result []rootMove
	var scores = []int{60, 45, 40, 10}
	for i, lan := range moves {
		var m = p.ParseMoveLAN(lan)
		result = append(result, rootMove{move: m, score: scores[i], pv: []Move{m}})
	}
	return result
}

func TestSkillPickDeterministic(t *testing.T) {
	var e = NewEngine()
	e.SkillLevel = 5
	e.SkillSeed = 42
	e.rootMoves = fabricatedRootMoves()

	var b1, p1 = e.skillPick()
	var b2, p2 = e.skillPick()
	if b1 != b2 || p1 != p2 {
		t.Errorf("same seed, different picks: %v/%v vs %v/%v", b1, p1, b2, p2)
	}
	if b1 == MoveEmpty {
		t.Error("no move picked")
	}
}

func TestSkillPickNoBlunder(t *testing.T) {
	var e = NewEngine()
	e.SkillLevel = 0
	e.SkillSeed = 7
	e.rootMoves = fabricatedRootMoves()
	// make every alternative a blunder
	for i := 1; i < len(e.rootMoves); i++ {
		e.rootMoves[i].score = e.rootMoves[0].score - easyMoveMargin - 100
	}

	var best, _ = e.skillPick()
	if best != e.rootMoves[0].move {
		t.Errorf("blunder picked: %v", best)
	}
}

func TestStableRootOrdering(t *testing.T) {
	var e = NewEngine()
	e.rootMoves = fabricatedRootMoves()
	// drop every score to -infinity except the third: the others must keep
	// their relative order, the third floats to the front
	var moves []Move
	for i := range e.rootMoves {
		moves = append(moves, e.rootMoves[i].move)
		if i != 2 {
			e.rootMoves[i].score = -valueInfinity
		}
	}
	e.sortRootMoves(0, len(e.rootMoves))

	if e.rootMoves[0].move != moves[2] {
		t.Fatalf("new best not first: %v", e.rootMoves[0].move)
	}
	var rest = []Move{e.rootMoves[1].move, e.rootMoves[2].move, e.rootMoves[3].move}
	var want = []Move{moves[0], moves[1], moves[3]}
	for i := range rest {
		if rest[i] != want[i] {
			t.Errorf("order not preserved: got %v, want %v", rest, want)
			break
		}
	}
}
