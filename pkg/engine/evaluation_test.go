package engine

import (
	"testing"

	. "github.com/meridian-engine/meridian/pkg/common"
)

var evalFENs = []string{
	InitialPositionFen,
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	"r4rk1/1pp1qppp/p1np1n2/2b1p1B1/2B1P1b1/P1NP1N2/1PP1QPPP/R4RK1 w - - 0 10",
	"8/k7/3p4/p2P1p2/P2P1P2/8/8/K7 w - - 0 1",
	"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
	"2rqkb1r/p1pnpppp/3p3n/3B4/2BPP3/1QP5/PP3PPP/RN2K1NR w KQk - 0 1",
	"6k1/Qp1r1pp1/p1rP3p/P3q3/2Bnb1P1/1P3PNP/4p1K1/R1R5 b - - 0 1",
}

func TestEvalSymmetry(t *testing.T) {
	for _, fen := range evalFENs {
		var p, err = NewPositionFromFEN(fen)
		if err != nil {
			t.Fatal(err)
		}
		var v1, m1 = evaluate(&p)
		var mirror = MirrorPosition(&p)
		var v2, m2 = evaluate(&mirror)
		if v1 != v2 || m1 != m2 {
			t.Errorf("%v: eval %v margin %v, mirrored %v margin %v",
				fen, v1, m1, v2, m2)
		}
	}
}

func TestEvalMaterialSign(t *testing.T) {
	// white up a queen
	var p, _ = NewPositionFromFEN("3qk3/8/8/8/8/8/8/QQ2K3 w - - 0 1")
	if v, _ := evaluate(&p); v <= 0 {
		t.Errorf("queen up but eval %v", v)
	}
	// same position from black's perspective
	var q, _ = NewPositionFromFEN("3qk3/8/8/8/8/8/8/QQ2K3 b - - 0 1")
	if v, _ := evaluate(&q); v >= 0 {
		t.Errorf("queen down but eval %v", v)
	}
}

func TestEvalMarginBounded(t *testing.T) {
	for _, fen := range evalFENs {
		var p, _ = NewPositionFromFEN(fen)
		var _, margin = evaluate(&p)
		if margin < 0 || margin > 2*pawnValueMidgame {
			t.Errorf("%v: margin %v out of range", fen, margin)
		}
	}
}
