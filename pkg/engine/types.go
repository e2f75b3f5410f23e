package engine

import (
	. "github.com/meridian-engine/meridian/pkg/common"
)

// Depth is counted in half-ply units so checks and pawn pushes can extend by
// half a ply at non-PV nodes.
const (
	onePly          = 2
	maxPly          = 100
	stackSize       = maxPly + 4
	depthQSChecks   = 0
	depthQSNoChecks = -onePly
	depthNone       = -127
)

const (
	valueDraw         = 0
	valueMate         = 30000
	valueInfinity     = valueMate + 1
	valueNone         = valueMate + 2
	valueKnownWin     = 15000
	valueMateInMaxPly = valueMate - maxPly
	valueMatedInMax   = -valueMateInMaxPly
)

const pawnValueMidgame = 198

const (
	boundNone  = 0
	boundLower = 1
	boundUpper = 2
	boundExact = boundLower | boundUpper
)

// Node kinds. A split-point continuation is expressed by a non-nil split
// point argument, not a separate kind.
const (
	nodeNonPV = iota
	nodePV
	nodeRoot
)

func mateIn(ply int) int {
	return valueMate - ply
}

func matedIn(ply int) int {
	return -valueMate + ply
}

// valueToTT converts "mate from the root" scores into "mate from this node"
// before a store; valueFromTT is the inverse on load.
func valueToTT(v, ply int) int {
	if v >= valueMateInMaxPly {
		return v + ply
	}
	if v <= valueMatedInMax {
		return v - ply
	}
	return v
}

func valueFromTT(v, ply int) int {
	if v >= valueMateInMaxPly {
		return v - ply
	}
	if v <= valueMatedInMax {
		return v + ply
	}
	return v
}

// canReturnTT reports whether a cached score is usable as a cutoff at the
// given remaining depth and window.
func canReturnTT(entry *transEntry, depth, beta, ply int) bool {
	var v = valueFromTT(int(entry.value), ply)

	return (int(entry.depth) >= depth ||
		v >= Max(valueMateInMaxPly, beta) ||
		v < Min(valueMatedInMax, beta)) &&
		((entry.bound&boundLower) != 0 && v >= beta ||
			(entry.bound&boundUpper) != 0 && v < beta)
}

// refineEval trusts the cached score over the static eval when its bound
// points in the same direction.
func refineEval(entry *transEntry, defaultEval, ply int) int {
	var v = valueFromTT(int(entry.value), ply)

	if (entry.bound&boundLower) != 0 && v >= defaultEval ||
		(entry.bound&boundUpper) != 0 && v < defaultEval {
		return v
	}
	return defaultEval
}

func newUciScore(v int) UciScore {
	if v >= valueMateInMaxPly {
		return UciScore{Mate: (valueMate - v + 1) / 2}
	} else if v <= valueMatedInMax {
		return UciScore{Mate: (-valueMate - v) / 2}
	}
	return UciScore{Centipawns: v * 100 / pawnValueMidgame}
}
