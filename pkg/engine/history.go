package engine

import (
	"sync/atomic"

	. "github.com/meridian-engine/meridian/pkg/common"
)

const historyMax = 1 << 14

// historyTable is shared by every worker. Updates race benignly: a lost or
// stale increment only perturbs move ordering.
type historyTable struct {
	scores [2 * 64 * 64]int32 // side-from-to
	gains  [2 * 7 * 64]int32  // side-piece-to
}

func (h *historyTable) Clear() {
	for i := range h.scores {
		atomic.StoreInt32(&h.scores[i], 0)
	}
	for i := range h.gains {
		atomic.StoreInt32(&h.gains[i], 0)
	}
}

func sideFromToIndex(side bool, move Move) int {
	var result = (move.From() << 6) | move.To()
	if side {
		result |= 1 << 12
	}
	return result
}

func sidePieceToIndex(side bool, piece, to int) int {
	var result = (piece << 6) | to
	if side {
		result += 7 * 64
	}
	return result
}

func (h *historyTable) Score(side bool, move Move) int {
	return int(atomic.LoadInt32(&h.scores[sideFromToIndex(side, move)]))
}

func (h *historyTable) update(side bool, move Move, bonus int) {
	var idx = sideFromToIndex(side, move)
	var v = atomic.LoadInt32(&h.scores[idx]) + int32(bonus)
	if v > historyMax {
		v = historyMax
	} else if v < -historyMax {
		v = -historyMax
	}
	atomic.StoreInt32(&h.scores[idx], v)
}

// Success registers a beta cutoff for move and penalizes the quiet moves
// searched before it at the same node.
func (h *historyTable) Success(side bool, move Move, depth int, searched []Move) {
	var bonus = depth * depth / (onePly * onePly)
	h.update(side, move, bonus)
	for _, m := range searched {
		if m != move {
			h.update(side, m, -bonus)
		}
	}
}

// Gain tracks how much a quiet move tends to raise the static evaluation,
// keyed by the arriving piece and its destination.
func (h *historyTable) Gain(side bool, piece, to int) int {
	return int(atomic.LoadInt32(&h.gains[sidePieceToIndex(side, piece, to)]))
}

func (h *historyTable) UpdateGain(side bool, piece, to, gain int) {
	var idx = sidePieceToIndex(side, piece, to)
	var old = atomic.LoadInt32(&h.gains[idx])
	if int32(gain) >= old {
		atomic.StoreInt32(&h.gains[idx], int32(gain))
	} else {
		atomic.StoreInt32(&h.gains[idx], old-1)
	}
}
