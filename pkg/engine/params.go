package engine

import (
	"math"

	. "github.com/meridian-engine/meridian/pkg/common"
)

// Piece values on the evaluation scale. Score/centipawn conversion divides by
// the midgame pawn value.
var pieceValueMidgame = [King + 1]int{
	Pawn: pawnValueMidgame, Knight: 817, Bishop: 836, Rook: 1270, Queen: 2521,
}

var pieceValueEndgame = [King + 1]int{
	Pawn: 258, Knight: 846, Bishop: 857, Rook: 1278, Queen: 2558,
}

const (
	razorDepth        = 4 * onePly
	threatDepth       = 5 * onePly
	iidMargin         = 256
	easyMoveMargin    = 512
	futilityMarginQS  = 128
	probCutMargin     = 200
	maxSplitPoints    = 8
	maxSearchThreads  = 32
	maxSlavesPerSplit = 4
)

// Extensions, indexed by PvNode.
var (
	checkExtension       = [2]int{onePly / 2, onePly}
	pawnEndgameExtension = [2]int{onePly, onePly}
	pawnPushTo7Extension = [2]int{onePly / 2, onePly / 2}
	passedPawnExtension  = [2]int{0, onePly / 2}
	singularExtDepth     = [2]int{8 * onePly, 6 * onePly}
	iidDepth             = [2]int{8 * onePly, 5 * onePly}
)

var (
	reductions         [2][64][64]int8 // [pv][depth/onePly][moveNumber]
	futilityMargins    [16][64]int     // [depth][moveNumber]
	futilityMoveCounts [32]int         // [depth]
)

func razorMargin(depth int) int {
	return 0x200 + 0x10*depth
}

func futilityMargin(depth, moveNumber int) int {
	if depth < 7*onePly {
		return futilityMargins[Max(depth, 1)][Min(moveNumber, 63)]
	}
	return 2 * valueInfinity
}

func futilityMoveCount(depth int) int {
	if depth < 16*onePly {
		return futilityMoveCounts[depth]
	}
	return MaxMoves
}

func reduction(pvNode bool, depth, moveNumber int) int {
	var pv = 0
	if pvNode {
		pv = 1
	}
	return int(reductions[pv][Min(depth/onePly, 63)][Min(moveNumber, 63)])
}

func init() {
	for hd := 1; hd < 64; hd++ {
		for mc := 1; mc < 64; mc++ {
			var pvRed = math.Log(float64(hd)) * math.Log(float64(mc)) / 3.0
			var nonPVRed = 0.33 + math.Log(float64(hd))*math.Log(float64(mc))/2.25
			if pvRed >= 1.0 {
				reductions[1][hd][mc] = int8(math.Floor(pvRed * onePly))
			}
			if nonPVRed >= 1.0 {
				reductions[0][hd][mc] = int8(math.Floor(nonPVRed * onePly))
			}
		}
	}

	for d := 1; d < 16; d++ {
		for mc := 0; mc < 64; mc++ {
			futilityMargins[d][mc] = 112*int(math.Log(float64(d*d)/2)/math.Log(2.0)+1.001) - 8*mc + 45
		}
	}

	for d := 0; d < 32; d++ {
		futilityMoveCounts[d] = int(3.001 + 0.25*math.Pow(float64(d), 2.0))
	}
}
