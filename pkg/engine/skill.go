package engine

import (
	"math/rand"
	"time"

	. "github.com/meridian-engine/meridian/pkg/common"
)

// skillPick chooses a sub-optimal move among the multi-PV candidates. Each
// move's score gets a deterministic handicap term plus a random one, both
// shrinking as the skill level rises; the move with the highest perturbed
// score is played. Crazy blunders stay off the menu: the scan stops at the
// first gap wider than the easy-move margin.
func (e *Engine) skillPick() (best, ponder Move) {
	e.rootMu.Lock()
	defer e.rootMu.Unlock()

	var size = Min(Max(e.MultiPV, 4), len(e.rootMoves))
	if size == 0 {
		return MoveEmpty, MoveEmpty
	}

	var seed = e.SkillSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	var rnd = rand.New(rand.NewSource(seed))

	var topScore = e.rootMoves[0].score
	var variance = Min(topScore-e.rootMoves[size-1].score, pieceValueMidgame[Pawn])
	var weakness = 120 - 2*e.SkillLevel

	var maxScore = -valueInfinity
	for i := 0; i < size; i++ {
		var s = e.rootMoves[i].score

		if i > 0 && e.rootMoves[i-1].score > s+easyMoveMargin {
			break
		}

		s += ((topScore-s)*weakness + variance*(rnd.Intn(weakness))) / 128

		if s > maxScore {
			maxScore = s
			best = e.rootMoves[i].move
			ponder = MoveEmpty
			if len(e.rootMoves[i].pv) > 1 {
				ponder = e.rootMoves[i].pv[1]
			}
		}
	}
	return best, ponder
}
