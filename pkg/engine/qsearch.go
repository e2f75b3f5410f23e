package engine

import (
	"sync/atomic"

	. "github.com/meridian-engine/meridian/pkg/common"
)

// qsearch resolves captures and checks below the horizon so the static
// evaluation is only trusted in quiet positions. No null move, no reductions
// and no splits down here.
func (w *worker) qsearch(nt, height, alpha, beta, depth int) int {
	var e = w.engine
	var pvNode = nt == nodePV

	var frame = &w.stack[height]
	var pos = &frame.position
	var oldAlpha = alpha

	frame.currentMove = MoveEmpty
	frame.bestMove = MoveEmpty

	if pvNode && atomic.LoadInt32(&w.maxPly) < int32(height) {
		atomic.StoreInt32(&w.maxPly, int32(height))
	}

	// repetition detection is skipped below the horizon
	if e.isStopped() || isDrawnByRule(pos) || height > maxPly {
		return valueDraw
	}

	// the cache distinguishes only two depth classes down here
	var inCheck = pos.IsCheck()
	var ttDepth int
	if inCheck || depth >= depthQSChecks {
		ttDepth = depthQSChecks
	} else {
		ttDepth = depthQSNoChecks
	}

	var tte, ttHit = e.transTable.Read(pos.Key)
	var ttMove Move
	if ttHit {
		ttMove = tte.Move()
	}

	if !pvNode && ttHit && canReturnTT(&tte, ttDepth, beta, height) {
		frame.bestMove = ttMove
		return valueFromTT(int(tte.value), height)
	}

	var bestValue, futilityBase int
	var evalMargin = valueNone
	var enoughMaterial bool

	if inCheck {
		bestValue = -valueInfinity
		futilityBase = -valueInfinity
		frame.eval = valueNone
		enoughMaterial = false
	} else {
		if ttHit {
			frame.eval = int(tte.staticEval)
			evalMargin = int(tte.evalMargin)
			bestValue = frame.eval
		} else {
			frame.eval, evalMargin = evaluate(pos)
			bestValue = frame.eval
		}

		// stand pat
		if bestValue >= beta {
			if !ttHit {
				e.transTable.Update(pos.Key, depthNone, valueToTT(bestValue, height),
					boundLower, MoveEmpty, frame.eval, evalMargin)
			}
			return bestValue
		}

		if pvNode && bestValue > alpha {
			alpha = bestValue
		}

		futilityBase = frame.eval + evalMargin + futilityMarginQS
		enoughMaterial = nonPawnMaterialValue(pos, pos.WhiteMove) > pieceValueMidgame[Rook]
	}

	var mp = movePickerQS{
		worker:    w,
		height:    height,
		genChecks: depth >= depthQSChecks,
	}
	var child = &w.stack[height+1]

	for bestValue < beta {
		var move = mp.Next()
		if move == MoveEmpty {
			break
		}

		var givesCheck = moveGivesCheck(pos, move)

		// futility pruning with the victim's value
		if !pvNode && !inCheck && !givesCheck &&
			move != ttMove &&
			enoughMaterial &&
			move.Promotion() == Empty &&
			!isPassedPawnPush(pos, move) {

			var futilityValue = futilityBase + pieceValueEndgame[move.CapturedPiece()]
			if move.MovingPiece() == Pawn && move.CapturedPiece() == Pawn && move.To() == pos.EpSquare {
				futilityValue += pieceValueEndgame[Pawn]
			}

			if futilityValue < beta {
				if futilityValue > bestValue {
					bestValue = futilityValue
				}
				continue
			}

			// prune moves with negative or equal SEE
			if futilityBase < beta && depth < 0 && !SeeGE(pos, move, 1) {
				continue
			}
		}

		// non-capture check evasions are candidates for pruning too
		var evasionPrunable = !pvNode && inCheck &&
			bestValue > valueMatedInMax &&
			move.CapturedPiece() == Empty &&
			!canCastle(pos, pos.WhiteMove)

		if !pvNode && (!inCheck || evasionPrunable) &&
			move != ttMove &&
			move.Promotion() == Empty &&
			!seeSignGE(pos, move) {
			continue
		}

		// quiet checks that create no real threat are not worth a node
		if !pvNode && !inCheck && givesCheck &&
			move != ttMove &&
			!isCaptureOrPromotion(move) &&
			frame.eval+pieceValueMidgame[Pawn]/4 < beta &&
			!checkIsDangerous(pos, move, futilityBase, beta, &bestValue) {
			if frame.eval+pieceValueMidgame[Pawn]/4 > bestValue {
				bestValue = frame.eval + pieceValueMidgame[Pawn]/4
			}
			continue
		}

		if !pos.MakeMove(move, &child.position) {
			continue
		}

		frame.currentMove = move
		w.incNodes()

		var value = -w.qsearch(nt, height+1, -beta, -alpha, depth-onePly)

		if value > bestValue {
			bestValue = value
			frame.bestMove = move

			if pvNode && value > alpha && value < beta {
				alpha = value
			}
		}
	}

	// no evasion found: checkmate
	if inCheck && bestValue == -valueInfinity {
		return matedIn(height)
	}

	if !e.isStopped() {
		var move = MoveEmpty
		if bestValue > oldAlpha {
			move = frame.bestMove
		}
		var bound int
		if bestValue <= oldAlpha {
			bound = boundUpper
		} else if bestValue >= beta {
			bound = boundLower
		} else {
			bound = boundExact
		}
		e.transTable.Update(pos.Key, ttDepth, valueToTT(bestValue, height), bound, move,
			frame.eval, evalMargin)
	}

	return bestValue
}

func nonPawnMaterialValue(p *Position, side bool) int {
	var own = p.PiecesByColor(side)
	return PopCount(p.Knights&own)*pieceValueMidgame[Knight] +
		PopCount(p.Bishops&own)*pieceValueMidgame[Bishop] +
		PopCount(p.Rooks&own)*pieceValueMidgame[Rook] +
		PopCount(p.Queens&own)*pieceValueMidgame[Queen]
}

func canCastle(p *Position, side bool) bool {
	if side {
		return p.CastleRights&(WhiteKingSide|WhiteQueenSide) != 0
	}
	return p.CastleRights&(BlackKingSide|BlackQueenSide) != 0
}

// checkIsDangerous keeps a quiet check in quiescence when it traps the king,
// is a queen contact check, or forks new victims with enough upside to beat
// beta. bestValue is raised only when the move will be pruned.
func checkIsDangerous(pos *Position, move Move, futilityBase, beta int, bestValue *int) bool {
	var from = move.From()
	var to = move.To()
	var us = pos.WhiteMove
	var them = pos.PiecesByColor(!us)
	var ksq = FirstOne(pos.Kings & them)
	var kingAtt = KingAttacks[ksq]
	var piece = move.MovingPiece()

	var occ = pos.AllPieces() &^ SquareMask[from] &^ SquareMask[ksq]
	var oldAtt = pieceAttacks(piece, from, us, occ)
	var newAtt = pieceAttacks(piece, to, us, occ)

	// checks leaving at most one escape square are dangerous
	var b = kingAtt &^ them &^ newAtt &^ SquareMask[to]
	if !MoreThanOne(b) {
		return true
	}

	// queen contact checks are very dangerous
	if piece == Queen && kingAtt&SquareMask[to] != 0 {
		return true
	}

	// double threats created by the checking move
	b = them & newAtt &^ oldAtt &^ SquareMask[ksq]
	var bv = *bestValue
	for ; b != 0; b &= b - 1 {
		var victimSq = FirstOne(b)
		var futilityValue = futilityBase + pieceValueEndgame[pos.WhatPiece(victimSq)]

		// the victim only counts if grabbing it would not lose material
		if futilityValue >= beta &&
			SeeGE(pos, Move(from^(victimSq<<6)^(piece<<12)^(pos.WhatPiece(victimSq)<<15)), 0) {
			return true
		}

		if futilityValue > bv {
			bv = futilityValue
		}
	}

	*bestValue = bv
	return false
}
