package engine

import (
	"sync/atomic"
	"time"

	"golang.org/x/exp/slices"

	. "github.com/meridian-engine/meridian/pkg/common"
)

func (e *Engine) genRootMoves(p *Position) []rootMove {
	var result []rootMove
	for _, m := range p.GenerateLegalMoves() {
		if len(e.limits.SearchMoves) > 0 {
			var listed = false
			for _, sm := range e.limits.SearchMoves {
				if sm == m {
					listed = true
					break
				}
			}
			if !listed {
				continue
			}
		}
		result = append(result, rootMove{
			move:      m,
			score:     -valueInfinity,
			prevScore: -valueInfinity,
			pv:        []Move{m},
		})
	}
	return result
}

// sortRootMoves re-sorts the tail of the root list by score. The sort must be
// stable: every move but the fresh PV carries -infinity, and their previous
// order has to survive so only the new best move floats to the front.
func (e *Engine) sortRootMoves(from, to int) {
	e.rootMu.Lock()
	slices.SortStableFunc(e.rootMoves[from:to], func(a, b rootMove) bool {
		return a.score > b.score
	})
	e.rootMu.Unlock()
}

func (e *Engine) rootMoveListed(move Move) bool {
	e.rootMu.Lock()
	defer e.rootMu.Unlock()
	for i := e.multiPVIdx; i < len(e.rootMoves); i++ {
		if e.rootMoves[i].move == move {
			return true
		}
	}
	return false
}

func (e *Engine) updateRootMove(pos *Position, move Move, value int,
	isPvMove, newBest bool, nodesBefore int64) {

	e.rootMu.Lock()
	defer e.rootMu.Unlock()

	var rm *rootMove
	for i := range e.rootMoves {
		if e.rootMoves[i].move == move {
			rm = &e.rootMoves[i]
			break
		}
	}
	if rm == nil {
		return
	}

	rm.nodes += e.nodesSearched() - nodesBefore

	if isPvMove || newBest {
		rm.score = value
		rm.pv = e.extractPVFromTT(pos, move)

		// how often the best move flips feeds time management
		if !isPvMove && e.MultiPV == 1 {
			e.bestMoveChanges++
		}
	} else {
		// all other moves sink; the stable sort keeps their relative order
		rm.score = -valueInfinity
	}
}

// extractPVFromTT rebuilds the line behind a root move from the cache; fail
// high entries are followed too so a ponder move is always available.
func (e *Engine) extractPVFromTT(pos *Position, move Move) []Move {
	var pv = []Move{move}
	var cur, child Position
	cur = *pos
	if !cur.MakeMove(move, &child) {
		return pv
	}
	cur = child

	var seen = map[uint64]bool{pos.Key: true}
	for ply := 1; ply < maxPly; ply++ {
		if ply >= 2 && (seen[cur.Key] || isDrawnByRule(&cur)) {
			break
		}
		seen[cur.Key] = true
		var tte, ok = e.transTable.Read(cur.Key)
		if !ok || tte.Move() == MoveEmpty {
			break
		}
		if !cur.MakeMove(tte.Move(), &child) {
			break
		}
		pv = append(pv, tte.Move())
		cur = child
	}
	return pv
}

// insertPVInTT writes a PV back into the cache so the next iteration searches
// it first even if the entries were overwritten meanwhile.
func (e *Engine) insertPVInTT(pos *Position, pv []Move) {
	var cur, child Position
	cur = *pos
	for _, m := range pv {
		var tte, ok = e.transTable.Read(cur.Key)
		if !ok || tte.Move() != m {
			var staticEval, evalMargin = valueNone, valueNone
			if !cur.IsCheck() {
				staticEval, evalMargin = evaluate(&cur)
			}
			e.transTable.Update(cur.Key, depthNone, valueNone, boundNone, m, staticEval, evalMargin)
		}
		if !cur.MakeMove(m, &child) {
			break
		}
		cur = child
	}
}

func (e *Engine) emitMultiPV(depth, alpha, beta, value int) {
	if e.progress == nil {
		return
	}
	e.rootMu.Lock()
	defer e.rootMu.Unlock()

	var nodes = e.nodesSearched()
	if e.ProgressMinNodes > 0 && nodes < int64(e.ProgressMinNodes) {
		return
	}
	var elapsed = time.Since(e.start)
	for i := 0; i < Min(e.uciMultiPV, len(e.rootMoves)); i++ {
		var updated = i <= e.multiPVIdx
		if depth == 1 && !updated {
			continue
		}
		var d = depth
		var s = e.rootMoves[i].score
		if !updated {
			d = depth - 1
			s = e.rootMoves[i].prevScore
		}
		var bound = BoundNone
		if i == e.multiPVIdx {
			if s >= beta {
				bound = BoundLower
			} else if s <= alpha {
				bound = BoundUpper
			}
		}
		var si = SearchInfo{
			Depth:    d,
			SelDepth: e.selDepth(),
			MultiPV:  i + 1,
			Score:    newUciScore(s),
			Bound:    bound,
			Nodes:    nodes,
			Time:     elapsed,
			MainLine: e.rootMoves[i].pv,
		}
		if len(e.rootMoves[i].pv) > 1 {
			si.PonderMove = e.rootMoves[i].pv[1]
		}
		e.progress(si)
	}
}

// iterativeDeepening runs the aspiration-windowed multi-PV loop on the
// primary worker until time, depth or the GUI stops it.
func (e *Engine) iterativeDeepening(w *worker) SearchInfo {
	var p = &w.stack[0].position

	e.rootMoves = e.genRootMoves(p)
	e.uciMultiPV = Max(1, e.MultiPV)
	e.skillEnabled = e.SkillLevel < 20
	var multiPV = e.uciMultiPV
	if e.skillEnabled {
		multiPV = Max(multiPV, 4)
	}
	e.multiPVIdx = 0
	for i := range e.bestValues {
		e.bestValues[i] = 0
	}

	// mate or stalemate at the root
	if len(e.rootMoves) == 0 {
		var score = valueDraw
		if p.IsCheck() {
			score = -valueMate
		}
		var si = SearchInfo{Score: newUciScore(score)}
		if e.progress != nil {
			e.progress(si)
		}
		return si
	}

	for _, worker := range e.workers {
		for h := range worker.stack {
			worker.stack[h].killers = [2]Move{}
			worker.stack[h].currentMove = MoveEmpty
			worker.stack[h].excludedMove = MoveEmpty
			worker.stack[h].skipNullMove = false
			worker.stack[h].reduction = 0
		}
	}

	var skillBest, skillPonder Move
	var easyMove Move
	var bestMoveChangesByDepth [maxPly + 4]int
	var value int
	var aspirationDelta int
	var completed = 1

	for depth := 1; depth <= maxPly && !e.isStopped() &&
		!(e.limits.Depth > 0 && depth > e.limits.Depth); depth++ {

		for i := range e.rootMoves {
			e.rootMoves[i].prevScore = e.rootMoves[i].score
		}
		e.bestMoveChanges = 0

		for e.multiPVIdx = 0; e.multiPVIdx < Min(multiPV, len(e.rootMoves)); e.multiPVIdx++ {
			var alpha, beta int
			if depth >= 5 && absInt(e.rootMoves[e.multiPVIdx].prevScore) < valueKnownWin {
				var prevDelta1 = e.bestValues[depth-1] - e.bestValues[depth-2]
				var prevDelta2 = e.bestValues[depth-2] - e.bestValues[depth-3]

				aspirationDelta = Min(Max(absInt(prevDelta1)+absInt(prevDelta2)/2, 16), 24)
				aspirationDelta = (aspirationDelta + 7) / 8 * 8

				alpha = Max(e.rootMoves[e.multiPVIdx].prevScore-aspirationDelta, -valueInfinity)
				beta = Min(e.rootMoves[e.multiPVIdx].prevScore+aspirationDelta, valueInfinity)
			} else {
				alpha = -valueInfinity
				beta = valueInfinity
			}

			// widen on fail high/low until the score is inside the window
			for {
				value = w.search(nodeRoot, 0, alpha, beta, depth*onePly, nil)

				e.sortRootMoves(e.multiPVIdx, len(e.rootMoves))

				// on an exact score reorder the searched PV lines too
				if e.multiPVIdx > 0 && value > alpha && value < beta {
					e.sortRootMoves(0, e.multiPVIdx)
				}

				for i := 0; i <= e.multiPVIdx; i++ {
					e.insertPVInTT(p, e.rootMoves[i].pv)
				}

				if e.isStopped() {
					break
				}

				if (value > alpha && value < beta) || time.Since(e.start) > 2*time.Second {
					e.emitMultiPV(depth, alpha, beta, value)
				}

				if value >= beta {
					beta = Min(beta+aspirationDelta, valueInfinity)
					aspirationDelta += aspirationDelta / 2
				} else if value <= alpha {
					atomic.StoreInt32(&e.aspirationFailLow, 1)
					atomic.StoreInt32(&e.stopOnPonderhit, 0)

					alpha = Max(alpha-aspirationDelta, -valueInfinity)
					aspirationDelta += aspirationDelta / 2
				} else {
					break
				}

				if absInt(value) >= valueKnownWin {
					break
				}
			}
		}

		var bestMove = e.rootMoves[0].move
		e.bestValues[depth] = value
		if !e.isStopped() || depth == 1 {
			completed = depth
		}
		bestMoveChangesByDepth[depth] = e.bestMoveChanges

		if e.skillEnabled && depth == 1+e.SkillLevel {
			skillBest, skillPonder = e.skillPick()
		}

		// a move far ahead of the rest at depth 1 is an easy move candidate;
		// it is dropped as soon as it stops being best
		if depth == 1 && (len(e.rootMoves) == 1 ||
			e.rootMoves[0].score > e.rootMoves[1].score+easyMoveMargin) {
			easyMove = bestMove
		} else if bestMove != easyMove {
			easyMove = MoveEmpty
		}

		if !e.isStopped() && e.limits.UseTimeManagement() {
			var elapsed = time.Since(e.start)

			if depth >= 7 && easyMove == bestMove {
				var nodes = e.nodesSearched()
				var rmNodes = e.rootMoves[0].nodes
				if len(e.rootMoves) == 1 ||
					(rmNodes > nodes*85/100 && elapsed > e.timeManager.availableTime()/16) ||
					(rmNodes > nodes*98/100 && elapsed > e.timeManager.availableTime()/32) {
					atomic.StoreInt32(&e.stopRequest, 1)
				}
			}

			if depth > 4 && depth < 50 {
				e.timeManager.pvInstability(bestMoveChangesByDepth[depth], bestMoveChangesByDepth[depth-1])
			}

			// most of the budget gone: the next iteration would not finish
			if elapsed > e.timeManager.availableTime()*62/100 {
				atomic.StoreInt32(&e.stopRequest, 1)
			}

			if e.isStopped() && e.isPondering() {
				atomic.StoreInt32(&e.stopRequest, 0)
				atomic.StoreInt32(&e.stopOnPonderhit, 1)
			}
		}
	}

	var best = e.rootMoves[0]
	var score = best.score
	if score == -valueInfinity {
		score = best.prevScore
	}

	var result = SearchInfo{
		Depth:    completed,
		SelDepth: e.selDepth(),
		MultiPV:  1,
		Score:    newUciScore(score),
		MainLine: best.pv,
	}
	if len(best.pv) > 1 {
		result.PonderMove = best.pv[1]
	}

	if e.skillEnabled {
		if skillBest == MoveEmpty {
			skillBest, skillPonder = e.skillPick()
		}
		result.MainLine = []Move{skillBest}
		result.PonderMove = skillPonder
		if skillPonder != MoveEmpty {
			result.MainLine = append(result.MainLine, skillPonder)
		}
	}

	return result
}
