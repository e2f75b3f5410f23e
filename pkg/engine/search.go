package engine

import (
	"sync/atomic"
	"time"

	. "github.com/meridian-engine/meridian/pkg/common"
)

// extension decides whether move deserves extra depth. Moves that are not
// extended can still come back marked dangerous, which shields them from
// futility pruning.
func extension(p *Position, move Move, pvNode, captureOrPromotion, givesCheck bool) (ext int, dangerous bool) {
	var pv = boolToInt(pvNode)
	dangerous = givesCheck

	if givesCheck && seeSignGE(p, move) {
		ext += checkExtension[pv]
	}

	if move.MovingPiece() == Pawn {
		if isPawnPushTo7th(move, p.WhiteMove) {
			ext += pawnPushTo7Extension[pv]
			dangerous = true
		}
		if isPassedPawnPush(p, move) {
			ext += passedPawnExtension[pv]
			dangerous = true
		}
	}

	if captureOrPromotion && isPawnEndgameCapture(p, move) {
		ext += pawnEndgameExtension[pv]
		dangerous = true
	}

	return Min(ext, onePly), dangerous
}

// search is the negamax core for Root, PV and NonPV nodes, plain or as a
// split-point continuation. A continuation (sp != nil) starts directly at the
// move loop: the probing, null search and first moves happened before the
// node was split.
func (w *worker) search(nt, height, alpha, beta, depth int, sp *splitPoint) int {
	if depth < onePly {
		if nt == nodeRoot {
			nt = nodePV
		}
		return w.qsearch(nt, height, alpha, beta, 0)
	}

	var e = w.engine
	var pvNode = nt >= nodePV
	var rootNode = nt == nodeRoot
	var spNode = sp != nil

	var frame = &w.stack[height]
	var pos = &frame.position
	var inCheck = pos.IsCheck()

	var (
		bestValue         = -valueInfinity
		refinedValue      = -valueInfinity
		oldAlpha          = alpha
		moveCount         = 0
		playedQuiets      = 0
		threatMove        Move
		excludedMove      Move
		ttMove            Move
		tte               transEntry
		ttHit             bool
		posKey            uint64
		futilityBase      int
		singularExtNode   bool
		mp                *movePicker
		spStartNodes      int64
		value             int
	)

	if pvNode && atomic.LoadInt32(&w.maxPly) < int32(height) {
		atomic.StoreInt32(&w.maxPly, int32(height))
	}

	if spNode {
		threatMove = sp.threatMove
		spStartNodes = atomic.LoadInt64(&w.nodes)
		goto splitPointStart
	}

	// Step 1. Initialize node and poll
	frame.currentMove = MoveEmpty
	frame.bestMove = MoveEmpty
	w.stack[height+1].excludedMove = MoveEmpty
	w.stack[height+1].skipNullMove = false
	w.stack[height+1].reduction = 0
	w.stack[height+2].killers = [2]Move{}

	// Step 2. Aborted search and immediate draw
	if !rootNode {
		if e.isStopped() || height > maxPly || w.isDraw(height) {
			return valueDraw
		}

		// Step 3. Mate distance pruning
		alpha = Max(matedIn(height), alpha)
		beta = Min(mateIn(height+1), beta)
		if alpha >= beta {
			return alpha
		}
	}

	// Step 4. Transposition table lookup. An excluded move switches to the
	// exclusion key so the singular probe cannot overwrite the real entry.
	excludedMove = frame.excludedMove
	posKey = pos.Key
	if excludedMove != MoveEmpty {
		posKey ^= exclusionKey
	}
	tte, ttHit = e.transTable.Read(posKey)
	if rootNode {
		ttMove = e.rootMoves[e.multiPVIdx].move
	} else if ttHit {
		ttMove = tte.Move()
	}

	if !rootNode && ttHit {
		var returnable bool
		if pvNode {
			returnable = int(tte.depth) >= depth && tte.bound == boundExact
		} else {
			returnable = canReturnTT(&tte, depth, beta, height)
		}
		if returnable {
			var move = tte.Move()
			frame.bestMove = move
			value = valueFromTT(int(tte.value), height)

			if value >= beta && move != MoveEmpty &&
				!isCaptureOrPromotion(move) && move != frame.killers[0] {
				frame.killers[1] = frame.killers[0]
				frame.killers[0] = move
			}
			return value
		}
	}

	// Step 5. Static evaluation and gain statistics
	if inCheck {
		frame.eval = valueNone
		frame.evalMargin = valueNone
	} else if ttHit {
		frame.eval = int(tte.staticEval)
		frame.evalMargin = int(tte.evalMargin)
		refinedValue = refineEval(&tte, frame.eval, height)
	} else {
		frame.eval, frame.evalMargin = evaluate(pos)
		refinedValue = frame.eval
		e.transTable.Update(posKey, depthNone, valueNone, boundNone, MoveEmpty, frame.eval, frame.evalMargin)
	}

	if height > 0 {
		var prev = &w.stack[height-1]
		var parentMove = prev.currentMove
		if parentMove != MoveEmpty && parentMove != moveNull &&
			prev.eval != valueNone && frame.eval != valueNone &&
			pos.LastMove.CapturedPiece() == Empty &&
			!isSpecialMove(&prev.position, parentMove) {
			e.history.UpdateGain(prev.position.WhiteMove,
				parentMove.MovingPiece(), parentMove.To(),
				-prev.eval-frame.eval)
		}
	}

	// Step 6. Razoring (omitted in PV nodes)
	if !pvNode && depth < razorDepth && !inCheck &&
		refinedValue+razorMargin(depth) < beta &&
		ttMove == MoveEmpty &&
		absInt(beta) < valueMateInMaxPly &&
		!hasPawnOn7th(pos, pos.WhiteMove) {
		var rbeta = beta - razorMargin(depth)
		var v = w.qsearch(nodeNonPV, height, rbeta-1, rbeta, 0)
		if v < rbeta {
			// returning v + razorMargin(depth) is the logical choice but
			// tested weaker
			return v
		}
	}

	// Step 7. Static null move pruning (omitted in PV nodes)
	if !pvNode && !frame.skipNullMove && depth < razorDepth && !inCheck &&
		refinedValue-futilityMargin(depth, 0) >= beta &&
		absInt(beta) < valueMateInMaxPly &&
		nonPawnMaterial(pos, pos.WhiteMove) {
		return refinedValue - futilityMargin(depth, 0)
	}

	// Step 8. Null move search with verification (omitted in PV nodes)
	if !pvNode && !frame.skipNullMove && depth > onePly && !inCheck &&
		refinedValue >= beta &&
		absInt(beta) < valueMateInMaxPly &&
		nonPawnMaterial(pos, pos.WhiteMove) {

		frame.currentMove = moveNull

		// dynamic reduction based on depth and value
		var R = 3
		if depth >= 5*onePly {
			R += depth / 8
		}
		if refinedValue-pieceValueMidgame[Pawn] > beta {
			R++
		}

		var child = &w.stack[height+1]
		pos.MakeNullMove(&child.position)
		w.incNodes()
		child.skipNullMove = true
		var nullValue int
		if depth-R*onePly < onePly {
			nullValue = -w.qsearch(nodeNonPV, height+1, -beta, -alpha, 0)
		} else {
			nullValue = -w.search(nodeNonPV, height+1, -beta, -alpha, depth-R*onePly, nil)
		}
		child.skipNullMove = false

		if nullValue >= beta {
			// do not return unproven mate scores
			if nullValue >= valueMateInMaxPly {
				nullValue = beta
			}

			if depth < 6*onePly {
				return nullValue
			}

			// verification search at high depths
			frame.skipNullMove = true
			var v = w.search(nodeNonPV, height, alpha, beta, depth-R*onePly, nil)
			frame.skipNullMove = false

			if v >= beta {
				return nullValue
			}
		} else {
			// The null move failed low. If the refutation is connected to the
			// move that was reduced one ply up, fail low here to trigger a
			// full-depth re-search of that move.
			threatMove = child.bestMove

			if depth < threatDepth &&
				w.stack[height-1].reduction != 0 &&
				threatMove != MoveEmpty &&
				connectedMoves(pos, w.stack[height-1].currentMove, threatMove) {
				return beta - 1
			}
		}
	}

	// Step 9. ProbCut (omitted in PV nodes)
	if !pvNode && depth >= razorDepth+onePly && !inCheck &&
		!frame.skipNullMove &&
		excludedMove == MoveEmpty &&
		absInt(beta) < valueMateInMaxPly {

		var rbeta = beta + probCutMargin
		var rdepth = depth - onePly - 3*onePly

		var pc = movePickerProbCut{
			worker:    w,
			height:    height,
			ttMove:    ttMove,
			threshold: pieceValuesSEE[pos.LastMove.CapturedPiece()],
		}
		var child = &w.stack[height+1]
		for {
			var move = pc.Next()
			if move == MoveEmpty {
				break
			}
			if !pos.MakeMove(move, &child.position) {
				continue
			}
			frame.currentMove = move
			w.incNodes()
			value = -w.search(nodeNonPV, height+1, -rbeta, -rbeta+1, rdepth, nil)
			if value >= rbeta {
				return value
			}
		}
	}

	// Step 10. Internal iterative deepening
	if ttMove == MoveEmpty && depth >= iidDepth[boolToInt(pvNode)] &&
		(pvNode || (!inCheck && frame.eval+iidMargin >= beta)) {
		var d = depth / 2
		var childNT = nodeNonPV
		if pvNode {
			d = depth - 2*onePly
			childNT = nodePV
		}
		frame.skipNullMove = true
		w.search(childNT, height, alpha, beta, d, nil)
		frame.skipNullMove = false

		tte, ttHit = e.transTable.Read(posKey)
		if ttHit {
			ttMove = tte.Move()
		}
	}

splitPointStart: // a split continuation resumes here

	if spNode {
		mp = sp.mp
	} else {
		frame.mp = movePicker{
			worker:  w,
			height:  height,
			ttMove:  ttMove,
			killer1: frame.killers[0],
			killer2: frame.killers[1],
		}
		mp = &frame.mp
	}
	frame.bestMove = MoveEmpty
	futilityBase = frame.eval + frame.evalMargin
	singularExtNode = !rootNode && !spNode && ttHit &&
		depth >= singularExtDepth[boolToInt(pvNode)] &&
		ttMove != MoveEmpty &&
		excludedMove == MoveEmpty &&
		(tte.bound&boundLower) != 0 &&
		int(tte.depth) >= depth-3*onePly

	if spNode {
		sp.mu.Lock()
		bestValue = sp.bestValue
		alpha = sp.alpha
	}

	// Step 11. Loop through moves. At a split point the lock is held at the
	// top of every iteration: the shared picker, moveCount and bestValue are
	// only touched under it.
	for bestValue < beta && !w.cutoffOccurred() {
		var move = mp.Next()
		if move == MoveEmpty {
			break
		}

		if move == excludedMove {
			continue
		}

		// At the root obey searchmoves and skip already-searched PV lines
		if rootNode && !e.rootMoveListed(move) {
			continue
		}

		var child = &w.stack[height+1]
		var legalityDone = false

		// at PV and split nodes only legal moves are counted
		if pvNode || spNode {
			if !pos.MakeMove(move, &child.position) {
				continue
			}
			legalityDone = true
		}

		if spNode {
			sp.moveCount++
			moveCount = sp.moveCount
			sp.mu.Unlock()
		} else {
			moveCount++
		}

		var nodesBefore int64
		if rootNode {
			if moveCount == 1 {
				atomic.StoreInt32(&e.firstRootMove, 1)
			} else {
				atomic.StoreInt32(&e.firstRootMove, 0)
			}
			nodesBefore = e.nodesSearched()

			if w.index == 0 && e.CurrMove != nil &&
				time.Since(e.start) > 2*time.Second {
				e.CurrMove(depth/onePly, move, moveCount+e.multiPVIdx)
			}
		}

		// the first move of a PV node, or every root move of the first
		// iteration, gets the full window
		var isPvMove = pvNode && (moveCount == 1 || (rootNode && depth <= onePly))
		var givesCheck = moveGivesCheck(pos, move)
		var captureOrPromotion = isCaptureOrPromotion(move)

		// Step 12. Extensions
		ext, dangerous := extension(pos, move, pvNode, captureOrPromotion, givesCheck)

		// Singular extension: if every alternative fails well below the hash
		// move's score, the hash move is the only playable move and deserves
		// a full extra ply.
		if singularExtNode && move == ttMove && ext < onePly {
			if !legalityDone {
				var scratch Position
				legalityDone = pos.MakeMove(move, &scratch)
				if legalityDone {
					child.position = scratch
				}
			}
			if legalityDone {
				var ttValue = valueFromTT(int(tte.value), height)
				if absInt(ttValue) < valueKnownWin {
					var rBeta = ttValue - depth
					frame.excludedMove = move
					frame.skipNullMove = true
					var v = w.search(nodeNonPV, height, rBeta-1, rBeta, depth/2, nil)
					frame.skipNullMove = false
					frame.excludedMove = MoveEmpty
					frame.bestMove = MoveEmpty
					if v < rBeta {
						ext = onePly
					}
					// the probe reused the child frame
					legalityDone = false
				}
			}
		}

		var newDepth = depth - onePly + ext

		// Step 13. Futility pruning (omitted in PV nodes)
		if !pvNode && !captureOrPromotion && !inCheck && !dangerous &&
			move != ttMove && !IsCastleMove(move) {

			// move count based pruning; bestValue may be stale at a split
			// point, which can only delay this prune, never unsoundly cut
			if moveCount >= futilityMoveCount(depth) &&
				(threatMove == MoveEmpty || !connectedThreat(pos, move, threatMove)) &&
				bestValue > valueMatedInMax {
				if spNode {
					sp.mu.Lock()
					bestValue = sp.bestValue
					alpha = sp.alpha
				}
				continue
			}

			// value based pruning
			var predictedDepth = newDepth - reduction(pvNode, depth, moveCount)
			var futilityValue = futilityBase + futilityMargin(predictedDepth, moveCount) +
				e.history.Gain(pos.WhiteMove, move.MovingPiece(), move.To())

			if futilityValue < beta {
				if spNode {
					sp.mu.Lock()
					if futilityValue > sp.bestValue {
						sp.bestValue = futilityValue
					}
					bestValue = sp.bestValue
					alpha = sp.alpha
				} else if futilityValue > bestValue {
					bestValue = futilityValue
				}
				continue
			}

			// negative SEE pruning at low predicted depths
			if predictedDepth < 2*onePly &&
				bestValue > valueMatedInMax &&
				!seeSignGE(pos, move) {
				if spNode {
					sp.mu.Lock()
					bestValue = sp.bestValue
					alpha = sp.alpha
				}
				continue
			}
		}

		// Step 14. Make the move (legality is checked lazily here)
		if !legalityDone {
			if !pos.MakeMove(move, &child.position) {
				moveCount--
				if spNode {
					sp.mu.Lock()
					sp.moveCount--
					bestValue = sp.bestValue
					alpha = sp.alpha
				}
				continue
			}
		}

		frame.currentMove = move
		if !spNode && !captureOrPromotion {
			frame.moves[playedQuiets] = move
			playedQuiets++
		}
		w.incNodes()

		// Steps 15/16. PVS with late move reductions
		if isPvMove {
			if newDepth < onePly {
				value = -w.qsearch(nodePV, height+1, -beta, -alpha, 0)
			} else {
				value = -w.search(nodePV, height+1, -beta, -alpha, newDepth, nil)
			}
		} else {
			var doFullDepthSearch = true

			if depth > 3*onePly && !captureOrPromotion && !dangerous &&
				!IsCastleMove(move) &&
				move != frame.killers[0] && move != frame.killers[1] {
				if r := reduction(pvNode, depth, moveCount); r != 0 {
					frame.reduction = r
					var d = newDepth - r
					var la = alpha
					if spNode {
						sp.mu.Lock()
						la = sp.alpha
						sp.mu.Unlock()
					}
					if d < onePly {
						value = -w.qsearch(nodeNonPV, height+1, -(la + 1), -la, 0)
					} else {
						value = -w.search(nodeNonPV, height+1, -(la + 1), -la, d, nil)
					}
					frame.reduction = 0
					doFullDepthSearch = value > la
				}
			}

			if doFullDepthSearch {
				var la = alpha
				if spNode {
					sp.mu.Lock()
					la = sp.alpha
					sp.mu.Unlock()
				}
				if newDepth < onePly {
					value = -w.qsearch(nodeNonPV, height+1, -(la + 1), -la, 0)
				} else {
					value = -w.search(nodeNonPV, height+1, -(la + 1), -la, newDepth, nil)
				}

				// re-search as a new PV candidate
				if pvNode && value > la && (rootNode || value < beta) {
					if newDepth < onePly {
						value = -w.qsearch(nodePV, height+1, -beta, -alpha, 0)
					} else {
						value = -w.search(nodePV, height+1, -beta, -alpha, newDepth, nil)
					}
				}
			}
		}

		// Step 17. The move is undone by discarding the child frame.

		// Step 18. Check for a new best move
		if spNode {
			sp.mu.Lock()
			bestValue = sp.bestValue
			alpha = sp.alpha
		}

		if rootNode && !e.isStopped() {
			e.updateRootMove(pos, move, value, isPvMove, isPvMove || value > alpha, nodesBefore)
		}

		if value > bestValue {
			bestValue = value
			frame.bestMove = move

			if pvNode && value > alpha && value < beta {
				alpha = value
			}

			if spNode && !w.cutoffOccurred() {
				sp.bestValue = value
				sp.bestMove = move
				sp.alpha = alpha
				if value >= beta {
					atomic.StoreInt32(&sp.cutoff, 1)
				}
			}
		}

		// Step 19. Check for a split
		if !spNode && depth >= e.MinSplitDepth*onePly &&
			bestValue < beta &&
			e.availableSlaveExists(w) &&
			!e.isStopped() && !w.cutoffOccurred() {
			bestValue = w.split(nt, height, alpha, beta, bestValue, depth,
				threatMove, moveCount, mp)
			if bestValue >= beta {
				break
			}
		}
	}

	if spNode {
		// lock is still held on every exit path of the loop
		sp.clearSlave(w.index)
		sp.nodes += atomic.LoadInt64(&w.nodes) - spStartNodes
		var bv = sp.bestValue
		sp.mu.Unlock()
		return bv
	}

	// Step 20. Mate and stalemate detection. A singular-extension probe with
	// no remaining moves fails low instead.
	if moveCount == 0 {
		if excludedMove != MoveEmpty {
			return oldAlpha
		}
		if inCheck {
			return matedIn(height)
		}
		return valueDraw
	}

	// Step 21. Update transposition table, killers and history, unless the
	// subtree was aborted.
	if !e.isStopped() && !w.cutoffOccurred() {
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

		e.transTable.Update(posKey, depth, valueToTT(bestValue, height), bound, move,
			frame.eval, frame.evalMargin)

		if bestValue >= beta && move != MoveEmpty && !isCaptureOrPromotion(move) {
			if move != frame.killers[0] {
				frame.killers[1] = frame.killers[0]
				frame.killers[0] = move
			}
			e.history.Success(pos.WhiteMove, move, depth, frame.moves[:playedQuiets])
		}
	}

	return bestValue
}
