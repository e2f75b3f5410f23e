package engine

import (
	. "github.com/meridian-engine/meridian/pkg/common"
)

const (
	keyTransMove   = 1 << 20
	keyGoodCapture = 29000
	keyKiller1     = 28000
	keyKiller2     = 27999
)

func mvvlva(move Move) int {
	var captureScore = pieceValuesSEE[move.CapturedPiece()]
	if move.Promotion() != Empty {
		captureScore += pieceValuesSEE[move.Promotion()] - pieceValuesSEE[Pawn]
	}
	return captureScore*8 - move.MovingPiece()
}

func sortMoves(moves []OrderedMove) {
	for i := 1; i < len(moves); i++ {
		j, t := i, moves[i]
		for ; j > 0 && moves[j-1].Key < t.Key; j-- {
			moves[j] = moves[j-1]
		}
		moves[j] = t
	}
}

// movePicker yields pseudo-legal moves in stages: hash move and winning
// captures and killers first, then quiet moves by history, losing captures
// last. At a split point the master's picker is shared and every Next call
// is serialized by the split point's lock.
type movePicker struct {
	worker   *worker
	height   int
	ttMove   Move
	killer1  Move
	killer2  Move
	inited   bool
	stage    int
	head     int
	important, remaining, badCaptures []OrderedMove
}

func (mp *movePicker) initMain() {
	var frame = &mp.worker.stack[mp.height]
	var pos = &frame.position

	mp.important = frame.buffer1[:0]
	mp.remaining = frame.buffer2[:0]
	mp.badCaptures = frame.buffer3[:0]

	for _, om := range pos.GenerateMoves(frame.buffer0[:]) {
		var m = om.Move
		if m == mp.ttMove {
			mp.important = append(mp.important, OrderedMove{Move: m, Key: keyTransMove})
		} else if isCaptureOrPromotion(m) {
			if seeSignGE(pos, m) {
				mp.important = append(mp.important, OrderedMove{Move: m, Key: int32(keyGoodCapture + mvvlva(m))})
			} else {
				mp.badCaptures = append(mp.badCaptures, OrderedMove{Move: m, Key: int32(mvvlva(m))})
			}
		} else if m == mp.killer1 {
			mp.important = append(mp.important, OrderedMove{Move: m, Key: keyKiller1})
		} else if m == mp.killer2 {
			mp.important = append(mp.important, OrderedMove{Move: m, Key: keyKiller2})
		} else {
			mp.remaining = append(mp.remaining, OrderedMove{Move: m, Key: 0})
		}
	}
	sortMoves(mp.important)
	mp.inited = true
	mp.stage = 0
	mp.head = 0
}

func (mp *movePicker) Next() Move {
	if !mp.inited {
		mp.initMain()
	}
	for {
		switch mp.stage {
		case 0:
			if mp.head < len(mp.important) {
				var m = mp.important[mp.head].Move
				mp.head++
				return m
			}
			var side = mp.worker.stack[mp.height].position.WhiteMove
			var history = mp.worker.engine.history
			for i := range mp.remaining {
				mp.remaining[i].Key = int32(history.Score(side, mp.remaining[i].Move))
			}
			sortMoves(mp.remaining)
			mp.stage++
			mp.head = 0
		case 1:
			if mp.head < len(mp.remaining) {
				var m = mp.remaining[mp.head].Move
				mp.head++
				return m
			}
			sortMoves(mp.badCaptures)
			mp.stage++
			mp.head = 0
		case 2:
			if mp.head < len(mp.badCaptures) {
				var m = mp.badCaptures[mp.head].Move
				mp.head++
				return m
			}
			return MoveEmpty
		}
	}
}

// movePickerQS yields only tactical moves: all evasions when in check,
// otherwise captures, queen promotions and, near the horizon, checks.
type movePickerQS struct {
	worker    *worker
	height    int
	genChecks bool
	moves     []OrderedMove
	inited    bool
	head      int
}

func (mp *movePickerQS) Next() Move {
	if !mp.inited {
		var frame = &mp.worker.stack[mp.height]
		var pos = &frame.position
		var ml []OrderedMove
		if pos.IsCheck() {
			ml = pos.GenerateMoves(frame.buffer0[:])
		} else {
			ml = pos.GenerateCaptures(frame.buffer0[:], mp.genChecks)
		}
		mp.moves = frame.buffer1[:0]
		var history = mp.worker.engine.history
		for _, om := range ml {
			var m = om.Move
			var key int32
			if isCaptureOrPromotion(m) {
				key = int32(keyGoodCapture + mvvlva(m))
			} else {
				key = int32(history.Score(pos.WhiteMove, m))
			}
			mp.moves = append(mp.moves, OrderedMove{Move: m, Key: key})
		}
		sortMoves(mp.moves)
		mp.inited = true
		mp.head = 0
	}
	if mp.head < len(mp.moves) {
		var m = mp.moves[mp.head].Move
		mp.head++
		return m
	}
	return MoveEmpty
}

// movePickerProbCut yields captures that win more than the piece the
// opponent just captured, hash move first.
type movePickerProbCut struct {
	worker    *worker
	height    int
	ttMove    Move
	threshold int
	moves     []OrderedMove
	inited    bool
	head      int
}

func (mp *movePickerProbCut) Next() Move {
	if !mp.inited {
		var frame = &mp.worker.stack[mp.height]
		var pos = &frame.position
		mp.moves = frame.buffer1[:0]
		for _, om := range pos.GenerateCaptures(frame.buffer0[:], false) {
			var m = om.Move
			if m.CapturedPiece() == Empty {
				continue
			}
			if !SeeGE(pos, m, mp.threshold+1) {
				continue
			}
			var key = int32(mvvlva(m))
			if m == mp.ttMove {
				key = keyTransMove
			}
			mp.moves = append(mp.moves, OrderedMove{Move: m, Key: key})
		}
		sortMoves(mp.moves)
		mp.inited = true
		mp.head = 0
	}
	if mp.head < len(mp.moves) {
		var m = mp.moves[mp.head].Move
		mp.head++
		return m
	}
	return MoveEmpty
}
