package engine

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/meridian-engine/meridian/pkg/common"
)

type stackFrame struct {
	position     Position
	currentMove  Move
	bestMove     Move
	excludedMove Move
	killers      [2]Move
	eval         int
	evalMargin   int
	reduction    int
	skipNullMove bool
	sp           *splitPoint
	mp           movePicker
	buffer0      [MaxMoves]OrderedMove
	buffer1      [MaxMoves]OrderedMove
	buffer2      [MaxMoves]OrderedMove
	buffer3      [MaxMoves]OrderedMove
	moves        [MaxMoves]Move // quiet moves tried, for history updates
}

// spFrame is the slice of a parent frame a slave needs to reproduce the
// master's stack above the split height.
type spFrame struct {
	position    Position
	killers     [2]Move
	currentMove Move
	reduction   int
	eval        int
	evalMargin  int
}

// splitPoint shares the remaining moves of one node between a master and its
// slaves. Mutable fields are guarded by mu; slavesMask is additionally read
// atomically by the master's idle loop.
type splitPoint struct {
	mu     sync.Mutex
	parent *splitPoint
	master *worker

	nodeType   int
	height     int
	beta       int
	depth      int
	threatMove Move
	mp         *movePicker
	frames     [stackSize]spFrame

	alpha      int
	bestValue  int
	bestMove   Move
	moveCount  int
	nodes      int64
	cutoff     int32
	slavesMask uint32
}

func (sp *splitPoint) allSlavesFinished() bool {
	return atomic.LoadUint32(&sp.slavesMask) == 0
}

func (sp *splitPoint) clearSlave(index int) {
	for {
		var old = atomic.LoadUint32(&sp.slavesMask)
		if atomic.CompareAndSwapUint32(&sp.slavesMask, old, old&^(1<<uint(index))) {
			return
		}
	}
}

type worker struct {
	engine *Engine
	index  int
	nodes  int64
	maxPly int32

	stack          []stackFrame
	nodesSincePoll int

	sleepMu     sync.Mutex
	sleepCond   *sync.Cond
	isSearching int32
	terminate   int32
	assignedSp  atomic.Pointer[splitPoint]
	curSp       atomic.Pointer[splitPoint]

	splitPointsBuf    []splitPoint
	activeSplitPoints int32
}

func newWorker(e *Engine, index int) *worker {
	var w = &worker{
		engine:         e,
		index:          index,
		stack:          make([]stackFrame, stackSize),
		splitPointsBuf: make([]splitPoint, maxSplitPoints),
	}
	w.sleepCond = sync.NewCond(&w.sleepMu)
	return w
}

func (w *worker) searching() bool {
	return atomic.LoadInt32(&w.isSearching) != 0
}

func (w *worker) setSearching(v bool) {
	if v {
		atomic.StoreInt32(&w.isSearching, 1)
	} else {
		atomic.StoreInt32(&w.isSearching, 0)
	}
}

func (w *worker) terminated() bool {
	return atomic.LoadInt32(&w.terminate) != 0
}

func (w *worker) setTerminate() {
	atomic.StoreInt32(&w.terminate, 1)
	w.wakeUp()
}

func (w *worker) wakeUp() {
	w.sleepMu.Lock()
	w.sleepCond.Signal()
	w.sleepMu.Unlock()
}

// cutoffOccurred walks the chain of enclosing split points; a beta cutoff
// anywhere above aborts this worker's subtree.
func (w *worker) cutoffOccurred() bool {
	for sp := w.curSp.Load(); sp != nil; sp = sp.parent {
		if atomic.LoadInt32(&sp.cutoff) != 0 {
			return true
		}
	}
	return false
}

func (w *worker) incNodes() {
	atomic.AddInt64(&w.nodes, 1)
	if w.index == 0 {
		w.nodesSincePoll++
		if w.nodesSincePoll >= w.engine.nodesBetweenPolls {
			w.nodesSincePoll = 0
			w.engine.poll()
		}
	}
}

// poll enforces the soft time budget; the hard budget and the GUI's stop are
// delivered asynchronously via Engine.Stop.
func (e *Engine) poll() {
	if e.isPondering() {
		return
	}
	var t = time.Since(e.start)
	var stillAtFirstMove = atomic.LoadInt32(&e.firstRootMove) != 0 &&
		atomic.LoadInt32(&e.aspirationFailLow) == 0 &&
		t > e.timeManager.availableTime()
	var noMoreTime = t > e.timeManager.maximumTime() || stillAtFirstMove

	if (e.limits.UseTimeManagement() && noMoreTime) ||
		(e.limits.MoveTime > 0 && t >= time.Duration(e.limits.MoveTime)*time.Millisecond) ||
		(e.limits.Nodes > 0 && e.nodesSearched() >= int64(e.limits.Nodes)) {
		atomic.StoreInt32(&e.stopRequest, 1)
	}
}

func (w *worker) isDraw(height int) bool {
	var p = &w.stack[height].position

	if isDrawnByRule(p) {
		return true
	}

	if p.Rule50 == 0 || p.LastMove == MoveEmpty {
		return false
	}
	for i := height - 1; i >= 0; i-- {
		var temp = &w.stack[i].position
		if temp.Key == p.Key {
			return true
		}
		if temp.Rule50 == 0 || temp.LastMove == MoveEmpty {
			return false
		}
	}

	return w.engine.historyKeys[p.Key] >= 2
}

func (e *Engine) availableSlaveExists(master *worker) bool {
	for _, s := range e.workers {
		if s != master && s.isAvailable() {
			return true
		}
	}
	return false
}

func (w *worker) isAvailable() bool {
	return !w.searching() && atomic.LoadInt32(&w.activeSplitPoints) == 0
}

// split publishes the remaining moves of the current node, books idle
// workers, joins them as an equal, and returns the agreed best value once
// every slave has left the split point.
func (w *worker) split(nt, height int, alpha, beta, bestValue, depth int,
	threatMove Move, moveCount int, mp *movePicker) int {

	var e = w.engine

	e.splitMu.Lock()
	var active = atomic.LoadInt32(&w.activeSplitPoints)
	if active >= maxSplitPoints || !e.availableSlaveExists(w) {
		e.splitMu.Unlock()
		return bestValue
	}

	var sp = &w.splitPointsBuf[active]
	atomic.AddInt32(&w.activeSplitPoints, 1)

	sp.parent = w.curSp.Load()
	sp.master = w
	sp.nodeType = nt
	sp.height = height
	sp.beta = beta
	sp.depth = depth
	sp.threatMove = threatMove
	sp.mp = mp
	sp.alpha = alpha
	sp.bestValue = bestValue
	sp.bestMove = w.stack[height].bestMove
	sp.moveCount = moveCount
	sp.nodes = 0
	atomic.StoreInt32(&sp.cutoff, 0)
	atomic.StoreUint32(&sp.slavesMask, 0)
	for h := 0; h <= height; h++ {
		var src = &w.stack[h]
		sp.frames[h] = spFrame{
			position:    src.position,
			killers:     src.killers,
			currentMove: src.currentMove,
			reduction:   src.reduction,
			eval:        src.eval,
			evalMargin:  src.evalMargin,
		}
	}

	var booked []*worker
	for _, s := range e.workers {
		if s != w && s.isAvailable() && len(booked) < maxSlavesPerSplit {
			atomic.StoreUint32(&sp.slavesMask, atomic.LoadUint32(&sp.slavesMask)|1<<uint(s.index))
			s.curSp.Store(sp)
			s.assignedSp.Store(sp)
			s.setSearching(true)
			booked = append(booked, s)
		}
	}
	if len(booked) == 0 {
		atomic.AddInt32(&w.activeSplitPoints, -1)
		e.splitMu.Unlock()
		return bestValue
	}

	// the master iterates its own split point like any slave
	atomic.StoreUint32(&sp.slavesMask, atomic.LoadUint32(&sp.slavesMask)|1<<uint(w.index))
	w.curSp.Store(sp)
	w.assignedSp.Store(sp)
	w.setSearching(true)
	e.splitMu.Unlock()

	for _, s := range booked {
		s.wakeUp()
	}

	w.idleLoop(sp)

	e.splitMu.Lock()
	w.curSp.Store(sp.parent)
	atomic.AddInt32(&w.activeSplitPoints, -1)
	e.splitMu.Unlock()

	sp.mu.Lock()
	var bv = sp.bestValue
	w.stack[height].bestMove = sp.bestMove
	sp.mu.Unlock()
	return bv
}

// idleLoop parks a worker between assignments. With a non-nil sp the caller
// is a split-point master waiting for its slaves; it returns as soon as the
// last isSlave bit clears.
func (w *worker) idleLoop(masterSp *splitPoint) {
	for {
		w.sleepMu.Lock()
		for !w.searching() && !w.terminated() &&
			!(masterSp != nil && masterSp.allSlavesFinished()) {
			if w.engine.UseSleepingThreads || masterSp != nil {
				w.sleepCond.Wait()
			} else {
				w.sleepMu.Unlock()
				runtime.Gosched()
				w.sleepMu.Lock()
			}
		}
		w.sleepMu.Unlock()

		if w.terminated() && masterSp == nil {
			return
		}

		if w.searching() {
			var sp = w.assignedSp.Load()

			// reproduce the master's stack above the split height
			for h := 0; h <= sp.height; h++ {
				var src = &sp.frames[h]
				var dst = &w.stack[h]
				dst.position = src.position
				dst.killers = src.killers
				dst.currentMove = src.currentMove
				dst.reduction = src.reduction
				dst.eval = src.eval
				dst.evalMargin = src.evalMargin
				dst.excludedMove = MoveEmpty
				dst.skipNullMove = false
			}
			w.stack[sp.height].sp = sp

			sp.mu.Lock()
			var alpha = sp.alpha
			sp.mu.Unlock()

			w.search(sp.nodeType, sp.height, alpha, sp.beta, sp.depth, sp)

			w.setSearching(false)
			if w != sp.master {
				w.curSp.Store(nil)
				if !sp.master.searching() {
					sp.master.wakeUp()
				}
			}
		}

		if masterSp != nil && masterSp.allSlavesFinished() {
			// the last slave publishes its results under the lock; pass
			// through it once before reading them
			masterSp.mu.Lock()
			masterSp.mu.Unlock()
			return
		}
	}
}
