package engine

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	. "github.com/meridian-engine/meridian/pkg/common"
)

// moveNull marks a null move on the search stack. It never reaches the board
// or the transposition table.
const moveNull = Move(1 << 21)

type Engine struct {
	Hash               int
	Threads            int
	MultiPV            int
	SkillLevel         int
	MinSplitDepth      int // in plies
	UseSleepingThreads bool
	OwnBook            bool
	BookFile           string
	BestBookMove       bool
	ProgressMinNodes   int
	SkillSeed          int64 // 0 seeds from the wall clock
	CurrMove           func(depth int, mv Move, num int)

	transTable  *transTable
	history     *historyTable
	timeManager *timeManager
	workers     []*worker
	book        *Book
	historyKeys map[uint64]int
	limits      LimitsType
	progress    func(SearchInfo)
	start       time.Time

	rootMoves       []rootMove
	multiPVIdx      int
	uciMultiPV      int
	skillEnabled    bool
	bestValues      [maxPly + 4]int
	bestMoveChanges int

	nodesBetweenPolls int
	splitMu           sync.Mutex
	rootMu            sync.Mutex

	stopRequest       int32
	pondering         int32
	stopOnPonderhit   int32
	aspirationFailLow int32
	firstRootMove     int32
	ponderSignal      chan struct{}
}

type rootMove struct {
	move      Move
	score     int
	prevScore int
	nodes     int64
	pv        []Move
}

func NewEngine() *Engine {
	return &Engine{
		Hash:               16,
		Threads:            1,
		MultiPV:            1,
		SkillLevel:         20,
		MinSplitDepth:      4,
		UseSleepingThreads: true,
		ProgressMinNodes:   0,
		history:            &historyTable{},
	}
}

func (e *Engine) Prepare() {
	if e.transTable == nil || e.transTable.Size() != e.Hash {
		if e.transTable != nil {
			e.transTable = nil
			runtime.GC()
		}
		e.transTable = newTransTable(e.Hash)
	}
	var threads = Max(1, Min(e.Threads, maxSearchThreads))
	if len(e.workers) != threads {
		e.workers = make([]*worker, threads)
		for i := range e.workers {
			e.workers[i] = newWorker(e, i)
		}
	}
	if e.OwnBook && e.BookFile != "" &&
		(e.book == nil || e.book.path != e.BookFile) {
		e.book, _ = LoadBook(e.BookFile)
	}
}

func (e *Engine) Clear() {
	if e.transTable != nil {
		e.transTable.Clear()
	}
	e.history.Clear()
}

// ClearHash zeroes the transposition cache (UCI "Clear Hash" button).
func (e *Engine) ClearHash() {
	if e.transTable != nil {
		e.transTable.Clear()
	}
}

func (e *Engine) isStopped() bool {
	return atomic.LoadInt32(&e.stopRequest) != 0
}

// Stop requests cooperative termination of the current search.
func (e *Engine) Stop() {
	atomic.StoreInt32(&e.pondering, 0)
	atomic.StoreInt32(&e.stopRequest, 1)
	e.signalPonder()
}

// PonderHit switches a ponder search into a normal one, honoring a deferred
// stop if one was requested while pondering.
func (e *Engine) PonderHit() {
	atomic.StoreInt32(&e.pondering, 0)
	if atomic.LoadInt32(&e.stopOnPonderhit) != 0 {
		atomic.StoreInt32(&e.stopRequest, 1)
	}
	e.signalPonder()
}

func (e *Engine) isPondering() bool {
	return atomic.LoadInt32(&e.pondering) != 0
}

func (e *Engine) signalPonder() {
	if ch := e.ponderSignal; ch != nil {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (e *Engine) nodesSearched() int64 {
	var result int64
	for _, w := range e.workers {
		result += atomic.LoadInt64(&w.nodes)
	}
	return result
}

func (e *Engine) selDepth() int {
	var result int32
	for _, w := range e.workers {
		if v := atomic.LoadInt32(&w.maxPly); v > result {
			result = v
		}
	}
	return int(result)
}

func (e *Engine) Search(ctx context.Context, searchParams SearchParams) SearchInfo {
	e.start = time.Now()
	e.Prepare()
	e.limits = searchParams.Limits
	e.progress = searchParams.Progress
	var p = &searchParams.Positions[len(searchParams.Positions)-1]

	atomic.StoreInt32(&e.stopRequest, 0)
	atomic.StoreInt32(&e.stopOnPonderhit, 0)
	atomic.StoreInt32(&e.aspirationFailLow, 0)
	atomic.StoreInt32(&e.firstRootMove, 0)
	if e.limits.Ponder {
		atomic.StoreInt32(&e.pondering, 1)
	} else {
		atomic.StoreInt32(&e.pondering, 0)
	}
	e.ponderSignal = make(chan struct{}, 1)

	e.historyKeys = getHistoryKeys(searchParams.Positions)
	e.transTable.IncDate()
	e.timeManager = newTimeManager(e.limits, p.WhiteMove, e.Stop)
	defer e.timeManager.Close()

	// polling cadence follows the remaining time
	if e.limits.Nodes > 0 {
		e.nodesBetweenPolls = Min(e.limits.Nodes, 30000)
	} else if t := e.ownTime(p.WhiteMove); t > 0 && t < 1000 {
		e.nodesBetweenPolls = 1000
	} else if t > 0 && t < 5000 {
		e.nodesBetweenPolls = 5000
	} else {
		e.nodesBetweenPolls = 30000
	}

	var watchDone = make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			e.Stop()
		case <-watchDone:
		}
	}()

	// book probe bypasses the search entirely
	if e.OwnBook && e.book != nil && !e.limits.Infinite {
		if bookMove := e.book.Probe(p, e.BestBookMove); bookMove != MoveEmpty {
			e.waitForStopOrPonderhit()
			return SearchInfo{MainLine: []Move{bookMove}}
		}
	}

	for _, w := range e.workers {
		atomic.StoreInt64(&w.nodes, 0)
		atomic.StoreInt32(&w.maxPly, 0)
		atomic.StoreInt32(&w.terminate, 0)
		atomic.StoreInt32(&w.isSearching, 0)
		w.curSp.Store(nil)
		w.assignedSp.Store(nil)
		atomic.StoreInt32(&w.activeSplitPoints, 0)
		w.nodesSincePoll = 0
		w.stack[0].position = *p
	}

	var g errgroup.Group
	for i := 1; i < len(e.workers); i++ {
		var w = e.workers[i]
		g.Go(func() error {
			w.idleLoop(nil)
			return nil
		})
	}

	var result = e.iterativeDeepening(e.workers[0])

	for i := 1; i < len(e.workers); i++ {
		e.workers[i].setTerminate()
	}
	g.Wait()

	// keep pondering until the GUI releases us
	e.waitForStopOrPonderhit()

	result.Nodes = e.nodesSearched()
	result.Time = time.Since(e.start)
	return result
}

func (e *Engine) ownTime(side bool) int {
	if side {
		return e.limits.WhiteTime
	}
	return e.limits.BlackTime
}

// waitForStopOrPonderhit blocks when the protocol forbids emitting bestmove:
// pondering or infinite search that ran out of work.
func (e *Engine) waitForStopOrPonderhit() {
	for !e.isStopped() && (e.isPondering() || e.limits.Infinite) {
		select {
		case <-e.ponderSignal:
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func getHistoryKeys(positions []Position) map[uint64]int {
	var result = make(map[uint64]int)
	for i := len(positions) - 1; i >= 0; i-- {
		var p = &positions[i]
		result[p.Key]++
		if p.Rule50 == 0 {
			break
		}
	}
	return result
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
