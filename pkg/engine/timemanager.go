package engine

import (
	"time"

	. "github.com/meridian-engine/meridian/pkg/common"
)

// timeManager converts the clock into a soft budget (availableTime) and a
// hard one (maximumTime). The hard budget is enforced by a timer so even a
// wedged search stops; the soft one is consulted by the poll loop and the
// iterative-deepening driver.
type timeManager struct {
	start         time.Time
	optimum       time.Duration
	maximum       time.Duration
	unstableExtra time.Duration
	timer         *time.Timer
}

func newTimeManager(limits LimitsType, side bool, onHardTimeout func()) *timeManager {
	var tm = &timeManager{start: time.Now()}

	if limits.MoveTime > 0 {
		tm.optimum = time.Duration(limits.MoveTime) * time.Millisecond
		tm.maximum = tm.optimum
	} else if limits.UseTimeManagement() {
		var soft, hard = computeThinkTime(limits, side)
		tm.optimum = soft
		tm.maximum = hard
	}

	if tm.maximum > 0 && !limits.Ponder {
		tm.timer = time.AfterFunc(tm.maximum, onHardTimeout)
	}
	return tm
}

// far enough in the future to never trigger, small enough to survive the
// percentage arithmetic in the driver
const noTimeLimit = time.Duration(1) << 56

func (tm *timeManager) availableTime() time.Duration {
	if tm.optimum == 0 {
		return noTimeLimit
	}
	return tm.optimum + tm.unstableExtra
}

func (tm *timeManager) maximumTime() time.Duration {
	if tm.maximum == 0 {
		return noTimeLimit
	}
	return tm.maximum
}

// pvInstability grants extra time when the best move keeps flipping between
// iterations. Called from the driver goroutine only.
func (tm *timeManager) pvInstability(curChanges, prevChanges int) {
	var weight = curChanges*2 + prevChanges
	tm.unstableExtra = tm.optimum * time.Duration(Min(weight, 20)) / 20
}

func (tm *timeManager) Close() {
	if tm.timer != nil {
		tm.timer.Stop()
	}
}

func computeThinkTime(limits LimitsType, side bool) (soft, hard time.Duration) {
	const (
		movesToGoDefault = 40
		moveOverhead     = 30 * time.Millisecond
		minTimeLimit     = 1 * time.Millisecond
	)

	var mainTime, incTime int
	if side {
		mainTime, incTime = limits.WhiteTime, limits.WhiteIncrement
	} else {
		mainTime, incTime = limits.BlackTime, limits.BlackIncrement
	}
	if mainTime == 0 && incTime == 0 {
		return 0, 0
	}

	var main = time.Duration(mainTime) * time.Millisecond
	var inc = time.Duration(incTime) * time.Millisecond

	main -= moveOverhead
	if main < minTimeLimit {
		main = minTimeLimit
	}

	if limits.MovesToGo == 0 {
		var ideal = main/35 + inc/2
		soft = ideal * 7 / 10
		hard = ideal * 21 / 10
	} else {
		var moves = Min(limits.MovesToGo, movesToGoDefault)
		soft = (main/time.Duration(moves+1) + inc) * 7 / 10
		hard = (main/time.Duration(moves+1) + inc) * 21 / 10
	}

	hard = limitDuration(hard, minTimeLimit, main)
	soft = limitDuration(soft, minTimeLimit, main)

	return
}

func limitDuration(v, min, max time.Duration) time.Duration {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
