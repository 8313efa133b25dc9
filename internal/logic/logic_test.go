package logic

import "time"

// pollStep is the simulated poll cadence used by the replay helpers.
const pollStep = 100 * time.Millisecond

// lineSim emulates one debounced sense line the way the input engine
// reports it: the active side's run grows and caps at 65 s, the inactive
// side keeps the final value it had when that level ended.
type lineSim struct {
	on     bool
	onRun  time.Duration
	offRun time.Duration
}

func (l *lineSim) set(on bool) {
	if l.on == on {
		return
	}
	l.on = on
	if on {
		l.onRun = 0
	} else {
		l.offRun = 0
	}
}

func (l *lineSim) advance(d time.Duration) {
	const cap = 65 * time.Second
	if l.on {
		if l.onRun += d; l.onRun > cap {
			l.onRun = cap
		}
	} else {
		if l.offRun += d; l.offRun > cap {
			l.offRun = cap
		}
	}
}

func (l *lineSim) sample() Sample {
	return Sample{On: l.on, OnRun: l.onRun, OffRun: l.offRun}
}

// seg is one settled level of a line and how long it holds.
type seg struct {
	on bool
	d  time.Duration
}

func pulse(d time.Duration) seg { return seg{on: true, d: d} }
func gap(d time.Duration) seg   { return seg{on: false, d: d} }
