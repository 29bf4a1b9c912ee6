package party

import "time"

// Timers post back into the engine queue so expiries obey the same
// ordering as network traffic. Every handle carries a generation taken
// from a single counter; a fired event whose generation no longer
// matches the live handle is stale and dropped. Phase transitions stop
// all timers, so an expiry scheduled for a dead phase can never act.

const (
	timerQuestion      = "question"
	timerNextQuestion  = "next_question"
	timerMathDone      = "math_done"
	timerTurn          = "turn"
	timerCountdown     = "countdown"
	timerGraceEnd      = "grace_end"
	timerRevealAdvance = "reveal_advance"
)

type timerFired struct {
	name string
	gen  uint64
}

type timerHandle struct {
	gen  uint64
	stop chan struct{}
}

// startTimer arms a one-shot. An existing timer with the same name is
// replaced.
func (e *Engine) startTimer(name string, d time.Duration) {
	h := e.armTimer(name)
	go func() {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-h.stop:
		case <-t.C:
			e.post(timerFired{name: name, gen: h.gen})
		}
	}()
}

// startTicker arms a repeating timer.
func (e *Engine) startTicker(name string, d time.Duration) {
	h := e.armTimer(name)
	go func() {
		t := time.NewTicker(d)
		defer t.Stop()
		for {
			select {
			case <-h.stop:
				return
			case <-t.C:
				e.post(timerFired{name: name, gen: h.gen})
			}
		}
	}()
}

func (e *Engine) armTimer(name string) *timerHandle {
	e.stopTimer(name)
	e.timerSeq++
	h := &timerHandle{gen: e.timerSeq, stop: make(chan struct{})}
	e.timers[name] = h
	return h
}

func (e *Engine) stopTimer(name string) {
	if h, ok := e.timers[name]; ok {
		close(h.stop)
		delete(e.timers, name)
	}
}

func (e *Engine) stopAllTimers() {
	for name := range e.timers {
		e.stopTimer(name)
	}
}

// live reports whether a fired timer still matches its handle. A
// one-shot that fires is disarmed here; its goroutine is already gone.
func (e *Engine) live(f timerFired, oneShot bool) bool {
	h, ok := e.timers[f.name]
	if !ok || h.gen != f.gen {
		return false
	}
	if oneShot {
		delete(e.timers, f.name)
	}
	return true
}
