package engine

import (
	"time"

	"earshot/log"
)

// updateGameState re-reads the clock watch at most once per clock
// interval. A changing clock means a live round; an equal or wrapping
// clock means menus, character select, round transitions.
func (e *Engine) updateGameState(now time.Time) {
	if e.clockTrig == nil {
		return
	}
	if !e.lastCheck.IsZero() && now.Sub(e.lastCheck) < e.clockEvery {
		return
	}
	e.lastCheck = now

	ws := e.clockWatch
	if !ws.fresh {
		return
	}
	cur, ok := ws.val.Int()
	if !ok {
		log.Warnf("clock watch %d: non-numeric reading", ws.cfg.ID)
		return
	}

	e.prevState = e.state
	if cur != e.lastClock {
		next := StateInGame
		// A clock passing through zero or snapping back to its maximum
		// is a round boundary, not play. Those edges stay in the menu
		// and drop whatever was queued for the dead round.
		if (cur == 0 || e.lastClock == 0 || cur == e.game.Session.ClockMax) && e.connected {
			next = StateInMenu
			e.audio.ClearNormal()
		}
		e.setState(next, cur)
	} else {
		e.setState(StateInMenu, cur)
	}
	e.lastClock = cur
}

func (e *Engine) setState(s GameState, clock int64) {
	if s == e.state {
		return
	}
	from := e.state
	e.state = s
	log.StateChange(from.String(), s.String(), clock)
	e.note.StateChanged(from, s, clock)
}
