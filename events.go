package main

import (
	"earshot/config"
	"earshot/engine"
)

// sessionEvents carries poll-loop events off the worker goroutine.
// send forwards to the TUI when one is running; onLost ends the
// current session so the attach loop can wait for the process again.
type sessionEvents struct {
	send   func(msg any)
	onLost func()
}

func (s *sessionEvents) StateChanged(from, to engine.GameState, clock int64) {
	if s.send != nil {
		s.send(StateMsg{State: to.String(), Clock: clock})
	}
}

func (s *sessionEvents) CueDispatched(t *config.Trigger, channel, text string) {
	if s.send != nil {
		s.send(CueMsg{Trigger: t.ID, Name: t.Name, Channel: channel, Text: text})
	}
}

func (s *sessionEvents) ConnectionLost() {
	if s.send != nil {
		s.send(DetachedMsg{})
	}
	if s.onLost != nil {
		s.onLost()
	}
}
