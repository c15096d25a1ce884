// Package engine runs a sensing session: one worker polls watched
// memory, tracks whether the game is in a live round, evaluates
// triggers and hands matched cues to the audio and speech engines.
package engine

import (
	"context"
	"fmt"
	"time"

	"earshot/audio"
	"earshot/config"
	"earshot/journal"
	"earshot/log"
	"earshot/process"
	"earshot/samples"
	"earshot/speech"
)

// GameState says whether the target is in a live round. Profiles with
// no clock trigger stay InMenu for the whole session.
type GameState uint8

const (
	StateInMenu GameState = iota
	StateInGame
)

func (s GameState) String() string {
	if s == StateInGame {
		return "in_game"
	}
	return "in_menu"
}

// Notify receives session events on the poll goroutine. Implementations
// must not block; the TUI forwards these to its own loop.
type Notify interface {
	StateChanged(from, to GameState, clock int64)
	CueDispatched(trigger *config.Trigger, channel, text string)
	ConnectionLost()
}

type noNotify struct{}

func (noNotify) StateChanged(GameState, GameState, int64) {}
func (noNotify) CueDispatched(*config.Trigger, string, string) {}
func (noNotify) ConnectionLost() {}

// Options wires a session's collaborators. Game must already be
// validated; Bank must hold every sample the profile names.
type Options struct {
	Game    *config.Game
	Process process.Handle
	Audio   audio.Engine
	Speech  speech.Synthesizer // nil disables speech cues
	Bank    *samples.Bank
	Journal *journal.Journal // nil disables cue history
	Notify  Notify           // nil for none
}

// Engine holds one session's state. All fields are owned by the single
// goroutine running Run; nothing here is locked.
type Engine struct {
	game  *config.Game
	proc  process.Handle
	audio audio.Engine
	synth speech.Synthesizer
	jrnl  *journal.Journal
	note  Notify

	watches   []*watchState
	watchByID map[int]*watchState
	trigByID  map[int]*triggerState
	normals   []*triggerState // dispatchable normal triggers, profile order
	conts     []*triggerState
	mods      []*triggerState

	clockTrig  *triggerState
	clockWatch *watchState
	clockEvery time.Duration
	lastCheck  time.Time
	lastClock  int64

	state     GameState
	prevState GameState
	connected bool
	tickN     uint64

	started time.Time
	stats   log.SessionStats
}

// New builds a session over a validated profile. Configuration problems
// that survive validation, like a sample missing from the bank, are
// rejected here so they never surface mid-loop.
func New(o Options) (*Engine, error) {
	if o.Game == nil || o.Process == nil || o.Audio == nil {
		return nil, fmt.Errorf("engine needs a profile, a process and an audio engine")
	}
	e := &Engine{
		game:      o.Game,
		proc:      o.Process,
		audio:     o.Audio,
		synth:     o.Speech,
		jrnl:      o.Journal,
		note:      o.Notify,
		connected: true,
	}
	if e.note == nil {
		e.note = noNotify{}
	}
	e.clockEvery = time.Duration(o.Game.Session.ClockMs) * time.Millisecond

	e.watchByID = make(map[int]*watchState, len(o.Game.Watches))
	for i := range o.Game.Watches {
		ws := newWatchState(&o.Game.Watches[i])
		e.watches = append(e.watches, ws)
		e.watchByID[ws.cfg.ID] = ws
	}

	e.trigByID = make(map[int]*triggerState, len(o.Game.Triggers))
	for i := range o.Game.Triggers {
		t := &o.Game.Triggers[i]
		ts := newTriggerState(t)
		if needsSample(t, o.Game) {
			if o.Bank == nil {
				return nil, fmt.Errorf("trigger %d: no sample bank", t.ID)
			}
			s := o.Bank.Get(o.Game.SamplePath(t))
			if s == nil {
				return nil, fmt.Errorf("trigger %d: sample %s not loaded", t.ID, t.Sample)
			}
			ts.cue = audio.Cue{Sample: s, Volume: t.Volume, Speed: t.Speed}
		}
		e.trigByID[t.ID] = ts
		switch {
		case t.IsClock(o.Game):
			e.clockTrig = ts
			e.clockWatch = e.watchByID[t.Watches[0]]
		case t.Kind == config.TriggerNormal:
			e.normals = append(e.normals, ts)
		case t.Kind == config.TriggerContinuous:
			e.conts = append(e.conts, ts)
		case t.Kind == config.TriggerModifier:
			e.mods = append(e.mods, ts)
		}
	}

	if e.clockTrig == nil && len(e.conts) > 0 {
		log.Warn("profile has no clock trigger; continuous triggers will stay silent")
	}
	return e, nil
}

func needsSample(t *config.Trigger, g *config.Game) bool {
	if t.Speech || t.IsClock(g) {
		return false
	}
	return t.Kind == config.TriggerNormal || t.Kind == config.TriggerContinuous
}

// Run executes the poll loop until ctx is cancelled. Cancellation is
// cooperative: the current tick always completes. A panic inside the
// loop ends the session with an error instead of crashing the process.
func (e *Engine) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("poll worker: %v", r)
		}
		e.stats.Elapsed = time.Since(e.started)
		reason := "cancelled"
		if err != nil {
			reason = "fault"
		} else if !e.connected {
			reason = "disconnected"
		}
		log.SessionEnd(reason, e.stats)
	}()

	e.started = time.Now()
	log.SessionStart(e.proc.Name(), e.proc.PID(), len(e.game.Watches), len(e.game.Triggers))

	interval := time.Duration(e.game.Session.PollMs) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		e.tick(time.Now())
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Step runs one poll pass by hand. The simulator drives sessions this
// way instead of through Run's ticker.
func (e *Engine) Step(now time.Time) {
	e.tick(now)
}

// tick is one pass of the loop. The order is a contract: the modifier
// pass must see the volumes the continuous pass just recomputed, and
// queue order is insertion order from the normal pass.
func (e *Engine) tick(now time.Time) {
	e.tickN++
	e.stats.Ticks++
	e.refreshWatches()
	e.updateGameState(now)
	e.continuousPass()
	e.normalPass()
	e.modifierPass()
	e.audio.DrainNormal()
	e.audio.Pump()
}

// connectionLost forces menu state and drops queued cues. The session
// keeps ticking; reattaching is the caller's call.
func (e *Engine) connectionLost() {
	e.connected = false
	e.setState(StateInMenu, e.lastClock)
	e.audio.ClearNormal()
	log.Warnf("lost connection to %s", e.proc.Name())
	e.note.ConnectionLost()
}

// Connected reports whether the target process was still reachable on
// the last tick. Valid after Run returns.
func (e *Engine) Connected() bool {
	return e.connected
}

// Stats returns session counters. Valid after Run returns.
func (e *Engine) Stats() log.SessionStats {
	return e.stats
}
