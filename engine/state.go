package engine

import (
	"errors"

	"earshot/audio"
	"earshot/config"
	"earshot/log"
	"earshot/process"
	"earshot/value"
)

// watchState carries one watch's per-session runtime state. val keeps
// the last successful reading; fresh says this tick's read worked, so a
// failed resolution is never mistaken for a valid zero.
type watchState struct {
	cfg      *config.Watch
	buf      []byte
	val      value.Value
	fresh    bool
	everRead bool
}

func newWatchState(w *config.Watch) *watchState {
	return &watchState{cfg: w, buf: make([]byte, w.ReadLen())}
}

// triggerState carries one trigger's mutable runtime state. prev and
// seeded grow lazily to the watch list's length on first evaluation.
type triggerState struct {
	cfg *config.Trigger
	cue audio.Cue

	prev   []value.Value
	seeded []bool

	// depTick caches the dependent check so consulting the same
	// dependent twice in a tick neither re-reads nor re-seeds.
	depTick   uint64
	depResult bool

	// Continuous state. curVol and curSpeed start at the base values;
	// the pass recomputes only the driven axis, so modifiers on the
	// other axis stick until they release.
	playing  bool
	curVol   float64
	curSpeed float64

	// Modifier state.
	modActive bool
}

func newTriggerState(t *config.Trigger) *triggerState {
	return &triggerState{
		cfg:      t,
		prev:     make([]value.Value, len(t.Watches)),
		seeded:   make([]bool, len(t.Watches)),
		curVol:   t.Volume,
		curSpeed: t.Speed,
	}
}

// refreshWatches reads every active watch once. Failures skip the
// watch for this tick and leave its cached value alone.
func (e *Engine) refreshWatches() {
	gone := false
	for _, ws := range e.watches {
		ws.fresh = false
		if !ws.cfg.IsActive() || !e.connected {
			continue
		}
		addr, err := process.Resolve(e.proc, ws.cfg.Chain)
		if err != nil {
			e.stats.ReadErrors++
			if errors.Is(err, process.ErrProcessGone) {
				gone = true
			}
			continue
		}
		if err := e.proc.ReadAt(addr, ws.buf); err != nil {
			e.stats.ReadErrors++
			if errors.Is(err, process.ErrProcessGone) {
				gone = true
			}
			continue
		}
		v, err := value.Decode(ws.cfg.Kind, ws.buf)
		if err != nil {
			e.stats.ReadErrors++
			log.Warnf("watch %d: %v", ws.cfg.ID, err)
			continue
		}
		ws.val = v
		ws.fresh = true
		ws.everRead = true
	}
	if gone && e.connected {
		e.connectionLost()
	}
}
