package engine

import (
	"math"

	"earshot/log"
)

// continuousPass drives looping cues from the distance between each
// continuous trigger's two watches. Outside a live round everything
// stops and resets so re-entry starts from the base values.
func (e *Engine) continuousPass() {
	if e.state != StateInGame {
		e.stopContinuous()
		return
	}
	for _, ts := range e.conts {
		t := ts.cfg
		a := e.watchByID[t.Watches[0]]
		b := e.watchByID[t.Watches[1]]
		if !a.fresh || !b.fresh {
			continue
		}
		av, okA := a.val.Float()
		bv, okB := b.val.Float()
		if !okA || !okB {
			e.stats.SkippedEval++
			log.Warnf("trigger %d: non-numeric watch reading", t.ID)
			continue
		}
		maxRange, _ := t.TargetValue().Float()
		pct := math.Abs(av-bv) / maxRange
		if pct < 0 {
			pct = 0
		} else if pct > 1 {
			pct = 1
		}
		factor := pct
		if t.Comparison.Ascending() {
			factor = 1 - pct
		}
		if t.Comparison.DrivesVolume() {
			ts.curVol = t.Volume * factor
		} else {
			ts.curSpeed = t.Speed * factor
		}
		if !ts.playing {
			e.audio.StartContinuous(t.ID, ts.cue)
			ts.playing = true
		}
		e.audio.SetContinuousVolume(t.ID, ts.curVol)
		e.audio.SetContinuousSpeed(t.ID, ts.curSpeed)
	}
}

// stopContinuous silences every continuous trigger and rewinds its
// state, releasing any modifier still applied.
func (e *Engine) stopContinuous() {
	playing := false
	for _, ts := range e.conts {
		if ts.playing {
			playing = true
		}
		ts.playing = false
		ts.curVol = ts.cfg.Volume
		ts.curSpeed = ts.cfg.Speed
	}
	if playing {
		e.audio.StopAllContinuous()
	}
	for _, ts := range e.mods {
		ts.modActive = false
	}
}

// modifierPass scales continuous playback while each modifier's
// condition holds. Application and release are both one-shot edges
// tracked by modActive; in between the pass is a no-op.
func (e *Engine) modifierPass() {
	if e.state != StateInGame {
		return
	}
	for _, ts := range e.mods {
		t := ts.cfg
		ws := e.watchByID[t.Watches[0]]
		if !ws.fresh {
			continue
		}
		matched := e.evaluate(ts, 0, ws.val)
		target := e.trigByID[t.Secondary[0]]
		switch {
		case matched && !ts.modActive:
			target.curVol *= t.Volume
			target.curSpeed *= t.Speed
			e.pushContinuous(target)
			ts.modActive = true
		case !matched && ts.modActive:
			target.curVol /= t.Volume
			target.curSpeed /= t.Speed
			e.pushContinuous(target)
			ts.modActive = false
		}
	}
}

func (e *Engine) pushContinuous(target *triggerState) {
	if !target.playing {
		return
	}
	e.audio.SetContinuousVolume(target.cfg.ID, target.curVol)
	e.audio.SetContinuousSpeed(target.cfg.ID, target.curSpeed)
}
