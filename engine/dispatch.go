package engine

import (
	"path/filepath"

	"earshot/config"
	"earshot/journal"
	"earshot/log"
)

// dispatch routes one matched trigger to a channel. During a live
// round, cues queue on the non-interrupting normal channel and speech
// rides the player's screen reader without cutting it off. Everywhere
// else the cue interrupts: menus talk over each other, last match
// wins.
func (e *Engine) dispatch(ts *triggerState) {
	t := ts.cfg
	if e.state == StateInGame && t.Allowance != config.AllowInMenu {
		if t.Speech {
			if e.synth == nil || !e.synth.Available() {
				log.Warnf("trigger %d: speech cue skipped, no screen reader active", t.ID)
				return
			}
			text := e.expand(t.Text)
			if err := e.synth.Speak(text, false); err != nil {
				log.Errorf("trigger %d: %v", t.ID, err)
				return
			}
			e.record(t, "speech", text)
			return
		}
		e.audio.QueueNormal(ts.cue)
		e.record(t, "normal", t.Sample)
		return
	}
	if !allows(t.Allowance, e.state) {
		return
	}
	if t.Speech {
		if e.synth == nil {
			log.Warnf("trigger %d: speech cue skipped, no synthesizer", t.ID)
			return
		}
		text := e.expand(t.Text)
		if err := e.synth.Speak(text, true); err != nil {
			log.Errorf("trigger %d: %v", t.ID, err)
			return
		}
		e.record(t, "speech", text)
		return
	}
	e.audio.StopMenu()
	e.audio.PlayMenu(ts.cue)
	e.record(t, "menu", t.Sample)
}

func allows(a config.Allowance, s GameState) bool {
	switch a {
	case config.AllowAny:
		return true
	case config.AllowInGame:
		return s == StateInGame
	default:
		return s == StateInMenu
	}
}

// expand fills {watch:ID} tokens from the most recent readings.
func (e *Engine) expand(text string) string {
	return config.ReplaceWatchTokens(text, func(id int) (string, bool) {
		ws := e.watchByID[id]
		if ws == nil || !ws.everRead {
			return "", false
		}
		return ws.val.Text(), true
	})
}

func (e *Engine) record(t *config.Trigger, channel, text string) {
	e.stats.Cues++
	if channel == "speech" {
		e.stats.Spoken++
	}
	log.Cue(t.ID, t.Name, channel)
	if text != "" {
		line := text
		if channel != "speech" {
			line = t.Name + " (" + filepath.Base(text) + ")"
		}
		log.CueText(line)
	}
	if e.jrnl != nil {
		e.jrnl.Record(journal.Entry{
			Process:   e.proc.Name(),
			TriggerID: t.ID,
			Name:      t.Name,
			Channel:   channel,
			Text:      text,
		})
	}
	e.note.CueDispatched(t, channel, text)
}
