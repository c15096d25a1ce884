package hotkey

import (
	"sync/atomic"
	"time"
)

// Mute turns the one key combination into both a latch and a momentary
// silence control. A tap shorter than longPress latches the mute until
// the next tap; a longer hold mutes for exactly as long as the key
// stays down.
type Mute struct {
	events  chan bool
	latched atomic.Bool
}

// NewMute starts the state machine over an already registered hotkey.
func NewMute(hk Hotkey, longPress time.Duration) *Mute {
	m := &Mute{events: make(chan bool, 1)}
	go m.run(hk, longPress)
	return m
}

// Events signals every mute state change the keys ask for.
func (m *Mute) Events() <-chan bool { return m.events }

// IsLatched reports whether a tap pinned the mute on.
func (m *Mute) IsLatched() bool { return m.latched.Load() }

func (m *Mute) run(hk Hotkey, longPress time.Duration) {
	for {
		// Any press mutes immediately; the hold length decides what
		// release does.
		<-hk.Keydown()
		m.send(true)
		timer := time.NewTimer(longPress)
		select {
		case <-timer.C:
			// Held past the threshold: unmute the moment the key
			// comes up.
			<-hk.Keyup()
			m.send(false)
			continue
		case <-hk.Keyup():
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			m.latched.Store(true)
		}

		// Latched: the next press releases it on its way up, short or
		// long.
		<-hk.Keydown()
		<-hk.Keyup()
		m.latched.Store(false)
		m.send(false)
	}
}

func (m *Mute) send(muted bool) {
	select {
	case m.events <- muted:
	default:
	}
}
