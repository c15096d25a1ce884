package hotkey

import (
	"testing"
	"time"
)

func waitMute(t *testing.T, m *Mute, want bool) {
	t.Helper()
	select {
	case got := <-m.Events():
		if got != want {
			t.Fatalf("mute event = %v, want %v", got, want)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for mute event")
	}
}

func TestMuteHold(t *testing.T) {
	fk := NewFake()
	threshold := 50 * time.Millisecond
	m := NewMute(fk, threshold)

	fk.SimKeydown()
	waitMute(t, m, true)

	time.Sleep(threshold + 20*time.Millisecond)
	if m.IsLatched() {
		t.Error("long hold must not latch")
	}
	fk.SimKeyup()
	waitMute(t, m, false)
}

func TestMuteTapLatches(t *testing.T) {
	fk := NewFake()
	m := NewMute(fk, 200*time.Millisecond)

	fk.SimKeydown()
	waitMute(t, m, true)
	fk.SimKeyup() // release before threshold latches the mute
	time.Sleep(10 * time.Millisecond)
	if !m.IsLatched() {
		t.Error("short tap did not latch")
	}

	// No unmute until the next tap.
	select {
	case got := <-m.Events():
		t.Fatalf("unexpected event %v while latched", got)
	case <-time.After(50 * time.Millisecond):
	}

	fk.SimKeydown()
	fk.SimKeyup()
	waitMute(t, m, false)
}

func TestMuteMultipleCycles(t *testing.T) {
	fk := NewFake()
	threshold := 50 * time.Millisecond
	m := NewMute(fk, threshold)

	// Cycle 1: hold.
	fk.SimKeydown()
	waitMute(t, m, true)
	time.Sleep(threshold + 20*time.Millisecond)
	fk.SimKeyup()
	waitMute(t, m, false)

	// Cycle 2: tap latch, tap release.
	fk.SimKeydown()
	waitMute(t, m, true)
	fk.SimKeyup()
	time.Sleep(20 * time.Millisecond) // let the state machine settle
	fk.SimKeydown()
	fk.SimKeyup()
	waitMute(t, m, false)

	// Cycle 3: hold again.
	fk.SimKeydown()
	waitMute(t, m, true)
	time.Sleep(threshold + 20*time.Millisecond)
	fk.SimKeyup()
	waitMute(t, m, false)
}
