package engine

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestClockWrapStaysInMenu(t *testing.T) {
	h := newHarness(t, clockProfile)

	// A countdown clock hitting zero and snapping back to its maximum
	// straddles two rounds. None of those readings may count as play.
	for _, c := range []int64{97, 98, 99, 0, 1, 2} {
		h.poke32(clockOff, c)
		h.tick()
		if c == 0 && h.eng.state != StateInMenu {
			t.Fatalf("state at clock 0 = %v, want in_menu", h.eng.state)
		}
	}

	want := []string{
		"in_menu->in_game@98",
		"in_game->in_menu@99",
		"in_menu->in_game@2",
	}
	if !reflect.DeepEqual(h.note.transitions, want) {
		t.Errorf("transitions = %v, want %v", h.note.transitions, want)
	}

	// Every suppressed reading also flushes the normal queue: the first
	// reading, the wrap to 99, the zero and the tick after it.
	if h.audio.Clears != 4 {
		t.Errorf("queue clears = %d, want 4", h.audio.Clears)
	}
}

func TestFrozenClockMeansMenu(t *testing.T) {
	h := newHarness(t, clockProfile)
	h.enterGame()

	// Same reading twice in a row: paused or on a menu.
	h.tick()
	if h.eng.state != StateInMenu {
		t.Fatalf("state = %v, want in_menu", h.eng.state)
	}
	last := h.note.transitions[len(h.note.transitions)-1]
	if !strings.HasPrefix(last, "in_game->in_menu@") {
		t.Errorf("last transition = %q, want in_game->in_menu", last)
	}
}

func TestClockChecksThrottled(t *testing.T) {
	profile := strings.Replace(clockProfile, "clock_ms = 10", "clock_ms = 250", 1)
	h := newHarness(t, profile)

	h.poke32(clockOff, 50)
	h.eng.tick(h.now) // first check, classified as menu

	h.poke32(clockOff, 51)
	h.now = h.now.Add(100 * time.Millisecond)
	h.eng.tick(h.now) // inside the interval, clock not consulted
	if len(h.note.transitions) != 0 {
		t.Fatalf("transition inside clock interval: %v", h.note.transitions)
	}

	h.now = h.now.Add(200 * time.Millisecond)
	h.eng.tick(h.now)
	want := []string{"in_menu->in_game@51"}
	if !reflect.DeepEqual(h.note.transitions, want) {
		t.Errorf("transitions = %v, want %v", h.note.transitions, want)
	}
}
