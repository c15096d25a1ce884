package engine

import (
	"testing"
)

func TestOrderedComparisonFiresOnEdge(t *testing.T) {
	h := newHarness(t, oneTriggerProfile("less", "50"))

	steps := []struct {
		health int64
		fires  int
	}{
		{60, 0}, // first reading only seeds
		{40, 1},
		{30, 1}, // still below, no re-fire
		{60, 1},
		{45, 2}, // crossed again
	}
	for i, s := range steps {
		h.poke32(healthOff, s.health)
		h.tick()
		if got := len(h.audio.MenuPlays); got != s.fires {
			t.Fatalf("step %d (health %d): %d cues, want %d", i, s.health, got, s.fires)
		}
	}
}

func TestFirstReadingNeverFires(t *testing.T) {
	h := newHarness(t, oneTriggerProfile("less", "50"))

	// The condition is already true on the very first reading. That
	// seeds the trigger; it must not fire until the value leaves and
	// comes back.
	h.poke32(healthOff, 40)
	h.tick()
	h.tick()
	if got := len(h.audio.MenuPlays); got != 0 {
		t.Fatalf("%d cues before any edge, want 0", got)
	}

	h.poke32(healthOff, 60)
	h.tick()
	h.poke32(healthOff, 40)
	h.tick()
	if got := len(h.audio.MenuPlays); got != 1 {
		t.Errorf("%d cues after re-crossing, want 1", got)
	}
}

func TestChangedFiresPerTransition(t *testing.T) {
	for _, tt := range []struct {
		name   string
		values []int64
		fires  int
	}{
		{"steady", []int64{5, 5, 5}, 0},
		{"two changes", []int64{5, 6, 6, 7}, 2},
	} {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, oneTriggerProfile("changed", ""))
			for _, v := range tt.values {
				h.poke32(healthOff, v)
				h.tick()
			}
			if got := len(h.audio.MenuPlays); got != tt.fires {
				t.Errorf("%v: %d cues, want %d", tt.values, got, tt.fires)
			}
		})
	}
}

func TestIncreasedAndDecreased(t *testing.T) {
	values := []int64{5, 6, 7, 7, 3}
	for _, tt := range []struct {
		comparison string
		fires      int
	}{
		{"increased", 2},
		{"decreased", 1},
	} {
		t.Run(tt.comparison, func(t *testing.T) {
			h := newHarness(t, oneTriggerProfile(tt.comparison, ""))
			for _, v := range values {
				h.poke32(healthOff, v)
				h.tick()
			}
			if got := len(h.audio.MenuPlays); got != tt.fires {
				t.Errorf("%v: %d cues, want %d", values, got, tt.fires)
			}
		})
	}
}

const multiWatchProfile = `
[session]
process = "game.exe"
poll_ms = 10

[[watch]]
id = 1
name = "p1 super"
kind = "int32"
chain = [0x10]

[[watch]]
id = 4
name = "p2 super"
kind = "int32"
chain = [0x1c]

[[trigger]]
id = 1
name = "super ready"
kind = "normal"
comparison = "equal"
target = "7"
watches = [1, 4]
sample = "ready.wav"
`

func TestMultiWatchTriggerDispatchesOnce(t *testing.T) {
	h := newHarness(t, multiWatchProfile)

	steps := []struct {
		p1, p2 int64
		fires  int
	}{
		{0, 0, 0}, // seed both slots
		{7, 7, 1}, // both match, one cue
		{0, 7, 1}, // second slot still matching, no edge
		{0, 0, 1},
		{0, 7, 2}, // second slot crosses alone
	}
	for i, s := range steps {
		h.poke32(healthOff, s.p1)
		h.poke32(flagOff, s.p2)
		h.tick()
		if got := len(h.audio.MenuPlays); got != s.fires {
			t.Fatalf("step %d (%d/%d): %d cues, want %d", i, s.p1, s.p2, got, s.fires)
		}
	}
}

// depProfile has two parents sharing one dependent so the per-tick
// cache is observable: if the dependent were evaluated once per parent,
// a changed comparison could never hold for both.
const depProfile = `
[session]
process = "game.exe"
poll_ms = 10

[[watch]]
id = 1
name = "combo hits"
kind = "int32"
chain = [0x10]

[[watch]]
id = 4
name = "meter"
kind = "int32"
chain = [0x1c]

[[trigger]]
id = 1
name = "hit a"
kind = "normal"
comparison = "changed"
watches = [1]
secondary = [5]
sample = "a.wav"

[[trigger]]
id = 2
name = "hit b"
kind = "normal"
comparison = "changed"
watches = [1]
secondary = [5]
sample = "b.wav"

[[trigger]]
id = 5
name = "meter moved"
kind = "dependent"
comparison = "changed"
watches = [4]
`

func TestDependentsGateFirstSlot(t *testing.T) {
	h := newHarness(t, depProfile)

	steps := []struct {
		combo, meter int64
		fires        int
	}{
		{1, 10, 0}, // parents seed, dependent untouched
		{2, 10, 0}, // parents match, dependent seeds and fails
		{3, 11, 2}, // dependent holds, cached for both parents
		{4, 11, 2}, // dependent stale again
		{4, 12, 2}, // parents quiet, dependent not consulted
		{5, 12, 4}, // meter change from the unconsulted tick still counts
	}
	for i, s := range steps {
		h.poke32(healthOff, s.combo)
		h.poke32(flagOff, s.meter)
		h.tick()
		if got := len(h.audio.MenuPlays); got != s.fires {
			t.Fatalf("step %d (combo %d, meter %d): %d cues, want %d",
				i, s.combo, s.meter, got, s.fires)
		}
	}
}

const chainProfile = `
[session]
process = "game.exe"
poll_ms = 10

[[watch]]
id = 6
name = "round count"
kind = "int32"
chain = [0x30, 0x8]

[[trigger]]
id = 1
name = "round"
kind = "normal"
comparison = "changed"
watches = [6]
sample = "round.wav"
`

func TestUnresolvedChainSkipsWatch(t *testing.T) {
	h := newHarness(t, chainProfile)
	const heap = uintptr(0x500000)
	h.proc.PokePointer(testBase+0x30, heap)
	h.proc.PokeUint(heap+0x8, 5, 4)
	h.tick()
	if got := len(h.audio.MenuPlays); got != 0 {
		t.Fatalf("%d cues after seeding, want 0", got)
	}

	// The chain's first hop goes away, as it does between rounds. The
	// watch is skipped and keeps its cached value.
	h.proc.Clear(testBase + 0x30)
	h.tick()
	if got := len(h.audio.MenuPlays); got != 0 {
		t.Fatalf("%d cues while unresolved, want 0", got)
	}
	if h.eng.stats.ReadErrors == 0 {
		t.Error("unresolved chain did not count as a read error")
	}

	h.proc.PokePointer(testBase+0x30, heap)
	h.proc.PokeUint(heap+0x8, 6, 4)
	h.tick()
	if got := len(h.audio.MenuPlays); got != 1 {
		t.Errorf("%d cues after the chain came back, want 1", got)
	}
}
