package engine

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"earshot/audio"
	"earshot/config"
	"earshot/process"
	"earshot/samples"
	"earshot/speech"
)

const testBase = 0x400000

// Offsets the test profiles point their chains at.
const (
	healthOff = 0x10
	distAOff  = 0x14
	distBOff  = 0x18
	flagOff   = 0x1c
	clockOff  = 0x20
)

// clockProfile is the smallest profile with a working round clock: one
// gameplay trigger gated to live rounds plus the clock trigger itself.
const clockProfile = `
[session]
process = "game.exe"
poll_ms = 10
clock_ms = 10
clock_trigger = 9
clock_max = 99

[[watch]]
id = 1
name = "health"
kind = "int32"
chain = [0x10]

[[watch]]
id = 9
name = "round clock"
kind = "int32"
chain = [0x20]

[[trigger]]
id = 1
name = "score up"
kind = "normal"
comparison = "greater"
target = "50"
allowance = "in_game"
watches = [1]
sample = "up.wav"

[[trigger]]
id = 9
name = "clock"
kind = "normal"
comparison = "changed"
watches = [9]
`

// contProfile drives a continuous spacing loop from two position
// watches, with a modifier keyed to a meter flag.
const contProfile = `
[session]
process = "game.exe"
poll_ms = 10
clock_ms = 10
clock_trigger = 9
clock_max = 99

[[watch]]
id = 2
name = "p1 x"
kind = "int32"
chain = [0x14]

[[watch]]
id = 3
name = "p2 x"
kind = "int32"
chain = [0x18]

[[watch]]
id = 4
name = "ex meter"
kind = "int32"
chain = [0x1c]

[[watch]]
id = 9
name = "round clock"
kind = "int32"
chain = [0x20]

[[trigger]]
id = 7
name = "spacing"
kind = "continuous"
comparison = "volume_descending"
target = "20"
watches = [2, 3]
sample = "hum.wav"

[[trigger]]
id = 8
name = "ex ready"
kind = "modifier"
comparison = "equal"
target = "1"
watches = [4]
secondary = [7]
volume = 0.5
speed = 2.0

[[trigger]]
id = 9
name = "clock"
kind = "normal"
comparison = "changed"
watches = [9]
`

// oneTriggerProfile builds a clockless profile with a single sample
// trigger on the health watch. Without a clock the engine stays in the
// menu state, so cues land on the menu channel.
func oneTriggerProfile(comparison, target string) string {
	p := `
[session]
process = "game.exe"
poll_ms = 10

[[watch]]
id = 1
name = "health"
kind = "int32"
chain = [0x10]

[[trigger]]
id = 1
name = "cue"
kind = "normal"
comparison = "CMP"
watches = [1]
sample = "cue.wav"
TARGET
`
	line := ""
	if target != "" {
		line = fmt.Sprintf("target = %q", target)
	}
	p = strings.Replace(p, "CMP", comparison, 1)
	return strings.Replace(p, "TARGET", line, 1)
}

// recordNotify captures session events for assertions.
type recordNotify struct {
	transitions []string
	cues        []string
	lost        int
}

func (n *recordNotify) StateChanged(from, to GameState, clock int64) {
	n.transitions = append(n.transitions, fmt.Sprintf("%s->%s@%d", from, to, clock))
}

func (n *recordNotify) CueDispatched(t *config.Trigger, channel, text string) {
	n.cues = append(n.cues, fmt.Sprintf("%d/%s", t.ID, channel))
}

func (n *recordNotify) ConnectionLost() {
	n.lost++
}

type harness struct {
	t     *testing.T
	proc  *process.FakeProcess
	audio *audio.Fake
	synth *speech.Fake
	note  *recordNotify
	eng   *Engine

	now   time.Time
	clock int64
}

func newHarness(t *testing.T, profile string) *harness {
	t.Helper()
	g, err := config.Parse(profile, "")
	if err != nil {
		t.Fatalf("parse profile: %v", err)
	}
	bank := samples.NewBank()
	for i := range g.Triggers {
		tr := &g.Triggers[i]
		if tr.Sample != "" {
			bank.Put(g.SamplePath(tr), samples.Tone(440, 20*time.Millisecond, audio.MixRate))
		}
	}
	h := &harness{
		t:     t,
		proc:  process.NewFake(testBase),
		audio: audio.NewFake(),
		synth: speech.NewFake(true, nil),
		note:  &recordNotify{},
		now:   time.Unix(1000, 0),
	}
	h.eng, err = New(Options{
		Game:    g,
		Process: h.proc,
		Audio:   h.audio,
		Speech:  h.synth,
		Bank:    bank,
		Notify:  h.note,
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return h
}

// tick advances time by one poll interval and runs a pass.
func (h *harness) tick() {
	h.now = h.now.Add(time.Duration(h.eng.game.Session.PollMs) * time.Millisecond)
	h.eng.tick(h.now)
}

func (h *harness) poke32(off int64, v int64) {
	h.proc.PokeUint(testBase+uintptr(off), uint64(uint32(v)), 4)
}

// enterGame walks the clock twice so the engine sees a live round. The
// first reading is always classified as menu because the previous clock
// is still zero.
func (h *harness) enterGame() {
	h.t.Helper()
	h.clock = 100
	h.poke32(clockOff, h.clock)
	h.tick()
	h.clock++
	h.poke32(clockOff, h.clock)
	h.tick()
	if h.eng.state != StateInGame {
		h.t.Fatal("engine did not enter in_game")
	}
}

// tickInGame keeps the clock moving so the state stays in_game.
func (h *harness) tickInGame() {
	h.clock++
	h.poke32(clockOff, h.clock)
	h.tick()
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestNewRejects(t *testing.T) {
	g, err := config.Parse(oneTriggerProfile("less", "50"), "")
	if err != nil {
		t.Fatalf("parse profile: %v", err)
	}
	proc := process.NewFake(testBase)
	au := audio.NewFake()

	for _, tt := range []struct {
		name string
		o    Options
		want string
	}{
		{"nil game", Options{Process: proc, Audio: au}, "needs a profile"},
		{"nil process", Options{Game: g, Audio: au}, "needs a profile"},
		{"nil audio", Options{Game: g, Process: proc}, "needs a profile"},
		{"no bank", Options{Game: g, Process: proc, Audio: au}, "no sample bank"},
		{"missing sample", Options{Game: g, Process: proc, Audio: au, Bank: samples.NewBank()}, "not loaded"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.o)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("New() error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestRunStopsWhenCancelled(t *testing.T) {
	h := newHarness(t, oneTriggerProfile("less", "50"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := h.eng.Run(ctx); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	if got := h.eng.Stats().Ticks; got != 1 {
		t.Errorf("ticks = %d, want 1", got)
	}
}

type panicNotify struct{ noNotify }

func (panicNotify) ConnectionLost() {
	panic("boom")
}

func TestRunTurnsPanicIntoError(t *testing.T) {
	g, err := config.Parse(oneTriggerProfile("less", "50"), "")
	if err != nil {
		t.Fatalf("parse profile: %v", err)
	}
	proc := process.NewFake(testBase)
	proc.SetAlive(false)
	bank := samples.NewBank()
	bank.Put("cue.wav", samples.Tone(440, 20*time.Millisecond, audio.MixRate))
	eng, err := New(Options{
		Game:    g,
		Process: proc,
		Audio:   audio.NewFake(),
		Bank:    bank,
		Notify:  panicNotify{},
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	err = eng.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "poll worker") {
		t.Fatalf("Run() = %v, want poll worker error", err)
	}
}

func TestConnectionLossForcesMenu(t *testing.T) {
	h := newHarness(t, contProfile)
	h.enterGame()
	h.poke32(distAOff, 10)
	h.poke32(distBOff, 0)
	h.tickInGame()
	if !h.audio.ContinuousBusy(7) {
		t.Fatal("continuous loop not running")
	}

	h.proc.SetAlive(false)
	h.tick()

	if h.eng.Connected() {
		t.Error("still connected after process died")
	}
	if h.note.lost != 1 {
		t.Errorf("lost notifications = %d, want 1", h.note.lost)
	}
	if h.eng.state != StateInMenu {
		t.Errorf("state = %v, want in_menu", h.eng.state)
	}
	if h.audio.StopAlls != 1 {
		t.Errorf("continuous stops = %d, want 1", h.audio.StopAlls)
	}
	if h.audio.Clears == 0 {
		t.Error("queued cues were not cleared")
	}

	// The session keeps ticking without a second notification.
	h.tick()
	if h.note.lost != 1 {
		t.Errorf("lost notifications after extra tick = %d, want 1", h.note.lost)
	}
}

func TestGreaterFiresOnCrossings(t *testing.T) {
	h := newHarness(t, clockProfile)
	h.enterGame()

	readings := []int64{10, 60, 70, 40, 60}
	want := []int{0, 1, 1, 1, 2}
	for i, v := range readings {
		h.poke32(healthOff, v)
		h.tickInGame()
		if got := len(h.audio.Queued); got != want[i] {
			t.Fatalf("reading %d (health %d): %d cues queued, want %d", i+1, v, got, want[i])
		}
	}
	if got := len(h.audio.Drained); got != 2 {
		t.Errorf("drained %d cues, want 2", got)
	}
	if got := h.eng.stats.Cues; got != 2 {
		t.Errorf("cue count = %d, want 2", got)
	}
}
