package config

import (
	"strings"
	"testing"

	"earshot/value"
)

const sampleProfile = `
[session]
process = "SSFIV.exe"
clock_trigger = 9
clock_max = 99

[[watch]]
id = 1
name = "p1 health"
kind = "int32"
chain = [0x006B5C9C, 0x4C, 0x28]

[[watch]]
id = 2
name = "p2 health"
kind = "int32"
chain = [0x006B5C9C, 0x50, 0x28]

[[watch]]
id = 3
name = "round clock"
kind = "int32"
chain = [0x006B5C9C, 0x60]

[[watch]]
id = 4
name = "p1 character"
kind = "utf16"
chain = [0x006B5C9C, 0x70, 0x0]
active = false

[[trigger]]
id = 1
name = "p1 low health"
kind = "normal"
comparison = "less"
allowance = "in_game"
watches = [1]
secondary = [5]
target = "200"
sample = "sounds/low_health.wav"
volume = 0.8

[[trigger]]
id = 5
name = "p2 still standing"
kind = "dependent"
comparison = "greater"
watches = [2]
target = "0"

[[trigger]]
id = 7
name = "distance hum"
kind = "continuous"
comparison = "volume_descending"
watches = [1, 2]
target = "1000"
sample = "sounds/hum.wav"

[[trigger]]
id = 8
name = "duck the hum"
kind = "modifier"
comparison = "equal"
watches = [2]
secondary = [7]
target = "0"
volume = 0.5

[[trigger]]
id = 9
name = "clock"
kind = "normal"
comparison = "changed"
watches = [3]
sample = "sounds/tick.wav"
`

func TestParseProfile(t *testing.T) {
	g, err := Parse(sampleProfile, "/profiles/ssfiv")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := g.Session.PollMs; got != defaultPollMs {
		t.Errorf("poll_ms default: got %d, want %d", got, defaultPollMs)
	}
	if got := g.Session.ClockMs; got != defaultClockMs {
		t.Errorf("clock_ms default: got %d, want %d", got, defaultClockMs)
	}
	w := g.Watch(1)
	if w == nil || w.Kind != value.Int32 {
		t.Fatalf("watch 1: got %+v", w)
	}
	if len(w.Chain) != 3 || w.Chain[0] != 0x006B5C9C {
		t.Errorf("watch 1 chain: got %v", w.Chain)
	}
	if !w.IsActive() {
		t.Error("watch 1 should default to active")
	}
	if g.Watch(4).IsActive() {
		t.Error("watch 4 was disabled in the profile")
	}
	tr := g.Trigger(1)
	if tr.Speed != 1 {
		t.Errorf("speed default: got %v, want 1", tr.Speed)
	}
	if tr.Volume != 0.8 {
		t.Errorf("volume: got %v, want 0.8", tr.Volume)
	}
	if v, _ := tr.TargetValue().Int(); v != 200 {
		t.Errorf("target: got %d, want 200", v)
	}
	if got := g.SamplePath(tr); got != "/profiles/ssfiv/sounds/low_health.wav" {
		t.Errorf("sample path: got %q", got)
	}
	if f, _ := g.Trigger(7).TargetValue().Float(); f != 1000 {
		t.Errorf("max range: got %v, want 1000", f)
	}
	if !g.Trigger(9).IsClock(g) {
		t.Error("trigger 9 should be the clock")
	}
}

func TestValidateRejects(t *testing.T) {
	for _, tt := range []struct {
		name string
		edit func(string) string
		want string
	}{
		{
			name: "unknown key",
			edit: func(p string) string { return p + "\n[[trigger]]\nid = 10\nbogus = 1\n" },
			want: "unknown key",
		},
		{
			name: "missing process",
			edit: func(p string) string { return strings.Replace(p, `process = "SSFIV.exe"`, "", 1) },
			want: "process name missing",
		},
		{
			name: "duplicate watch id",
			edit: func(p string) string { return strings.Replace(p, "id = 2", "id = 1", 1) },
			want: "used twice",
		},
		{
			name: "unknown watch reference",
			edit: func(p string) string { return strings.Replace(p, "watches = [1]\nsecondary", "watches = [42]\nsecondary", 1) },
			want: "unknown watch 42",
		},
		{
			name: "secondary not dependent",
			edit: func(p string) string { return strings.Replace(p, "secondary = [5]", "secondary = [9]", 1) },
			want: "want dependent",
		},
		{
			name: "continuous with one watch",
			edit: func(p string) string { return strings.Replace(p, "watches = [1, 2]", "watches = [1]", 1) },
			want: "exactly two watches",
		},
		{
			name: "continuous on text watch",
			edit: func(p string) string { return strings.Replace(p, "watches = [1, 2]", "watches = [1, 4]", 1) },
			want: "not numeric",
		},
		{
			name: "continuous zero range",
			edit: func(p string) string { return strings.Replace(p, `target = "1000"`, `target = "0"`, 1) },
			want: "max range must be positive",
		},
		{
			name: "modifier target not continuous",
			edit: func(p string) string { return strings.Replace(p, "secondary = [7]", "secondary = [5]", 1) },
			want: "want continuous",
		},
		{
			name: "bad target literal",
			edit: func(p string) string { return strings.Replace(p, `target = "200"`, `target = "lots"`, 1) },
			want: "target",
		},
		{
			name: "ordered comparison on text",
			edit: func(p string) string {
				return p + "\n[[trigger]]\nid = 11\nkind = \"normal\"\ncomparison = \"less\"\nwatches = [4]\ntarget = \"RYU\"\nsample = \"a.wav\"\n"
			},
			want: "needs a numeric watch",
		},
		{
			name: "speech without text",
			edit: func(p string) string {
				return p + "\n[[trigger]]\nid = 11\nkind = \"normal\"\ncomparison = \"changed\"\nwatches = [1]\nspeech = true\n"
			},
			want: "without text",
		},
		{
			name: "clock trigger missing",
			edit: func(p string) string { return strings.Replace(p, "clock_trigger = 9", "clock_trigger = 99", 1) },
			want: "unknown clock trigger",
		},
		{
			name: "negative speed",
			edit: func(p string) string { return strings.Replace(p, "volume = 0.8", "speed = -1.0", 1) },
			want: "speed must be positive",
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.edit(sampleProfile), "")
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got %q, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestKindNamesRoundTrip(t *testing.T) {
	for _, tt := range []struct {
		text string
		kind TriggerKind
	}{
		{"normal", TriggerNormal},
		{"continuous", TriggerContinuous},
		{"modifier", TriggerModifier},
		{"dependent", TriggerDependent},
	} {
		var k TriggerKind
		if err := k.UnmarshalText([]byte(tt.text)); err != nil {
			t.Fatalf("%s: %v", tt.text, err)
		}
		if k != tt.kind || k.String() != tt.text {
			t.Errorf("%s: got %v", tt.text, k)
		}
	}
	var c CompareKind
	if err := c.UnmarshalText([]byte("volume_descending")); err != nil {
		t.Fatal(err)
	}
	if !c.IsContinuous() || !c.DrivesVolume() || c.Ascending() {
		t.Errorf("volume_descending misclassified: %v", c)
	}
	if err := c.UnmarshalText([]byte("louder")); err == nil {
		t.Error("expected an error for unknown comparison")
	}
}
