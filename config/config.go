// Package config loads and validates game profiles. A profile is a TOML
// file describing one target game: the process to attach to, the memory
// watches to poll, and the triggers that turn watched values into sound.
package config

import (
	"fmt"
	"path/filepath"

	"earshot/process"
	"earshot/value"
)

// TriggerKind selects how a trigger is evaluated each tick.
type TriggerKind uint8

const (
	// TriggerNormal fires a one-shot cue when its comparison transitions
	// from not matching to matching.
	TriggerNormal TriggerKind = iota
	// TriggerContinuous drives a looping sound's volume or speed from the
	// distance between two watched values.
	TriggerContinuous
	// TriggerModifier scales a continuous trigger's playback while its own
	// condition holds.
	TriggerModifier
	// TriggerDependent never plays anything itself; it gates a normal
	// trigger that lists it as a secondary.
	TriggerDependent
)

var triggerKindNames = map[TriggerKind]string{
	TriggerNormal:     "normal",
	TriggerContinuous: "continuous",
	TriggerModifier:   "modifier",
	TriggerDependent:  "dependent",
}

func (k TriggerKind) String() string {
	if s, ok := triggerKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("TriggerKind(%d)", k)
}

func (k *TriggerKind) UnmarshalText(b []byte) error {
	for kind, name := range triggerKindNames {
		if string(b) == name {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown trigger kind %q", b)
}

// CompareKind is the comparison a trigger applies to its watched value.
type CompareKind uint8

const (
	CompareEqual CompareKind = iota
	CompareNotEqual
	CompareLess
	CompareLessEqual
	CompareGreater
	CompareGreaterEqual
	// CompareChanged matches whenever the textual form of the value
	// differs from the previous reading.
	CompareChanged
	CompareIncreased
	CompareDecreased
	// Continuous-only kinds. Descending scales the axis with the
	// distance between the two watches over the max range; ascending
	// with its complement, so the cue grows as the watches close in.
	CompareVolumeAscending
	CompareVolumeDescending
	CompareSpeedAscending
	CompareSpeedDescending
)

var compareKindNames = map[CompareKind]string{
	CompareEqual:            "equal",
	CompareNotEqual:         "not_equal",
	CompareLess:             "less",
	CompareLessEqual:        "less_equal",
	CompareGreater:          "greater",
	CompareGreaterEqual:     "greater_equal",
	CompareChanged:          "changed",
	CompareIncreased:        "increased",
	CompareDecreased:        "decreased",
	CompareVolumeAscending:  "volume_ascending",
	CompareVolumeDescending: "volume_descending",
	CompareSpeedAscending:   "speed_ascending",
	CompareSpeedDescending:  "speed_descending",
}

func (k CompareKind) String() string {
	if s, ok := compareKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("CompareKind(%d)", k)
}

func (k *CompareKind) UnmarshalText(b []byte) error {
	for kind, name := range compareKindNames {
		if string(b) == name {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown comparison %q", b)
}

// IsContinuous reports whether k is one of the distance-driven kinds
// reserved for continuous triggers.
func (k CompareKind) IsContinuous() bool {
	return k >= CompareVolumeAscending
}

// DrivesVolume reports whether a continuous kind controls volume rather
// than playback speed.
func (k CompareKind) DrivesVolume() bool {
	return k == CompareVolumeAscending || k == CompareVolumeDescending
}

// Ascending reports whether a continuous kind grows with distance.
func (k CompareKind) Ascending() bool {
	return k == CompareVolumeAscending || k == CompareSpeedAscending
}

// NeedsTarget reports whether the comparison consumes the trigger's
// target literal. Changed/increased/decreased only look at the previous
// reading.
func (k CompareKind) NeedsTarget() bool {
	switch k {
	case CompareChanged, CompareIncreased, CompareDecreased:
		return false
	}
	return true
}

// Allowance restricts a trigger to a game state.
type Allowance uint8

const (
	AllowAny Allowance = iota
	AllowInGame
	AllowInMenu
)

var allowanceNames = map[Allowance]string{
	AllowAny:    "any",
	AllowInGame: "in_game",
	AllowInMenu: "in_menu",
}

func (a Allowance) String() string {
	if s, ok := allowanceNames[a]; ok {
		return s
	}
	return fmt.Sprintf("Allowance(%d)", a)
}

func (a *Allowance) UnmarshalText(b []byte) error {
	for al, name := range allowanceNames {
		if string(b) == name {
			*a = al
			return nil
		}
	}
	return fmt.Errorf("unknown allowance %q", b)
}

// Session holds the per-profile engine settings.
type Session struct {
	// Process is the executable name to attach to, matched without
	// regard to case or a trailing ".exe".
	Process string `toml:"process"`
	// PollMs is the tick interval. Defaults to 10.
	PollMs int `toml:"poll_ms"`
	// ClockMs throttles game-state checks; the clock watch is compared
	// at most once per this interval. Defaults to 250.
	ClockMs int `toml:"clock_ms"`
	// ClockTrigger names the trigger whose first watch is the in-game
	// clock. Zero means the profile has no clock and triggers are gated
	// only by an "any" allowance.
	ClockTrigger int `toml:"clock_trigger"`
	// ClockMax is the value the clock wraps to at the start of a round,
	// for games that reset upward (99, 60). Zero disables the check.
	ClockMax int64 `toml:"clock_max"`
}

// Watch describes one pointer chain into the target process.
type Watch struct {
	ID   int    `toml:"id"`
	Name string `toml:"name"`
	// Kind is the type decoded at the resolved address.
	Kind value.Kind `toml:"kind"`
	// Chain is the module-relative offset followed by pointer hops.
	Chain process.Chain `toml:"chain"`
	// Active may be set false to keep a watch in the profile without
	// polling it. Absent means active.
	Active *bool `toml:"active"`
	// Chars caps how many characters a text watch reads. Zero uses the
	// built-in limit.
	Chars int `toml:"chars"`
}

// IsActive reports whether the watch should be polled.
func (w *Watch) IsActive() bool {
	return w.Active == nil || *w.Active
}

// ReadLen is how many bytes one reading of this watch needs. Text
// watches read their configured character cap; UTF-16 is two bytes
// per character.
func (w *Watch) ReadLen() int {
	if !w.Kind.IsText() {
		return w.Kind.Size()
	}
	chars := w.Chars
	if chars == 0 {
		chars = value.MaxTextChars
	}
	if w.Kind == value.UTF16 {
		return chars * 2
	}
	return chars
}

// Trigger describes one rule over watched values.
type Trigger struct {
	ID         int         `toml:"id"`
	Name       string      `toml:"name"`
	Kind       TriggerKind `toml:"kind"`
	Comparison CompareKind `toml:"comparison"`
	Allowance  Allowance   `toml:"allowance"`
	// Watches lists the watch ids this trigger reads. Normal, modifier
	// and dependent triggers use one; continuous triggers use two.
	Watches []int `toml:"watches"`
	// Secondary lists other trigger ids. For a normal trigger these are
	// dependent triggers that must all hold before it fires; for a
	// modifier it is the single continuous trigger it scales.
	Secondary []int `toml:"secondary"`
	// Target is the comparison literal, parsed against the first
	// watch's kind at load time. Continuous triggers read it as the
	// maximum expected range between their two watches.
	Target string `toml:"target"`
	// Sample is the sound file played on a match, relative to the
	// profile file unless absolute. Ignored when Speech is set.
	Sample string `toml:"sample"`
	// Volume and Speed are the playback baseline. Zero means 1.0; for a
	// modifier they are the factors applied to its continuous target.
	Volume float64 `toml:"volume"`
	Speed  float64 `toml:"speed"`
	// Speech routes the cue through the screen reader instead of a
	// sample. Text may reference watches as {watch:ID}.
	Speech bool   `toml:"speech"`
	Text   string `toml:"text"`

	target value.Value
}

// TargetValue returns the parsed target literal. Only valid after the
// profile passed Validate.
func (t *Trigger) TargetValue() value.Value {
	return t.target
}

// IsClock reports whether t is the profile's clock trigger.
func (t *Trigger) IsClock(g *Game) bool {
	return g.Session.ClockTrigger != 0 && t.ID == g.Session.ClockTrigger
}

// Game is one loaded profile.
type Game struct {
	Session  Session   `toml:"session"`
	Watches  []Watch   `toml:"watch"`
	Triggers []Trigger `toml:"trigger"`

	dir       string
	watchByID map[int]*Watch
	trigByID  map[int]*Trigger
}

// Dir is the directory the profile was loaded from.
func (g *Game) Dir() string {
	return g.dir
}

// Watch returns the watch with the given id, or nil.
func (g *Game) Watch(id int) *Watch {
	return g.watchByID[id]
}

// Trigger returns the trigger with the given id, or nil.
func (g *Game) Trigger(id int) *Trigger {
	return g.trigByID[id]
}

// SamplePath resolves a trigger's sample relative to the profile.
func (g *Game) SamplePath(t *Trigger) string {
	if t.Sample == "" || filepath.IsAbs(t.Sample) {
		return t.Sample
	}
	return filepath.Join(g.dir, t.Sample)
}
