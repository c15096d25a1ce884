// Package audio plays cue sounds. A software mixer owns three kinds of
// voice: a menu voice that always interrupts, a normal voice fed from a
// queue one cue at a time, and looping continuous voices whose volume
// and speed are steered from outside while they play.
package audio

import "earshot/samples"

const (
	// MixRate is the output sample rate. Everything is resampled to it.
	MixRate = 48000
	// MixChannels is stereo; mono samples are sent to both sides.
	MixChannels = 2
)

// Cue is one playable sound with its baseline volume and speed.
type Cue struct {
	Sample *samples.Sample
	Volume float64
	Speed  float64
}

// Engine is what the poll loop talks to. The real implementation is the
// Mixer; tests use the Fake.
type Engine interface {
	// QueueNormal appends a one-shot cue to the normal channel.
	QueueNormal(c Cue)
	// DrainNormal starts the next queued cue if the channel is idle.
	// Called once per poll tick, so queued cues play one at a time.
	DrainNormal()
	// ClearNormal drops queued cues without touching the one playing.
	ClearNormal()
	// NormalBusy reports whether a normal cue is still sounding.
	NormalBusy() bool

	// PlayMenu interrupts whatever the menu channel is doing.
	PlayMenu(c Cue)
	StopMenu()

	// StartContinuous begins looping a cue under the given trigger id.
	// No-op if that id is already looping.
	StartContinuous(id int, c Cue)
	ContinuousBusy(id int) bool
	SetContinuousVolume(id int, vol float64)
	SetContinuousSpeed(id int, speed float64)
	StopAllContinuous()

	// Pump advances engines that have no audio thread of their own.
	// The mixer's device callback does the work, so for it this is a
	// no-op.
	Pump()

	SetMuted(muted bool)
	Muted() bool

	Close() error
}

// DeviceInfo names one playback device.
type DeviceInfo struct {
	ID   string // opaque platform-specific identifier
	Name string
}
