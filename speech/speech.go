// Package speech routes spoken cues through the platform's speech
// engine. Spoken text mirrors what a screen reader user already has
// running, so speech never blocks the poll loop.
package speech

// Synthesizer speaks cue text. The real implementations live in the
// platform files; tests use the Fake.
type Synthesizer interface {
	Name() string
	// Available reports whether speech output can actually reach the
	// player. Non-interrupting speech is skipped when it cannot.
	Available() bool
	// Speak queues text asynchronously. With interrupt set, anything
	// still being spoken is cut off first.
	Speak(text string, interrupt bool) error
	Close() error
}
