// Package hotkey watches the global mute combination, Ctrl+Shift+M.
// It must work while the game has keyboard focus, so registration is
// system-wide rather than terminal input.
package hotkey

type Hotkey interface {
	Register() error
	Unregister()
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}
