// Package clipboard puts cue text on the system clipboard so players
// can paste what they just heard into chat or notes.
package clipboard

import cb "github.com/atotto/clipboard"

func Read() (string, error) {
	return cb.ReadAll()
}

func Copy(text string) error {
	return cb.WriteAll(text)
}
