//go:build !windows && !linux && !darwin

package speech

import "fmt"

func New() (Synthesizer, error) {
	return nil, fmt.Errorf("speech output is not supported on this platform")
}
