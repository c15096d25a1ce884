package speech

import "sync"

// Utterance is one recorded Speak call.
type Utterance struct {
	Text      string
	Interrupt bool
}

// Fake records speech for tests.
type Fake struct {
	mu sync.Mutex

	available bool
	err       error
	Spoken    []Utterance
}

func NewFake(available bool, err error) *Fake {
	return &Fake{available: available, err: err}
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Available() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.available
}

func (f *Fake) SetAvailable(available bool) {
	f.mu.Lock()
	f.available = available
	f.mu.Unlock()
}

func (f *Fake) Speak(text string, interrupt bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.Spoken = append(f.Spoken, Utterance{Text: text, Interrupt: interrupt})
	return nil
}

// Last returns the most recent utterance, or a zero one.
func (f *Fake) Last() Utterance {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Spoken) == 0 {
		return Utterance{}
	}
	return f.Spoken[len(f.Spoken)-1]
}

func (f *Fake) Close() error { return nil }
