package audio

import "sync"

// Fake is a recording Engine for tests. The normal channel is
// deterministic: DrainNormal starts one queued cue, and the next Pump
// finishes it unless Hold is set.
type Fake struct {
	mu sync.Mutex

	// Hold keeps the normal channel busy across pumps so tests can pile
	// up a queue.
	Hold bool

	Queued     []Cue
	Drained    []Cue
	MenuPlays  []Cue
	MenuStops  int
	ContVols   map[int][]float64
	ContSpeeds map[int][]float64
	StopAlls   int
	Clears     int

	queue  []Cue
	normal *Cue
	cont   map[int]Cue
	muted  bool
	closed bool
}

func NewFake() *Fake {
	return &Fake{
		ContVols:   make(map[int][]float64),
		ContSpeeds: make(map[int][]float64),
		cont:       make(map[int]Cue),
	}
}

func (f *Fake) QueueNormal(c Cue) {
	f.mu.Lock()
	f.Queued = append(f.Queued, c)
	f.queue = append(f.queue, c)
	f.mu.Unlock()
}

func (f *Fake) DrainNormal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.normal != nil || len(f.queue) == 0 {
		return
	}
	c := f.queue[0]
	f.queue = f.queue[1:]
	f.normal = &c
	f.Drained = append(f.Drained, c)
}

func (f *Fake) ClearNormal() {
	f.mu.Lock()
	f.queue = nil
	f.Clears++
	f.mu.Unlock()
}

func (f *Fake) NormalBusy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.normal != nil
}

// QueueLen reports how many cues are waiting, not counting the one
// playing.
func (f *Fake) QueueLen() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// FinishNormal ends the playing cue even when Hold is set.
func (f *Fake) FinishNormal() {
	f.mu.Lock()
	f.normal = nil
	f.mu.Unlock()
}

func (f *Fake) PlayMenu(c Cue) {
	f.mu.Lock()
	f.MenuPlays = append(f.MenuPlays, c)
	f.mu.Unlock()
}

func (f *Fake) StopMenu() {
	f.mu.Lock()
	f.MenuStops++
	f.mu.Unlock()
}

func (f *Fake) StartContinuous(id int, c Cue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.cont[id]; ok {
		return
	}
	f.cont[id] = c
}

func (f *Fake) ContinuousBusy(id int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.cont[id]
	return ok
}

func (f *Fake) SetContinuousVolume(id int, vol float64) {
	f.mu.Lock()
	f.ContVols[id] = append(f.ContVols[id], vol)
	f.mu.Unlock()
}

func (f *Fake) SetContinuousSpeed(id int, speed float64) {
	f.mu.Lock()
	f.ContSpeeds[id] = append(f.ContSpeeds[id], speed)
	f.mu.Unlock()
}

func (f *Fake) StopAllContinuous() {
	f.mu.Lock()
	f.cont = make(map[int]Cue)
	f.StopAlls++
	f.mu.Unlock()
}

func (f *Fake) Pump() {
	f.mu.Lock()
	if !f.Hold {
		f.normal = nil
	}
	f.mu.Unlock()
}

func (f *Fake) SetMuted(muted bool) {
	f.mu.Lock()
	f.muted = muted
	f.mu.Unlock()
}

func (f *Fake) Muted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.muted
}

func (f *Fake) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// LastVolume returns the most recent volume set for a continuous
// trigger, or -1 if none was ever set.
func (f *Fake) LastVolume(id int) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	vols := f.ContVols[id]
	if len(vols) == 0 {
		return -1
	}
	return vols[len(vols)-1]
}

// LastSpeed returns the most recent speed set for a continuous trigger,
// or -1 if none was ever set.
func (f *Fake) LastSpeed(id int) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	speeds := f.ContSpeeds[id]
	if len(speeds) == 0 {
		return -1
	}
	return speeds[len(speeds)-1]
}
