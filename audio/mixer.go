package audio

import (
	"sync"

	"earshot/samples"
)

// sink is the platform half: it pulls interleaved stereo int16 frames
// at MixRate from the mixer and pushes them at the default output
// device.
type sink interface {
	start(pull func(out []int16)) error
	stop()
}

// voice is one sound in flight. pos is a fractional frame index into
// the sample; each output frame advances it by ratio*speed, with linear
// interpolation in between.
type voice struct {
	sample *samples.Sample
	ratio  float64
	pos    float64
	vol    float64
	speed  float64
	loop   bool
}

func newVoice(c Cue, loop bool) *voice {
	return &voice{
		sample: c.Sample,
		ratio:  float64(c.Sample.Rate) / MixRate,
		vol:    c.Volume,
		speed:  c.Speed,
		loop:   loop,
	}
}

// frame returns the interpolated stereo frame at the current position
// and advances. ok is false once a one-shot voice is exhausted.
func (v *voice) frame() (l, r float64, ok bool) {
	frames := v.sample.Frames()
	if frames == 0 {
		return 0, 0, false
	}
	if v.pos >= float64(frames) {
		if !v.loop {
			return 0, 0, false
		}
		for v.pos >= float64(frames) {
			v.pos -= float64(frames)
		}
	}
	i := int(v.pos)
	frac := v.pos - float64(i)
	j := i + 1
	if j >= frames {
		if v.loop {
			j = 0
		} else {
			j = i
		}
	}
	ch := v.sample.Channels
	pcm := v.sample.PCM
	at := func(f, c int) float64 {
		if c >= ch {
			c = ch - 1
		}
		return float64(pcm[f*ch+c]) / 32768
	}
	l = (at(i, 0)*(1-frac) + at(j, 0)*frac) * v.vol
	r = (at(i, 1)*(1-frac) + at(j, 1)*frac) * v.vol
	v.pos += v.ratio * v.speed
	return l, r, true
}

// Mixer is the real audio engine. All voice state is guarded by mu;
// the device callback and the poll loop both take it, briefly.
type Mixer struct {
	mu     sync.Mutex
	out    sink
	muted  bool
	menu   *voice
	normal *voice
	queue  []Cue
	cont   map[int]*voice
}

// NewMixer opens the default output device and starts mixing silence.
func NewMixer() (*Mixer, error) {
	m := &Mixer{cont: make(map[int]*voice)}
	out, err := newSink()
	if err != nil {
		return nil, err
	}
	m.out = out
	if err := out.start(m.pull); err != nil {
		return nil, err
	}
	return m, nil
}

// pull fills one device buffer. Finished one-shot voices are dropped
// here, which is what NormalBusy observes.
func (m *Mixer) pull(out []int16) {
	for i := range out {
		out[i] = 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	frames := len(out) / MixChannels
	for f := 0; f < frames; f++ {
		var l, r float64
		if m.menu != nil {
			vl, vr, ok := m.menu.frame()
			if !ok {
				m.menu = nil
			}
			l += vl
			r += vr
		}
		if m.normal != nil {
			vl, vr, ok := m.normal.frame()
			if !ok {
				m.normal = nil
			}
			l += vl
			r += vr
		}
		for _, v := range m.cont {
			vl, vr, _ := v.frame()
			l += vl
			r += vr
		}
		if m.muted {
			continue
		}
		out[f*MixChannels] = clip(l)
		out[f*MixChannels+1] = clip(r)
	}
}

func clip(v float64) int16 {
	s := int32(v * 32767)
	if s > 32767 {
		s = 32767
	} else if s < -32768 {
		s = -32768
	}
	return int16(s)
}

func (m *Mixer) QueueNormal(c Cue) {
	m.mu.Lock()
	m.queue = append(m.queue, c)
	m.mu.Unlock()
}

func (m *Mixer) DrainNormal() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.normal != nil || len(m.queue) == 0 {
		return
	}
	c := m.queue[0]
	m.queue = m.queue[1:]
	m.normal = newVoice(c, false)
}

func (m *Mixer) ClearNormal() {
	m.mu.Lock()
	m.queue = nil
	m.mu.Unlock()
}

func (m *Mixer) NormalBusy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.normal != nil
}

func (m *Mixer) PlayMenu(c Cue) {
	m.mu.Lock()
	m.menu = newVoice(c, false)
	m.mu.Unlock()
}

func (m *Mixer) StopMenu() {
	m.mu.Lock()
	m.menu = nil
	m.mu.Unlock()
}

func (m *Mixer) StartContinuous(id int, c Cue) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cont[id]; ok {
		return
	}
	m.cont[id] = newVoice(c, true)
}

func (m *Mixer) ContinuousBusy(id int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.cont[id]
	return ok
}

func (m *Mixer) SetContinuousVolume(id int, vol float64) {
	m.mu.Lock()
	if v, ok := m.cont[id]; ok {
		v.vol = vol
	}
	m.mu.Unlock()
}

func (m *Mixer) SetContinuousSpeed(id int, speed float64) {
	m.mu.Lock()
	if v, ok := m.cont[id]; ok {
		v.speed = speed
	}
	m.mu.Unlock()
}

func (m *Mixer) StopAllContinuous() {
	m.mu.Lock()
	m.cont = make(map[int]*voice)
	m.mu.Unlock()
}

func (m *Mixer) Pump() {}

func (m *Mixer) SetMuted(muted bool) {
	m.mu.Lock()
	m.muted = muted
	m.mu.Unlock()
}

func (m *Mixer) Muted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.muted
}

func (m *Mixer) Close() error {
	if m.out != nil {
		m.out.stop()
	}
	m.mu.Lock()
	m.menu = nil
	m.normal = nil
	m.queue = nil
	m.cont = make(map[int]*voice)
	m.mu.Unlock()
	return nil
}
