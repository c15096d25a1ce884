package main

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"

	"earshot/audio"
	"earshot/beep"
	"earshot/config"
	"earshot/engine"
	"earshot/log"
	"earshot/process"
	"earshot/samples"
	"earshot/speech"
	"earshot/value"
)

const simBase = 0x00400000

// simNotify prints engine events as parseable lines. Integration tests
// and profile authors read them off stdout.
type simNotify struct {
	state string
	clock int64
}

func (s *simNotify) StateChanged(from, to engine.GameState, clock int64) {
	s.state = to.String()
	s.clock = clock
	fmt.Printf("STATE %s clock=%d\n", s.state, clock)
}

func (s *simNotify) CueDispatched(t *config.Trigger, channel, text string) {
	fmt.Printf("CUE %d %s %q\n", t.ID, channel, text)
}

func (s *simNotify) ConnectionLost() {
	fmt.Println("GONE")
}

// runSim drives a session against an in-memory process, stepped from
// stdin. Watch values are poked with SET, time advances only on TICK,
// and cues come out as CUE lines. Sample files never load; every sample
// trigger plays a placeholder tone into a fake sink.
//
// Commands: SET <watch> <value>, TICK [n], STATE, GONE, QUIT.
func runSim(g *config.Game) {
	beep.Disable()

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	proc := process.NewFake(simBase)

	// Lay the profile's pointer chains out in fake memory. Chains that
	// share a pointer slot share the cell behind it, like a real heap.
	alloc := uintptr(0x00800000)
	cells := make(map[uintptr]uintptr)
	watchAddr := make(map[int]uintptr, len(g.Watches))
	for i := range g.Watches {
		w := &g.Watches[i]
		addr := simBase + uintptr(w.Chain[0])
		for _, off := range w.Chain[1:] {
			cell, ok := cells[addr]
			if !ok {
				cell = alloc
				alloc += 0x200
				cells[addr] = cell
				proc.PokePointer(addr, cell)
			}
			addr = cell + uintptr(off)
		}
		proc.Poke(addr, make([]byte, w.ReadLen()))
		watchAddr[w.ID] = addr
	}

	bank := samples.NewBank()
	for i := range g.Triggers {
		t := &g.Triggers[i]
		if t.Speech || t.Sample == "" || t.IsClock(g) {
			continue
		}
		bank.Put(g.SamplePath(t), samples.Tone(440, 30*time.Millisecond, audio.MixRate))
	}

	note := &simNotify{state: engine.StateInMenu.String()}
	eng, err := engine.New(engine.Options{
		Game:    g,
		Process: proc,
		Audio:   audio.NewFake(),
		Speech:  speech.NewFake(true, nil),
		Bank:    bank,
		Notify:  note,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log.SessionStart(g.Session.Process, 0, len(g.Watches), len(g.Triggers))
	fmt.Printf("SIM %s watches=%d triggers=%d\n", g.Session.Process, len(g.Watches), len(g.Triggers))

	interval := time.Duration(g.Session.PollMs) * time.Millisecond
	now := time.Unix(1000, 0)

	quit := func() {
		st := eng.Stats()
		st.Elapsed = time.Duration(st.Ticks) * interval
		log.SessionEnd("quit", st)
		fmt.Printf("DONE ticks=%d cues=%d\n", st.Ticks, st.Cues)
		os.Exit(0)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "SET":
			if len(fields) < 3 {
				fmt.Fprintln(os.Stderr, "sim: usage: SET <watch> <value>")
				continue
			}
			id, err := strconv.Atoi(fields[1])
			if err != nil {
				fmt.Fprintf(os.Stderr, "sim: bad watch id %q\n", fields[1])
				continue
			}
			w := g.Watch(id)
			if w == nil {
				fmt.Fprintf(os.Stderr, "sim: no watch %d\n", id)
				continue
			}
			literal := strings.Join(fields[2:], " ")
			if err := pokeWatch(proc, w, watchAddr[id], literal); err != nil {
				fmt.Fprintf(os.Stderr, "sim: %v\n", err)
			}

		case "TICK":
			n := 1
			if len(fields) > 1 {
				if v, err := strconv.Atoi(fields[1]); err == nil && v > 0 {
					n = v
				}
			}
			for i := 0; i < n; i++ {
				now = now.Add(interval)
				eng.Step(now)
			}

		case "STATE":
			fmt.Printf("STATE %s clock=%d\n", note.state, note.clock)

		case "GONE":
			proc.SetAlive(false)

		case "QUIT":
			quit()

		default:
			fmt.Fprintf(os.Stderr, "sim: unknown command %q\n", fields[0])
		}
	}
	quit()
}

// pokeWatch writes a literal into fake memory the way the watch will
// read it back: same width, same encoding.
func pokeWatch(proc *process.FakeProcess, w *config.Watch, addr uintptr, literal string) error {
	v, err := value.Parse(w.Kind, literal)
	if err != nil {
		return fmt.Errorf("watch %d: %w", w.ID, err)
	}

	switch {
	case w.Kind.IsText():
		buf := make([]byte, w.ReadLen())
		if w.Kind == value.UTF16 {
			units := utf16.Encode([]rune(v.Text()))
			for i, u := range units {
				if i*2+1 >= len(buf) {
					break
				}
				binary.LittleEndian.PutUint16(buf[i*2:], u)
			}
		} else {
			copy(buf, v.Text())
		}
		proc.Poke(addr, buf)

	case w.Kind == value.Float32:
		f, _ := v.Float()
		proc.PokeUint(addr, uint64(math.Float32bits(float32(f))), 4)

	case w.Kind == value.Float64:
		f, _ := v.Float()
		proc.PokeUint(addr, math.Float64bits(f), 8)

	case w.Kind == value.Bool:
		var bit uint64
		if v.Text() == "true" {
			bit = 1
		}
		proc.PokeUint(addr, bit, 1)

	default:
		n, _ := v.Int()
		proc.PokeUint(addr, uint64(n), w.Kind.Size())
	}
	return nil
}
