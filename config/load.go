package config

import (
	"fmt"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const (
	defaultPollMs  = 10
	defaultClockMs = 250
)

// LoadFile reads, indexes and validates a profile. Any problem with the
// profile is reported here so a session never starts on a half-usable
// one.
func LoadFile(path string) (*Game, error) {
	var g Game
	md, err := toml.DecodeFile(path, &g)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", path, err)
	}
	g.dir = filepath.Dir(path)
	if err := g.finish(md); err != nil {
		return nil, fmt.Errorf("profile %s: %w", path, err)
	}
	return &g, nil
}

// Parse loads a profile from memory. Used by tests and the simulator;
// paths in the profile resolve against dir.
func Parse(text string, dir string) (*Game, error) {
	var g Game
	md, err := toml.Decode(text, &g)
	if err != nil {
		return nil, err
	}
	g.dir = dir
	if err := g.finish(md); err != nil {
		return nil, err
	}
	return &g, nil
}

func (g *Game) finish(md toml.MetaData) error {
	if keys := md.Undecoded(); len(keys) > 0 {
		return fmt.Errorf("unknown key %q", keys[0].String())
	}
	if g.Session.PollMs == 0 {
		g.Session.PollMs = defaultPollMs
	}
	if g.Session.ClockMs == 0 {
		g.Session.ClockMs = defaultClockMs
	}
	for i := range g.Triggers {
		t := &g.Triggers[i]
		if t.Volume == 0 {
			t.Volume = 1
		}
		if t.Speed == 0 {
			t.Speed = 1
		}
	}
	if err := g.index(); err != nil {
		return err
	}
	return g.validate()
}

func (g *Game) index() error {
	g.watchByID = make(map[int]*Watch, len(g.Watches))
	for i := range g.Watches {
		w := &g.Watches[i]
		if w.ID <= 0 {
			return fmt.Errorf("watch %q: id must be positive", w.Name)
		}
		if _, dup := g.watchByID[w.ID]; dup {
			return fmt.Errorf("watch id %d used twice", w.ID)
		}
		g.watchByID[w.ID] = w
	}
	g.trigByID = make(map[int]*Trigger, len(g.Triggers))
	for i := range g.Triggers {
		t := &g.Triggers[i]
		if t.ID <= 0 {
			return fmt.Errorf("trigger %q: id must be positive", t.Name)
		}
		if _, dup := g.trigByID[t.ID]; dup {
			return fmt.Errorf("trigger id %d used twice", t.ID)
		}
		g.trigByID[t.ID] = t
	}
	return nil
}
