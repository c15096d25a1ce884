package process

import (
	"errors"
	"testing"
)

const testBase = uintptr(0x400000)

func TestResolveDirectOffset(t *testing.T) {
	f := NewFake(testBase)
	addr, err := Resolve(f, Chain{0x1000})
	if err != nil {
		t.Fatal(err)
	}
	if addr != testBase+0x1000 {
		t.Errorf("addr = %#x, want %#x", addr, testBase+0x1000)
	}
}

func TestResolveTwoStepChain(t *testing.T) {
	f := NewFake(testBase)
	// base+0x10 holds a pointer to 0x500000; final address 0x500000+0x8.
	f.PokePointer(testBase+0x10, 0x500000)

	addr, err := Resolve(f, Chain{0x10, 0x8})
	if err != nil {
		t.Fatal(err)
	}
	if addr != 0x500008 {
		t.Errorf("addr = %#x, want 0x500008", addr)
	}
}

func TestResolveDeepChain(t *testing.T) {
	f := NewFake(testBase)
	f.PokePointer(testBase+0x20, 0x600000)
	f.PokePointer(0x600000+0x30, 0x700000)

	addr, err := Resolve(f, Chain{0x20, 0x30, -0x4})
	if err != nil {
		t.Fatal(err)
	}
	if addr != 0x700000-0x4 {
		t.Errorf("addr = %#x, want %#x", addr, uintptr(0x700000-0x4))
	}
}

func TestResolve32BitPointers(t *testing.T) {
	f := NewFake(testBase)
	f.SetPointerSize(4)
	f.PokeUint(testBase+0x40, 0x00800000, 4)

	addr, err := Resolve(f, Chain{0x40, 0x10})
	if err != nil {
		t.Fatal(err)
	}
	if addr != 0x800010 {
		t.Errorf("addr = %#x, want 0x800010", addr)
	}
}

func TestResolveUnreadableStep(t *testing.T) {
	f := NewFake(testBase)
	// Nothing poked at base+0x50; dereference must fail as ErrNotResolved.
	_, err := Resolve(f, Chain{0x50, 0x8})
	if !errors.Is(err, ErrNotResolved) {
		t.Errorf("err = %v, want ErrNotResolved", err)
	}
}

func TestResolveNilPointer(t *testing.T) {
	f := NewFake(testBase)
	f.PokePointer(testBase+0x60, 0)

	_, err := Resolve(f, Chain{0x60, 0x8})
	if !errors.Is(err, ErrNotResolved) {
		t.Errorf("err = %v, want ErrNotResolved", err)
	}
}

func TestResolveEmptyChain(t *testing.T) {
	f := NewFake(testBase)
	if _, err := Resolve(f, nil); !errors.Is(err, ErrNotResolved) {
		t.Error("empty chain must not resolve")
	}
}

func TestResolveGoneProcess(t *testing.T) {
	f := NewFake(testBase)
	f.PokePointer(testBase+0x10, 0x500000)
	f.SetAlive(false)

	_, err := Resolve(f, Chain{0x10, 0x8})
	if !errors.Is(err, ErrNotResolved) {
		t.Errorf("err = %v, want ErrNotResolved", err)
	}
	if !errors.Is(err, ErrProcessGone) {
		t.Errorf("err = %v, want ErrProcessGone through the chain step", err)
	}
}

func TestFakeProcessGone(t *testing.T) {
	f := NewFake(testBase)
	f.PokeUint(testBase, 1, 4)
	f.SetAlive(false)

	buf := make([]byte, 4)
	if err := f.ReadAt(testBase, buf); !errors.Is(err, ErrProcessGone) {
		t.Errorf("err = %v, want ErrProcessGone", err)
	}
}

func TestMatches(t *testing.T) {
	for _, tt := range []struct {
		name string
		info Info
		want bool
	}{
		{"SSFIV.exe", Info{Name: "ssfiv", Exe: "/games/SSFIV.exe"}, true},
		{"ssfiv", Info{Name: "SSFIV.exe"}, true},
		{"game", Info{Name: "other", Exe: "/usr/bin/game"}, true},
		{"game", Info{Name: "games"}, false},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if got := matches(tt.info, tt.name); got != tt.want {
				t.Errorf("matches(%v, %q) = %v, want %v", tt.info, tt.name, got, tt.want)
			}
		})
	}
}
