package doctor

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"earshot/audio"
	"earshot/clipboard"
	"earshot/config"
	"earshot/hotkey"
	"earshot/process"
	"earshot/samples"
	"earshot/shutdown"
	"earshot/speech"
	"earshot/value"
)

// Run executes interactive diagnostic checks against the given profile
// and returns an exit code (0=all pass, 1=any fail).
func Run(configPath string) int {
	resetTerminal()
	setupInterruptHandler()

	fmt.Println("earshot doctor - interactive system diagnostics")
	fmt.Println("===============================================")

	allPass := true

	g := checkProfile(configPath)
	if g == nil {
		allPass = false
	}
	if allPass && !checkMemory(g) {
		allPass = false
	}
	if allPass && !checkSamples(g) {
		allPass = false
	}
	if allPass && !checkAudio() {
		allPass = false
	}
	if allPass && !checkSpeech() {
		allPass = false
	}
	if allPass && !checkHotkey() {
		allPass = false
	}
	if allPass && !checkClipboard() {
		allPass = false
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
	} else {
		fmt.Println("Some checks failed. See details above.")
	}

	if allPass {
		return 0
	}
	return 1
}

func setupInterruptHandler() {
	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	go func() {
		<-sigChan
		println("\nInterrupted")
		os.Exit(1)
	}()
}

// confirm asks a yes/no question on a fresh reader so input buffered
// during an earlier step cannot answer it.
func confirm(question string) bool {
	resetTerminal()
	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("%s [y/n]: ", question)
	answer, _ := reader.ReadString('\n')
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes"
}

func checkProfile(path string) *config.Game {
	fmt.Println()
	fmt.Println("[1/7] Profile")

	g, err := config.LoadFile(path)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return nil
	}

	clock := "no clock"
	if g.Session.ClockTrigger != 0 {
		clock = fmt.Sprintf("clock trigger %d", g.Session.ClockTrigger)
	}
	fmt.Printf("  PASS: %s: %d watches, %d triggers, %s\n",
		g.Session.Process, len(g.Watches), len(g.Triggers), clock)
	return g
}

func checkMemory(g *config.Game) bool {
	fmt.Println()
	fmt.Println("[2/7] Memory access")

	if !memoryPrereq() {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	h, err := process.WaitFor(ctx, g.Session.Process, 200*time.Millisecond)
	if err != nil {
		fmt.Printf("  Warning: %s is not running; start it and re-run for a live read\n",
			g.Session.Process)
		fmt.Println("  PASS: memory access prerequisites look good")
		return true
	}
	defer h.Close()

	fmt.Printf("  Attached to %s (pid %d, base 0x%x, %d-bit)\n",
		h.Name(), h.PID(), h.Base(), h.PointerSize()*8)

	var w *config.Watch
	for i := range g.Watches {
		if g.Watches[i].IsActive() {
			w = &g.Watches[i]
			break
		}
	}
	if w == nil {
		fmt.Println("  PASS: attached (profile has no active watches)")
		return true
	}

	addr, err := process.Resolve(h, w.Chain)
	if err != nil {
		fmt.Printf("  Warning: watch %d (%s) did not resolve: %v\n", w.ID, w.Name, err)
		fmt.Println("  Pointer chains are often only valid once a round has started.")
		fmt.Println("  PASS: attached")
		return true
	}

	buf := make([]byte, w.ReadLen())
	if err := h.ReadAt(addr, buf); err != nil {
		fmt.Printf("  FAIL: read at 0x%x: %v\n", addr, err)
		return false
	}
	v, err := value.Decode(w.Kind, buf)
	if err != nil {
		fmt.Printf("  FAIL: decode %s: %v\n", w.Kind, err)
		return false
	}

	fmt.Printf("  PASS: watch %d (%s) reads %s\n", w.ID, w.Name, v.Text())
	return true
}

func checkSamples(g *config.Game) bool {
	fmt.Println()
	fmt.Println("[3/7] Samples")

	seen := make(map[string]bool)
	var paths []string
	for i := range g.Triggers {
		t := &g.Triggers[i]
		if t.Speech || t.Sample == "" || t.IsClock(g) {
			continue
		}
		p := g.SamplePath(t)
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		fmt.Println("  PASS: profile has no sample cues")
		return true
	}

	bank, err := samples.LoadAll(paths)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}

	fmt.Printf("  PASS: %d sample files decoded\n", bank.Len())
	return true
}

func checkAudio() bool {
	fmt.Println()
	fmt.Println("[4/7] Audio output")

	outs, err := audio.Outputs()
	if err != nil {
		fmt.Printf("  Warning: cannot list playback devices: %v\n", err)
	} else if len(outs) == 0 {
		fmt.Println("  FAIL: no playback devices found")
		return false
	} else {
		for _, d := range outs {
			fmt.Printf("  Output: %s\n", d.Name)
		}
	}

	m, err := audio.NewMixer()
	if err != nil {
		fmt.Printf("  FAIL: cannot open audio: %v\n", err)
		return false
	}
	defer m.Close()

	tone := samples.Tone(880, 400*time.Millisecond, audio.MixRate)
	m.PlayMenu(audio.Cue{Sample: tone, Volume: 0.8, Speed: 1})
	time.Sleep(600 * time.Millisecond)

	if confirm("Did you hear a short tone?") {
		fmt.Println("  PASS: audio output verified by user")
		return true
	}
	fmt.Println("  FAIL: tone not confirmed")
	return false
}

func checkSpeech() bool {
	fmt.Println()
	fmt.Println("[5/7] Speech")

	synth, err := speech.New()
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	defer synth.Close()

	fmt.Printf("  Synthesizer: %s\n", synth.Name())
	if !synth.Available() {
		fmt.Println("  Warning: no screen reader detected; in-game speech cues")
		fmt.Println("  will be skipped until one is running")
	}

	if err := synth.Speak("earshot speech check", true); err != nil {
		fmt.Printf("  FAIL: speak: %v\n", err)
		return false
	}
	time.Sleep(2 * time.Second)

	if confirm("Did you hear \"earshot speech check\"?") {
		fmt.Println("  PASS: speech verified by user")
		return true
	}
	fmt.Println("  FAIL: speech not confirmed")
	return false
}

func checkHotkey() bool {
	fmt.Println()
	fmt.Println("[6/7] Mute hotkey")

	if msg, err := hotkey.Diagnose(); err != nil {
		fmt.Printf("  Warning: %v\n", err)
	} else {
		fmt.Printf("  %s\n", msg)
	}

	fmt.Println("Press Ctrl+Shift+M...")

	hk := hotkey.New()
	if err := hk.Register(); err != nil {
		fmt.Printf("  FAIL: could not register hotkey: %v\n", err)
		return false
	}
	defer hk.Unregister()

	select {
	case <-hk.Keydown():
		fmt.Println("  PASS: hotkey detected")
		// Wait for keyup so the tap is complete before the next step
		select {
		case <-hk.Keyup():
		case <-time.After(5 * time.Second):
		}
		// Reset terminal after hotkey - it may leave terminal in raw mode
		resetTerminal()
		return true
	case <-time.After(10 * time.Second):
		fmt.Println("  FAIL: timeout waiting for hotkey")
		return false
	}
}

func checkClipboard() bool {
	fmt.Println()
	fmt.Println("[7/7] Clipboard")

	testStr := fmt.Sprintf("earshot-doctor-%d", time.Now().UnixNano())

	type cbResult struct {
		readback string
		err      error
		phase    string
	}
	ch := make(chan cbResult, 1)
	go func() {
		if err := clipboard.Copy(testStr); err != nil {
			ch <- cbResult{err: err, phase: "write"}
			return
		}
		got, err := clipboard.Read()
		if err != nil {
			ch <- cbResult{err: err, phase: "read"}
			return
		}
		ch <- cbResult{readback: got}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			fmt.Printf("  FAIL: clipboard %s failed: %v\n", res.phase, res.err)
			return false
		}
		if res.readback != testStr {
			fmt.Printf("  FAIL: clipboard mismatch: wrote %q, got %q\n", testStr, res.readback)
			return false
		}
		fmt.Println("  PASS: clipboard write/read verified")
		return true
	case <-time.After(3 * time.Second):
		fmt.Println("  FAIL: clipboard timed out (no clipboard tool on this desktop?)")
		return false
	}
}
