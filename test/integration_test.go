//go:build integration

package test_test

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

var testBinary string

func TestMain(m *testing.M) {
	testBinary = os.Getenv("EARSHOT_TEST_BIN")
	if testBinary == "" {
		fmt.Fprintln(os.Stderr, "EARSHOT_TEST_BIN not set; run: make test-integration")
		os.Exit(1)
	}

	os.Exit(m.Run())
}

func cmds(parts ...string) string {
	return strings.Join(parts, "\n") + "\n"
}

// healthProfile has an in-game sample trigger and a clock. The clock
// must be bumped before every TICK or the session drops back to menus.
const healthProfile = `
[session]
process = "game.exe"
poll_ms = 10
clock_ms = 10
clock_trigger = 9
clock_max = 99

[[watch]]
id = 1
name = "health"
kind = "int32"
chain = [0x10]

[[watch]]
id = 9
name = "clock"
kind = "int32"
chain = [0x20]

[[trigger]]
id = 1
name = "low health"
kind = "normal"
comparison = "less"
target = "25"
allowance = "in_game"
watches = [1]
sample = "low.wav"

[[trigger]]
id = 9
name = "clock"
kind = "normal"
comparison = "changed"
watches = [9]
`

// speechProfile has no clock; cues go out on the menu path through the
// speech synthesizer.
const speechProfile = `
[session]
process = "game.exe"
poll_ms = 10

[[watch]]
id = 1
name = "health"
kind = "int32"
chain = [0x10]

[[watch]]
id = 5
name = "character"
kind = "utf8"
chain = [0x30, 0x8]
chars = 16

[[trigger]]
id = 3
name = "health call"
kind = "normal"
comparison = "changed"
watches = [1]
speech = true
text = "health {watch:1} of {watch:5}"
`

func runEarshot(t *testing.T, profile, stdin string) (out, logDir string) {
	t.Helper()
	dir := t.TempDir()
	profPath := filepath.Join(dir, "game.toml")
	if err := os.WriteFile(profPath, []byte(profile), 0644); err != nil {
		t.Fatalf("writing profile: %v", err)
	}
	logDir = t.TempDir()

	cmd := exec.Command(testBinary, "-sim", "-config", profPath, "-logpath", logDir)
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Env = os.Environ()

	raw, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("earshot exited with error: %v\noutput: %s", err, raw)
	}
	return string(raw), logDir
}

func readLog(t *testing.T, logDir, filename string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(logDir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return ""
		}
		t.Fatalf("failed to read %s: %v", filename, err)
	}
	return string(data)
}

func stateLines(out string) []string {
	var states []string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "STATE ") {
			states = append(states, strings.TrimSpace(line))
		}
	}
	return states
}

func TestSimHealthCue(t *testing.T) {
	out, logDir := runEarshot(t, healthProfile, cmds(
		"SET 1 50",
		"SET 9 100", "TICK",
		"SET 9 101", "TICK",
		"SET 1 12",
		"SET 9 102", "TICK",
		"QUIT",
	))

	if !strings.Contains(out, "STATE in_game") {
		t.Errorf("expected in_game state, output:\n%s", out)
	}
	if got := strings.Count(out, "CUE 1 normal"); got != 1 {
		t.Errorf("expected exactly 1 cue, got %d, output:\n%s", got, out)
	}
	if !strings.Contains(out, "DONE ticks=3") {
		t.Errorf("expected 3 ticks, output:\n%s", out)
	}

	cueLog := readLog(t, logDir, "cues_log.txt")
	if !strings.Contains(cueLog, "low health") {
		t.Errorf("cue log missing entry, got:\n%s", cueLog)
	}
}

func TestSimNoCueWithoutEdge(t *testing.T) {
	// Health starts and stays below the threshold; matching without a
	// crossing must not fire.
	out, _ := runEarshot(t, healthProfile, cmds(
		"SET 1 12",
		"SET 9 100", "TICK",
		"SET 9 101", "TICK",
		"SET 9 102", "TICK",
		"QUIT",
	))

	if strings.Contains(out, "CUE 1") {
		t.Errorf("cue fired without an edge, output:\n%s", out)
	}
}

func TestSimClockWrap(t *testing.T) {
	out, _ := runEarshot(t, healthProfile, cmds(
		"SET 9 97", "TICK",
		"SET 9 98", "TICK",
		"SET 9 99", "TICK",
		"SET 9 0", "TICK",
		"SET 9 1", "TICK",
		"SET 9 2", "TICK",
		"QUIT",
	))

	want := []string{
		"STATE in_game clock=98",
		"STATE in_menu clock=99",
		"STATE in_game clock=2",
	}
	got := stateLines(out)
	if len(got) != len(want) {
		t.Fatalf("state transitions: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("transition %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSimSpeechExpansion(t *testing.T) {
	out, logDir := runEarshot(t, speechProfile, cmds(
		"SET 5 RYU",
		"SET 1 77", "TICK",
		"SET 1 78", "TICK",
		"QUIT",
	))

	if !strings.Contains(out, `CUE 3 menu "health 78 of RYU"`) {
		t.Errorf("expected expanded speech cue, output:\n%s", out)
	}

	cueLog := readLog(t, logDir, "cues_log.txt")
	if !strings.Contains(cueLog, "health 78 of RYU") {
		t.Errorf("cue log missing speech text, got:\n%s", cueLog)
	}
}

func TestSimConnectionLoss(t *testing.T) {
	out, _ := runEarshot(t, healthProfile, cmds(
		"SET 9 100", "TICK",
		"SET 9 101", "TICK",
		"GONE", "TICK",
		"TICK",
		"QUIT",
	))

	if !strings.Contains(out, "GONE") {
		t.Errorf("expected connection loss, output:\n%s", out)
	}
	if !strings.Contains(out, "DONE ticks=4") {
		t.Errorf("session should keep ticking after loss, output:\n%s", out)
	}
}
