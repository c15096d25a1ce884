package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	diagLog  zerolog.Logger
	diagFile *os.File
	cueFile  *os.File
	logMu    sync.Mutex
	logReady bool
	pid      int
	dir      string
)

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: -logpath flag
	if flagPath != "" {
		if !filepath.IsAbs(flagPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, flagPath), nil
		}
		return flagPath, nil
	}

	// Priority 2: EARSHOT_LOG_PATH environment variable
	envPath := os.Getenv("EARSHOT_LOG_PATH")
	if envPath != "" {
		if !filepath.IsAbs(envPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, envPath), nil
		}
		return envPath, nil
	}

	// Priority 3: Default OS-specific location
	return getDefaultDir()
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error

	diagPath := filepath.Join(dir, "diagnostics_log.txt")
	diagFile, err = os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	cuePath := filepath.Join(dir, "cues_log.txt")
	cueFile, err = os.OpenFile(cuePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if cueFile != nil {
		cueFile.Close()
		cueFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Infof(format string, args ...any) {
	if logReady {
		diagLog.Info().Msg(fmt.Sprintf(format, args...))
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

// CueText appends one fired cue to cues_log.txt so players can review
// what they heard after a match.
func CueText(text string) {
	if !logReady {
		return
	}
	logMu.Lock()
	defer logMu.Unlock()
	line := fmt.Sprintf("%s\t[%d]\t%s\n", time.Now().Format("2006-01-02 15:04:05"), pid, text)
	cueFile.WriteString(line)
}

// Cue records a dispatched trigger in the diagnostics log.
func Cue(triggerID int, name, channel string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("trigger", triggerID).
		Str("name", name).
		Str("channel", channel).
		Msg("cue")
}

// StateChange records an in-game/in-menu transition.
func StateChange(from, to string, clock int64) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("from", from).
		Str("to", to).
		Int64("clock", clock).
		Msg("state_change")
}

func SessionStart(process string, pid int, watches, triggers int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("process", process).
		Int("target_pid", pid).
		Int("watches", watches).
		Int("triggers", triggers).
		Msg("session_start")
}

// SessionStats carries the counters a session accumulates while it
// runs.
type SessionStats struct {
	Ticks       uint64
	Cues        uint64
	Spoken      uint64
	ReadErrors  uint64
	SkippedEval uint64
	Elapsed     time.Duration
}

func SessionEnd(reason string, s SessionStats) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("reason", reason).
		Uint64("ticks", s.Ticks).
		Uint64("cues", s.Cues).
		Uint64("spoken", s.Spoken).
		Uint64("read_errors", s.ReadErrors).
		Uint64("skipped_eval", s.SkippedEval).
		Dur("elapsed", s.Elapsed).
		Msg("session_end")
}
