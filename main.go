package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	env "github.com/caarlos0/env/v11"

	"earshot/audio"
	"earshot/beep"
	"earshot/config"
	"earshot/doctor"
	"earshot/engine"
	"earshot/hotkey"
	"earshot/journal"
	"earshot/log"
	"earshot/login"
	"earshot/process"
	"earshot/samples"
	"earshot/shutdown"
	"earshot/speech"
	"earshot/update"
)

var version = "dev"

// envConfig is the environment side of configuration. Flags override
// whatever is set here.
type envConfig struct {
	Profile string `env:"EARSHOT_PROFILE"`
	Mute    bool   `env:"EARSHOT_MUTE"`
	NoChime bool   `env:"EARSHOT_NO_CHIME"`
}

var appCancel context.CancelFunc

var shutdownOnce sync.Once

func gracefulShutdown() {
	shutdownOnce.Do(func() {
		if appCancel != nil {
			appCancel()
		}
		tuiMu.Lock()
		p := tuiProgram
		tuiMu.Unlock()
		if p != nil {
			p.Quit()
		}
	})
}

func run() {
	if len(os.Args) > 1 && os.Args[1] == "update" {
		if version == "dev" {
			fmt.Println("Dev build: cannot check for updates.")
			os.Exit(0)
		}
		fmt.Printf("earshot %s: checking for updates...\n", version)
		rel, err := update.CheckLatest(version)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if rel == nil {
			fmt.Println("Already up to date.")
			os.Exit(0)
		}
		fmt.Printf("Update available: %s -> %s\n", version, rel.Version)
		fmt.Print("Continue? [y/N] ")
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("Aborted.")
			os.Exit(0)
		}
		fmt.Printf("Downloading %s...\n", rel.Version)
		if err := update.Apply(rel); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Updated to %s\n", rel.Version)
		os.Exit(0)
	}

	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: bad environment: %v\n", err)
	}
	defaultProfile := ec.Profile
	if defaultProfile == "" {
		defaultProfile = "earshot.toml"
	}

	configFlag := flag.String("config", defaultProfile, "Game profile to load")
	tuiFlag := flag.Bool("tui", false, "Run with terminal status UI (plain console output otherwise)")
	doctorFlag := flag.Bool("doctor", false, "Run system diagnostics and exit")
	pickFlag := flag.Bool("pick", false, "Pick a running process name for a profile (optional filter argument)")
	simFlag := flag.Bool("sim", false, "Simulate a session against scripted stdin values instead of a live process")
	muteFlag := flag.Bool("mute", ec.Mute, "Start with cues muted")
	noChimeFlag := flag.Bool("nochime", ec.NoChime, "Disable attach/detach chimes")
	longPressFlag := flag.Duration("longpress", 350*time.Millisecond, "Hold threshold for hold-to-mute vs tap-to-latch (e.g., 350ms)")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	historyFlag := flag.Int("history", 0, "Print the last N dispatched cues and exit")
	loginFlag := flag.String("login", "", "Manage launch at login (on|off|status)")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	pprofFlag := flag.String("pprof", "", "Enable pprof profiling server (e.g., :6060 or localhost:6060)")
	crashFlag := flag.Bool("crash", false, "Trigger synthetic panic for testing crash logging")
	flag.Parse()

	// Resolve log directory early
	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)

	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if *pprofFlag != "" {
		go func() {
			fmt.Fprintf(os.Stderr, "pprof server listening on http://%s/debug/pprof/\n", *pprofFlag)
			if err := http.ListenAndServe(*pprofFlag, nil); err != nil {
				fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
			}
		}()
	}

	if *crashFlag {
		panic("TEST CRASH: synthetic panic to verify crash logging")
	}

	if *versionFlag {
		fmt.Printf("earshot %s\n", version)
		os.Exit(0)
	}

	if *doctorFlag {
		os.Exit(doctor.Run(*configFlag))
	}

	if *pickFlag {
		name, err := pickProcess(flag.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("process = %q\n", name)
		os.Exit(0)
	}

	if *loginFlag != "" {
		switch *loginFlag {
		case "on":
			if err := login.Enable(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("Launch at login enabled.")
		case "off":
			if err := login.Disable(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("Launch at login disabled.")
		case "status":
			if login.Enabled() {
				fmt.Println("Launch at login is on.")
			} else {
				fmt.Println("Launch at login is off.")
			}
		default:
			fmt.Fprintf(os.Stderr, "Error: -login takes on, off or status, not %q\n", *loginFlag)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if *historyFlag > 0 {
		printHistory(*historyFlag)
		os.Exit(0)
	}

	g, err := config.LoadFile(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *simFlag {
		runSim(g)
		return
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	bank, err := loadBank(g)
	if err != nil {
		log.Errorf("sample load error: %v", err)
		fmt.Fprintf(os.Stderr, "Error loading samples: %v\n", err)
		os.Exit(1)
	}

	jrnl, err := journal.Open(filepath.Join(log.Dir(), "cues.db"))
	if err != nil {
		log.Warnf("cue journal unavailable: %v", err)
		fmt.Fprintf(os.Stderr, "Warning: cue journal unavailable: %v\n", err)
		jrnl = nil
	}

	mixer, err := audio.NewMixer()
	if err != nil {
		log.Errorf("audio init error: %v", err)
		fmt.Fprintf(os.Stderr, "Error initializing audio: %v\n", err)
		os.Exit(1)
	}
	mixer.SetMuted(*muteFlag)

	synth, err := speech.New()
	if err != nil {
		log.Warnf("speech unavailable: %v", err)
		fmt.Fprintf(os.Stderr, "Warning: speech unavailable: %v\n", err)
		synth = nil
	}

	if *noChimeFlag {
		beep.Disable()
	} else {
		go beep.Init()
	}

	appCtx, cancel := context.WithCancel(context.Background())
	appCancel = cancel

	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	go func() {
		<-sigChan
		gracefulShutdown()
	}()

	// Start TUI
	tuiDone := make(chan struct{})
	if !*tuiFlag {
		close(tuiDone)
		tuiReadyOnce.Do(func() { close(tuiReady) })
	} else {
		toggle := func() bool {
			muted := !mixer.Muted()
			mixer.SetMuted(muted)
			log.Infof("muted: %v", muted)
			return muted
		}
		tuiMu.Lock()
		tuiProgram = NewTUIProgram(g.Session.Process, *muteFlag, toggle)
		tuiMu.Unlock()

		go func() {
			defer close(tuiDone)
			if _, err := tuiProgram.Run(); err != nil {
				log.Errorf("TUI error: %v", err)
			}
			gracefulShutdown()
		}()

		<-tuiReady
	}

	hk := hotkey.New()
	if err := hk.Register(); err != nil {
		log.Warnf("mute hotkey unavailable: %v", err)
		if !*tuiFlag {
			fmt.Fprintf(os.Stderr, "Warning: mute hotkey unavailable: %v\n", err)
		}
	} else {
		defer hk.Unregister()
		mute := hotkey.NewMute(hk, *longPressFlag)
		go func() {
			for on := range mute.Events() {
				mixer.SetMuted(on)
				log.Infof("muted: %v", on)
				tuiSend(MuteMsg{On: on})
			}
		}()
	}

	update.StartBackgroundCheck(version, log.Dir(), func(rel update.Release) {
		log.Info("update_available: " + rel.Version)
		tuiSend(UpdateAvailableMsg{Version: rel.Version})
	})

	// Attach loop: wait for the game, run a session, reattach when the
	// game exits. Ends on signal, TUI quit or a session fault.
	fault := false
	for appCtx.Err() == nil {
		tuiSend(WaitingMsg{Name: g.Session.Process})
		if !*tuiFlag {
			fmt.Printf("waiting for %s...\n", g.Session.Process)
		}

		h, err := process.WaitFor(appCtx, g.Session.Process, time.Second)
		if err != nil {
			break
		}

		beep.PlayAttach()
		tuiSend(AttachedMsg{Name: h.Name(), PID: h.PID()})
		if !*tuiFlag {
			fmt.Printf("attached to %s (pid %d)\n", h.Name(), h.PID())
		}

		sessCtx, sessCancel := context.WithCancel(appCtx)
		events := &sessionEvents{onLost: sessCancel}
		if *tuiFlag {
			events.send = tuiSend
		}

		eng, err := engine.New(engine.Options{
			Game:    g,
			Process: h,
			Audio:   mixer,
			Speech:  synth,
			Bank:    bank,
			Journal: jrnl,
			Notify:  events,
		})
		if err != nil {
			sessCancel()
			h.Close()
			log.Errorf("session setup: %v", err)
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			fault = true
			break
		}

		err = eng.Run(sessCtx)
		sessCancel()
		h.Close()

		st := eng.Stats()
		if !*tuiFlag {
			fmt.Printf("session ended: %d ticks, %d cues (%d spoken), %d read errors\n",
				st.Ticks, st.Cues, st.Spoken, st.ReadErrors)
		}

		if err != nil {
			log.Errorf("session fault: %v", err)
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			beep.PlayError()
			fault = true
			break
		}
		if appCtx.Err() != nil {
			break
		}

		// Process went away; chime and go back to waiting.
		beep.PlayDetach()
		if !*tuiFlag {
			fmt.Printf("%s exited\n", g.Session.Process)
		}
	}

	gracefulShutdown()
	<-tuiDone

	if jrnl != nil {
		jrnl.Close()
	}
	mixer.Close()
	if synth != nil {
		synth.Close()
	}

	if fault {
		log.Close()
		os.Exit(1)
	}
}

// loadBank decodes every sample file the profile's triggers name.
// A profile with only speech cues needs no bank at all.
func loadBank(g *config.Game) (*samples.Bank, error) {
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
		return nil, nil
	}
	return samples.LoadAll(paths)
}

func printHistory(n int) {
	j, err := journal.Open(filepath.Join(log.Dir(), "cues.db"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer j.Close()

	entries, err := j.Recent(context.Background(), n)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(entries) == 0 {
		fmt.Println("No cues recorded yet.")
		return
	}
	for _, e := range entries {
		fmt.Printf("%s  %-10s %-8s %-24s %s\n",
			e.At.Format("2006-01-02 15:04:05"), e.Process, e.Channel, e.Name, e.Text)
	}
}
