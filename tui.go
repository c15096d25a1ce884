package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"earshot/clipboard"
)

// TUI message types
type WaitingMsg struct{ Name string }
type AttachedMsg struct {
	Name string
	PID  int
}
type DetachedMsg struct{}
type StateMsg struct {
	State string
	Clock int64
}
type CueMsg struct {
	Trigger int
	Name    string
	Channel string
	Text    string
}
type MuteMsg struct{ On bool }
type UpdateAvailableMsg struct{ Version string }
type tickMsg time.Time

type sessionStatus int

const (
	statusWaiting sessionStatus = iota
	statusAttached
	statusLost
)

// cueLine is one entry of the recent-cue panel.
type cueLine struct {
	at      time.Time
	name    string
	channel string
	text    string
}

const cueHistory = 8

type tuiModel struct {
	status        sessionStatus
	target        string
	pid           int
	state         string
	clock         int64
	muted         bool
	cueCount      int
	cues          []cueLine
	copied        bool
	updateVersion string
	start         time.Time
	now           time.Time
	width, height int

	toggleMute func() bool
}

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex

	// tuiReady closes once the program is receiving messages, so early
	// session events are not dropped. Headless mode closes it directly.
	tuiReady     = make(chan struct{})
	tuiReadyOnce sync.Once
)

// tuiSend forwards a message to the TUI if one is running. Safe from
// any goroutine, including the poll worker.
func tuiSend(msg any) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()

	if p != nil {
		p.Send(msg)
	}
}

func NewTUIProgram(target string, muted bool, toggleMute func() bool) *tea.Program {
	m := tuiModel{
		status:     statusWaiting,
		target:     target,
		state:      "in_menu",
		muted:      muted,
		start:      time.Now(),
		now:        time.Now(),
		toggleMute: toggleMute,
	}
	return tea.NewProgram(m, tea.WithAltScreen())
}

func tuiTick() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	tuiReadyOnce.Do(func() { close(tuiReady) })
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "m":
			if m.toggleMute != nil {
				m.muted = m.toggleMute()
			}
		case "c":
			if n := len(m.cues); n > 0 {
				if err := clipboard.Copy(m.cues[n-1].text); err == nil {
					m.copied = true
				}
			}
		}

	case tickMsg:
		m.now = time.Time(msg)
		return m, tuiTick()

	case WaitingMsg:
		m.status = statusWaiting
		m.target = msg.Name
		m.state = "in_menu"

	case AttachedMsg:
		m.status = statusAttached
		m.target = msg.Name
		m.pid = msg.PID
		m.start = time.Now()

	case DetachedMsg:
		m.status = statusLost
		m.state = "in_menu"

	case StateMsg:
		m.state = msg.State
		m.clock = msg.Clock

	case CueMsg:
		m.cueCount++
		m.copied = false
		m.cues = append(m.cues, cueLine{
			at:      time.Now(),
			name:    msg.Name,
			channel: msg.Channel,
			text:    msg.Text,
		})
		if len(m.cues) > cueHistory {
			m.cues = m.cues[len(m.cues)-cueHistory:]
		}

	case MuteMsg:
		m.muted = msg.On

	case UpdateAvailableMsg:
		m.updateVersion = msg.Version
	}
	return m, nil
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var lines []string

	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("39")).
		Bold(true).
		Render("earshot " + version)
	if m.muted {
		title += lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true).
			Render("  [MUTED]")
	}
	lines = append(lines, title, "")

	switch m.status {
	case statusWaiting:
		lines = append(lines, lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Render(fmt.Sprintf("○ waiting for %s", m.target)))
	case statusAttached:
		lines = append(lines, lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Render(fmt.Sprintf("● %s (pid %d)", m.target, m.pid)))
	case statusLost:
		lines = append(lines, lipgloss.NewStyle().
			Foreground(lipgloss.Color("208")).
			Render(fmt.Sprintf("◌ lost %s, waiting to reattach", m.target)))
	}

	if m.status == statusAttached {
		var stateLine string
		if m.state == "in_game" {
			stateLine = lipgloss.NewStyle().
				Foreground(lipgloss.Color("196")).
				Bold(true).
				Render(fmt.Sprintf("● LIVE  clock %d", m.clock))
		} else {
			stateLine = lipgloss.NewStyle().
				Foreground(lipgloss.Color("241")).
				Render("○ menus")
		}
		lines = append(lines, stateLine)

		elapsed := m.now.Sub(m.start).Round(time.Second)
		lines = append(lines, lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Render(fmt.Sprintf("cues: %d   session: %s", m.cueCount, elapsed)))
	}

	lines = append(lines, "")

	cueTitle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("246")).
		Render("Recent cues")
	lines = append(lines, cueTitle)

	if len(m.cues) == 0 {
		lines = append(lines, lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Render("  none yet"))
	} else {
		timeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
		nameStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
		chanStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
		for i, c := range m.cues {
			line := "  " + timeStyle.Render(c.at.Format("15:04:05")) +
				" " + nameStyle.Render(c.name) +
				" " + chanStyle.Render("("+c.channel+")")
			if c.text != "" && c.text != c.name {
				line += " " + chanStyle.Render(truncate(c.text, m.width-30))
			}
			if i == len(m.cues)-1 && m.copied {
				line += " " + lipgloss.NewStyle().
					Foreground(lipgloss.Color("42")).
					Render("[✓ copied]")
			}
			lines = append(lines, line)
		}
	}

	if m.updateVersion != "" {
		lines = append(lines, "", lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Render("update available: "+m.updateVersion+" (run: earshot update)"))
	}

	lines = append(lines, "")

	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	boldStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
	help := boldStyle.Render("Ctrl+Shift+M") + helpStyle.Render(" mute   ") +
		boldStyle.Render("c") + helpStyle.Render(" copy last   ") +
		boldStyle.Render("q") + helpStyle.Render(" quit")
	lines = append(lines, help)

	return lipgloss.NewStyle().
		PaddingLeft(1).
		PaddingTop(1).
		Render(strings.Join(lines, "\n"))
}

func truncate(s string, max int) string {
	if max < 10 {
		max = 10
	}
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
