package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type TickMsg time.Time

// Model loops over a fixed frame sequence, advancing one frame per tick.
type Model struct {
	frames   []string
	interval time.Duration
	title    string
	cursor   int
	paused   bool
}

// NewModel returns a model positioned on the first frame.
func NewModel(frames []string, interval time.Duration, title string) Model {
	return Model{frames: frames, interval: interval, title: title}
}

// Cursor reports the index of the frame currently displayed.
func (m Model) Cursor() int { return m.cursor }

// Paused reports whether playback is paused.
func (m Model) Paused() bool { return m.paused }

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Update advances the cursor on each tick unless paused.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
		case "left", "h":
			if m.paused {
				m.step(-1)
			}
		case "right", "l":
			if m.paused {
				m.step(1)
			}
		}
	case TickMsg:
		if !m.paused {
			m.step(1)
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) step(d int) {
	if len(m.frames) == 0 {
		return
	}
	n := len(m.frames)
	m.cursor = ((m.cursor+d)%n + n) % n
}

func (m Model) View() string {
	if len(m.frames) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.frames[m.cursor])
	b.WriteString("\n")

	status := StatusRunning.Render("▶ playing")
	if m.paused {
		status = StatusPaused.Render("⏸ paused")
	}
	b.WriteString(fmt.Sprintf("%s  %s  %s  %s\n",
		status,
		Label("source", m.title),
		Label("frame", fmt.Sprintf("%d/%d", m.cursor+1, len(m.frames))),
		Label("interval", m.interval.String()),
	))
	b.WriteString(KeyHint.Render("space pause · ←/→ step · q quit"))
	return b.String()
}
