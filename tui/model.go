package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-midifx/eventlog"
	"go-midifx/midi"
	"go-midifx/processor"
	"go-midifx/theme"
	"go-midifx/widgets"
)

// logTail is how many monitor lines the view shows.
const logTail = 10

type Model struct {
	Engine *processor.Engine
	Log    *eventlog.Log
	Theme  *theme.Theme

	snap     processor.Snapshot
	cursor   int
	showHelp bool
	quitting bool
}

type UpdateMsg struct{}

func NewModel(engine *processor.Engine, log *eventlog.Log, th *theme.Theme) Model {
	return Model{
		Engine: engine,
		Log:    log,
		Theme:  th,
		snap:   engine.Snapshot(),
	}
}

func ListenForUpdates(engine *processor.Engine) tea.Cmd {
	return func() tea.Msg {
		<-engine.Updates
		return UpdateMsg{}
	}
}

func (m Model) Init() tea.Cmd {
	return ListenForUpdates(m.Engine)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			m.Engine.AllNotesOff()
			return m, tea.Quit

		case "a":
			m.Engine.SetArpEnabled(!m.snap.ArpOn)

		case "s":
			m.Engine.SetScaleEnabled(!m.snap.ScaleOn)

		case "y":
			m.Engine.SetHarmonyEnabled(!m.snap.HarmonyOn)

		case "l":
			m.Engine.SetLatch(!m.snap.Latch)

		case "m":
			m.Engine.CycleArpMode()

		case "+", "=":
			m.Engine.AdjustTempo(5)

		case "-", "_":
			m.Engine.AdjustTempo(-5)

		case "[":
			m.Engine.SetSwing(m.snap.Swing - 0.05)

		case "]":
			m.Engine.SetSwing(m.snap.Swing + 0.05)

		case "t":
			m.Engine.AdjustTranspose(-1)

		case "T":
			m.Engine.AdjustTranspose(1)

		case "o":
			m.Engine.SetOctave(m.snap.Octave - 1)

		case "O":
			m.Engine.SetOctave(m.snap.Octave + 1)

		case "h", "left":
			if m.cursor > 0 {
				m.cursor--
			}

		case "right":
			if m.cursor < len(m.snap.Pattern)-1 {
				m.cursor++
			}

		case " ":
			m.Engine.ToggleStep(m.cursor)

		case "x", "esc":
			m.Engine.AllNotesOff()

		case "p":
			if m.Log.Paused() {
				m.Log.Resume()
			} else {
				m.Log.Pause()
			}

		case "?":
			m.showHelp = !m.showHelp
		}
		m.snap = m.Engine.Snapshot()

	case UpdateMsg:
		m.snap = m.Engine.Snapshot()
		return m, ListenForUpdates(m.Engine)
	}

	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	th := m.Theme
	snap := m.snap

	headerStyle := lipgloss.NewStyle().Foreground(th.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(th.Muted())
	fgStyle := lipgloss.NewStyle().Foreground(th.FG())
	warnStyle := lipgloss.NewStyle().Foreground(th.Warning())

	header := headerStyle.Render(fmt.Sprintf(
		"go-midifx  %s  %3.0fbpm  swing %.2f  %s",
		snap.Mode, snap.Tempo, snap.Swing, snap.ScaleName))

	toggles := strings.Join([]string{
		widgets.RenderToggle("scale", snap.ScaleOn, th),
		widgets.RenderToggle("arp", snap.ArpOn, th),
		widgets.RenderToggle("harmony", snap.HarmonyOn, th),
		widgets.RenderToggle("latch", snap.Latch, th),
	}, "  ")

	transform := fgStyle.Render(fmt.Sprintf(
		"transpose %+d  octave %+d  channel %s",
		snap.Transpose, snap.Octave, channelLabel(snap.Channel)))

	steps := make([]widgets.StepView, len(snap.Pattern))
	for i, s := range snap.Pattern {
		steps[i] = widgets.StepView{Active: s.Active, Accent: s.Accent, Hold: s.Hold}
	}
	playhead := -1
	if snap.ArpOn {
		playhead = snap.StepIndex
	}
	patternRow := widgets.RenderPatternRow(steps, playhead, m.cursor, th)

	held := "held: -"
	if len(snap.Held) > 0 {
		names := make([]string, len(snap.Held))
		for i, h := range snap.Held {
			names[i] = midi.NoteName(h.Note)
		}
		held = "held: " + strings.Join(names, " ")
	}
	status := fgStyle.Render(fmt.Sprintf(
		"%s  sounding:%d  voices:%d", held, snap.Sounding, snap.Voices))
	if snap.Dropped > 0 {
		status += warnStyle.Render(fmt.Sprintf("  dropped:%d", snap.Dropped))
	}

	var monitor strings.Builder
	monitorTitle := "monitor"
	if m.Log.Paused() {
		monitorTitle = "monitor (paused)"
	}
	monitor.WriteString(dimStyle.Render(monitorTitle))
	monitor.WriteString("\n")
	for _, entry := range m.Log.Tail(logTail) {
		monitor.WriteString(dimStyle.Render(entry.String()))
		monitor.WriteString("\n")
	}

	help := dimStyle.Render("a:arp s:scale y:harmony l:latch m:mode +/-:tempo [/]:swing  ←→:cursor space:step  x:panic ?:help q:quit")

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(toggles)
	out.WriteString("\n")
	out.WriteString(transform)
	out.WriteString("\n\n")
	out.WriteString(patternRow)
	out.WriteString("\n\n")
	out.WriteString(status)
	out.WriteString("\n\n")
	out.WriteString(monitor.String())
	out.WriteString("\n")
	out.WriteString(help)

	if m.showHelp {
		out.WriteString("\n\n")
		out.WriteString(widgets.RenderKeyHelp(keyHelp()))
	}

	return out.String()
}

func channelLabel(ch int) string {
	if ch < 0 {
		return "keep"
	}
	return fmt.Sprintf("%d", ch+1)
}

func keyHelp() []widgets.KeySection {
	return []widgets.KeySection{
		{
			Title: "Toggles",
			Keys: []widgets.KeyBinding{
				{Key: "a", Desc: "arpeggiator on/off"},
				{Key: "s", Desc: "scale snap on/off"},
				{Key: "y", Desc: "harmony on/off"},
				{Key: "l", Desc: "latch on/off"},
			},
		},
		{
			Title: "Arp",
			Keys: []widgets.KeyBinding{
				{Key: "m", Desc: "next mode"},
				{Key: "+/-", Desc: "tempo"},
				{Key: "[/]", Desc: "swing"},
				{Key: "←/→ space", Desc: "edit pattern steps"},
			},
		},
		{
			Title: "Output",
			Keys: []widgets.KeyBinding{
				{Key: "t/T", Desc: "transpose down/up"},
				{Key: "o/O", Desc: "octave down/up"},
				{Key: "x", Desc: "all notes off"},
				{Key: "p", Desc: "pause monitor"},
			},
		},
	}
}
