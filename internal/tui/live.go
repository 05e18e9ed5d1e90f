// Package tui is the live terminal front end: a color dye canvas with
// solver diagnostics, driven by bubbletea.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/liquidlab/internal/elements"
	"github.com/san-kum/liquidlab/internal/field"
	"github.com/san-kum/liquidlab/internal/solver"
)

const (
	canvasCols      = 72
	canvasRows      = 28
	historyCapacity = 600
	graphHeight     = 6
	graphWidth      = 60
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

type TickMsg time.Time

// Model owns the simulation between frames; bubbletea serializes Update
// calls so no locking is needed.
type Model struct {
	state    *solver.State
	initial  []elements.Element
	canvas   *Canvas
	dt       float64
	running  bool
	showHelp bool
	err      error

	massHistory  []float64
	residHistory []float64
}

func NewModel(state *solver.State, dt float64) Model {
	initial := state.Elements()
	return Model{
		state:        state,
		initial:      initial,
		canvas:       NewCanvas(canvasCols, canvasRows),
		dt:           dt,
		running:      true,
		massHistory:  make([]float64, 0, historyCapacity),
		residHistory: make([]float64, 0, historyCapacity),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "d":
			m.splat()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running && m.err == nil {
			if err := m.state.Step(m.dt); err != nil {
				m.err = err
				m.running = false
			} else {
				m.record()
			}
		}
		return m, tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

func (m *Model) record() {
	r := m.state.Report()
	total := 0.0
	for _, v := range r.Mass {
		total += v
	}
	m.massHistory = append(m.massHistory, total)
	if len(m.massHistory) > historyCapacity {
		m.massHistory = m.massHistory[1:]
	}
	m.residHistory = append(m.residHistory, r.Residual)
	if len(m.residHistory) > historyCapacity {
		m.residHistory = m.residHistory[1:]
	}
}

// reset clears the fields and restores the elements the view started with.
func (m *Model) reset() {
	m.state.Clear()
	m.state.ReplaceElements(m.initial)
	m.massHistory = m.massHistory[:0]
	m.residHistory = m.residHistory[:0]
	m.err = nil
	m.running = true
}

// splat queues a one-off dye burst with a downward push at the center.
func (m *Model) splat() {
	g := m.state.Grid()
	center := elements.Vec2{X: float64(g.Width) / 2, Y: float64(g.Height) / 2}
	radius := float64(g.Width) * 0.04
	m.state.InjectDye(center, radius, elements.Color{R: 1, G: 1, B: 1}, 3.0)
	m.state.ApplyForce(center, radius*2, elements.Vec2{X: 0, Y: 1}, 2.0)
}

func (m Model) View() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render("LIQUIDLAB") + "\n")

	status := "RUNNING"
	if m.err != nil {
		status = errorStyle.Render("DIVERGED: " + m.err.Error())
	} else if !m.running {
		status = "PAUSED"
	}
	s.WriteString(status + "\n")

	snap := m.state.DyeSnapshot()
	s.WriteString(canvasStyle.Render(m.canvas.Render(snap)))
	m.state.ReleaseSnapshot(snap)
	s.WriteByte('\n')

	r := m.state.Report()
	g := m.state.Grid()
	s.WriteString(statLine("grid", fmt.Sprintf("%dx%d", g.Width, g.Height)))
	s.WriteString(statLine("step", fmt.Sprintf("%d", r.Step)))
	s.WriteString(statLine("mass", fmt.Sprintf("%.3f / %.3f / %.3f",
		r.Mass[field.ChannelR], r.Mass[field.ChannelG], r.Mass[field.ChannelB])))
	s.WriteString(statLine("residual", fmt.Sprintf("%.2e", r.Residual)))
	s.WriteString(statLine("iterations", fmt.Sprintf("%d", r.Iterations)))
	s.WriteString(statLine("step time", r.Duration.Round(time.Microsecond).String()))
	s.WriteString(statLine("elements", fmt.Sprintf("%d", len(m.state.Elements()))))

	if len(m.massHistory) > 1 {
		graph := asciigraph.Plot(m.massHistory,
			asciigraph.Height(graphHeight),
			asciigraph.Width(graphWidth),
			asciigraph.Caption("total dye mass"))
		s.WriteString(graphStyle.Render(graph) + "\n")
	}
	if m.showHelp && len(m.residHistory) > 1 {
		graph := asciigraph.Plot(m.residHistory,
			asciigraph.Height(graphHeight),
			asciigraph.Width(graphWidth),
			asciigraph.Caption("pressure residual"))
		s.WriteString(graphStyle.Render(graph) + "\n")
	}

	s.WriteString(helpStyle.Render("space pause · d splat · r reset · ? diagnostics · q quit"))
	return s.String()
}

func statLine(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value) + "\n"
}

// Run blocks until the user quits the live view.
func Run(state *solver.State, dt float64) error {
	p := tea.NewProgram(NewModel(state, dt))
	_, err := p.Run()
	return err
}
