// Package viz renders a live terminal view of a running control loop.
package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/RhysU/helm/internal/helm"
	"github.com/RhysU/helm/internal/loop"
)

const (
	graphWidth  = 72
	graphHeight = 12
	historyCap  = 600
	stepsPerTic = 4
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Model steps one closed loop in real time and plots the recent
// reference and output history.
type Model struct {
	ctrl     *helm.State
	plant    loop.Plant
	act      loop.Actuator
	setpoint float64
	dt       float64

	t, u, v  float64
	initial  float64
	running  bool
	refs     []float64
	outputs  []float64
	controls []float64
}

// NewModel assembles the live view. The controller must already be
// tuned; the model calls Approach before the first step.
func NewModel(ctrl *helm.State, p loop.Plant, act loop.Actuator, setpoint, dt, initial float64) Model {
	if act == nil {
		act = loop.Direct{}
	}
	ctrl.Approach()
	return Model{
		ctrl:     ctrl,
		plant:    p,
		act:      act,
		setpoint: setpoint,
		dt:       dt,
		v:        initial,
		u:        initial,
		initial:  initial,
		running:  true,
		refs:     make([]float64, 0, historyCap),
		outputs:  make([]float64, 0, historyCap),
		controls: make([]float64, 0, historyCap),
	}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			// Pausing is a manual interval: approach again on resume
			// so the restart carries no kick.
			if m.running {
				m.running = false
			} else {
				m.ctrl.Approach()
				m.running = true
			}
		case "r":
			m.reset()
		case "up", "k":
			m.setpoint += 0.1
		case "down", "j":
			m.setpoint -= 0.1
		}
	case TickMsg:
		if m.running {
			for i := 0; i < stepsPerTic; i++ {
				m.step()
			}
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) reset() {
	if r, ok := m.plant.(interface{ Reset(...float64) }); ok {
		r.Reset()
	}
	m.ctrl.Approach()
	m.t = 0
	m.v = m.initial
	m.u = m.initial
	m.refs = m.refs[:0]
	m.outputs = m.outputs[:0]
	m.controls = m.controls[:0]
}

func (m *Model) step() {
	y := m.plant.Output()
	m.v += m.ctrl.Steady(m.dt, m.setpoint, m.u, m.v, helm.Sample(y))
	m.u = m.act.Apply(m.dt, m.v)
	m.plant.Advance(m.dt, m.u)
	m.t += m.dt

	m.refs = push(m.refs, m.setpoint)
	m.outputs = push(m.outputs, y)
	m.controls = push(m.controls, m.v)
}

func push(xs []float64, x float64) []float64 {
	if len(xs) == historyCap {
		copy(xs, xs[1:])
		xs = xs[:historyCap-1]
	}
	return append(xs, x)
}

func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(headerStyle.Render("helm live"))
	sb.WriteString("\n")

	if len(m.outputs) > 1 {
		graph := asciigraph.PlotMany(
			[][]float64{m.refs, m.outputs},
			asciigraph.Height(graphHeight),
			asciigraph.Width(graphWidth),
			asciigraph.Caption("reference and process output"),
		)
		sb.WriteString(graphStyle.Render(graph))
		sb.WriteString("\n")

		ctrl := asciigraph.Plot(m.controls,
			asciigraph.Height(graphHeight/2),
			asciigraph.Width(graphWidth),
			asciigraph.Caption("control signal"),
		)
		sb.WriteString(graphStyle.Render(ctrl))
		sb.WriteString("\n")
	}

	row := func(label string, value float64) {
		sb.WriteString(labelStyle.Render(label))
		sb.WriteString(valueStyle.Render(fmt.Sprintf("%10.4f", value)))
		sb.WriteString("\n")
	}
	row("t", m.t)
	row("setpoint", m.setpoint)
	row("output", m.plant.Output())
	row("control v", m.v)
	row("applied u", m.u)

	state := "running"
	if !m.running {
		state = "paused"
	}
	sb.WriteString(helpStyle.Render(
		state + "  |  space pause  ↑/↓ setpoint  r reset  q quit"))
	sb.WriteString("\n")

	return sb.String()
}
