package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/hybsim/internal/analysis"
	"github.com/san-kum/hybsim/internal/dynamo"
	"github.com/san-kum/hybsim/internal/sim"
)

const (
	width           = 60
	height          = 20
	historyCapacity = 600
	maxStepsFrame   = 1024
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Options tunes the live view. Zero values select defaults.
type Options struct {
	Name          string
	StepsPerFrame int
	// XIndex and YIndex address the extended state (0=t, 1=j, 2..=x).
	XIndex, YIndex int
	Theme          string
}

// Model steps a simulator once per frame and renders its trajectory.
type Model struct {
	name   string
	sim    *sim.Simulator
	cfg    sim.Config
	params dynamo.Params

	initial dynamo.ExtendedState
	state   dynamo.ExtendedState
	steps   int
	status  dynamo.Status
	err     error
	done    bool

	running       bool
	stepsPerFrame int
	xIdx, yIdx    int
	trail         []analysis.Point
	outputs       []float64
	lastOutput    []float64

	canvas   *Canvas
	theme    Theme
	st       styles
	showHelp bool
}

// NewModel prepares a live view starting at (t=0, j=0, x0).
func NewModel(s *sim.Simulator, x0 dynamo.State, p dynamo.Params, cfg sim.Config, opts Options) (Model, error) {
	c := s.Engine().Contract()
	if len(x0) != c.StateSize {
		return Model{}, fmt.Errorf("%w: initial state has %d entries, want %d",
			dynamo.ErrInvalidDimension, len(x0), c.StateSize)
	}
	if err := cfg.Validate(); err != nil {
		return Model{}, err
	}

	xIdx, yIdx := opts.XIndex, opts.YIndex
	if xIdx == 0 && yIdx == 0 {
		xIdx, yIdx = 2, 3
		if c.StateSize < 2 {
			xIdx, yIdx = 0, 2
		}
	}
	if n := c.ExtendedSize(); xIdx < 0 || yIdx < 0 || xIdx >= n || yIdx >= n {
		return Model{}, fmt.Errorf("phase index out of range: extended state has %d components", n)
	}

	spf := opts.StepsPerFrame
	if spf <= 0 {
		spf = 1
	}
	theme := ThemeByName(opts.Theme)
	initial := dynamo.NewExtendedState(0, 0, x0)

	return Model{
		name:          opts.Name,
		sim:           s,
		cfg:           cfg,
		params:        p,
		initial:       initial,
		state:         initial.Clone(),
		running:       true,
		stepsPerFrame: min(spf, maxStepsFrame),
		xIdx:          xIdx,
		yIdx:          yIdx,
		trail:         []analysis.Point{{X: initial.At(xIdx), Y: initial.At(yIdx)}},
		outputs:       make([]float64, 0, historyCapacity),
		canvas:        NewCanvas(width, height),
		theme:         theme,
		st:            stylesFor(theme),
	}, nil
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles input events and steps the simulation.
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
		case "+", "=":
			m.stepsPerFrame = min(m.stepsPerFrame*2, maxStepsFrame)
		case "-", "_":
			m.stepsPerFrame = max(m.stepsPerFrame/2, 1)
		case "n":
			if !m.running {
				m.advance(1)
			}
		case "t":
			m.theme = nextTheme(m.theme.Name)
			m.st = stylesFor(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.advance(m.stepsPerFrame)
		}
		return m, tick()
	}
	return m, nil
}

// advance takes up to n steps and stops for good at a horizon, MaxSteps
// or an engine error.
func (m *Model) advance(n int) {
	for i := 0; i < n && !m.done; i++ {
		if m.cfg.MaxSteps > 0 && m.steps >= m.cfg.MaxSteps {
			m.done = true
			return
		}

		out, err := m.sim.Step(m.state, m.params, float64(m.steps), m.cfg)
		status := dynamo.StatusOf(err)
		if err != nil && !status.IsHorizon() {
			m.fail(status, err)
			return
		}
		if m.cfg.ValidateState && !out.Next.IsValid() {
			m.fail(dynamo.StatusGeneric, &dynamo.StepError{
				T: m.state.T(), J: m.state.J(), Status: dynamo.StatusGeneric, Wrapped: dynamo.ErrInvalidState,
			})
			return
		}

		m.steps++
		m.state = out.Next
		m.record(out.Next, out.Output, out.Jumped)
		if err != nil {
			m.status = status
			m.done = true
		}
	}
}

func (m *Model) fail(status dynamo.Status, err error) {
	m.status = status
	m.err = err
	m.done = true
}

func (m *Model) record(next dynamo.ExtendedState, y []float64, jumped bool) {
	m.trail = append(m.trail, analysis.Point{X: next.At(m.xIdx), Y: next.At(m.yIdx), Jump: jumped})
	if len(m.trail) > historyCapacity {
		m.trail = m.trail[1:]
	}
	if len(y) > 0 {
		m.outputs = append(m.outputs, y[0])
		if len(m.outputs) > historyCapacity {
			m.outputs = m.outputs[1:]
		}
	}
	m.lastOutput = append(m.lastOutput[:0], y...)
}

// reset restores the initial state and clears the history.
func (m *Model) reset() {
	m.state = m.initial.Clone()
	m.steps = 0
	m.status = dynamo.StatusSuccess
	m.err = nil
	m.done = false
	m.trail = append(m.trail[:0], analysis.Point{X: m.initial.At(m.xIdx), Y: m.initial.At(m.yIdx)})
	m.outputs = m.outputs[:0]
	m.lastOutput = m.lastOutput[:0]
}

func (m *Model) draw() {
	m.canvas.Clear()
	portrait := analysis.PhasePortrait{XIndex: m.xIdx, YIndex: m.yIdx, Points: m.trail}
	minX, maxX, minY, maxY := portrait.Bounds()
	m.canvas.PlotPath(m.trail, Viewport{MinX: minX, MaxX: maxX, MinY: minY, MaxY: maxY})
}

func (m Model) statusLine() string {
	switch {
	case m.err != nil:
		return m.st.fail.Render("ERROR " + m.err.Error())
	case m.done && m.status.IsHorizon():
		return m.st.stop.Render("STOPPED " + m.status.String())
	case m.done:
		return m.st.stop.Render("STOPPED max steps")
	case !m.running:
		return m.st.pause.Render("PAUSED")
	}
	return m.st.run.Render("RUNNING")
}

var axisNames = []string{"t", "j"}

func axisName(i int) string {
	if i < len(axisNames) {
		return axisNames[i]
	}
	return fmt.Sprintf("x%d", i-2)
}

// View renders the canvas next to the stats panel.
func (m Model) View() string {
	m.draw()
	canvasView := m.st.canvas.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(m.st.header.Render(strings.ToUpper(m.name)) + "\n")
	s.WriteString(m.statusLine() + "\n\n")

	row := func(label, value string) {
		s.WriteString(m.st.label.Render(label) + m.st.value.Render(value) + "\n")
	}
	row("t", fmt.Sprintf("%.4f", m.state.T()))
	row("j", fmt.Sprintf("%d", m.state.J()))
	row("steps", fmt.Sprintf("%d", m.steps))
	row("speed", fmt.Sprintf("%d/frame", m.stepsPerFrame))
	row("phase", axisName(m.xIdx)+" vs "+axisName(m.yIdx))
	if len(m.lastOutput) > 0 {
		parts := make([]string, len(m.lastOutput))
		for i, v := range m.lastOutput {
			parts[i] = fmt.Sprintf("%.3g", v)
		}
		row("y", strings.Join(parts, " "))
	}

	if len(m.outputs) > 1 {
		chart := asciigraph.Plot(m.outputs, asciigraph.Height(6), asciigraph.Width(30), asciigraph.Caption("y0"))
		s.WriteString(m.st.graph.Render(chart) + "\n")
	}

	if m.showHelp {
		s.WriteString(m.st.help.Render("space pause  n step  r reset\n+/- speed  t theme (" + m.theme.Name + ")\n? help  q quit"))
	} else {
		s.WriteString(m.st.help.Render("? help  q quit"))
	}

	statsView := m.st.stats.Render(s.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
}

// Run blocks until the user quits.
func Run(m Model) error {
	_, err := tea.NewProgram(m).Run()
	return err
}
