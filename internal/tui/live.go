package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/akmonengine/cuboid/actor"
	"github.com/akmonengine/cuboid/internal/driver"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/guptarohit/asciigraph"
)

const (
	width           = 60
	height          = 20
	historyCapacity = 300
)

var (
	canvasStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statsStyle  = lipgloss.NewStyle().Padding(0, 2).Width(42)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	pausedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

const (
	immovableGlyph = '#'
	awakeGlyph     = 'o'
	asleepGlyph    = '.'
	emptyGlyph     = ' '
)

type TickMsg time.Time

// Model draws the world of a clock seen along -Z, and plots the height of
// the tracked box.
type Model struct {
	clock   *driver.Clock
	name    string
	tracked *actor.Box

	// view is the XY window, fixed when the model is created.
	view     actor.AABB
	last     time.Time
	heights  []float64
	stepped  int
	quitting bool
}

// NewModel tracks the first movable box of the world, if any.
func NewModel(name string, clock *driver.Clock) Model {
	m := Model{clock: clock, name: name}

	for box := range clock.World.Shapes() {
		if box.Body.HasFiniteMass() {
			m.tracked = box
			break
		}
	}

	bounds := clock.World.Bounds()
	if bounds.IsEmpty() {
		bounds = actor.AABB{Min: mgl64.Vec3{-1, -1, -1}, Max: mgl64.Vec3{1, 1, 1}}
	}
	margin := bounds.Size().Mul(0.1).Add(mgl64.Vec3{0.5, 0.5, 0.5})
	m.view = actor.AABB{Min: bounds.Min.Sub(margin), Max: bounds.Max.Add(margin)}

	return m
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "p", " ":
			m.clock.Toggle()
		case "o":
			m.clock.Step()
		}
	case TickMsg:
		now := time.Time(msg)
		if !m.last.IsZero() {
			m.stepped += m.clock.Advance(now.Sub(m.last))
		}
		m.last = now
		m.record()
		return m, tick()
	}
	return m, nil
}

func (m *Model) record() {
	if m.tracked == nil {
		return
	}
	m.heights = append(m.heights, m.tracked.Body.Position.Y())
	if len(m.heights) > historyCapacity {
		m.heights = m.heights[len(m.heights)-historyCapacity:]
	}
}

// Stepped returns the number of world steps run by the model.
func (m Model) Stepped() int {
	return m.stepped
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	world := m.clock.World
	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.name)) + "\n")
	if m.clock.Paused() {
		s.WriteString(pausedStyle.Render("PAUSED") + "\n\n")
	} else {
		s.WriteString("RUNNING\n\n")
	}

	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.2fs", float64(world.Steps())*m.clock.Dt)) + "\n")
	s.WriteString(labelStyle.Render("Steps") + valueStyle.Render(fmt.Sprintf("%d", world.Steps())) + "\n")
	s.WriteString(labelStyle.Render("Bodies") + valueStyle.Render(fmt.Sprintf("%d", len(world.Bodies))) + "\n")
	s.WriteString(labelStyle.Render("Awake") + valueStyle.Render(fmt.Sprintf("%d", world.Awake())) + "\n")
	s.WriteString(labelStyle.Render("Contacts") + valueStyle.Render(fmt.Sprintf("%d", world.Contacts())) + "\n")

	if len(m.heights) > 1 {
		chart := asciigraph.Plot(m.heights, asciigraph.Height(6), asciigraph.Width(30), asciigraph.Caption("Height"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	s.WriteString(helpStyle.Render("P:Pause O:Step Q:Quit"))

	return lipgloss.JoinHorizontal(lipgloss.Top, canvasStyle.Render(m.draw()), statsStyle.Render(s.String()))
}

// draw fills the XY footprint of every box, later boxes on top.
func (m Model) draw() string {
	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(string(emptyGlyph), width))
	}

	size := m.view.Size()
	for box := range m.clock.World.Shapes() {
		glyph := awakeGlyph
		switch {
		case !box.Body.HasFiniteMass():
			glyph = immovableGlyph
		case !box.Body.IsAwake():
			glyph = asleepGlyph
		}

		bounds := box.AABB()
		x0 := int((bounds.Min.X() - m.view.Min.X()) / size.X() * width)
		x1 := int((bounds.Max.X() - m.view.Min.X()) / size.X() * width)
		y0 := int((m.view.Max.Y() - bounds.Max.Y()) / size.Y() * height)
		y1 := int((m.view.Max.Y() - bounds.Min.Y()) / size.Y() * height)

		for y := max(y0, 0); y <= min(y1, height-1); y++ {
			for x := max(x0, 0); x <= min(x1, width-1); x++ {
				grid[y][x] = glyph
			}
		}
	}

	lines := make([]string, height)
	for i, row := range grid {
		lines[i] = string(row)
	}
	return strings.Join(lines, "\n")
}
