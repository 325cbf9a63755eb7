// Package tui runs the solar system in a terminal with bubbletea.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/plus3/orrery/sim"
)

// hudLines is the height reserved under the canvas.
const hudLines = 3

// One keypress nudges the system camera by this many cells.
const dragCells = 2.0

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/sim.TickRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9D4EDD")).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
)

// shipKeys maps terminal key names to the keys the ship reads.
var shipKeys = map[string]sim.Key{
	"up":    sim.KeyArrowUp,
	"down":  sim.KeyArrowDown,
	"left":  sim.KeyArrowLeft,
	"right": sim.KeyArrowRight,
	"q":     sim.KeyQ,
	"e":     sim.KeyE,
	"w":     sim.KeyW,
	"s":     sim.KeyS,
	"a":     sim.KeyA,
	"d":     sim.KeyD,
}

// Model is the bubbletea model for the terminal frontend. Terminals report
// key presses but not releases, so a pressed key is held for one tick.
type Model struct {
	session *sim.Session
	canvas  *Canvas

	width, height int
	showHints     bool
	afterTick     func()
}

// New returns a model driving session. canvas must be the session's renderer.
func New(session *sim.Session, canvas *Canvas) Model {
	return Model{session: session, canvas: canvas, showHints: true}
}

// AfterTick returns a copy of m that calls fn after every session tick.
func (m Model) AfterTick(fn func()) Model {
	m.afterTick = fn
	return m
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.session.Resize(m.width, m.canvasRows()*cellAspect)

	case tickMsg:
		m.session.Tick()
		m.session.Keys().ReleaseAll()
		if m.afterTick != nil {
			m.afterTick()
		}
		return m, tick()

	case tea.KeyMsg:
		return m.key(msg.String())
	}
	return m, nil
}

func (m Model) key(k string) (tea.Model, tea.Cmd) {
	switch k {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "tab":
		m.session.SetView(m.session.View().Toggle())
		return m, nil
	case "?":
		m.showHints = !m.showHints
		return m, nil
	case "m":
		if ship, _, ok := m.session.Ship(); ok {
			m.session.SetMotion(!ship.Moving)
		}
		return m, nil
	}

	if m.session.View() == sim.ViewShip {
		if key, ok := shipKeys[k]; ok {
			m.session.Keys().Set(key, true)
		}
		return m, nil
	}

	controls := m.session.Controls()
	height := float64(m.canvasRows() * cellAspect)
	switch k {
	case "+", "=":
		controls.Zoom(1)
	case "-":
		controls.Zoom(-1)
	case "left", "h":
		controls.Rotate(-dragCells, 0, height)
	case "right", "l":
		controls.Rotate(dragCells, 0, height)
	case "up", "k":
		controls.Rotate(0, -dragCells*cellAspect, height)
	case "down", "j":
		controls.Rotate(0, dragCells*cellAspect, height)
	}
	return m, nil
}

func (m Model) canvasRows() int {
	return max(m.height-hudLines, 1)
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "starting…"
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.canvas.Draw(m.width, m.canvasRows()), m.hud())
}

func (m Model) hud() string {
	status := fmt.Sprintf("%s view  frame %d", m.session.View(), m.session.Frame())
	if ship, tr, ok := m.session.Ship(); ok {
		p := tr.Position
		status += fmt.Sprintf("  ship (%.1f, %.1f, %.1f)", p[0], p[1], p[2])
		if !ship.Moving {
			status += "  motion off"
		}
	}

	lines := []string{titleStyle.Render("orrery") + "  " + status}
	if m.showHints {
		lines = append(lines, dimStyle.Render(strings.Join(m.session.Hints(), " · ")))
	}
	lines = append(lines, dimStyle.Render("tab: switch view · m: motion · ?: hints · esc: quit"))
	return strings.Join(lines, "\n")
}
