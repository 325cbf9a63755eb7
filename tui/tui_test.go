package tui

import (
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/orrery/ecs"
	"github.com/plus3/orrery/scene"
	"github.com/plus3/orrery/sim"
)

func newModel(t *testing.T) (Model, *sim.Session) {
	t.Helper()
	storage := ecs.NewStorage(sim.NewRegistry())
	desc := scene.Default()
	scene.Build(storage, desc, rand.New(rand.NewPCG(1, 1)))

	canvas := &Canvas{}
	session := sim.NewSession(storage, sim.DefaultConfig(), canvas, sim.WithEnvironment(desc.Environment()))
	m := New(session, canvas)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model), session
}

func send(m Model, msgs ...tea.Msg) Model {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var frame = tickMsg(time.Time{})

func TestResize(t *testing.T) {
	_, session := newModel(t)
	assert.Equal(t, 120, session.Rig().Width)
	assert.Equal(t, (40-hudLines)*cellAspect, session.Rig().Height)
}

func TestTickSchedulesNext(t *testing.T) {
	m, session := newModel(t)
	observed := 0
	m = m.AfterTick(func() { observed++ })

	_, cmd := m.Update(frame)
	assert.NotNil(t, cmd)
	assert.Equal(t, int64(1), session.Frame())
	assert.Equal(t, 1, observed)
}

func TestTabSwitchesView(t *testing.T) {
	m, session := newModel(t)
	m = send(m, tea.KeyMsg{Type: tea.KeyTab}, frame)
	assert.Equal(t, sim.ViewShip, session.View())
	assert.Equal(t, sim.CameraShip, session.Rig().Active)

	send(m, tea.KeyMsg{Type: tea.KeyTab}, frame)
	assert.Equal(t, sim.ViewSystem, session.View())
}

func TestShipKeysLastOneTick(t *testing.T) {
	m, session := newModel(t)
	m = send(m, tea.KeyMsg{Type: tea.KeyTab}, frame)

	_, tr, ok := session.Ship()
	require.True(t, ok)
	require.InDelta(t, 70, tr.Position.Z(), 1e-9)

	m = send(m, runes("w"))
	assert.True(t, session.Keys().Pressed(sim.KeyW))

	m = send(m, frame)
	assert.InDelta(t, 69.5, tr.Position.Z(), 1e-9)
	assert.False(t, session.Keys().Pressed(sim.KeyW))

	send(m, frame)
	assert.InDelta(t, 69.5, tr.Position.Z(), 1e-9)
}

func TestSystemViewKeysDriveControls(t *testing.T) {
	m, session := newModel(t)
	before := session.Rig().System.Position

	m = send(m, runes("+"))
	assert.True(t, session.Controls().Pending())
	assert.False(t, session.Keys().Pressed(sim.KeyW))

	m = send(m, tea.KeyMsg{Type: tea.KeyLeft}, frame)
	assert.Less(t, session.Rig().System.Position.Sub(sim.DefaultConfig().SystemCamera.Target).Len(), before.Len())
	assert.False(t, session.Keys().Pressed(sim.KeyArrowLeft), "arrows orbit the camera in system view")
}

func TestMotionToggle(t *testing.T) {
	m, session := newModel(t)
	ship, _, _ := session.Ship()

	m = send(m, runes("m"))
	assert.False(t, ship.Moving)
	assert.Contains(t, m.View(), "motion off")

	send(m, runes("m"))
	assert.True(t, ship.Moving)
}

func TestQuit(t *testing.T) {
	m, _ := newModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	_, cmd = m.Update(runes("q"))
	assert.Nil(t, cmd, "q steers the ship")
}

func TestViewDrawsTheSystem(t *testing.T) {
	m, _ := newModel(t)
	assert.Equal(t, "starting…", New(nil, &Canvas{}).View())

	m = send(m, frame)
	out := m.View()
	assert.Contains(t, out, "☉")
	assert.Contains(t, out, "·")
	assert.Contains(t, out, "system view")
	assert.Contains(t, out, "Wheel: zoom")

	m = send(m, runes("?"))
	assert.NotContains(t, m.View(), "Wheel: zoom")
}

func TestCanvasGlyphs(t *testing.T) {
	c := &Canvas{}
	assert.Empty(t, c.Draw(80, 20))

	cam := sim.NewCamera(sim.DefaultConfig().SystemCamera)
	c.Render(&sim.Scene{Bodies: []sim.Drawable{
		{Name: "sun", Kind: sim.KindStar, Radius: 2},
		{Name: "mars", Kind: sim.KindPlanet, Radius: 2, Position: mgl64.Vec3{20, 0, 0}},
		{Name: "ship", Kind: sim.KindShip, Radius: 2, Position: mgl64.Vec3{-20, 0, 0}},
	}}, cam)

	out := c.Draw(80, 20)
	assert.Len(t, strings.Split(out, "\n"), 20)
	assert.Contains(t, out, "☉")
	assert.Contains(t, out, "M")
	assert.Contains(t, out, "◆")
}
