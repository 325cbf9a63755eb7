package debugui

import (
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/orrery/ecs"
	"github.com/plus3/orrery/sim"
)

// Settings is the View Selector panel: which camera drives the scene, whether
// the ship answers the keyboard, and the control hints.
type Settings struct {
	Session *sim.Session
	// ShowHints, when set, is toggled by the panel's Hints checkbox.
	ShowHints *bool
}

func (s *Settings) Render() {
	imgui.SetNextWindowPosV(imgui.NewVec2(10, 10), imgui.CondOnce, imgui.NewVec2(0, 0))
	if !imgui.BeginV("View Selector", nil, imgui.WindowFlagsAlwaysAutoResize) {
		imgui.End()
		return
	}

	current := s.Session.View()
	for i, v := range []sim.View{sim.ViewSystem, sim.ViewShip} {
		if i > 0 {
			imgui.SameLine()
		}
		if imgui.RadioButtonBool(viewLabel(v), current == v) && current != v {
			s.Session.SetView(v)
		}
	}

	if ship, _, ok := s.Session.Ship(); ok {
		moving := ship.Moving
		if imgui.Checkbox("Motion", &moving) {
			s.Session.SetMotion(moving)
		}
	}
	if s.ShowHints != nil {
		imgui.Checkbox("Hints", s.ShowHints)
	}

	imgui.Separator()
	for _, hint := range s.Session.Hints() {
		imgui.BulletText(hint)
	}

	imgui.End()
}

func viewLabel(v sim.View) string {
	name := v.String()
	return strings.ToUpper(name[:1]) + name[1:]
}

// Spawn adds the settings, inspector and statistics panels to session's world
// and registers ImguiSystem after the frame systems. The world's registry must
// include RegisterComponents.
func Spawn(session *sim.Session, showHints *bool) {
	storage := session.Storage()
	ecs.NewSingleton[ImguiInputState](storage)

	settings := &Settings{Session: session, ShowHints: showHints}
	inspector := NewInspector(session)
	stats := NewPerformanceStats(session, 120)
	for _, render := range []func(){settings.Render, inspector.Render, stats.Render} {
		storage.Spawn(ImguiItem{Render: render})
	}

	session.Scheduler().Register(&ImguiSystem{})
}
