package sim

import (
	"log/slog"

	"github.com/plus3/orrery/ecs"
)

// OrbitSystem advances every orbiting body and spins it about its own axis.
type OrbitSystem struct {
	Bodies ecs.Query[struct {
		*Orbit
		*Transform
		Spin *Spin `ecs:"optional"`
	}]
}

func (s *OrbitSystem) Execute(frame *ecs.UpdateFrame) {
	for body := range s.Bodies.Values() {
		body.Orbit.Advance()
		body.Transform.Position = body.Orbit.Position()
		if body.Spin != nil {
			body.Transform.Rotation[1] += body.Spin.Rate
		}
	}
}

// SunSpinSystem turns the star in place.
type SunSpinSystem struct {
	Stars ecs.Query[struct {
		*Star
		*Spin
		*Transform
	}]
}

func (s *SunSpinSystem) Execute(frame *ecs.UpdateFrame) {
	for star := range s.Stars.Values() {
		star.Transform.Rotation[1] += star.Spin.Rate
	}
}

// ViewChangeSystem reacts once to each change of the selected view. Entering
// the system view sends the ship home.
type ViewChangeSystem struct {
	View  ecs.Singleton[ViewState]
	Ships ecs.Query[struct {
		*Ship
		*Transform
	}]
	Log *slog.Logger
}

func (s *ViewChangeSystem) Execute(frame *ecs.UpdateFrame) {
	state := s.View.Get()
	if state.Current == state.observed {
		return
	}

	if state.Current == ViewSystem {
		for ship := range s.Ships.Values() {
			ship.Ship.Reset(ship.Transform)
		}
	}

	s.Log.Info("view changed", "from", state.observed, "to", state.Current, "frame", frame.Index)
	state.observed = state.Current
	state.Changes++
}

// ShipControlSystem flies the ship: from the keyboard in the ship view, on
// autopilot otherwise. The two never apply in the same frame.
type ShipControlSystem struct {
	View  ecs.Singleton[ViewState]
	Keys  ecs.Singleton[KeyState]
	Ships ecs.Query[struct {
		*Ship
		*Transform
	}]
	Bindings Bindings
	Log      *slog.Logger
}

func (s *ShipControlSystem) Execute(frame *ecs.UpdateFrame) {
	view := s.View.Get().Current
	keys := s.Keys.Get()

	for ship := range s.Ships.Values() {
		if view == ViewShip {
			ship.Ship.Steer(ship.Transform, keys, s.Bindings)
			continue
		}
		if ship.Ship.Autopilot(ship.Transform) {
			s.Log.Debug("autopilot wrapped", "frame", frame.Index)
		}
	}
}

// ReflectionSystem refreshes the ship's mirror from the ship's position,
// hiding the ship while the capture runs.
type ReflectionSystem struct {
	Display   ecs.Singleton[Display]
	View      ecs.Singleton[ViewState]
	Drawables ecs.Query[drawableView]
	Ships     ecs.Query[struct {
		*Ship
		*Transform
	}]
}

func (s *ReflectionSystem) Execute(frame *ecs.UpdateFrame) {
	display := s.Display.Get()
	if display == nil || display.Renderer == nil {
		return
	}

	for ship := range s.Ships.Values() {
		if !ship.Transform.Visible {
			continue
		}
		ship.Transform.Visible = false
		scene := collectScene(&s.Drawables, frame.Index, s.View.Get().Current, display.Environment)
		display.Renderer.CaptureReflection(scene, ship.Transform.Position)
		display.Captures++
		ship.Transform.Visible = true
	}
}

// CameraSelectSystem picks the camera for the current view, enables orbit
// controls only with the system camera and keeps the ship camera on its mount.
type CameraSelectSystem struct {
	View  ecs.Singleton[ViewState]
	Rig   ecs.Singleton[CameraRig]
	Ships ecs.Query[struct {
		*Ship
		*Transform
	}]
}

func (s *CameraSelectSystem) Execute(frame *ecs.UpdateFrame) {
	rig := s.Rig.Get()
	if s.View.Get().Current == ViewShip {
		rig.Active = CameraShip
		rig.Controls.Enabled = false
	} else {
		rig.Active = CameraSystem
		rig.Controls.Enabled = true
	}

	if ship, ok := s.Ships.First(); ok {
		rig.Mount.Place(&rig.Ship, ship.Transform)
	}
}

// ControlsSystem applies pending orbit-control input to the system camera.
type ControlsSystem struct {
	Rig ecs.Singleton[CameraRig]
}

func (s *ControlsSystem) Execute(frame *ecs.UpdateFrame) {
	rig := s.Rig.Get()
	if rig.Active != CameraSystem {
		return
	}
	rig.Controls.Update(&rig.System)
}

// RenderSystem draws the frame through the active camera.
type RenderSystem struct {
	Display   ecs.Singleton[Display]
	View      ecs.Singleton[ViewState]
	Rig       ecs.Singleton[CameraRig]
	Drawables ecs.Query[drawableView]
}

func (s *RenderSystem) Execute(frame *ecs.UpdateFrame) {
	display := s.Display.Get()
	if display == nil || display.Renderer == nil {
		return
	}
	scene := collectScene(&s.Drawables, frame.Index, s.View.Get().Current, display.Environment)
	display.Renderer.Render(scene, s.Rig.Get().Current())
	display.Renders++
}
