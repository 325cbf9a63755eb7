package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/plus3/orrery/ecs"
)

// Orbit moves a body around the origin on a circle in the horizontal plane.
type Orbit struct {
	Radius float64
	// Speed is the angle added every tick, in radians.
	Speed float64
	Angle float64
}

// Advance moves the body one tick along its orbit.
func (o *Orbit) Advance() {
	o.Angle += o.Speed
}

// Position is the point on the orbit at the current angle.
func (o *Orbit) Position() mgl64.Vec3 {
	return mgl64.Vec3{o.Radius * math.Cos(o.Angle), 0, o.Radius * math.Sin(o.Angle)}
}

// Spin rotates an entity about its own vertical axis by Rate radians per tick.
type Spin struct {
	Rate float64
}

// Star marks the light source at the centre of the system.
type Star struct {
	LightColor colorful.Color
	Intensity  float64
}

// BodyKind says how a Body is drawn.
type BodyKind int

const (
	KindPlanet BodyKind = iota
	KindStar
	KindShip
)

func (k BodyKind) String() string {
	switch k {
	case KindStar:
		return "star"
	case KindShip:
		return "ship"
	default:
		return "planet"
	}
}

// Body is a drawable sphere.
type Body struct {
	Name        string
	Radius      float64
	Color       colorful.Color
	Texture     string
	Decorations []Decoration
}

// DecorationKind identifies an attachment drawn with its parent body.
type DecorationKind int

const (
	DecorationClouds DecorationKind = iota
	DecorationMoon
	DecorationRing
)

func (k DecorationKind) String() string {
	switch k {
	case DecorationMoon:
		return "moon"
	case DecorationRing:
		return "ring"
	default:
		return "clouds"
	}
}

// Decoration is a child of a body. It moves and spins with its parent.
type Decoration struct {
	Kind DecorationKind
	// Radius is the sphere radius for clouds and moons, and the inner radius for rings.
	Radius float64
	// Outer is the outer ring radius.
	Outer float64
	// Offset places a moon in the parent's local frame.
	Offset  mgl64.Vec3
	Opacity float64
	Color   colorful.Color
	Texture string
}

// Ship is the player craft. It carries its own motion tuning so scenes can override it.
type Ship struct {
	// Moving gates manual control; returning to the system view sets it.
	Moving bool
	Home   Pose

	MoveSpeed      float64
	RotationSpeed  float64
	AutopilotStep  float64
	AutopilotLimit float64
}

// Reset puts the ship back at its home pose and re-enables motion.
func (s *Ship) Reset(t *Transform) {
	t.SetPose(s.Home)
	s.Moving = true
}

// Steer applies one tick of manual control. Every held key contributes
// independently, so opposing keys cancel and diagonals are not normalised.
func (s *Ship) Steer(t *Transform, keys *KeyState, b Bindings) {
	if !s.Moving {
		return
	}

	rs, ms := s.RotationSpeed, s.MoveSpeed
	if keys.Pressed(b.PitchUp) {
		t.Rotation[0] += rs
	}
	if keys.Pressed(b.PitchDown) {
		t.Rotation[0] -= rs
	}
	if keys.Pressed(b.YawLeft) {
		t.Rotation[1] += rs
	}
	if keys.Pressed(b.YawRight) {
		t.Rotation[1] -= rs
	}
	if keys.Pressed(b.Rise) {
		t.Translate(axisY, ms)
	}
	if keys.Pressed(b.Sink) {
		t.Translate(axisY, -ms)
	}
	if keys.Pressed(b.Forward) {
		t.Translate(axisZ, ms)
	}
	if keys.Pressed(b.Back) {
		t.Translate(axisZ, -ms)
	}
	if keys.Pressed(b.Left) {
		t.Translate(axisX, ms)
	}
	if keys.Pressed(b.Right) {
		t.Translate(axisX, -ms)
	}
}

// Autopilot drifts the ship along world Z and sends it home once it passes the limit.
// It reports whether the ship wrapped.
func (s *Ship) Autopilot(t *Transform) bool {
	t.Position[2] -= s.AutopilotStep
	if t.Position[2] < s.AutopilotLimit {
		t.SetPose(s.Home)
		return true
	}
	return false
}

// NewRegistry registers every component the session stores.
func NewRegistry() *ecs.ComponentRegistry {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Transform](registry)
	ecs.RegisterComponent[Orbit](registry)
	ecs.RegisterComponent[Spin](registry)
	ecs.RegisterComponent[Star](registry)
	ecs.RegisterComponent[Body](registry)
	ecs.RegisterComponent[Ship](registry)
	return registry
}
