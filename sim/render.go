package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/plus3/orrery/ecs"
)

// Renderer draws frames for a Session. Both calls happen on the frame goroutine.
// Every Scene is built for the call it is passed to, so a renderer may keep it
// until the next one arrives.
type Renderer interface {
	// CaptureReflection refreshes the ship's environment map from origin.
	// The ship itself is already absent from scene.
	CaptureReflection(scene *Scene, origin mgl64.Vec3)
	// Render draws scene through camera.
	Render(scene *Scene, camera Camera)
}

// NopRenderer discards every frame.
type NopRenderer struct{}

func (NopRenderer) CaptureReflection(*Scene, mgl64.Vec3) {}
func (NopRenderer) Render(*Scene, Camera)                 {}

// Environment is the scenery that is not an entity.
type Environment struct {
	Background       string
	BackgroundRadius float64
	BackgroundColor  colorful.Color
	Ambient          colorful.Color
	OrbitColor       colorful.Color
	OrbitSegments    int
}

// Display is the singleton that connects the frame core to its renderer.
type Display struct {
	Renderer    Renderer
	Environment Environment

	Captures int64
	Renders  int64
}

// Drawable is one visible body in a Scene.
type Drawable struct {
	Id          ecs.EntityId
	Kind        BodyKind
	Name        string
	Position    mgl64.Vec3
	Rotation    mgl64.Vec3
	Radius      float64
	Color       colorful.Color
	Texture     string
	Decorations []Decoration
}

// DecorationPosition returns where a decoration sits in world space.
func (d Drawable) DecorationPosition(dec Decoration) mgl64.Vec3 {
	return d.Position.Add(EulerXYZ(d.Rotation).Rotate(dec.Offset))
}

// Light is a point light.
type Light struct {
	Position  mgl64.Vec3
	Color     colorful.Color
	Intensity float64
}

// Scene is a snapshot of everything visible in one frame.
type Scene struct {
	Frame       int64
	View        View
	Bodies      []Drawable
	Orbits      []float64
	Lights      []Light
	Environment Environment
}

// Find returns the drawable with the given name.
func (s *Scene) Find(name string) (Drawable, bool) {
	for _, d := range s.Bodies {
		if d.Name == name {
			return d, true
		}
	}
	return Drawable{}, false
}

// OrbitPath returns a closed loop of segments+1 points on a horizontal circle.
func OrbitPath(radius float64, segments int) []mgl64.Vec3 {
	if segments < 3 {
		segments = 3
	}
	points := make([]mgl64.Vec3, 0, segments+1)
	for i := 0; i <= segments; i++ {
		theta := float64(i) / float64(segments) * 2 * math.Pi
		points = append(points, mgl64.Vec3{radius * math.Cos(theta), 0, radius * math.Sin(theta)})
	}
	return points
}

type drawableView = struct {
	ecs.EntityId
	*Body
	*Transform
	Orbit *Orbit `ecs:"optional"`
	Star  *Star  `ecs:"optional"`
	Ship  *Ship  `ecs:"optional"`
}

func collectScene(q *ecs.Query[drawableView], frame int64, view View, env Environment) *Scene {
	scene := &Scene{Frame: frame, View: view, Environment: env}
	for item := range q.Values() {
		if item.Orbit != nil {
			scene.Orbits = append(scene.Orbits, item.Orbit.Radius)
		}
		if item.Star != nil {
			scene.Lights = append(scene.Lights, Light{
				Position:  item.Transform.Position,
				Color:     item.Star.LightColor,
				Intensity: item.Star.Intensity,
			})
		}
		if !item.Transform.Visible {
			continue
		}

		kind := KindPlanet
		switch {
		case item.Star != nil:
			kind = KindStar
		case item.Ship != nil:
			kind = KindShip
		}
		scene.Bodies = append(scene.Bodies, Drawable{
			Id:          item.EntityId,
			Kind:        kind,
			Name:        item.Body.Name,
			Position:    item.Transform.Position,
			Rotation:    item.Transform.Rotation,
			Radius:      item.Body.Radius,
			Color:       item.Body.Color,
			Texture:     item.Body.Texture,
			Decorations: item.Body.Decorations,
		})
	}
	return scene
}
