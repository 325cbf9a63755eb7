package sim_test

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/orrery/sim"
)

func systemCamera() sim.Camera {
	cam := sim.NewCamera(sim.DefaultConfig().SystemCamera)
	cam.Aspect = 16.0 / 9.0
	return cam
}

func TestProjectCentreAndDepth(t *testing.T) {
	cam := systemCamera()

	screen, depth, ok := cam.Project(mgl64.Vec3{}, 1600, 900)
	require.True(t, ok)
	assert.InDelta(t, 800, screen.X(), 1e-6)
	assert.InDelta(t, 450, screen.Y(), 1e-6)
	assert.InDelta(t, math.Hypot(50, 100), depth, 1e-9)

	_, _, ok = cam.Project(mgl64.Vec3{0, 100, 200}, 1600, 900)
	assert.False(t, ok, "behind the camera")
}

func TestProjectUpIsScreenUp(t *testing.T) {
	cam := systemCamera()
	centre, _, _ := cam.Project(mgl64.Vec3{}, 1600, 900)
	above, _, ok := cam.Project(mgl64.Vec3{0, 5, 0}, 1600, 900)
	require.True(t, ok)
	assert.Less(t, above.Y(), centre.Y())
}

func TestScreenRadiusShrinksWithDistance(t *testing.T) {
	cam := systemCamera()
	near := cam.ScreenRadius(10, 50, 900)
	far := cam.ScreenRadius(10, 100, 900)
	assert.InDelta(t, near/2, far, 1e-9)
	assert.Zero(t, cam.ScreenRadius(10, 0, 900))
}

func TestOrbitControlsDampingEasesIn(t *testing.T) {
	cam := systemCamera()
	controls := sim.NewOrbitControls(mgl64.Vec3{}, 0.05)

	controls.Rotate(360, 0, 720)
	require.True(t, controls.Pending())

	var steps []float64
	prev := cam.Position
	for i := 0; i < 200; i++ {
		controls.Update(&cam)
		steps = append(steps, cam.Position.Sub(prev).Len())
		prev = cam.Position
	}

	assert.Greater(t, steps[0], steps[50])
	assert.Greater(t, steps[50], steps[199])
	assert.InDelta(t, math.Hypot(50, 100), cam.Position.Len(), 1e-9)
	assert.InDelta(t, 50, cam.Position.Y(), 1e-9, "horizontal drag keeps elevation")
}

func TestOrbitControlsWithoutDamping(t *testing.T) {
	cam := systemCamera()
	controls := sim.NewOrbitControls(mgl64.Vec3{}, 0)

	// Half a viewport height of drag is half a turn.
	controls.Rotate(360, 0, 720)
	assert.True(t, controls.Update(&cam))
	assertVecInDelta(t, mgl64.Vec3{0, 50, -100}, cam.Position, 1e-9)

	assert.False(t, controls.Update(&cam))
}

func TestOrbitControlsPolarClamp(t *testing.T) {
	cam := systemCamera()
	controls := sim.NewOrbitControls(mgl64.Vec3{}, 0)

	controls.Rotate(0, 5000, 720)
	controls.Update(&cam)

	assert.Greater(t, cam.Position.Y(), 0.0)
	assert.InDelta(t, math.Hypot(50, 100), cam.Position.Len(), 1e-6)
}

func TestOrbitControlsZoom(t *testing.T) {
	cam := systemCamera()
	controls := sim.NewOrbitControls(mgl64.Vec3{}, 0.05)
	start := cam.Position.Len()

	controls.Zoom(3)
	controls.Update(&cam)
	assert.InDelta(t, start*math.Pow(0.95, 3), cam.Position.Len(), 1e-9)

	controls.MinDistance = 50
	controls.Zoom(100)
	controls.Update(&cam)
	assert.InDelta(t, 50, cam.Position.Len(), 1e-9)
}

func TestOrbitControlsDisabled(t *testing.T) {
	controls := sim.NewOrbitControls(mgl64.Vec3{}, 0.05)
	controls.Enabled = false
	controls.Rotate(100, 100, 720)
	controls.Zoom(2)
	assert.False(t, controls.Pending())
}

func TestShipMountKeepsLocalFrame(t *testing.T) {
	home := sim.DefaultShip().Home
	mount := sim.NewShipMount(mgl64.Vec3{10, 20, -10}, home, mgl64.Vec3{})

	var cam sim.Camera
	tr := sim.Transform{}
	tr.SetPose(home)
	tr.Rotation[1] += math.Pi / 2
	tr.Position = mgl64.Vec3{5, 0, 0}
	mount.Place(&cam, &tr)

	q := tr.Quat()
	assertVecInDelta(t, tr.ToWorld(mgl64.Vec3{10, 20, -10}), cam.Position, 1e-9)
	assertVecInDelta(t, q.Rotate(mount.Forward), cam.Forward(), 1e-9)
	assert.InDelta(t, 1, cam.Up.Len(), 1e-9)
}

func TestOrbitPath(t *testing.T) {
	points := sim.OrbitPath(25, 64)
	require.Len(t, points, 65)
	assertVecInDelta(t, points[0], points[64], 1e-9)
	for _, p := range points {
		assert.InDelta(t, 25, p.Len(), 1e-9)
		assert.Zero(t, p.Y())
	}
	assert.Len(t, sim.OrbitPath(1, 0), 4)
}

func TestDecorationPositionFollowsSpin(t *testing.T) {
	earth := sim.Drawable{Position: mgl64.Vec3{25, 0, 0}, Rotation: mgl64.Vec3{0, math.Pi / 2, 0}}
	moon := sim.Decoration{Kind: sim.DecorationMoon, Offset: mgl64.Vec3{4, 0, 0}}

	assertVecInDelta(t, mgl64.Vec3{25, 0, -4}, earth.DecorationPosition(moon), 1e-9)
}
