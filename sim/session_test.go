package sim_test

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/orrery/ecs"
	"github.com/plus3/orrery/sim"
)

type capture struct {
	origin      mgl64.Vec3
	shipInScene bool
	shipVisible bool
}

type recordingRenderer struct {
	session  *sim.Session
	captures []capture
	cameras  []sim.Camera
	scenes   []*sim.Scene
}

func (r *recordingRenderer) CaptureReflection(scene *sim.Scene, origin mgl64.Vec3) {
	_, inScene := scene.Find("ship")
	c := capture{origin: origin, shipInScene: inScene}
	if _, t, ok := r.session.Ship(); ok {
		c.shipVisible = t.Visible
	}
	r.captures = append(r.captures, c)
}

func (r *recordingRenderer) Render(scene *sim.Scene, camera sim.Camera) {
	r.cameras = append(r.cameras, camera)
	r.scenes = append(r.scenes, scene)
}

func spawnWorld(storage *ecs.Storage) {
	storage.Spawn(
		sim.Body{Name: "sun", Radius: 10},
		sim.Transform{Visible: true},
		sim.Star{Intensity: 2},
		sim.Spin{Rate: 0.005},
	)
	storage.Spawn(
		sim.Body{Name: "mercury", Radius: 1},
		sim.Transform{Visible: true},
		sim.Orbit{Radius: 15, Speed: 0.02, Angle: 1.2},
		sim.Spin{Rate: 0.01},
	)
	storage.Spawn(
		sim.Body{Name: "neptune", Radius: 2.5},
		sim.Transform{Visible: true},
		sim.Orbit{Radius: 70, Speed: 0.003, Angle: 4.0},
		sim.Spin{Rate: 0.01},
	)

	ship := sim.DefaultShip()
	t := sim.Transform{Visible: true}
	t.SetPose(ship.Home)
	storage.Spawn(sim.Body{Name: "ship", Radius: 2}, t, ship)
}

func newSession(t *testing.T, view sim.View) (*sim.Session, *recordingRenderer) {
	t.Helper()
	storage := ecs.NewStorage(sim.NewRegistry())
	spawnWorld(storage)

	cfg := sim.DefaultConfig()
	cfg.InitialView = view

	renderer := &recordingRenderer{}
	session := sim.NewSession(storage, cfg, renderer)
	renderer.session = session
	return session, renderer
}

func shipPose(t *testing.T, s *sim.Session) sim.Pose {
	t.Helper()
	_, tr, ok := s.Ship()
	require.True(t, ok)
	return tr.Pose()
}

func assertVecInDelta(t *testing.T, expected, actual mgl64.Vec3, delta float64, msgAndArgs ...any) {
	t.Helper()
	for i := range expected {
		assert.InDelta(t, expected[i], actual[i], delta, msgAndArgs...)
	}
}

func TestOrbitsKeepTheirRadius(t *testing.T) {
	session, renderer := newSession(t, sim.ViewSystem)

	for i := 0; i < 500; i++ {
		session.Tick()
	}

	scene := renderer.scenes[len(renderer.scenes)-1]
	for name, radius := range map[string]float64{"mercury": 15, "neptune": 70} {
		body, ok := scene.Find(name)
		require.True(t, ok, name)
		assert.InDelta(t, radius, body.Position.Len(), 1e-9, name)
		assert.Zero(t, body.Position.Y(), name)
		assert.InDelta(t, 500*0.01, body.Rotation.Y(), 1e-9, name)
	}

	mercury, _ := scene.Find("mercury")
	angle := 1.2 + 500*0.02
	assertVecInDelta(t, mgl64.Vec3{15 * math.Cos(angle), 0, 15 * math.Sin(angle)}, mercury.Position, 1e-9)

	sun, _ := scene.Find("sun")
	assert.InDelta(t, 500*0.005, sun.Rotation.Y(), 1e-9)
	assert.Equal(t, mgl64.Vec3{}, sun.Position)
	assert.ElementsMatch(t, []float64{15, 70}, scene.Orbits)
}

func TestAutopilotWrapsHome(t *testing.T) {
	session, _ := newSession(t, sim.ViewSystem)
	home := sim.DefaultShip().Home

	for i := 0; i < 1700; i++ {
		session.Tick()
	}
	pose := shipPose(t, session)
	assert.InDelta(t, -100, pose.Position.Z(), 1e-6)
	assert.GreaterOrEqual(t, pose.Position.Z(), -100.0)
	assert.Equal(t, home.Rotation, pose.Rotation)

	session.Tick()
	assert.Equal(t, home, shipPose(t, session), "tick 1701 crosses the limit and resets")
}

func TestAutopilotIgnoresKeys(t *testing.T) {
	session, _ := newSession(t, sim.ViewSystem)
	for _, k := range []sim.Key{sim.KeyW, sim.KeyA, sim.KeyQ, sim.KeyArrowUp, sim.KeyArrowLeft} {
		session.Keys().Set(k, true)
	}

	session.Tick()

	home := sim.DefaultShip().Home
	pose := shipPose(t, session)
	assert.Equal(t, home.Position.X(), pose.Position.X())
	assert.Equal(t, home.Position.Y(), pose.Position.Y())
	assert.InDelta(t, home.Position.Z()-0.1, pose.Position.Z(), 1e-12)
	assert.Equal(t, home.Rotation, pose.Rotation)
}

func TestShipViewHasNoAutopilot(t *testing.T) {
	session, _ := newSession(t, sim.ViewShip)

	for i := 0; i < 20; i++ {
		session.Tick()
	}

	assert.Equal(t, sim.DefaultShip().Home, shipPose(t, session), "no keys held and no drift")
}

func TestPitchAndForwardFollowLocalAxes(t *testing.T) {
	session, _ := newSession(t, sim.ViewShip)
	session.Keys().Set(sim.KeyArrowUp, true)
	session.Keys().Set(sim.KeyW, true)

	expected := sim.DefaultShip().Home.Position
	for k := 1; k <= 10; k++ {
		session.Tick()

		pitch := 0.05 * float64(k)
		// Yawed half a turn, local +Z points at world -Z; pitch tilts it toward +Y.
		expected = expected.Add(mgl64.Vec3{0, math.Sin(pitch), -math.Cos(pitch)}.Mul(0.5))

		pose := shipPose(t, session)
		assert.InDelta(t, pitch, pose.Rotation.X(), 1e-12, "tick %d", k)
		assertVecInDelta(t, expected, pose.Position, 1e-9, "tick %d", k)
	}
}

func TestKeysComposeAsVectorSum(t *testing.T) {
	cases := []struct {
		name  string
		keys  []sim.Key
		local mgl64.Vec3
	}{
		{"forward", []sim.Key{sim.KeyW}, mgl64.Vec3{0, 0, 1}},
		{"forward and back cancel", []sim.Key{sim.KeyW, sim.KeyS}, mgl64.Vec3{}},
		{"rise and strafe", []sim.Key{sim.KeyQ, sim.KeyA}, mgl64.Vec3{1, 1, 0}},
		// Diagonals are not normalised: two axes held moves sqrt(2) times as far.
		{"diagonal", []sim.Key{sim.KeyW, sim.KeyD}, mgl64.Vec3{-1, 0, 1}},
		{"all three", []sim.Key{sim.KeyW, sim.KeyE, sim.KeyD}, mgl64.Vec3{-1, -1, 1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			session, _ := newSession(t, sim.ViewShip)
			for _, k := range tc.keys {
				session.Keys().Set(k, true)
			}

			session.Tick()

			home := sim.DefaultShip().Home
			q := sim.EulerXYZ(home.Rotation)
			want := home.Position.Add(q.Rotate(tc.local).Mul(0.5))
			got := shipPose(t, session).Position
			assertVecInDelta(t, want, got, 1e-9)
			assert.InDelta(t, tc.local.Len()*0.5, got.Sub(home.Position).Len(), 1e-9)
		})
	}
}

func TestYawKeys(t *testing.T) {
	session, _ := newSession(t, sim.ViewShip)
	session.Keys().Set(sim.KeyArrowLeft, true)
	session.Tick()
	session.Tick()
	assert.InDelta(t, math.Pi+0.1, shipPose(t, session).Rotation.Y(), 1e-12)

	session.Keys().Set(sim.KeyArrowLeft, false)
	session.Keys().Set(sim.KeyArrowRight, true)
	session.Keys().Set(sim.KeyArrowDown, true)
	session.Tick()
	pose := shipPose(t, session)
	assert.InDelta(t, math.Pi+0.05, pose.Rotation.Y(), 1e-12)
	assert.InDelta(t, -0.05, pose.Rotation.X(), 1e-12)
}

func TestMotionFlagGatesManualControl(t *testing.T) {
	session, _ := newSession(t, sim.ViewShip)
	session.SetMotion(false)
	session.Keys().Set(sim.KeyW, true)

	session.Tick()
	assert.Equal(t, sim.DefaultShip().Home, shipPose(t, session))

	session.SetMotion(true)
	session.Tick()
	assert.NotEqual(t, sim.DefaultShip().Home, shipPose(t, session))
}

func TestReturningToSystemViewResetsShip(t *testing.T) {
	fly := func(keys []sim.Key, ticks int) sim.Pose {
		session, _ := newSession(t, sim.ViewSystem)
		session.SetView(sim.ViewShip)
		for _, k := range keys {
			session.Keys().Set(k, true)
		}
		for i := 0; i < ticks; i++ {
			session.Tick()
		}
		session.SetMotion(false)

		session.SetView(sim.ViewSystem)
		session.Tick()

		ship, _, _ := session.Ship()
		assert.True(t, ship.Moving, "reset re-enables motion")
		return shipPose(t, session)
	}

	a := fly([]sim.Key{sim.KeyW, sim.KeyArrowUp}, 37)
	b := fly([]sim.Key{sim.KeyS, sim.KeyD, sim.KeyArrowRight, sim.KeyQ}, 112)

	assert.Equal(t, a, b)

	home := sim.DefaultShip().Home
	assert.Equal(t, home.Rotation, a.Rotation)
	assertVecInDelta(t, home.Position.Sub(mgl64.Vec3{0, 0, 0.1}), a.Position, 1e-12,
		"reset then one autopilot step in the same frame")
}

func TestViewChangeHandledOnce(t *testing.T) {
	session, _ := newSession(t, sim.ViewSystem)
	var state *sim.ViewState
	require.True(t, session.Storage().ReadSingleton(&state))

	session.Tick()
	assert.Zero(t, state.Changes)

	session.SetView(sim.ViewShip)
	session.Tick()
	session.Tick()
	assert.Equal(t, 1, state.Changes)
	assert.Equal(t, sim.ViewShip, state.Observed())

	// Flipping away and back between frames is not a change.
	session.SetView(sim.ViewSystem)
	session.SetView(sim.ViewShip)
	session.Tick()
	assert.Equal(t, 1, state.Changes)

	session.SetView(sim.ViewSystem)
	session.Tick()
	assert.Equal(t, 2, state.Changes)
}

func TestShipViewEntryDoesNotReset(t *testing.T) {
	session, _ := newSession(t, sim.ViewSystem)
	for i := 0; i < 10; i++ {
		session.Tick()
	}
	before := shipPose(t, session)

	session.SetView(sim.ViewShip)
	session.Tick()

	assert.Equal(t, before, shipPose(t, session))
}

func TestReflectionHidesShipDuringCapture(t *testing.T) {
	session, renderer := newSession(t, sim.ViewSystem)

	for i := 0; i < 5; i++ {
		session.Tick()
	}

	require.Len(t, renderer.captures, 5)
	require.Len(t, renderer.scenes, 5)
	for i, c := range renderer.captures {
		assert.False(t, c.shipInScene, "capture %d", i)
		assert.False(t, c.shipVisible, "capture %d", i)

		_, rendered := renderer.scenes[i].Find("ship")
		assert.True(t, rendered, "frame %d", i)
	}

	_, tr, _ := session.Ship()
	assert.True(t, tr.Visible)
	assert.Equal(t, tr.Position, renderer.captures[4].origin)
	assert.Equal(t, int64(5), session.Display().Captures)
	assert.Equal(t, int64(5), session.Display().Renders)
}

func TestReflectionSkippedForHiddenShip(t *testing.T) {
	session, renderer := newSession(t, sim.ViewSystem)
	_, tr, _ := session.Ship()
	tr.Visible = false

	session.Tick()

	assert.Empty(t, renderer.captures)
	require.Len(t, renderer.scenes, 1)
	_, rendered := renderer.scenes[0].Find("ship")
	assert.False(t, rendered)
	assert.False(t, tr.Visible)
}

func TestCameraFollowsView(t *testing.T) {
	session, renderer := newSession(t, sim.ViewSystem)

	session.Tick()
	assert.Equal(t, 40.0, renderer.cameras[0].FovY)
	assert.Equal(t, sim.CameraSystem, session.Rig().Active)
	assert.True(t, session.Controls().Enabled)

	session.SetView(sim.ViewShip)
	session.Tick()
	cam := renderer.cameras[1]
	assert.Equal(t, 60.0, cam.FovY)
	assert.Equal(t, sim.CameraShip, session.Rig().Active)
	assert.False(t, session.Controls().Enabled)

	session.SetView(sim.ViewSystem)
	session.Tick()
	assert.Equal(t, 40.0, renderer.cameras[2].FovY)
	assert.True(t, session.Controls().Enabled)
}

func TestShipCameraLooksAtSunFromHome(t *testing.T) {
	session, renderer := newSession(t, sim.ViewShip)
	session.Tick()

	cam := renderer.cameras[0]
	assertVecInDelta(t, mgl64.Vec3{-10, 20, 80}, cam.Position, 1e-9)
	toSun := mgl64.Vec3{}.Sub(cam.Position).Normalize()
	assertVecInDelta(t, toSun, cam.Forward(), 1e-9)
}

func TestShipCameraRidesWithShip(t *testing.T) {
	session, renderer := newSession(t, sim.ViewShip)
	session.Keys().Set(sim.KeyArrowLeft, true)
	session.Keys().Set(sim.KeyW, true)

	for i := 0; i < 15; i++ {
		session.Tick()
	}

	_, tr, _ := session.Ship()
	cam := renderer.cameras[len(renderer.cameras)-1]
	assertVecInDelta(t, tr.ToWorld(mgl64.Vec3{10, 20, -10}), cam.Position, 1e-9)
	assert.InDelta(t, 1, cam.Forward().Len(), 1e-9)
}

func TestSystemCameraOnlyMovesWithInput(t *testing.T) {
	session, renderer := newSession(t, sim.ViewSystem)

	session.Tick()
	session.Tick()
	start := renderer.cameras[0].Position
	assertVecInDelta(t, mgl64.Vec3{0, 50, 100}, start, 1e-9)
	assertVecInDelta(t, start, renderer.cameras[1].Position, 1e-9)

	session.Controls().Rotate(120, 0, 720)
	session.Tick()
	moved := renderer.cameras[2].Position
	assert.NotEqual(t, start, moved)
	assert.InDelta(t, start.Len(), moved.Len(), 1e-9, "orbiting keeps distance to target")
}

func TestControlsIgnoredInShipView(t *testing.T) {
	session, _ := newSession(t, sim.ViewShip)
	session.Tick()

	session.Controls().Rotate(300, 100, 720)
	session.Controls().Zoom(5)
	assert.False(t, session.Controls().Pending())

	session.SetView(sim.ViewSystem)
	session.Tick()
	assertVecInDelta(t, mgl64.Vec3{0, 50, 100}, session.Rig().System.Position, 1e-9)
}

func TestResizeUpdatesBothCameras(t *testing.T) {
	session, _ := newSession(t, sim.ViewSystem)
	session.Resize(1920, 1080)

	rig := session.Rig()
	assert.InDelta(t, 16.0/9.0, rig.System.Aspect, 1e-12)
	assert.InDelta(t, 16.0/9.0, rig.Ship.Aspect, 1e-12)
	assert.Equal(t, 1920, rig.Width)

	session.Resize(0, 100)
	assert.Equal(t, 1920, rig.Width, "degenerate sizes are ignored")
}

func TestSchedulerOrder(t *testing.T) {
	session, _ := newSession(t, sim.ViewSystem)

	var names []string
	for _, st := range session.Scheduler().GetStats().Systems {
		names = append(names, st.Name)
	}
	assert.Equal(t, []string{
		"OrbitSystem",
		"SunSpinSystem",
		"ViewChangeSystem",
		"ShipControlSystem",
		"ReflectionSystem",
		"CameraSelectSystem",
		"ControlsSystem",
		"RenderSystem",
	}, names)
}

func TestSessionWithoutShip(t *testing.T) {
	storage := ecs.NewStorage(sim.NewRegistry())
	storage.Spawn(sim.Body{Name: "sun", Radius: 10}, sim.Transform{Visible: true}, sim.Star{}, sim.Spin{Rate: 0.005})

	session := sim.NewSession(storage, sim.DefaultConfig(), nil)
	session.SetView(sim.ViewShip)
	session.Tick()
	session.SetView(sim.ViewSystem)
	session.Tick()

	_, _, ok := session.Ship()
	assert.False(t, ok)
	assert.Equal(t, int64(2), session.Frame())
	assert.Equal(t, int64(0), session.Display().Captures)
}
