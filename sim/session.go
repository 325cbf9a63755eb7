package sim

import (
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/plus3/orrery/ecs"
)

// Session owns the world and runs one frame per Tick. Frontends feed it input
// through SetView, Keys, Controls and Resize, all from the frame goroutine.
type Session struct {
	cfg       Config
	storage   *ecs.Storage
	scheduler *ecs.Scheduler
	log       *slog.Logger

	view    *ecs.Singleton[ViewState]
	keys    *ecs.Singleton[KeyState]
	rig     *ecs.Singleton[CameraRig]
	display *ecs.Singleton[Display]

	ships *ecs.Query[struct {
		*Ship
		*Transform
	}]
	drawables *ecs.Query[drawableView]
}

// Option customises a Session.
type Option func(*Session)

// WithLogger sets the logger; the default discards everything.
func WithLogger(log *slog.Logger) Option {
	return func(s *Session) {
		s.log = log
	}
}

// WithEnvironment sets the scenery handed to the renderer.
func WithEnvironment(env Environment) Option {
	return func(s *Session) {
		s.display.Get().Environment = env
	}
}

// NewSession wires the frame systems over a populated storage. The storage
// should already hold the bodies and the ship; the Session adds its singletons.
func NewSession(storage *ecs.Storage, cfg Config, renderer Renderer, opts ...Option) *Session {
	if renderer == nil {
		renderer = NopRenderer{}
	}

	s := &Session{
		cfg:       cfg,
		storage:   storage,
		scheduler: ecs.NewScheduler(storage),
		log:       slog.New(slog.DiscardHandler),
		view:      ecs.NewSingleton(storage, NewViewState(cfg.InitialView)),
		keys:      ecs.NewSingleton[KeyState](storage),
		display:   ecs.NewSingleton(storage, Display{Renderer: renderer}),
	}
	s.ships = ecs.NewQuery[struct {
		*Ship
		*Transform
	}](storage)
	s.drawables = ecs.NewQuery[drawableView](storage)

	for _, opt := range opts {
		opt(s)
	}

	s.rig = ecs.NewSingleton(storage, s.newRig())

	s.scheduler.Register(&OrbitSystem{})
	s.scheduler.Register(&SunSpinSystem{})
	s.scheduler.Register(&ViewChangeSystem{Log: s.log})
	s.scheduler.Register(&ShipControlSystem{Bindings: cfg.Bindings, Log: s.log})
	s.scheduler.Register(&ReflectionSystem{})
	s.scheduler.Register(&CameraSelectSystem{})
	s.scheduler.Register(&ControlsSystem{})
	s.scheduler.Register(&RenderSystem{})

	s.log.Info("session ready",
		"view", cfg.InitialView,
		"entities", storage.CollectStats().TotalEntityCount,
		"systems", s.scheduler.GetStats().SystemCount)
	return s
}

func (s *Session) newRig() CameraRig {
	home := DefaultShip().Home
	if ship, ok := s.ships.First(); ok {
		home = ship.Ship.Home
	}

	rig := CameraRig{
		System:   NewCamera(s.cfg.SystemCamera),
		Ship:     NewCamera(s.cfg.ShipCamera),
		Mount:    NewShipMount(s.cfg.ShipCameraOffset, home, s.lightOrigin()),
		Controls: NewOrbitControls(s.cfg.SystemCamera.Target, s.cfg.DampingFactor),
	}
	if s.cfg.InitialView == ViewShip {
		rig.Active = CameraShip
		rig.Controls.Enabled = false
	}
	rig.Resize(s.cfg.Width, s.cfg.Height)
	return rig
}

func (s *Session) lightOrigin() mgl64.Vec3 {
	stars := ecs.NewView[struct {
		*Star
		*Transform
	}](s.storage)
	if star, ok := stars.First(); ok {
		return star.Transform.Position
	}
	return mgl64.Vec3{}
}

// Tick runs one frame.
func (s *Session) Tick() {
	s.scheduler.Once(1.0 / TickRate)
}

// Frame is the number of completed ticks.
func (s *Session) Frame() int64 {
	return s.scheduler.Frames()
}

// View is the currently selected view.
func (s *Session) View() View {
	return s.view.Get().Current
}

// SetView selects a view. The change takes effect on the next Tick.
func (s *Session) SetView(v View) {
	s.view.Get().Current = v
}

// Keys is the keyboard state read by the next Tick.
func (s *Session) Keys() *KeyState {
	return s.keys.Get()
}

// Rig exposes the cameras.
func (s *Session) Rig() *CameraRig {
	return s.rig.Get()
}

// Controls are the orbit controls for the system camera.
func (s *Session) Controls() *OrbitControls {
	return &s.rig.Get().Controls
}

// Resize updates the viewport and both cameras' aspect ratio.
func (s *Session) Resize(width, height int) {
	s.rig.Get().Resize(width, height)
}

// Display exposes the renderer hookup and its counters.
func (s *Session) Display() *Display {
	return s.display.Get()
}

// Ship returns the ship's components, or false if the world has no ship.
func (s *Session) Ship() (*Ship, *Transform, bool) {
	ship, ok := s.ships.First()
	if !ok {
		return nil, nil, false
	}
	return ship.Ship, ship.Transform, true
}

// SetMotion turns manual ship control on or off.
func (s *Session) SetMotion(enabled bool) {
	if ship, _, ok := s.Ship(); ok {
		ship.Moving = enabled
	}
}

// Bodies snapshots every visible body as the renderer would see it.
func (s *Session) Bodies() []Drawable {
	return collectScene(s.drawables, s.Frame(), s.View(), s.Display().Environment).Bodies
}

// Stats returns per-system timings.
func (s *Session) Stats() *ecs.SchedulerStats {
	return s.scheduler.GetStats()
}

// Hints are the control hints for the current view.
func (s *Session) Hints() []string {
	return HintPanel(s.View())
}

// Storage is the world the session runs over.
func (s *Session) Storage() *ecs.Storage {
	return s.storage
}

// Scheduler runs the frame systems.
func (s *Session) Scheduler() *ecs.Scheduler {
	return s.scheduler
}
