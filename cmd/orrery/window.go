package main

import (
	"context"
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/plus3/orrery/ecs"
	"github.com/plus3/orrery/ecs/debugui"
	debugui_ebiten "github.com/plus3/orrery/ecs/debugui/ebiten"
	"github.com/plus3/orrery/metrics"
	"github.com/plus3/orrery/render"
	"github.com/plus3/orrery/scene"
	"github.com/plus3/orrery/sim"
)

// keyMap binds ebiten keys to the keys the ship reads.
var keyMap = map[ebiten.Key]sim.Key{
	ebiten.KeyArrowUp:    sim.KeyArrowUp,
	ebiten.KeyArrowDown:  sim.KeyArrowDown,
	ebiten.KeyArrowLeft:  sim.KeyArrowLeft,
	ebiten.KeyArrowRight: sim.KeyArrowRight,
	ebiten.KeyQ:          sim.KeyQ,
	ebiten.KeyE:          sim.KeyE,
	ebiten.KeyW:          sim.KeyW,
	ebiten.KeyS:          sim.KeyS,
	ebiten.KeyA:          sim.KeyA,
	ebiten.KeyD:          sim.KeyD,
}

// Game runs a session in an ebiten window.
type Game struct {
	ctx       context.Context
	session   *sim.Session
	renderer  *render.Renderer
	collector *metrics.Collector

	overlay *debugui_ebiten.ImguiBackend
	input   *ecs.Singleton[debugui.ImguiInputState]

	dragging bool
	lastX    int
	lastY    int
}

func runWindow(ctx context.Context, opts options, storage *ecs.Storage, cfg sim.Config, desc *scene.Description, collector *metrics.Collector, log *slog.Logger) error {
	var textures render.TextureSource
	if opts.textures {
		textures = loadTextures(ctx, desc, log)
	}
	renderer := render.New(textures)

	session := sim.NewSession(storage, cfg, renderer, sim.WithLogger(log), sim.WithEnvironment(desc.Environment()))
	if collector != nil {
		session.Scheduler().Observer = collector.ObserveSystem
	}

	game := &Game{ctx: ctx, session: session, renderer: renderer, collector: collector}
	if opts.overlay {
		overlay := debugui_ebiten.NewImguiBackend("Orrery", cfg.Width, cfg.Height)
		game.overlay = &overlay
		debugui.Spawn(session, &renderer.ShowHints)
		game.input = ecs.NewSingleton[debugui.ImguiInputState](storage)
	} else {
		ebiten.SetWindowSize(cfg.Width, cfg.Height)
		ebiten.SetWindowTitle("Orrery")
	}
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	return ebiten.RunGame(game)
}

func (g *Game) Update() error {
	if g.ctx.Err() != nil || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	wantMouse, wantKeys := false, false
	if g.input != nil {
		state := g.input.Get()
		wantMouse, wantKeys = state.WantCaptureMouse, state.WantCaptureKeyboard
	}

	if !wantKeys {
		g.readKeys()
	} else {
		g.session.Keys().ReleaseAll()
	}
	if !wantMouse {
		g.readMouse()
	}

	if g.overlay != nil {
		g.overlay.BeginFrame()
	}
	g.session.Tick()
	if g.overlay != nil {
		g.overlay.EndFrame()
	}

	g.collector.Observe(g.session)
	return nil
}

func (g *Game) readKeys() {
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		g.session.SetView(g.session.View().Toggle())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		g.renderer.ShowHints = !g.renderer.ShowHints
	}
	keys := g.session.Keys()
	for ek, k := range keyMap {
		keys.Set(k, ebiten.IsKeyPressed(ek))
	}
}

func (g *Game) readMouse() {
	controls := g.session.Controls()
	x, y := ebiten.CursorPosition()

	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		if g.dragging {
			controls.Rotate(float64(x-g.lastX), float64(y-g.lastY), float64(g.session.Rig().Height))
		}
		g.dragging = true
	} else {
		g.dragging = false
	}
	g.lastX, g.lastY = x, y

	if _, dy := ebiten.Wheel(); dy != 0 {
		controls.Zoom(dy)
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.renderer.Draw(screen)
	if g.overlay != nil {
		g.overlay.Overlay(screen)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if g.overlay != nil {
		g.overlay.Layout(outsideWidth, outsideHeight)
	}
	g.session.Resize(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}
