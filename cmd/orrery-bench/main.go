// Command orrery-bench ticks the solar system headlessly and reports frame and
// per-system timings.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"runtime"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/plus3/orrery/ecs"
	"github.com/plus3/orrery/render/geom"
	"github.com/plus3/orrery/scene"
	"github.com/plus3/orrery/sim"
)

// meshRenderer meshes every frame the way the window renderer would, without a
// display.
type meshRenderer struct {
	width, height float64
	mesh          geom.Mesh
	triangles     int64
}

func (r *meshRenderer) CaptureReflection(s *sim.Scene, origin mgl64.Vec3) {
	for _, d := range s.Bodies {
		geom.PanoramaDisc(d.Position.Sub(origin), d.Radius, 256, 128)
	}
}

func (r *meshRenderer) Render(s *sim.Scene, cam sim.Camera) {
	for _, it := range geom.Collect(s, cam, r.width, r.height) {
		r.mesh.Reset()
		switch it.Kind {
		case geom.ItemRing:
			r.mesh.AddRing(geom.RingSpec{
				Center: it.World, Orientation: sim.EulerXYZ(it.Rotation),
				Inner: it.Radius, Outer: it.Outer, Segments: 64,
			}, func(p mgl64.Vec3) (mgl64.Vec2, bool) {
				sc, _, ok := cam.Project(p, r.width, r.height)
				return sc, ok
			}, geom.TexSize{W: 1, H: 1}, geom.Shading{Opacity: it.Opacity})
		default:
			r.mesh.AddDisc(geom.Disc{
				Center: it.Screen, Radius: it.ScreenRadius,
				Rings: int(mgl64.Clamp(it.ScreenRadius/8, 2, 12)), Segments: int(mgl64.Clamp(it.ScreenRadius, 16, 64)),
			}, geom.TexSize{W: 1, H: 1}, geom.BodySurface(cam, it.Rotation), geom.Shading{Opacity: 1})
		}
		r.triangles += int64(r.mesh.Triangles())
	}
}

func main() {
	duration := flag.Duration("duration", 10*time.Second, "The total duration the benchmark should run for.")
	planets := flag.Int("planets", 0, "Extra planets to add to the built-in solar system.")
	viewName := flag.String("view", "system", "View to run in (system, ship).")
	seed := flag.Uint64("seed", 1, "Seed for orbit angles and extra planets.")
	gcPauseMetrics := flag.Bool("gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	flag.Parse()

	view, err := sim.ParseView(*viewName)
	if err != nil {
		log.Fatal(err)
	}

	log.Println("Starting orrery benchmark...")

	rng := rand.New(rand.NewPCG(*seed, *seed))
	desc := scene.Default()
	addPlanets(desc, *planets, rng)

	storage := ecs.NewStorage(sim.NewRegistry())
	scene.Build(storage, desc, rng)

	cfg := sim.DefaultConfig()
	cfg.InitialView = view
	renderer := &meshRenderer{width: float64(cfg.Width), height: float64(cfg.Height)}
	session := sim.NewSession(storage, cfg, renderer, sim.WithEnvironment(desc.Environment()))

	report := &Report{
		Duration:       *duration,
		Planets:        len(desc.Planets),
		View:           view.String(),
		GCPauseMetrics: *gcPauseMetrics,
		TickTime: Stats{
			Samples: make([]time.Duration, 0),
		},
	}

	runtime.ReadMemStats(&report.MemStatsStart)

	log.Printf("Running %d planets in the %s view for %s...\n", report.Planets, view, *duration)
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	startTime := time.Now()

Loop:
	for {
		select {
		case <-ctx.Done():
			break Loop
		default:
			tickStart := time.Now()
			session.Tick()
			report.TickTime.Samples = append(report.TickTime.Samples, time.Since(tickStart))
		}
	}

	report.TotalTime = time.Since(startTime)
	report.TotalTicks = session.Frame()
	report.Triangles = renderer.triangles
	report.Systems = session.Stats().Systems
	report.TickTime.Finalize()
	runtime.ReadMemStats(&report.MemStatsEnd)

	log.Println("Benchmark finished.")

	fmt.Println("\n\n--- Orrery Benchmark Report ---")
	if err := report.Generate(os.Stdout); err != nil {
		log.Fatalf("Failed to generate report: %v", err)
	}
	fmt.Println("--- End of Report ---")
}

// addPlanets appends n planets on orbits beyond the outermost one.
func addPlanets(desc *scene.Description, n int, rng *rand.Rand) {
	outer := 0.0
	for _, p := range desc.Planets {
		outer = math.Max(outer, p.OrbitRadius)
	}
	for i := range n {
		desc.Planets = append(desc.Planets, scene.Planet{
			Name:        fmt.Sprintf("extra-%d", i),
			Radius:      0.5 + rng.Float64()*2,
			OrbitRadius: outer + 5 + float64(i)*2,
			OrbitSpeed:  0.001 + rng.Float64()*0.01,
			Color:       "#888888",
		})
	}
}
