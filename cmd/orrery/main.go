// Command orrery runs the solar system demo in a window or a terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/plus3/orrery/ecs"
	"github.com/plus3/orrery/ecs/debugui"
	"github.com/plus3/orrery/logging"
	"github.com/plus3/orrery/metrics"
	"github.com/plus3/orrery/scene"
	"github.com/plus3/orrery/sim"
	"github.com/plus3/orrery/tui"
)

type options struct {
	frontend    string
	scenePath   string
	seed        uint64
	view        string
	width       int
	height      int
	logLevel    string
	logFormat   string
	logFile     string
	metricsAddr string
	textures    bool
	overlay     bool
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "orrery: %v\n", err)
		os.Exit(2)
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "orrery: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("orrery", flag.ContinueOnError)
	fs.StringVar(&opts.frontend, "frontend", "window", "Frontend to run (window, terminal)")
	fs.StringVar(&opts.scenePath, "scene", "", "Scene YAML file (default: built-in solar system)")
	fs.Uint64Var(&opts.seed, "seed", 0, "Seed for initial orbit angles (0 picks one)")
	fs.StringVar(&opts.view, "view", "system", "Initial view (system, ship)")
	fs.IntVar(&opts.width, "width", 1280, "Window width")
	fs.IntVar(&opts.height, "height", 720, "Window height")
	fs.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	fs.StringVar(&opts.logFormat, "log-format", "text", "Log format (text, json)")
	fs.StringVar(&opts.logFile, "log-file", "", "Write logs to this file instead of stderr")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	fs.BoolVar(&opts.textures, "textures", true, "Fetch body textures")
	fs.BoolVar(&opts.overlay, "overlay", true, "Show the Dear ImGui overlay (window frontend)")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	return opts, opts.validate()
}

func (o options) validate() error {
	switch o.frontend {
	case "window", "terminal":
	default:
		return fmt.Errorf("unknown frontend %q", o.frontend)
	}
	if _, err := sim.ParseView(o.view); err != nil {
		return err
	}
	if o.width <= 0 || o.height <= 0 {
		return fmt.Errorf("invalid window size %dx%d", o.width, o.height)
	}
	return nil
}

func run(opts options) error {
	log, closeLog, err := newLogger(opts)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	desc := scene.Default()
	if opts.scenePath != "" {
		if desc, err = scene.LoadFile(opts.scenePath); err != nil {
			return err
		}
	}

	cfg := sim.DefaultConfig()
	if cfg.InitialView, err = sim.ParseView(opts.view); err != nil {
		return err
	}
	cfg.Width, cfg.Height = opts.width, opts.height

	seed := opts.seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	log.Info("starting", "frontend", opts.frontend, "planets", len(desc.Planets), "seed", seed, "view", cfg.InitialView)

	registry := sim.NewRegistry()
	debugui.RegisterComponents(registry)
	storage := ecs.NewStorage(registry)
	scene.Build(storage, desc, rand.New(rand.NewPCG(seed, seed)))

	collector, err := startMetrics(ctx, opts.metricsAddr, log)
	if err != nil {
		return err
	}

	switch opts.frontend {
	case "window":
		return runWindow(ctx, opts, storage, cfg, desc, collector, log)
	case "terminal":
		return runTerminal(ctx, storage, cfg, desc, collector, log)
	}
	return fmt.Errorf("unknown frontend %q", opts.frontend)
}

func newLogger(opts options) (*slog.Logger, func(), error) {
	cfg := logging.Config{Level: opts.logLevel, Format: opts.logFormat}
	if opts.logFile != "" {
		f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		cfg.Output = f
		return logging.New(cfg), func() { f.Close() }, nil
	}
	if opts.frontend == "terminal" {
		// stderr shares the terminal with the canvas.
		return logging.Noop(), func() {}, nil
	}
	return logging.New(cfg), func() {}, nil
}

func startMetrics(ctx context.Context, addr string, log *slog.Logger) (*metrics.Collector, error) {
	if addr == "" {
		return nil, nil
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector, err := metrics.NewCollector(reg)
	if err != nil {
		return nil, err
	}
	go func() {
		if err := metrics.Serve(ctx, addr, collector, log); err != nil {
			log.Error("metrics server stopped", "err", err)
		}
	}()
	return collector, nil
}

// loadTextures fetches textures in the background. Bodies draw in their flat
// colour until their texture arrives.
func loadTextures(ctx context.Context, desc *scene.Description, log *slog.Logger) *scene.TextureLoader {
	loader := scene.NewTextureLoader(log)
	urls := desc.Textures()
	go func() {
		ctx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		loader.Load(ctx, urls)
	}()
	return loader
}

func runTerminal(ctx context.Context, storage *ecs.Storage, cfg sim.Config, desc *scene.Description, collector *metrics.Collector, log *slog.Logger) error {
	canvas := &tui.Canvas{}
	session := sim.NewSession(storage, cfg, canvas, sim.WithLogger(log), sim.WithEnvironment(desc.Environment()))
	if collector != nil {
		session.Scheduler().Observer = collector.ObserveSystem
	}

	model := tui.New(session, canvas).AfterTick(func() { collector.Observe(session) })
	_, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
