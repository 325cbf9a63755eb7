// Package metrics exports frame and system timings to Prometheus.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/plus3/orrery/sim"
)

// Collector bundles the session metrics.
type Collector struct {
	gatherer prometheus.Gatherer

	Frames         prometheus.Counter
	SystemDuration *prometheus.HistogramVec
	View           *prometheus.GaugeVec
	ShipPosition   *prometheus.GaugeVec
	Entities       prometheus.Gauge

	lastFrame int64
}

// NewCollector registers the session metrics against reg, or the default
// registerer when reg is nil. Registering twice reuses the existing collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	frames, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orrery_frames_total",
		Help: "Frames simulated since start.",
	}))
	if err != nil {
		return nil, err
	}

	durations, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orrery_system_duration_seconds",
		Help:    "Time spent in each frame system.",
		Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025},
	}, []string{"system"}))
	if err != nil {
		return nil, err
	}

	view, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "orrery_view",
		Help: "1 for the selected view, 0 otherwise.",
	}, []string{"view"}))
	if err != nil {
		return nil, err
	}

	ship, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "orrery_ship_position",
		Help: "Ship position in world units.",
	}, []string{"axis"}))
	if err != nil {
		return nil, err
	}

	entities, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orrery_entities",
		Help: "Entities in the world.",
	}))
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:       gatherer,
		Frames:         frames,
		SystemDuration: durations,
		View:           view,
		ShipPosition:   ship,
		Entities:       entities,
	}, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector already registered with incompatible type: %w", err)
		}
		var zero T
		return zero, err
	}
	return c, nil
}

// ObserveSystem records one system execution. It matches ecs.Scheduler.Observer.
func (c *Collector) ObserveSystem(name string, d time.Duration) {
	if c == nil {
		return
	}
	c.SystemDuration.WithLabelValues(name).Observe(d.Seconds())
}

// Observe samples the session after a tick.
func (c *Collector) Observe(s *sim.Session) {
	if c == nil {
		return
	}

	frame := s.Frame()
	if frame > c.lastFrame {
		c.Frames.Add(float64(frame - c.lastFrame))
		c.lastFrame = frame
	}

	current := s.View()
	for _, v := range []sim.View{sim.ViewSystem, sim.ViewShip} {
		value := 0.0
		if v == current {
			value = 1
		}
		c.View.WithLabelValues(v.String()).Set(value)
	}

	if _, t, ok := s.Ship(); ok {
		c.ShipPosition.WithLabelValues("x").Set(t.Position.X())
		c.ShipPosition.WithLabelValues("y").Set(t.Position.Y())
		c.ShipPosition.WithLabelValues("z").Set(t.Position.Z())
	}

	c.Entities.Set(float64(s.Storage().CollectStats().TotalEntityCount))
}

// Gatherer returns the gatherer the collector registered with.
func (c *Collector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler serves the metrics in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	gatherer := c.Gatherer()
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, c *Collector, log *slog.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return ServeListener(ctx, ln, c, log)
}

// ServeListener is Serve on an existing listener.
func ServeListener(ctx context.Context, ln net.Listener, c *Collector, log *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ln)
	}()
	log.Info("metrics listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown metrics: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
