package main

import (
	"bytes"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/orrery/ecs"
	"github.com/plus3/orrery/scene"
	"github.com/plus3/orrery/sim"
)

func TestStatsFinalize(t *testing.T) {
	s := Stats{Samples: []time.Duration{3 * time.Millisecond, time.Millisecond, 5 * time.Millisecond}}
	s.Finalize()
	assert.Equal(t, time.Millisecond, s.Min)
	assert.Equal(t, 5*time.Millisecond, s.Max)
	assert.Equal(t, 3*time.Millisecond, s.Avg)

	var empty Stats
	empty.Finalize()
	assert.Zero(t, empty.Avg)
}

func TestReportGenerate(t *testing.T) {
	r := &Report{
		Duration:   time.Second,
		Planets:    8,
		View:       "ship",
		TotalTicks: 600,
		TotalTime:  2 * time.Second,
		Systems: []ecs.SystemStats{
			{Name: "OrbitSystem", ExecutionCount: 600, AvgDuration: time.Microsecond},
		},
		GCPauseMetrics: true,
	}

	var buf bytes.Buffer
	require.NoError(t, r.Generate(&buf))
	out := buf.String()
	assert.Contains(t, out, "**Planets:** 8")
	assert.Contains(t, out, "600 (300/s)")
	assert.Contains(t, out, "| OrbitSystem | 600 | 1µs |")
	assert.Contains(t, out, "GC Pause Durations")
}

func TestAddPlanetsBuildsAndMeshes(t *testing.T) {
	rng := rand.New(rand.NewPCG(2, 2))
	desc := scene.Default()
	addPlanets(desc, 5, rng)
	require.Len(t, desc.Planets, 13)
	require.NoError(t, desc.Validate())
	assert.Equal(t, 75.0, desc.Planets[8].OrbitRadius)

	storage := ecs.NewStorage(sim.NewRegistry())
	scene.Build(storage, desc, rng)

	renderer := &meshRenderer{width: 1280, height: 720}
	session := sim.NewSession(storage, sim.DefaultConfig(), renderer)
	for range 3 {
		session.Tick()
	}
	assert.Positive(t, renderer.triangles)
	assert.Len(t, session.Bodies(), 15)
}
