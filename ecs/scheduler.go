package ecs

import (
	"context"
	"reflect"
	"time"
)

// SchedulerStats provides statistics about scheduler execution.
type SchedulerStats struct {
	SystemCount     int
	TotalExecutions int64
	Frames          int64
	Systems         []SystemStats
}

// SystemStats provides execution statistics for a single system.
type SystemStats struct {
	Name           string
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type systemEntry struct {
	system System
	stats  SystemStats
}

// Scheduler runs registered systems in registration order, once per frame.
// Order is the contract: a system may rely on every earlier system having
// finished its work for the current frame.
type Scheduler struct {
	storage *Storage
	entries []*systemEntry
	frames  int64

	// Observer, when set, is called after each system with its duration.
	Observer func(name string, d time.Duration)
}

// NewScheduler creates a new scheduler for the given storage.
func NewScheduler(storage *Storage) *Scheduler {
	return &Scheduler{storage: storage}
}

type initializer interface {
	Init(*Storage)
}

// Register appends a system and initialises its Query and Singleton fields.
func (s *Scheduler) Register(system System) {
	s.initializeFields(system)

	t := reflect.TypeOf(system)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	s.entries = append(s.entries, &systemEntry{
		system: system,
		stats: SystemStats{
			Name:        t.Name(),
			MinDuration: time.Duration(1<<63 - 1),
		},
	})
}

func (s *Scheduler) initializeFields(system System) {
	v := reflect.ValueOf(system)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return
	}

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if !field.CanSet() || field.Kind() != reflect.Struct {
			continue
		}
		if init, ok := field.Addr().Interface().(initializer); ok {
			init.Init(s.storage)
		}
	}
}

// Once executes every registered system once, then flushes deferred commands.
func (s *Scheduler) Once(dt float64) {
	frame := newUpdateFrame(dt, s.frames, s.storage)

	for _, entry := range s.entries {
		start := time.Now()
		entry.system.Execute(frame)
		d := time.Since(start)

		st := &entry.stats
		st.ExecutionCount++
		st.LastDuration = d
		st.TotalDuration += d
		st.MinDuration = min(st.MinDuration, d)
		st.MaxDuration = max(st.MaxDuration, d)

		if s.Observer != nil {
			s.Observer(st.Name, d)
		}
	}

	frame.Commands.Flush(s.storage)
	s.frames++
}

// Run executes all systems at the given interval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			s.Once(dt)
		}
	}
}

// Frames returns how many times Once has completed.
func (s *Scheduler) Frames() int64 {
	return s.frames
}

// GetStats returns statistics about system execution.
func (s *Scheduler) GetStats() *SchedulerStats {
	stats := &SchedulerStats{
		SystemCount: len(s.entries),
		Frames:      s.frames,
		Systems:     make([]SystemStats, len(s.entries)),
	}

	for i, entry := range s.entries {
		st := entry.stats
		if st.ExecutionCount > 0 {
			st.AvgDuration = st.TotalDuration / time.Duration(st.ExecutionCount)
		} else {
			st.MinDuration = 0
		}
		stats.Systems[i] = st
		stats.TotalExecutions += st.ExecutionCount
	}

	return stats
}
