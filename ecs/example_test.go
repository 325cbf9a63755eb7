package ecs_test

import (
	"fmt"

	"github.com/plus3/orrery/ecs"
)

type Clock struct {
	Ticks int
}

// ExampleNewSingleton shows that every accessor for a type shares one value.
func ExampleNewSingleton() {
	storage := ecs.NewStorage(ecs.NewComponentRegistry())

	clock := ecs.NewSingleton[Clock](storage, Clock{Ticks: 10})
	clock.Get().Ticks++

	same := ecs.NewSingleton[Clock](storage, Clock{Ticks: 999})
	fmt.Println(same.Get().Ticks)

	var direct *Clock
	if storage.ReadSingleton(&direct) {
		fmt.Println(direct.Ticks)
	}

	// Output:
	// 11
	// 11
}

type orbitStep struct {
	Bodies ecs.Query[struct {
		*Position
		*Velocity
	}]
}

func (s *orbitStep) Execute(frame *ecs.UpdateFrame) {
	for body := range s.Bodies.Values() {
		body.Position.X += body.Velocity.DX
	}
}

// ExampleScheduler registers a system and runs three frames.
func ExampleScheduler() {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Position](registry)
	ecs.RegisterComponent[Velocity](registry)

	storage := ecs.NewStorage(registry)
	id := storage.Spawn(Position{}, Velocity{DX: 0.5})

	scheduler := ecs.NewScheduler(storage)
	scheduler.Register(&orbitStep{})
	for i := 0; i < 3; i++ {
		scheduler.Once(1.0 / 60.0)
	}

	fmt.Println(ecs.ReadComponent[Position](storage, id).X)
	fmt.Println(scheduler.GetStats().Systems[0].ExecutionCount)

	// Output:
	// 1.5
	// 3
}
