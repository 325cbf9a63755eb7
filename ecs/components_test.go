package ecs_test

import "github.com/plus3/orrery/ecs"

type Position struct {
	X, Y, Z float64
}

type Velocity struct {
	DX, DY, DZ float64
}

type Label string

type Mass float64

type Beacon struct {
	Channel int
}

func newTestRegistry() *ecs.ComponentRegistry {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Position](registry)
	ecs.RegisterComponent[Velocity](registry)
	ecs.RegisterComponent[Label](registry)
	ecs.RegisterComponent[Mass](registry)
	ecs.RegisterComponent[Beacon](registry)
	ecs.RegisterComponent[int](registry)
	ecs.RegisterComponent[string](registry)
	ecs.RegisterComponent[float64](registry)
	return registry
}
