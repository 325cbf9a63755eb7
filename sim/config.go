package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// TickRate is the fixed number of frames simulated per second.
const TickRate = 60

// CameraConfig describes a camera before it is bound to a viewport.
type CameraConfig struct {
	FovY     float64
	Near     float64
	Far      float64
	Position mgl64.Vec3
	Target   mgl64.Vec3
}

// Config tunes a Session.
type Config struct {
	InitialView View
	Bindings    Bindings

	SystemCamera  CameraConfig
	DampingFactor float64

	ShipCamera CameraConfig
	// ShipCameraOffset is the ship camera position in the ship's local frame.
	ShipCameraOffset mgl64.Vec3

	Width, Height int
}

// DefaultConfig is the classic layout: a 40° orbit camera above the system and a
// 60° camera riding behind and above the ship.
func DefaultConfig() Config {
	return Config{
		InitialView: ViewSystem,
		Bindings:    DefaultBindings(),
		SystemCamera: CameraConfig{
			FovY:     40,
			Near:     0.1,
			Far:      1000,
			Position: mgl64.Vec3{0, 50, 100},
		},
		DampingFactor: 0.05,
		ShipCamera: CameraConfig{
			FovY: 60,
			Near: 0.1,
			Far:  1000,
		},
		ShipCameraOffset: mgl64.Vec3{10, 20, -10},
		Width:            1280,
		Height:           720,
	}
}

// DefaultShip is the ship tuning used when a scene does not override it.
func DefaultShip() Ship {
	return Ship{
		Moving: true,
		Home: Pose{
			Position: mgl64.Vec3{0, 0, 70},
			Rotation: mgl64.Vec3{0, math.Pi, 0},
		},
		MoveSpeed:      0.5,
		RotationSpeed:  0.05,
		AutopilotStep:  0.1,
		AutopilotLimit: -100,
	}
}
