// Package scene describes a solar system in YAML and spawns it into ECS storage.
package scene

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"github.com/plus3/orrery/ecs"
	"github.com/plus3/orrery/sim"
)

//go:embed default.yaml
var defaultYAML []byte

var (
	// ErrNoPlanets is returned for a description without planets.
	ErrNoPlanets = errors.New("scene has no planets")
	// ErrInvalidBody is returned for a body with an impossible size, orbit or colour.
	ErrInvalidBody = errors.New("invalid body")
)

// Description is a whole system as written in YAML.
type Description struct {
	// TextureBase is prefixed to relative texture names.
	TextureBase    string     `yaml:"textureBase"`
	Sun            SunSpec    `yaml:"sun"`
	Planets        []Planet   `yaml:"planets"`
	PlanetSpinRate float64    `yaml:"planetSpinRate"`
	Background     Background `yaml:"background"`
	Ship           *ShipSpec  `yaml:"ship"`
}

// SunSpec is the central star.
type SunSpec struct {
	Name     string    `yaml:"name"`
	Radius   float64   `yaml:"radius"`
	Color    string    `yaml:"color"`
	Texture  string    `yaml:"texture"`
	SpinRate float64   `yaml:"spinRate"`
	Light    LightSpec `yaml:"light"`
}

// LightSpec is the point light at the sun.
type LightSpec struct {
	Color     string  `yaml:"color"`
	Intensity float64 `yaml:"intensity"`
}

// Planet is one orbiting body.
type Planet struct {
	Name        string           `yaml:"name"`
	Radius      float64          `yaml:"radius"`
	OrbitRadius float64          `yaml:"orbitRadius"`
	OrbitSpeed  float64          `yaml:"orbitSpeed"`
	SpinRate    *float64         `yaml:"spinRate"`
	Color       string           `yaml:"color"`
	Texture     string           `yaml:"texture"`
	Decorations []DecorationSpec `yaml:"decorations"`
}

// DecorationSpec attaches clouds, a moon or a ring to a planet.
type DecorationSpec struct {
	Kind    string     `yaml:"kind"`
	Radius  float64    `yaml:"radius"`
	Outer   float64    `yaml:"outer"`
	Offset  [3]float64 `yaml:"offset"`
	Opacity float64    `yaml:"opacity"`
	Color   string     `yaml:"color"`
	Texture string     `yaml:"texture"`
}

// Background is the sky sphere and the scene-wide colours.
type Background struct {
	Texture       string  `yaml:"texture"`
	Radius        float64 `yaml:"radius"`
	Color         string  `yaml:"color"`
	Ambient       string  `yaml:"ambient"`
	OrbitColor    string  `yaml:"orbitColor"`
	OrbitSegments int     `yaml:"orbitSegments"`
}

// ShipSpec overrides the ship. Zero fields keep sim.DefaultShip values.
type ShipSpec struct {
	Radius          float64     `yaml:"radius"`
	Color           string      `yaml:"color"`
	Position        *[3]float64 `yaml:"position"`
	RotationDegrees *[3]float64 `yaml:"rotationDegrees"`
	MoveSpeed       float64     `yaml:"moveSpeed"`
	RotationSpeed   float64     `yaml:"rotationSpeed"`
	AutopilotStep   float64     `yaml:"autopilotStep"`
	AutopilotLimit  float64     `yaml:"autopilotLimit"`
}

// Load decodes and validates a description. Unknown keys are rejected.
func Load(r io.Reader) (*Description, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var desc Description
	if err := dec.Decode(&desc); err != nil {
		return nil, fmt.Errorf("decode scene: %w", err)
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	return &desc, nil
}

// LoadFile loads a description from path.
func LoadFile(path string) (*Description, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scene: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Default returns the built-in eight-planet system.
func Default() *Description {
	desc, err := Load(bytes.NewReader(defaultYAML))
	if err != nil {
		panic(fmt.Sprintf("embedded scene: %v", err))
	}
	return desc
}

// Validate checks that every body can be built.
func (d *Description) Validate() error {
	if len(d.Planets) == 0 {
		return ErrNoPlanets
	}
	if d.Sun.Radius <= 0 {
		return fmt.Errorf("%w: sun %q: radius must be positive", ErrInvalidBody, d.Sun.Name)
	}
	if err := checkColors("sun", d.Sun.Color, d.Sun.Light.Color); err != nil {
		return err
	}

	seen := make(map[string]bool, len(d.Planets))
	for _, p := range d.Planets {
		switch {
		case p.Name == "":
			return fmt.Errorf("%w: planet without a name", ErrInvalidBody)
		case seen[p.Name]:
			return fmt.Errorf("%w: %q: duplicate name", ErrInvalidBody, p.Name)
		case p.Radius <= 0:
			return fmt.Errorf("%w: %q: radius must be positive", ErrInvalidBody, p.Name)
		case p.OrbitRadius <= 0:
			return fmt.Errorf("%w: %q: orbit radius must be positive", ErrInvalidBody, p.Name)
		}
		seen[p.Name] = true

		if err := checkColors(p.Name, p.Color); err != nil {
			return err
		}
		for _, dec := range p.Decorations {
			if _, err := decorationKind(dec.Kind); err != nil {
				return fmt.Errorf("%w: %q: %v", ErrInvalidBody, p.Name, err)
			}
			if dec.Radius <= 0 {
				return fmt.Errorf("%w: %q: %s radius must be positive", ErrInvalidBody, p.Name, dec.Kind)
			}
			if dec.Kind == "ring" && dec.Outer <= dec.Radius {
				return fmt.Errorf("%w: %q: ring outer radius must exceed inner", ErrInvalidBody, p.Name)
			}
			if err := checkColors(p.Name, dec.Color); err != nil {
				return err
			}
		}
	}

	if d.Ship != nil {
		if d.Ship.Radius < 0 {
			return fmt.Errorf("%w: ship: radius must not be negative", ErrInvalidBody)
		}
		if err := checkColors("ship", d.Ship.Color); err != nil {
			return err
		}
	}
	return checkColors("background", d.Background.Color, d.Background.Ambient, d.Background.OrbitColor)
}

func checkColors(owner string, hexes ...string) error {
	for _, h := range hexes {
		if h == "" {
			continue
		}
		if _, err := colorful.Hex(h); err != nil {
			return fmt.Errorf("%w: %q: color %q: %v", ErrInvalidBody, owner, h, err)
		}
	}
	return nil
}

func parseColor(hex string, fallback colorful.Color) colorful.Color {
	if c, err := colorful.Hex(hex); err == nil {
		return c
	}
	return fallback
}

func decorationKind(kind string) (sim.DecorationKind, error) {
	switch kind {
	case "clouds":
		return sim.DecorationClouds, nil
	case "moon":
		return sim.DecorationMoon, nil
	case "ring":
		return sim.DecorationRing, nil
	}
	return 0, fmt.Errorf("unknown decoration %q", kind)
}

// TextureURL resolves a texture name against TextureBase. Absolute URLs and
// empty names pass through.
func (d *Description) TextureURL(name string) string {
	if name == "" || d.TextureBase == "" || strings.Contains(name, "://") {
		return name
	}
	return strings.TrimSuffix(d.TextureBase, "/") + "/" + name
}

// Textures lists every texture the description references, without duplicates.
func (d *Description) Textures() []string {
	var urls []string
	seen := make(map[string]bool)
	add := func(name string) {
		u := d.TextureURL(name)
		if u != "" && !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	}

	add(d.Sun.Texture)
	for _, p := range d.Planets {
		add(p.Texture)
		for _, dec := range p.Decorations {
			add(dec.Texture)
		}
	}
	add(d.Background.Texture)
	return urls
}

// Environment returns the scenery handed to renderers.
func (d *Description) Environment() sim.Environment {
	segments := d.Background.OrbitSegments
	if segments <= 0 {
		segments = 64
	}
	return sim.Environment{
		Background:       d.TextureURL(d.Background.Texture),
		BackgroundRadius: d.Background.Radius,
		BackgroundColor:  parseColor(d.Background.Color, colorful.Color{}),
		Ambient:          parseColor(d.Background.Ambient, colorful.Color{R: 0.27, G: 0.27, B: 0.27}),
		OrbitColor:       parseColor(d.Background.OrbitColor, colorful.Color{R: 1, G: 1, B: 1}),
		OrbitSegments:    segments,
	}
}

// Handles are the entities Build spawned.
type Handles struct {
	Sun     ecs.EntityId
	Planets map[string]ecs.EntityId
	Ship    ecs.EntityId
}

// Build spawns the sun, the planets at random starting angles and the ship at
// its home pose. rng decides the angles; equal seeds give equal systems.
func Build(storage *ecs.Storage, d *Description, rng *rand.Rand) Handles {
	white := colorful.Color{R: 1, G: 1, B: 1}
	h := Handles{Planets: make(map[string]ecs.EntityId, len(d.Planets))}

	sunName := d.Sun.Name
	if sunName == "" {
		sunName = "sun"
	}
	h.Sun = storage.Spawn(
		sim.Body{
			Name:    sunName,
			Radius:  d.Sun.Radius,
			Color:   parseColor(d.Sun.Color, white),
			Texture: d.TextureURL(d.Sun.Texture),
		},
		sim.Transform{Visible: true},
		sim.Star{
			LightColor: parseColor(d.Sun.Light.Color, white),
			Intensity:  d.Sun.Light.Intensity,
		},
		sim.Spin{Rate: d.Sun.SpinRate},
	)

	for _, p := range d.Planets {
		spin := d.PlanetSpinRate
		if p.SpinRate != nil {
			spin = *p.SpinRate
		}

		orbit := sim.Orbit{
			Radius: p.OrbitRadius,
			Speed:  p.OrbitSpeed,
			Angle:  rng.Float64() * 2 * math.Pi,
		}
		h.Planets[p.Name] = storage.Spawn(
			sim.Body{
				Name:        p.Name,
				Radius:      p.Radius,
				Color:       parseColor(p.Color, white),
				Texture:     d.TextureURL(p.Texture),
				Decorations: d.decorations(p),
			},
			sim.Transform{Position: orbit.Position(), Visible: true},
			orbit,
			sim.Spin{Rate: spin},
		)
	}

	ship, body := d.ship()
	t := sim.Transform{Visible: true}
	t.SetPose(ship.Home)
	h.Ship = storage.Spawn(body, t, ship)

	return h
}

func (d *Description) decorations(p Planet) []sim.Decoration {
	if len(p.Decorations) == 0 {
		return nil
	}
	out := make([]sim.Decoration, 0, len(p.Decorations))
	for _, spec := range p.Decorations {
		kind, _ := decorationKind(spec.Kind)
		opacity := spec.Opacity
		if opacity == 0 {
			opacity = 1
		}
		out = append(out, sim.Decoration{
			Kind:    kind,
			Radius:  spec.Radius,
			Outer:   spec.Outer,
			Offset:  mgl64.Vec3(spec.Offset),
			Opacity: opacity,
			Color:   parseColor(spec.Color, colorful.Color{R: 1, G: 1, B: 1}),
			Texture: d.TextureURL(spec.Texture),
		})
	}
	return out
}

func (d *Description) ship() (sim.Ship, sim.Body) {
	ship := sim.DefaultShip()
	body := sim.Body{Name: "ship", Radius: 2, Color: colorful.Color{R: 0.8, G: 0.85, B: 0.9}}

	spec := d.Ship
	if spec == nil {
		return ship, body
	}

	if spec.Radius > 0 {
		body.Radius = spec.Radius
	}
	body.Color = parseColor(spec.Color, body.Color)
	if spec.Position != nil {
		ship.Home.Position = mgl64.Vec3(*spec.Position)
	}
	if spec.RotationDegrees != nil {
		r := *spec.RotationDegrees
		ship.Home.Rotation = mgl64.Vec3{
			mgl64.DegToRad(r[0]),
			mgl64.DegToRad(r[1]),
			mgl64.DegToRad(r[2]),
		}
	}
	setIfNonZero(&ship.MoveSpeed, spec.MoveSpeed)
	setIfNonZero(&ship.RotationSpeed, spec.RotationSpeed)
	setIfNonZero(&ship.AutopilotStep, spec.AutopilotStep)
	setIfNonZero(&ship.AutopilotLimit, spec.AutopilotLimit)
	return ship, body
}

func setIfNonZero(dst *float64, v float64) {
	if v != 0 {
		*dst = v
	}
}
