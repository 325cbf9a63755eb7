package geom

import (
	"image"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/plus3/orrery/sim"
)

// ItemKind says how an Item is meshed.
type ItemKind int

const (
	ItemSphere ItemKind = iota
	ItemRing
)

// Decoration depth offsets keep clouds and rings in front of their planet.
const (
	cloudBias = 0.01
	ringBias  = 0.02
	minPixels = 0.25
)

// Item is one thing to draw, already projected.
type Item struct {
	Kind     ItemKind
	Body     sim.BodyKind
	Name     string
	World    mgl64.Vec3
	Rotation mgl64.Vec3
	Radius   float64
	Outer    float64

	Screen       mgl64.Vec2
	ScreenRadius float64
	Depth        float64

	Color   colorful.Color
	Opacity float64
	Texture string
	// Lit items are shaded by the star; the star, rings and ship are not.
	Lit bool
}

// Collect projects every body and decoration of scene through cam onto a w by h
// viewport and returns them far to near. Anything behind the camera, beyond its
// far plane or smaller than a fraction of a pixel is dropped.
func Collect(scene *sim.Scene, cam sim.Camera, w, h float64) []Item {
	items := make([]Item, 0, len(scene.Bodies)+4)

	sphere := func(it Item) {
		screen, depth, ok := cam.Project(it.World, w, h)
		if !ok {
			return
		}
		it.Screen, it.Depth = screen, depth
		it.ScreenRadius = cam.ScreenRadius(it.Radius, depth, h)
		if it.ScreenRadius < minPixels {
			return
		}
		items = append(items, it)
	}

	for _, d := range scene.Bodies {
		sphere(Item{
			Kind:     ItemSphere,
			Body:     d.Kind,
			Name:     d.Name,
			World:    d.Position,
			Rotation: d.Rotation,
			Radius:   d.Radius,
			Color:    d.Color,
			Opacity:  1,
			Texture:  d.Texture,
			Lit:      d.Kind == sim.KindPlanet,
		})

		for _, dec := range d.Decorations {
			switch dec.Kind {
			case sim.DecorationClouds:
				n := len(items)
				sphere(Item{
					Kind: ItemSphere, Body: d.Kind, Name: d.Name + "/clouds",
					World: d.Position, Rotation: d.Rotation, Radius: dec.Radius,
					Color: dec.Color, Opacity: dec.Opacity, Texture: dec.Texture, Lit: true,
				})
				if len(items) > n {
					items[n].Depth -= cloudBias
				}
			case sim.DecorationMoon:
				sphere(Item{
					Kind: ItemSphere, Body: d.Kind, Name: d.Name + "/moon",
					World: d.DecorationPosition(dec), Radius: dec.Radius,
					Color: dec.Color, Opacity: dec.Opacity, Texture: dec.Texture, Lit: true,
				})
			case sim.DecorationRing:
				screen, depth, ok := cam.Project(d.Position, w, h)
				if !ok {
					continue
				}
				items = append(items, Item{
					Kind: ItemRing, Body: d.Kind, Name: d.Name + "/ring",
					World: d.Position, Rotation: d.Rotation, Radius: dec.Radius, Outer: dec.Outer,
					Screen: screen, ScreenRadius: cam.ScreenRadius(dec.Outer, depth, h), Depth: depth - ringBias,
					Color: dec.Color, Opacity: dec.Opacity, Texture: dec.Texture,
				})
			}
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Depth > items[j].Depth
	})
	return items
}

// WorldToCamera rotates a world direction into cam's frame.
func WorldToCamera(cam sim.Camera, v mgl64.Vec3) mgl64.Vec3 {
	return cam.ViewMatrix().Mat3().Mul3x1(v)
}

// CameraToWorld rotates a camera-space direction into the world.
func CameraToWorld(cam sim.Camera, v mgl64.Vec3) mgl64.Vec3 {
	return cam.ViewMatrix().Mat3().Transpose().Mul3x1(v)
}

// LightDirection is the camera-space unit vector from a body toward light.
func LightDirection(cam sim.Camera, body, light mgl64.Vec3) mgl64.Vec3 {
	d := light.Sub(body)
	if d.LenSqr() == 0 {
		return mgl64.Vec3{}
	}
	return WorldToCamera(cam, d.Normalize())
}

// BodySurface maps the visible hemisphere of a body turned by rotation to
// equirectangular texture coordinates in the body's own frame.
func BodySurface(cam sim.Camera, rotation mgl64.Vec3) Surface {
	toWorld := cam.ViewMatrix().Mat3().Transpose()
	toLocal := sim.EulerXYZ(rotation).Inverse()
	return func(n mgl64.Vec3) (float64, float64) {
		return PanoramaUV(toLocal.Rotate(toWorld.Mul3x1(n)))
	}
}

// ReflectionSurface maps the visible hemisphere of a mirror sphere to the
// panorama direction its surface reflects.
func ReflectionSurface(cam sim.Camera) Surface {
	toWorld := cam.ViewMatrix().Mat3().Transpose()
	view := mgl64.Vec3{0, 0, -1}
	return func(n mgl64.Vec3) (float64, float64) {
		r := view.Sub(n.Mul(2 * view.Dot(n)))
		return PanoramaUV(toWorld.Mul3x1(r))
	}
}

// PanoramaUV maps a direction to equirectangular coordinates: v runs from the
// +Y pole at 0 to the -Y pole at 1, u wraps once around Y.
func PanoramaUV(dir mgl64.Vec3) (u, v float64) {
	l := dir.Len()
	if l == 0 {
		return 0.5, 0.5
	}
	d := dir.Mul(1 / l)
	u = math.Atan2(d[2], -d[0]) / (2 * math.Pi)
	if u < 0 {
		u++
	}
	v = math.Acos(mgl64.Clamp(d[1], -1, 1)) / math.Pi
	return u, v
}

// PanoramaDisc places a sphere of the given radius, offset from the capture
// origin, on a w by h panorama. ok is false when the origin is inside it.
func PanoramaDisc(offset mgl64.Vec3, radius, w, h float64) (center mgl64.Vec2, pixels float64, ok bool) {
	d := offset.Len()
	if d <= radius {
		return mgl64.Vec2{}, 0, false
	}
	u, v := PanoramaUV(offset)
	return mgl64.Vec2{u * w, v * h}, math.Asin(radius/d) / math.Pi * h, true
}

// ViewRay is the world direction through pixel (sx, sy) of a w by h viewport.
func ViewRay(cam sim.Camera, sx, sy, w, h float64) mgl64.Vec3 {
	t := math.Tan(mgl64.DegToRad(cam.FovY) / 2)
	x := (2*sx/w - 1) * cam.Aspect * t
	y := (1 - 2*sy/h) * t
	return CameraToWorld(cam, mgl64.Vec3{x, y, -1}).Normalize()
}

// AddSky covers the viewport with a cols by rows grid sampling an
// equirectangular sky along each pixel's view ray.
func (m *Mesh) AddSky(cam sim.Camera, w, h float64, cols, rows int, tex TexSize, tint colorful.Color) {
	cols, rows = max(cols, 1), max(rows, 1)
	shade := Shading{Color: tint, Opacity: 1}

	corner := func(i, j int) (x, y, u, v float64) {
		x = float64(i) / float64(cols) * w
		y = float64(j) / float64(rows) * h
		u, v = PanoramaUV(ViewRay(cam, x, y, w, h))
		return
	}

	for j := 0; j < rows; j++ {
		for i := 0; i < cols; i++ {
			var xs, ys, us, vs [4]float64
			for k, c := range [4][2]int{{i, j}, {i + 1, j}, {i + 1, j + 1}, {i, j + 1}} {
				xs[k], ys[k], us[k], vs[k] = corner(c[0], c[1])
			}
			for _, tri := range [2][3]int{{0, 1, 2}, {0, 2, 3}} {
				u := [3]float64{us[tri[0]], us[tri[1]], us[tri[2]]}
				unwrap(&u)
				var verts [3]Vertex
				for k, idx := range tri {
					verts[k] = shade.vertex(xs[idx], ys[idx], u[k], vs[idx], mgl64.Vec3{}, tex)
				}
				m.triangle(verts[0], verts[1], verts[2])
			}
		}
	}
}

// AverageColor estimates the mean colour of img from a sparse grid of samples.
// Renderers use it where a body is too small to texture.
func AverageColor(img image.Image) colorful.Color {
	b := img.Bounds()
	if b.Empty() {
		return colorful.Color{}
	}
	const grid = 16
	var r, g, bl float64
	n := 0
	for j := 0; j < grid; j++ {
		for i := 0; i < grid; i++ {
			x := b.Min.X + i*b.Dx()/grid
			y := b.Min.Y + j*b.Dy()/grid
			c, _ := colorful.MakeColor(img.At(x, y))
			r, g, bl = r+c.R, g+c.G, bl+c.B
			n++
		}
	}
	return colorful.Color{R: r / float64(n), G: g / float64(n), B: bl / float64(n)}
}
