// Package geom turns scene snapshots into screen-space triangles. It has no
// display dependency; the render package copies its vertices into ebiten.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"
)

// Vertex has the same layout as ebiten.Vertex.
type Vertex struct {
	DstX, DstY                     float32
	SrcX, SrcY                     float32
	ColorR, ColorG, ColorB, ColorA float32
}

// Mesh is an indexed triangle list.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint16
}

// Reset empties the mesh and keeps its buffers.
func (m *Mesh) Reset() {
	m.Vertices = m.Vertices[:0]
	m.Indices = m.Indices[:0]
}

// Triangles is the number of triangles in the mesh.
func (m *Mesh) Triangles() int {
	return len(m.Indices) / 3
}

func (m *Mesh) triangle(a, b, c Vertex) {
	base := uint16(len(m.Vertices))
	m.Vertices = append(m.Vertices, a, b, c)
	m.Indices = append(m.Indices, base, base+1, base+2)
}

// TexSize is the pixel size of the source image a mesh samples.
type TexSize struct {
	W, H float64
}

// Surface maps a camera-space unit normal on the visible hemisphere of a sphere
// to texture coordinates. u may leave [0, 1]; the sampler repeats.
type Surface func(n mgl64.Vec3) (u, v float64)

// Shading colours every vertex of a mesh.
type Shading struct {
	Color   colorful.Color
	Opacity float64
	// Light points from the surface toward the light in camera space. The zero
	// vector means the surface is not lit and draws at full brightness.
	Light   mgl64.Vec3
	Ambient float64
}

// Brightness is the lambert term for normal n, floored at the ambient level.
func (s Shading) Brightness(n mgl64.Vec3) float64 {
	if s.Light == (mgl64.Vec3{}) {
		return 1
	}
	return math.Min(1, s.Ambient+math.Max(0, n.Dot(s.Light)))
}

func (s Shading) vertex(x, y, u, v float64, n mgl64.Vec3, tex TexSize) Vertex {
	b := s.Brightness(n)
	return Vertex{
		DstX:   float32(x),
		DstY:   float32(y),
		SrcX:   float32(u * tex.W),
		SrcY:   float32(v * tex.H),
		ColorR: float32(s.Color.R * b),
		ColorG: float32(s.Color.G * b),
		ColorB: float32(s.Color.B * b),
		ColorA: float32(s.Opacity),
	}
}

// Disc is the screen footprint of a sphere.
type Disc struct {
	Center   mgl64.Vec2
	Radius   float64
	Rings    int
	Segments int
}

// AddDisc meshes a sphere's visible hemisphere as concentric rings. Without a
// surface every vertex samples the centre of the source image.
func (m *Mesh) AddDisc(d Disc, tex TexSize, surface Surface, shade Shading) {
	rings := max(d.Rings, 1)
	segments := max(d.Segments, 3)

	radii := make([]float64, rings+1)
	for i := range radii {
		radii[i] = math.Sin(float64(i) / float64(rings) * math.Pi / 2)
	}

	point := func(r float64, j int) mgl64.Vec2 {
		a := float64(j) / float64(segments) * 2 * math.Pi
		return mgl64.Vec2{r * math.Cos(a), r * math.Sin(a)}
	}

	for i := 0; i < rings; i++ {
		for j := 0; j < segments; j++ {
			outerA, outerB := point(radii[i+1], j), point(radii[i+1], j+1)
			if i == 0 {
				m.discTriangle(d, tex, surface, shade, mgl64.Vec2{}, outerA, outerB)
				continue
			}
			innerA, innerB := point(radii[i], j), point(radii[i], j+1)
			m.discTriangle(d, tex, surface, shade, innerA, outerA, outerB)
			m.discTriangle(d, tex, surface, shade, innerA, outerB, innerB)
		}
	}
}

func (m *Mesh) discTriangle(d Disc, tex TexSize, surface Surface, shade Shading, pts ...mgl64.Vec2) {
	var (
		normals [3]mgl64.Vec3
		us, vs  [3]float64
	)
	for k, p := range pts {
		z := math.Sqrt(math.Max(0, 1-p.LenSqr()))
		normals[k] = mgl64.Vec3{p[0], p[1], z}
		if surface != nil {
			us[k], vs[k] = surface(normals[k])
		} else {
			us[k], vs[k] = 0.5, 0.5
		}
	}
	unwrap(&us)

	var verts [3]Vertex
	for k, p := range pts {
		x := d.Center[0] + d.Radius*p[0]
		y := d.Center[1] - d.Radius*p[1]
		verts[k] = shade.vertex(x, y, us[k], vs[k], normals[k], tex)
	}
	m.triangle(verts[0], verts[1], verts[2])
}

// unwrap shifts coordinates that straddle the 0/1 seam onto one side of it.
func unwrap(us *[3]float64) {
	lo := math.Min(us[0], math.Min(us[1], us[2]))
	hi := math.Max(us[0], math.Max(us[1], us[2]))
	if hi-lo <= 0.5 {
		return
	}
	for k := range us {
		if us[k] < 0.5 {
			us[k]++
		}
	}
}

// Projector maps a world point to the screen.
type Projector func(p mgl64.Vec3) (mgl64.Vec2, bool)

// RingSpec is a flat annulus in a body's equatorial plane.
type RingSpec struct {
	Center      mgl64.Vec3
	Orientation mgl64.Quat
	Inner       float64
	Outer       float64
	Segments    int
}

// AddRing meshes an annulus. The source image is sampled radially along u.
// Quads with a corner outside the camera's depth range are dropped. Rings are
// unlit, so shade.Light is ignored.
func (m *Mesh) AddRing(r RingSpec, project Projector, tex TexSize, shade Shading) {
	segments := max(r.Segments, 3)
	edge := func(radius float64, j int) (mgl64.Vec2, bool) {
		a := float64(j) / float64(segments) * 2 * math.Pi
		local := mgl64.Vec3{radius * math.Cos(a), 0, radius * math.Sin(a)}
		return project(r.Center.Add(r.Orientation.Rotate(local)))
	}

	shade.Light = mgl64.Vec3{}
	for j := 0; j < segments; j++ {
		ia, ok1 := edge(r.Inner, j)
		ib, ok2 := edge(r.Inner, j+1)
		oa, ok3 := edge(r.Outer, j)
		ob, ok4 := edge(r.Outer, j+1)
		if !ok1 || !ok2 || !ok3 || !ok4 {
			continue
		}
		vi := func(p mgl64.Vec2) Vertex { return shade.vertex(p[0], p[1], 0.01, 0.5, mgl64.Vec3{}, tex) }
		vo := func(p mgl64.Vec2) Vertex { return shade.vertex(p[0], p[1], 0.99, 0.5, mgl64.Vec3{}, tex) }
		m.triangle(vi(ia), vo(oa), vo(ob))
		m.triangle(vi(ia), vo(ob), vi(ib))
	}
}
