// Package render draws orrery scenes with ebiten. Projection and meshing live
// in render/geom; this package uploads textures and submits triangles.
package render

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/plus3/orrery/render/geom"
	"github.com/plus3/orrery/sim"
)

const (
	panoramaWidth  = 256
	panoramaHeight = 128

	skyCols = 16
	skyRows = 9

	// Below this many pixels a sphere is a flat dot.
	dotRadius = 2.0
)

// TextureSource hands out decoded textures by URL. scene.TextureLoader is one.
type TextureSource interface {
	Get(url string) image.Image
}

// Renderer implements sim.Renderer. The frame core hands it scenes during
// Update; Draw rasterizes the latest one onto the screen.
type Renderer struct {
	textures TextureSource
	// ShowHints draws the control hint panel for the scene's view.
	ShowHints bool

	images   map[string]*ebiten.Image
	averages map[string]colorful.Color
	white    *ebiten.Image
	panorama *ebiten.Image

	scene   *sim.Scene
	camera  sim.Camera
	capture *sim.Scene
	origin  mgl64.Vec3

	mesh      geom.Mesh
	vertices  []ebiten.Vertex
	triangles int
}

// New returns a renderer drawing textures from textures, which may be nil.
func New(textures TextureSource) *Renderer {
	return &Renderer{
		textures:  textures,
		ShowHints: true,
		images:    make(map[string]*ebiten.Image),
		averages:  make(map[string]colorful.Color),
	}
}

// CaptureReflection records the scene the ship's panorama is rebuilt from on
// the next Draw.
func (r *Renderer) CaptureReflection(scene *sim.Scene, origin mgl64.Vec3) {
	r.capture = scene
	r.origin = origin
}

// Render records the scene and camera for the next Draw.
func (r *Renderer) Render(scene *sim.Scene, camera sim.Camera) {
	r.scene = scene
	r.camera = camera
}

// Triangles is how many triangles the last Draw submitted.
func (r *Renderer) Triangles() int {
	return r.triangles
}

// Draw rasterizes the most recent scene onto screen.
func (r *Renderer) Draw(screen *ebiten.Image) {
	r.triangles = 0
	if r.white == nil {
		r.white = ebiten.NewImage(3, 3)
		r.white.Fill(color.White)
		r.panorama = ebiten.NewImage(panoramaWidth, panoramaHeight)
	}
	if r.scene == nil {
		return
	}

	w, h := float64(screen.Bounds().Dx()), float64(screen.Bounds().Dy())
	cam := r.camera
	cam.Aspect = w / h

	if r.capture != nil {
		r.drawPanorama(r.capture, r.origin)
		r.capture = nil
	}

	r.drawSky(screen, cam, w, h)
	r.drawOrbits(screen, cam, w, h)
	for _, it := range geom.Collect(r.scene, cam, w, h) {
		r.drawItem(screen, cam, it, w, h)
	}

	if r.ShowHints {
		lines := append(sim.HintPanel(r.scene.View), fmt.Sprintf("%s view  %.0f fps", r.scene.View, ebiten.ActualFPS()))
		ebitenutil.DebugPrintAt(screen, strings.Join(lines, "\n"), 10, 10)
	}
}

func (r *Renderer) drawSky(dst *ebiten.Image, cam sim.Camera, w, h float64) {
	env := r.scene.Environment
	dst.Fill(rgba(env.BackgroundColor, 1))

	sky := r.texture(env.Background)
	if sky == nil {
		return
	}
	r.mesh.Reset()
	r.mesh.AddSky(cam, w, h, skyCols, skyRows, texSize(sky), colorful.Color{R: 1, G: 1, B: 1})
	r.flush(dst, sky)
}

func (r *Renderer) drawOrbits(dst *ebiten.Image, cam sim.Camera, w, h float64) {
	env := r.scene.Environment
	clr := rgba(env.OrbitColor, 0.5)
	for _, radius := range r.scene.Orbits {
		var (
			prev   mgl64.Vec2
			inside bool
		)
		for _, p := range sim.OrbitPath(radius, env.OrbitSegments) {
			s, _, ok := cam.Project(p, w, h)
			if ok && inside {
				vector.StrokeLine(dst, float32(prev[0]), float32(prev[1]), float32(s[0]), float32(s[1]), 1, clr, true)
			}
			prev, inside = s, ok
		}
	}
}

func (r *Renderer) drawItem(dst *ebiten.Image, cam sim.Camera, it geom.Item, w, h float64) {
	if it.Kind == geom.ItemRing {
		r.drawRing(dst, cam, it, w, h)
		return
	}

	if it.ScreenRadius < dotRadius {
		vector.DrawFilledCircle(dst, float32(it.Screen[0]), float32(it.Screen[1]), float32(max(it.ScreenRadius, 1)), rgba(r.flatColor(it.Color, it.Texture), it.Opacity), true)
		return
	}

	shade := geom.Shading{Color: it.Color, Opacity: it.Opacity}
	if it.Lit {
		shade.Light, shade.Ambient = r.light(cam, it.World)
	}

	src, surface := r.white, geom.Surface(nil)
	switch {
	case it.Body == sim.KindShip:
		src, surface = r.panorama, geom.ReflectionSurface(cam)
		shade.Color = colorful.Color{R: 1, G: 1, B: 1}
	case r.texture(it.Texture) != nil:
		src, surface = r.texture(it.Texture), geom.BodySurface(cam, it.Rotation)
		shade.Color = colorful.Color{R: 1, G: 1, B: 1}
	}

	r.mesh.Reset()
	r.mesh.AddDisc(geom.Disc{
		Center:   it.Screen,
		Radius:   it.ScreenRadius,
		Rings:    int(mgl64.Clamp(it.ScreenRadius/8, 2, 12)),
		Segments: int(mgl64.Clamp(it.ScreenRadius, 16, 64)),
	}, texSize(src), surface, shade)
	r.flush(dst, src)
}

func (r *Renderer) drawRing(dst *ebiten.Image, cam sim.Camera, it geom.Item, w, h float64) {
	src := r.white
	shade := geom.Shading{Color: it.Color, Opacity: it.Opacity}
	if tex := r.texture(it.Texture); tex != nil {
		src = tex
		shade.Color = colorful.Color{R: 1, G: 1, B: 1}
	}

	r.mesh.Reset()
	r.mesh.AddRing(geom.RingSpec{
		Center:      it.World,
		Orientation: sim.EulerXYZ(it.Rotation),
		Inner:       it.Radius,
		Outer:       it.Outer,
		Segments:    int(mgl64.Clamp(it.ScreenRadius, 24, 96)),
	}, func(p mgl64.Vec3) (mgl64.Vec2, bool) {
		s, _, ok := cam.Project(p, w, h)
		return s, ok
	}, texSize(src), shade)
	r.flush(dst, src)
}

// drawPanorama paints the equirectangular view from origin: the sky behind and
// every body as a flat disc in its average colour.
func (r *Renderer) drawPanorama(scene *sim.Scene, origin mgl64.Vec3) {
	pano := r.panorama
	pano.Fill(rgba(scene.Environment.BackgroundColor, 1))

	if sky := r.texture(scene.Environment.Background); sky != nil {
		op := &ebiten.DrawImageOptions{Filter: ebiten.FilterLinear}
		b := sky.Bounds()
		op.GeoM.Scale(panoramaWidth/float64(b.Dx()), panoramaHeight/float64(b.Dy()))
		pano.DrawImage(sky, op)
	}

	for _, d := range scene.Bodies {
		center, pixels, ok := geom.PanoramaDisc(d.Position.Sub(origin), d.Radius, panoramaWidth, panoramaHeight)
		if !ok {
			continue
		}
		c := r.flatColor(d.Color, d.Texture)
		radius := float32(max(pixels, 0.75))
		for _, shift := range []float64{-panoramaWidth, 0, panoramaWidth} {
			vector.DrawFilledCircle(pano, float32(center[0]+shift), float32(center[1]), radius, rgba(c, 1), true)
		}
	}
}

func (r *Renderer) light(cam sim.Camera, at mgl64.Vec3) (mgl64.Vec3, float64) {
	amb := r.scene.Environment.Ambient
	ambient := (amb.R + amb.G + amb.B) / 3
	if len(r.scene.Lights) == 0 {
		return mgl64.Vec3{}, 0
	}
	return geom.LightDirection(cam, at, r.scene.Lights[0].Position), ambient
}

func (r *Renderer) flush(dst, src *ebiten.Image) {
	if len(r.mesh.Indices) == 0 {
		return
	}
	r.vertices = r.vertices[:0]
	for _, v := range r.mesh.Vertices {
		r.vertices = append(r.vertices, ebiten.Vertex{
			DstX: v.DstX, DstY: v.DstY,
			SrcX: v.SrcX, SrcY: v.SrcY,
			ColorR: v.ColorR, ColorG: v.ColorG, ColorB: v.ColorB, ColorA: v.ColorA,
		})
	}
	dst.DrawTriangles(r.vertices, r.mesh.Indices, src, &ebiten.DrawTrianglesOptions{
		ColorScaleMode: ebiten.ColorScaleModeStraightAlpha,
		Address:        ebiten.AddressRepeat,
		Filter:         ebiten.FilterLinear,
	})
	r.triangles += r.mesh.Triangles()
}

// texture uploads a decoded texture on first use. It returns nil while the
// texture is missing.
func (r *Renderer) texture(url string) *ebiten.Image {
	if url == "" || r.textures == nil {
		return nil
	}
	if img, ok := r.images[url]; ok {
		return img
	}
	src := r.textures.Get(url)
	if src == nil {
		return nil
	}
	img := ebiten.NewImageFromImageWithOptions(src, &ebiten.NewImageFromImageOptions{Unmanaged: true})
	r.images[url] = img
	return img
}

// flatColor is the colour a body shows when it is too small to texture.
func (r *Renderer) flatColor(base colorful.Color, url string) colorful.Color {
	if c, ok := r.averages[url]; ok {
		return c
	}
	if url == "" || r.textures == nil {
		return base
	}
	img := r.textures.Get(url)
	if img == nil {
		return base
	}
	c := geom.AverageColor(img)
	r.averages[url] = c
	return c
}

func texSize(img *ebiten.Image) geom.TexSize {
	b := img.Bounds()
	return geom.TexSize{W: float64(b.Dx()), H: float64(b.Dy())}
}

func rgba(c colorful.Color, alpha float64) color.NRGBA {
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: uint8(mgl64.Clamp(alpha, 0, 1) * 255)}
}
