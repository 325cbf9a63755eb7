package tui

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/plus3/orrery/render/geom"
	"github.com/plus3/orrery/sim"
)

// Terminal cells are roughly twice as tall as they are wide, so the cameras
// render onto a viewport with two rows of pixels per cell.
const cellAspect = 2

// Canvas is a sim.Renderer that keeps the latest frame for drawing as text.
type Canvas struct {
	scene  *sim.Scene
	camera sim.Camera
}

// CaptureReflection is a no-op: glyphs have no surface to reflect on.
func (c *Canvas) CaptureReflection(*sim.Scene, mgl64.Vec3) {}

// Render records the frame.
func (c *Canvas) Render(scene *sim.Scene, camera sim.Camera) {
	c.scene = scene
	c.camera = camera
}

// Scene is the last rendered frame, or nil.
func (c *Canvas) Scene() *sim.Scene {
	return c.scene
}

type cell struct {
	r     rune
	color string
}

// Draw lays the last frame out on a cols by rows grid.
func (c *Canvas) Draw(cols, rows int) string {
	if c.scene == nil || cols <= 0 || rows <= 0 {
		return ""
	}
	grid := make([][]cell, rows)
	for y := range grid {
		grid[y] = make([]cell, cols)
		for x := range grid[y] {
			grid[y][x] = cell{r: ' '}
		}
	}
	put := func(p mgl64.Vec2, r rune, color string) {
		x, y := int(p[0]), int(p[1]/cellAspect)
		if x < 0 || x >= cols || y < 0 || y >= rows {
			return
		}
		grid[y][x] = cell{r: r, color: color}
	}

	w, h := float64(cols), float64(rows*cellAspect)
	cam := c.camera
	cam.Aspect = w / h

	orbit := c.scene.Environment.OrbitColor.Hex()
	for _, radius := range c.scene.Orbits {
		for _, p := range sim.OrbitPath(radius, 2*c.scene.Environment.OrbitSegments) {
			if s, _, ok := cam.Project(p, w, h); ok {
				put(s, '·', orbit)
			}
		}
	}

	for _, it := range geom.Collect(c.scene, cam, w, h) {
		color := it.Color.Hex()
		switch {
		case it.Kind == geom.ItemRing:
			for _, dx := range []float64{-it.ScreenRadius, it.ScreenRadius} {
				put(it.Screen.Add(mgl64.Vec2{dx, 0}), '=', color)
			}
		case strings.HasSuffix(it.Name, "/clouds"):
		case strings.HasSuffix(it.Name, "/moon"):
			put(it.Screen, '∘', color)
		default:
			if it.ScreenRadius > 1.5 {
				fillDisc(it, put, color)
			}
			put(it.Screen, glyph(it), color)
		}
	}

	var b strings.Builder
	for y, row := range grid {
		if y > 0 {
			b.WriteByte('\n')
		}
		writeRow(&b, row)
	}
	return b.String()
}

func fillDisc(it geom.Item, put func(mgl64.Vec2, rune, string), color string) {
	r := it.ScreenRadius
	for dy := -r; dy <= r; dy += cellAspect {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				put(it.Screen.Add(mgl64.Vec2{dx, dy}), '░', color)
			}
		}
	}
}

func glyph(it geom.Item) rune {
	switch it.Body {
	case sim.KindStar:
		return '☉'
	case sim.KindShip:
		return '◆'
	}
	for _, r := range it.Name {
		return unicode.ToUpper(r)
	}
	return '•'
}

// writeRow styles runs of same-coloured cells together.
func writeRow(b *strings.Builder, row []cell) {
	for i := 0; i < len(row); {
		j := i
		var run strings.Builder
		for j < len(row) && row[j].color == row[i].color {
			run.WriteRune(row[j].r)
			j++
		}
		if row[i].color == "" {
			b.WriteString(run.String())
		} else {
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(row[i].color)).Render(run.String()))
		}
		i = j
	}
}
