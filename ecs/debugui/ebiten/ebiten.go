// Package ebiten hosts the debugui overlay on the cimgui-go Ebiten backend.
package ebiten

import (
	ebitenbackend "github.com/AllenDang/cimgui-go/backend/ebiten-backend"
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/hajimehoshi/ebiten/v2"
)

// ImguiBackend wraps the Ebiten Dear ImGui backend. Frontends call BeginFrame
// before ticking the session, EndFrame after it, and Draw over the scene.
type ImguiBackend struct {
	*ebitenbackend.EbitenBackend
}

// NewImguiBackend creates the backend and its window without persisting
// imgui.ini.
func NewImguiBackend(title string, width, height int) ImguiBackend {
	backend := ebitenbackend.NewEbitenBackend()
	backend.CreateWindow(title, width, height)
	imgui.CurrentIO().SetIniFilename("")
	return ImguiBackend{EbitenBackend: backend}
}

// Overlay draws the overlay over screen.
func (b ImguiBackend) Overlay(screen *ebiten.Image) {
	b.Draw(screen)
}
