// Package debugui draws the orrery's Dear ImGui overlay: a settings panel, a
// body inspector and frame statistics. Panels are ImguiItem entities rendered by
// ImguiSystem, so they run inside the session's frame.
package debugui

import (
	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/orrery/ecs"
)

// ImguiItem is one overlay panel. Render runs after the frame's systems, so a
// panel always shows the state the frame ended with.
type ImguiItem struct {
	Render func()
}

// ImguiInputState says whether the overlay owns the mouse or the keyboard this
// frame. The window frontend skips ship keys and camera drags while it does.
type ImguiInputState struct {
	WantCaptureMouse    bool
	WantCaptureKeyboard bool
}

// ImguiSystem queues every panel for the end of the frame and publishes the
// overlay's input capture.
type ImguiSystem struct {
	Items      ecs.Query[struct{ *ImguiItem }]
	InputState ecs.Singleton[ImguiInputState]

	// Capture reads the capture flags; nil asks the current imgui context.
	Capture func() (mouse, keyboard bool)
}

func (i *ImguiSystem) Execute(frame *ecs.UpdateFrame) {
	capture := i.Capture
	if capture == nil {
		capture = imguiCapture
	}
	state := i.InputState.Get()
	state.WantCaptureMouse, state.WantCaptureKeyboard = capture()

	for panel := range i.Items.Values() {
		frame.Commands.Defer(panel.Render)
	}
}

func imguiCapture() (mouse, keyboard bool) {
	io := imgui.CurrentIO()
	return io.WantCaptureMouse(), io.WantCaptureKeyboard()
}

// RegisterComponents adds the overlay's component types to registry.
func RegisterComponents(registry *ecs.ComponentRegistry) {
	ecs.RegisterComponent[ImguiItem](registry)
	ecs.RegisterComponent[ImguiInputState](registry)
}
