package debugui

import (
	"fmt"
	"time"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/AllenDang/cimgui-go/implot"

	"github.com/plus3/orrery/sim"
)

// PerformanceStats keeps a rolling history of frame times and per-system
// latencies and draws them in the Performance Stats window.
type PerformanceStats struct {
	session *sim.Session
	timer   *FrameTimer

	history int
	frames  []float32
	systems map[string][]float32
	order   []string
	index   int
}

func NewPerformanceStats(session *sim.Session, history int) *PerformanceStats {
	history = max(history, 1)
	return &PerformanceStats{
		session: session,
		timer:   NewFrameTimer(),
		history: history,
		frames:  make([]float32, history),
		systems: make(map[string][]float32),
	}
}

// Record stores one frame of delta seconds and the scheduler's latest
// per-system durations.
func (ps *PerformanceStats) Record(delta float32) {
	ps.frames[ps.index] = delta * 1000

	for _, sys := range ps.session.Stats().Systems {
		samples, ok := ps.systems[sys.Name]
		if !ok {
			samples = make([]float32, ps.history)
			ps.systems[sys.Name] = samples
			ps.order = append(ps.order, sys.Name)
		}
		samples[ps.index] = float32(sys.LastDuration.Seconds() * 1000)
	}

	ps.index = (ps.index + 1) % ps.history
}

// AverageFrame is the mean recorded frame time in milliseconds.
func (ps *PerformanceStats) AverageFrame() float32 {
	var total float32
	for _, ft := range ps.frames {
		total += ft
	}
	return total / float32(ps.history)
}

// Samples returns the history for one system oldest first, or nil.
func (ps *PerformanceStats) Samples(system string) []float32 {
	samples, ok := ps.systems[system]
	if !ok {
		return nil
	}
	return append(append([]float32(nil), samples[ps.index:]...), samples[:ps.index]...)
}

func (ps *PerformanceStats) Render() {
	ps.Record(ps.timer.GetDeltaTime())

	imgui.SetNextWindowPosV(imgui.NewVec2(10, 200), imgui.CondOnce, imgui.NewVec2(0, 0))
	imgui.SetNextWindowSizeV(imgui.NewVec2(360, 320), imgui.CondOnce)
	if !imgui.BeginV("Performance Stats", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	storage := ps.session.Storage().CollectStats()
	display := ps.session.Display()
	imgui.Text(fmt.Sprintf("Frame: %d", ps.session.Frame()))
	imgui.Text(fmt.Sprintf("Entities: %d in %d archetypes", storage.TotalEntityCount, storage.ArchetypeCount))
	imgui.Text(fmt.Sprintf("Captures: %d  Renders: %d", display.Captures, display.Renders))

	avg := ps.AverageFrame()
	if avg > 0 {
		imgui.Text(fmt.Sprintf("Avg Frame Time: %.2f ms (%.0f FPS)", avg, 1000/avg))
	}
	imgui.PlotLinesFloatPtr("##frametime", &ps.frames[0], int32(len(ps.frames)))

	if imgui.TreeNodeStr("Systems") {
		const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
		if imgui.BeginTableV("SystemStatsTable", 4, tableFlags, imgui.NewVec2(0, 0), 0) {
			imgui.TableSetupColumn("System")
			imgui.TableSetupColumn("Last")
			imgui.TableSetupColumn("Avg")
			imgui.TableSetupColumn("Max")
			imgui.TableHeadersRow()

			for _, sys := range ps.session.Stats().Systems {
				imgui.TableNextRow()
				imgui.TableNextColumn()
				imgui.Text(sys.Name)
				imgui.TableNextColumn()
				imgui.Text(micros(sys.LastDuration))
				imgui.TableNextColumn()
				imgui.Text(micros(sys.AvgDuration))
				imgui.TableNextColumn()
				imgui.Text(micros(sys.MaxDuration))
			}
			imgui.EndTable()
		}

		if implot.BeginPlotV("System Latency", imgui.NewVec2(-1, 200), 0) {
			implot.SetupAxesV("Frame", "Time (ms)", 0, implot.AxisFlagsAutoFit)
			for _, name := range ps.order {
				samples := ps.Samples(name)
				implot.PlotLineFloatPtrInt(name, &samples[0], int32(len(samples)))
			}
			implot.EndPlot()
		}
		imgui.TreePop()
	}

	imgui.End()
}

func micros(d time.Duration) string {
	return fmt.Sprintf("%.1f µs", float64(d)/float64(time.Microsecond))
}

type FrameTimer struct {
	lastFrameTime time.Time
}

func NewFrameTimer() *FrameTimer {
	return &FrameTimer{
		lastFrameTime: time.Now(),
	}
}

func (ft *FrameTimer) GetDeltaTime() float32 {
	now := time.Now()
	delta := float32(now.Sub(ft.lastFrameTime).Seconds())
	ft.lastFrameTime = now
	return delta
}
