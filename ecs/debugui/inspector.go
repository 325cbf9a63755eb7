package debugui

import (
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/plus3/orrery/ecs"
	"github.com/plus3/orrery/sim"
)

// inspected are the component types the inspector can edit, in display order.
var inspected = []reflect.Type{
	reflect.TypeFor[sim.Body](),
	reflect.TypeFor[sim.Transform](),
	reflect.TypeFor[sim.Orbit](),
	reflect.TypeFor[sim.Spin](),
	reflect.TypeFor[sim.Star](),
	reflect.TypeFor[sim.Ship](),
}

var colorType = reflect.TypeFor[colorful.Color]()

// Inspector lists the bodies of the scene and edits the components of the
// selected one in place.
type Inspector struct {
	session  *sim.Session
	selected ecs.EntityId
	picked   bool
}

func NewInspector(session *sim.Session) *Inspector {
	return &Inspector{session: session}
}

type bodyRow struct {
	id       ecs.EntityId
	name     string
	kind     sim.BodyKind
	distance float64
}

// bodyRows orders bodies by distance from the star at the origin.
func bodyRows(bodies []sim.Drawable) []bodyRow {
	rows := make([]bodyRow, 0, len(bodies))
	for _, b := range bodies {
		rows = append(rows, bodyRow{id: b.Id, name: b.Name, kind: b.Kind, distance: b.Position.Len()})
	}
	slices.SortStableFunc(rows, func(a, b bodyRow) int {
		switch {
		case a.distance < b.distance:
			return -1
		case a.distance > b.distance:
			return 1
		}
		return 0
	})
	return rows
}

func (in *Inspector) Render() {
	imgui.SetNextWindowPosV(imgui.NewVec2(380, 10), imgui.CondOnce, imgui.NewVec2(0, 0))
	imgui.SetNextWindowSizeV(imgui.NewVec2(340, 420), imgui.CondOnce)
	if !imgui.BeginV("Bodies", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsScrollY
	if imgui.BeginTableV("BodyTable", 3, tableFlags, imgui.NewVec2(0, 180), 0) {
		imgui.TableSetupColumn("Name")
		imgui.TableSetupColumn("Kind")
		imgui.TableSetupColumn("Distance")
		imgui.TableHeadersRow()

		for _, row := range bodyRows(in.session.Bodies()) {
			imgui.TableNextRow()
			imgui.TableNextColumn()
			if imgui.SelectableBoolV(row.name, in.picked && in.selected == row.id, imgui.SelectableFlagsSpanAllColumns, imgui.NewVec2(0, 0)) {
				in.selected, in.picked = row.id, true
			}
			imgui.TableNextColumn()
			imgui.Text(kindName(row.kind))
			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%.1f", row.distance))
		}
		imgui.EndTable()
	}

	imgui.Separator()
	storage := in.session.Storage()
	if !in.picked || !storage.Alive(in.selected) {
		imgui.Text("Select a body to inspect it")
		imgui.End()
		return
	}
	for _, t := range inspected {
		component := storage.GetComponent(in.selected, t)
		if component == nil {
			continue
		}
		if imgui.TreeNodeStr(t.Name()) {
			editStruct(reflect.ValueOf(component).Elem(), t.Name())
			imgui.TreePop()
		}
	}

	imgui.End()
}

func kindName(k sim.BodyKind) string {
	switch k {
	case sim.KindStar:
		return "star"
	case sim.KindShip:
		return "ship"
	}
	return "planet"
}

func editStruct(v reflect.Value, path string) {
	for _, f := range fieldsOf(v.Type()) {
		editField(f.Name, v.Field(f.Index), path+"."+f.Name)
	}
}

// editField draws an editor for one addressable field. id keeps imgui labels
// unique across components that share field names.
func editField(name string, v reflect.Value, id string) {
	label := fmt.Sprintf("%s##%s", name, id)

	switch {
	case v.Type() == colorType:
		c := v.Interface().(colorful.Color)
		rgb := [3]float32{float32(c.R), float32(c.G), float32(c.B)}
		if imgui.ColorEdit3(label, &rgb) {
			v.Set(reflect.ValueOf(colorful.Color{R: float64(rgb[0]), G: float64(rgb[1]), B: float64(rgb[2])}))
		}

	case v.Kind() == reflect.Array && v.Len() == 3 && v.Type().Elem().Kind() == reflect.Float64:
		xyz := [3]float32{float32(v.Index(0).Float()), float32(v.Index(1).Float()), float32(v.Index(2).Float())}
		if imgui.InputFloat3(label, &xyz) {
			for i, f := range xyz {
				v.Index(i).SetFloat(float64(f))
			}
		}

	case v.Kind() == reflect.Float64:
		f := float32(v.Float())
		if imgui.InputFloat(label, &f) {
			v.SetFloat(float64(f))
		}

	case v.Kind() == reflect.Bool:
		b := v.Bool()
		if imgui.Checkbox(label, &b) {
			v.SetBool(b)
		}

	case v.Kind() == reflect.Struct:
		if imgui.TreeNodeStr(label) {
			editStruct(v, id)
			imgui.TreePop()
		}

	case v.Kind() == reflect.Slice:
		imgui.Text(fmt.Sprintf("%s: [%d items]", name, v.Len()))

	default:
		imgui.Text(fmt.Sprintf("%s: %v", name, v.Interface()))
	}
}

type fieldInfo struct {
	Name  string
	Index int
}

var fieldCache sync.Map

// fieldsOf lists the exported fields of a struct type.
func fieldsOf(t reflect.Type) []fieldInfo {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.([]fieldInfo)
	}
	var fields []fieldInfo
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			if f := t.Field(i); f.IsExported() {
				fields = append(fields, fieldInfo{Name: f.Name, Index: i})
			}
		}
	}
	fieldCache.Store(t, fields)
	return fields
}
