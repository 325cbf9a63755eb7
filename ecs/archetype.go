package ecs

import (
	"iter"
	"reflect"
	"slices"
	"unsafe"
)

type byTypeName []reflect.Type

func (a byTypeName) Len() int           { return len(a) }
func (a byTypeName) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a byTypeName) Less(i, j int) bool { return a[i].String() < a[j].String() }

// Archetype stores every entity that has exactly the same set of component types.
// Columns are kept in lockstep: slot i of every column belongs to the same entity.
type Archetype struct {
	id      uint32
	types   []reflect.Type
	columns []column
}

func newArchetype(id uint32, types []reflect.Type, registry *ComponentRegistry) *Archetype {
	a := &Archetype{
		id:      id,
		types:   types,
		columns: make([]column, len(types)),
	}
	for i, typ := range types {
		factory := registry.factory(typ)
		if factory == nil {
			panic("component type " + typ.String() + " not registered")
		}
		a.columns[i] = factory()
	}
	return a
}

// spawn appends one component per column. components must already be sorted
// in the archetype's type order.
func (a *Archetype) spawn(components []any) uint32 {
	index := -1
	for i, comp := range components {
		slot := a.columns[i].insert(comp)
		if index == -1 {
			index = slot
		} else if slot != index {
			panic("archetype columns out of step")
		}
	}
	return uint32(index)
}

func (a *Archetype) columnIndex(t reflect.Type) int {
	for i, typ := range a.types {
		if typ == t {
			return i
		}
	}
	return -1
}

func (a *Archetype) pointer(index uint32, t reflect.Type) unsafe.Pointer {
	idx := a.columnIndex(t)
	if idx == -1 {
		return nil
	}
	return a.columns[idx].pointer(int(index))
}

// GetComponent returns a pointer to the component of type t for the slot, or nil.
func (a *Archetype) GetComponent(index uint32, t reflect.Type) any {
	idx := a.columnIndex(t)
	if idx == -1 {
		return nil
	}
	return a.columns[idx].value(int(index))
}

func (a *Archetype) remove(index uint32) {
	for _, col := range a.columns {
		col.remove(int(index))
	}
}

// HasComponent reports whether the archetype carries component type t.
func (a *Archetype) HasComponent(t reflect.Type) bool {
	return slices.Contains(a.types, t)
}

// ID returns the archetype's hash identifier.
func (a *Archetype) ID() uint32 {
	return a.id
}

// Types returns the sorted component types of the archetype.
func (a *Archetype) Types() []reflect.Type {
	return a.types
}

// Len returns the number of live entities.
func (a *Archetype) Len() int {
	if len(a.columns) == 0 {
		return 0
	}
	return a.columns[0].len()
}

// Iter yields every live entity in slot order.
func (a *Archetype) Iter() iter.Seq[EntityId] {
	return func(yield func(EntityId) bool) {
		if len(a.columns) == 0 {
			return
		}
		for index := range a.columns[0].live() {
			if !yield(NewEntityId(a.id, uint32(index))) {
				return
			}
		}
	}
}
