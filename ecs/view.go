package ecs

import (
	"iter"
	"reflect"
	"unsafe"
)

var entityIdType = reflect.TypeFor[EntityId]()

type viewField struct {
	component reflect.Type // nil for an EntityId field
	offset    uintptr
	optional  bool
}

// View selects entities by the component pointers declared in struct T.
//
// Every field of T is either a pointer to a registered component type or a field
// of type EntityId, which receives the entity's ID. Embedded pointer fields are
// always required; named pointer fields may be tagged `ecs:"optional"` and are
// left nil when the entity lacks that component.
type View[T any] struct {
	storage *Storage
	fields  []viewField
}

// NewView builds a View for struct type T. It panics if T is malformed.
func NewView[T any](storage *Storage) *View[T] {
	structType := reflect.TypeFor[T]()
	if structType.Kind() != reflect.Struct {
		panic("View type parameter must be a struct")
	}

	fields := make([]viewField, 0, structType.NumField())
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)

		if field.Type == entityIdType {
			fields = append(fields, viewField{offset: field.Offset})
			continue
		}
		if field.Type.Kind() != reflect.Ptr {
			panic("View struct fields must be pointer types or ecs.EntityId, got " + field.Type.String())
		}

		optional := false
		if tag := field.Tag.Get("ecs"); tag != "" {
			if tag != "optional" || field.Anonymous {
				panic("invalid ecs tag on field " + field.Name + ": \"" + tag + "\"")
			}
			optional = true
		}

		fields = append(fields, viewField{
			component: field.Type.Elem(),
			offset:    field.Offset,
			optional:  optional,
		})
	}

	return &View[T]{storage: storage, fields: fields}
}

func (v *View[T]) matches(a *Archetype) bool {
	for _, f := range v.fields {
		if f.component == nil || f.optional {
			continue
		}
		if !a.HasComponent(f.component) {
			return false
		}
	}
	return true
}

func (v *View[T]) populate(dst unsafe.Pointer, a *Archetype, index uint32) bool {
	for _, f := range v.fields {
		fieldPtr := unsafe.Add(dst, f.offset)
		if f.component == nil {
			*(*EntityId)(fieldPtr) = NewEntityId(a.id, index)
			continue
		}
		ptr := a.pointer(index, f.component)
		if ptr == nil && !f.optional {
			return false
		}
		*(*unsafe.Pointer)(fieldPtr) = ptr
	}
	return true
}

// Fill populates dst for the given entity. It returns false if the entity is
// missing a required component or does not exist.
func (v *View[T]) Fill(id EntityId, dst *T) bool {
	a, ok := v.storage.index.Get(id.ArchetypeId())
	if !ok || !v.matches(a) {
		return false
	}
	return v.populate(unsafe.Pointer(dst), a, id.Index())
}

// Get returns a populated view for id, or nil.
func (v *View[T]) Get(id EntityId) *T {
	var result T
	if !v.Fill(id, &result) {
		return nil
	}
	return &result
}

func (v *View[T]) iterArchetype(a *Archetype) iter.Seq2[EntityId, T] {
	return func(yield func(EntityId, T) bool) {
		var result T
		for id := range a.Iter() {
			if !v.populate(unsafe.Pointer(&result), a, id.Index()) {
				continue
			}
			if !yield(id, result) {
				return
			}
		}
	}
}

// Iter yields every matching entity, archetypes in creation order.
func (v *View[T]) Iter() iter.Seq2[EntityId, T] {
	return func(yield func(EntityId, T) bool) {
		for _, a := range v.storage.archetypes {
			if !v.matches(a) {
				continue
			}
			for id, item := range v.iterArchetype(a) {
				if !yield(id, item) {
					return
				}
			}
		}
	}
}

// Values yields only the populated view structs.
func (v *View[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, item := range v.Iter() {
			if !yield(item) {
				return
			}
		}
	}
}

// First returns the first matching entity, if any.
func (v *View[T]) First() (T, bool) {
	for _, item := range v.Iter() {
		return item, true
	}
	var zero T
	return zero, false
}
