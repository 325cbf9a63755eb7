package ecs

import (
	"fmt"
	"reflect"
	"sort"
	"unsafe"

	"github.com/kamstrup/intmap"
)

// Storage is the world: archetype tables plus singleton components.
// It is not safe for concurrent use; systems run on one goroutine.
type Storage struct {
	registry   *ComponentRegistry
	index      *intmap.Map[uint32, *Archetype]
	archetypes []*Archetype
	singletons map[reflect.Type]*singletonEntry
	singleKeys []reflect.Type
}

type singletonEntry struct {
	value   reflect.Value // *T
	dataPtr unsafe.Pointer
}

// NewStorage creates a world backed by the given registry.
func NewStorage(registry *ComponentRegistry) *Storage {
	return &Storage{
		registry:   registry,
		index:      intmap.New[uint32, *Archetype](16),
		singletons: make(map[reflect.Type]*singletonEntry),
	}
}

func (s *Storage) archetypeFor(types []reflect.Type) *Archetype {
	id := hashTypesToUint32(types)
	if a, ok := s.index.Get(id); ok {
		return a
	}
	a := newArchetype(id, types, s.registry)
	s.index.Put(id, a)
	s.archetypes = append(s.archetypes, a)
	return a
}

// Spawn creates a new entity with the provided components. Components may be
// passed by value or by pointer; the storage keeps its own copy.
func (s *Storage) Spawn(components ...any) EntityId {
	if len(components) == 0 {
		panic("cannot spawn entity without components")
	}

	sorted, types := sortComponents(components)
	archetype := s.archetypeFor(types)
	return NewEntityId(archetype.id, archetype.spawn(sorted))
}

// Delete removes the entity. Unknown IDs are ignored.
func (s *Storage) Delete(id EntityId) {
	if a, ok := s.index.Get(id.ArchetypeId()); ok {
		a.remove(id.Index())
	}
}

// Alive reports whether id names a live entity.
func (s *Storage) Alive(id EntityId) bool {
	a, ok := s.index.Get(id.ArchetypeId())
	if !ok || len(a.columns) == 0 {
		return false
	}
	return a.columns[0].pointer(int(id.Index())) != nil
}

// GetComponent returns a pointer to the entity's component of type t, or nil.
func (s *Storage) GetComponent(id EntityId, t reflect.Type) any {
	a, ok := s.index.Get(id.ArchetypeId())
	if !ok {
		return nil
	}
	return a.GetComponent(id.Index(), t)
}

// HasComponent reports whether the entity's archetype has component type t.
func (s *Storage) HasComponent(id EntityId, t reflect.Type) bool {
	a, ok := s.index.Get(id.ArchetypeId())
	return ok && a.HasComponent(t)
}

// GetArchetypes returns archetypes in creation order.
func (s *Storage) GetArchetypes() []*Archetype {
	return s.archetypes
}

// GetArchetypeById returns the archetype with the given hash, or nil.
func (s *Storage) GetArchetypeById(id uint32) *Archetype {
	a, _ := s.index.Get(id)
	return a
}

// AddSingleton stores value as the world-wide instance of its type,
// replacing any previous instance.
func (s *Storage) AddSingleton(value any) {
	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	t := v.Type()

	// Overwrite in place so cached Singleton accessors stay valid.
	if entry, exists := s.singletons[t]; exists {
		entry.value.Elem().Set(v)
		return
	}

	ptr := reflect.New(t)
	ptr.Elem().Set(v)
	s.singleKeys = append(s.singleKeys, t)
	s.singletons[t] = &singletonEntry{
		value:   ptr,
		dataPtr: ptr.UnsafePointer(),
	}
}

func (s *Storage) getSingletonEntry(t reflect.Type) *singletonEntry {
	return s.singletons[t]
}

// ReadSingleton fills dst, which must be a **T, with the stored singleton of type T.
// It returns false when no singleton of that type exists.
func (s *Storage) ReadSingleton(dst any) bool {
	dv := reflect.ValueOf(dst)
	if dv.Kind() != reflect.Ptr || dv.Elem().Kind() != reflect.Ptr {
		panic(fmt.Sprintf("ReadSingleton expects **T, got %T", dst))
	}
	entry := s.singletons[dv.Elem().Type().Elem()]
	if entry == nil {
		return false
	}
	dv.Elem().Set(entry.value)
	return true
}

func sortComponents(components []any) ([]any, []reflect.Type) {
	type pair struct {
		comp any
		typ  reflect.Type
	}
	pairs := make([]pair, len(components))
	for i, comp := range components {
		pairs[i] = pair{comp: comp, typ: componentType(comp)}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].typ.String() < pairs[j].typ.String()
	})

	sorted := make([]any, len(pairs))
	types := make([]reflect.Type, len(pairs))
	for i, p := range pairs {
		sorted[i] = p.comp
		types[i] = p.typ
	}
	return sorted, types
}

func componentType(comp any) reflect.Type {
	t := reflect.TypeOf(comp)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func:
		panic("components cannot be pointers, maps, channels, or functions")
	}
	return t
}

// hashTypesToUint32 is FNV-1a over the runtime type pointers of a sorted type list.
func hashTypesToUint32(types []reflect.Type) uint32 {
	var h uint32 = 2166136261
	const prime uint32 = 16777619

	for _, t := range types {
		ptr := uintptr((*iface)(unsafe.Pointer(&t)).data)
		val := uint32(ptr)
		if unsafe.Sizeof(ptr) == 8 {
			val ^= uint32(uint64(ptr) >> 32)
		}
		h ^= val
		h *= prime
	}

	return h
}

// ComponentReader is implemented by anything that can look up a component by entity.
type ComponentReader interface {
	GetComponent(EntityId, reflect.Type) any
}

// ReadComponent returns the entity's T component, or nil if it has none.
func ReadComponent[T any](reader ComponentReader, entityId EntityId) *T {
	comp, _ := reader.GetComponent(entityId, reflect.TypeFor[T]()).(*T)
	return comp
}
