package ecs

import (
	"reflect"
	"unsafe"
)

// Singleton gives cached access to a component that belongs to the world rather
// than to an entity: view selection, input state, camera rig and the like.
type Singleton[T any] struct {
	storage *Storage
	ptr     unsafe.Pointer
}

// NewSingleton returns an accessor for T, creating the singleton from the optional
// initializer (or the zero value) if the storage does not hold one yet.
func NewSingleton[T any](storage *Storage, initializer ...T) *Singleton[T] {
	t := reflect.TypeFor[T]()
	if storage.getSingletonEntry(t) == nil {
		var value T
		if len(initializer) > 0 {
			value = initializer[0]
		}
		storage.AddSingleton(value)
	}

	s := &Singleton[T]{}
	s.Init(storage)
	return s
}

// Init binds the accessor to storage. Called by the Scheduler during registration.
func (s *Singleton[T]) Init(storage *Storage) {
	s.storage = storage
	s.ptr = nil
	s.lookup()
}

func (s *Singleton[T]) lookup() {
	if s.storage == nil {
		return
	}
	if entry := s.storage.getSingletonEntry(reflect.TypeFor[T]()); entry != nil {
		s.ptr = entry.dataPtr
	}
}

// Get returns the singleton, or nil if none has been added.
func (s *Singleton[T]) Get() *T {
	if s.ptr == nil {
		s.lookup()
	}
	return (*T)(s.ptr)
}

// Exists reports whether the singleton has been added to storage.
func (s *Singleton[T]) Exists() bool {
	return s.Get() != nil
}
