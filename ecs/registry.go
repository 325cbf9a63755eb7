package ecs

import (
	"iter"
	"reflect"
	"unsafe"
)

// ComponentRegistry maps component types to the column factories used to store them.
// Each Storage owns a registry so independent worlds never share column state.
type ComponentRegistry struct {
	factories map[reflect.Type]func() column
}

// NewComponentRegistry creates an empty registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		factories: make(map[reflect.Type]func() column),
	}
}

// RegisterComponent makes T storable in any archetype created from r.
// Registering the same type twice is harmless.
func RegisterComponent[T any](r *ComponentRegistry) {
	r.factories[reflect.TypeFor[T]()] = func() column {
		return &blockColumn[T]{}
	}
}

func (r *ComponentRegistry) factory(t reflect.Type) func() column {
	return r.factories[t]
}

// column is a type-erased component array addressed by slot index.
type column interface {
	insert(item any) int
	remove(index int)
	pointer(index int) unsafe.Pointer
	value(index int) any
	live() iter.Seq[int]
	len() int
}

const blockSize = 64

type block[T any] struct {
	items [blockSize]T
	used  [blockSize]bool
}

// blockColumn keeps components in fixed-size blocks so that pointers handed out
// to views stay valid while the column grows.
type blockColumn[T any] struct {
	blocks []*block[T]
	free   []int
	next   int
	count  int
}

func (c *blockColumn[T]) insert(item any) int {
	var v T
	switch typed := item.(type) {
	case T:
		v = typed
	case *T:
		v = *typed
	default:
		panic("component of type " + reflect.TypeOf(item).String() + " inserted into column of " + reflect.TypeFor[T]().String())
	}

	var index int
	if n := len(c.free); n > 0 {
		index = c.free[n-1]
		c.free = c.free[:n-1]
	} else {
		index = c.next
		c.next++
		if index/blockSize >= len(c.blocks) {
			c.blocks = append(c.blocks, &block[T]{})
		}
	}

	b := c.blocks[index/blockSize]
	b.items[index%blockSize] = v
	b.used[index%blockSize] = true
	c.count++
	return index
}

func (c *blockColumn[T]) slot(index int) (*block[T], int, bool) {
	if index < 0 || index >= c.next {
		return nil, 0, false
	}
	b := c.blocks[index/blockSize]
	off := index % blockSize
	return b, off, b.used[off]
}

func (c *blockColumn[T]) remove(index int) {
	b, off, ok := c.slot(index)
	if !ok {
		return
	}
	var zero T
	b.items[off] = zero
	b.used[off] = false
	c.free = append(c.free, index)
	c.count--
}

func (c *blockColumn[T]) pointer(index int) unsafe.Pointer {
	b, off, ok := c.slot(index)
	if !ok {
		return nil
	}
	return unsafe.Pointer(&b.items[off])
}

func (c *blockColumn[T]) value(index int) any {
	b, off, ok := c.slot(index)
	if !ok {
		return nil
	}
	return &b.items[off]
}

func (c *blockColumn[T]) live() iter.Seq[int] {
	return func(yield func(int) bool) {
		for i := 0; i < c.next; i++ {
			if !c.blocks[i/blockSize].used[i%blockSize] {
				continue
			}
			if !yield(i) {
				return
			}
		}
	}
}

func (c *blockColumn[T]) len() int {
	return c.count
}
