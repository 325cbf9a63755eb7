package ecs

import "iter"

// Query is a View that remembers which archetypes match, so systems that run
// every frame skip the per-archetype type checks until a new archetype appears.
// Declare Query fields on a System; the Scheduler initialises them on Register.
type Query[T any] struct {
	view       *View[T]
	storage    *Storage
	matched    []*Archetype
	seenLength int
}

// NewQuery creates a Query outside of a Scheduler.
func NewQuery[T any](storage *Storage) *Query[T] {
	q := &Query[T]{}
	q.Init(storage)
	return q
}

// Init binds the Query to storage. Called by the Scheduler during registration.
func (q *Query[T]) Init(storage *Storage) {
	q.view = NewView[T](storage)
	q.storage = storage
	q.matched = nil
	q.seenLength = 0
}

func (q *Query[T]) refresh() {
	if q.view == nil {
		panic("Query used before Init")
	}
	all := q.storage.archetypes
	for _, a := range all[q.seenLength:] {
		if q.view.matches(a) {
			q.matched = append(q.matched, a)
		}
	}
	q.seenLength = len(all)
}

// Iter yields every matching entity and its populated view.
func (q *Query[T]) Iter() iter.Seq2[EntityId, T] {
	q.refresh()
	return func(yield func(EntityId, T) bool) {
		for _, a := range q.matched {
			for id, item := range q.view.iterArchetype(a) {
				if !yield(id, item) {
					return
				}
			}
		}
	}
}

// Values yields only the populated view structs.
func (q *Query[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, item := range q.Iter() {
			if !yield(item) {
				return
			}
		}
	}
}

// First returns the first matching entity, if any.
func (q *Query[T]) First() (T, bool) {
	for item := range q.Values() {
		return item, true
	}
	var zero T
	return zero, false
}

// Count returns the number of matching entities.
func (q *Query[T]) Count() int {
	n := 0
	for range q.Iter() {
		n++
	}
	return n
}
