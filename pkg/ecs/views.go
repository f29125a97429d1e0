package ecs

import (
	"context"
	"iter"
)

func nameOf[T Component]() string {
	var zero T
	return zero.Name()
}

// View1 iterates the entities that have a T1. It resolves its pools on every
// iteration, so it can be created before any matching component exists and reused across frames.
type View1[T1 Component] struct {
	viewer Viewer
}

// NewView1 creates a view over every entity that has a T1.
func NewView1[T1 Component](v Viewer) View1[T1] {
	return View1[T1]{viewer: v}
}

// resolved1 is a view bound to the pools that exist right now.
type resolved1[T1 Component] struct {
	q  query
	p1 *ComponentPool[T1]
}

func (v View1[T1]) resolve() resolved1[T1] {
	ids, ok := componentIDs(v.viewer.em.registry, nameOf[T1]())
	if !ok {
		return resolved1[T1]{}
	}
	return resolved1[T1]{
		q:  v.viewer.query(ids...),
		p1: poolOf[T1](v.viewer.em, false),
	}
}

// Each calls fn for every matching entity.
func (v View1[T1]) Each(fn func(Entity, *T1)) {
	r := v.resolve()
	r.q.each(func(id EntityID) bool {
		fn(Entity{id: id, em: v.viewer.em}, r.p1.get(id))
		return true
	})
}

// All returns a restartable sequence of the matching entities and their components.
func (v View1[T1]) All() iter.Seq2[Entity, *T1] {
	return func(yield func(Entity, *T1) bool) {
		r := v.resolve()
		r.q.each(func(id EntityID) bool {
			return yield(Entity{id: id, em: v.viewer.em}, r.p1.get(id))
		})
	}
}

// Count returns the number of matching entities.
func (v View1[T1]) Count() int {
	r := v.resolve()
	return r.q.count()
}

// EachParallel calls fn for every matching entity from the viewer's job workers and returns once
// all of them are done. fn may only mutate the components it is handed.
func (v View1[T1]) EachParallel(ctx context.Context, fn func(Entity, *T1)) error {
	r := v.resolve()
	return r.q.parallel(ctx, v.viewer.jobs, "view1", func(id EntityID) {
		fn(Entity{id: id, em: v.viewer.em}, r.p1.get(id))
	})
}

// Row2 holds the components of one entity matched by a View2.
type Row2[T1, T2 Component] struct {
	C1 *T1
	C2 *T2
}

// View2 iterates the entities that have all of its component types. It resolves its pools on every
// iteration, so it can be created before any matching component exists and reused across frames.
type View2[T1, T2 Component] struct {
	viewer Viewer
}

// NewView2 creates a view over every entity that has all of T1 and T2.
func NewView2[T1, T2 Component](v Viewer) View2[T1, T2] {
	return View2[T1, T2]{viewer: v}
}

// resolved2 is a view bound to the pools that exist right now.
type resolved2[T1, T2 Component] struct {
	q  query
	p1 *ComponentPool[T1]
	p2 *ComponentPool[T2]
}

func (v View2[T1, T2]) resolve() resolved2[T1, T2] {
	ids, ok := componentIDs(v.viewer.em.registry, nameOf[T1](), nameOf[T2]())
	if !ok {
		return resolved2[T1, T2]{}
	}
	return resolved2[T1, T2]{
		q:  v.viewer.query(ids...),
		p1: poolOf[T1](v.viewer.em, false),
		p2: poolOf[T2](v.viewer.em, false),
	}
}

// Each calls fn for every matching entity.
func (v View2[T1, T2]) Each(fn func(Entity, *T1, *T2)) {
	r := v.resolve()
	r.q.each(func(id EntityID) bool {
		fn(Entity{id: id, em: v.viewer.em}, r.p1.get(id), r.p2.get(id))
		return true
	})
}

// All returns a restartable sequence of the matching entities and their components.
func (v View2[T1, T2]) All() iter.Seq2[Entity, Row2[T1, T2]] {
	return func(yield func(Entity, Row2[T1, T2]) bool) {
		r := v.resolve()
		r.q.each(func(id EntityID) bool {
			return yield(Entity{id: id, em: v.viewer.em}, Row2[T1, T2]{r.p1.get(id), r.p2.get(id)})
		})
	}
}

// Count returns the number of matching entities.
func (v View2[T1, T2]) Count() int {
	r := v.resolve()
	return r.q.count()
}

// EachParallel calls fn for every matching entity from the viewer's job workers and returns once
// all of them are done. fn may only mutate the components it is handed.
func (v View2[T1, T2]) EachParallel(ctx context.Context, fn func(Entity, *T1, *T2)) error {
	r := v.resolve()
	return r.q.parallel(ctx, v.viewer.jobs, "view2", func(id EntityID) {
		fn(Entity{id: id, em: v.viewer.em}, r.p1.get(id), r.p2.get(id))
	})
}

// Row3 holds the components of one entity matched by a View3.
type Row3[T1, T2, T3 Component] struct {
	C1 *T1
	C2 *T2
	C3 *T3
}

// View3 iterates the entities that have all of its component types. It resolves its pools on every
// iteration, so it can be created before any matching component exists and reused across frames.
type View3[T1, T2, T3 Component] struct {
	viewer Viewer
}

// NewView3 creates a view over every entity that has all of T1, T2 and T3.
func NewView3[T1, T2, T3 Component](v Viewer) View3[T1, T2, T3] {
	return View3[T1, T2, T3]{viewer: v}
}

// resolved3 is a view bound to the pools that exist right now.
type resolved3[T1, T2, T3 Component] struct {
	q  query
	p1 *ComponentPool[T1]
	p2 *ComponentPool[T2]
	p3 *ComponentPool[T3]
}

func (v View3[T1, T2, T3]) resolve() resolved3[T1, T2, T3] {
	ids, ok := componentIDs(v.viewer.em.registry, nameOf[T1](), nameOf[T2](), nameOf[T3]())
	if !ok {
		return resolved3[T1, T2, T3]{}
	}
	return resolved3[T1, T2, T3]{
		q:  v.viewer.query(ids...),
		p1: poolOf[T1](v.viewer.em, false),
		p2: poolOf[T2](v.viewer.em, false),
		p3: poolOf[T3](v.viewer.em, false),
	}
}

// Each calls fn for every matching entity.
func (v View3[T1, T2, T3]) Each(fn func(Entity, *T1, *T2, *T3)) {
	r := v.resolve()
	r.q.each(func(id EntityID) bool {
		fn(Entity{id: id, em: v.viewer.em}, r.p1.get(id), r.p2.get(id), r.p3.get(id))
		return true
	})
}

// All returns a restartable sequence of the matching entities and their components.
func (v View3[T1, T2, T3]) All() iter.Seq2[Entity, Row3[T1, T2, T3]] {
	return func(yield func(Entity, Row3[T1, T2, T3]) bool) {
		r := v.resolve()
		r.q.each(func(id EntityID) bool {
			return yield(Entity{id: id, em: v.viewer.em}, Row3[T1, T2, T3]{r.p1.get(id), r.p2.get(id), r.p3.get(id)})
		})
	}
}

// Count returns the number of matching entities.
func (v View3[T1, T2, T3]) Count() int {
	r := v.resolve()
	return r.q.count()
}

// EachParallel calls fn for every matching entity from the viewer's job workers and returns once
// all of them are done. fn may only mutate the components it is handed.
func (v View3[T1, T2, T3]) EachParallel(ctx context.Context, fn func(Entity, *T1, *T2, *T3)) error {
	r := v.resolve()
	return r.q.parallel(ctx, v.viewer.jobs, "view3", func(id EntityID) {
		fn(Entity{id: id, em: v.viewer.em}, r.p1.get(id), r.p2.get(id), r.p3.get(id))
	})
}

// Row4 holds the components of one entity matched by a View4.
type Row4[T1, T2, T3, T4 Component] struct {
	C1 *T1
	C2 *T2
	C3 *T3
	C4 *T4
}

// View4 iterates the entities that have all of its component types. It resolves its pools on every
// iteration, so it can be created before any matching component exists and reused across frames.
type View4[T1, T2, T3, T4 Component] struct {
	viewer Viewer
}

// NewView4 creates a view over every entity that has all of T1, T2, T3 and T4.
func NewView4[T1, T2, T3, T4 Component](v Viewer) View4[T1, T2, T3, T4] {
	return View4[T1, T2, T3, T4]{viewer: v}
}

// resolved4 is a view bound to the pools that exist right now.
type resolved4[T1, T2, T3, T4 Component] struct {
	q  query
	p1 *ComponentPool[T1]
	p2 *ComponentPool[T2]
	p3 *ComponentPool[T3]
	p4 *ComponentPool[T4]
}

func (v View4[T1, T2, T3, T4]) resolve() resolved4[T1, T2, T3, T4] {
	ids, ok := componentIDs(v.viewer.em.registry, nameOf[T1](), nameOf[T2](), nameOf[T3](), nameOf[T4]())
	if !ok {
		return resolved4[T1, T2, T3, T4]{}
	}
	return resolved4[T1, T2, T3, T4]{
		q:  v.viewer.query(ids...),
		p1: poolOf[T1](v.viewer.em, false),
		p2: poolOf[T2](v.viewer.em, false),
		p3: poolOf[T3](v.viewer.em, false),
		p4: poolOf[T4](v.viewer.em, false),
	}
}

// Each calls fn for every matching entity.
func (v View4[T1, T2, T3, T4]) Each(fn func(Entity, *T1, *T2, *T3, *T4)) {
	r := v.resolve()
	r.q.each(func(id EntityID) bool {
		fn(Entity{id: id, em: v.viewer.em}, r.p1.get(id), r.p2.get(id), r.p3.get(id), r.p4.get(id))
		return true
	})
}

// All returns a restartable sequence of the matching entities and their components.
func (v View4[T1, T2, T3, T4]) All() iter.Seq2[Entity, Row4[T1, T2, T3, T4]] {
	return func(yield func(Entity, Row4[T1, T2, T3, T4]) bool) {
		r := v.resolve()
		r.q.each(func(id EntityID) bool {
			return yield(Entity{id: id, em: v.viewer.em}, Row4[T1, T2, T3, T4]{r.p1.get(id), r.p2.get(id), r.p3.get(id), r.p4.get(id)})
		})
	}
}

// Count returns the number of matching entities.
func (v View4[T1, T2, T3, T4]) Count() int {
	r := v.resolve()
	return r.q.count()
}

// EachParallel calls fn for every matching entity from the viewer's job workers and returns once
// all of them are done. fn may only mutate the components it is handed.
func (v View4[T1, T2, T3, T4]) EachParallel(ctx context.Context, fn func(Entity, *T1, *T2, *T3, *T4)) error {
	r := v.resolve()
	return r.q.parallel(ctx, v.viewer.jobs, "view4", func(id EntityID) {
		fn(Entity{id: id, em: v.viewer.em}, r.p1.get(id), r.p2.get(id), r.p3.get(id), r.p4.get(id))
	})
}
