package ecs

import (
	"context"
	"iter"

	"github.com/argus-labs/forge/pkg/job"
	"github.com/kelindar/bitmap"
)

// Viewer builds views over one EntityManager. Parallel iteration runs on jobs when a scheduler is
// attached and inline otherwise.
type Viewer struct {
	em   *EntityManager
	jobs job.Scheduler
}

// NewViewer binds a viewer to em. jobs may be nil.
func NewViewer(em *EntityManager, jobs job.Scheduler) Viewer {
	return Viewer{em: em, jobs: jobs}
}

// Manager returns the manager the viewer reads from.
func (v Viewer) Manager() *EntityManager { return v.em }

// Entities iterates every entity that has all of the given component ids. With no ids it yields
// nothing.
func (v Viewer) Entities(ids ...ComponentID) iter.Seq[Entity] {
	q := v.query(ids...)
	return func(yield func(Entity) bool) {
		q.each(func(id EntityID) bool {
			return yield(Entity{id: id, em: v.em})
		})
	}
}

// query resolves ids to a requirement mask and the smallest pool among them. A missing pool
// yields an empty query.
func (v Viewer) query(ids ...ComponentID) query {
	q := query{em: v.em}
	if len(ids) == 0 {
		return q
	}
	for _, cid := range ids {
		p := v.em.pool(cid)
		if p == nil {
			return query{em: v.em}
		}
		q.mask.Set(cid)
		if q.driver == nil || p.len() < q.driver.len() {
			q.driver = p
		}
	}
	return q
}

// query is a resolved component requirement.
type query struct {
	em     *EntityManager
	mask   bitmap.Bitmap
	driver abstractPool // Smallest required pool, nil when the query is empty
}

// each calls fn for every entity of the driving pool whose signature covers the mask.
func (q query) each(fn func(EntityID) bool) {
	if q.driver == nil {
		return
	}
	for _, id := range q.driver.entityList() {
		if !hasAll(q.em.signatures[id.Index()], q.mask) {
			continue
		}
		if !fn(id) {
			return
		}
	}
}

func (q query) count() int {
	n := 0
	q.each(func(EntityID) bool {
		n++
		return true
	})
	return n
}

// collect snapshots the matching ids for parallel iteration.
func (q query) collect() []EntityID {
	if q.driver == nil {
		return nil
	}
	ids := make([]EntityID, 0, q.driver.len())
	q.each(func(id EntityID) bool {
		ids = append(ids, id)
		return true
	})
	return ids
}

// parallel runs fn over the matching ids on the viewer's scheduler and waits for all of them.
func (q query) parallel(ctx context.Context, jobs job.Scheduler, name string, fn func(EntityID)) error {
	ids := q.collect()
	return job.ParallelFor(ctx, jobs, name, len(ids), 0, func(_ context.Context, start, end int) {
		for _, id := range ids[start:end] {
			fn(id)
		}
	})
}

// hasAll reports whether sig contains every bit of mask.
func hasAll(sig, mask bitmap.Bitmap) bool {
	for i, word := range mask {
		if word == 0 {
			continue
		}
		if i >= len(sig) || sig[i]&word != word {
			return false
		}
	}
	return true
}

// componentIDs looks up the ids of already registered types. ok is false if any is unknown.
func componentIDs(reg *Registry, names ...string) ([]ComponentID, bool) {
	ids := make([]ComponentID, len(names))
	for i, name := range names {
		cid, ok := reg.ID(name)
		if !ok {
			return nil, false
		}
		ids[i] = cid
	}
	return ids, true
}
