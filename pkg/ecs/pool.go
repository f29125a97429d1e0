package ecs

import "github.com/argus-labs/forge/pkg/assert"

// abstractPool is the type-erased view of a ComponentPool the manager works with.
type abstractPool interface {
	componentID() ComponentID
	len() int
	has(id EntityID) bool
	entityList() []EntityID
	onEntityDestroyed(id EntityID)
	clear()
}

var _ abstractPool = &ComponentPool[Component]{}

// ComponentPool stores every T of one manager in a packed array.
//
// components and entities are parallel: row r holds the component of entities[r]. rows maps an
// entity's slot index back to its row. Removal moves the last row into the hole, so the first
// Len() rows are always live. The backing array is allocated at full capacity up front, so
// pointers handed out by Add and Get stay valid until that entity's component is removed or moved
// by a removal.
type ComponentPool[T Component] struct {
	id         ComponentID
	components []T        // Dense component data
	entities   []EntityID // Row -> entity
	rows       sparseSet  // Slot index -> row
}

func newComponentPool[T Component](id ComponentID, capacity int) *ComponentPool[T] {
	return &ComponentPool[T]{
		id:         id,
		components: make([]T, 0, capacity),
		entities:   make([]EntityID, 0, capacity),
		rows:       newSparseSet(),
	}
}

// Len returns the number of components in the pool.
func (p *ComponentPool[T]) Len() int {
	return len(p.components)
}

// Entities returns the entity of every row. The slice is owned by the pool and must not be
// modified or retained across structural changes.
func (p *ComponentPool[T]) Entities() []EntityID {
	return p.entities
}

// Components returns the dense component data, row aligned with Entities.
func (p *ComponentPool[T]) Components() []T {
	return p.components
}

// Each calls fn for every row until fn returns false.
func (p *ComponentPool[T]) Each(fn func(EntityID, *T) bool) {
	for row := range p.components {
		if !fn(p.entities[row], &p.components[row]) {
			return
		}
	}
}

// add appends a zero T for id and returns it. If id already has a T that one is returned.
func (p *ComponentPool[T]) add(id EntityID) *T {
	if row, ok := p.row(id); ok {
		return &p.components[row]
	}
	assert.That(len(p.components) < cap(p.components), "component pool %d is full (%d)", p.id, cap(p.components))

	var zero T
	row := len(p.components)
	p.components = append(p.components, zero)
	p.entities = append(p.entities, id)
	p.rows.set(id.Index(), row)
	return &p.components[row]
}

// get returns id's T or nil.
func (p *ComponentPool[T]) get(id EntityID) *T {
	row, ok := p.row(id)
	if !ok {
		return nil
	}
	return &p.components[row]
}

// remove swaps the last row into id's row and shrinks the pool by one.
func (p *ComponentPool[T]) remove(id EntityID) bool {
	row, ok := p.row(id)
	if !ok {
		return false
	}

	last := len(p.components) - 1
	if row != last {
		moved := p.entities[last]
		p.components[row] = p.components[last]
		p.entities[row] = moved
		p.rows.set(moved.Index(), row)
	}

	var zero T
	p.components[last] = zero // Drop references held by the removed component
	p.components = p.components[:last]
	p.entities = p.entities[:last]
	p.rows.remove(id.Index())
	return true
}

// row resolves id to its row. A stale id whose slot was reused by another entity does not match.
func (p *ComponentPool[T]) row(id EntityID) (int, bool) {
	row, ok := p.rows.get(id.Index())
	if !ok || p.entities[row] != id {
		return 0, false
	}
	return row, true
}

func (p *ComponentPool[T]) componentID() ComponentID { return p.id }

func (p *ComponentPool[T]) len() int { return len(p.components) }

func (p *ComponentPool[T]) has(id EntityID) bool {
	_, ok := p.row(id)
	return ok
}

func (p *ComponentPool[T]) entityList() []EntityID { return p.entities }

func (p *ComponentPool[T]) onEntityDestroyed(id EntityID) {
	p.remove(id)
}

func (p *ComponentPool[T]) clear() {
	clear(p.components)
	p.components = p.components[:0]
	p.entities = p.entities[:0]
	p.rows.reset()
}
