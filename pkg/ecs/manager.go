package ecs

import (
	"iter"

	"github.com/argus-labs/forge/pkg/assert"
	"github.com/kelindar/bitmap"
)

// EntityManager owns the entity slots of one scene and the component pools attached to them.
//
// Slot 0 is reserved so the zero EntityID is never live. Destroyed slots are reused FIFO and their
// generation is bumped at destruction, so a reused slot always hands out a strictly newer id.
type EntityManager struct {
	registry   *Registry
	capacity   int
	signatures []bitmap.Bitmap             // Slot -> component ids present
	versions   []uint32                    // Slot -> current generation
	alive      bitmap.Bitmap               // Slots holding a live entity
	free       []uint32                    // FIFO of destroyed slots
	pools      [MaxComponents]abstractPool // Component ID -> pool, created lazily
	count      int                         // Live entities
}

// NewEntityManager creates a manager that resolves component ids through reg and can hold up to
// capacity live entities. A nil registry gets a private one; capacity 0 means DefaultMaxEntities.
func NewEntityManager(reg *Registry, capacity int) *EntityManager {
	assert.That(capacity >= 0, "negative entity capacity %d", capacity)
	if reg == nil {
		reg = NewRegistry()
	}
	if capacity == 0 {
		capacity = DefaultMaxEntities
	}

	return &EntityManager{
		registry:   reg,
		capacity:   capacity,
		signatures: make([]bitmap.Bitmap, 1, 64), // Slot 0 is the invalid sentinel
		versions:   make([]uint32, 1, 64),
		free:       make([]uint32, 0),
	}
}

// Registry returns the component registry the manager resolves ids through.
func (em *EntityManager) Registry() *Registry { return em.registry }

// Capacity returns the maximum number of live entities.
func (em *EntityManager) Capacity() int { return em.capacity }

// EntityCount returns the number of live entities.
func (em *EntityManager) EntityCount() int { return em.count }

// CreateEntity allocates an entity with no components.
func (em *EntityManager) CreateEntity() Entity {
	assert.That(em.count < em.capacity, "entity capacity of %d exceeded", em.capacity)

	var index uint32
	if len(em.free) > 0 {
		// Pop from the front of the free list (FIFO). Its generation was bumped on destroy.
		index = em.free[0]
		em.free = em.free[1:]
	} else {
		index = uint32(len(em.versions)) //nolint:gosec // bounded by capacity
		em.versions = append(em.versions, 1)
		em.signatures = append(em.signatures, nil)
	}

	em.alive.Set(index)
	em.count++
	return Entity{id: NewEntityID(index, em.versions[index]), em: em}
}

// DestroyEntity removes every component of id and frees its slot. Destroying an id that is not
// live is a programmer error.
func (em *EntityManager) DestroyEntity(id EntityID) {
	assert.That(em.IsValid(id), "destroying invalid entity %s", id)
	if !em.IsValid(id) {
		return
	}

	index := id.Index()
	em.signatures[index].Range(func(cid uint32) {
		em.pools[cid].onEntityDestroyed(id)
	})
	em.signatures[index].Clear()

	em.versions[index]++
	if em.versions[index] == 0 { // Skip generation 0 on wrap-around
		em.versions[index] = 1
	}

	em.alive.Remove(index)
	em.count--
	em.free = append(em.free, index)
}

// IsValid reports whether id refers to a live entity of this manager.
func (em *EntityManager) IsValid(id EntityID) bool {
	index := id.Index()
	return id.IsValid() &&
		int(index) < len(em.versions) &&
		em.versions[index] == id.Generation() &&
		em.alive.Contains(index)
}

// Entity binds a live id to this manager. The second result is false if the id is not live.
func (em *EntityManager) Entity(id EntityID) (Entity, bool) {
	if !em.IsValid(id) {
		return Entity{}, false
	}
	return Entity{id: id, em: em}, true
}

// Signature returns a copy of the component ids present on id. It is empty for invalid ids.
func (em *EntityManager) Signature(id EntityID) bitmap.Bitmap {
	if !em.IsValid(id) {
		return nil
	}
	return em.signatures[id.Index()].Clone(nil)
}

// Entities iterates the live entities in slot order. The manager must not be structurally
// modified during iteration.
func (em *EntityManager) Entities() iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		for i := 1; i < len(em.versions); i++ {
			index := uint32(i) //nolint:gosec // bounded by capacity
			if !em.alive.Contains(index) {
				continue
			}
			if !yield(Entity{id: NewEntityID(index, em.versions[index]), em: em}) {
				return
			}
		}
	}
}

// Clear destroys every live entity. Pools and slots are kept for reuse.
func (em *EntityManager) Clear() {
	ids := make([]EntityID, 0, em.count)
	for e := range em.Entities() {
		ids = append(ids, e.id)
	}
	for _, id := range ids {
		em.DestroyEntity(id)
	}
}

// pool returns the pool of a component id, or nil if nothing of that type was ever added.
func (em *EntityManager) pool(cid ComponentID) abstractPool {
	if int(cid) >= MaxComponents {
		return nil
	}
	return em.pools[cid]
}

// poolOf returns the typed pool of T. With create set, T is registered and its pool allocated on
// first use; otherwise nil is returned for an unknown type.
func poolOf[T Component](em *EntityManager, create bool) *ComponentPool[T] {
	cid, ok := ComponentIDOf[T](em.registry)
	if !ok {
		if !create {
			return nil
		}
		var err error
		cid, err = RegisterComponent[T](em.registry)
		assert.That(err == nil, "failed to register component: %v", err)
		if err != nil {
			return nil
		}
	}

	p := em.pools[cid]
	if p == nil {
		if !create {
			return nil
		}
		p = em.registry.newPool(cid, em.capacity)
		em.pools[cid] = p
	}

	typed, ok := p.(*ComponentPool[T])
	var zero T
	assert.That(ok, "component name %q is shared by more than one type", zero.Name())
	return typed
}

// Add attaches a zero T to id and returns it. If id already has a T that one is returned.
func Add[T Component](em *EntityManager, id EntityID) *T {
	assert.That(em.IsValid(id), "adding component to invalid entity %s", id)
	if !em.IsValid(id) {
		return nil
	}

	p := poolOf[T](em, true)
	if p == nil {
		return nil
	}
	c := p.add(id)
	em.signatures[id.Index()].Set(p.id)
	return c
}

// Get returns id's T, or nil if it has none.
func Get[T Component](em *EntityManager, id EntityID) *T {
	assert.That(em.IsValid(id), "getting component of invalid entity %s", id)
	p := poolOf[T](em, false)
	if p == nil {
		return nil
	}
	return p.get(id)
}

// Remove detaches T from id and reports whether id had one.
func Remove[T Component](em *EntityManager, id EntityID) bool {
	assert.That(em.IsValid(id), "removing component of invalid entity %s", id)
	if !em.IsValid(id) {
		return false
	}

	p := poolOf[T](em, false)
	if p == nil || !p.remove(id) {
		return false
	}
	em.signatures[id.Index()].Remove(p.id)
	return true
}

// Has reports whether id has a T. Unlike Get it accepts stale ids and returns false for them.
func Has[T Component](em *EntityManager, id EntityID) bool {
	if !em.IsValid(id) {
		return false
	}
	cid, ok := ComponentIDOf[T](em.registry)
	return ok && em.signatures[id.Index()].Contains(cid)
}

// Pool returns the pool of T, or nil if no T was ever added to this manager.
func Pool[T Component](em *EntityManager) *ComponentPool[T] {
	return poolOf[T](em, false)
}
