package ecs

import "fmt"

// EntityID packs a 32-bit slot index in the high half and a 32-bit generation in the low half.
// Index 0 is never allocated, so the zero value is the invalid id.
type EntityID uint64

// InvalidEntityID is the zero id. It never refers to an entity.
const InvalidEntityID EntityID = 0

// NewEntityID packs a slot index and a generation.
func NewEntityID(index, generation uint32) EntityID {
	return EntityID(uint64(index)<<32 | uint64(generation))
}

// Index returns the slot index.
func (id EntityID) Index() uint32 {
	return uint32(id >> 32) //nolint:gosec // intentional truncation
}

// Generation returns the generation the slot had when the id was handed out.
func (id EntityID) Generation() uint32 {
	return uint32(id) //nolint:gosec // intentional truncation
}

// IsValid reports whether the id has a non-zero slot index. It says nothing about liveness, use
// EntityManager.IsValid for that.
func (id EntityID) IsValid() bool {
	return id.Index() != 0
}

func (id EntityID) String() string {
	return fmt.Sprintf("%d:%d", id.Index(), id.Generation())
}

// Entity is an id bound to the manager that created it.
type Entity struct {
	id EntityID
	em *EntityManager
}

// ID returns the entity's id.
func (e Entity) ID() EntityID { return e.id }

// Manager returns the manager that owns the entity.
func (e Entity) Manager() *EntityManager { return e.em }

// IsValid reports whether the entity is bound to a manager and is still alive in it.
func (e Entity) IsValid() bool {
	return e.em != nil && e.em.IsValid(e.id)
}

func (e Entity) String() string {
	return e.id.String()
}

// AddComponent attaches a zero T to the entity, or returns the T it already has.
func AddComponent[T Component](e Entity) *T {
	return Add[T](e.em, e.id)
}

// GetComponent returns the entity's T, or nil if it has none.
func GetComponent[T Component](e Entity) *T {
	return Get[T](e.em, e.id)
}

// RemoveComponent detaches T from the entity. It reports whether the entity had one.
func RemoveComponent[T Component](e Entity) bool {
	return Remove[T](e.em, e.id)
}

// HasComponent reports whether the entity has a T.
func HasComponent[T Component](e Entity) bool {
	return Has[T](e.em, e.id)
}
