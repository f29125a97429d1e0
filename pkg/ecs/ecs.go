// Package ecs is a sparse-set Entity-Component-System runtime.
//
// Each component type gets its own densely packed pool, allocated on first use. Entities are
// generational ids: destroying an entity bumps its slot's generation so stale handles are detected
// instead of aliasing the next entity that reuses the slot. Systems iterate entities through typed
// views driven by the smallest participating pool, optionally fanned out over a job.System.
//
// The EntityManager and its pools are not synchronized. Structural changes (creating or destroying
// entities, adding or removing components) must happen on one goroutine; parallel view callbacks
// may only mutate the component data they are handed.
package ecs

const (
	// MaxComponents is the number of distinct component types a Registry can hold. It is also the
	// width of an entity's signature.
	MaxComponents = 64

	// MaxSystems is the number of systems a SystemManager can hold at once.
	MaxSystems = 64

	// DefaultMaxEntities is the entity capacity used when a manager is created with capacity 0.
	DefaultMaxEntities = 1 << 16
)
