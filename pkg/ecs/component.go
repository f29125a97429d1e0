package ecs

import (
	"reflect"
	"sync"

	"github.com/rotisserie/eris"
)

// Component is the interface that all components must implement.
// Components are pure data containers that can be attached to entities.
type Component interface { //nolint:iface // We may add more methods in the future.
	// Name returns a unique string identifier for the component type.
	// This should be consistent across program executions.
	Name() string
}

// ComponentID is the small integer a Registry assigns to a component type. It doubles as the
// component's bit in an entity signature.
type ComponentID = uint32

// poolFactory creates an empty pool for one component type.
type poolFactory func(id ComponentID, capacity int) abstractPool

// Registry assigns component ids by name, in registration order. One registry is shared by every
// manager of an engine so ids agree across scenes. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	catalog   map[string]ComponentID // Component name -> component ID
	names     []string               // Component ID -> name
	types     []reflect.Type         // Component ID -> Go type that claimed the name
	factories []poolFactory          // Component ID -> pool factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		catalog:   make(map[string]ComponentID),
		names:     make([]string, 0),
		types:     make([]reflect.Type, 0),
		factories: make([]poolFactory, 0),
	}
}

// RegisterComponent registers T and returns its id. Registering the same type again returns the
// existing id.
func RegisterComponent[T Component](reg *Registry) (ComponentID, error) {
	var zero T
	name := zero.Name()
	if name == "" {
		return 0, eris.New("component name cannot be empty")
	}
	typ := reflect.TypeFor[T]()

	reg.mu.Lock()
	defer reg.mu.Unlock()

	if cid, exists := reg.catalog[name]; exists {
		if reg.types[cid] != typ {
			return 0, eris.Errorf("component name %q already registered by %s", name, reg.types[cid])
		}
		return cid, nil
	}

	if len(reg.names) >= MaxComponents {
		return 0, eris.Errorf("cannot register %q: component limit of %d reached", name, MaxComponents)
	}

	cid := ComponentID(len(reg.names)) //nolint:gosec // bounded by MaxComponents
	reg.catalog[name] = cid
	reg.names = append(reg.names, name)
	reg.types = append(reg.types, typ)
	reg.factories = append(reg.factories, func(id ComponentID, capacity int) abstractPool {
		return newComponentPool[T](id, capacity)
	})
	return cid, nil
}

// ComponentIDOf returns the id of T if it has been registered.
func ComponentIDOf[T Component](reg *Registry) (ComponentID, bool) {
	var zero T
	return reg.ID(zero.Name())
}

// ID returns the id registered under a component name.
func (r *Registry) ID(name string) (ComponentID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cid, ok := r.catalog[name]
	return cid, ok
}

// Name returns the name registered under id, or "" if the id is unknown.
func (r *Registry) Name(id ComponentID) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.names) {
		return ""
	}
	return r.names[id]
}

// Len returns the number of registered component types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

// newPool creates an empty pool for a registered id.
func (r *Registry) newPool(id ComponentID, capacity int) abstractPool {
	r.mu.RLock()
	factory := r.factories[id]
	r.mu.RUnlock()
	return factory(id, capacity)
}
