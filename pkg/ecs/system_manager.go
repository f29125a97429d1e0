package ecs

import (
	"context"
	"reflect"

	"github.com/argus-labs/forge/pkg/assert"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// SystemManager owns the systems of one scene. Each concrete system type occupies one slot of a
// fixed table; a group index keeps the slots of every group in registration order.
type SystemManager struct {
	viewer Viewer
	tracer trace.Tracer
	slots  [MaxSystems]System
	types  map[reflect.Type]int  // System type -> slot
	order  []int                 // Occupied slots in registration order
	groups map[UpdateGroup][]int // Single-bit group -> slots in registration order
}

// NewSystemManager creates a manager whose systems read entities through viewer. A nil tracer
// disables spans.
func NewSystemManager(viewer Viewer, tracer trace.Tracer) *SystemManager {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("ecs")
	}
	return &SystemManager{
		viewer: viewer,
		tracer: tracer,
		types:  make(map[reflect.Type]int),
		order:  make([]int, 0),
		groups: make(map[UpdateGroup][]int),
	}
}

// RegisterSystem adds sys under its concrete type, runs OnCreate and, unless WithDisabled is
// given, enables it. Registering a second system of the same type is a programmer error.
func RegisterSystem[T System](sm *SystemManager, sys T, opts ...SystemOption) T {
	typ := reflect.TypeFor[T]()
	_, exists := sm.types[typ]
	assert.That(!exists, "system %s already registered", typ)
	assert.That(len(sm.order) < MaxSystems, "system capacity of %d exceeded", MaxSystems)

	cfg := newSystemConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	slot := sm.freeSlot()
	b := sys.base()
	b.viewer = sm.viewer
	b.group = cfg.group
	b.name = systemName(typ)
	b.slot = slot
	b.active = false

	sm.slots[slot] = sys
	sm.types[typ] = slot
	sm.order = append(sm.order, slot)
	cfg.group.each(func(g UpdateGroup) {
		sm.groups[g] = append(sm.groups[g], slot)
	})

	sys.OnCreate()
	if !cfg.disabled {
		b.active = true
		sys.OnEnable()
	}
	return sys
}

// GetSystem returns the registered system of type T.
func GetSystem[T System](sm *SystemManager) (T, bool) {
	slot, ok := sm.types[reflect.TypeFor[T]()]
	if !ok {
		var zero T
		return zero, false
	}
	sys, ok := sm.slots[slot].(T)
	return sys, ok
}

// SetActiveSystem enables or disables the system of type T, running OnEnable or OnDisable only on
// an actual transition. It reports whether T is registered.
func SetActiveSystem[T System](sm *SystemManager, active bool) bool {
	sys, ok := GetSystem[T](sm)
	if !ok {
		return false
	}
	setActive(sys, active)
	return true
}

// IsSystemActive reports whether T is registered and enabled.
func IsSystemActive[T System](sm *SystemManager) bool {
	sys, ok := GetSystem[T](sm)
	return ok && sys.base().active
}

func setActive(sys System, active bool) {
	b := sys.base()
	if b.active == active {
		return
	}
	b.active = active
	if active {
		sys.OnEnable()
	} else {
		sys.OnDisable()
	}
}

// UpdateGroup runs OnUpdate on every active system registered under group, in registration order.
// group should be a single group; for a mask each of its groups is run in bit order.
func (sm *SystemManager) UpdateGroup(ctx context.Context, group UpdateGroup, dt float64) {
	group.each(func(g UpdateGroup) {
		for _, slot := range sm.groups[g] {
			sys := sm.slots[slot]
			b := sys.base()
			if !b.active {
				continue
			}

			sctx, span := sm.tracer.Start(ctx, "system.update", trace.WithAttributes(
				attribute.String("system", b.name),
				attribute.String("group", g.String()),
			))
			sys.OnUpdate(sctx, dt)
			span.End()
		}
	})
}

// Len returns the number of registered systems.
func (sm *SystemManager) Len() int {
	return len(sm.order)
}

// Systems returns the registered systems in registration order.
func (sm *SystemManager) Systems() []System {
	systems := make([]System, 0, len(sm.order))
	for _, slot := range sm.order {
		systems = append(systems, sm.slots[slot])
	}
	return systems
}

// Close disables every active system in reverse registration order and releases all slots.
func (sm *SystemManager) Close() {
	for i := len(sm.order) - 1; i >= 0; i-- {
		setActive(sm.slots[sm.order[i]], false)
	}
	sm.slots = [MaxSystems]System{}
	clear(sm.types)
	clear(sm.groups)
	sm.order = sm.order[:0]
}

func systemName(typ reflect.Type) string {
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	return typ.String()
}

func (sm *SystemManager) freeSlot() int {
	for slot, sys := range sm.slots {
		if sys == nil {
			return slot
		}
	}
	panic("unreachable")
}
