package ecs

import (
	"context"
	"math/bits"

	"github.com/argus-labs/forge/pkg/assert"
)

// System is a per-frame unit of game logic. Implementations embed BaseSystem, which supplies no-op
// hooks and the state the SystemManager keeps for each system.
type System interface {
	// OnCreate runs once, when the system is registered.
	OnCreate()
	// OnEnable runs on registration unless the system starts disabled, and on every later enable.
	OnEnable()
	// OnDisable runs on every disable and when the manager closes an active system.
	OnDisable()
	// OnUpdate runs each time the system's group is updated while the system is active.
	OnUpdate(ctx context.Context, dt float64)

	base() *BaseSystem
}

// BaseSystem is embedded by every system.
type BaseSystem struct {
	viewer Viewer
	group  UpdateGroup
	name   string
	slot   int
	active bool
}

func (b *BaseSystem) base() *BaseSystem { return b }

// Viewer returns the viewer bound to the owning scene's entities.
func (b *BaseSystem) Viewer() Viewer { return b.viewer }

// Manager returns the owning scene's entity manager.
func (b *BaseSystem) Manager() *EntityManager { return b.viewer.em }

// Group returns the update groups the system runs in.
func (b *BaseSystem) Group() UpdateGroup { return b.group }

// Name returns the system's type name.
func (b *BaseSystem) Name() string { return b.name }

// IsActive reports whether the system is enabled.
func (b *BaseSystem) IsActive() bool { return b.active }

func (b *BaseSystem) OnCreate()                         {}
func (b *BaseSystem) OnEnable()                         {}
func (b *BaseSystem) OnDisable()                        {}
func (b *BaseSystem) OnUpdate(context.Context, float64) {}

// UpdateGroup is a bitmask of the frame phases a system runs in.
type UpdateGroup uint64

const (
	// Update runs once per rendered frame.
	Update UpdateGroup = 1 << iota
	// FixedUpdate runs zero or more times per frame at the fixed timestep.
	FixedUpdate
	// LateUpdate runs once per frame after Update and FixedUpdate.
	LateUpdate

	builtinGroups = iota
)

// CustomGroup returns the n-th user defined group. Custom groups are only run when asked for
// explicitly through SystemManager.UpdateGroup.
func CustomGroup(n int) UpdateGroup {
	assert.That(n >= 0 && n < 64-builtinGroups, "custom group %d out of range", n)
	return 1 << (builtinGroups + n)
}

// each calls fn for every single-bit group in g, lowest first.
func (g UpdateGroup) each(fn func(UpdateGroup)) {
	for rest := uint64(g); rest != 0; rest &= rest - 1 {
		fn(UpdateGroup(1) << bits.TrailingZeros64(rest))
	}
}

func (g UpdateGroup) String() string {
	switch g {
	case Update:
		return "update"
	case FixedUpdate:
		return "fixed_update"
	case LateUpdate:
		return "late_update"
	default:
		return "custom"
	}
}

// systemConfig holds all configurable options for system registration.
type systemConfig struct {
	group    UpdateGroup
	disabled bool
}

// newSystemConfig creates a new system config with default values.
func newSystemConfig() systemConfig {
	return systemConfig{group: Update}
}

// SystemOption configures a system at registration.
type SystemOption func(*systemConfig)

// WithGroup sets the groups the system runs in. Defaults to Update.
func WithGroup(group UpdateGroup) SystemOption {
	return func(cfg *systemConfig) { cfg.group = group }
}

// WithDisabled registers the system without enabling it.
func WithDisabled() SystemOption {
	return func(cfg *systemConfig) { cfg.disabled = true }
}
