package ecs_test

import (
	"context"
	"testing"

	"github.com/argus-labs/forge/pkg/ecs"
	. "github.com/argus-labs/forge/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects hook calls across systems so ordering can be asserted.
type recorder struct {
	calls []string
}

type movementSystem struct {
	ecs.BaseSystem
	rec  *recorder
	view ecs.View2[Position, Velocity]
}

func (s *movementSystem) OnCreate() {
	s.rec.calls = append(s.rec.calls, "movement.create")
	s.view = ecs.NewView2[Position, Velocity](s.Viewer())
}
func (s *movementSystem) OnEnable()  { s.rec.calls = append(s.rec.calls, "movement.enable") }
func (s *movementSystem) OnDisable() { s.rec.calls = append(s.rec.calls, "movement.disable") }
func (s *movementSystem) OnUpdate(_ context.Context, dt float64) {
	s.rec.calls = append(s.rec.calls, "movement.update")
	s.view.Each(func(_ ecs.Entity, p *Position, v *Velocity) {
		p.X += v.X * float32(dt)
	})
}

type lateSystem struct {
	ecs.BaseSystem
	rec *recorder
}

func (s *lateSystem) OnUpdate(context.Context, float64) {
	s.rec.calls = append(s.rec.calls, "late.update")
}

type fixedSystem struct {
	ecs.BaseSystem
	rec *recorder
}

func (s *fixedSystem) OnUpdate(context.Context, float64) {
	s.rec.calls = append(s.rec.calls, "fixed.update")
}

func newSystemManager(t *testing.T) (*ecs.EntityManager, *ecs.SystemManager) {
	t.Helper()
	em := ecs.NewEntityManager(nil, 64)
	return em, ecs.NewSystemManager(ecs.NewViewer(em, nil), nil)
}

func TestRegisterSystem_Hooks(t *testing.T) {
	t.Parallel()
	em, sm := newSystemManager(t)
	rec := &recorder{}

	sys := ecs.RegisterSystem(sm, &movementSystem{rec: rec})
	assert.Equal(t, []string{"movement.create", "movement.enable"}, rec.calls)
	assert.True(t, sys.IsActive())
	assert.Equal(t, "ecs_test.movementSystem", sys.Name())
	assert.Equal(t, ecs.Update, sys.Group())
	assert.Same(t, em, sys.Manager())

	got, ok := ecs.GetSystem[*movementSystem](sm)
	require.True(t, ok)
	assert.Same(t, sys, got)

	// Duplicate registration is a programmer error.
	assert.Panics(t, func() { ecs.RegisterSystem(sm, &movementSystem{rec: rec}) })
}

func TestSetActiveSystem_FiresOnTransitionsOnly(t *testing.T) {
	t.Parallel()
	_, sm := newSystemManager(t)
	rec := &recorder{}
	ecs.RegisterSystem(sm, &movementSystem{rec: rec})
	rec.calls = nil

	assert.True(t, ecs.SetActiveSystem[*movementSystem](sm, true))
	assert.Empty(t, rec.calls)

	ecs.SetActiveSystem[*movementSystem](sm, false)
	ecs.SetActiveSystem[*movementSystem](sm, false)
	assert.Equal(t, []string{"movement.disable"}, rec.calls)
	assert.False(t, ecs.IsSystemActive[*movementSystem](sm))

	ecs.SetActiveSystem[*movementSystem](sm, true)
	assert.Equal(t, []string{"movement.disable", "movement.enable"}, rec.calls)
	assert.True(t, ecs.IsSystemActive[*movementSystem](sm))

	// Unregistered systems report absence.
	assert.False(t, ecs.SetActiveSystem[*lateSystem](sm, true))
	assert.False(t, ecs.IsSystemActive[*lateSystem](sm))
	_, ok := ecs.GetSystem[*lateSystem](sm)
	assert.False(t, ok)
}

func TestUpdateGroup(t *testing.T) {
	t.Parallel()
	em, sm := newSystemManager(t)
	rec := &recorder{}

	e := em.CreateEntity()
	ecs.AddComponent[Position](e)
	ecs.AddComponent[Velocity](e).X = 2

	ecs.RegisterSystem(sm, &lateSystem{rec: rec}, ecs.WithGroup(ecs.LateUpdate))
	ecs.RegisterSystem(sm, &movementSystem{rec: rec})
	ecs.RegisterSystem(sm, &fixedSystem{rec: rec}, ecs.WithGroup(ecs.FixedUpdate|ecs.LateUpdate))
	rec.calls = nil

	ctx := context.Background()
	sm.UpdateGroup(ctx, ecs.Update, 0.5)
	assert.Equal(t, []string{"movement.update"}, rec.calls)
	assert.InDelta(t, 1, ecs.GetComponent[Position](e).X, 1e-6)

	rec.calls = nil
	sm.UpdateGroup(ctx, ecs.LateUpdate, 0.5)
	assert.Equal(t, []string{"late.update", "fixed.update"}, rec.calls)

	rec.calls = nil
	sm.UpdateGroup(ctx, ecs.FixedUpdate, 0.5)
	assert.Equal(t, []string{"fixed.update"}, rec.calls)

	// Disabled systems are skipped.
	rec.calls = nil
	ecs.SetActiveSystem[*fixedSystem](sm, false)
	sm.UpdateGroup(ctx, ecs.LateUpdate, 0.5)
	assert.Equal(t, []string{"late.update"}, rec.calls)

	// Nothing is registered under a custom group.
	rec.calls = nil
	sm.UpdateGroup(ctx, ecs.CustomGroup(0), 0.5)
	assert.Empty(t, rec.calls)
}

func TestRegisterSystem_Disabled(t *testing.T) {
	t.Parallel()
	_, sm := newSystemManager(t)
	rec := &recorder{}

	ecs.RegisterSystem(sm, &movementSystem{rec: rec}, ecs.WithDisabled())
	assert.Equal(t, []string{"movement.create"}, rec.calls)

	sm.UpdateGroup(context.Background(), ecs.Update, 1)
	assert.Equal(t, []string{"movement.create"}, rec.calls)
}

func TestSystemManager_Close(t *testing.T) {
	t.Parallel()
	_, sm := newSystemManager(t)
	rec := &recorder{}

	ecs.RegisterSystem(sm, &movementSystem{rec: rec})
	ecs.RegisterSystem(sm, &lateSystem{rec: rec})
	require.Equal(t, 2, sm.Len())
	assert.Len(t, sm.Systems(), 2)
	rec.calls = nil

	sm.Close()
	assert.Equal(t, []string{"movement.disable"}, rec.calls)
	assert.Equal(t, 0, sm.Len())

	// Slots are free again.
	assert.NotPanics(t, func() { ecs.RegisterSystem(sm, &movementSystem{rec: rec}) })
}

func TestCustomGroup(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ecs.UpdateGroup(1<<3), ecs.CustomGroup(0))
	assert.NotEqual(t, ecs.CustomGroup(0), ecs.CustomGroup(1))
	assert.Panics(t, func() { ecs.CustomGroup(61) })
	assert.Equal(t, "custom", ecs.CustomGroup(2).String())
	assert.Equal(t, "late_update", ecs.LateUpdate.String())
}
