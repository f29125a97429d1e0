package ecs_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/argus-labs/forge/pkg/ecs"
	"github.com/argus-labs/forge/pkg/job"
	. "github.com/argus-labs/forge/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestView_EmptyBeforeAnyComponent(t *testing.T) {
	t.Parallel()
	em := ecs.NewEntityManager(nil, 16)
	viewer := ecs.NewViewer(em, nil)

	view := ecs.NewView2[Position, Velocity](viewer)
	assert.Equal(t, 0, view.Count())

	// Created before the pools exist, the view still sees later additions.
	e := em.CreateEntity()
	ecs.AddComponent[Position](e)
	assert.Equal(t, 0, view.Count())
	ecs.AddComponent[Velocity](e)
	assert.Equal(t, 1, view.Count())
}

func TestView_EachMutatesInPlace(t *testing.T) {
	t.Parallel()
	em := ecs.NewEntityManager(nil, 64)
	viewer := ecs.NewViewer(em, nil)

	for i := range 10 {
		e := em.CreateEntity()
		ecs.AddComponent[Position](e).X = float32(i)
		ecs.AddComponent[Velocity](e).X = 1
	}

	ecs.NewView2[Position, Velocity](viewer).Each(func(_ ecs.Entity, p *Position, v *Velocity) {
		p.X += v.X
	})

	var sum float32
	for _, p := range ecs.NewView1[Position](viewer).All() {
		sum += p.X
	}
	assert.InDelta(t, 55, sum, 1e-6) // 0..9 plus one each
}

func TestView_AllIsRestartableAndStoppable(t *testing.T) {
	t.Parallel()
	em := ecs.NewEntityManager(nil, 64)
	viewer := ecs.NewViewer(em, nil)

	for range 5 {
		ecs.AddComponent[Marker](em.CreateEntity())
	}
	view := ecs.NewView1[Marker](viewer)
	seq := view.All()

	first, second := 0, 0
	for range seq {
		first++
	}
	for range seq {
		second++
	}
	assert.Equal(t, 5, first)
	assert.Equal(t, first, second)

	stopped := 0
	for range seq {
		stopped++
		if stopped == 2 {
			break
		}
	}
	assert.Equal(t, 2, stopped)
}

func TestView_RowComponents(t *testing.T) {
	t.Parallel()
	em := ecs.NewEntityManager(nil, 16)
	viewer := ecs.NewViewer(em, nil)

	e := em.CreateEntity()
	ecs.AddComponent[Position](e).X = 1
	ecs.AddComponent[Velocity](e).X = 2
	ecs.AddComponent[Health](e).Current = 3
	ecs.AddComponent[Marker](e)

	count := 0
	for got, row := range ecs.NewView4[Position, Velocity, Health, Marker](viewer).All() {
		count++
		assert.Equal(t, e.ID(), got.ID())
		assert.InDelta(t, 1, row.C1.X, 0)
		assert.InDelta(t, 2, row.C2.X, 0)
		assert.Equal(t, 3, row.C3.Current)
		assert.NotNil(t, row.C4)
	}
	assert.Equal(t, 1, count)
}

// TestView_ExhaustiveSubsets enumerates every assignment of {Position, Velocity, Health} to four
// entities and checks every view against a direct count.
func TestView_ExhaustiveSubsets(t *testing.T) {
	t.Parallel()

	const entities = 4
	g := NewGen()
	for !g.Done() {
		em := ecs.NewEntityManager(nil, entities)
		viewer := ecs.NewViewer(em, nil)

		var hasPos, hasVel, hasHealth [entities]bool
		for i := range entities {
			e := em.CreateEntity()
			if hasPos[i] = g.Bool(); hasPos[i] {
				ecs.AddComponent[Position](e)
			}
			if hasVel[i] = g.Bool(); hasVel[i] {
				ecs.AddComponent[Velocity](e)
			}
			if hasHealth[i] = g.Bool(); hasHealth[i] {
				ecs.AddComponent[Health](e)
			}
		}

		var wantPos, wantPosVel, wantAll int
		for i := range entities {
			if hasPos[i] {
				wantPos++
			}
			if hasPos[i] && hasVel[i] {
				wantPosVel++
			}
			if hasPos[i] && hasVel[i] && hasHealth[i] {
				wantAll++
			}
		}

		require.Equal(t, wantPos, ecs.NewView1[Position](viewer).Count())
		require.Equal(t, wantPosVel, ecs.NewView2[Position, Velocity](viewer).Count())
		require.Equal(t, wantPosVel, ecs.NewView2[Velocity, Position](viewer).Count())
		require.Equal(t, wantAll, ecs.NewView3[Position, Velocity, Health](viewer).Count())

		ecs.NewView3[Position, Velocity, Health](viewer).Each(func(e ecs.Entity, p *Position, v *Velocity, h *Health) {
			require.NotNil(t, p)
			require.NotNil(t, v)
			require.NotNil(t, h)
			require.True(t, ecs.HasComponent[Health](e))
		})
	}
}

func TestViewer_Entities(t *testing.T) {
	t.Parallel()
	em := ecs.NewEntityManager(nil, 16)
	viewer := ecs.NewViewer(em, nil)

	a := em.CreateEntity()
	ecs.AddComponent[Position](a)
	ecs.AddComponent[Health](a)
	b := em.CreateEntity()
	ecs.AddComponent[Position](b)

	pos, _ := ecs.ComponentIDOf[Position](em.Registry())
	health, _ := ecs.ComponentIDOf[Health](em.Registry())

	var got []ecs.EntityID
	for e := range viewer.Entities(pos, health) {
		got = append(got, e.ID())
	}
	assert.Equal(t, []ecs.EntityID{a.ID()}, got)

	n := 0
	for range viewer.Entities() {
		n++
	}
	assert.Equal(t, 0, n)

	for range viewer.Entities(ecs.MaxComponents - 1) {
		t.Fatal("unknown component id must yield nothing")
	}
}

func TestView_EachParallel(t *testing.T) {
	t.Parallel()

	js, err := job.New(job.Options{Workers: 4})
	require.NoError(t, err)
	t.Cleanup(func() { _ = js.Terminate() })

	const n = 5000
	em := ecs.NewEntityManager(nil, n)
	viewer := ecs.NewViewer(em, js)
	for i := range n {
		e := em.CreateEntity()
		ecs.AddComponent[Health](e).Current = i
		if i%2 == 0 {
			ecs.AddComponent[Marker](e)
		}
	}

	var visited atomic.Int64
	err = ecs.NewView2[Health, Marker](viewer).EachParallel(context.Background(),
		func(_ ecs.Entity, h *Health, _ *Marker) {
			h.Max = h.Current * 2
			visited.Add(1)
		})
	require.NoError(t, err)
	assert.Equal(t, int64(n/2), visited.Load())

	ecs.NewView1[Health](viewer).Each(func(_ ecs.Entity, h *Health) {
		if h.Current%2 == 0 {
			assert.Equal(t, h.Current*2, h.Max)
		} else {
			assert.Equal(t, 0, h.Max)
		}
	})

	// Without a scheduler the same call runs inline.
	inline := ecs.NewViewer(em, nil)
	visited.Store(0)
	err = ecs.NewView1[Marker](inline).EachParallel(context.Background(), func(ecs.Entity, *Marker) {
		visited.Add(1)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(n/2), visited.Load())
}
