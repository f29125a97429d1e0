package ecs

import (
	"testing"

	. "github.com/argus-labs/forge/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityID_Packing(t *testing.T) {
	t.Parallel()

	id := NewEntityID(7, 3)
	assert.Equal(t, uint32(7), id.Index())
	assert.Equal(t, uint32(3), id.Generation())
	assert.Equal(t, EntityID(7<<32|3), id)
	assert.True(t, id.IsValid())
	assert.Equal(t, "7:3", id.String())

	assert.False(t, InvalidEntityID.IsValid())
	assert.False(t, NewEntityID(0, 5).IsValid())
}

func TestEntityManager_Create(t *testing.T) {
	t.Parallel()
	em := NewEntityManager(nil, 8)

	e1 := em.CreateEntity()
	e2 := em.CreateEntity()

	// Slot 0 is never handed out.
	assert.Equal(t, uint32(1), e1.ID().Index())
	assert.Equal(t, uint32(2), e2.ID().Index())
	assert.Equal(t, uint32(1), e1.ID().Generation())
	assert.Equal(t, 2, em.EntityCount())
	assert.Same(t, em, e1.Manager())
	assert.True(t, e1.IsValid())
	assert.True(t, em.Signature(e1.ID()).Count() == 0)

	assert.False(t, em.IsValid(InvalidEntityID))
	assert.False(t, em.IsValid(NewEntityID(99, 1)))
	assert.False(t, Entity{}.IsValid())
}

func TestEntityManager_GenerationUniqueness(t *testing.T) {
	t.Parallel()
	em := NewEntityManager(nil, 4)

	old := em.CreateEntity().ID()
	em.DestroyEntity(old)
	assert.False(t, em.IsValid(old))

	reused := em.CreateEntity().ID()
	assert.Equal(t, old.Index(), reused.Index())
	assert.Greater(t, reused.Generation(), old.Generation())
	assert.NotEqual(t, old, reused)
	assert.False(t, em.IsValid(old))
	assert.True(t, em.IsValid(reused))

	// Components of the old id must not leak to the new one.
	assert.False(t, Has[Position](em, old))
}

func TestEntityManager_FreeListIsFIFO(t *testing.T) {
	t.Parallel()
	em := NewEntityManager(nil, 8)

	ids := make([]EntityID, 4)
	for i := range ids {
		ids[i] = em.CreateEntity().ID()
	}
	em.DestroyEntity(ids[2])
	em.DestroyEntity(ids[0])

	assert.Equal(t, ids[2].Index(), em.CreateEntity().ID().Index())
	assert.Equal(t, ids[0].Index(), em.CreateEntity().ID().Index())
	assert.Equal(t, uint32(5), em.CreateEntity().ID().Index())
}

func TestEntityManager_DestroyRemovesComponents(t *testing.T) {
	t.Parallel()
	em := NewEntityManager(nil, 8)

	e := em.CreateEntity()
	other := em.CreateEntity()
	AddComponent[Position](e).X = 1
	AddComponent[Health](e).Current = 10
	AddComponent[Health](other).Current = 20

	em.DestroyEntity(e.ID())

	assert.Equal(t, 0, Pool[Position](em).Len())
	assert.Equal(t, 1, Pool[Health](em).Len())
	assert.Equal(t, 20, GetComponent[Health](other).Current)
	assert.Equal(t, 1, em.EntityCount())
}

func TestEntityManager_InvalidIDAsserts(t *testing.T) {
	t.Parallel()
	em := NewEntityManager(nil, 8)

	e := em.CreateEntity()
	em.DestroyEntity(e.ID())

	assert.Panics(t, func() { em.DestroyEntity(e.ID()) })
	assert.Panics(t, func() { Add[Position](em, e.ID()) })
	assert.Panics(t, func() { Get[Position](em, e.ID()) })
	assert.Panics(t, func() { Remove[Position](em, e.ID()) })
	assert.NotPanics(t, func() { Has[Position](em, e.ID()) })
}

func TestEntityManager_CapacityAsserts(t *testing.T) {
	t.Parallel()
	em := NewEntityManager(nil, 2)

	em.CreateEntity()
	e := em.CreateEntity()
	assert.Panics(t, func() { em.CreateEntity() })

	// Freeing a slot makes room again.
	em.DestroyEntity(e.ID())
	assert.NotPanics(t, func() { em.CreateEntity() })
	assert.Equal(t, 2, em.Capacity())
}

func TestEntityManager_DefaultCapacity(t *testing.T) {
	t.Parallel()

	em := NewEntityManager(nil, 0)
	assert.Equal(t, DefaultMaxEntities, em.Capacity())
	assert.NotNil(t, em.Registry())
}

func TestEntityManager_EntitiesAndClear(t *testing.T) {
	t.Parallel()
	em := NewEntityManager(nil, 16)

	live := make(map[EntityID]bool)
	for range 6 {
		e := em.CreateEntity()
		AddComponent[Marker](e)
		live[e.ID()] = true
	}
	for id := range live {
		if id.Index()%2 == 0 {
			em.DestroyEntity(id)
			delete(live, id)
		}
	}

	seen := make(map[EntityID]bool)
	for e := range em.Entities() {
		seen[e.ID()] = true
	}
	assert.Equal(t, live, seen)

	em.Clear()
	assert.Equal(t, 0, em.EntityCount())
	assert.Equal(t, 0, Pool[Marker](em).Len())
	for id := range live {
		assert.False(t, em.IsValid(id))
	}
}

func TestEntityManager_SharedRegistry(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()
	a := NewEntityManager(reg, 8)
	b := NewEntityManager(reg, 8)

	AddComponent[Velocity](a.CreateEntity())
	AddComponent[Position](b.CreateEntity())

	// Ids come from the shared registry, pools stay per manager.
	vel, _ := ComponentIDOf[Velocity](reg)
	pos, _ := ComponentIDOf[Position](reg)
	assert.NotEqual(t, vel, pos)
	assert.Nil(t, Pool[Position](a))
	assert.Nil(t, Pool[Velocity](b))
}

// -------------------------------------------------------------------------------------------------
// Model-Based Fuzzing
//
// Random create/destroy/add/remove sequences are applied to a manager and a model of which
// components each live entity has. After every operation, Has[T] must agree with both the model
// and the signature bit of T.
// -------------------------------------------------------------------------------------------------

type managerOp uint8

const (
	opCreate  managerOp = 20
	opDestroy managerOp = 10
	opAdd     managerOp = 40
	opRemove  managerOp = 30
)

var managerOps = []managerOp{opCreate, opDestroy, opAdd, opRemove}

type entityModel struct {
	position, health, marker bool
}

func TestEntityManager_ModelBasedFuzz(t *testing.T) {
	t.Parallel()
	prng := NewRand(t)

	const opsMax = 1 << 13
	em := NewEntityManager(nil, 512)
	model := make(map[EntityID]*entityModel)
	var dead []EntityID

	for range opsMax {
		op := RandWeightedOp(prng, managerOps)
		if op != opCreate && len(model) == 0 {
			op = opCreate
		}
		if op == opCreate && em.EntityCount() == em.Capacity() {
			op = opDestroy
		}

		switch op {
		case opCreate:
			id := em.CreateEntity().ID()
			_, exists := model[id]
			require.False(t, exists, "create returned live id %s", id)
			model[id] = &entityModel{}

		case opDestroy:
			id := RandMapKey(prng, model)
			em.DestroyEntity(id)
			delete(model, id)
			dead = append(dead, id)

		case opAdd:
			id := RandMapKey(prng, model)
			switch prng.IntN(3) {
			case 0:
				Add[Position](em, id)
				model[id].position = true
			case 1:
				Add[Health](em, id)
				model[id].health = true
			default:
				Add[Marker](em, id)
				model[id].marker = true
			}

		case opRemove:
			id := RandMapKey(prng, model)
			switch prng.IntN(3) {
			case 0:
				assert.Equal(t, model[id].position, Remove[Position](em, id))
				model[id].position = false
			case 1:
				assert.Equal(t, model[id].health, Remove[Health](em, id))
				model[id].health = false
			default:
				assert.Equal(t, model[id].marker, Remove[Marker](em, id))
				model[id].marker = false
			}

		default:
			panic("unreachable")
		}

		require.Equal(t, len(model), em.EntityCount())
	}

	positions, healths, markers := 0, 0, 0
	for id, m := range model {
		sig := em.Signature(id)
		checkSignature[Position](t, em, id, sig.Contains, m.position)
		checkSignature[Health](t, em, id, sig.Contains, m.health)
		checkSignature[Marker](t, em, id, sig.Contains, m.marker)
		if m.position {
			positions++
		}
		if m.health {
			healths++
		}
		if m.marker {
			markers++
		}
	}
	assertPoolLen[Position](t, em, positions)
	assertPoolLen[Health](t, em, healths)
	assertPoolLen[Marker](t, em, markers)

	// Property: every destroyed id stays invalid, even after its slot was reused.
	for _, id := range dead {
		assert.False(t, em.IsValid(id), "destroyed id %s is valid again", id)
	}
}

func checkSignature[T Component](
	t *testing.T, em *EntityManager, id EntityID, contains func(uint32) bool, want bool,
) {
	t.Helper()
	cid, registered := ComponentIDOf[T](em.Registry())
	assert.Equal(t, want, Has[T](em, id), "Has[%T](%s)", *new(T), id)
	assert.Equal(t, want, registered && contains(cid), "signature bit of %T on %s", *new(T), id)
	assert.Equal(t, want, Get[T](em, id) != nil, "Get[%T](%s)", *new(T), id)
}

func assertPoolLen[T Component](t *testing.T, em *EntityManager, want int) {
	t.Helper()
	p := Pool[T](em)
	if p == nil {
		assert.Equal(t, 0, want)
		return
	}
	assert.Equal(t, want, p.Len())
}
