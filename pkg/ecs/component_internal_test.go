package ecs

import (
	"fmt"
	"reflect"
	"sync"
	"testing"

	. "github.com/argus-labs/forge/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// otherPosition claims the same name as testutils.Position.
type otherPosition struct{ X, Y, Z float64 }

func (otherPosition) Name() string { return "position" }

func TestRegistry_Register(t *testing.T) {
	t.Parallel()

	t.Run("ids follow registration order", func(t *testing.T) {
		t.Parallel()
		reg := NewRegistry()

		pos, err := RegisterComponent[Position](reg)
		require.NoError(t, err)
		vel, err := RegisterComponent[Velocity](reg)
		require.NoError(t, err)

		assert.Equal(t, ComponentID(0), pos)
		assert.Equal(t, ComponentID(1), vel)
		assert.Equal(t, 2, reg.Len())
		assert.Equal(t, "velocity", reg.Name(vel))
		assert.Empty(t, reg.Name(99))
	})

	t.Run("registering twice returns the same id", func(t *testing.T) {
		t.Parallel()
		reg := NewRegistry()

		first, err := RegisterComponent[Health](reg)
		require.NoError(t, err)
		second, err := RegisterComponent[Health](reg)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 1, reg.Len())

		got, ok := ComponentIDOf[Health](reg)
		assert.True(t, ok)
		assert.Equal(t, first, got)
	})

	t.Run("empty name", func(t *testing.T) {
		t.Parallel()
		reg := NewRegistry()

		_, err := RegisterComponent[Unnamed](reg)
		require.Error(t, err)
		assert.Equal(t, 0, reg.Len())
	})

	t.Run("name owned by another type", func(t *testing.T) {
		t.Parallel()
		reg := NewRegistry()

		_, err := RegisterComponent[Position](reg)
		require.NoError(t, err)
		_, err = RegisterComponent[otherPosition](reg)
		require.Error(t, err)
	})

	t.Run("component limit", func(t *testing.T) {
		t.Parallel()
		reg := NewRegistry()

		for i := range MaxComponents {
			name := fmt.Sprintf("filler-%d", i)
			reg.catalog[name] = ComponentID(i) //nolint:gosec // bounded
			reg.names = append(reg.names, name)
			reg.types = append(reg.types, reflect.TypeFor[Marker]())
			reg.factories = append(reg.factories, nil)
		}

		_, err := RegisterComponent[Position](reg)
		require.Error(t, err)
	})

	t.Run("unknown type", func(t *testing.T) {
		t.Parallel()
		reg := NewRegistry()

		_, ok := ComponentIDOf[Velocity](reg)
		assert.False(t, ok)
	})
}

func TestRegistry_ConcurrentRegister(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()

	var wg sync.WaitGroup
	ids := make([]ComponentID, 16)
	for i := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := RegisterComponent[Velocity](reg)
			assert.NoError(t, err)
			ids[i] = id
		}()
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	assert.Equal(t, 1, reg.Len())
}
