package job

import (
	"testing"

	"github.com/argus-labs/forge/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------------------------------------------------------------------------------------
// Model-Based Fuzzing
//
// The deque is compared against a plain slice. Pushes outweigh pops so the buffer grows past its
// initial capacity and wraps around several times.
// -------------------------------------------------------------------------------------------------

type dequeOp uint8

const (
	opPushBack dequeOp = 50
	opPopFront dequeOp = 30
	opPopBack  dequeOp = 20
)

var dequeOps = []dequeOp{opPushBack, opPopFront, opPopBack}

func TestDeque_ModelBasedFuzz(t *testing.T) {
	t.Parallel()
	prng := testutils.NewRand(t)

	impl := newDeque(4)
	var model []uint64

	const opsMax = 1 << 14
	var nextID uint64

	for range opsMax {
		switch testutils.RandWeightedOp(prng, dequeOps) {
		case opPushBack:
			nextID++
			impl.pushBack(desc{id: nextID})
			model = append(model, nextID)

		case opPopFront:
			got, ok := impl.popFront()
			if len(model) == 0 {
				assert.False(t, ok, "popFront on empty deque")
				continue
			}
			require.True(t, ok)
			assert.Equal(t, model[0], got.id, "popFront order mismatch")
			model = model[1:]

		case opPopBack:
			got, ok := impl.popBack()
			if len(model) == 0 {
				assert.False(t, ok, "popBack on empty deque")
				continue
			}
			require.True(t, ok)
			assert.Equal(t, model[len(model)-1], got.id, "popBack order mismatch")
			model = model[:len(model)-1]

		default:
			panic("unreachable")
		}

		// Property: length always matches the model.
		require.Equal(t, len(model), impl.len())
	}

	// Drain in FIFO order.
	for _, want := range model {
		got, ok := impl.popFront()
		require.True(t, ok)
		assert.Equal(t, want, got.id)
	}
	assert.Equal(t, 0, impl.len())
}

func TestDeque_GrowKeepsOrder(t *testing.T) {
	t.Parallel()

	d := newDeque(2)
	// Offset the head so the buffer wraps before growing.
	d.pushBack(desc{id: 100})
	_, _ = d.popFront()

	for i := range uint64(10) {
		d.pushBack(desc{id: i})
	}
	assert.Equal(t, 10, d.len())
	assert.Len(t, d.buf, 16)

	for i := range uint64(10) {
		got, ok := d.popFront()
		require.True(t, ok)
		assert.Equal(t, i, got.id)
	}
}

func TestRoundUpPowerOfTwo(t *testing.T) {
	t.Parallel()

	tests := []struct{ in, want int }{
		{0, 1}, {1, 1}, {2, 2}, {3, 4}, {64, 64}, {65, 128},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, roundUpPowerOfTwo(tt.in), "roundUpPowerOfTwo(%d)", tt.in)
	}
}
