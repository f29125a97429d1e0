package ecs

import "github.com/argus-labs/forge/pkg/assert"

// sparseSet maps an entity slot index to a dense pool row. Absent keys hold sparseTombstone.
type sparseSet []int

const sparseCapacity = 128
const sparseTombstone = -1

func newSparseSet() sparseSet {
	s := make(sparseSet, sparseCapacity)
	for i := range sparseCapacity {
		s[i] = sparseTombstone
	}
	return s
}

// get returns the row for a slot index and whether it exists.
func (s *sparseSet) get(key uint32) (int, bool) {
	if int(key) >= len(*s) {
		return 0, false
	}

	value := (*s)[key]
	if value == sparseTombstone {
		return 0, false
	}
	return value, true
}

// set stores a row for a slot index, growing the backing slice if needed.
func (s *sparseSet) set(key uint32, value int) {
	assert.That(value >= 0, "value must be a non-negative row index")

	if int(key) >= len(*s) {
		oldLen := len(*s)
		newLen := max(oldLen*2, int(key)+1)

		grown := make(sparseSet, newLen)
		copy(grown, *s)
		for i := oldLen; i < newLen; i++ {
			grown[i] = sparseTombstone
		}
		*s = grown
	}

	(*s)[key] = value
}

// remove tombstones a slot index. Returns true if it was present.
func (s *sparseSet) remove(key uint32) bool {
	if int(key) >= len(*s) || (*s)[key] == sparseTombstone {
		return false
	}
	(*s)[key] = sparseTombstone
	return true
}

// reset tombstones every key without shrinking.
func (s *sparseSet) reset() {
	for i := range *s {
		(*s)[i] = sparseTombstone
	}
}
