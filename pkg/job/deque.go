package job

import "math/bits"

const defaultDequeCapacity = 64

// deque is a growable ring buffer of jobs. The owner pushes to the back and pops from the front,
// thieves pop from the back. It is not synchronized; the worker's mutex guards it.
type deque struct {
	buf  []desc
	mask uint64 // len(buf)-1, len(buf) is a power of two
	head uint64 // absolute index of the front element
	tail uint64 // absolute index one past the back element
}

func newDeque(capacity int) deque {
	capacity = roundUpPowerOfTwo(max(capacity, 1))
	return deque{
		buf:  make([]desc, capacity),
		mask: uint64(capacity - 1), //nolint:gosec // capacity is a positive power of two
	}
}

func (d *deque) len() int {
	return int(d.tail - d.head) //nolint:gosec // bounded by len(buf)
}

func (d *deque) pushBack(j desc) {
	if d.len() == len(d.buf) {
		d.grow()
	}
	d.buf[d.tail&d.mask] = j
	d.tail++
}

func (d *deque) popFront() (desc, bool) {
	if d.len() == 0 {
		return desc{}, false
	}
	slot := d.head & d.mask
	j := d.buf[slot]
	d.buf[slot] = desc{} // Drop references held by the job
	d.head++
	return j, true
}

func (d *deque) popBack() (desc, bool) {
	if d.len() == 0 {
		return desc{}, false
	}
	d.tail--
	slot := d.tail & d.mask
	j := d.buf[slot]
	d.buf[slot] = desc{}
	return j, true
}

// grow doubles the buffer and rebases the elements at index 0.
func (d *deque) grow() {
	n := d.len()
	buf := make([]desc, len(d.buf)*2)
	for i := range n {
		buf[i] = d.buf[(d.head+uint64(i))&d.mask] //nolint:gosec // i is non-negative
	}
	d.buf = buf
	d.mask = uint64(len(buf) - 1) //nolint:gosec // power of two
	d.head = 0
	d.tail = uint64(n) //nolint:gosec // non-negative
}

func roundUpPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1)) //nolint:gosec // n >= 2 at this point
}
