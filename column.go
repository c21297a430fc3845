package hakoniwa

import "unsafe"

// zeroSized is the shared address handed out for rows of zero-size
// component types (tags). Reads and writes through it touch no memory.
var zeroSized byte

// column owns a contiguous, growable, type-erased buffer holding the
// values of one component type for one archetype. All concrete types go
// through the same byte-buffer operations; the element stride is the
// only per-type state the erased operations need. Capacity never
// shrinks on removal.
type column struct {
	data  []byte
	size  uintptr // element stride in bytes
	count int     // number of elements, tracked separately for tags
}

// newColumn allocates an empty column for the registered component id.
func newColumn(id ComponentID) *column {
	return &column{size: componentSize(id)}
}

// emptyLike constructs an empty column with the same element layout.
func (c *column) emptyLike() *column {
	return &column{size: c.size}
}

// len returns the number of elements in the column.
func (c *column) len() int {
	return c.count
}

// pushDefault appends a value-initialized element.
func (c *column) pushDefault() {
	if c.size != 0 {
		n := int(c.size)
		c.data = extendByteSlice(c.data, n)
		// the reused tail may hold stale bytes from an earlier swapRemove
		clear(c.data[len(c.data)-n:])
	}
	c.count++
}

// pushFrom appends a copy of row `row` of src. Src must carry the same
// element layout as the receiver.
func (c *column) pushFrom(src *column, row int) {
	if c.size != 0 {
		n := int(c.size)
		c.data = extendByteSlice(c.data, n)
		copy(c.data[len(c.data)-n:], src.data[row*n:(row+1)*n])
	}
	c.count++
}

// swapRemove overwrites slot i with the last element, then shrinks by
// one. Removing the last element itself is a plain shrink.
func (c *column) swapRemove(i int) {
	last := c.count - 1
	if c.size != 0 {
		n := int(c.size)
		if i < last {
			copy(c.data[i*n:(i+1)*n], c.data[last*n:(last+1)*n])
		}
		c.data = c.data[:last*n]
	}
	c.count--
}

// ptr returns the address of row i for typed access.
func (c *column) ptr(i int) unsafe.Pointer {
	if c.size == 0 || len(c.data) == 0 {
		return unsafe.Pointer(&zeroSized)
	}
	return unsafe.Pointer(&c.data[uintptr(i)*c.size])
}

// base returns the address of the first element, for chunk consumers.
func (c *column) base() unsafe.Pointer {
	return c.ptr(0)
}

// reset drops all elements but keeps the allocation.
func (c *column) reset() {
	c.data = c.data[:0]
	c.count = 0
}

// liveBytes reports the bytes occupied by live elements.
func (c *column) liveBytes() int {
	return c.count * int(c.size)
}
