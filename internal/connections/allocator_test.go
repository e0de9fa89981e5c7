package connections

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdAllocatorReusesFreedSlots(t *testing.T) {
	var a idAllocator

	idx0, gen0 := a.allocate()
	idx1, gen1 := a.allocate()
	assert.EqualValues(t, 0, idx0)
	assert.EqualValues(t, 1, idx1)
	assert.True(t, a.isLive(idx0, gen0))
	assert.True(t, a.isLive(idx1, gen1))

	a.release(idx0)
	assert.False(t, a.isLive(idx0, gen0), "released slot must stop reporting live under its old generation")

	idx2, gen2 := a.allocate()
	assert.EqualValues(t, idx0, idx2, "allocate should prefer the free-list over bumping the high-water mark")
	assert.NotEqual(t, gen0, gen2, "a recycled slot gets a new generation")
	assert.True(t, a.isLive(idx2, gen2))
	assert.False(t, a.isLive(idx0, gen0), "the stale handle must not alias the new occupant")
}

func TestIdAllocatorFlatListLengthIsHighWaterMark(t *testing.T) {
	var a idAllocator
	idx0, _ := a.allocate()
	_, _ = a.allocate()
	assert.Equal(t, 2, a.flatListLength())

	a.release(idx0)
	assert.Equal(t, 2, a.flatListLength(), "flat-list length never shrinks on release")

	a.allocate() // reused from free-list
	assert.Equal(t, 2, a.flatListLength())

	a.allocate() // bumps high-water mark again
	assert.Equal(t, 3, a.flatListLength())
}
