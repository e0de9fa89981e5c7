package connections

import "github.com/cznic/mathutil"

// idAllocator issues small dense int32 slot indices for one kind of entity
// (segments or synapses). It tracks a high-water mark and a free-list of
// slots released by destroys; createSegment/createSynapse always drain the
// free-list before bumping the high-water mark, so the slot numbering
// stays as compact as the caller's delete pattern allows.
//
// Each slot additionally carries a generation counter, bumped every time
// the slot is recycled, so a handle captured before a destroy+recreate
// cycle can be told apart from the handle the new occupant receives.
type idAllocator struct {
	generations []int32
	freeList    []int32
	highWater   int32
}

// allocate returns the slot index and generation for a new entity,
// growing the generation table if the free-list was empty.
func (a *idAllocator) allocate() (index int32, generation int32) {
	if n := len(a.freeList); n > 0 {
		index = a.freeList[n-1]
		a.freeList = a.freeList[:n-1]
		a.generations[index]++ // even (dead) -> odd (live)
		return index, a.generations[index]
	}

	index = a.highWater
	a.highWater++

	needed := int(a.highWater)
	if needed > len(a.generations) {
		grown := mathutil.Max(needed, len(a.generations)*2)
		next := make([]int32, grown)
		copy(next, a.generations)
		a.generations = next
	}
	a.generations[index] = 1
	return index, a.generations[index]
}

// release returns a slot to the free-list and bumps its generation so any
// outstanding handle referencing the old generation is now stale.
func (a *idAllocator) release(index int32) {
	a.generations[index]++
	a.freeList = append(a.freeList, index)
}

// isLive reports whether index/generation refers to the slot's current
// occupant.
func (a *idAllocator) isLive(index int32, generation int32) bool {
	if index < 0 || int(index) >= len(a.generations) {
		return false
	}
	// A live slot's generation is always odd (1, 3, 5, ...): allocate sets
	// it to an odd value and release increments it to the next even value,
	// so a stale handle's generation (odd, but not the current one) and a
	// destroyed slot's current generation (even) are both rejected.
	return a.generations[index] == generation && generation%2 == 1
}

// flatListLength is the high-water mark: one past the largest index ever
// issued, independent of how many slots are currently live.
func (a *idAllocator) flatListLength() int {
	return int(a.highWater)
}
