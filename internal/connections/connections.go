// Package connections implements the sparse synaptic connectivity store
// that backs HTM-style cortical algorithms: cells own segments, segments
// own synapses, and every synapse also appears in a reverse index keyed by
// its presynaptic cell so the activity kernel can be output-sensitive.
//
// The store is single-threaded and not internally synchronized; callers
// provide external exclusion for concurrent mutation exactly as spec.md §5
// describes.
package connections

import (
	domain "github.com/htm-project/neural-api/internal/domain/connections"
)

// segmentRecord is the store's internal representation of a segment slot.
// It is indexed by SegmentID.index and reused across destroy/create cycles;
// SegmentID.generation disambiguates which occupant a handle refers to.
type segmentRecord struct {
	cell      domain.CellID
	synapses  []domain.SynapseID
	destroyed bool
}

// synapseRecord is the store's internal representation of a synapse slot.
type synapseRecord struct {
	segment         domain.SegmentID
	presynapticCell domain.CellID
	permanence      float32
	destroyed       bool
}

// subscription pairs a live handler with the token callers use to
// unsubscribe it.
type subscription struct {
	token   domain.SubscriptionToken
	handler domain.EventHandler
}

// Connections is the sparse synaptic connectivity store described in
// spec.md. Construct one with New, giving the fixed number of cells in the
// universe.
type Connections struct {
	numCells int

	// Forward store.
	cellSegments   [][]domain.SegmentID // per cell, live segments in creation order
	segmentRecords []segmentRecord      // indexed by SegmentID.index
	synapseRecords []synapseRecord      // indexed by SynapseID.index

	// Reverse index: per presynaptic cell, synapses sourced from it.
	presynapticSynapses [][]domain.SynapseID

	segAllocator idAllocator
	synAllocator idAllocator

	numLiveSegments int
	numLiveSynapses int

	observers []subscription
}

// New constructs an empty store over numCells cells, indexed [0, numCells).
func New(numCells int) *Connections {
	return &Connections{
		numCells:            numCells,
		cellSegments:        make([][]domain.SegmentID, numCells),
		presynapticSynapses: make([][]domain.SynapseID, numCells),
	}
}

// NumCells returns the fixed cell-universe size given at construction.
func (c *Connections) NumCells() int {
	return c.numCells
}

// segment returns the record for a live segment, or a PreconditionError.
func (c *Connections) segment(s domain.SegmentID) (*segmentRecord, error) {
	idx, gen := s.Parts()
	if !c.segAllocator.isLive(idx, gen) {
		return nil, segmentPreconditionError(s, c.segAllocator.flatListLength())
	}
	rec := &c.segmentRecords[idx]
	if rec.destroyed {
		return nil, domain.NewPreconditionError(domain.PreconditionDestroyedHandle, "segment already destroyed")
	}
	return rec, nil
}

// synapse returns the record for a live synapse, or a PreconditionError.
func (c *Connections) synapse(y domain.SynapseID) (*synapseRecord, error) {
	idx, gen := y.Parts()
	if !c.synAllocator.isLive(idx, gen) {
		return nil, synapsePreconditionError(y, c.synAllocator.flatListLength())
	}
	rec := &c.synapseRecords[idx]
	if rec.destroyed {
		return nil, domain.NewPreconditionError(domain.PreconditionDestroyedHandle, "synapse already destroyed")
	}
	return rec, nil
}

func segmentPreconditionError(s domain.SegmentID, flatLen int) error {
	if s.IsZero() || s.Index() < 0 || int(s.Index()) >= flatLen {
		return domain.NewPreconditionError(domain.PreconditionUnknownHandle, "segment identifier was never issued")
	}
	return domain.NewPreconditionError(domain.PreconditionDestroyedHandle, "segment identifier refers to a destroyed or recycled slot")
}

func synapsePreconditionError(y domain.SynapseID, flatLen int) error {
	if y.IsZero() || y.Index() < 0 || int(y.Index()) >= flatLen {
		return domain.NewPreconditionError(domain.PreconditionUnknownHandle, "synapse identifier was never issued")
	}
	return domain.NewPreconditionError(domain.PreconditionDestroyedHandle, "synapse identifier refers to a destroyed or recycled slot")
}

func (c *Connections) validCell(cell domain.CellID) error {
	if cell < 0 || int(cell) >= c.numCells {
		return domain.NewPreconditionError(domain.PreconditionCellOutOfRange,
			"presynaptic cell index is outside [0, numCells)")
	}
	return nil
}

// SegmentFlatListLength is one past the largest segment identifier ever
// issued: the valid index range for activity-output buffers.
func (c *Connections) SegmentFlatListLength() int {
	return c.segAllocator.flatListLength()
}

// NumSegments returns the live segment count across the whole store.
func (c *Connections) NumSegments() int {
	return c.numLiveSegments
}

// NumSynapses returns the live synapse count across the whole store.
func (c *Connections) NumSynapses() int {
	return c.numLiveSynapses
}
