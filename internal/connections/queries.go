package connections

import (
	domain "github.com/htm-project/neural-api/internal/domain/connections"
)

// SegmentsForCell returns the live segments on cell, in creation order. The
// returned slice is owned by the store; callers must not mutate it.
func (c *Connections) SegmentsForCell(cell domain.CellID) ([]domain.SegmentID, error) {
	if err := c.validCell(cell); err != nil {
		return nil, err
	}
	return c.cellSegments[cell], nil
}

// SynapsesForSegment returns the live synapses on segment, in creation
// order. The returned slice is owned by the store; callers must not mutate
// it.
func (c *Connections) SynapsesForSegment(segment domain.SegmentID) ([]domain.SynapseID, error) {
	rec, err := c.segment(segment)
	if err != nil {
		return nil, err
	}
	return rec.synapses, nil
}

// CellForSegment returns the cell a live segment belongs to. It is
// constant for the lifetime of the segment.
func (c *Connections) CellForSegment(segment domain.SegmentID) (domain.CellID, error) {
	rec, err := c.segment(segment)
	if err != nil {
		return 0, err
	}
	return rec.cell, nil
}

// SegmentForSynapse returns the segment a live synapse belongs to. It is
// constant for the lifetime of the synapse.
func (c *Connections) SegmentForSynapse(synapse domain.SynapseID) (domain.SegmentID, error) {
	rec, err := c.synapse(synapse)
	if err != nil {
		return domain.SegmentID{}, err
	}
	return rec.segment, nil
}

// DataForSynapse returns a live synapse's presynaptic cell and permanence.
func (c *Connections) DataForSynapse(synapse domain.SynapseID) (domain.SynapseData, error) {
	rec, err := c.synapse(synapse)
	if err != nil {
		return domain.SynapseData{}, err
	}
	return domain.SynapseData{PresynapticCell: rec.presynapticCell, Permanence: rec.permanence}, nil
}

// NumSynapsesInSegment returns the live synapse count on one segment.
func (c *Connections) NumSynapsesInSegment(segment domain.SegmentID) (int, error) {
	rec, err := c.segment(segment)
	if err != nil {
		return 0, err
	}
	return len(rec.synapses), nil
}

// MapSegmentsToCells fills out[i] = cellForSegment(segments[i]) for every
// index. All segments must be live; any destroyed or unknown handle is a
// fatal precondition error and aborts the whole call.
func (c *Connections) MapSegmentsToCells(segments []domain.SegmentID, out []domain.CellID) error {
	if len(out) < len(segments) {
		return domain.NewPreconditionError(domain.PreconditionBufferTooShort,
			"output buffer shorter than the number of segments to map")
	}
	for i, s := range segments {
		rec, err := c.segment(s)
		if err != nil {
			return err
		}
		out[i] = rec.cell
	}
	return nil
}

// MostActiveSegmentForCell picks the live segment on cell with the highest
// overlap count in overlaps (indexed by SegmentID, sized to
// SegmentFlatListLength()), breaking ties by creation order. It reports
// false if the cell has no live segments.
func (c *Connections) MostActiveSegmentForCell(cell domain.CellID, overlaps []int32) (domain.SegmentID, bool, error) {
	if err := c.validCell(cell); err != nil {
		return domain.SegmentID{}, false, err
	}
	if len(overlaps) < c.SegmentFlatListLength() {
		return domain.SegmentID{}, false, domain.NewPreconditionError(domain.PreconditionBufferTooShort,
			"overlap buffer shorter than the flat-list length")
	}

	segments := c.cellSegments[cell]
	if len(segments) == 0 {
		return domain.SegmentID{}, false, nil
	}

	best := segments[0]
	bestOverlap := overlaps[best.Index()]
	for _, s := range segments[1:] {
		if ov := overlaps[s.Index()]; ov > bestOverlap {
			best = s
			bestOverlap = ov
		}
	}
	return best, true, nil
}
