package connections

import (
	domain "github.com/htm-project/neural-api/internal/domain/connections"
)

// CreateSegment allocates a new segment on cell, appends it to the cell's
// segment list, fires OnCreateSegment, and returns its identifier.
func (c *Connections) CreateSegment(cell domain.CellID) (domain.SegmentID, error) {
	if err := c.validCell(cell); err != nil {
		return domain.SegmentID{}, err
	}

	idx, gen := c.segAllocator.allocate()
	if int(idx) == len(c.segmentRecords) {
		c.segmentRecords = append(c.segmentRecords, segmentRecord{})
	}
	s := domain.NewSegmentID(idx, gen)
	c.segmentRecords[idx] = segmentRecord{cell: cell}

	c.cellSegments[cell] = append(c.cellSegments[cell], s)
	c.numLiveSegments++

	c.notifyCreateSegment(s)
	return s, nil
}

// CreateSynapse allocates a new synapse on segment reading from
// presynapticCell with the given permanence (clamped into [0,1]), inserts
// it into both the segment's synapse list and the reverse index, fires
// OnCreateSynapse, and returns its identifier. A segment may hold at most
// one synapse per distinct presynaptic cell; a second attempt is a
// precondition violation.
func (c *Connections) CreateSynapse(segment domain.SegmentID, presynapticCell domain.CellID, permanence float32) (domain.SynapseID, error) {
	segRec, err := c.segment(segment)
	if err != nil {
		return domain.SynapseID{}, err
	}
	if err := c.validCell(presynapticCell); err != nil {
		return domain.SynapseID{}, err
	}
	for _, existing := range segRec.synapses {
		if c.synapseRecords[existing.Index()].presynapticCell == presynapticCell {
			return domain.SynapseID{}, domain.NewPreconditionError(domain.PreconditionDuplicateSynapse,
				"segment already has a synapse from this presynaptic cell")
		}
	}

	idx, gen := c.synAllocator.allocate()
	if int(idx) == len(c.synapseRecords) {
		c.synapseRecords = append(c.synapseRecords, synapseRecord{})
	}
	y := domain.NewSynapseID(idx, gen)
	c.synapseRecords[idx] = synapseRecord{
		segment:         segment,
		presynapticCell: presynapticCell,
		permanence:      domain.ClampPermanence(permanence),
	}

	segRec.synapses = append(segRec.synapses, y)
	c.presynapticSynapses[presynapticCell] = append(c.presynapticSynapses[presynapticCell], y)
	c.numLiveSynapses++

	c.notifyCreateSynapse(y)
	return y, nil
}

// DestroySynapse removes y from its segment's synapse list and its
// source's reverse bucket, releases its identifier, and fires
// OnDestroySynapse. It is a precondition violation to destroy an
// already-destroyed or unknown synapse, but it is always safe with respect
// to a prior destroy of the owning segment: once the segment is gone so is
// every one of its synapses, and the synapse lookup below will already
// report it destroyed.
func (c *Connections) DestroySynapse(y domain.SynapseID) error {
	rec, err := c.synapse(y)
	if err != nil {
		return err
	}
	c.removeSynapse(y, rec)
	c.notifyDestroySynapse(y)
	return nil
}

// removeSynapse performs the index surgery shared by DestroySynapse and
// DestroySegment, without firing notifications (the caller decides
// ordering relative to its own notification).
func (c *Connections) removeSynapse(y domain.SynapseID, rec *synapseRecord) {
	segRec := &c.segmentRecords[mustIndex(rec.segment)]
	segRec.synapses = removeSynapseID(segRec.synapses, y)

	bucket := c.presynapticSynapses[rec.presynapticCell]
	c.presynapticSynapses[rec.presynapticCell] = removeSynapseID(bucket, y)

	rec.destroyed = true
	c.numLiveSynapses--
	c.synAllocator.release(y.Index())
}

// DestroySegment destroys every remaining live synapse of s (with full
// reverse-index removal and a notification per synapse), removes s from
// its cell's segment list, releases its identifier, and fires
// OnDestroySegment.
func (c *Connections) DestroySegment(s domain.SegmentID) error {
	rec, err := c.segment(s)
	if err != nil {
		return err
	}

	// Copy first: removeSynapse mutates rec.synapses in place when it
	// removes the synapse from its segment's list.
	synapses := append([]domain.SynapseID(nil), rec.synapses...)
	for _, y := range synapses {
		idx, gen := y.Parts()
		if !c.synAllocator.isLive(idx, gen) {
			continue // already destroyed; idempotent
		}
		synRec := &c.synapseRecords[idx]
		if synRec.destroyed {
			continue
		}
		c.removeSynapse(y, synRec)
		c.notifyDestroySynapse(y)
	}

	cellSegs := c.cellSegments[rec.cell]
	c.cellSegments[rec.cell] = removeSegmentID(cellSegs, s)

	rec.destroyed = true
	rec.synapses = nil
	c.numLiveSegments--
	c.segAllocator.release(s.Index())

	c.notifyDestroySegment(s)
	return nil
}

// UpdateSynapsePermanence writes clamp(value, 0, 1) into synapse y. It
// never inserts or removes edges regardless of whether the new value
// crosses any connection threshold. Fires OnUpdateSynapsePermanence.
func (c *Connections) UpdateSynapsePermanence(y domain.SynapseID, value float32) error {
	rec, err := c.synapse(y)
	if err != nil {
		return err
	}
	rec.permanence = domain.ClampPermanence(value)
	c.notifyUpdateSynapsePermanence(y, rec.permanence)
	return nil
}

// AdaptSegment applies the HTM learning rule to every synapse on segment:
// synapses whose presynaptic cell is in input are incremented by
// increment, all others are decremented by decrement, both clamped into
// [0,1]. Fires one update notification per synapse touched. Permanences
// that reach zero are not trimmed or destroyed, only clamped.
func (c *Connections) AdaptSegment(segment domain.SegmentID, input map[domain.CellID]struct{}, increment, decrement float32) error {
	rec, err := c.segment(segment)
	if err != nil {
		return err
	}

	for _, y := range rec.synapses {
		synRec := &c.synapseRecords[y.Index()]
		var updated float32
		if _, active := input[synRec.presynapticCell]; active {
			updated = domain.ClampPermanence(synRec.permanence + increment)
		} else {
			updated = domain.ClampPermanence(synRec.permanence - decrement)
		}
		synRec.permanence = updated
		c.notifyUpdateSynapsePermanence(y, updated)
	}
	return nil
}

func mustIndex(s domain.SegmentID) int32 {
	idx, _ := s.Parts()
	return idx
}

func removeSynapseID(list []domain.SynapseID, target domain.SynapseID) []domain.SynapseID {
	for i, y := range list {
		if y == target {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

func removeSegmentID(list []domain.SegmentID, target domain.SegmentID) []domain.SegmentID {
	for i, s := range list {
		if s == target {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
