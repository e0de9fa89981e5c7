package connections

import (
	domain "github.com/htm-project/neural-api/internal/domain/connections"
)

// ComputeActivity tallies, for every segment touched by input, how many of
// its synapses are sourced from input (potentialOut) and how many of those
// also meet threshold (connectedOut). Both buffers must be sized to at
// least SegmentFlatListLength() and are expected to be zero-initialized by
// the caller; ComputeActivity only increments.
//
// Complexity is linear in the total number of reverse-index entries across
// the cells in input, independent of the number of quiescent segments —
// the reason the reverse index exists at all.
func (c *Connections) ComputeActivity(connectedOut, potentialOut []int32, input map[domain.CellID]struct{}, threshold float32) error {
	flatLen := c.SegmentFlatListLength()
	if len(connectedOut) < flatLen || len(potentialOut) < flatLen {
		return domain.NewPreconditionError(domain.PreconditionBufferTooShort,
			"activity output buffer shorter than the flat-list length")
	}

	for cell := range input {
		if err := c.validCell(cell); err != nil {
			return err
		}
		for _, y := range c.presynapticSynapses[cell] {
			synRec := &c.synapseRecords[y.Index()]
			segIdx := mustIndex(synRec.segment)
			potentialOut[segIdx]++
			if synRec.permanence >= threshold {
				connectedOut[segIdx]++
			}
		}
	}
	return nil
}
