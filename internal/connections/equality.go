package connections

import (
	domain "github.com/htm-project/neural-api/internal/domain/connections"

	"gonum.org/v1/gonum/floats"
)

// permanenceEpsilon is the equality tolerance spec.md §6 fixes for
// permanence comparisons.
const permanenceEpsilon = 1e-7

// Equals reports whether c and other have the same cell count, the same
// live segment-and-synapse graph (considering ordering within each cell
// and segment list), and the same permanences within permanenceEpsilon.
func (c *Connections) Equals(other *Connections) bool {
	if other == nil {
		return false
	}
	if c.numCells != other.numCells {
		return false
	}

	for cell := 0; cell < c.numCells; cell++ {
		segsA := c.cellSegments[cell]
		segsB := other.cellSegments[cell]
		if len(segsA) != len(segsB) {
			return false
		}
		for i := range segsA {
			if !segmentsEqual(c, segsA[i], other, segsB[i]) {
				return false
			}
		}
	}
	return true
}

func segmentsEqual(a *Connections, sa domain.SegmentID, b *Connections, sb domain.SegmentID) bool {
	recA := &a.segmentRecords[sa.Index()]
	recB := &b.segmentRecords[sb.Index()]

	if len(recA.synapses) != len(recB.synapses) {
		return false
	}
	for i := range recA.synapses {
		synA := &a.synapseRecords[recA.synapses[i].Index()]
		synB := &b.synapseRecords[recB.synapses[i].Index()]
		if synA.presynapticCell != synB.presynapticCell {
			return false
		}
		if !floats.EqualWithinAbs(float64(synA.permanence), float64(synB.permanence), permanenceEpsilon) {
			return false
		}
	}
	return true
}
