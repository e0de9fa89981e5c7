package connections

import (
	"io"

	domain "github.com/htm-project/neural-api/internal/domain/connections"
	"github.com/vmihailenco/msgpack/v5"
)

// synapseSnapshot is the wire form of a live synapse: its presynaptic cell
// and permanence. Destroyed-identifier free-lists are not preserved — the
// spec leaves that implementation-defined so long as Load(Save(x)) == x,
// and recreating the graph through the ordinary create path already
// satisfies that.
type synapseSnapshot struct {
	PresynapticCell int32   `msgpack:"presynaptic_cell"`
	Permanence      float32 `msgpack:"permanence"`
}

// segmentSnapshot is the wire form of a live segment: its owning cell and
// its synapses in creation order.
type segmentSnapshot struct {
	Cell     int32             `msgpack:"cell"`
	Synapses []synapseSnapshot `msgpack:"synapses"`
}

// storeSnapshot is the full wire form of a Connections store: the number
// of cells, and every live segment grouped by cell in creation order.
type storeSnapshot struct {
	NumCells int32             `msgpack:"num_cells"`
	Segments []segmentSnapshot `msgpack:"segments"`
}

// Save serializes the full observable state of c to sink in a compact
// msgpack encoding. Any write failure from sink is surfaced as a
// SnapshotError.
func (c *Connections) Save(sink io.Writer) error {
	snap := storeSnapshot{NumCells: int32(c.numCells)}

	for cell := 0; cell < c.numCells; cell++ {
		for _, s := range c.cellSegments[cell] {
			segRec := &c.segmentRecords[s.Index()]
			seg := segmentSnapshot{Cell: int32(cell)}
			for _, y := range segRec.synapses {
				synRec := &c.synapseRecords[y.Index()]
				seg.Synapses = append(seg.Synapses, synapseSnapshot{
					PresynapticCell: int32(synRec.presynapticCell),
					Permanence:      synRec.permanence,
				})
			}
			snap.Segments = append(snap.Segments, seg)
		}
	}

	enc := msgpack.NewEncoder(sink)
	if err := enc.Encode(&snap); err != nil {
		return domain.NewSnapshotError(domain.SnapshotErrorIO, "failed to write snapshot", err)
	}
	return nil
}

// Load decodes a snapshot from source and replaces c's state with it.
// Decoding happens into a scratch instance first and is only swapped in on
// success, so a failed Load leaves c unchanged.
func (c *Connections) Load(source io.Reader) error {
	var snap storeSnapshot
	dec := msgpack.NewDecoder(source)
	if err := dec.Decode(&snap); err != nil {
		return domain.NewSnapshotError(domain.SnapshotErrorMalformed, "failed to decode snapshot", err)
	}

	scratch := New(int(snap.NumCells))
	for _, seg := range snap.Segments {
		segID, err := scratch.CreateSegment(domain.CellID(seg.Cell))
		if err != nil {
			return domain.NewSnapshotError(domain.SnapshotErrorMalformed, "snapshot referenced an invalid cell", err)
		}
		for _, syn := range seg.Synapses {
			if _, err := scratch.CreateSynapse(segID, domain.CellID(syn.PresynapticCell), syn.Permanence); err != nil {
				return domain.NewSnapshotError(domain.SnapshotErrorMalformed, "snapshot contained an invalid synapse", err)
			}
		}
	}

	*c = *scratch
	return nil
}
