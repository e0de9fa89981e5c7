package tests

import (
	"testing"

	"github.com/htm-project/neural-api/internal/connections"
	domain "github.com/htm-project/neural-api/internal/domain/connections"
)

// seedStore builds a store with numSegments segments on cell 0, each with
// synapsesPerSegment synapses spread across the cell universe, and returns
// it along with ready-to-use activity output buffers.
func seedStore(numCells, numSegments, synapsesPerSegment int) (*connections.Connections, map[domain.CellID]struct{}, []int32, []int32) {
	c := connections.New(numCells)
	for i := 0; i < numSegments; i++ {
		segment, err := c.CreateSegment(domain.CellID(0))
		if err != nil {
			panic(err)
		}
		for j := 0; j < synapsesPerSegment; j++ {
			presynaptic := domain.CellID((i*synapsesPerSegment + j) % numCells)
			if _, err := c.CreateSynapse(segment, presynaptic, 0.5); err != nil {
				panic(err)
			}
		}
	}

	input := make(map[domain.CellID]struct{}, numCells/4)
	for cell := 0; cell < numCells; cell += 4 {
		input[domain.CellID(cell)] = struct{}{}
	}

	flatLen := c.SegmentFlatListLength()
	return c, input, make([]int32, flatLen), make([]int32, flatLen)
}

// TestComputeActivitySubMillisecond checks that activity computation over a
// moderately sized store stays within a sub-millisecond budget, the same
// hot-path latency bar the rest of this suite holds per-request HTM
// operations to.
func TestComputeActivitySubMillisecond(t *testing.T) {
	c, input, connected, potential := seedStore(2048, 64, 32)

	bench := NewSubMillisecondBenchmark()
	bench.Run(t, "ComputeActivity", func() {
		for i := range connected {
			connected[i] = 0
			potential[i] = 0
		}
		if err := c.ComputeActivity(connected, potential, input, 0.3); err != nil {
			t.Fatalf("ComputeActivity: %v", err)
		}
	})
}

// TestComputeActivityMemory tracks allocations in the activity hot path;
// ComputeActivity itself should not allocate since both output buffers are
// caller-supplied.
func TestComputeActivityMemory(t *testing.T) {
	c, input, connected, potential := seedStore(2048, 64, 32)

	bench := NewSubMillisecondBenchmark()
	bench.BenchmarkMemory(t, "ComputeActivity", func() {
		for i := range connected {
			connected[i] = 0
			potential[i] = 0
		}
		_ = c.ComputeActivity(connected, potential, input, 0.3)
	})
}
