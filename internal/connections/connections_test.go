package connections

import (
	"bytes"
	"testing"

	domain "github.com/htm-project/neural-api/internal/domain/connections"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndQuery(t *testing.T) {
	c := New(1024)

	s1, err := c.CreateSegment(10)
	require.NoError(t, err)
	s2, err := c.CreateSegment(10)
	require.NoError(t, err)

	segs, err := c.SegmentsForCell(10)
	require.NoError(t, err)
	assert.Equal(t, []domain.SegmentID{s1, s2}, segs)

	cell, err := c.CellForSegment(s1)
	require.NoError(t, err)
	assert.Equal(t, domain.CellID(10), cell)
}

func TestDestroysDoNotInvalidateOtherHandles(t *testing.T) {
	c := New(1024)

	segLeft, err := c.CreateSegment(11)
	require.NoError(t, err)
	g, err := c.CreateSegment(13)
	require.NoError(t, err)
	segRight, err := c.CreateSegment(15)
	require.NoError(t, err)

	var handles []domain.SynapseID
	for cell := 201; cell <= 205; cell++ {
		y, err := c.CreateSynapse(g, domain.CellID(cell), 0.85)
		require.NoError(t, err)
		handles = append(handles, y)
	}
	y1, y3, y5 := handles[0], handles[2], handles[4]

	require.NoError(t, c.DestroySynapse(y1))
	data, err := c.DataForSynapse(y3)
	require.NoError(t, err)
	assert.Equal(t, domain.CellID(203), data.PresynapticCell)

	require.NoError(t, c.DestroySynapse(y5))
	data, err = c.DataForSynapse(y3)
	require.NoError(t, err)
	assert.Equal(t, domain.CellID(203), data.PresynapticCell)

	require.NoError(t, c.DestroySegment(segLeft))
	require.NoError(t, c.DestroySegment(segRight))

	syns, err := c.SynapsesForSegment(g)
	require.NoError(t, err)
	assert.Len(t, syns, 3)

	data, err = c.DataForSynapse(y3)
	require.NoError(t, err)
	assert.Equal(t, domain.CellID(203), data.PresynapticCell)
}

func TestComputeActivity(t *testing.T) {
	c := New(256)

	segA, err := c.CreateSegment(10)
	require.NoError(t, err)
	_, err = c.CreateSynapse(segA, 150, 0.85)
	require.NoError(t, err)
	_, err = c.CreateSynapse(segA, 151, 0.15)
	require.NoError(t, err)

	segB, err := c.CreateSegment(20)
	require.NoError(t, err)
	_, err = c.CreateSynapse(segB, 80, 0.85)
	require.NoError(t, err)
	_, err = c.CreateSynapse(segB, 81, 0.85)
	require.NoError(t, err)
	_, err = c.CreateSynapse(segB, 82, 0.15)
	require.NoError(t, err)

	input := map[domain.CellID]struct{}{
		50: {}, 52: {}, 53: {}, 80: {}, 81: {}, 82: {}, 150: {}, 151: {},
	}

	flatLen := c.SegmentFlatListLength()
	connected := make([]int32, flatLen)
	potential := make([]int32, flatLen)

	require.NoError(t, c.ComputeActivity(connected, potential, input, 0.5))

	assert.EqualValues(t, 1, connected[segA.Index()])
	assert.EqualValues(t, 2, potential[segA.Index()])
	assert.EqualValues(t, 2, connected[segB.Index()])
	assert.EqualValues(t, 3, potential[segB.Index()])
}

func TestComputeActivityEmptyInputIsZero(t *testing.T) {
	c := New(10)
	seg, err := c.CreateSegment(0)
	require.NoError(t, err)
	_, err = c.CreateSynapse(seg, 1, 0.9)
	require.NoError(t, err)

	flatLen := c.SegmentFlatListLength()
	connected := make([]int32, flatLen)
	potential := make([]int32, flatLen)

	require.NoError(t, c.ComputeActivity(connected, potential, map[domain.CellID]struct{}{}, 0.5))

	for i := range connected {
		assert.EqualValues(t, 0, connected[i])
		assert.EqualValues(t, 0, potential[i])
	}
}

func TestAdaptSegment(t *testing.T) {
	c := New(8)

	seg0, err := c.CreateSegment(0)
	require.NoError(t, err)
	mustCreateSynapse(t, c, seg0, 0, 0.200)
	mustCreateSynapse(t, c, seg0, 1, 0.120)
	mustCreateSynapse(t, c, seg0, 2, 0.090)
	mustCreateSynapse(t, c, seg0, 3, 0.060)

	seg1, err := c.CreateSegment(1)
	require.NoError(t, err)
	mustCreateSynapse(t, c, seg1, 0, 0.150)
	mustCreateSynapse(t, c, seg1, 4, 0.180)
	mustCreateSynapse(t, c, seg1, 5, 0.120)
	mustCreateSynapse(t, c, seg1, 7, 0.450)

	seg2, err := c.CreateSegment(2)
	require.NoError(t, err)
	mustCreateSynapse(t, c, seg2, 2, 0.010)
	mustCreateSynapse(t, c, seg2, 6, 0.980)

	seg3, err := c.CreateSegment(3)
	require.NoError(t, err)
	mustCreateSynapse(t, c, seg3, 0, 0.070)
	mustCreateSynapse(t, c, seg3, 6, 0.178)

	input := map[domain.CellID]struct{}{0: {}, 3: {}, 4: {}, 6: {}}
	const increment, decrement = 0.1, 0.01

	require.NoError(t, c.AdaptSegment(seg0, input, increment, decrement))
	require.NoError(t, c.AdaptSegment(seg1, input, increment, decrement))
	require.NoError(t, c.AdaptSegment(seg2, input, increment, decrement))

	assertPermanence(t, c, seg0, 0, 0.300)
	assertPermanence(t, c, seg0, 1, 0.110)
	assertPermanence(t, c, seg0, 2, 0.080)
	assertPermanence(t, c, seg0, 3, 0.160)

	assertPermanence(t, c, seg1, 0, 0.250)
	assertPermanence(t, c, seg1, 4, 0.280)
	assertPermanence(t, c, seg1, 5, 0.110)
	assertPermanence(t, c, seg1, 7, 0.440)

	assertPermanence(t, c, seg2, 2, 0.000)
	assertPermanence(t, c, seg2, 6, 1.000)

	assertPermanence(t, c, seg3, 0, 0.070)
	assertPermanence(t, c, seg3, 6, 0.178)
}

func TestClamping(t *testing.T) {
	c := New(4)
	seg, err := c.CreateSegment(0)
	require.NoError(t, err)
	y, err := c.CreateSynapse(seg, 1, 0.34)
	require.NoError(t, err)

	require.NoError(t, c.UpdateSynapsePermanence(y, -0.02))
	assertPermanence(t, c, seg, 1, 0.0)

	require.NoError(t, c.UpdateSynapsePermanence(y, 1.02))
	assertPermanence(t, c, seg, 1, 1.0)

	require.NoError(t, c.UpdateSynapsePermanence(y, float32(-1e-9)))
	assertPermanence(t, c, seg, 1, 0.0)

	require.NoError(t, c.UpdateSynapsePermanence(y, float32(1+1e-9)))
	assertPermanence(t, c, seg, 1, 1.0)
}

type flagHandler struct {
	createSegment, destroySegment, createSynapse, destroySynapse, update, destroyed *bool
}

func (h *flagHandler) OnCreateSegment(domain.SegmentID)  { *h.createSegment = true }
func (h *flagHandler) OnDestroySegment(domain.SegmentID) { *h.destroySegment = true }
func (h *flagHandler) OnCreateSynapse(domain.SynapseID)  { *h.createSynapse = true }
func (h *flagHandler) OnDestroySynapse(domain.SynapseID) { *h.destroySynapse = true }
func (h *flagHandler) OnUpdateSynapsePermanence(domain.SynapseID, float32) {
	*h.update = true
}
func (h *flagHandler) Destroy() { *h.destroyed = true }

func TestEventHandlerLifecycle(t *testing.T) {
	c := New(8)

	var createSegFlag, destroySegFlag, createSynFlag, destroySynFlag, updateFlag, destroyedFlag bool
	handler := &flagHandler{
		createSegment:  &createSegFlag,
		destroySegment: &destroySegFlag,
		createSynapse:  &createSynFlag,
		destroySynapse: &destroySynFlag,
		update:         &updateFlag,
		destroyed:      &destroyedFlag,
	}
	token := c.Subscribe(handler)

	seg, err := c.CreateSegment(0)
	require.NoError(t, err)
	assert.True(t, createSegFlag)

	y, err := c.CreateSynapse(seg, 1, 0.5)
	require.NoError(t, err)
	assert.True(t, createSynFlag)

	require.NoError(t, c.UpdateSynapsePermanence(y, 0.6))
	assert.True(t, updateFlag)

	require.NoError(t, c.DestroySynapse(y))
	assert.True(t, destroySynFlag)

	require.NoError(t, c.DestroySegment(seg))
	assert.True(t, destroySegFlag)

	assert.False(t, destroyedFlag)
	c.Unsubscribe(token)
	assert.True(t, destroyedFlag)
}

func TestDuplicateSynapseIsRejected(t *testing.T) {
	c := New(4)
	seg, err := c.CreateSegment(0)
	require.NoError(t, err)
	_, err = c.CreateSynapse(seg, 1, 0.5)
	require.NoError(t, err)

	_, err = c.CreateSynapse(seg, 1, 0.6)
	require.Error(t, err)
	var precondErr *domain.PreconditionError
	require.ErrorAs(t, err, &precondErr)
	assert.Equal(t, domain.PreconditionDuplicateSynapse, precondErr.Type)
}

func TestDestroyedHandleIsAPreconditionViolation(t *testing.T) {
	c := New(4)
	seg, err := c.CreateSegment(0)
	require.NoError(t, err)
	y, err := c.CreateSynapse(seg, 1, 0.5)
	require.NoError(t, err)

	require.NoError(t, c.DestroySynapse(y))
	err = c.DestroySynapse(y)
	require.Error(t, err)
	var precondErr *domain.PreconditionError
	require.ErrorAs(t, err, &precondErr)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	c := New(64)
	seg1, err := c.CreateSegment(3)
	require.NoError(t, err)
	_, err = c.CreateSynapse(seg1, 10, 0.4)
	require.NoError(t, err)
	_, err = c.CreateSynapse(seg1, 11, 0.9)
	require.NoError(t, err)

	seg2, err := c.CreateSegment(7)
	require.NoError(t, err)
	_, err = c.CreateSynapse(seg2, 20, 0.2)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, c.Save(&buf))

	restored := New(0)
	require.NoError(t, restored.Load(&buf))

	assert.True(t, c.Equals(restored))
}

func TestMapSegmentsToCells(t *testing.T) {
	c := New(16)
	s1, err := c.CreateSegment(4)
	require.NoError(t, err)
	s2, err := c.CreateSegment(9)
	require.NoError(t, err)

	out := make([]domain.CellID, 2)
	require.NoError(t, c.MapSegmentsToCells([]domain.SegmentID{s1, s2}, out))
	assert.Equal(t, domain.CellID(4), out[0])
	assert.Equal(t, domain.CellID(9), out[1])
}

func mustCreateSynapse(t *testing.T, c *Connections, seg domain.SegmentID, cell domain.CellID, perm float32) domain.SynapseID {
	t.Helper()
	y, err := c.CreateSynapse(seg, cell, perm)
	require.NoError(t, err)
	return y
}

func assertPermanence(t *testing.T, c *Connections, seg domain.SegmentID, cell domain.CellID, want float32) {
	t.Helper()
	syns, err := c.SynapsesForSegment(seg)
	require.NoError(t, err)
	for _, y := range syns {
		data, err := c.DataForSynapse(y)
		require.NoError(t, err)
		if data.PresynapticCell == cell {
			assert.InDelta(t, want, data.Permanence, 1e-6)
			return
		}
	}
	t.Fatalf("no synapse from cell %d found on segment", cell)
}
