package services

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/htm-project/neural-api/internal/connections"
	domain "github.com/htm-project/neural-api/internal/domain/connections"
	"github.com/htm-project/neural-api/internal/ports"
)

// ConnectionsServiceImpl implements ports.ConnectionsService around a
// single *connections.Connections instance. The core store is single
// threaded per spec.md §5 ("caller-supplied external exclusion"); this is
// that exclusion. Reads (including Save) take the read lock; every
// mutator and Load take the write lock.
type ConnectionsServiceImpl struct {
	mu               sync.RWMutex
	store            *connections.Connections
	metricsCollector ports.MetricsCollector
	instanceID       string
	createdAt        time.Time
}

// NewConnectionsService constructs a service wrapping a freshly created
// store over numCells cells.
func NewConnectionsService(numCells int, metricsCollector ports.MetricsCollector) *ConnectionsServiceImpl {
	return &ConnectionsServiceImpl{
		store:            connections.New(numCells),
		metricsCollector: metricsCollector,
		instanceID:       "connections-service-1",
		createdAt:        time.Now(),
	}
}

func (s *ConnectionsServiceImpl) recordTiming(start time.Time) {
	if s.metricsCollector != nil {
		s.metricsCollector.RecordProcessingTime(time.Since(start).Milliseconds())
	}
}

func (s *ConnectionsServiceImpl) recordOutcome(err error) {
	if s.metricsCollector == nil {
		return
	}
	if err != nil {
		s.metricsCollector.IncrementErrorCount()
		return
	}
	s.metricsCollector.IncrementRequestCount()
}

func (s *ConnectionsServiceImpl) CreateSegment(ctx context.Context, cell domain.CellID) (domain.SegmentID, error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.recordTiming(start)

	segment, err := s.store.CreateSegment(cell)
	s.recordOutcome(err)
	return segment, err
}

func (s *ConnectionsServiceImpl) DestroySegment(ctx context.Context, segment domain.SegmentID) error {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.recordTiming(start)

	err := s.store.DestroySegment(segment)
	s.recordOutcome(err)
	return err
}

func (s *ConnectionsServiceImpl) SegmentsForCell(ctx context.Context, cell domain.CellID) ([]domain.SegmentID, error) {
	start := time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	defer s.recordTiming(start)

	segments, err := s.store.SegmentsForCell(cell)
	s.recordOutcome(err)
	return segments, err
}

func (s *ConnectionsServiceImpl) CreateSynapse(ctx context.Context, segment domain.SegmentID, presynapticCell domain.CellID, permanence float32) (domain.SynapseID, error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.recordTiming(start)

	synapse, err := s.store.CreateSynapse(segment, presynapticCell, permanence)
	s.recordOutcome(err)
	return synapse, err
}

func (s *ConnectionsServiceImpl) DestroySynapse(ctx context.Context, synapse domain.SynapseID) error {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.recordTiming(start)

	err := s.store.DestroySynapse(synapse)
	s.recordOutcome(err)
	return err
}

func (s *ConnectionsServiceImpl) UpdateSynapsePermanence(ctx context.Context, synapse domain.SynapseID, permanence float32) error {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.recordTiming(start)

	err := s.store.UpdateSynapsePermanence(synapse, permanence)
	s.recordOutcome(err)
	return err
}

func (s *ConnectionsServiceImpl) AdaptSegment(ctx context.Context, segment domain.SegmentID, input map[domain.CellID]struct{}, increment, decrement float32) error {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.recordTiming(start)

	err := s.store.AdaptSegment(segment, input, increment, decrement)
	s.recordOutcome(err)
	return err
}

func (s *ConnectionsServiceImpl) ComputeActivity(ctx context.Context, input map[domain.CellID]struct{}, threshold float32) ([]int32, []int32, error) {
	start := time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	defer s.recordTiming(start)

	flatLen := s.store.SegmentFlatListLength()
	connected := make([]int32, flatLen)
	potential := make([]int32, flatLen)

	err := s.store.ComputeActivity(connected, potential, input, threshold)
	s.recordOutcome(err)
	return connected, potential, err
}

func (s *ConnectionsServiceImpl) Save(ctx context.Context, sink io.Writer) error {
	start := time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	defer s.recordTiming(start)

	err := s.store.Save(sink)
	s.recordOutcome(err)
	return err
}

func (s *ConnectionsServiceImpl) Load(ctx context.Context, source io.Reader) error {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.recordTiming(start)

	err := s.store.Load(source)
	s.recordOutcome(err)
	return err
}

func (s *ConnectionsServiceImpl) Stats(ctx context.Context) ports.ConnectionsStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return ports.ConnectionsStats{
		NumCells:          s.store.NumCells(),
		NumLiveSegments:   s.store.NumSegments(),
		NumLiveSynapses:   s.store.NumSynapses(),
		SegmentFlatLength: s.store.SegmentFlatListLength(),
	}
}
