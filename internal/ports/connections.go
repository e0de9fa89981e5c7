package ports

import (
	"context"
	"io"

	"github.com/gin-gonic/gin"
	domain "github.com/htm-project/neural-api/internal/domain/connections"
)

// ConnectionsService is the business-logic facade in front of the
// internal/connections store: it owns the single instance of Connections
// that the HTTP surface drives, and returns the store's precondition and
// snapshot errors unchanged; they are types from internal/domain/connections,
// so the handler layer can report them without reaching into the core
// package itself.
type ConnectionsService interface {
	CreateSegment(ctx context.Context, cell domain.CellID) (domain.SegmentID, error)
	DestroySegment(ctx context.Context, segment domain.SegmentID) error
	SegmentsForCell(ctx context.Context, cell domain.CellID) ([]domain.SegmentID, error)

	CreateSynapse(ctx context.Context, segment domain.SegmentID, presynapticCell domain.CellID, permanence float32) (domain.SynapseID, error)
	DestroySynapse(ctx context.Context, synapse domain.SynapseID) error
	UpdateSynapsePermanence(ctx context.Context, synapse domain.SynapseID, permanence float32) error

	AdaptSegment(ctx context.Context, segment domain.SegmentID, input map[domain.CellID]struct{}, increment, decrement float32) error
	ComputeActivity(ctx context.Context, input map[domain.CellID]struct{}, threshold float32) (connected, potential []int32, err error)

	Save(ctx context.Context, sink io.Writer) error
	Load(ctx context.Context, source io.Reader) error

	// Stats reports the store's current size, for health and metrics reporting.
	Stats(ctx context.Context) ConnectionsStats
}

// ConnectionsStats is a point-in-time summary of the store's size.
type ConnectionsStats struct {
	NumCells          int
	NumLiveSegments   int
	NumLiveSynapses   int
	SegmentFlatLength int
}

// MetricsCollector records request counts, error counts, and timings for
// the ambient HTTP layer. It has no knowledge of the connections domain.
type MetricsCollector interface {
	IncrementRequestCount()
	IncrementErrorCount()
	RecordProcessingTime(durationMs int64)
	RecordResponseTime(durationMs int64)
	SetConcurrentRequests(count int)
	GetMetrics() map[string]interface{}
	Reset()
}

// ConnectionsHandler is the gin-facing surface for every endpoint listed
// in SPEC_FULL.md §2.
type ConnectionsHandler interface {
	CreateSegment(c *gin.Context)
	DestroySegment(c *gin.Context)
	SegmentsForCell(c *gin.Context)

	CreateSynapse(c *gin.Context)
	DestroySynapse(c *gin.Context)
	UpdateSynapsePermanence(c *gin.Context)

	AdaptSegment(c *gin.Context)
	ComputeActivity(c *gin.Context)

	SaveSnapshot(c *gin.Context)
	LoadSnapshot(c *gin.Context)
}

// HealthHandler serves GET /health.
type HealthHandler interface {
	HandleHealthCheck(ctx context.Context) (map[string]interface{}, error)
	CheckDependencies(ctx context.Context) map[string]bool
	GetSystemInfo() map[string]interface{}
}

// MetricsHandler serves GET /metrics.
type MetricsHandler interface {
	HandleMetrics(ctx context.Context) (map[string]interface{}, error)
	GetPerformanceMetrics() map[string]interface{}
	GetRequestMetrics() map[string]interface{}
	GetSystemMetrics() map[string]interface{}
}

// Middleware is the common shape every piece of gin middleware below
// implements.
type Middleware interface {
	Apply() gin.HandlerFunc
}

// LoggingMiddleware logs requests and responses.
type LoggingMiddleware interface {
	Middleware
	LogRequest(c *gin.Context)
	LogResponse(c *gin.Context, statusCode int, responseTime int64)
}

// ErrorMiddleware turns panics and handler errors into HTTP responses.
type ErrorMiddleware interface {
	Middleware
	HandleError(c *gin.Context, err error)
	HandlePanic(c *gin.Context, recovered interface{})
}

// MetricsMiddleware records request/response metrics via a MetricsCollector.
type MetricsMiddleware interface {
	Middleware
	RecordRequest(c *gin.Context)
	RecordResponse(c *gin.Context, statusCode int, responseTime int64)
}

// CORSMiddleware sets CORS headers and answers preflight requests.
type CORSMiddleware interface {
	Middleware
	SetCORSHeaders(c *gin.Context)
	HandlePreflight(c *gin.Context)
}

// Router wires handlers and middleware onto a gin.Engine.
type Router interface {
	SetupRoutes(engine *gin.Engine) error
	RegisterAPIRoutes(group *gin.RouterGroup) error
	RegisterHealthRoutes(engine *gin.Engine) error
	RegisterMetricsRoutes(engine *gin.Engine) error
	ApplyMiddleware(engine *gin.Engine) error
}
