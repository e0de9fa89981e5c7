package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/htm-project/neural-api/internal/api"
	"github.com/htm-project/neural-api/internal/handlers"
	"github.com/htm-project/neural-api/internal/infrastructure/validation"
	"github.com/htm-project/neural-api/internal/services"
)

type stubMetricsCollector struct{}

func (stubMetricsCollector) IncrementRequestCount()                {}
func (stubMetricsCollector) IncrementErrorCount()                  {}
func (stubMetricsCollector) RecordProcessingTime(durationMs int64) {}
func (stubMetricsCollector) RecordResponseTime(durationMs int64)   {}
func (stubMetricsCollector) SetConcurrentRequests(count int)       {}
func (stubMetricsCollector) Reset()                                {}

func (stubMetricsCollector) GetMetrics() map[string]interface{} {
	return map[string]interface{}{}
}

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	connectionsService := services.NewConnectionsService(64, stubMetricsCollector{})
	validator := validation.New()

	connectionsHandler := handlers.NewConnectionsHandler(connectionsService, validator)
	healthHandler := handlers.NewHealthHandler(connectionsService, stubMetricsCollector{})
	metricsHandler := handlers.NewMetricsHandler(connectionsService, stubMetricsCollector{})

	middlewareFactory := api.NewMiddlewareFactory()
	router := api.NewRouter(
		connectionsHandler,
		healthHandler,
		metricsHandler,
		middlewareFactory.CreateLoggingMiddleware(),
		middlewareFactory.CreateErrorMiddleware(),
		middlewareFactory.CreateMetricsMiddleware(stubMetricsCollector{}),
		middlewareFactory.CreateCORSMiddleware(),
	)

	engine := gin.New()
	require.NoError(t, router.SetupRoutes(engine))
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	engine := newTestEngine(t)

	rec := doJSON(t, engine, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["healthy"])
}

func TestMetricsEndpoint(t *testing.T) {
	engine := newTestEngine(t)

	rec := doJSON(t, engine, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSegmentAndSynapseLifecycle(t *testing.T) {
	engine := newTestEngine(t)

	// Create a segment on cell 3.
	rec := doJSON(t, engine, http.MethodPost, "/api/v1/connections/segments", map[string]interface{}{"cell": 3})
	require.Equal(t, http.StatusCreated, rec.Code)

	var createResp struct {
		SegmentID string `json:"segment_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &createResp))
	require.NotEmpty(t, createResp.SegmentID)

	// List segments for cell 3.
	rec = doJSON(t, engine, http.MethodGet, "/api/v1/connections/cells/3/segments", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var listResp struct {
		Segments []string `json:"segments"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listResp))
	assert.Contains(t, listResp.Segments, createResp.SegmentID)

	// Create a synapse on that segment.
	rec = doJSON(t, engine, http.MethodPost, "/api/v1/connections/segments/"+createResp.SegmentID+"/synapses",
		map[string]interface{}{"presynaptic_cell": 7, "permanence": 0.4})
	require.Equal(t, http.StatusCreated, rec.Code)

	var synapseResp struct {
		SynapseID string `json:"synapse_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &synapseResp))
	require.NotEmpty(t, synapseResp.SynapseID)

	// Updating its permanence should succeed.
	rec = doJSON(t, engine, http.MethodPut, "/api/v1/connections/synapses/"+synapseResp.SynapseID+"/permanence",
		map[string]interface{}{"permanence": 0.6})
	require.Equal(t, http.StatusOK, rec.Code)

	// Compute activity with cell 7 active should show the synapse connected.
	rec = doJSON(t, engine, http.MethodPost, "/api/v1/connections/activity",
		map[string]interface{}{"input": []int{7}, "threshold": 0.5})
	require.Equal(t, http.StatusOK, rec.Code)

	var activityResp struct {
		Connected []int32 `json:"connected"`
		Potential []int32 `json:"potential"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &activityResp))
	var totalConnected, totalPotential int32
	for _, v := range activityResp.Connected {
		totalConnected += v
	}
	for _, v := range activityResp.Potential {
		totalPotential += v
	}
	assert.Equal(t, int32(1), totalConnected)
	assert.Equal(t, int32(1), totalPotential)

	// Destroy the synapse, then the segment.
	rec = doJSON(t, engine, http.MethodDelete, "/api/v1/connections/synapses/"+synapseResp.SynapseID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, engine, http.MethodDelete, "/api/v1/connections/segments/"+createResp.SegmentID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateSegmentValidation(t *testing.T) {
	engine := newTestEngine(t)

	rec := doJSON(t, engine, http.MethodPost, "/api/v1/connections/segments", map[string]interface{}{"cell": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDestroySegmentUnknownHandle(t *testing.T) {
	engine := newTestEngine(t)

	rec := doJSON(t, engine, http.MethodDelete, "/api/v1/connections/segments/999.1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSnapshotRoundTrip(t *testing.T) {
	engine := newTestEngine(t)

	rec := doJSON(t, engine, http.MethodPost, "/api/v1/connections/segments", map[string]interface{}{"cell": 1})
	require.Equal(t, http.StatusCreated, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/connections/snapshot", nil)
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	snapshot := rec.Body.Bytes()
	require.NotEmpty(t, snapshot)

	loadReq := httptest.NewRequest(http.MethodPost, "/api/v1/connections/snapshot", bytes.NewReader(snapshot))
	loadRec := httptest.NewRecorder()
	engine.ServeHTTP(loadRec, loadReq)
	assert.Equal(t, http.StatusOK, loadRec.Code)
}
