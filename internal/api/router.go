package api

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/htm-project/neural-api/internal/ports"
)

// RouterImpl implements the Router interface.
type RouterImpl struct {
	connectionsHandler ports.ConnectionsHandler
	healthHandler      ports.HealthHandler
	metricsHandler     ports.MetricsHandler
	loggingMiddleware  ports.LoggingMiddleware
	errorMiddleware    ports.ErrorMiddleware
	metricsMiddleware  ports.MetricsMiddleware
	corsMiddleware     ports.CORSMiddleware
}

// NewRouter creates a new router.
func NewRouter(
	connectionsHandler ports.ConnectionsHandler,
	healthHandler ports.HealthHandler,
	metricsHandler ports.MetricsHandler,
	loggingMiddleware ports.LoggingMiddleware,
	errorMiddleware ports.ErrorMiddleware,
	metricsMiddleware ports.MetricsMiddleware,
	corsMiddleware ports.CORSMiddleware,
) ports.Router {
	return &RouterImpl{
		connectionsHandler: connectionsHandler,
		healthHandler:      healthHandler,
		metricsHandler:     metricsHandler,
		loggingMiddleware:  loggingMiddleware,
		errorMiddleware:    errorMiddleware,
		metricsMiddleware:  metricsMiddleware,
		corsMiddleware:     corsMiddleware,
	}
}

// SetupRoutes configures all application routes.
func (r *RouterImpl) SetupRoutes(engine *gin.Engine) error {
	if err := r.ApplyMiddleware(engine); err != nil {
		return err
	}

	if err := r.RegisterHealthRoutes(engine); err != nil {
		return err
	}

	if err := r.RegisterMetricsRoutes(engine); err != nil {
		return err
	}

	apiV1 := engine.Group("/api/v1")
	if err := r.RegisterAPIRoutes(apiV1); err != nil {
		return err
	}

	engine.GET("/", r.handleRoot)

	return nil
}

// RegisterAPIRoutes registers the /api/v1/connections routes that drive
// the Connections store.
func (r *RouterImpl) RegisterAPIRoutes(group *gin.RouterGroup) error {
	if r.connectionsHandler == nil {
		return &RouterError{Route: "/api/v1/connections", Message: "connections handler not available"}
	}

	connections := group.Group("/connections")

	connections.POST("/segments", r.connectionsHandler.CreateSegment)
	connections.DELETE("/segments/:id", r.connectionsHandler.DestroySegment)
	connections.GET("/cells/:cell/segments", r.connectionsHandler.SegmentsForCell)

	connections.POST("/segments/:id/synapses", r.connectionsHandler.CreateSynapse)
	connections.DELETE("/synapses/:id", r.connectionsHandler.DestroySynapse)
	connections.PUT("/synapses/:id/permanence", r.connectionsHandler.UpdateSynapsePermanence)

	connections.POST("/segments/:id/adapt", r.connectionsHandler.AdaptSegment)
	connections.POST("/activity", r.connectionsHandler.ComputeActivity)

	connections.GET("/snapshot", r.connectionsHandler.SaveSnapshot)
	connections.POST("/snapshot", r.connectionsHandler.LoadSnapshot)

	return nil
}

// RegisterHealthRoutes registers health check routes.
func (r *RouterImpl) RegisterHealthRoutes(engine *gin.Engine) error {
	if r.healthHandler == nil {
		return &RouterError{Route: "/health", Message: "health handler not available"}
	}

	healthCheck := func(c *gin.Context) {
		result, err := r.healthHandler.HandleHealthCheck(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		status := http.StatusOK
		if healthy, ok := result["healthy"].(bool); ok && !healthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, result)
	}

	engine.GET("/health", healthCheck)
	engine.GET("/health/ready", healthCheck) // Kubernetes readiness probe
	engine.GET("/health/live", healthCheck)  // Kubernetes liveness probe

	return nil
}

// RegisterMetricsRoutes registers the metrics endpoint.
func (r *RouterImpl) RegisterMetricsRoutes(engine *gin.Engine) error {
	if r.metricsHandler == nil {
		return &RouterError{Route: "/metrics", Message: "metrics handler not available"}
	}

	engine.GET("/metrics", func(c *gin.Context) {
		result, err := r.metricsHandler.HandleMetrics(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
	})

	return nil
}

// ApplyMiddleware applies middleware to routes.
func (r *RouterImpl) ApplyMiddleware(engine *gin.Engine) error {
	// Recovery middleware (should be first)
	engine.Use(gin.Recovery())

	if r.corsMiddleware != nil {
		engine.Use(r.corsMiddleware.Apply())
	}

	if r.loggingMiddleware != nil {
		engine.Use(r.loggingMiddleware.Apply())
	}

	if r.metricsMiddleware != nil {
		engine.Use(r.metricsMiddleware.Apply())
	}

	return nil
}

// handleRoot handles the root endpoint.
func (r *RouterImpl) handleRoot(c *gin.Context) {
	endpoints := map[string]string{
		"create_segment":            "POST /api/v1/connections/segments",
		"destroy_segment":           "DELETE /api/v1/connections/segments/:id",
		"segments_for_cell":         "GET /api/v1/connections/cells/:cell/segments",
		"create_synapse":            "POST /api/v1/connections/segments/:id/synapses",
		"destroy_synapse":           "DELETE /api/v1/connections/synapses/:id",
		"update_synapse_permanence": "PUT /api/v1/connections/synapses/:id/permanence",
		"adapt_segment":             "POST /api/v1/connections/segments/:id/adapt",
		"compute_activity":          "POST /api/v1/connections/activity",
		"snapshot":                  "GET/POST /api/v1/connections/snapshot",
		"health":                    "/health",
		"metrics":                   "/metrics",
	}

	c.JSON(http.StatusOK, gin.H{
		"service":       "HTM Connections API",
		"version":       "1.0.0",
		"status":        "running",
		"endpoints":     endpoints,
		"documentation": "https://github.com/htm-project/neural-api",
		"features":      []string{"connections_store", "health_monitoring", "metrics"},
	})
}

// RouterError represents a router configuration error.
type RouterError struct {
	Route   string
	Message string
}

// Error implements the error interface.
func (e *RouterError) Error() string {
	return "Router error for route '" + e.Route + "': " + e.Message
}

// MiddlewareFactory provides methods to create middleware instances.
type MiddlewareFactory struct{}

// NewMiddlewareFactory creates a new middleware factory.
func NewMiddlewareFactory() *MiddlewareFactory {
	return &MiddlewareFactory{}
}

// CreateLoggingMiddleware creates a logging middleware.
func (mf *MiddlewareFactory) CreateLoggingMiddleware() ports.LoggingMiddleware {
	return &LoggingMiddlewareImpl{}
}

// CreateErrorMiddleware creates an error handling middleware.
func (mf *MiddlewareFactory) CreateErrorMiddleware() ports.ErrorMiddleware {
	return &ErrorMiddlewareImpl{}
}

// CreateMetricsMiddleware creates a metrics collection middleware.
func (mf *MiddlewareFactory) CreateMetricsMiddleware(collector ports.MetricsCollector) ports.MetricsMiddleware {
	return &MetricsMiddlewareImpl{collector: collector}
}

// CreateCORSMiddleware creates a CORS handling middleware.
func (mf *MiddlewareFactory) CreateCORSMiddleware() ports.CORSMiddleware {
	return &CORSMiddlewareImpl{}
}

// LoggingMiddlewareImpl implements the LoggingMiddleware interface.
type LoggingMiddlewareImpl struct{}

// Apply applies the logging middleware to a Gin handler.
func (lm *LoggingMiddlewareImpl) Apply() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("[%s] %s %s %d %s %s\n",
			param.TimeStamp.Format("2006/01/02 - 15:04:05"),
			param.Method,
			param.Path,
			param.StatusCode,
			param.Latency,
			param.ClientIP,
		)
	})
}

// LogRequest logs incoming requests.
func (lm *LoggingMiddlewareImpl) LogRequest(c *gin.Context) {
	// Handled by the Gin logger installed in Apply.
}

// LogResponse logs outgoing responses.
func (lm *LoggingMiddlewareImpl) LogResponse(c *gin.Context, statusCode int, responseTime int64) {
	// Handled by the Gin logger installed in Apply.
}

// ErrorMiddlewareImpl implements the ErrorMiddleware interface.
type ErrorMiddlewareImpl struct{}

// Apply applies the error handling middleware to a Gin handler.
func (em *ErrorMiddlewareImpl) Apply() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if recovered := recover(); recovered != nil {
				em.HandlePanic(c, recovered)
			}
		}()

		c.Next()

		if len(c.Errors) > 0 {
			em.HandleError(c, c.Errors.Last())
		}
	}
}

// HandleError processes and logs errors.
func (em *ErrorMiddlewareImpl) HandleError(c *gin.Context, err error) {
	log.Printf("request error: %v", err)

	if !c.Writer.Written() {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"details": err.Error(),
		})
	}
}

// HandlePanic recovers from panics and returns appropriate error response.
func (em *ErrorMiddlewareImpl) HandlePanic(c *gin.Context, recovered interface{}) {
	log.Printf("recovered from panic: %v", recovered)

	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "Internal server error",
		"details": "An unexpected error occurred",
	})

	c.Abort()
}

// MetricsMiddlewareImpl implements the MetricsMiddleware interface.
type MetricsMiddlewareImpl struct {
	collector ports.MetricsCollector
}

// Apply applies the metrics collection middleware to a Gin handler.
func (mm *MetricsMiddlewareImpl) Apply() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		mm.RecordRequest(c)

		c.Next()

		duration := time.Since(start)
		mm.RecordResponse(c, c.Writer.Status(), duration.Milliseconds())
	}
}

// RecordRequest records request metrics.
func (mm *MetricsMiddlewareImpl) RecordRequest(c *gin.Context) {
	if mm.collector != nil {
		mm.collector.IncrementRequestCount()
	}
}

// RecordResponse records response metrics.
func (mm *MetricsMiddlewareImpl) RecordResponse(c *gin.Context, statusCode int, responseTime int64) {
	if mm.collector == nil {
		return
	}
	mm.collector.RecordResponseTime(responseTime)
	if statusCode >= http.StatusBadRequest {
		mm.collector.IncrementErrorCount()
	}
}

// CORSMiddlewareImpl implements the CORSMiddleware interface.
type CORSMiddlewareImpl struct{}

// Apply applies the CORS handling middleware to a Gin handler.
func (cm *CORSMiddlewareImpl) Apply() gin.HandlerFunc {
	return func(c *gin.Context) {
		cm.SetCORSHeaders(c)

		if c.Request.Method == "OPTIONS" {
			cm.HandlePreflight(c)
			return
		}

		c.Next()
	}
}

// SetCORSHeaders sets appropriate CORS headers.
func (cm *CORSMiddlewareImpl) SetCORSHeaders(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
	c.Header("Access-Control-Max-Age", "86400")
}

// HandlePreflight handles CORS preflight requests.
func (cm *CORSMiddlewareImpl) HandlePreflight(c *gin.Context) {
	c.Status(http.StatusOK)
	c.Abort()
}
