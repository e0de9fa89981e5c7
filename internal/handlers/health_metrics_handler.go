package handlers

import (
	"context"
	"runtime"
	"time"

	"github.com/htm-project/neural-api/internal/ports"
)

// HealthHandlerImpl implements the HealthHandler interface.
type HealthHandlerImpl struct {
	connectionsService ports.ConnectionsService
	metricsCollector   ports.MetricsCollector
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(
	connectionsService ports.ConnectionsService,
	metricsCollector ports.MetricsCollector,
) ports.HealthHandler {
	return &HealthHandlerImpl{
		connectionsService: connectionsService,
		metricsCollector:   metricsCollector,
	}
}

// HandleHealthCheck performs health checks and returns status.
func (h *HealthHandlerImpl) HandleHealthCheck(ctx context.Context) (map[string]interface{}, error) {
	healthData := make(map[string]interface{})

	dependencies := h.CheckDependencies(ctx)
	healthData["dependencies"] = dependencies
	healthData["system"] = h.GetSystemInfo()

	serviceHealth := map[string]interface{}{
		"connections_service": h.connectionsService != nil,
		"metrics_collector":   h.metricsCollector != nil,
		"uptime_seconds":      time.Since(startTime).Seconds(),
	}

	if h.connectionsService != nil {
		stats := h.connectionsService.Stats(ctx)
		serviceHealth["num_cells"] = stats.NumCells
		serviceHealth["num_live_segments"] = stats.NumLiveSegments
		serviceHealth["num_live_synapses"] = stats.NumLiveSynapses
		serviceHealth["segment_flat_length"] = stats.SegmentFlatLength
	}

	healthData["service"] = serviceHealth

	allHealthy := true
	for _, healthy := range dependencies {
		if !healthy {
			allHealthy = false
			break
		}
	}
	healthData["healthy"] = allHealthy

	return healthData, nil
}

// CheckDependencies checks the health of all dependencies.
func (h *HealthHandlerImpl) CheckDependencies(ctx context.Context) map[string]bool {
	return map[string]bool{
		"connections_service": h.connectionsService != nil,
		"metrics_collector":   h.metricsCollector != nil,
		"memory":              h.checkMemoryUsage(),
	}
}

// GetSystemInfo returns basic system information.
func (h *HealthHandlerImpl) GetSystemInfo() map[string]interface{} {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return map[string]interface{}{
		"go_version":     runtime.Version(),
		"go_os":          runtime.GOOS,
		"go_arch":        runtime.GOARCH,
		"num_cpu":        runtime.NumCPU(),
		"num_goroutines": runtime.NumGoroutine(),
		"memory": map[string]interface{}{
			"alloc_mb":       bytesToMB(memStats.Alloc),
			"total_alloc_mb": bytesToMB(memStats.TotalAlloc),
			"sys_mb":         bytesToMB(memStats.Sys),
			"num_gc":         memStats.NumGC,
		},
	}
}

// checkMemoryUsage checks if memory usage is within acceptable limits.
func (h *HealthHandlerImpl) checkMemoryUsage() bool {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	const maxMemoryMB = 1024
	return bytesToMB(memStats.Alloc) < maxMemoryMB
}

// MetricsHandlerImpl implements the MetricsHandler interface.
type MetricsHandlerImpl struct {
	connectionsService ports.ConnectionsService
	metricsCollector   ports.MetricsCollector
}

// NewMetricsHandler creates a new metrics handler.
func NewMetricsHandler(connectionsService ports.ConnectionsService, metricsCollector ports.MetricsCollector) ports.MetricsHandler {
	return &MetricsHandlerImpl{
		connectionsService: connectionsService,
		metricsCollector:   metricsCollector,
	}
}

// HandleMetrics returns current system metrics.
func (m *MetricsHandlerImpl) HandleMetrics(ctx context.Context) (map[string]interface{}, error) {
	return map[string]interface{}{
		"performance": m.GetPerformanceMetrics(),
		"requests":    m.GetRequestMetrics(),
		"system":      m.GetSystemMetrics(),
	}, nil
}

// GetPerformanceMetrics returns performance-related metrics.
func (m *MetricsHandlerImpl) GetPerformanceMetrics() map[string]interface{} {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return map[string]interface{}{
		"memory": map[string]interface{}{
			"heap_alloc_mb":    bytesToMB(memStats.HeapAlloc),
			"heap_sys_mb":      bytesToMB(memStats.HeapSys),
			"heap_idle_mb":     bytesToMB(memStats.HeapIdle),
			"heap_inuse_mb":    bytesToMB(memStats.HeapInuse),
			"heap_released_mb": bytesToMB(memStats.HeapReleased),
			"heap_objects":     memStats.HeapObjects,
		},
		"gc": map[string]interface{}{
			"num_gc":          memStats.NumGC,
			"pause_total_ns":  memStats.PauseTotalNs,
			"gc_cpu_fraction": memStats.GCCPUFraction,
		},
		"goroutines":     runtime.NumGoroutine(),
		"uptime_seconds": time.Since(startTime).Seconds(),
	}
}

// GetRequestMetrics returns request-related metrics from the collector.
func (m *MetricsHandlerImpl) GetRequestMetrics() map[string]interface{} {
	if m.metricsCollector == nil {
		return map[string]interface{}{}
	}
	return m.metricsCollector.GetMetrics()
}

// GetSystemMetrics returns system-related metrics, including the current
// size of the connections store.
func (m *MetricsHandlerImpl) GetSystemMetrics() map[string]interface{} {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics := map[string]interface{}{
		"cpu_count":  runtime.NumCPU(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"go_version": runtime.Version(),
		"memory": map[string]interface{}{
			"sys_mb":         bytesToMB(memStats.Sys),
			"total_alloc_mb": bytesToMB(memStats.TotalAlloc),
			"mallocs":        memStats.Mallocs,
			"frees":          memStats.Frees,
		},
		"timestamps": map[string]interface{}{
			"start_time":   startTime.Format(time.RFC3339),
			"current_time": time.Now().Format(time.RFC3339),
		},
	}

	if m.connectionsService != nil {
		stats := m.connectionsService.Stats(context.Background())
		metrics["connections"] = map[string]interface{}{
			"num_cells":           stats.NumCells,
			"num_live_segments":   stats.NumLiveSegments,
			"num_live_synapses":   stats.NumLiveSynapses,
			"segment_flat_length": stats.SegmentFlatLength,
		}
	}

	return metrics
}

// Utility functions

var startTime = time.Now()

// bytesToMB converts bytes to megabytes.
func bytesToMB(bytes uint64) float64 {
	return float64(bytes) / 1024 / 1024
}
