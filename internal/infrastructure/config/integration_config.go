package config

import (
	"fmt"
	"time"
)

// IntegrationConfig manages the complete, validated integration
// configuration used when standing up the connections API in a test or
// deployment harness, as opposed to the env-var Config in config.go that
// cmd/api reads at process start.
type IntegrationConfig struct {
	Application *ApplicationConfig        `json:"application" validate:"required"`
	Server      *IntegrationServerConfig  `json:"server" validate:"required"`
	Performance *PerformanceConfig        `json:"performance" validate:"required"`
	Logging     *IntegrationLoggingConfig `json:"logging" validate:"required"`
	Metrics     *IntegrationMetricsConfig `json:"metrics" validate:"required"`
}

// ApplicationConfig holds complete application configuration.
type ApplicationConfig struct {
	Name        string             `json:"name" validate:"required"`
	Version     string             `json:"version" validate:"required"`
	Environment string             `json:"environment" validate:"required,oneof=development production testing"`
	Connections *ConnectionsConfig `json:"connections" validate:"required"`
	Features    *FeatureConfig     `json:"features" validate:"required"`
}

// IntegrationServerConfig holds HTTP server configuration for production
// deployment.
type IntegrationServerConfig struct {
	Host            string        `json:"host" validate:"required"`
	Port            int           `json:"port" validate:"required,min=1,max=65535"`
	ReadTimeout     time.Duration `json:"read_timeout" validate:"required"`
	WriteTimeout    time.Duration `json:"write_timeout" validate:"required"`
	IdleTimeout     time.Duration `json:"idle_timeout" validate:"required"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" validate:"required"`
	MaxHeaderBytes  int           `json:"max_header_bytes" validate:"required,min=1"`
	EnableProfiling bool          `json:"enable_profiling"`
	EnableCORS      bool          `json:"enable_cors"`
	TrustedProxies  []string      `json:"trusted_proxies"`
}

// Address returns the server address in host:port format.
func (s *IntegrationServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PerformanceConfig holds performance tuning parameters for the
// connections store and the HTTP surface in front of it.
type PerformanceConfig struct {
	MaxConcurrentRequests int  `json:"max_concurrent_requests" validate:"required,min=1,max=1000"`
	ResponseTimeTargetMs  int  `json:"response_time_target_ms" validate:"required,min=1,max=1000"`
	GCTargetPercentage    int  `json:"gc_target_percentage" validate:"required,min=10,max=500"`
	MemoryLimitMB         int  `json:"memory_limit_mb" validate:"required,min=100,max=10000"`
	RequestTimeoutMs      int  `json:"request_timeout_ms" validate:"required,min=100,max=30000"`
	EnableGCOptimization  bool `json:"enable_gc_optimization"`
	EnableRequestLimiting bool `json:"enable_request_limiting"`
}

// IntegrationLoggingConfig holds logging configuration.
type IntegrationLoggingConfig struct {
	Level            string `json:"level" validate:"required,oneof=debug info warn error"`
	Format           string `json:"format" validate:"required,oneof=json text"`
	EnableStructured bool   `json:"enable_structured"`
	LogRequests      bool   `json:"log_requests"`
	LogResponses     bool   `json:"log_responses"`
	LogPerformance   bool   `json:"log_performance"`
}

// IntegrationMetricsConfig holds metrics collection configuration.
type IntegrationMetricsConfig struct {
	Enabled            bool          `json:"enabled"`
	CollectionInterval time.Duration `json:"collection_interval" validate:"required"`
	RetentionPeriod    time.Duration `json:"retention_period" validate:"required"`
	EnablePerformance  bool          `json:"enable_performance"`
	EnableHealthChecks bool          `json:"enable_health_checks"`
	ExportPrometheus   bool          `json:"export_prometheus"`
	PrometheusPort     int           `json:"prometheus_port" validate:"min=1,max=65535"`
}

// FeatureConfig holds feature flags and configuration.
type FeatureConfig struct {
	EnableDebugEndpoints   bool `json:"enable_debug_endpoints"`
	EnableMetricsEndpoints bool `json:"enable_metrics_endpoints"`
	EnableSnapshotEndpoint bool `json:"enable_snapshot_endpoint"`
}

// NewDefaultIntegrationConfig creates a default integration configuration.
func NewDefaultIntegrationConfig() *IntegrationConfig {
	return &IntegrationConfig{
		Application: &ApplicationConfig{
			Name:        "HTM Connections API",
			Version:     "1.0.0",
			Environment: "production",
			Connections: &ConnectionsConfig{
				NumCells:         2048,
				DefaultThreshold: 0.5,
				DefaultIncrement: 0.1,
				DefaultDecrement: 0.01,
			},
			Features: &FeatureConfig{
				EnableDebugEndpoints:   false,
				EnableMetricsEndpoints: true,
				EnableSnapshotEndpoint: true,
			},
		},
		Server: &IntegrationServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			EnableProfiling: false,
			EnableCORS:      true,
			TrustedProxies:  []string{"127.0.0.1", "::1"},
		},
		Performance: &PerformanceConfig{
			MaxConcurrentRequests: 100,
			ResponseTimeTargetMs:  100,
			GCTargetPercentage:    100,
			MemoryLimitMB:         512,
			RequestTimeoutMs:      5000,
			EnableGCOptimization:  true,
			EnableRequestLimiting: true,
		},
		Logging: &IntegrationLoggingConfig{
			Level:            "info",
			Format:           "json",
			EnableStructured: true,
			LogRequests:      true,
			LogResponses:     false,
			LogPerformance:   true,
		},
		Metrics: &IntegrationMetricsConfig{
			Enabled:            true,
			CollectionInterval: 30 * time.Second,
			RetentionPeriod:    24 * time.Hour,
			EnablePerformance:  true,
			EnableHealthChecks: true,
			ExportPrometheus:   true,
			PrometheusPort:     9090,
		},
	}
}

// Validate performs comprehensive validation of the integration
// configuration.
func (ic *IntegrationConfig) Validate() error {
	if ic.Application == nil {
		return fmt.Errorf("application configuration is required")
	}
	if ic.Server == nil {
		return fmt.Errorf("server configuration is required")
	}
	if ic.Performance == nil {
		return fmt.Errorf("performance configuration is required")
	}
	if ic.Logging == nil {
		return fmt.Errorf("logging configuration is required")
	}
	if ic.Metrics == nil {
		return fmt.Errorf("metrics configuration is required")
	}

	if err := ic.validateApplication(); err != nil {
		return fmt.Errorf("application config validation failed: %w", err)
	}
	if err := ic.validateServer(); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}
	if err := ic.validatePerformance(); err != nil {
		return fmt.Errorf("performance config validation failed: %w", err)
	}

	return nil
}

func (ic *IntegrationConfig) validateApplication() error {
	app := ic.Application

	if app.Name == "" {
		return fmt.Errorf("application name is required")
	}
	if app.Version == "" {
		return fmt.Errorf("application version is required")
	}
	if app.Connections == nil {
		return fmt.Errorf("connections configuration is required")
	}
	if app.Connections.NumCells <= 0 {
		return fmt.Errorf("connections num_cells must be positive")
	}
	if app.Connections.DefaultThreshold < 0 || app.Connections.DefaultThreshold > 1 {
		return fmt.Errorf("connections default_threshold must be between 0 and 1")
	}

	return nil
}

func (ic *IntegrationConfig) validateServer() error {
	server := ic.Server

	if server.Port <= 0 || server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535")
	}
	if server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}
	if server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	return nil
}

func (ic *IntegrationConfig) validatePerformance() error {
	perf := ic.Performance

	if perf.MaxConcurrentRequests <= 0 || perf.MaxConcurrentRequests > 1000 {
		return fmt.Errorf("max concurrent requests must be between 1 and 1000")
	}
	if perf.ResponseTimeTargetMs <= 0 || perf.ResponseTimeTargetMs > 1000 {
		return fmt.Errorf("response time target must be between 1 and 1000 ms")
	}

	return nil
}
