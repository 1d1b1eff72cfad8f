package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"time"

	"interviewcoach/internal/ai"
)

type breakerReporter interface {
	CircuitBreakerStats() map[string]any
}

type modelReporter interface {
	GetModelInfo(ctx context.Context) *ai.ModelInfo
}

// getHealthCheckTimeout returns the configured health check timeout
func (s *Server) getHealthCheckTimeout() time.Duration {
	if t := s.AppConfig.Observability.HealthCheck.Timeout; t > 0 {
		return t
	}
	return 5 * time.Second
}

// healthHandler reports AI breakers, storage and event publishing status
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.getHealthCheckTimeout())
	defer cancel()

	response := map[string]any{
		"status":  "healthy",
		"service": "interviewcoach",
		"version": s.Version,
	}

	breakers, breakersHealthy := s.checkCircuitBreakerHealth()
	response["circuit_breakers"] = breakers

	if s.AppConfig.Observability.CustomMetrics.AIOperations.TrackModelInfo {
		response["ai_models"] = s.checkAIModelsHealth(ctx)
	}

	storageStatus, storageHealthy := s.checkStorageHealth(ctx)
	response["storage"] = storageStatus

	response["events"] = map[string]any{
		"enabled": s.Deps.Publisher.Enabled(),
	}

	if s.sessions != nil {
		response["sessions"] = map[string]any{
			"active": s.sessions.Active(),
			"total":  s.sessions.Total(),
			"max":    s.AppConfig.Interview.MaxSessions,
		}
	}

	certHealthy := true
	if certStatus := s.checkCertificateHealth(); certStatus != nil {
		response["certificates"] = certStatus
		if healthy, ok := certStatus["healthy"].(bool); ok {
			certHealthy = healthy
		}
	}

	status := http.StatusOK
	if !breakersHealthy || !storageHealthy || !certHealthy {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

func (s *Server) generators() map[string]any {
	return map[string]any{
		"questions": s.Deps.Questions,
		"tone":      s.Deps.Tone,
		"feedback":  s.Deps.Feedback,
		"extract":   s.Deps.Extract,
	}
}

// checkCircuitBreakerHealth collects breaker stats of every AI operation
func (s *Server) checkCircuitBreakerHealth() (map[string]any, bool) {
	status := make(map[string]any)
	healthy := true
	for op, gen := range s.generators() {
		reporter, ok := gen.(breakerReporter)
		if !ok {
			status[op] = map[string]any{"enabled": false}
			continue
		}
		stats := reporter.CircuitBreakerStats()
		if ok, exists := stats["overall_healthy"].(bool); exists && !ok {
			healthy = false
		}
		status[op] = stats
	}
	return status, healthy
}

// checkAIModelsHealth asks each provider about its model
func (s *Server) checkAIModelsHealth(ctx context.Context) map[string]any {
	status := make(map[string]any)
	for op, gen := range s.generators() {
		if reporter, ok := gen.(modelReporter); ok {
			status[op] = reporter.GetModelInfo(ctx)
		}
	}
	return status
}

func (s *Server) checkStorageHealth(ctx context.Context) (map[string]any, bool) {
	if s.Deps.Store == nil {
		return map[string]any{"configured": false}, true
	}
	status := map[string]any{
		"configured": true,
		"driver":     s.Deps.Store.Driver(),
		"healthy":    true,
	}
	if err := s.Deps.Store.Ping(ctx); err != nil {
		status["healthy"] = false
		status["error"] = err.Error()
		return status, false
	}
	return status, true
}

// checkCertificateHealth checks the health of TLS certificates
func (s *Server) checkCertificateHealth() map[string]any {
	if s.CertificateManager == nil {
		return nil
	}

	certStatus := make(map[string]any)

	timeToExpiry, err := s.CertificateManager.CheckExpiry()
	if err != nil {
		certStatus["healthy"] = false
		certStatus["error"] = fmt.Sprintf("Failed to check certificate expiry: %v", err)
		return certStatus
	}

	criticalThreshold := 24 * time.Hour
	warningThreshold := 7 * 24 * time.Hour

	certStatus["time_to_expiry_hours"] = int(timeToExpiry.Hours())

	switch {
	case timeToExpiry <= 0:
		certStatus["healthy"] = false
		certStatus["status"] = "expired"
	case timeToExpiry <= criticalThreshold:
		certStatus["healthy"] = false
		certStatus["status"] = "critical"
	case timeToExpiry <= warningThreshold:
		certStatus["healthy"] = true
		certStatus["status"] = "warning"
	default:
		certStatus["healthy"] = true
		certStatus["status"] = "ok"
	}

	certStatus["auto_reload"] = map[string]any{
		"enabled":       s.TLSConfig.AutoReload,
		"watcher":       s.CertificateManager.WatcherRunning(),
		"watched_files": s.CertificateManager.WatchedFiles(),
	}
	certStatus["metrics"] = s.CertificateManager.GetMetrics()

	return certStatus
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "interviewcoach",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
		},
		"rate_limiting": s.RateLimiter.GetStats(),
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	if s.sessions != nil {
		response["sessions"] = map[string]any{
			"active": s.sessions.Active(),
			"total":  s.sessions.Total(),
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("Failed to close request body: %v", err)
		}
	}()

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	return nil
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   error,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
