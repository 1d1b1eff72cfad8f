package server

import (
	"net/http"
	"strings"

	"interviewcoach/internal/observability"
)

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes(om *observability.ObservabilityManager) *http.ServeMux {
	mux := http.NewServeMux()

	// Add middleware layers with observability
	rateLimitHandler := s.rateLimitMiddleware(om)
	requestLimitHandler := s.requestSizeLimitMiddleware()
	api := func(h http.HandlerFunc) http.HandlerFunc {
		return rateLimitHandler(s.authMiddleware(requestLimitHandler(h)))
	}

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)

	mux.HandleFunc("POST /api/generate-questions", api(s.createQuestionsHandler(om)))
	mux.HandleFunc("POST /api/analyze-tone", api(s.createToneHandler(om)))
	mux.HandleFunc("POST /api/interview-feedback", api(s.createFeedbackHandler(om)))
	mux.HandleFunc("POST /api/extract-resume", api(s.createExtractHandler(om)))
	mux.HandleFunc("POST /api/feedback", api(s.createSaveFeedbackHandler(om)))
	mux.HandleFunc("GET /api/interviews/{id}/feedback", api(s.createGetFeedbackHandler(om)))

	s.sessions = s.newSessionHandler(om)
	mux.HandleFunc("GET /ws/interview", s.Guard.RequireToken(s.sessions.ServeHTTP))

	interviewPrefix := s.interviewPrefix()
	mux.HandleFunc("GET "+interviewPrefix+"/{id}/feedback", s.feedbackPageHandler)
	mux.HandleFunc("GET "+interviewPrefix+"/", s.Guard.Middleware(s.interviewPageHandler))
	mux.HandleFunc("GET "+interviewPrefix, s.Guard.Middleware(s.interviewPageHandler))

	if dir := s.AppConfig.Interview.StaticDir; dir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(dir)))
	}

	return mux
}

// interviewPrefix is the guarded page prefix without a trailing slash
func (s *Server) interviewPrefix() string {
	prefix := strings.TrimSuffix(s.AppConfig.Interview.GuardedPrefix, "/")
	if prefix == "" {
		return "/interview"
	}
	return prefix
}

// authMiddleware provides API key authentication
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Skip authentication if no API keys are configured
		if len(s.APIKeys) == 0 {
			next(w, r)
			return
		}

		apiKey := requestAPIKey(r)

		if apiKey == "" {
			s.Logger.Info("Authentication failed: missing API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr)
			writeErrorResponse(w, "Missing API key", "X-API-Key header or Authorization Bearer token required", http.StatusUnauthorized)
			return
		}

		// Validate API key
		if !s.APIKeys[apiKey] {
			s.Logger.Info("Authentication failed: invalid API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr,
				"api_key_prefix", maskAPIKey(apiKey))
			writeErrorResponse(w, "Invalid API key", "Unauthorized access", http.StatusUnauthorized)
			return
		}

		// Log successful authentication
		s.Logger.Debug("API authentication successful",
			"endpoint", r.URL.Path,
			"client_ip", r.RemoteAddr,
			"api_key_prefix", maskAPIKey(apiKey))

		next(w, r)
	}
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if s.MaxRequestSize > 0 {
				// Limit the request body size
				r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
			}

			next(w, r)
		}
	}
}

// maskAPIKey masks an API key for logging (shows only first 8 characters)
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}
