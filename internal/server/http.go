package server

import (
	"context"
	"time"

	"interviewcoach/internal/ai"
	"interviewcoach/internal/callbridge"
	"interviewcoach/internal/config"
	"interviewcoach/internal/errors"
	"interviewcoach/internal/events"
	"interviewcoach/internal/guard"
	"interviewcoach/internal/oracle"
	"interviewcoach/internal/storage"
	"interviewcoach/internal/transcript"
)

// QuestionsRequest is the body of /api/generate-questions
type QuestionsRequest struct {
	Resume   string `json:"resume"`
	Language string `json:"language"`
	Count    int    `json:"count,omitempty"`
}

// QuestionsResponse carries the generated questions and the proof token
// that unlocks the interview page
type QuestionsResponse struct {
	Questions []string `json:"questions"`
	Token     string   `json:"token"`
}

// ToneRequest is the body of /api/analyze-tone
type ToneRequest struct {
	Text string `json:"text"`
}

// FeedbackRequest is the body of /api/interview-feedback
type FeedbackRequest struct {
	Transcript string `json:"transcript"`
}

// SaveFeedbackRequest is the body of /api/feedback
type SaveFeedbackRequest struct {
	InterviewID string                `json:"interviewId"`
	UserID      string                `json:"userId"`
	FeedbackID  string                `json:"feedbackId,omitempty"`
	Transcript  transcript.Transcript `json:"transcript"`
}

// ExtractResponse is the reply of /api/extract-resume
type ExtractResponse struct {
	Text string `json:"text"`
	Name string `json:"name"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ResumeExtractor turns an uploaded PDF into text. *pdfco.Client implements it.
type ResumeExtractor interface {
	ExtractText(ctx context.Context, fileName string, data []byte) (string, error)
}

// Dependencies are the domain services behind the HTTP API
type Dependencies struct {
	Questions oracle.Generator
	Tone      oracle.Generator
	Feedback  oracle.Generator
	Extract   oracle.Generator

	Store     storage.Store
	Publisher *events.Publisher
	PDF       ResumeExtractor
}

// DependenciesFromServices wires one AI service per operation
func DependenciesFromServices(svcs *ai.Services, store storage.Store, publisher *events.Publisher, pdf ResumeExtractor) Dependencies {
	return Dependencies{
		Questions: svcs.Questions,
		Tone:      svcs.Tone,
		Feedback:  svcs.Feedback,
		Extract:   svcs.Extract,
		Store:     store,
		Publisher: publisher,
		PDF:       pdf,
	}
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// TLS Configuration
	TLSConfig config.TLSConfig

	// Certificate reloading, set when TLS auto reload is enabled
	CertificateManager *CertificateManager

	// API Authentication
	APIKeys map[string]bool

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	Deps  Dependencies
	Guard *guard.Guard

	// Oracle used by live call sessions; built in setupRoutes
	analyzer oracle.Analyzer
	sessions *callbridge.Handler

	// Logger
	Logger *errors.Logger
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	TLSConfig      config.TLSConfig
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
}

// ServerConfigFrom maps the server section of the application config
func ServerConfigFrom(cfg *config.Config, version string) ServerConfig {
	return ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        version,
		TLSConfig:      cfg.Server.TLS,
		APIKeys:        cfg.Server.APIKeys,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: cfg.Server.MaxRequestSize,
		RateLimit:      &cfg.Server.RateLimit,
	}
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, deps Dependencies, logger *errors.Logger) *Server {
	// Convert API keys slice to map for O(1) lookup
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.BurstCapacity,
			logger,
		)
	}

	secureCookie := cfg.TLSConfig.Mode != "" && cfg.TLSConfig.Mode != "disabled"

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		TLSConfig:      cfg.TLSConfig,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		Deps:           deps,
		Guard:          guard.New(appCfg.Interview, secureCookie, logger),
		Logger:         logger,
	}
}
