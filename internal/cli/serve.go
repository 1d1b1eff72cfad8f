package cli

import (
	"fmt"

	"interviewcoach/internal/ai"
	"interviewcoach/internal/config"
	"interviewcoach/internal/errors"
	"interviewcoach/internal/events"
	"interviewcoach/internal/pdfco"
	"interviewcoach/internal/server"
	"interviewcoach/internal/storage"
	"interviewcoach/internal/utils"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the interview HTTP and WebSocket server",
	Long: `Start the HTTP server for the interview flow.

Available endpoints:
- POST /api/generate-questions: Generate questions from a resume and issue the interview token
- POST /api/analyze-tone: Classify the tone of the candidate's answers
- POST /api/interview-feedback: Evaluate a role-prefixed transcript
- POST /api/extract-resume: Extract resume text and candidate name from a PDF
- POST /api/feedback: Evaluate and store feedback for an interview
- GET /api/interviews/{id}/feedback: Stored feedback
- GET /ws/interview: Live interview session
- GET /health: Health check endpoint
- GET /stats: Server statistics and rate limiting info

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server, mutual
- Use --cert-file and --key-file for TLS certificates
- Use --ca-file for mutual TLS client certificate verification`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("tls-mode", "", "TLS mode: disabled, server, mutual (overrides config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
	serveCmd.Flags().String("ca-file", "", "CA certificate file for client cert verification (PEM, overrides config)")
}

// applyServeFlags copies explicitly set flags over the loaded configuration
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	overrides := map[string]*string{
		"port":      &cfg.Server.Port,
		"host":      &cfg.Server.Host,
		"tls-mode":  &cfg.Server.TLS.Mode,
		"cert-file": &cfg.Server.TLS.CertFile,
		"key-file":  &cfg.Server.TLS.KeyFile,
		"ca-file":   &cfg.Server.TLS.CAFile,
	}
	for flag, target := range overrides {
		if !cmd.Flags().Changed(flag) {
			continue
		}
		if v, err := cmd.Flags().GetString(flag); err == nil {
			*target = v
		}
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	applyServeFlags(cmd, cfg)

	// Validate TLS configuration after applying overrides
	if err := cfg.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	svcs, err := ai.NewServices(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create AI services: %w", err)
	}
	defer func() {
		if err := svcs.Close(); err != nil {
			logger.LogError(err, "Failed to close AI services")
		}
	}()

	store, err := storage.New(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("failed to open feedback store: %w", err)
	}
	publisher := events.NewPublisher(cfg.Events, logger)

	var pdf server.ResumeExtractor
	if cfg.PDFCo.APIKey != "" {
		pdf = pdfco.NewClient(cfg.PDFCo, logger)
	} else {
		logger.Warn("PDF.co API key not configured, resume upload is disabled")
	}

	if watcher := startPromptWatcher(cfg, logger); watcher != nil {
		defer func() {
			if err := watcher.Stop(); err != nil {
				logger.LogError(err, "Failed to stop prompt watcher")
			}
		}()
	}

	deps := server.DependenciesFromServices(svcs, store, publisher, pdf)
	srv := server.NewServer(cfg, server.ServerConfigFrom(cfg, Version), deps, logger)
	return srv.Start(cmd.Context())
}

// startPromptWatcher reloads prompt files when they change on disk
func startPromptWatcher(cfg *config.Config, logger *errors.Logger) *utils.FileWatcher {
	files := cfg.PromptFiles()
	if !cfg.App.WatchPrompts || len(files) == 0 {
		return nil
	}

	watcher := utils.NewFileWatcher("prompts", files, 0, func() {
		if err := cfg.ReloadPrompts(); err != nil {
			logger.LogError(err, "Failed to reload prompt files, keeping previous prompts")
			return
		}
		logger.Info("Prompt files reloaded", "files", len(files))
	}, logger)

	if err := watcher.Start(); err != nil {
		logger.LogError(err, "Failed to watch prompt files")
		return nil
	}
	return watcher
}
