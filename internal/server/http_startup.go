package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"interviewcoach/internal/observability"
)

// Start serves until ctx is canceled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	om, err := observability.NewObservabilityManager(
		observability.ConfigFrom(s.AppConfig, s.Version), s.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer s.shutdownObservability(om)

	s.Deps.Publisher.WithRecorder(om.RecordEventPublish)

	httpServer := s.setupHTTPServer(om)
	if err := s.configureTLS(httpServer, om); err != nil {
		return err
	}

	s.displayServerInfo(os.Stdout)

	return s.serve(ctx, httpServer)
}

// shutdownObservability handles observability cleanup
func (s *Server) shutdownObservability(om *observability.ObservabilityManager) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := om.Shutdown(ctx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown observability")
	}
}

// setupHTTPServer creates and configures the HTTP server
func (s *Server) setupHTTPServer(om *observability.ObservabilityManager) *http.Server {
	mux := s.setupRoutes(om)
	handler := om.HTTPMiddleware()(mux)

	return &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.Host, s.Port),
		Handler:      handler,
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
		IdleTimeout:  s.IdleTimeout,
	}
}

// serve runs the listener until it fails or ctx is canceled
func (s *Server) serve(ctx context.Context, server *http.Server) error {
	serverErrors := make(chan error, 1)
	go func() {
		s.Logger.Info("Starting HTTP server",
			"address", server.Addr,
			"tls_enabled", server.TLSConfig != nil)

		var err error
		if server.TLSConfig != nil {
			err = server.ListenAndServeTLS("", "")
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		s.releaseResources()
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
		s.Logger.Info("Received shutdown signal, starting graceful shutdown",
			"reason", context.Cause(ctx).Error())
		return s.performGracefulShutdown(server)
	}
}

// performGracefulShutdown handles the graceful shutdown process
func (s *Server) performGracefulShutdown(server *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.Logger.Info("Shutting down HTTP server...")
	shutdownErr := server.Shutdown(shutdownCtx)
	if shutdownErr != nil {
		s.Logger.LogError(shutdownErr, "Failed to shutdown server gracefully, forcing close")
		shutdownErr = server.Close()
	}

	s.releaseResources()
	if shutdownErr == nil {
		s.Logger.Info("Server shutdown completed successfully")
	}
	return shutdownErr
}

// releaseResources stops background workers and closes outbound clients
func (s *Server) releaseResources() {
	if s.CertificateManager != nil {
		if err := s.CertificateManager.Stop(); err != nil {
			s.Logger.LogError(err, "Failed to stop certificate manager")
		}
	}

	if s.RateLimiter != nil {
		s.RateLimiter.Close()
		s.Logger.Info("Rate limiter cleaned up")
	}

	if err := s.Deps.Publisher.Close(); err != nil {
		s.Logger.LogError(err, "Failed to close event publisher")
	}
	if s.Deps.Store != nil {
		if err := s.Deps.Store.Close(); err != nil {
			s.Logger.LogError(err, "Failed to close feedback store")
		}
	}
}
