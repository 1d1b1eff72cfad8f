package server

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"

	"interviewcoach/internal/config"
	"interviewcoach/internal/errors"
	"interviewcoach/internal/observability"
)

// configureTLS attaches a TLS config to httpServer unless TLS is disabled.
// With auto reload the certificate comes from a CertificateManager.
func (s *Server) configureTLS(httpServer *http.Server, om *observability.ObservabilityManager) error {
	switch s.TLSConfig.Mode {
	case "disabled", "":
		s.Logger.Info("TLS disabled, serving plain HTTP", "address", httpServer.Addr)
		return nil
	case "server", "mutual":
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", s.TLSConfig.Mode)
	}

	var getCert func(*tls.ClientHelloInfo) (*tls.Certificate, error)
	if s.TLSConfig.AutoReload {
		cm := NewCertificateManager(&s.TLSConfig, om, s.Logger)
		if err := cm.Start(); err != nil {
			return fmt.Errorf("failed to start certificate manager: %w", err)
		}
		s.CertificateManager = cm
		getCert = cm.GetServerCertificate
		s.Logger.Info("TLS certificate auto-reload enabled", "files", cm.WatchedFiles())
	}

	tlsConfig, err := buildTLSConfig(s.TLSConfig, getCert, s.Logger)
	if err != nil {
		return fmt.Errorf("failed to set up TLS: %w", err)
	}
	httpServer.TLSConfig = tlsConfig

	s.Logger.Info("TLS enabled",
		"mode", s.TLSConfig.Mode,
		"address", httpServer.Addr,
		"min_version", tls.VersionName(tlsConfig.MinVersion),
		"client_auth", tlsConfig.ClientAuth.String())
	return nil
}

// buildTLSConfig turns the TLS settings into a tls.Config. A nil getCert
// loads the key pair once from disk.
func buildTLSConfig(cfg config.TLSConfig, getCert func(*tls.ClientHelloInfo) (*tls.Certificate, error), logger *errors.Logger) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
		ClientAuth: tls.NoClientCert,
	}
	if cfg.MinVersion == "1.3" {
		tlsConfig.MinVersion = tls.VersionTLS13
	}

	if getCert != nil {
		tlsConfig.GetCertificate = getCert
	} else {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load server cert/key from files: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	for _, name := range cfg.CipherSuites {
		id, ok := cipherSuiteID(name)
		if !ok {
			logger.Warn("Ignoring unknown or insecure cipher suite", "cipher_suite", name)
			continue
		}
		tlsConfig.CipherSuites = append(tlsConfig.CipherSuites, id)
	}

	if cfg.Mode != "mutual" {
		return tlsConfig, nil
	}

	if cfg.CAFile == "" {
		return nil, fmt.Errorf("CA certificate is required for mutual TLS mode")
	}
	caPEM, err := os.ReadFile(cfg.CAFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("no certificates found in CA file %s", cfg.CAFile)
	}
	tlsConfig.ClientCAs = pool
	tlsConfig.ClientAuth = clientAuthPolicy(cfg.ClientAuthPolicy)
	return tlsConfig, nil
}

func clientAuthPolicy(policy string) tls.ClientAuthType {
	switch policy {
	case "request":
		return tls.RequestClientCert
	case "verify":
		return tls.VerifyClientCertIfGiven
	default:
		return tls.RequireAndVerifyClientCert
	}
}

// cipherSuiteID looks the name up among the secure suites only
func cipherSuiteID(name string) (uint16, bool) {
	for _, suite := range tls.CipherSuites() {
		if suite.Name == name {
			return suite.ID, true
		}
	}
	return 0, false
}
