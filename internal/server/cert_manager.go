package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"sync"
	"time"

	"interviewcoach/internal/config"
	"interviewcoach/internal/errors"
	"interviewcoach/internal/observability"
	"interviewcoach/internal/utils"
)

// CertificateMetrics tracks certificate reload statistics
type CertificateMetrics struct {
	ReloadCount        int64     `json:"reload_count"`
	ReloadSuccessCount int64     `json:"reload_success_count"`
	ReloadFailureCount int64     `json:"reload_failure_count"`
	LastReloadTime     time.Time `json:"last_reload_time"`
	LastReloadSuccess  bool      `json:"last_reload_success"`
	LastReloadError    string    `json:"last_reload_error,omitempty"`
}

// CertificateManager serves the current server certificate and reloads it
// when the certificate or key file changes.
type CertificateManager struct {
	mu         sync.RWMutex
	serverCert *tls.Certificate
	expiry     time.Time
	metrics    CertificateMetrics

	tlsConfig *config.TLSConfig
	watcher   *utils.FileWatcher
	om        *observability.ObservabilityManager
	logger    *errors.Logger
}

// NewCertificateManager creates a manager for the configured key pair
func NewCertificateManager(tlsConfig *config.TLSConfig, om *observability.ObservabilityManager, logger *errors.Logger) *CertificateManager {
	return &CertificateManager{
		tlsConfig: tlsConfig,
		om:        om,
		logger:    logger,
	}
}

// Start loads the certificate and, with auto reload, begins watching the files
func (cm *CertificateManager) Start() error {
	if err := cm.loadCertificates(); err != nil {
		return err
	}
	if !cm.tlsConfig.AutoReload {
		return nil
	}

	cm.watcher = utils.NewFileWatcher("tls-certificates",
		[]string{cm.tlsConfig.CertFile, cm.tlsConfig.KeyFile},
		cm.tlsConfig.DebounceDelay,
		cm.reload,
		cm.logger)
	if err := cm.watcher.Start(); err != nil {
		return fmt.Errorf("failed to watch certificate files: %w", err)
	}
	return nil
}

// Stop stops watching the certificate files
func (cm *CertificateManager) Stop() error {
	if cm.watcher == nil {
		return nil
	}
	return cm.watcher.Stop()
}

// GetServerCertificate implements tls.Config.GetCertificate
func (cm *CertificateManager) GetServerCertificate(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if cm.serverCert == nil {
		return nil, fmt.Errorf("no server certificate available")
	}
	if time.Now().After(cm.expiry) {
		cm.logger.Warn("Serving expired server certificate",
			"expiry", cm.expiry,
			"server_name", hello.ServerName)
	}
	return cm.serverCert, nil
}

// CheckExpiry returns the time left before the server certificate expires
func (cm *CertificateManager) CheckExpiry() (time.Duration, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if cm.serverCert == nil {
		return 0, fmt.Errorf("no server certificate loaded")
	}
	return time.Until(cm.expiry), nil
}

// GetMetrics returns a copy of the reload statistics
func (cm *CertificateManager) GetMetrics() CertificateMetrics {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.metrics
}

// WatcherRunning reports whether the files are being watched
func (cm *CertificateManager) WatcherRunning() bool {
	return cm.watcher != nil && cm.watcher.IsRunning()
}

// WatchedFiles lists the watched certificate files
func (cm *CertificateManager) WatchedFiles() []string {
	if cm.watcher == nil {
		return nil
	}
	return cm.watcher.Files()
}

// reload is the watcher callback
func (cm *CertificateManager) reload() {
	err := cm.loadCertificates()

	cm.mu.Lock()
	cm.metrics.ReloadCount++
	cm.metrics.LastReloadTime = time.Now()
	cm.metrics.LastReloadSuccess = err == nil
	if err != nil {
		cm.metrics.ReloadFailureCount++
		cm.metrics.LastReloadError = err.Error()
	} else {
		cm.metrics.ReloadSuccessCount++
		cm.metrics.LastReloadError = ""
	}
	cm.mu.Unlock()

	if cm.om != nil {
		cm.om.GetMetrics().RecordCertReload(context.Background(), err == nil)
	}
	if err != nil {
		// Keep serving the previous certificate
		cm.logger.LogError(err, "Failed to reload TLS certificates")
		return
	}
	cm.logger.Info("TLS certificates reloaded successfully")
}

func (cm *CertificateManager) loadCertificates() error {
	cert, err := tls.LoadX509KeyPair(cm.tlsConfig.CertFile, cm.tlsConfig.KeyFile)
	if err != nil {
		return fmt.Errorf("failed to load server cert/key from files: %w", err)
	}

	leaf := cert.Leaf
	if leaf == nil && len(cert.Certificate) > 0 {
		leaf, err = x509.ParseCertificate(cert.Certificate[0])
		if err != nil {
			return fmt.Errorf("failed to parse server certificate: %w", err)
		}
		cert.Leaf = leaf
	}
	if leaf == nil {
		return fmt.Errorf("server certificate is empty")
	}

	cm.mu.Lock()
	cm.serverCert = &cert
	cm.expiry = leaf.NotAfter
	cm.mu.Unlock()
	return nil
}
