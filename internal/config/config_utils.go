package config

import (
	"fmt"
	"strings"
)

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.AI.APIKey == "" && !(c.Vault.Enabled && c.Vault.Secrets.AIKey != "") {
		return fmt.Errorf("AI API key is required (set INTERVIEWCOACH_AI_APIKEY or configure vault.secrets.aiKey)")
	}

	switch c.AI.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("unsupported AI provider: %s", c.AI.Provider)
	}

	if c.AI.Timeout <= 0 {
		return fmt.Errorf("AI timeout must be positive")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	validFormats := make(map[string]bool)
	for _, format := range c.App.SupportedFormats {
		validFormats[format] = true
	}
	if !validFormats[c.App.DefaultFormat] {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	if err := c.validateInterview(); err != nil {
		return err
	}

	switch c.Oracle.Mode {
	case "local":
	case "http":
		if c.Oracle.BaseURL == "" {
			return fmt.Errorf("oracle.baseURL is required when oracle.mode is http")
		}
	default:
		return fmt.Errorf("invalid oracle mode: %s (must be 'local' or 'http')", c.Oracle.Mode)
	}

	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if c.Storage.DSN == "" && !(c.Vault.Enabled && c.Vault.Secrets.DatabaseDSN != "") {
			return fmt.Errorf("storage.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("invalid storage driver: %s (must be 'memory' or 'postgres')", c.Storage.Driver)
	}

	if c.Events.Enabled && len(c.Events.Brokers) == 0 {
		return fmt.Errorf("events.brokers is required when events are enabled")
	}

	if err := c.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("TLS configuration error: %w", err)
	}

	return nil
}

func (c *Config) validateInterview() error {
	iv := c.Interview
	if iv.PauseThreshold <= 0 {
		return fmt.Errorf("interview.pauseThreshold must be positive")
	}
	if iv.FeedbackMaxChars <= 0 {
		return fmt.Errorf("interview.feedbackMaxChars must be positive")
	}
	if iv.TokenCookie == "" {
		return fmt.Errorf("interview.tokenCookie is required")
	}
	if !strings.HasPrefix(iv.GuardedPrefix, "/") || !strings.HasPrefix(iv.UploadPath, "/") {
		return fmt.Errorf("interview.guardedPrefix and interview.uploadPath must be absolute paths")
	}
	if strings.HasPrefix(iv.UploadPath, iv.GuardedPrefix) {
		return fmt.Errorf("interview.uploadPath %q must not be behind the guarded prefix %q", iv.UploadPath, iv.GuardedPrefix)
	}
	switch iv.DefaultLanguage {
	case "en", "ar":
	default:
		return fmt.Errorf("unsupported interview.defaultLanguage: %s", iv.DefaultLanguage)
	}
	return nil
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
