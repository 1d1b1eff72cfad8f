package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		AI: AIConfig{
			Provider: "gemini",
			Model:    "gemini-2.0-flash",
			Timeout:  time.Minute,
			APIKey:   "key",
		},
		Server: ServerConfig{Port: "8080", TLS: TLSConfig{Mode: "disabled"}},
		App: AppConfig{
			DefaultFormat:    "json",
			SupportedFormats: []string{"json", "text", "markdown"},
		},
		Interview: InterviewConfig{
			PauseThreshold:   1.5,
			FeedbackMaxChars: 8000,
			HomePath:         "/",
			UploadPath:       "/upload-resume",
			GuardedPrefix:    "/interview",
			TokenCookie:      "interviewToken",
			DefaultLanguage:  "en",
		},
		Oracle:  OracleConfig{Mode: "local"},
		Storage: StorageConfig{Driver: "memory"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(c *Config)
		errorMsg string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing AI key", mutate: func(c *Config) { c.AI.APIKey = "" }, errorMsg: "AI API key is required"},
		{
			name: "AI key from vault",
			mutate: func(c *Config) {
				c.AI.APIKey = ""
				c.Vault = VaultConfig{Enabled: true, Secrets: VaultSecrets{AIKey: "secret/data/ai"}}
			},
		},
		{name: "unknown provider", mutate: func(c *Config) { c.AI.Provider = "llama" }, errorMsg: "unsupported AI provider"},
		{name: "openai provider", mutate: func(c *Config) { c.AI.Provider = "openai" }},
		{name: "bad default format", mutate: func(c *Config) { c.App.DefaultFormat = "yaml" }, errorMsg: "invalid default format"},
		{name: "zero pause threshold", mutate: func(c *Config) { c.Interview.PauseThreshold = 0 }, errorMsg: "pauseThreshold"},
		{name: "zero feedback limit", mutate: func(c *Config) { c.Interview.FeedbackMaxChars = 0 }, errorMsg: "feedbackMaxChars"},
		{
			name:     "upload behind guard",
			mutate:   func(c *Config) { c.Interview.UploadPath = "/interview/upload" },
			errorMsg: "must not be behind the guarded prefix",
		},
		{name: "unknown language", mutate: func(c *Config) { c.Interview.DefaultLanguage = "fr" }, errorMsg: "defaultLanguage"},
		{name: "http oracle without url", mutate: func(c *Config) { c.Oracle.Mode = "http" }, errorMsg: "oracle.baseURL"},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Storage.Driver = "postgres" }, errorMsg: "storage.dsn"},
		{
			name:     "events without brokers",
			mutate:   func(c *Config) { c.Events.Enabled = true },
			errorMsg: "events.brokers",
		},
		{name: "bad tls mode", mutate: func(c *Config) { c.Server.TLS.Mode = "on" }, errorMsg: "invalid TLS mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.errorMsg == "" {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.errorMsg)
			}
		})
	}
}

func TestApplyFallbacksFromEnv(t *testing.T) {
	t.Setenv("INTERVIEWCOACH_SERVER_APIKEYS", " a , b ,,c")
	t.Setenv("INTERVIEWCOACH_EVENTS_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("PDFCO_API_KEY", "pdf-test")

	c := &Config{
		AI:            AIConfig{Provider: "openai"},
		Server:        ServerConfig{TLS: TLSConfig{Mode: "mutual"}},
		Observability: ObservabilityConfig{ServiceName: "interviewcoach"},
	}
	c.applyFallbacks()

	assert.Equal(t, []string{"a", "b", "c"}, c.Server.APIKeys)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, c.Events.Brokers)
	assert.Equal(t, "sk-test", c.AI.APIKey)
	assert.Equal(t, "pdf-test", c.PDFCo.APIKey)
	assert.Equal(t, "require", c.Server.TLS.ClientAuthPolicy)
	assert.Equal(t, "1.2", c.Server.TLS.MinVersion)
	assert.NotEmpty(t, c.Observability.ServiceInstance)
}
