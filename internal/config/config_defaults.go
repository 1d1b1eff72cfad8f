package config

import (
	"time"

	"github.com/spf13/viper"
)

// operationDefaults are the per-operation tuning values: feedback runs long and
// wants stable output, tone is short and cheap.
var operationDefaults = map[string]struct {
	timeout     time.Duration
	maxRetries  int
	temperature float64
}{
	OperationQuestions: {timeout: 60 * time.Second, maxRetries: 3, temperature: 0.7},
	OperationTone:      {timeout: 30 * time.Second, maxRetries: 2, temperature: 0.2},
	OperationFeedback:  {timeout: 90 * time.Second, maxRetries: 2, temperature: 0.3},
	OperationExtract:   {timeout: 60 * time.Second, maxRetries: 2, temperature: 0.1},
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// AI Configuration - Global defaults
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.maxRetries", 3)
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.useSystemPrompts", true)

	for _, op := range Operations {
		d := operationDefaults[op]
		prefix := "ai." + op + "."
		v.SetDefault(prefix+"provider", "")
		v.SetDefault(prefix+"model", "")
		v.SetDefault(prefix+"timeout", d.timeout)
		v.SetDefault(prefix+"apiKey", "")
		v.SetDefault(prefix+"maxRetries", d.maxRetries)
		v.SetDefault(prefix+"temperature", d.temperature)
		v.SetDefault(prefix+"useSystemPrompts", true)

		v.SetDefault(prefix+"circuitBreaker.enabled", true)
		v.SetDefault(prefix+"circuitBreaker.maxRequests", 3)
		v.SetDefault(prefix+"circuitBreaker.interval", 60*time.Second)
		v.SetDefault(prefix+"circuitBreaker.timeout", 60*time.Second)
		v.SetDefault(prefix+"circuitBreaker.minRequests", 3)
		v.SetDefault(prefix+"circuitBreaker.failureThreshold", 0.6)
	}

	// Server Configuration
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 120*time.Second) // feedback generation is slow
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.maxRequestSize", 10*1024*1024)
	v.SetDefault("server.tls.mode", "disabled")
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")
	v.SetDefault("server.tls.caFile", "")
	v.SetDefault("server.tls.minVersion", "1.2")
	v.SetDefault("server.tls.cipherSuites", []string{})
	v.SetDefault("server.tls.clientAuthPolicy", "require")
	v.SetDefault("server.tls.autoReload", true)
	v.SetDefault("server.tls.debounceDelay", time.Second)
	v.SetDefault("server.apiKeys", []string{})
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)

	// App Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 5*1024*1024)
	v.SetDefault("app.watchPrompts", true)

	// Interview flow
	v.SetDefault("interview.pauseThreshold", 1.5)
	v.SetDefault("interview.feedbackMaxChars", 8000)
	v.SetDefault("interview.questionCount", 5)
	v.SetDefault("interview.workflowId", "")
	v.SetDefault("interview.homePath", "/")
	v.SetDefault("interview.uploadPath", "/upload-resume")
	v.SetDefault("interview.guardedPrefix", "/interview")
	v.SetDefault("interview.tokenCookie", "interviewToken")
	v.SetDefault("interview.tokenTTL", time.Hour)
	v.SetDefault("interview.defaultLanguage", "en")
	v.SetDefault("interview.maxSessions", 100)
	v.SetDefault("interview.staticDir", "")

	// Oracle access for the session controller
	v.SetDefault("oracle.mode", "local")
	v.SetDefault("oracle.baseURL", "")
	v.SetDefault("oracle.apiKey", "")
	v.SetDefault("oracle.timeout", 90*time.Second)
	v.SetDefault("oracle.maxRetries", 2)

	// PDF.co
	v.SetDefault("pdfco.baseURL", "https://api.pdf.co")
	v.SetDefault("pdfco.apiKey", "")
	v.SetDefault("pdfco.timeout", 60*time.Second)
	v.SetDefault("pdfco.maxRetries", 3)

	// Storage
	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.autoMigrate", true)
	v.SetDefault("storage.maxOpenConns", 10)
	v.SetDefault("storage.connMaxLifetime", 30*time.Minute)

	// Events
	v.SetDefault("events.enabled", false)
	v.SetDefault("events.brokers", []string{})
	v.SetDefault("events.sessionTopic", "interview.sessions")
	v.SetDefault("events.feedbackTopic", "interview.feedback")
	v.SetDefault("events.clientId", "interviewcoach")

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.apiKeys", "")
	v.SetDefault("vault.secrets.aiKey", "")
	v.SetDefault("vault.secrets.pdfcoKey", "")
	v.SetDefault("vault.secrets.databaseDSN", "")

	// Observability Configuration
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "interviewcoach")
	v.SetDefault("observability.serviceVersion", "")
	v.SetDefault("observability.serviceInstance", "")
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)
	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)
	v.SetDefault("observability.customMetrics.aiOperations.enabled", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackDuration", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackTokenUsage", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackModelInfo", true)
	v.SetDefault("observability.customMetrics.businessMetrics.enabled", true)
	v.SetDefault("observability.customMetrics.businessMetrics.trackSuccessRates", true)
	v.SetDefault("observability.customMetrics.infrastructure.enabled", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackRateLimits", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackSessions", true)
	v.SetDefault("observability.console.enabled", false)
	v.SetDefault("observability.console.prettyPrint", true)
	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
	v.SetDefault("observability.healthCheck.timeout", 15*time.Second)
}
