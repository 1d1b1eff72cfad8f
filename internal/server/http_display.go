package server

import (
	"fmt"
	"io"
	"text/tabwriter"
)

type endpointInfo struct {
	method  string
	path    string
	summary string
	access  string
}

// endpoints lists what displayServerInfo prints. Guarded page routes are
// shown separately because their prefix is configurable.
var endpoints = []endpointInfo{
	{"GET", "/health", "Health check", "public"},
	{"GET", "/stats", "Server statistics", "public"},
	{"POST", "/api/generate-questions", "Generate interview questions", "API key"},
	{"POST", "/api/analyze-tone", "Classify answer tone", "API key"},
	{"POST", "/api/interview-feedback", "Evaluate a transcript", "API key"},
	{"POST", "/api/extract-resume", "Extract resume text from a PDF", "API key"},
	{"POST", "/api/feedback", "Evaluate and store feedback", "API key"},
	{"GET", "/api/interviews/{id}/feedback", "Stored feedback", "API key"},
	{"GET", "/ws/interview", "Live interview session", "interview token"},
}

// displayServerInfo prints the endpoint table and the security settings
func (s *Server) displayServerInfo(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "METHOD\tPATH\tDESCRIPTION\tACCESS")
	for _, e := range endpoints {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.method, e.path, e.summary, e.access)
	}
	fmt.Fprintf(tw, "GET\t%s/...\tInterview page\tinterview token\n", s.interviewPrefix())
	fmt.Fprintf(tw, "GET\t%s/{id}/feedback\tFeedback page\tpublic\n", s.interviewPrefix())
	_ = tw.Flush()
	fmt.Fprintln(w)

	for _, line := range s.settingsSummary() {
		fmt.Fprintln(w, line)
	}
}

// settingsSummary describes auth, limits and optional backends, one line
// each. Insecure settings carry a WARNING line.
func (s *Server) settingsSummary() []string {
	var lines []string

	if len(s.APIKeys) > 0 {
		lines = append(lines, fmt.Sprintf("API authentication: ENABLED (%d keys configured)", len(s.APIKeys)))
	} else {
		lines = append(lines,
			"API authentication: DISABLED (no API keys configured)",
			"WARNING: API endpoints are publicly accessible!")
	}

	if s.MaxRequestSize > 0 {
		lines = append(lines, fmt.Sprintf("Request size limit: %.1f MB", float64(s.MaxRequestSize)/(1024*1024)))
	} else {
		lines = append(lines, "Request size limit: DISABLED", "WARNING: No request size limits configured!")
	}

	if s.RateLimit != nil && s.RateLimit.Enabled {
		keys := "ip"
		switch {
		case s.RateLimit.ByAPIKey && s.RateLimit.ByIP:
			keys = "api key, then ip"
		case s.RateLimit.ByAPIKey:
			keys = "api key"
		}
		lines = append(lines, fmt.Sprintf("Rate limiting: ENABLED (%d requests/min, burst %d, keyed by %s)",
			s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity, keys))
	} else {
		lines = append(lines, "Rate limiting: DISABLED", "WARNING: No rate limiting configured!")
	}

	if s.Deps.Store != nil {
		lines = append(lines, "Feedback storage: "+s.Deps.Store.Driver())
	} else {
		lines = append(lines, "Feedback storage: DISABLED")
	}
	if s.Deps.Publisher.Enabled() {
		lines = append(lines, "Event publishing: ENABLED (Kafka)")
	} else {
		lines = append(lines, "Event publishing: DISABLED")
	}
	if s.Deps.PDF == nil {
		lines = append(lines, "Resume PDF extraction: DISABLED")
	}
	return lines
}
