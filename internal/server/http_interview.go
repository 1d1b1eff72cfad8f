package server

import (
	"net/http"
	"os"
	"path/filepath"

	"interviewcoach/internal/callbridge"
	"interviewcoach/internal/guard"
	"interviewcoach/internal/observability"
	"interviewcoach/internal/oracle"
)

const interviewPlaceholder = `<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>Interview</title></head>
<body>
<h3>Interview</h3>
<p>Connect to <code>/ws/interview</code> to start the call.</p>
</body>
</html>
`

const feedbackPlaceholder = `<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>Interview feedback</title></head>
<body>
<h3>Interview feedback</h3>
<p>Load <code>/api/interviews/{id}/feedback</code> to show the stored evaluation.</p>
</body>
</html>
`

// newAnalyzer picks the oracle used by live sessions
func (s *Server) newAnalyzer(om *observability.ObservabilityManager) oracle.Analyzer {
	maxChars := s.AppConfig.Interview.FeedbackMaxChars
	if s.AppConfig.Oracle.Mode == "http" {
		s.Logger.Info("Session oracle calls a remote instance", "base_url", s.AppConfig.Oracle.BaseURL)
		return oracle.NewHTTPClient(s.AppConfig.Oracle, maxChars, s.Logger)
	}
	return oracle.NewLocalClient(s.Deps.Tone, s.Deps.Feedback, maxChars, s.Logger).
		WithUsageRecorder(om.RecordAIUsage)
}

// newSessionHandler builds the WebSocket endpoint for live calls
func (s *Server) newSessionHandler(om *observability.ObservabilityManager) *callbridge.Handler {
	s.analyzer = s.newAnalyzer(om)

	opts := callbridge.Options{
		Interview: s.AppConfig.Interview,
		Tone:      s.analyzer,
		Feedback:  s.analyzer,
		Store:     s.Deps.Store,
		Publisher: s.Deps.Publisher,
	}

	h := callbridge.NewHandler(opts, s.Logger.With("component", "callbridge"))
	if err := om.GetMetrics().RegisterSessionGauge(h.Active); err != nil {
		s.Logger.LogError(err, "Failed to register session gauge")
	}
	return h
}

// interviewPageHandler serves the live interview page. Entering it uses up
// the proof token cookie.
func (s *Server) interviewPageHandler(w http.ResponseWriter, r *http.Request) {
	if guard.IsFeedbackPage(r.URL.Path) {
		s.feedbackPageHandler(w, r)
		return
	}
	s.Guard.Clear(w)
	s.servePage(w, r, "interview.html", interviewPlaceholder)
}

// feedbackPageHandler serves the stored feedback page the session navigates
// to after saving. It is not guarded and leaves the cookie alone.
func (s *Server) feedbackPageHandler(w http.ResponseWriter, r *http.Request) {
	s.servePage(w, r, "feedback.html", feedbackPlaceholder)
}

func (s *Server) servePage(w http.ResponseWriter, r *http.Request, page, placeholder string) {
	w.Header().Set("Cache-Control", "no-store")
	if dir := s.AppConfig.Interview.StaticDir; dir != "" {
		path := filepath.Join(dir, page)
		if _, err := os.Stat(path); err == nil {
			http.ServeFile(w, r, path)
			return
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(placeholder))
}
