package guard

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"interviewcoach/internal/config"
	"interviewcoach/internal/errors"

	"github.com/google/uuid"
)

var testLogger = errors.NewLogger(slog.LevelDebug)

func testGuard() *Guard {
	return New(config.InterviewConfig{
		TokenCookie:   "interviewToken",
		UploadPath:    "/upload-resume",
		GuardedPrefix: "/interview",
		TokenTTL:      time.Hour,
	}, false, testLogger)
}

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestMiddleware(t *testing.T) {
	g := testGuard()

	tests := []struct {
		name         string
		path         string
		cookie       string
		wantStatus   int
		wantLocation string
	}{
		{"guarded without token", "/interview", "", http.StatusFound, "/upload-resume"},
		{"guarded subpath without token", "/interview/abc", "", http.StatusFound, "/upload-resume"},
		{"feedback page without token", "/interview/abc/feedback", "", http.StatusOK, ""},
		{"feedback page trailing slash", "/interview/abc/feedback/", "", http.StatusOK, ""},
		{"guarded with token", "/interview", "tok", http.StatusOK, ""},
		{"empty token value", "/interview", "  ", http.StatusFound, "/upload-resume"},
		{"unguarded path", "/upload-resume", "", http.StatusOK, ""},
		{"prefix lookalike", "/interviews", "", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "interviewToken", Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			g.Middleware(okHandler)(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if loc := rec.Header().Get("Location"); loc != tt.wantLocation {
				t.Errorf("Expected Location %q, got %q", tt.wantLocation, loc)
			}
		})
	}
}

func TestRequireToken(t *testing.T) {
	g := testGuard()

	rec := httptest.NewRecorder()
	g.RequireToken(okHandler)(rec, httptest.NewRequest(http.MethodGet, "/ws/interview", nil))
	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403 without token, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/ws/interview", nil)
	req.AddCookie(&http.Cookie{Name: "interviewToken", Value: "tok"})
	rec = httptest.NewRecorder()
	g.RequireToken(okHandler)(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 with token, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	g.RequireToken(okHandler)(rec, httptest.NewRequest(http.MethodGet, "/ws/interview?token=tok", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 with query token, got %d", rec.Code)
	}
}

func TestIssueAndClear(t *testing.T) {
	g := testGuard()

	rec := httptest.NewRecorder()
	token := g.Issue(rec)
	if _, err := uuid.Parse(token); err != nil {
		t.Errorf("Expected a UUID token, got %q", token)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("Expected one cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != "interviewToken" || c.Value != token || c.Path != "/" {
		t.Errorf("Unexpected cookie %+v", c)
	}
	if c.SameSite != http.SameSiteStrictMode {
		t.Error("Expected SameSite=Strict")
	}
	if c.MaxAge != 3600 {
		t.Errorf("Expected MaxAge 3600, got %d", c.MaxAge)
	}

	rec = httptest.NewRecorder()
	g.Clear(rec)
	cleared := rec.Result().Cookies()
	if len(cleared) != 1 || cleared[0].MaxAge >= 0 || cleared[0].Value != "" {
		t.Errorf("Expected an expired cookie, got %+v", cleared)
	}
}

func TestNewTokenFallback(t *testing.T) {
	orig := newUUID
	t.Cleanup(func() { newUUID = orig })
	newUUID = func() (uuid.UUID, error) {
		return uuid.Nil, fmt.Errorf("no entropy")
	}

	a, b := NewToken(), NewToken()
	if a == "" || b == "" {
		t.Fatal("fallback token must not be empty")
	}
	if a == b {
		t.Error("fallback tokens should differ")
	}
	if _, err := uuid.Parse(a); err == nil {
		t.Error("fallback token should not come from the UUID source")
	}
}

func TestDefaults(t *testing.T) {
	g := New(config.InterviewConfig{}, true, testLogger)
	if g.CookieName() != "interviewToken" {
		t.Errorf("Expected default cookie name, got %s", g.CookieName())
	}
	if !g.Guards("/interview/x") {
		t.Error("Expected default prefix /interview")
	}

	rec := httptest.NewRecorder()
	g.Issue(rec)
	if c := rec.Result().Cookies()[0]; !c.Secure || c.MaxAge != 0 {
		t.Errorf("Expected secure session cookie, got %+v", c)
	}
}
