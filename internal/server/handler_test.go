package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"interviewcoach/internal/ai"
	"interviewcoach/internal/config"
	"interviewcoach/internal/errors"
	"interviewcoach/internal/observability"
	"interviewcoach/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = errors.NewLogger(slog.LevelDebug)

type fakeGenerator struct {
	mu    sync.Mutex
	text  string
	err   error
	calls int
	last  ai.PromptVars
	lang  string
}

func (f *fakeGenerator) Run(_ context.Context, language string, vars ai.PromptVars) (*ai.Completion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = vars
	f.lang = language
	if f.err != nil {
		return nil, f.err
	}
	return &ai.Completion{Text: f.text, Model: "fake"}, nil
}

type fakePDF struct {
	text string
	err  error
}

func (f *fakePDF) ExtractText(_ context.Context, _ string, _ []byte) (string, error) {
	return f.text, f.err
}

type failingStore struct {
	*storage.MemoryStore
}

func (failingStore) Ping(context.Context) error { return fmt.Errorf("connection refused") }

func testConfig() *config.Config {
	return &config.Config{
		Interview: config.InterviewConfig{
			QuestionCount:    3,
			FeedbackMaxChars: 40,
			DefaultLanguage:  "en",
			GuardedPrefix:    "/interview",
			UploadPath:       "/upload-resume",
			TokenCookie:      "interviewToken",
			MaxSessions:      2,
		},
	}
}

func newTestHandler(t *testing.T, cfg *config.Config, deps Dependencies) (*Server, http.Handler) {
	t.Helper()
	s := NewServer(cfg, ServerConfigFrom(cfg, "test"), deps, testLogger)
	t.Cleanup(s.RateLimiter.Close)

	om, err := observability.NewObservabilityManager(observability.ObservabilityConfig{}, testLogger)
	require.NoError(t, err)
	return s, s.setupRoutes(om)
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

const structuredFeedback = `{"communication":"Clear","final_assessment":"Hire"}`

func TestGenerateQuestions(t *testing.T) {
	gen := &fakeGenerator{text: "```json\n[\"Why Go?\", \"Tell me about channels\"]\n```"}
	_, h := newTestHandler(t, testConfig(), Dependencies{Questions: gen})

	rec := postJSON(t, h, "/api/generate-questions", QuestionsRequest{Resume: "Go developer"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp QuestionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"Why Go?", "Tell me about channels"}, resp.Questions)
	assert.NotEmpty(t, resp.Token)

	assert.Equal(t, 3, gen.last.Count, "count should default to the configured value")
	assert.Equal(t, "en", gen.lang)

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "interviewToken" {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "expected proof token cookie")
	assert.Equal(t, resp.Token, cookie.Value)
}

func TestGenerateQuestionsValidation(t *testing.T) {
	gen := &fakeGenerator{text: "[]"}
	_, h := newTestHandler(t, testConfig(), Dependencies{Questions: gen})

	rec := postJSON(t, h, "/api/generate-questions", QuestionsRequest{Resume: "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No resume text provided.", decode(t, rec)["error"])
	assert.Zero(t, gen.calls)

	req := httptest.NewRequest(http.MethodPost, "/api/generate-questions", strings.NewReader("resume"))
	req.Header.Set("Content-Type", "text/plain")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeTone(t *testing.T) {
	tests := []struct {
		name       string
		gen        *fakeGenerator
		text       string
		wantStatus int
		check      func(t *testing.T, body map[string]any)
	}{
		{
			name:       "structured reply",
			gen:        &fakeGenerator{text: `{"tone":"calm","confidence":"high"}`},
			text:       "I enjoy debugging",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				tone, ok := body["tone"].(map[string]any)
				require.True(t, ok, "tone should be an object: %v", body)
				assert.Equal(t, "calm", tone["tone"])
			},
		},
		{
			name:       "free text reply",
			gen:        &fakeGenerator{text: "Confident and friendly"},
			text:       "Hello",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "Confident and friendly", body["tone"])
			},
		},
		{
			name:       "empty text",
			gen:        &fakeGenerator{text: "unused"},
			text:       "",
			wantStatus: http.StatusBadRequest,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "No text provided.", body["tone"])
			},
		},
		{
			name:       "oracle failure",
			gen:        &fakeGenerator{err: fmt.Errorf("quota exceeded")},
			text:       "Hello",
			wantStatus: http.StatusInternalServerError,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "Could not analyze tone.", body["tone"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, h := newTestHandler(t, testConfig(), Dependencies{Tone: tt.gen})
			rec := postJSON(t, h, "/api/analyze-tone", ToneRequest{Text: tt.text})
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			tt.check(t, decode(t, rec))
		})
	}
}

func TestInterviewFeedback(t *testing.T) {
	t.Run("structured", func(t *testing.T) {
		gen := &fakeGenerator{text: structuredFeedback}
		_, h := newTestHandler(t, testConfig(), Dependencies{Feedback: gen})

		transcriptText := strings.Repeat("user: answer ", 20)
		rec := postJSON(t, h, "/api/interview-feedback", FeedbackRequest{Transcript: transcriptText})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		feedback, ok := decode(t, rec)["feedback"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "Hire", feedback["final_assessment"])
		assert.Len(t, gen.last.Transcript, 40, "transcript should be truncated to the configured size")
	})

	t.Run("invalid JSON from oracle", func(t *testing.T) {
		gen := &fakeGenerator{text: "The candidate did well."}
		_, h := newTestHandler(t, testConfig(), Dependencies{Feedback: gen})

		rec := postJSON(t, h, "/api/interview-feedback", FeedbackRequest{Transcript: "user: hi"})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "Invalid JSON from AI", body["error"])
		assert.Equal(t, "The candidate did well.", body["raw"])
	})

	t.Run("missing transcript", func(t *testing.T) {
		_, h := newTestHandler(t, testConfig(), Dependencies{Feedback: &fakeGenerator{}})
		rec := postJSON(t, h, "/api/interview-feedback", FeedbackRequest{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "No transcript provided.", decode(t, rec)["error"])
	})
}

func multipartRequest(t *testing.T, field, name string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/extract-resume", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestExtractResume(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, h := newTestHandler(t, testConfig(), Dependencies{PDF: &fakePDF{text: "resume"}})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, multipartRequest(t, "", "", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "No file uploaded", decode(t, rec)["error"])
	})

	t.Run("name extracted", func(t *testing.T) {
		extract := &fakeGenerator{text: `{"name":"Ada Lovelace","resume":"Cleaned resume"}`}
		_, h := newTestHandler(t, testConfig(), Dependencies{
			Extract: extract,
			PDF:     &fakePDF{text: "Raw resume"},
		})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, multipartRequest(t, "file", "cv.pdf", []byte("%PDF-1.4")))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp ExtractResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, ExtractResponse{Text: "Cleaned resume", Name: "Ada Lovelace"}, resp)
		assert.Equal(t, "Raw resume", extract.last.Resume)
	})

	t.Run("name extraction fails", func(t *testing.T) {
		_, h := newTestHandler(t, testConfig(), Dependencies{
			Extract: &fakeGenerator{err: fmt.Errorf("timeout")},
			PDF:     &fakePDF{text: "Raw resume"},
		})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, multipartRequest(t, "file", "cv.pdf", []byte("%PDF-1.4")))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp ExtractResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, ExtractResponse{Text: "Raw resume"}, resp)
	})

	t.Run("pdf service error", func(t *testing.T) {
		_, h := newTestHandler(t, testConfig(), Dependencies{
			PDF: &fakePDF{err: fmt.Errorf("upload failed")},
		})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, multipartRequest(t, "file", "cv.pdf", []byte("%PDF-1.4")))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "upload failed", decode(t, rec)["error"])
	})
}

func TestSaveAndGetFeedback(t *testing.T) {
	store := storage.NewMemoryStore()
	gen := &fakeGenerator{text: structuredFeedback}
	_, h := newTestHandler(t, testConfig(), Dependencies{Feedback: gen, Store: store})

	rec := postJSON(t, h, "/api/feedback", map[string]any{
		"interviewId": "i-1",
		"userId":      "u-1",
		"transcript": []map[string]any{
			{"role": "assistant", "content": "Why Go?"},
			{"role": "user", "content": "Simplicity"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var created storage.CreateFeedbackResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.True(t, created.Success)
	assert.NotEmpty(t, created.FeedbackID)
	assert.Equal(t, "assistant: Why Go?\nuser: Simplicity", gen.last.Transcript)

	req := httptest.NewRequest(http.MethodGet, "/api/interviews/i-1/feedback?userId=u-1", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var record storage.FeedbackRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Equal(t, created.FeedbackID, record.ID)
	assert.Len(t, record.Transcript, 2)
	require.NotNil(t, record.Feedback)
	assert.True(t, record.Feedback.IsStructured())

	req = httptest.NewRequest(http.MethodGet, "/api/interviews/i-2/feedback?userId=u-1", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Feedback Not Found", decode(t, rec)["error"])
}

func TestSaveFeedbackValidation(t *testing.T) {
	gen := &fakeGenerator{text: structuredFeedback}

	_, h := newTestHandler(t, testConfig(), Dependencies{Feedback: gen, Store: storage.NewMemoryStore()})
	rec := postJSON(t, h, "/api/feedback", map[string]any{"interviewId": "i-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	_, h = newTestHandler(t, testConfig(), Dependencies{Feedback: gen})
	rec = postJSON(t, h, "/api/feedback", map[string]any{"interviewId": "i-1", "userId": "u-1"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Zero(t, gen.calls)
}

func TestAuthMiddleware(t *testing.T) {
	cfg := testConfig()
	cfg.Server.APIKeys = []string{"secret-key-123"}
	_, h := newTestHandler(t, cfg, Dependencies{Tone: &fakeGenerator{text: "calm"}})

	tests := []struct {
		name       string
		header     string
		value      string
		wantStatus int
	}{
		{"missing key", "", "", http.StatusUnauthorized},
		{"invalid key", "X-API-Key", "wrong", http.StatusUnauthorized},
		{"valid header", "X-API-Key", "secret-key-123", http.StatusOK},
		{"valid bearer", "Authorization", "Bearer secret-key-123", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/analyze-tone", strings.NewReader(`{"text":"hi"}`))
			req.Header.Set("Content-Type", "application/json")
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Server.RateLimit = config.RateLimitConfig{
		Enabled:        true,
		RequestsPerMin: 1,
		BurstCapacity:  2,
		ByIP:           true,
	}
	_, h := newTestHandler(t, cfg, Dependencies{Tone: &fakeGenerator{text: "calm"}})

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for range 3 {
		last = postJSON(t, h, "/api/analyze-tone", ToneRequest{Text: "hi"})
		codes = append(codes, last.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.NotEmpty(t, last.Header().Get("Retry-After"))
}

func TestInterviewPageGuard(t *testing.T) {
	_, h := newTestHandler(t, testConfig(), Dependencies{})

	req := httptest.NewRequest(http.MethodGet, "/interview", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/upload-resume", rec.Header().Get("Location"))

	req = httptest.NewRequest(http.MethodGet, "/interview", nil)
	req.AddCookie(&http.Cookie{Name: "interviewToken", Value: "abc"})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/ws/interview")

	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "interviewToken" && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "interview page should clear the proof token")

	req = httptest.NewRequest(http.MethodGet, "/interview/i-1/feedback", nil)
	req.AddCookie(&http.Cookie{Name: "interviewToken", Value: "abc"})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Result().Cookies(), "feedback page keeps the proof token")
}

func TestFeedbackPageReachableAfterInterview(t *testing.T) {
	gen := &fakeGenerator{text: `["Why Go?"]`}
	_, h := newTestHandler(t, testConfig(), Dependencies{Questions: gen})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	get := func(path string) *http.Response {
		t.Helper()
		resp, err := client.Get(srv.URL + path)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		return resp
	}

	resp, err := client.Post(srv.URL+"/api/generate-questions", "application/json",
		strings.NewReader(`{"resume":"Go developer"}`))
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, http.StatusOK, get("/interview").StatusCode)

	revisit := get("/interview")
	assert.Equal(t, http.StatusFound, revisit.StatusCode, "the token is used up by the first visit")
	assert.Equal(t, "/upload-resume", revisit.Header.Get("Location"))

	feedback := get("/interview/i-1/feedback")
	assert.Equal(t, http.StatusOK, feedback.StatusCode, "feedback page must stay reachable after the interview")
}

func TestSessionEndpointRequiresToken(t *testing.T) {
	_, h := newTestHandler(t, testConfig(), Dependencies{})

	req := httptest.NewRequest(http.MethodGet, "/ws/interview", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHealthHandler(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		_, h := newTestHandler(t, testConfig(), Dependencies{Store: storage.NewMemoryStore()})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		body := decode(t, rec)
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, "memory", body["storage"].(map[string]any)["driver"])
		assert.Equal(t, false, body["events"].(map[string]any)["enabled"])
		assert.Equal(t, float64(0), body["sessions"].(map[string]any)["active"])
	})

	t.Run("storage down", func(t *testing.T) {
		store := failingStore{storage.NewMemoryStore()}
		_, h := newTestHandler(t, testConfig(), Dependencies{Store: store})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "degraded", decode(t, rec)["status"])
	})
}

func TestStatsHandler(t *testing.T) {
	_, h := newTestHandler(t, testConfig(), Dependencies{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, false, body["rate_limiting"].(map[string]any)["enabled"])
}
