package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListedEndpointsAreRouted(t *testing.T) {
	_, h := newTestHandler(t, testConfig(), Dependencies{})
	mux, ok := h.(*http.ServeMux)
	require.True(t, ok)

	for _, e := range endpoints {
		path := strings.ReplaceAll(e.path, "{id}", "abc")
		req := httptest.NewRequest(e.method, path, nil)
		_, pattern := mux.Handler(req)
		assert.NotEmpty(t, pattern, "%s %s is listed but not routed", e.method, e.path)
	}
}

func TestDisplayServerInfo(t *testing.T) {
	cfg := testConfig()
	cfg.Server.APIKeys = []string{"k1"}
	s, _ := newTestHandler(t, cfg, Dependencies{})

	var buf bytes.Buffer
	s.displayServerInfo(&buf)
	out := buf.String()

	assert.Contains(t, out, "/api/analyze-tone")
	assert.Contains(t, out, "/interview/...")
	assert.Contains(t, out, "API authentication: ENABLED (1 keys configured)")
	assert.Contains(t, out, "Rate limiting: DISABLED")
	assert.Contains(t, out, "Feedback storage: DISABLED")
	assert.Contains(t, out, "Resume PDF extraction: DISABLED")
}
