// Package guard keeps candidates out of the live interview until they have
// finished the upload and question generation flow.
package guard

import (
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	"interviewcoach/internal/config"
	"interviewcoach/internal/errors"

	"github.com/google/uuid"
)

// newUUID is swapped in tests to exercise the fallback.
var newUUID = uuid.NewRandom

// NewToken returns an opaque proof token. It is a random UUID, or a
// pseudo-random base-36 string when no secure randomness is available.
func NewToken() string {
	if id, err := newUUID(); err == nil {
		return id.String()
	}
	return strconv.FormatUint(rand.Uint64(), 36) + strconv.FormatUint(rand.Uint64(), 36)
}

// Guard issues, checks and clears the session proof token cookie
type Guard struct {
	cookieName   string
	redirectPath string
	prefix       string
	ttl          time.Duration
	secure       bool
	logger       *errors.Logger
}

// New creates a guard from the interview settings. secure marks the cookie
// Secure, which should match whether the server runs TLS.
func New(cfg config.InterviewConfig, secure bool, logger *errors.Logger) *Guard {
	g := &Guard{
		cookieName:   cfg.TokenCookie,
		redirectPath: cfg.UploadPath,
		prefix:       cfg.GuardedPrefix,
		ttl:          cfg.TokenTTL,
		secure:       secure,
		logger:       logger,
	}
	if g.cookieName == "" {
		g.cookieName = "interviewToken"
	}
	if g.redirectPath == "" {
		g.redirectPath = "/upload-resume"
	}
	if g.prefix == "" {
		g.prefix = "/interview"
	}
	return g
}

// CookieName returns the name of the token cookie
func (g *Guard) CookieName() string {
	return g.cookieName
}

// Issue generates a token and sets it as a cookie on the response
func (g *Guard) Issue(w http.ResponseWriter) string {
	token := NewToken()
	cookie := &http.Cookie{
		Name:     g.cookieName,
		Value:    token,
		Path:     "/",
		SameSite: http.SameSiteStrictMode,
		Secure:   g.secure,
	}
	if g.ttl > 0 {
		cookie.MaxAge = int(g.ttl.Seconds())
	}
	http.SetCookie(w, cookie)
	return token
}

// Clear expires the token cookie
func (g *Guard) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     g.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		SameSite: http.SameSiteStrictMode,
		Secure:   g.secure,
	})
}

// Token returns the proof token carried by the request, if any
func (g *Guard) Token(r *http.Request) (string, bool) {
	c, err := r.Cookie(g.cookieName)
	if err != nil || strings.TrimSpace(c.Value) == "" {
		return "", false
	}
	return c.Value, true
}

// Guards reports whether path is behind the guard. Only the live interview
// is; the feedback pages under the same prefix are reached after the token
// was used up and stay open.
func (g *Guard) Guards(path string) bool {
	if IsFeedbackPage(path) {
		return false
	}
	return path == g.prefix || strings.HasPrefix(path, strings.TrimSuffix(g.prefix, "/")+"/")
}

// IsFeedbackPage reports whether path is a ".../feedback" page
func IsFeedbackPage(path string) bool {
	return strings.HasSuffix(strings.TrimSuffix(path, "/"), "/feedback")
}

// Middleware redirects guarded requests without a token to the upload
// page. Only presence is checked; the token is not validated.
func (g *Guard) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if g.Guards(r.URL.Path) {
			if _, ok := g.Token(r); !ok {
				g.logger.Info("Session guard redirect: missing proof token",
					"path", r.URL.Path,
					"client_ip", r.RemoteAddr)
				http.Redirect(w, r, g.redirectPath, http.StatusFound)
				return
			}
		}
		next(w, r)
	}
}

// RequireToken rejects requests without a token with 403 instead of
// redirecting. It suits endpoints that cannot follow a redirect, such as a
// WebSocket upgrade. Since the interview page clears the cookie on entry,
// the token kept by the client may also arrive as the "token" query value.
func (g *Guard) RequireToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := g.Token(r); !ok && strings.TrimSpace(r.URL.Query().Get("token")) == "" {
			g.logger.Info("Session guard rejected request: missing proof token", "path", r.URL.Path)
			http.Error(w, "missing interview token", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}
