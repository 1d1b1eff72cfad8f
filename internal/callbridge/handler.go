package callbridge

import (
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"interviewcoach/internal/config"
	"interviewcoach/internal/errors"
	"interviewcoach/internal/oracle"
	"interviewcoach/internal/session"

	"github.com/gorilla/websocket"
)

// Options configures the bridge handler
type Options struct {
	Interview config.InterviewConfig

	Tone      oracle.ToneAnalyzer
	Feedback  oracle.FeedbackAnalyzer
	Store     session.FeedbackStore
	Publisher session.Publisher

	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	PingInterval     time.Duration
	ReadLimit        int64

	// AllowedOrigins limits the Origin header; empty allows any origin
	AllowedOrigins []string
}

func (o *Options) setDefaults() {
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = 10 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 30 * time.Second
	}
	if o.ReadLimit <= 0 {
		o.ReadLimit = 1 << 20
	}
}

func (o *Options) sessionConfig(init *SessionInit) session.Config {
	language := init.Language
	if language == "" {
		language = o.Interview.DefaultLanguage
	}
	return session.Config{
		Name:           strings.TrimSpace(init.Name),
		UserID:         init.UserID,
		InterviewID:    init.InterviewID,
		FeedbackID:     init.FeedbackID,
		Mode:           session.ParseMode(init.Mode),
		Language:       language,
		Questions:      init.Questions,
		WorkflowID:     o.Interview.WorkflowID,
		PauseThreshold: o.Interview.PauseThreshold,
		HomePath:       o.Interview.HomePath,
	}
}

// Handler upgrades browser connections and runs one session per socket
type Handler struct {
	opts     Options
	logger   *errors.Logger
	upgrader websocket.Upgrader
	slots    chan struct{}
	active   atomic.Int64
	total    atomic.Int64
}

// NewHandler creates the WebSocket endpoint. Interview.MaxSessions bounds
// concurrent sessions when positive.
func NewHandler(opts Options, logger *errors.Logger) *Handler {
	opts.setDefaults()
	h := &Handler{
		opts:   opts,
		logger: logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	if opts.Interview.MaxSessions > 0 {
		h.slots = make(chan struct{}, opts.Interview.MaxSessions)
	}
	return h
}

// Active is the number of connected sessions
func (h *Handler) Active() int64 {
	return h.active.Load()
}

// Total is the number of sessions accepted since start
func (h *Handler) Total() int64 {
	return h.total.Load()
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if len(h.opts.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.opts.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", "error", err.Error(), "remote_addr", r.RemoteAddr)
		return
	}
	defer func() { _ = conn.Close() }()
	conn.SetReadLimit(h.opts.ReadLimit)

	b := newBridge(conn, &h.opts, h.logger.With("remote_addr", r.RemoteAddr))

	if !h.acquire() {
		h.logger.Warn("Rejecting call session, limit reached", "max_sessions", h.opts.Interview.MaxSessions)
		b.writeCloseError("too many active sessions")
		return
	}
	defer h.release()

	h.total.Add(1)
	b.run()
}

func (h *Handler) acquire() bool {
	if h.slots != nil {
		select {
		case h.slots <- struct{}{}:
		default:
			return false
		}
	}
	h.active.Add(1)
	return true
}

func (h *Handler) release() {
	h.active.Add(-1)
	if h.slots != nil {
		<-h.slots
	}
}
