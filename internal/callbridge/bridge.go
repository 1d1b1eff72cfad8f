package callbridge

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"
	"sync"
	"time"

	"interviewcoach/internal/errors"
	"interviewcoach/internal/session"

	"github.com/gorilla/websocket"
)

// bridge is one browser connection. It is the Transport, Navigator and
// Observer of the controller it drives.
type bridge struct {
	conn   *websocket.Conn
	opts   *Options
	logger *errors.Logger

	ctx    context.Context
	cancel context.CancelFunc
	send   chan ServerFrame

	mu      sync.Mutex
	handler func(session.Event)
}

var (
	_ session.Transport = (*bridge)(nil)
	_ session.Navigator = (*bridge)(nil)
	_ session.Observer  = (*bridge)(nil)
)

func newBridge(conn *websocket.Conn, opts *Options, logger *errors.Logger) *bridge {
	ctx, cancel := context.WithCancel(context.Background())
	return &bridge{
		conn:   conn,
		opts:   opts,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		send:   make(chan ServerFrame, 32),
	}
}

// Start asks the browser to start the call. The browser reports the
// outcome as call events.
func (b *bridge) Start(_ context.Context, req session.StartRequest) error {
	return b.enqueue(ServerFrame{
		Type:           FrameStartCall,
		Assistant:      req.Assistant,
		WorkflowID:     req.WorkflowID,
		VariableValues: req.VariableValues,
	})
}

func (b *bridge) Stop() error {
	return b.enqueue(ServerFrame{Type: FrameStopCall})
}

func (b *bridge) Subscribe(handler func(session.Event)) func() {
	b.mu.Lock()
	b.handler = handler
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		b.handler = nil
		b.mu.Unlock()
	}
}

func (b *bridge) Navigate(path string) {
	_ = b.enqueue(ServerFrame{Type: FrameNavigate, Path: path})
}

func (b *bridge) StateChanged(s session.Snapshot) {
	_ = b.enqueue(ServerFrame{Type: FrameState, Status: s.Status, Phase: s.Phase})
}

func (b *bridge) ResultsReady(r session.Results) {
	_ = b.enqueue(resultFrame(r))
}

func (b *bridge) StartFailed(err error) {
	_ = b.enqueue(ServerFrame{Type: FrameError, Message: "Failed to start call: " + err.Error()})
}

func (b *bridge) sendError(message string) {
	_ = b.enqueue(ServerFrame{Type: FrameError, Message: message})
}

var errBridgeClosed = stderrors.New("callbridge: connection closed")

func (b *bridge) enqueue(f ServerFrame) error {
	select {
	case b.send <- f:
		return nil
	case <-b.ctx.Done():
		return errBridgeClosed
	}
}

func (b *bridge) dispatch(ev session.Event) {
	b.mu.Lock()
	h := b.handler
	b.mu.Unlock()
	if h != nil {
		h(ev)
	}
}

// run drives the connection until the browser goes away
func (b *bridge) run() {
	defer b.cancel()

	init, err := b.readInit()
	if err != nil {
		b.logger.Warn("Call bridge handshake failed", "error", err.Error())
		b.writeCloseError(err.Error())
		return
	}

	ctrl, err := session.NewController(b.opts.sessionConfig(init), session.Dependencies{
		Transport: b,
		Tone:      b.opts.Tone,
		Feedback:  b.opts.Feedback,
		Store:     b.opts.Store,
		Navigator: b,
		Observer:  b,
		Publisher: b.opts.Publisher,
		Logger:    b.logger,
	})
	if err != nil {
		b.logger.LogError(err, "Failed to create session controller")
		b.writeCloseError("session could not be created")
		return
	}
	defer ctrl.Close()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		b.writeLoop()
	}()

	b.StateChanged(ctrl.Snapshot())
	b.readLoop(ctrl)

	ctrl.Close()
	b.cancel()
	<-writerDone
}

func (b *bridge) readInit() (*SessionInit, error) {
	_ = b.conn.SetReadDeadline(time.Now().Add(b.opts.HandshakeTimeout))
	defer func() { _ = b.conn.SetReadDeadline(time.Time{}) }()

	messageType, data, err := b.conn.ReadMessage()
	if err != nil {
		return nil, stderrors.New("failed to read init frame")
	}
	if messageType != websocket.TextMessage {
		return nil, stderrors.New("first frame must be init")
	}
	var frame ClientFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, stderrors.New("invalid init frame")
	}
	if frame.Type != FrameInit || frame.Session == nil {
		return nil, stderrors.New("first frame must be init")
	}
	return frame.Session, nil
}

func (b *bridge) readLoop(ctrl *session.Controller) {
	for {
		_, data, err := b.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				b.logger.Debug("Call bridge read ended", "error", err.Error())
			}
			return
		}

		var frame ClientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			b.sendError("invalid frame")
			continue
		}

		switch frame.Type {
		case FrameStart:
			if err := ctrl.Start(); err != nil {
				b.sendError(actionError("start", err))
			}
		case FrameDisconnect:
			if err := ctrl.Disconnect(); err != nil {
				b.sendError(actionError("disconnect", err))
			}
		case FrameEvent:
			if frame.Event == nil {
				b.sendError("event frame without event")
				continue
			}
			b.dispatch(*frame.Event)
		default:
			b.sendError("unknown frame type: " + frame.Type)
		}
	}
}

func actionError(action string, err error) string {
	switch {
	case stderrors.Is(err, session.ErrStartInFlight):
		return "call is already starting"
	case stderrors.Is(err, session.ErrInvalidTransition):
		return "cannot " + action + " in the current state"
	default:
		return strings.TrimPrefix(err.Error(), "session: ")
	}
}

func (b *bridge) writeLoop() {
	ping := time.NewTicker(b.opts.PingInterval)
	defer ping.Stop()

	for {
		select {
		case <-b.ctx.Done():
			b.drain()
			_ = b.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(b.opts.WriteTimeout))
			return
		case <-ping.C:
			if err := b.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(b.opts.WriteTimeout)); err != nil {
				b.cancel()
				return
			}
		case frame := <-b.send:
			if err := b.write(frame); err != nil {
				b.logger.Debug("Call bridge write failed", "error", err.Error())
				b.cancel()
				return
			}
		}
	}
}

// drain flushes frames queued before shutdown
func (b *bridge) drain() {
	for {
		select {
		case frame := <-b.send:
			if err := b.write(frame); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (b *bridge) write(frame ServerFrame) error {
	_ = b.conn.SetWriteDeadline(time.Now().Add(b.opts.WriteTimeout))
	return b.conn.WriteJSON(frame)
}

func (b *bridge) writeCloseError(message string) {
	_ = b.conn.SetWriteDeadline(time.Now().Add(b.opts.WriteTimeout))
	_ = b.conn.WriteJSON(ServerFrame{Type: FrameError, Message: message})
	_ = b.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, message),
		time.Now().Add(2*time.Second))
}
