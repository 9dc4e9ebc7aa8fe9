package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/campusbuddy/campusbuddy/internal/observe"
	"github.com/campusbuddy/campusbuddy/internal/session"
)

// wsWriteTimeout bounds each outbound frame write so a stalled client cannot
// pin a run goroutine.
const wsWriteTimeout = 10 * time.Second

// Streamed event kinds. A run emits zero or more "delta" events followed by
// exactly one "done" or "error" event.
const (
	wsEventDelta = "delta"
	wsEventDone  = "done"
	wsEventError = "error"
)

// wsEvent is one server-to-client frame on the chat WebSocket.
type wsEvent struct {
	Type string `json:"type"`

	// Text is the answer fragment of a delta event.
	Text string `json:"text,omitempty"`

	// SessionID and Reply are set on done events.
	SessionID string `json:"session_id,omitempty"`
	Reply     string `json:"reply,omitempty"`

	// Error is the user-facing message of an error event.
	Error string `json:"error,omitempty"`
}

// handleChatWS serves a streaming chat conversation. Each client frame is a
// [chatRequest]; the answer streams back as delta events and completes with
// a done event carrying the session id and the full reply. Errors are
// reported per exchange, the connection stays open for the next message.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		observe.Logger(r.Context()).Warn("websocket accept", "err", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	log := observe.Logger(ctx)

	for {
		var req chatRequest
		if err := wsjson.Read(ctx, conn, &req); err != nil {
			// Normal closure and cancelled contexts are routine client
			// departures, not faults.
			if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
				log.Debug("websocket read", "err", err)
			}
			return
		}

		if !s.serveExchangeWS(ctx, conn, r.Header.Get(userIDHeader), req) {
			conn.Close(websocket.StatusInternalError, "chat run failed")
			return
		}
	}
}

// serveExchangeWS runs one streamed exchange and reports it on conn. It
// returns false only when the connection should be torn down.
func (s *Server) serveExchangeWS(ctx context.Context, conn *websocket.Conn, userID string, req chatRequest) bool {
	if req.Message == "" {
		return wsWrite(ctx, conn, wsEvent{Type: wsEventError, Error: "message is required"})
	}

	caller, mode := resolveCaller(userID, req.Mode)
	log := observe.Logger(ctx).With("mode", string(mode), "guest", caller.Guest)

	sess, err := s.sessions.Begin(ctx, req.SessionID, caller.UserID, mode)
	if err != nil {
		log.Error("begin session", "err", err)
		return wsWrite(ctx, conn, wsEvent{Type: wsEventError, Error: msgUnavailable})
	}
	if err := s.sessions.CheckGuestLimit(sess); err != nil {
		if errors.Is(err, session.ErrGuestLimit) {
			return wsWrite(ctx, conn, wsEvent{Type: wsEventError, Error: msgGuestLimit})
		}
		log.Error("guest limit check", "err", err)
		return wsWrite(ctx, conn, wsEvent{Type: wsEventError, Error: msgUnavailable})
	}

	streamOK := true
	reply, err := s.exchange(ctx, caller, mode, sess, req.Message, func(text string) {
		if streamOK {
			streamOK = wsWrite(ctx, conn, wsEvent{Type: wsEventDelta, Text: text})
		}
	})
	if err != nil {
		log.Error("chat run", "session", sess.ID, "err", err)
		return wsWrite(ctx, conn, wsEvent{Type: wsEventError, Error: msgUnavailable})
	}
	if !streamOK {
		return false
	}

	return wsWrite(ctx, conn, wsEvent{Type: wsEventDone, SessionID: sess.ID, Reply: reply})
}

// wsWrite sends one event with a write deadline. A false return means the
// client is gone.
func wsWrite(ctx context.Context, conn *websocket.Conn, ev wsEvent) bool {
	wctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	if err := wsjson.Write(wctx, conn, ev); err != nil {
		observe.Logger(ctx).Debug("websocket write", "err", err)
		return false
	}
	return true
}
