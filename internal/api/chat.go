package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/campusbuddy/campusbuddy/internal/chat"
	"github.com/campusbuddy/campusbuddy/internal/observe"
	"github.com/campusbuddy/campusbuddy/internal/session"
	"github.com/campusbuddy/campusbuddy/internal/store"
	"github.com/campusbuddy/campusbuddy/internal/tools"
)

// User-facing fallback texts. Internal error detail stays in the logs; end
// users only ever see these.
const (
	msgUnavailable = "The assistant is unavailable right now. Please try again later."
	msgAborted     = "I couldn't complete that request. Please try rephrasing your question."
	msgGuestLimit  = "You have reached the guest message limit. Please sign in to continue."
)

// chatRequest is the body of POST /api/chat and of each WebSocket message.
type chatRequest struct {
	// SessionID resumes an existing conversation. Empty starts a new one.
	SessionID string `json:"session_id,omitempty"`

	// Mode selects the assistant persona. Ignored for guests, who are
	// always served in guest mode. Empty defaults to admin support.
	Mode string `json:"mode,omitempty"`

	// Message is the user's input. Required.
	Message string `json:"message"`
}

// chatResponse is the body of a successful POST /api/chat.
type chatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

// errorResponse is the body of every non-2xx API response.
type errorResponse struct {
	Error string `json:"error"`
}

// handleChat serves one request/response chat exchange.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Message == "" {
		writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "message is required"})
		return
	}

	caller, mode := resolveCaller(r.Header.Get(userIDHeader), req.Mode)
	log := observe.Logger(r.Context()).With("mode", string(mode), "guest", caller.Guest)

	sess, err := s.sessions.Begin(r.Context(), req.SessionID, caller.UserID, mode)
	if err != nil {
		log.Error("begin session", "err", err)
		writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: msgUnavailable})
		return
	}
	if err := s.sessions.CheckGuestLimit(sess); err != nil {
		if errors.Is(err, session.ErrGuestLimit) {
			writeJSON(w, r, http.StatusTooManyRequests, errorResponse{Error: msgGuestLimit})
			return
		}
		log.Error("guest limit check", "err", err)
		writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: msgUnavailable})
		return
	}

	reply, err := s.exchange(r.Context(), caller, mode, sess, req.Message, nil)
	if err != nil {
		log.Error("chat run", "session", sess.ID, "err", err)
		writeJSON(w, r, http.StatusBadGateway, errorResponse{Error: msgUnavailable})
		return
	}

	writeJSON(w, r, http.StatusOK, chatResponse{SessionID: sess.ID, Reply: reply})
}

// exchange runs one conversation turn over the session's history and, for
// final answers, records the exchange. Aborted runs yield the generic retry
// text and leave the session history untouched.
func (s *Server) exchange(ctx context.Context, caller tools.Caller, mode tools.Mode, sess *store.ChatSession, message string, onDelta func(string)) (string, error) {
	transcript := buildTranscript(mode, sess, message)

	var (
		res *chat.Result
		err error
	)
	if onDelta == nil {
		res, err = s.runner.Run(ctx, caller, mode, transcript)
	} else {
		res, err = s.runner.RunStream(ctx, caller, mode, transcript, onDelta)
	}
	if err != nil {
		return "", err
	}
	if res.Status != chat.StatusFinal {
		observe.Logger(ctx).Warn("chat run aborted", "session", sess.ID, "reason", res.Reason)
		return msgAborted, nil
	}

	if err := s.sessions.RecordExchange(ctx, sess.ID, message, res.Content); err != nil {
		// The answer was produced; losing the history entry is not worth
		// failing the request over.
		observe.Logger(ctx).Error("record exchange", "session", sess.ID, "err", err)
	}
	return res.Content, nil
}

// buildTranscript assembles the model input for one turn: the mode's system
// prompt, the session's prior exchanges, and the new user message.
func buildTranscript(mode tools.Mode, sess *store.ChatSession, message string) *chat.Transcript {
	turns := make([]chat.Turn, 0, len(sess.Messages)+2)
	turns = append(turns, chat.Turn{Role: chat.RoleSystem, Content: chat.SystemPrompt(mode)})
	for _, m := range sess.Messages {
		turns = append(turns, chat.Turn{Role: m.Role, Content: m.Content})
	}
	turns = append(turns, chat.Turn{Role: chat.RoleUser, Content: message})
	return chat.NewTranscript(turns...)
}

// resolveCaller maps the gateway-provided user id and the requested mode to
// a caller identity and an effective mode. Unauthenticated callers are
// always guests regardless of the mode they ask for.
func resolveCaller(userID, requested string) (tools.Caller, tools.Mode) {
	if userID == "" {
		return tools.Caller{Guest: true}, tools.ModeGuest
	}
	mode := tools.Mode(requested)
	if mode == "" {
		mode = tools.ModeAdminSupport
	}
	return tools.Caller{UserID: userID}, mode
}
