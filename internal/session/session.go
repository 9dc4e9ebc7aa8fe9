// Package session manages persisted chat sessions: creating and resuming
// them, recording message exchanges, and enforcing the guest usage limit.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/campusbuddy/campusbuddy/internal/store"
	"github.com/campusbuddy/campusbuddy/internal/tools"
)

// Guest sessions are capped to a small number of user messages within a
// rolling window. The limit is per session; evading it requires a new
// session, which is acceptable for an anonymous convenience feature.
const (
	guestMessageLimit = 5
	guestWindow       = 4 * time.Hour
)

// ErrGuestLimit is returned when a guest session has used up its message
// allowance for the current window.
var ErrGuestLimit = errors.New("session: guest message limit reached")

// Manager creates, resumes, and appends to chat sessions.
type Manager struct {
	store store.Store

	// now is the clock used for limit evaluation and message stamps. Tests
	// override it.
	now func() time.Time
}

// NewManager creates a [Manager] over st.
func NewManager(st store.Store) *Manager {
	return &Manager{store: st, now: time.Now}
}

// Begin resumes the session with sessionID, or creates a fresh one when
// sessionID is empty or unknown. userID is empty for guests.
func (m *Manager) Begin(ctx context.Context, sessionID, userID string, mode tools.Mode) (*store.ChatSession, error) {
	if sessionID != "" {
		sess, err := m.store.SessionByID(ctx, sessionID)
		if err == nil {
			// A session belongs to the caller who started it. A mismatched
			// caller (a guest presenting another user's id, or one user
			// presenting another's) gets a fresh session instead of the
			// owner's history.
			if sess.UserID == userID {
				return sess, nil
			}
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("session: resume %s: %w", sessionID, err)
		}
		// Unknown or foreign id: fall through and start fresh rather than
		// erroring, so stale client state never blocks a new conversation.
	}

	now := m.now()
	sess := &store.ChatSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		Mode:      string(mode),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.store.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("session: create: %w", err)
	}
	return sess, nil
}

// CheckGuestLimit returns [ErrGuestLimit] when sess is a guest session whose
// user messages within the rolling window have reached the allowance.
// Authenticated sessions are never limited here.
func (m *Manager) CheckGuestLimit(sess *store.ChatSession) error {
	if sess.UserID != "" {
		return nil
	}
	cutoff := m.now().Add(-guestWindow)
	recent := 0
	for _, msg := range sess.Messages {
		if msg.Role == "user" && !msg.SentAt.Before(cutoff) {
			recent++
		}
	}
	if recent >= guestMessageLimit {
		return ErrGuestLimit
	}
	return nil
}

// RecordExchange appends the user message and the assistant's answer to the
// session log. Called only after a successful run; aborted and failed runs
// leave no trace in the session history.
func (m *Manager) RecordExchange(ctx context.Context, sessionID, userMsg, answer string) error {
	now := m.now()
	err := m.store.AppendMessages(ctx, sessionID,
		store.ChatMessage{Role: "user", Content: userMsg, SentAt: now},
		store.ChatMessage{Role: "assistant", Content: answer, SentAt: now},
	)
	if err != nil {
		return fmt.Errorf("session: record exchange: %w", err)
	}
	return nil
}
