package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/campusbuddy/campusbuddy/internal/store"
)

// SessionByID implements [store.Store.SessionByID]. The embedded message log
// is loaded in the same call, oldest message first.
func (s *Store) SessionByID(ctx context.Context, id string) (*store.ChatSession, error) {
	const q = `
		SELECT id, user_id, mode, created_at, updated_at
		FROM   chat_sessions
		WHERE  id = $1`

	rows, err := s.pool.Query(ctx, q, id)
	if err != nil {
		return nil, fmt.Errorf("postgres store: session by id: %w", err)
	}
	sess, err := pgx.CollectOneRow(rows, func(row pgx.CollectableRow) (store.ChatSession, error) {
		var cs store.ChatSession
		err := row.Scan(&cs.ID, &cs.UserID, &cs.Mode, &cs.CreatedAt, &cs.UpdatedAt)
		return cs, err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres store: session by id: %w", err)
	}

	const qm = `
		SELECT role, content, sent_at
		FROM   chat_messages
		WHERE  session_id = $1
		ORDER  BY sent_at, id`

	mrows, err := s.pool.Query(ctx, qm, id)
	if err != nil {
		return nil, fmt.Errorf("postgres store: session messages: %w", err)
	}
	msgs, err := pgx.CollectRows(mrows, pgx.RowToStructByPos[store.ChatMessage])
	if err != nil {
		return nil, fmt.Errorf("postgres store: scan session messages: %w", err)
	}
	sess.Messages = msgs

	return &sess, nil
}

// CreateSession implements [store.Store.CreateSession].
func (s *Store) CreateSession(ctx context.Context, sess *store.ChatSession) error {
	const q = `
		INSERT INTO chat_sessions (id, user_id, mode, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := s.pool.Exec(ctx, q, sess.ID, sess.UserID, sess.Mode, sess.CreatedAt, sess.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres store: create session: %w", err)
	}
	return nil
}

// AppendMessages implements [store.Store.AppendMessages]. The message inserts
// and the session timestamp bump run in a single transaction.
func (s *Store) AppendMessages(ctx context.Context, sessionID string, msgs ...store.ChatMessage) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres store: append messages: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const qCheck = `SELECT 1 FROM chat_sessions WHERE id = $1`
	var one int
	if err := tx.QueryRow(ctx, qCheck, sessionID).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrNotFound
		}
		return fmt.Errorf("postgres store: append messages: %w", err)
	}

	const qInsert = `
		INSERT INTO chat_messages (session_id, role, content, sent_at)
		VALUES ($1, $2, $3, $4)`
	for _, m := range msgs {
		if _, err := tx.Exec(ctx, qInsert, sessionID, m.Role, m.Content, m.SentAt); err != nil {
			return fmt.Errorf("postgres store: append messages: insert: %w", err)
		}
	}

	const qBump = `
		UPDATE chat_sessions
		SET    updated_at = GREATEST(updated_at, $2)
		WHERE  id = $1`
	latest := latestSentAt(msgs)
	if !latest.IsZero() {
		if _, err := tx.Exec(ctx, qBump, sessionID, latest); err != nil {
			return fmt.Errorf("postgres store: append messages: bump: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres store: append messages: commit: %w", err)
	}
	return nil
}

// latestSentAt returns the most recent SentAt among msgs, or the zero time
// when msgs is empty.
func latestSentAt(msgs []store.ChatMessage) (latest time.Time) {
	for _, m := range msgs {
		if m.SentAt.After(latest) {
			latest = m.SentAt
		}
	}
	return latest
}
