package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ─────────────────────────────────────────────────────────────────────────────
// Campus DDL — accounts, modules, timetable, payments, events
// ─────────────────────────────────────────────────────────────────────────────

const ddlCampus = `
CREATE TABLE IF NOT EXISTS users (
    id              TEXT         PRIMARY KEY,
    name            TEXT         NOT NULL,
    email           TEXT         NOT NULL,
    role            TEXT         NOT NULL DEFAULT 'student',
    school          TEXT         NOT NULL DEFAULT '',
    program         TEXT         NOT NULL DEFAULT '',
    wam             DOUBLE PRECISION NOT NULL DEFAULT 0,
    enrollment_year INT          NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS modules (
    code        TEXT  PRIMARY KEY,
    name        TEXT  NOT NULL,
    credits     INT   NOT NULL DEFAULT 0,
    description TEXT  NOT NULL DEFAULT '',
    coordinator TEXT  NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS enrollments (
    user_id     TEXT  NOT NULL REFERENCES users (id) ON DELETE CASCADE,
    module_code TEXT  NOT NULL REFERENCES modules (code) ON DELETE CASCADE,
    status      TEXT  NOT NULL DEFAULT 'active',
    PRIMARY KEY (user_id, module_code)
);

CREATE INDEX IF NOT EXISTS idx_enrollments_user ON enrollments (user_id, status);

CREATE TABLE IF NOT EXISTS schedule_events (
    id          BIGSERIAL    PRIMARY KEY,
    module_code TEXT         NOT NULL REFERENCES modules (code) ON DELETE CASCADE,
    kind        TEXT         NOT NULL DEFAULT 'lecture',
    title       TEXT         NOT NULL DEFAULT '',
    location    TEXT         NOT NULL DEFAULT '',
    date        DATE         NOT NULL,
    start_time  TEXT         NOT NULL DEFAULT '',
    end_time    TEXT         NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_schedule_module_date
    ON schedule_events (module_code, date);

CREATE TABLE IF NOT EXISTS payments (
    id          TEXT         PRIMARY KEY,
    user_id     TEXT         NOT NULL REFERENCES users (id) ON DELETE CASCADE,
    description TEXT         NOT NULL DEFAULT '',
    amount      DOUBLE PRECISION NOT NULL DEFAULT 0,
    currency    TEXT         NOT NULL DEFAULT 'AUD',
    status      TEXT         NOT NULL DEFAULT 'pending',
    due_date    TIMESTAMPTZ  NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_payments_user_status ON payments (user_id, status);

CREATE TABLE IF NOT EXISTS campus_events (
    id          TEXT         PRIMARY KEY,
    title       TEXT         NOT NULL,
    description TEXT         NOT NULL DEFAULT '',
    location    TEXT         NOT NULL DEFAULT '',
    starts_at   TIMESTAMPTZ  NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_campus_events_starts ON campus_events (starts_at);
`

// ─────────────────────────────────────────────────────────────────────────────
// Course-content DDL — announcements, assignments, materials
// ─────────────────────────────────────────────────────────────────────────────

const ddlCourseContent = `
CREATE TABLE IF NOT EXISTS announcements (
    id          BIGSERIAL    PRIMARY KEY,
    module_code TEXT         NOT NULL REFERENCES modules (code) ON DELETE CASCADE,
    title       TEXT         NOT NULL,
    body        TEXT         NOT NULL DEFAULT '',
    posted_at   TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_announcements_module_posted
    ON announcements (module_code, posted_at DESC);

CREATE TABLE IF NOT EXISTS assignments (
    id          BIGSERIAL    PRIMARY KEY,
    module_code TEXT         NOT NULL REFERENCES modules (code) ON DELETE CASCADE,
    title       TEXT         NOT NULL,
    due_date    TIMESTAMPTZ  NOT NULL,
    weight      DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_assignments_module ON assignments (module_code, due_date);

CREATE TABLE IF NOT EXISTS materials (
    id          BIGSERIAL    PRIMARY KEY,
    module_code TEXT         NOT NULL REFERENCES modules (code) ON DELETE CASCADE,
    title       TEXT         NOT NULL,
    category    TEXT         NOT NULL DEFAULT '',
    uploaded_at TIMESTAMPTZ  NOT NULL DEFAULT now(),
    text        TEXT         NOT NULL DEFAULT '',
    UNIQUE (module_code, title)
);

CREATE INDEX IF NOT EXISTS idx_materials_module_category
    ON materials (module_code, category);
`

// ─────────────────────────────────────────────────────────────────────────────
// Chat DDL — sessions with embedded message log
// ─────────────────────────────────────────────────────────────────────────────

const ddlChat = `
CREATE TABLE IF NOT EXISTS chat_sessions (
    id         TEXT         PRIMARY KEY,
    user_id    TEXT         NOT NULL DEFAULT '',
    mode       TEXT         NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ  NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS chat_messages (
    id         BIGSERIAL    PRIMARY KEY,
    session_id TEXT         NOT NULL REFERENCES chat_sessions (id) ON DELETE CASCADE,
    role       TEXT         NOT NULL,
    content    TEXT         NOT NULL,
    sent_at    TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_chat_messages_session
    ON chat_messages (session_id, sent_at);
`

// Migrate creates all tables and indexes required by the campus store.
// It is idempotent; every statement uses IF NOT EXISTS.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, ddl := range []string{ddlCampus, ddlCourseContent, ddlChat} {
		if _, err := pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
