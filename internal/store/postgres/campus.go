package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/campusbuddy/campusbuddy/internal/store"
)

// UserByID implements [store.Store.UserByID].
func (s *Store) UserByID(ctx context.Context, id string) (*store.User, error) {
	const q = `
		SELECT id, name, email, role, school, program, wam, enrollment_year
		FROM   users
		WHERE  id = $1`

	rows, err := s.pool.Query(ctx, q, id)
	if err != nil {
		return nil, fmt.Errorf("postgres store: user by id: %w", err)
	}
	u, err := pgx.CollectOneRow(rows, pgx.RowToStructByPos[store.User])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres store: user by id: %w", err)
	}
	return &u, nil
}

// ActiveEnrollments implements [store.Store.ActiveEnrollments].
func (s *Store) ActiveEnrollments(ctx context.Context, userID string) ([]store.Enrollment, error) {
	const q = `
		SELECT user_id, module_code, status
		FROM   enrollments
		WHERE  user_id = $1
		  AND  status  = 'active'
		ORDER  BY module_code`

	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres store: active enrollments: %w", err)
	}
	return collectSlice[store.Enrollment](rows, "active enrollments")
}

// ModuleByCode implements [store.Store.ModuleByCode].
func (s *Store) ModuleByCode(ctx context.Context, code string) (*store.Module, error) {
	const q = `
		SELECT code, name, credits, description, coordinator
		FROM   modules
		WHERE  code = $1`

	rows, err := s.pool.Query(ctx, q, code)
	if err != nil {
		return nil, fmt.Errorf("postgres store: module by code: %w", err)
	}
	m, err := pgx.CollectOneRow(rows, pgx.RowToStructByPos[store.Module])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres store: module by code: %w", err)
	}
	return &m, nil
}

// ModuleCodes implements [store.Store.ModuleCodes].
func (s *Store) ModuleCodes(ctx context.Context) ([]string, error) {
	const q = `SELECT code FROM modules ORDER BY code`

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("postgres store: module codes: %w", err)
	}
	codes, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("postgres store: module codes: %w", err)
	}
	return codes, nil
}

// ScheduleEvents implements [store.Store.ScheduleEvents]. The [from, to]
// range is inclusive on both ends.
func (s *Store) ScheduleEvents(ctx context.Context, moduleCodes []string, from, to time.Time) ([]store.ScheduleEvent, error) {
	const q = `
		SELECT module_code, kind, title, location, date, start_time, end_time
		FROM   schedule_events
		WHERE  module_code = ANY($1)
		  AND  date >= $2
		  AND  date <= $3
		ORDER  BY date, start_time`

	rows, err := s.pool.Query(ctx, q, moduleCodes, from, to)
	if err != nil {
		return nil, fmt.Errorf("postgres store: schedule events: %w", err)
	}
	return collectSlice[store.ScheduleEvent](rows, "schedule events")
}

// AnnouncementsByModule implements [store.Store.AnnouncementsByModule].
func (s *Store) AnnouncementsByModule(ctx context.Context, code string, limit int) ([]store.Announcement, error) {
	q := `
		SELECT module_code, title, body, posted_at
		FROM   announcements
		WHERE  module_code = $1
		ORDER  BY posted_at DESC`
	args := []any{code}

	if limit > 0 {
		args = append(args, limit)
		q += fmt.Sprintf("\nLIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres store: announcements: %w", err)
	}
	return collectSlice[store.Announcement](rows, "announcements")
}

// AssignmentsByModule implements [store.Store.AssignmentsByModule].
func (s *Store) AssignmentsByModule(ctx context.Context, code string) ([]store.Assignment, error) {
	const q = `
		SELECT module_code, title, due_date, weight
		FROM   assignments
		WHERE  module_code = $1
		ORDER  BY due_date`

	rows, err := s.pool.Query(ctx, q, code)
	if err != nil {
		return nil, fmt.Errorf("postgres store: assignments: %w", err)
	}
	return collectSlice[store.Assignment](rows, "assignments")
}

// OutstandingPayments implements [store.Store.OutstandingPayments].
func (s *Store) OutstandingPayments(ctx context.Context, userID string) ([]store.Payment, error) {
	const q = `
		SELECT id, user_id, description, amount, currency, status, due_date
		FROM   payments
		WHERE  user_id = $1
		  AND  status <> 'paid'
		ORDER  BY due_date`

	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres store: outstanding payments: %w", err)
	}
	return collectSlice[store.Payment](rows, "outstanding payments")
}

// UpcomingEvents implements [store.Store.UpcomingEvents].
func (s *Store) UpcomingEvents(ctx context.Context, now time.Time, limit int) ([]store.CampusEvent, error) {
	q := `
		SELECT id, title, description, location, starts_at
		FROM   campus_events
		WHERE  starts_at >= $1
		ORDER  BY starts_at`
	args := []any{now}

	if limit > 0 {
		args = append(args, limit)
		q += fmt.Sprintf("\nLIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres store: upcoming events: %w", err)
	}
	return collectSlice[store.CampusEvent](rows, "upcoming events")
}

// MaterialsByModule implements [store.Store.MaterialsByModule].
func (s *Store) MaterialsByModule(ctx context.Context, code, category string) ([]store.Material, error) {
	q := `
		SELECT module_code, title, category, uploaded_at, text
		FROM   materials
		WHERE  module_code = $1`
	args := []any{code}

	if category != "" {
		args = append(args, category)
		q += fmt.Sprintf("\n  AND  category = $%d", len(args))
	}
	q += "\nORDER  BY uploaded_at DESC"

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres store: materials: %w", err)
	}
	return collectSlice[store.Material](rows, "materials")
}

// MaterialByTitle implements [store.Store.MaterialByTitle].
func (s *Store) MaterialByTitle(ctx context.Context, code, title string) (*store.Material, error) {
	const q = `
		SELECT module_code, title, category, uploaded_at, text
		FROM   materials
		WHERE  module_code = $1
		  AND  title = $2`

	rows, err := s.pool.Query(ctx, q, code, title)
	if err != nil {
		return nil, fmt.Errorf("postgres store: material by title: %w", err)
	}
	m, err := pgx.CollectOneRow(rows, pgx.RowToStructByPos[store.Material])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres store: material by title: %w", err)
	}
	return &m, nil
}

// collectSlice scans rows into a slice of T, normalising a nil result to an
// empty slice so callers can distinguish "no rows" from errors without nil
// checks.
func collectSlice[T any](rows pgx.Rows, op string) ([]T, error) {
	items, err := pgx.CollectRows(rows, pgx.RowToStructByPos[T])
	if err != nil {
		return nil, fmt.Errorf("postgres store: scan %s: %w", op, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}
