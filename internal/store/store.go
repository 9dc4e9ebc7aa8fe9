// Package store defines the campus document-store interface and its domain
// types: users, modules, enrollments, schedule events, payments, campus
// events, course materials, and chat sessions.
//
// The chat tool layer only ever reads campus data; the sole writes are the
// chat-session records appended after a successful conversation run. Two
// implementations exist: [MemStore] (in-process, used by tests and demo mode)
// and the PostgreSQL-backed store in the postgres sub-package.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a referenced entity (user, module, material,
// session) does not exist.
var ErrNotFound = errors.New("store: not found")

// User is the profile projection of a university account. Secrets (password
// hashes, tokens) are never part of this projection.
type User struct {
	// ID is the stable account identifier.
	ID string

	// Name is the user's display name.
	Name string

	// Email is the university email address.
	Email string

	// Role is one of "student", "professor", "school_admin", "sys_admin".
	Role string

	// School is the faculty or school the user belongs to.
	School string

	// Program is the degree program (students only).
	Program string

	// WAM is the weighted average mark (students only).
	WAM float64

	// EnrollmentYear is the year the user first enrolled.
	EnrollmentYear int
}

// Module is a course offering.
type Module struct {
	// Code is the unique module code (e.g. "COMP1511").
	Code string

	// Name is the full module title.
	Name string

	// Credits is the credit-point value of the module.
	Credits int

	// Description is the handbook description.
	Description string

	// Coordinator is the name of the coordinating academic.
	Coordinator string
}

// Enrollment links a user to a module.
type Enrollment struct {
	UserID     string
	ModuleCode string

	// Status is "active", "completed", or "dropped".
	Status string
}

// ScheduleEvent is a single timetabled class for a module.
type ScheduleEvent struct {
	ModuleCode string

	// Kind is "lecture", "tutorial", "lab", or "exam".
	Kind string

	Title    string
	Location string

	// Date is the calendar day of the event (time component zero).
	Date time.Time

	// StartTime and EndTime are wall-clock times in "15:04" form.
	StartTime string
	EndTime   string
}

// Payment is a fee record on a user's account.
type Payment struct {
	ID          string
	UserID      string
	Description string
	Amount      float64
	Currency    string

	// Status is "paid", "pending", or "overdue".
	Status string

	DueDate time.Time
}

// CampusEvent is a public university event visible to everyone, guests
// included.
type CampusEvent struct {
	ID          string
	Title       string
	Description string
	Location    string
	StartsAt    time.Time
}

// Announcement is a module notice posted by teaching staff.
type Announcement struct {
	ModuleCode string
	Title      string
	Body       string
	PostedAt   time.Time
}

// Assignment is an assessment item within a module.
type Assignment struct {
	ModuleCode string
	Title      string
	DueDate    time.Time

	// Weight is the assessment weight as a fraction of the final mark.
	Weight float64
}

// Material is an uploaded course document with its extracted text content.
type Material struct {
	ModuleCode string
	Title      string

	// Category is e.g. "lecture_notes", "slides", "reading", "past_exam".
	Category string

	UploadedAt time.Time

	// Text is the full extracted text of the document, as produced by the
	// upload pipeline. May be large.
	Text string
}

// ChatMessage is one entry in a chat session's embedded message log.
type ChatMessage struct {
	// Role is "user" or "assistant".
	Role string

	Content string
	SentAt  time.Time
}

// ChatSession is a persisted conversation between one caller and the
// assistant. Guests get sessions too, keyed by a generated ID; the guest
// rate limit is evaluated by scanning Messages.
type ChatSession struct {
	ID string

	// UserID is the owning account, or empty for guest sessions.
	UserID string

	// Mode is the chat mode the session was opened in.
	Mode string

	CreatedAt time.Time
	UpdatedAt time.Time

	// Messages is the embedded message log, oldest first.
	Messages []ChatMessage
}

// Store is the persistence boundary of the chat core. Implementations must be
// safe for concurrent use; the store is the only mutable state shared between
// concurrent conversation runs.
type Store interface {
	// UserByID returns the profile projection for id.
	// Returns [ErrNotFound] when the id does not resolve to an account.
	UserByID(ctx context.Context, id string) (*User, error)

	// ActiveEnrollments returns the enrollments of userID with status
	// "active". An empty slice (not an error) means no active enrollments.
	ActiveEnrollments(ctx context.Context, userID string) ([]Enrollment, error)

	// ModuleByCode returns the module with the given code.
	// Returns [ErrNotFound] when the code does not exist.
	ModuleByCode(ctx context.Context, code string) (*Module, error)

	// ModuleCodes returns every known module code. Used for near-miss
	// suggestions when a lookup misses.
	ModuleCodes(ctx context.Context) ([]string, error)

	// ScheduleEvents returns all events for the given module codes whose
	// date falls within [from, to] inclusive, sorted by date then start time.
	ScheduleEvents(ctx context.Context, moduleCodes []string, from, to time.Time) ([]ScheduleEvent, error)

	// AnnouncementsByModule returns up to limit announcements for the module,
	// newest first. limit <= 0 means no cap.
	AnnouncementsByModule(ctx context.Context, code string, limit int) ([]Announcement, error)

	// AssignmentsByModule returns all assignments for the module in due-date
	// order.
	AssignmentsByModule(ctx context.Context, code string) ([]Assignment, error)

	// OutstandingPayments returns the user's payments with status != "paid",
	// sorted by due date ascending.
	OutstandingPayments(ctx context.Context, userID string) ([]Payment, error)

	// UpcomingEvents returns campus events starting at or after now, sorted
	// ascending, capped at limit.
	UpcomingEvents(ctx context.Context, now time.Time, limit int) ([]CampusEvent, error)

	// MaterialsByModule returns the materials of a module, optionally filtered
	// by category (empty category means all), sorted by upload date descending.
	MaterialsByModule(ctx context.Context, code, category string) ([]Material, error)

	// MaterialByTitle returns the material of a module with the exact title.
	// Returns [ErrNotFound] when no title matches.
	MaterialByTitle(ctx context.Context, code, title string) (*Material, error)

	// SessionByID returns a chat session with its embedded message log.
	// Returns [ErrNotFound] when the session does not exist.
	SessionByID(ctx context.Context, id string) (*ChatSession, error)

	// CreateSession persists a new chat session.
	CreateSession(ctx context.Context, sess *ChatSession) error

	// AppendMessages appends messages to the session's embedded log and
	// bumps its UpdatedAt. Returns [ErrNotFound] when the session does not
	// exist.
	AppendMessages(ctx context.Context, sessionID string, msgs ...ChatMessage) error
}
