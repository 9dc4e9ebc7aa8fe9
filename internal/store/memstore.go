package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"
)

// Compile-time assertion that MemStore satisfies the Store interface.
var _ Store = (*MemStore)(nil)

// MemStore is a thread-safe, in-memory implementation of [Store]. It backs
// unit tests and the demo mode of the server binary. The zero value is not
// usable; create instances with [NewMemStore] and seed them with the Add*
// methods.
type MemStore struct {
	mu            sync.RWMutex
	users         map[string]User
	modules       map[string]Module
	enrollments   []Enrollment
	schedule      []ScheduleEvent
	payments      []Payment
	campusEvents  []CampusEvent
	announcements []Announcement
	assignments   []Assignment
	materials     []Material
	sessions      map[string]*ChatSession
}

// NewMemStore returns an initialised, empty [MemStore].
func NewMemStore() *MemStore {
	return &MemStore{
		users:    make(map[string]User),
		modules:  make(map[string]Module),
		sessions: make(map[string]*ChatSession),
	}
}

// AddUser seeds a user record.
func (s *MemStore) AddUser(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// AddModule seeds a module record.
func (s *MemStore) AddModule(m Module) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modules[m.Code] = m
}

// AddEnrollment seeds an enrollment record.
func (s *MemStore) AddEnrollment(e Enrollment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enrollments = append(s.enrollments, e)
}

// AddScheduleEvent seeds a timetable event.
func (s *MemStore) AddScheduleEvent(e ScheduleEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedule = append(s.schedule, e)
}

// AddPayment seeds a payment record.
func (s *MemStore) AddPayment(p Payment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments = append(s.payments, p)
}

// AddCampusEvent seeds a public campus event.
func (s *MemStore) AddCampusEvent(e CampusEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.campusEvents = append(s.campusEvents, e)
}

// AddAnnouncement seeds a module announcement.
func (s *MemStore) AddAnnouncement(a Announcement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.announcements = append(s.announcements, a)
}

// AddAssignment seeds a module assignment.
func (s *MemStore) AddAssignment(a Assignment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments = append(s.assignments, a)
}

// AddMaterial seeds a course material.
func (s *MemStore) AddMaterial(m Material) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.materials = append(s.materials, m)
}

// UserByID implements [Store.UserByID].
func (s *MemStore) UserByID(_ context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

// ActiveEnrollments implements [Store.ActiveEnrollments].
func (s *MemStore) ActiveEnrollments(_ context.Context, userID string) ([]Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []Enrollment{}
	for _, e := range s.enrollments {
		if e.UserID == userID && e.Status == "active" {
			result = append(result, e)
		}
	}
	return result, nil
}

// ModuleByCode implements [Store.ModuleByCode].
func (s *MemStore) ModuleByCode(_ context.Context, code string) (*Module, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.modules[code]
	if !ok {
		return nil, ErrNotFound
	}
	return &m, nil
}

// ModuleCodes implements [Store.ModuleCodes].
func (s *MemStore) ModuleCodes(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	codes := make([]string, 0, len(s.modules))
	for code := range s.modules {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes, nil
}

// ScheduleEvents implements [Store.ScheduleEvents].
func (s *MemStore) ScheduleEvents(_ context.Context, moduleCodes []string, from, to time.Time) ([]ScheduleEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []ScheduleEvent{}
	for _, e := range s.schedule {
		if !slices.Contains(moduleCodes, e.ModuleCode) {
			continue
		}
		if e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		result = append(result, e)
	}
	slices.SortFunc(result, func(a, b ScheduleEvent) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return strings.Compare(a.StartTime, b.StartTime)
	})
	return result, nil
}

// AnnouncementsByModule implements [Store.AnnouncementsByModule].
func (s *MemStore) AnnouncementsByModule(_ context.Context, code string, limit int) ([]Announcement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []Announcement{}
	for _, a := range s.announcements {
		if a.ModuleCode == code {
			result = append(result, a)
		}
	}
	slices.SortFunc(result, func(a, b Announcement) int {
		return b.PostedAt.Compare(a.PostedAt) // newest first
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// AssignmentsByModule implements [Store.AssignmentsByModule].
func (s *MemStore) AssignmentsByModule(_ context.Context, code string) ([]Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []Assignment{}
	for _, a := range s.assignments {
		if a.ModuleCode == code {
			result = append(result, a)
		}
	}
	slices.SortFunc(result, func(a, b Assignment) int {
		return a.DueDate.Compare(b.DueDate)
	})
	return result, nil
}

// OutstandingPayments implements [Store.OutstandingPayments].
func (s *MemStore) OutstandingPayments(_ context.Context, userID string) ([]Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []Payment{}
	for _, p := range s.payments {
		if p.UserID == userID && p.Status != "paid" {
			result = append(result, p)
		}
	}
	slices.SortFunc(result, func(a, b Payment) int {
		return a.DueDate.Compare(b.DueDate)
	})
	return result, nil
}

// UpcomingEvents implements [Store.UpcomingEvents].
func (s *MemStore) UpcomingEvents(_ context.Context, now time.Time, limit int) ([]CampusEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []CampusEvent{}
	for _, e := range s.campusEvents {
		if !e.StartsAt.Before(now) {
			result = append(result, e)
		}
	}
	slices.SortFunc(result, func(a, b CampusEvent) int {
		return a.StartsAt.Compare(b.StartsAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// MaterialsByModule implements [Store.MaterialsByModule].
func (s *MemStore) MaterialsByModule(_ context.Context, code, category string) ([]Material, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []Material{}
	for _, m := range s.materials {
		if m.ModuleCode != code {
			continue
		}
		if category != "" && m.Category != category {
			continue
		}
		result = append(result, m)
	}
	slices.SortFunc(result, func(a, b Material) int {
		return b.UploadedAt.Compare(a.UploadedAt) // newest first
	})
	return result, nil
}

// MaterialByTitle implements [Store.MaterialByTitle].
func (s *MemStore) MaterialByTitle(_ context.Context, code, title string) (*Material, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.materials {
		if m.ModuleCode == code && m.Title == title {
			mat := m
			return &mat, nil
		}
	}
	return nil, ErrNotFound
}

// SessionByID implements [Store.SessionByID].
func (s *MemStore) SessionByID(_ context.Context, id string) (*ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	// Return a deep copy so callers cannot mutate shared state.
	cp := *sess
	cp.Messages = slices.Clone(sess.Messages)
	return &cp, nil
}

// CreateSession implements [Store.CreateSession].
func (s *MemStore) CreateSession(_ context.Context, sess *ChatSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *sess
	cp.Messages = slices.Clone(sess.Messages)
	s.sessions[sess.ID] = &cp
	return nil
}

// AppendMessages implements [Store.AppendMessages].
func (s *MemStore) AppendMessages(_ context.Context, sessionID string, msgs ...ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	sess.Messages = append(sess.Messages, msgs...)
	for _, m := range msgs {
		if m.SentAt.After(sess.UpdatedAt) {
			sess.UpdatedAt = m.SentAt
		}
	}
	return nil
}
