package campus

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/campusbuddy/campusbuddy/internal/store"
	"github.com/campusbuddy/campusbuddy/internal/tools"
)

// date builds a UTC midnight timestamp for test fixtures.
func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// seededStore returns a MemStore with a small but complete campus fixture:
// one student with two active enrollments, schedule events, payments,
// announcements, assignments, materials, and public events.
func seededStore() *store.MemStore {
	s := store.NewMemStore()

	s.AddUser(store.User{
		ID:             "u1",
		Name:           "Mara Lindqvist",
		Email:          "mara@university.edu",
		Role:           "student",
		School:         "Engineering",
		Program:        "BSc Computer Science",
		WAM:            74.5,
		EnrollmentYear: 2024,
	})

	s.AddModule(store.Module{Code: "COMP1511", Name: "Programming Fundamentals", Credits: 6, Coordinator: "Dr. Chen"})
	s.AddModule(store.Module{Code: "MATH1131", Name: "Mathematics 1A", Credits: 6})
	s.AddModule(store.Module{Code: "COMP2521", Name: "Data Structures and Algorithms", Credits: 6})

	s.AddEnrollment(store.Enrollment{UserID: "u1", ModuleCode: "COMP1511", Status: "active"})
	s.AddEnrollment(store.Enrollment{UserID: "u1", ModuleCode: "MATH1131", Status: "active"})
	s.AddEnrollment(store.Enrollment{UserID: "u1", ModuleCode: "COMP2521", Status: "completed"})

	s.AddScheduleEvent(store.ScheduleEvent{
		ModuleCode: "COMP1511", Kind: "lecture", Title: "Week 1 Lecture",
		Location: "CLB 7", Date: date(2026, 3, 2), StartTime: "09:00", EndTime: "11:00",
	})
	s.AddScheduleEvent(store.ScheduleEvent{
		ModuleCode: "MATH1131", Kind: "tutorial", Title: "Tutorial",
		Location: "Quad G031", Date: date(2026, 3, 2), StartTime: "13:00", EndTime: "14:00",
	})
	s.AddScheduleEvent(store.ScheduleEvent{
		ModuleCode: "COMP1511", Kind: "lab", Title: "Lab 1",
		Location: "Brass Lab", Date: date(2026, 3, 4), StartTime: "15:00", EndTime: "17:00",
	})
	// Outside any test range.
	s.AddScheduleEvent(store.ScheduleEvent{
		ModuleCode: "COMP1511", Kind: "exam", Title: "Final Exam",
		Location: "Exam Hall", Date: date(2026, 6, 20), StartTime: "09:00", EndTime: "12:00",
	})

	s.AddPayment(store.Payment{
		ID: "p1", UserID: "u1", Description: "Semester 1 tuition",
		Amount: 4200, Currency: "AUD", Status: "pending", DueDate: date(2026, 3, 15),
	})
	s.AddPayment(store.Payment{
		ID: "p2", UserID: "u1", Description: "Library fine",
		Amount: 12.5, Currency: "AUD", Status: "overdue", DueDate: date(2026, 2, 1),
	})
	s.AddPayment(store.Payment{
		ID: "p3", UserID: "u1", Description: "Gym membership",
		Amount: 99, Currency: "AUD", Status: "paid", DueDate: date(2026, 1, 10),
	})

	s.AddCampusEvent(store.CampusEvent{ID: "e1", Title: "Open Day", Location: "Main Campus", StartsAt: date(2026, 9, 5)})
	s.AddCampusEvent(store.CampusEvent{ID: "e2", Title: "Careers Fair", Location: "Roundhouse", StartsAt: date(2026, 9, 1)})
	s.AddCampusEvent(store.CampusEvent{ID: "e3", Title: "Orientation Week", Location: "Quad", StartsAt: date(2026, 2, 10)})

	for i, posted := range []time.Time{date(2026, 2, 1), date(2026, 2, 10), date(2026, 2, 20), date(2026, 3, 1)} {
		s.AddAnnouncement(store.Announcement{
			ModuleCode: "COMP1511",
			Title:      "Announcement " + string(rune('A'+i)),
			Body:       "body",
			PostedAt:   posted,
		})
	}
	s.AddAssignment(store.Assignment{ModuleCode: "COMP1511", Title: "Assignment 1", DueDate: date(2026, 4, 1), Weight: 0.15})
	s.AddAssignment(store.Assignment{ModuleCode: "COMP1511", Title: "Assignment 2", DueDate: date(2026, 5, 15), Weight: 0.25})

	s.AddMaterial(store.Material{
		ModuleCode: "COMP1511", Title: "Week 1 Notes", Category: "lecture_notes",
		UploadedAt: date(2026, 2, 25),
		Text:       "Introduction to C programming.\n\nPointers   hold memory addresses and are declared with an asterisk.",
	})
	s.AddMaterial(store.Material{
		ModuleCode: "COMP1511", Title: "Week 2 Slides", Category: "slides",
		UploadedAt: date(2026, 3, 3),
		Text:       "Arrays and loops. A pointer can walk an array element by element.",
	})
	s.AddMaterial(store.Material{
		ModuleCode: "COMP1511", Title: "Style Guide", Category: "reading",
		UploadedAt: date(2026, 2, 20),
		Text:       "Indent with tabs. Name variables descriptively.",
	})

	return s
}

// newTestCatalog wires a Catalog over the seeded store with a fixed clock.
func newTestCatalog() *Catalog {
	c := New(seededStore())
	c.now = func() time.Time { return date(2026, 3, 1) }
	return c
}

// asUser returns a context carrying an authenticated caller.
func asUser(id string) context.Context {
	return tools.WithCaller(context.Background(), tools.Caller{UserID: id})
}

func TestTools_FullCatalog(t *testing.T) {
	t.Parallel()
	ts := newTestCatalog().Tools()
	if len(ts) != 9 {
		t.Fatalf("catalog size = %d, want 9", len(ts))
	}
	for _, tool := range ts {
		if tool.Handler == nil {
			t.Errorf("tool %q has nil handler", tool.Definition.Name)
		}
	}
}

func TestProfile(t *testing.T) {
	t.Parallel()
	c := newTestCatalog()

	out, err := c.profileHandler(asUser("u1"), "{}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got profileResult
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON result: %v", err)
	}
	if got.Name != "Mara Lindqvist" {
		t.Errorf("name = %q, want Mara Lindqvist", got.Name)
	}
	if got.WAM != 74.5 {
		t.Errorf("wam = %v, want 74.5", got.WAM)
	}
}

func TestProfile_UnknownUser(t *testing.T) {
	t.Parallel()
	c := newTestCatalog()

	_, err := c.profileHandler(asUser("ghost"), "{}")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("err = %v, want user not found", err)
	}
}

func TestProfile_GuestCaller(t *testing.T) {
	t.Parallel()
	c := newTestCatalog()

	_, err := c.profileHandler(context.Background(), "{}")
	if err == nil {
		t.Fatal("expected error for unauthenticated caller")
	}
}

func TestMyModules(t *testing.T) {
	t.Parallel()
	c := newTestCatalog()

	out, err := c.myModulesHandler(asUser("u1"), "{}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got []moduleSummary
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON result: %v", err)
	}
	// Only active enrollments: COMP2521 is completed and must not appear.
	if len(got) != 2 {
		t.Fatalf("modules = %d, want 2", len(got))
	}
	for _, m := range got {
		if m.Code == "COMP2521" {
			t.Error("completed enrollment COMP2521 should not be listed")
		}
		if m.Credits != 6 {
			t.Errorf("module %s credits = %d, want 6", m.Code, m.Credits)
		}
	}
}

func TestMyModules_NoEnrollments(t *testing.T) {
	t.Parallel()
	s := store.NewMemStore()
	s.AddUser(store.User{ID: "u2", Name: "Fresh Starter"})
	c := New(s)

	out, err := c.myModulesHandler(asUser("u2"), "{}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got marker
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON result: %v", err)
	}
	if got.Message != "no active enrollments" {
		t.Errorf("message = %q, want no active enrollments", got.Message)
	}
}

func TestSchedule(t *testing.T) {
	t.Parallel()
	c := newTestCatalog()

	out, err := c.scheduleHandler(asUser("u1"),
		`{"start_date":"2026-03-01","end_date":"2026-03-07"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got []scheduleEventResult
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON result: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("events = %d, want 3", len(got))
	}
	// Sorted by date then start time.
	wantOrder := []string{"Week 1 Lecture", "Tutorial", "Lab 1"}
	for i, w := range wantOrder {
		if got[i].Title != w {
			t.Errorf("event[%d] = %q, want %q", i, got[i].Title, w)
		}
	}

	// Repeating the lookup with identical arguments yields identical output.
	again, err := c.scheduleHandler(asUser("u1"),
		`{"start_date":"2026-03-01","end_date":"2026-03-07"}`)
	if err != nil {
		t.Fatalf("unexpected error on repeat: %v", err)
	}
	if again != out {
		t.Errorf("repeat result differs:\nfirst:  %s\nsecond: %s", out, again)
	}
}

func TestSchedule_MissingDates(t *testing.T) {
	t.Parallel()
	c := newTestCatalog()

	tests := []struct {
		name string
		args string
	}{
		{"both missing", `{}`},
		{"start missing", `{"end_date":"2026-03-07"}`},
		{"end missing", `{"start_date":"2026-03-01"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.scheduleHandler(asUser("u1"), tt.args)
			if err == nil || !strings.Contains(err.Error(), "required") {
				t.Fatalf("err = %v, want required-dates error", err)
			}
		})
	}
}

func TestSchedule_MalformedDate(t *testing.T) {
	t.Parallel()
	c := newTestCatalog()

	_, err := c.scheduleHandler(asUser("u1"),
		`{"start_date":"03/01/2026","end_date":"2026-03-07"}`)
	if err == nil || !strings.Contains(err.Error(), "invalid start_date") {
		t.Fatalf("err = %v, want invalid start_date", err)
	}
}

func TestSchedule_EmptyRangeIsMarker(t *testing.T) {
	t.Parallel()
	c := newTestCatalog()

	out, err := c.scheduleHandler(asUser("u1"),
		`{"start_date":"2027-01-01","end_date":"2027-01-07"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got marker
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON result: %v", err)
	}
	if got.Message == "" {
		t.Error("expected a no-events marker message")
	}
}

func TestModuleInfo(t *testing.T) {
	t.Parallel()
	c := newTestCatalog()

	out, err := c.moduleInfoHandler(asUser("u1"), `{"module_code":"COMP1511"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got moduleInfoResult
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON result: %v", err)
	}
	if got.Name != "Programming Fundamentals" {
		t.Errorf("name = %q", got.Name)
	}
	// Capped at the 3 most recent, newest first.
	if len(got.Announcements) != 3 {
		t.Fatalf("announcements = %d, want 3", len(got.Announcements))
	}
	if got.Announcements[0].PostedAt != "2026-03-01" {
		t.Errorf("newest announcement posted_at = %q, want 2026-03-01", got.Announcements[0].PostedAt)
	}
	if len(got.Assignments) != 2 {
		t.Errorf("assignments = %d, want 2", len(got.Assignments))
	}
}

func TestModuleInfo_NotFoundWithSuggestion(t *testing.T) {
	t.Parallel()
	c := newTestCatalog()

	_, err := c.moduleInfoHandler(asUser("u1"), `{"module_code":"COMP1501"}`)
	if err == nil {
		t.Fatal("expected error for unknown module")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("err = %v, want not-found", err)
	}
	if !strings.Contains(err.Error(), `did you mean "COMP1511"`) {
		t.Errorf("err = %v, want suggestion for COMP1511", err)
	}
}

func TestModuleInfo_NotFoundNoNearMiss(t *testing.T) {
	t.Parallel()
	c := newTestCatalog()

	_, err := c.moduleInfoHandler(asUser("u1"), `{"module_code":"BIOL9999"}`)
	if err == nil {
		t.Fatal("expected error for unknown module")
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("err = %v, should not suggest a distant code", err)
	}
}

func TestPayments(t *testing.T) {
	t.Parallel()
	c := newTestCatalog()

	out, err := c.paymentsHandler(asUser("u1"), "{}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got paymentsResult
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON result: %v", err)
	}
	// Paid records excluded, due date ascending.
	if len(got.Outstanding) != 2 {
		t.Fatalf("outstanding = %d, want 2", len(got.Outstanding))
	}
	if got.Outstanding[0].Description != "Library fine" {
		t.Errorf("first outstanding = %q, want Library fine (earliest due)", got.Outstanding[0].Description)
	}
	if got.Instructions == "" {
		t.Error("instructions must always be attached")
	}
}

func TestPayments_InstructionsWithoutRecords(t *testing.T) {
	t.Parallel()
	s := store.NewMemStore()
	s.AddUser(store.User{ID: "u2", Name: "Debt Free"})
	c := New(s)

	out, err := c.paymentsHandler(asUser("u2"), "{}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got paymentsResult
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON result: %v", err)
	}
	if len(got.Outstanding) != 0 {
		t.Errorf("outstanding = %d, want 0", len(got.Outstanding))
	}
	if got.Instructions == "" {
		t.Error("instructions must be attached even with no outstanding records")
	}
}

func TestPublicEvents(t *testing.T) {
	t.Parallel()
	c := newTestCatalog()

	out, err := c.publicEventsHandler(context.Background(), "{}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got []campusEventResult
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON result: %v", err)
	}
	// Orientation Week (2026-02-10) is before the fixed clock and excluded.
	if len(got) != 2 {
		t.Fatalf("events = %d, want 2", len(got))
	}
	if got[0].Title != "Careers Fair" {
		t.Errorf("first event = %q, want Careers Fair (soonest first)", got[0].Title)
	}
}

func TestPublicEvents_Cap(t *testing.T) {
	t.Parallel()
	s := seededStore()
	for i := range 10 {
		s.AddCampusEvent(store.CampusEvent{
			ID:       "bulk" + string(rune('a'+i)),
			Title:    "Talk",
			StartsAt: date(2026, 10, 1+i),
		})
	}
	c := New(s)
	c.now = func() time.Time { return date(2026, 3, 1) }

	out, err := c.publicEventsHandler(context.Background(), "{}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got []campusEventResult
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON result: %v", err)
	}
	if len(got) != upcomingEventsCap {
		t.Errorf("events = %d, want cap %d", len(got), upcomingEventsCap)
	}
}

func TestListMaterials(t *testing.T) {
	t.Parallel()
	c := newTestCatalog()

	out, err := c.listMaterialsHandler(context.Background(), `{"module_code":"COMP1511"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got []materialEntry
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON result: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("materials = %d, want 3", len(got))
	}
}

func TestListMaterials_CategoryFilter(t *testing.T) {
	t.Parallel()
	c := newTestCatalog()

	out, err := c.listMaterialsHandler(context.Background(),
		`{"module_code":"COMP1511","category":"slides"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got []materialEntry
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON result: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Week 2 Slides" {
		t.Fatalf("got %+v, want only Week 2 Slides", got)
	}
}

func TestReadMaterial(t *testing.T) {
	t.Parallel()
	c := newTestCatalog()

	out, err := c.readMaterialHandler(context.Background(),
		`{"module_code":"COMP1511","title":"Style Guide"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got readMaterialResult
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON result: %v", err)
	}
	if !strings.Contains(got.Text, "Indent with tabs") {
		t.Errorf("text = %q, want full extracted text", got.Text)
	}
}

func TestReadMaterial_TitleNotFound(t *testing.T) {
	t.Parallel()
	c := newTestCatalog()

	_, err := c.readMaterialHandler(context.Background(),
		`{"module_code":"COMP1511","title":"week 1 notes"}`)
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("err = %v, want not-found for inexact title", err)
	}
}

func TestSearchMaterials(t *testing.T) {
	t.Parallel()
	c := newTestCatalog()

	out, err := c.searchMaterialsHandler(context.Background(),
		`{"module_code":"COMP1511","query":"POINTER"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got []searchMatch
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON result: %v", err)
	}
	// Case-insensitive: both pointer materials match.
	if len(got) != 2 {
		t.Fatalf("matches = %d, want 2", len(got))
	}
	for _, m := range got {
		if !strings.Contains(strings.ToLower(m.Snippet), "pointer") {
			t.Errorf("snippet %q should contain the match", m.Snippet)
		}
		if strings.ContainsAny(m.Snippet, "\n\t") {
			t.Errorf("snippet %q should have whitespace collapsed", m.Snippet)
		}
	}
}

func TestSearchMaterials_NoMatches(t *testing.T) {
	t.Parallel()
	c := newTestCatalog()

	out, err := c.searchMaterialsHandler(context.Background(),
		`{"module_code":"COMP1511","query":"quantum chromodynamics"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got marker
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON result: %v", err)
	}
	if got.Message != "no matches" {
		t.Errorf("message = %q, want no matches", got.Message)
	}
}

func TestSearchMaterials_MissingQuery(t *testing.T) {
	t.Parallel()
	c := newTestCatalog()

	_, err := c.searchMaterialsHandler(context.Background(),
		`{"module_code":"COMP1511"}`)
	if err == nil || !strings.Contains(err.Error(), "query is required") {
		t.Fatalf("err = %v, want query-required error", err)
	}
}

func TestSnippet_CentersAndCollapses(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x ", 300) + "needle\n\nhere" + strings.Repeat(" y", 300)
	idx := strings.Index(long, "needle")
	got := snippet(long, idx, len("needle"))

	if !strings.Contains(got, "needle here") {
		t.Errorf("snippet = %q, want collapsed match context", got)
	}
	if len(got) > 2*snippetRadius+len("needle")+2 {
		t.Errorf("snippet length = %d, exceeds radius bound", len(got))
	}
}

func TestSnippet_KeepsRunesIntact(t *testing.T) {
	t.Parallel()

	// Three-byte runes on both sides place the raw window edges mid-rune.
	long := strings.Repeat("€", 300) + "needle" + strings.Repeat("₿", 300)
	idx := strings.Index(long, "needle")
	got := snippet(long, idx, len("needle"))

	if !utf8.ValidString(got) {
		t.Fatalf("snippet is not valid UTF-8: %q", got)
	}
	if strings.ContainsRune(got, utf8.RuneError) {
		t.Errorf("snippet contains replacement runes: %q", got)
	}
	if !strings.Contains(got, "needle") {
		t.Errorf("snippet = %q, want the match itself", got)
	}
}
