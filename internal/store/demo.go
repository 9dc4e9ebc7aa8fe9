package store

import "time"

// NewDemoStore returns a [MemStore] populated with a small campus fixture:
// two students, three modules, and enough schedule, payment, event, and
// material data to exercise every tool. Used by the -demo server flag and
// handy in development when no database is configured.
func NewDemoStore() *MemStore {
	s := NewMemStore()

	s.AddUser(User{
		ID:             "u-1001",
		Name:           "Jonas Weber",
		Email:          "jonas.weber@campus.example.edu",
		Role:           "student",
		School:         "School of Computer Science",
		Program:        "Bachelor of Software Engineering",
		WAM:            78.4,
		EnrollmentYear: 2024,
	})
	s.AddUser(User{
		ID:             "u-1002",
		Name:           "Aisha Rahman",
		Email:          "aisha.rahman@campus.example.edu",
		Role:           "student",
		School:         "School of Mathematics",
		Program:        "Bachelor of Data Science",
		WAM:            84.1,
		EnrollmentYear: 2025,
	})

	s.AddModule(Module{
		Code:        "COMP1511",
		Name:        "Programming Fundamentals",
		Credits:     6,
		Description: "An introduction to problem solving and programming in C.",
		Coordinator: "Dr. Elena Petrova",
	})
	s.AddModule(Module{
		Code:        "SENG2021",
		Name:        "Requirements and Design",
		Credits:     6,
		Description: "Software requirements elicitation, specification, and design workshops.",
		Coordinator: "Prof. Daniel Okafor",
	})
	s.AddModule(Module{
		Code:        "MATH1081",
		Name:        "Discrete Mathematics",
		Credits:     6,
		Description: "Sets, logic, graph theory, and combinatorics for computing students.",
		Coordinator: "Dr. Mei Lin",
	})

	s.AddEnrollment(Enrollment{UserID: "u-1001", ModuleCode: "COMP1511", Status: "active"})
	s.AddEnrollment(Enrollment{UserID: "u-1001", ModuleCode: "SENG2021", Status: "active"})
	s.AddEnrollment(Enrollment{UserID: "u-1002", ModuleCode: "MATH1081", Status: "active"})
	s.AddEnrollment(Enrollment{UserID: "u-1002", ModuleCode: "COMP1511", Status: "completed"})

	// A repeating weekly pattern around the current date keeps schedule
	// queries non-empty whenever the demo runs.
	monday := time.Now().Truncate(24 * time.Hour)
	for monday.Weekday() != time.Monday {
		monday = monday.AddDate(0, 0, -1)
	}
	for week := 0; week < 4; week++ {
		base := monday.AddDate(0, 0, 7*week)
		s.AddScheduleEvent(ScheduleEvent{
			ModuleCode: "COMP1511", Kind: "lecture", Title: "COMP1511 Lecture",
			Location: "Science Theatre", Date: base, StartTime: "09:00", EndTime: "11:00",
		})
		s.AddScheduleEvent(ScheduleEvent{
			ModuleCode: "COMP1511", Kind: "lab", Title: "COMP1511 Lab",
			Location: "K17 Lab 2", Date: base.AddDate(0, 0, 2), StartTime: "13:00", EndTime: "15:00",
		})
		s.AddScheduleEvent(ScheduleEvent{
			ModuleCode: "SENG2021", Kind: "workshop", Title: "SENG2021 Design Workshop",
			Location: "Quadrangle G040", Date: base.AddDate(0, 0, 3), StartTime: "10:00", EndTime: "12:00",
		})
		s.AddScheduleEvent(ScheduleEvent{
			ModuleCode: "MATH1081", Kind: "tutorial", Title: "MATH1081 Tutorial",
			Location: "Red Centre 1040", Date: base.AddDate(0, 0, 1), StartTime: "14:00", EndTime: "15:00",
		})
	}

	s.AddPayment(Payment{
		ID: "pay-501", UserID: "u-1001", Description: "Term 2 tuition instalment",
		Amount: 2450.00, Currency: "EUR", Status: "outstanding",
		DueDate: time.Now().AddDate(0, 0, 21),
	})
	s.AddPayment(Payment{
		ID: "pay-502", UserID: "u-1001", Description: "Student services fee",
		Amount: 89.50, Currency: "EUR", Status: "outstanding",
		DueDate: time.Now().AddDate(0, 0, 7),
	})

	s.AddCampusEvent(CampusEvent{
		ID: "ev-1", Title: "Open Day", Location: "Main Campus",
		Description: "Tours, talks, and course advice for prospective students.",
		StartsAt:    time.Now().AddDate(0, 0, 5),
	})
	s.AddCampusEvent(CampusEvent{
		ID: "ev-2", Title: "Careers Fair", Location: "Exhibition Hall",
		Description: "Meet employers hiring interns and graduates.",
		StartsAt:    time.Now().AddDate(0, 0, 12),
	})
	s.AddCampusEvent(CampusEvent{
		ID: "ev-3", Title: "Hackathon Kickoff", Location: "Innovation Hub",
		Description: "48 hours of building with mentors and prizes.",
		StartsAt:    time.Now().AddDate(0, 0, 19),
	})

	s.AddAnnouncement(Announcement{
		ModuleCode: "COMP1511", Title: "Assignment 1 released",
		Body:     "The first assignment is now available. Start early.",
		PostedAt: time.Now().AddDate(0, 0, -2),
	})
	s.AddAnnouncement(Announcement{
		ModuleCode: "SENG2021", Title: "Workshop rooms changed",
		Body:     "This week's workshops move to Quadrangle G040.",
		PostedAt: time.Now().AddDate(0, 0, -1),
	})

	s.AddAssignment(Assignment{
		ModuleCode: "COMP1511", Title: "Assignment 1: CS Paint",
		DueDate: time.Now().AddDate(0, 0, 18), Weight: 15,
	})
	s.AddAssignment(Assignment{
		ModuleCode: "SENG2021", Title: "Requirements Report",
		DueDate: time.Now().AddDate(0, 0, 10), Weight: 25,
	})

	s.AddMaterial(Material{
		ModuleCode: "COMP1511", Title: "Week 1: Intro to C", Category: "slides",
		UploadedAt: time.Now().AddDate(0, 0, -14),
		Text:       "Welcome to COMP1511. This week covers variables, types, and your first C program with printf and scanf.",
	})
	s.AddMaterial(Material{
		ModuleCode: "COMP1511", Title: "Style Guide", Category: "notes",
		UploadedAt: time.Now().AddDate(0, 0, -14),
		Text:       "Consistent indentation, meaningful names, and small functions make marking easier and code clearer.",
	})
	s.AddMaterial(Material{
		ModuleCode: "SENG2021", Title: "Design Patterns Primer", Category: "notes",
		UploadedAt: time.Now().AddDate(0, 0, -7),
		Text:       "A pattern names a recurring design problem and a proven solution shape. We focus on observer, strategy, and factory.",
	})

	return s
}
