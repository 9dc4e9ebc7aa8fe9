package campus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/campusbuddy/campusbuddy/internal/tools"
	"github.com/campusbuddy/campusbuddy/pkg/provider/llm"
)

// scheduleArgs is the JSON-decoded input for "get_my_schedule". Both dates
// are mandatory; the handler rejects calls missing either instead of
// guessing a default range.
type scheduleArgs struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// scheduleEventResult is one timetable entry in the schedule payload.
type scheduleEventResult struct {
	ModuleCode string `json:"module_code"`
	Kind       string `json:"kind"`
	Title      string `json:"title"`
	Location   string `json:"location"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
}

func (c *Catalog) scheduleHandler(ctx context.Context, args string) (string, error) {
	var a scheduleArgs
	if err := json.Unmarshal([]byte(args), &a); err != nil {
		return "", fmt.Errorf("campus: get_my_schedule: failed to parse arguments: %w", err)
	}
	if a.StartDate == "" || a.EndDate == "" {
		return "", errors.New("start_date and end_date are required (format YYYY-MM-DD)")
	}
	from, err := time.Parse(time.DateOnly, a.StartDate)
	if err != nil {
		return "", fmt.Errorf("invalid start_date %q, expected YYYY-MM-DD", a.StartDate)
	}
	to, err := time.Parse(time.DateOnly, a.EndDate)
	if err != nil {
		return "", fmt.Errorf("invalid end_date %q, expected YYYY-MM-DD", a.EndDate)
	}
	if to.Before(from) {
		return "", errors.New("end_date must not be before start_date")
	}

	uid, err := callerID(ctx)
	if err != nil {
		return "", err
	}

	enrollments, err := c.store.ActiveEnrollments(ctx, uid)
	if err != nil {
		return "", fmt.Errorf("campus: get_my_schedule: %w", err)
	}
	if len(enrollments) == 0 {
		return encode(tools.NameSchedule, marker{Message: "no events in the requested range"})
	}

	codes := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		codes = append(codes, e.ModuleCode)
	}

	events, err := c.store.ScheduleEvents(ctx, codes, from, to)
	if err != nil {
		return "", fmt.Errorf("campus: get_my_schedule: %w", err)
	}
	if len(events) == 0 {
		return encode(tools.NameSchedule, marker{Message: "no events in the requested range"})
	}

	results := make([]scheduleEventResult, 0, len(events))
	for _, ev := range events {
		results = append(results, scheduleEventResult{
			ModuleCode: ev.ModuleCode,
			Kind:       ev.Kind,
			Title:      ev.Title,
			Location:   ev.Location,
			Date:       ev.Date.Format(time.DateOnly),
			StartTime:  ev.StartTime,
			EndTime:    ev.EndTime,
		})
	}
	return encode(tools.NameSchedule, results)
}

func (c *Catalog) scheduleTool() tools.Tool {
	return tools.Tool{
		Definition: llm.ToolDefinition{
			Name:        tools.NameSchedule,
			Description: "Get the current user's timetable events (lectures, tutorials, labs, exams) for their enrolled modules within a date range. Both dates are required.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"start_date": map[string]any{
						"type":        "string",
						"description": "First day of the range, inclusive, in YYYY-MM-DD format.",
					},
					"end_date": map[string]any{
						"type":        "string",
						"description": "Last day of the range, inclusive, in YYYY-MM-DD format.",
					},
				},
				"required": []string{"start_date", "end_date"},
			},
		},
		Handler: c.scheduleHandler,
	}
}
