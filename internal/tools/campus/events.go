package campus

import (
	"context"
	"fmt"
	"time"

	"github.com/campusbuddy/campusbuddy/internal/tools"
	"github.com/campusbuddy/campusbuddy/pkg/provider/llm"
)

// upcomingEventsCap bounds the public-events payload.
const upcomingEventsCap = 5

// campusEventResult is one entry in the "get_public_events" payload.
type campusEventResult struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location"`
	StartsAt    string `json:"starts_at"`
}

func (c *Catalog) publicEventsHandler(ctx context.Context, _ string) (string, error) {
	events, err := c.store.UpcomingEvents(ctx, c.now(), upcomingEventsCap)
	if err != nil {
		return "", fmt.Errorf("campus: get_public_events: %w", err)
	}
	if len(events) == 0 {
		return encode(tools.NamePublicEvents, marker{Message: "no upcoming events"})
	}

	results := make([]campusEventResult, 0, len(events))
	for _, ev := range events {
		results = append(results, campusEventResult{
			Title:       ev.Title,
			Description: ev.Description,
			Location:    ev.Location,
			StartsAt:    ev.StartsAt.Format(time.RFC3339),
		})
	}
	return encode(tools.NamePublicEvents, results)
}

func (c *Catalog) publicEventsTool() tools.Tool {
	return tools.Tool{
		Definition: llm.ToolDefinition{
			Name:        tools.NamePublicEvents,
			Description: "List upcoming public campus events (open days, career fairs, talks), soonest first, up to 5.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
		Handler: c.publicEventsHandler,
	}
}
