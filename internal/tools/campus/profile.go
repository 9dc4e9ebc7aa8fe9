package campus

import (
	"context"
	"errors"
	"fmt"

	"github.com/campusbuddy/campusbuddy/internal/store"
	"github.com/campusbuddy/campusbuddy/internal/tools"
	"github.com/campusbuddy/campusbuddy/pkg/provider/llm"
)

// profileResult is the account projection returned by "get_my_profile".
// Secrets never appear here; the store already excludes them.
type profileResult struct {
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Role           string  `json:"role"`
	School         string  `json:"school,omitempty"`
	Program        string  `json:"program,omitempty"`
	WAM            float64 `json:"wam,omitempty"`
	EnrollmentYear int     `json:"enrollment_year,omitempty"`
}

func (c *Catalog) profileHandler(ctx context.Context, _ string) (string, error) {
	uid, err := callerID(ctx)
	if err != nil {
		return "", err
	}

	u, err := c.store.UserByID(ctx, uid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", errors.New("user not found")
		}
		return "", fmt.Errorf("campus: get_my_profile: %w", err)
	}

	return encode(tools.NameProfile, profileResult{
		Name:           u.Name,
		Email:          u.Email,
		Role:           u.Role,
		School:         u.School,
		Program:        u.Program,
		WAM:            u.WAM,
		EnrollmentYear: u.EnrollmentYear,
	})
}

func (c *Catalog) profileTool() tools.Tool {
	return tools.Tool{
		Definition: llm.ToolDefinition{
			Name:        tools.NameProfile,
			Description: "Get the current user's profile: name, email, role, school, program, weighted average mark (WAM), and enrollment year.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
		Handler: c.profileHandler,
	}
}
