package campus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/campusbuddy/campusbuddy/internal/store"
	"github.com/campusbuddy/campusbuddy/internal/tools"
	"github.com/campusbuddy/campusbuddy/pkg/provider/llm"
)

// moduleSummary is one entry in the "get_my_modules" result.
type moduleSummary struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Credits int    `json:"credits"`
}

func (c *Catalog) myModulesHandler(ctx context.Context, _ string) (string, error) {
	uid, err := callerID(ctx)
	if err != nil {
		return "", err
	}

	enrollments, err := c.store.ActiveEnrollments(ctx, uid)
	if err != nil {
		return "", fmt.Errorf("campus: get_my_modules: %w", err)
	}
	if len(enrollments) == 0 {
		return encode(tools.NameMyModules, marker{Message: "no active enrollments"})
	}

	summaries := make([]moduleSummary, 0, len(enrollments))
	for _, e := range enrollments {
		mod, err := c.store.ModuleByCode(ctx, e.ModuleCode)
		if err != nil {
			// An enrollment pointing at a deleted module is skipped, not
			// surfaced: the remaining modules are still a correct answer.
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return "", fmt.Errorf("campus: get_my_modules: %w", err)
		}
		summaries = append(summaries, moduleSummary{
			Code:    mod.Code,
			Name:    mod.Name,
			Credits: mod.Credits,
		})
	}
	if len(summaries) == 0 {
		return encode(tools.NameMyModules, marker{Message: "no active enrollments"})
	}
	return encode(tools.NameMyModules, summaries)
}

// moduleInfoArgs is the JSON-decoded input for "get_module_info".
type moduleInfoArgs struct {
	ModuleCode string `json:"module_code"`
}

// announcementResult is one announcement entry in the module-info payload.
type announcementResult struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	PostedAt string `json:"posted_at"`
}

// assignmentResult is one assignment entry in the module-info payload.
type assignmentResult struct {
	Title   string  `json:"title"`
	DueDate string  `json:"due_date"`
	Weight  float64 `json:"weight"`
}

// moduleInfoResult is the full "get_module_info" payload.
type moduleInfoResult struct {
	Code          string               `json:"code"`
	Name          string               `json:"name"`
	Credits       int                  `json:"credits"`
	Description   string               `json:"description,omitempty"`
	Coordinator   string               `json:"coordinator,omitempty"`
	Announcements []announcementResult `json:"announcements"`
	Assignments   []assignmentResult   `json:"assignments"`
}

// recentAnnouncements caps the announcement list in a module-info payload.
const recentAnnouncements = 3

func (c *Catalog) moduleInfoHandler(ctx context.Context, args string) (string, error) {
	var a moduleInfoArgs
	if err := json.Unmarshal([]byte(args), &a); err != nil {
		return "", fmt.Errorf("campus: get_module_info: failed to parse arguments: %w", err)
	}
	if a.ModuleCode == "" {
		return "", errors.New("module_code is required")
	}

	mod, err := c.store.ModuleByCode(ctx, a.ModuleCode)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", c.moduleNotFound(ctx, a.ModuleCode)
		}
		return "", fmt.Errorf("campus: get_module_info: %w", err)
	}

	announcements, err := c.store.AnnouncementsByModule(ctx, mod.Code, recentAnnouncements)
	if err != nil {
		return "", fmt.Errorf("campus: get_module_info: %w", err)
	}
	assignments, err := c.store.AssignmentsByModule(ctx, mod.Code)
	if err != nil {
		return "", fmt.Errorf("campus: get_module_info: %w", err)
	}

	result := moduleInfoResult{
		Code:          mod.Code,
		Name:          mod.Name,
		Credits:       mod.Credits,
		Description:   mod.Description,
		Coordinator:   mod.Coordinator,
		Announcements: make([]announcementResult, 0, len(announcements)),
		Assignments:   make([]assignmentResult, 0, len(assignments)),
	}
	for _, an := range announcements {
		result.Announcements = append(result.Announcements, announcementResult{
			Title:    an.Title,
			Body:     an.Body,
			PostedAt: an.PostedAt.Format(time.DateOnly),
		})
	}
	for _, as := range assignments {
		result.Assignments = append(result.Assignments, assignmentResult{
			Title:   as.Title,
			DueDate: as.DueDate.Format(time.DateOnly),
			Weight:  as.Weight,
		})
	}
	return encode(tools.NameModuleInfo, result)
}

func (c *Catalog) myModulesTool() tools.Tool {
	return tools.Tool{
		Definition: llm.ToolDefinition{
			Name:        tools.NameMyModules,
			Description: "List the modules the current user is actively enrolled in, with module code, name, and credit value.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
		Handler: c.myModulesHandler,
	}
}

func (c *Catalog) moduleInfoTool() tools.Tool {
	return tools.Tool{
		Definition: llm.ToolDefinition{
			Name:        tools.NameModuleInfo,
			Description: "Get detailed information about a module: metadata, the 3 most recent announcements, and all assignments with due dates and weights.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"module_code": map[string]any{
						"type":        "string",
						"description": "The module code to look up (e.g. COMP1511).",
					},
				},
				"required": []string{"module_code"},
			},
		},
		Handler: c.moduleInfoHandler,
	}
}
