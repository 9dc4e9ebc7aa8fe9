package campus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/campusbuddy/campusbuddy/internal/store"
	"github.com/campusbuddy/campusbuddy/internal/tools"
	"github.com/campusbuddy/campusbuddy/pkg/provider/llm"
)

// listMaterialsArgs is the JSON-decoded input for "list_materials".
type listMaterialsArgs struct {
	ModuleCode string `json:"module_code"`
	Category   string `json:"category,omitempty"`
}

// materialEntry is one listing entry: metadata only, never the text body.
type materialEntry struct {
	Title      string `json:"title"`
	Category   string `json:"category"`
	UploadedAt string `json:"uploaded_at"`
}

func (c *Catalog) listMaterialsHandler(ctx context.Context, args string) (string, error) {
	var a listMaterialsArgs
	if err := json.Unmarshal([]byte(args), &a); err != nil {
		return "", fmt.Errorf("campus: list_materials: failed to parse arguments: %w", err)
	}
	if a.ModuleCode == "" {
		return "", errors.New("module_code is required")
	}

	if _, err := c.store.ModuleByCode(ctx, a.ModuleCode); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", c.moduleNotFound(ctx, a.ModuleCode)
		}
		return "", fmt.Errorf("campus: list_materials: %w", err)
	}

	materials, err := c.store.MaterialsByModule(ctx, a.ModuleCode, a.Category)
	if err != nil {
		return "", fmt.Errorf("campus: list_materials: %w", err)
	}
	if len(materials) == 0 {
		return encode(tools.NameListMaterials, marker{Message: "no materials found"})
	}

	entries := make([]materialEntry, 0, len(materials))
	for _, m := range materials {
		entries = append(entries, materialEntry{
			Title:      m.Title,
			Category:   m.Category,
			UploadedAt: m.UploadedAt.Format(time.DateOnly),
		})
	}
	return encode(tools.NameListMaterials, entries)
}

// readMaterialArgs is the JSON-decoded input for "read_material".
type readMaterialArgs struct {
	ModuleCode string `json:"module_code"`
	Title      string `json:"title"`
}

// readMaterialResult carries the full extracted text of one material.
type readMaterialResult struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	Text     string `json:"text"`
}

func (c *Catalog) readMaterialHandler(ctx context.Context, args string) (string, error) {
	var a readMaterialArgs
	if err := json.Unmarshal([]byte(args), &a); err != nil {
		return "", fmt.Errorf("campus: read_material: failed to parse arguments: %w", err)
	}
	if a.ModuleCode == "" || a.Title == "" {
		return "", errors.New("module_code and title are required")
	}

	m, err := c.store.MaterialByTitle(ctx, a.ModuleCode, a.Title)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", fmt.Errorf("material %q not found in module %q", a.Title, a.ModuleCode)
		}
		return "", fmt.Errorf("campus: read_material: %w", err)
	}

	return encode(tools.NameReadMaterial, readMaterialResult{
		Title:    m.Title,
		Category: m.Category,
		Text:     m.Text,
	})
}

// searchMaterialsArgs is the JSON-decoded input for "search_materials".
type searchMaterialsArgs struct {
	ModuleCode string `json:"module_code"`
	Query      string `json:"query"`
	Category   string `json:"category,omitempty"`
}

// searchMatch is one search hit: the material's title plus a context snippet
// around the first occurrence of the query.
type searchMatch struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	Snippet  string `json:"snippet"`
}

// maxSearchMatches caps search results at the first three matching
// materials, in upload order as returned by the store.
const maxSearchMatches = 3

// snippetRadius is how many characters of context are kept on each side of
// the first match position.
const snippetRadius = 200

func (c *Catalog) searchMaterialsHandler(ctx context.Context, args string) (string, error) {
	var a searchMaterialsArgs
	if err := json.Unmarshal([]byte(args), &a); err != nil {
		return "", fmt.Errorf("campus: search_materials: failed to parse arguments: %w", err)
	}
	if a.ModuleCode == "" {
		return "", errors.New("module_code is required")
	}
	if a.Query == "" {
		return "", errors.New("query is required")
	}

	materials, err := c.store.MaterialsByModule(ctx, a.ModuleCode, a.Category)
	if err != nil {
		return "", fmt.Errorf("campus: search_materials: %w", err)
	}

	queryLower := strings.ToLower(a.Query)
	var matches []searchMatch
	for _, m := range materials {
		idx := strings.Index(strings.ToLower(m.Text), queryLower)
		if idx < 0 {
			continue
		}
		matches = append(matches, searchMatch{
			Title:    m.Title,
			Category: m.Category,
			Snippet:  snippet(m.Text, idx, len(a.Query)),
		})
		if len(matches) == maxSearchMatches {
			break
		}
	}
	if len(matches) == 0 {
		return encode(tools.NameSearchMaterials, marker{Message: "no matches"})
	}
	return encode(tools.NameSearchMaterials, matches)
}

// snippet extracts up to snippetRadius bytes of context on each side of the
// match at [idx, idx+matchLen) and collapses runs of whitespace to single
// spaces. Window edges are clamped to rune boundaries so multibyte text is
// never cut mid-rune.
func snippet(text string, idx, matchLen int) string {
	start := max(idx-snippetRadius, 0)
	end := min(idx+matchLen+snippetRadius, len(text))
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}
	return strings.Join(strings.Fields(text[start:end]), " ")
}

func (c *Catalog) listMaterialsTool() tools.Tool {
	return tools.Tool{
		Definition: llm.ToolDefinition{
			Name:        tools.NameListMaterials,
			Description: "List the course materials of a module with title, category, and upload date. Optionally filter by category (lecture_notes, slides, reading, past_exam).",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"module_code": map[string]any{
						"type":        "string",
						"description": "The module code whose materials to list.",
					},
					"category": map[string]any{
						"type":        "string",
						"description": "Optional category filter.",
					},
				},
				"required": []string{"module_code"},
			},
		},
		Handler: c.listMaterialsHandler,
	}
}

func (c *Catalog) readMaterialTool() tools.Tool {
	return tools.Tool{
		Definition: llm.ToolDefinition{
			Name:        tools.NameReadMaterial,
			Description: "Read the full extracted text of one course material, identified by module code and exact title. Use list_materials first to discover titles.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"module_code": map[string]any{
						"type":        "string",
						"description": "The module code the material belongs to.",
					},
					"title": map[string]any{
						"type":        "string",
						"description": "The exact title of the material to read.",
					},
				},
				"required": []string{"module_code", "title"},
			},
		},
		Handler: c.readMaterialHandler,
	}
}

func (c *Catalog) searchMaterialsTool() tools.Tool {
	return tools.Tool{
		Definition: llm.ToolDefinition{
			Name:        tools.NameSearchMaterials,
			Description: "Search a module's course materials for a phrase (case-insensitive). Returns up to 3 matching materials with a text snippet around the first occurrence.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"module_code": map[string]any{
						"type":        "string",
						"description": "The module code whose materials to search.",
					},
					"query": map[string]any{
						"type":        "string",
						"description": "The phrase to search for.",
					},
					"category": map[string]any{
						"type":        "string",
						"description": "Optional category filter.",
					},
				},
				"required": []string{"module_code", "query"},
			},
		},
		Handler: c.searchMaterialsHandler,
	}
}
