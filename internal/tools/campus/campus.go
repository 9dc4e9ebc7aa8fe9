// Package campus implements the built-in campus-assistant tools backed by the
// campus store. Every handler performs a read-only data fetch and returns a
// compact JSON payload, an empty-but-valid marker, or an error that the
// executor converts into structured tool-turn content.
//
// The full catalog is exported via [Catalog.Tools]:
//   - "get_my_profile"    — the caller's account projection.
//   - "get_my_modules"    — the caller's active module enrollments.
//   - "get_my_schedule"   — timetable events in a mandatory date range.
//   - "get_module_info"   — module metadata, recent announcements, assignments.
//   - "get_my_payments"   — outstanding fees plus payment instructions.
//   - "get_public_events" — upcoming campus events, visible to guests.
//   - "list_materials"    — course material entries of a module.
//   - "read_material"     — full extracted text of one material.
//   - "search_materials"  — substring search with context snippets.
//
// All handlers are safe for concurrent use.
package campus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/antzucaro/matchr"

	"github.com/campusbuddy/campusbuddy/internal/store"
	"github.com/campusbuddy/campusbuddy/internal/tools"
)

// Catalog builds the campus tool set over a [store.Store]. The zero value is
// not usable; create one with [New].
type Catalog struct {
	store store.Store

	// now is the clock used by time-sensitive tools. Tests override it.
	now func() time.Time
}

// New creates a [Catalog] over st.
func New(st store.Store) *Catalog {
	return &Catalog{store: st, now: time.Now}
}

// Tools returns the full campus tool catalog ready for registration.
func (c *Catalog) Tools() []tools.Tool {
	return []tools.Tool{
		c.profileTool(),
		c.myModulesTool(),
		c.scheduleTool(),
		c.moduleInfoTool(),
		c.paymentsTool(),
		c.publicEventsTool(),
		c.listMaterialsTool(),
		c.readMaterialTool(),
		c.searchMaterialsTool(),
	}
}

// marker is an empty-but-valid result: the query succeeded and matched
// nothing. Distinct from an error so the model presents it as a plain answer
// instead of retrying.
type marker struct {
	Message string `json:"message"`
}

// encode marshals a handler result, wrapping marshal failures with the tool
// name for the server log.
func encode(toolName string, v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("campus: %s: failed to encode result: %w", toolName, err)
	}
	return string(b), nil
}

// callerID resolves the authenticated caller from ctx. Tools that read
// caller-owned data fail like a missing user record when invoked without an
// authenticated caller, which only happens if visibility filtering is
// bypassed.
func callerID(ctx context.Context) (string, error) {
	caller := tools.CallerFromContext(ctx)
	if caller.Guest || caller.UserID == "" {
		return "", errors.New("user not found")
	}
	return caller.UserID, nil
}

// maxSuggestDistance is the largest Levenshtein distance still offered as a
// "did you mean" hint.
const maxSuggestDistance = 2

// moduleNotFound builds the error for an unknown module code, appending a
// near-miss suggestion when one exists. Suggestions are hints inside the
// error message only; a lookup is never silently redirected to another
// module.
func (c *Catalog) moduleNotFound(ctx context.Context, code string) error {
	codes, err := c.store.ModuleCodes(ctx)
	if err != nil {
		return fmt.Errorf("module %q not found", code)
	}

	best := ""
	bestDist := maxSuggestDistance + 1
	for _, known := range codes {
		d := matchr.Levenshtein(strings.ToUpper(code), strings.ToUpper(known))
		if d < bestDist {
			best = known
			bestDist = d
		}
	}
	if best != "" {
		return fmt.Errorf("module %q not found (did you mean %q?)", code, best)
	}
	return fmt.Errorf("module %q not found", code)
}
