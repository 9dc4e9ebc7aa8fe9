package tools

import (
	"fmt"

	"github.com/campusbuddy/campusbuddy/pkg/provider/llm"
)

// Canonical tool names. The registry rejects registration of any other name
// so that the visibility table and the catalog cannot drift apart.
const (
	NameProfile         = "get_my_profile"
	NameMyModules       = "get_my_modules"
	NameSchedule        = "get_my_schedule"
	NameModuleInfo      = "get_module_info"
	NamePayments        = "get_my_payments"
	NamePublicEvents    = "get_public_events"
	NameListMaterials   = "list_materials"
	NameReadMaterial    = "read_material"
	NameSearchMaterials = "search_materials"
)

// catalogOrder fixes the presentation order of the full catalog.
var catalogOrder = []string{
	NameProfile,
	NameMyModules,
	NameSchedule,
	NameModuleInfo,
	NamePayments,
	NamePublicEvents,
	NameListMaterials,
	NameReadMaterial,
	NameSearchMaterials,
}

// modeTools is the explicit visibility policy: which tool names each mode may
// offer to the model. The three subsets are disjoint by design; an
// unrecognised mode falls back to [ModeAdminSupport].
var modeTools = map[Mode][]string{
	ModeGuest: {
		NamePublicEvents,
	},
	ModeCourseTutor: {
		NameListMaterials,
		NameReadMaterial,
		NameSearchMaterials,
	},
	ModeAdminSupport: {
		NameProfile,
		NameMyModules,
		NameSchedule,
		NameModuleInfo,
		NamePayments,
		NamePublicEvents,
	},
}

// Registry is the static tool catalog. It is populated once at startup via
// [NewRegistry] and read-only afterwards, so lookups need no locking.
type Registry struct {
	entries map[string]Tool
}

// NewRegistry builds a Registry from the given tools. Every canonical name
// must be registered exactly once; unknown or duplicate names are an error so
// that wiring mistakes surface at startup rather than mid-conversation.
func NewRegistry(ts []Tool) (*Registry, error) {
	entries := make(map[string]Tool, len(ts))
	for _, t := range ts {
		name := t.Definition.Name
		if !isCanonical(name) {
			return nil, fmt.Errorf("tools: unknown tool name %q", name)
		}
		if t.Handler == nil {
			return nil, fmt.Errorf("tools: tool %q has a nil handler", name)
		}
		if _, dup := entries[name]; dup {
			return nil, fmt.Errorf("tools: duplicate tool name %q", name)
		}
		entries[name] = t
	}
	for _, name := range catalogOrder {
		if _, ok := entries[name]; !ok {
			return nil, fmt.Errorf("tools: missing tool %q", name)
		}
	}
	return &Registry{entries: entries}, nil
}

// All returns the complete static catalog in canonical order.
func (r *Registry) All() []Tool {
	result := make([]Tool, 0, len(catalogOrder))
	for _, name := range catalogOrder {
		result = append(result, r.entries[name])
	}
	return result
}

// Visible returns the subset of tools permitted in the given mode, in
// canonical order. An unrecognised mode maps to the [ModeAdminSupport]
// subset. Visible is pure and total: it never fails.
func (r *Registry) Visible(mode Mode) []Tool {
	names, ok := modeTools[mode]
	if !ok {
		names = modeTools[ModeAdminSupport]
	}
	result := make([]Tool, 0, len(names))
	for _, name := range names {
		result = append(result, r.entries[name])
	}
	return result
}

// Definitions extracts the LLM-facing schemas from a tool slice, in order.
func Definitions(ts []Tool) []llm.ToolDefinition {
	defs := make([]llm.ToolDefinition, 0, len(ts))
	for _, t := range ts {
		defs = append(defs, t.Definition)
	}
	return defs
}

// lookup returns the tool registered under name.
func (r *Registry) lookup(name string) (Tool, bool) {
	t, ok := r.entries[name]
	return t, ok
}

// isCanonical reports whether name is one of the fixed catalog names.
func isCanonical(name string) bool {
	for _, n := range catalogOrder {
		if n == name {
			return true
		}
	}
	return false
}
