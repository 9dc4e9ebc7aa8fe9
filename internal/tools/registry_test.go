package tools

import (
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/campusbuddy/campusbuddy/pkg/provider/llm"
)

// okHandler is a stub handler that always succeeds.
func okHandler(context.Context, string) (string, error) {
	return `{"ok":true}`, nil
}

// stubCatalog builds a full catalog with stub handlers, applying any
// per-name handler overrides.
func stubCatalog(overrides map[string]Handler) []Tool {
	ts := make([]Tool, 0, len(catalogOrder))
	for _, name := range catalogOrder {
		h := Handler(okHandler)
		if o, ok := overrides[name]; ok {
			h = o
		}
		ts = append(ts, Tool{
			Definition: llm.ToolDefinition{Name: name, Description: "stub " + name},
			Handler:    h,
		})
	}
	return ts
}

func toolNames(ts []Tool) []string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = t.Definition.Name
	}
	return names
}

func TestNewRegistry_Validation(t *testing.T) {
	t.Parallel()

	t.Run("complete catalog", func(t *testing.T) {
		t.Parallel()
		if _, err := NewRegistry(stubCatalog(nil)); err != nil {
			t.Fatalf("NewRegistry() error = %v", err)
		}
	})

	t.Run("unknown name", func(t *testing.T) {
		t.Parallel()
		ts := append(stubCatalog(nil), Tool{
			Definition: llm.ToolDefinition{Name: "drop_tables"},
			Handler:    okHandler,
		})
		if _, err := NewRegistry(ts); err == nil || !strings.Contains(err.Error(), "drop_tables") {
			t.Errorf("NewRegistry() error = %v, want unknown-name error", err)
		}
	})

	t.Run("nil handler", func(t *testing.T) {
		t.Parallel()
		ts := stubCatalog(nil)
		ts[0].Handler = nil
		if _, err := NewRegistry(ts); err == nil || !strings.Contains(err.Error(), "nil handler") {
			t.Errorf("NewRegistry() error = %v, want nil-handler error", err)
		}
	})

	t.Run("duplicate name", func(t *testing.T) {
		t.Parallel()
		ts := stubCatalog(nil)
		ts = append(ts, ts[0])
		if _, err := NewRegistry(ts); err == nil || !strings.Contains(err.Error(), "duplicate") {
			t.Errorf("NewRegistry() error = %v, want duplicate error", err)
		}
	})

	t.Run("missing tool", func(t *testing.T) {
		t.Parallel()
		ts := stubCatalog(nil)
		if _, err := NewRegistry(ts[:len(ts)-1]); err == nil || !strings.Contains(err.Error(), "missing") {
			t.Errorf("NewRegistry() error = %v, want missing-tool error", err)
		}
	})
}

func TestRegistry_All(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry(stubCatalog(nil))
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	got := toolNames(reg.All())
	if !slices.Equal(got, catalogOrder) {
		t.Errorf("All() = %v, want canonical order %v", got, catalogOrder)
	}
}

func TestRegistry_Visible(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry(stubCatalog(nil))
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	adminSet := []string{
		NameProfile, NameMyModules, NameSchedule,
		NameModuleInfo, NamePayments, NamePublicEvents,
	}

	tests := []struct {
		name string
		mode Mode
		want []string
	}{
		{
			name: "guest sees only public events",
			mode: ModeGuest,
			want: []string{NamePublicEvents},
		},
		{
			name: "course tutor sees material tools",
			mode: ModeCourseTutor,
			want: []string{NameListMaterials, NameReadMaterial, NameSearchMaterials},
		},
		{
			name: "admin support sees caller data tools",
			mode: ModeAdminSupport,
			want: adminSet,
		},
		{
			name: "unrecognised mode falls back to admin support",
			mode: Mode("superuser"),
			want: adminSet,
		},
		{
			name: "empty mode falls back to admin support",
			mode: Mode(""),
			want: adminSet,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := toolNames(reg.Visible(tt.mode))
			if !slices.Equal(got, tt.want) {
				t.Errorf("Visible(%q) = %v, want %v", tt.mode, got, tt.want)
			}
		})
	}
}

func TestDefinitions(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry(stubCatalog(nil))
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	defs := Definitions(reg.Visible(ModeGuest))
	if len(defs) != 1 || defs[0].Name != NamePublicEvents {
		t.Errorf("Definitions() = %v, want the guest schema only", defs)
	}
	if defs[0].Description == "" {
		t.Error("Definitions() dropped the description")
	}
}
