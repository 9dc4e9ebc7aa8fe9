// Package tools defines the chat tool catalog: the shared [Tool] type, the
// static [Registry] with its mode-based visibility table, and the [Executor]
// that dispatches model-requested invocations to handlers.
//
// A tool is a named, schema-described read operation the language model may
// request during a conversation turn. Handlers receive JSON-encoded arguments
// and return a JSON-encoded result; they never write campus data.
package tools

import (
	"context"

	"github.com/campusbuddy/campusbuddy/pkg/provider/llm"
)

// Handler executes a tool with JSON-encoded args and returns a JSON-encoded
// result string on success, or a descriptive error. Implementations must be
// safe for concurrent use and must respect context cancellation.
type Handler func(ctx context.Context, args string) (string, error)

// Tool pairs an LLM-facing schema with the handler invoked when the model
// calls it.
type Tool struct {
	// Definition is the tool's schema including its name, description, and
	// JSON Schema parameter specification.
	Definition llm.ToolDefinition

	// Handler executes the tool.
	Handler Handler
}

// Mode is a caller-context tag controlling which tools are visible to the
// model for a given conversation run.
type Mode string

const (
	// ModeGuest is the unauthenticated mode: only public data is reachable.
	ModeGuest Mode = "guest"

	// ModeCourseTutor scopes the assistant to course-material tools for a
	// single module's tutoring context.
	ModeCourseTutor Mode = "course_tutor"

	// ModeAdminSupport is the default authenticated mode: the caller's own
	// campus data (profile, schedule, payments) plus public events.
	ModeAdminSupport Mode = "admin_support"
)

// callerKey is the context key under which the [Caller] travels.
type callerKey struct{}

// Caller identifies the user on whose behalf a tool executes.
type Caller struct {
	// UserID is the authenticated account id. Empty for guests.
	UserID string

	// Guest is true when the caller is unauthenticated.
	Guest bool
}

// WithCaller returns a context carrying the caller identity for tool
// handlers. The executor attaches it before each dispatch.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFromContext extracts the caller identity from ctx. When no caller was
// attached it returns the guest sentinel.
func CallerFromContext(ctx context.Context) Caller {
	if c, ok := ctx.Value(callerKey{}).(Caller); ok {
		return c
	}
	return Caller{Guest: true}
}
