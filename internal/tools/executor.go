package tools

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/campusbuddy/campusbuddy/internal/observe"
)

// errorResult is the serialized form of a failed tool invocation. The model
// receives it as the tool turn's content and may retry with corrected
// arguments.
type errorResult struct {
	Error string `json:"error"`
}

// unknownToolResult is returned when the model requests a name outside the
// catalog. A single well-defined fallback branch, never a run failure.
var unknownToolResult = mustJSON(errorResult{Error: "Unknown tool"})

// Executor dispatches tool invocations against the registry and converts
// every failure mode — unknown name, handler error, handler panic — into a
// structured JSON error result. It never lets a failure escape to the
// conversation loop.
type Executor struct {
	reg     *Registry
	metrics *observe.Metrics
}

// NewExecutor creates an Executor over the given registry. metrics may be nil
// in tests; the default metrics instance is used instead.
func NewExecutor(reg *Registry, metrics *observe.Metrics) *Executor {
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	return &Executor{reg: reg, metrics: metrics}
}

// Execute runs the named tool with the given JSON arguments on behalf of
// caller and returns the serialized result. The return value is always a
// valid JSON document: a success payload, an empty-but-valid marker, or
// {"error": ...}.
func (e *Executor) Execute(ctx context.Context, caller Caller, name, args string) string {
	log := observe.Logger(ctx).With("tool", name)

	tool, ok := e.reg.lookup(name)
	if !ok {
		log.Warn("model requested unknown tool")
		e.metrics.RecordToolCall(ctx, name, "unknown")
		return unknownToolResult
	}

	start := time.Now()
	result, err := e.safeCall(ctx, caller, tool, args)
	elapsed := time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
		result = mustJSON(errorResult{Error: err.Error()})
		log.Warn("tool failed", "error", err, "elapsed_ms", elapsed.Milliseconds())
	} else {
		log.Debug("tool executed",
			"args_bytes", len(args),
			"result_bytes", len(result),
			"elapsed_ms", elapsed.Milliseconds(),
		)
	}

	e.metrics.RecordToolCall(ctx, name, status)
	e.metrics.RecordToolDuration(ctx, name, elapsed.Seconds())

	return result
}

// safeCall invokes the handler with the caller attached to the context,
// recovering panics so a faulty handler or a panicking persistence driver
// cannot abort the whole conversation turn.
func (e *Executor) safeCall(ctx context.Context, caller Caller, tool Tool, args string) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("tool handler panicked", "tool", tool.Definition.Name, "panic", r)
			result = ""
			err = panicError{}
		}
	}()
	return tool.Handler(WithCaller(ctx, caller), args)
}

// panicError is the structured error surfaced to the model when a handler
// panics. The panic detail stays in the server log.
type panicError struct{}

func (panicError) Error() string { return "internal tool failure" }

// mustJSON marshals v, panicking on failure. Only used for types in this
// package whose marshalling cannot fail.
func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
