package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/campusbuddy/campusbuddy/internal/observe"
	"github.com/campusbuddy/campusbuddy/internal/tools"
	"github.com/campusbuddy/campusbuddy/pkg/provider/llm"
)

// DefaultMaxTurns is how many model round-trips a single run may use before
// it is aborted. The ceiling bounds model calls, not wall-clock time; callers
// wanting a time bound pass a deadline context.
const DefaultMaxTurns = 5

// Run outcome statuses.
const (
	StatusFinal   = "final"
	StatusAborted = "aborted"
)

// abortReasonLoopExceeded is the reason surfaced when the turn ceiling is hit
// without a final answer. Non-retryable within the run; the caller may still
// send a new message.
const abortReasonLoopExceeded = "conversation loop exceeded"

// Result is the outcome of one conversation run.
type Result struct {
	// Status is [StatusFinal] or [StatusAborted].
	Status string

	// Content is the model's final answer. Only set for final runs.
	Content string

	// Reason explains an aborted run.
	Reason string
}

// Config assembles a [Runner].
type Config struct {
	// Provider is the chat-completion backend.
	Provider llm.Provider

	// Registry supplies the tool catalog and mode visibility.
	Registry *tools.Registry

	// Executor dispatches the model's tool invocations.
	Executor *tools.Executor

	// Metrics may be nil; the default instance is used instead.
	Metrics *observe.Metrics

	// MaxTurns overrides [DefaultMaxTurns] when > 0.
	MaxTurns int
}

// Runner drives conversation runs. Each run owns its transcript exclusively;
// a Runner itself holds no per-run state and is safe for concurrent use.
type Runner struct {
	provider llm.Provider
	registry *tools.Registry
	executor *tools.Executor
	metrics  *observe.Metrics
	maxTurns int
}

// NewRunner creates a [Runner] from cfg.
func NewRunner(cfg Config) *Runner {
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = DefaultMaxTurns
	}
	return &Runner{
		provider: cfg.Provider,
		registry: cfg.Registry,
		executor: cfg.Executor,
		metrics:  cfg.Metrics,
		maxTurns: cfg.MaxTurns,
	}
}

// Run executes the model/tool loop over transcript until the model returns a
// final answer, the turn ceiling aborts the run, or a model call fails.
//
// The transcript is mutated in place: the model's own turns (with their
// invocation lists) and one tool turn per invocation are appended in order,
// so every assistant turn carrying N invocations is followed by exactly N
// correlated tool turns before the next model call.
//
// A model-call failure is fatal for the run and returned as an error; tool
// failures never are, the executor converts them to structured tool-turn
// content and the loop continues.
func (r *Runner) Run(ctx context.Context, caller tools.Caller, mode tools.Mode, transcript *Transcript) (*Result, error) {
	return r.run(ctx, caller, mode, transcript, nil)
}

// RunStream is [Runner.Run] with incremental delivery: onDelta is called with
// each text fragment of the model's answer as it arrives. Tool-requesting
// model turns normally carry no text, so the forwarded fragments form the
// final answer.
func (r *Runner) RunStream(ctx context.Context, caller tools.Caller, mode tools.Mode, transcript *Transcript, onDelta func(text string)) (*Result, error) {
	if onDelta == nil {
		onDelta = func(string) {}
	}
	return r.run(ctx, caller, mode, transcript, onDelta)
}

func (r *Runner) run(ctx context.Context, caller tools.Caller, mode tools.Mode, transcript *Transcript, onDelta func(string)) (*Result, error) {
	ctx, span := observe.StartSpan(ctx, "chat.run",
		trace.WithAttributes(attribute.String("mode", string(mode))))
	defer span.End()

	log := observe.Logger(ctx).With("mode", string(mode))
	r.metrics.ActiveRuns.Add(ctx, 1)
	defer r.metrics.ActiveRuns.Add(ctx, -1)
	start := time.Now()

	visible := tools.Definitions(r.registry.Visible(mode))

	for turn := 1; turn <= r.maxTurns; turn++ {
		resp, err := r.modelCall(ctx, transcript, visible, onDelta)
		if err != nil {
			r.finish(ctx, mode, "failed", start)
			return nil, fmt.Errorf("chat: model call failed: %w", err)
		}

		if len(resp.ToolCalls) == 0 {
			transcript.Append(Turn{Role: RoleAssistant, Content: resp.Content})
			log.Debug("run finished", "turns", turn, "answer_bytes", len(resp.Content))
			r.finish(ctx, mode, StatusFinal, start)
			return &Result{Status: StatusFinal, Content: resp.Content}, nil
		}

		// Preserve the model's own turn with its invocation list, then
		// answer every invocation in the order the model emitted them.
		transcript.Append(Turn{
			Role:      RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		for _, tc := range resp.ToolCalls {
			log.Debug("executing tool",
				"turn", turn,
				"tool", tc.Name,
				"args_bytes", len(tc.Arguments),
			)
			result := r.executor.Execute(ctx, caller, tc.Name, tc.Arguments)
			transcript.Append(Turn{
				Role:       RoleTool,
				Content:    result,
				ToolCallID: tc.ID,
			})
		}
	}

	log.Warn("run aborted", "max_turns", r.maxTurns)
	r.finish(ctx, mode, StatusAborted, start)
	return &Result{Status: StatusAborted, Reason: abortReasonLoopExceeded}, nil
}

// finish records the run counter and duration once per run.
func (r *Runner) finish(ctx context.Context, mode tools.Mode, status string, start time.Time) {
	r.metrics.RecordChatRun(ctx, string(mode), status)
	r.metrics.ChatRunDuration.Record(ctx, time.Since(start).Seconds())
}

// modelCall performs one completion round-trip. With onDelta set it uses the
// provider's streaming API and forwards text fragments as they arrive,
// re-assembling the full response for the loop.
func (r *Runner) modelCall(ctx context.Context, transcript *Transcript, visible []llm.ToolDefinition, onDelta func(string)) (*llm.CompletionResponse, error) {
	req := llm.CompletionRequest{
		Messages: transcript.Messages(),
		Tools:    visible,
	}

	start := time.Now()
	if onDelta == nil {
		resp, err := r.provider.Complete(ctx, req)
		r.metrics.RecordModelCall(ctx, time.Since(start).Seconds(), err != nil)
		return resp, err
	}

	ch, err := r.provider.StreamCompletion(ctx, req)
	if err != nil {
		r.metrics.RecordModelCall(ctx, time.Since(start).Seconds(), true)
		return nil, err
	}

	var (
		content   strings.Builder
		toolCalls []llm.ToolCall
	)
	for chunk := range ch {
		if chunk.FinishReason == "error" {
			r.metrics.RecordModelCall(ctx, time.Since(start).Seconds(), true)
			return nil, fmt.Errorf("stream failed: %s", chunk.Text)
		}
		if chunk.Text != "" {
			content.WriteString(chunk.Text)
			onDelta(chunk.Text)
		}
		toolCalls = append(toolCalls, chunk.ToolCalls...)
	}
	r.metrics.RecordModelCall(ctx, time.Since(start).Seconds(), false)

	return &llm.CompletionResponse{
		Content:   content.String(),
		ToolCalls: toolCalls,
	}, nil
}
