// Package chat drives the bounded model/tool conversation loop: the model is
// offered the mode-visible tool catalog, any tool invocations it returns are
// executed sequentially in order, and the loop repeats until the model yields
// a final text answer or the turn ceiling aborts the run.
package chat

import (
	"github.com/campusbuddy/campusbuddy/pkg/provider/llm"
)

// Turn roles, mirroring the chat-completion message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Turn is one entry in a conversation transcript.
type Turn struct {
	// Role is one of the Role* constants.
	Role string

	// Content is the turn's text. For assistant turns requesting tools it
	// may be empty.
	Content string

	// ToolCalls carries the invocation list of an assistant turn, preserved
	// verbatim so the provider can correlate the tool turns that follow.
	ToolCalls []llm.ToolCall

	// ToolCallID correlates a tool turn with the invocation it answers.
	ToolCallID string
}

// Transcript is an append-only ordered list of turns. A transcript is owned
// by the single run that created it and is not safe for concurrent use; runs
// never share transcripts.
type Transcript struct {
	turns []Turn
}

// NewTranscript creates a transcript seeded with the given turns, typically
// the system prompt followed by prior session history and the new user
// message.
func NewTranscript(turns ...Turn) *Transcript {
	t := &Transcript{turns: make([]Turn, len(turns))}
	copy(t.turns, turns)
	return t
}

// Append adds turns to the end of the transcript. Existing turns are never
// modified or removed.
func (t *Transcript) Append(turns ...Turn) {
	t.turns = append(t.turns, turns...)
}

// Len returns the number of turns.
func (t *Transcript) Len() int { return len(t.turns) }

// Turns returns a copy of the turn list.
func (t *Transcript) Turns() []Turn {
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

// Messages converts the transcript to the provider message shape.
func (t *Transcript) Messages() []llm.Message {
	msgs := make([]llm.Message, 0, len(t.turns))
	for _, turn := range t.turns {
		msgs = append(msgs, llm.Message{
			Role:       turn.Role,
			Content:    turn.Content,
			ToolCalls:  turn.ToolCalls,
			ToolCallID: turn.ToolCallID,
		})
	}
	return msgs
}
