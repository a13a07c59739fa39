package agent

import (
	"encoding/json"

	"github.com/repo-auditor/repo-auditor/internal/llm"
)

// State is a phase of the orchestration loop.
type State string

const (
	StateAwaitingModel State = "awaiting_model_response"
	StateDispatching   State = "dispatching_tool_calls"
	StateDone          State = "done"
)

// EventType identifies a progress event emitted during a run.
type EventType string

const (
	EventToolCall   EventType = "tool_call"
	EventToolResult EventType = "tool_result"
	EventFinal      EventType = "final"
)

// Event reports run progress as it happens.
type Event struct {
	Type      EventType
	Round     int
	CallID    string
	Tool      string
	Arguments json.RawMessage
	Payload   json.RawMessage
	Status    string
	Content   string
}

// Request is a single audit invocation.
type Request struct {
	// Prompt is the user instruction that seeds the conversation.
	Prompt string
	// Model overrides the configured model when set.
	Model string
	// OnEvent, when set, is called synchronously for every progress event.
	OnEvent func(Event)
}

// Result is the outcome of a run. On error it still carries the partial conversation.
type Result struct {
	Final        string
	Conversation []llm.ChatMessage
	Rounds       int
	ToolCalls    int
	FinishReason string
	Route        llm.ModelRoute
}
