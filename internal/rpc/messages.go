package rpc

import "encoding/json"

// Event types streamed back for an audit run.
const (
	EventStarted    = "started"
	EventToolCall   = "tool_call"
	EventToolResult = "tool_result"
	EventMessage    = "message"
	EventError      = "error"
	EventDone       = "done"
)

// AuditRequest starts an audit run on the daemon.
type AuditRequest struct {
	RunID  string `json:"run_id,omitempty"`
	Prompt string `json:"prompt"`
	Model  string `json:"model,omitempty"`
}

// AuditEvent streams back progress from the daemon.
type AuditEvent struct {
	Type         string          `json:"type"` // started|tool_call|tool_result|message|error|done
	RunID        string          `json:"run_id,omitempty"`
	Round        int             `json:"round,omitempty"`
	CallID       string          `json:"call_id,omitempty"`
	Tool         string          `json:"tool,omitempty"`
	Arguments    json.RawMessage `json:"arguments,omitempty"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	Status       string          `json:"status,omitempty"`
	Message      string          `json:"message,omitempty"`
	Error        string          `json:"error,omitempty"`
	Done         bool            `json:"done,omitempty"`
	FinishReason string          `json:"finish_reason,omitempty"`
	Rounds       int             `json:"rounds,omitempty"`
	ToolCalls    int             `json:"tool_calls,omitempty"`
}

// AuditStreamRequest is the bidirectional stream payload for Connect RPC.
// The first message must contain the Run request; later messages may only cancel.
type AuditStreamRequest struct {
	Run    *AuditRequest `json:"run,omitempty"`
	Cancel bool          `json:"cancel,omitempty"`
	RunID  string        `json:"run_id,omitempty"`
}
