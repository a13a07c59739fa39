package audit

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/repo-auditor/repo-auditor/internal/agent"
	"github.com/repo-auditor/repo-auditor/internal/logging"
	"github.com/repo-auditor/repo-auditor/internal/rpc"
)

// Runner executes an audit and yields streamed events.
type Runner interface {
	Run(ctx context.Context, req rpc.AuditRequest) (<-chan rpc.AuditEvent, error)
}

// AgentRunner bridges the orchestration loop to RPC events.
type AgentRunner struct {
	Agent  *agent.Agent
	Logger *zap.Logger
}

// Run starts the loop in the background. The returned channel is closed
// after a terminal done or error event, or when ctx is cancelled.
func (r *AgentRunner) Run(ctx context.Context, req rpc.AuditRequest) (<-chan rpc.AuditEvent, error) {
	if r.Agent == nil {
		return nil, errors.New("agent unavailable")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, errors.New("prompt is required")
	}
	logger := logging.OrNop(r.Logger).With(zap.String("run_id", req.RunID))

	out := make(chan rpc.AuditEvent, 16)
	send := func(ev rpc.AuditEvent) {
		ev.RunID = req.RunID
		select {
		case out <- ev:
		case <-ctx.Done():
		}
	}

	go func() {
		defer close(out)
		send(rpc.AuditEvent{Type: rpc.EventStarted, Message: req.Prompt})

		res, err := r.Agent.Run(ctx, agent.Request{
			Prompt:  req.Prompt,
			Model:   req.Model,
			OnEvent: func(ev agent.Event) { send(toAuditEvent(ev)) },
		})
		if err != nil {
			logger.Warn("audit run failed", zap.Error(err), zap.String("finish_reason", res.FinishReason))
			send(rpc.AuditEvent{
				Type:         rpc.EventError,
				Error:        err.Error(),
				FinishReason: res.FinishReason,
				Rounds:       res.Rounds,
				ToolCalls:    res.ToolCalls,
			})
			return
		}
		send(rpc.AuditEvent{
			Type:         rpc.EventDone,
			Done:         true,
			Message:      res.Final,
			FinishReason: res.FinishReason,
			Rounds:       res.Rounds,
			ToolCalls:    res.ToolCalls,
		})
	}()
	return out, nil
}

func toAuditEvent(ev agent.Event) rpc.AuditEvent {
	out := rpc.AuditEvent{
		Round:     ev.Round,
		CallID:    ev.CallID,
		Tool:      ev.Tool,
		Arguments: ev.Arguments,
		Payload:   ev.Payload,
		Status:    ev.Status,
	}
	switch ev.Type {
	case agent.EventToolCall:
		out.Type = rpc.EventToolCall
	case agent.EventToolResult:
		out.Type = rpc.EventToolResult
	default:
		out.Type = rpc.EventMessage
		out.Message = ev.Content
	}
	return out
}
