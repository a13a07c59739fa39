package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/repo-auditor/repo-auditor/internal/config"
	"github.com/repo-auditor/repo-auditor/internal/llm"
	"github.com/repo-auditor/repo-auditor/internal/logging"
	"github.com/repo-auditor/repo-auditor/internal/observability"
	"github.com/repo-auditor/repo-auditor/internal/tools"
)

// DefaultMaxRounds bounds model invocations when the config leaves it unset.
const DefaultMaxRounds = 10

// ErrBudgetExceeded is returned when a run needs more model invocations than allowed.
var ErrBudgetExceeded = errors.New("round budget exceeded")

// ToolDispatcher declares tools to the model and executes the calls it requests.
type ToolDispatcher interface {
	Definitions() []llm.ToolDefinition
	Dispatch(ctx context.Context, call llm.ToolCall) tools.Result
}

// Agent drives the model/tool loop. It holds no per-run state and is safe
// for concurrent use.
type Agent struct {
	registry *llm.Registry
	tools    ToolDispatcher
	cfg      config.AgentConfig
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// Option customises an Agent.
type Option func(*Agent)

// WithLogger sets the logger used for per-call progress.
func WithLogger(l *zap.Logger) Option {
	return func(a *Agent) { a.logger = logging.OrNop(l) }
}

// WithMetrics records run and tool metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(a *Agent) { a.metrics = m }
}

// New creates a new Agent.
func New(registry *llm.Registry, dispatcher ToolDispatcher, cfg config.AgentConfig, opts ...Option) *Agent {
	a := &Agent{
		registry: registry,
		tools:    dispatcher,
		cfg:      cfg,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// MaxRounds returns the configured model invocation budget (>0).
func (a *Agent) MaxRounds() int {
	if a.cfg.MaxRounds > 0 {
		return a.cfg.MaxRounds
	}
	return DefaultMaxRounds
}

// Run executes the loop until the model answers without requesting tools.
func (a *Agent) Run(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return Result{}, fmt.Errorf("prompt is required")
	}
	if a.registry == nil {
		return Result{}, fmt.Errorf("model registry unavailable")
	}

	provider, route, err := a.registry.Resolve(firstNonEmpty(req.Model, a.cfg.Model))
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	res := Result{
		Conversation: initialConversation(a.cfg, req.Prompt),
		Route:        route,
	}
	var defs []llm.ToolDefinition
	if a.tools != nil {
		defs = a.tools.Definitions()
	}

	finish := func(reason string, err error) (Result, error) {
		res.FinishReason = reason
		a.metrics.RecordAuditRun(reason, time.Since(start), res.Rounds)
		a.logger.Info("audit run finished",
			zap.String("finish_reason", reason),
			zap.Int("rounds", res.Rounds),
			zap.Int("tool_calls", res.ToolCalls),
			zap.Duration("elapsed", time.Since(start)))
		return res, err
	}

	state := StateAwaitingModel
	var pending []llm.ToolCall
	for state != StateDone {
		switch state {
		case StateAwaitingModel:
			if err := ctx.Err(); err != nil {
				return finish(observability.FinishCanceled, err)
			}
			if res.Rounds >= a.MaxRounds() {
				return finish(observability.FinishBudgetExceeded,
					fmt.Errorf("%w: %d model invocations without a final answer", ErrBudgetExceeded, res.Rounds))
			}
			res.Rounds++

			a.metrics.RecordModelRequest(route.Name)
			resp, err := provider.Chat(ctx, llm.ChatRequest{
				Model:       route.Model,
				Messages:    append([]llm.ChatMessage(nil), res.Conversation...),
				Tools:       defs,
				MaxTokens:   pickMaxTokens(a.cfg.MaxTokens, route.MaxTokens),
				Temperature: pickTemperature(a.cfg.Temperature, route.Temperature),
			})
			if err != nil {
				a.metrics.RecordModelFailure(route.Name)
				if ctx.Err() != nil {
					return finish(observability.FinishCanceled, err)
				}
				return finish(observability.FinishModelError, fmt.Errorf("model invocation %d: %w", res.Rounds, err))
			}

			msg := resp.Message
			msg.Role = llm.RoleAssistant
			if len(msg.ToolCalls) == 0 {
				res.Conversation = append(res.Conversation, msg)
				res.Final = msg.Content
				a.emit(req, Event{Type: EventFinal, Round: res.Rounds, Content: msg.Content})
				state = StateDone
				continue
			}
			msg.ToolCalls = assignCallIDs(msg.ToolCalls, res.Rounds)
			res.Conversation = append(res.Conversation, msg)
			pending = msg.ToolCalls
			state = StateDispatching

		case StateDispatching:
			for _, call := range pending {
				res.Conversation = append(res.Conversation, a.dispatch(ctx, req, res.Rounds, call))
				res.ToolCalls++
			}
			pending = nil
			state = StateAwaitingModel
		}
	}

	return finish(observability.FinishCompleted, nil)
}

// dispatch runs one tool call and returns the tool message to append.
func (a *Agent) dispatch(ctx context.Context, req Request, round int, call llm.ToolCall) llm.ChatMessage {
	a.emit(req, Event{
		Type:      EventToolCall,
		Round:     round,
		CallID:    call.ID,
		Tool:      call.Function.Name,
		Arguments: call.Function.Arguments,
	})

	var result tools.Result
	if a.tools == nil {
		result = tools.Result{
			CallID:  call.ID,
			Name:    call.Function.Name,
			Err:     errors.New("no tools available"),
			Payload: json.RawMessage(`{"error":"no tools available"}`),
		}
	} else {
		result = a.tools.Dispatch(ctx, call)
	}

	fields := []zap.Field{
		zap.Int("round", round),
		zap.String("tool", call.Function.Name),
		zap.String("call_id", call.ID),
		zap.String("status", result.Status()),
		zap.Duration("elapsed", result.Duration),
	}
	if result.Err != nil {
		fields = append(fields, zap.Error(result.Err))
	}
	a.logger.Info("tool call dispatched", fields...)
	a.metrics.RecordToolCall(call.Function.Name, result.Status(), result.Duration)

	a.emit(req, Event{
		Type:    EventToolResult,
		Round:   round,
		CallID:  call.ID,
		Tool:    call.Function.Name,
		Payload: result.Payload,
		Status:  result.Status(),
	})

	return llm.ChatMessage{
		Role:       llm.RoleTool,
		Name:       call.Function.Name,
		ToolCallID: call.ID,
		Content:    string(result.Payload),
	}
}

func (a *Agent) emit(req Request, ev Event) {
	if req.OnEvent != nil {
		req.OnEvent(ev)
	}
}

func pickTemperature(agentTemp float64, routeTemp float64) float64 {
	if agentTemp > 0 {
		return agentTemp
	}
	return routeTemp
}

func pickMaxTokens(agentMax int, routeMax int) int {
	if agentMax > 0 {
		return agentMax
	}
	if routeMax > 0 {
		return routeMax
	}
	return 0
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
