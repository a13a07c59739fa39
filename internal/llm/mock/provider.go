package mock

import (
	"context"
	"sync"

	"github.com/repo-auditor/repo-auditor/internal/llm"
)

// Provider is a test double implementing llm.Provider.
// Every request is recorded in Requests.
type Provider struct {
	NameValue string
	ChatFn    func(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error)

	mu       sync.Mutex
	Requests []llm.ChatRequest
}

func (p *Provider) Name() string {
	if p.NameValue != "" {
		return p.NameValue
	}
	return "mock"
}

func (p *Provider) Chat(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
	p.mu.Lock()
	snapshot := req
	snapshot.Messages = append([]llm.ChatMessage(nil), req.Messages...)
	p.Requests = append(p.Requests, snapshot)
	p.mu.Unlock()

	if p.ChatFn != nil {
		return p.ChatFn(ctx, req)
	}
	return llm.ChatResponse{
		Message: llm.ChatMessage{
			Role:    llm.RoleAssistant,
			Content: "mock",
		},
	}, nil
}

// Calls returns the number of Chat invocations so far.
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Requests)
}

// Script returns a ChatFn that replies with responses in order and repeats the last one.
func Script(responses ...llm.ChatResponse) func(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
	var (
		mu  sync.Mutex
		idx int
	)
	return func(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(responses) == 0 {
			return llm.ChatResponse{Message: llm.ChatMessage{Role: llm.RoleAssistant, Content: "mock"}}, nil
		}
		resp := responses[idx]
		if idx < len(responses)-1 {
			idx++
		}
		return resp, nil
	}
}
