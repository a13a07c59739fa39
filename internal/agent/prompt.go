package agent

import (
	"fmt"
	"strings"

	"github.com/repo-auditor/repo-auditor/internal/config"
	"github.com/repo-auditor/repo-auditor/internal/llm"
)

// initialConversation seeds a run: the user instruction, preceded by the
// configured system prompt when there is one.
func initialConversation(cfg config.AgentConfig, prompt string) []llm.ChatMessage {
	msgs := make([]llm.ChatMessage, 0, 8)
	if sys := strings.TrimSpace(cfg.SystemPrompt); sys != "" {
		msgs = append(msgs, llm.ChatMessage{Role: llm.RoleSystem, Content: sys})
	}
	return append(msgs, llm.ChatMessage{Role: llm.RoleUser, Content: prompt})
}

// assignCallIDs fills in correlation ids the model left empty.
func assignCallIDs(calls []llm.ToolCall, round int) []llm.ToolCall {
	out := make([]llm.ToolCall, len(calls))
	for i, c := range calls {
		if strings.TrimSpace(c.ID) == "" {
			c.ID = fmt.Sprintf("call_%d_%d", round, i)
		}
		if c.Type == "" {
			c.Type = "function"
		}
		out[i] = c
	}
	return out
}
