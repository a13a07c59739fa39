package auditor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/repo-auditor/repo-auditor/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Providers: map[string]config.ProviderConfig{
			"local": {Type: "ollama", BaseURL: "http://127.0.0.1:11434", Timeout: time.Second},
		},
		Models: map[string]config.ModelConfig{
			"default": {Provider: "local", Model: "llama3.1", Default: true},
		},
		GitHub: config.GitHubConfig{APIURL: "https://api.github.com", Timeout: time.Second},
		Agent:  config.AgentConfig{MaxRounds: 5},
	}
}

func TestNewWiresAgent(t *testing.T) {
	a, err := New(testConfig(), nil, nil)
	require.NoError(t, err)
	require.NotNil(t, a.Agent)
	require.NotNil(t, a.Tools)
	require.Equal(t, 5, a.Agent.MaxRounds())
	require.Len(t, a.Tools.Definitions(), 2)
	require.Equal(t, []string{"default"}, a.Models.Models())
}

func TestNewToolsRejectsBadPattern(t *testing.T) {
	cfg := testConfig()
	cfg.Scanner.ExtraPatterns = []string{"("}
	_, err := NewTools(cfg, nil, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "build scanner")
}
