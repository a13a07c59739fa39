package configbuilder

import (
	"fmt"
	"strings"

	"github.com/repo-auditor/repo-auditor/internal/config"
	"github.com/repo-auditor/repo-auditor/internal/llm"
	llmollama "github.com/repo-auditor/repo-auditor/internal/llm/providers/ollama"
	llmopenai "github.com/repo-auditor/repo-auditor/internal/llm/providers/openai"
)

// BuildRegistryFromConfig constructs a registry and providers from config.
// Providers without an explicit api_key use the resolved inference credential.
func BuildRegistryFromConfig(cfg *config.Config) (*llm.Registry, error) {
	reg := llm.NewRegistry()

	for name, pCfg := range cfg.Providers {
		p, err := buildProvider(name, pCfg, cfg.Resolved.InferenceAPIKey)
		if err != nil {
			return nil, err
		}
		reg.RegisterProvider(name, p)
	}

	for name, mCfg := range cfg.Models {
		reg.RegisterModel(name, llm.ModelRoute{
			Provider:    mCfg.Provider,
			Model:       mCfg.Model,
			Temperature: mCfg.Temperature,
			MaxTokens:   mCfg.MaxTokens,
		}, mCfg.Default)
	}

	if _, _, err := reg.Resolve(""); err != nil {
		return nil, err
	}

	return reg, nil
}

func buildProvider(name string, cfg config.ProviderConfig, inferenceKey string) (llm.Provider, error) {
	apiKey := cfg.APIKey
	if strings.TrimSpace(apiKey) == "" {
		apiKey = inferenceKey
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "groq":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = llmopenai.GroqBaseURL
		}
		return llmopenai.NewProvider(name, baseURL, apiKey, cfg.Timeout), nil
	case "openai", "openrouter", "vllm", "lmstudio", "custom":
		return llmopenai.NewProvider(name, cfg.BaseURL, apiKey, cfg.Timeout), nil
	case "ollama":
		return llmollama.NewProvider(name, cfg.BaseURL, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown provider type %q for provider %s", cfg.Type, name)
	}
}
