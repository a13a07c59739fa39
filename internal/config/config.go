package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config describes the top-level application configuration loaded from YAML and ENV.
type Config struct {
	Version     string                    `mapstructure:"version"`
	Providers   map[string]ProviderConfig `mapstructure:"providers"`
	Models      map[string]ModelConfig    `mapstructure:"models"`
	Credentials CredentialsConfig         `mapstructure:"credentials"`
	GitHub      GitHubConfig              `mapstructure:"github"`
	Scanner     ScannerConfig             `mapstructure:"scanner"`
	Agent       AgentConfig               `mapstructure:"agent"`
	Logging     LoggingConfig             `mapstructure:"logging"`
	Server      ServerConfig              `mapstructure:"server"`

	// Resolved holds credentials resolved once at load time.
	Resolved Credentials `mapstructure:"-"`
}

// ProviderConfig represents LLM provider configuration such as Groq, OpenAI, or Ollama.
type ProviderConfig struct {
	Type    string        `mapstructure:"type"`     // openai, groq, openrouter, vllm, lmstudio, custom, ollama
	BaseURL string        `mapstructure:"base_url"` // API base URL
	APIKey  string        `mapstructure:"api_key"`  // optional; falls back to the inference credential
	Timeout time.Duration `mapstructure:"timeout"`  // request timeout
}

// ModelConfig binds a logical model name to a provider entry and model parameters.
type ModelConfig struct {
	Provider    string  `mapstructure:"provider"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Default     bool    `mapstructure:"default"`
}

// CredentialsConfig lists where credentials may come from besides the process environment.
type CredentialsConfig struct {
	InferenceAPIKey string `mapstructure:"inference_api_key"`
	GitHubToken     string `mapstructure:"github_token"`
	DotEnvPath      string `mapstructure:"dotenv_path"`
}

// DefaultMaxArchiveBytes bounds repository archives when github.max_archive_bytes is unset.
const DefaultMaxArchiveBytes = 512 << 20

// GitHubConfig controls repository archive downloads.
type GitHubConfig struct {
	APIURL  string        `mapstructure:"api_url"`
	WorkDir string        `mapstructure:"work_dir"`
	Timeout time.Duration `mapstructure:"timeout"`
	// MaxArchiveBytes caps both the downloaded archive and its extracted size.
	MaxArchiveBytes int64 `mapstructure:"max_archive_bytes"`
}

// ScannerConfig controls the env-file secret scanner.
type ScannerConfig struct {
	// ExtraPatterns are added to the built-in sensitive key patterns.
	ExtraPatterns []string `mapstructure:"extra_patterns"`
}

// AgentConfig describes orchestration loop parameters.
type AgentConfig struct {
	Model        string  `mapstructure:"model"`
	MaxRounds    int     `mapstructure:"max_rounds"`
	MaxTokens    int     `mapstructure:"max_tokens"`
	Temperature  float64 `mapstructure:"temperature"`
	SystemPrompt string  `mapstructure:"system_prompt"`
}

// LoggingConfig controls logger behaviour.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // console or json
}

// ServerConfig describes daemon settings.
type ServerConfig struct {
	Addr           string `mapstructure:"addr"`
	MetricsEnabled bool   `mapstructure:"metrics_enabled"`
	Transport      string `mapstructure:"transport"` // connect or ndjson
}

type loadOptions struct {
	skipInferenceCheck bool
}

// LoadOption adjusts Load behaviour.
type LoadOption func(*loadOptions)

// SkipInferenceCheck loads configuration without requiring an inference
// credential. Used by commands that never call a model.
func SkipInferenceCheck() LoadOption {
	return func(o *loadOptions) { o.skipInferenceCheck = true }
}

// Load reads configuration from the provided path or defaults to configs/config.yaml.
// Environment variables override file values (prefix: REPOAUDIT_, dots replaced with underscores).
// Credentials are resolved afterwards; a missing inference credential is an error
// unless SkipInferenceCheck is given.
func Load(path string, opts ...LoadOption) (*Config, error) {
	var lo loadOptions
	for _, opt := range opts {
		opt(&lo)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("REPOAUDIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("configs")
	} else {
		v.SetConfigFile(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && path == "" {
			v.SetConfigName("config.example")
			if err := v.ReadInConfig(); err != nil {
				var stillMissing viper.ConfigFileNotFoundError
				if !errors.As(err, &stillMissing) {
					return nil, fmt.Errorf("read config: %w", err)
				}
			}
		} else {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	applyBuiltinModel(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	creds, err := ResolveCredentials(cfg.Credentials, nil)
	if err != nil {
		return nil, err
	}
	cfg.Resolved = creds

	if !lo.skipInferenceCheck {
		if err := cfg.RequireCredentials(); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

// setDefaults populates sensible defaults for optional fields.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("credentials.dotenv_path", ".env")

	v.SetDefault("github.api_url", "https://api.github.com")
	v.SetDefault("github.work_dir", "")
	v.SetDefault("github.timeout", "60s")
	v.SetDefault("github.max_archive_bytes", DefaultMaxArchiveBytes)

	v.SetDefault("scanner.extra_patterns", []string{})

	v.SetDefault("agent.model", "")
	v.SetDefault("agent.max_rounds", 10)
	v.SetDefault("agent.max_tokens", 0)
	v.SetDefault("agent.temperature", 0.0)
	v.SetDefault("agent.system_prompt", "")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.metrics_enabled", true)
	v.SetDefault("server.transport", "connect")
}

// applyBuiltinModel installs the default Groq provider and model when none are configured.
func applyBuiltinModel(cfg *Config) {
	if len(cfg.Providers) == 0 {
		cfg.Providers = map[string]ProviderConfig{
			"groq": {Type: "groq", Timeout: 60 * time.Second},
		}
	}
	if _, ok := cfg.Providers["groq"]; ok && len(cfg.Models) == 0 {
		cfg.Models = map[string]ModelConfig{
			"default": {Provider: "groq", Model: "llama-3.1-8b-instant", Default: true},
		}
	}
}

// NeedsInferenceKey reports whether the provider type authenticates with an API key.
func (p ProviderConfig) NeedsInferenceKey() bool {
	switch strings.ToLower(strings.TrimSpace(p.Type)) {
	case "ollama", "vllm", "lmstudio":
		return false
	default:
		return true
	}
}

// RequireCredentials fails when a configured provider has no usable API key.
func (c *Config) RequireCredentials() error {
	for name, p := range c.Providers {
		if !p.NeedsInferenceKey() {
			continue
		}
		if strings.TrimSpace(p.APIKey) == "" && c.Resolved.InferenceAPIKey == "" {
			return fmt.Errorf("%w: provider %q needs an API key (set %s or credentials.inference_api_key)",
				ErrMissingCredential, name, EnvInferenceKey)
		}
	}
	return nil
}

// Validate performs basic sanity checks on configuration values.
func (c *Config) Validate() error {
	if len(c.Providers) == 0 {
		return errors.New("at least one provider must be configured")
	}

	if len(c.Models) == 0 {
		return errors.New("at least one model must be defined")
	}

	for name, p := range c.Providers {
		if p.Type == "" {
			return fmt.Errorf("provider %q must define type", name)
		}
	}

	var defaultFound bool
	for name, m := range c.Models {
		if m.Provider == "" {
			return fmt.Errorf("model %q must reference provider", name)
		}

		if _, ok := c.Providers[m.Provider]; !ok {
			return fmt.Errorf("model %q references unknown provider %q", name, m.Provider)
		}

		if m.Temperature < 0 || m.Temperature > 2 {
			return fmt.Errorf("model %q temperature must be within [0,2]", name)
		}

		if m.MaxTokens < 0 {
			return fmt.Errorf("model %q max_tokens cannot be negative", name)
		}

		if m.Default {
			defaultFound = true
		}
	}

	if !defaultFound {
		return errors.New("at least one model should be marked as default")
	}

	if model := strings.TrimSpace(c.Agent.Model); model != "" {
		if _, ok := c.Models[model]; !ok {
			return fmt.Errorf("agent.model references unknown model %q", model)
		}
	}

	if c.Agent.MaxRounds <= 0 {
		return errors.New("agent.max_rounds must be > 0")
	}
	if c.Agent.MaxTokens < 0 {
		return errors.New("agent.max_tokens must be >= 0")
	}
	if c.Agent.Temperature < 0 || c.Agent.Temperature > 2 {
		return errors.New("agent.temperature must be within [0,2]")
	}

	if strings.TrimSpace(c.GitHub.APIURL) == "" {
		return errors.New("github.api_url must be set")
	}
	if c.GitHub.Timeout <= 0 {
		return errors.New("github.timeout must be > 0")
	}

	switch strings.ToLower(strings.TrimSpace(c.Server.Transport)) {
	case "", "connect", "ndjson":
	default:
		return fmt.Errorf("server.transport must be one of connect or ndjson, got %q", c.Server.Transport)
	}

	return nil
}
