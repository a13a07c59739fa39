package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// ErrMissingCredential reports that a required credential could not be resolved.
var ErrMissingCredential = errors.New("missing required credential")

// Environment variable names consulted for credentials.
const (
	EnvInferenceKey   = "GROQ_API_KEY"
	EnvGitHubCLIToken = "GH_TOKEN"
	EnvGitHubToken    = "GITHUB_TOKEN"
	EnvGitHubAPIToken = "GITHUB_API_TOKEN"
)

var githubTokenPreference = []string{
	EnvGitHubCLIToken,
	EnvGitHubToken,
	EnvGitHubAPIToken,
}

// Credentials are the secrets the auditor itself runs with.
type Credentials struct {
	InferenceAPIKey string
	GitHubToken     string
}

// HasGitHubToken reports whether private or rate-limited repositories can be fetched.
func (c Credentials) HasGitHubToken() bool {
	return c.GitHubToken != ""
}

// ResolveCredentials resolves credentials from, in order: the process
// environment (or env when non-nil), the dotenv file, and explicit config values.
func ResolveCredentials(cfg CredentialsConfig, env map[string]string) (Credentials, error) {
	dotenv, err := loadDotEnv(cfg.DotEnvPath)
	if err != nil {
		return Credentials{}, err
	}
	lookup := func(key string) string {
		if env != nil {
			return strings.TrimSpace(env[key])
		}
		return strings.TrimSpace(os.Getenv(key))
	}

	var creds Credentials
	creds.InferenceAPIKey = firstNonEmpty(
		lookup(EnvInferenceKey),
		dotenv[EnvInferenceKey],
		strings.TrimSpace(cfg.InferenceAPIKey),
	)

	var tokens []string
	for _, key := range githubTokenPreference {
		tokens = append(tokens, lookup(key))
	}
	for _, key := range githubTokenPreference {
		tokens = append(tokens, dotenv[key])
	}
	tokens = append(tokens, strings.TrimSpace(cfg.GitHubToken))
	creds.GitHubToken = firstNonEmpty(tokens...)

	return creds, nil
}

// loadDotEnv reads KEY=VALUE pairs from path. A missing file yields an empty map.
func loadDotEnv(path string) (map[string]string, error) {
	out := map[string]string{}
	if strings.TrimSpace(path) == "" {
		return out, nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return out, nil
		}
		return nil, fmt.Errorf("stat dotenv %s: %w", path, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read dotenv %s: %w", path, err)
	}
	// viper lower-cases keys; credentials are looked up by their env name.
	for _, key := range v.AllKeys() {
		if val := strings.TrimSpace(v.GetString(key)); val != "" {
			out[strings.ToUpper(key)] = val
		}
	}
	return out, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
