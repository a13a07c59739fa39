// Package auditor assembles the fetcher, scanner, tool registry and
// orchestration loop from resolved configuration.
package auditor

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/repo-auditor/repo-auditor/internal/agent"
	"github.com/repo-auditor/repo-auditor/internal/config"
	"github.com/repo-auditor/repo-auditor/internal/envscan"
	"github.com/repo-auditor/repo-auditor/internal/fetch"
	"github.com/repo-auditor/repo-auditor/internal/llm"
	"github.com/repo-auditor/repo-auditor/internal/llm/configbuilder"
	"github.com/repo-auditor/repo-auditor/internal/logging"
	"github.com/repo-auditor/repo-auditor/internal/observability"
	"github.com/repo-auditor/repo-auditor/internal/tools"
)

// Auditor holds the wired components for one process.
type Auditor struct {
	Fetcher *fetch.Fetcher
	Scanner *envscan.Scanner
	Tools   *tools.Registry
	Models  *llm.Registry
	Agent   *agent.Agent
}

// NewTools builds the fetcher, scanner and tool registry. No model is needed.
func NewTools(cfg *config.Config, logger *zap.Logger, metrics *observability.Metrics) (*Auditor, error) {
	logger = logging.OrNop(logger)

	scanner, err := envscan.NewScanner(cfg.Scanner.ExtraPatterns, logger.Named("envscan"))
	if err != nil {
		return nil, fmt.Errorf("build scanner: %w", err)
	}
	fetcher := fetch.New(fetch.Options{
		APIURL:   cfg.GitHub.APIURL,
		Token:    cfg.Resolved.GitHubToken,
		WorkDir:  cfg.GitHub.WorkDir,
		Timeout:  cfg.GitHub.Timeout,
		MaxBytes: cfg.GitHub.MaxArchiveBytes,
		Logger:   logger.Named("fetch"),
	})
	reg := tools.NewRegistry(fetcher, scanner, logger.Named("tools"))
	reg.SetMetrics(metrics)

	return &Auditor{Fetcher: fetcher, Scanner: scanner, Tools: reg}, nil
}

// New builds the full pipeline including the model registry and agent.
func New(cfg *config.Config, logger *zap.Logger, metrics *observability.Metrics) (*Auditor, error) {
	a, err := NewTools(cfg, logger, metrics)
	if err != nil {
		return nil, err
	}
	models, err := configbuilder.BuildRegistryFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("build registry: %w", err)
	}
	a.Models = models
	a.Agent = agent.New(models, a.Tools, cfg.Agent,
		agent.WithLogger(logging.OrNop(logger).Named("agent")),
		agent.WithMetrics(metrics))
	return a, nil
}
