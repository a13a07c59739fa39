package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/repo-auditor/repo-auditor/internal/envscan"
	"github.com/repo-auditor/repo-auditor/internal/fetch"
	"github.com/repo-auditor/repo-auditor/internal/llm"
	"github.com/repo-auditor/repo-auditor/internal/logging"
	"github.com/repo-auditor/repo-auditor/internal/observability"
)

// Tool names exposed to the model.
const (
	NameDownloadRepo = "download_repo"
	NameScanEnvs     = "scan_envs"
)

// ErrUnknownTool is reported when a call names a tool outside the catalog.
var ErrUnknownTool = errors.New("unknown tool")

// Fetcher downloads a repository snapshot.
type Fetcher interface {
	Fetch(ctx context.Context, repoURL, ref string) (fetch.Result, error)
}

// Scanner scans a directory tree for secrets in env files.
type Scanner interface {
	Scan(ctx context.Context, root string) envscan.Report
}

// Result is the uniform outcome of dispatching one tool call.
type Result struct {
	CallID string
	Name   string
	// Payload is the JSON document handed back to the model.
	Payload json.RawMessage
	// Err is set when Payload carries an error object.
	Err      error
	Duration time.Duration
}

// Status is "ok" or "error".
func (r Result) Status() string {
	if r.Err != nil {
		return "error"
	}
	return "ok"
}

// DownloadRepoArgs are the download_repo arguments.
type DownloadRepoArgs struct {
	RepoURL string `json:"repo_url"`
	Ref     string `json:"ref"`
}

// ScanEnvsArgs are the scan_envs arguments.
type ScanEnvsArgs struct {
	RootPath string `json:"root_path"`
}

type handler func(ctx context.Context, raw json.RawMessage) (interface{}, error)

// Registry exposes the tool catalog and dispatches calls to its handlers.
type Registry struct {
	fetcher  Fetcher
	scanner  Scanner
	logger   *zap.Logger
	metrics  *observability.Metrics
	handlers map[string]handler
}

// NewRegistry builds a registry backed by the given fetcher and scanner.
func NewRegistry(fetcher Fetcher, scanner Scanner, logger *zap.Logger) *Registry {
	r := &Registry{
		fetcher: fetcher,
		scanner: scanner,
		logger:  logging.OrNop(logger),
	}
	r.handlers = map[string]handler{
		NameDownloadRepo: typed(r.downloadRepo),
		NameScanEnvs:     typed(r.scanEnvs),
	}
	return r
}

// SetMetrics enables finding counters for scan results.
func (r *Registry) SetMetrics(m *observability.Metrics) {
	r.metrics = m
}

// Schema returns schema for a given tool name if present.
func (r *Registry) Schema(name string) (Schema, bool) {
	for _, s := range catalog {
		if s.Name == name {
			return s, true
		}
	}
	return Schema{}, false
}

// Dispatch runs a single tool call. Failures of any kind are folded into the
// returned payload as {"error": "..."}; Dispatch itself never fails.
func (r *Registry) Dispatch(ctx context.Context, call llm.ToolCall) (res Result) {
	name := call.Function.Name
	res = Result{CallID: call.ID, Name: name}
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			res.Err = fmt.Errorf("tool %s panicked: %v", name, p)
			res.Payload = errorPayload(res.Err.Error())
		}
		res.Duration = time.Since(start)
	}()

	h, ok := r.handlers[name]
	if !ok {
		res.Err = fmt.Errorf("%w: %s", ErrUnknownTool, name)
		res.Payload = errorPayload("Unknown tool " + name)
		return res
	}

	raw, args, err := decodeArguments(call.Function.Arguments)
	if err == nil {
		err = ValidateCall(r, name, args)
	}
	if err != nil {
		res.Err = fmt.Errorf("%s: invalid arguments: %w", name, err)
		res.Payload = errorPayload(res.Err.Error())
		return res
	}

	out, err := h(ctx, raw)
	if err != nil {
		res.Err = err
		res.Payload = errorPayload(err.Error())
		return res
	}
	payload, err := json.Marshal(out)
	if err != nil {
		res.Err = fmt.Errorf("%s: encode result: %w", name, err)
		res.Payload = errorPayload(res.Err.Error())
		return res
	}
	res.Payload = payload
	return res
}

func (r *Registry) downloadRepo(ctx context.Context, args DownloadRepoArgs) (interface{}, error) {
	if r.fetcher == nil {
		return nil, errors.New("repository fetcher unavailable")
	}
	return r.fetcher.Fetch(ctx, args.RepoURL, fetch.NormalizeRef(args.Ref))
}

func (r *Registry) scanEnvs(ctx context.Context, args ScanEnvsArgs) (interface{}, error) {
	if r.scanner == nil {
		return nil, errors.New("secret scanner unavailable")
	}
	report := r.scanner.Scan(ctx, args.RootPath)
	r.metrics.RecordFindings(len(report.Findings))
	r.logger.Debug("env scan complete",
		zap.String("root", report.Root),
		zap.Int("files", len(report.EnvFilesScanned)),
		zap.Int("findings", len(report.Findings)),
		zap.String("status", string(report.Status)))
	return report, nil
}

// typed adapts a handler taking a decoded argument struct.
func typed[A any](fn func(context.Context, A) (interface{}, error)) handler {
	return func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var args A
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, fmt.Errorf("decode arguments: %w", err)
		}
		return fn(ctx, args)
	}
}

// decodeArguments accepts an arguments object, an empty value, or an object
// double-encoded as a JSON string.
func decodeArguments(raw json.RawMessage) (json.RawMessage, map[string]interface{}, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return json.RawMessage("{}"), map[string]interface{}{}, nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var inner string
		if err := json.Unmarshal([]byte(trimmed), &inner); err != nil {
			return nil, nil, err
		}
		trimmed = strings.TrimSpace(inner)
	}
	args := map[string]interface{}{}
	if err := json.Unmarshal([]byte(trimmed), &args); err != nil {
		return nil, nil, fmt.Errorf("arguments must be a JSON object: %w", err)
	}
	return json.RawMessage(trimmed), args, nil
}

func errorPayload(msg string) json.RawMessage {
	b, _ := json.Marshal(map[string]string{"error": msg})
	return b
}
