package tools

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/repo-auditor/repo-auditor/internal/envscan"
	"github.com/repo-auditor/repo-auditor/internal/fetch"
	"github.com/repo-auditor/repo-auditor/internal/llm"
	"github.com/repo-auditor/repo-auditor/internal/observability"
)

type fakeFetcher struct {
	calls  []DownloadRepoArgs
	result fetch.Result
	err    error
	panic  bool
}

func (f *fakeFetcher) Fetch(ctx context.Context, repoURL, ref string) (fetch.Result, error) {
	f.calls = append(f.calls, DownloadRepoArgs{RepoURL: repoURL, Ref: ref})
	if f.panic {
		panic("boom")
	}
	if f.err != nil {
		return fetch.Result{}, f.err
	}
	res := f.result
	res.Repo = repoURL
	res.Ref = ref
	return res, nil
}

func call(id, name, args string) llm.ToolCall {
	return llm.ToolCall{ID: id, Type: "function", Function: llm.ToolFunctionCall{Name: name, Arguments: json.RawMessage(args)}}
}

func decode(t *testing.T, payload json.RawMessage) map[string]interface{} {
	t.Helper()
	out := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(payload, &out))
	return out
}

func newScanner(t *testing.T) *envscan.Scanner {
	t.Helper()
	s, err := envscan.NewScanner(nil, nil)
	require.NoError(t, err)
	return s
}

func TestDefinitionsExposeCatalog(t *testing.T) {
	reg := NewRegistry(nil, nil, nil)
	defs := reg.Definitions()
	require.Len(t, defs, 2)
	require.Equal(t, NameDownloadRepo, defs[0].Name)
	require.Equal(t, NameScanEnvs, defs[1].Name)

	params := defs[0].Parameters
	require.Equal(t, "object", params["type"])
	require.Equal(t, []string{"repo_url"}, params["required"])
	props := params["properties"].(map[string]interface{})
	ref := props["ref"].(map[string]interface{})
	require.Equal(t, "main", ref["default"])

	require.Equal(t, []string{"root_path"}, defs[1].Parameters["required"])
}

func TestDispatchUnknownTool(t *testing.T) {
	reg := NewRegistry(nil, nil, nil)
	res := reg.Dispatch(context.Background(), call("c1", "delete_repo", `{}`))
	require.Equal(t, "c1", res.CallID)
	require.Equal(t, "delete_repo", res.Name)
	require.True(t, errors.Is(res.Err, ErrUnknownTool))
	require.Equal(t, "error", res.Status())
	require.JSONEq(t, `{"error":"Unknown tool delete_repo"}`, string(res.Payload))
}

func TestDispatchDownloadRepoDefaultsRef(t *testing.T) {
	ff := &fakeFetcher{result: fetch.Result{Path: "/tmp/acme_widgets_main", Root: "/tmp/acme_widgets_main/acme-widgets-1"}}
	reg := NewRegistry(ff, nil, nil)

	res := reg.Dispatch(context.Background(), call("c1", NameDownloadRepo, `{"repo_url":"https://github.com/acme/widgets"}`))
	require.NoError(t, res.Err)
	require.Equal(t, "ok", res.Status())
	require.Equal(t, []DownloadRepoArgs{{RepoURL: "https://github.com/acme/widgets", Ref: "main"}}, ff.calls)

	out := decode(t, res.Payload)
	require.Equal(t, "/tmp/acme_widgets_main", out["path"])
	require.Equal(t, "https://github.com/acme/widgets", out["repo"])
	require.Equal(t, "main", out["ref"])
	require.Equal(t, "/tmp/acme_widgets_main/acme-widgets-1", out["root"])
}

func TestDispatchDownloadRepoFailureBecomesPayload(t *testing.T) {
	ff := &fakeFetcher{err: &fetch.HTTPError{URL: "https://api.github.com/x", StatusCode: 404, Body: "Not Found"}}
	reg := NewRegistry(ff, nil, nil)

	res := reg.Dispatch(context.Background(), call("c1", NameDownloadRepo, `{"repo_url":"acme/missing","ref":"dev"}`))
	require.Error(t, res.Err)
	var httpErr *fetch.HTTPError
	require.True(t, errors.As(res.Err, &httpErr))
	out := decode(t, res.Payload)
	require.Contains(t, out["error"], "status 404")
}

func TestDispatchRecoversPanics(t *testing.T) {
	reg := NewRegistry(&fakeFetcher{panic: true}, nil, nil)
	res := reg.Dispatch(context.Background(), call("c1", NameDownloadRepo, `{"repo_url":"acme/widgets"}`))
	require.Error(t, res.Err)
	require.Contains(t, decode(t, res.Payload)["error"], "panicked")
}

func TestDispatchInvalidArguments(t *testing.T) {
	reg := NewRegistry(&fakeFetcher{}, newScanner(t), nil)

	cases := map[string]string{
		"missing required": `{}`,
		"wrong type":       `{"root_path": 42}`,
		"not an object":    `[1,2]`,
		"not json":         `"root_path=/tmp"`,
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			res := reg.Dispatch(context.Background(), call("c1", NameScanEnvs, args))
			require.Error(t, res.Err)
			require.Contains(t, decode(t, res.Payload)["error"], "invalid arguments")
		})
	}
}

func TestDispatchAcceptsDoubleEncodedArguments(t *testing.T) {
	ff := &fakeFetcher{}
	reg := NewRegistry(ff, nil, nil)
	res := reg.Dispatch(context.Background(), call("c1", NameDownloadRepo, `"{\"repo_url\":\"acme/widgets\",\"ref\":\"v1\"}"`))
	require.NoError(t, res.Err)
	require.Equal(t, []DownloadRepoArgs{{RepoURL: "acme/widgets", Ref: "v1"}}, ff.calls)
}

func TestDispatchScanEnvs(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("API_KEY=abcdef123\nDEBUG=true\n"), 0o644))

	reg := NewRegistry(nil, newScanner(t), nil)
	args, err := json.Marshal(ScanEnvsArgs{RootPath: root})
	require.NoError(t, err)

	res := reg.Dispatch(context.Background(), call("c2", NameScanEnvs, string(args)))
	require.NoError(t, res.Err)

	var report envscan.Report
	require.NoError(t, json.Unmarshal(res.Payload, &report))
	require.Equal(t, envscan.StatusSecretsFound, report.Status)
	require.Equal(t, []string{filepath.Join(root, ".env")}, report.EnvFilesScanned)
	require.Len(t, report.Findings, 1)
	require.Equal(t, "API_KEY", report.Findings[0].Key)
	require.Equal(t, "abcd****", report.Findings[0].Value)
	require.Equal(t, 1, report.Findings[0].Line)
}

func TestDispatchScanEnvsEmptyTree(t *testing.T) {
	reg := NewRegistry(nil, newScanner(t), nil)
	res := reg.Dispatch(context.Background(), call("c3", NameScanEnvs, `{"root_path":"`+filepath.ToSlash(t.TempDir())+`"}`))
	require.NoError(t, res.Err)
	out := decode(t, res.Payload)
	require.Equal(t, "no_env_files", out["status"])
	require.Equal(t, []interface{}{}, out["findings"])
	require.Equal(t, []interface{}{}, out["env_files_scanned"])
}

func TestDispatchMissingBackends(t *testing.T) {
	reg := NewRegistry(nil, nil, nil)
	res := reg.Dispatch(context.Background(), call("c1", NameScanEnvs, `{"root_path":"/tmp"}`))
	require.Error(t, res.Err)
	require.Contains(t, decode(t, res.Payload)["error"], "unavailable")
}

func TestDispatchScanEnvsRecordsFindings(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env.local"), []byte("DB_PASSWORD=hunter22\nGITHUB_TOKEN=ghp_x\n"), 0o644))

	m := observability.NewMetrics()
	reg := NewRegistry(nil, newScanner(t), nil)
	reg.SetMetrics(m)

	res := reg.Dispatch(context.Background(), call("c1", NameScanEnvs, `{"root_path":"`+filepath.ToSlash(root)+`"}`))
	require.NoError(t, res.Err)
	require.Equal(t, 2.0, testutil.ToFloat64(m.Findings))
}
