package envscan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestScanner(t *testing.T) *Scanner {
	t.Helper()
	s, err := NewScanner(nil, nil)
	require.NoError(t, err)
	return s
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestScanNoEnvFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "README.md"), "API_KEY=not-an-env-file\n")
	writeFile(t, filepath.Join(dir, "config", "app.env"), "SECRET=suffix-does-not-count\n")

	report := newTestScanner(t).Scan(context.Background(), dir)
	require.Equal(t, StatusNoEnvFiles, report.Status)
	require.Empty(t, report.EnvFilesScanned)
	require.Empty(t, report.Findings)
	require.Equal(t, dir, report.Root)
}

func TestScanNoSecrets(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env"), "FOO=bar\n")

	report := newTestScanner(t).Scan(context.Background(), dir)
	require.Equal(t, StatusNoSecrets, report.Status)
	require.Equal(t, []string{filepath.Join(dir, ".env")}, report.EnvFilesScanned)
	require.Empty(t, report.Findings)
}

func TestScanSecretsFound(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env"), "API_KEY=sk-12345\n")

	report := newTestScanner(t).Scan(context.Background(), dir)
	require.Equal(t, StatusSecretsFound, report.Status)
	require.Equal(t, []Finding{{
		File:  filepath.Join(dir, ".env"),
		Line:  1,
		Key:   "API_KEY",
		Value: "sk-1****",
	}}, report.Findings)
}

func TestScanPatternsAndOrdering(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env"), "# header\nDEBUG=true\nmy_api_key_v2=abcdef\nDB_PASSWORD=hunter2\n\nGITHUB_TOKEN=ghp_xyz\n")
	writeFile(t, filepath.Join(dir, "svc", ".env.local"), "AWS_ACCESS-KEY=AKIA0000\nCLIENT_SECRET_TOKEN=ab\nNAME=svc\n")

	report := newTestScanner(t).Scan(context.Background(), dir)
	require.Equal(t, StatusSecretsFound, report.Status)
	require.Equal(t, []string{
		filepath.Join(dir, ".env"),
		filepath.Join(dir, "svc", ".env.local"),
	}, report.EnvFilesScanned)

	require.Equal(t, []Finding{
		{File: filepath.Join(dir, ".env"), Line: 3, Key: "my_api_key_v2", Value: "abcd****"},
		{File: filepath.Join(dir, ".env"), Line: 4, Key: "DB_PASSWORD", Value: "hunt****"},
		{File: filepath.Join(dir, ".env"), Line: 6, Key: "GITHUB_TOKEN", Value: "ghp_****"},
		{File: filepath.Join(dir, "svc", ".env.local"), Line: 1, Key: "AWS_ACCESS-KEY", Value: "AKIA****"},
		// Matches both SECRET and TOKEN but is reported once.
		{File: filepath.Join(dir, "svc", ".env.local"), Line: 2, Key: "CLIENT_SECRET_TOKEN", Value: "ab****"},
	}, report.Findings)
}

func TestScanIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b", ".env"), "TOKEN=1\n")
	writeFile(t, filepath.Join(dir, "a", ".env.prod"), "SECRET=2\n")
	writeFile(t, filepath.Join(dir, ".env.example"), "PASSWORD=3\n")

	s := newTestScanner(t)
	first := s.Scan(context.Background(), dir)
	second := s.Scan(context.Background(), dir)
	require.Equal(t, first, second)
	require.Len(t, first.Findings, 3)
}

func TestScanSkipsUnreadableFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "one", ".env"), "API_KEY=first-key\n")
	writeFile(t, filepath.Join(dir, "three", ".env"), "SECRET=third\n")
	// A dangling symlink is listed by the walk but cannot be opened.
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "two"), 0o755))
	require.NoError(t, os.Symlink(filepath.Join(dir, "missing"), filepath.Join(dir, "two", ".env")))

	report := newTestScanner(t).Scan(context.Background(), dir)
	require.Equal(t, []string{
		filepath.Join(dir, "one", ".env"),
		filepath.Join(dir, "three", ".env"),
	}, report.EnvFilesScanned)
	require.Len(t, report.Findings, 2)
	require.Equal(t, StatusSecretsFound, report.Status)
}

func TestScanDropsInvalidBytes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env"), "NOTE=\xff\xfe\nAPI_KEY=ab\xffcdef\n")

	report := newTestScanner(t).Scan(context.Background(), dir)
	require.Len(t, report.Findings, 1)
	require.Equal(t, "abcd****", report.Findings[0].Value)
	require.Equal(t, 2, report.Findings[0].Line)
}

func TestScanMissingRoot(t *testing.T) {
	report := newTestScanner(t).Scan(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.Equal(t, StatusNoEnvFiles, report.Status)
	require.Empty(t, report.EnvFilesScanned)
}

func TestScanFollowsSymlinkedRoot(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "real")
	writeFile(t, filepath.Join(target, ".env"), "API_KEY=sk-12345\n")
	link := filepath.Join(dir, "link")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	report := newTestScanner(t).Scan(context.Background(), link)
	require.Equal(t, StatusSecretsFound, report.Status)
	require.Equal(t, link, report.Root)
	require.Equal(t, []string{filepath.Join(link, ".env")}, report.EnvFilesScanned)
	require.Len(t, report.Findings, 1)
	require.Equal(t, "API_KEY", report.Findings[0].Key)
	require.Equal(t, "sk-1****", report.Findings[0].Value)
}

func TestScanIgnoresEnvDirectories(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".envs", "settings.txt"), "TOKEN=x\n")

	report := newTestScanner(t).Scan(context.Background(), dir)
	require.Equal(t, StatusNoEnvFiles, report.Status)
}

func TestNewScannerExtraPatterns(t *testing.T) {
	s, err := NewScanner([]string{`PRIVATE`}, nil)
	require.NoError(t, err)
	_, ok := s.MatchKey("private_cert")
	require.True(t, ok)
	_, ok = s.MatchKey("API_KEY")
	require.True(t, ok, "default patterns still apply")
	_, ok = s.MatchKey("HOSTNAME")
	require.False(t, ok)

	_, err = NewScanner([]string{`(`}, nil)
	require.Error(t, err)
}

func TestDeriveStatus(t *testing.T) {
	require.Equal(t, StatusNoEnvFiles, DeriveStatus(nil, nil))
	require.Equal(t, StatusNoSecrets, DeriveStatus([]string{"a"}, nil))
	require.Equal(t, StatusSecretsFound, DeriveStatus([]string{"a"}, []Finding{{}}))
}
