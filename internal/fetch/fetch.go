package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
	"go.uber.org/zap"

	"github.com/repo-auditor/repo-auditor/internal/logging"
	"github.com/repo-auditor/repo-auditor/internal/version"
)

const (
	defaultAPIURL  = "https://api.github.com"
	defaultTimeout = 60 * time.Second
	// maxErrorBody caps how much of a failed response is kept in HTTPError.
	maxErrorBody = 4096
	// DefaultMaxBytes bounds archive downloads and extracted content.
	DefaultMaxBytes int64 = 512 << 20
)

// Options configures a Fetcher.
type Options struct {
	// APIURL is the GitHub REST API base URL.
	APIURL string
	// Token is the optional source-host credential.
	Token string
	// WorkDir is the parent directory for extracted repositories (os.TempDir when empty).
	WorkDir string
	// Timeout bounds each archive request.
	Timeout time.Duration
	// MaxBytes caps the downloaded archive and the total extracted size
	// (DefaultMaxBytes when <= 0).
	MaxBytes int64
	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Result describes an extracted repository snapshot.
type Result struct {
	// Path is the absolute extraction directory.
	Path string `json:"path" yaml:"path"`
	// Repo is the repository URL as requested.
	Repo string `json:"repo" yaml:"repo"`
	Ref  string `json:"ref" yaml:"ref"`
	// Root is the archive's single top-level directory, or Path when there is not exactly one.
	Root string `json:"root" yaml:"root"`
}

// Fetcher downloads and extracts repository zipballs.
type Fetcher struct {
	apiURL   string
	token    string
	workDir  string
	maxBytes int64
	client   *http.Client
	logger   *zap.Logger
}

// New builds a Fetcher from opts.
func New(opts Options) *Fetcher {
	apiURL := strings.TrimRight(strings.TrimSpace(opts.APIURL), "/")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	workDir := opts.WorkDir
	if workDir == "" {
		workDir = os.TempDir()
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Fetcher{
		maxBytes: maxBytes,
		apiURL:   apiURL,
		token:    strings.TrimSpace(opts.Token),
		workDir:  workDir,
		client:   client,
		logger:   logging.OrNop(opts.Logger),
	}
}

// ArchiveURL returns the zipball download URL for repo at ref.
func (f *Fetcher) ArchiveURL(repo Repo, ref string) string {
	return f.apiURL + archivePath(repo, NormalizeRef(ref))
}

// Fetch downloads repoURL at ref and extracts it under the work directory.
// Non-2xx responses return *HTTPError; requests are not retried.
func (f *Fetcher) Fetch(ctx context.Context, repoURL, ref string) (Result, error) {
	repo, err := ParseRepo(repoURL)
	if err != nil {
		return Result{}, err
	}
	ref = NormalizeRef(ref)

	start := time.Now()
	archiveURL := f.ArchiveURL(repo, ref)
	f.logger.Info("downloading repository archive",
		zap.String("repo", repo.FullName()),
		zap.String("ref", ref),
		zap.Bool("authenticated", f.token != ""))

	data, err := f.download(ctx, archiveURL)
	if err != nil {
		return Result{}, err
	}

	dest, err := filepath.Abs(filepath.Join(f.workDir, workDirName(repo, ref)))
	if err != nil {
		return Result{}, fmt.Errorf("resolve destination: %w", err)
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return Result{}, fmt.Errorf("create destination %s: %w", dest, err)
	}

	files, err := Extract(data, dest, f.maxBytes)
	if err != nil {
		return Result{}, err
	}

	root, err := archiveRoot(dest)
	if err != nil {
		return Result{}, err
	}

	f.logger.Info("repository extracted",
		zap.String("repo", repo.FullName()),
		zap.String("path", dest),
		zap.Int("files", files),
		zap.Duration("elapsed", time.Since(start)))

	return Result{Path: dest, Repo: repoURL, Ref: ref, Root: root}, nil
}

func (f *Fetcher) download(ctx context.Context, archiveURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, archiveURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "repo-auditor/"+version.Version)
	if f.token != "" {
		req.Header.Set("Authorization", "token "+f.token)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching archive: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &HTTPError{URL: archiveURL, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading archive: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("%w: download exceeds %d bytes", ErrArchiveTooLarge, f.maxBytes)
	}
	return data, nil
}

// Extract unpacks a zip archive into dest and returns the number of files written.
// Entries that would land outside dest are rejected. A positive maxBytes caps
// the total uncompressed size written.
func Extract(data []byte, dest string, maxBytes int64) (int, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("open archive: %w", err)
	}
	guard, err := NewPathGuard(dest)
	if err != nil {
		return 0, err
	}

	files := 0
	remaining := maxBytes
	for _, entry := range zr.File {
		target, err := guard.Resolve(entry.Name)
		if err != nil {
			return files, fmt.Errorf("extract %s: %w", entry.Name, err)
		}
		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return files, fmt.Errorf("extract %s: %w", entry.Name, err)
			}
			continue
		}
		limit := int64(-1)
		if maxBytes > 0 {
			limit = remaining
		}
		written, err := extractFile(entry, target, limit)
		if err != nil {
			return files, fmt.Errorf("extract %s: %w", entry.Name, err)
		}
		remaining -= written
		files++
	}
	return files, nil
}

// extractFile writes entry to target as a regular file and returns the bytes
// written. Symlink and other non-regular entries are written as plain 0644
// files holding their content. A negative limit means no cap.
func extractFile(entry *zip.File, target string, limit int64) (int64, error) {
	if limit >= 0 && entry.UncompressedSize64 > uint64(limit) {
		return 0, fmt.Errorf("%w: extracted size exceeds limit", ErrArchiveTooLarge)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, err
	}
	src, err := entry.Open()
	if err != nil {
		return 0, err
	}
	defer src.Close()

	perm := os.FileMode(0o644)
	if entry.Mode().IsRegular() && entry.Mode().Perm() != 0 {
		perm = entry.Mode().Perm() | 0o600
	}
	dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return 0, err
	}

	var reader io.Reader = src
	if limit >= 0 {
		reader = io.LimitReader(src, limit+1)
	}
	written, err := io.Copy(dst, reader)
	if err != nil {
		dst.Close()
		return written, err
	}
	if limit >= 0 && written > limit {
		dst.Close()
		return written, fmt.Errorf("%w: extracted size exceeds limit", ErrArchiveTooLarge)
	}
	return written, dst.Close()
}

// archiveRoot returns the single top-level directory inside dest, or dest itself.
func archiveRoot(dest string) (string, error) {
	entries, err := os.ReadDir(dest)
	if err != nil {
		return "", fmt.Errorf("list %s: %w", dest, err)
	}
	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(dest, entries[0].Name()), nil
	}
	return dest, nil
}
