package envscan

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/repo-auditor/repo-auditor/internal/logging"
	"github.com/repo-auditor/repo-auditor/internal/redact"
)

// EnvFilePrefix is the case-sensitive name prefix of files the scanner reads.
const EnvFilePrefix = ".env"

// DefaultPatterns are the sensitive key patterns, matched case-insensitively
// anywhere within the key.
var DefaultPatterns = []string{
	`API[_-]?KEY`,
	`SECRET`,
	`PASSWORD`,
	`TOKEN`,
	`ACCESS[_-]?KEY`,
}

// Scanner detects sensitive keys in env files under a directory tree.
type Scanner struct {
	patterns []*regexp.Regexp
	logger   *zap.Logger
}

// NewScanner compiles DefaultPatterns plus any extra patterns into a Scanner.
// Extra patterns widen detection; the defaults always apply.
func NewScanner(extra []string, logger *zap.Logger) (*Scanner, error) {
	patterns := make([]string, 0, len(DefaultPatterns)+len(extra))
	patterns = append(patterns, DefaultPatterns...)
	patterns = append(patterns, extra...)
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("compile pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return &Scanner{patterns: compiled, logger: logging.OrNop(logger)}, nil
}

// Scan walks root and reports sensitive keys found in env files.
// It never fails: a missing root yields an empty report, and files or
// directories that cannot be read are skipped.
func (s *Scanner) Scan(ctx context.Context, root string) Report {
	scanned := make([]string, 0)
	findings := make([]Finding, 0)

	for _, path := range s.discover(ctx, root) {
		fileFindings, err := s.scanFile(path)
		if err != nil {
			s.logger.Warn("skipping unreadable env file", zap.String("file", path), zap.Error(err))
			continue
		}
		scanned = append(scanned, path)
		findings = append(findings, fileFindings...)
	}

	return Report{
		Root:            root,
		EnvFilesScanned: scanned,
		Findings:        findings,
		Status:          DeriveStatus(scanned, findings),
	}
}

// MatchKey returns the first pattern matching key, if any.
func (s *Scanner) MatchKey(key string) (string, bool) {
	for _, re := range s.patterns {
		if re.MatchString(key) {
			return re.String(), true
		}
	}
	return "", false
}

func (s *Scanner) discover(ctx context.Context, root string) []string {
	var paths []string
	_ = filepath.WalkDir(walkRoot(root), func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return fs.SkipAll
		}
		if err != nil {
			if d != nil && d.IsDir() && filepath.Clean(path) != filepath.Clean(root) {
				s.logger.Warn("skipping unreadable directory", zap.String("dir", path), zap.Error(err))
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), EnvFilePrefix) {
			paths = append(paths, path)
		}
		return nil
	})
	return paths
}

// walkRoot makes WalkDir descend into root when root is a symlink to a
// directory. Nested symlinked directories are still not followed.
func walkRoot(root string) string {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() || os.IsPathSeparator(root[len(root)-1]) {
		return root
	}
	return root + string(os.PathSeparator)
}

func (s *Scanner) scanFile(path string) ([]Finding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	// Undecodable bytes are dropped rather than failing the file.
	text := strings.ToValidUTF8(string(data), "")

	var out []Finding
	for i, line := range splitLines(text) {
		key, value, ok := ParseLine(line)
		if !ok {
			continue
		}
		if _, hit := s.MatchKey(key); !hit {
			continue
		}
		out = append(out, Finding{
			File:  path,
			Line:  i + 1,
			Key:   key,
			Value: redact.Value(value),
		})
	}
	return out, nil
}
