package fetch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathGuard ensures extracted paths stay within a base directory.
type PathGuard struct {
	BaseDir string
}

// NewPathGuard constructs a guard rooted at baseDir.
func NewPathGuard(baseDir string) (*PathGuard, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, err
	}
	return &PathGuard{BaseDir: absBase}, nil
}

// Resolve validates a slash-separated archive entry name and returns its
// absolute location inside BaseDir.
func (g *PathGuard) Resolve(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("path is required")
	}
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || filepath.VolumeName(clean) != "" {
		return "", fmt.Errorf("absolute paths are not allowed: %s", name)
	}
	abs := filepath.Clean(filepath.Join(g.BaseDir, clean))

	if !strings.HasPrefix(abs, g.BaseDir+string(os.PathSeparator)) && abs != g.BaseDir {
		return "", fmt.Errorf("path escapes base directory: %s", name)
	}
	return abs, nil
}
