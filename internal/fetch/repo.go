package fetch

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultRef is used when no ref is supplied.
const DefaultRef = "main"

// Repo identifies a GitHub repository.
type Repo struct {
	Owner string
	Name  string
}

// FullName returns "owner/name".
func (r Repo) FullName() string {
	return r.Owner + "/" + r.Name
}

// ParseRepo normalises a repository URL to owner and name using its last two
// path segments. Trailing slashes and a ".git" suffix are ignored, so
// "https://github.com/acme/widgets/", "acme/widgets" and
// "git@github.com:acme/widgets.git" all resolve to acme/widgets.
func ParseRepo(repoURL string) (Repo, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(repoURL), "/")
	segments := strings.Split(trimmed, "/")
	if len(segments) < 2 {
		return Repo{}, fmt.Errorf("%w: repository URL %q must contain owner and repository", ErrInvalidInput, repoURL)
	}

	owner := segments[len(segments)-2]
	if i := strings.LastIndex(owner, ":"); i >= 0 {
		owner = owner[i+1:]
	}
	name := strings.TrimSuffix(segments[len(segments)-1], ".git")
	if owner == "" || name == "" {
		return Repo{}, fmt.Errorf("%w: repository URL %q must contain owner and repository", ErrInvalidInput, repoURL)
	}
	return Repo{Owner: owner, Name: name}, nil
}

// NormalizeRef returns ref, or DefaultRef when ref is blank.
func NormalizeRef(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return DefaultRef
	}
	return ref
}

// archivePath builds the zipball API path for repo at ref.
func archivePath(repo Repo, ref string) string {
	parts := strings.Split(ref, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return fmt.Sprintf("/repos/%s/%s/zipball/%s",
		url.PathEscape(repo.Owner), url.PathEscape(repo.Name), strings.Join(parts, "/"))
}

// workDirName is the directory name used for repo at ref.
func workDirName(repo Repo, ref string) string {
	safeRef := strings.NewReplacer("/", "_", "\\", "_").Replace(ref)
	return fmt.Sprintf("%s_%s_%s", repo.Owner, repo.Name, safeRef)
}
