package fetch

import (
	"errors"
	"fmt"
)

// ErrInvalidInput reports a repository reference that cannot be normalised.
var ErrInvalidInput = errors.New("invalid input")

// ErrArchiveTooLarge reports an archive over the configured size limit.
var ErrArchiveTooLarge = errors.New("archive too large")

// HTTPError is returned when the archive endpoint answers with a non-2xx status.
type HTTPError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("GET %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("GET %s: status %d: %s", e.URL, e.StatusCode, e.Body)
}
