package gateway

import "fmt"

// TransientError is surfaced only after the retry budget for a request is
// exhausted. The underlying cause was retryable (network failure, 5xx,
// secondary rate limit).
type TransientError struct {
	Path     string
	Attempts int
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("fetching %s failed after %d attempts: %v", e.Path, e.Attempts, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError is surfaced immediately, without retrying: a 4xx other than
// rate limiting, or a malformed payload. It aborts the fetch for that item
// but must not abort the whole run.
type PermanentError struct {
	Path       string
	StatusCode int
	Err        error
}

func (e *PermanentError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: permanent failure (status %d): %v", e.Path, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetching %s: permanent failure: %v", e.Path, e.Err)
}

func (e *PermanentError) Unwrap() error { return e.Err }
