package platforms

import "fmt"

// APIError carries the remote service's error payload so it can be surfaced
// in the per-platform error message.
type APIError struct {
	Platform   Platform
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api error (status %d): %s", e.Platform, e.StatusCode, e.Body)
}

// PreconditionError marks an attempt the adapter refused to make because a
// platform-specific content requirement was unmet. Counted as a failure for
// aggregation but distinguishable by its message.
type PreconditionError struct {
	Platform Platform
	Reason   string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: skipped: %s", e.Platform, e.Reason)
}
