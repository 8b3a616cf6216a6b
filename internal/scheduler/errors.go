package scheduler

import "errors"

// ErrNotPublishable is returned by PublishNow when the post is missing,
// already being processed, or already in a terminal status.
var ErrNotPublishable = errors.New("post cannot be published from its current status")
