package repository

import "errors"

// ErrNotSchedulable is returned by conditional schedule updates when the post
// is missing or its current status forbids the transition.
var ErrNotSchedulable = errors.New("post is not in a schedulable state")
