package models

const (
	PostStatusDraft      = "draft"
	PostStatusScheduled  = "scheduled"
	PostStatusProcessing = "processing"
	PostStatusPublished  = "published"
	PostStatusPartial    = "partial"
	PostStatusFailed     = "failed"
)

const (
	PlatformPostStatusPending   = "pending"
	PlatformPostStatusPublished = "published"
	PlatformPostStatusFailed    = "failed"
)

// postTransitions holds the legal post status transitions. "publish now"
// jumps draft|scheduled straight to processing before dispatch, so both are
// listed as sources for processing.
var postTransitions = map[string]map[string]bool{
	PostStatusDraft: {
		PostStatusScheduled:  true,
		PostStatusProcessing: true,
	},
	PostStatusScheduled: {
		PostStatusDraft:      true,
		PostStatusScheduled:  true,
		PostStatusProcessing: true,
	},
	PostStatusProcessing: {
		PostStatusPublished: true,
		PostStatusPartial:   true,
		PostStatusFailed:    true,
		// stale-claim recovery sweep only
		PostStatusScheduled: true,
	},
}

func CanTransition(from, to string) bool {
	return postTransitions[from][to]
}

// IsTerminal reports whether the automated pipeline may still move a post out
// of the given status. published/partial/failed are final for the engine; a
// failed post needs an explicit re-schedule or re-publish from outside.
func IsTerminal(status string) bool {
	switch status {
	case PostStatusPublished, PostStatusPartial, PostStatusFailed:
		return true
	}
	return false
}

// IsDispatchable reports whether a post may be handed to the dispatcher via
// the "publish now" trigger.
func IsDispatchable(status string) bool {
	return status == PostStatusDraft || status == PostStatusScheduled
}
