package dispatch

import "github.com/gcssytemsuser/socialai-backend/internal/models"

// Aggregate folds per-platform outcomes into the post's final status:
// every platform succeeded -> published, at least one -> partial,
// none (including an empty outcome set) -> failed.
func Aggregate(results map[string]Result) string {
	if len(results) == 0 {
		return models.PostStatusFailed
	}

	allSuccess := true
	anySuccess := false
	for _, res := range results {
		if res.Success {
			anySuccess = true
		} else {
			allSuccess = false
		}
	}

	switch {
	case allSuccess:
		return models.PostStatusPublished
	case anySuccess:
		return models.PostStatusPartial
	default:
		return models.PostStatusFailed
	}
}
