package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/gcssytemsuser/socialai-backend/internal/repository"
)

// StaleSweepJob recovers posts orphaned in processing by a crash between
// claim and finalize. Scheduled claims go back to scheduled so the next tick
// retries them; publish-now claims from draft have no schedule to return to
// and land failed.
type StaleSweepJob struct {
	pr        repository.PostRepository
	staleness time.Duration
}

func NewStaleSweepJob(pr repository.PostRepository, staleness time.Duration) *StaleSweepJob {
	if staleness <= 0 {
		staleness = 15 * time.Minute
	}
	return &StaleSweepJob{pr: pr, staleness: staleness}
}

func (j *StaleSweepJob) Sweep() {
	ctx := context.Background()

	cutoff := time.Now().Add(-j.staleness)
	count, err := j.pr.ResetStaleProcessing(ctx, cutoff)
	if err != nil {
		slog.Info(err.Error())
		return
	}
	if count > 0 {
		slog.Info("reset stale processing posts", "count", count)
	}
}
