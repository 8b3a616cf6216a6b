package job

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gcssytemsuser/socialai-backend/internal/models"
)

type sweepRecorder struct {
	calls   int
	cutoffs []time.Time
}

func (r *sweepRecorder) ResetStaleProcessing(ctx context.Context, olderThan time.Time) (int64, error) {
	r.calls++
	r.cutoffs = append(r.cutoffs, olderThan)
	return 1, nil
}

func (r *sweepRecorder) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	return 0, nil
}
func (r *sweepRecorder) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	return nil, nil
}
func (r *sweepRecorder) GetByUserID(ctx context.Context, userID int64) ([]*models.Post, error) {
	return nil, nil
}
func (r *sweepRecorder) CheckByUserID(ctx context.Context, postID, userID int64) (bool, error) {
	return false, nil
}
func (r *sweepRecorder) ListDue(ctx context.Context, now time.Time, limit int) ([]*models.Post, error) {
	return nil, nil
}
func (r *sweepRecorder) Claim(ctx context.Context, postID int64, now time.Time) (bool, error) {
	return false, nil
}
func (r *sweepRecorder) ClaimForPublish(ctx context.Context, postID int64, now time.Time) (bool, error) {
	return false, nil
}
func (r *sweepRecorder) Finalize(ctx context.Context, postID int64, status string, publishedAt sql.NullTime) error {
	return nil
}
func (r *sweepRecorder) SetSchedule(ctx context.Context, postID int64, scheduledAt time.Time) error {
	return nil
}
func (r *sweepRecorder) Unschedule(ctx context.Context, postID int64) error {
	return nil
}
func (r *sweepRecorder) Remove(ctx context.Context, id int64) error {
	return nil
}

func TestSweepUsesStalenessCutoff(t *testing.T) {
	recorder := &sweepRecorder{}
	sweep := NewStaleSweepJob(recorder, 15*time.Minute)

	before := time.Now().Add(-15 * time.Minute)
	sweep.Sweep()
	after := time.Now().Add(-15 * time.Minute)

	assert.Equal(t, 1, recorder.calls)
	cutoff := recorder.cutoffs[0]
	assert.False(t, cutoff.Before(before))
	assert.False(t, cutoff.After(after))
}

func TestSweepDefaultsStaleness(t *testing.T) {
	recorder := &sweepRecorder{}
	sweep := NewStaleSweepJob(recorder, 0)

	sweep.Sweep()

	assert.Equal(t, 1, recorder.calls)
	cutoff := recorder.cutoffs[0]
	assert.WithinDuration(t, time.Now().Add(-15*time.Minute), cutoff, 5*time.Second)
}
