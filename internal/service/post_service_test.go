package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcssytemsuser/socialai-backend/internal/models"
	"github.com/gcssytemsuser/socialai-backend/internal/transfer"
)

type fakePostRepo struct {
	mu     sync.Mutex
	nextID int64
	posts  map[int64]*models.Post

	scheduledID int64
	scheduledAt time.Time
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[int64]*models.Post)}
}

func (f *fakePostRepo) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	copied := *post
	copied.ID = f.nextID
	f.posts[copied.ID] = &copied
	return copied.ID, nil
}

func (f *fakePostRepo) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	post, ok := f.posts[id]
	if !ok {
		return nil, nil
	}
	copied := *post
	return &copied, nil
}

func (f *fakePostRepo) GetByUserID(ctx context.Context, userID int64) ([]*models.Post, error) {
	return nil, nil
}

func (f *fakePostRepo) CheckByUserID(ctx context.Context, postID, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	post, ok := f.posts[postID]
	return ok && post.UserID == userID, nil
}

func (f *fakePostRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]*models.Post, error) {
	return nil, nil
}

func (f *fakePostRepo) Claim(ctx context.Context, postID int64, now time.Time) (bool, error) {
	return false, nil
}

func (f *fakePostRepo) ClaimForPublish(ctx context.Context, postID int64, now time.Time) (bool, error) {
	return false, nil
}

func (f *fakePostRepo) Finalize(ctx context.Context, postID int64, status string, publishedAt sql.NullTime) error {
	return nil
}

func (f *fakePostRepo) SetSchedule(ctx context.Context, postID int64, scheduledAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduledID = postID
	f.scheduledAt = scheduledAt
	return nil
}

func (f *fakePostRepo) Unschedule(ctx context.Context, postID int64) error {
	return nil
}

func (f *fakePostRepo) ResetStaleProcessing(ctx context.Context, olderThan time.Time) (int64, error) {
	return 0, nil
}

func (f *fakePostRepo) Remove(ctx context.Context, id int64) error {
	return nil
}

func (f *fakePostRepo) get(t *testing.T, id int64) *models.Post {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	post, ok := f.posts[id]
	require.True(t, ok)
	copied := *post
	return &copied
}

type fakePlatformPostRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   []*models.PlatformPost
	failOn string
}

func (f *fakePlatformPostRepo) Create(ctx context.Context, tx *sql.Tx, pp *models.PlatformPost) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn != "" && pp.Platform == f.failOn {
		return 0, sql.ErrConnDone
	}
	f.nextID++
	copied := *pp
	copied.ID = f.nextID
	f.rows = append(f.rows, &copied)
	return copied.ID, nil
}

func (f *fakePlatformPostRepo) ListByPostID(ctx context.Context, postID int64) ([]*models.PlatformPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var pps []*models.PlatformPost
	for _, row := range f.rows {
		if row.PostID == postID {
			copied := *row
			pps = append(pps, &copied)
		}
	}
	return pps, nil
}

func (f *fakePlatformPostRepo) MarkPublished(ctx context.Context, id int64, externalID string) error {
	return nil
}

func (f *fakePlatformPostRepo) MarkFailed(ctx context.Context, id int64, errorMessage string) error {
	return nil
}

func (f *fakePlatformPostRepo) contentFor(postID int64, platform string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.PostID == postID && row.Platform == platform {
			return row.Content, true
		}
	}
	return "", false
}

type fakeHistoryRepo struct{}

func (f *fakeHistoryRepo) Create(ctx context.Context, ph *models.PostingHistory) (int64, error) {
	return 0, nil
}

func (f *fakeHistoryRepo) GetByUserID(ctx context.Context, userID int64) ([]*models.PostingHistory, error) {
	return nil, nil
}

func (f *fakeHistoryRepo) ListByPostID(ctx context.Context, postID int64) ([]*models.PostingHistory, error) {
	return nil, nil
}

type serviceFixture struct {
	db   *sql.DB
	mock sqlmock.Sqlmock
	pr   *fakePostRepo
	pp   *fakePlatformPostRepo
	svc  PostService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	pr := newFakePostRepo()
	pp := &fakePlatformPostRepo{}
	return &serviceFixture{
		db:   db,
		mock: mock,
		pr:   pr,
		pp:   pp,
		svc:  NewPostService(db, pr, pp, &fakeHistoryRepo{}, nil),
	}
}

func TestCreatePostWritesOneRowPerTarget(t *testing.T) {
	f := newServiceFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	pc := &transfer.PostCreation{
		Caption:   "launch day",
		Platforms: []string{"twitter", "linkedin"},
		Overrides: map[string]string{"linkedin": "we are live, professionally"},
	}

	postID, delay, scheduled, err := f.svc.CreatePost(context.Background(), 7, pc)
	require.NoError(t, err)
	assert.False(t, scheduled)
	assert.Zero(t, delay)

	post := f.pr.get(t, postID)
	assert.Equal(t, models.PostStatusDraft, post.Status)
	assert.False(t, post.ScheduledAt.Valid)

	tw, ok := f.pp.contentFor(postID, "twitter")
	require.True(t, ok)
	assert.Empty(t, tw, "no override means fall back to the caption at dispatch")

	li, ok := f.pp.contentFor(postID, "linkedin")
	require.True(t, ok)
	assert.Equal(t, "we are live, professionally", li)

	_, extra := f.pp.contentFor(postID, "facebook")
	assert.False(t, extra, "only the requested targets get a row")

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCreatePostRollsBackWhenATargetRowFails(t *testing.T) {
	f := newServiceFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	f.pp.failOn = "linkedin"
	pc := &transfer.PostCreation{
		Caption:   "launch day",
		Platforms: []string{"twitter", "linkedin"},
	}

	_, _, _, err := f.svc.CreatePost(context.Background(), 7, pc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "linkedin")

	assert.NoError(t, f.mock.ExpectationsWereMet(), "a failed target must roll the transaction back")
}

func TestCreatePostRejectsBadInput(t *testing.T) {
	f := newServiceFixture(t)

	// none of these reach the transaction
	_, _, _, err := f.svc.CreatePost(context.Background(), 7, &transfer.PostCreation{
		Platforms: []string{"twitter"},
	})
	assert.ErrorContains(t, err, "caption")

	_, _, _, err = f.svc.CreatePost(context.Background(), 7, &transfer.PostCreation{
		Caption: "hello",
	})
	assert.ErrorContains(t, err, "platform")

	_, _, _, err = f.svc.CreatePost(context.Background(), 7, &transfer.PostCreation{
		Caption:   "hello",
		Platforms: []string{"twitter", "twitter"},
	})
	assert.ErrorContains(t, err, "duplicate")

	_, _, _, err = f.svc.CreatePost(context.Background(), 7, &transfer.PostCreation{
		Caption:     "hello",
		Platforms:   []string{"twitter"},
		ScheduledAt: "2020-01-01T10:00",
	})
	assert.ErrorContains(t, err, "future")

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCreatePostWithExplicitFutureTime(t *testing.T) {
	f := newServiceFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	at := time.Now().UTC().Add(2 * time.Hour)
	pc := &transfer.PostCreation{
		Caption:     "later",
		Platforms:   []string{"twitter"},
		ScheduledAt: at.Format(scheduleTimeLayout),
	}

	postID, delay, scheduled, err := f.svc.CreatePost(context.Background(), 7, pc)
	require.NoError(t, err)
	assert.True(t, scheduled)
	assert.Greater(t, delay, time.Duration(0))
	assert.LessOrEqual(t, delay, 2*time.Hour)

	post := f.pr.get(t, postID)
	assert.Equal(t, models.PostStatusScheduled, post.Status)
	assert.True(t, post.ScheduledAt.Valid)
}

func TestCreatePostAutoPicksAFutureSlot(t *testing.T) {
	f := newServiceFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	pc := &transfer.PostCreation{
		Caption:   "whenever is best",
		Platforms: []string{"twitter", "facebook"},
		Auto:      true,
	}

	postID, _, scheduled, err := f.svc.CreatePost(context.Background(), 7, pc)
	require.NoError(t, err)
	assert.True(t, scheduled)

	post := f.pr.get(t, postID)
	assert.Equal(t, models.PostStatusScheduled, post.Status)
	require.True(t, post.ScheduledAt.Valid)
	assert.True(t, post.ScheduledAt.Time.After(time.Now().Add(-time.Minute)))
}

func TestScheduleRequiresFutureTime(t *testing.T) {
	f := newServiceFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	postID, _, _, err := f.svc.CreatePost(context.Background(), 7, &transfer.PostCreation{
		Caption:   "draft for now",
		Platforms: []string{"twitter"},
	})
	require.NoError(t, err)

	_, _, err = f.svc.Schedule(context.Background(), 7, &transfer.ScheduleRequest{
		PostID:      postID,
		ScheduledAt: "2020-01-01T10:00",
	})
	assert.ErrorContains(t, err, "future")

	at := time.Now().UTC().Add(time.Hour)
	got, delay, err := f.svc.Schedule(context.Background(), 7, &transfer.ScheduleRequest{
		PostID:      postID,
		ScheduledAt: at.Format(scheduleTimeLayout),
	})
	require.NoError(t, err)
	assert.Greater(t, delay, time.Duration(0))
	assert.Equal(t, postID, f.pr.scheduledID)
	assert.Equal(t, got, f.pr.scheduledAt)
}

func TestScheduleChecksOwnership(t *testing.T) {
	f := newServiceFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	postID, _, _, err := f.svc.CreatePost(context.Background(), 7, &transfer.PostCreation{
		Caption:   "mine",
		Platforms: []string{"twitter"},
	})
	require.NoError(t, err)

	_, _, err = f.svc.Schedule(context.Background(), 99, &transfer.ScheduleRequest{
		PostID:      postID,
		ScheduledAt: time.Now().UTC().Add(time.Hour).Format(scheduleTimeLayout),
	})
	assert.Error(t, err)
	assert.Zero(t, f.pr.scheduledID)
}
