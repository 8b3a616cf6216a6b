package dispatch

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/gcssytemsuser/socialai-backend/configs"
	"github.com/gcssytemsuser/socialai-backend/internal/models"
	"github.com/gcssytemsuser/socialai-backend/internal/platforms"
	"github.com/gcssytemsuser/socialai-backend/pkg/utils"
)

var testSecretKey = "0123456789abcdef0123456789abcdef"

type fakePlatformPostRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*models.PlatformPost
}

func newFakePlatformPostRepo() *fakePlatformPostRepo {
	return &fakePlatformPostRepo{rows: make(map[int64]*models.PlatformPost)}
}

func (f *fakePlatformPostRepo) Create(ctx context.Context, tx *sql.Tx, pp *models.PlatformPost) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	row := *pp
	row.ID = f.nextID
	row.Status = models.PlatformPostStatusPending
	f.rows[row.ID] = &row
	return row.ID, nil
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
	f.mu.Lock()
	defer f.mu.Unlock()
	row := f.rows[id]
	row.Status = models.PlatformPostStatusPublished
	row.ExternalID = externalID
	row.ErrorMessage = ""
	return nil
}

func (f *fakePlatformPostRepo) MarkFailed(ctx context.Context, id int64, errorMessage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row := f.rows[id]
	row.Status = models.PlatformPostStatusFailed
	row.ErrorMessage = errorMessage
	return nil
}

func (f *fakePlatformPostRepo) byPlatform(postID int64, platform string) *models.PlatformPost {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.PostID == postID && row.Platform == platform {
			copied := *row
			return &copied
		}
	}
	return nil
}

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*models.SocialAccount // platform -> active account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[string]*models.SocialAccount)}
}

func (f *fakeAccountRepo) add(t *testing.T, userID int64, platform string) *models.SocialAccount {
	t.Helper()
	token, err := utils.Encrypt([]byte("opaque-token"), []byte(testSecretKey))
	require.NoError(t, err)

	f.mu.Lock()
	defer f.mu.Unlock()
	account := &models.SocialAccount{
		ID:          int64(len(f.accounts) + 1),
		UserID:      userID,
		Platform:    platform,
		AccountID:   "ext-" + platform,
		AccessToken: token,
		IsActive:    true,
	}
	f.accounts[platform] = account
	return account
}

func (f *fakeAccountRepo) Create(ctx context.Context, tx *sql.Tx, sa *models.SocialAccount) (int64, error) {
	return 0, nil
}

func (f *fakeAccountRepo) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	return nil, nil
}

func (f *fakeAccountRepo) FindActive(ctx context.Context, userID int64, platform string) (*models.SocialAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[platform]
	if !ok || account.UserID != userID {
		return nil, nil
	}
	copied := *account
	return &copied, nil
}

func (f *fakeAccountRepo) ListByUserID(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	return nil, nil
}

func (f *fakeAccountRepo) CheckByUserID(ctx context.Context, accountID, userID int64) (bool, error) {
	return false, nil
}

func (f *fakeAccountRepo) Deactivate(ctx context.Context, id int64) error {
	return nil
}

type fakeHistoryRepo struct {
	mu      sync.Mutex
	entries []*models.PostingHistory
}

func (f *fakeHistoryRepo) Create(ctx context.Context, ph *models.PostingHistory) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *ph
	f.entries = append(f.entries, &copied)
	return int64(len(f.entries)), nil
}

func (f *fakeHistoryRepo) GetByUserID(ctx context.Context, userID int64) ([]*models.PostingHistory, error) {
	return nil, nil
}

func (f *fakeHistoryRepo) ListByPostID(ctx context.Context, postID int64) ([]*models.PostingHistory, error) {
	return nil, nil
}

func (f *fakeHistoryRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

type panicPublisher struct {
	platform platforms.Platform
}

func (p *panicPublisher) Platform() platforms.Platform {
	return p.platform
}

func (p *panicPublisher) Publish(ctx context.Context, accessToken, accountID, content string, mediaURLs []string) (*platforms.PublishResult, error) {
	panic("adapter blew up")
}

type fixture struct {
	pp *fakePlatformPostRepo
	ac *fakeAccountRepo
	ph *fakeHistoryRepo
	d  *Dispatcher
}

func newFixture(registry *platforms.Registry) *fixture {
	pp := newFakePlatformPostRepo()
	ac := newFakeAccountRepo()
	ph := &fakeHistoryRepo{}
	return &fixture{
		pp: pp,
		ac: ac,
		ph: ph,
		d:  NewDispatcher(pp, ac, ph, registry, testSecretKey, time.Second),
	}
}

func sandboxRegistry() *platforms.Registry {
	return platforms.NewRegistry(config.Config{SandboxMode: true})
}

func addPlatformPost(t *testing.T, f *fixture, postID int64, platform, content string) {
	t.Helper()
	_, err := f.pp.Create(context.Background(), nil, &models.PlatformPost{
		PostID:   postID,
		Platform: platform,
		Content:  content,
	})
	require.NoError(t, err)
}

func TestDispatchAllPlatformsSucceed(t *testing.T) {
	f := newFixture(sandboxRegistry())
	post := &models.Post{ID: 1, UserID: 7, Caption: "hello world"}

	f.ac.add(t, 7, "twitter")
	f.ac.add(t, 7, "linkedin")
	addPlatformPost(t, f, post.ID, "twitter", "")
	addPlatformPost(t, f, post.ID, "linkedin", "professional hello")

	results, err := f.d.Dispatch(context.Background(), post)
	require.NoError(t, err)

	assert.Len(t, results, 2)
	assert.True(t, results["twitter"].Success)
	assert.True(t, results["linkedin"].Success)
	assert.Equal(t, models.PostStatusPublished, Aggregate(results))

	tw := f.pp.byPlatform(post.ID, "twitter")
	assert.Equal(t, models.PlatformPostStatusPublished, tw.Status)
	assert.NotEmpty(t, tw.ExternalID)

	assert.Equal(t, 2, f.ph.count())
}

func TestDispatchNoAccountIsRecordedNotRaised(t *testing.T) {
	f := newFixture(sandboxRegistry())
	post := &models.Post{ID: 2, UserID: 7, Caption: "hello"}

	addPlatformPost(t, f, post.ID, "twitter", "")

	results, err := f.d.Dispatch(context.Background(), post)
	require.NoError(t, err)

	res := results["twitter"]
	assert.False(t, res.Success)
	assert.Equal(t, "no connected account", res.Error)

	row := f.pp.byPlatform(post.ID, "twitter")
	assert.Equal(t, models.PlatformPostStatusFailed, row.Status)
	assert.Equal(t, "no connected account", row.ErrorMessage)
}

func TestDispatchPartialFailureIsIndependent(t *testing.T) {
	f := newFixture(sandboxRegistry())
	// no media: instagram refuses, twitter does not care
	post := &models.Post{ID: 3, UserID: 7, Caption: "launch day"}

	f.ac.add(t, 7, "twitter")
	f.ac.add(t, 7, "instagram")
	addPlatformPost(t, f, post.ID, "twitter", "")
	addPlatformPost(t, f, post.ID, "instagram", "")

	results, err := f.d.Dispatch(context.Background(), post)
	require.NoError(t, err)

	assert.True(t, results["twitter"].Success)
	assert.False(t, results["instagram"].Success)
	assert.Contains(t, results["instagram"].Error, "media")
	assert.Equal(t, models.PostStatusPartial, Aggregate(results))

	tw := f.pp.byPlatform(post.ID, "twitter")
	ig := f.pp.byPlatform(post.ID, "instagram")
	assert.Equal(t, models.PlatformPostStatusPublished, tw.Status)
	assert.NotEmpty(t, tw.ExternalID)
	assert.Equal(t, models.PlatformPostStatusFailed, ig.Status)
	assert.Contains(t, ig.ErrorMessage, "media")
}

func TestDispatchContainsAdapterPanic(t *testing.T) {
	registry := platforms.NewRegistryFromPublishers(
		&panicPublisher{platform: platforms.PlatformTwitter},
		platforms.NewSandboxPublisher(platforms.NewLinkedinPublisher(nil)),
	)
	f := newFixture(registry)
	post := &models.Post{ID: 4, UserID: 7, Caption: "hello"}

	f.ac.add(t, 7, "twitter")
	f.ac.add(t, 7, "linkedin")
	addPlatformPost(t, f, post.ID, "twitter", "")
	addPlatformPost(t, f, post.ID, "linkedin", "")

	results, err := f.d.Dispatch(context.Background(), post)
	require.NoError(t, err)

	assert.False(t, results["twitter"].Success)
	assert.Contains(t, results["twitter"].Error, "unexpected error")
	assert.True(t, results["linkedin"].Success)
	assert.Equal(t, models.PostStatusPartial, Aggregate(results))
}

func TestDispatchContentOverrideFallsBackToCaption(t *testing.T) {
	captured := &capturePublisher{platform: platforms.PlatformTwitter}
	f := newFixture(platforms.NewRegistryFromPublishers(captured))
	post := &models.Post{ID: 5, UserID: 7, Caption: "base caption"}

	f.ac.add(t, 7, "twitter")
	addPlatformPost(t, f, post.ID, "twitter", "")

	_, err := f.d.Dispatch(context.Background(), post)
	require.NoError(t, err)
	assert.Equal(t, "base caption", captured.lastContent)

	addPlatformPost(t, f, 6, "twitter", "override text")
	_, err = f.d.Dispatch(context.Background(), &models.Post{ID: 6, UserID: 7, Caption: "base caption"})
	require.NoError(t, err)
	assert.Equal(t, "override text", captured.lastContent)
}

type capturePublisher struct {
	platform    platforms.Platform
	mu          sync.Mutex
	lastContent string
}

func (p *capturePublisher) Platform() platforms.Platform {
	return p.platform
}

func (p *capturePublisher) Publish(ctx context.Context, accessToken, accountID, content string, mediaURLs []string) (*platforms.PublishResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastContent = content
	return &platforms.PublishResult{ExternalID: "captured"}, nil
}
