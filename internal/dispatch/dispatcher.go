package dispatch

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gcssytemsuser/socialai-backend/internal/models"
	"github.com/gcssytemsuser/socialai-backend/internal/platforms"
	"github.com/gcssytemsuser/socialai-backend/internal/repository"
	"github.com/gcssytemsuser/socialai-backend/pkg/utils"
)

// Result is the per-platform outcome of one dispatch attempt.
type Result struct {
	Success    bool
	ExternalID string
	Error      string
}

// Dispatcher fans one post out across its target platforms. Platforms run
// concurrently since they mutate disjoint platform_posts rows; the parent
// post's status is never touched here, that is the caller's single-writer
// responsibility once all outcomes are in.
type Dispatcher struct {
	pp        repository.PlatformPostRepository
	ac        repository.SocialAccountRepository
	ph        repository.PostingHistoryRepository
	registry  *platforms.Registry
	secretKey string
	timeout   time.Duration
}

func NewDispatcher(
	pp repository.PlatformPostRepository,
	ac repository.SocialAccountRepository,
	ph repository.PostingHistoryRepository,
	registry *platforms.Registry,
	secretKey string,
	timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Dispatcher{
		pp:        pp,
		ac:        ac,
		ph:        ph,
		registry:  registry,
		secretKey: secretKey,
		timeout:   timeout,
	}
}

// Dispatch attempts every platform row of the post and returns the outcome
// map keyed by platform name. A platform's failure never aborts the others;
// the only error returned is the inability to load the rows at all.
func (d *Dispatcher) Dispatch(ctx context.Context, post *models.Post) (map[string]Result, error) {
	pps, err := d.pp.ListByPostID(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("error loading platform posts for post %d: %w", post.ID, err)
	}

	results := make(map[string]Result, len(pps))

	var mu sync.Mutex
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, 4) // concurrency limit across platforms

	for _, pp := range pps {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(pp *models.PlatformPost) {
			defer wg.Done()
			defer func() { <-semaphore }()

			res := d.dispatchOne(ctx, post, pp)

			mu.Lock()
			results[pp.Platform] = res
			mu.Unlock()
		}(pp)
	}

	wg.Wait()
	return results, nil
}

// dispatchOne runs a single platform attempt end to end: account resolution,
// content fallback, adapter call, outcome persistence. Panics are contained
// here so one platform can never take down the rest of the fan-out.
func (d *Dispatcher) dispatchOne(ctx context.Context, post *models.Post, pp *models.PlatformPost) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("panic dispatching post %d to %s: %v", post.ID, pp.Platform, r)
			res = d.recordFailure(ctx, post, pp, nil, fmt.Sprintf("unexpected error: %v", r))
		}
	}()

	account, err := d.ac.FindActive(ctx, post.UserID, pp.Platform)
	if err != nil {
		return d.recordFailure(ctx, post, pp, nil, fmt.Sprintf("account lookup failed: %v", err))
	}
	if account == nil {
		return d.recordFailure(ctx, post, pp, nil, "no connected account")
	}

	accessToken, err := utils.Decrypt(account.AccessToken, []byte(d.secretKey))
	if err != nil {
		return d.recordFailure(ctx, post, pp, account, fmt.Sprintf("invalid credential: %v", err))
	}

	publisher, ok := d.registry.Lookup(platforms.Platform(pp.Platform))
	if !ok {
		return d.recordFailure(ctx, post, pp, account, fmt.Sprintf("unsupported platform %q", pp.Platform))
	}

	content := pp.Content
	if content == "" {
		content = post.Caption
	}

	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	result, err := publisher.Publish(callCtx, accessToken, account.AccountID, content, post.MediaURLs)
	if err != nil {
		return d.recordFailure(ctx, post, pp, account, err.Error())
	}

	return d.recordSuccess(ctx, post, pp, account, result.ExternalID)
}

func (d *Dispatcher) recordSuccess(ctx context.Context, post *models.Post, pp *models.PlatformPost, account *models.SocialAccount, externalID string) Result {
	if err := d.pp.MarkPublished(ctx, pp.ID, externalID); err != nil {
		log.Printf("error saving outcome for post %d platform %s: %v", post.ID, pp.Platform, err)
	}

	d.writeHistory(ctx, post, pp, account, externalID, "")
	return Result{Success: true, ExternalID: externalID}
}

func (d *Dispatcher) recordFailure(ctx context.Context, post *models.Post, pp *models.PlatformPost, account *models.SocialAccount, errorMessage string) Result {
	log.Printf("error posting to %s for post %d: %s", pp.Platform, post.ID, errorMessage)

	if err := d.pp.MarkFailed(ctx, pp.ID, errorMessage); err != nil {
		log.Printf("error saving outcome for post %d platform %s: %v", post.ID, pp.Platform, err)
	}

	d.writeHistory(ctx, post, pp, account, "", errorMessage)
	return Result{Success: false, Error: errorMessage}
}

func (d *Dispatcher) writeHistory(ctx context.Context, post *models.Post, pp *models.PlatformPost, account *models.SocialAccount, externalID, errorMessage string) {
	history := models.PostingHistory{
		UserID:       post.UserID,
		PostID:       post.ID,
		Platform:     pp.Platform,
		ExternalID:   externalID,
		ErrorMessage: errorMessage,
	}
	if account != nil {
		history.AccountID = account.ID
	}

	if _, err := d.ph.Create(ctx, &history); err != nil {
		log.Printf("error saving posting history for post %d: %v", post.ID, err)
	}
}
