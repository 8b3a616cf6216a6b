package scheduler

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gcssytemsuser/socialai-backend/internal/dispatch"
	"github.com/gcssytemsuser/socialai-backend/internal/models"
	"github.com/gcssytemsuser/socialai-backend/internal/repository"
	"github.com/robfig/cron"
)

// Clock supplies the current time so tests can drive virtual ticks.
type Clock func() time.Time

const (
	defaultTickSpec  = "@every 0h1m0s"
	defaultBatchSize = 10
)

// Scheduler is the timer-driven loop that finds due posts, claims them and
// runs the dispatcher over each. One tick at a time: an overlapping timer
// fire is skipped, never run concurrently over the same post set.
type Scheduler struct {
	pr         repository.PostRepository
	dispatcher *dispatch.Dispatcher
	clock      Clock
	tickSpec   string
	batchSize  int

	c        *cron.Cron
	inFlight atomic.Bool
}

func New(pr repository.PostRepository, dispatcher *dispatch.Dispatcher, clock Clock) *Scheduler {
	if clock == nil {
		clock = time.Now
	}
	return &Scheduler{
		pr:         pr,
		dispatcher: dispatcher,
		clock:      clock,
		tickSpec:   defaultTickSpec,
		batchSize:  defaultBatchSize,
	}
}

// Start registers the tick on its cadence and begins firing. Safe to call
// once; Stop ends the cadence without interrupting a tick already running.
func (s *Scheduler) Start() error {
	if s.c != nil {
		return nil
	}

	c := cron.New()
	if err := c.AddFunc(s.tickSpec, func() {
		if err := s.RunTick(context.Background()); err != nil {
			slog.Error("scheduler tick failed", "error", err.Error())
		}
	}); err != nil {
		return fmt.Errorf("error registering scheduler tick: %w", err)
	}

	c.Start()
	s.c = c
	slog.Info("scheduler started", "cadence", s.tickSpec)
	return nil
}

func (s *Scheduler) Stop() {
	if s.c != nil {
		s.c.Stop()
		s.c = nil
	}
}

// RunTick performs one scan-and-dispatch pass. A post's failure is contained
// to that post; a store failure ends the tick early and the next tick
// naturally retries since unclaimed posts stay scheduled.
func (s *Scheduler) RunTick(ctx context.Context) error {
	if !s.inFlight.CompareAndSwap(false, true) {
		slog.Info("previous tick still running, skipping")
		return nil
	}
	defer s.inFlight.Store(false)

	now := s.clock()
	posts, err := s.pr.ListDue(ctx, now, s.batchSize)
	if err != nil {
		return fmt.Errorf("error selecting due posts: %w", err)
	}
	if len(posts) == 0 {
		return nil
	}

	slog.Info("processing due posts", "count", len(posts))

	for _, post := range posts {
		if err := s.ProcessPost(ctx, post.ID); err != nil {
			log.Printf("error processing post %d: %v", post.ID, err)
		}
	}
	return nil
}

// ProcessPost claims one due post and runs it to completion. It is the
// shared entry for the tick and the delayed-task fast path: the conditional
// claim makes a second caller a harmless no-op.
func (s *Scheduler) ProcessPost(ctx context.Context, postID int64) error {
	claimed, err := s.pr.Claim(ctx, postID, s.clock())
	if err != nil {
		return err
	}
	if !claimed {
		// already claimed, no longer due, or gone
		return nil
	}

	return s.runClaimed(ctx, postID)
}

// PublishNow bypasses the timer: it claims a draft or scheduled post
// immediately and dispatches it synchronously with the same aggregation
// rule. Returns the per-platform outcomes for the caller to surface.
func (s *Scheduler) PublishNow(ctx context.Context, postID int64) (map[string]dispatch.Result, error) {
	claimed, err := s.pr.ClaimForPublish(ctx, postID, s.clock())
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, ErrNotPublishable
	}

	results, err := s.dispatchClaimed(ctx, postID)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// runClaimed owns a post already flipped to processing and guarantees it
// ends the call in a terminal status, even on panic.
func (s *Scheduler) runClaimed(ctx context.Context, postID int64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("panic while processing post %d: %v", postID, r)
			s.finalize(ctx, postID, models.PostStatusFailed)
			err = fmt.Errorf("panic while processing post %d: %v", postID, r)
		}
	}()

	_, err = s.dispatchClaimed(ctx, postID)
	return err
}

func (s *Scheduler) dispatchClaimed(ctx context.Context, postID int64) (map[string]dispatch.Result, error) {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		s.finalize(ctx, postID, models.PostStatusFailed)
		return nil, fmt.Errorf("error loading claimed post %d: %w", postID, err)
	}
	if post == nil {
		s.finalize(ctx, postID, models.PostStatusFailed)
		return nil, fmt.Errorf("claimed post %d no longer exists", postID)
	}

	results, err := s.dispatcher.Dispatch(ctx, post)
	if err != nil {
		// nothing was attempted, no per-platform result exists
		s.finalize(ctx, postID, models.PostStatusFailed)
		return nil, err
	}

	s.finalize(ctx, postID, dispatch.Aggregate(results))
	return results, nil
}

func (s *Scheduler) finalize(ctx context.Context, postID int64, status string) {
	var publishedAt sql.NullTime
	if status == models.PostStatusPublished || status == models.PostStatusPartial {
		publishedAt = sql.NullTime{Time: s.clock(), Valid: true}
	}

	if err := s.pr.Finalize(ctx, postID, status, publishedAt); err != nil {
		log.Printf("error finalizing post %d as %s: %v", postID, status, err)
	}
}
