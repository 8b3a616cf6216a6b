package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gcssytemsuser/socialai-backend/internal/dispatch"
	"github.com/gcssytemsuser/socialai-backend/internal/models"
	"github.com/gcssytemsuser/socialai-backend/internal/planner"
	"github.com/gcssytemsuser/socialai-backend/internal/platforms"
	"github.com/gcssytemsuser/socialai-backend/internal/repository"
	"github.com/gcssytemsuser/socialai-backend/internal/scheduler"
	"github.com/gcssytemsuser/socialai-backend/internal/transfer"
)

const scheduleTimeLayout = "2006-01-02T15:04"

type PostService interface {
	CreatePost(ctx context.Context, userID int64, pc *transfer.PostCreation) (int64, time.Duration, bool, error)
	List(ctx context.Context, userID int64) ([]*models.Post, error)
	PostInfo(ctx context.Context, postID, userID int64) (*models.Post, error)
	Remove(ctx context.Context, userID, postID int64) error
	Schedule(ctx context.Context, userID int64, req *transfer.ScheduleRequest) (time.Time, time.Duration, error)
	Unschedule(ctx context.Context, userID, postID int64) error
	PublishNow(ctx context.Context, userID, postID int64) (string, map[string]dispatch.Result, error)
	History(ctx context.Context, userID int64) ([]*models.PostingHistory, error)
}

type postService struct {
	db    *sql.DB
	pr    repository.PostRepository
	pp    repository.PlatformPostRepository
	ph    repository.PostingHistoryRepository
	sched *scheduler.Scheduler
}

func NewPostService(
	db *sql.DB,
	pr repository.PostRepository,
	pp repository.PlatformPostRepository,
	ph repository.PostingHistoryRepository,
	sched *scheduler.Scheduler) PostService {
	return &postService{
		db:    db,
		pr:    pr,
		pp:    pp,
		ph:    ph,
		sched: sched,
	}
}

// CreatePost stores a post plus one platform_posts row per target. Returns
// the delay until its scheduled time and whether it was scheduled at all,
// so the handler can enqueue the fast-path dispatch task.
func (s *postService) CreatePost(ctx context.Context, userID int64, pc *transfer.PostCreation) (int64, time.Duration, bool, error) {
	if pc == nil {
		err := errors.New("post creation data is nil")
		slog.Error(err.Error())
		return 0, 0, false, err
	}
	if pc.Caption == "" {
		err := errors.New("caption cannot be empty")
		slog.Info(err.Error())
		return 0, 0, false, err
	}
	if len(pc.Platforms) == 0 {
		err := errors.New("no target platforms selected")
		slog.Info(err.Error())
		return 0, 0, false, err
	}

	targets, err := parseTargets(pc.Platforms)
	if err != nil {
		slog.Info(err.Error())
		return 0, 0, false, err
	}

	now := time.Now()
	status := models.PostStatusDraft
	var scheduledAt sql.NullTime

	switch {
	case pc.Auto:
		scheduledAt = sql.NullTime{Time: planner.BestTime(targets, now), Valid: true}
		status = models.PostStatusScheduled
	case pc.ScheduledAt != "":
		at, err := parseFutureTime(pc.ScheduledAt, now)
		if err != nil {
			slog.Info(err.Error())
			return 0, 0, false, err
		}
		scheduledAt = sql.NullTime{Time: at, Valid: true}
		status = models.PostStatusScheduled
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, 0, false, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		}
	}()

	post := models.Post{
		UserID:      userID,
		Caption:     pc.Caption,
		Title:       pc.Title,
		MediaURLs:   pc.MediaURLs,
		ScheduledAt: scheduledAt,
		Status:      status,
	}

	postID, err := s.pr.Create(ctx, tx, &post)
	if err != nil {
		return 0, 0, false, fmt.Errorf("error creating post: %w", err)
	}

	for _, target := range targets {
		platformPost := models.PlatformPost{
			PostID:   postID,
			Platform: string(target),
			Content:  pc.Overrides[string(target)],
		}
		if _, err = s.pp.Create(ctx, tx, &platformPost); err != nil {
			return 0, 0, false, fmt.Errorf("error creating platform post for %s: %w", target, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, 0, false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if !scheduledAt.Valid {
		return postID, 0, false, nil
	}

	delay := time.Until(scheduledAt.Time)
	if delay < 0 {
		delay = 0
	}
	return postID, delay, true, nil
}

// Schedule moves a draft (or re-slots a scheduled post) to a future instant,
// either explicit or planner-chosen across the post's targets.
func (s *postService) Schedule(ctx context.Context, userID int64, req *transfer.ScheduleRequest) (time.Time, time.Duration, error) {
	if err := s.checkOwnership(ctx, req.PostID, userID); err != nil {
		return time.Time{}, 0, err
	}

	now := time.Now()
	var at time.Time

	if req.Auto {
		pps, err := s.pp.ListByPostID(ctx, req.PostID)
		if err != nil {
			return time.Time{}, 0, fmt.Errorf("error loading platform posts: %w", err)
		}
		names := make([]string, 0, len(pps))
		for _, pp := range pps {
			names = append(names, pp.Platform)
		}
		targets, err := parseTargets(names)
		if err != nil {
			slog.Info(err.Error())
			return time.Time{}, 0, err
		}
		at = planner.BestTime(targets, now)
	} else {
		parsed, err := parseFutureTime(req.ScheduledAt, now)
		if err != nil {
			slog.Info(err.Error())
			return time.Time{}, 0, err
		}
		at = parsed
	}

	if err := s.pr.SetSchedule(ctx, req.PostID, at); err != nil {
		return time.Time{}, 0, err
	}

	delay := time.Until(at)
	if delay < 0 {
		delay = 0
	}
	return at, delay, nil
}

func (s *postService) Unschedule(ctx context.Context, userID, postID int64) error {
	if err := s.checkOwnership(ctx, postID, userID); err != nil {
		return err
	}
	return s.pr.Unschedule(ctx, postID)
}

// PublishNow runs the post through the same dispatcher and aggregation rule
// as the timer path, synchronously.
func (s *postService) PublishNow(ctx context.Context, userID, postID int64) (string, map[string]dispatch.Result, error) {
	if err := s.checkOwnership(ctx, postID, userID); err != nil {
		return "", nil, err
	}

	results, err := s.sched.PublishNow(ctx, postID)
	if err != nil {
		return "", nil, err
	}

	return dispatch.Aggregate(results), results, nil
}

func (s *postService) PostInfo(ctx context.Context, postID, userID int64) (*models.Post, error) {
	if err := s.checkOwnership(ctx, postID, userID); err != nil {
		return nil, err
	}

	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("error getting post info")
	}
	return post, nil
}

func (s *postService) List(ctx context.Context, userID int64) ([]*models.Post, error) {
	posts, err := s.pr.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing posts")
	}
	return posts, nil
}

func (s *postService) Remove(ctx context.Context, userID, postID int64) error {
	if err := s.checkOwnership(ctx, postID, userID); err != nil {
		return err
	}
	if err := s.pr.Remove(ctx, postID); err != nil {
		return fmt.Errorf("error removing post")
	}
	return nil
}

func (s *postService) History(ctx context.Context, userID int64) ([]*models.PostingHistory, error) {
	history, err := s.ph.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing posting history")
	}
	return history, nil
}

func (s *postService) checkOwnership(ctx context.Context, postID, userID int64) error {
	if userID == 0 {
		err := errors.New("user is not valid")
		slog.Info(err.Error())
		return err
	}
	if postID == 0 {
		err := errors.New("post id is not valid")
		slog.Info(err.Error())
		return err
	}

	isValid, err := s.pr.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return err
	}
	if !isValid {
		err = errors.New("post doesn't exist")
		slog.Info(err.Error())
		return err
	}
	return nil
}

func parseTargets(names []string) ([]platforms.Platform, error) {
	seen := make(map[platforms.Platform]bool, len(names))
	targets := make([]platforms.Platform, 0, len(names))
	for _, name := range names {
		p, err := platforms.Parse(name)
		if err != nil {
			return nil, err
		}
		if seen[p] {
			return nil, fmt.Errorf("duplicate platform %q", name)
		}
		seen[p] = true
		targets = append(targets, p)
	}
	return targets, nil
}

func parseFutureTime(value string, now time.Time) (time.Time, error) {
	at, err := time.Parse(scheduleTimeLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid scheduled time format: %w", err)
	}
	if !at.After(now) {
		return time.Time{}, errors.New("scheduled time must be in the future")
	}
	return at, nil
}
