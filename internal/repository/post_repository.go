package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/gcssytemsuser/socialai-backend/internal/models"
	"github.com/lib/pq"
)

type PostRepository interface {
	Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	GetByUserID(ctx context.Context, userID int64) ([]*models.Post, error)
	CheckByUserID(ctx context.Context, postID, userID int64) (bool, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]*models.Post, error)
	Claim(ctx context.Context, postID int64, now time.Time) (bool, error)
	ClaimForPublish(ctx context.Context, postID int64, now time.Time) (bool, error)
	Finalize(ctx context.Context, postID int64, status string, publishedAt sql.NullTime) error
	SetSchedule(ctx context.Context, postID int64, scheduledAt time.Time) error
	Unschedule(ctx context.Context, postID int64) error
	ResetStaleProcessing(ctx context.Context, olderThan time.Time) (int64, error)
	Remove(ctx context.Context, id int64) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, user_id, caption, title, media_urls, scheduled_at, published_at, status, created_at, updated_at`

func scanPost(row interface{ Scan(...interface{}) error }) (*models.Post, error) {
	var post models.Post
	err := row.Scan(&post.ID, &post.UserID, &post.Caption, &post.Title, pq.Array(&post.MediaURLs),
		&post.ScheduledAt, &post.PublishedAt, &post.Status, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	query := `
		INSERT INTO posts (user_id, caption, title, media_urls, scheduled_at, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id int64
	var err error

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, post.UserID, post.Caption, post.Title, pq.Array(post.MediaURLs), post.ScheduledAt, post.Status).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, post.UserID, post.Caption, post.Title, pq.Array(post.MediaURLs), post.ScheduledAt, post.Status).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

func (r *postRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (r *postRepository) CheckByUserID(ctx context.Context, postID, userID int64) (bool, error) {
	query := `SELECT 1 FROM posts WHERE id = $1 AND user_id = $2`

	var result int
	err := r.db.QueryRowContext(ctx, query, postID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

// ListDue returns scheduled posts whose time has arrived, oldest first. Posts
// already claimed by an in-flight tick carry status processing and are
// invisible here.
func (r *postRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts
		WHERE status = $1 AND scheduled_at <= $2
		ORDER BY scheduled_at ASC
		LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, models.PostStatusScheduled, now, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// Claim flips a due post from scheduled to processing. The conditional update
// is the mutual-exclusion marker: whoever gets rows affected = 1 owns the
// dispatch, everyone else backs off.
func (r *postRepository) Claim(ctx context.Context, postID int64, now time.Time) (bool, error) {
	query := `
		UPDATE posts
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4 AND scheduled_at <= $2
	`
	result, err := r.db.ExecContext(ctx, query, models.PostStatusProcessing, now, postID, models.PostStatusScheduled)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}

// ClaimForPublish is the "publish now" variant of Claim: draft or scheduled
// posts are eligible regardless of scheduled_at.
func (r *postRepository) ClaimForPublish(ctx context.Context, postID int64, now time.Time) (bool, error) {
	query := `
		UPDATE posts
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status IN ($4, $5)
	`
	result, err := r.db.ExecContext(ctx, query, models.PostStatusProcessing, now, postID, models.PostStatusDraft, models.PostStatusScheduled)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}

// Finalize lands a claimed post in its terminal status. Terminal posts carry
// no scheduled_at, only a published_at when anything went out.
func (r *postRepository) Finalize(ctx context.Context, postID int64, status string, publishedAt sql.NullTime) error {
	query := `
		UPDATE posts
		SET status = $1, published_at = $2, scheduled_at = NULL, updated_at = $3
		WHERE id = $4 AND status = $5
	`
	_, err := r.db.ExecContext(ctx, query, status, publishedAt, time.Now(), postID, models.PostStatusProcessing)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) SetSchedule(ctx context.Context, postID int64, scheduledAt time.Time) error {
	query := `
		UPDATE posts
		SET status = $1, scheduled_at = $2, updated_at = $3
		WHERE id = $4 AND status IN ($5, $6)
	`
	result, err := r.db.ExecContext(ctx, query, models.PostStatusScheduled, scheduledAt, time.Now(), postID, models.PostStatusDraft, models.PostStatusScheduled)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected != 1 {
		return ErrNotSchedulable
	}
	return nil
}

func (r *postRepository) Unschedule(ctx context.Context, postID int64) error {
	query := `
		UPDATE posts
		SET status = $1, scheduled_at = NULL, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	result, err := r.db.ExecContext(ctx, query, models.PostStatusDraft, time.Now(), postID, models.PostStatusScheduled)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected != 1 {
		return ErrNotSchedulable
	}
	return nil
}

// ResetStaleProcessing returns posts stuck in processing past the staleness
// cutoff to scheduled so the next tick retries them. Covers claims orphaned
// by a crash between claim and finalize. A post claimed from draft
// (publish-now) has no scheduled_at to go back to and would be invisible to
// the due selector, so it lands failed instead.
func (r *postRepository) ResetStaleProcessing(ctx context.Context, olderThan time.Time) (int64, error) {
	query := `
		UPDATE posts
		SET status = CASE WHEN scheduled_at IS NULL THEN $1 ELSE $2 END, updated_at = $3
		WHERE status = $4 AND updated_at < $5
	`
	result, err := r.db.ExecContext(ctx, query, models.PostStatusFailed, models.PostStatusScheduled, time.Now(), models.PostStatusProcessing, olderThan)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return result.RowsAffected()
}

func (r *postRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM posts WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
