package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/gcssytemsuser/socialai-backend/internal/models"
)

type PlatformPostRepository interface {
	Create(ctx context.Context, tx *sql.Tx, pp *models.PlatformPost) (int64, error)
	ListByPostID(ctx context.Context, postID int64) ([]*models.PlatformPost, error)
	MarkPublished(ctx context.Context, id int64, externalID string) error
	MarkFailed(ctx context.Context, id int64, errorMessage string) error
}

type platformPostRepository struct {
	db *sql.DB
}

func NewPlatformPostRepository(db *sql.DB) PlatformPostRepository {
	return &platformPostRepository{db: db}
}

func (r *platformPostRepository) Create(ctx context.Context, tx *sql.Tx, pp *models.PlatformPost) (int64, error) {
	query := `
		INSERT INTO platform_posts (post_id, platform, content, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id int64
	var err error

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, pp.PostID, pp.Platform, pp.Content, models.PlatformPostStatusPending).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, pp.PostID, pp.Platform, pp.Content, models.PlatformPostStatusPending).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *platformPostRepository) ListByPostID(ctx context.Context, postID int64) ([]*models.PlatformPost, error) {
	query := `SELECT id, post_id, platform, content, status, external_id, error_message, created_at, updated_at
		FROM platform_posts WHERE post_id = $1 ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var pps []*models.PlatformPost
	for rows.Next() {
		var pp models.PlatformPost
		err := rows.Scan(&pp.ID, &pp.PostID, &pp.Platform, &pp.Content, &pp.Status,
			&pp.ExternalID, &pp.ErrorMessage, &pp.CreatedAt, &pp.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		pps = append(pps, &pp)
	}
	return pps, rows.Err()
}

func (r *platformPostRepository) MarkPublished(ctx context.Context, id int64, externalID string) error {
	query := `
		UPDATE platform_posts
		SET status = $1, external_id = $2, error_message = '', updated_at = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, models.PlatformPostStatusPublished, externalID, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *platformPostRepository) MarkFailed(ctx context.Context, id int64, errorMessage string) error {
	query := `
		UPDATE platform_posts
		SET status = $1, error_message = $2, updated_at = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, models.PlatformPostStatusFailed, errorMessage, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
