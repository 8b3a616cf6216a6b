package models

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

type Post struct {
	ID          int64          `db:"id" json:"id"`
	UserID      int64          `db:"user_id" json:"user_id"`
	Caption     string         `db:"caption" json:"caption"`
	Title       string         `db:"title" json:"title"`
	MediaURLs   pq.StringArray `db:"media_urls" json:"media_urls"`
	ScheduledAt sql.NullTime   `db:"scheduled_at" json:"scheduled_at"`
	PublishedAt sql.NullTime   `db:"published_at" json:"published_at"`
	Status      string         `db:"status" json:"status"` // draft, scheduled, processing, published, partial, failed
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

type PlatformPost struct {
	ID           int64     `db:"id" json:"id"`
	PostID       int64     `db:"post_id" json:"post_id"`
	Platform     string    `db:"platform" json:"platform"`
	Content      string    `db:"content" json:"content"` // override, falls back to post caption when empty
	Status       string    `db:"status" json:"status"`   // pending, published, failed
	ExternalID   string    `db:"external_id" json:"external_id"`
	ErrorMessage string    `db:"error_message" json:"error_message"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
