package models

import "time"

type SocialAccount struct {
	ID          int64     `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"user_id"`
	Platform    string    `db:"platform" json:"platform"`
	AccountID   string    `db:"account_id" json:"account_id"`
	AccountName string    `db:"account_name" json:"account_name"`
	AccessToken string    `db:"access_token" json:"access_token"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
