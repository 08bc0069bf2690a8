package model

import (
	"time"

	"github.com/lib/pq"
)

// Idea is one generated content suggestion. Immutable once created;
// deletable by its owner only.
type Idea struct {
	ID          string         `db:"id" json:"id"`
	AccountID   string         `db:"account_id" json:"accountId"`
	Topic       string         `db:"topic" json:"topic"`
	ContentType string         `db:"content_type" json:"contentType"`
	Title       string         `db:"title" json:"title"`
	Script      string         `db:"script" json:"script"`
	Hashtags    pq.StringArray `db:"hashtags" json:"hashtags"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
}

type CreateIdeaParams struct {
	AccountID   string
	Topic       string
	ContentType string
	Title       string
	Script      string
	Hashtags    []string
}

// IdeaDraft is what the generative engine returns before the core stamps
// it with an owner and timestamp.
type IdeaDraft struct {
	ContentType string   `json:"contentType"`
	Title       string   `json:"title"`
	Script      string   `json:"script"`
	Hashtags    []string `json:"hashtags"`
}
