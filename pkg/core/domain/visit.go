package domain

import "time"

// Visit represents a click-through recorded by the increment action
type Visit struct {
	ID        int64     `json:"id"`
	LinkID    int64     `json:"link_id"`
	Referer   string    `json:"referer"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
}
