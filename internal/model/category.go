package model

import "time"

// Category groups documents and defines how long they stay active before being archived.
// RetentionDays of zero keeps documents active forever.
type Category struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	RetentionDays int       `json:"retention_days"`
	CreatedAt     time.Time `json:"created_at"`
}
