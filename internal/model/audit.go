package model

import "time"

// Audit actions recorded for document mutations.
const (
	ActionUpload = "upload"
	ActionEdit   = "edit"
	ActionDelete = "delete"
)

// AuditLogEntry records a user action on a document.
// The document title is captured by value so the entry outlives the document.
type AuditLogEntry struct {
	ID            string    `json:"id"`
	ActorID       *string   `json:"actor_id"`
	ActorName     string    `json:"actor_name"`
	Action        string    `json:"action"`
	DocumentTitle string    `json:"document_title"`
	CreatedAt     time.Time `json:"created_at"`
}
