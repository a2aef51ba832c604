package model

import "time"

// SecurityLevel gates who may see a document.
type SecurityLevel string

const (
	LevelPublic   SecurityLevel = "public"
	LevelInternal SecurityLevel = "internal"
	LevelSecret   SecurityLevel = "secret"
)

// SecurityLevels lists every valid level, least restricted first.
var SecurityLevels = []SecurityLevel{LevelPublic, LevelInternal, LevelSecret}

// Valid reports whether l is one of the enumerated levels.
func (l SecurityLevel) Valid() bool {
	switch l {
	case LevelPublic, LevelInternal, LevelSecret:
		return true
	}
	return false
}

// Document is an archived file and its metadata.
// This is a pure domain model with no database-specific dependencies or tags.
type Document struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description,omitempty"`
	FileName      string        `json:"file_name"`
	FileType      string        `json:"file_type,omitempty"`
	StoragePath   string        `json:"-"`
	Size          int64         `json:"size"`
	ContentType   string        `json:"content_type"`
	CategoryID    *string       `json:"category_id"`
	CategoryName  string        `json:"category_name,omitempty"`
	SecurityLevel SecurityLevel `json:"security_level"`
	OwnerID       string        `json:"owner_id"`
	OwnerName     string        `json:"owner_name,omitempty"`
	Archived      bool          `json:"archived"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// ShareLink grants unauthenticated download access to one document.
type ShareLink struct {
	Token      string    `json:"token"`
	DocumentID string    `json:"document_id"`
	CreatedBy  string    `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
}
