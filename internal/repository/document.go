package repository

import (
	"context"
	"time"

	"docarchive/internal/model"
	"docarchive/internal/query"
)

// DocumentRepository defines data access for documents using SQL queries only.
// Mutations take the audit entry that records them; both are written in one transaction.
type DocumentRepository interface {
	// Create inserts a new document and its audit entry.
	// Returns the stored document (may include values set by the DB).
	Create(ctx context.Context, doc *model.Document, entry *model.AuditLogEntry) (*model.Document, error)

	// FindByID returns a document by its ID regardless of security level.
	// It returns sql.ErrNoRows when the document does not exist.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// List returns every document matching the filter, ordered by its sort key.
	List(ctx context.Context, f query.Filter) ([]model.Document, error)

	// Update writes title, category and security level, then appends the audit entry.
	Update(ctx context.Context, doc *model.Document, entry *model.AuditLogEntry) (*model.Document, error)

	// Delete appends the audit entry and then removes the document.
	// It returns sql.ErrNoRows (and writes nothing) if the document does not exist.
	Delete(ctx context.Context, id string, entry *model.AuditLogEntry) error

	// CountByOwner counts the owner's documents within the given security levels.
	CountByOwner(ctx context.Context, ownerID string, levels []model.SecurityLevel) (int, error)

	// ArchiveExpired flags documents whose category retention period has elapsed at now.
	ArchiveExpired(ctx context.Context, now time.Time) (int64, error)
}

// ShareLinkRepository persists share links. There is at most one link per document.
type ShareLinkRepository interface {
	// GetOrCreate stores the link unless the document already has one, and returns the stored link.
	GetOrCreate(ctx context.Context, link *model.ShareLink) (*model.ShareLink, error)

	// FindByToken returns sql.ErrNoRows for unknown tokens.
	FindByToken(ctx context.Context, token string) (*model.ShareLink, error)
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
