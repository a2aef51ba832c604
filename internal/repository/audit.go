package repository

import (
	"context"
	"time"

	"docarchive/internal/model"
)

// AuditRepository reads and prunes the append-only audit log.
// Entries are written by DocumentRepository together with the mutation they describe.
type AuditRepository interface {
	// List returns entries newest first.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.AuditLogEntry], error)
	// DeleteOlderThan removes entries created before cutoff and reports how many were removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
