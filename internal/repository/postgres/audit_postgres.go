package postgres

import (
	"context"
	"database/sql"
	"time"

	"docarchive/internal/model"
	"docarchive/internal/repository"
)

// AuditPostgres is a PostgreSQL implementation of repository.AuditRepository.
type AuditPostgres struct {
	db *sql.DB
}

// NewAuditPostgres creates a new AuditPostgres repository.
func NewAuditPostgres(db *sql.DB) *AuditPostgres {
	return &AuditPostgres{db: db}
}

var _ repository.AuditRepository = (*AuditPostgres)(nil)

// insertAudit appends an entry using the caller's transaction.
func insertAudit(ctx context.Context, ex execer, e *model.AuditLogEntry) error {
	const q = `
		INSERT INTO audit_log (actor_id, actor_name, action, document_title, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := ex.ExecContext(ctx, q, e.ActorID, e.ActorName, e.Action, e.DocumentTitle, e.CreatedAt)
	return err
}

// List returns audit entries newest first using LIMIT/OFFSET pagination and a total count.
func (r *AuditPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.AuditLogEntry], error) {
	const qCount = `SELECT COUNT(*) FROM audit_log`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT id, actor_id, actor_name, action, document_title, created_at
		FROM audit_log
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.AuditLogEntry, 0)
	for rows.Next() {
		var (
			e     model.AuditLogEntry
			actor sql.NullString
		)
		if err := rows.Scan(&e.ID, &actor, &e.ActorName, &e.Action, &e.DocumentTitle, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.ActorID = ptrFromNull(actor)
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.AuditLogEntry]{Items: items, Total: total}, nil
}

// DeleteOlderThan removes entries created strictly before cutoff.
func (r *AuditPostgres) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	const q = `DELETE FROM audit_log WHERE created_at < $1`
	res, err := r.db.ExecContext(ctx, q, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
