package postgres

import (
	"context"
	"database/sql"

	"docarchive/internal/model"
	"docarchive/internal/repository"
)

// ShareLinkPostgres is a PostgreSQL implementation of repository.ShareLinkRepository.
type ShareLinkPostgres struct {
	db *sql.DB
}

// NewShareLinkPostgres creates a new ShareLinkPostgres repository.
func NewShareLinkPostgres(db *sql.DB) *ShareLinkPostgres {
	return &ShareLinkPostgres{db: db}
}

var _ repository.ShareLinkRepository = (*ShareLinkPostgres)(nil)

func scanShareLink(rs rowScanner) (*model.ShareLink, error) {
	var (
		l  model.ShareLink
		by sql.NullString
	)
	if err := rs.Scan(&l.Token, &l.DocumentID, &by, &l.CreatedAt); err != nil {
		return nil, err
	}
	l.CreatedBy = by.String
	return &l, nil
}

// GetOrCreate inserts the link; on a conflicting document_id the existing row is returned untouched.
func (r *ShareLinkPostgres) GetOrCreate(ctx context.Context, link *model.ShareLink) (*model.ShareLink, error) {
	const q = `
		INSERT INTO share_links (token, document_id, created_by, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (document_id) DO UPDATE SET document_id = share_links.document_id
		RETURNING token, document_id, created_by, created_at
	`
	return scanShareLink(r.db.QueryRowContext(ctx, q, link.Token, link.DocumentID, nullable(link.CreatedBy), link.CreatedAt))
}

// FindByToken looks a link up by its token.
func (r *ShareLinkPostgres) FindByToken(ctx context.Context, token string) (*model.ShareLink, error) {
	const q = `SELECT token, document_id, created_by, created_at FROM share_links WHERE token = $1`
	return scanShareLink(r.db.QueryRowContext(ctx, q, token))
}
