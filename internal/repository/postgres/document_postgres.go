package postgres

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"docarchive/internal/model"
	"docarchive/internal/query"
	"docarchive/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `d.id, d.title, d.description, d.file_name, d.storage_path, d.size, d.content_type,
		d.category_id, COALESCE(c.name, ''), d.security_level, d.owner_id, COALESCE(u.username, ''),
		d.archived, d.created_at, d.updated_at`

const documentFrom = `
		FROM documents d
		LEFT JOIN categories c ON c.id = d.category_id
		LEFT JOIN users u ON u.id = d.owner_id`

// returningColumns is used by INSERT/UPDATE statements, which cannot join.
const returningColumns = `id, title, description, file_name, storage_path, size, content_type,
		category_id, '', security_level, owner_id, '', archived, created_at, updated_at`

var sortClauses = map[query.Sort]string{
	query.SortTitleAsc:     "lower(d.title) ASC, d.id ASC",
	query.SortTitleDesc:    "lower(d.title) DESC, d.id DESC",
	query.SortUploadedAsc:  "d.created_at ASC, d.id ASC",
	query.SortUploadedDesc: "d.created_at DESC, d.id DESC",
}

func scanDocument(rs rowScanner) (*model.Document, error) {
	var (
		d        model.Document
		category sql.NullString
		level    string
	)
	if err := rs.Scan(
		&d.ID,
		&d.Title,
		&d.Description,
		&d.FileName,
		&d.StoragePath,
		&d.Size,
		&d.ContentType,
		&category,
		&d.CategoryName,
		&level,
		&d.OwnerID,
		&d.OwnerName,
		&d.Archived,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	d.CategoryID = ptrFromNull(category)
	d.SecurityLevel = model.SecurityLevel(level)
	return &d, nil
}

// Create inserts a new document row and its audit entry in one transaction.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document, entry *model.AuditLogEntry) (*model.Document, error) {
	const q = `
		INSERT INTO documents (id, title, description, file_name, storage_path, size, content_type,
			category_id, security_level, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + returningColumns

	var out *model.Document
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, q,
			doc.ID,
			doc.Title,
			doc.Description,
			doc.FileName,
			doc.StoragePath,
			doc.Size,
			doc.ContentType,
			doc.CategoryID,
			string(doc.SecurityLevel),
			doc.OwnerID,
			doc.CreatedAt,
			doc.UpdatedAt,
		)
		var err error
		if out, err = scanDocument(row); err != nil {
			return err
		}
		return insertAudit(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}
	out.CategoryName = doc.CategoryName
	out.OwnerName = doc.OwnerName
	return out, nil
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	q := `SELECT ` + documentColumns + documentFrom + `
		WHERE d.id = $1`
	return scanDocument(r.db.QueryRowContext(ctx, q, id))
}

// buildListQuery renders the filtered, ordered list statement.
// Every predicate is ANDed; the security level predicate is always present.
func buildListQuery(f query.Filter) (string, []any) {
	var (
		where []string
		args  []any
		ph    string
	)

	if len(f.Levels) == 0 {
		where = append(where, "FALSE")
	} else {
		args, ph = placeholders(args, f.Levels)
		where = append(where, "d.security_level IN ("+ph+")")
	}

	if f.CategoryID != "" {
		args = append(args, f.CategoryID)
		where = append(where, "d.category_id = $"+strconv.Itoa(len(args)))
	}

	if f.Text != "" {
		args = append(args, f.Text)
		where = append(where, "strpos(lower(d.title), lower($"+strconv.Itoa(len(args))+")) > 0")
	}

	if exts := f.Type.Extensions(); len(exts) > 0 {
		ors := make([]string, len(exts))
		for i, ext := range exts {
			args = append(args, "%"+ext)
			ors[i] = "lower(d.file_name) LIKE $" + strconv.Itoa(len(args))
		}
		where = append(where, "("+strings.Join(ors, " OR ")+")")
	}

	order, ok := sortClauses[f.Sort]
	if !ok {
		order = sortClauses[query.DefaultSort]
	}

	q := `SELECT ` + documentColumns + documentFrom + `
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY ` + order
	return q, args
}

// List returns all documents matching the filter in the requested order.
func (r *DocumentPostgres) List(ctx context.Context, f query.Filter) ([]model.Document, error) {
	q, args := buildListQuery(f)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Update changes the mutable fields (title, category, security level) and appends the audit entry.
// Owner and file reference are never touched.
func (r *DocumentPostgres) Update(ctx context.Context, doc *model.Document, entry *model.AuditLogEntry) (*model.Document, error) {
	const q = `
		UPDATE documents
		SET title = $2, category_id = $3, security_level = $4, updated_at = $5
		WHERE id = $1
		RETURNING ` + returningColumns

	var out *model.Document
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, q, doc.ID, doc.Title, doc.CategoryID, string(doc.SecurityLevel), doc.UpdatedAt)
		var err error
		if out, err = scanDocument(row); err != nil {
			return err
		}
		return insertAudit(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}
	out.CategoryName = doc.CategoryName
	out.OwnerName = doc.OwnerName
	return out, nil
}

// Delete writes the audit entry first and then removes the row, atomically.
func (r *DocumentPostgres) Delete(ctx context.Context, id string, entry *model.AuditLogEntry) error {
	const q = `DELETE FROM documents WHERE id = $1`
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := insertAudit(ctx, tx, entry); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, q, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return sql.ErrNoRows
		}
		return nil
	})
}

// CountByOwner counts the owner's documents restricted to the given levels.
func (r *DocumentPostgres) CountByOwner(ctx context.Context, ownerID string, levels []model.SecurityLevel) (int, error) {
	if len(levels) == 0 {
		return 0, nil
	}
	args, ph := placeholders([]any{ownerID}, levels)
	q := `SELECT COUNT(*) FROM documents WHERE owner_id = $1 AND security_level IN (` + ph + `)`
	var n int
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// ArchiveExpired marks documents archived once their category's retention period has passed.
func (r *DocumentPostgres) ArchiveExpired(ctx context.Context, now time.Time) (int64, error) {
	const q = `
		UPDATE documents d
		SET archived = TRUE, updated_at = $1
		FROM categories c
		WHERE d.category_id = c.id
		  AND NOT d.archived
		  AND c.retention_days > 0
		  AND d.created_at + make_interval(days => c.retention_days) < $1
	`
	res, err := r.db.ExecContext(ctx, q, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
