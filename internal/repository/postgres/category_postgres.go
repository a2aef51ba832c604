package postgres

import (
	"context"
	"database/sql"

	"docarchive/internal/model"
	"docarchive/internal/repository"
)

// CategoryPostgres is a PostgreSQL implementation of repository.CategoryRepository.
type CategoryPostgres struct {
	db *sql.DB
}

// NewCategoryPostgres creates a new CategoryPostgres repository.
func NewCategoryPostgres(db *sql.DB) *CategoryPostgres {
	return &CategoryPostgres{db: db}
}

var _ repository.CategoryRepository = (*CategoryPostgres)(nil)

func scanCategory(rs rowScanner) (*model.Category, error) {
	var c model.Category
	if err := rs.Scan(&c.ID, &c.Name, &c.RetentionDays, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns all categories ordered by name.
func (r *CategoryPostgres) List(ctx context.Context) ([]model.Category, error) {
	const q = `
		SELECT id, name, retention_days, created_at
		FROM categories
		ORDER BY lower(name) ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// FindByID fetches a single category.
func (r *CategoryPostgres) FindByID(ctx context.Context, id string) (*model.Category, error) {
	const q = `SELECT id, name, retention_days, created_at FROM categories WHERE id = $1`
	return scanCategory(r.db.QueryRowContext(ctx, q, id))
}

// Create inserts a category.
func (r *CategoryPostgres) Create(ctx context.Context, c *model.Category) (*model.Category, error) {
	const q = `
		INSERT INTO categories (id, name, retention_days, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, retention_days, created_at
	`
	out, err := scanCategory(r.db.QueryRowContext(ctx, q, c.ID, c.Name, c.RetentionDays, c.CreatedAt))
	if err != nil {
		return nil, mapUnique(err)
	}
	return out, nil
}

// Update renames a category or changes its retention period.
func (r *CategoryPostgres) Update(ctx context.Context, c *model.Category) (*model.Category, error) {
	const q = `
		UPDATE categories SET name = $2, retention_days = $3
		WHERE id = $1
		RETURNING id, name, retention_days, created_at
	`
	out, err := scanCategory(r.db.QueryRowContext(ctx, q, c.ID, c.Name, c.RetentionDays))
	if err != nil {
		return nil, mapUnique(err)
	}
	return out, nil
}

// Delete removes a category. The documents.category_id foreign key is ON DELETE SET NULL,
// so attached documents stay and become uncategorized.
func (r *CategoryPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM categories WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
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
}
