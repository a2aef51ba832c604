package repository

import (
	"context"

	"docarchive/internal/model"
)

// CategoryRepository defines data access for categories.
type CategoryRepository interface {
	List(ctx context.Context) ([]model.Category, error)
	FindByID(ctx context.Context, id string) (*model.Category, error)
	// Create returns ErrDuplicate when the name is taken.
	Create(ctx context.Context, c *model.Category) (*model.Category, error)
	// Update returns sql.ErrNoRows for unknown ids and ErrDuplicate when the name is taken.
	Update(ctx context.Context, c *model.Category) (*model.Category, error)
	// Delete removes the category; its documents become uncategorized.
	// It returns sql.ErrNoRows for unknown ids.
	Delete(ctx context.Context, id string) error
}
