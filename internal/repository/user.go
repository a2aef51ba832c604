package repository

import (
	"context"
	"errors"

	"docarchive/internal/model"
)

// ErrDuplicate is returned when a unique constraint (username, category name) is violated.
var ErrDuplicate = errors.New("duplicate value")

// UserRepository defines data access for accounts.
type UserRepository interface {
	// Create returns ErrDuplicate when the username is taken.
	Create(ctx context.Context, u *model.User) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	UpdatePassword(ctx context.Context, id, hash string) error
}

// ProfileRepository defines data access for user profiles.
type ProfileRepository interface {
	// Ensure returns the user's profile, creating an empty one if none exists yet.
	Ensure(ctx context.Context, userID string) (*model.Profile, error)
	SetAvatar(ctx context.Context, userID, key string) (*model.Profile, error)
}
