package postgres

import (
	"context"
	"database/sql"
	"time"

	"docarchive/internal/model"
	"docarchive/internal/repository"
)

// UserPostgres is a PostgreSQL implementation of repository.UserRepository.
type UserPostgres struct {
	db *sql.DB
}

// NewUserPostgres creates a new UserPostgres repository.
func NewUserPostgres(db *sql.DB) *UserPostgres {
	return &UserPostgres{db: db}
}

var _ repository.UserRepository = (*UserPostgres)(nil)

const userColumns = `id, username, password_hash, is_superuser, created_at`

func scanUser(rs rowScanner) (*model.User, error) {
	var u model.User
	if err := rs.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsSuperuser, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts an account.
func (r *UserPostgres) Create(ctx context.Context, u *model.User) (*model.User, error) {
	const q = `
		INSERT INTO users (id, username, password_hash, is_superuser, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns
	out, err := scanUser(r.db.QueryRowContext(ctx, q, u.ID, u.Username, u.PasswordHash, u.IsSuperuser, u.CreatedAt))
	if err != nil {
		return nil, mapUnique(err)
	}
	return out, nil
}

// FindByID fetches an account by id.
func (r *UserPostgres) FindByID(ctx context.Context, id string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, id))
}

// FindByUsername fetches an account by its login name.
func (r *UserPostgres) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, username))
}

// UpdatePassword replaces the stored password hash.
func (r *UserPostgres) UpdatePassword(ctx context.Context, id, hash string) error {
	const q = `UPDATE users SET password_hash = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, hash)
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

// ProfilePostgres is a PostgreSQL implementation of repository.ProfileRepository.
type ProfilePostgres struct {
	db  *sql.DB
	now func() time.Time
}

// NewProfilePostgres creates a new ProfilePostgres repository.
func NewProfilePostgres(db *sql.DB) *ProfilePostgres {
	return &ProfilePostgres{db: db, now: func() time.Time { return time.Now().UTC() }}
}

var _ repository.ProfileRepository = (*ProfilePostgres)(nil)

func scanProfile(rs rowScanner) (*model.Profile, error) {
	var p model.Profile
	if err := rs.Scan(&p.UserID, &p.AvatarKey, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// Ensure returns the profile, inserting an empty one first if the user has none.
func (r *ProfilePostgres) Ensure(ctx context.Context, userID string) (*model.Profile, error) {
	const q = `
		INSERT INTO profiles (user_id, avatar_key, updated_at)
		VALUES ($1, '', $2)
		ON CONFLICT (user_id) DO UPDATE SET user_id = profiles.user_id
		RETURNING user_id, avatar_key, updated_at
	`
	return scanProfile(r.db.QueryRowContext(ctx, q, userID, r.now()))
}

// SetAvatar stores the avatar key, creating the profile if needed.
func (r *ProfilePostgres) SetAvatar(ctx context.Context, userID, key string) (*model.Profile, error) {
	const q = `
		INSERT INTO profiles (user_id, avatar_key, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET avatar_key = EXCLUDED.avatar_key, updated_at = EXCLUDED.updated_at
		RETURNING user_id, avatar_key, updated_at
	`
	return scanProfile(r.db.QueryRowContext(ctx, q, userID, key, r.now()))
}
