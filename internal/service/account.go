package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"docarchive/internal/access"
	"docarchive/internal/auth"
	"docarchive/internal/logging"
	"docarchive/internal/model"
	"docarchive/internal/query"
	"docarchive/internal/repository"
	"docarchive/internal/storage"
)

const maxAvatarBytes = 5 << 20

// ProfileAction selects which profile form was submitted.
type ProfileAction string

const (
	ProfileActionAvatar   ProfileAction = "avatar"
	ProfileActionPassword ProfileAction = "password"
)

// AvatarUpload is a new avatar image.
type AvatarUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// PasswordChange replaces the caller's password after checking the current one.
type PasswordChange struct {
	Current string
	New     string
}

// ProfileUpdate carries exactly one payload, selected by Action.
type ProfileUpdate struct {
	Action   ProfileAction
	Avatar   *AvatarUpload
	Password *PasswordChange
}

// ProfileView is what the profile page shows.
type ProfileView struct {
	User          *model.User    `json:"user"`
	Profile       *model.Profile `json:"profile"`
	AvatarURL     string         `json:"avatar_url,omitempty"`
	DocumentCount int            `json:"document_count"`
}

// AccountService covers login, account bootstrap and the caller's own profile.
type AccountService interface {
	// Login checks credentials and issues a session token.
	Login(ctx context.Context, username, password string) (string, *model.User, error)

	// Authenticate turns a session token into the caller it identifies.
	Authenticate(token string) (model.Caller, error)

	// CreateUser registers an account; it is used by the bootstrap command.
	CreateUser(ctx context.Context, username, password string, superuser bool) (*model.User, error)

	// Profile returns the caller's profile, creating an empty one on first access.
	Profile(ctx context.Context, caller model.Caller) (*ProfileView, error)

	// UpdateProfile applies one profile action and returns the refreshed view.
	UpdateProfile(ctx context.Context, caller model.Caller, upd ProfileUpdate) (*ProfileView, error)
}

type accountService struct {
	users     repository.UserRepository
	profiles  repository.ProfileRepository
	documents repository.DocumentRepository
	store     storage.Storage
	auth      *auth.Auth
	log       *logging.Logger
	avatarTTL time.Duration
	now       func() time.Time
}

func NewAccountService(
	users repository.UserRepository,
	profiles repository.ProfileRepository,
	documents repository.DocumentRepository,
	store storage.Storage,
	a *auth.Auth,
	log *logging.Logger,
	avatarTTL time.Duration,
) AccountService {
	if log == nil {
		log = logging.Default()
	}
	if avatarTTL <= 0 {
		avatarTTL = 15 * time.Minute
	}
	return &accountService{
		users:     users,
		profiles:  profiles,
		documents: documents,
		store:     store,
		auth:      a,
		log:       log.With("account_service"),
		avatarTTL: avatarTTL,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *accountService) Login(ctx context.Context, username, password string) (string, *model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", nil, ErrInvalidCredentials
	}
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("find user: %w", err)
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		s.log.Warn(ctx, "login_failed", nil, map[string]any{"username": username})
		return "", nil, ErrInvalidCredentials
	}
	token, err := s.auth.GenerateToken(u)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, u, nil
}

func (s *accountService) Authenticate(token string) (model.Caller, error) {
	if token == "" {
		return model.Anonymous(), ErrUnauthenticated
	}
	c, err := s.auth.VerifyToken(token)
	if err != nil {
		return model.Anonymous(), ErrUnauthenticated
	}
	return c, nil
}

func (s *accountService) CreateUser(ctx context.Context, username, password string, superuser bool) (*model.User, error) {
	v := &ValidationError{}
	username = strings.TrimSpace(username)
	if username == "" {
		v.add("username", "username is required")
	}
	if len(password) < auth.MinPasswordLength {
		v.add("password", auth.ErrPasswordTooWeak.Error())
	}
	if err := v.err(); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u, err := s.users.Create(ctx, &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: hash,
		IsSuperuser:  superuser,
		CreatedAt:    s.now(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, invalid("username", "username is already taken")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *accountService) Profile(ctx context.Context, caller model.Caller) (*ProfileView, error) {
	if !caller.Authenticated() {
		return nil, ErrUnauthenticated
	}
	u, err := s.users.FindByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	p, err := s.profiles.Ensure(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("ensure profile: %w", err)
	}
	return s.view(ctx, caller, u, p)
}

func (s *accountService) UpdateProfile(ctx context.Context, caller model.Caller, upd ProfileUpdate) (*ProfileView, error) {
	if !caller.Authenticated() {
		return nil, ErrUnauthenticated
	}
	switch upd.Action {
	case ProfileActionAvatar:
		if err := s.setAvatar(ctx, caller, upd.Avatar); err != nil {
			return nil, err
		}
	case ProfileActionPassword:
		if err := s.changePassword(ctx, caller, upd.Password); err != nil {
			return nil, err
		}
	default:
		return nil, invalid("action", "must be avatar or password")
	}
	return s.Profile(ctx, caller)
}

func (s *accountService) setAvatar(ctx context.Context, caller model.Caller, in *AvatarUpload) error {
	if in == nil || in.Reader == nil || in.FileName == "" {
		return invalid("avatar", "image file is required")
	}
	if !query.FacetImage.Matches(in.FileName) {
		return invalid("avatar", "file must be an image")
	}
	if in.Size > maxAvatarBytes {
		return invalid("avatar", fmt.Sprintf("image must be at most %d bytes", maxAvatarBytes))
	}
	old, err := s.profiles.Ensure(ctx, caller.UserID)
	if err != nil {
		return fmt.Errorf("ensure profile: %w", err)
	}

	key := storage.AvatarKey(caller.UserID, in.FileName)
	if _, err := s.store.Put(ctx, key, in.Reader, storage.PutObjectOptions{Size: in.Size, ContentType: in.ContentType}); err != nil {
		return fmt.Errorf("upload avatar: %w", err)
	}
	if _, err := s.profiles.SetAvatar(ctx, caller.UserID, key); err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.log.Warn(ctx, "avatar_rollback_failed", delErr, map[string]any{"key": key})
		}
		return fmt.Errorf("save avatar: %w", err)
	}
	if old.AvatarKey != "" {
		if err := s.store.Delete(ctx, old.AvatarKey); err != nil {
			s.log.Warn(ctx, "avatar_cleanup_failed", err, map[string]any{"key": old.AvatarKey})
		}
	}
	return nil
}

func (s *accountService) changePassword(ctx context.Context, caller model.Caller, in *PasswordChange) error {
	if in == nil {
		return invalid("new_password", "new password is required")
	}
	if len(in.New) < auth.MinPasswordLength {
		return invalid("new_password", auth.ErrPasswordTooWeak.Error())
	}
	u, err := s.users.FindByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUnauthenticated
		}
		return fmt.Errorf("find user: %w", err)
	}
	if !auth.CheckPassword(u.PasswordHash, in.Current) {
		return invalid("current_password", "current password is incorrect")
	}
	hash, err := auth.HashPassword(in.New)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	s.log.Info(ctx, "password_changed", map[string]any{"user_id": u.ID})
	return nil
}

func (s *accountService) view(ctx context.Context, caller model.Caller, u *model.User, p *model.Profile) (*ProfileView, error) {
	count, err := s.documents.CountByOwner(ctx, u.ID, access.VisibleLevels(caller))
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	v := &ProfileView{User: u, Profile: p, DocumentCount: count}
	if p.AvatarKey != "" {
		url, err := s.store.PresignGet(ctx, p.AvatarKey, s.avatarTTL)
		if err != nil {
			s.log.Warn(ctx, "avatar_presign_failed", err, map[string]any{"key": p.AvatarKey})
		} else {
			v.AvatarURL = url
		}
	}
	return v, nil
}
