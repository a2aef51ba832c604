// Package auth issues and verifies session tokens and hashes passwords.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"docarchive/internal/model"
)

var (
	ErrInvalidToken    = errors.New("invalid or expired token")
	ErrMissingSecret   = errors.New("jwt secret is required")
	ErrPasswordTooWeak = errors.New("password must be at least 8 characters")
)

// MinPasswordLength is the shortest password accepted by HashPassword.
const MinPasswordLength = 8

// Claims is the session token payload.
type Claims struct {
	Username  string `json:"username"`
	Superuser bool   `json:"su"`
	jwt.RegisteredClaims
}

// Auth signs and verifies HS256 session tokens.
type Auth struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// New creates an Auth. A zero ttl defaults to 24 hours.
func New(secret string, ttl time.Duration) (*Auth, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Auth{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL is how long issued tokens stay valid.
func (a *Auth) TTL() time.Duration {
	return a.ttl
}

// GenerateToken issues a signed token for the user.
func (a *Auth) GenerateToken(u *model.User) (string, error) {
	if u == nil || u.ID == "" || u.Username == "" {
		return "", errors.New("required inputs are missing to generate token")
	}
	now := a.now()
	claims := &Claims{
		Username:  u.Username,
		Superuser: u.IsSuperuser,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// VerifyToken parses a token (optionally prefixed with "Bearer ") and returns the caller it identifies.
func (a *Auth) VerifyToken(tokenStr string) (model.Caller, error) {
	tokenStr = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(tokenStr), "Bearer "))
	if tokenStr == "" {
		return model.Caller{}, ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !token.Valid || claims.Subject == "" {
		return model.Caller{}, ErrInvalidToken
	}

	return model.Caller{
		UserID:      claims.Subject,
		Username:    claims.Username,
		IsSuperuser: claims.Superuser,
	}, nil
}

// HashPassword returns the bcrypt hash of a password.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrPasswordTooWeak
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether password matches the bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
