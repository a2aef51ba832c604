package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"docarchive/internal/model"
	"docarchive/internal/repository"
)

const maxCategoryNameLength = 100

// CategoryInput is the editable part of a category.
type CategoryInput struct {
	Name          string `json:"name"`
	RetentionDays int    `json:"retention_days"`
}

// CategoryService manages categories. Everyone may list them; changes are superuser only.
type CategoryService interface {
	List(ctx context.Context) ([]model.Category, error)
	Create(ctx context.Context, caller model.Caller, in CategoryInput) (*model.Category, error)
	Update(ctx context.Context, caller model.Caller, id string, in CategoryInput) (*model.Category, error)
	Delete(ctx context.Context, caller model.Caller, id string) error
}

type categoryService struct {
	repo repository.CategoryRepository
	now  func() time.Time
}

func NewCategoryService(repo repository.CategoryRepository) CategoryService {
	return &categoryService{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

func (s *categoryService) List(ctx context.Context) ([]model.Category, error) {
	return s.repo.List(ctx)
}

func (s *categoryService) Create(ctx context.Context, caller model.Caller, in CategoryInput) (*model.Category, error) {
	if err := requireSuperuser(caller); err != nil {
		return nil, err
	}
	name, err := validateCategory(in)
	if err != nil {
		return nil, err
	}
	c, err := s.repo.Create(ctx, &model.Category{ID: uuid.New().String(), Name: name, RetentionDays: in.RetentionDays, CreatedAt: s.now()})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, invalid("name", "a category with this name already exists")
		}
		return nil, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (s *categoryService) Update(ctx context.Context, caller model.Caller, id string, in CategoryInput) (*model.Category, error) {
	if err := requireSuperuser(caller); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, ErrIDRequired
	}
	name, err := validateCategory(in)
	if err != nil {
		return nil, err
	}
	c, err := s.repo.Update(ctx, &model.Category{ID: id, Name: name, RetentionDays: in.RetentionDays})
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrNotFound
		case errors.Is(err, repository.ErrDuplicate):
			return nil, invalid("name", "a category with this name already exists")
		}
		return nil, fmt.Errorf("update category: %w", err)
	}
	return c, nil
}

func (s *categoryService) Delete(ctx context.Context, caller model.Caller, id string) error {
	if err := requireSuperuser(caller); err != nil {
		return err
	}
	if id == "" {
		return ErrIDRequired
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

func validateCategory(in CategoryInput) (string, error) {
	v := &ValidationError{}
	name := strings.TrimSpace(in.Name)
	switch n := utf8.RuneCountInString(name); {
	case n == 0:
		v.add("name", "name is required")
	case n > maxCategoryNameLength:
		v.add("name", fmt.Sprintf("name must be at most %d characters", maxCategoryNameLength))
	}
	if in.RetentionDays < 0 {
		v.add("retention_days", "must not be negative")
	}
	return name, v.err()
}

func requireSuperuser(caller model.Caller) error {
	if !caller.Authenticated() {
		return ErrUnauthenticated
	}
	if !caller.IsSuperuser {
		return ErrForbidden
	}
	return nil
}
