package mocks

import (
	"context"

	"docarchive/internal/model"
	"docarchive/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockCategoryService struct {
	mock.Mock
}

func (m *MockCategoryService) List(ctx context.Context) ([]model.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Category), args.Error(1)
}

func (m *MockCategoryService) Create(ctx context.Context, caller model.Caller, in service.CategoryInput) (*model.Category, error) {
	args := m.Called(ctx, caller, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Category), args.Error(1)
}

func (m *MockCategoryService) Update(ctx context.Context, caller model.Caller, id string, in service.CategoryInput) (*model.Category, error) {
	args := m.Called(ctx, caller, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Category), args.Error(1)
}

func (m *MockCategoryService) Delete(ctx context.Context, caller model.Caller, id string) error {
	args := m.Called(ctx, caller, id)
	return args.Error(0)
}
