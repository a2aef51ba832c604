package mocks

import (
	"context"

	"docarchive/internal/model"
	"docarchive/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) Login(ctx context.Context, username, password string) (string, *model.User, error) {
	args := m.Called(ctx, username, password)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*model.User), args.Error(2)
}

func (m *MockAccountService) Authenticate(token string) (model.Caller, error) {
	args := m.Called(token)
	return args.Get(0).(model.Caller), args.Error(1)
}

func (m *MockAccountService) CreateUser(ctx context.Context, username, password string, superuser bool) (*model.User, error) {
	args := m.Called(ctx, username, password, superuser)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockAccountService) Profile(ctx context.Context, caller model.Caller) (*service.ProfileView, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ProfileView), args.Error(1)
}

func (m *MockAccountService) UpdateProfile(ctx context.Context, caller model.Caller, upd service.ProfileUpdate) (*service.ProfileView, error) {
	args := m.Called(ctx, caller, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ProfileView), args.Error(1)
}
