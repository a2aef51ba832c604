package mocks

import (
	"context"

	"docarchive/internal/model"
	"docarchive/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) List(ctx context.Context, caller model.Caller, limit, offset int) (*service.AuditPage, error) {
	args := m.Called(ctx, caller, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuditPage), args.Error(1)
}
