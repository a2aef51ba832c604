package mocks

import (
	"context"
	"time"

	"docarchive/internal/model"
	"docarchive/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.AuditLogEntry], error) {
	args := m.Called(ctx, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.AuditLogEntry]), args.Error(1)
}

func (m *MockAuditRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}
