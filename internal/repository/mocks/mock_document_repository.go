package mocks

import (
	"context"
	"time"

	"docarchive/internal/model"
	"docarchive/internal/query"
	"github.com/stretchr/testify/mock"
)

type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Create(ctx context.Context, doc *model.Document, entry *model.AuditLogEntry) (*model.Document, error) {
	args := m.Called(ctx, doc, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) FindByID(ctx context.Context, id string) (*model.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) List(ctx context.Context, f query.Filter) ([]model.Document, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentRepository) Update(ctx context.Context, doc *model.Document, entry *model.AuditLogEntry) (*model.Document, error) {
	args := m.Called(ctx, doc, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, id string, entry *model.AuditLogEntry) error {
	args := m.Called(ctx, id, entry)
	return args.Error(0)
}

func (m *MockDocumentRepository) CountByOwner(ctx context.Context, ownerID string, levels []model.SecurityLevel) (int, error) {
	args := m.Called(ctx, ownerID, levels)
	return args.Int(0), args.Error(1)
}

func (m *MockDocumentRepository) ArchiveExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type MockShareLinkRepository struct {
	mock.Mock
}

func (m *MockShareLinkRepository) GetOrCreate(ctx context.Context, link *model.ShareLink) (*model.ShareLink, error) {
	args := m.Called(ctx, link)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ShareLink), args.Error(1)
}

func (m *MockShareLinkRepository) FindByToken(ctx context.Context, token string) (*model.ShareLink, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ShareLink), args.Error(1)
}
