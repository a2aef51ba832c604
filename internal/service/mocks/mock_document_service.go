package mocks

import (
	"context"
	"io"

	"docarchive/internal/model"
	"docarchive/internal/query"
	"docarchive/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) List(ctx context.Context, caller model.Caller, params query.Params) (*service.DocumentListResult, error) {
	args := m.Called(ctx, caller, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentListResult), args.Error(1)
}

func (m *MockDocumentService) Get(ctx context.Context, caller model.Caller, id string) (*model.Document, error) {
	args := m.Called(ctx, caller, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Open(ctx context.Context, caller model.Caller, id string) (io.ReadCloser, *model.Document, error) {
	args := m.Called(ctx, caller, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(*model.Document), args.Error(2)
}

func (m *MockDocumentService) Upload(ctx context.Context, caller model.Caller, in service.UploadInput) (*model.Document, error) {
	args := m.Called(ctx, caller, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Edit(ctx context.Context, caller model.Caller, id string, in service.EditInput) (*model.Document, error) {
	args := m.Called(ctx, caller, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, caller model.Caller, id string) error {
	args := m.Called(ctx, caller, id)
	return args.Error(0)
}

func (m *MockDocumentService) Share(ctx context.Context, caller model.Caller, id string) (*model.ShareLink, error) {
	args := m.Called(ctx, caller, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ShareLink), args.Error(1)
}

func (m *MockDocumentService) OpenShared(ctx context.Context, token string) (io.ReadCloser, *model.Document, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(*model.Document), args.Error(2)
}
