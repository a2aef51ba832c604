package service

import (
	"context"
	"fmt"

	"docarchive/internal/model"
	"docarchive/internal/repository"
)

const (
	DefaultAuditLimit = 50
	MaxAuditLimit     = 200
)

// AuditPage is one page of the audit log, newest entries first.
type AuditPage struct {
	Entries []model.AuditLogEntry `json:"entries"`
	Total   int                   `json:"total"`
	Limit   int                   `json:"limit"`
	Offset  int                   `json:"offset"`
}

// AuditService exposes the audit log for review. Entries are never edited through it.
type AuditService interface {
	List(ctx context.Context, caller model.Caller, limit, offset int) (*AuditPage, error)
}

type auditService struct {
	repo repository.AuditRepository
}

func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

func (s *auditService) List(ctx context.Context, caller model.Caller, limit, offset int) (*AuditPage, error) {
	if err := requireSuperuser(caller); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultAuditLimit
	}
	if limit > MaxAuditLimit {
		limit = MaxAuditLimit
	}
	if offset < 0 {
		offset = 0
	}
	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("list audit log: %w", err)
	}
	return &AuditPage{Entries: res.Items, Total: res.Total, Limit: limit, Offset: offset}, nil
}
