package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"docarchive/internal/access"
	"docarchive/internal/logging"
	"docarchive/internal/model"
	"docarchive/internal/query"
	"docarchive/internal/repository"
	"docarchive/internal/storage"
)

const maxTitleLength = 200

var tracer = otel.Tracer("docarchive/internal/service")

// DocumentListResult is the list view: visible documents after filtering and sorting,
// every category for the filter menu, and the normalized selection to re-render it.
type DocumentListResult struct {
	Documents  []model.Document `json:"documents"`
	Total      int              `json:"total"`
	Categories []model.Category `json:"categories"`
	Selection  query.Params     `json:"selection"`
}

// UploadInput is a new document as submitted by the caller. Any owner in the request is ignored.
type UploadInput struct {
	Title         string
	Description   string
	CategoryID    string
	SecurityLevel model.SecurityLevel
	FileName      string
	ContentType   string
	Size          int64
	Reader        io.Reader
}

// EditInput holds the only fields an edit may change.
type EditInput struct {
	Title         string
	CategoryID    string
	SecurityLevel model.SecurityLevel
}

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	// List returns the caller's visible documents filtered and sorted by params.
	List(ctx context.Context, caller model.Caller, params query.Params) (*DocumentListResult, error)

	// Get returns a visible document. Invisible and missing documents both yield ErrNotFound.
	Get(ctx context.Context, caller model.Caller, id string) (*model.Document, error)

	// Open returns a visible document with a reader over its content.
	// A record whose stored file is gone yields ErrFileMissing.
	Open(ctx context.Context, caller model.Caller, id string) (io.ReadCloser, *model.Document, error)

	// Upload stores the file, then saves the document owned by the caller with an "upload" audit entry.
	// Storage is rolled back if the database save fails.
	Upload(ctx context.Context, caller model.Caller, in UploadInput) (*model.Document, error)

	// Edit changes title, category and security level. Owner or superuser only.
	Edit(ctx context.Context, caller model.Caller, id string, in EditInput) (*model.Document, error)

	// Delete records a "delete" audit entry, removes the document, then its stored file.
	// Owner or superuser only.
	Delete(ctx context.Context, caller model.Caller, id string) error

	// Share returns the document's share link, creating it on first use. Owner or superuser only.
	Share(ctx context.Context, caller model.Caller, id string) (*model.ShareLink, error)

	// OpenShared resolves a share token without authentication.
	OpenShared(ctx context.Context, token string) (io.ReadCloser, *model.Document, error)
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store      storage.Storage
	repo       repository.DocumentRepository
	categories repository.CategoryRepository
	shares     repository.ShareLinkRepository
	log        *logging.Logger
	maxBytes   int64
	now        func() time.Time
}

// NewDocumentService constructs a new DocumentService. maxBytes <= 0 disables the upload size check.
func NewDocumentService(
	store storage.Storage,
	repo repository.DocumentRepository,
	categories repository.CategoryRepository,
	shares repository.ShareLinkRepository,
	log *logging.Logger,
	maxBytes int64,
) DocumentService {
	if log == nil {
		log = logging.Default()
	}
	return &documentService{
		store:      store,
		repo:       repo,
		categories: categories,
		shares:     shares,
		log:        log.With("document_service"),
		maxBytes:   maxBytes,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *documentService) List(ctx context.Context, caller model.Caller, params query.Params) (*DocumentListResult, error) {
	ctx, span := tracer.Start(ctx, "DocumentService.List")
	defer span.End()
	span.SetAttributes(
		attribute.Bool("caller.authenticated", caller.Authenticated()),
		attribute.String("query.type", string(params.Type)),
		attribute.String("query.sort", string(params.Sort)),
	)

	if params.Sort == "" {
		params.Sort = query.DefaultSort
	}
	docs, err := s.repo.List(ctx, query.Filter{Levels: access.VisibleLevels(caller), Params: params})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	cats, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	for i := range docs {
		docs[i].FileType = string(query.FacetOf(docs[i].FileName))
	}
	return &DocumentListResult{
		Documents:  docs,
		Total:      len(docs),
		Categories: cats,
		Selection:  params,
	}, nil
}

func (s *documentService) Get(ctx context.Context, caller model.Caller, id string) (*model.Document, error) {
	doc, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanView(caller, doc) {
		return nil, ErrNotFound
	}
	return doc, nil
}

func (s *documentService) Open(ctx context.Context, caller model.Caller, id string) (io.ReadCloser, *model.Document, error) {
	doc, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, nil, err
	}
	return s.openBlob(ctx, doc)
}

func (s *documentService) Upload(ctx context.Context, caller model.Caller, in UploadInput) (*model.Document, error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Upload")
	defer span.End()

	if !caller.Authenticated() {
		return nil, ErrUnauthenticated
	}
	if in.Reader == nil {
		return nil, ErrReaderNil
	}

	v := &ValidationError{}
	title := validateTitle(v, in.Title)
	level := in.SecurityLevel
	if level == "" {
		level = model.LevelPublic
	}
	if !level.Valid() {
		v.add("security_level", "must be one of public, internal, secret")
	}
	if strings.TrimSpace(in.FileName) == "" {
		v.add("file", "file is required")
	}
	if in.Size < 0 || (s.maxBytes > 0 && in.Size > s.maxBytes) {
		v.add("file", fmt.Sprintf("file must be at most %d bytes", s.maxBytes))
	}
	category, err := s.resolveCategory(ctx, v, in.CategoryID)
	if err != nil {
		return nil, err
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	key := storage.DocumentKey(in.FileName)
	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	objInfo, err := s.store.Put(ctx, key, in.Reader, storage.PutObjectOptions{
		Size:        in.Size,
		ContentType: contentType,
		Metadata:    map[string]string{storage.MetaOriginalFilename: in.FileName},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	now := s.now()
	doc := &model.Document{
		ID:            uuid.New().String(),
		Title:         title,
		Description:   strings.TrimSpace(in.Description),
		FileName:      filepath.Base(in.FileName),
		StoragePath:   objInfo.Key,
		Size:          objInfo.Size,
		ContentType:   contentType,
		SecurityLevel: level,
		OwnerID:       caller.UserID,
		OwnerName:     caller.Username,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if category != nil {
		doc.CategoryID = &category.ID
		doc.CategoryName = category.Name
	}

	stored, err := s.repo.Create(ctx, doc, s.auditEntry(caller, model.ActionUpload, doc.Title))
	if err != nil {
		// Rollback: delete the object from storage
		if delErr := s.store.Delete(ctx, objInfo.Key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	stored.FileType = string(query.FacetOf(stored.FileName))
	stored.CategoryName, stored.OwnerName = doc.CategoryName, doc.OwnerName

	s.log.Info(ctx, "document_uploaded", map[string]any{"document_id": stored.ID, "owner_id": caller.UserID, "size": stored.Size})
	return stored, nil
}

func (s *documentService) Edit(ctx context.Context, caller model.Caller, id string, in EditInput) (*model.Document, error) {
	doc, err := s.guard(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	v := &ValidationError{}
	title := validateTitle(v, in.Title)
	if !in.SecurityLevel.Valid() {
		v.add("security_level", "must be one of public, internal, secret")
	}
	category, err := s.resolveCategory(ctx, v, in.CategoryID)
	if err != nil {
		return nil, err
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	doc.Title = title
	doc.SecurityLevel = in.SecurityLevel
	doc.CategoryID, doc.CategoryName = nil, ""
	if category != nil {
		doc.CategoryID = &category.ID
		doc.CategoryName = category.Name
	}
	doc.UpdatedAt = s.now()

	updated, err := s.repo.Update(ctx, doc, s.auditEntry(caller, model.ActionEdit, doc.Title))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update document: %w", err)
	}
	updated.FileType = string(query.FacetOf(updated.FileName))
	updated.CategoryName, updated.OwnerName = doc.CategoryName, doc.OwnerName
	return updated, nil
}

func (s *documentService) Delete(ctx context.Context, caller model.Caller, id string) error {
	ctx, span := tracer.Start(ctx, "DocumentService.Delete")
	defer span.End()

	doc, err := s.guard(ctx, caller, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, doc.ID, s.auditEntry(caller, model.ActionDelete, doc.Title)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("delete document: %w", err)
	}

	// The record is gone; a leftover object is only an orphan and does not fail the request.
	if err := s.store.Delete(ctx, doc.StoragePath); err != nil {
		s.log.Warn(ctx, "storage_delete_failed", err, map[string]any{"document_id": doc.ID, "key": doc.StoragePath})
	}
	s.log.Info(ctx, "document_deleted", map[string]any{"document_id": doc.ID, "actor_id": caller.UserID})
	return nil
}

func (s *documentService) Share(ctx context.Context, caller model.Caller, id string) (*model.ShareLink, error) {
	doc, err := s.guard(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	link, err := s.shares.GetOrCreate(ctx, &model.ShareLink{
		Token:      strings.ReplaceAll(uuid.NewString(), "-", ""),
		DocumentID: doc.ID,
		CreatedBy:  caller.UserID,
		CreatedAt:  s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("create share link: %w", err)
	}
	return link, nil
}

func (s *documentService) OpenShared(ctx context.Context, token string) (io.ReadCloser, *model.Document, error) {
	if token == "" {
		return nil, nil, ErrNotFound
	}
	link, err := s.shares.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	doc, err := s.find(ctx, link.DocumentID)
	if err != nil {
		return nil, nil, err
	}
	return s.openBlob(ctx, doc)
}

func (s *documentService) find(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	doc.FileType = string(query.FacetOf(doc.FileName))
	return doc, nil
}

// guard loads a document for mutation. Callers that cannot even see it get ErrNotFound,
// so secret documents are not disclosed; visible but foreign documents get ErrForbidden.
func (s *documentService) guard(ctx context.Context, caller model.Caller, id string) (*model.Document, error) {
	if !caller.Authenticated() {
		return nil, ErrUnauthenticated
	}
	doc, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanModify(caller, doc) {
		if !access.CanView(caller, doc) {
			return nil, ErrNotFound
		}
		return nil, ErrForbidden
	}
	return doc, nil
}

func (s *documentService) openBlob(ctx context.Context, doc *model.Document) (io.ReadCloser, *model.Document, error) {
	rc, _, err := s.store.Get(ctx, doc.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			s.log.Warn(ctx, "stored_file_missing", err, map[string]any{"document_id": doc.ID, "key": doc.StoragePath})
			return nil, nil, ErrFileMissing
		}
		return nil, nil, fmt.Errorf("open stored file: %w", err)
	}
	return rc, doc, nil
}

// resolveCategory validates an optional category id; "" means uncategorized.
func (s *documentService) resolveCategory(ctx context.Context, v *ValidationError, id string) (*model.Category, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	if _, err := uuid.Parse(id); err != nil {
		v.add("category", "unknown category")
		return nil, nil
	}
	c, err := s.categories.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			v.add("category", "unknown category")
			return nil, nil
		}
		return nil, fmt.Errorf("find category: %w", err)
	}
	return c, nil
}

func (s *documentService) auditEntry(caller model.Caller, action, title string) *model.AuditLogEntry {
	actor := caller.UserID
	return &model.AuditLogEntry{
		ActorID:       &actor,
		ActorName:     caller.Username,
		Action:        action,
		DocumentTitle: title,
		CreatedAt:     s.now(),
	}
}

func validateTitle(v *ValidationError, title string) string {
	title = strings.TrimSpace(title)
	switch n := utf8.RuneCountInString(title); {
	case n == 0:
		v.add("title", "title is required")
	case n > maxTitleLength:
		v.add("title", fmt.Sprintf("title must be at most %d characters", maxTitleLength))
	}
	return title
}
