package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docarchive/internal/model"
	"docarchive/internal/query"
)

var docCols = []string{
	"id", "title", "description", "file_name", "storage_path", "size", "content_type",
	"category_id", "category_name", "security_level", "owner_id", "owner_name",
	"archived", "created_at", "updated_at",
}

func docRow(rows *sqlmock.Rows, id, title, level string, category driver.Value) *sqlmock.Rows {
	now := time.Now().UTC()
	return rows.AddRow(id, title, "", title+".pdf", "documents/"+id+".pdf", 10, "application/pdf",
		category, "", level, "owner-1", "alice", false, now, now)
}

func TestBuildListQuery(t *testing.T) {
	t.Run("levels only, default order", func(t *testing.T) {
		q, args := buildListQuery(query.Filter{
			Levels: []model.SecurityLevel{model.LevelPublic},
			Params: query.Params{Sort: query.DefaultSort},
		})
		assert.Contains(t, q, "WHERE d.security_level IN ($1)")
		assert.Contains(t, q, "ORDER BY d.created_at DESC, d.id DESC")
		assert.NotContains(t, q, "category_id = ")
		assert.NotContains(t, q, "strpos")
		assert.NotContains(t, q, "LIKE")
		assert.Equal(t, []any{"public"}, args)
	})

	t.Run("all filters are ANDed", func(t *testing.T) {
		q, args := buildListQuery(query.Filter{
			Levels: []model.SecurityLevel{model.LevelPublic, model.LevelInternal},
			Params: query.Params{CategoryID: "cat-1", Text: "Q3", Type: query.FacetWord, Sort: query.SortTitleAsc},
		})
		assert.Contains(t, q, "d.security_level IN ($1, $2) AND d.category_id = $3 AND strpos(lower(d.title), lower($4)) > 0 AND (")
		assert.Contains(t, q, "lower(d.file_name) LIKE $5 OR lower(d.file_name) LIKE $6 OR lower(d.file_name) LIKE $7 OR lower(d.file_name) LIKE $8)")
		assert.NotContains(t, q, " OR d.")
		assert.Contains(t, q, "ORDER BY lower(d.title) ASC, d.id ASC")
		assert.Equal(t, []any{"public", "internal", "cat-1", "Q3", "%.doc", "%.docx", "%.odt", "%.rtf"}, args)
	})

	t.Run("no visible levels matches nothing", func(t *testing.T) {
		q, args := buildListQuery(query.Filter{Params: query.Params{Text: "x"}})
		assert.Contains(t, q, "WHERE FALSE AND")
		assert.Equal(t, []any{"x"}, args)
	})

	t.Run("every sort ends with id tie-breaker", func(t *testing.T) {
		for _, s := range []query.Sort{query.SortTitleAsc, query.SortTitleDesc, query.SortUploadedAsc, query.SortUploadedDesc, "bogus"} {
			q, _ := buildListQuery(query.Filter{Levels: model.SecurityLevels, Params: query.Params{Sort: s}})
			order := q[strings.Index(q, "ORDER BY"):]
			assert.Regexp(t, `d\.id (ASC|DESC)$`, order, "sort %q", s)
		}
	})
}

func TestDocumentPostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	rows := docRow(sqlmock.NewRows(docCols), "d-1", "Report", "public", nil)
	mock.ExpectQuery("SELECT (.+) FROM documents d (.+) WHERE d.security_level IN").
		WithArgs("public", "%.pdf").
		WillReturnRows(rows)

	items, err := repo.List(ctx, query.Filter{
		Levels: []model.SecurityLevel{model.LevelPublic},
		Params: query.Params{Type: query.FacetPDF},
	})

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "d-1", items[0].ID)
	assert.Nil(t, items[0].CategoryID)
	assert.Equal(t, model.LevelPublic, items[0].SecurityLevel)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		rows := docRow(sqlmock.NewRows(docCols), "d-1", "Plan", "secret", "cat-1")
		mock.ExpectQuery("SELECT (.+) FROM documents d (.+) WHERE d.id = ").
			WithArgs("d-1").
			WillReturnRows(rows)

		doc, err := repo.FindByID(ctx, "d-1")
		require.NoError(t, err)
		require.NotNil(t, doc.CategoryID)
		assert.Equal(t, "cat-1", *doc.CategoryID)
		assert.Equal(t, model.LevelSecret, doc.SecurityLevel)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents d (.+) WHERE d.id = ").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		doc, err := repo.FindByID(ctx, "missing")
		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, doc)
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_Create(t *testing.T) {
	now := time.Now().UTC()
	actor := "owner-1"
	doc := &model.Document{
		ID:            "d-1",
		Title:         "Report",
		FileName:      "Report.PDF",
		StoragePath:   "documents/x.pdf",
		Size:          10,
		ContentType:   "application/pdf",
		SecurityLevel: model.LevelInternal,
		OwnerID:       actor,
		OwnerName:     "alice",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	entry := &model.AuditLogEntry{ActorID: &actor, ActorName: "alice", Action: model.ActionUpload, DocumentTitle: "Report", CreatedAt: now}

	t.Run("document and audit committed together", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO documents").
			WithArgs("d-1", "Report", "", "Report.PDF", "documents/x.pdf", int64(10), "application/pdf",
				nil, "internal", actor, now, now).
			WillReturnRows(docRow(sqlmock.NewRows(docCols), "d-1", "Report", "internal", nil))
		mock.ExpectExec("INSERT INTO audit_log").
			WithArgs(actor, "alice", "upload", "Report", now).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		out, err := NewDocumentPostgres(db).Create(context.Background(), doc, entry)
		require.NoError(t, err)
		assert.Equal(t, "d-1", out.ID)
		assert.Equal(t, "alice", out.OwnerName)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("audit failure rolls back", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO documents").
			WillReturnRows(docRow(sqlmock.NewRows(docCols), "d-1", "Report", "internal", nil))
		mock.ExpectExec("INSERT INTO audit_log").WillReturnError(errors.New("audit down"))
		mock.ExpectRollback()

		out, err := NewDocumentPostgres(db).Create(context.Background(), doc, entry)
		assert.EqualError(t, err, "audit down")
		assert.Nil(t, out)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDocumentPostgres_Update(t *testing.T) {
	now := time.Now().UTC()
	cat := "cat-2"
	doc := &model.Document{ID: "d-1", Title: "New", CategoryID: &cat, SecurityLevel: model.LevelSecret, UpdatedAt: now}
	entry := &model.AuditLogEntry{ActorName: "root", Action: model.ActionEdit, DocumentTitle: "New", CreatedAt: now}

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE documents SET title = (.+) WHERE id = ").
			WithArgs("d-1", "New", cat, "secret", now).
			WillReturnRows(docRow(sqlmock.NewRows(docCols), "d-1", "New", "secret", cat))
		mock.ExpectExec("INSERT INTO audit_log").
			WithArgs(nil, "root", "edit", "New", now).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		out, err := NewDocumentPostgres(db).Update(context.Background(), doc, entry)
		require.NoError(t, err)
		assert.Equal(t, "New", out.Title)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row writes no audit", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE documents").WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, err = NewDocumentPostgres(db).Update(context.Background(), doc, entry)
		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDocumentPostgres_Delete(t *testing.T) {
	now := time.Now().UTC()
	actor := "owner-1"
	entry := &model.AuditLogEntry{ActorID: &actor, ActorName: "alice", Action: model.ActionDelete, DocumentTitle: "Q3 Plan", CreatedAt: now}

	t.Run("audit is written before the delete", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO audit_log").
			WithArgs(actor, "alice", "delete", "Q3 Plan", now).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM documents WHERE id = $1")).
			WithArgs("d-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err = NewDocumentPostgres(db).Delete(context.Background(), "d-1", entry)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing document rolls back the audit entry", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO audit_log").WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("DELETE FROM documents").
			WithArgs("missing").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err = NewDocumentPostgres(db).Delete(context.Background(), "missing", entry)
		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDocumentPostgres_CountByOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM documents WHERE owner_id = $1 AND security_level IN ($2, $3)")).
		WithArgs("u-1", "public", "internal").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := NewDocumentPostgres(db).CountByOwner(context.Background(), "u-1", []model.SecurityLevel{model.LevelPublic, model.LevelInternal})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())

	n, err = NewDocumentPostgres(db).CountByOwner(context.Background(), "u-1", nil)
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestDocumentPostgres_ArchiveExpired(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectExec("UPDATE documents d SET archived = TRUE").
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := NewDocumentPostgres(db).ArchiveExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
