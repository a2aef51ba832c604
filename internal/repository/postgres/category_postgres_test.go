package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docarchive/internal/model"
	"docarchive/internal/repository"
)

var categoryCols = []string{"id", "name", "retention_days", "created_at"}

func TestCategoryPostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id, name, retention_days, created_at FROM categories ORDER BY").
		WillReturnRows(sqlmock.NewRows(categoryCols).
			AddRow("c-1", "Finance", 365, now).
			AddRow("c-2", "HR", 0, now))

	items, err := NewCategoryPostgres(db).List(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, "Finance", items[0].Name)
	assert.Equal(t, 365, items[0].RetentionDays)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryPostgres_Create(t *testing.T) {
	now := time.Now().UTC()
	c := &model.Category{ID: "c-1", Name: "Finance", RetentionDays: 30, CreatedAt: now}

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("INSERT INTO categories").
			WithArgs("c-1", "Finance", 30, now).
			WillReturnRows(sqlmock.NewRows(categoryCols).AddRow("c-1", "Finance", 30, now))

		out, err := NewCategoryPostgres(db).Create(context.Background(), c)
		require.NoError(t, err)
		assert.Equal(t, "c-1", out.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate name", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("INSERT INTO categories").
			WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key"})

		out, err := NewCategoryPostgres(db).Create(context.Background(), c)
		assert.ErrorIs(t, err, repository.ErrDuplicate)
		assert.Nil(t, out)
	})
}

func TestCategoryPostgres_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("UPDATE categories SET name = ").
		WithArgs("missing", "X", 0).
		WillReturnError(sql.ErrNoRows)

	_, err = NewCategoryPostgres(db).Update(context.Background(), &model.Category{ID: "missing", Name: "X"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryPostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewCategoryPostgres(db)

	t.Run("deletes only the category row", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM categories WHERE id = $1")).
			WithArgs("c-finance").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(context.Background(), "c-finance"))
	})

	t.Run("unknown id", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM categories").
			WithArgs("missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Delete(context.Background(), "missing"), sql.ErrNoRows)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
