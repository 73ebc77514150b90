package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"trackapi/internal/model"
	"trackapi/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var captureCols = []string{"id", "request_id", "type", "storage_path", "size", "content_type", "created_at"}

func TestCapturePostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewCapturePostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	c := &model.Capture{
		ID:          "test-uuid",
		RequestID:   "req-1",
		Type:        "track",
		StoragePath: "captures/track/test-uuid.json",
		Size:        17,
		ContentType: "application/json",
		CreatedAt:   now,
	}

	rows := sqlmock.NewRows(captureCols).
		AddRow(c.ID, c.RequestID, c.Type, c.StoragePath, c.Size, c.ContentType, c.CreatedAt)

	mock.ExpectQuery("INSERT INTO captures").
		WithArgs(c.ID, c.RequestID, c.Type, c.StoragePath, c.Size, c.ContentType, c.CreatedAt).
		WillReturnRows(rows)

	result, err := repo.Create(ctx, c)

	assert.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, c.ID, result.ID)
	assert.Equal(t, "track", result.Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCapturePostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewCapturePostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows(captureCols).
			AddRow("test-id", "req-1", "identify", "captures/identify/test-id.json", 42, "application/json", time.Now())

		mock.ExpectQuery("SELECT (.+) FROM captures WHERE id = ?").
			WithArgs("test-id").
			WillReturnRows(rows)

		c, err := repo.FindByID(ctx, "test-id")

		assert.NoError(t, err)
		require.NotNil(t, c)
		assert.Equal(t, "test-id", c.ID)
		assert.Equal(t, int64(42), c.Size)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM captures WHERE id = ?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		c, err := repo.FindByID(ctx, "missing")

		assert.True(t, errors.Is(err, sql.ErrNoRows))
		assert.Nil(t, c)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCapturePostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewCapturePostgres(db)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM captures").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

		rows := sqlmock.NewRows(captureCols).
			AddRow("b", "req-2", "page", "captures/page/b.json", 2, "application/json", time.Now()).
			AddRow("a", "req-1", "track", "captures/track/a.json", 2, "application/json", time.Now().Add(-time.Minute))

		mock.ExpectQuery("SELECT (.+) FROM captures ORDER BY").
			WithArgs(10, 0).
			WillReturnRows(rows)

		res, err := repo.List(ctx, repository.PageQuery{Limit: 10, Offset: 0})

		require.NoError(t, err)
		assert.Equal(t, 2, res.Total)
		require.Len(t, res.Items, 2)
		assert.Equal(t, "b", res.Items[0].ID)
	})

	t.Run("count error", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM captures").
			WillReturnError(errors.New("db down"))

		res, err := repo.List(ctx, repository.PageQuery{Limit: 10, Offset: 0})

		assert.Error(t, err)
		assert.Nil(t, res)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCapturePostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewCapturePostgres(db)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM captures WHERE id = ?").
		WithArgs("test-id").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Delete(ctx, "test-id")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
