package chunks

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophdrive/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const putQuery = `(?s)^\s*INSERT\s+INTO\s+chunks\b.*ON\s+CONFLICT\s*\(file_id,\s*idx\)\s*DO\s+UPDATE\s+SET\b.*blob_key\s*=\s*EXCLUDED\.blob_key`

func TestPut(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(putQuery).
		WithArgs("f1", 2, int64(100), int64(40), "u/f1/000002").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Put(context.Background(), &models.Chunk{FileID: "f1", Index: 2, OriginalSize: 100, CompressedSize: 40, BlobKey: "u/f1/000002"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPut_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(putQuery).WillReturnError(errors.New("db down"))

	err := repo.Put(context.Background(), &models.Chunk{FileID: "f1"})
	assert.ErrorContains(t, err, "db down")
}

func TestListByFile(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`(?s)SELECT\s+file_id,\s*idx.*FROM\s+chunks\s+WHERE\s+file_id\s*=\s*\$1\s+ORDER\s+BY\s+idx`).
		WithArgs("f1").
		WillReturnRows(sqlmock.NewRows([]string{"file_id", "idx", "original_size", "compressed_size", "blob_key", "created_at"}).
			AddRow("f1", 0, int64(10), int64(5), "k0", now).
			AddRow("f1", 1, int64(7), int64(3), "k1", now))

	list, err := repo.ListByFile(context.Background(), "f1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "k1", list[1].BlobKey)
	assert.Equal(t, int64(7), list[1].OriginalSize)
}

func TestDeleteByFile(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^DELETE\s+FROM\s+chunks\s+WHERE\s+file_id\s*=\s*\$1$`).
		WithArgs("f1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.DeleteByFile(context.Background(), "f1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
