package plugins

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hitbim/bimio/internal/client/models"
	"github.com/hitbim/bimio/internal/dbx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*SQLiteRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLiteRepository(db), mock, db
}

const (
	deleteQ = `(?s)^\s*DELETE\s+FROM\s+plugins\s*$`
	insertQ = `(?s)^\s*INSERT\s+INTO\s+plugins\s*\(id,\s*name\)\s*VALUES\s*\(\?,\s*\?\)`
	selectQ = `(?s)^\s*SELECT\s+id,\s*name\s+FROM\s+plugins\s+ORDER\s+BY\s+name,\s*id\s*$`
)

func TestReplaceAll_InsertErrorIsWrapped(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectExec(deleteQ).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(insertQ).WithArgs("p-1", "Hello").WillReturnError(errors.New("disk full"))

	err := repo.ReplaceAll(context.Background(), []models.Plugin{{ID: "p-1", Name: "Hello"}, {ID: "p-2", Name: "World"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert plugin p-1: disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClear_DBError(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectExec(deleteQ).WillReturnError(errors.New("locked"))

	err := repo.Clear(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to clear plugins: locked")
}

func TestList_Errors(t *testing.T) {
	t.Run("query", func(t *testing.T) {
		repo, mock, _ := newRepoWithMock(t)
		mock.ExpectQuery(selectQ).WillReturnError(errors.New("no table"))

		_, err := repo.List(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to select plugins")
	})

	t.Run("row", func(t *testing.T) {
		repo, mock, _ := newRepoWithMock(t)
		rows := sqlmock.NewRows([]string{"id", "name"}).
			AddRow("p-1", "Hello").
			RowError(0, errors.New("bad page"))
		mock.ExpectQuery(selectQ).WillReturnRows(rows)

		_, err := repo.List(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to iterate plugin rows")
	})
}

func TestReplaceAll_InTxRollsBackOnError(t *testing.T) {
	_, mock, db := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(deleteQ).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertQ).WithArgs("p-1", "Hello").WillReturnError(errors.New("constraint"))
	mock.ExpectRollback()

	err := dbx.WithTx(context.Background(), db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return NewSQLiteRepository(tx).ReplaceAll(ctx, []models.Plugin{{ID: "p-1", Name: "Hello"}})
	})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
