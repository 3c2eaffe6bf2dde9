package database

import (
	"context"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateAppliesEveryStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	for range schema {
		mock.ExpectExec(".*").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectCommit()

	require.NoError(t, Migrate(context.Background(), sqlx.NewDb(db, "sqlmock")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateRollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(".*").WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()

	err = Migrate(context.Background(), sqlx.NewDb(db, "sqlmock"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apply schema")
	assert.NoError(t, mock.ExpectationsWereMet())
}
