package db

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS card_keys`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, Migrate(context.Background(), sqlDB))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS card_keys`).
		WillReturnError(errors.New("permission denied"))

	err = Migrate(context.Background(), sqlDB)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestCloseNil(t *testing.T) {
	var d *DB
	assert.NotPanics(t, d.Close)
}
