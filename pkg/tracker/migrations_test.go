package tracker

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMigrationsVersionScanError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS tracker_migrations")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT version FROM tracker_migrations ORDER BY version")).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).
			AddRow(1).
			RowError(0, assert.AnError))

	// A broken version scan must abort the run, not apply migrations over an
	// incomplete applied-set.
	err = RunMigrations(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to iterate migrations")
	assert.NoError(t, mock.ExpectationsWereMet())
}
