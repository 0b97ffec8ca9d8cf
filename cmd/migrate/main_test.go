package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMigration(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExtractMigrationPart(t *testing.T) {
	content := `
-- +migrate Up
CREATE TABLE payment_attempts (id uuid);
CREATE INDEX idx_attempts ON payment_attempts (id);

-- +migrate Down
DROP TABLE payment_attempts;
`
	t.Run("Extract Up", func(t *testing.T) {
		up := extractMigrationPart(content, "Up")
		assert.Contains(t, up, "CREATE TABLE payment_attempts")
		assert.Contains(t, up, "CREATE INDEX")
		assert.NotContains(t, up, "DROP TABLE")
		assert.NotContains(t, up, "-- +migrate")
	})

	t.Run("Extract Down", func(t *testing.T) {
		down := extractMigrationPart(content, "Down")
		assert.Contains(t, down, "DROP TABLE payment_attempts")
		assert.NotContains(t, down, "CREATE TABLE")
	})

	t.Run("Down Before Up", func(t *testing.T) {
		reversed := "-- +migrate Down\nDROP TABLE x;\n-- +migrate Up\nCREATE TABLE x (id int);"
		assert.Equal(t, "CREATE TABLE x (id int);\n", extractMigrationPart(reversed, "Up"))
	})

	t.Run("Missing Section", func(t *testing.T) {
		assert.Empty(t, extractMigrationPart("-- +migrate Up\nSELECT 1;", "Down"))
	})
}

func TestRunMigrationsUp(t *testing.T) {
	t.Run("Applies Pending In Transaction", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		dir := t.TempDir()
		file := writeMigration(t, dir, "001_init.sql", "-- +migrate Up\nCREATE TABLE test (id int);")

		mock.ExpectQuery("SELECT EXISTS.*schema_migrations").
			WithArgs("001_init.sql").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectBegin()
		mock.ExpectExec("CREATE TABLE test").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("INSERT INTO schema_migrations").
			WithArgs("001_init.sql").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		require.NoError(t, runMigrationsUp(context.Background(), db, []string{file}))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Skips Applied", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		file := writeMigration(t, t.TempDir(), "001_init.sql", "-- +migrate Up\nCREATE TABLE test (id int);")

		mock.ExpectQuery("SELECT EXISTS.*schema_migrations").
			WithArgs("001_init.sql").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		require.NoError(t, runMigrationsUp(context.Background(), db, []string{file}))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rolls Back On Failure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		file := writeMigration(t, t.TempDir(), "001_bad.sql", "-- +migrate Up\nCREATE TABLE broken (;")

		mock.ExpectQuery("SELECT EXISTS.*schema_migrations").
			WithArgs("001_bad.sql").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectBegin()
		mock.ExpectExec("CREATE TABLE broken").WillReturnError(errors.New("syntax error"))
		mock.ExpectRollback()

		err = runMigrationsUp(context.Background(), db, []string{file})
		assert.ErrorContains(t, err, "001_bad.sql")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRunMigrationsDown(t *testing.T) {
	t.Run("Rolls Back Latest", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		dir := t.TempDir()
		file := writeMigration(t, dir, "002_attempts.sql",
			"-- +migrate Up\nCREATE TABLE payment_attempts (id uuid);\n-- +migrate Down\nDROP TABLE payment_attempts;\n")

		mock.ExpectQuery("SELECT version FROM schema_migrations").
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("002_attempts.sql"))
		mock.ExpectBegin()
		mock.ExpectExec("DROP TABLE payment_attempts").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("DELETE FROM schema_migrations").
			WithArgs("002_attempts.sql").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, runMigrationsDown(context.Background(), db, []string{file}))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Nothing Applied", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT version FROM schema_migrations").
			WillReturnRows(sqlmock.NewRows([]string{"version"}))

		require.NoError(t, runMigrationsDown(context.Background(), db, nil))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Missing File", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT version FROM schema_migrations").
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("009_gone.sql"))

		err = runMigrationsDown(context.Background(), db, nil)
		assert.ErrorContains(t, err, "009_gone.sql")
	})
}

func TestRun(t *testing.T) {
	t.Run("Unknown Mode", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))

		err = run(context.Background(), db, "sideways", t.TempDir())
		assert.ErrorContains(t, err, "unknown mode")
	})

	t.Run("Repository Migrations Parse", func(t *testing.T) {
		files, err := filepath.Glob(filepath.Join("..", "..", "migrations", "*.sql"))
		require.NoError(t, err)
		require.NotEmpty(t, files)

		for _, f := range files {
			content, err := os.ReadFile(f)
			require.NoError(t, err)
			assert.NotEmpty(t, extractMigrationPart(string(content), "Up"), f)
			assert.NotEmpty(t, extractMigrationPart(string(content), "Down"), f)
		}
	})
}
