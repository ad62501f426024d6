package database

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	dsn := DSN("cinema", "secret", "db", "3306", "cinema_db")

	assert.True(t, strings.HasPrefix(dsn, "cinema:secret@tcp(db:3306)/cinema_db?"))
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = WithTx(context.Background(), db, func(tx *sql.Tx) error {
		_, err := tx.Exec("UPDATE users SET is_active = TRUE")
		return err
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxRollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()

	err = WithTx(context.Background(), db, func(tx *sql.Tx) error { return boom })

	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = WithTx(context.Background(), db, func(tx *sql.Tx) error { panic("bad") })
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxReportsCommitFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("lost connection"))

	err = WithTx(context.Background(), db, func(tx *sql.Tx) error { return nil })

	assert.ErrorContains(t, err, "commit tx")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatementsCoverEveryTable(t *testing.T) {
	stmts := Statements()
	joined := strings.Join(stmts, "\n")

	for _, table := range []string{
		"user_groups", "users", "activation_tokens", "password_reset_tokens", "refresh_tokens",
		"certifications", "genres", "stars", "directors", "movies",
		"movie_genres", "movie_stars", "movie_directors",
	} {
		assert.Contains(t, joined, "CREATE TABLE IF NOT EXISTS "+table+" (")
	}
	assert.True(t, strings.HasPrefix(stmts[len(stmts)-1], "INSERT IGNORE INTO user_groups"))
}

func TestTokenColumnsCompareCaseSensitively(t *testing.T) {
	tokenCol := regexp.MustCompile(`\btoken\s+VARCHAR\(\d+\)\s+COLLATE utf8mb4_bin\b`)

	for _, table := range []string{"activation_tokens", "password_reset_tokens", "refresh_tokens"} {
		var stmt string
		for _, s := range Statements() {
			if strings.HasPrefix(s, "CREATE TABLE IF NOT EXISTS "+table+" (") {
				stmt = s
			}
		}
		require.NotEmpty(t, stmt, table)
		assert.Regexp(t, tokenCol, stmt, table)
		// tables created before the collation was set are converted in place
		assert.Contains(t, Statements(), "ALTER TABLE "+table+" MODIFY "+strings.Join(strings.Fields(tokenCol.FindString(stmt)), " ")+" NOT NULL")
	}
}

func TestMigrateStopsAtFirstFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS user_groups").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnError(errors.New("denied"))

	err = Migrate(context.Background(), db)

	assert.ErrorContains(t, err, "schema statement 2")
	assert.NoError(t, mock.ExpectationsWereMet())
}
