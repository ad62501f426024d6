// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// services to distinguish "no such row" from storage failures without
// inspecting driver errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

var (
	// ErrEmailExists is returned when the unique email index rejects an
	// insert, typically because a concurrent registration won the race.
	ErrEmailExists = errors.New("email already exists")
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrGroupNotFound is returned when a seeded user group is missing.
	ErrGroupNotFound = errors.New("user group not found")
	// ErrTokenNotFound is returned when no token row matches the lookup.
	ErrTokenNotFound = errors.New("token not found")
	// ErrMovieNotFound is returned when no movie has the requested id.
	ErrMovieNotFound = errors.New("movie not found")
)

// mysqlDuplicateEntry is the server error number for unique key violations.
const mysqlDuplicateEntry = 1062

func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
