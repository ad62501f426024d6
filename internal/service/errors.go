package service

import (
	"errors"
	"fmt"
)

// Errors returned by the services. Handlers map them to HTTP statuses with
// errors.Is; everything else is an internal failure.
var (
	ErrEmailTaken          = errors.New("a user with this email already exists")
	ErrDefaultGroupMissing = errors.New("default user group not found")
	ErrInvalidToken        = errors.New("invalid or expired activation token")
	ErrAlreadyActive       = errors.New("user account is already active")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInactiveUser        = errors.New("user account is not activated")
	ErrRefreshExpired      = errors.New("token has expired")
	ErrRefreshInvalid      = errors.New("invalid token")
	ErrRefreshNotFound     = errors.New("refresh token not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidResetToken   = errors.New("invalid email or token")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrNoMovies            = errors.New("no movies found")
	ErrMovieNotFound       = errors.New("movie with the given ID was not found")
	ErrInternal            = errors.New("internal error")
)

// internal tags a storage or infrastructure failure. The cause stays in the
// chain for logging; callers only ever show ErrInternal's text.
func internal(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrInternal, err)
}
