package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/online-cinema/internal/database"
	"github.com/iliyamo/online-cinema/internal/model"
)

// TokenRepo persists activation, password reset and refresh tokens. The
// three tables share one shape, so every method takes the token kind.
type TokenRepo struct{ db database.DBTX }

func NewTokenRepo(db database.DBTX) *TokenRepo { return &TokenRepo{db: db} }

// WithTx returns a copy of the repository bound to tx.
func (r *TokenRepo) WithTx(tx *sql.Tx) *TokenRepo { return &TokenRepo{db: tx} }

func table(kind model.TokenKind) (string, error) {
	switch kind {
	case model.ActivationToken, model.PasswordResetToken, model.RefreshToken:
		return string(kind), nil
	}
	return "", fmt.Errorf("unknown token kind %q", kind)
}

// Create inserts a token row for userID.
func (r *TokenRepo) Create(ctx context.Context, kind model.TokenKind, userID uint64, token string, expiresAt time.Time) error {
	t, err := table(kind)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		"INSERT INTO "+t+" (user_id, token, expires_at) VALUES (?, ?, ?)",
		userID, token, expiresAt.UTC())
	return err
}

// GetByEmailAndToken finds a token scoped to the owner's email, so a bare
// token guess reveals nothing about which emails exist.
func (r *TokenRepo) GetByEmailAndToken(ctx context.Context, kind model.TokenKind, email, token string) (model.Token, error) {
	t, err := table(kind)
	if err != nil {
		return model.Token{}, err
	}
	return r.getOne(ctx,
		"SELECT t.id, t.user_id, t.token, t.expires_at, t.created_at FROM "+t+" t "+
			"JOIN users u ON u.id = t.user_id WHERE u.email = ? AND t.token = ? LIMIT 1",
		email, token)
}

// GetByUser returns the user's token of the given kind.
func (r *TokenRepo) GetByUser(ctx context.Context, kind model.TokenKind, userID uint64) (model.Token, error) {
	t, err := table(kind)
	if err != nil {
		return model.Token{}, err
	}
	return r.getOne(ctx,
		"SELECT t.id, t.user_id, t.token, t.expires_at, t.created_at FROM "+t+" t WHERE t.user_id = ? LIMIT 1",
		userID)
}

// GetByToken looks a token up by its value.
func (r *TokenRepo) GetByToken(ctx context.Context, kind model.TokenKind, token string) (model.Token, error) {
	t, err := table(kind)
	if err != nil {
		return model.Token{}, err
	}
	return r.getOne(ctx,
		"SELECT t.id, t.user_id, t.token, t.expires_at, t.created_at FROM "+t+" t WHERE t.token = ? LIMIT 1",
		token)
}

func (r *TokenRepo) getOne(ctx context.Context, q string, args ...any) (model.Token, error) {
	var tok model.Token
	err := r.db.QueryRowContext(ctx, q, args...).
		Scan(&tok.ID, &tok.UserID, &tok.Token, &tok.ExpiresAt, &tok.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return tok, ErrTokenNotFound
	}
	return tok, err
}

// DeleteByID removes one token row.
func (r *TokenRepo) DeleteByID(ctx context.Context, kind model.TokenKind, id uint64) error {
	t, err := table(kind)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, "DELETE FROM "+t+" WHERE id = ?", id)
	return err
}

// DeleteByUser removes every token of the given kind owned by userID.
func (r *TokenRepo) DeleteByUser(ctx context.Context, kind model.TokenKind, userID uint64) error {
	t, err := table(kind)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, "DELETE FROM "+t+" WHERE user_id = ?", userID)
	return err
}

// DeleteExpired removes rows whose expiry is strictly before now and
// returns how many were deleted.
func (r *TokenRepo) DeleteExpired(ctx context.Context, kind model.TokenKind, now time.Time) (int64, error) {
	t, err := table(kind)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM "+t+" WHERE expires_at < ?", now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
