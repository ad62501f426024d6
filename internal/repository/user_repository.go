package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/online-cinema/internal/database"
	"github.com/iliyamo/online-cinema/internal/model"
)

const userColumns = "u.id, u.email, u.password_hash, u.is_active, u.group_id, g.name, u.created_at, u.updated_at"

// UserRepo reads and writes the `users` and `user_groups` tables. Emails
// are matched exactly as stored; the column uses a binary collation.
type UserRepo struct{ db database.DBTX }

func NewUserRepo(db database.DBTX) *UserRepo { return &UserRepo{db: db} }

// WithTx returns a copy of the repository bound to tx.
func (r *UserRepo) WithTx(tx *sql.Tx) *UserRepo { return &UserRepo{db: tx} }

// ExistsByEmail reports whether a user with exactly this email exists.
func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM users WHERE email = ? LIMIT 1", email).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// GetGroupByName fetches a seeded group.
func (r *UserRepo) GetGroupByName(ctx context.Context, name model.GroupName) (model.UserGroup, error) {
	var g model.UserGroup
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name FROM user_groups WHERE name = ? LIMIT 1", string(name)).Scan(&g.ID, &g.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return g, ErrGroupNotFound
	}
	return g, err
}

// Create inserts a user and returns its ID. The password must already be
// hashed. A unique key violation is reported as ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, email, passwordHash string, groupID uint8) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, group_id) VALUES (?, ?, ?)",
		email, passwordHash, groupID)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user together with the group name.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getOne(ctx, "u.email = ?", email)
}

// GetByID fetches a user together with the group name.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.getOne(ctx, "u.id = ?", id)
}

func (r *UserRepo) getOne(ctx context.Context, cond string, arg any) (model.User, error) {
	var u model.User
	err := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users u JOIN user_groups g ON g.id = u.group_id WHERE "+cond+" LIMIT 1",
		arg).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.IsActive, &u.GroupID, &u.Group, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrUserNotFound
	}
	return u, err
}

// Activate flips the active flag.
func (r *UserRepo) Activate(ctx context.Context, id uint64) error {
	return r.updateOne(ctx, "UPDATE users SET is_active = TRUE WHERE id = ?", id)
}

// UpdatePassword stores a new password hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, passwordHash string) error {
	return r.updateOne(ctx, "UPDATE users SET password_hash = ? WHERE id = ?", passwordHash, id)
}

func (r *UserRepo) updateOne(ctx context.Context, q string, args ...any) error {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUserNotFound
	}
	return nil
}
