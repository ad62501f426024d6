// Package job holds the background jobs run by the worker's cron scheduler.
package job

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/online-cinema/internal/database"
	"github.com/iliyamo/online-cinema/internal/logger"
	"github.com/iliyamo/online-cinema/internal/model"
	"github.com/iliyamo/online-cinema/internal/repository"
)

// CleanupTokensJob deletes expired activation, password reset and refresh
// tokens.
type CleanupTokensJob struct {
	db      *sql.DB
	tokens  *repository.TokenRepo
	now     func() time.Time
	timeout time.Duration
}

// NewCleanupTokensJob creates a new token cleanup job
func NewCleanupTokensJob(db *sql.DB) *CleanupTokensJob {
	return &CleanupTokensJob{
		db:      db,
		tokens:  repository.NewTokenRepo(db),
		now:     func() time.Time { return time.Now().UTC() },
		timeout: time.Minute,
	}
}

// Run is called by cron. Failures are logged; the next tick tries again.
func (j *CleanupTokensJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	logger.Debug("Token cleanup job started")
	deleted, err := j.RunContext(ctx)
	if err != nil {
		logger.Warning("Token cleanup failed, nothing was deleted:", err)
		return
	}
	logger.Infof("Token cleanup removed %d activation, %d password reset, %d refresh tokens",
		deleted[model.ActivationToken], deleted[model.PasswordResetToken], deleted[model.RefreshToken])
}

// RunContext removes every token that expired strictly before now. All three
// tables are cleaned in one transaction: either every delete commits or
// none does.
func (j *CleanupTokensJob) RunContext(ctx context.Context) (map[model.TokenKind]int64, error) {
	now := j.now()
	deleted := make(map[model.TokenKind]int64, len(model.TokenKinds))
	err := database.WithTx(ctx, j.db, func(tx *sql.Tx) error {
		tokens := j.tokens.WithTx(tx)
		for _, kind := range model.TokenKinds {
			n, err := tokens.DeleteExpired(ctx, kind, now)
			if err != nil {
				return err
			}
			deleted[kind] = n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}
