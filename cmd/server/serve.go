package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/online-cinema/internal/config"
	"github.com/iliyamo/online-cinema/internal/handler"
	"github.com/iliyamo/online-cinema/internal/logger"
	"github.com/iliyamo/online-cinema/internal/queue"
	"github.com/iliyamo/online-cinema/internal/repository"
	"github.com/iliyamo/online-cinema/internal/router"
	"github.com/iliyamo/online-cinema/internal/service"
	"github.com/iliyamo/online-cinema/internal/utils"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer db.Close()

	jwtm, err := utils.NewJWTManager(cfg.AccessSecret, cfg.RefreshSecret, cfg.JWTAlgorithm, cfg.AccessTTL, cfg.RefreshTTL)
	if err != nil {
		return err
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warning("redis unreachable; response cache and rate limiting are disabled")
	} else {
		defer rdb.Close()
	}

	accounts := service.NewAccountService(db, jwtm, queue.NewPublisher(cfg.RabbitURL), service.AccountConfig{
		ActivationTTL:     cfg.ActivationTokenTTL,
		PasswordResetTTL:  cfg.PasswordResetTokenTTL,
		BcryptCost:        cfg.BcryptCost,
		ActivationLink:    cfg.ActivationLink,
		LoginLink:         cfg.LoginLink,
		PasswordResetLink: cfg.PasswordResetLink,
	})
	catalog := service.NewCatalogService(repository.NewMovieRepo(db))

	e := router.New(router.Deps{
		Prefix:    cfg.APIPrefix,
		Accounts:  handler.NewAccountHandler(accounts),
		Movies:    handler.NewMovieHandler(catalog),
		Tokens:    jwtm,
		DB:        db,
		Redis:     rdb,
		Cache:     config.LoadCacheConfig(),
		RateLimit: config.LoadRateLimitConfig(),
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.Port
	logger.Infof("listening on %s (env=%s)", addr, cfg.Env)
	errCh := make(chan error, 1)
	go func() { errCh <- e.Start(addr) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
