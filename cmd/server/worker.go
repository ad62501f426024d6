package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iliyamo/online-cinema/internal/config"
	"github.com/iliyamo/online-cinema/internal/job"
	"github.com/iliyamo/online-cinema/internal/logger"
	"github.com/iliyamo/online-cinema/internal/queue"
)

func newWorkerCommand() *cobra.Command {
	var (
		schedule   string
		noConsumer bool
	)
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run the token cleanup scheduler and the email consumer",
		Long: `Run background processing:

  - the expired token cleanup on a UTC cron schedule (CLEANUP_SCHEDULE)
  - the consumer of the notifications.email queue, delivering mail over SMTP
    when SMTP_HOST is set and to MAIL_LOG_PATH otherwise`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer db.Close()

			if schedule == "" {
				schedule = cfg.CleanupSchedule
			}
			sched, err := job.NewScheduler(schedule, job.NewCleanupTokensJob(db))
			if err != nil {
				return err
			}
			sched.Start()
			defer func() { <-sched.Stop().Done() }()
			logger.Infof("token cleanup scheduled: %s (UTC)", schedule)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if noConsumer {
				<-ctx.Done()
				return nil
			}
			err = queue.NewConsumer(cfg.RabbitURL, newMailer(cfg)).Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&schedule, "schedule", "", "cron spec for the token cleanup (overrides CLEANUP_SCHEDULE)")
	cmd.Flags().BoolVar(&noConsumer, "no-consumer", false, "run only the scheduler")
	return cmd
}

func newMailer(cfg config.Config) queue.Mailer {
	if cfg.SMTPHost == "" {
		logger.Infof("SMTP_HOST not set; writing emails to %s", cfg.MailLogPath)
		return queue.NewFileMailer(cfg.MailLogPath)
	}
	return &queue.SMTPMailer{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	}
}
