package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"convoscore_backend/internal/email"
	"convoscore_backend/internal/events"
	"convoscore_backend/internal/exports"
	"convoscore_backend/internal/notification"
	"convoscore_backend/internal/scheduler"
	"convoscore_backend/internal/whatsapp"
	"convoscore_backend/platform/config"
	"convoscore_backend/platform/db"
	"convoscore_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)

	// Tier alerts fire from worker-side recomputes too.
	sender := initEmailSender(cfg, log)
	notificationModule := notification.New(sender, whatsapp.NewClient(cfg, log), log)
	notificationModule.RegisterHandlers(eventBus)

	var exporter scheduler.SnapshotExporter
	if cfg.IsExportEnabled() {
		exp, err := exports.NewExporter(cfg, pool, log)
		if err != nil {
			log.Error("failed to initialize snapshot exporter", "error", err)
			panic("failed to initialize snapshot exporter: " + err.Error())
		}
		exporter = exp
		log.Info("snapshot exporter initialized", "bucket", cfg.GetMinioBucketScoreSnapshots())
	} else {
		log.Warn("MINIO_ENDPOINT not configured; score snapshot exports disabled")
	}

	worker, err := scheduler.NewWorker(cfg, pool, eventBus, exporter, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func initEmailSender(cfg config.EmailConfig, log *logger.Logger) email.Sender {
	if !cfg.GetEmailEnabled() || cfg.GetSMTPHost() == "" {
		log.Warn("email delivery disabled; tier alerts go to whatsapp only")
		return email.NoopSender{}
	}

	return email.NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
