package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/Chambu-Digital/javic-collection-sub001/internal/app"
	"github.com/Chambu-Digital/javic-collection-sub001/internal/auth"
	jobmetrics "github.com/Chambu-Digital/javic-collection-sub001/internal/jobs"
	"github.com/Chambu-Digital/javic-collection-sub001/internal/platform/db"
	"github.com/Chambu-Digital/javic-collection-sub001/internal/shared"
	"github.com/Chambu-Digital/javic-collection-sub001/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: cfg.PGMaxConns, MinConns: cfg.PGMinConns})
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	queueOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	mailer := jobs.NewClient(queueOpts)
	defer func() {
		if err := mailer.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	processor := jobs.NewProcessor(jobs.ProcessorConfig{
		Logger:   logger,
		Metrics:  jobmetrics.NewMetrics(nil),
		Mailer:   mailer,
		Audit:    shared.NewAuditLogger(pool),
		Sessions: auth.NewRepository(pool),
	})

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   queueOpts,
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Processor:   processor,
		Cron: []jobs.CronRegistration{
			{Spec: cfg.SessionPruneCron, Task: jobs.NewPruneSessionsTask()},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
