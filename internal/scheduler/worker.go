package scheduler

import (
	"context"
	"fmt"
	"time"

	"convoscore_backend/internal/conversations/repository"
	"convoscore_backend/internal/conversations/service"
	"convoscore_backend/internal/events"
	"convoscore_backend/platform/apperr"
	"convoscore_backend/platform/config"
	"convoscore_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

const sweepPageSize = 200

// SnapshotExporter writes score snapshots after a completed sweep.
// Optional; nil disables exports.
type SnapshotExporter interface {
	ExportAll(ctx context.Context) error
}

type Worker struct {
	server        *asynq.Server
	mux           *asynq.ServeMux
	svc           *service.Service
	repo          *repository.Repository
	exporter      SnapshotExporter
	sweepInterval time.Duration
	log           *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, bus events.Bus, exporter SnapshotExporter, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	repo := repository.New(pool)
	mux := asynq.NewServeMux()
	w := &Worker{
		server:        server,
		mux:           mux,
		svc:           service.New(repo, bus, log),
		repo:          repo,
		exporter:      exporter,
		sweepInterval: cfg.GetRescoreSweepInterval(),
		log:           log,
	}

	mux.HandleFunc(TaskConversationRecompute, w.handleConversationRecompute)
	mux.HandleFunc(TaskRescoreSweep, w.handleRescoreSweep)

	return w, nil
}

func (w *Worker) handleConversationRecompute(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseConversationRecomputePayload(task)
	if err != nil {
		return err
	}

	conversationID, err := uuid.Parse(payload.ConversationID)
	if err != nil {
		return fmt.Errorf("bad conversation id %q: %w", payload.ConversationID, asynq.SkipRetry)
	}

	_, _, err = w.svc.Recompute(ctx, conversationID)
	if apperr.GetKind(err) == apperr.KindNotFound {
		// conversation deleted between enqueue and run
		return nil
	}
	return err
}

func (w *Worker) handleRescoreSweep(ctx context.Context, _ *asynq.Task) error {
	return w.rescoreSweep(ctx)
}

// rescoreSweep recomputes every conversation that carries a metrics
// snapshot, so recency decay reaches stored scores, then hands the
// fresh scores to the exporter.
func (w *Worker) rescoreSweep(ctx context.Context) error {
	started := time.Now()
	count := 0
	afterID := uuid.Nil

	for {
		ids, err := w.repo.ListScoredConversationIDs(ctx, afterID, sweepPageSize)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			break
		}

		for _, id := range ids {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if _, _, err := w.svc.Recompute(ctx, id); err != nil {
				if apperr.GetKind(err) == apperr.KindNotFound {
					continue
				}
				w.log.Error("rescore failed", "conversationId", id, "error", err)
				continue
			}
			count++
		}

		afterID = ids[len(ids)-1]
	}

	w.log.Info("rescore sweep finished", "rescored", count, "took", time.Since(started).String())

	if w.exporter != nil {
		if err := w.exporter.ExportAll(ctx); err != nil {
			w.log.Error("snapshot export failed", "error", err)
		}
	}

	return nil
}

// Run blocks serving tasks until the context is cancelled. A periodic
// sweep runs alongside the task handlers.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if w.sweepInterval > 0 {
		go w.runSweepLoop(ctx)
	}

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) runSweepLoop(ctx context.Context) {
	ticker := time.NewTicker(w.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.rescoreSweep(ctx); err != nil {
				w.log.Error("periodic rescore sweep failed", "error", err)
			}
		}
	}
}
