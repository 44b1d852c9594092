package main

import (
	"context"
	"sync/atomic"
	"time"

	"convoscore_backend/internal/conversations/repository"
	"convoscore_backend/internal/conversations/service"
	"convoscore_backend/internal/events"
	"convoscore_backend/platform/apperr"
	"convoscore_backend/platform/config"
	"convoscore_backend/platform/db"
	"convoscore_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	batchSize   = 200
	concurrency = 8
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting conversation rescore backfill")

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	repo := repository.New(pool)
	svc := service.New(repo, events.NewInMemoryBus(log), log)

	var processed, rescored, failed atomic.Int64

	cursorID := uuid.Nil
	for {
		ids, err := repo.ListConversationIDs(ctx, cursorID, batchSize)
		if err != nil {
			log.Error("failed to list conversations", "error", err)
			break
		}
		if len(ids) == 0 {
			break
		}
		cursorID = ids[len(ids)-1]

		grp, grpCtx := errgroup.WithContext(ctx)
		grp.SetLimit(concurrency)
		for _, id := range ids {
			grp.Go(func() error {
				processed.Add(1)
				if err := rescoreConversation(grpCtx, svc, id); err != nil {
					failed.Add(1)
					log.Error("failed to rescore conversation", "conversationId", id, "error", err)
					return nil
				}
				rescored.Add(1)
				return nil
			})
		}
		if err := grp.Wait(); err != nil {
			log.Error("rescore batch aborted", "error", err)
			break
		}
	}

	log.Info("conversation rescore backfill completed",
		"processed", processed.Load(),
		"rescored", rescored.Load(),
		"failed", failed.Load())
}

func rescoreConversation(parentCtx context.Context, svc *service.Service, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(parentCtx, 20*time.Second)
	defer cancel()

	_, _, err := svc.Recompute(ctx, id)
	if err != nil {
		if apperr.GetKind(err) == apperr.KindNotFound {
			return nil
		}
		return err
	}
	return nil
}
