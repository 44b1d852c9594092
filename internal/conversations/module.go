// Package conversations provides the conversations bounded context
// module: message history, metrics extraction and lead scoring.
package conversations

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"convoscore_backend/internal/conversations/handler"
	"convoscore_backend/internal/conversations/repository"
	"convoscore_backend/internal/conversations/service"
	"convoscore_backend/internal/events"
	apphttp "convoscore_backend/internal/http"
	"convoscore_backend/platform/logger"
	"convoscore_backend/platform/validator"
)

// RecomputeEnqueuer hands a recompute off to the durable task queue.
type RecomputeEnqueuer interface {
	EnqueueRecompute(ctx context.Context, conversationID uuid.UUID) error
}

// Module is the conversations bounded context module implementing http.Module.
type Module struct {
	handler  *handler.Handler
	service  *service.Service
	repo     *repository.Repository
	enqueuer RecomputeEnqueuer
	log      *logger.Logger
}

// NewModule creates and initializes the conversations module. enqueuer
// may be nil; recomputes then run inline on the event handler goroutine.
func NewModule(pool *pgxpool.Pool, bus events.Bus, enqueuer RecomputeEnqueuer, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler:  h,
		service:  svc,
		repo:     repo,
		enqueuer: enqueuer,
		log:      log,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "conversations"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for direct access if needed.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts conversation routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/conversations")
	group.POST("", m.handler.CreateConversation)
	group.GET("", m.handler.ListScored)
	group.POST("/:id/messages", m.handler.RecordMessage)
	group.GET("/:id/messages", m.handler.ListMessages)
	group.GET("/:id/metrics", m.handler.GetMetrics)
	group.GET("/:id/score", m.handler.GetScore)
	group.POST("/:id/recompute", m.handler.Recompute)
}

// RegisterHandlers subscribes the recompute trigger to message events.
func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	bus.Subscribe(events.MessageRecorded{}.EventName(), m)
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.MessageRecorded:
		if m.enqueuer != nil {
			err := m.enqueuer.EnqueueRecompute(ctx, e.ConversationID)
			if err == nil {
				return nil
			}
			m.log.Error("recompute enqueue failed, running inline", "conversationId", e.ConversationID, "error", err)
		}
		_, _, err := m.service.Recompute(ctx, e.ConversationID)
		return err
	default:
		return nil
	}
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
