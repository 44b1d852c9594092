package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"convoscore_backend/internal/conversations/service"
	"convoscore_backend/internal/conversations/transport"
	"convoscore_backend/platform/httpkit"
	"convoscore_backend/platform/validator"
)

// Handler handles HTTP requests for conversations.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid conversation id"
)

// New creates a new conversations handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// CreateConversation registers a conversation.
// POST /api/v1/conversations
func (h *Handler) CreateConversation(c *gin.Context) {
	var req transport.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	tenantID, ok := httpkit.MustTenantID(c)
	if !ok {
		return
	}

	result, err := h.svc.CreateConversation(c.Request.Context(), tenantID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// ListScored serves the triage listing.
// GET /api/v1/conversations
func (h *Handler) ListScored(c *gin.Context) {
	var req transport.ListScoredRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	tenantID, ok := httpkit.MustTenantID(c)
	if !ok {
		return
	}

	result, err := h.svc.ListScored(c.Request.Context(), tenantID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// RecordMessage appends a message to the conversation's history.
// POST /api/v1/conversations/:id/messages
func (h *Handler) RecordMessage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req transport.RecordMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	tenantID, ok := httpkit.MustTenantID(c)
	if !ok {
		return
	}

	result, err := h.svc.RecordMessage(c.Request.Context(), tenantID, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// ListMessages returns the ordered message history.
// GET /api/v1/conversations/:id/messages
func (h *Handler) ListMessages(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	tenantID, ok := httpkit.MustTenantID(c)
	if !ok {
		return
	}

	result, err := h.svc.ListMessages(c.Request.Context(), tenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetMetrics returns the stored metrics snapshot.
// GET /api/v1/conversations/:id/metrics
func (h *Handler) GetMetrics(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	tenantID, ok := httpkit.MustTenantID(c)
	if !ok {
		return
	}

	result, err := h.svc.Metrics(c.Request.Context(), tenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetScore rescores the stored snapshot at request time.
// GET /api/v1/conversations/:id/score
func (h *Handler) GetScore(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	tenantID, ok := httpkit.MustTenantID(c)
	if !ok {
		return
	}

	result, err := h.svc.Score(c.Request.Context(), tenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Recompute forces a synchronous recompute of the conversation.
// POST /api/v1/conversations/:id/recompute
func (h *Handler) Recompute(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	tenantID, ok := httpkit.MustTenantID(c)
	if !ok {
		return
	}

	metrics, result, err := h.svc.RecomputeForTenant(c.Request.Context(), tenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.RecomputeResponse{
		ConversationID: id,
		Score:          result.Score,
		Tier:           string(result.Tier),
		ComputedAt:     metrics.ComputedAt,
	})
}
