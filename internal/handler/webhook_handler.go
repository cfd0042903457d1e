package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kama-line/service-reservation/internal/conversation"
)

// WebhookHandler receives inbound chat updates from the transport adapter and
// feeds them through the conversation engine.
type WebhookHandler struct {
	engine *conversation.Engine
	logger *zap.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(engine *conversation.Engine, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{engine: engine, logger: logger}
}

// RegisterRoutes registers the webhook route on the given router group.
func (h *WebhookHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/webhook", h.HandleUpdate)
}

// HandleUpdate handles POST /webhook. The transport posts one update per
// request and delivers the returned replies itself.
func (h *WebhookHandler) HandleUpdate(c *gin.Context) {
	var upd conversation.Update
	if err := c.ShouldBindJSON(&upd); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if upd.UserID == 0 {
		BadRequest(c, "user_id is required")
		return
	}

	replies, err := h.engine.HandleUpdate(c.Request.Context(), upd)
	if err != nil {
		h.logger.Error("failed to handle update",
			zap.Int64("user_id", upd.UserID),
			zap.Error(err),
		)
		Error(c, err)
		return
	}

	Success(c, gin.H{"replies": replies})
}
