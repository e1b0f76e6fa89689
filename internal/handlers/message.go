package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shanikumar001/project-gallery-backend/internal/handlers/dto"
	"github.com/shanikumar001/project-gallery-backend/internal/metrics"
	"github.com/shanikumar001/project-gallery-backend/internal/middleware"
	"github.com/shanikumar001/project-gallery-backend/internal/services"
)

const maxHistoryLimit = 200

type MessageHandler struct {
	messages *services.MessageService
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewMessageHandler(messages *services.MessageService, m *metrics.Metrics, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{messages: messages, metrics: m, logger: logger}
}

func (h *MessageHandler) Send(c *gin.Context) {
	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	to, err := uuid.Parse(req.ToUserID)
	if err != nil {
		badRequest(c, "invalid toUserId")
		return
	}

	from := middleware.CurrentUser(c)
	msg, err := h.messages.Send(c.Request.Context(), from, to, req.Text)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.metrics.MessagesSent.Inc()

	c.JSON(http.StatusCreated, dto.NewMessageResponse(services.MessageView{Message: *msg, IsMe: true}))
}

// List returns the history with ?with=<userId>, oldest first. Optional
// ?limit keeps only the newest N and ?before=<RFC3339> pages backwards.
func (h *MessageHandler) List(c *gin.Context) {
	with, err := uuid.Parse(c.Query("with"))
	if err != nil {
		badRequest(c, "invalid with")
		return
	}

	limit := 0
	if l := c.Query("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed <= 0 {
			badRequest(c, "invalid limit")
			return
		}
		limit = min(parsed, maxHistoryLimit)
	}

	var before *time.Time
	if b := c.Query("before"); b != "" {
		t, err := time.Parse(time.RFC3339Nano, b)
		if err != nil {
			badRequest(c, "invalid before")
			return
		}
		before = &t
	}

	views, err := h.messages.History(c.Request.Context(), middleware.CurrentUser(c), with, limit, before)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	out := make([]dto.MessageResponse, len(views))
	for i, v := range views {
		out[i] = dto.NewMessageResponse(v)
	}
	c.JSON(http.StatusOK, out)
}

// MarkRead marks everything the counterpart sent the caller as read.
func (h *MessageHandler) MarkRead(c *gin.Context) {
	var req dto.MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	with, err := uuid.Parse(req.With)
	if err != nil {
		badRequest(c, "invalid with")
		return
	}

	n, err := h.messages.MarkRead(c.Request.Context(), middleware.CurrentUser(c), with)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.metrics.MessagesRead.Add(float64(n))

	c.JSON(http.StatusOK, gin.H{"updated": n})
}

func (h *MessageHandler) Conversations(c *gin.Context) {
	convs, err := h.messages.Conversations(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	out := make([]dto.ConversationResponse, len(convs))
	for i, conv := range convs {
		out[i] = dto.NewConversationResponse(conv)
	}
	c.JSON(http.StatusOK, out)
}

func (h *MessageHandler) UnreadCount(c *gin.Context) {
	n, err := h.messages.UnreadCount(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}
