package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shanikumar001/project-gallery-backend/internal/handlers/dto"
	"github.com/shanikumar001/project-gallery-backend/internal/metrics"
	"github.com/shanikumar001/project-gallery-backend/internal/middleware"
	"github.com/shanikumar001/project-gallery-backend/internal/services"
)

type FollowHandler struct {
	follows *services.FollowService
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewFollowHandler(follows *services.FollowService, m *metrics.Metrics, logger *zap.Logger) *FollowHandler {
	return &FollowHandler{follows: follows, metrics: m, logger: logger}
}

// Follow sends a follow request to :id and returns the new status.
func (h *FollowHandler) Follow(c *gin.Context) {
	target, ok := paramID(c, "id")
	if !ok {
		return
	}

	req, err := h.follows.Follow(c.Request.Context(), middleware.CurrentUser(c), target)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.metrics.FollowRequests.Inc()

	c.JSON(http.StatusCreated, gin.H{
		"following": false,
		"requested": true,
		"requestId": req.ID,
	})
}

// Unfollow removes the edge to :id, or cancels a pending request.
func (h *FollowHandler) Unfollow(c *gin.Context) {
	target, ok := paramID(c, "id")
	if !ok {
		return
	}

	status, err := h.follows.Unfollow(c.Request.Context(), middleware.CurrentUser(c), target)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.metrics.Unfollows.Inc()

	c.JSON(http.StatusOK, status)
}

func (h *FollowHandler) Status(c *gin.Context) {
	target, ok := paramID(c, "id")
	if !ok {
		return
	}

	status, err := h.follows.Status(c.Request.Context(), middleware.CurrentUser(c), target)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *FollowHandler) Requests(c *gin.Context) {
	reqs, err := h.follows.Requests(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	out := make([]dto.FollowRequestResponse, len(reqs))
	for i, r := range reqs {
		out[i] = dto.NewFollowRequestResponse(r)
	}
	c.JSON(http.StatusOK, out)
}

func (h *FollowHandler) Accept(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	req, err := h.follows.Accept(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.metrics.RequestsResolved.WithLabelValues("accepted").Inc()

	c.JSON(http.StatusOK, dto.NewFollowRequestResponse(*req))
}

func (h *FollowHandler) Decline(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	req, err := h.follows.Decline(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.metrics.RequestsResolved.WithLabelValues("declined").Inc()

	c.JSON(http.StatusOK, dto.NewFollowRequestResponse(*req))
}

func (h *FollowHandler) Followers(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	users, err := h.follows.Followers(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.UserList(users))
}

func (h *FollowHandler) Following(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	users, err := h.follows.Following(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.UserList(users))
}
