package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shanikumar001/project-gallery-backend/internal/handlers/dto"
	"github.com/shanikumar001/project-gallery-backend/internal/middleware"
	"github.com/shanikumar001/project-gallery-backend/internal/services"
)

type UserHandler struct {
	users    *services.UserService
	projects *services.ProjectService
	logger   *zap.Logger
}

func NewUserHandler(users *services.UserService, projects *services.ProjectService, logger *zap.Logger) *UserHandler {
	return &UserHandler{users: users, projects: projects, logger: logger}
}

// GetMe returns the caller's own profile, email included.
func (h *UserHandler) GetMe(c *gin.Context) {
	h.respondProfile(c, middleware.CurrentUser(c), true)
}

// UpdateMe accepts JSON or form fields; absent fields stay unchanged.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req dto.UpdateProfileRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	userID := middleware.CurrentUser(c)
	_, err := h.users.UpdateProfile(c.Request.Context(), userID, services.ProfileUpdate{
		Name:         req.Name,
		Username:     req.Username,
		Bio:          req.Bio,
		ProfilePhoto: req.ProfilePhoto,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.respondProfile(c, userID, true)
}

// GetUser is the public profile with live follower/following counts.
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	h.respondProfile(c, id, false)
}

func (h *UserHandler) respondProfile(c *gin.Context, id uuid.UUID, includeEmail bool) {
	ctx := c.Request.Context()
	profile, err := h.users.Profile(ctx, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	projects, err := h.projects.ListByOwner(ctx, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewProfileResponse(profile, projects, includeEmail))
}
