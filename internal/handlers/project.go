package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shanikumar001/project-gallery-backend/internal/handlers/dto"
	"github.com/shanikumar001/project-gallery-backend/internal/metrics"
	"github.com/shanikumar001/project-gallery-backend/internal/middleware"
	"github.com/shanikumar001/project-gallery-backend/internal/models"
	"github.com/shanikumar001/project-gallery-backend/internal/services"
)

type ProjectHandler struct {
	projects *services.ProjectService
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewProjectHandler(projects *services.ProjectService, m *metrics.Metrics, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, metrics: m, logger: logger}
}

// List is public: every project, newest first.
func (h *ProjectHandler) List(c *gin.Context) {
	views, err := h.projects.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.ProjectList(views))
}

func (h *ProjectHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	view, err := h.projects.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewProjectResponse(*view))
}

// Create accepts JSON or multipart form fields.
func (h *ProjectHandler) Create(c *gin.Context) {
	var req dto.CreateProjectRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	view, err := h.projects.Create(c.Request.Context(), middleware.CurrentUser(c), services.ProjectInput{
		Title:         req.Title,
		Description:   req.Description,
		LiveDemoURL:   req.LiveDemoURL,
		CodeURL:       req.CodeURL,
		MediaURL:      req.MediaURL,
		MediaFilename: req.MediaFilename,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.metrics.ProjectsCreated.Inc()

	c.JSON(http.StatusCreated, dto.NewProjectResponse(*view))
}

func (h *ProjectHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.projects.Delete(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *ProjectHandler) Like(c *gin.Context)   { h.react(c, models.ReactionLike, true) }
func (h *ProjectHandler) Unlike(c *gin.Context) { h.react(c, models.ReactionLike, false) }
func (h *ProjectHandler) Save(c *gin.Context)   { h.react(c, models.ReactionSave, true) }
func (h *ProjectHandler) Unsave(c *gin.Context) { h.react(c, models.ReactionSave, false) }

func (h *ProjectHandler) react(c *gin.Context, kind models.ReactionKind, on bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	userID := middleware.CurrentUser(c)
	var (
		state services.ReactionState
		err   error
	)
	switch {
	case kind == models.ReactionLike && on:
		state, err = h.projects.Like(ctx, userID, id)
	case kind == models.ReactionLike:
		state, err = h.projects.Unlike(ctx, userID, id)
	case on:
		state, err = h.projects.Save(ctx, userID, id)
	default:
		state, err = h.projects.Unsave(ctx, userID, id)
	}
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if state.Changed {
		action := "add"
		if !on {
			action = "remove"
		}
		h.metrics.ProjectReactions.WithLabelValues(string(kind), action).Inc()
	}

	if kind == models.ReactionLike {
		c.JSON(http.StatusOK, gin.H{"liked": state.Active, "likeCount": state.Count})
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": state.Active, "saveCount": state.Count})
}

func (h *ProjectHandler) AddComment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	comment, err := h.projects.AddComment(c.Request.Context(), middleware.CurrentUser(c), id, req.Text)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewCommentResponse(*comment))
}
