package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shanikumar001/project-gallery-backend/internal/handlers/dto"
	"github.com/shanikumar001/project-gallery-backend/internal/middleware"
	"github.com/shanikumar001/project-gallery-backend/internal/models"
	"github.com/shanikumar001/project-gallery-backend/internal/services"
	"github.com/shanikumar001/project-gallery-backend/pkg/auth"
)

type AuthHandler struct {
	users      *services.UserService
	jwtManager *auth.JWTManager
	blacklist  *auth.Blacklist
	logger     *zap.Logger
}

func NewAuthHandler(users *services.UserService, jwtMgr *auth.JWTManager, blacklist *auth.Blacklist, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{users: users, jwtManager: jwtMgr, blacklist: blacklist, logger: logger}
}

// Register creates the account and logs the user straight in.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	user, err := h.users.Signup(c.Request.Context(), services.SignupInput{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.issue(c, http.StatusCreated, user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.issue(c, http.StatusOK, user)
}

// Logout revokes the presented token until it would have expired.
func (h *AuthHandler) Logout(c *gin.Context) {
	token, exp := middleware.CurrentToken(c)
	if err := h.blacklist.Revoke(c.Request.Context(), token, exp); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *AuthHandler) issue(c *gin.Context, status int, user *models.User) {
	token, exp, err := h.jwtManager.Generate(user.ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	profile, err := h.users.Profile(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(status, dto.AuthResponse{
		Token:          token,
		TokenExpiresAt: exp,
		User:           dto.NewProfileResponse(profile, nil, true),
	})
}
