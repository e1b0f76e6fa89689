package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shanikumar001/project-gallery-backend/internal/services"
)

var statusByKind = map[services.Kind]int{
	services.KindValidation:   http.StatusBadRequest,
	services.KindNotFound:     http.StatusNotFound,
	services.KindConflict:     http.StatusConflict,
	services.KindUnauthorized: http.StatusUnauthorized,
	services.KindForbidden:    http.StatusForbidden,
}

// respondError writes err as {"error", "code"}. Anything that is not a
// services.Error is logged and hidden behind a 500.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	kind := services.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "code": "internal"})
		return
	}

	var se *services.Error
	errors.As(err, &se)
	c.JSON(status, gin.H{"error": se.Message, "code": se.Code})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": "validation"})
}

// paramID parses a uuid path parameter, writing a 400 on failure.
func paramID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
