package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"jaryo/config"
	"jaryo/logger"
	"jaryo/services"
	"jaryo/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	services *services.Container
	cfg      *config.Config
}

func New(container *services.Container, cfg *config.Config) *Handler {
	if container == nil {
		panic("services container is not initialized")
	}
	return &Handler{services: container, cfg: cfg}
}

func respondServiceError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	var appErr *services.AppError
	if errors.As(err, &appErr) {
		if appErr.HTTPCode >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.String("kind", string(appErr.Kind)),
				zap.Error(appErr))
		}
		if appErr.Data != nil {
			utils.ErrorWithData(c, appErr.HTTPCode, appErr.PublicMessage(), appErr.Data)
		} else {
			utils.Error(c, appErr.HTTPCode, appErr.PublicMessage())
		}
		return true
	}
	logger.Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))
	utils.Error(c, http.StatusInternalServerError, "internal error")
	return true
}

func parseUintParam(c *gin.Context, name string) (uint, bool) {
	value, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || value == 0 {
		return 0, false
	}
	return uint(value), true
}

func queryInt(c *gin.Context, name string) int {
	value, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return value
}
