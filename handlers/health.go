package handlers

import (
	"net/http"
	"time"

	"jaryo/utils"

	"github.com/gin-gonic/gin"
)

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func NotFound(c *gin.Context) {
	utils.Error(c, http.StatusNotFound, "route not found")
}
