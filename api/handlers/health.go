package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Root describes the service
func Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "Command & Control API",
		"version": "1.0.0",
		"docs":    "/api/v1",
	})
}

// HealthCheck handles health check requests
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "Command & Control API",
	})
}
