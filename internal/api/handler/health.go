package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	started time.Time
	roster  int
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(rosterSize int) *HealthHandler {
	return &HealthHandler{started: time.Now(), roster: rosterSize}
}

// Health returns the health status of the service
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"creators": h.roster,
		"uptime":   time.Since(h.started).Round(time.Second).String(),
	})
}
