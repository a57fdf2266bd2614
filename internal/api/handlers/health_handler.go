package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	Started time.Time
}

func (h *HealthHandler) Health(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(h.Started).Round(time.Second).String(),
	}, "")
}
