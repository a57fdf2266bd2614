package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"jaothui-api-server/internal/auth"
	"jaothui-api-server/internal/logging"
	"jaothui-api-server/internal/reminder"
)

// ReminderRunner is the daily dispatcher. *reminder.Dispatcher implements it.
type ReminderRunner interface {
	Run(ctx context.Context) (*reminder.Summary, error)
}

type CronHandler struct {
	Runner ReminderRunner
	Guard  auth.CronGuard
	// AllowManual enables POST triggers; it is off in production.
	AllowManual bool
	Logger      logging.Logger
}

type runResponse struct {
	Success bool `json:"success"`
	*reminder.Summary
}

// RunReminders is the scheduler entry point.
func (h *CronHandler) RunReminders(c *gin.Context) {
	if err := h.Guard.Check(c.GetHeader("Authorization")); err != nil {
		if errors.Is(err, auth.ErrCronDisabled) {
			h.Logger.Warn("cron call refused: no secret configured", "ip", c.ClientIP())
		}
		c.JSON(http.StatusUnauthorized, Response{Error: "Unauthorized"})
		return
	}
	h.run(c)
}

// TriggerReminders runs the dispatcher by hand outside production.
func (h *CronHandler) TriggerReminders(c *gin.Context) {
	if !h.AllowManual {
		c.JSON(http.StatusForbidden, Response{Error: "Manual trigger is disabled in production"})
		return
	}
	h.RunReminders(c)
}

func (h *CronHandler) run(c *gin.Context) {
	sum, err := h.Runner.Run(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, runResponse{Success: true, Summary: sum})
}
