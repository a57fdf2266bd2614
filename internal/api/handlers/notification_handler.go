package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jaothui-api-server/internal/api/middleware"
	"jaothui-api-server/internal/apperrors"
	"jaothui-api-server/internal/feed"
	"jaothui-api-server/internal/subscription"
)

type NotificationHandler struct {
	Feed     *feed.Builder
	Registry *subscription.Registry
}

// actionRequest is the combined body older clients POST to /notifications.
type actionRequest struct {
	Action           string                  `json:"action"`
	Subscription     *subscription.Input     `json:"subscription"`
	TestNotification *subscription.TestInput `json:"testNotification"`
}

func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	p := middleware.CurrentProfile(c)

	items, err := h.Feed.ListUpcoming(c.Request.Context(), p.ID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"notifications": items}, "")
}

func (h *NotificationHandler) Subscribe(c *gin.Context) {
	var in subscription.Input
	if !bindJSON(c, &in) {
		return
	}
	h.subscribe(c, in)
}

func (h *NotificationHandler) SendTest(c *gin.Context) {
	var in subscription.TestInput
	if !bindJSON(c, &in) {
		return
	}
	h.sendTest(c, in)
}

// Post dispatches on the body's action field: "subscribe" or "test".
func (h *NotificationHandler) Post(c *gin.Context) {
	var req actionRequest
	if !bindJSON(c, &req) {
		return
	}

	switch req.Action {
	case "subscribe":
		if req.Subscription == nil {
			fail(c, apperrors.Validation("subscription", "is required"))
			return
		}
		h.subscribe(c, *req.Subscription)
	case "test":
		if req.TestNotification == nil {
			fail(c, apperrors.Validation("testNotification", "is required"))
			return
		}
		h.sendTest(c, *req.TestNotification)
	default:
		fail(c, apperrors.Validation("action", `must be "subscribe" or "test"`))
	}
}

func (h *NotificationHandler) subscribe(c *gin.Context, in subscription.Input) {
	p := middleware.CurrentProfile(c)

	sub, err := h.Registry.Subscribe(c.Request.Context(), p.ID, in)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, sub, "Push notification subscription successful")
}

func (h *NotificationHandler) sendTest(c *gin.Context, in subscription.TestInput) {
	p := middleware.CurrentProfile(c)

	tally, err := h.Registry.SendTest(c.Request.Context(), p.ID, in)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, tally, "")
}

// Unsubscribe deactivates the endpoint given in the query, or every endpoint
// of the caller when none is given.
func (h *NotificationHandler) Unsubscribe(c *gin.Context) {
	p := middleware.CurrentProfile(c)

	n, err := h.Registry.Unsubscribe(c.Request.Context(), p.ID, c.Query("endpoint"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"deactivated": n}, "Push notification subscription removed")
}
