package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"jaothui-api-server/internal/api/middleware"
	"jaothui-api-server/internal/auth"
	"jaothui-api-server/internal/logging"
	"jaothui-api-server/internal/profile"
	"jaothui-api-server/internal/socket"
)

type WebSocketHandler struct {
	Hub      *socket.Hub
	Verifier *auth.Verifier
	Profiles *profile.Service
	Logger   logging.Logger
	// CheckOrigin defaults to accepting every origin.
	CheckOrigin func(r *http.Request) bool
}

// ServeWs upgrades an authenticated request. Browsers cannot set headers on
// a websocket handshake, so the token travels in the "token" query parameter.
func (h *WebSocketHandler) ServeWs(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, Response{Error: "Token is required"})
		return
	}
	claims, err := h.Verifier.Verify(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, Response{Error: err.Error()})
		return
	}

	p, err := h.Profiles.Resolve(c.Request.Context(), middleware.IdentityFromClaims(claims))
	if err != nil {
		fail(c, err)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.CheckOrigin,
	}
	if upgrader.CheckOrigin == nil {
		upgrader.CheckOrigin = func(*http.Request) bool { return true }
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	h.Hub.Serve(p.ID, conn)
}
