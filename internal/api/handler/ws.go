package handler

import (
	"log"
	"net/http"
	"net/url"
	"strings"

	"ecoplaint/backend/internal/auth"
	"ecoplaint/backend/internal/hub"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func (h *Handler) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
}

// checkOrigin accepts non-browser clients (no Origin header), same-origin
// pages and the configured AllowedOrigins.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// ServeWebSocket streams the caller's notifications as they are committed.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	identity, ok := auth.IdentityFrom(c)
	if !ok {
		h.fail(c, http.StatusForbidden, "access_denied", nil)
		return
	}

	conn, err := h.upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ERROR: Failed to upgrade connection for user %d: %v", identity.Subject, err)
		return
	}

	client := hub.NewWebSocketClient(h.Hub, identity.Subject, conn)
	select {
	case h.Hub.RegisterCh <- client:
	case <-h.Hub.Done():
		conn.Close()
		return
	}
	client.Run()
}
