package handlers

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/monocle-dev/taskboard/internal/logutils"
	"github.com/monocle-dev/taskboard/internal/utils"
)

const (
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// NotificationSocket upgrades the request and keeps the socket registered
// with the hub until the client goes away. New notifications for the caller
// are pushed as they are stored.
func (h *Handler) NotificationSocket(c *gin.Context) {
	userID, err := utils.GetCurrentUserID(c)

	if err != nil {
		unauthenticated(c)
		return
	}

	log := logutils.WithComponent("ws").WithField("user_id", userID)

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(h.AllowedOrigins, origin)
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.WithError(err).Warn("Failed to set initial read deadline")
		conn.Close()
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	client := h.Hub.Register(userID, conn)

	defer func() {
		h.Hub.Unregister(userID, client)
		conn.Close()
		log.Debug("WebSocket connection closed")
	}()

	err = client.WriteJSON(map[string]string{
		"type":    "connected",
		"message": "WebSocket connection established",
	})

	if err != nil {
		log.WithError(err).Warn("Failed to send welcome message")
		return
	}

	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := client.Ping(); err != nil {
					log.WithError(err).Debug("Ping failed")
					return
				}
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.WithError(err).Warn("WebSocket error")
			}
			return
		}
	}
}
