package notify

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/monocle-dev/taskboard/internal/logutils"
	"github.com/monocle-dev/taskboard/internal/models"
	"github.com/sirupsen/logrus"
)

const WriteWait = 10 * time.Second

// Client is one open socket. gorilla connections allow a single concurrent
// writer, so every write goes through the client's mutex.
type Client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *Client) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(WriteWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(v)
}

func (c *Client) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(WriteWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

// Hub pushes stored notifications to the sockets of their recipient.
type Hub struct {
	clients map[uint]map[*Client]bool
	mu      sync.RWMutex
	log     *logrus.Entry
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[uint]map[*Client]bool),
		log:     logutils.WithComponent("hub"),
	}
}

func (h *Hub) Register(userID uint, conn *websocket.Conn) *Client {
	client := &Client{conn: conn}

	h.mu.Lock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*Client]bool)
	}
	h.clients[userID][client] = true
	h.mu.Unlock()

	return client
}

func (h *Hub) Unregister(userID uint, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, exists := h.clients[userID]; exists {
		delete(clients, client)

		if len(clients) == 0 {
			delete(h.clients, userID)
		}
	}
}

// Connections is the number of open sockets for userID.
func (h *Hub) Connections(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients[userID])
}

// Publish implements Publisher.
func (h *Hub) Publish(n models.Notification) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients[n.UserID]))
	for client := range h.clients[n.UserID] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	message := map[string]interface{}{
		"type":         "notification",
		"notification": NewView(n),
	}

	for _, client := range clients {
		if err := client.WriteJSON(message); err != nil {
			h.log.WithFields(logutils.Fields{"user_id": n.UserID, "error": err}).Warn("Failed to push notification")
			h.Unregister(n.UserID, client)
			client.conn.Close()
		}
	}
}
