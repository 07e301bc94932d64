package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// gorilla connections allow one concurrent writer
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

// Hub keeps the open notification sockets of every connected user.
type Hub struct {
	mu      sync.Mutex
	clients map[string]map[*client]struct{}
	logger  *zap.Logger
}

func NewHub(l *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*client]struct{}),
		logger:  l,
	}
}

// Serve upgrades the request and blocks until the client goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{conn: conn}
	h.add(userID, c)
	h.logger.Debug("notification socket connected", zap.String("user_id", userID))
	defer h.remove(userID, c)

	// clients never send anything useful; reading detects the close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return nil
		}
	}
}

// Push sends v to every socket the user has open. Dead sockets are dropped.
func (h *Hub) Push(userID string, v interface{}) {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if err := c.send(v); err != nil {
			h.logger.Warn("notification socket send failed", zap.String("user_id", userID), zap.Error(err))
			h.remove(userID, c)
		}
	}
}

func (h *Hub) Connected(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[userID])
}

func (h *Hub) add(userID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*client]struct{})
	}
	h.clients[userID][c] = struct{}{}
}

func (h *Hub) remove(userID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[userID][c]; !ok {
		return
	}
	delete(h.clients[userID], c)
	if len(h.clients[userID]) == 0 {
		delete(h.clients, userID)
	}
	c.conn.Close()
}
