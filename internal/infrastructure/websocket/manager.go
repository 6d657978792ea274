package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"foodshare/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Client represents a WebSocket connection client
type Client struct {
	ID     string
	UserID string
	Conn   *websocket.Conn

	send   chan []byte
	mutex  sync.Mutex
	closed bool
}

func NewClient(userID string, conn *websocket.Conn) *Client {
	return &Client{
		ID:     uuid.New().String(),
		UserID: userID,
		Conn:   conn,
		send:   make(chan []byte, 256),
	}
}

// Enqueue queues payload for the write pump. It reports false when the client is gone
// or its buffer is full.
func (c *Client) Enqueue(payload []byte) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Manager tracks every open connection by user. A user may hold several connections,
// one per open conversation view.
type Manager struct {
	clients    map[string]map[*Client]struct{}
	Register   chan *Client
	Unregister chan *Client
	mutex      sync.RWMutex

	// stopped is closed when the Start loop exits.
	stopped chan struct{}
}

// NewManager creates a new WebSocket connection manager
func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]map[*Client]struct{}),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		stopped:    make(chan struct{}),
	}
}

// Start runs the manager's main loop in a goroutine
func (m *Manager) Start(ctx context.Context) {
	go func() {
		defer close(m.stopped)
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				if m.clients[client.UserID] == nil {
					m.clients[client.UserID] = make(map[*Client]struct{})
				}
				m.clients[client.UserID][client] = struct{}{}
				m.mutex.Unlock()
				logger.Debug("Client registered: %s (%s)", client.UserID, client.ID)

			case client := <-m.Unregister:
				m.remove(client)
				logger.Debug("Client unregistered: %s (%s)", client.UserID, client.ID)

			case <-ctx.Done():
				m.mutex.Lock()
				for _, set := range m.clients {
					for client := range set {
						client.close()
					}
				}
				m.clients = make(map[string]map[*Client]struct{})
				m.mutex.Unlock()
				return
			}
		}
	}()
}

// Add registers client with the Start loop. It reports false once the manager has
// stopped.
func (m *Manager) Add(client *Client) bool {
	select {
	case m.Register <- client:
		return true
	case <-m.stopped:
		return false
	}
}

// unregister hands client to the Start loop, or removes it directly once the loop has
// stopped so closing connections never block on shutdown.
func (m *Manager) unregister(client *Client) {
	select {
	case m.Unregister <- client:
	case <-m.stopped:
		m.remove(client)
	}
}

func (m *Manager) remove(client *Client) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if set, ok := m.clients[client.UserID]; ok {
		if _, ok := set[client]; ok {
			delete(set, client)
			client.close()
		}
		if len(set) == 0 {
			delete(m.clients, client.UserID)
		}
	}
}

// IsOnline reports whether userID has at least one open connection.
func (m *Manager) IsOnline(userID string) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients[userID]) > 0
}

// SendToUser sends a frame to every connection of a specific user
func (m *Manager) SendToUser(userID string, frameType string, data interface{}) {
	payload, err := Encode(frameType, "", data)
	if err != nil {
		logger.Error("WebSocket: failed to encode %s frame: %v", frameType, err)
		return
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()
	for client := range m.clients[userID] {
		if !client.Enqueue(payload) {
			logger.Warn("WebSocket: dropped %s frame for %s (%s)", frameType, userID, client.ID)
		}
	}
}

// NotifyUser implements the use case notifier on top of SendToUser.
func (m *Manager) NotifyUser(userID string, event string, data interface{}) {
	m.SendToUser(userID, event, data)
}

// ReadPump reads frames from the WebSocket connection until it closes, handing each
// decoded frame to handle. Pings are answered here.
func (c *Client) ReadPump(m *Manager, handle func(*Client, Frame)) {
	defer func() {
		m.unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("WebSocket: read error for %s: %v", c.UserID, err)
			}
			break
		}

		m.dispatch(c, message, handle)
	}
}

// WritePump sends queued frames to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Warn("WebSocket: write error for %s: %v", c.UserID, err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
