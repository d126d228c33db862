package websocket

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Inbound messages allowed per second per connection
	inboundRate  = 10
	inboundBurst = 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checking is handled by the CORS middleware in front of
		// the upgrade endpoint.
		return true
	},
}

// ErrClientDisconnected reports a send against a closed or saturated client.
var ErrClientDisconnected = errors.New("client disconnected")

// Client is the gorilla-backed transport for one user session. Its send
// channel decouples the hub's fan-out from the socket: the hub enqueues,
// writePump drains. A full or closed queue surfaces as a send error, which
// the hub turns into a disconnect.
type Client struct {
	id     string
	userID string
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte

	// Inbound message throttle
	limiter *rate.Limiter

	closed     int32
	sendClosed int32
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		id:      uuid.New().String(),
		userID:  userID,
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, 256),
		limiter: rate.NewLimiter(rate.Limit(inboundRate), inboundBurst),
	}
}

func (c *Client) UserID() string {
	return c.userID
}

func (c *Client) isClosed() bool {
	return atomic.LoadInt32(&c.closed) == 1
}

func (c *Client) closeSendChannel() {
	if atomic.CompareAndSwapInt32(&c.sendClosed, 0, 1) {
		close(c.send)
	}
}

// Send enqueues raw envelope bytes for delivery. It never blocks: a slow
// consumer fills the buffer and is treated as gone.
func (c *Client) Send(data []byte) error {
	if c.isClosed() || atomic.LoadInt32(&c.sendClosed) == 1 {
		return ErrClientDisconnected
	}
	select {
	case c.send <- data:
		return nil
	default:
		slog.Warn("Send buffer full, dropping client", "clientID", c.id, "userID", c.userID)
		c.closeSendChannel()
		return ErrClientDisconnected
	}
}

// Close tears the transport down. Safe to call more than once; only the
// first call touches the underlying socket.
func (c *Client) Close() error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}
	c.closeSendChannel()
	return c.conn.Close()
}

// inboundMessage is what clients send upstream: a liveness ping, a room
// switch, or a chat line for the pet room.
type inboundMessage struct {
	Action string `json:"action"` // "heartbeat", "join", "leave" or "message"
	PetID  string `json:"pet_id"`
	Text   string `json:"text"`
}

func (c *Client) readPump() {
	defer func() {
		// The hub owns teardown; a read failure is one of its three
		// disconnect triggers. Teardown is keyed to this handle so a
		// stale session cannot evict the session that replaced it.
		c.hub.disconnectConn(c.userID, c)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket read error", "clientID", c.id, "userID", c.userID, "error", err)
			} else {
				slog.Debug("WebSocket connection closed", "clientID", c.id, "userID", c.userID)
			}
			return
		}

		if !c.limiter.Allow() {
			slog.Warn("Inbound rate limit exceeded, dropping message", "clientID", c.id, "userID", c.userID)
			continue
		}

		var msg inboundMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			slog.Error("Failed to unmarshal inbound message", "clientID", c.id, "userID", c.userID, "error", err)
			continue
		}

		switch msg.Action {
		case "heartbeat":
			c.hub.Heartbeat(c.userID)
		case "join":
			if msg.PetID != "" {
				c.hub.JoinRoom(c.userID, msg.PetID)
			}
		case "leave":
			if msg.PetID != "" {
				c.hub.LeaveRoom(c.userID, msg.PetID)
			}
		case "message":
			if msg.PetID != "" && msg.Text != "" {
				c.hub.BroadcastToRoom(msg.PetID, NewChatMessage(c.userID, msg.PetID, msg.Text))
			}
		default:
			slog.Debug("Unknown inbound action", "clientID", c.id, "userID", c.userID, "action", msg.Action)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				slog.Debug("WebSocket write error", "clientID", c.id, "userID", c.userID, "error", err)
				return
			}

		case <-ticker.C:
			if c.isClosed() {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				slog.Debug("WebSocket ping error", "clientID", c.id, "userID", c.userID, "error", err)
				return
			}
		}
	}
}

// ServeWS upgrades an HTTP request to a WebSocket connection, wires the
// pumps, and hands the session to the hub. petID may be empty; the client
// can join a room later with a "join" action.
func ServeWS(hub *Hub, w http.ResponseWriter, r *http.Request, userID, petID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade WebSocket connection", "userID", userID, "error", err)
		return
	}

	client := NewClient(hub, conn, userID)
	slog.Info("WebSocket connection established", "clientID", client.id, "userID", userID, "petID", petID)

	go client.writePump()
	go client.readPump()

	hub.Connect(userID, client, petID)
}
