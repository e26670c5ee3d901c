package ws

import (
	"log"
	"time"

	"mines_arena/internal/domain"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 25 * time.Second
)

// Client is one WebSocket connection. PlayerID is zero until the first
// Play/Join binds an identity, or it is pinned up front by an auth token.
type Client struct {
	PlayerID int64
	Name     string
	Pinned   bool // identity came from a token, messages may not override it

	Conn *websocket.Conn
	Send chan []byte

	Hub  *Hub
	Done chan struct{}
}

func NewClient(conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		Conn: conn,
		Send: make(chan []byte, 256),
		Hub:  hub,
		Done: make(chan struct{}),
	}
}

func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// Enqueue queues a frame without blocking the caller. A full buffer means
// the client is too slow to keep up and the frame is dropped.
func (c *Client) Enqueue(msg []byte) {
	select {
	case c.Send <- msg:
	case <-c.Done:
	default:
		log.Printf("Client.Enqueue: player=%d send buffer full, dropping %d bytes", c.PlayerID, len(msg))
	}
}

func (c *Client) readPump() {
	defer func() {
		c.Hub.OnDisconnect(c)
		close(c.Done)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(4096)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Client.readPump: player=%d read error: %v", c.PlayerID, err)
			}
			return
		}

		msg, err := domain.DecodeClientMessage(raw)
		if err != nil {
			log.Printf("Client.readPump: player=%d bad frame: %v", c.PlayerID, err)
			c.Enqueue(domain.EncodeError("Malformed message"))
			continue
		}

		// application-level keepalive; a targeted ping also re-validates
		// the session binding after a reconnect
		if msg.BarePing || msg.Ping != nil {
			c.Enqueue(domain.EncodePong())
			if msg.Ping != nil && msg.Ping.GameID != "" {
				c.Hub.refreshBinding(c, msg.Ping.GameID)
			}
			continue
		}

		c.Hub.Route(c, msg)
	}
}

// All frames go out as binary messages; payloads are UTF-8 JSON.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
				log.Printf("Client.writePump: player=%d write error: %v", c.PlayerID, err)
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// bindIdentity attaches an account id claimed by a message to this
// connection. Token-pinned connections may not switch accounts.
func (c *Client) bindIdentity(id int64, name string) bool {
	if c.Pinned && c.PlayerID != id {
		return false
	}
	if c.PlayerID != 0 && c.PlayerID != id {
		return false
	}
	c.PlayerID = id
	if name != "" {
		c.Name = name
	}
	return true
}
