package realtime

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
)

const (
	writeWait      = 10 * time.Second
	pingInterval   = 30 * time.Second
	maxMessageSize = 64 << 10
	sendBufSize    = 256
)

// Client is a single live connection. userID is uuid.Nil for anonymous connections.
type Client struct {
	conn   *websocket.Conn
	userID uuid.UUID
	send   chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

func newClient(conn *websocket.Conn, userID uuid.UUID) *Client {
	return &Client{
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, sendBufSize),
		done:   make(chan struct{}),
	}
}

// enqueue hands data to the write loop without blocking. It reports false
// when the client is closed or its buffer is full.
func (c *Client) enqueue(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// readPump forwards each valid JSON text frame to the hub until the transport
// fails. Binary and malformed frames are logged and dropped; the connection stays open.
func (c *Client) readPump(ctx context.Context, hub *Hub) {
	for {
		typ, data, err := c.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
				log.Printf("ws: read error: %v", err)
			}
			return
		}

		if typ != websocket.MessageText {
			log.Printf("ws: dropped binary frame (%d bytes)", len(data))
			continue
		}
		if !json.Valid(data) {
			log.Printf("ws: dropped malformed frame (%d bytes)", len(data))
			continue
		}
		hub.Broadcast(c, data)
	}
}

// writePump drains the send queue and keeps the connection alive with pings.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case message := <-c.send:
			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()
			if err != nil {
				log.Printf("ws: write error: %v", err)
				c.fail()
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				log.Printf("ws: ping error: %v", err)
				c.fail()
				return
			}

		case <-c.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// fail stops delivery and tears the transport down so readPump returns too.
func (c *Client) fail() {
	c.close()
	_ = c.conn.Close(websocket.StatusInternalError, "write failed")
}
