package stream

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	writeWait      = 10 * time.Second
	maxMessageSize = 4 * 1024
	sendBufferSize = 64
)

// client is a websocket connection of a wallet address. Clients only receive
// events, anything they send is discarded.
type client struct {
	id      uuid.UUID
	address string
	conn    *websocket.Conn
	send    chan []byte
	hub     *Hub
}

func newClient(address string, conn *websocket.Conn, hub *Hub) *client {
	return &client{
		id:      uuid.New(),
		address: address,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		hub:     hub,
	}
}

func (c *client) start() {
	c.hub.addClient(c)
	go c.readPump()
	go c.writePump()
}

func (c *client) readPump() {
	defer func() {
		c.hub.removeClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	//nolint
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(
				err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			) {
				log.WithError(err).Debugf("stream client %s closed unexpectedly", c.id)
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			//nolint
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				//nolint
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.WithError(err).Debugf("failed to write to stream client %s", c.id)
				return
			}
		case <-ticker.C:
			//nolint
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
