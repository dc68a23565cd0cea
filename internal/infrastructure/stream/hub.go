package stream

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/nftswap/swapd/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

// Hub keeps the websocket connections of the parties and forwards them the
// events of their trades.
type Hub struct {
	upgrader websocket.Upgrader

	lock    sync.RWMutex
	clients map[string]map[uuid.UUID]*client
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[string]map[uuid.UUID]*client),
	}
}

// ServeWS upgrades the request to a websocket streaming the events of the
// trades of the given, already authenticated, address.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, address string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	newClient(strings.ToLower(address), conn, h).start()
	return nil
}

// Notify forwards the event to the connected parties of the trade. Slow
// clients whose buffer is full miss the event.
func (h *Hub) Notify(_ context.Context, event ports.TradeEvent) error {
	h.lock.RLock()
	defer h.lock.RUnlock()

	for _, party := range event.Parties {
		for _, c := range h.clients[strings.ToLower(party)] {
			select {
			case c.send <- event.Payload:
			default:
				log.Debugf("stream client %s is too slow, dropped %s", c.id, event.Topic)
			}
		}
	}
	return nil
}

// Connections returns the number of open connections.
func (h *Hub) Connections() int {
	h.lock.RLock()
	defer h.lock.RUnlock()

	count := 0
	for _, clients := range h.clients {
		count += len(clients)
	}
	return count
}

// Close closes all the connections.
func (h *Hub) Close() {
	h.lock.Lock()
	defer h.lock.Unlock()

	for address, clients := range h.clients {
		for _, c := range clients {
			close(c.send)
		}
		delete(h.clients, address)
	}
}

func (h *Hub) addClient(c *client) {
	h.lock.Lock()
	defer h.lock.Unlock()

	if _, ok := h.clients[c.address]; !ok {
		h.clients[c.address] = make(map[uuid.UUID]*client)
	}
	h.clients[c.address][c.id] = c
	log.Debugf("stream client %s connected for %s", c.id, c.address)
}

func (h *Hub) removeClient(c *client) {
	h.lock.Lock()
	defer h.lock.Unlock()

	clients, ok := h.clients[c.address]
	if !ok {
		return
	}
	if _, ok := clients[c.id]; !ok {
		return
	}
	delete(clients, c.id)
	close(c.send)
	if len(clients) <= 0 {
		delete(h.clients, c.address)
	}
	log.Debugf("stream client %s disconnected", c.id)
}
