// Package stream pushes live events to websocket clients: price ticks to
// everyone, trade and balance events to the owning user only.
package stream

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/edgemarket/internal/logger"
	"github.com/edgemarket/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	sendBuffer   = 64
	maxReadBytes = 512
)

// Event types
const (
	EventPrice       = "price"
	EventTradeOpened = "trade_opened"
	EventTradeClosed = "trade_closed"
	EventBalance     = "balance"
)

// Event is the envelope of every message sent to a client
type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"`
}

// Hub tracks connected clients and fans events out to them
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*client
}

type client struct {
	id     string
	userID uint
	conn   *websocket.Conn
	send   chan []byte
	once   sync.Once
}

// NewHub creates a new Hub. Browser connections are accepted from the
// given origins; "*" accepts any.
func NewHub(allowedOrigins []string) *Hub {
	h := &Hub{clients: make(map[string]*client)}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, o := range allowedOrigins {
				if o == "*" || o == origin {
					return true
				}
			}
			return false
		},
	}
	return h
}

// Serve upgrades the request and registers the connection for userID.
// initial events are sent before any live event.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID uint, initial []Event) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{
		id:     uuid.New().String(),
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer+len(initial)),
	}
	for _, ev := range initial {
		if msg, err := json.Marshal(ev); err == nil {
			c.send <- msg
		}
	}

	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()

	logger.Debug("stream client connected", "client_id", c.id, "user_id", userID)

	go h.writeLoop(c)
	go h.readLoop(c)
	return nil
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.drop(c)
	}
}

// OnPriceTick implements service.PriceSubscriber
func (h *Hub) OnPriceTick(tick models.PriceTick) {
	h.broadcast(NewEvent(EventPrice, tick), func(*client) bool { return true })
}

// TradeOpened implements service.EventPublisher
func (h *Hub) TradeOpened(trade *models.Trade) {
	h.toUser(trade.UserID, NewEvent(EventTradeOpened, trade))
}

// TradeClosed implements service.EventPublisher
func (h *Hub) TradeClosed(trade *models.Trade) {
	h.toUser(trade.UserID, NewEvent(EventTradeClosed, trade))
}

// BalanceChanged implements service.EventPublisher
func (h *Hub) BalanceChanged(userID uint, balances models.Balances) {
	h.toUser(userID, NewEvent(EventBalance, balances))
}

// NewEvent stamps data with the current time
func NewEvent(kind string, data interface{}) Event {
	return Event{Type: kind, Data: data, Timestamp: time.Now().UnixMilli()}
}

func (h *Hub) toUser(userID uint, ev Event) {
	h.broadcast(ev, func(c *client) bool { return c.userID == userID })
}

func (h *Hub) broadcast(ev Event, match func(*client) bool) {
	msg, err := json.Marshal(ev)
	if err != nil {
		logger.Error("stream: failed to encode event", "type", ev.Type, "error", err)
		return
	}

	var slow []*client
	h.mu.RLock()
	for _, c := range h.clients {
		if !match(c) {
			continue
		}
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		logger.Warn("stream client too slow, disconnecting", "client_id", c.id)
		h.drop(c)
	}
}

func (h *Hub) drop(c *client) {
	c.once.Do(func() {
		h.mu.Lock()
		delete(h.clients, c.id)
		h.mu.Unlock()
		close(c.send)
		logger.Debug("stream client disconnected", "client_id", c.id, "user_id", c.userID)
	})
}

// writeLoop drains the send queue and keeps the connection alive with pings
func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.drop(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.drop(c)
				return
			}
		}
	}
}

// readLoop discards client messages; it exists to process control frames
// and notice when the peer goes away.
func (h *Hub) readLoop(c *client) {
	defer h.drop(c)

	c.conn.SetReadLimit(maxReadBytes)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
