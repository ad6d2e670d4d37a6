// Package feed is the server side of the live sentiment socket.
package feed

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"cryptopulse/internal/domain"
	"cryptopulse/internal/live"
	"cryptopulse/internal/metrics"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 90 * time.Second
	pingInterval = 45 * time.Second
	sendBuffer   = 64
	maxReadBytes = 4096
)

// Message is one server→client tick restricted to the client's coins.
type Message struct {
	Time      string             `json:"time"`
	Sentiment map[string]float64 `json:"sentiment"`
	Title     map[string]string  `json:"title,omitempty"`
}

// NewMessage filters p down to coins.
func NewMessage(p domain.SentimentPoint, coins map[string]bool) Message {
	m := Message{
		Time:      p.Time.UTC().Format(time.RFC3339),
		Sentiment: make(map[string]float64, len(coins)),
	}
	for coin, v := range p.Sentiment {
		if coins[coin] {
			m.Sentiment[coin] = v
		}
	}
	for coin, title := range p.Title {
		if !coins[coin] {
			continue
		}
		if m.Title == nil {
			m.Title = make(map[string]string, len(coins))
		}
		m.Title[coin] = title
	}
	return m
}

type client struct {
	id   string
	conn *websocket.Conn
	out  chan Message
	done chan struct{}

	mu    sync.Mutex
	coins map[string]bool
}

func (c *client) subscribed() map[string]bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.coins
}

// Hub fans live ticks out to every connected socket. A client receives
// nothing until its first subscription.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
	last    *domain.SentimentPoint
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Broadcast records p as the latest tick and queues it for every
// subscribed client. Clients whose queue is full miss this tick.
func (h *Hub) Broadcast(p domain.SentimentPoint) {
	h.mu.Lock()
	last := p.Clone()
	h.last = &last
	h.mu.Unlock()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		coins := c.subscribed()
		if coins == nil {
			continue
		}
		select {
		case c.out <- NewMessage(p, coins):
			metrics.LiveMessage("sent")
		default:
			metrics.LiveMessage("dropped")
		}
	}
}

func (h *Hub) Last() (domain.SentimentPoint, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.last == nil {
		return domain.SentimentPoint{}, false
	}
	return h.last.Clone(), true
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		_ = c.conn.Close()
	}
}

// ServeWS upgrades the request and serves the socket until it closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		out:  make(chan Message, sendBuffer),
		done: make(chan struct{}),
	}
	h.register(c)
	defer h.unregister(c)
	log.Printf("live client %s connected from %s", c.id, r.RemoteAddr)

	go h.writeLoop(c)
	h.readLoop(c)
	close(c.done)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	metrics.LiveClientConnected()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	metrics.LiveClientDisconnected()
	log.Printf("live client %s disconnected", c.id)
}

func (h *Hub) readLoop(c *client) {
	c.conn.SetReadLimit(maxReadBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("live client %s read error: %v", c.id, err)
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		var sub live.Subscription
		if err := json.Unmarshal(data, &sub); err != nil {
			log.Printf("live client %s sent malformed subscription: %v", c.id, err)
			continue
		}
		h.subscribe(c, sub.Coins)
	}
}

// subscribe replaces the client's coin set and replays the latest tick so
// late joiners see data before the next one.
func (h *Hub) subscribe(c *client, ids []string) {
	coins := make(map[string]bool, len(ids))
	for _, id := range ids {
		coin, ok := domain.LookupCoin(id)
		if !ok {
			log.Printf("live client %s subscribed to unknown coin %q", c.id, id)
			continue
		}
		coins[coin.Name] = true
	}
	c.mu.Lock()
	c.coins = coins
	c.mu.Unlock()

	if last, ok := h.Last(); ok {
		select {
		case c.out <- NewMessage(last, coins):
		default:
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	for {
		select {
		case msg := <-c.out:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				log.Printf("live client %s write error: %v", c.id, err)
				_ = c.conn.Close()
				return
			}
		case <-ping.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				_ = c.conn.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}
