// Package live implements the live sentiment feed client: one socket, one
// subscription, a bounded window of received points and no reconnects.
package live

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"cryptopulse/internal/domain"

	"github.com/gorilla/websocket"
)

type State int

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether no further transitions can happen.
func (s State) Terminal() bool {
	return s == StateClosed || s == StateFailed
}

var ErrAlreadyStarted = errors.New("live client already started")

// Conn is the part of a websocket connection the client uses.
type Conn interface {
	WriteJSON(v any) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

type DialFunc func(ctx context.Context, url string) (Conn, error)

// DialWebsocket opens a gorilla websocket connection.
func DialWebsocket(ctx context.Context, url string) (Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	return conn, nil
}

type Client struct {
	url    string
	dial   DialFunc
	notify func()
	loc    *time.Location

	mu      sync.Mutex
	state   State
	err     error
	conn    Conn
	coins   []string
	buf     *Buffer
	started bool
	closing bool
	sent    int
	dropped int
}

type Option func(*Client)

func WithDialer(dial DialFunc) Option {
	return func(c *Client) { c.dial = dial }
}

func WithBufferCap(n int) Option {
	return func(c *Client) { c.buf = NewBuffer(n) }
}

// WithNotify registers a callback run after every state change or append.
// It must not block.
func WithNotify(fn func()) Option {
	return func(c *Client) { c.notify = fn }
}

// WithLocation sets the zone used to format point labels.
func WithLocation(loc *time.Location) Option {
	return func(c *Client) { c.loc = loc }
}

func NewClient(url string, coins []string, opts ...Option) *Client {
	c := &Client{
		url:   url,
		dial:  DialWebsocket,
		loc:   time.Local,
		state: StateConnecting,
		coins: append([]string(nil), coins...),
		buf:   NewBuffer(DefaultBufferCap),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run dials, subscribes and reads until the socket ends or ctx is done.
// A dial, write or read failure moves the client to StateFailed; Close or
// ctx cancellation moves it to StateClosed.
func (c *Client) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	if c.closing {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	conn, err := c.dial(ctx, c.url)
	if err != nil {
		if ctx.Err() != nil {
			c.Close()
			return nil
		}
		c.fail(err)
		return err
	}

	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		_ = conn.Close()
		return nil
	}
	c.conn = conn
	c.state = StateOpen
	err = c.subscribeLocked()
	if err != nil {
		c.failLocked(err)
	}
	c.mu.Unlock()
	c.changed()
	if err != nil {
		return err
	}
	log.Printf("live feed connected: %s", c.url)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			c.Close()
		case <-stop:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if c.isClosing() {
				return nil
			}
			c.fail(err)
			return err
		}
		c.handle(data)
	}
}

// SetCoins records the selection and, when open, sends exactly one new
// subscription message. It never reconnects.
func (c *Client) SetCoins(coins []string) error {
	normalized, err := domain.NormalizeSelection(coins)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.coins = normalized
	if c.state != StateOpen {
		c.mu.Unlock()
		return nil
	}
	err = c.subscribeLocked()
	if err != nil {
		c.failLocked(err)
	}
	c.mu.Unlock()
	if err != nil {
		c.changed()
	}
	return err
}

// Close shuts the socket unconditionally. A client that already failed
// stays failed.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		return
	}
	c.closing = true
	conn := c.conn
	transitioned := false
	if c.state != StateFailed {
		c.state = StateClosed
		transitioned = true
	}
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	if transitioned {
		c.changed()
	}
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the error that failed the client, if any.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Client) Coins() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.coins...)
}

// Snapshot returns the buffered points, oldest first.
func (c *Client) Snapshot() []domain.SentimentPoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Snapshot()
}

// Stats reports subscription messages sent and inbound messages dropped.
func (c *Client) Stats() (sent, dropped int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sent, c.dropped
}

func (c *Client) subscribeLocked() error {
	coins := c.coins
	if coins == nil {
		coins = []string{}
	}
	if err := c.conn.WriteJSON(Subscription{Coins: coins}); err != nil {
		return fmt.Errorf("send subscription: %w", err)
	}
	c.sent++
	return nil
}

func (c *Client) handle(data []byte) {
	p, err := DecodeMessage(data, c.loc)
	c.mu.Lock()
	if err != nil {
		c.dropped++
		c.mu.Unlock()
		log.Printf("live feed: dropping message: %v", err)
		return
	}
	if c.state != StateOpen {
		c.mu.Unlock()
		return
	}
	c.buf.Append(p)
	c.mu.Unlock()
	c.changed()
}

func (c *Client) fail(err error) {
	c.mu.Lock()
	ok := c.failLocked(err)
	c.mu.Unlock()
	if ok {
		c.changed()
	}
}

func (c *Client) failLocked(err error) bool {
	if c.closing || c.state.Terminal() {
		return false
	}
	c.state = StateFailed
	c.err = err
	if c.conn != nil {
		_ = c.conn.Close()
	}
	log.Printf("live feed failed: %v", err)
	return true
}

func (c *Client) isClosing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closing
}

func (c *Client) changed() {
	if c.notify != nil {
		c.notify()
	}
}
