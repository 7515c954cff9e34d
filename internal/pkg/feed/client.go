// Package feed manages the streaming connection to the feed hub:
// connect, heartbeat on open, unconditional reconnect, message send.
// Transport lifecycle is fully independent of scraping.
package feed

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/livescout/matchrelay/internal/pkg/models"
)

// State of the feed connection.
type State string

const (
	StateDisconnected State = "DISCONNECTED"
	StateConnecting   State = "CONNECTING"
	StateConnected    State = "CONNECTED"
	StateClosing      State = "CLOSING"
)

// EventKind identifies a transport lifecycle event.
type EventKind int

const (
	EventConnected EventKind = iota
	EventDisconnected
)

type Event struct {
	Kind EventKind
}

// StatsFunc supplies the heartbeat payload: current page path and the
// last scan's match count.
type StatsFunc func() (page string, matchesFound int)

const (
	defaultReconnectDelay = 5 * time.Second
	defaultWriteTimeout   = 10 * time.Second
	defaultDialTimeout    = 10 * time.Second
)

// Client is one connection epoch's transport. After Close it is dead;
// a reload creates a fresh client.
type Client struct {
	url            string
	source         string
	reconnectDelay time.Duration
	writeTimeout   time.Duration
	stats          StatsFunc

	mu             sync.Mutex
	state          State
	conn           *websocket.Conn
	sentCount      int64
	reconnectTimer *time.Timer
	closed         bool

	events chan Event
}

func NewClient(url, source string, reconnectDelay, writeTimeout time.Duration, stats StatsFunc) *Client {
	if reconnectDelay <= 0 {
		reconnectDelay = defaultReconnectDelay
	}
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	return &Client{
		url:            url,
		source:         source,
		reconnectDelay: reconnectDelay,
		writeTimeout:   writeTimeout,
		stats:          stats,
		state:          StateDisconnected,
		events:         make(chan Event, 8),
	}
}

// Events delivers transport lifecycle events to the single consuming
// loop (the scheduler).
func (c *Client) Events() <-chan Event { return c.events }

// Connect starts dialing in the background. No-op while already
// connecting, connected or closed.
func (c *Client) Connect() {
	c.mu.Lock()
	if c.closed || c.state == StateConnecting || c.state == StateConnected {
		c.mu.Unlock()
		return
	}
	c.state = StateConnecting
	c.mu.Unlock()

	go c.dial()
}

func (c *Client) dial() {
	dialer := websocket.Dialer{HandshakeTimeout: defaultDialTimeout}
	conn, _, err := dialer.Dial(c.url, nil)
	if err != nil {
		slog.Warn("Feed connect failed", "url", c.url, "error", err)
		c.mu.Lock()
		c.state = StateDisconnected
		c.scheduleReconnectLocked()
		c.mu.Unlock()
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	c.state = StateConnected
	c.mu.Unlock()

	slog.Info("Feed connected", "url", c.url)

	// One heartbeat right away so the hub sees us before the first
	// scheduled tick.
	page, found := c.stats()
	c.Send(models.NewHeartbeat(c.source, page, found))

	c.emit(Event{Kind: EventConnected})
	go c.readLoop(conn)
}

// readLoop drains inbound frames. There is no inbound command
// protocol; messages are logged only.
func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleDisconnect(conn, err)
			return
		}
		slog.Debug("Feed message received", "data", string(data))
	}
}

func (c *Client) handleDisconnect(conn *websocket.Conn, err error) {
	c.mu.Lock()
	if c.conn != conn {
		// A stale epoch's reader; the connection was already replaced
		// or closed deliberately.
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.state = StateDisconnected
	closed := c.closed
	c.scheduleReconnectLocked()
	c.mu.Unlock()

	conn.Close()
	if !closed {
		slog.Warn("Feed disconnected", "error", err)
		c.emit(Event{Kind: EventDisconnected})
	}
}

// scheduleReconnectLocked arms the reconnect timer. At most one is
// pending at a time; retries repeat forever at a fixed delay.
func (c *Client) scheduleReconnectLocked() {
	if c.closed || c.reconnectTimer != nil {
		return
	}
	c.reconnectTimer = time.AfterFunc(c.reconnectDelay, func() {
		c.mu.Lock()
		c.reconnectTimer = nil
		c.mu.Unlock()
		c.Connect()
	})
}

// Send delivers one message if connected. Returns false otherwise;
// the caller does not retry — the next scan tick regenerates current
// state anyway.
func (c *Client) Send(msg models.Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateConnected || c.conn == nil {
		return false
	}

	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("Feed message marshal failed", "type", msg.Type, "error", err)
		return false
	}

	c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Warn("Feed send failed", "type", msg.Type, "error", err)
		// The reader will observe the broken connection and schedule
		// the reconnect.
		c.conn.Close()
		return false
	}

	c.sentCount++
	return true
}

// SentCount returns the number of messages delivered in this epoch
// (plus any restored hand-off base).
func (c *Client) SentCount() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sentCount
}

// RestoreSentCount folds a reload hand-off record into the counter.
// Additive, so sends that already happened in this epoch (the initial
// heartbeat) stay counted and the value never moves backwards.
func (c *Client) RestoreSentCount(n int64) {
	if n <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sentCount += n
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close terminates the client for good: pending reconnects are
// cancelled and no further events are emitted.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.state = StateClosing
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	conn := c.conn
	c.conn = nil
	c.state = StateDisconnected
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

func (c *Client) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
		slog.Warn("Feed event dropped, consumer not keeping up", "kind", ev.Kind)
	}
}
