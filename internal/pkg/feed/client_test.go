package feed

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livescout/matchrelay/internal/pkg/models"
)

var upgrader = websocket.Upgrader{}

// hubStub is a minimal feed-hub endpoint that records every received
// frame and can drop connections on demand.
type hubStub struct {
	t *testing.T

	mu       sync.Mutex
	frames   []models.Message
	conns    []*websocket.Conn
	accepted int

	srv *httptest.Server
}

func newHubStub(t *testing.T) *hubStub {
	h := &hubStub{t: t}
	h.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		h.mu.Lock()
		h.conns = append(h.conns, conn)
		h.accepted++
		h.mu.Unlock()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg models.Message
			if err := json.Unmarshal(data, &msg); err != nil {
				h.t.Errorf("hub received unparseable frame: %v", err)
				continue
			}
			h.mu.Lock()
			h.frames = append(h.frames, msg)
			h.mu.Unlock()
		}
	}))
	t.Cleanup(h.srv.Close)
	return h
}

func (h *hubStub) url() string {
	return "ws" + strings.TrimPrefix(h.srv.URL, "http")
}

func (h *hubStub) frameCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.frames)
}

func (h *hubStub) acceptedCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.accepted
}

func (h *hubStub) dropAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.conns {
		c.Close()
	}
	h.conns = nil
}

func (h *hubStub) lastFrames() []models.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]models.Message, len(h.frames))
	copy(out, h.frames)
	return out
}

func noStats() (string, int) { return "/matches", 0 }

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestSendWhileDisconnected(t *testing.T) {
	c := NewClient("ws://127.0.0.1:0/nowhere", "test", time.Minute, time.Second, noStats)
	defer c.Close()

	assert.Equal(t, StateDisconnected, c.State())
	ok := c.Send(models.NewHeartbeat("test", "/matches", 0))
	assert.False(t, ok, "send while disconnected must fail")
	assert.EqualValues(t, 0, c.SentCount(), "failed send must not increment the counter")
}

func TestConnectSendsInitialHeartbeat(t *testing.T) {
	hub := newHubStub(t)
	c := NewClient(hub.url(), "test", time.Minute, time.Second, noStats)
	defer c.Close()

	c.Connect()

	select {
	case ev := <-c.Events():
		require.Equal(t, EventConnected, ev.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("no connected event")
	}

	waitFor(t, 2*time.Second, func() bool { return hub.frameCount() >= 1 })

	frames := hub.lastFrames()
	require.NotEmpty(t, frames)
	assert.Equal(t, models.TypeHeartbeat, frames[0].Type)
	assert.Equal(t, 1, frames[0].V)
	assert.Equal(t, "test", frames[0].Source)
	assert.EqualValues(t, 1, c.SentCount(), "initial heartbeat counts as a send")
}

func TestConnectIsIdempotent(t *testing.T) {
	hub := newHubStub(t)
	c := NewClient(hub.url(), "test", time.Minute, time.Second, noStats)
	defer c.Close()

	c.Connect()
	c.Connect()
	c.Connect()

	waitFor(t, 2*time.Second, func() bool { return c.State() == StateConnected })
	// Give any erroneous extra dials a moment to land.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, hub.acceptedCount(), "repeated Connect must not open extra connections")
}

func TestSendIncrementsCounter(t *testing.T) {
	hub := newHubStub(t)
	c := NewClient(hub.url(), "test", time.Minute, time.Second, noStats)
	defer c.Close()

	c.Connect()
	waitFor(t, 2*time.Second, func() bool { return c.State() == StateConnected })

	base := c.SentCount()
	ok := c.Send(models.NewLiveMatch("test", models.MatchSnapshot{
		MatchID: "42", Team1: "Red Canids", Team2: "Sharks", Status: models.StatusLive,
	}))
	require.True(t, ok)
	assert.Equal(t, base+1, c.SentCount())

	waitFor(t, 2*time.Second, func() bool { return hub.frameCount() >= 2 })
	frames := hub.lastFrames()
	last := frames[len(frames)-1]
	assert.Equal(t, models.TypeLiveMatch, last.Type)
}

func TestExactlyOneReconnectScheduled(t *testing.T) {
	hub := newHubStub(t)
	c := NewClient(hub.url(), "test", 150*time.Millisecond, time.Second, noStats)
	defer c.Close()

	c.Connect()
	waitFor(t, 2*time.Second, func() bool { return c.State() == StateConnected })

	hub.dropAll()

	select {
	case ev := <-c.Events():
		require.Equal(t, EventDisconnected, ev.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("no disconnected event")
	}

	// Exactly one reconnect fires after the fixed delay.
	select {
	case ev := <-c.Events():
		require.Equal(t, EventConnected, ev.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("reconnect never happened")
	}
	waitFor(t, 2*time.Second, func() bool { return hub.acceptedCount() == 2 })

	// And only one: no further dials without another disconnect.
	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, 2, hub.acceptedCount(), "more than one reconnect was scheduled")
}

func TestRestoreSentCount(t *testing.T) {
	c := NewClient("ws://127.0.0.1:0/nowhere", "test", time.Minute, time.Second, noStats)
	defer c.Close()

	c.RestoreSentCount(37)
	assert.EqualValues(t, 37, c.SentCount())
	c.RestoreSentCount(0)  // nothing stashed
	c.RestoreSentCount(-5) // corrupt record must not move the counter back
	assert.EqualValues(t, 37, c.SentCount())
}

func TestRestoreSentCountKeepsEarlierSends(t *testing.T) {
	// A fresh epoch sends its initial heartbeat before the hand-off
	// record is consumed; folding in the stashed value must not lose
	// that send.
	hub := newHubStub(t)
	c := NewClient(hub.url(), "test", time.Minute, time.Second, noStats)
	defer c.Close()

	c.Connect()
	waitFor(t, 2*time.Second, func() bool { return c.State() == StateConnected })
	waitFor(t, 2*time.Second, func() bool { return c.SentCount() == 1 })

	c.RestoreSentCount(37)
	assert.EqualValues(t, 38, c.SentCount(), "initial heartbeat dropped from the counter")
}

func TestCloseCancelsReconnect(t *testing.T) {
	hub := newHubStub(t)
	c := NewClient(hub.url(), "test", 500*time.Millisecond, time.Second, noStats)

	c.Connect()
	waitFor(t, 2*time.Second, func() bool { return c.State() == StateConnected })

	hub.dropAll()
	<-c.Events() // disconnected; reconnect timer is now pending
	c.Close()

	time.Sleep(800 * time.Millisecond)
	assert.Equal(t, 1, hub.acceptedCount(), "closed client must not reconnect")
}
