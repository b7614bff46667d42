package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(buffer int) *Client {
	return &Client{
		id:   "test-client",
		send: make(chan []byte, buffer),
	}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil)
	hub.Start()
	t.Cleanup(hub.Stop)
	return hub
}

func attach(t *testing.T, hub *Hub, c *Client) {
	t.Helper()
	hub.register <- c
	require.Eventually(t, func() bool {
		return hub.ActiveConnections() == hub.TotalConnections()
	}, time.Second, 5*time.Millisecond)
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data := <-c.send:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast")
		return Message{}
	}
}

func TestBroadcastProgress(t *testing.T) {
	hub := startHub(t)
	c := testClient(4)
	attach(t, hub, c)

	hub.BroadcastProgress("benin", "clip_ranges", 66)

	msg := receive(t, c)
	assert.Equal(t, TypeProgress, msg.Type)
	assert.NotEmpty(t, msg.Timestamp)

	payload, ok := msg.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "benin", payload["country"])
	assert.Equal(t, "clip_ranges", payload["step"])
	assert.Equal(t, float64(66), payload["percent"])
}

func TestBroadcastDataUpdate(t *testing.T) {
	hub := startHub(t)
	c := testClient(4)
	attach(t, hub, c)

	hub.BroadcastDataUpdate("togo", 525600)

	msg := receive(t, c)
	assert.Equal(t, TypeDataUpdate, msg.Type)

	payload := msg.Payload.(map[string]interface{})
	assert.Equal(t, "togo", payload["country"])
	assert.Equal(t, float64(525600), payload["rows"])
}

func TestBroadcastReachesAllClients(t *testing.T) {
	hub := startHub(t)
	a, b := testClient(4), testClient(4)
	hub.register <- a
	hub.register <- b
	require.Eventually(t, func() bool { return hub.ActiveConnections() == 2 }, time.Second, 5*time.Millisecond)

	hub.BroadcastDataUpdate("benin", 10)

	assert.Equal(t, TypeDataUpdate, receive(t, a).Type)
	assert.Equal(t, TypeDataUpdate, receive(t, b).Type)
}

func TestSlowClientDropped(t *testing.T) {
	hub := startHub(t)
	slow := testClient(0) // nobody reads, send blocks immediately
	attach(t, hub, slow)

	hub.BroadcastDataUpdate("benin", 1)

	require.Eventually(t, func() bool {
		return hub.ActiveConnections() == 0
	}, time.Second, 5*time.Millisecond)

	_, open := <-slow.send
	assert.False(t, open, "dropped client's channel is closed")
}

func TestUnregister(t *testing.T) {
	hub := startHub(t)
	c := testClient(4)
	attach(t, hub, c)

	hub.unregister <- c
	require.Eventually(t, func() bool {
		return hub.ActiveConnections() == 0
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, int64(1), hub.TotalConnections(), "total count survives disconnects")
}

func TestBroadcastAfterStop(t *testing.T) {
	hub := NewHub(nil)
	hub.Start()
	hub.Stop()

	// Must not panic or block.
	hub.BroadcastDataUpdate("benin", 1)
	assert.Equal(t, int64(0), hub.ActiveConnections())
}

func TestRegisterAfterStop(t *testing.T) {
	hub := NewHub(nil)
	hub.Start()
	hub.Stop()

	// The run loop is gone; both calls must return instead of blocking
	// a connection goroutine forever.
	c := testClient(4)
	assert.False(t, hub.Register(c))
	hub.Unregister(c)
	assert.Equal(t, int64(0), hub.ActiveConnections())
}

func TestStartIsIdempotent(t *testing.T) {
	hub := NewHub(nil)
	hub.Start()
	hub.Start()
	hub.Stop()
	hub.Stop()
}
