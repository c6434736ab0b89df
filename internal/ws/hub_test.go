package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityHubBroadcast(t *testing.T) {
	hub := NewActivityHub()
	a := &Client{UserID: 1, Send: make(chan []byte, 4)}
	b := &Client{UserID: 2, Send: make(chan []byte, 4)}
	hub.Register(a)
	hub.Register(b)
	assert.Equal(t, 2, hub.ClientCount())

	ev := Event{Type: "payout_requested", Description: "Payout PAY-12345 requested", AmountCents: 5000, At: time.Now()}
	hub.Broadcast(ev)

	for _, c := range []*Client{a, b} {
		select {
		case data := <-c.Send:
			var got Event
			require.NoError(t, json.Unmarshal(data, &got))
			assert.Equal(t, ev.Type, got.Type)
			assert.Equal(t, ev.AmountCents, got.AmountCents)
		default:
			t.Fatalf("client %d received nothing", c.UserID)
		}
	}
}

func TestActivityHubSkipsSlowClients(t *testing.T) {
	hub := NewActivityHub()
	slow := &Client{UserID: 1, Send: make(chan []byte)} // unbuffered, nobody reading
	hub.Register(slow)

	done := make(chan struct{})
	go func() {
		hub.Broadcast(Event{Type: "order_paid", At: time.Now()})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a slow client")
	}
}

func TestActivityHubUnregisterOnClose(t *testing.T) {
	hub := NewActivityHub()
	c := &Client{UserID: 1, Send: make(chan []byte, 1)}
	hub.Register(c)
	require.Equal(t, 1, hub.ClientCount())

	c.Close()
	assert.Equal(t, 0, hub.ClientCount())

	// Close is idempotent.
	c.Close()
	assert.Equal(t, 0, hub.ClientCount())
}
