package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func receive(t *testing.T, ch <-chan WebSocketMessage) (WebSocketMessage, bool) {
	t.Helper()
	select {
	case msg, ok := <-ch:
		return msg, ok
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return WebSocketMessage{}, false
	}
}

func TestWebSocketHub(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewWebSocketHub(time.Hour, func(ctx context.Context) (interface{}, error) {
		return "snapshot", nil
	})
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	a := NewClientConnection("a", nil)
	b := NewClientConnection("b", nil)
	hub.Register(ctx, a)
	msg, _ := receive(t, a.Send)
	assert.Equal(t, MessageStats, msg.Type)
	assert.Equal(t, "snapshot", msg.Data)

	hub.Register(ctx, b)
	for _, c := range []*ClientConnection{a, b} {
		msg, _ = receive(t, c.Send)
		assert.Equal(t, MessageStats, msg.Type)
	}
	assert.Equal(t, 2, hub.ClientCount())

	hub.SendTo("b", WebSocketMessage{Type: MessagePong})
	msg, _ = receive(t, b.Send)
	assert.Equal(t, MessagePong, msg.Type)

	hub.Unregister("a")
	_, ok := receive(t, a.Send)
	assert.False(t, ok, "unregister closes the send queue")

	cancel()
	<-stopped
	_, ok = receive(t, b.Send)
	assert.False(t, ok, "shutdown closes remaining clients")
	assert.Equal(t, 0, hub.ClientCount())

	late := NewClientConnection("late", nil)
	hub.Register(context.Background(), late)
	_, ok = receive(t, late.Send)
	assert.False(t, ok)
}

func TestWebSocketHubReportsSourceErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewWebSocketHub(time.Hour, func(ctx context.Context) (interface{}, error) {
		return nil, errors.New("df unavailable")
	})
	go hub.Run(ctx)

	client := NewClientConnection("a", nil)
	hub.Register(ctx, client)
	msg, ok := receive(t, client.Send)
	require.True(t, ok)
	assert.Equal(t, MessageError, msg.Type)
	assert.Equal(t, "df unavailable", msg.Error)
}

func TestWebSocketHubSlowSourceDoesNotBlockClients(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var (
		block   atomic.Bool
		blocked atomic.Int32
	)
	release := make(chan struct{})
	hub := NewWebSocketHub(10*time.Millisecond, func(ctx context.Context) (interface{}, error) {
		if block.Load() {
			blocked.Add(1)
			select {
			case <-release:
			case <-ctx.Done():
			}
		}
		return "snapshot", nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	client := NewClientConnection("a", nil)
	hub.Register(ctx, client)
	msg, _ := receive(t, client.Send)
	assert.Equal(t, MessageStats, msg.Type)

	block.Store(true)
	require.Eventually(t, func() bool { return blocked.Load() >= 1 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 1, blocked.Load(), "one periodic gather in flight at a time")

	hub.SendTo("a", WebSocketMessage{Type: MessagePong})
	for msg.Type != MessagePong {
		var ok bool
		msg, ok = receive(t, client.Send)
		require.True(t, ok)
	}

	hub.Unregister("a")
	for {
		if _, ok := receive(t, client.Send); !ok {
			break
		}
	}

	close(release)
	cancel()
	<-stopped
}
