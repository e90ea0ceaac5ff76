package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc, <-chan struct{}) {
	t.Helper()
	h := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()
	t.Cleanup(cancel)
	return h, cancel, stopped
}

func TestHub_PublishReachesClients(t *testing.T) {
	h, _, _ := startHub(t)
	client := &Client{hub: h, send: make(chan []byte, sendBuffer)}
	require.True(t, h.join(client))

	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	h.Publish(map[string]string{"level": "ERROR"})

	select {
	case msg := <-client.send:
		assert.JSONEq(t, `{"level":"ERROR"}`, string(msg))
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}

	h.leave(client)
	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_JoinAndLeaveReturnAfterShutdown(t *testing.T) {
	h, cancel, stopped := startHub(t)
	connected := &Client{hub: h, send: make(chan []byte, sendBuffer)}
	require.True(t, h.join(connected))

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}

	_, open := <-connected.send
	assert.False(t, open, "send channel should be closed on shutdown")

	returned := make(chan bool, 1)
	go func() {
		late := &Client{hub: h, send: make(chan []byte, 1)}
		joined := h.join(late)
		h.leave(connected)
		h.leave(late)
		returned <- joined
	}()

	select {
	case joined := <-returned:
		assert.False(t, joined)
	case <-time.After(time.Second):
		t.Fatal("join/leave blocked after the hub stopped")
	}
}
