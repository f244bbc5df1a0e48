package ble

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/wristlog/internal/protocol"
	"github.com/starford/wristlog/internal/transport"
)

func detachedConn() *Conn {
	return &Conn{
		address: "AA:BB:CC:DD:EE:FF",
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		subs:    make(map[protocol.Endpoint]*queue),
		done:    make(chan struct{}),
	}
}

func TestWriteThroughTransport(t *testing.T) {
	var tr transport.Transport = detachedConn()
	ctx := context.Background()

	err := tr.Write(ctx, protocol.GeneralWrite, make([]byte, protocol.MaxWriteSize+1), protocol.WithResponse)
	assert.ErrorContains(t, err, "exceeds")

	err = tr.Write(ctx, protocol.GeneralWrite, []byte{0xA2}, protocol.WithResponse)
	assert.ErrorContains(t, err, "not bound")
}

func TestLinkLostEndsSubscriptions(t *testing.T) {
	c := detachedConn()
	q := newQueue()
	out := make(chan transport.Notification)
	go q.pump(context.Background(), c.Done(), out)

	c.linkEvent("11:22:33:44:55:66", false)
	c.linkEvent("aa:bb:cc:dd:ee:ff", true)
	select {
	case <-c.Done():
		t.Fatal("done closed by an unrelated event")
	default:
	}

	c.linkEvent("aa:bb:cc:dd:ee:ff", false)
	select {
	case _, ok := <-out:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not end")
	}

	err := c.Write(context.Background(), protocol.GeneralWrite, []byte{0xA2}, protocol.WithResponse)
	require.ErrorIs(t, err, errClosed)

	c.linkEvent("AA:BB:CC:DD:EE:FF", false)
	assert.False(t, c.markClosed())
}
