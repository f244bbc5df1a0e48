package internal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/starford/wristlog/internal/apperr"
	"github.com/starford/wristlog/internal/device"
	"github.com/starford/wristlog/internal/protocol"
	"github.com/starford/wristlog/internal/session"
	"github.com/starford/wristlog/internal/testutil"
)

func TestWatchLink_NotConnected(t *testing.T) {
	var l watchLink
	ctx := context.Background()
	if err := l.Sync(ctx); !errors.Is(err, apperr.ErrNotConnected) {
		t.Errorf("Sync err = %v", err)
	}
	if err := l.SendAlert(ctx, protocol.AlertMessage, "hi"); !errors.Is(err, apperr.ErrNotConnected) {
		t.Errorf("SendAlert err = %v", err)
	}
}

func TestWatchLink_ForwardsToSession(t *testing.T) {
	fake := testutil.NewFakeTransport()
	s := &session.Session{
		Transport: fake,
		State:     device.NewState(protocol.DeviceName),
		Logger:    testutil.QuietLogger(),
	}
	var l watchLink
	l.set(s)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for len(fake.Writes()) < 5 {
		if time.Now().After(deadline) {
			t.Fatal("connect sequence not sent")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := l.SendAlert(ctx, protocol.AlertCall, "Mum"); err != nil {
		t.Fatalf("SendAlert: %v", err)
	}
	want := 5 + len(protocol.AlertBatches(protocol.AlertCall, "Mum"))
	if got := len(fake.Writes()); got != want {
		t.Errorf("writes = %d, want %d", got, want)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run: %v", err)
	}

	l.set(nil)
	if err := l.Sync(context.Background()); !errors.Is(err, apperr.ErrNotConnected) {
		t.Errorf("Sync after clear err = %v", err)
	}
}
