// Package transport defines how the watch is written to and listened on.
//
// A Transport is supplied by the connection owner (see package ble). It imposes no
// retries or timeouts; those belong to the caller's context.
package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/starford/wristlog/internal/protocol"
)

// ErrTransport wraps every failure reported by a Transport.
var ErrTransport = errors.New("transport: failure")

// Notification is one buffer received on an endpoint.
type Notification struct {
	Endpoint protocol.Endpoint
	Data     []byte
}

// Transport writes to and subscribes on watch endpoints.
type Transport interface {
	// Write sends data to ep using mode.
	Write(ctx context.Context, ep protocol.Endpoint, data []byte, mode protocol.WriteMode) error
	// Subscribe returns the notifications of ep in arrival order. The channel is closed when
	// ctx ends or the connection drops. Delivery never blocks the radio.
	Subscribe(ctx context.Context, ep protocol.Endpoint) (<-chan Notification, error)
}

// Send encodes req and writes it to its endpoint with its write mode.
func Send(ctx context.Context, t Transport, req protocol.Request) error {
	if err := t.Write(ctx, req.Endpoint(), protocol.Encode(req), req.WriteMode()); err != nil {
		return fmt.Errorf("%w: send %s: %w", ErrTransport, protocol.Name(req), err)
	}
	return nil
}

// SendAll sends reqs in order and stops at the first failure.
func SendAll(ctx context.Context, t Transport, reqs ...protocol.Request) error {
	for _, req := range reqs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := Send(ctx, t, req); err != nil {
			return err
		}
	}
	return nil
}

// SendAlert shows text on the watch as an alert of the given kind.
func SendAlert(ctx context.Context, t Transport, kind protocol.AlertType, text string) error {
	return SendAll(ctx, t, protocol.AlertBatches(kind, text)...)
}

func subscribe(ctx context.Context, t Transport, ep protocol.Endpoint) (<-chan Notification, error) {
	ch, err := t.Subscribe(ctx, ep)
	if err != nil {
		return nil, fmt.Errorf("%w: subscribe %s: %w", ErrTransport, ep, err)
	}
	return ch, nil
}
