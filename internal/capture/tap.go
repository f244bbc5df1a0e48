package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/starford/wristlog/internal/demux"
	"github.com/starford/wristlog/internal/protocol"
	"github.com/starford/wristlog/internal/transport"
)

// Tap is a transport.Transport that records every write to a Writer before
// passing it on. A failing capture log never fails the traffic; the first
// failure is logged.
type Tap struct {
	transport.Transport
	W      *Writer
	Now    func() time.Time
	Logger *slog.Logger

	failed atomic.Bool
}

func (t *Tap) record(f Frame) {
	err := t.W.Write(f)
	if err == nil || !t.failed.CompareAndSwap(false, true) {
		return
	}
	logger := t.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("capture: frame not recorded, later failures are not logged",
		slog.String("endpoint", f.Endpoint),
		slog.String("error", err.Error()))
}

func (t *Tap) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

func (t *Tap) Write(ctx context.Context, ep protocol.Endpoint, data []byte, mode protocol.WriteMode) error {
	err := t.Transport.Write(ctx, ep, data, mode)
	f := Frame{Time: t.now(), Direction: Outgoing, Endpoint: ep.Name, Data: slices.Clone(data), Outcome: mode.String()}
	if err != nil {
		f.Outcome = err.Error()
	}
	t.record(f)
	return err
}

// Received records an incoming notification and how it was classified.
func (t *Tap) Received(n transport.Notification, res protocol.Response, decodeErr error) {
	outcome := ""
	switch {
	case decodeErr != nil:
		outcome = decodeErr.Error()
	case res != nil:
		outcome = protocol.Name(res)
	}
	t.record(Frame{Time: t.now(), Direction: Incoming, Endpoint: n.Endpoint.Name, Data: slices.Clone(n.Data), Outcome: outcome})
}

// Replayed is one incoming frame classified again against a demux table.
type Replayed struct {
	Frame    Frame
	Response protocol.Response
	Err      error
}

// Replay reads every frame from r and classifies the incoming ones with table.
// Outgoing frames are passed to fn with a nil Response and Err.
func Replay(r *Reader, table demux.Table, fn func(Replayed) error) error {
	if table == nil {
		table = demux.Default
	}
	for {
		f, err := r.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		out := Replayed{Frame: f}
		if f.Direction == Incoming {
			ep, ok := protocol.EndpointByName(f.Endpoint)
			if !ok {
				out.Err = fmt.Errorf("capture: unknown endpoint %q", f.Endpoint)
			} else {
				out.Response, out.Err = table.Classify(ep, f.Data)
			}
		}
		if err := fn(out); err != nil {
			return err
		}
	}
}
