package transport

import (
	"context"
	"encoding/hex"
	"log/slog"

	"github.com/starford/wristlog/internal/demux"
	"github.com/starford/wristlog/internal/protocol"
)

// ResponseFunc handles a classified notification.
type ResponseFunc func(n Notification, res protocol.Response)

// UndecodedFunc handles a notification no candidate accepted. err is a *demux.UndecodedError.
type UndecodedFunc func(n Notification, err error)

// Listener consumes one endpoint's notifications through a demux table.
type Listener struct {
	Transport   Transport
	Endpoint    protocol.Endpoint
	Table       demux.Table
	Logger      *slog.Logger
	OnResponse  ResponseFunc
	OnUndecoded UndecodedFunc
	// Ready, when set, is called once the subscription is in place.
	Ready func()
}

// Run subscribes and handles notifications one at a time until ctx ends or the stream closes.
// Decode failures are logged and skipped. A handler that is running when ctx ends finishes
// before Run returns.
func (l *Listener) Run(ctx context.Context) error {
	table := l.Table
	if table == nil {
		table = demux.Default
	}
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("endpoint", l.Endpoint.Name))

	ch, err := subscribe(ctx, l.Transport, l.Endpoint)
	if err != nil {
		return err
	}
	logger.Info("listener: started")
	if l.Ready != nil {
		l.Ready()
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("listener: stopped")
			return nil
		case n, ok := <-ch:
			if !ok {
				logger.Info("listener: stream closed")
				return nil
			}
			l.handle(logger, table, n)
		}
	}
}

func (l *Listener) handle(logger *slog.Logger, table demux.Table, n Notification) {
	res, err := table.Classify(n.Endpoint, n.Data)
	if err != nil {
		logger.Warn("listener: undecoded notification",
			slog.String("raw", hex.EncodeToString(n.Data)),
			slog.String("error", err.Error()))
		if l.OnUndecoded != nil {
			l.OnUndecoded(n, err)
		}
		return
	}
	logger.Debug("listener: received", slog.String("type", protocol.Name(res)))
	if l.OnResponse != nil {
		l.OnResponse(n, res)
	}
}
