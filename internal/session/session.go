// Package session drives one connection to the watch: it listens on both notify
// endpoints, sends the connect sequence and routes every classified response to the
// device state, the daily stores and the event broker.
package session

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/wristlog/internal/apperr"
	"github.com/starford/wristlog/internal/demux"
	"github.com/starford/wristlog/internal/device"
	"github.com/starford/wristlog/internal/protocol"
	"github.com/starford/wristlog/internal/sse"
	"github.com/starford/wristlog/internal/telemetry"
	"github.com/starford/wristlog/internal/transport"
)

// Publisher receives live events.
type Publisher interface {
	Publish(event sse.Event)
	PublishRecord(metric, date string, added, count int)
}

// Recorder receives every incoming notification with its classification.
type Recorder interface {
	Received(n transport.Notification, res protocol.Response, err error)
}

// Session owns the traffic of one watch connection.
type Session struct {
	Transport transport.Transport
	Ingestor  *telemetry.Ingestor
	State     *device.State
	Events    Publisher
	Recorder  Recorder
	Table     demux.Table
	Logger    *slog.Logger

	PairKey protocol.PairKey
	// SyncOnConnect requests the stored heart-rate and step history after pairing.
	SyncOnConnect bool
	// KeepAlive, when positive, polls the battery at this interval. A failed poll
	// ends the session, which is how a silently dropped link is noticed.
	KeepAlive time.Duration
	Now       func() time.Time

	running atomic.Bool
	sendMu  sync.Mutex
}

func (s *Session) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Session) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Running reports whether Run is active.
func (s *Session) Running() bool { return s.running.Load() }

// Run listens until ctx ends or both notification streams close. The connect
// sequence is sent once both endpoints are subscribed. A failed send ends the session.
func (s *Session) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return errors.New("session: already running")
	}
	defer s.running.Store(false)

	logger := s.logger()
	g, gCtx := errgroup.WithContext(ctx)

	endpoints := []protocol.Endpoint{protocol.GeneralNotify, protocol.Data2Notify}
	var ready, live sync.WaitGroup
	ready.Add(len(endpoints))
	live.Add(len(endpoints))
	streamsDone := make(chan struct{})
	go func() {
		live.Wait()
		close(streamsDone)
	}()
	for _, ep := range endpoints {
		l := &transport.Listener{
			Transport:   s.Transport,
			Endpoint:    ep,
			Table:       s.Table,
			Logger:      logger,
			OnResponse:  s.handleResponse,
			OnUndecoded: s.handleUndecoded,
			Ready:       ready.Done,
		}
		g.Go(func() error {
			defer live.Done()
			err := l.Run(gCtx)
			if err != nil {
				ready.Done()
			}
			return err
		})
	}

	g.Go(func() error {
		ready.Wait()
		if gCtx.Err() != nil {
			return nil
		}
		if err := s.Connect(gCtx); err != nil {
			if gCtx.Err() != nil {
				return nil
			}
			return err
		}
		if s.KeepAlive > 0 {
			return s.keepAlive(gCtx, streamsDone)
		}
		return nil
	})

	err := g.Wait()
	if err != nil {
		s.setError(err)
	}
	return err
}

func (s *Session) keepAlive(ctx context.Context, streamsDone <-chan struct{}) error {
	ticker := time.NewTicker(s.KeepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-streamsDone:
			return nil
		case <-ticker.C:
			if err := s.send(ctx, protocol.BatteryRequest{}); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("session: keep-alive: %w", err)
			}
		}
	}
}

// Connect sends the pairing and status sequence, then the history requests when
// SyncOnConnect is set.
func (s *Session) Connect(ctx context.Context) error {
	reqs := []protocol.Request{
		protocol.PairRequest{Key: s.PairKey},
		protocol.PairKeyRequest{},
		protocol.BatteryRequest{},
		protocol.FirmwareRequest{},
		protocol.NewSetDateTimeRequest(s.now()),
	}
	if err := s.send(ctx, reqs...); err != nil {
		return fmt.Errorf("session: connect: %w", err)
	}
	s.logger().Info("session: connect sequence sent", slog.Int("requests", len(reqs)))
	if !s.SyncOnConnect {
		return nil
	}
	return s.Sync(ctx)
}

// Sync asks the watch for its stored heart-rate and step history. Replies arrive
// through the listeners.
func (s *Session) Sync(ctx context.Context) error {
	if !s.Running() {
		return apperr.ErrNotConnected
	}
	if err := s.send(ctx,
		protocol.HeartRateDataRequest{},
		protocol.RecordedStepsRequest{},
		protocol.DataRecordedStepsRequest{},
	); err != nil {
		return fmt.Errorf("session: sync: %w", err)
	}
	s.logger().Info("session: history requested")
	return nil
}

// SendAlert shows text on the watch.
func (s *Session) SendAlert(ctx context.Context, kind protocol.AlertType, text string) error {
	if !s.Running() {
		return apperr.ErrNotConnected
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := transport.SendAlert(ctx, s.Transport, kind, text); err != nil {
		return fmt.Errorf("session: alert: %w", err)
	}
	return nil
}

// Request sends a single request while the session runs.
func (s *Session) Request(ctx context.Context, req protocol.Request) error {
	if !s.Running() {
		return apperr.ErrNotConnected
	}
	return s.send(ctx, req)
}

func (s *Session) send(ctx context.Context, reqs ...protocol.Request) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	return transport.SendAll(ctx, s.Transport, reqs...)
}

func (s *Session) handleResponse(n transport.Notification, res protocol.Response) {
	if s.Recorder != nil {
		s.Recorder.Received(n, res, nil)
	}
	logger := s.logger()

	if s.State != nil && s.State.Apply(res) {
		s.publish(sse.TypeDevice, s.State.Snapshot())
	}
	if rate, ok := liveRate(res); ok {
		s.publish(sse.TypeLive, map[string]uint8{"heart_rate": rate})
	}

	if s.Ingestor == nil {
		return
	}
	result, err := s.Ingestor.Ingest(res)
	if err != nil {
		if errors.Is(err, apperr.ErrStoreCorrupt) {
			logger.Error("session: daily record corrupt, update dropped",
				slog.String("type", protocol.Name(res)),
				slog.String("error", err.Error()))
		} else {
			logger.Error("session: ingest failed",
				slog.String("type", protocol.Name(res)),
				slog.String("error", err.Error()))
		}
		s.setError(err)
		s.publish(sse.TypeStoreError, map[string]string{"type": protocol.Name(res), "error": err.Error()})
		return
	}
	if result == nil {
		return
	}
	logger.Debug("session: merged",
		slog.String("metric", result.Metric),
		slog.String("date", result.Date.String()),
		slog.Int("added", result.Added),
		slog.Int("count", int(result.Count)))
	if s.State != nil {
		s.State.AddSynced(result.Metric)
	}
	if s.Events != nil {
		s.Events.PublishRecord(result.Metric, result.Date.String(), result.Added, int(result.Count))
	}
}

func (s *Session) handleUndecoded(n transport.Notification, err error) {
	if s.Recorder != nil {
		s.Recorder.Received(n, nil, err)
	}
	if s.State != nil {
		s.State.CountUndecoded()
	}
	s.publish(sse.TypeUndecoded, map[string]string{
		"endpoint": n.Endpoint.Name,
		"raw":      hex.EncodeToString(n.Data),
		"error":    err.Error(),
	})
}

func (s *Session) publish(typ string, data any) {
	if s.Events != nil {
		s.Events.Publish(sse.Event{Type: typ, Data: data})
	}
}

func (s *Session) setError(err error) {
	if s.State != nil {
		s.State.SetError(err.Error())
	}
}

func liveRate(res protocol.Response) (uint8, bool) {
	switch r := res.(type) {
	case *protocol.HeartRateMenuPeriodicResponse:
		return r.HeartRate, true
	case *protocol.HeartRateMenuLeavingResponse:
		return r.HeartRate, true
	case *protocol.HeartRateMenuDataResponse:
		return r.HeartRate, true
	case *protocol.HeartRatePeriodicResponse:
		return r.HeartRate, true
	case *protocol.HeartRatePeriodicAltResponse:
		return r.HeartRate, true
	}
	return 0, false
}
