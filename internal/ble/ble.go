// Package ble connects to the watch over Bluetooth LE and exposes it as a transport.Transport.
package ble

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"tinygo.org/x/bluetooth"

	"github.com/starford/wristlog/internal/protocol"
	"github.com/starford/wristlog/internal/transport"
)

var (
	errClosed   = errors.New("ble: connection closed")
	errNoDevice = errors.New("ble: watch not found")
)

// Options controls discovery and connection.
type Options struct {
	// Name is the advertised local name to look for.
	Name string
	// Address, when set, is matched instead of Name.
	Address        string
	ScanTimeout    time.Duration
	ConnectTimeout time.Duration
}

// Conn is an open connection to the watch.
type Conn struct {
	dev     bluetooth.Device
	address string
	logger  *slog.Logger
	chars   map[protocol.Endpoint]bluetooth.DeviceCharacteristic

	mu       sync.Mutex
	subs     map[protocol.Endpoint]*queue
	closed   bool
	released bool
	done     chan struct{}
}

var _ transport.Transport = (*Conn)(nil)

func toUUID(u uuid.UUID) bluetooth.UUID {
	return bluetooth.NewUUID([16]byte(u))
}

// Dial enables adapter, scans for the watch and binds every known endpoint the
// watch exposes.
func Dial(ctx context.Context, adapter *bluetooth.Adapter, opts Options, logger *slog.Logger) (*Conn, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("ble: enable adapter: %w", err)
	}

	addr, err := scan(ctx, adapter, opts, logger)
	if err != nil {
		return nil, err
	}

	dev, err := adapter.Connect(addr, bluetooth.ConnectionParams{
		ConnectionTimeout: bluetooth.NewDuration(opts.ConnectTimeout),
	})
	if err != nil {
		return nil, fmt.Errorf("ble: connect %s: %w", addr, err)
	}
	logger.Info("ble: connected", slog.String("address", addr.String()))

	c := &Conn{
		dev:     dev,
		address: addr.String(),
		logger:  logger,
		chars:   make(map[protocol.Endpoint]bluetooth.DeviceCharacteristic),
		subs:    make(map[protocol.Endpoint]*queue),
		done:    make(chan struct{}),
	}
	adapter.SetConnectHandler(func(d bluetooth.Device, connected bool) {
		c.linkEvent(d.Address.String(), connected)
	})
	if err := c.discover(); err != nil {
		_ = dev.Disconnect()
		return nil, err
	}
	return c, nil
}

func scan(ctx context.Context, adapter *bluetooth.Adapter, opts Options, logger *slog.Logger) (bluetooth.Address, error) {
	if opts.ScanTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.ScanTimeout)
		defer cancel()
	}

	found := make(chan bluetooth.Address, 1)
	errCh := make(chan error, 1)
	go func() {
		err := adapter.Scan(func(a *bluetooth.Adapter, result bluetooth.ScanResult) {
			if !matches(opts, result) {
				return
			}
			select {
			case found <- result.Address:
			default:
			}
			if err := a.StopScan(); err != nil {
				logger.Warn("ble: stop scan", slog.String("error", err.Error()))
			}
		})
		errCh <- err
	}()

	select {
	case addr := <-found:
		logger.Info("ble: found watch", slog.String("address", addr.String()))
		return addr, nil
	case err := <-errCh:
		if err != nil {
			return bluetooth.Address{}, fmt.Errorf("ble: scan: %w", err)
		}
		select {
		case addr := <-found:
			return addr, nil
		default:
			return bluetooth.Address{}, errNoDevice
		}
	case <-ctx.Done():
		_ = adapter.StopScan()
		return bluetooth.Address{}, fmt.Errorf("%w: %w", errNoDevice, ctx.Err())
	}
}

func matches(opts Options, result bluetooth.ScanResult) bool {
	if opts.Address != "" {
		return strings.EqualFold(result.Address.String(), opts.Address)
	}
	return result.LocalName() == opts.Name
}

func (c *Conn) discover() error {
	want := make(map[bluetooth.UUID][]protocol.Endpoint)
	var services []bluetooth.UUID
	for _, ep := range protocol.Endpoints() {
		s := toUUID(ep.Service)
		if _, ok := want[s]; !ok {
			services = append(services, s)
		}
		want[s] = append(want[s], ep)
	}

	found, err := c.dev.DiscoverServices(services)
	if err != nil {
		return fmt.Errorf("ble: discover services: %w", err)
	}
	for _, svc := range found {
		eps := want[svc.UUID()]
		ids := make([]bluetooth.UUID, 0, len(eps))
		for _, ep := range eps {
			ids = append(ids, toUUID(ep.Characteristic))
		}
		chars, err := svc.DiscoverCharacteristics(ids)
		if err != nil {
			c.logger.Warn("ble: discover characteristics",
				slog.String("service", svc.UUID().String()),
				slog.String("error", err.Error()))
			continue
		}
		for _, ch := range chars {
			for _, ep := range eps {
				if toUUID(ep.Characteristic) == ch.UUID() {
					c.chars[ep] = ch
				}
			}
		}
	}

	for _, ep := range []protocol.Endpoint{protocol.GeneralWrite, protocol.GeneralNotify, protocol.Data2Write, protocol.Data2Notify} {
		if _, ok := c.chars[ep]; !ok {
			return fmt.Errorf("ble: watch lacks %s", ep)
		}
	}
	c.logger.Info("ble: endpoints bound", slog.Int("count", len(c.chars)))
	return nil
}

// Address is the watch's Bluetooth address.
func (c *Conn) Address() string { return c.address }

// Done is closed when the connection is closed or the watch drops the link.
func (c *Conn) Done() <-chan struct{} { return c.done }

// linkEvent handles adapter connect callbacks. A disconnect of this watch ends
// every subscription and fails later writes.
func (c *Conn) linkEvent(addr string, connected bool) {
	if connected || !strings.EqualFold(addr, c.address) {
		return
	}
	if c.markClosed() {
		c.logger.Warn("ble: link lost", slog.String("address", c.address))
	}
}

// markClosed closes done once and reports whether this call did it.
func (c *Conn) markClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.closed = true
	close(c.done)
	return true
}

func (c *Conn) Write(_ context.Context, ep protocol.Endpoint, data []byte, mode protocol.WriteMode) error {
	if len(data) > protocol.MaxWriteSize {
		return fmt.Errorf("ble: %d byte write to %s exceeds %d", len(data), ep, protocol.MaxWriteSize)
	}
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return errClosed
	}
	ch, ok := c.chars[ep]
	if !ok {
		return fmt.Errorf("ble: endpoint %s not bound", ep)
	}

	var err error
	if mode == protocol.WithoutResponse {
		_, err = ch.WriteWithoutResponse(data)
	} else {
		err = writeAcked(ch, data)
	}
	return err
}

// Subscribe enables notifications on ep. Buffers are queued without bound so the
// radio callback never waits on the consumer.
func (c *Conn) Subscribe(ctx context.Context, ep protocol.Endpoint) (<-chan transport.Notification, error) {
	ch, ok := c.chars[ep]
	if !ok {
		return nil, fmt.Errorf("ble: endpoint %s not bound", ep)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, errClosed
	}
	if _, dup := c.subs[ep]; dup {
		c.mu.Unlock()
		return nil, fmt.Errorf("ble: %s already subscribed", ep)
	}
	q := newQueue()
	c.subs[ep] = q
	c.mu.Unlock()

	if err := ch.EnableNotifications(func(buf []byte) {
		q.push(transport.Notification{Endpoint: ep, Data: append([]byte(nil), buf...)})
	}); err != nil {
		c.mu.Lock()
		delete(c.subs, ep)
		c.mu.Unlock()
		return nil, fmt.Errorf("ble: enable notifications on %s: %w", ep, err)
	}

	out := make(chan transport.Notification)
	go q.pump(ctx, c.done, out)
	return out, nil
}

// Close disconnects from the watch and ends every subscription. It also
// disconnects after the link was lost, so the adapter forgets the device.
func (c *Conn) Close() error {
	c.markClosed()
	c.mu.Lock()
	if c.released {
		c.mu.Unlock()
		return nil
	}
	c.released = true
	c.mu.Unlock()

	for ep := range c.chars {
		if ep == protocol.GeneralNotify || ep == protocol.Data2Notify {
			_ = c.chars[ep].EnableNotifications(nil)
		}
	}
	if err := c.dev.Disconnect(); err != nil {
		return fmt.Errorf("ble: disconnect: %w", err)
	}
	c.logger.Info("ble: disconnected", slog.String("address", c.address))
	return nil
}
