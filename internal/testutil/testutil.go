// Package testutil provides shared test helpers: record stores, index databases and an
// in-memory watch transport.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/starford/wristlog/internal/daily"
	"github.com/starford/wristlog/internal/index"
	"github.com/starford/wristlog/internal/protocol"
	"github.com/starford/wristlog/internal/storage"
	"github.com/starford/wristlog/internal/telemetry"
	"github.com/starford/wristlog/internal/transport"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStore creates a temporary data directory with a storage.FS.
func TestStore(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// TestIngestor returns an ingestor over a fresh data directory.
func TestIngestor(t *testing.T) (*telemetry.Ingestor, *storage.FS) {
	t.Helper()
	_, fs := TestStore(t)
	return &telemetry.Ingestor{
		HeartRate: daily.NewStore(daily.HeartRate, fs),
		Steps:     daily.NewStore(daily.Steps, fs),
	}, fs
}

// Write is one call recorded by FakeTransport.
type Write struct {
	Endpoint protocol.Endpoint
	Data     []byte
	Mode     protocol.WriteMode
}

// FakeTransport is an in-memory transport.Transport. Notifications pushed before a
// subscription are buffered.
type FakeTransport struct {
	mu      sync.Mutex
	writes  []Write
	streams map[protocol.Endpoint]chan transport.Notification

	// WriteErr, when set, is returned by every Write.
	WriteErr error
	// OnWrite, when set, is called after each recorded write, outside the lock.
	OnWrite func(w Write)
}

// NewFakeTransport returns an empty FakeTransport.
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{streams: make(map[protocol.Endpoint]chan transport.Notification)}
}

func (f *FakeTransport) stream(ep protocol.Endpoint) chan transport.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.streams[ep]
	if !ok {
		ch = make(chan transport.Notification, 256)
		f.streams[ep] = ch
	}
	return ch
}

func (f *FakeTransport) Write(_ context.Context, ep protocol.Endpoint, data []byte, mode protocol.WriteMode) error {
	f.mu.Lock()
	err := f.WriteErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	w := Write{Endpoint: ep, Data: slices.Clone(data), Mode: mode}
	f.mu.Lock()
	f.writes = append(f.writes, w)
	hook := f.OnWrite
	f.mu.Unlock()
	if hook != nil {
		hook(w)
	}
	return nil
}

func (f *FakeTransport) Subscribe(_ context.Context, ep protocol.Endpoint) (<-chan transport.Notification, error) {
	return f.stream(ep), nil
}

// Notify delivers data on ep.
func (f *FakeTransport) Notify(ep protocol.Endpoint, data []byte) {
	f.stream(ep) <- transport.Notification{Endpoint: ep, Data: slices.Clone(data)}
}

// NotifyMessage encodes m and delivers it on its endpoint.
func (f *FakeTransport) NotifyMessage(m protocol.Encoder) {
	f.Notify(m.Endpoint(), protocol.Encode(m))
}

// Close ends the stream of ep.
func (f *FakeTransport) Close(ep protocol.Endpoint) {
	close(f.stream(ep))
}

// Fail makes every later Write return err. It is safe while a session runs.
func (f *FakeTransport) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.WriteErr = err
}

// Writes returns a copy of the recorded writes.
func (f *FakeTransport) Writes() []Write {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.writes)
}

// QuietLogger returns a logger that discards everything.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
