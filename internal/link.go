package internal

import (
	"context"
	"sync"

	"github.com/starford/wristlog/internal/apperr"
	"github.com/starford/wristlog/internal/protocol"
	"github.com/starford/wristlog/internal/session"
)

// watchLink forwards commands to the session of the current connection. It
// outlives reconnects so the HTTP and MCP layers hold a single reference.
type watchLink struct {
	mu      sync.RWMutex
	current *session.Session
}

func (l *watchLink) set(s *session.Session) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.current = s
}

func (l *watchLink) get() (*session.Session, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.current == nil {
		return nil, apperr.ErrNotConnected
	}
	return l.current, nil
}

// SendAlert implements recordservice.Watch.
func (l *watchLink) SendAlert(ctx context.Context, kind protocol.AlertType, text string) error {
	s, err := l.get()
	if err != nil {
		return err
	}
	return s.SendAlert(ctx, kind, text)
}

// Sync implements recordservice.Watch.
func (l *watchLink) Sync(ctx context.Context) error {
	s, err := l.get()
	if err != nil {
		return err
	}
	return s.Sync(ctx)
}
