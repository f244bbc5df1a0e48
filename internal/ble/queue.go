package ble

import (
	"context"
	"sync"

	"github.com/starford/wristlog/internal/transport"
)

// queue is an unbounded FIFO between a notification callback and its consumer.
type queue struct {
	mu    sync.Mutex
	items []transport.Notification
	ready chan struct{}
}

func newQueue() *queue {
	return &queue{ready: make(chan struct{}, 1)}
}

func (q *queue) push(n transport.Notification) {
	q.mu.Lock()
	q.items = append(q.items, n)
	q.mu.Unlock()
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

func (q *queue) pop() (transport.Notification, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return transport.Notification{}, false
	}
	n := q.items[0]
	q.items[0] = transport.Notification{}
	q.items = q.items[1:]
	return n, true
}

// pump forwards queued notifications to out in order until ctx or done ends, then closes out.
func (q *queue) pump(ctx context.Context, done <-chan struct{}, out chan<- transport.Notification) {
	defer close(out)
	for {
		n, ok := q.pop()
		if !ok {
			select {
			case <-q.ready:
				continue
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
		select {
		case out <- n:
		case <-ctx.Done():
			return
		case <-done:
			return
		}
	}
}
