// Package sse implements a Server-Sent Events broker for live watch updates.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Event types.
const (
	TypeRecordUpdated  = "record.updated"
	TypeSummaryUpdated = "summary.updated"
	TypeDevice         = "device.updated"
	TypeLive           = "heart_rate.live"
	TypeUndecoded      = "notification.undecoded"
	TypeStoreError     = "store.error"
	TypeIndexUpdated   = "index.updated"
)

const (
	historySize       = 128
	clientBufferSize  = 64
	defaultKeepAlive  = 15 * time.Second
	defaultSummaryMin = 2 * time.Second
)

type recordEventReq struct {
	metric string
	date   string
	added  int
	count  int
}

type subscribeReq struct {
	ch     chan []byte
	lastID uint64
}

type frame struct {
	id  uint64
	raw []byte
}

// Broker manages SSE client connections and broadcasts events.
//
// Concurrency model: a single internal event loop (goroutine) owns mutable state
// (clients, history, last device state and the summary throttle timestamp). Public
// methods communicate with this loop through channels, so no mutexes are required.
//
// Every event gets a sequence id. A client reconnecting with Last-Event-ID receives
// the events it missed while they are still in history; a new client receives the
// last device state instead.
type Broker struct {
	summaryMin time.Duration
	// KeepAlive is the interval of comment pings on idle streams. Zero uses 15s.
	KeepAlive time.Duration

	subscribeCh   chan subscribeReq
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	recordEventCh chan recordEventReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker. summary.updated is emitted at most once per
// summaryThrottle.
func NewBroker(summaryThrottle time.Duration) *Broker {
	if summaryThrottle <= 0 {
		summaryThrottle = defaultSummaryMin
	}

	b := &Broker{
		summaryMin:    summaryThrottle,
		subscribeCh:   make(chan subscribeReq),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		recordEventCh: make(chan recordEventReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	history := make([]frame, 0, historySize)
	var (
		seq         uint64
		lastSummary time.Time
		lastDevice  []byte
	)

	send := func(ch chan []byte, raw []byte) {
		select {
		case ch <- raw:
		default:
			// Client buffer full; skip to avoid blocking broker loop.
		}
	}

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		seq++
		raw := []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", seq, event.Type, payload))

		if len(history) == historySize {
			history = append(history[:0], history[1:]...)
		}
		history = append(history, frame{id: seq, raw: raw})
		if event.Type == TypeDevice {
			lastDevice = raw
		}

		for ch := range clients {
			send(ch, raw)
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case req := <-b.subscribeCh:
			clients[req.ch] = struct{}{}
			switch {
			case req.lastID > 0 && len(history) > 0 && req.lastID+1 >= history[0].id:
				for _, f := range history {
					if f.id > req.lastID {
						send(req.ch, f.raw)
					}
				}
			case lastDevice != nil:
				send(req.ch, lastDevice)
			}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.recordEventCh:
			broadcast(Event{Type: TypeRecordUpdated, Data: map[string]any{
				"metric": req.metric,
				"date":   req.date,
				"added":  req.added,
				"count":  req.count,
			}})

			now := time.Now()
			if now.Sub(lastSummary) >= b.summaryMin {
				lastSummary = now
				broadcast(Event{Type: TypeSummaryUpdated, Data: map[string]string{"date": req.date}})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	return b.SubscribeFrom(0)
}

// SubscribeFrom adds a new client that first receives the retained events after
// lastID. A lastID of zero, or one older than the retained history, yields the last
// device state instead.
func (b *Broker) SubscribeFrom(lastID uint64) chan []byte {
	ch := make(chan []byte, clientBufferSize)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- subscribeReq{ch: ch, lastID: lastID}:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishRecord announces that the daily record of metric for date changed, followed
// by a throttled summary.updated.
func (b *Broker) PublishRecord(metric, date string, added, count int) {
	if b.closed.Load() {
		return
	}
	select {
	case b.recordEventCh <- recordEventReq{metric: metric, date: date, added: added, count: count}:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	lastID, _ := strconv.ParseUint(r.Header.Get("Last-Event-ID"), 10, 64)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.SubscribeFrom(lastID)
	defer b.Unsubscribe(ch)

	interval := b.KeepAlive
	if interval <= 0 {
		interval = defaultKeepAlive
	}
	ping := time.NewTicker(interval)
	defer ping.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
