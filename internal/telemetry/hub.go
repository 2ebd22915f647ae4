package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/radio-control/sdrfe/internal/config"
)

// Event types published by the daemon.
const (
	EventReady           = "ready"
	EventHeartbeat       = "heartbeat"
	EventToneChanged     = "toneChanged"
	EventTuneChanged     = "tuneChanged"
	EventReset           = "reset"
	EventVolumeChanged   = "volumeChanged"
	EventCodecConfigured = "codecConfigured"
	EventRegisterWritten = "registerWritten"
	EventStreamStats     = "streamStats"
	EventOverflow        = "overflow"
	EventFault           = "fault"
)

// DefaultBufferSize applies when the configured backlog is not positive.
const DefaultBufferSize = 50

// sendTimeout bounds how long Publish waits on a slow client.
const sendTimeout = 100 * time.Millisecond

// Event is one SSE message.
type Event struct {
	ID   int64                  `json:"id,omitempty"`
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

// SnapshotFunc supplies the state sent in the ready event.
type SnapshotFunc func() map[string]interface{}

// Client is one SSE connection.
type Client struct {
	ID      string
	Writer  http.ResponseWriter
	Context context.Context
	Cancel  context.CancelFunc
	LastID  int64
	Events  chan Event
	mu      sync.Mutex
}

// Hub distributes events to subscribers.
//
// h.mu guards clients, the heartbeat ticker and the snapshot func.
// EventBuffer has its own lock and is never replaced.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*Client
	nextID   int64
	clientN  int64
	buffer   *EventBuffer
	cfg      config.TelemetryConfig
	snapshot SnapshotFunc

	heartbeatTicker *time.Ticker
	stopHeartbeat   chan struct{}

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewHub creates a hub using cfg for heartbeats and backlog size.
func NewHub(cfg config.TelemetryConfig) *Hub {
	size := cfg.EventBufferSize
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &Hub{
		clients: make(map[string]*Client),
		buffer:  NewEventBuffer(size),
		cfg:     cfg,
		done:    make(chan struct{}),
	}
}

// SetSnapshot installs the source of the ready event payload.
func (h *Hub) SetSnapshot(fn SnapshotFunc) {
	h.mu.Lock()
	h.snapshot = fn
	h.mu.Unlock()
}

// Clients returns the number of connected subscribers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Subscribe serves one SSE client until ctx ends or the hub stops. A
// Last-Event-ID header replays the backlog after that ID.
func (h *Hub) Subscribe(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	select {
	case <-h.done:
		return fmt.Errorf("telemetry hub stopped")
	default:
	}

	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	lastEventID := int64(0)
	if lastIDStr := r.Header.Get("Last-Event-ID"); lastIDStr != "" {
		if id, err := strconv.ParseInt(lastIDStr, 10, 64); err == nil {
			lastEventID = id
		}
	}

	clientCtx, cancel := context.WithCancel(ctx)
	client := &Client{
		ID:      fmt.Sprintf("client_%d", atomic.AddInt64(&h.clientN, 1)),
		Writer:  w,
		Context: clientCtx,
		Cancel:  cancel,
		LastID:  lastEventID,
		Events:  make(chan Event, 100),
	}

	h.mu.Lock()
	h.clients[client.ID] = client
	if h.heartbeatTicker == nil {
		h.startHeartbeat()
	}
	snapshot := h.snapshot
	h.mu.Unlock()
	defer h.unregisterClient(client.ID)

	ready := Event{Type: EventReady, Data: map[string]interface{}{}}
	if snapshot != nil {
		ready.Data["snapshot"] = snapshot()
	}
	if err := h.sendEventToClient(client, ready); err != nil {
		return fmt.Errorf("failed to send ready event: %w", err)
	}

	if lastEventID > 0 {
		for _, event := range h.buffer.GetEventsAfter(lastEventID) {
			if err := h.sendEventToClient(client, event); err != nil {
				return fmt.Errorf("failed to replay events: %w", err)
			}
		}
	}

	h.handleClient(client)
	return nil
}

// Publish assigns the next event ID, buffers the event and offers it to
// every client. Heartbeats are not buffered. A client that does not
// accept the event within sendTimeout misses it.
func (h *Hub) Publish(event Event) {
	if event.ID == 0 {
		event.ID = atomic.AddInt64(&h.nextID, 1)
	}
	if event.Data == nil {
		event.Data = map[string]interface{}{}
	}
	if event.Type != EventHeartbeat {
		h.buffer.AddEvent(event)
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		timer := time.NewTimer(sendTimeout)
		select {
		case <-client.Context.Done():
		case <-h.done:
			timer.Stop()
			return
		case client.Events <- event:
		case <-timer.C:
		}
		timer.Stop()
	}
}

// PublishType is shorthand for Publish with a fresh event.
func (h *Hub) PublishType(eventType string, data map[string]interface{}) {
	h.Publish(Event{Type: eventType, Data: data})
}

func (h *Hub) sendEventToClient(client *Client, event Event) error {
	client.mu.Lock()
	defer client.mu.Unlock()

	// Already delivered by replay.
	if event.ID > 0 && event.ID <= client.LastID {
		return nil
	}

	data, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	if event.ID > 0 {
		if _, err := fmt.Fprintf(client.Writer, "id: %d\n", event.ID); err != nil {
			return fmt.Errorf("failed to write event ID: %w", err)
		}
	}
	if _, err := fmt.Fprintf(client.Writer, "event: %s\ndata: %s\n\n", event.Type, data); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	if flusher, ok := client.Writer.(http.Flusher); ok {
		flusher.Flush()
	}
	if event.ID > client.LastID {
		client.LastID = event.ID
	}
	return nil
}

func (h *Hub) handleClient(client *Client) {
	for {
		select {
		case <-client.Context.Done():
			return
		case <-h.done:
			return
		case event := <-client.Events:
			if err := h.sendEventToClient(client, event); err != nil {
				return
			}
		}
	}
}

func (h *Hub) unregisterClient(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, exists := h.clients[clientID]
	if !exists {
		return
	}
	client.Cancel()
	delete(h.clients, clientID)

	if len(h.clients) == 0 {
		h.stopHeartbeatLocked()
	}
}

// startHeartbeat requires h.mu held and no running ticker.
func (h *Hub) startHeartbeat() {
	interval := h.cfg.HeartbeatInterval
	if interval <= 0 {
		return
	}
	if jitter := h.cfg.HeartbeatJitter; jitter > 0 {
		interval += time.Duration(rand.Int64N(int64(jitter)))
	}

	ticker := time.NewTicker(interval)
	stop := make(chan struct{})
	h.heartbeatTicker = ticker
	h.stopHeartbeat = stop

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		for {
			select {
			case <-ticker.C:
				h.PublishType(EventHeartbeat, map[string]interface{}{
					"ts": time.Now().UTC().Format(time.RFC3339),
				})
			case <-stop:
				return
			case <-h.done:
				return
			}
		}
	}()
}

func (h *Hub) stopHeartbeatLocked() {
	if h.heartbeatTicker != nil {
		h.heartbeatTicker.Stop()
		h.heartbeatTicker = nil
	}
	if h.stopHeartbeat != nil {
		close(h.stopHeartbeat)
		h.stopHeartbeat = nil
	}
}

// Stop disconnects every client and ends the heartbeat. It is safe to
// call more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)

		h.mu.Lock()
		for _, client := range h.clients {
			client.Cancel()
		}
		h.stopHeartbeatLocked()
		h.mu.Unlock()

		done := make(chan struct{})
		go func() {
			h.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
		}
	})
}

// EventBuffer keeps the most recent events in publish order.
type EventBuffer struct {
	mu       sync.RWMutex
	events   []Event
	capacity int
}

// NewEventBuffer creates a buffer holding at most capacity events.
func NewEventBuffer(capacity int) *EventBuffer {
	return &EventBuffer{
		events:   make([]Event, 0, capacity),
		capacity: capacity,
	}
}

// AddEvent appends event, dropping the oldest when full.
func (b *EventBuffer) AddEvent(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.events) == b.capacity {
		copy(b.events, b.events[1:])
		b.events = b.events[:len(b.events)-1]
	}
	b.events = append(b.events, event)
}

// GetEventsAfter returns the buffered events with ID greater than lastID.
func (b *EventBuffer) GetEventsAfter(lastID int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var result []Event
	for _, event := range b.events {
		if event.ID > lastID {
			result = append(result, event)
		}
	}
	return result
}

// GetCapacity returns the buffer capacity.
func (b *EventBuffer) GetCapacity() int {
	return b.capacity
}

// GetSize returns the number of buffered events.
func (b *EventBuffer) GetSize() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.events)
}
