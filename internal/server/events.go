package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/pders01/cascade/internal/fetch"
	"github.com/pders01/cascade/internal/models"
	"go.uber.org/zap"
)

// Event names streamed on /v1/events
const (
	EventNodeCreated     = "nodeCreated"
	EventImageDownloaded = "imageDownloaded"
)

// subscriberBuffer is how many events a slow subscriber may lag behind
const subscriberBuffer = 32

// Event is one server-sent event
type Event struct {
	Name string
	Data any
}

// Hub fans notifications out to event stream subscribers. It implements
// ingest.Notifier.
type Hub struct {
	mu     sync.Mutex
	subs   map[chan Event]struct{}
	closed bool
	logger *zap.Logger
}

// NewHub creates an empty hub
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{subs: make(map[chan Event]struct{}), logger: logger}
}

// Subscribe returns a channel of events and a function that ends the subscription
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}
		})
	}
}

// Subscribers returns the number of live subscriptions
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close ends every subscription
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for ch := range h.subs {
		close(ch)
		delete(h.subs, ch)
	}
}

// publish never blocks; a subscriber with a full buffer misses the event
func (h *Hub) publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- e:
		default:
			h.logger.Debug("event dropped for slow subscriber", zap.String("event", e.Name))
		}
	}
}

// NodeCreated announces a new node without its file bytes
func (h *Hub) NodeCreated(n models.Node) {
	n.FileData = nil
	h.publish(Event{Name: EventNodeCreated, Data: n})
}

// ImageDownloaded announces a completed download
func (h *Hub) ImageDownloaded(c fetch.Completion) {
	h.publish(Event{Name: EventImageDownloaded, Data: c})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		s.logger.Debug("event stream cannot flush", zap.Error(err))
		return
	}

	events, cancel := s.hub.Subscribe()
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			raw, err := json.Marshal(e.Data)
			if err != nil {
				s.logger.Debug("failed to encode event", zap.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Name, raw); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
