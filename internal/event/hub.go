package event

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Hub is the in-process Sender implementation: a topic → client-channel map
// guarded by a mutex. Client channels must be buffered; Broadcast never
// blocks on a slow consumer.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[chan Event]bool
	closed  bool
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[chan Event]bool),
	}
}

// Register subscribes the client channel to a topic.
func (h *Hub) Register(topic string, client chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	if _, ok := h.clients[topic]; !ok {
		h.clients[topic] = make(map[chan Event]bool)
	}
	h.clients[topic][client] = true
}

// Unregister removes the client channel from a topic. The channel is not
// closed here: one channel may be registered on several topics (room,
// global, user) and is owned by the transport handler that created it.
func (h *Hub) Unregister(topic string, client chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.clients[topic]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.clients, topic)
		}
	}
}

// Broadcast delivers the event to every subscriber of its topic.
// Fire-and-forget: events to full channels are dropped.
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[event.Topic] {
		select {
		case client <- event:
		default:
			log.Warn().
				Str("topic", event.Topic).
				Str("type", event.Type).
				Msg("dropping event for slow subscriber")
		}
	}
}

// Shutdown clears all registrations. Subsequent Register calls are ignored
// so late handlers observe an empty hub instead of a leak.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.clients = make(map[string]map[chan Event]bool)
}
