package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"restaurant-ordering/internal/domain/kitchen"
)

var (
	ErrHubBusy    = errors.New("kitchen hub broadcast queue is full")
	ErrHubStopped = errors.New("kitchen hub is stopped")
)

// locationEvent routes an event to the displays of one location.
type locationEvent struct {
	LocationID string
	Event      Event
}

// Hub keeps the kitchen display connections per location and broadcasts
// ticket events to them.
type Hub struct {
	rooms map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *locationEvent
	done       chan struct{}

	mu     sync.RWMutex
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *locationEvent, 256),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run is the hub's main loop; it returns when ctx is done. Call it once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.locationID] == nil {
				h.rooms[client.locationID] = make(map[*Client]bool)
			}
			h.rooms[client.locationID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.removeLocked(client)
			h.mu.Unlock()

		case event := <-h.broadcast:
			message, err := json.Marshal(event.Event)
			if err != nil {
				h.logger.Warn("failed to encode kitchen event", slog.String("error", err.Error()))
				continue
			}

			h.mu.Lock()
			for client := range h.rooms[event.LocationID] {
				select {
				case client.send <- message:
				default:
					// Slow display: drop it rather than block the others.
					h.removeLocked(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) removeLocked(client *Client) {
	clients, ok := h.rooms[client.locationID]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.rooms, client.locationID)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.rooms {
		for client := range clients {
			h.removeLocked(client)
		}
	}
}

// ClientCount returns the number of displays connected for a location.
func (h *Hub) ClientCount(locationID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[locationID])
}

// BroadcastToLocation queues an event without blocking.
func (h *Hub) BroadcastToLocation(locationID string, event Event) error {
	select {
	case h.broadcast <- &locationEvent{LocationID: locationID, Event: event}:
		return nil
	default:
		return ErrHubBusy
	}
}

func (h *Hub) PublishTicket(_ context.Context, t kitchen.Ticket) error {
	event, err := NewTicketEvent(t)
	if err != nil {
		return err
	}
	return h.BroadcastToLocation(t.LocationID, event)
}
