package notify

import (
	"encoding/json"

	"restaurant-ordering/internal/domain/kitchen"
)

const EventTicketCreated = "kitchen.ticket.created"

// Event is the envelope sent to kitchen displays and event consumers.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type TicketPayload struct {
	TicketID   string               `json:"ticketId"`
	OrderID    string               `json:"orderId"`
	TenantID   string               `json:"tenantId"`
	LocationID string               `json:"locationId"`
	TableID    string               `json:"tableId,omitempty"`
	Station    string               `json:"station"`
	Status     string               `json:"status"`
	Priority   bool                 `json:"priority"`
	Items      []kitchen.TicketItem `json:"items"`
}

func NewTicketEvent(t kitchen.Ticket) (Event, error) {
	payload, err := json.Marshal(TicketPayload{
		TicketID:   t.ID,
		OrderID:    t.OrderID,
		TenantID:   t.TenantID,
		LocationID: t.LocationID,
		TableID:    t.TableID,
		Station:    t.Station.String(),
		Status:     t.Status.String(),
		Priority:   t.Priority,
		Items:      t.Items,
	})
	if err != nil {
		return Event{}, err
	}
	return Event{Type: EventTicketCreated, Payload: payload}, nil
}
