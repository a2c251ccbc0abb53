package kitchen

import "restaurant-ordering/internal/domain/order"

// TicketItem is the snapshot of a line item embedded in a ticket.
type TicketItem struct {
	OrderItemID string                 `json:"orderItemId"`
	MenuItemID  string                 `json:"menuItemId"`
	Name        string                 `json:"name"`
	Quantity    int64                  `json:"quantity"`
	Options     []order.OptionSnapshot `json:"options,omitempty"`
}

type Ticket struct {
	ID         string
	OrderID    string
	TenantID   string
	LocationID string
	TableID    string
	Station    Station
	Status     TicketStatus
	Priority   bool
	Items      []TicketItem
}

// RoutedItem is a persisted line item with the station it was classified to.
type RoutedItem struct {
	Item    order.PersistedLineItem
	Station Station
}

// Partition groups routed items into one queued ticket per station that has
// at least one item. Stations appear in first-seen order and items keep
// their input order.
func Partition(o OrderRef, items []RoutedItem) []Ticket {
	var (
		tickets []Ticket
		index   = map[Station]int{}
	)
	for _, ri := range items {
		i, ok := index[ri.Station]
		if !ok {
			i = len(tickets)
			index[ri.Station] = i
			tickets = append(tickets, Ticket{
				OrderID:    o.OrderID,
				TenantID:   o.TenantID,
				LocationID: o.LocationID,
				TableID:    o.TableID,
				Station:    ri.Station,
				Status:     TicketQueued,
				Priority:   false,
			})
		}
		tickets[i].Items = append(tickets[i].Items, snapshot(ri.Item))
	}
	return tickets
}

// OrderRef identifies the order a ticket belongs to.
type OrderRef struct {
	OrderID    string
	TenantID   string
	LocationID string
	TableID    string
}

func snapshot(item order.PersistedLineItem) TicketItem {
	return TicketItem{
		OrderItemID: item.ID,
		MenuItemID:  item.MenuItemID,
		Name:        item.NameSnapshot,
		Quantity:    item.Quantity,
		Options:     item.OptionsSnapshot,
	}
}
