//go:build unit

package commands_test

import (
	"context"
	"errors"
	"testing"

	"restaurant-ordering/internal/domain/kitchen"
	"restaurant-ordering/internal/domain/order"
	"restaurant-ordering/internal/infra"
	"restaurant-ordering/internal/usecase/commands"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type categoryMenu struct {
	commands.MenuReader
	names map[string]string
}

func (m categoryMenu) CategoryByID(_ context.Context, id string) (*commands.CategorySnapshot, error) {
	name, ok := m.names[id]
	if !ok {
		return nil, infra.NotFound("category not found")
	}
	return &commands.CategorySnapshot{ID: id, Name: name}, nil
}

type memTickets struct {
	created []kitchen.Ticket
	failFor kitchen.Station
}

func (m *memTickets) Create(_ context.Context, t kitchen.Ticket) (string, error) {
	if t.Station == m.failFor {
		return "", errors.New("write failed")
	}
	m.created = append(m.created, t)
	return "tk-" + string(t.Station), nil
}

func (m *memTickets) ListByOrder(context.Context, string) ([]kitchen.Ticket, error) {
	return m.created, nil
}

func persisted(id, menuItemID, categoryID string) order.PersistedLineItem {
	return order.PersistedLineItem{
		ID: id,
		ResolvedLineItem: order.ResolvedLineItem{
			MenuItemID:   menuItemID,
			NameSnapshot: menuItemID,
			CategoryID:   categoryID,
			Quantity:     1,
		},
	}
}

func TestTicketRouter_Route(t *testing.T) {
	menu := categoryMenu{names: map[string]string{
		"c-soup": "Soups",
		"c-cool": "Cold Drinks",
	}}
	tickets := &memTickets{failFor: kitchen.StationDefault}
	pub := &recordingPublisher{err: errors.New("no subscribers")}
	metrics := newRecordingMetrics()
	r := commands.NewTicketRouter(tickets, menu, stationTable(), pub, metrics, discardLogger())

	ref := kitchen.OrderRef{OrderID: "o1", TenantID: "t1", LocationID: "l1"}
	created := r.Route(context.Background(), ref, []order.PersistedLineItem{
		persisted("i1", "rasam", "c-soup"),
		persisted("i2", "nimbu-soda", "c-cool"),
		persisted("i3", "mystery", "c-gone"),
		persisted("i4", "dal", "c-soup"),
		persisted("i5", "uncategorised", ""),
	})

	require.Len(t, created, 2)
	assert.Equal(t, kitchen.StationHot, created[0].Station)
	assert.Equal(t, "tk-hot", created[0].ID)
	assert.Len(t, created[0].Items, 2)
	assert.Equal(t, kitchen.StationBar, created[1].Station, "a drink keyword beats the cold keyword")

	assert.Equal(t, 1, metrics.ticketsFailed[kitchen.StationDefault])
	assert.Equal(t, 1, metrics.ticketsCreated[kitchen.StationHot])
	assert.Len(t, pub.published(), 2, "publish failures are absorbed")
}

func TestTicketRouter_NoItems(t *testing.T) {
	r := commands.NewTicketRouter(&memTickets{}, categoryMenu{}, stationTable(), nil, newRecordingMetrics(), discardLogger())
	assert.Empty(t, r.Route(context.Background(), kitchen.OrderRef{OrderID: "o1"}, nil))
}
