package repository

import (
	"context"
	"log/slog"

	"restaurant-ordering/internal/domain/kitchen"
	"restaurant-ordering/internal/infra/recordstore"
)

type TicketRepository struct {
	store  recordstore.Store
	logger *slog.Logger
}

func NewTicketRepository(store recordstore.Store, logger *slog.Logger) *TicketRepository {
	return &TicketRepository{store: store, logger: logger}
}

func (r *TicketRepository) Create(ctx context.Context, t kitchen.Ticket) (string, error) {
	rec, err := r.store.Create(ctx, recordstore.CollectionKDSTicket, recordstore.Record{
		"order":       t.OrderID,
		"tenant":      t.TenantID,
		"location":    t.LocationID,
		"table":       t.TableID,
		"station":     t.Station.String(),
		"status":      t.Status.String(),
		"priority":    t.Priority,
		"ticketItems": t.Items,
	})
	if err != nil {
		return "", wrapStoreErr(r.logger, err, "failed to create kitchen ticket")
	}
	return rec.ID(), nil
}

func (r *TicketRepository) ListByOrder(ctx context.Context, orderID string) ([]kitchen.Ticket, error) {
	page, err := r.store.List(ctx, recordstore.CollectionKDSTicket, recordstore.ListOptions{
		Filter:  []recordstore.Cond{recordstore.Eq("order", orderID)},
		Sort:    recordstore.FieldCreated,
		PerPage: recordstore.MaxPerPage,
	})
	if err != nil {
		return nil, wrapStoreErr(r.logger, err, "failed to list kitchen tickets")
	}

	tickets := make([]kitchen.Ticket, 0, len(page.Items))
	for _, rec := range page.Items {
		var items []kitchen.TicketItem
		if err := rec.Decode("ticketItems", &items); err != nil {
			r.logger.Warn("unreadable ticket items",
				slog.String("ticket_id", rec.ID()),
				slog.String("error", err.Error()))
		}
		station, ok := kitchen.ParseStation(rec.String("station"))
		if !ok {
			station = kitchen.StationDefault
		}
		tickets = append(tickets, kitchen.Ticket{
			ID:         rec.ID(),
			OrderID:    rec.RelationID("order"),
			TenantID:   rec.RelationID("tenant"),
			LocationID: rec.RelationID("location"),
			TableID:    rec.RelationID("table"),
			Station:    station,
			Status:     kitchen.TicketStatus(rec.String("status")),
			Priority:   rec.Bool("priority"),
			Items:      items,
		})
	}
	return tickets, nil
}
