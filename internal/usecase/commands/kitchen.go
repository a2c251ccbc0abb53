package commands

import (
	"context"
	"log/slog"

	"restaurant-ordering/internal/domain/kitchen"
	"restaurant-ordering/internal/domain/order"
)

// TicketRouter turns persisted line items into one kitchen ticket per station.
type TicketRouter struct {
	tickets    TicketRepository
	menu       MenuReader
	classifier StationClassifier
	publisher  TicketPublisher
	metrics    PipelineMetrics
	logger     *slog.Logger
}

func NewTicketRouter(
	tickets TicketRepository,
	menu MenuReader,
	classifier StationClassifier,
	publisher TicketPublisher,
	metrics PipelineMetrics,
	logger *slog.Logger,
) *TicketRouter {
	return &TicketRouter{
		tickets:    tickets,
		menu:       menu,
		classifier: classifier,
		publisher:  publisher,
		metrics:    metrics,
		logger:     logger,
	}
}

// Route creates and publishes the tickets for items. It never fails: every
// error is logged and counted, and the tickets that were written are returned.
func (r *TicketRouter) Route(ctx context.Context, ref kitchen.OrderRef, items []order.PersistedLineItem) []kitchen.Ticket {
	if len(items) == 0 {
		return nil
	}

	routed := make([]kitchen.RoutedItem, len(items))
	stations := make(map[string]kitchen.Station)
	for i, item := range items {
		st, ok := stations[item.CategoryID]
		if !ok {
			st = r.stationFor(ctx, ref.OrderID, item.CategoryID)
			stations[item.CategoryID] = st
		}
		routed[i] = kitchen.RoutedItem{Item: item, Station: st}
	}

	var created []kitchen.Ticket
	for _, t := range kitchen.Partition(ref, routed) {
		id, err := r.tickets.Create(ctx, t)
		if err != nil {
			r.metrics.TicketFailed(t.Station)
			r.logger.Warn("failed to create kitchen ticket",
				slog.String("order_id", ref.OrderID),
				slog.String("station", string(t.Station)),
				slog.Int("items", len(t.Items)),
				slog.String("error", err.Error()))
			continue
		}
		t.ID = id
		r.metrics.TicketCreated(t.Station)
		created = append(created, t)

		r.publish(ctx, t)
	}
	return created
}

func (r *TicketRouter) stationFor(ctx context.Context, orderID, categoryID string) kitchen.Station {
	if categoryID == "" {
		return kitchen.StationDefault
	}
	cat, err := r.menu.CategoryByID(ctx, categoryID)
	if err != nil {
		r.logger.Debug("category lookup failed, routing to default station",
			slog.String("order_id", orderID),
			slog.String("category_id", categoryID),
			slog.String("error", err.Error()))
		return kitchen.StationDefault
	}
	return r.classifier.Classify(cat.Name)
}

func (r *TicketRouter) publish(ctx context.Context, t kitchen.Ticket) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.PublishTicket(ctx, t); err != nil {
		r.logger.Warn("failed to publish kitchen ticket",
			slog.String("order_id", t.OrderID),
			slog.String("ticket_id", t.ID),
			slog.String("station", string(t.Station)),
			slog.String("error", err.Error()))
	}
}
