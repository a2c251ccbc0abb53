package commands

import (
	"context"
	"log/slog"

	"restaurant-ordering/internal/domain/order"
	"restaurant-ordering/internal/pkg/errs"
)

// AssembledOrder is a committed order and what happened to each of its lines.
type AssembledOrder struct {
	Order     *order.Order
	LineItems []order.LineItemResult
	Persisted []order.PersistedLineItem
}

type OrderAssembler struct {
	orders  OrderRepository
	items   OrderItemRepository
	metrics PipelineMetrics
	logger  *slog.Logger
}

func NewOrderAssembler(
	orders OrderRepository,
	items OrderItemRepository,
	metrics PipelineMetrics,
	logger *slog.Logger,
) *OrderAssembler {
	return &OrderAssembler{
		orders:  orders,
		items:   items,
		metrics: metrics,
		logger:  logger,
	}
}

// Assemble writes the order row, makes sure its discount landed, then writes
// the line items. Only the order write can fail the call.
func (a *OrderAssembler) Assemble(ctx context.Context, o *order.Order, items []order.ResolvedLineItem) (*AssembledOrder, error) {
	id, err := a.orders.Create(ctx, o)
	if err != nil {
		return nil, errs.Mark(err, ErrStoreFailure)
	}
	o.SetID(id)

	a.reconcileDiscount(ctx, o)

	results, persisted := a.PersistItems(ctx, id, items)
	return &AssembledOrder{Order: o, LineItems: results, Persisted: persisted}, nil
}

// reconcileDiscount re-reads the order and issues one corrective update when
// the stored discount or coupon differ from what was sent. The intended values
// on o are kept either way.
func (a *OrderAssembler) reconcileDiscount(ctx context.Context, o *order.Order) {
	saved, err := a.orders.FindByID(ctx, o.ID())
	if err != nil {
		a.logger.Warn("failed to re-read order after create",
			slog.String("order_id", o.ID()),
			slog.String("error", err.Error()))
		return
	}

	if saved.Totals().Discount == o.Totals().Discount && saved.CouponID() == o.CouponID() {
		return
	}

	a.logger.Warn("order discount was not persisted as sent, correcting",
		slog.String("order_id", o.ID()),
		slog.Int64("sent_discount", o.Totals().Discount),
		slog.Int64("stored_discount", saved.Totals().Discount),
		slog.String("coupon_id", o.CouponID()))

	if err := a.orders.UpdateDiscount(ctx, o); err != nil {
		a.logger.Warn("corrective discount update failed",
			slog.String("order_id", o.ID()),
			slog.String("error", err.Error()))
	}
}

// PersistItems writes each line item in order. A failed write is recorded on
// its result and does not stop the remaining lines.
func (a *OrderAssembler) PersistItems(
	ctx context.Context,
	orderID string,
	items []order.ResolvedLineItem,
) ([]order.LineItemResult, []order.PersistedLineItem) {
	results := make([]order.LineItemResult, len(items))
	persisted := make([]order.PersistedLineItem, 0, len(items))

	for i, item := range items {
		results[i] = order.LineItemResult{Index: i, MenuItemID: item.MenuItemID}

		itemID, err := a.items.Create(ctx, orderID, item)
		if err != nil {
			results[i].Err = err
			a.metrics.LineItemFailed()
			a.logger.Warn("failed to persist order item",
				slog.String("order_id", orderID),
				slog.String("menu_item_id", item.MenuItemID),
				slog.Int("index", i),
				slog.String("error", err.Error()))
			continue
		}

		results[i].OrderItemID = itemID
		persisted = append(persisted, order.PersistedLineItem{ResolvedLineItem: item, ID: itemID})
	}
	return results, persisted
}
