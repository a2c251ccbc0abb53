package repository

import (
	"context"
	"log/slog"

	"restaurant-ordering/internal/domain/order"
	"restaurant-ordering/internal/infra/recordstore"
	"restaurant-ordering/internal/pkg/money"
)

// orderItemsPerOrder bounds a single listing; orders never carry more lines.
const orderItemsPerOrder = recordstore.MaxPerPage

type OrderItemRepository struct {
	store  recordstore.Store
	logger *slog.Logger
}

func NewOrderItemRepository(store recordstore.Store, logger *slog.Logger) *OrderItemRepository {
	return &OrderItemRepository{store: store, logger: logger}
}

func (r *OrderItemRepository) Create(ctx context.Context, orderID string, item order.ResolvedLineItem) (string, error) {
	rec, err := r.store.Create(ctx, recordstore.CollectionOrderItem, recordstore.Record{
		"order":        orderID,
		"menuItem":     item.MenuItemID,
		"category":     item.CategoryID,
		"name":         item.NameSnapshot,
		"description":  item.DescriptionSnapshot,
		"quantity":     money.Sanitize(item.Quantity),
		"unitPrice":    money.Sanitize(item.UnitPriceMinor),
		"lineSubtotal": money.Sanitize(item.Subtotal()),
		"taxRateBps":   money.Sanitize(item.TaxRateBasisPoints),
		"options":      item.OptionsSnapshot,
	})
	if err != nil {
		return "", wrapStoreErr(r.logger, err, "failed to create order item")
	}
	return rec.ID(), nil
}

func (r *OrderItemRepository) ListByOrder(ctx context.Context, orderID string) ([]order.PersistedLineItem, error) {
	page, err := r.store.List(ctx, recordstore.CollectionOrderItem, recordstore.ListOptions{
		Filter:  []recordstore.Cond{recordstore.Eq("order", orderID)},
		Sort:    recordstore.FieldCreated,
		PerPage: orderItemsPerOrder,
	})
	if err != nil {
		return nil, wrapStoreErr(r.logger, err, "failed to list order items")
	}

	items := make([]order.PersistedLineItem, 0, len(page.Items))
	for _, rec := range page.Items {
		var opts []order.OptionSnapshot
		if err := rec.Decode("options", &opts); err != nil {
			r.logger.Warn("unreadable options snapshot on order item",
				slog.String("order_item_id", rec.ID()),
				slog.String("error", err.Error()))
		}
		items = append(items, order.PersistedLineItem{
			ID: rec.ID(),
			ResolvedLineItem: order.ResolvedLineItem{
				MenuItemID:          rec.RelationID("menuItem"),
				NameSnapshot:        rec.String("name"),
				DescriptionSnapshot: rec.String("description"),
				CategoryID:          rec.RelationID("category"),
				Quantity:            rec.Int("quantity"),
				UnitPriceMinor:      rec.Int("unitPrice"),
				OptionsSnapshot:     opts,
				TaxRateBasisPoints:  rec.Int("taxRateBps"),
			},
		})
	}
	return items, nil
}
