package repository

import (
	"context"
	"log/slog"
	"time"

	"restaurant-ordering/internal/domain/order"
	"restaurant-ordering/internal/domain/tax"
	"restaurant-ordering/internal/infra/recordstore"
	"restaurant-ordering/internal/pkg/money"
	"restaurant-ordering/internal/usecase/commands"
)

type OrderRepository struct {
	store  recordstore.Store
	logger *slog.Logger
}

func NewOrderRepository(store recordstore.Store, logger *slog.Logger) *OrderRepository {
	return &OrderRepository{store: store, logger: logger}
}

func (r *OrderRepository) Create(ctx context.Context, o *order.Order) (string, error) {
	rec, err := r.store.Create(ctx, recordstore.CollectionOrders, orderRecord(o))
	if err != nil {
		return "", wrapStoreErr(r.logger, err, "failed to create order")
	}
	return rec.ID(), nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	rec, err := r.store.Get(ctx, recordstore.CollectionOrders, id)
	if err != nil {
		return nil, wrapStoreErr(r.logger, err, "failed to get order")
	}
	return toOrder(rec), nil
}

func (r *OrderRepository) UpdateDiscount(ctx context.Context, o *order.Order) error {
	t := o.Totals()
	_, err := r.store.Update(ctx, recordstore.CollectionOrders, o.ID(), recordstore.Record{
		"discountAmount": money.Sanitize(t.Discount),
		"coupon":         o.CouponID(),
		"couponCode":     o.CouponCode(),
		"total":          money.Sanitize(o.Total()),
	})
	if err != nil {
		return wrapStoreErr(r.logger, err, "failed to update order discount")
	}
	return nil
}

// Mutate loads the order, applies fn and writes the result back. The cycle is
// atomic when the store is a Mutator and last-write-wins otherwise.
func (r *OrderRepository) Mutate(ctx context.Context, id string, fn commands.OrderMutation) (*order.Order, error) {
	apply := func(cur recordstore.Record) (recordstore.Record, error) {
		o := toOrder(cur)
		if err := fn(o); err != nil {
			return nil, err
		}
		return orderRecord(o), nil
	}

	if m, ok := r.store.(recordstore.Mutator); ok {
		rec, err := m.Mutate(ctx, recordstore.CollectionOrders, id, apply)
		if err != nil {
			// Errors from fn come back unchanged so callers can match them.
			return nil, err
		}
		return toOrder(rec), nil
	}

	cur, err := r.store.Get(ctx, recordstore.CollectionOrders, id)
	if err != nil {
		return nil, wrapStoreErr(r.logger, err, "failed to get order")
	}
	fields, err := apply(cur)
	if err != nil {
		return nil, err
	}
	rec, err := r.store.Update(ctx, recordstore.CollectionOrders, id, fields)
	if err != nil {
		return nil, wrapStoreErr(r.logger, err, "failed to update order")
	}
	return toOrder(rec), nil
}

// orderRecord builds the store fields for o. Every number goes through
// money.Sanitize right before the write.
func orderRecord(o *order.Order) recordstore.Record {
	t := o.Totals()
	return recordstore.Record{
		"tenant":         o.TenantID(),
		"location":       o.LocationID(),
		"table":          o.TableID(),
		"channel":        o.Channel().String(),
		"status":         o.Status().String(),
		"source":         o.Source().String(),
		"subtotal":       money.Sanitize(t.Subtotal),
		"cgst":           money.Sanitize(t.Tax.CGST),
		"sgst":           money.Sanitize(t.Tax.SGST),
		"igst":           money.Sanitize(t.Tax.IGST),
		"discountAmount": money.Sanitize(t.Discount),
		"total":          money.Sanitize(o.Total()),
		"coupon":         o.CouponID(),
		"couponCode":     o.CouponCode(),
		"timestamps":     formatTimestamps(o.Timestamps()),
	}
}

func toOrder(rec recordstore.Record) *order.Order {
	params := order.Params{
		TenantID:   rec.RelationID("tenant"),
		LocationID: rec.RelationID("location"),
		TableID:    rec.RelationID("table"),
		Channel:    order.Channel(rec.String("channel")),
		Source:     order.Source(rec.String("source")),
		Totals: order.Totals{
			Subtotal: rec.Int("subtotal"),
			Tax: tax.Breakdown{
				CGST: rec.Int("cgst"),
				SGST: rec.Int("sgst"),
				IGST: rec.Int("igst"),
			},
			Discount: rec.Int("discountAmount"),
		},
		CouponID:   rec.RelationID("coupon"),
		CouponCode: rec.String("couponCode"),
	}
	return order.ReconstructOrder(rec.ID(), params, order.Status(rec.String("status")), parseTimestamps(rec))
}

func formatTimestamps(ts map[string]time.Time) map[string]string {
	out := make(map[string]string, len(ts))
	for k, v := range ts {
		out[k] = v.UTC().Format(time.RFC3339Nano)
	}
	return out
}

func parseTimestamps(rec recordstore.Record) map[string]time.Time {
	var raw map[string]string
	if err := rec.Decode("timestamps", &raw); err != nil {
		return map[string]time.Time{}
	}
	out := make(map[string]time.Time, len(raw))
	for k, v := range raw {
		if t := (recordstore.Record{k: v}).Time(k); t != nil {
			out[k] = *t
		}
	}
	return out
}
