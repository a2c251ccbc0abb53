package order

import (
	"errors"
	"fmt"
	"time"

	"restaurant-ordering/internal/domain/tax"
	"restaurant-ordering/internal/pkg/money"
)

var (
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrInvalidChannel    = errors.New("invalid order channel")
	ErrIllegalTransition = errors.New("illegal order status transition")
	ErrOrderClosed       = errors.New("order is closed")
	ErrMissingLocation   = errors.New("order requires tenant and location")
)

// Totals holds the monetary fields of an order in minor units.
type Totals struct {
	Subtotal int64
	Tax      tax.Breakdown
	Discount int64
}

// Total is max(0, subtotal + tax - discount).
func (t Totals) Total() int64 {
	return money.NonNegative(t.Subtotal + t.Tax.Total() - t.Discount)
}

// PreDiscount is the amount a coupon is evaluated against.
func (t Totals) PreDiscount() int64 {
	return t.Subtotal + t.Tax.Total()
}

// AddLines folds a new batch of items into running totals; the discount is kept.
func (t Totals) AddLines(subtotal int64, breakdown tax.Breakdown) Totals {
	return Totals{
		Subtotal: t.Subtotal + subtotal,
		Tax:      t.Tax.Add(breakdown),
		Discount: t.Discount,
	}
}

type Params struct {
	TenantID   string
	LocationID string
	TableID    string
	Channel    Channel
	Source     Source
	Totals     Totals
	CouponID   string
	CouponCode string
}

type Order struct {
	id         string
	tenantID   string
	locationID string
	tableID    string
	channel    Channel
	source     Source
	status     Status
	totals     Totals
	couponID   string
	couponCode string
	timestamps map[string]time.Time
}

// NewOrder builds an unsaved order in its initial status.
func NewOrder(p Params, now time.Time) (*Order, error) {
	if p.TenantID == "" || p.LocationID == "" {
		return nil, ErrMissingLocation
	}
	if _, err := ParseChannel(string(p.Channel)); err != nil {
		return nil, err
	}
	source := p.Source
	if source == "" {
		source = SourceCustomer
	}

	status, stamped := InitialStatus(source)
	timestamps := make(map[string]time.Time, len(stamped))
	for _, s := range stamped {
		timestamps[s.TimestampKey()] = now
	}

	totals := p.Totals
	totals.Discount = money.Min(money.NonNegative(totals.Discount), money.NonNegative(totals.PreDiscount()))

	return &Order{
		tenantID:   p.TenantID,
		locationID: p.LocationID,
		tableID:    p.TableID,
		channel:    p.Channel,
		source:     source,
		status:     status,
		totals:     totals,
		couponID:   p.CouponID,
		couponCode: p.CouponCode,
		timestamps: timestamps,
	}, nil
}

func ReconstructOrder(
	id string,
	p Params,
	status Status,
	timestamps map[string]time.Time,
) *Order {
	if timestamps == nil {
		timestamps = map[string]time.Time{}
	}
	return &Order{
		id:         id,
		tenantID:   p.TenantID,
		locationID: p.LocationID,
		tableID:    p.TableID,
		channel:    p.Channel,
		source:     p.Source,
		status:     status,
		totals:     p.Totals,
		couponID:   p.CouponID,
		couponCode: p.CouponCode,
		timestamps: timestamps,
	}
}

// TransitionTo moves the order to next and stamps the matching timestamp.
func (o *Order) TransitionTo(next Status, now time.Time) error {
	if !next.IsValid() {
		return ErrInvalidStatus
	}
	if !o.status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, o.status, next)
	}
	o.status = next
	o.timestamps[next.TimestampKey()] = now
	return nil
}

// AcceptItems reports whether new items may still be added.
func (o *Order) AcceptItems() error {
	if o.status.IsTerminal() {
		return ErrOrderClosed
	}
	return nil
}

// AddLines folds a new batch of items into the running totals of an open order.
func (o *Order) AddLines(subtotal int64, breakdown tax.Breakdown) error {
	if err := o.AcceptItems(); err != nil {
		return err
	}
	if _, err := money.Add(o.totals.Subtotal, subtotal); err != nil {
		return err
	}
	next := o.totals.AddLines(subtotal, breakdown)
	if _, err := money.Add(next.Subtotal, next.Tax.Total()); err != nil {
		return err
	}
	o.totals = next
	return nil
}

func (o *Order) SetID(id string) { o.id = id }

// ApplyDiscount overrides the persisted discount and coupon with the intended values.
func (o *Order) ApplyDiscount(discount int64, couponID, couponCode string) {
	o.totals.Discount = discount
	o.couponID = couponID
	o.couponCode = couponCode
}

func (o *Order) ID() string                       { return o.id }
func (o *Order) TenantID() string                 { return o.tenantID }
func (o *Order) LocationID() string               { return o.locationID }
func (o *Order) TableID() string                  { return o.tableID }
func (o *Order) Channel() Channel                 { return o.channel }
func (o *Order) Source() Source                   { return o.source }
func (o *Order) Status() Status                   { return o.status }
func (o *Order) Totals() Totals                   { return o.totals }
func (o *Order) Total() int64                     { return o.totals.Total() }
func (o *Order) CouponID() string                 { return o.couponID }
func (o *Order) CouponCode() string               { return o.couponCode }
func (o *Order) Timestamps() map[string]time.Time { return o.timestamps }
