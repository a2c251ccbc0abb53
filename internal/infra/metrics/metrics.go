package metrics

import (
	"strconv"

	"restaurant-ordering/internal/domain/kitchen"
	"restaurant-ordering/internal/domain/order"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "restaurant"

// Pipeline records order-finalization counters on a Prometheus registry.
type Pipeline struct {
	ordersCreated    *prometheus.CounterVec
	ticketsCreated   *prometheus.CounterVec
	ticketsFailed    *prometheus.CounterVec
	couponsRedeemed  *prometheus.CounterVec
	couponMismatches prometheus.Counter
	lineItemsFailed  prometheus.Counter
}

func NewPipeline(reg prometheus.Registerer) (*Pipeline, error) {
	p := &Pipeline{
		ordersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Orders created, by source.",
		}, []string{"source"}),
		ticketsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kitchen_tickets_created_total",
			Help:      "Kitchen tickets created, by station.",
		}, []string{"station"}),
		ticketsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kitchen_ticket_failures_total",
			Help:      "Kitchen ticket writes that failed after the order was committed.",
		}, []string{"station"}),
		couponsRedeemed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupon_redemptions_total",
			Help:      "Coupon redemptions, by whether the store applied them atomically.",
		}, []string{"atomic"}),
		couponMismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupon_reconciliation_mismatches_total",
			Help:      "Non-atomic coupon redemptions whose re-read count did not match.",
		}),
		lineItemsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "line_item_failures_total",
			Help:      "Order line items that could not be persisted.",
		}),
	}

	for _, c := range []prometheus.Collector{
		p.ordersCreated, p.ticketsCreated, p.ticketsFailed,
		p.couponsRedeemed, p.couponMismatches, p.lineItemsFailed,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Pipeline) OrderCreated(source order.Source) {
	p.ordersCreated.WithLabelValues(string(source)).Inc()
}

func (p *Pipeline) TicketCreated(station kitchen.Station) {
	p.ticketsCreated.WithLabelValues(string(station)).Inc()
}

func (p *Pipeline) TicketFailed(station kitchen.Station) {
	p.ticketsFailed.WithLabelValues(string(station)).Inc()
}

func (p *Pipeline) CouponRedeemed(atomic bool) {
	p.couponsRedeemed.WithLabelValues(strconv.FormatBool(atomic)).Inc()
}

func (p *Pipeline) CouponReconciliationMismatch() {
	p.couponMismatches.Inc()
}

func (p *Pipeline) LineItemFailed() {
	p.lineItemsFailed.Inc()
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) OrderCreated(order.Source)     {}
func (Nop) TicketCreated(kitchen.Station) {}
func (Nop) TicketFailed(kitchen.Station)  {}
func (Nop) CouponRedeemed(bool)           {}
func (Nop) CouponReconciliationMismatch() {}
func (Nop) LineItemFailed()               {}
