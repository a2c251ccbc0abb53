//go:build unit

package commands_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"restaurant-ordering/internal/domain/kitchen"
	"restaurant-ordering/internal/domain/order"
	"restaurant-ordering/internal/infra/recordstore"
	"restaurant-ordering/internal/infra/repository"
	"restaurant-ordering/internal/pkg/clock"
	"restaurant-ordering/internal/usecase/commands"
)

var fixedNow = time.Date(2026, 3, 14, 12, 30, 0, 0, time.UTC)

const (
	tenantID        = "tenant-spice"
	otherTenantID   = "tenant-other"
	locationID      = "loc-indiranagar"
	interstateLocID = "loc-pune"
	noCouponsLocID  = "loc-airport"
	tableID         = "table-4"
	foreignTableID  = "table-pune-1"

	paneerID      = "mi-paneer-tikka"
	lassiID       = "mi-mango-lassi"
	kulfiID       = "mi-kulfi"
	specialID     = "mi-chef-thali"
	foreignItemID = "mi-other-tenant"

	cheeseID = "ov-extra-cheese"
)

func stationTable() *kitchen.Table {
	t, err := kitchen.DefaultTable()
	if err != nil {
		panic(err)
	}
	return t
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// seedMenu writes a small two-state restaurant group into store.
func seedMenu(ctx context.Context, store recordstore.Store) {
	records := []struct {
		collection string
		fields     recordstore.Record
	}{
		{recordstore.CollectionTenant, recordstore.Record{"id": tenantID, "name": "Spice Route", "stateCode": "KA"}},
		{recordstore.CollectionTenant, recordstore.Record{"id": otherTenantID, "name": "Other", "stateCode": "KA"}},
		{recordstore.CollectionLocation, recordstore.Record{"id": locationID, "tenant": []string{tenantID}, "name": "Indiranagar", "stateCode": "KA", "couponsEnabled": true}},
		{recordstore.CollectionLocation, recordstore.Record{"id": interstateLocID, "tenant": tenantID, "name": "Pune", "stateCode": "MH", "couponsEnabled": true}},
		{recordstore.CollectionLocation, recordstore.Record{"id": noCouponsLocID, "tenant": tenantID, "name": "Airport", "stateCode": "KA", "couponsEnabled": false}},
		{recordstore.CollectionTable, recordstore.Record{"id": tableID, "location": locationID, "label": "T4"}},
		{recordstore.CollectionTable, recordstore.Record{"id": foreignTableID, "location": interstateLocID, "label": "P1"}},
		{recordstore.CollectionMenuCategory, recordstore.Record{"id": "cat-main", "tenant": tenantID, "name": "Main Course"}},
		{recordstore.CollectionMenuCategory, recordstore.Record{"id": "cat-bev", "tenant": tenantID, "name": "Beverages"}},
		{recordstore.CollectionMenuCategory, recordstore.Record{"id": "cat-dessert", "tenant": tenantID, "name": "Desserts"}},
		{recordstore.CollectionMenuCategory, recordstore.Record{"id": "cat-special", "tenant": tenantID, "name": "Specials"}},
		{recordstore.CollectionMenuItem, recordstore.Record{"id": paneerID, "tenant": tenantID, "category": "cat-main", "name": "Paneer Tikka", "description": "Clay oven cottage cheese", "priceMinor": 25000, "taxRateBps": 500}},
		{recordstore.CollectionMenuItem, recordstore.Record{"id": lassiID, "tenant": tenantID, "category": []string{"cat-bev"}, "name": "Mango Lassi", "priceMinor": 12000, "taxRateBps": 1200}},
		{recordstore.CollectionMenuItem, recordstore.Record{"id": kulfiID, "tenant": tenantID, "category": "cat-dessert", "name": "Kulfi", "priceMinor": 9000, "taxRateBps": 500}},
		{recordstore.CollectionMenuItem, recordstore.Record{"id": specialID, "tenant": tenantID, "category": "cat-special", "name": "Chef Thali", "priceMinor": 40000, "taxRateBps": 500}},
		{recordstore.CollectionMenuItem, recordstore.Record{"id": foreignItemID, "tenant": otherTenantID, "category": "cat-main", "name": "Elsewhere", "priceMinor": 100, "taxRateBps": 500}},
		{recordstore.CollectionOptionValue, recordstore.Record{"id": cheeseID, "optionGroup": "og-toppings", "name": "Extra cheese", "priceDeltaMinor": 3000}},
		{recordstore.CollectionCoupon, recordstore.Record{"id": "cp-save10", "tenant": tenantID, "code": "SAVE10", "discountType": "percentage", "discountValue": 1000, "maxDiscountAmount": 5000, "isActive": true, "usedCount": 0}},
		{recordstore.CollectionCoupon, recordstore.Record{"id": "cp-flat", "tenant": tenantID, "code": "FLAT100", "discountType": "fixed", "discountValue": 10000, "minOrderAmount": 50000, "isActive": true}},
		{recordstore.CollectionCoupon, recordstore.Record{"id": "cp-expired", "tenant": tenantID, "code": "OLD50", "discountType": "percentage", "discountValue": 5000, "validUntil": "2025-12-31T23:59:59Z", "isActive": true, "usedCount": 3}},
		{recordstore.CollectionCoupon, recordstore.Record{"id": "cp-once", "tenant": tenantID, "code": "ONCE", "discountType": "fixed", "discountValue": 2000, "usageLimit": 1, "usedCount": 0, "isActive": true}},
	}
	for _, r := range records {
		if _, err := store.Create(ctx, r.collection, r.fields); err != nil {
			panic(err)
		}
	}
}

// plainStore hides the Mutator implementation of the wrapped store.
type plainStore struct {
	recordstore.Store
}

// droppingStore loses the discount fields on order create, and optionally
// refuses order updates.
type droppingStore struct {
	recordstore.Store
	failOrderUpdates bool
}

func (s *droppingStore) Create(ctx context.Context, collection string, fields recordstore.Record) (recordstore.Record, error) {
	if collection == recordstore.CollectionOrders {
		fields = fields.Clone()
		delete(fields, "discountAmount")
		delete(fields, "coupon")
	}
	return s.Store.Create(ctx, collection, fields)
}

func (s *droppingStore) Update(ctx context.Context, collection, id string, fields recordstore.Record) (recordstore.Record, error) {
	if collection == recordstore.CollectionOrders && s.failOrderUpdates {
		return nil, errors.New("store unavailable")
	}
	return s.Store.Update(ctx, collection, id, fields)
}

type failingTickets struct {
	commands.TicketRepository
}

func (failingTickets) Create(context.Context, kitchen.Ticket) (string, error) {
	return "", errors.New("kds collection unavailable")
}

type failingItems struct {
	commands.OrderItemRepository
	failMenuItem string
}

func (f failingItems) Create(ctx context.Context, orderID string, item order.ResolvedLineItem) (string, error) {
	if item.MenuItemID == f.failMenuItem {
		return "", errors.New("write rejected")
	}
	return f.OrderItemRepository.Create(ctx, orderID, item)
}

type recordingPublisher struct {
	mu      sync.Mutex
	tickets []kitchen.Ticket
	err     error
}

func (p *recordingPublisher) PublishTicket(_ context.Context, t kitchen.Ticket) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tickets = append(p.tickets, t)
	return p.err
}

func (p *recordingPublisher) published() []kitchen.Ticket {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]kitchen.Ticket(nil), p.tickets...)
}

type recordingMetrics struct {
	mu              sync.Mutex
	ordersCreated   int
	ticketsCreated  map[kitchen.Station]int
	ticketsFailed   map[kitchen.Station]int
	redeemedAtomic  int
	redeemedPlain   int
	mismatches      int
	lineItemsFailed int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		ticketsCreated: map[kitchen.Station]int{},
		ticketsFailed:  map[kitchen.Station]int{},
	}
}

func (m *recordingMetrics) OrderCreated(order.Source) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ordersCreated++
}

func (m *recordingMetrics) TicketCreated(st kitchen.Station) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticketsCreated[st]++
}

func (m *recordingMetrics) TicketFailed(st kitchen.Station) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticketsFailed[st]++
}

func (m *recordingMetrics) CouponRedeemed(atomic bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if atomic {
		m.redeemedAtomic++
	} else {
		m.redeemedPlain++
	}
}

func (m *recordingMetrics) CouponReconciliationMismatch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mismatches++
}

func (m *recordingMetrics) LineItemFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lineItemsFailed++
}

// pipeline wires the checkout use case over store with the real repositories.
type pipeline struct {
	store     recordstore.Store
	clock     *clock.MockClock
	metrics   *recordingMetrics
	publisher *recordingPublisher
	orders    *repository.OrderRepository
	items     commands.OrderItemRepository
	tickets   commands.TicketRepository
	coupons   commands.CouponRepository
	checkout  commands.CheckoutCommands
}

type pipelineOption func(*pipeline)

func withTickets(t commands.TicketRepository) pipelineOption {
	return func(p *pipeline) { p.tickets = t }
}

func withItems(f func(commands.OrderItemRepository) commands.OrderItemRepository) pipelineOption {
	return func(p *pipeline) { p.items = f(p.items) }
}

func withCoupons(c commands.CouponRepository) pipelineOption {
	return func(p *pipeline) { p.coupons = c }
}

func newPipeline(store recordstore.Store, opts ...pipelineOption) *pipeline {
	logger := discardLogger()
	p := &pipeline{
		store:     store,
		clock:     clock.NewMockClock(fixedNow),
		metrics:   newRecordingMetrics(),
		publisher: &recordingPublisher{},
		orders:    repository.NewOrderRepository(store, logger),
		items:     repository.NewOrderItemRepository(store, logger),
		tickets:   repository.NewTicketRepository(store, logger),
		coupons:   repository.NewCouponRepository(store, logger),
	}
	for _, opt := range opts {
		opt(p)
	}

	menu := repository.NewMenuRepository(store, logger)
	resolver := commands.NewLineItemResolver(menu, 4, logger)
	applier := commands.NewCouponApplier(p.coupons, p.metrics, p.clock, logger)
	assembler := commands.NewOrderAssembler(p.orders, p.items, p.metrics, logger)
	router := commands.NewTicketRouter(p.tickets, menu, stationTable(), p.publisher, p.metrics, logger)

	p.checkout = commands.NewCheckoutUseCase(
		repository.NewLocationRepository(store, logger),
		p.orders,
		p.items,
		p.tickets,
		resolver,
		applier,
		assembler,
		router,
		p.metrics,
		p.clock,
		logger,
	)
	return p
}
