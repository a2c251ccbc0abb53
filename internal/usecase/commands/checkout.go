package commands

import (
	"context"
	"log/slog"

	"restaurant-ordering/internal/domain/coupon"
	"restaurant-ordering/internal/domain/kitchen"
	"restaurant-ordering/internal/domain/order"
	"restaurant-ordering/internal/domain/tax"
	reqdto "restaurant-ordering/internal/handler/dto/request"
	"restaurant-ordering/internal/infra"
	"restaurant-ordering/internal/pkg/clock"
	"restaurant-ordering/internal/pkg/errs"
	"restaurant-ordering/internal/pkg/money"
)

var (
	ErrInvalidInput      = errs.New("invalid order input")
	ErrLocationNotFound  = errs.New("location not found")
	ErrTenantNotFound    = errs.New("tenant not found")
	ErrTableNotFound     = errs.New("table not found")
	ErrItemNotFound      = errs.New("menu item not found")
	ErrOrderNotFound     = errs.New("order not found")
	ErrOrderClosed       = errs.New("order is closed")
	ErrIllegalTransition = errs.New("illegal order status transition")
	ErrForbidden         = errs.New("order belongs to another tenant")
	ErrStoreFailure      = errs.New("store operation failed")
)

// OrderResult is what a checkout or item addition reports back.
type OrderResult struct {
	Order     *order.Order
	LineItems []order.LineItemResult
	Tickets   []kitchen.Ticket
	Warnings  []string
	// CouponReason is set when a code was sent but gave no discount.
	CouponReason error
}

type OrderDetail struct {
	Order   *order.Order
	Items   []order.PersistedLineItem
	Tickets []kitchen.Ticket
}

// CouponCheck answers an explicit coupon pre-check.
type CouponCheck struct {
	Valid    bool
	Discount int64
	CouponID string
	Code     string
	Reason   error
}

// CheckoutCommands is the order-finalization entry point. tenantID on staff
// operations is the caller's tenant; an empty value skips the scope check.
type CheckoutCommands interface {
	CreateOrder(ctx context.Context, locationID string, req reqdto.CreateOrderRequest) (*OrderResult, error)
	CreateTableOrder(ctx context.Context, tenantID, locationID string, req reqdto.CreateOrderRequest) (*OrderResult, error)
	AddItems(ctx context.Context, tenantID, orderID string, req reqdto.AddItemsRequest) (*OrderResult, error)
	ValidateCoupon(ctx context.Context, locationID string, req reqdto.ValidateCouponRequest) (*CouponCheck, error)
	TransitionStatus(ctx context.Context, tenantID, orderID string, req reqdto.UpdateOrderStatusRequest) (*order.Order, error)
	GetOrder(ctx context.Context, orderID string) (*OrderDetail, error)
}

type checkoutUseCaseImpl struct {
	locations LocationReader
	orders    OrderRepository
	items     OrderItemRepository
	tickets   TicketRepository
	resolver  *LineItemResolver
	coupons   *CouponApplier
	assembler *OrderAssembler
	router    *TicketRouter
	metrics   PipelineMetrics
	clock     clock.Clock
	logger    *slog.Logger
}

func NewCheckoutUseCase(
	locations LocationReader,
	orders OrderRepository,
	items OrderItemRepository,
	tickets TicketRepository,
	resolver *LineItemResolver,
	coupons *CouponApplier,
	assembler *OrderAssembler,
	router *TicketRouter,
	metrics PipelineMetrics,
	clk clock.Clock,
	logger *slog.Logger,
) CheckoutCommands {
	return &checkoutUseCaseImpl{
		locations: locations,
		orders:    orders,
		items:     items,
		tickets:   tickets,
		resolver:  resolver,
		coupons:   coupons,
		assembler: assembler,
		router:    router,
		metrics:   metrics,
		clock:     clk,
		logger:    logger,
	}
}

// scope is the resolved location context of a request.
type scope struct {
	location *LocationSnapshot
	tenant   *TenantSnapshot
	table    *TableSnapshot
}

// states returns the destination and origin state codes for tax. A location
// without a state code is taxed as if it sat in the tenant's state.
func (s scope) states() (destination, origin string) {
	origin = s.tenant.StateCode
	destination = s.location.StateCode
	if destination == "" {
		destination = origin
	}
	if origin == "" {
		origin = destination
	}
	return destination, origin
}

func (u *checkoutUseCaseImpl) CreateOrder(
	ctx context.Context,
	locationID string,
	req reqdto.CreateOrderRequest,
) (*OrderResult, error) {
	channel := order.ChannelPickup
	if req.GetTableID() != "" {
		channel = order.ChannelDineIn
	}
	return u.place(ctx, "", locationID, req, order.SourceCustomer, channel)
}

func (u *checkoutUseCaseImpl) CreateTableOrder(
	ctx context.Context,
	tenantID, locationID string,
	req reqdto.CreateOrderRequest,
) (*OrderResult, error) {
	if req.GetTableID() == "" {
		return nil, errs.Mark(errs.New("table context is required for table orders"), ErrInvalidInput)
	}
	return u.place(ctx, tenantID, locationID, req, order.SourceStaff, order.ChannelDineIn)
}

func (u *checkoutUseCaseImpl) place(
	ctx context.Context,
	tenantID, locationID string,
	req reqdto.CreateOrderRequest,
	source order.Source,
	channel order.Channel,
) (*OrderResult, error) {
	lineItems := req.ToLineItems()
	if err := order.ValidateRequests(lineItems); err != nil {
		return nil, errs.Mark(err, ErrInvalidInput)
	}

	sc, err := u.resolveScope(ctx, locationID, req.GetTableID())
	if err != nil {
		return nil, err
	}
	if tenantID != "" && tenantID != sc.location.TenantID {
		return nil, ErrForbidden
	}

	cart, err := u.resolver.Resolve(ctx, sc.location.TenantID, lineItems)
	if err != nil {
		return nil, err
	}

	destination, origin := sc.states()
	totals := order.Totals{
		Subtotal: cart.Subtotal,
		Tax:      tax.Calculate(taxLines(cart.Items), destination, origin),
	}
	if _, err := money.Add(totals.Subtotal, totals.Tax.Total()); err != nil {
		return nil, errs.Mark(err, ErrInvalidInput)
	}

	app := u.coupons.Apply(ctx, sc.location, req.GetCouponCode(), totals.PreDiscount())
	totals.Discount = app.Discount

	tableID := ""
	if sc.table != nil {
		tableID = sc.table.ID
	}
	o, err := order.NewOrder(order.Params{
		TenantID:   sc.location.TenantID,
		LocationID: sc.location.ID,
		TableID:    tableID,
		Channel:    channel,
		Source:     source,
		Totals:     totals,
		CouponID:   app.CouponID(),
		CouponCode: app.CouponCode(),
	}, u.clock.Now())
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidInput)
	}

	assembled, err := u.assembler.Assemble(ctx, o, cart.Items)
	if err != nil {
		return nil, err
	}
	u.metrics.OrderCreated(source)

	tickets := u.router.Route(ctx, orderRef(o), assembled.Persisted)

	u.logger.Info("order created",
		slog.String("order_id", o.ID()),
		slog.String("location_id", o.LocationID()),
		slog.String("source", string(source)),
		slog.Int64("total", o.Total()),
		slog.Int("tickets", len(tickets)))

	return &OrderResult{
		Order:        o,
		LineItems:    assembled.LineItems,
		Tickets:      tickets,
		Warnings:     cart.Warnings,
		CouponReason: app.Reason,
	}, nil
}

func (u *checkoutUseCaseImpl) AddItems(
	ctx context.Context,
	tenantID, orderID string,
	req reqdto.AddItemsRequest,
) (*OrderResult, error) {
	lineItems := req.ToLineItems()
	if err := order.ValidateRequests(lineItems); err != nil {
		return nil, errs.Mark(err, ErrInvalidInput)
	}

	current, err := u.findOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if err := current.AcceptItems(); err != nil {
		return nil, errs.Mark(err, ErrOrderClosed)
	}

	sc, err := u.resolveScope(ctx, current.LocationID(), "")
	if err != nil {
		return nil, err
	}

	cart, err := u.resolver.Resolve(ctx, current.TenantID(), lineItems)
	if err != nil {
		return nil, err
	}
	destination, origin := sc.states()
	breakdown := tax.Calculate(taxLines(cart.Items), destination, origin)

	updated, err := u.orders.Mutate(ctx, orderID, func(o *order.Order) error {
		return o.AddLines(cart.Subtotal, breakdown)
	})
	if err != nil {
		switch {
		case errs.Is(err, order.ErrOrderClosed):
			return nil, errs.Mark(err, ErrOrderClosed)
		case errs.Is(err, money.ErrOverflow):
			return nil, errs.Mark(err, ErrInvalidInput)
		case infra.IsNotFound(err):
			return nil, errs.Mark(err, ErrOrderNotFound)
		default:
			return nil, errs.Mark(err, ErrStoreFailure)
		}
	}

	results, persisted := u.assembler.PersistItems(ctx, orderID, cart.Items)
	tickets := u.router.Route(ctx, orderRef(updated), persisted)

	u.logger.Info("items added to order",
		slog.String("order_id", orderID),
		slog.Int("items", len(persisted)),
		slog.Int64("total", updated.Total()))

	return &OrderResult{
		Order:     updated,
		LineItems: results,
		Tickets:   tickets,
		Warnings:  cart.Warnings,
	}, nil
}

func (u *checkoutUseCaseImpl) ValidateCoupon(
	ctx context.Context,
	locationID string,
	req reqdto.ValidateCouponRequest,
) (*CouponCheck, error) {
	if req.OrderAmount < 0 {
		return nil, errs.Mark(errs.New("order amount cannot be negative"), ErrInvalidInput)
	}
	sc, err := u.resolveScope(ctx, locationID, "")
	if err != nil {
		return nil, err
	}

	app := u.coupons.Evaluate(ctx, sc.location, req.Code, req.OrderAmount)
	return &CouponCheck{
		Valid:    app.Applied(),
		Discount: app.Discount,
		CouponID: app.CouponID(),
		Code:     app.CouponCode(),
		Reason:   app.Reason,
	}, nil
}

func (u *checkoutUseCaseImpl) TransitionStatus(
	ctx context.Context,
	tenantID, orderID string,
	req reqdto.UpdateOrderStatusRequest,
) (*order.Order, error) {
	next, err := order.ParseStatus(req.Status)
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidInput)
	}
	if _, err := u.findOrder(ctx, tenantID, orderID); err != nil {
		return nil, err
	}

	now := u.clock.Now()
	updated, err := u.orders.Mutate(ctx, orderID, func(o *order.Order) error {
		return o.TransitionTo(next, now)
	})
	if err != nil {
		switch {
		case errs.Is(err, order.ErrIllegalTransition):
			return nil, errs.Mark(err, ErrIllegalTransition)
		case infra.IsNotFound(err):
			return nil, errs.Mark(err, ErrOrderNotFound)
		default:
			return nil, errs.Mark(err, ErrStoreFailure)
		}
	}
	return updated, nil
}

func (u *checkoutUseCaseImpl) GetOrder(ctx context.Context, orderID string) (*OrderDetail, error) {
	o, err := u.findOrder(ctx, "", orderID)
	if err != nil {
		return nil, err
	}
	items, err := u.items.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, errs.Mark(err, ErrStoreFailure)
	}
	tickets, err := u.tickets.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, errs.Mark(err, ErrStoreFailure)
	}
	return &OrderDetail{Order: o, Items: items, Tickets: tickets}, nil
}

func (u *checkoutUseCaseImpl) findOrder(ctx context.Context, tenantID, orderID string) (*order.Order, error) {
	o, err := u.orders.FindByID(ctx, orderID)
	if err != nil {
		if infra.IsNotFound(err) {
			return nil, ErrOrderNotFound
		}
		return nil, errs.Mark(err, ErrStoreFailure)
	}
	if tenantID != "" && tenantID != o.TenantID() {
		return nil, ErrForbidden
	}
	return o, nil
}

func (u *checkoutUseCaseImpl) resolveScope(ctx context.Context, locationID, tableID string) (scope, error) {
	if locationID == "" {
		return scope{}, errs.Mark(order.ErrMissingLocation, ErrInvalidInput)
	}

	loc, err := u.locations.LocationByID(ctx, locationID)
	if err != nil {
		if infra.IsNotFound(err) {
			return scope{}, ErrLocationNotFound
		}
		return scope{}, errs.Mark(err, ErrStoreFailure)
	}

	tenant, err := u.locations.TenantByID(ctx, loc.TenantID)
	if err != nil {
		if infra.IsNotFound(err) {
			return scope{}, ErrTenantNotFound
		}
		return scope{}, errs.Mark(err, ErrStoreFailure)
	}

	sc := scope{location: loc, tenant: tenant}
	if tableID == "" {
		return sc, nil
	}

	table, err := u.locations.TableByID(ctx, tableID)
	if err != nil {
		if infra.IsNotFound(err) {
			return scope{}, ErrTableNotFound
		}
		return scope{}, errs.Mark(err, ErrStoreFailure)
	}
	if table.LocationID != "" && table.LocationID != loc.ID {
		return scope{}, ErrTableNotFound
	}
	sc.table = table
	return sc, nil
}

func taxLines(items []order.ResolvedLineItem) []tax.Line {
	lines := make([]tax.Line, len(items))
	for i, item := range items {
		lines[i] = tax.Line{SubtotalMinor: item.Subtotal(), RateBps: item.TaxRateBasisPoints}
	}
	return lines
}

func orderRef(o *order.Order) kitchen.OrderRef {
	return kitchen.OrderRef{
		OrderID:    o.ID(),
		TenantID:   o.TenantID(),
		LocationID: o.LocationID(),
		TableID:    o.TableID(),
	}
}

// CouponReasonCode maps a coupon rejection to a stable client-facing code.
func CouponReasonCode(reason error) string {
	switch {
	case reason == nil:
		return ""
	case errs.Is(reason, coupon.ErrCouponNotFound):
		return "not_found"
	case errs.Is(reason, coupon.ErrCouponInactive):
		return "inactive"
	case errs.Is(reason, coupon.ErrCouponExpired):
		return "expired"
	case errs.Is(reason, coupon.ErrCouponNotYetValid):
		return "not_yet_valid"
	case errs.Is(reason, coupon.ErrUsageLimitReached):
		return "usage_exhausted"
	case errs.Is(reason, coupon.ErrBelowMinimumOrder):
		return "below_minimum"
	case errs.Is(reason, coupon.ErrCouponsDisabled):
		return "disabled"
	default:
		return "unavailable"
	}
}
