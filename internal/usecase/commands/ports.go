package commands

import (
	"context"

	"restaurant-ordering/internal/domain/coupon"
	"restaurant-ordering/internal/domain/kitchen"
	"restaurant-ordering/internal/domain/order"
)

// Write-side snapshots keep the use cases independent of store record shapes.
type TenantSnapshot struct {
	ID        string
	Name      string
	StateCode string
}

type LocationSnapshot struct {
	ID             string
	TenantID       string
	Name           string
	StateCode      string
	CouponsEnabled bool
}

type TableSnapshot struct {
	ID         string
	LocationID string
	Label      string
}

type MenuItemSnapshot struct {
	ID          string
	TenantID    string
	CategoryID  string
	Name        string
	Description string
	PriceMinor  int64
	TaxRateBps  int64
	IsAvailable bool
}

type OptionValueSnapshot struct {
	ID              string
	OptionGroupID   string
	Name            string
	PriceDeltaMinor int64
}

type CategorySnapshot struct {
	ID       string
	TenantID string
	Name     string
}

type LocationReader interface {
	LocationByID(ctx context.Context, id string) (*LocationSnapshot, error)
	TenantByID(ctx context.Context, id string) (*TenantSnapshot, error)
	TableByID(ctx context.Context, id string) (*TableSnapshot, error)
}

type MenuReader interface {
	MenuItemByID(ctx context.Context, id string) (*MenuItemSnapshot, error)
	OptionValueByID(ctx context.Context, id string) (*OptionValueSnapshot, error)
	CategoryByID(ctx context.Context, id string) (*CategorySnapshot, error)
}

// RedeemResult reports how a usage increment landed. Atomic is true when the
// store applied it as one read-modify-write; otherwise Verified tells
// whether the re-read matched Expected.
type RedeemResult struct {
	Coupon   *coupon.Coupon
	Atomic   bool
	Expected int64
	Observed int64
	Verified bool
}

type CouponRepository interface {
	FindByCode(ctx context.Context, tenantID string, code coupon.Code) (*coupon.Coupon, error)
	// Redeem increments usedCount by one, refusing with
	// coupon.ErrUsageLimitReached once the limit is hit.
	Redeem(ctx context.Context, couponID string) (*RedeemResult, error)
}

// OrderMutation edits an order in place; returning an error aborts the write.
type OrderMutation func(o *order.Order) error

type OrderRepository interface {
	Create(ctx context.Context, o *order.Order) (string, error)
	FindByID(ctx context.Context, id string) (*order.Order, error)
	// UpdateDiscount rewrites the discount, coupon and total of a saved order.
	UpdateDiscount(ctx context.Context, o *order.Order) error
	// Mutate applies fn atomically when the store supports it.
	Mutate(ctx context.Context, id string, fn OrderMutation) (*order.Order, error)
}

type OrderItemRepository interface {
	Create(ctx context.Context, orderID string, item order.ResolvedLineItem) (string, error)
	ListByOrder(ctx context.Context, orderID string) ([]order.PersistedLineItem, error)
}

type TicketRepository interface {
	Create(ctx context.Context, t kitchen.Ticket) (string, error)
	ListByOrder(ctx context.Context, orderID string) ([]kitchen.Ticket, error)
}

// TicketPublisher fans created tickets out to kitchen displays and event consumers.
type TicketPublisher interface {
	PublishTicket(ctx context.Context, t kitchen.Ticket) error
}

// StationClassifier maps a category name to a kitchen station.
type StationClassifier interface {
	Classify(categoryName string) kitchen.Station
}

// PipelineMetrics counts absorbed failures; implementations must be safe for concurrent use.
type PipelineMetrics interface {
	OrderCreated(source order.Source)
	TicketFailed(station kitchen.Station)
	TicketCreated(station kitchen.Station)
	CouponRedeemed(atomic bool)
	CouponReconciliationMismatch()
	LineItemFailed()
}
