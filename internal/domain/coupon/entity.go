package coupon

import (
	"errors"
	"time"
)

// Reasons a coupon does not apply. Callers in the checkout path treat all of
// them as "no discount"; the explicit validation endpoint reports them.
var (
	ErrCouponInactive    = errors.New("coupon is not active")
	ErrCouponExpired     = errors.New("coupon has expired")
	ErrCouponNotYetValid = errors.New("coupon is not yet valid")
	ErrUsageLimitReached = errors.New("coupon usage limit reached")
	ErrBelowMinimumOrder = errors.New("order amount is below the coupon minimum")
	ErrCouponsDisabled   = errors.New("coupons are disabled for this location")
	ErrCouponNotFound    = errors.New("coupon not found")
)

type Coupon struct {
	id             string
	tenantID       string
	code           Code
	discount       Discount
	minOrderAmount int64
	validFrom      *time.Time
	validUntil     *time.Time
	usageLimit     *int64
	usedCount      int64
	isActive       bool
}

type Params struct {
	ID             string
	TenantID       string
	Code           string
	DiscountType   string
	DiscountValue  int64
	MinOrderAmount int64
	MaxDiscount    *int64
	ValidFrom      *time.Time
	ValidUntil     *time.Time
	UsageLimit     *int64
	UsedCount      int64
	IsActive       bool
}

func NewCoupon(p Params) (*Coupon, error) {
	code, err := NewCouponCode(p.Code)
	if err != nil {
		return nil, err
	}

	kind, err := ParseDiscountType(p.DiscountType)
	if err != nil {
		return nil, err
	}

	discount, err := NewDiscount(kind, p.DiscountValue, p.MaxDiscount)
	if err != nil {
		return nil, err
	}

	usedCount := p.UsedCount
	if usedCount < 0 {
		usedCount = 0
	}

	return &Coupon{
		id:             p.ID,
		tenantID:       p.TenantID,
		code:           code,
		discount:       discount,
		minOrderAmount: p.MinOrderAmount,
		validFrom:      p.ValidFrom,
		validUntil:     p.ValidUntil,
		usageLimit:     p.UsageLimit,
		usedCount:      usedCount,
		isActive:       p.IsActive,
	}, nil
}

// IsValidAt treats an unset bound as open.
func (c *Coupon) IsValidAt(t time.Time) bool {
	if c.validFrom != nil && t.Before(*c.validFrom) {
		return false
	}
	if c.validUntil != nil && t.After(*c.validUntil) {
		return false
	}
	return true
}

func (c *Coupon) HasUsageLeft() bool {
	return c.usageLimit == nil || c.usedCount < *c.usageLimit
}

// CheckApplicable returns nil when the coupon can discount orderAmount at t,
// otherwise the first failing rule.
func (c *Coupon) CheckApplicable(t time.Time, orderAmount int64) error {
	if !c.isActive {
		return ErrCouponInactive
	}
	if c.validFrom != nil && t.Before(*c.validFrom) {
		return ErrCouponNotYetValid
	}
	if c.validUntil != nil && t.After(*c.validUntil) {
		return ErrCouponExpired
	}
	if !c.HasUsageLeft() {
		return ErrUsageLimitReached
	}
	if orderAmount < c.minOrderAmount {
		return ErrBelowMinimumOrder
	}
	return nil
}

// DiscountFor returns the discount for orderAmount, or 0 when the coupon does not apply.
func (c *Coupon) DiscountFor(t time.Time, orderAmount int64) int64 {
	if c.CheckApplicable(t, orderAmount) != nil {
		return 0
	}
	return c.discount.AmountFor(orderAmount)
}

// Redeem increments the usage count by one, refusing to pass the limit.
func (c *Coupon) Redeem() error {
	if !c.HasUsageLeft() {
		return ErrUsageLimitReached
	}
	c.usedCount++
	return nil
}

func (c *Coupon) ID() string             { return c.id }
func (c *Coupon) TenantID() string       { return c.tenantID }
func (c *Coupon) Code() Code             { return c.code }
func (c *Coupon) Discount() Discount     { return c.discount }
func (c *Coupon) MinOrderAmount() int64  { return c.minOrderAmount }
func (c *Coupon) ValidFrom() *time.Time  { return c.validFrom }
func (c *Coupon) ValidUntil() *time.Time { return c.validUntil }
func (c *Coupon) UsageLimit() *int64     { return c.usageLimit }
func (c *Coupon) UsedCount() int64       { return c.usedCount }
func (c *Coupon) IsActive() bool         { return c.isActive }
