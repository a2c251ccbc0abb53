package commands

import (
	"context"
	"log/slog"

	"restaurant-ordering/internal/domain/coupon"
	"restaurant-ordering/internal/infra"
	"restaurant-ordering/internal/pkg/clock"
	"restaurant-ordering/internal/pkg/errs"
)

// CouponApplication is the outcome of applying a code to an order amount.
// Coupon is nil and Discount is 0 whenever Reason is set.
type CouponApplication struct {
	Coupon   *coupon.Coupon
	Discount int64
	Reason   error
}

func (a CouponApplication) Applied() bool {
	return a.Coupon != nil && a.Reason == nil
}

func (a CouponApplication) CouponID() string {
	if a.Coupon == nil {
		return ""
	}
	return a.Coupon.ID()
}

func (a CouponApplication) CouponCode() string {
	if a.Coupon == nil {
		return ""
	}
	return a.Coupon.Code().String()
}

type CouponApplier struct {
	coupons CouponRepository
	metrics PipelineMetrics
	clock   clock.Clock
	logger  *slog.Logger
}

func NewCouponApplier(
	coupons CouponRepository,
	metrics PipelineMetrics,
	clk clock.Clock,
	logger *slog.Logger,
) *CouponApplier {
	return &CouponApplier{
		coupons: coupons,
		metrics: metrics,
		clock:   clk,
		logger:  logger,
	}
}

// Evaluate checks code against orderAmount without touching usage counts.
// Every business-rule failure is returned as the Reason, never as an error.
func (a *CouponApplier) Evaluate(ctx context.Context, loc *LocationSnapshot, code string, orderAmount int64) CouponApplication {
	if !loc.CouponsEnabled {
		return CouponApplication{Reason: coupon.ErrCouponsDisabled}
	}

	normalized, err := coupon.NewCouponCode(code)
	if err != nil {
		return CouponApplication{Reason: coupon.ErrCouponNotFound}
	}

	c, err := a.coupons.FindByCode(ctx, loc.TenantID, normalized)
	if err != nil {
		if !infra.IsNotFound(err) {
			a.logger.Warn("coupon lookup failed, continuing without discount",
				slog.String("tenant_id", loc.TenantID),
				slog.String("coupon_code", normalized.String()),
				slog.String("error", err.Error()))
		}
		return CouponApplication{Reason: coupon.ErrCouponNotFound}
	}

	if err := c.CheckApplicable(a.clock.Now(), orderAmount); err != nil {
		return CouponApplication{Reason: err}
	}
	return CouponApplication{Coupon: c, Discount: c.DiscountFor(a.clock.Now(), orderAmount)}
}

// Apply evaluates code and, when it applies, redeems one use. A redemption
// that loses the race for the last use yields no discount.
func (a *CouponApplier) Apply(ctx context.Context, loc *LocationSnapshot, code string, orderAmount int64) CouponApplication {
	if code == "" {
		return CouponApplication{}
	}

	app := a.Evaluate(ctx, loc, code, orderAmount)
	if !app.Applied() {
		a.logger.Debug("coupon not applied",
			slog.String("location_id", loc.ID),
			slog.String("reason", app.Reason.Error()))
		return CouponApplication{Reason: app.Reason}
	}

	couponID := app.Coupon.ID()
	result, err := a.coupons.Redeem(ctx, couponID)
	if err != nil {
		if errs.Is(err, coupon.ErrUsageLimitReached) {
			return CouponApplication{Reason: coupon.ErrUsageLimitReached}
		}
		a.logger.Warn("coupon redemption failed, continuing without discount",
			slog.String("coupon_id", couponID),
			slog.String("error", err.Error()))
		return CouponApplication{Reason: err}
	}

	a.metrics.CouponRedeemed(result.Atomic)
	if !result.Atomic && !result.Verified {
		a.metrics.CouponReconciliationMismatch()
		a.logger.Warn("coupon usage count did not reconcile after redemption",
			slog.String("coupon_id", couponID),
			slog.Int64("expected_used_count", result.Expected),
			slog.Int64("observed_used_count", result.Observed))
	}
	return app
}
